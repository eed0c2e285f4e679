package mathexpr

// Scope stores variables during evaluation. It is owned by the caller and
// must not be shared between concurrent evaluations.
type Scope interface {
	Get(name string) (Value, bool)
	Has(name string) bool
	// Set defines name in this scope.
	Set(name string, v Value)
	// Update writes name in the scope that defines it, or defines it here.
	Update(name string, v Value)
}

// MapScope is a Scope backed by a map.
type MapScope map[string]Value

// NewMapScope returns an empty scope.
func NewMapScope() MapScope { return MapScope{} }

func (s MapScope) Get(name string) (Value, bool) {
	v, ok := s[name]
	return v, ok
}

func (s MapScope) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s MapScope) Set(name string, v Value)    { s[name] = v }
func (s MapScope) Update(name string, v Value) { s[name] = v }

// ChildScope layers local variables over a parent. Reads fall back to the
// parent; Set writes locally.
type ChildScope struct {
	parent Scope
	local  MapScope
}

// NewChildScope returns a scope whose reads fall back to parent.
func NewChildScope(parent Scope) *ChildScope {
	return &ChildScope{parent: parent, local: MapScope{}}
}

func (s *ChildScope) Get(name string) (Value, bool) {
	if v, ok := s.local[name]; ok {
		return v, true
	}
	return s.parent.Get(name)
}

func (s *ChildScope) Has(name string) bool {
	return s.local.Has(name) || s.parent.Has(name)
}

func (s *ChildScope) Set(name string, v Value) { s.local[name] = v }

func (s *ChildScope) Update(name string, v Value) {
	if !s.local.Has(name) && s.parent.Has(name) {
		s.parent.Update(name, v)
		return
	}
	s.local[name] = v
}
