package mathexpr

import (
	"fmt"
	"sort"
)

type unitDef struct {
	dimension string
	factor    float64 // to the base unit of the dimension
}

// Known units by name.
var units = map[string]unitDef{
	"m":      {"length", 1},
	"cm":     {"length", 0.01},
	"mm":     {"length", 0.001},
	"km":     {"length", 1000},
	"inch":   {"length", 0.0254},
	"ft":     {"length", 0.3048},
	"s":      {"time", 1},
	"ms":     {"time", 0.001},
	"minute": {"time", 60},
	"hour":   {"time", 3600},
	"g":      {"mass", 0.001},
	"kg":     {"mass", 1},
}

// IsUnitName reports whether name is a known unit.
func IsUnitName(name string) bool {
	_, ok := units[name]
	return ok
}

// UnitNames returns the known unit names, sorted.
func UnitNames() []string {
	out := make([]string, 0, len(units))
	for name := range units {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Unit is a quantity with a unit, e.g. 5 cm.
type Unit struct {
	Value float64
	Name  string
}

// NewUnit returns value in the named unit.
func NewUnit(value float64, name string) (*Unit, error) {
	if !IsUnitName(name) {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrType, name)
	}
	return &Unit{Value: value, Name: name}, nil
}

// To converts u to the named unit of the same dimension.
func (u *Unit) To(name string) (*Unit, error) {
	from, to := units[u.Name], units[name]
	if !IsUnitName(name) || from.dimension != to.dimension {
		return nil, &TypeError{Fn: "to", Types: []string{u.Name, name}}
	}
	return &Unit{Value: u.Value * from.factor / to.factor, Name: name}, nil
}

// base returns the value in the base unit of the dimension.
func (u *Unit) base() float64 { return u.Value * units[u.Name].factor }

func (u *Unit) sameDimension(o *Unit) bool {
	return units[u.Name].dimension == units[o.Name].dimension
}

func (u *Unit) String() string { return formatNumber(u.Value) + " " + u.Name }
