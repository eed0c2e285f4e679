package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

func TestEval(t *testing.T) {
	r, err := newRepl("")
	be.Err(t, err, nil)

	tests := []struct{ src, want string }{
		{"a = 3", "3"},
		{"a * 4", "12"},
		{"ans + 1", "13"},
		{"f(x) = x^2", "f(x)"},
		{"f(a)", "9"},
		{":simplify x + 2 + 3", "x + 5"},
		{":derive x^2 + x, x", "2 * x + 1"},
		{":derive log(x, 2), x", "1 / (x * log(2))"},
		{":rationalize 1/x + 1", "(x + 1) / x"},
	}
	for _, tt := range tests {
		got, err := r.eval(tt.src)
		be.Err(t, err, nil)
		be.Equal(t, got, tt.want)
	}
}

func TestEval_Errors(t *testing.T) {
	r, err := newRepl("")
	be.Err(t, err, nil)

	tests := []struct{ src, want string }{
		{"1 +", "Unexpected end of expression"},
		{"foo", "Undefined symbol foo"},
		{":derive x^2", "usage: :derive expr, variable"},
		{":integrate x", "unknown command :integrate"},
	}
	for _, tt := range tests {
		_, err := r.eval(tt.src)
		be.Err(t, err, tt.want)
	}
}

func TestNewRepl_Rules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	err := os.WriteFile(path, []byte("rules:\n  - l: n1 + n2\n    r: n2 + n1\n"), 0o644)
	be.Err(t, err, nil)

	r, err := newRepl(path)
	be.Err(t, err, nil)
	got, err := r.eval(":simplify a + 1")
	be.Err(t, err, "did not converge")
	be.Equal(t, got, "")

	_, err = newRepl(filepath.Join(t.TempDir(), "missing.yaml"))
	be.Err(t, err, "open rules")
}
