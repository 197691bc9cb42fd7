package ast_test

import (
	"testing"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
)

// Literal identity is what the emitter's guard folding relies on: a
// match arm whose condition is the literal `true` becomes the
// unconditional branch.
func TestConstValueEquality(t *testing.T) {
	pairs := []struct {
		a, b ast.ConstValue
		want bool
	}{
		{ast.CUnit{}, ast.CUnit{}, true},
		{ast.CInt{Value: 3}, ast.CInt{Value: 3}, true},
		{ast.CInt{Value: 3}, ast.CInt{Value: 4}, false},
		{ast.CBool{Value: true}, ast.CBool{Value: true}, true},
		{ast.CBool{Value: true}, ast.CBool{Value: false}, false},
		{ast.CChar{Value: 'x'}, ast.CChar{Value: 'x'}, true},
		{ast.CString{Value: "a"}, ast.CString{Value: "a"}, true},
		{ast.CFloat{Value: 1.5}, ast.CFloat{Value: 1.5}, true},
	}
	for _, p := range pairs {
		if got := p.a.EqualsTo(p.b); got != p.want {
			t.Errorf("%s EqualsTo %s = %v, want %v", p.a, p.b, got, p.want)
		}
	}
}

// Values of different literal kinds never compare equal, even when a
// numeric coincidence might suggest otherwise.
func TestConstValueCrossKindInequality(t *testing.T) {
	values := []ast.ConstValue{
		ast.CUnit{},
		ast.CInt{Value: 1},
		ast.CFloat{Value: 1},
		ast.CBool{Value: true},
		ast.CChar{Value: 1},
		ast.CString{Value: "1"},
	}
	for i, a := range values {
		for j, b := range values {
			if i != j && a.EqualsTo(b) {
				t.Errorf("%T compares equal to %T", a, b)
			}
		}
	}
}
