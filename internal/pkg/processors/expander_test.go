package processors_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/expanded"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
	"github.com/evan-a-w/evanlang2/internal/pkg/processors"
)

func pvar(name string) parsed.Pattern {
	return &parsed.PVar{Name: ast.Identifier(name)}
}

func evar(name string) expanded.Expression {
	return &expanded.Var{Name: ast.Identifier(name)}
}

// boundNames drops the desugarer's fresh intermediates, keeping only the
// names the pattern itself introduces.
func boundNames(bindings []expanded.Binding) []string {
	var names []string
	for _, b := range bindings {
		if name := string(b.Name); name[0] != '_' {
			names = append(names, name)
		}
	}
	return names
}

func TestBreakupVarPattern(t *testing.T) {
	bindings := processors.BreakupPatterns(pvar("x"), evar("subject"))
	if len(bindings) != 1 || bindings[0].Name != "x" {
		t.Fatalf("bindings = %v", bindings)
	}
	if diff := cmp.Diff([]string{"x"}, boundNames(bindings)); diff != "" {
		t.Error(diff)
	}
}

func TestBreakupTuplePattern(t *testing.T) {
	p := &parsed.PTuple{Items: []parsed.Pattern{pvar("a"), pvar("b")}}
	bindings := processors.BreakupPatterns(p, evar("subject"))

	if diff := cmp.Diff([]string{"a", "b"}, boundNames(bindings)); diff != "" {
		t.Error(diff)
	}
	// the subject is bound first so later projections can refer to it
	if bindings[0].Name[0] != '_' {
		t.Errorf("first binding should be the fresh subject, got %s", bindings[0].Name)
	}
	access, ok := bindings[1].Value.(*expanded.TupleAccess)
	if !ok {
		t.Fatalf("a is bound to %T, want tuple access", bindings[1].Value)
	}
	if access.Index != 0 {
		t.Errorf("a projects index %d", access.Index)
	}
	v, ok := access.Expr.(*expanded.Var)
	if !ok || v.Name != bindings[0].Name {
		t.Errorf("projection reads %v, want the fresh subject", access.Expr)
	}
}

func TestBreakupNestedEnumPattern(t *testing.T) {
	p := &parsed.PEnum{Variant: "Some", Payload: &parsed.PTuple{
		Items: []parsed.Pattern{pvar("x"), pvar("y")},
	}}
	bindings := processors.BreakupPatterns(p, evar("subject"))
	if diff := cmp.Diff([]string{"x", "y"}, boundNames(bindings)); diff != "" {
		t.Error(diff)
	}
	if _, ok := bindings[0].Value.(*expanded.AccessEnumField); !ok {
		t.Errorf("enum payload bound to %T", bindings[0].Value)
	}
}

func TestBreakupStructShorthandField(t *testing.T) {
	p := &parsed.PStruct{Name: "point", Fields: []parsed.PStructField{
		{Name: "x"},
		{Name: "y", Sub: pvar("py")},
	}}
	bindings := processors.BreakupPatterns(p, evar("subject"))
	if diff := cmp.Diff([]string{"x", "py"}, boundNames(bindings)); diff != "" {
		t.Error(diff)
	}
	if _, ok := bindings[0].Value.(*expanded.AssertStruct); !ok {
		t.Errorf("subject bound to %T, want struct assertion", bindings[0].Value)
	}
}

func TestBreakupRefutablePatternFails(t *testing.T) {
	defer func() {
		x := recover()
		if x == nil {
			t.Fatal("literal pattern accepted in let position")
		}
		err, ok := x.(common.Error)
		if !ok || err.Kind != common.KindPattern {
			t.Fatalf("unexpected panic %v", x)
		}
	}()
	processors.BreakupPatterns(&parsed.PConst{Value: ast.CInt{Value: 1}}, evar("subject"))
}

func TestExpandMatchGuards(t *testing.T) {
	m := &parsed.Match{
		Subject: &parsed.Var{Name: "opt"},
		Cases: []parsed.MatchCase{
			{Pattern: &parsed.PEnum{Variant: "Some", Payload: pvar("x")}, Expression: &parsed.Var{Name: "x"}},
			{Pattern: &parsed.PEnum{Variant: "None"}, Expression: &parsed.Const{Value: ast.CInt{Value: 0}}},
		},
	}
	e := processors.Expand(m)

	let, ok := e.(*expanded.Let)
	if !ok {
		t.Fatalf("match expands to %T, want a subject let", e)
	}
	match, ok := let.Body.(*expanded.Match)
	if !ok {
		t.Fatalf("let body is %T", let.Body)
	}
	// two arms plus the trap fall-through
	if len(match.Arms) != 3 {
		t.Fatalf("arm count = %d", len(match.Arms))
	}
	if _, ok := match.Arms[0].Cond.(*expanded.CheckVariant); !ok {
		t.Errorf("first arm guard is %T, want a variant check", match.Arms[0].Cond)
	}
	if _, ok := match.Arms[2].Body.(*expanded.Unreachable); !ok {
		t.Errorf("fall-through body is %T", match.Arms[2].Body)
	}
}

func TestExpandMatchLiteralGuard(t *testing.T) {
	m := &parsed.Match{
		Subject: &parsed.Var{Name: "n"},
		Cases: []parsed.MatchCase{
			{Pattern: &parsed.PConst{Value: ast.CInt{Value: 0}}, Expression: &parsed.Const{Value: ast.CBool{Value: true}}},
			{Pattern: pvar("rest"), Expression: &parsed.Const{Value: ast.CBool{Value: false}}},
		},
	}
	e := processors.Expand(m)
	match := e.(*expanded.Let).Body.(*expanded.Match)

	guard, ok := match.Arms[0].Cond.(*expanded.BinOp)
	if !ok || guard.Op != parsed.OpEq {
		t.Fatalf("literal arm guard = %#v", match.Arms[0].Cond)
	}
	if diff := cmp.Diff([]string{"rest"}, boundNames(match.Arms[1].Bindings)); diff != "" {
		t.Error(diff)
	}
}

func TestCollectGlobals(t *testing.T) {
	// let a = f(x) in g(a)  with x a parameter
	e := &expanded.Let{
		Name:  "a",
		Value: &expanded.Apply{Func: evar("f"), Arg: evar("x")},
		Body:  &expanded.Apply{Func: evar("g"), Arg: evar("a")},
	}
	got := processors.CollectGlobals(e, map[ast.Identifier]struct{}{"x": {}})
	want := []ast.Identifier{"f", "g"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Error(diff)
	}
}
