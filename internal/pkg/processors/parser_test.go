package processors_test

import (
	"strings"
	"testing"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
	"github.com/evan-a-w/evanlang2/internal/pkg/processors"
)

func parse(t *testing.T, src string) *parsed.Module {
	t.Helper()
	m, err := processors.ParseWithContent("test.el2", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return m
}

func TestParseToplevels(t *testing.T) {
	m := parse(t, `
open Util
type option(a) := | Some(a) | None
type point := { x : i64; y : i64 }
type meters := i64
let zero = 0
let add(a : i64, b : i64) : i64 = a + b
extern exit : c_int -> unit = "exit"
implicit_extern put : c_int -> c_int = "putchar"
`)
	kinds := []string{}
	for _, top := range m.Toplevels {
		switch top.(type) {
		case *parsed.Open:
			kinds = append(kinds, "open")
		case *parsed.LetType:
			kinds = append(kinds, "type")
		case *parsed.Let:
			kinds = append(kinds, "let")
		case *parsed.LetFn:
			kinds = append(kinds, "fn")
		case *parsed.Extern:
			kinds = append(kinds, "extern")
		case *parsed.ImplicitExtern:
			kinds = append(kinds, "implicit")
		default:
			kinds = append(kinds, "?")
		}
	}
	want := []string{"open", "type", "type", "type", "let", "fn", "extern", "implicit"}
	if len(kinds) != len(want) {
		t.Fatalf("toplevels = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("toplevels = %v, want %v", kinds, want)
		}
	}
}

func TestParseLambdaLetBecomesFunction(t *testing.T) {
	m := parse(t, `let id = fun x -> x`)
	fn, ok := m.Toplevels[0].(*parsed.LetFn)
	if !ok {
		t.Fatalf("got %T, want a function declaration", m.Toplevels[0])
	}
	if fn.Name != "id" || len(fn.Params) != 1 || fn.Params[0].Name != "x" {
		t.Errorf("fn = %s params %v", fn.Name, fn.Params)
	}
	if _, ok := fn.Expr.(*parsed.Var); !ok {
		t.Errorf("body is %T", fn.Expr)
	}
}

func TestParsePrecedence(t *testing.T) {
	m := parse(t, `let x = 1 + 2 * 3 = 7 && true`)
	let := m.Toplevels[0].(*parsed.Let)

	and, ok := let.Expr.(*parsed.BinOp)
	if !ok || and.Op != parsed.OpAnd {
		t.Fatalf("top operator = %#v, want &&", let.Expr)
	}
	eq, ok := and.Left.(*parsed.BinOp)
	if !ok || eq.Op != parsed.OpEq {
		t.Fatalf("left of && = %#v, want =", and.Left)
	}
	add, ok := eq.Left.(*parsed.BinOp)
	if !ok || add.Op != parsed.OpAdd {
		t.Fatalf("left of = is %#v, want +", eq.Left)
	}
	mul, ok := add.Right.(*parsed.BinOp)
	if !ok || mul.Op != parsed.OpMul {
		t.Fatalf("right of + is %#v, want *", add.Right)
	}
}

func TestParseMatch(t *testing.T) {
	m := parse(t, `let f(o) = match o with | Some(x) -> x | None -> 0`)
	fn := m.Toplevels[0].(*parsed.LetFn)
	match, ok := fn.Expr.(*parsed.Match)
	if !ok {
		t.Fatalf("body is %T", fn.Expr)
	}
	if len(match.Cases) != 2 {
		t.Fatalf("case count = %d", len(match.Cases))
	}
	some, ok := match.Cases[0].Pattern.(*parsed.PEnum)
	if !ok || some.Variant != "Some" || some.Payload == nil {
		t.Errorf("first pattern = %#v", match.Cases[0].Pattern)
	}
	none, ok := match.Cases[1].Pattern.(*parsed.PEnum)
	if !ok || none.Variant != "None" || none.Payload != nil {
		t.Errorf("second pattern = %#v", match.Cases[1].Pattern)
	}
}

func TestParsePostfix(t *testing.T) {
	m := parse(t, `let f(p) = p.next^.1`)
	fn := m.Toplevels[0].(*parsed.LetFn)
	tup, ok := fn.Expr.(*parsed.TupleAccess)
	if !ok || tup.Index != 1 {
		t.Fatalf("body = %#v, want tuple access", fn.Expr)
	}
	deref, ok := tup.Expr.(*parsed.Deref)
	if !ok {
		t.Fatalf("inner = %#v, want deref", tup.Expr)
	}
	if _, ok := deref.Expr.(*parsed.FieldAccess); !ok {
		t.Errorf("deref subject = %#v, want field access", deref.Expr)
	}
}

func TestParseQualifiedNames(t *testing.T) {
	m := parse(t, `let x = Util.Inner.zero`)
	let := m.Toplevels[0].(*parsed.Let)
	v, ok := let.Expr.(*parsed.Var)
	if !ok {
		t.Fatalf("expr = %#v", let.Expr)
	}
	if v.Module != "Util.Inner" || v.Name != "zero" {
		t.Errorf("reference = %s.%s", v.Module, v.Name)
	}
	path := v.Module.Path()
	if len(path) != 2 || path[0] != "Util" || path[1] != "Inner" {
		t.Errorf("module path = %v", path)
	}
}

func TestParsePointerAndFunctionTypes(t *testing.T) {
	m := parse(t, `extern f : &char -> (i64, bool) -> unit = "f"`)
	ext := m.Toplevels[0].(*parsed.Extern)
	fn, ok := ext.Type.(*parsed.TFunc)
	if !ok {
		t.Fatalf("type = %#v", ext.Type)
	}
	if _, ok := fn.Arg.(*parsed.TPointer); !ok {
		t.Errorf("arg = %#v, want pointer", fn.Arg)
	}
	inner, ok := fn.Result.(*parsed.TFunc)
	if !ok {
		t.Fatalf("result = %#v, want function", fn.Result)
	}
	if _, ok := inner.Arg.(*parsed.TTuple); !ok {
		t.Errorf("inner arg = %#v, want tuple", inner.Arg)
	}
}

func TestParseAssignAndSeq(t *testing.T) {
	m := parse(t, `let f(p) = p^ <- 1; p^`)
	fn := m.Toplevels[0].(*parsed.LetFn)
	seq, ok := fn.Expr.(*parsed.Compound)
	if !ok || len(seq.Items) != 2 {
		t.Fatalf("body = %#v, want a two-item sequence", fn.Expr)
	}
	if _, ok := seq.Items[0].(*parsed.Assign); !ok {
		t.Errorf("first item = %#v, want assignment", seq.Items[0])
	}
}

func TestParseSyntaxErrorHasLocation(t *testing.T) {
	_, err := processors.ParseWithContent("test.el2", "let = 5")
	if err == nil {
		t.Fatal("parse succeeded")
	}
	// the parser stops at the `=` where a pattern should start
	if !strings.HasPrefix(err.Error(), "test.el2:1:5 ") {
		t.Errorf("error %q does not point at line 1, column 5", err)
	}
}

func TestParseStructLitAndPattern(t *testing.T) {
	m := parse(t, `
let p = point { x = 1; y = 2 }
let point { x; y } = p
`)
	lit := m.Toplevels[0].(*parsed.Let).Expr.(*parsed.StructLit)
	if lit.Name != "point" || len(lit.Fields) != 2 {
		t.Fatalf("literal = %#v", lit)
	}
	pat, ok := m.Toplevels[1].(*parsed.Let).Pattern.(*parsed.PStruct)
	if !ok || len(pat.Fields) != 2 || pat.Fields[0].Sub != nil {
		t.Fatalf("pattern = %#v", m.Toplevels[1].(*parsed.Let).Pattern)
	}
}
