package typed_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/typed"
)

func listType() *typed.UserType {
	u := &typed.UserType{
		Name:     "list",
		ReprName: "Main_list",
		TyVars:   []ast.Identifier{"a"},
	}
	u.Info = &typed.EnumInfo{Variants: []typed.Variant{
		{Name: "Cons", Payload: &typed.Tuple{Items: []typed.Mono{typed.NewVar("a")}}},
		{Name: "Nil"},
	}}
	return u
}

func mustUnify(t *testing.T, a, b typed.Mono) typed.Mono {
	t.Helper()
	m, err := typed.Unify(a, b)
	if err != nil {
		t.Fatalf("Unify(%s, %s): %v", a, b, err)
	}
	return m
}

func TestUnifyBindsUnknowns(t *testing.T) {
	a := &typed.Func{Arg: typed.NewIndir(), Result: typed.I64}
	b := &typed.Func{Arg: typed.Bool, Result: typed.NewIndir()}
	mustUnify(t, a, b)

	want := "bool -> i64"
	if got := typed.Resolve(a).String(); got != want {
		t.Errorf("left resolved to %q, want %q", got, want)
	}
	if diff := cmp.Diff(typed.Resolve(a).String(), typed.Resolve(b).String()); diff != "" {
		t.Errorf("sides disagree after unification (-left +right):\n%s", diff)
	}
}

func TestUnifyIdempotence(t *testing.T) {
	a := &typed.Tuple{Items: []typed.Mono{typed.I64, &typed.Pointer{To: typed.Char}}}
	mustUnify(t, a, a)
	mustUnify(t, a, a)
	if got := typed.Resolve(a).String(); got != "(i64, &char)" {
		t.Errorf("type changed by self-unification: %q", got)
	}
}

func TestUnifyConcreteMismatch(t *testing.T) {
	if _, err := typed.Unify(typed.I64, typed.Bool); err == nil {
		t.Fatal("i64 ~ bool unified")
	}
}

func TestUnifyTupleLengthMismatch(t *testing.T) {
	a := &typed.Tuple{Items: []typed.Mono{typed.I64, typed.I64}}
	b := &typed.Tuple{Items: []typed.Mono{typed.I64}}
	if _, err := typed.Unify(a, b); err == nil {
		t.Fatal("tuples of different length unified")
	}
}

func TestUnifyFailureChainInnermost(t *testing.T) {
	list := listType()
	a, _ := list.Inst([]typed.Mono{&typed.Pointer{To: typed.Char}})
	b, _ := list.Inst([]typed.Mono{typed.I64})

	_, err := typed.Unify(a, b)
	if err == nil {
		t.Fatal("list(&char) ~ list(i64) unified")
	}
	me, ok := err.(*typed.MatchError)
	if !ok {
		t.Fatalf("unexpected error type %T", err)
	}
	inner := me.Innermost()
	if inner.Left.String() != "&char" || inner.Right.String() != "i64" {
		t.Errorf("innermost conflict is %s vs %s, want &char vs i64", inner.Left, inner.Right)
	}
	if me.Left.String() != "list(&char)" {
		t.Errorf("outermost left is %s, want list(&char)", me.Left)
	}
}

func TestOccursCheck(t *testing.T) {
	i := typed.NewIndir()
	if _, err := typed.Unify(i, &typed.Pointer{To: i}); err == nil {
		t.Fatal("infinite type unified")
	}
}

func TestAliasUnifiesWithStructure(t *testing.T) {
	alias := &typed.UserType{Name: "id", ReprName: "Main_id", Info: &typed.Alias{Mono: typed.I64}}
	a, _ := alias.Inst(nil)
	mustUnify(t, a, typed.I64)
}

func TestDistinctAliasesStayApart(t *testing.T) {
	a1 := &typed.UserType{Name: "s1", ReprName: "Main_s1", Info: &typed.Alias{Mono: typed.I64}}
	a2 := &typed.UserType{Name: "s2", ReprName: "Main_s2", Info: &typed.Alias{Mono: typed.I64}}
	x, _ := a1.Inst(nil)
	y, _ := a2.Inst(nil)
	if _, err := typed.Unify(x, y); err == nil {
		t.Fatal("two distinct aliases of i64 unified")
	}
}

func TestOpaqueOnlyUnifiesWithOpaque(t *testing.T) {
	a := &typed.Opaque{Inner: typed.I64}
	mustUnify(t, a, &typed.Opaque{Inner: typed.I64})
	if _, err := typed.Unify(&typed.Opaque{Inner: typed.I64}, typed.I64); err == nil {
		t.Fatal("opaque(i64) ~ i64 unified")
	}
}

func TestGeneralizeQuantifiesFreeUnknowns(t *testing.T) {
	i := typed.NewIndir()
	p := typed.Generalize(&typed.Func{Arg: i, Result: i})
	if got := p.String(); got != "forall a. a -> a" {
		t.Errorf("generalized to %q", got)
	}
	if names := typed.QuantifierNames(p); len(names) != 1 || names[0] != "a" {
		t.Errorf("quantifiers = %v", names)
	}
}

func TestGeneralizeGroupSharesNaming(t *testing.T) {
	shared := typed.NewIndir()
	even := &typed.Func{Arg: shared, Result: typed.Bool}
	odd := &typed.Func{Arg: shared, Result: typed.Bool}
	polys := typed.GeneralizeGroup([]typed.Mono{even, odd})
	if polys[0].String() != polys[1].String() {
		t.Errorf("members generalized differently: %q vs %q", polys[0], polys[1])
	}
}

func TestInstFreshness(t *testing.T) {
	i := typed.NewIndir()
	p := typed.Generalize(&typed.Func{Arg: i, Result: i})

	m1, inst1 := typed.Inst(p)
	m2, _ := typed.Inst(p)
	if len(inst1) != 1 {
		t.Fatalf("inst map = %v", inst1)
	}

	mustUnify(t, m1, &typed.Func{Arg: typed.I64, Result: typed.NewIndir()})
	if got := typed.Resolve(m2).String(); strings.Contains(got, "i64") {
		t.Errorf("second instantiation shares unknowns with the first: %q", got)
	}
}

func TestWeakenDoesNotQuantify(t *testing.T) {
	i := typed.NewIndir()
	p := typed.Weaken(&typed.Pointer{To: i})
	if len(typed.QuantifierNames(p)) != 0 {
		t.Fatal("weakened binding has quantifiers")
	}

	m := typed.PolyMono(p)
	mustUnify(t, m, &typed.Pointer{To: typed.I64})
	if _, err := typed.Unify(m, &typed.Pointer{To: typed.Bool}); err == nil {
		t.Fatal("weakened unknown accepted two incompatible types")
	}
}

func TestInnerMonoCompresses(t *testing.T) {
	a := typed.NewIndir()
	b := typed.NewIndir()
	mustUnify(t, a, b)
	mustUnify(t, b, typed.I64)
	if got := typed.InnerMono(a); got != typed.I64 {
		t.Errorf("InnerMono(a) = %s", got)
	}
	if a.Cell.Bound != typed.I64 {
		t.Errorf("path not compressed: cell holds %v", a.Cell.Bound)
	}
}
