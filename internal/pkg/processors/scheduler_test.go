package processors_test

import (
	"testing"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/typed"
	"github.com/evan-a-w/evanlang2/internal/pkg/processors"
)

func testModule(deps map[string][]string, order ...string) *typed.Module {
	m := typed.NewModule("Main", "main.el2", nil)
	for _, name := range order {
		el := &typed.El{
			Name:       ast.Identifier(name),
			UniqueName: "Main_" + name,
			Args:       &typed.NonFunc{},
			Module:     m,
		}
		for _, dep := range deps[name] {
			el.UsedGlobals = append(el.UsedGlobals, ast.Identifier(dep))
		}
		m.GlobVars[el.Name] = el
		m.GlobOrder = append(m.GlobOrder, el.Name)
	}
	return m
}

func sccNames(scc *typed.Scc) map[string]bool {
	names := map[string]bool{}
	for _, el := range scc.Vars {
		names[string(el.Name)] = true
	}
	return names
}

func TestSccsGroupMutualRecursion(t *testing.T) {
	m := testModule(map[string][]string{
		"even": {"odd"},
		"odd":  {"even"},
		"main": {"even"},
	}, "even", "odd", "main")

	sccs := processors.BuildSccs(m)
	if len(sccs) != 2 {
		t.Fatalf("scc count = %d, want 2", len(sccs))
	}
	first := sccNames(sccs[0])
	if !first["even"] || !first["odd"] || len(first) != 2 {
		t.Errorf("first scc = %v, want {even, odd}", first)
	}
	if !sccNames(sccs[1])["main"] {
		t.Errorf("second scc = %v, want {main}", sccNames(sccs[1]))
	}
}

func TestSccsCalleeFirst(t *testing.T) {
	// main -> helper -> leaf, declared in calling order
	m := testModule(map[string][]string{
		"main":   {"helper"},
		"helper": {"leaf"},
		"leaf":   {},
	}, "main", "helper", "leaf")

	sccs := processors.BuildSccs(m)
	if len(sccs) != 3 {
		t.Fatalf("scc count = %d, want 3", len(sccs))
	}
	order := []string{}
	for _, scc := range sccs {
		if len(scc.Vars) != 1 {
			t.Fatalf("unexpected component size %d", len(scc.Vars))
		}
		order = append(order, string(scc.Vars[0].Name))
	}
	want := []string{"leaf", "helper", "main"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("component order = %v, want %v", order, want)
		}
	}
}

func TestSccsSelfRecursion(t *testing.T) {
	m := testModule(map[string][]string{
		"fact": {"fact"},
	}, "fact")

	sccs := processors.BuildSccs(m)
	if len(sccs) != 1 || len(sccs[0].Vars) != 1 {
		t.Fatalf("sccs = %v", sccs)
	}
	el := sccs[0].Vars[0]
	if el.Scc != sccs[0] {
		t.Error("member does not point back at its component")
	}
	if sccs[0].State != typed.Untouched {
		t.Errorf("fresh component state = %d", sccs[0].State)
	}
}

func TestSccsIgnoreExterns(t *testing.T) {
	m := testModule(map[string][]string{
		"main": {"puts", "main"},
	}, "main")
	m.GlobVars["puts"] = &typed.ImplicitExtern{Name: "puts", ExternalName: "puts", Mono: typed.Unit}
	m.GlobOrder = append(m.GlobOrder, "puts")

	sccs := processors.BuildSccs(m)
	if len(sccs) != 1 {
		t.Fatalf("scc count = %d, want 1", len(sccs))
	}
}
