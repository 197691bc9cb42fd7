package processors

import (
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/typed"
)

// BuildSccs runs Tarjan's algorithm over the module's global-reference
// graph. Components come out callee-first (reverse topological order of
// the condensation), which is exactly the order generalization wants.
// Externs and implicit externs are not nodes: their types are fixed at
// declaration.
func BuildSccs(m *typed.Module) []*typed.Scc {
	var sccs []*typed.Scc
	index := 0
	var stack []*typed.El

	var strongconnect func(v *typed.El)
	strongconnect = func(v *typed.El) {
		v.SccSt = typed.SccScratch{Index: index, Lowlink: index, OnStack: true, Visited: true}
		index++
		stack = append(stack, v)

		for _, name := range v.UsedGlobals {
			w, ok := m.GlobVars[name].(*typed.El)
			if !ok {
				continue
			}
			if !w.SccSt.Visited {
				strongconnect(w)
				v.SccSt.Lowlink = min(v.SccSt.Lowlink, w.SccSt.Lowlink)
			} else if w.SccSt.OnStack {
				v.SccSt.Lowlink = min(v.SccSt.Lowlink, w.SccSt.Index)
			}
		}

		if v.SccSt.Lowlink == v.SccSt.Index {
			scc := &typed.Scc{State: typed.Untouched}
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				w.SccSt.OnStack = false
				w.Scc = scc
				scc.Vars = append(scc.Vars, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, name := range m.GlobOrder {
		if el, ok := m.GlobVars[name].(*typed.El); ok && !el.SccSt.Visited {
			strongconnect(el)
		}
	}
	return sccs
}
