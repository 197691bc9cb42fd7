package typed

import (
	"fmt"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
)

type Poly interface {
	fmt.Stringer
	_poly()
}

type MonoP struct {
	Mono Mono
}

func (*MonoP) _poly() {}

func (p *MonoP) String() string { return p.Mono.String() }

type ForAll struct {
	Name ast.Identifier
	Body Poly
}

func (*ForAll) _poly() {}

func (p *ForAll) String() string {
	return fmt.Sprintf("forall %s. %s", p.Name, p.Body)
}

// QuantifierNames lists the quantified names outermost first; the order
// doubles as the canonical type-argument order for monomorphization.
func QuantifierNames(p Poly) []ast.Identifier {
	var names []ast.Identifier
	for {
		fa, ok := p.(*ForAll)
		if !ok {
			return names
		}
		names = append(names, fa.Name)
		p = fa.Body
	}
}

func PolyMono(p Poly) Mono {
	for {
		switch t := p.(type) {
		case *MonoP:
			return t.Mono
		case *ForAll:
			p = t.Body
		}
	}
}

// Inst strips the quantifiers, substituting each by a fresh unknown, and
// records the substitution for the emitter.
func Inst(p Poly) (Mono, map[ast.Identifier]Mono) {
	sub := map[ast.Identifier]Mono{}
	for _, name := range QuantifierNames(p) {
		sub[name] = NewIndir()
	}
	m := SubstVars(PolyMono(p), sub)
	if len(sub) == 0 {
		return m, nil
	}
	return m, sub
}

func quantName(i int) ast.Identifier {
	if i < 26 {
		return ast.Identifier(rune('a' + i))
	}
	return ast.Identifier(fmt.Sprintf("t%d", i-25))
}

// Generalize closes over every free unknown of m, binding its cell to a
// freshly named quantified variable. Because the cells are shared with
// the binding's typed expression, the rename is visible there too.
func Generalize(m Mono) Poly {
	return GeneralizeGroup([]Mono{m})[0]
}

// GeneralizeGroup generalizes the members of one strongly connected
// component under a single shared naming, so that unknowns unified
// across mutually recursive bindings quantify to the same variable in
// each member's polytype.
func GeneralizeGroup(monos []Mono) []Poly {
	seen := map[*Cell]struct{}{}
	var cells []*Cell
	for _, m := range monos {
		for _, c := range FreeIndirCells(m) {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				cells = append(cells, c)
			}
		}
	}
	for i, cell := range cells {
		cell.Bound = NewVar(quantName(i))
	}

	polys := make([]Poly, len(monos))
	for i, m := range monos {
		names := freeVarNames(m)
		var p Poly = &MonoP{Mono: m}
		for j := len(names) - 1; j >= 0; j-- {
			p = &ForAll{Name: names[j], Body: p}
		}
		polys[i] = p
	}
	return polys
}

// freeVarNames lists the quantified variables occurring in m, in first
// occurrence order.
func freeVarNames(m Mono) []ast.Identifier {
	var names []ast.Identifier
	seen := map[ast.Identifier]struct{}{}
	var walk func(Mono)
	walk = func(m Mono) {
		m = InnerMono(m)
		switch t := m.(type) {
		case *Var:
			if t.Cell.Bound == nil {
				if _, ok := seen[t.Name]; !ok {
					seen[t.Name] = struct{}{}
					names = append(names, t.Name)
				}
			}
		case *Pointer:
			walk(t.To)
		case *Tuple:
			for _, x := range t.Items {
				walk(x)
			}
		case *Func:
			walk(t.Arg)
			walk(t.Result)
		case *Opaque:
			walk(t.Inner)
		case *User:
			for _, x := range t.Args {
				walk(x)
			}
		}
	}
	walk(m)
	return names
}

// Weaken is the value-restriction analogue: free unknowns of a
// non-function binding are replaced by fresh unknowns instead of being
// quantified, so the binding stays monomorphic.
func Weaken(m Mono) Poly {
	for _, cell := range FreeIndirCells(m) {
		cell.Bound = NewIndir()
	}
	return &MonoP{Mono: m}
}
