// Package typed holds monotypes, polytypes, user-defined types and the
// typed expression tree. Type variables are implemented as shared mutable
// cells: unification records substitutions by writing into them, and
// InnerMono compresses chains of bound cells on the way down.
package typed

import (
	"fmt"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

type Mono interface {
	fmt.Stringer
	_mono()
}

type Base int

const (
	Unit Base = iota
	I64
	CInt
	F64
	Bool
	Char
)

func (Base) _mono() {}

func (b Base) String() string {
	switch b {
	case Unit:
		return "unit"
	case I64:
		return "i64"
	case CInt:
		return "c_int"
	case F64:
		return "f64"
	case Bool:
		return "bool"
	case Char:
		return "char"
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown base type %d", int(b))))
}

type Pointer struct {
	To Mono
}

func (*Pointer) _mono() {}

func (t *Pointer) String() string { return "&" + t.To.String() }

type Tuple struct {
	Items []Mono
}

func (*Tuple) _mono() {}

func (t *Tuple) String() string {
	return "(" + common.Fold(func(x Mono, s string) string {
		if s != "" {
			s += ", "
		}
		return s + x.String()
	}, "", t.Items) + ")"
}

type Func struct {
	Arg    Mono
	Result Mono
}

func (*Func) _mono() {}

func (t *Func) String() string { return t.Arg.String() + " -> " + t.Result.String() }

type Opaque struct {
	Inner Mono
}

func (*Opaque) _mono() {}

func (t *Opaque) String() string { return "opaque(" + t.Inner.String() + ")" }

type User struct {
	Decl *UserType
	Args []Mono

	// cached alias expansion, filled by Monify
	alias Mono
}

func (*User) _mono() {}

func (t *User) String() string {
	s := string(t.Decl.Name)
	if len(t.Args) > 0 {
		s += "(" + common.Fold(func(x Mono, acc string) string {
			if acc != "" {
				acc += ", "
			}
			return acc + x.String()
		}, "", t.Args) + ")"
	}
	return s
}

// Monify expands the instantiation if the declaration is an alias.
func (t *User) Monify() (Mono, bool) {
	a, ok := t.Decl.Info.(*Alias)
	if !ok {
		return nil, false
	}
	if t.alias == nil {
		sub := map[ast.Identifier]Mono{}
		for i, v := range t.Decl.TyVars {
			sub[v] = t.Args[i]
		}
		t.alias = SubstVars(a.Mono, sub)
	}
	return t.alias, true
}

// Cell is a union-find cell: nil Bound means unbound.
type Cell struct {
	Bound Mono
}

type Var struct {
	Name ast.Identifier
	Cell *Cell
}

func (*Var) _mono() {}

func (t *Var) String() string {
	if t.Cell.Bound != nil {
		return t.Cell.Bound.String()
	}
	return string(t.Name)
}

type Indir struct {
	ID   uint64
	Cell *Cell
}

func (*Indir) _mono() {}

func (t *Indir) String() string {
	if t.Cell.Bound != nil {
		return t.Cell.Bound.String()
	}
	return fmt.Sprintf("_%d", t.ID)
}

var indirIndex uint64

func NewIndir() *Indir {
	indirIndex++
	return &Indir{ID: indirIndex, Cell: &Cell{}}
}

func NewVar(name ast.Identifier) *Var {
	return &Var{Name: name, Cell: &Cell{}}
}

// InnerMono follows chains of bound cells to the terminal representative
// and rewrites every cell on the way to point at it directly.
func InnerMono(m Mono) Mono {
	switch t := m.(type) {
	case *Var:
		if t.Cell.Bound != nil {
			r := InnerMono(t.Cell.Bound)
			t.Cell.Bound = r
			return r
		}
	case *Indir:
		if t.Cell.Bound != nil {
			r := InnerMono(t.Cell.Bound)
			t.Cell.Bound = r
			return r
		}
	}
	return m
}

func cellOf(m Mono) *Cell {
	switch t := m.(type) {
	case *Var:
		return t.Cell
	case *Indir:
		return t.Cell
	}
	return nil
}

// SubstVars rewrites every Var whose name appears in sub, resolving bound
// cells along the way. The input is never mutated.
func SubstVars(m Mono, sub map[ast.Identifier]Mono) Mono {
	m = InnerMono(m)
	switch t := m.(type) {
	case Base:
		return t
	case *Var:
		if r, ok := sub[t.Name]; ok {
			return r
		}
		return t
	case *Indir:
		return t
	case *Pointer:
		return &Pointer{To: SubstVars(t.To, sub)}
	case *Tuple:
		return &Tuple{Items: common.Map(func(x Mono) Mono { return SubstVars(x, sub) }, t.Items)}
	case *Func:
		return &Func{Arg: SubstVars(t.Arg, sub), Result: SubstVars(t.Result, sub)}
	case *Opaque:
		return &Opaque{Inner: SubstVars(t.Inner, sub)}
	case *User:
		return &User{Decl: t.Decl, Args: common.Map(func(x Mono) Mono { return SubstVars(x, sub) }, t.Args)}
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown monotype %T", m)))
}

// Resolve returns a structurally equal monotype with every bound cell
// chased away. Handy before hashing or emission.
func Resolve(m Mono) Mono {
	return SubstVars(m, nil)
}

// FreeIndirCells collects the distinct unbound Indir cells in
// first-occurrence order. Var cells are not free: a Var only exists as a
// quantifier (or a type declaration's parameter, which instantiation
// substitutes away before inference ever sees it).
func FreeIndirCells(m Mono) []*Cell {
	var cells []*Cell
	seen := map[*Cell]struct{}{}
	var walk func(Mono)
	walk = func(m Mono) {
		m = InnerMono(m)
		switch t := m.(type) {
		case *Indir:
			if _, ok := seen[t.Cell]; !ok {
				seen[t.Cell] = struct{}{}
				cells = append(cells, t.Cell)
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
	return cells
}
