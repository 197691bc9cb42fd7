package typed

import (
	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/expanded"
)

type CheckState int

const (
	Untouched CheckState = iota
	InChecking
	Done
)

// Scc is one strongly connected component of a module's global-reference
// graph: the unit of let-generalization.
type Scc struct {
	Vars  []*El
	State CheckState
}

// SccScratch is Tarjan's per-node working state.
type SccScratch struct {
	Index   int
	Lowlink int
	OnStack bool
	Visited bool
}

type Args interface {
	_args()
}

type NonFunc struct{}

func (*NonFunc) _args() {}

type Param struct {
	Name ast.Identifier
	Mono Mono
}

type FuncArgs struct {
	Params []Param
}

func (*FuncArgs) _args() {}

type TopVar interface {
	_topVar()
	GetName() ast.Identifier
}

// El is a top-level binding defined in the language itself.
type El struct {
	ast.Location
	Name        ast.Identifier
	UniqueName  string
	Args        Args
	Expr        expanded.Expression
	Poly        Poly
	TypedExpr   Expression
	UsedGlobals []ast.Identifier
	Scc         *Scc
	SccSt       SccScratch
	Module      *Module
}

func (*El) _topVar() {}

func (e *El) GetName() ast.Identifier { return e.Name }

func (e *El) IsFunc() bool {
	_, ok := e.Args.(*FuncArgs)
	return ok
}

type Extern struct {
	ast.Location
	Name         ast.Identifier
	ExternalName string
	Mono         Mono
}

func (*Extern) _topVar() {}

func (e *Extern) GetName() ast.Identifier { return e.Name }

type ImplicitExtern struct {
	ast.Location
	Name         ast.Identifier
	ExternalName string
	Mono         Mono
}

func (*ImplicitExtern) _topVar() {}

func (e *ImplicitExtern) GetName() ast.Identifier { return e.Name }

type Module struct {
	Name     ast.Identifier
	Filename string
	Parent   *Module

	SubModules map[ast.Identifier]*Module

	// Opened modules, most recently opened first; consulted after the
	// module's own tables during name resolution.
	Opened []*Module

	GlobVars map[ast.Identifier]TopVar
	// GlobOrder preserves declaration order for scheduling and emission.
	GlobOrder []ast.Identifier

	Types         map[ast.Identifier]*UserType
	VariantToType map[ast.Identifier]*UserType
	FieldToType   map[ast.Identifier]*UserType

	Sccs []*Scc

	// InEval is true while the module is being processed; re-entry
	// signals an import cycle.
	InEval bool
}

func NewModule(name ast.Identifier, filename string, parent *Module) *Module {
	return &Module{
		Name:          name,
		Filename:      filename,
		Parent:        parent,
		SubModules:    map[ast.Identifier]*Module{},
		GlobVars:      map[ast.Identifier]TopVar{},
		Types:         map[ast.Identifier]*UserType{},
		VariantToType: map[ast.Identifier]*UserType{},
		FieldToType:   map[ast.Identifier]*UserType{},
	}
}
