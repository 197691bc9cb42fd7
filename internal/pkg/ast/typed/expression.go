package typed

import (
	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
)

// Expression mirrors the expanded form with every node annotated by its
// monotype. Types may still contain bound cells; InnerMono resolves them.
type Expression interface {
	_expression()
	GetType() Mono
	GetLocation() ast.Location
}

type Const struct {
	ast.Location
	Type  Mono
	Value ast.ConstValue
}

func (*Const) _expression() {}

func (e *Const) GetType() Mono { return e.Type }

func (e *Const) GetLocation() ast.Location { return e.Location }

type LocalVar struct {
	ast.Location
	Type Mono
	Name ast.Identifier
}

func (*LocalVar) _expression() {}

func (e *LocalVar) GetType() Mono { return e.Type }

func (e *LocalVar) GetLocation() ast.Location { return e.Location }

// GlobVar references a top-level binding; InstMap maps each of the
// binding's quantified names to the monotype this use site solved it at.
type GlobVar struct {
	ast.Location
	Type    Mono
	Var     TopVar
	InstMap map[ast.Identifier]Mono
}

func (*GlobVar) _expression() {}

func (e *GlobVar) GetType() Mono { return e.Type }

func (e *GlobVar) GetLocation() ast.Location { return e.Location }

type TupleLit struct {
	ast.Location
	Type  Mono
	Items []Expression
}

func (*TupleLit) _expression() {}

func (e *TupleLit) GetType() Mono { return e.Type }

func (e *TupleLit) GetLocation() ast.Location { return e.Location }

type Apply struct {
	ast.Location
	Type Mono
	Func Expression
	Arg  Expression
}

func (*Apply) _expression() {}

func (e *Apply) GetType() Mono { return e.Type }

func (e *Apply) GetLocation() ast.Location { return e.Location }

type Let struct {
	ast.Location
	Type  Mono
	Name  ast.Identifier
	Value Expression
	Body  Expression
}

func (*Let) _expression() {}

func (e *Let) GetType() Mono { return e.Type }

func (e *Let) GetLocation() ast.Location { return e.Location }

type If struct {
	ast.Location
	Type Mono
	Cond Expression
	Then Expression
	Else Expression
}

func (*If) _expression() {}

func (e *If) GetType() Mono { return e.Type }

func (e *If) GetLocation() ast.Location { return e.Location }

type Binding struct {
	Name  ast.Identifier
	Value Expression
}

type MatchArm struct {
	ast.Location
	Cond     Expression
	Bindings []Binding
	Body     Expression
}

type Match struct {
	ast.Location
	Type Mono
	Arms []MatchArm
}

func (*Match) _expression() {}

func (e *Match) GetType() Mono { return e.Type }

func (e *Match) GetLocation() ast.Location { return e.Location }

type FieldInit struct {
	Name  ast.Identifier
	Value Expression
}

// StructLit fields are kept in the declared type's sorted field order.
type StructLit struct {
	ast.Location
	Type   Mono
	Fields []FieldInit
}

func (*StructLit) _expression() {}

func (e *StructLit) GetType() Mono { return e.Type }

func (e *StructLit) GetLocation() ast.Location { return e.Location }

// Enum constructs a variant value; Payload is nil for bare variants.
type Enum struct {
	ast.Location
	Type    Mono
	Variant ast.Identifier
	Payload Expression
}

func (*Enum) _expression() {}

func (e *Enum) GetType() Mono { return e.Type }

func (e *Enum) GetLocation() ast.Location { return e.Location }

type FieldAccess struct {
	ast.Location
	Type  Mono
	Expr  Expression
	Field ast.Identifier
}

func (*FieldAccess) _expression() {}

func (e *FieldAccess) GetType() Mono { return e.Type }

func (e *FieldAccess) GetLocation() ast.Location { return e.Location }

type TupleAccess struct {
	ast.Location
	Type  Mono
	Expr  Expression
	Index int
}

func (*TupleAccess) _expression() {}

func (e *TupleAccess) GetType() Mono { return e.Type }

func (e *TupleAccess) GetLocation() ast.Location { return e.Location }

type AccessEnumField struct {
	ast.Location
	Type    Mono
	Variant ast.Identifier
	Expr    Expression
}

func (*AccessEnumField) _expression() {}

func (e *AccessEnumField) GetType() Mono { return e.Type }

func (e *AccessEnumField) GetLocation() ast.Location { return e.Location }

type AssertStruct struct {
	ast.Location
	Type Mono
	Expr Expression
}

func (*AssertStruct) _expression() {}

func (e *AssertStruct) GetType() Mono { return e.Type }

func (e *AssertStruct) GetLocation() ast.Location { return e.Location }

type AssertEmptyEnumField struct {
	ast.Location
	Type    Mono
	Variant ast.Identifier
	Expr    Expression
}

func (*AssertEmptyEnumField) _expression() {}

func (e *AssertEmptyEnumField) GetType() Mono { return e.Type }

func (e *AssertEmptyEnumField) GetLocation() ast.Location { return e.Location }

type CheckVariant struct {
	ast.Location
	Type    Mono
	Variant ast.Identifier
	Expr    Expression
}

func (*CheckVariant) _expression() {}

func (e *CheckVariant) GetType() Mono { return e.Type }

func (e *CheckVariant) GetLocation() ast.Location { return e.Location }

type Ref struct {
	ast.Location
	Type Mono
	Expr Expression
}

func (*Ref) _expression() {}

func (e *Ref) GetType() Mono { return e.Type }

func (e *Ref) GetLocation() ast.Location { return e.Location }

type Deref struct {
	ast.Location
	Type Mono
	Expr Expression
}

func (*Deref) _expression() {}

func (e *Deref) GetType() Mono { return e.Type }

func (e *Deref) GetLocation() ast.Location { return e.Location }

type Assign struct {
	ast.Location
	Type   Mono
	Target Expression
	Value  Expression
}

func (*Assign) _expression() {}

func (e *Assign) GetType() Mono { return e.Type }

func (e *Assign) GetLocation() ast.Location { return e.Location }

type Loop struct {
	ast.Location
	Type Mono
	Body Expression
}

func (*Loop) _expression() {}

func (e *Loop) GetType() Mono { return e.Type }

func (e *Loop) GetLocation() ast.Location { return e.Location }

type Break struct {
	ast.Location
	Type Mono
	Expr Expression
}

func (*Break) _expression() {}

func (e *Break) GetType() Mono { return e.Type }

func (e *Break) GetLocation() ast.Location { return e.Location }

type Return struct {
	ast.Location
	Type Mono
	Expr Expression
}

func (*Return) _expression() {}

func (e *Return) GetType() Mono { return e.Type }

func (e *Return) GetLocation() ast.Location { return e.Location }

type SizeOf struct {
	ast.Location
	Type Mono
	Of   Mono
}

func (*SizeOf) _expression() {}

func (e *SizeOf) GetType() Mono { return e.Type }

func (e *SizeOf) GetLocation() ast.Location { return e.Location }

type BinOp struct {
	ast.Location
	Type  Mono
	Op    parsed.BinOpKind
	Left  Expression
	Right Expression
}

func (*BinOp) _expression() {}

func (e *BinOp) GetType() Mono { return e.Type }

func (e *BinOp) GetLocation() ast.Location { return e.Location }

type Compound struct {
	ast.Location
	Type  Mono
	Items []Expression
}

func (*Compound) _expression() {}

func (e *Compound) GetType() Mono { return e.Type }

func (e *Compound) GetLocation() ast.Location { return e.Location }

type Unreachable struct {
	ast.Location
	Type Mono
}

func (*Unreachable) _expression() {}

func (e *Unreachable) GetType() Mono { return e.Type }

func (e *Unreachable) GetLocation() ast.Location { return e.Location }
