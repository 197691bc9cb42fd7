package parsed

import (
	"fmt"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
)

type Expression interface {
	_expression()
	GetLocation() ast.Location
}

type Const struct {
	ast.Location
	Value ast.ConstValue
}

func (*Const) _expression() {}

func (e *Const) GetLocation() ast.Location { return e.Location }

// Var is a possibly qualified reference. Whether it names a local, a
// global of the current module, or a global of another module is decided
// during inference.
type Var struct {
	ast.Location
	Module ast.QualifiedIdentifier
	Name   ast.Identifier
}

func (*Var) _expression() {}

func (e *Var) GetLocation() ast.Location { return e.Location }

type Tuple struct {
	ast.Location
	Items []Expression
}

func (*Tuple) _expression() {}

func (e *Tuple) GetLocation() ast.Location { return e.Location }

type Apply struct {
	ast.Location
	Func Expression
	Args []Expression
}

func (*Apply) _expression() {}

func (e *Apply) GetLocation() ast.Location { return e.Location }

// Lambda only survives parsing as the immediate right-hand side of a
// top-level let, where it is folded into the binding's parameter list.
// Anywhere else it is rejected: compiled functions are C functions and
// carry no closure environment.
type Lambda struct {
	ast.Location
	Param Pattern
	Body  Expression
}

func (*Lambda) _expression() {}

func (e *Lambda) GetLocation() ast.Location { return e.Location }

type LetIn struct {
	ast.Location
	Pattern Pattern
	Value   Expression
	Body    Expression
}

func (*LetIn) _expression() {}

func (e *LetIn) GetLocation() ast.Location { return e.Location }

type If struct {
	ast.Location
	Cond Expression
	Then Expression
	Else Expression
}

func (*If) _expression() {}

func (e *If) GetLocation() ast.Location { return e.Location }

type MatchCase struct {
	ast.Location
	Pattern    Pattern
	Expression Expression
}

type Match struct {
	ast.Location
	Subject Expression
	Cases   []MatchCase
}

func (*Match) _expression() {}

func (e *Match) GetLocation() ast.Location { return e.Location }

type FieldInit struct {
	ast.Location
	Name  ast.Identifier
	Value Expression
}

type StructLit struct {
	ast.Location
	Module ast.QualifiedIdentifier
	Name   ast.Identifier
	Fields []FieldInit
}

func (*StructLit) _expression() {}

func (e *StructLit) GetLocation() ast.Location { return e.Location }

// EnumLit is written `Variant(payload)` or bare `Variant`; the variant
// name picks the enum type through the module's variant table.
type EnumLit struct {
	ast.Location
	Module  ast.QualifiedIdentifier
	Variant ast.Identifier
	Payload Expression
}

func (*EnumLit) _expression() {}

func (e *EnumLit) GetLocation() ast.Location { return e.Location }

type FieldAccess struct {
	ast.Location
	Expr  Expression
	Field ast.Identifier
}

func (*FieldAccess) _expression() {}

func (e *FieldAccess) GetLocation() ast.Location { return e.Location }

type TupleAccess struct {
	ast.Location
	Expr  Expression
	Index int
}

func (*TupleAccess) _expression() {}

func (e *TupleAccess) GetLocation() ast.Location { return e.Location }

type Ref struct {
	ast.Location
	Expr Expression
}

func (*Ref) _expression() {}

func (e *Ref) GetLocation() ast.Location { return e.Location }

type Deref struct {
	ast.Location
	Expr Expression
}

func (*Deref) _expression() {}

func (e *Deref) GetLocation() ast.Location { return e.Location }

type Assign struct {
	ast.Location
	Target Expression
	Value  Expression
}

func (*Assign) _expression() {}

func (e *Assign) GetLocation() ast.Location { return e.Location }

type Loop struct {
	ast.Location
	Body Expression
}

func (*Loop) _expression() {}

func (e *Loop) GetLocation() ast.Location { return e.Location }

type Break struct {
	ast.Location
	Expr Expression
}

func (*Break) _expression() {}

func (e *Break) GetLocation() ast.Location { return e.Location }

type Return struct {
	ast.Location
	Expr Expression
}

func (*Return) _expression() {}

func (e *Return) GetLocation() ast.Location { return e.Location }

type SizeOf struct {
	ast.Location
	Type Type
}

func (*SizeOf) _expression() {}

func (e *SizeOf) GetLocation() ast.Location { return e.Location }

type Typed struct {
	ast.Location
	Expr Expression
	Type Type
}

func (*Typed) _expression() {}

func (e *Typed) GetLocation() ast.Location { return e.Location }

type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
)

func (op BinOpKind) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	}
	panic(fmt.Sprintf("unknown operator %d", int(op)))
}

type BinOp struct {
	ast.Location
	Op    BinOpKind
	Left  Expression
	Right Expression
}

func (*BinOp) _expression() {}

func (e *BinOp) GetLocation() ast.Location { return e.Location }

// Compound is `e1; e2; …`: every item but the last is evaluated for
// effect.
type Compound struct {
	ast.Location
	Items []Expression
}

func (*Compound) _expression() {}

func (e *Compound) GetLocation() ast.Location { return e.Location }
