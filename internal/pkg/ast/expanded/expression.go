// Package expanded holds the pattern-desugared form of the language.
// Patterns are gone: every destructuring has become a stack of
// single-variable bindings over primitive projections, and every match
// arm carries an explicit boolean guard.
package expanded

import (
	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
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

// Apply always carries exactly one argument; surface calls with several
// arguments pass a tuple.
type Apply struct {
	ast.Location
	Func Expression
	Arg  Expression
}

func (*Apply) _expression() {}

func (e *Apply) GetLocation() ast.Location { return e.Location }

type Let struct {
	ast.Location
	Name  ast.Identifier
	Value Expression
	Body  Expression
}

func (*Let) _expression() {}

func (e *Let) GetLocation() ast.Location { return e.Location }

type If struct {
	ast.Location
	Cond Expression
	Then Expression
	Else Expression
}

func (*If) _expression() {}

func (e *If) GetLocation() ast.Location { return e.Location }

type Binding struct {
	Name  ast.Identifier
	Value Expression
}

// MatchArm guards are already combined into one short-circuiting
// condition; Bindings run left to right under the guard.
type MatchArm struct {
	ast.Location
	Cond     Expression
	Bindings []Binding
	Body     Expression
}

type Match struct {
	ast.Location
	Arms []MatchArm
}

func (*Match) _expression() {}

func (e *Match) GetLocation() ast.Location { return e.Location }

type StructLit struct {
	ast.Location
	Module ast.QualifiedIdentifier
	Name   ast.Identifier
	Fields []FieldInit
}

type FieldInit struct {
	Name  ast.Identifier
	Value Expression
}

func (*StructLit) _expression() {}

func (e *StructLit) GetLocation() ast.Location { return e.Location }

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

// AccessEnumField projects the payload out of an enum value whose variant
// has already been checked (or is being asserted by an irrefutable
// binding).
type AccessEnumField struct {
	ast.Location
	Module  ast.QualifiedIdentifier
	Variant ast.Identifier
	Expr    Expression
}

func (*AccessEnumField) _expression() {}

func (e *AccessEnumField) GetLocation() ast.Location { return e.Location }

// AssertStruct pins the subject's type to the named struct without
// projecting anything.
type AssertStruct struct {
	ast.Location
	Module ast.QualifiedIdentifier
	Name   ast.Identifier
	Expr   Expression
}

func (*AssertStruct) _expression() {}

func (e *AssertStruct) GetLocation() ast.Location { return e.Location }

// AssertEmptyEnumField statically asserts the variant carries no payload.
type AssertEmptyEnumField struct {
	ast.Location
	Module  ast.QualifiedIdentifier
	Variant ast.Identifier
	Expr    Expression
}

func (*AssertEmptyEnumField) _expression() {}

func (e *AssertEmptyEnumField) GetLocation() ast.Location { return e.Location }

// CheckVariant is a boolean guard: true iff the subject's tag is the
// named variant.
type CheckVariant struct {
	ast.Location
	Module  ast.QualifiedIdentifier
	Variant ast.Identifier
	Expr    Expression
}

func (*CheckVariant) _expression() {}

func (e *CheckVariant) GetLocation() ast.Location { return e.Location }

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
	Type parsed.Type
}

func (*SizeOf) _expression() {}

func (e *SizeOf) GetLocation() ast.Location { return e.Location }

type Typed struct {
	ast.Location
	Expr Expression
	Type parsed.Type
}

func (*Typed) _expression() {}

func (e *Typed) GetLocation() ast.Location { return e.Location }

type BinOp struct {
	ast.Location
	Op    parsed.BinOpKind
	Left  Expression
	Right Expression
}

func (*BinOp) _expression() {}

func (e *BinOp) GetLocation() ast.Location { return e.Location }

type Compound struct {
	ast.Location
	Items []Expression
}

func (*Compound) _expression() {}

func (e *Compound) GetLocation() ast.Location { return e.Location }

// Unreachable is the match fall-through; it traps at runtime.
type Unreachable struct {
	ast.Location
}

func (*Unreachable) _expression() {}

func (e *Unreachable) GetLocation() ast.Location { return e.Location }
