package parsed

import (
	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
)

type Toplevel interface {
	_toplevel()
	GetLocation() ast.Location
}

type OpenFile struct {
	ast.Location
	Path string
}

func (*OpenFile) _toplevel() {}

func (t *OpenFile) GetLocation() ast.Location { return t.Location }

type Open struct {
	ast.Location
	Module ast.QualifiedIdentifier
}

func (*Open) _toplevel() {}

func (t *Open) GetLocation() ast.Location { return t.Location }

type TypeDecl interface {
	_typeDecl()
}

type AliasDecl struct {
	Type Type
}

func (*AliasDecl) _typeDecl() {}

type StructDeclField struct {
	ast.Location
	Name ast.Identifier
	Type Type
}

type StructDecl struct {
	Fields []StructDeclField
}

func (*StructDecl) _typeDecl() {}

type EnumDeclVariant struct {
	ast.Location
	Name    ast.Identifier
	Payload Type
}

type EnumDecl struct {
	Variants []EnumDeclVariant
}

func (*EnumDecl) _typeDecl() {}

type LetType struct {
	ast.Location
	Name   ast.Identifier
	TyVars []ast.Identifier
	Decl   TypeDecl
}

func (*LetType) _toplevel() {}

func (t *LetType) GetLocation() ast.Location { return t.Location }

type FnParam struct {
	ast.Location
	Name ast.Identifier
	Type Type
}

type LetFn struct {
	ast.Location
	Name   ast.Identifier
	Params []FnParam
	Result Type
	Expr   Expression
}

func (*LetFn) _toplevel() {}

func (t *LetFn) GetLocation() ast.Location { return t.Location }

type Let struct {
	ast.Location
	Pattern Pattern
	Expr    Expression
}

func (*Let) _toplevel() {}

func (t *Let) GetLocation() ast.Location { return t.Location }

type Extern struct {
	ast.Location
	Name         ast.Identifier
	Type         Type
	ExternalName string
}

func (*Extern) _toplevel() {}

func (t *Extern) GetLocation() ast.Location { return t.Location }

// ImplicitExtern emits no C declaration: the external name must be
// provided by the host tool chain (typically a libc function).
type ImplicitExtern struct {
	ast.Location
	Name         ast.Identifier
	Type         Type
	ExternalName string
}

func (*ImplicitExtern) _toplevel() {}

func (t *ImplicitExtern) GetLocation() ast.Location { return t.Location }

type Module struct {
	Location  ast.Location
	Toplevels []Toplevel
}
