package typed

import (
	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
)

// UserType is a declared type. Info starts nil and is filled exactly once
// during elaboration; the delay is what lets a struct field refer back to
// the type being declared.
type UserType struct {
	ast.Location
	Name     ast.Identifier
	ReprName string
	TyVars   []ast.Identifier
	Info     Info
}

type Info interface {
	_info()
}

type Alias struct {
	Mono Mono
}

func (*Alias) _info() {}

type Field struct {
	Name ast.Identifier
	Mono Mono
}

type StructInfo struct {
	Fields []Field
}

func (*StructInfo) _info() {}

func (s *StructInfo) Field(name ast.Identifier) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Variant with a nil Payload carries no data.
type Variant struct {
	Name    ast.Identifier
	Payload Mono
}

type EnumInfo struct {
	Variants []Variant
}

func (*EnumInfo) _info() {}

func (e *EnumInfo) Variant(name ast.Identifier) (Variant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// Inst builds the User monotype applying u to args, and the ty-var
// substitution for projecting fields and payloads out of it.
func (u *UserType) Inst(args []Mono) (*User, map[ast.Identifier]Mono) {
	sub := map[ast.Identifier]Mono{}
	for i, v := range u.TyVars {
		sub[v] = args[i]
	}
	return &User{Decl: u, Args: args}, sub
}

// InstFresh applies u to fresh unknowns.
func (u *UserType) InstFresh() (*User, map[ast.Identifier]Mono) {
	args := make([]Mono, len(u.TyVars))
	for i := range args {
		args[i] = NewIndir()
	}
	return u.Inst(args)
}
