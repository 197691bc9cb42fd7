package parsed

import (
	"fmt"
	"strings"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

// Type is a surface type expression. It is turned into a monotype only
// during elaboration, when the enclosing declaration's type variables and
// the module's type table are known.
type Type interface {
	fmt.Stringer
	_type()
	GetLocation() ast.Location
}

type TUnit struct{ ast.Location }

func (*TUnit) _type() {}

func (t *TUnit) GetLocation() ast.Location { return t.Location }

func (t *TUnit) String() string { return "unit" }

type TI64 struct{ ast.Location }

func (*TI64) _type() {}

func (t *TI64) GetLocation() ast.Location { return t.Location }

func (t *TI64) String() string { return "i64" }

type TCInt struct{ ast.Location }

func (*TCInt) _type() {}

func (t *TCInt) GetLocation() ast.Location { return t.Location }

func (t *TCInt) String() string { return "c_int" }

type TF64 struct{ ast.Location }

func (*TF64) _type() {}

func (t *TF64) GetLocation() ast.Location { return t.Location }

func (t *TF64) String() string { return "f64" }

type TBool struct{ ast.Location }

func (*TBool) _type() {}

func (t *TBool) GetLocation() ast.Location { return t.Location }

func (t *TBool) String() string { return "bool" }

type TChar struct{ ast.Location }

func (*TChar) _type() {}

func (t *TChar) GetLocation() ast.Location { return t.Location }

func (t *TChar) String() string { return "char" }

type TPointer struct {
	ast.Location
	To Type
}

func (*TPointer) _type() {}

func (t *TPointer) GetLocation() ast.Location { return t.Location }

func (t *TPointer) String() string { return "&" + t.To.String() }

type TTuple struct {
	ast.Location
	Items []Type
}

func (*TTuple) _type() {}

func (t *TTuple) GetLocation() ast.Location { return t.Location }

func (t *TTuple) String() string {
	return "(" + strings.Join(common.Map(Type.String, t.Items), ", ") + ")"
}

type TFunc struct {
	ast.Location
	Arg    Type
	Result Type
}

func (*TFunc) _type() {}

func (t *TFunc) GetLocation() ast.Location { return t.Location }

func (t *TFunc) String() string { return t.Arg.String() + " -> " + t.Result.String() }

type TOpaque struct {
	ast.Location
	Inner Type
}

func (*TOpaque) _type() {}

func (t *TOpaque) GetLocation() ast.Location { return t.Location }

func (t *TOpaque) String() string { return "opaque(" + t.Inner.String() + ")" }

// TNamed covers both type variables (a name bound by the enclosing
// declaration's parameter list) and references to declared types,
// optionally qualified and applied to arguments.
type TNamed struct {
	ast.Location
	Module ast.QualifiedIdentifier
	Name   ast.Identifier
	Args   []Type
}

func (*TNamed) _type() {}

func (t *TNamed) GetLocation() ast.Location { return t.Location }

func (t *TNamed) String() string {
	s := ast.NewFullIdentifier(t.Module, t.Name).String()
	if len(t.Args) > 0 {
		s += "(" + strings.Join(common.Map(Type.String, t.Args), ", ") + ")"
	}
	return s
}
