package parsed

import (
	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
)

type Pattern interface {
	_pattern()
	GetLocation() ast.Location
}

type PVar struct {
	ast.Location
	Name ast.Identifier
}

func (*PVar) _pattern() {}

func (p *PVar) GetLocation() ast.Location { return p.Location }

type PUnit struct {
	ast.Location
}

func (*PUnit) _pattern() {}

func (p *PUnit) GetLocation() ast.Location { return p.Location }

type PTuple struct {
	ast.Location
	Items []Pattern
}

func (*PTuple) _pattern() {}

func (p *PTuple) GetLocation() ast.Location { return p.Location }

type PRef struct {
	ast.Location
	Inner Pattern
}

func (*PRef) _pattern() {}

func (p *PRef) GetLocation() ast.Location { return p.Location }

// PStructField with a nil Sub binds the field to a variable of the same
// name: `Point { x; y = py }` binds x and py.
type PStructField struct {
	ast.Location
	Name ast.Identifier
	Sub  Pattern
}

type PStruct struct {
	ast.Location
	Module ast.QualifiedIdentifier
	Name   ast.Identifier
	Fields []PStructField
}

func (*PStruct) _pattern() {}

func (p *PStruct) GetLocation() ast.Location { return p.Location }

type PEnum struct {
	ast.Location
	Module  ast.QualifiedIdentifier
	Variant ast.Identifier
	Payload Pattern
}

func (*PEnum) _pattern() {}

func (p *PEnum) GetLocation() ast.Location { return p.Location }

type PTyped struct {
	ast.Location
	Inner Pattern
	Type  Type
}

func (*PTyped) _pattern() {}

func (p *PTyped) GetLocation() ast.Location { return p.Location }

// PConst is refutable and therefore only legal inside match arms.
type PConst struct {
	ast.Location
	Value ast.ConstValue
}

func (*PConst) _pattern() {}

func (p *PConst) GetLocation() ast.Location { return p.Location }
