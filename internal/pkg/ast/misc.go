package ast

import "strings"

type Identifier string

// QualifiedIdentifier is a dot-separated module path, e.g. `Util.Inner`.
// Empty means unqualified.
type QualifiedIdentifier string

func NewQualifiedIdentifier(path []Identifier) QualifiedIdentifier {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = string(p)
	}
	return QualifiedIdentifier(strings.Join(parts, "."))
}

func (q QualifiedIdentifier) Path() []Identifier {
	if q == "" {
		return nil
	}
	parts := strings.Split(string(q), ".")
	result := make([]Identifier, len(parts))
	for i, p := range parts {
		result[i] = Identifier(p)
	}
	return result
}

// FullIdentifier is a fully qualified reference to a global, type or
// variant: the module path plus the final name.
type FullIdentifier string

func (f FullIdentifier) String() string {
	return string(f)
}

func NewFullIdentifier(module QualifiedIdentifier, name Identifier) FullIdentifier {
	if module == "" {
		return FullIdentifier(name)
	}
	return FullIdentifier(string(module) + "." + string(name))
}
