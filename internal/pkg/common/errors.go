package common

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
)

type ErrorKind int

const (
	KindUnification ErrorKind = iota
	KindModuleCycle
	KindName
	KindDuplicate
	KindPattern
	KindArity
	KindSyntax
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnification:
		return "type error"
	case KindModuleCycle:
		return "module cycle"
	case KindName:
		return "name error"
	case KindDuplicate:
		return "duplicate"
	case KindPattern:
		return "pattern error"
	case KindArity:
		return "arity error"
	case KindSyntax:
		return "syntax error"
	}
	return "error"
}

type Error struct {
	Kind     ErrorKind
	Location ast.Location
	Extra    []ast.Location
	Message  string
}

func (e Error) Error() string {
	sb := strings.Builder{}
	cursorString := e.Location.CursorString()
	if cursorString != "" {
		sb.WriteString(fmt.Sprintf("%s %s: %s\n", cursorString, e.Kind, e.Message))
	}

	var uniqueExtra []ast.Location
	for _, x := range e.Extra {
		if !x.IsEmpty() && !x.EqualsTo(e.Location) && !slices.ContainsFunc(uniqueExtra, func(y ast.Location) bool {
			return y.EqualsTo(x)
		}) {
			uniqueExtra = append(uniqueExtra, x)
		}
	}

	for _, extra := range uniqueExtra {
		sb.WriteString(fmt.Sprintf("+ %s\n", extra.CursorString()))
	}

	if e.Location.IsEmpty() {
		sb.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, e.Message))
	}
	return sb.String()
}

func NewSystemError(err error) error {
	return SystemError{Message: err.Error()}
}

type SystemError struct {
	Message string
}

func (e SystemError) Error() string {
	return fmt.Sprintf("system error: %s", e.Message)
}

func NewCompilerError(message string) error {
	_, file, line, _ := runtime.Caller(1)
	return compilerError{message: message, file: file, line: line}
}

type compilerError struct {
	message string
	file    string
	line    int
}

func (e compilerError) Error() string {
	return fmt.Sprintf("%s at %s:%d", e.message, e.file, e.line)
}
