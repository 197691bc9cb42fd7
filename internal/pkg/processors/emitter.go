package processors

import (
	"fmt"
	"io"
	"strings"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/typed"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

const prelude = `#include <stdint.h>
#include <stdbool.h>
#include <stdlib.h>
#include <string.h>
#include <assert.h>
#include <stdio.h>

`

// emitter walks reachable bindings starting from the root module's
// monomorphic globals and externs, specializing every generic binding it
// meets. Each (binding, type-argument vector) pair is emitted at most
// once; types go into a separate buffer, also deduplicated.
type emitter struct {
	c *compiler

	typeFwd  strings.Builder
	typeDefs strings.Builder
	decls    strings.Builder
	defs     strings.Builder
	initBody strings.Builder

	tupleTypes map[string]string
	funcTypes  map[string]string
	userTypes  map[string]string
	instCache  map[*typed.El]map[string]string
	externs    map[typed.TopVar]struct{}

	// subst maps the quantified names of the binding being emitted to
	// ground monotypes; it is the sole monomorphization step.
	subst map[ast.Identifier]typed.Mono

	loops     []string
	tempIndex int
}

func newEmitter(c *compiler) *emitter {
	return &emitter{
		c:          c,
		tupleTypes: map[string]string{},
		funcTypes:  map[string]string{},
		userTypes:  map[string]string{},
		instCache:  map[*typed.El]map[string]string{},
		externs:    map[typed.TopVar]struct{}{},
	}
}

type block struct {
	sb     *strings.Builder
	indent int
}

func (b *block) stmt(format string, args ...any) {
	b.sb.WriteString(strings.Repeat("    ", b.indent))
	b.sb.WriteString(fmt.Sprintf(format, args...))
	b.sb.WriteString("\n")
}

func (b *block) child() *block {
	return &block{sb: b.sb, indent: b.indent + 1}
}

func (e *emitter) newTemp() string {
	e.tempIndex++
	return fmt.Sprintf("_t%d", e.tempIndex)
}

// Emit writes the whole translation unit: prelude, type forward
// declarations, type definitions, value and function declarations, then
// definitions.
func Emit(c *compiler, root *typed.Module, out io.Writer) error {
	e := newEmitter(c)

	for _, name := range root.GlobOrder {
		switch v := root.GlobVars[name].(type) {
		case *typed.El:
			if len(typed.QuantifierNames(v.Poly)) == 0 {
				e.emitEl(v, nil)
			}
		case *typed.Extern:
			e.declareExtern(v)
		}
	}
	e.emitEntryPoint(root)

	for _, part := range []string{
		prelude,
		e.typeFwd.String(),
		e.typeDefs.String(),
		e.decls.String(),
		e.defs.String(),
	} {
		if _, err := io.WriteString(out, part); err != nil {
			return common.NewSystemError(err)
		}
	}
	return nil
}

// emitEntryPoint writes the global initializer and, when the root module
// defines a monomorphic `main`, a C main that runs it.
func (e *emitter) emitEntryPoint(root *typed.Module) {
	hasInit := e.initBody.Len() > 0
	if hasInit {
		e.decls.WriteString("void el2_init_globals(void);\n")
		e.defs.WriteString("void el2_init_globals(void) {\n")
		e.defs.WriteString(e.initBody.String())
		e.defs.WriteString("}\n\n")
	}

	el, ok := root.GlobVars["main"].(*typed.El)
	if !ok || !el.IsFunc() || len(typed.QuantifierNames(el.Poly)) != 0 {
		return
	}
	name := e.emitEl(el, nil)
	result := e.mono(typed.PolyMono(el.Poly).(*typed.Func).Result)

	e.defs.WriteString("int main(void) {\n")
	if hasInit {
		e.defs.WriteString("    el2_init_globals();\n")
	}
	switch result {
	case typed.I64:
		e.defs.WriteString(fmt.Sprintf("    return (int)%s();\n", name))
	case typed.CInt:
		e.defs.WriteString(fmt.Sprintf("    return %s();\n", name))
	default:
		e.defs.WriteString(fmt.Sprintf("    %s();\n", name))
		e.defs.WriteString("    return 0;\n")
	}
	e.defs.WriteString("}\n")
}

// mono grounds a type under the current instantiation: every quantified
// name is substituted, every bound cell chased, and any unknown that
// nothing ever constrained defaults to unit.
func (e *emitter) mono(m typed.Mono) typed.Mono {
	return groundDefault(typed.SubstVars(m, e.subst))
}

func groundDefault(m typed.Mono) typed.Mono {
	switch t := m.(type) {
	case typed.Base:
		return t
	case *typed.Var:
		return typed.Unit
	case *typed.Indir:
		return typed.Unit
	case *typed.Pointer:
		return &typed.Pointer{To: groundDefault(t.To)}
	case *typed.Tuple:
		return &typed.Tuple{Items: common.Map(groundDefault, t.Items)}
	case *typed.Func:
		return &typed.Func{Arg: groundDefault(t.Arg), Result: groundDefault(t.Result)}
	case *typed.Opaque:
		return &typed.Opaque{Inner: groundDefault(t.Inner)}
	case *typed.User:
		return &typed.User{Decl: t.Decl, Args: common.Map(groundDefault, t.Args)}
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown monotype %T", m)))
}

func isUnit(m typed.Mono) bool {
	b, ok := m.(typed.Base)
	return ok && b == typed.Unit
}

// mangle renders a ground monotype as a C identifier fragment.
func mangle(m typed.Mono) string {
	switch t := m.(type) {
	case typed.Base:
		switch t {
		case typed.Unit:
			return "Unit"
		case typed.I64:
			return "I64"
		case typed.CInt:
			return "Cint"
		case typed.F64:
			return "F64"
		case typed.Bool:
			return "Bool"
		case typed.Char:
			return "Char"
		}
	case *typed.Pointer:
		return "Ptr_" + mangle(t.To)
	case *typed.Tuple:
		parts := common.Map(mangle, t.Items)
		return fmt.Sprintf("Tup%d_%s", len(t.Items), strings.Join(parts, "_"))
	case *typed.Func:
		return fmt.Sprintf("Fn_%s_to_%s", mangle(t.Arg), mangle(t.Result))
	case *typed.Opaque:
		return "Opaque_" + mangle(t.Inner)
	case *typed.User:
		s := t.Decl.ReprName
		for _, a := range t.Args {
			s += "_" + mangle(a)
		}
		return s
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown monotype %T", m)))
}

// --- C types ---

// cType names a ground monotype for a value declaration, emitting the
// complete definition of any struct-like type it needs by value.
func (e *emitter) cType(m typed.Mono) string {
	switch t := m.(type) {
	case typed.Base:
		switch t {
		case typed.Unit:
			return "void"
		case typed.I64:
			return "int64_t"
		case typed.CInt:
			return "int"
		case typed.F64:
			return "double"
		case typed.Bool:
			return "bool"
		case typed.Char:
			return "char"
		}
	case *typed.Pointer:
		return e.cTypeIncomplete(t.To) + "*"
	case *typed.Tuple:
		return "struct " + e.ensureTuple(t)
	case *typed.Func:
		return e.ensureFuncPtr(t)
	case *typed.Opaque:
		return e.cType(t.Inner)
	case *typed.User:
		if m, ok := t.Monify(); ok {
			return e.cType(groundDefault(m))
		}
		return "struct " + e.ensureUser(t)
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown monotype %T", m)))
}

// cTypeIncomplete is cType behind a pointer: a forward declaration is
// enough there, which is what breaks recursive types.
func (e *emitter) cTypeIncomplete(m typed.Mono) string {
	switch t := m.(type) {
	case *typed.Tuple:
		return "struct " + e.forwardTuple(t)
	case *typed.User:
		if mm, ok := t.Monify(); ok {
			return e.cTypeIncomplete(groundDefault(mm))
		}
		return "struct " + e.forwardUser(t)
	case *typed.Opaque:
		return e.cTypeIncomplete(t.Inner)
	}
	return e.cType(m)
}

func (e *emitter) forwardTuple(t *typed.Tuple) string {
	name := mangle(t)
	if _, ok := e.tupleTypes[name]; !ok {
		e.tupleTypes[name] = ""
		e.typeFwd.WriteString(fmt.Sprintf("struct %s;\n", name))
		e.defineTuple(t, name)
	}
	return name
}

func (e *emitter) ensureTuple(t *typed.Tuple) string {
	return e.forwardTuple(t)
}

func (e *emitter) defineTuple(t *typed.Tuple, name string) {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("struct %s {\n", name))
	for i, item := range t.Items {
		if isUnit(item) {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s _%d;\n", e.cType(item), i))
	}
	sb.WriteString("};\n")
	e.typeDefs.WriteString(sb.String())
	e.tupleTypes[name] = name
}

func (e *emitter) ensureFuncPtr(t *typed.Func) string {
	name := mangle(t)
	if _, ok := e.funcTypes[name]; ok {
		return name
	}
	e.funcTypes[name] = name
	params := e.flattenParams(t.Arg)
	ret := "void"
	if !isUnit(t.Result) {
		ret = e.cType(t.Result)
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	e.typeDefs.WriteString(fmt.Sprintf("typedef %s (*%s)(%s);\n", ret, name, strings.Join(params, ", ")))
	return name
}

// flattenParams maps a function domain to the C parameter type list: a
// tuple domain becomes one parameter per component, unit components and
// a unit domain vanish.
func (e *emitter) flattenParams(arg typed.Mono) []string {
	if isUnit(arg) {
		return nil
	}
	if tup, ok := arg.(*typed.Tuple); ok {
		return common.MapIf(func(item typed.Mono) (string, bool) {
			if isUnit(item) {
				return "", false
			}
			return e.cType(item), true
		}, tup.Items)
	}
	return []string{e.cType(arg)}
}

func (e *emitter) forwardUser(t *typed.User) string {
	name := mangle(t)
	if _, ok := e.userTypes[name]; !ok {
		e.userTypes[name] = ""
		e.typeFwd.WriteString(fmt.Sprintf("struct %s;\n", name))
		e.defineUser(t, name)
	}
	return name
}

func (e *emitter) ensureUser(t *typed.User) string {
	return e.forwardUser(t)
}

func (e *emitter) userSubst(t *typed.User) map[ast.Identifier]typed.Mono {
	sub := map[ast.Identifier]typed.Mono{}
	for i, v := range t.Decl.TyVars {
		sub[v] = t.Args[i]
	}
	return sub
}

func (e *emitter) defineUser(t *typed.User, name string) {
	sub := e.userSubst(t)
	switch info := t.Decl.Info.(type) {
	case *typed.StructInfo:
		sb := strings.Builder{}
		members := strings.Builder{}
		for _, f := range info.Fields {
			ft := groundDefault(typed.SubstVars(f.Mono, sub))
			if isUnit(ft) {
				continue
			}
			members.WriteString(fmt.Sprintf("    %s %s;\n", e.cType(ft), f.Name))
		}
		sb.WriteString(fmt.Sprintf("struct %s {\n%s};\n", name, members.String()))
		e.typeDefs.WriteString(sb.String())
	case *typed.EnumInfo:
		tags := strings.Builder{}
		union := strings.Builder{}
		hasPayload := false
		for i, v := range info.Variants {
			sep := ","
			if i == len(info.Variants)-1 {
				sep = ""
			}
			tags.WriteString(fmt.Sprintf("    %s%s\n", e.variantTag(name, v.Name), sep))
			if v.Payload == nil {
				continue
			}
			pt := groundDefault(typed.SubstVars(v.Payload, sub))
			if isUnit(pt) {
				continue
			}
			hasPayload = true
			union.WriteString(fmt.Sprintf("        %s %s;\n", e.cType(pt), v.Name))
		}
		e.typeDefs.WriteString(fmt.Sprintf("enum %s_tag {\n%s};\n", name, tags.String()))
		if hasPayload {
			e.typeDefs.WriteString(fmt.Sprintf(
				"struct %s {\n    enum %s_tag tag;\n    union {\n%s    } data;\n};\n",
				name, name, union.String()))
		} else {
			e.typeDefs.WriteString(fmt.Sprintf("struct %s {\n    enum %s_tag tag;\n};\n", name, name))
		}
	default:
		panic(common.NewCompilerError(fmt.Sprintf("emitting type `%s` with unexpected info %T", name, t.Decl.Info)))
	}
	e.userTypes[name] = name
}

func (e *emitter) variantTag(typeName string, variant ast.Identifier) string {
	return fmt.Sprintf("%s_%s_TAG", strings.ToUpper(typeName), strings.ToUpper(string(variant)))
}

// --- bindings ---

func (e *emitter) declareExtern(x *typed.Extern) {
	if _, ok := e.externs[x]; ok {
		return
	}
	e.externs[x] = struct{}{}
	t := groundDefault(x.Mono)
	if f, ok := t.(*typed.Func); ok {
		params := e.flattenParams(f.Arg)
		if len(params) == 0 {
			params = []string{"void"}
		}
		ret := "void"
		if !isUnit(f.Result) {
			ret = e.cType(f.Result)
		}
		e.decls.WriteString(fmt.Sprintf("extern %s %s(%s);\n", ret, x.ExternalName, strings.Join(params, ", ")))
		return
	}
	e.decls.WriteString(fmt.Sprintf("extern %s %s;\n", e.cType(t), x.ExternalName))
}

// emitEl emits one specialization of a top-level binding and returns its
// C identifier. inst must already be ground.
func (e *emitter) emitEl(el *typed.El, inst map[ast.Identifier]typed.Mono) string {
	quants := typed.QuantifierNames(el.Poly)
	var keyParts []string
	for _, q := range quants {
		m, ok := inst[q]
		if !ok {
			// a reference recorded while the component was still being
			// solved carries no instantiation; the shared quantifier
			// naming of the component makes the enclosing substitution
			// the right one
			if s, found := e.subst[q]; found {
				m = s
			} else {
				m = typed.Unit
			}
			if inst == nil {
				inst = map[ast.Identifier]typed.Mono{}
			}
			inst[q] = m
		}
		keyParts = append(keyParts, mangle(m))
	}
	key := strings.Join(keyParts, "_")

	cache, ok := e.instCache[el]
	if !ok {
		cache = map[string]string{}
		e.instCache[el] = cache
	}
	if name, ok := cache[key]; ok {
		return name
	}
	name := el.UniqueName
	if key != "" {
		name = fmt.Sprintf("%s_inst_%s", el.UniqueName, key)
	}
	cache[key] = name

	savedSubst, savedLoops, savedTemp := e.subst, e.loops, e.tempIndex
	e.subst, e.loops, e.tempIndex = inst, nil, 0
	defer func() {
		e.subst, e.loops, e.tempIndex = savedSubst, savedLoops, savedTemp
	}()

	if el.IsFunc() {
		e.emitFunc(el, name)
	} else {
		e.emitValue(el, name)
	}
	return name
}

type cParam struct {
	cName string
	cType string
}

func (e *emitter) emitFunc(el *typed.El, name string) {
	fn := e.mono(typed.PolyMono(el.Poly)).(*typed.Func)
	args := el.Args.(*typed.FuncArgs)

	var params []cParam
	prologue := ""

	var singleTuple *typed.Tuple
	if len(args.Params) == 1 {
		singleTuple, _ = e.mono(args.Params[0].Mono).(*typed.Tuple)
	}
	if tup := singleTuple; tup != nil {
		// a single tuple-typed parameter still crosses the call boundary
		// flattened; rebuild it on entry
		var inits []string
		for i, item := range tup.Items {
			if isUnit(item) {
				continue
			}
			comp := fmt.Sprintf("_a%d", i)
			params = append(params, cParam{cName: comp, cType: e.cType(item)})
			inits = append(inits, fmt.Sprintf("._%d = %s", i, comp))
		}
		prologue = fmt.Sprintf("    %s %s = { %s };\n",
			e.cType(tup), localName(args.Params[0].Name), strings.Join(inits, ", "))
	} else {
		for _, p := range args.Params {
			pt := e.mono(p.Mono)
			if isUnit(pt) {
				continue
			}
			params = append(params, cParam{cName: localName(p.Name), cType: e.cType(pt)})
		}
	}

	sig := strings.Join(common.Map(func(p cParam) string {
		return fmt.Sprintf("%s %s", p.cType, p.cName)
	}, params), ", ")
	if sig == "" {
		sig = "void"
	}
	ret := "void"
	if !isUnit(fn.Result) {
		ret = e.cType(fn.Result)
	}

	e.decls.WriteString(fmt.Sprintf("%s %s(%s);\n", ret, name, sig))

	body := strings.Builder{}
	b := &block{sb: &body, indent: 1}
	v := e.gen(b, el.TypedExpr)
	if !isUnit(fn.Result) && v != "" {
		b.stmt("return %s;", v)
	}
	e.defs.WriteString(fmt.Sprintf("%s %s(%s) {\n%s%s}\n\n", ret, name, sig, prologue, body.String()))
}

// emitValue declares a C global and appends its initialization, in
// emission order, to the global initializer. Every binding initializes
// inside its own block so temporaries cannot collide.
func (e *emitter) emitValue(el *typed.El, name string) {
	t := e.mono(typed.PolyMono(el.Poly))

	body := strings.Builder{}
	b := &block{sb: &body, indent: 2}
	v := e.gen(b, el.TypedExpr)

	if !isUnit(t) {
		e.decls.WriteString(fmt.Sprintf("extern %s %s;\n", e.cType(t), name))
		e.defs.WriteString(fmt.Sprintf("%s %s;\n", e.cType(t), name))
		if v != "" {
			b.stmt("%s = %s;", name, v)
		}
	}
	e.initBody.WriteString("    {\n")
	e.initBody.WriteString(body.String())
	e.initBody.WriteString("    }\n")
}

func localName(name ast.Identifier) string {
	return "l_" + string(name)
}
