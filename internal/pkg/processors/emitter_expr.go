package processors

import (
	"fmt"
	"strings"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/typed"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

// gen lowers one typed expression into C. Statements go into b; the
// return value is a C expression for the value, or "" for unit-typed
// expressions and expressions that never produce a value.
func (e *emitter) gen(b *block, x typed.Expression) string {
	switch t := x.(type) {
	case *typed.Const:
		return genConst(t.Value)

	case *typed.LocalVar:
		if isUnit(e.mono(t.Type)) {
			return ""
		}
		return localName(t.Name)

	case *typed.GlobVar:
		return e.genGlobVar(t)

	case *typed.TupleLit:
		tup := e.mono(t.Type).(*typed.Tuple)
		tmp := e.newTemp()
		var inits []string
		for i, item := range t.Items {
			v := e.gen(b, item)
			if isUnit(tup.Items[i]) {
				continue
			}
			inits = append(inits, fmt.Sprintf("._%d = %s", i, v))
		}
		b.stmt("%s %s = { %s };", e.cType(tup), tmp, strings.Join(inits, ", "))
		return tmp

	case *typed.Apply:
		return e.genApply(b, t)

	case *typed.Let:
		v := e.gen(b, t.Value)
		vt := e.mono(t.Value.GetType())
		if !isUnit(vt) && v != "" {
			b.stmt("%s %s = %s;", e.cType(vt), localName(t.Name), v)
		}
		return e.gen(b, t.Body)

	case *typed.If:
		return e.genIf(b, t)

	case *typed.Match:
		return e.genMatch(b, t)

	case *typed.StructLit:
		ut := e.mono(t.Type).(*typed.User)
		tmp := e.newTemp()
		var inits []string
		for _, f := range t.Fields {
			v := e.gen(b, f.Value)
			if isUnit(e.mono(f.Value.GetType())) {
				continue
			}
			inits = append(inits, fmt.Sprintf(".%s = %s", f.Name, v))
		}
		b.stmt("%s %s = { %s };", e.cType(ut), tmp, strings.Join(inits, ", "))
		return tmp

	case *typed.Enum:
		ut := e.mono(t.Type).(*typed.User)
		name := e.ensureUser(ut)
		tmp := e.newTemp()
		b.stmt("struct %s %s;", name, tmp)
		b.stmt("%s.tag = %s;", tmp, e.variantTag(name, t.Variant))
		if t.Payload != nil {
			v := e.gen(b, t.Payload)
			if !isUnit(e.mono(t.Payload.GetType())) {
				b.stmt("%s.data.%s = %s;", tmp, t.Variant, v)
			}
		}
		return tmp

	case *typed.FieldAccess:
		v := e.gen(b, t.Expr)
		if isUnit(e.mono(t.Type)) {
			return ""
		}
		return fmt.Sprintf("%s.%s", v, t.Field)

	case *typed.TupleAccess:
		v := e.gen(b, t.Expr)
		if isUnit(e.mono(t.Type)) {
			return ""
		}
		return fmt.Sprintf("%s._%d", v, t.Index)

	case *typed.AccessEnumField:
		v := e.gen(b, t.Expr)
		if isUnit(e.mono(t.Type)) {
			return ""
		}
		return fmt.Sprintf("%s.data.%s", v, t.Variant)

	case *typed.AssertStruct:
		return e.gen(b, t.Expr)

	case *typed.AssertEmptyEnumField:
		return e.gen(b, t.Expr)

	case *typed.CheckVariant:
		v := e.gen(b, t.Expr)
		ut := e.mono(t.Expr.GetType()).(*typed.User)
		return fmt.Sprintf("(%s.tag == %s)", v, e.variantTag(e.ensureUser(ut), t.Variant))

	case *typed.Ref:
		inner := e.gen(b, t.Expr)
		if isLValue(t.Expr) {
			return fmt.Sprintf("(&%s)", inner)
		}
		it := e.mono(t.Expr.GetType())
		tmp := e.newTemp()
		b.stmt("%s %s = %s;", e.cType(it), tmp, inner)
		return fmt.Sprintf("(&%s)", tmp)

	case *typed.Deref:
		v := e.gen(b, t.Expr)
		if isUnit(e.mono(t.Type)) {
			return ""
		}
		return fmt.Sprintf("(*%s)", v)

	case *typed.Assign:
		target := e.gen(b, t.Target)
		v := e.gen(b, t.Value)
		if target != "" && v != "" {
			b.stmt("%s = %s;", target, v)
		}
		return ""

	case *typed.Loop:
		return e.genLoop(b, t)

	case *typed.Break:
		v := e.gen(b, t.Expr)
		if len(e.loops) == 0 {
			panic(common.NewCompilerError("break emitted outside a loop"))
		}
		brkVar := e.loops[len(e.loops)-1]
		if brkVar != "" && v != "" {
			b.stmt("%s = %s;", brkVar, v)
		}
		b.stmt("break;")
		return ""

	case *typed.Return:
		v := e.gen(b, t.Expr)
		if v == "" {
			b.stmt("return;")
		} else {
			b.stmt("return %s;", v)
		}
		return ""

	case *typed.SizeOf:
		return fmt.Sprintf("((int64_t)sizeof(%s))", e.cType(e.mono(t.Of)))

	case *typed.BinOp:
		left := e.gen(b, t.Left)
		right := e.gen(b, t.Right)
		return fmt.Sprintf("(%s %s %s)", left, cOperator(t.Op), right)

	case *typed.Compound:
		var last string
		for i, item := range t.Items {
			last = e.gen(b, item)
			if i != len(t.Items)-1 && last != "" {
				b.stmt("(void)(%s);", last)
			}
		}
		return last

	case *typed.Unreachable:
		b.stmt("assert(0);")
		return ""
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown typed expression %T", x)))
}

func genConst(v ast.ConstValue) string {
	switch c := v.(type) {
	case ast.CUnit:
		return ""
	case ast.CInt:
		return fmt.Sprintf("%d", c.Value)
	case ast.CFloat:
		return fmt.Sprintf("%g", c.Value)
	case ast.CBool:
		if c.Value {
			return "true"
		}
		return "false"
	case ast.CChar:
		switch c.Value {
		case '\n':
			return `'\n'`
		case '\t':
			return `'\t'`
		case '\r':
			return `'\r'`
		case 0:
			return `'\0'`
		case '\'':
			return `'\''`
		case '\\':
			return `'\\'`
		}
		return fmt.Sprintf("'%c'", c.Value)
	case ast.CString:
		return fmt.Sprintf("\"%s\"", c.Value)
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown literal %T", v)))
}

func cOperator(op parsed.BinOpKind) string {
	switch op {
	case parsed.OpAdd:
		return "+"
	case parsed.OpSub:
		return "-"
	case parsed.OpMul:
		return "*"
	case parsed.OpDiv:
		return "/"
	case parsed.OpMod:
		return "%"
	case parsed.OpEq:
		return "=="
	case parsed.OpNe:
		return "!="
	case parsed.OpLt:
		return "<"
	case parsed.OpGt:
		return ">"
	case parsed.OpLe:
		return "<="
	case parsed.OpGe:
		return ">="
	case parsed.OpAnd:
		return "&&"
	case parsed.OpOr:
		return "||"
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown operator %d", int(op))))
}

// genGlobVar resolves the reference, forcing emission of the referenced
// specialization.
func (e *emitter) genGlobVar(x *typed.GlobVar) string {
	switch v := x.Var.(type) {
	case *typed.El:
		inst := map[ast.Identifier]typed.Mono{}
		for k, m := range x.InstMap {
			inst[k] = e.mono(m)
		}
		return e.emitEl(v, inst)
	case *typed.Extern:
		e.declareExtern(v)
		return v.ExternalName
	case *typed.ImplicitExtern:
		return v.ExternalName
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown top var %T", x.Var)))
}

func (e *emitter) genApply(b *block, x *typed.Apply) string {
	fv := e.gen(b, x.Func)
	argT := e.mono(x.Arg.GetType())

	var args []string
	switch {
	case isUnit(argT):
		e.gen(b, x.Arg)
	default:
		if tup, ok := argT.(*typed.Tuple); ok {
			if lit, isLit := x.Arg.(*typed.TupleLit); isLit {
				for i, item := range lit.Items {
					v := e.gen(b, item)
					if !isUnit(tup.Items[i]) {
						args = append(args, v)
					}
				}
			} else {
				v := e.gen(b, x.Arg)
				for i, item := range tup.Items {
					if !isUnit(item) {
						args = append(args, fmt.Sprintf("%s._%d", v, i))
					}
				}
			}
		} else {
			args = append(args, e.gen(b, x.Arg))
		}
	}

	call := fmt.Sprintf("%s(%s)", fv, strings.Join(args, ", "))
	rt := e.mono(x.Type)
	if isUnit(rt) {
		b.stmt("%s;", call)
		return ""
	}
	tmp := e.newTemp()
	b.stmt("%s %s = %s;", e.cType(rt), tmp, call)
	return tmp
}

// genIf lowers a non-unit if into a temporary assigned by both branches;
// a unit if emits no temporary.
func (e *emitter) genIf(b *block, x *typed.If) string {
	cond := e.gen(b, x.Cond)
	rt := e.mono(x.Type)

	tmp := ""
	if !isUnit(rt) {
		tmp = e.newTemp()
		b.stmt("%s %s;", e.cType(rt), tmp)
	}

	b.stmt("if (%s) {", cond)
	tb := b.child()
	v := e.gen(tb, x.Then)
	if tmp != "" && v != "" {
		tb.stmt("%s = %s;", tmp, v)
	}
	b.stmt("} else {")
	eb := b.child()
	v = e.gen(eb, x.Else)
	if tmp != "" && v != "" {
		eb.stmt("%s = %s;", tmp, v)
	}
	b.stmt("}")
	return tmp
}

// genMatch nests each arm's guard in the previous arm's else so that
// guard evaluation stays in its own scope. The trailing arm is the
// fall-through and traps.
func (e *emitter) genMatch(b *block, x *typed.Match) string {
	rt := e.mono(x.Type)
	tmp := ""
	if !isUnit(rt) {
		tmp = e.newTemp()
		b.stmt("%s %s;", e.cType(rt), tmp)
	}
	e.genMatchArms(b, x.Arms, tmp)
	return tmp
}

func (e *emitter) genMatchArms(b *block, arms []typed.MatchArm, tmp string) {
	arm := arms[0]
	emitBody := func(ab *block) {
		for _, bind := range arm.Bindings {
			v := e.gen(ab, bind.Value)
			bt := e.mono(bind.Value.GetType())
			if !isUnit(bt) && v != "" {
				ab.stmt("%s %s = %s;", e.cType(bt), localName(bind.Name), v)
			}
		}
		v := e.gen(ab, arm.Body)
		if tmp != "" && v != "" {
			ab.stmt("%s = %s;", tmp, v)
		}
	}

	if isTrueConst(arm.Cond) || len(arms) == 1 {
		emitBody(b)
		return
	}

	cond := e.gen(b, arm.Cond)
	b.stmt("if (%s) {", cond)
	emitBody(b.child())
	b.stmt("} else {")
	e.genMatchArms(b.child(), arms[1:], tmp)
	b.stmt("}")
}

func isTrueConst(x typed.Expression) bool {
	c, ok := x.(*typed.Const)
	return ok && c.Value.EqualsTo(ast.CBool{Value: true})
}

func (e *emitter) genLoop(b *block, x *typed.Loop) string {
	rt := e.mono(x.Type)
	brkVar := ""
	if !isUnit(rt) {
		brkVar = e.newTemp()
		b.stmt("%s %s;", e.cType(rt), brkVar)
	}
	e.loops = append(e.loops, brkVar)
	b.stmt("for (;;) {")
	e.gen(b.child(), x.Body)
	b.stmt("}")
	e.loops = e.loops[:len(e.loops)-1]
	return brkVar
}

func isLValue(x typed.Expression) bool {
	switch t := x.(type) {
	case *typed.LocalVar:
		return true
	case *typed.Deref:
		return true
	case *typed.FieldAccess:
		return isLValue(t.Expr)
	case *typed.TupleAccess:
		return isLValue(t.Expr)
	case *typed.AccessEnumField:
		return isLValue(t.Expr)
	case *typed.AssertStruct:
		return isLValue(t.Expr)
	case *typed.AssertEmptyEnumField:
		return isLValue(t.Expr)
	case *typed.GlobVar:
		if el, ok := t.Var.(*typed.El); ok {
			return !el.IsFunc()
		}
		_, isExtern := t.Var.(*typed.Extern)
		return isExtern
	}
	return false
}
