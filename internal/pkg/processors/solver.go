package processors

import (
	"fmt"
	"slices"

	"github.com/benbjohnson/immutable"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/expanded"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/typed"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

// inferCtx threads the local scope and the types that `return` and
// `break` must produce into the recursion. The environment is a
// persistent map, so extending it for a branch never leaks bindings into
// a sibling scope.
type inferCtx struct {
	env *immutable.Map[string, typed.Mono]
	res typed.Mono
	brk typed.Mono
}

func newInferCtx(res typed.Mono) inferCtx {
	return inferCtx{env: immutable.NewMap[string, typed.Mono](nil), res: res}
}

func (ctx inferCtx) bind(name ast.Identifier, m typed.Mono) inferCtx {
	ctx.env = ctx.env.Set(string(name), m)
	return ctx
}

func (ctx inferCtx) lookup(name ast.Identifier) (typed.Mono, bool) {
	return ctx.env.Get(string(name))
}

func (c *compiler) unify(loc ast.Location, a, b typed.Mono) typed.Mono {
	m, err := typed.Unify(a, b)
	if err != nil {
		panic(common.Error{
			Kind:     common.KindUnification,
			Location: loc,
			Message:  err.Error(),
		})
	}
	return m
}

// ensureChecked forces the binding's component through the type checker.
// Re-entry while the component is InChecking is the mutual-recursion
// case: the caller sees the skeleton type.
func (c *compiler) ensureChecked(el *typed.El) {
	if el.Scc == nil {
		panic(common.NewCompilerError(fmt.Sprintf("global `%s` was never scheduled", el.Name)))
	}
	if el.Scc.State == typed.Untouched {
		c.checkScc(el.Module, el.Scc)
	}
}

// checkScc type checks one strongly connected component: infer every
// body with the whole component in scope at the skeleton types assigned
// during elaboration, then generalize functions and weaken values.
func (c *compiler) checkScc(m *typed.Module, scc *typed.Scc) {
	scc.State = typed.InChecking

	for _, el := range scc.Vars {
		ctx := newInferCtx(nil)
		skeleton := typed.PolyMono(el.Poly)
		if args, ok := el.Args.(*typed.FuncArgs); ok {
			for _, p := range args.Params {
				ctx = ctx.bind(p.Name, p.Mono)
			}
			ctx.res = skeleton.(*typed.Func).Result
		}
		te := c.infer(m, ctx, el.Expr)
		if f, ok := skeleton.(*typed.Func); ok {
			c.unify(el.Location, te.GetType(), f.Result)
		} else {
			c.unify(el.Location, te.GetType(), skeleton)
		}
		el.TypedExpr = te
	}

	var fnEls []*typed.El
	var fnMonos []typed.Mono
	for _, el := range scc.Vars {
		if el.IsFunc() {
			fnEls = append(fnEls, el)
			fnMonos = append(fnMonos, typed.PolyMono(el.Poly))
		} else {
			el.Poly = typed.Weaken(typed.PolyMono(el.Poly))
		}
	}
	for i, p := range typed.GeneralizeGroup(fnMonos) {
		fnEls[i].Poly = p
	}

	scc.State = typed.Done
}

func constType(v ast.ConstValue) typed.Mono {
	switch v.(type) {
	case ast.CUnit:
		return typed.Unit
	case ast.CInt:
		return typed.I64
	case ast.CFloat:
		return typed.F64
	case ast.CBool:
		return typed.Bool
	case ast.CChar:
		return typed.Char
	case ast.CString:
		return &typed.Pointer{To: typed.Char}
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown literal %T", v)))
}

func (c *compiler) infer(m *typed.Module, ctx inferCtx, e expanded.Expression) typed.Expression {
	switch x := e.(type) {
	case *expanded.Const:
		return &typed.Const{Location: x.Location, Type: constType(x.Value), Value: x.Value}

	case *expanded.Var:
		if x.Module == "" {
			if t, ok := ctx.lookup(x.Name); ok {
				return &typed.LocalVar{Location: x.Location, Type: t, Name: x.Name}
			}
		}
		return c.inferGlobal(m, x)

	case *expanded.Tuple:
		items := common.Map(func(i expanded.Expression) typed.Expression { return c.infer(m, ctx, i) }, x.Items)
		return &typed.TupleLit{
			Location: x.Location,
			Type:     &typed.Tuple{Items: common.Map(typed.Expression.GetType, items)},
			Items:    items,
		}

	case *expanded.Apply:
		f := c.infer(m, ctx, x.Func)
		arg := c.infer(m, ctx, x.Arg)
		result := typed.NewIndir()
		c.unify(x.Location, f.GetType(), &typed.Func{Arg: arg.GetType(), Result: result})
		return &typed.Apply{Location: x.Location, Type: result, Func: f, Arg: arg}

	case *expanded.Let:
		value := c.infer(m, ctx, x.Value)
		body := c.infer(m, ctx.bind(x.Name, value.GetType()), x.Body)
		return &typed.Let{
			Location: x.Location,
			Type:     body.GetType(),
			Name:     x.Name,
			Value:    value,
			Body:     body,
		}

	case *expanded.If:
		cond := c.infer(m, ctx, x.Cond)
		c.unify(x.Cond.GetLocation(), cond.GetType(), typed.Bool)
		then := c.infer(m, ctx, x.Then)
		els := c.infer(m, ctx, x.Else)
		t := c.unify(x.Location, then.GetType(), els.GetType())
		return &typed.If{Location: x.Location, Type: t, Cond: cond, Then: then, Else: els}

	case *expanded.Match:
		var result typed.Mono = typed.NewIndir()
		arms := make([]typed.MatchArm, len(x.Arms))
		for i, arm := range x.Arms {
			armCtx := ctx
			bindings := make([]typed.Binding, len(arm.Bindings))
			for j, b := range arm.Bindings {
				value := c.infer(m, armCtx, b.Value)
				armCtx = armCtx.bind(b.Name, value.GetType())
				bindings[j] = typed.Binding{Name: b.Name, Value: value}
			}
			cond := c.infer(m, armCtx, arm.Cond)
			c.unify(arm.Cond.GetLocation(), cond.GetType(), typed.Bool)
			body := c.infer(m, armCtx, arm.Body)
			result = c.unify(arm.Location, result, body.GetType())
			arms[i] = typed.MatchArm{Location: arm.Location, Cond: cond, Bindings: bindings, Body: body}
		}
		return &typed.Match{Location: x.Location, Type: result, Arms: arms}

	case *expanded.StructLit:
		return c.inferStructLit(m, ctx, x)

	case *expanded.EnumLit:
		u := c.lookupVariant(m, x.Module, x.Variant, x.Location)
		user, sub := u.InstFresh()
		info := u.Info.(*typed.EnumInfo)
		variant, _ := info.Variant(x.Variant)
		var payload typed.Expression
		if x.Payload != nil {
			if variant.Payload == nil {
				panic(common.Error{
					Kind:     common.KindArity,
					Location: x.Location,
					Message:  fmt.Sprintf("variant `%s` carries no payload", x.Variant),
				})
			}
			payload = c.infer(m, ctx, x.Payload)
			c.unify(x.Location, payload.GetType(), typed.SubstVars(variant.Payload, sub))
		} else if variant.Payload != nil {
			panic(common.Error{
				Kind:     common.KindArity,
				Location: x.Location,
				Message:  fmt.Sprintf("variant `%s` needs a payload", x.Variant),
			})
		}
		return &typed.Enum{Location: x.Location, Type: user, Variant: x.Variant, Payload: payload}

	case *expanded.FieldAccess:
		subject := c.infer(m, ctx, x.Expr)
		t := typed.InnerMono(subject.GetType())
		if u, ok := asStruct(t); ok {
			sub := map[ast.Identifier]typed.Mono{}
			for i, v := range u.Decl.TyVars {
				sub[v] = u.Args[i]
			}
			field, ok := u.Decl.Info.(*typed.StructInfo).Field(x.Field)
			if !ok {
				panic(common.Error{
					Kind:     common.KindName,
					Location: x.Location,
					Message:  fmt.Sprintf("type `%s` has no field `%s`", u.Decl.Name, x.Field),
				})
			}
			return &typed.FieldAccess{
				Location: x.Location,
				Type:     typed.SubstVars(field.Mono, sub),
				Expr:     subject,
				Field:    x.Field,
			}
		}
		decl, ok := c.lookupFieldType(m, x.Field)
		if !ok {
			panic(common.Error{
				Kind:     common.KindName,
				Location: x.Location,
				Message:  fmt.Sprintf("unknown field `%s`", x.Field),
			})
		}
		user, sub := decl.InstFresh()
		c.unify(x.Location, subject.GetType(), user)
		field, _ := decl.Info.(*typed.StructInfo).Field(x.Field)
		return &typed.FieldAccess{
			Location: x.Location,
			Type:     typed.SubstVars(field.Mono, sub),
			Expr:     subject,
			Field:    x.Field,
		}

	case *expanded.TupleAccess:
		subject := c.infer(m, ctx, x.Expr)
		t := typed.InnerMono(subject.GetType())
		tup, ok := t.(*typed.Tuple)
		if !ok {
			panic(common.Error{
				Kind:     common.KindPattern,
				Location: x.Location,
				Message:  fmt.Sprintf("tuple access on a value of type `%s`; annotate the tuple", t),
			})
		}
		if x.Index < 0 || x.Index >= len(tup.Items) {
			panic(common.Error{
				Kind:     common.KindPattern,
				Location: x.Location,
				Message:  fmt.Sprintf("tuple access .%d out of bounds for `%s`", x.Index, t),
			})
		}
		return &typed.TupleAccess{Location: x.Location, Type: tup.Items[x.Index], Expr: subject, Index: x.Index}

	case *expanded.AccessEnumField:
		subject := c.infer(m, ctx, x.Expr)
		u := c.lookupVariant(m, x.Module, x.Variant, x.Location)
		user, sub := u.InstFresh()
		c.unify(x.Location, subject.GetType(), user)
		variant, _ := u.Info.(*typed.EnumInfo).Variant(x.Variant)
		if variant.Payload == nil {
			panic(common.Error{
				Kind:     common.KindPattern,
				Location: x.Location,
				Message:  fmt.Sprintf("variant `%s` carries no payload", x.Variant),
			})
		}
		return &typed.AccessEnumField{
			Location: x.Location,
			Type:     typed.SubstVars(variant.Payload, sub),
			Variant:  x.Variant,
			Expr:     subject,
		}

	case *expanded.AssertStruct:
		subject := c.infer(m, ctx, x.Expr)
		u := c.lookupUserType(m, x.Module, x.Name, x.Location)
		if _, ok := u.Info.(*typed.StructInfo); !ok {
			panic(common.Error{
				Kind:     common.KindPattern,
				Location: x.Location,
				Message:  fmt.Sprintf("type `%s` is not a struct", x.Name),
			})
		}
		user, _ := u.InstFresh()
		t := c.unify(x.Location, subject.GetType(), user)
		return &typed.AssertStruct{Location: x.Location, Type: t, Expr: subject}

	case *expanded.AssertEmptyEnumField:
		subject := c.infer(m, ctx, x.Expr)
		u := c.lookupVariant(m, x.Module, x.Variant, x.Location)
		user, _ := u.InstFresh()
		t := c.unify(x.Location, subject.GetType(), user)
		variant, _ := u.Info.(*typed.EnumInfo).Variant(x.Variant)
		if variant.Payload != nil {
			panic(common.Error{
				Kind:     common.KindPattern,
				Location: x.Location,
				Message:  fmt.Sprintf("variant `%s` carries a payload; bind it", x.Variant),
			})
		}
		return &typed.AssertEmptyEnumField{Location: x.Location, Type: t, Variant: x.Variant, Expr: subject}

	case *expanded.CheckVariant:
		subject := c.infer(m, ctx, x.Expr)
		u := c.lookupVariant(m, x.Module, x.Variant, x.Location)
		user, _ := u.InstFresh()
		c.unify(x.Location, subject.GetType(), user)
		return &typed.CheckVariant{Location: x.Location, Type: typed.Bool, Variant: x.Variant, Expr: subject}

	case *expanded.Ref:
		subject := c.infer(m, ctx, x.Expr)
		return &typed.Ref{Location: x.Location, Type: &typed.Pointer{To: subject.GetType()}, Expr: subject}

	case *expanded.Deref:
		subject := c.infer(m, ctx, x.Expr)
		inner := typed.NewIndir()
		c.unify(x.Location, subject.GetType(), &typed.Pointer{To: inner})
		return &typed.Deref{Location: x.Location, Type: inner, Expr: subject}

	case *expanded.Assign:
		target := c.infer(m, ctx, x.Target)
		if !assignable(target) {
			panic(common.Error{
				Kind:     common.KindPattern,
				Location: x.Location,
				Message:  "left-hand side of `<-` is not assignable",
			})
		}
		value := c.infer(m, ctx, x.Value)
		c.unify(x.Location, target.GetType(), value.GetType())
		return &typed.Assign{Location: x.Location, Type: typed.Unit, Target: target, Value: value}

	case *expanded.Loop:
		brk := typed.NewIndir()
		loopCtx := ctx
		loopCtx.brk = brk
		body := c.infer(m, loopCtx, x.Body)
		c.unify(x.Location, body.GetType(), typed.Unit)
		return &typed.Loop{Location: x.Location, Type: brk, Body: body}

	case *expanded.Break:
		if ctx.brk == nil {
			panic(common.Error{
				Kind:     common.KindName,
				Location: x.Location,
				Message:  "`break` outside of a loop",
			})
		}
		value := c.infer(m, ctx, x.Expr)
		c.unify(x.Location, value.GetType(), ctx.brk)
		return &typed.Break{Location: x.Location, Type: typed.NewIndir(), Expr: value}

	case *expanded.Return:
		if ctx.res == nil {
			panic(common.Error{
				Kind:     common.KindName,
				Location: x.Location,
				Message:  "`return` outside of a function",
			})
		}
		value := c.infer(m, ctx, x.Expr)
		c.unify(x.Location, value.GetType(), ctx.res)
		return &typed.Return{Location: x.Location, Type: typed.NewIndir(), Expr: value}

	case *expanded.SizeOf:
		return &typed.SizeOf{Location: x.Location, Type: typed.I64, Of: c.monifyType(m, nil, x.Type)}

	case *expanded.Typed:
		subject := c.infer(m, ctx, x.Expr)
		t := c.unify(x.Location, subject.GetType(), c.monifyType(m, nil, x.Type))
		return retype(subject, t)

	case *expanded.BinOp:
		left := c.infer(m, ctx, x.Left)
		right := c.infer(m, ctx, x.Right)
		var t typed.Mono
		switch x.Op {
		case parsed.OpAdd, parsed.OpSub, parsed.OpMul, parsed.OpDiv, parsed.OpMod:
			t = c.unify(x.Location, left.GetType(), right.GetType())
		case parsed.OpEq, parsed.OpNe, parsed.OpLt, parsed.OpGt, parsed.OpLe, parsed.OpGe:
			c.unify(x.Location, left.GetType(), right.GetType())
			t = typed.Bool
		case parsed.OpAnd, parsed.OpOr:
			c.unify(x.Left.GetLocation(), left.GetType(), typed.Bool)
			c.unify(x.Right.GetLocation(), right.GetType(), typed.Bool)
			t = typed.Bool
		}
		return &typed.BinOp{Location: x.Location, Type: t, Op: x.Op, Left: left, Right: right}

	case *expanded.Compound:
		items := common.Map(func(i expanded.Expression) typed.Expression { return c.infer(m, ctx, i) }, x.Items)
		return &typed.Compound{
			Location: x.Location,
			Type:     items[len(items)-1].GetType(),
			Items:    items,
		}

	case *expanded.Unreachable:
		return &typed.Unreachable{Location: x.Location, Type: typed.NewIndir()}
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown expression %T", e)))
}

func (c *compiler) inferGlobal(m *typed.Module, x *expanded.Var) typed.Expression {
	top := c.lookupGlobal(m, x.Module, x.Name, x.Location)
	switch v := top.(type) {
	case *typed.El:
		c.ensureChecked(v)
		if v.Scc.State == typed.InChecking {
			// mutual recursion: the component is still being solved, so
			// the member is visible at its skeleton type
			return &typed.GlobVar{Location: x.Location, Type: typed.PolyMono(v.Poly), Var: v}
		}
		mono, instMap := typed.Inst(v.Poly)
		return &typed.GlobVar{Location: x.Location, Type: mono, Var: v, InstMap: instMap}
	case *typed.Extern:
		return &typed.GlobVar{Location: x.Location, Type: v.Mono, Var: v}
	case *typed.ImplicitExtern:
		return &typed.GlobVar{Location: x.Location, Type: v.Mono, Var: v}
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown top var %T", top)))
}

func (c *compiler) inferStructLit(m *typed.Module, ctx inferCtx, x *expanded.StructLit) typed.Expression {
	u := c.lookupUserType(m, x.Module, x.Name, x.Location)
	info, ok := u.Info.(*typed.StructInfo)
	if !ok {
		panic(common.Error{
			Kind:     common.KindPattern,
			Location: x.Location,
			Message:  fmt.Sprintf("type `%s` is not a struct", x.Name),
		})
	}
	user, sub := u.InstFresh()

	declared := slices.Clone(info.Fields)
	slices.SortFunc(declared, func(a, b typed.Field) int {
		return cmpIdent(a.Name, b.Name)
	})
	given := slices.Clone(x.Fields)
	slices.SortFunc(given, func(a, b expanded.FieldInit) int {
		return cmpIdent(a.Name, b.Name)
	})
	if len(declared) != len(given) {
		panic(common.Error{
			Kind:     common.KindUnification,
			Location: x.Location,
			Message: fmt.Sprintf("struct `%s` has %d field(s), literal provides %d",
				x.Name, len(declared), len(given)),
		})
	}

	fields := make([]typed.FieldInit, len(given))
	for i, f := range given {
		if f.Name != declared[i].Name {
			panic(common.Error{
				Kind:     common.KindUnification,
				Location: x.Location,
				Message:  fmt.Sprintf("struct `%s` has no field `%s`", x.Name, f.Name),
			})
		}
		value := c.infer(m, ctx, f.Value)
		c.unify(x.Location, value.GetType(), typed.SubstVars(declared[i].Mono, sub))
		fields[i] = typed.FieldInit{Name: f.Name, Value: value}
	}
	return &typed.StructLit{Location: x.Location, Type: user, Fields: fields}
}

func cmpIdent(a, b ast.Identifier) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func asStruct(t typed.Mono) (*typed.User, bool) {
	u, ok := t.(*typed.User)
	if !ok {
		return nil, false
	}
	if _, ok := u.Decl.Info.(*typed.StructInfo); !ok {
		return nil, false
	}
	return u, true
}

func assignable(e typed.Expression) bool {
	switch t := e.(type) {
	case *typed.LocalVar, *typed.Deref:
		return true
	case *typed.FieldAccess:
		return assignable(t.Expr)
	case *typed.TupleAccess:
		return assignable(t.Expr)
	}
	return false
}

// retype rebuilds the node with the ascribed type; for most nodes the
// unification already updated the shared cells, so only the top-level
// annotation needs replacing.
func retype(e typed.Expression, t typed.Mono) typed.Expression {
	switch x := e.(type) {
	case *typed.Const:
		return &typed.Const{Location: x.Location, Type: t, Value: x.Value}
	case *typed.LocalVar:
		return &typed.LocalVar{Location: x.Location, Type: t, Name: x.Name}
	case *typed.GlobVar:
		return &typed.GlobVar{Location: x.Location, Type: t, Var: x.Var, InstMap: x.InstMap}
	}
	return e
}
