package processors

import (
	"fmt"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/expanded"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

var freshVarIndex uint64

// freshName cannot collide with source identifiers: those never start
// with an underscore.
func freshName() ast.Identifier {
	freshVarIndex++
	return ast.Identifier(fmt.Sprintf("_v%d", freshVarIndex))
}

// Expand rewrites a surface expression into the expanded IR: patterns
// become binding stacks, multi-argument calls become tuple applications,
// match arms get explicit guards.
func Expand(e parsed.Expression) expanded.Expression {
	switch x := e.(type) {
	case *parsed.Const:
		return &expanded.Const{Location: x.Location, Value: x.Value}
	case *parsed.Var:
		return &expanded.Var{Location: x.Location, Module: x.Module, Name: x.Name}
	case *parsed.Tuple:
		return &expanded.Tuple{Location: x.Location, Items: common.Map(Expand, x.Items)}
	case *parsed.Apply:
		return &expanded.Apply{
			Location: x.Location,
			Func:     Expand(x.Func),
			Arg:      packArgs(x.Location, x.Args),
		}
	case *parsed.Lambda:
		panic(common.Error{
			Kind:     common.KindSyntax,
			Location: x.Location,
			Message:  "a function literal is only allowed as the right-hand side of a top-level let",
		})
	case *parsed.LetIn:
		bindings := BreakupPatterns(x.Pattern, Expand(x.Value))
		body := Expand(x.Body)
		for i := len(bindings) - 1; i >= 0; i-- {
			body = &expanded.Let{
				Location: x.Location,
				Name:     bindings[i].Name,
				Value:    bindings[i].Value,
				Body:     body,
			}
		}
		return body
	case *parsed.If:
		return &expanded.If{
			Location: x.Location,
			Cond:     Expand(x.Cond),
			Then:     Expand(x.Then),
			Else:     Expand(x.Else),
		}
	case *parsed.Match:
		return expandMatch(x)
	case *parsed.StructLit:
		return &expanded.StructLit{
			Location: x.Location,
			Module:   x.Module,
			Name:     x.Name,
			Fields: common.Map(func(f parsed.FieldInit) expanded.FieldInit {
				return expanded.FieldInit{Name: f.Name, Value: Expand(f.Value)}
			}, x.Fields),
		}
	case *parsed.EnumLit:
		var payload expanded.Expression
		if x.Payload != nil {
			payload = Expand(x.Payload)
		}
		return &expanded.EnumLit{Location: x.Location, Module: x.Module, Variant: x.Variant, Payload: payload}
	case *parsed.FieldAccess:
		return &expanded.FieldAccess{Location: x.Location, Expr: Expand(x.Expr), Field: x.Field}
	case *parsed.TupleAccess:
		return &expanded.TupleAccess{Location: x.Location, Expr: Expand(x.Expr), Index: x.Index}
	case *parsed.Ref:
		return &expanded.Ref{Location: x.Location, Expr: Expand(x.Expr)}
	case *parsed.Deref:
		return &expanded.Deref{Location: x.Location, Expr: Expand(x.Expr)}
	case *parsed.Assign:
		return &expanded.Assign{Location: x.Location, Target: Expand(x.Target), Value: Expand(x.Value)}
	case *parsed.Loop:
		return &expanded.Loop{Location: x.Location, Body: Expand(x.Body)}
	case *parsed.Break:
		return &expanded.Break{Location: x.Location, Expr: Expand(x.Expr)}
	case *parsed.Return:
		return &expanded.Return{Location: x.Location, Expr: Expand(x.Expr)}
	case *parsed.SizeOf:
		return &expanded.SizeOf{Location: x.Location, Type: x.Type}
	case *parsed.Typed:
		return &expanded.Typed{Location: x.Location, Expr: Expand(x.Expr), Type: x.Type}
	case *parsed.BinOp:
		return &expanded.BinOp{Location: x.Location, Op: x.Op, Left: Expand(x.Left), Right: Expand(x.Right)}
	case *parsed.Compound:
		return &expanded.Compound{Location: x.Location, Items: common.Map(Expand, x.Items)}
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown expression %T", e)))
}

func packArgs(loc ast.Location, args []parsed.Expression) expanded.Expression {
	switch len(args) {
	case 0:
		return &expanded.Const{Location: loc, Value: ast.CUnit{}}
	case 1:
		return Expand(args[0])
	}
	return &expanded.Tuple{Location: loc, Items: common.Map(Expand, args)}
}

func varRef(loc ast.Location, name ast.Identifier) expanded.Expression {
	return &expanded.Var{Location: loc, Name: name}
}

// BreakupPatterns walks the pattern left to right and emits a stack of
// single-variable bindings; earlier bindings are in scope for the
// projections of later ones. Refutable patterns are rejected: a plain
// let cannot fail.
func BreakupPatterns(p parsed.Pattern, value expanded.Expression) []expanded.Binding {
	switch x := p.(type) {
	case *parsed.PVar:
		return []expanded.Binding{{Name: x.Name, Value: value}}
	case *parsed.PUnit:
		return []expanded.Binding{{
			Name: freshName(),
			Value: &expanded.Typed{
				Location: x.Location,
				Expr:     value,
				Type:     &parsed.TUnit{Location: x.Location},
			},
		}}
	case *parsed.PTuple:
		v := freshName()
		bindings := []expanded.Binding{{Name: v, Value: value}}
		for i, sub := range x.Items {
			bindings = append(bindings, BreakupPatterns(sub, &expanded.TupleAccess{
				Location: sub.GetLocation(),
				Expr:     varRef(x.Location, v),
				Index:    i,
			})...)
		}
		return bindings
	case *parsed.PRef:
		v := freshName()
		bindings := []expanded.Binding{{Name: v, Value: value}}
		return append(bindings, BreakupPatterns(x.Inner, &expanded.Deref{
			Location: x.Location,
			Expr:     varRef(x.Location, v),
		})...)
	case *parsed.PStruct:
		v := freshName()
		bindings := []expanded.Binding{{Name: v, Value: &expanded.AssertStruct{
			Location: x.Location,
			Module:   x.Module,
			Name:     x.Name,
			Expr:     value,
		}}}
		return append(bindings, common.ConcatMap(func(f parsed.PStructField) []expanded.Binding {
			sub := f.Sub
			if sub == nil {
				sub = &parsed.PVar{Location: f.Location, Name: f.Name}
			}
			return BreakupPatterns(sub, &expanded.FieldAccess{
				Location: f.Location,
				Expr:     varRef(x.Location, v),
				Field:    f.Name,
			})
		}, x.Fields)...)
	case *parsed.PTyped:
		v := freshName()
		bindings := []expanded.Binding{{Name: v, Value: &expanded.Typed{
			Location: x.Location,
			Expr:     value,
			Type:     x.Type,
		}}}
		return append(bindings, BreakupPatterns(x.Inner, varRef(x.Location, v))...)
	case *parsed.PEnum:
		if x.Payload != nil {
			v := freshName()
			bindings := []expanded.Binding{{Name: v, Value: &expanded.AccessEnumField{
				Location: x.Location,
				Module:   x.Module,
				Variant:  x.Variant,
				Expr:     value,
			}}}
			return append(bindings, BreakupPatterns(x.Payload, varRef(x.Location, v))...)
		}
		return []expanded.Binding{{Name: freshName(), Value: &expanded.AssertEmptyEnumField{
			Location: x.Location,
			Module:   x.Module,
			Variant:  x.Variant,
			Expr:     value,
		}}}
	case *parsed.PConst:
		panic(common.Error{
			Kind:     common.KindPattern,
			Location: x.Location,
			Message:  "refutable pattern in a position that cannot fail",
		})
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown pattern %T", p)))
}

func expandMatch(m *parsed.Match) expanded.Expression {
	subj := freshName()
	arms := make([]expanded.MatchArm, 0, len(m.Cases)+1)
	for _, c := range m.Cases {
		cond, bindings := matchPattern(c.Pattern, varRef(c.Location, subj))
		if cond == nil {
			cond = &expanded.Const{Location: c.Location, Value: ast.CBool{Value: true}}
		}
		arms = append(arms, expanded.MatchArm{
			Location: c.Location,
			Cond:     cond,
			Bindings: bindings,
			Body:     Expand(c.Expression),
		})
	}
	// unmatched values trap at runtime
	arms = append(arms, expanded.MatchArm{
		Location: m.Location,
		Cond:     &expanded.Const{Location: m.Location, Value: ast.CBool{Value: true}},
		Body:     &expanded.Unreachable{Location: m.Location},
	})
	return &expanded.Let{
		Location: m.Location,
		Name:     subj,
		Value:    Expand(m.Subject),
		Body:     &expanded.Match{Location: m.Location, Arms: arms},
	}
}

// matchPattern compiles one match-arm pattern against a (cheap, pure)
// subject expression. It returns a nil condition for irrefutable arms.
// Nested refutable patterns test projections inline so that the whole
// guard short-circuits left to right.
func matchPattern(p parsed.Pattern, value expanded.Expression) (expanded.Expression, []expanded.Binding) {
	switch x := p.(type) {
	case *parsed.PVar:
		return nil, []expanded.Binding{{Name: x.Name, Value: value}}
	case *parsed.PUnit:
		return nil, []expanded.Binding{{Name: freshName(), Value: &expanded.Typed{
			Location: x.Location,
			Expr:     value,
			Type:     &parsed.TUnit{Location: x.Location},
		}}}
	case *parsed.PConst:
		return &expanded.BinOp{
			Location: x.Location,
			Op:       parsed.OpEq,
			Left:     value,
			Right:    &expanded.Const{Location: x.Location, Value: x.Value},
		}, nil
	case *parsed.PTuple:
		var cond expanded.Expression
		var bindings []expanded.Binding
		for i, sub := range x.Items {
			c, bs := matchPattern(sub, &expanded.TupleAccess{
				Location: sub.GetLocation(),
				Expr:     value,
				Index:    i,
			})
			cond = combineConds(x.Location, cond, c)
			bindings = append(bindings, bs...)
		}
		return cond, bindings
	case *parsed.PRef:
		return matchPattern(x.Inner, &expanded.Deref{Location: x.Location, Expr: value})
	case *parsed.PStruct:
		var cond expanded.Expression
		bindings := []expanded.Binding{{Name: freshName(), Value: &expanded.AssertStruct{
			Location: x.Location,
			Module:   x.Module,
			Name:     x.Name,
			Expr:     value,
		}}}
		for _, f := range x.Fields {
			sub := f.Sub
			if sub == nil {
				sub = &parsed.PVar{Location: f.Location, Name: f.Name}
			}
			c, bs := matchPattern(sub, &expanded.FieldAccess{
				Location: f.Location,
				Expr:     value,
				Field:    f.Name,
			})
			cond = combineConds(x.Location, cond, c)
			bindings = append(bindings, bs...)
		}
		return cond, bindings
	case *parsed.PTyped:
		cond, bindings := matchPattern(x.Inner, value)
		bindings = append([]expanded.Binding{{Name: freshName(), Value: &expanded.Typed{
			Location: x.Location,
			Expr:     value,
			Type:     x.Type,
		}}}, bindings...)
		return cond, bindings
	case *parsed.PEnum:
		check := &expanded.CheckVariant{
			Location: x.Location,
			Module:   x.Module,
			Variant:  x.Variant,
			Expr:     value,
		}
		if x.Payload == nil {
			return check, []expanded.Binding{{Name: freshName(), Value: &expanded.AssertEmptyEnumField{
				Location: x.Location,
				Module:   x.Module,
				Variant:  x.Variant,
				Expr:     value,
			}}}
		}
		c, bindings := matchPattern(x.Payload, &expanded.AccessEnumField{
			Location: x.Location,
			Module:   x.Module,
			Variant:  x.Variant,
			Expr:     value,
		})
		return combineConds(x.Location, check, c), bindings
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown pattern %T", p)))
}

func combineConds(loc ast.Location, a, b expanded.Expression) expanded.Expression {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &expanded.BinOp{Location: loc, Op: parsed.OpAnd, Left: a, Right: b}
}

// CollectGlobals gathers the unqualified free variables of an expanded
// expression: the same-module globals the scheduler builds its graph
// over. locals seeds the bound set (function parameters).
func CollectGlobals(e expanded.Expression, locals map[ast.Identifier]struct{}) []ast.Identifier {
	var out []ast.Identifier
	seen := map[ast.Identifier]struct{}{}
	add := func(name ast.Identifier) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	var walk func(e expanded.Expression, locals map[ast.Identifier]struct{})
	walk = func(e expanded.Expression, locals map[ast.Identifier]struct{}) {
		switch x := e.(type) {
		case *expanded.Const, *expanded.SizeOf, *expanded.Unreachable:
		case *expanded.Var:
			if x.Module == "" {
				if _, bound := locals[x.Name]; !bound {
					add(x.Name)
				}
			}
		case *expanded.Tuple:
			for _, item := range x.Items {
				walk(item, locals)
			}
		case *expanded.Apply:
			walk(x.Func, locals)
			walk(x.Arg, locals)
		case *expanded.Let:
			walk(x.Value, locals)
			inner := cloneScope(locals)
			inner[x.Name] = struct{}{}
			walk(x.Body, inner)
		case *expanded.If:
			walk(x.Cond, locals)
			walk(x.Then, locals)
			walk(x.Else, locals)
		case *expanded.Match:
			for _, arm := range x.Arms {
				inner := cloneScope(locals)
				for _, b := range arm.Bindings {
					walk(b.Value, inner)
					inner[b.Name] = struct{}{}
				}
				walk(arm.Cond, inner)
				walk(arm.Body, inner)
			}
		case *expanded.StructLit:
			for _, f := range x.Fields {
				walk(f.Value, locals)
			}
		case *expanded.EnumLit:
			if x.Payload != nil {
				walk(x.Payload, locals)
			}
		case *expanded.FieldAccess:
			walk(x.Expr, locals)
		case *expanded.TupleAccess:
			walk(x.Expr, locals)
		case *expanded.AccessEnumField:
			walk(x.Expr, locals)
		case *expanded.AssertStruct:
			walk(x.Expr, locals)
		case *expanded.AssertEmptyEnumField:
			walk(x.Expr, locals)
		case *expanded.CheckVariant:
			walk(x.Expr, locals)
		case *expanded.Ref:
			walk(x.Expr, locals)
		case *expanded.Deref:
			walk(x.Expr, locals)
		case *expanded.Assign:
			walk(x.Target, locals)
			walk(x.Value, locals)
		case *expanded.Loop:
			walk(x.Body, locals)
		case *expanded.Break:
			walk(x.Expr, locals)
		case *expanded.Return:
			walk(x.Expr, locals)
		case *expanded.Typed:
			walk(x.Expr, locals)
		case *expanded.BinOp:
			walk(x.Left, locals)
			walk(x.Right, locals)
		case *expanded.Compound:
			for _, item := range x.Items {
				walk(item, locals)
			}
		default:
			panic(common.NewCompilerError(fmt.Sprintf("unknown expression %T", e)))
		}
	}
	walk(e, locals)
	return out
}

func cloneScope(locals map[ast.Identifier]struct{}) map[ast.Identifier]struct{} {
	inner := make(map[ast.Identifier]struct{}, len(locals)+1)
	for k := range locals {
		inner[k] = struct{}{}
	}
	return inner
}
