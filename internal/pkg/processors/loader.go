package processors

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/mod/module"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/typed"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

var moduleFileRe = regexp.MustCompile(`^[a-z][a-z0-9_]*\.el2$`)

var titleCaser = cases.Title(language.Und, cases.NoLower)

type compiler struct {
	// sources, when non-nil, overrides the file system (tests and
	// in-memory compilation); keys are paths as the loader sees them.
	sources map[string]string

	log *common.LogWriter

	// modules is keyed by cleaned file path; entries are present while
	// still in evaluation so that re-entry can be detected.
	modules map[string]*typed.Module

	uniqueNames map[string]struct{}

	root *typed.Module
}

func newCompiler(sources map[string]string, log *common.LogWriter) *compiler {
	if log == nil {
		log = &common.LogWriter{}
	}
	return &compiler{
		sources:     sources,
		log:         log,
		modules:     map[string]*typed.Module{},
		uniqueNames: map[string]struct{}{},
	}
}

// ModuleNameFromFilename derives the module name: base name, extension
// stripped, leading character uppercased.
func ModuleNameFromFilename(filename string) ast.Identifier {
	base := strings.TrimSuffix(filepath.Base(filename), ".el2")
	return ast.Identifier(titleCaser.String(base))
}

func (c *compiler) readSource(path string) (string, error) {
	if c.sources != nil {
		text, ok := c.sources[path]
		if !ok {
			return "", errors.Errorf("no such module file: %s", path)
		}
		return text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read module `%s`", path)
	}
	return string(data), nil
}

// processModule loads, parses and fully type checks one module file. A
// file is processed at most once; re-entry while the module is still in
// evaluation is an import cycle and fatal.
func (c *compiler) processModule(path string, from *typed.Module, loc ast.Location) *typed.Module {
	path = filepath.Clean(path)
	if m, ok := c.modules[path]; ok {
		if m.InEval {
			fromName := ast.Identifier("<entry>")
			if from != nil {
				fromName = from.Name
			}
			panic(common.Error{
				Kind:     common.KindModuleCycle,
				Location: loc,
				Message:  fmt.Sprintf("import cycle: module `%s` loads `%s`, which is still being processed", fromName, filepath.Base(path)),
			})
		}
		return m
	}

	base := filepath.Base(path)
	if !moduleFileRe.MatchString(base) {
		panic(common.Error{
			Kind:     common.KindName,
			Location: loc,
			Message:  fmt.Sprintf("module file name `%s` must match [a-z][a-z0-9_]*.el2", base),
		})
	}
	if err := module.CheckFilePath(base); err != nil {
		panic(common.NewSystemError(errors.Wrapf(err, "bad module path `%s`", path)))
	}

	text, err := c.readSource(path)
	if err != nil {
		panic(common.NewSystemError(err))
	}

	name := ModuleNameFromFilename(path)
	for _, m := range c.modules {
		if m.Name == name {
			panic(common.Error{
				Kind:     common.KindDuplicate,
				Location: loc,
				Message:  fmt.Sprintf("module name `%s` is loaded from both `%s` and `%s`", name, m.Filename, path),
			})
		}
	}

	mod := typed.NewModule(name, path, from)
	mod.InEval = true
	c.modules[path] = mod
	c.log.Trace("processing module `%s` (%s)", mod.Name, path)

	parsedModule, err := ParseWithContent(path, text)
	if err != nil {
		panic(err)
	}

	c.elaborate(mod, parsedModule)
	mod.Sccs = BuildSccs(mod)
	for _, scc := range mod.Sccs {
		if scc.State == typed.Untouched {
			c.checkScc(mod, scc)
		}
	}

	mod.InEval = false
	return mod
}

// loadRelative resolves a module file named next to the requesting one.
func (c *compiler) loadRelative(from *typed.Module, file string, loc ast.Location) *typed.Module {
	dir := filepath.Dir(from.Filename)
	return c.processModule(filepath.Join(dir, file), from, loc)
}

// resolveModulePath walks a qualified module path. The first component is
// looked up in the current module's submodules, then in every opened
// module's, and finally loaded on demand from `<dir>/<name lowercased>.el2`.
func (c *compiler) resolveModulePath(m *typed.Module, q ast.QualifiedIdentifier, loc ast.Location) *typed.Module {
	path := q.Path()
	first := path[0]
	cur, ok := m.SubModules[first]
	if !ok {
		for _, o := range m.Opened {
			if sub, found := o.SubModules[first]; found {
				cur, ok = sub, true
				break
			}
			if o.Name == first {
				cur, ok = o, true
				break
			}
		}
	}
	if !ok {
		cur = c.loadRelative(m, strings.ToLower(string(first))+".el2", loc)
		m.SubModules[first] = cur
	}
	for _, name := range path[1:] {
		sub, found := cur.SubModules[name]
		if !found {
			panic(common.Error{
				Kind:     common.KindName,
				Location: loc,
				Message:  fmt.Sprintf("module `%s` has no submodule `%s`", cur.Name, name),
			})
		}
		cur = sub
	}
	return cur
}

// elaborate registers every top-level of the module, desugars right-hand
// sides and fills the type tables. Duplicate errors are accumulated so
// the user sees all collisions at once.
func (c *compiler) elaborate(mod *typed.Module, src *parsed.Module) {
	var errs []error
	dup := func(loc ast.Location, what string, name ast.Identifier) {
		errs = append(errs, common.Error{
			Kind:     common.KindDuplicate,
			Location: loc,
			Message:  fmt.Sprintf("%s `%s` is declared twice", what, name),
		})
	}

	registerGlob := func(loc ast.Location, v typed.TopVar) {
		name := v.GetName()
		if _, ok := mod.GlobVars[name]; ok {
			dup(loc, "global", name)
			return
		}
		mod.GlobVars[name] = v
		mod.GlobOrder = append(mod.GlobOrder, name)
	}

	uniqueName := func(loc ast.Location, name ast.Identifier) string {
		un := fmt.Sprintf("%s_%s", mod.Name, name)
		if _, ok := c.uniqueNames[un]; ok {
			// a same-module collision is already reported by registerGlob
			if _, sameModule := mod.GlobVars[name]; !sameModule {
				errs = append(errs, common.Error{
					Kind:     common.KindDuplicate,
					Location: loc,
					Message:  fmt.Sprintf("global name `%s` collides with an existing definition", un),
				})
			}
			return un
		}
		c.uniqueNames[un] = struct{}{}
		return un
	}

	for _, top := range src.Toplevels {
		switch t := top.(type) {
		case *parsed.OpenFile:
			sub := c.loadRelative(mod, t.Path, t.Location)
			mod.SubModules[sub.Name] = sub
			mod.Opened = append([]*typed.Module{sub}, mod.Opened...)
		case *parsed.Open:
			sub := c.resolveModulePath(mod, t.Module, t.Location)
			mod.Opened = append([]*typed.Module{sub}, mod.Opened...)
		case *parsed.LetType:
			c.elaborateType(mod, t, dup)
		case *parsed.Extern:
			registerGlob(t.Location, &typed.Extern{
				Location:     t.Location,
				Name:         t.Name,
				ExternalName: t.ExternalName,
				Mono:         c.monifyType(mod, nil, t.Type),
			})
		case *parsed.ImplicitExtern:
			registerGlob(t.Location, &typed.ImplicitExtern{
				Location:     t.Location,
				Name:         t.Name,
				ExternalName: t.ExternalName,
				Mono:         c.monifyType(mod, nil, t.Type),
			})
		case *parsed.LetFn:
			params := make([]typed.Param, len(t.Params))
			locals := map[ast.Identifier]struct{}{}
			for i, p := range t.Params {
				var pm typed.Mono = typed.NewIndir()
				if p.Type != nil {
					pm = c.monifyType(mod, nil, p.Type)
				}
				params[i] = typed.Param{Name: p.Name, Mono: pm}
				if _, ok := locals[p.Name]; ok {
					dup(p.Location, "parameter", p.Name)
				}
				locals[p.Name] = struct{}{}
			}
			var result typed.Mono = typed.NewIndir()
			if t.Result != nil {
				result = c.monifyType(mod, nil, t.Result)
			}
			skeleton := &typed.Func{Arg: tupleOrSingle(common.Map(func(p typed.Param) typed.Mono { return p.Mono }, params)), Result: result}
			body := Expand(t.Expr)
			el := &typed.El{
				Location:    t.Location,
				Name:        t.Name,
				UniqueName:  uniqueName(t.Location, t.Name),
				Args:        &typed.FuncArgs{Params: params},
				Expr:        body,
				Poly:        &typed.MonoP{Mono: skeleton},
				UsedGlobals: CollectGlobals(body, locals),
				Module:      mod,
			}
			registerGlob(t.Location, el)
		case *parsed.Let:
			for _, b := range BreakupPatterns(t.Pattern, Expand(t.Expr)) {
				el := &typed.El{
					Location:    t.Location,
					Name:        b.Name,
					UniqueName:  uniqueName(t.Location, b.Name),
					Args:        &typed.NonFunc{},
					Expr:        b.Value,
					Poly:        &typed.MonoP{Mono: typed.NewIndir()},
					UsedGlobals: CollectGlobals(b.Value, map[ast.Identifier]struct{}{}),
					Module:      mod,
				}
				registerGlob(t.Location, el)
			}
		}
	}

	if err := multierr.Combine(errs...); err != nil {
		panic(err)
	}
}

func (c *compiler) elaborateType(mod *typed.Module, t *parsed.LetType, dup func(ast.Location, string, ast.Identifier)) {
	if _, ok := mod.Types[t.Name]; ok {
		dup(t.Location, "type", t.Name)
		return
	}
	u := &typed.UserType{
		Location: t.Location,
		Name:     t.Name,
		ReprName: fmt.Sprintf("%s_%s", mod.Name, t.Name),
		TyVars:   t.TyVars,
	}
	for i, v := range t.TyVars {
		if common.Any(func(w ast.Identifier) bool { return w == v }, t.TyVars[:i]) {
			dup(t.Location, "type variable", v)
		}
	}
	// registered before the body is converted so fields may refer back to
	// the type being declared
	mod.Types[t.Name] = u

	tyVars := map[ast.Identifier]typed.Mono{}
	for _, v := range t.TyVars {
		tyVars[v] = typed.NewVar(v)
	}

	switch d := t.Decl.(type) {
	case *parsed.AliasDecl:
		u.Info = &typed.Alias{Mono: c.monifyType(mod, tyVars, d.Type)}
	case *parsed.StructDecl:
		fields := make([]typed.Field, 0, len(d.Fields))
		for _, f := range d.Fields {
			if _, ok := common.Find(func(x typed.Field) bool { return x.Name == f.Name }, fields); ok {
				dup(f.Location, "field", f.Name)
				continue
			}
			fields = append(fields, typed.Field{Name: f.Name, Mono: c.monifyType(mod, tyVars, f.Type)})
			if _, ok := mod.FieldToType[f.Name]; !ok {
				mod.FieldToType[f.Name] = u
			}
		}
		u.Info = &typed.StructInfo{Fields: fields}
	case *parsed.EnumDecl:
		variants := make([]typed.Variant, 0, len(d.Variants))
		for _, v := range d.Variants {
			if _, ok := common.Find(func(x typed.Variant) bool { return x.Name == v.Name }, variants); ok {
				dup(v.Location, "variant", v.Name)
				continue
			}
			var payload typed.Mono
			if v.Payload != nil {
				payload = c.monifyType(mod, tyVars, v.Payload)
			}
			variants = append(variants, typed.Variant{Name: v.Name, Payload: payload})
			if _, ok := mod.VariantToType[v.Name]; ok {
				dup(v.Location, "variant", v.Name)
			} else {
				mod.VariantToType[v.Name] = u
			}
		}
		u.Info = &typed.EnumInfo{Variants: variants}
	}
}

func tupleOrSingle(items []typed.Mono) typed.Mono {
	switch len(items) {
	case 0:
		return typed.Unit
	case 1:
		return items[0]
	}
	return &typed.Tuple{Items: items}
}

// monifyType converts a surface type expression. tyVars is the enclosing
// declaration's type-variable scope; expression-level ascriptions pass
// nil.
func (c *compiler) monifyType(m *typed.Module, tyVars map[ast.Identifier]typed.Mono, t parsed.Type) typed.Mono {
	switch x := t.(type) {
	case *parsed.TUnit:
		return typed.Unit
	case *parsed.TI64:
		return typed.I64
	case *parsed.TCInt:
		return typed.CInt
	case *parsed.TF64:
		return typed.F64
	case *parsed.TBool:
		return typed.Bool
	case *parsed.TChar:
		return typed.Char
	case *parsed.TPointer:
		return &typed.Pointer{To: c.monifyType(m, tyVars, x.To)}
	case *parsed.TTuple:
		return &typed.Tuple{Items: common.Map(func(i parsed.Type) typed.Mono { return c.monifyType(m, tyVars, i) }, x.Items)}
	case *parsed.TFunc:
		return &typed.Func{Arg: c.monifyType(m, tyVars, x.Arg), Result: c.monifyType(m, tyVars, x.Result)}
	case *parsed.TOpaque:
		return &typed.Opaque{Inner: c.monifyType(m, tyVars, x.Inner)}
	case *parsed.TNamed:
		if x.Module == "" {
			if v, ok := tyVars[x.Name]; ok {
				if len(x.Args) != 0 {
					panic(common.Error{
						Kind:     common.KindArity,
						Location: x.Location,
						Message:  fmt.Sprintf("type variable `%s` cannot take arguments", x.Name),
					})
				}
				return v
			}
		}
		u := c.lookupUserType(m, x.Module, x.Name, x.Location)
		if len(x.Args) != len(u.TyVars) {
			panic(common.Error{
				Kind:     common.KindArity,
				Location: x.Location,
				Message: fmt.Sprintf("type `%s` expects %d argument(s), got %d",
					x.Name, len(u.TyVars), len(x.Args)),
			})
		}
		args := common.Map(func(i parsed.Type) typed.Mono { return c.monifyType(m, tyVars, i) }, x.Args)
		user, _ := u.Inst(args)
		return user
	}
	panic(common.NewCompilerError(fmt.Sprintf("unknown type expression %T", t)))
}

func (c *compiler) lookupUserType(m *typed.Module, q ast.QualifiedIdentifier, name ast.Identifier, loc ast.Location) *typed.UserType {
	if q != "" {
		target := c.resolveModulePath(m, q, loc)
		if u, ok := target.Types[name]; ok {
			return u
		}
		panic(common.Error{
			Kind:     common.KindName,
			Location: loc,
			Message:  fmt.Sprintf("unknown type `%s`", ast.NewFullIdentifier(q, name)),
		})
	}
	if u, ok := m.Types[name]; ok {
		return u
	}
	for _, o := range m.Opened {
		if u, ok := o.Types[name]; ok {
			return u
		}
	}
	panic(common.Error{
		Kind:     common.KindName,
		Location: loc,
		Message:  fmt.Sprintf("unknown type `%s`", name),
	})
}

func (c *compiler) lookupVariant(m *typed.Module, q ast.QualifiedIdentifier, variant ast.Identifier, loc ast.Location) *typed.UserType {
	if q != "" {
		target := c.resolveModulePath(m, q, loc)
		if u, ok := target.VariantToType[variant]; ok {
			return u
		}
		panic(common.Error{
			Kind:     common.KindName,
			Location: loc,
			Message:  fmt.Sprintf("unknown variant `%s`", ast.NewFullIdentifier(q, variant)),
		})
	}
	if u, ok := m.VariantToType[variant]; ok {
		return u
	}
	for _, o := range m.Opened {
		if u, ok := o.VariantToType[variant]; ok {
			return u
		}
	}
	panic(common.Error{
		Kind:     common.KindName,
		Location: loc,
		Message:  fmt.Sprintf("unknown variant `%s`", variant),
	})
}

func (c *compiler) lookupFieldType(m *typed.Module, field ast.Identifier) (*typed.UserType, bool) {
	if u, ok := m.FieldToType[field]; ok {
		return u, true
	}
	for _, o := range m.Opened {
		if u, ok := o.FieldToType[field]; ok {
			return u, true
		}
	}
	return nil, false
}

func (c *compiler) lookupGlobal(m *typed.Module, q ast.QualifiedIdentifier, name ast.Identifier, loc ast.Location) typed.TopVar {
	if q != "" {
		target := c.resolveModulePath(m, q, loc)
		if v, ok := target.GlobVars[name]; ok {
			return v
		}
		panic(common.Error{
			Kind:     common.KindName,
			Location: loc,
			Message:  fmt.Sprintf("unknown variable `%s`", ast.NewFullIdentifier(q, name)),
		})
	}
	if v, ok := m.GlobVars[name]; ok {
		return v
	}
	for _, o := range m.Opened {
		if v, ok := o.GlobVars[name]; ok {
			return v
		}
	}
	panic(common.Error{
		Kind:     common.KindName,
		Location: loc,
		Message:  fmt.Sprintf("unknown variable `%s`", name),
	})
}
