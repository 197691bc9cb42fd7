package processors

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/ast/parsed"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

const (
	KwOpenFile       = "open_file"
	KwOpen           = "open"
	KwType           = "type"
	KwLet            = "let"
	KwIn             = "in"
	KwExtern         = "extern"
	KwImplicitExtern = "implicit_extern"
	KwIf             = "if"
	KwThen           = "then"
	KwElse           = "else"
	KwMatch          = "match"
	KwWith           = "with"
	KwFun            = "fun"
	KwLoop           = "loop"
	KwBreak          = "break"
	KwReturn         = "return"
	KwSizeOf         = "size_of"
	KwOpaque         = "opaque"
	KwTrue           = "true"
	KwFalse          = "false"
)

var keywords = map[string]struct{}{
	KwOpenFile: {}, KwOpen: {}, KwType: {}, KwLet: {}, KwIn: {},
	KwExtern: {}, KwImplicitExtern: {}, KwIf: {}, KwThen: {}, KwElse: {},
	KwMatch: {}, KwWith: {}, KwFun: {}, KwLoop: {}, KwBreak: {},
	KwReturn: {}, KwSizeOf: {}, KwOpaque: {}, KwTrue: {}, KwFalse: {},
}

type source struct {
	filePath string
	cursor   uint32
	text     []rune
}

// ParseWithContent parses one module file that has already been read.
func ParseWithContent(filePath string, fileContent string) (m *parsed.Module, err error) {
	defer func() {
		if x := recover(); x != nil {
			if e, ok := x.(common.Error); ok {
				err = e
				return
			}
			panic(x)
		}
	}()
	src := &source{
		filePath: filePath,
		text:     []rune(fileContent),
	}
	return parseModule(src), nil
}

func (src *source) loc(start uint32) ast.Location {
	return ast.NewLocation(src.filePath, src.text, start, src.cursor)
}

func (src *source) here() ast.Location {
	return ast.NewLocationCursor(src.filePath, src.text, src.cursor)
}

func (src *source) fail(msg string) {
	panic(common.Error{Kind: common.KindSyntax, Location: src.here(), Message: msg})
}

func (src *source) ok() bool {
	return src.cursor < uint32(len(src.text))
}

func (src *source) at(i uint32) rune {
	if src.cursor+i < uint32(len(src.text)) {
		return src.text[src.cursor+i]
	}
	return 0
}

func (src *source) skipWs() {
	for src.ok() {
		c := src.text[src.cursor]
		if unicode.IsSpace(c) {
			src.cursor++
			continue
		}
		if c == '/' && src.at(1) == '/' {
			for src.ok() && src.text[src.cursor] != '\n' {
				src.cursor++
			}
			continue
		}
		if c == '/' && src.at(1) == '*' {
			src.cursor += 2
			for src.ok() && !(src.text[src.cursor] == '*' && src.at(1) == '/') {
				src.cursor++
			}
			if !src.ok() {
				src.fail("unterminated comment")
			}
			src.cursor += 2
			continue
		}
		break
	}
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// readSeq consumes a punctuation sequence. It refuses to split a longer
// operator: readSeq("<") will not eat the "<" of "<-" or "<=" or "<>".
func (src *source) readSeq(s string) bool {
	src.skipWs()
	for i, c := range s {
		if src.at(uint32(i)) != c {
			return false
		}
	}
	last := rune(s[len(s)-1])
	next := src.at(uint32(len(s)))
	if isOperatorRune(last) && isOperatorRune(next) {
		return false
	}
	src.cursor += uint32(len(s))
	return true
}

func isOperatorRune(c rune) bool {
	return strings.ContainsRune("<>=&|+-*/%^:", c)
}

func (src *source) peekKeyword(kw string) bool {
	save := src.cursor
	if src.readKeyword(kw) {
		src.cursor = save
		return true
	}
	return false
}

func (src *source) peekSeq(s string) bool {
	save := src.cursor
	if src.readSeq(s) {
		src.cursor = save
		return true
	}
	return false
}

func (src *source) expectSeq(s string) {
	if !src.readSeq(s) {
		src.fail(fmt.Sprintf("expected `%s`", s))
	}
}

func (src *source) readKeyword(kw string) bool {
	src.skipWs()
	save := src.cursor
	for i, c := range kw {
		if src.at(uint32(i)) != c {
			return false
		}
	}
	src.cursor += uint32(len(kw))
	if src.ok() && isIdentRune(src.text[src.cursor]) {
		src.cursor = save
		return false
	}
	return true
}

func (src *source) readLowerIdent() (ast.Identifier, bool) {
	src.skipWs()
	if !src.ok() {
		return "", false
	}
	c := src.text[src.cursor]
	if !unicode.IsLower(c) {
		return "", false
	}
	save := src.cursor
	start := src.cursor
	for src.ok() && isIdentRune(src.text[src.cursor]) {
		src.cursor++
	}
	name := string(src.text[start:src.cursor])
	if _, kw := keywords[name]; kw {
		src.cursor = save
		return "", false
	}
	return ast.Identifier(name), true
}

func (src *source) readUpperIdent() (ast.Identifier, bool) {
	src.skipWs()
	if !src.ok() || !unicode.IsUpper(src.text[src.cursor]) {
		return "", false
	}
	start := src.cursor
	for src.ok() && isIdentRune(src.text[src.cursor]) {
		src.cursor++
	}
	return ast.Identifier(string(src.text[start:src.cursor])), true
}

func (src *source) expectLowerIdent(what string) ast.Identifier {
	name, ok := src.readLowerIdent()
	if !ok {
		src.fail("expected " + what)
	}
	return name
}

func parseModule(src *source) *parsed.Module {
	m := &parsed.Module{Location: src.here()}
	for {
		src.skipWs()
		if !src.ok() {
			return m
		}
		m.Toplevels = append(m.Toplevels, parseToplevel(src))
	}
}

func parseToplevel(src *source) parsed.Toplevel {
	start := src.cursor
	switch {
	case src.readKeyword(KwOpenFile):
		path, ok := src.readString()
		if !ok {
			src.fail("expected file path string after `open_file`")
		}
		return &parsed.OpenFile{Location: src.loc(start), Path: path}
	case src.readKeyword(KwOpen):
		return &parsed.Open{Location: src.loc(start), Module: parseModulePath(src)}
	case src.readKeyword(KwType):
		return parseTypeDecl(src, start)
	case src.readKeyword(KwExtern):
		return parseExtern(src, start, false)
	case src.readKeyword(KwImplicitExtern):
		return parseExtern(src, start, true)
	case src.readKeyword(KwLet):
		return parseLet(src, start)
	}
	src.fail("expected a toplevel declaration")
	return nil
}

func parseModulePath(src *source) ast.QualifiedIdentifier {
	var path []ast.Identifier
	name, ok := src.readUpperIdent()
	if !ok {
		src.fail("expected module name")
	}
	path = append(path, name)
	for src.readSeq(".") {
		name, ok := src.readUpperIdent()
		if !ok {
			src.fail("expected module name after `.`")
		}
		path = append(path, name)
	}
	return ast.NewQualifiedIdentifier(path)
}

// readModulePrefix consumes a (possibly empty) `M1.M2.` qualifier in
// front of a name.
func (src *source) readModulePrefix() ast.QualifiedIdentifier {
	var path []ast.Identifier
	for {
		save := src.cursor
		if m, ok := src.readUpperIdent(); ok && src.readSeq(".") {
			path = append(path, m)
			continue
		}
		src.cursor = save
		break
	}
	return ast.NewQualifiedIdentifier(path)
}

func parseTypeDecl(src *source, start uint32) parsed.Toplevel {
	name := src.expectLowerIdent("type name")
	var tyVars []ast.Identifier
	if src.readSeq("(") {
		for {
			tyVars = append(tyVars, src.expectLowerIdent("type variable"))
			if !src.readSeq(",") {
				break
			}
		}
		src.expectSeq(")")
	}
	src.expectSeq(":=")

	var decl parsed.TypeDecl
	switch {
	case src.peekSeq("|"):
		var variants []parsed.EnumDeclVariant
		for src.readSeq("|") {
			vstart := src.cursor
			vname, ok := src.readUpperIdent()
			if !ok {
				src.fail("expected variant name")
			}
			var payload parsed.Type
			if src.readSeq("(") {
				payload = parseType(src)
				src.expectSeq(")")
			}
			variants = append(variants, parsed.EnumDeclVariant{
				Location: src.loc(vstart),
				Name:     vname,
				Payload:  payload,
			})
		}
		decl = &parsed.EnumDecl{Variants: variants}
	case src.peekSeq("{"):
		src.expectSeq("{")
		var fields []parsed.StructDeclField
		for {
			fstart := src.cursor
			fname, ok := src.readLowerIdent()
			if !ok {
				break
			}
			src.expectSeq(":")
			fields = append(fields, parsed.StructDeclField{
				Location: src.loc(fstart),
				Name:     fname,
				Type:     parseType(src),
			})
			if !src.readSeq(";") {
				break
			}
		}
		src.expectSeq("}")
		decl = &parsed.StructDecl{Fields: fields}
	default:
		decl = &parsed.AliasDecl{Type: parseType(src)}
	}
	return &parsed.LetType{Location: src.loc(start), Name: name, TyVars: tyVars, Decl: decl}
}

func parseExtern(src *source, start uint32, implicit bool) parsed.Toplevel {
	name := src.expectLowerIdent("extern name")
	src.expectSeq(":")
	t := parseType(src)
	src.expectSeq("=")
	external, ok := src.readString()
	if !ok {
		src.fail("expected external name string")
	}
	if implicit {
		return &parsed.ImplicitExtern{Location: src.loc(start), Name: name, Type: t, ExternalName: external}
	}
	return &parsed.Extern{Location: src.loc(start), Name: name, Type: t, ExternalName: external}
}

func parseLet(src *source, start uint32) parsed.Toplevel {
	save := src.cursor
	if name, ok := src.readLowerIdent(); ok {
		if src.peekSeq("(") {
			return parseLetFn(src, start, name)
		}
		if src.readSeq("=") {
			expr := parseExpression(src)
			// `let f = fun x -> e` declares a function
			if params, body, ok := unrollLambdas(expr); ok {
				return &parsed.LetFn{
					Location: src.loc(start),
					Name:     name,
					Params:   params,
					Expr:     body,
				}
			}
			return &parsed.Let{
				Location: src.loc(start),
				Pattern:  &parsed.PVar{Location: src.loc(save), Name: name},
				Expr:     expr,
			}
		}
	}
	src.cursor = save
	pattern := parsePattern(src)
	src.expectSeq("=")
	return &parsed.Let{Location: src.loc(start), Pattern: pattern, Expr: parseExpression(src)}
}

func parseLetFn(src *source, start uint32, name ast.Identifier) parsed.Toplevel {
	src.expectSeq("(")
	var params []parsed.FnParam
	if !src.peekSeq(")") {
		for {
			pstart := src.cursor
			pname := src.expectLowerIdent("parameter name")
			var pt parsed.Type
			if src.readSeq(":") {
				pt = parseType(src)
			}
			params = append(params, parsed.FnParam{Location: src.loc(pstart), Name: pname, Type: pt})
			if !src.readSeq(",") {
				break
			}
		}
	}
	src.expectSeq(")")
	var result parsed.Type
	if src.readSeq(":") {
		result = parseType(src)
	}
	src.expectSeq("=")
	return &parsed.LetFn{
		Location: src.loc(start),
		Name:     name,
		Params:   params,
		Result:   result,
		Expr:     parseExpression(src),
	}
}

// unrollLambdas turns `fun x -> fun y -> e` into a parameter list; only
// simple variable and annotated-variable parameters qualify.
func unrollLambdas(expr parsed.Expression) ([]parsed.FnParam, parsed.Expression, bool) {
	var params []parsed.FnParam
	found := false
	for {
		l, ok := expr.(*parsed.Lambda)
		if !ok {
			return params, expr, found
		}
		switch p := l.Param.(type) {
		case *parsed.PVar:
			params = append(params, parsed.FnParam{Location: p.Location, Name: p.Name})
		case *parsed.PTyped:
			v, ok := p.Inner.(*parsed.PVar)
			if !ok {
				return nil, expr, false
			}
			params = append(params, parsed.FnParam{Location: p.Location, Name: v.Name, Type: p.Type})
		default:
			return nil, expr, false
		}
		found = true
		expr = l.Body
	}
}

// --- types ---

func parseType(src *source) parsed.Type {
	start := src.cursor
	t := parseTypePrimary(src)
	if src.readSeq("->") {
		return &parsed.TFunc{Location: src.loc(start), Arg: t, Result: parseType(src)}
	}
	return t
}

func parseTypePrimary(src *source) parsed.Type {
	start := src.cursor
	if src.readSeq("&") {
		return &parsed.TPointer{Location: src.loc(start), To: parseTypePrimary(src)}
	}
	if src.readSeq("(") {
		if src.readSeq(")") {
			return &parsed.TUnit{Location: src.loc(start)}
		}
		items := []parsed.Type{parseType(src)}
		for src.readSeq(",") {
			items = append(items, parseType(src))
		}
		src.expectSeq(")")
		if len(items) == 1 {
			return items[0]
		}
		return &parsed.TTuple{Location: src.loc(start), Items: items}
	}
	if src.readKeyword(KwOpaque) {
		src.expectSeq("(")
		inner := parseType(src)
		src.expectSeq(")")
		return &parsed.TOpaque{Location: src.loc(start), Inner: inner}
	}

	module := src.readModulePrefix()

	name, ok := src.readLowerIdent()
	if !ok {
		src.fail("expected a type")
	}
	if module == "" {
		switch name {
		case "unit":
			return &parsed.TUnit{Location: src.loc(start)}
		case "i64":
			return &parsed.TI64{Location: src.loc(start)}
		case "c_int":
			return &parsed.TCInt{Location: src.loc(start)}
		case "f64":
			return &parsed.TF64{Location: src.loc(start)}
		case "bool":
			return &parsed.TBool{Location: src.loc(start)}
		case "char":
			return &parsed.TChar{Location: src.loc(start)}
		}
	}
	var args []parsed.Type
	if src.readSeq("(") {
		for {
			args = append(args, parseType(src))
			if !src.readSeq(",") {
				break
			}
		}
		src.expectSeq(")")
	}
	return &parsed.TNamed{Location: src.loc(start), Module: module, Name: name, Args: args}
}

// --- patterns ---

func parsePattern(src *source) parsed.Pattern {
	start := src.cursor

	if src.readSeq("&") {
		return &parsed.PRef{Location: src.loc(start), Inner: parsePattern(src)}
	}

	if src.readSeq("(") {
		if src.readSeq(")") {
			return &parsed.PUnit{Location: src.loc(start)}
		}
		first := parsePattern(src)
		if src.readSeq(":") {
			t := parseType(src)
			src.expectSeq(")")
			return &parsed.PTyped{Location: src.loc(start), Inner: first, Type: t}
		}
		items := []parsed.Pattern{first}
		for src.readSeq(",") {
			items = append(items, parsePattern(src))
		}
		src.expectSeq(")")
		if len(items) == 1 {
			return first
		}
		return &parsed.PTuple{Location: src.loc(start), Items: items}
	}

	if v, ok := src.readConstValue(); ok {
		return &parsed.PConst{Location: src.loc(start), Value: v}
	}

	module := src.readModulePrefix()

	if variant, ok := src.readUpperIdent(); ok {
		var payload parsed.Pattern
		if src.readSeq("(") {
			payload = parsePattern(src)
			src.expectSeq(")")
		}
		return &parsed.PEnum{Location: src.loc(start), Module: module, Variant: variant, Payload: payload}
	}

	name, ok := src.readLowerIdent()
	if !ok {
		src.fail("expected a pattern")
	}
	if src.readSeq("{") {
		var fields []parsed.PStructField
		for {
			fstart := src.cursor
			fname, ok := src.readLowerIdent()
			if !ok {
				break
			}
			var sub parsed.Pattern
			if src.readSeq("=") {
				sub = parsePattern(src)
			}
			fields = append(fields, parsed.PStructField{Location: src.loc(fstart), Name: fname, Sub: sub})
			if !src.readSeq(";") {
				break
			}
		}
		src.expectSeq("}")
		return &parsed.PStruct{Location: src.loc(start), Module: module, Name: name, Fields: fields}
	}
	if module != "" {
		src.fail("a qualified name is not a valid pattern")
	}
	return &parsed.PVar{Location: src.loc(start), Name: name}
}

// --- literals ---

func (src *source) readString() (string, bool) {
	src.skipWs()
	if !src.ok() || src.text[src.cursor] != '"' {
		return "", false
	}
	src.cursor++
	sb := strings.Builder{}
	for src.ok() && src.text[src.cursor] != '"' {
		c := src.text[src.cursor]
		if c == '\\' {
			src.cursor++
			if !src.ok() {
				break
			}
			sb.WriteRune(unescape(src.text[src.cursor]))
		} else {
			sb.WriteRune(c)
		}
		src.cursor++
	}
	if !src.ok() {
		src.fail("unterminated string literal")
	}
	src.cursor++
	return sb.String(), true
}

func unescape(c rune) rune {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	}
	return c
}

func (src *source) readConstValue() (ast.ConstValue, bool) {
	src.skipWs()
	if src.readKeyword(KwTrue) {
		return ast.CBool{Value: true}, true
	}
	if src.readKeyword(KwFalse) {
		return ast.CBool{Value: false}, true
	}
	if !src.ok() {
		return nil, false
	}
	c := src.text[src.cursor]
	if c == '\'' {
		src.cursor++
		if !src.ok() {
			src.fail("unterminated char literal")
		}
		r := src.text[src.cursor]
		if r == '\\' {
			src.cursor++
			if !src.ok() {
				src.fail("unterminated char literal")
			}
			r = unescape(src.text[src.cursor])
		}
		src.cursor++
		if !src.ok() || src.text[src.cursor] != '\'' {
			src.fail("expected closing `'`")
		}
		src.cursor++
		return ast.CChar{Value: r}, true
	}
	if s, ok := src.readString(); ok {
		return ast.CString{Value: s}, true
	}
	neg := false
	save := src.cursor
	if c == '-' {
		neg = true
		src.cursor++
		if !src.ok() || !unicode.IsDigit(src.text[src.cursor]) {
			src.cursor = save
			return nil, false
		}
		c = src.text[src.cursor]
	}
	if !unicode.IsDigit(c) {
		return nil, false
	}
	start := src.cursor
	isFloat := false
	for src.ok() && (unicode.IsDigit(src.text[src.cursor]) || src.text[src.cursor] == '.') {
		if src.text[src.cursor] == '.' {
			if !unicode.IsDigit(src.at(1)) {
				break
			}
			isFloat = true
		}
		src.cursor++
	}
	text := string(src.text[start:src.cursor])
	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			src.fail("malformed float literal")
		}
		if neg {
			v = -v
		}
		return ast.CFloat{Value: v}, true
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		src.fail("malformed integer literal")
	}
	if neg {
		v = -v
	}
	return ast.CInt{Value: v}, true
}

// --- expressions ---

func parseExpression(src *source) parsed.Expression {
	start := src.cursor
	first := parseExprNoSeq(src)
	if !src.peekSeq(";") {
		return first
	}
	items := []parsed.Expression{first}
	for src.readSeq(";") {
		items = append(items, parseExprNoSeq(src))
	}
	return &parsed.Compound{Location: src.loc(start), Items: items}
}

func parseExprNoSeq(src *source) parsed.Expression {
	start := src.cursor

	switch {
	case src.readKeyword(KwLet):
		pattern := parsePattern(src)
		src.expectSeq("=")
		value := parseExprNoSeq(src)
		if !src.readKeyword(KwIn) {
			src.fail("expected `in`")
		}
		return &parsed.LetIn{Location: src.loc(start), Pattern: pattern, Value: value, Body: parseExprNoSeq(src)}
	case src.readKeyword(KwIf):
		cond := parseExprNoSeq(src)
		if !src.readKeyword(KwThen) {
			src.fail("expected `then`")
		}
		then := parseExprNoSeq(src)
		var els parsed.Expression
		if src.readKeyword(KwElse) {
			els = parseExprNoSeq(src)
		} else {
			els = &parsed.Const{Location: src.loc(start), Value: ast.CUnit{}}
		}
		return &parsed.If{Location: src.loc(start), Cond: cond, Then: then, Else: els}
	case src.readKeyword(KwMatch):
		subject := parseExprNoSeq(src)
		if !src.readKeyword(KwWith) {
			src.fail("expected `with`")
		}
		var cases []parsed.MatchCase
		for src.readSeq("|") {
			cstart := src.cursor
			pattern := parsePattern(src)
			src.expectSeq("->")
			cases = append(cases, parsed.MatchCase{
				Location:   src.loc(cstart),
				Pattern:    pattern,
				Expression: parseExprNoSeq(src),
			})
		}
		if len(cases) == 0 {
			src.fail("match needs at least one arm")
		}
		return &parsed.Match{Location: src.loc(start), Subject: subject, Cases: cases}
	case src.readKeyword(KwFun):
		param := parsePattern(src)
		src.expectSeq("->")
		return &parsed.Lambda{Location: src.loc(start), Param: param, Body: parseExprNoSeq(src)}
	case src.readKeyword(KwLoop):
		return &parsed.Loop{Location: src.loc(start), Body: parseExprNoSeq(src)}
	case src.readKeyword(KwBreak):
		return &parsed.Break{Location: src.loc(start), Expr: parseExprNoSeq(src)}
	case src.readKeyword(KwReturn):
		return &parsed.Return{Location: src.loc(start), Expr: parseExprNoSeq(src)}
	}

	target := parseBinOp(src, 0)
	if src.readSeq("<-") {
		return &parsed.Assign{Location: src.loc(start), Target: target, Value: parseExprNoSeq(src)}
	}
	return target
}

type opLevel struct {
	seq string
	op  parsed.BinOpKind
}

// lowest precedence first; within a level, longer operators come first so
// `<=` is not read as `<`.
var opLevels = [][]opLevel{
	{{"||", parsed.OpOr}},
	{{"&&", parsed.OpAnd}},
	{
		{"<=", parsed.OpLe}, {">=", parsed.OpGe}, {"<>", parsed.OpNe},
		{"<", parsed.OpLt}, {">", parsed.OpGt}, {"=", parsed.OpEq},
	},
	{{"+", parsed.OpAdd}, {"-", parsed.OpSub}},
	{{"*", parsed.OpMul}, {"/", parsed.OpDiv}, {"%", parsed.OpMod}},
}

func parseBinOp(src *source, level int) parsed.Expression {
	if level >= len(opLevels) {
		return parseUnary(src)
	}
	start := src.cursor
	left := parseBinOp(src, level+1)
	for {
		matched := false
		for _, o := range opLevels[level] {
			if src.readSeq(o.seq) {
				right := parseBinOp(src, level+1)
				left = &parsed.BinOp{Location: src.loc(start), Op: o.op, Left: left, Right: right}
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
	}
}

func parseUnary(src *source) parsed.Expression {
	start := src.cursor
	if src.readSeq("&") {
		return &parsed.Ref{Location: src.loc(start), Expr: parseUnary(src)}
	}
	return parsePostfix(src)
}

func parsePostfix(src *source) parsed.Expression {
	start := src.cursor
	e := parsePrimary(src)
	for {
		switch {
		case src.readSeq("("):
			var args []parsed.Expression
			if !src.peekSeq(")") {
				for {
					args = append(args, parseExprNoSeq(src))
					if !src.readSeq(",") {
						break
					}
				}
			}
			src.expectSeq(")")
			e = &parsed.Apply{Location: src.loc(start), Func: e, Args: args}
		case src.readSeq("^"):
			e = &parsed.Deref{Location: src.loc(start), Expr: e}
		case src.readSeq("."):
			src.skipWs()
			if src.ok() && unicode.IsDigit(src.text[src.cursor]) {
				dstart := src.cursor
				for src.ok() && unicode.IsDigit(src.text[src.cursor]) {
					src.cursor++
				}
				idx, err := strconv.Atoi(string(src.text[dstart:src.cursor]))
				if err != nil {
					src.fail("malformed tuple index")
				}
				e = &parsed.TupleAccess{Location: src.loc(start), Expr: e, Index: idx}
			} else {
				field, ok := src.readLowerIdent()
				if !ok {
					src.fail("expected field name after `.`")
				}
				e = &parsed.FieldAccess{Location: src.loc(start), Expr: e, Field: field}
			}
		default:
			return e
		}
	}
}

func parsePrimary(src *source) parsed.Expression {
	src.skipWs()
	start := src.cursor

	if src.readKeyword(KwSizeOf) {
		src.expectSeq("(")
		t := parseType(src)
		src.expectSeq(")")
		return &parsed.SizeOf{Location: src.loc(start), Type: t}
	}

	if v, ok := src.readConstValue(); ok {
		return &parsed.Const{Location: src.loc(start), Value: v}
	}

	if src.readSeq("(") {
		if src.readSeq(")") {
			return &parsed.Const{Location: src.loc(start), Value: ast.CUnit{}}
		}
		first := parseExpression(src)
		if src.readSeq(":") {
			t := parseType(src)
			src.expectSeq(")")
			return &parsed.Typed{Location: src.loc(start), Expr: first, Type: t}
		}
		items := []parsed.Expression{first}
		for src.readSeq(",") {
			items = append(items, parseExprNoSeq(src))
		}
		src.expectSeq(")")
		if len(items) == 1 {
			return first
		}
		return &parsed.Tuple{Location: src.loc(start), Items: items}
	}

	// keyword expressions are also allowed in operand position, e.g.
	// `1 + if c then 2 else 3`
	if src.peekKeyword(KwIf) || src.peekKeyword(KwMatch) || src.peekKeyword(KwLet) || src.peekKeyword(KwFun) {
		return parseExprNoSeq(src)
	}

	module := src.readModulePrefix()

	if variant, ok := src.readUpperIdent(); ok {
		var payload parsed.Expression
		if src.readSeq("(") {
			payload = parseExprNoSeq(src)
			src.expectSeq(")")
		}
		return &parsed.EnumLit{Location: src.loc(start), Module: module, Variant: variant, Payload: payload}
	}

	if name, ok := src.readLowerIdent(); ok {
		if src.readSeq("{") {
			var fields []parsed.FieldInit
			for {
				fstart := src.cursor
				fname, ok := src.readLowerIdent()
				if !ok {
					break
				}
				src.expectSeq("=")
				fields = append(fields, parsed.FieldInit{
					Location: src.loc(fstart),
					Name:     fname,
					Value:    parseExprNoSeq(src),
				})
				if !src.readSeq(";") {
					break
				}
			}
			src.expectSeq("}")
			return &parsed.StructLit{Location: src.loc(start), Module: module, Name: name, Fields: fields}
		}
		return &parsed.Var{Location: src.loc(start), Module: module, Name: name}
	}

	src.fail("expected an expression")
	return nil
}
