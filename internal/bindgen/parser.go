package bindgen

import (
	"fmt"
	"go/constant"
	"go/token"
	"strings"
)

type tokKind int

const (
	tokIdent tokKind = iota + 1
	tokNumber
	tokString
	tokChar
	tokPunct
)

type ctoken struct {
	kind tokKind
	text string
}

var multiPuncts = []string{"...", "<<", ">>", "&&", "||", "==", "!=", "<=", ">=", "->"}

var builtinWords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true, "_Bool": true,
}

var skippedWords = map[string]bool{
	"static": true, "extern": true, "inline": true, "__inline": true, "__inline__": true,
	"register": true, "volatile": true, "__extension__": true, "restrict": true,
	"__restrict": true, "__cdecl": true, "__stdcall": true,
}

// tokenize splits preprocessed C text. Identifiers listed in drop, such as
// empty export macros, are removed.
func tokenize(src string, drop map[string]bool) ([]ctoken, error) {
	var toks []ctoken

	for i := 0; i < len(src); {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++

		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}

			if word := src[i:j]; !drop[word] {
				toks = append(toks, ctoken{kind: tokIdent, text: word})
			}

			i = j

		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (isIdentPart(src[j]) || src[j] == '.') {
				j++
			}

			toks = append(toks, ctoken{kind: tokNumber, text: src[i:j]})
			i = j

		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				if src[j] == '\\' {
					j++
				}

				j++
			}

			if j >= len(src) {
				return nil, fmt.Errorf("unterminated literal")
			}

			kind := tokString
			if c == '\'' {
				kind = tokChar
			}

			toks = append(toks, ctoken{kind: kind, text: src[i : j+1]})
			i = j + 1

		default:
			text := string(c)

			for _, p := range multiPuncts {
				if strings.HasPrefix(src[i:], p) {
					text = p
					break
				}
			}

			toks = append(toks, ctoken{kind: tokPunct, text: text})
			i += len(text)
		}
	}

	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// declParser builds a Header from the token stream.
type declParser struct {
	toks   []ctoken
	pos    int
	h      *Header
	macros func(name string) (constant.Value, bool)
	anon   int
}

// specifier is the type part of a declaration.
type specifier struct {
	name    string
	isConst bool
	// record or enum defined inline without a tag
	record *Record
	enum   *Enum
	// tag of a struct, union or enum reference
	tag string
}

// named reports whether the base type has been read.
func (s *specifier) named() bool {
	return s.name != "" || s.record != nil || s.enum != nil
}

type declarator struct {
	name     string
	pointer  int
	arrays   []int
	funcPtr  bool
	isFunc   bool
	params   []Param
	variadic bool
}

func (p *declParser) peek() ctoken {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}

	return ctoken{}
}

func (p *declParser) peekAt(n int) ctoken {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}

	return ctoken{}
}

func (p *declParser) next() ctoken {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}

	return t
}

func (p *declParser) is(text string) bool {
	t := p.peek()
	return t.kind != tokString && t.kind != tokChar && t.text == text
}

func (p *declParser) accept(text string) bool {
	if p.is(text) {
		p.pos++
		return true
	}

	return false
}

func (p *declParser) expect(text string) error {
	if !p.accept(text) {
		return p.errorf("expected %q, found %q", text, p.peek().text)
	}

	return nil
}

func (p *declParser) eof() bool {
	return p.pos >= len(p.toks)
}

func (p *declParser) errorf(format string, args ...any) error {
	// show a little context to locate the declaration
	start := max(p.pos-6, 0)
	end := min(p.pos+6, len(p.toks))

	words := make([]string, 0, end-start)
	for _, t := range p.toks[start:end] {
		words = append(words, t.text)
	}

	return fmt.Errorf("%s near %q", fmt.Sprintf(format, args...), strings.Join(words, " "))
}

// parseHeader consumes every top level declaration.
func (p *declParser) parseHeader() error {
	for !p.eof() {
		switch {
		case p.accept(";"), p.accept("}"):
			// stray braces close extern "C" blocks
		case p.is("extern") && p.peekAt(1).kind == tokString:
			p.pos += 2
			p.accept("{")
		case p.accept("typedef"):
			if err := p.parseTypedef(); err != nil {
				return err
			}
		default:
			if err := p.parseDeclaration(); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *declParser) parseTypedef() error {
	spec, err := p.parseSpecifier("")
	if err != nil {
		return err
	}

	for {
		d, err := p.parseDeclarator(false)
		if err != nil {
			return err
		}

		if d.name == "" {
			return p.errorf("typedef without a name")
		}

		p.typedef(spec, d)

		if !p.accept(",") {
			break
		}
	}

	return p.expect(";")
}

func (p *declParser) typedef(spec specifier, d declarator) {
	plain := d.pointer == 0 && len(d.arrays) == 0 && !d.funcPtr && !d.isFunc

	switch {
	case spec.record != nil && plain:
		spec.record.Name = d.name
		p.h.addRecord(spec.record)

		return

	case spec.enum != nil && plain:
		spec.enum.Name = d.name
		p.defineEnum(spec.enum)

		return

	case spec.tag != "" && plain && spec.tag == d.name:
		return
	}

	if spec.record != nil {
		spec.record.Name = p.anonName(d.name)
		p.h.addRecord(spec.record)
		spec.name = spec.record.Name
	}

	if spec.enum != nil {
		spec.enum.Name = p.anonName(d.name)
		p.defineEnum(spec.enum)
		spec.name = spec.enum.Name
	}

	target := p.makeType(spec, d)
	if d.isFunc {
		target = CType{FuncPtr: true}
	}

	p.h.addTypeDef(&TypeDef{Name: d.name, Target: target})
}

func (p *declParser) parseDeclaration() error {
	spec, err := p.parseSpecifier("")
	if err != nil {
		return err
	}

	if p.accept(";") {
		// struct or enum definition without declarators
		if spec.record != nil {
			spec.record.Name = p.anonName("")
			p.h.addRecord(spec.record)
		}

		if spec.enum != nil {
			p.defineAnonymousEnum(spec.enum)
		}

		return nil
	}

	for {
		d, err := p.parseDeclarator(false)
		if err != nil {
			return err
		}

		if d.isFunc {
			p.h.addFunction(&Function{
				Name:     d.name,
				Return:   p.makeType(spec, declarator{pointer: d.pointer}),
				Params:   d.params,
				Variadic: d.variadic,
			})
		}

		// global variables are not bound

		if p.accept("{") {
			return p.errorf("function bodies are not supported")
		}

		if !p.accept(",") {
			break
		}
	}

	return p.expect(";")
}

// parseSpecifier reads qualifiers and the base type. parent names inline
// records found inside another record.
func (p *declParser) parseSpecifier(parent string) (specifier, error) {
	var (
		spec  specifier
		words []string
	)

	for !p.eof() {
		t := p.peek()
		if t.kind != tokIdent {
			break
		}

		switch {
		case t.text == "const":
			spec.isConst = true
			p.pos++

		case skippedWords[t.text]:
			p.pos++

		case t.text == "__attribute__" || t.text == "__declspec":
			p.pos++
			if err := p.skipBalanced(); err != nil {
				return spec, err
			}

		case t.text == "struct" || t.text == "union":
			if spec.named() || len(words) > 0 {
				return spec, p.errorf("unexpected %s", t.text)
			}

			p.pos++

			if err := p.parseRecordSpecifier(&spec, t.text == "union", parent); err != nil {
				return spec, err
			}

		case t.text == "enum":
			if spec.named() || len(words) > 0 {
				return spec, p.errorf("unexpected enum")
			}

			p.pos++

			if err := p.parseEnumSpecifier(&spec); err != nil {
				return spec, err
			}

		case builtinWords[t.text]:
			if spec.named() {
				return spec, p.errorf("unexpected %s", t.text)
			}

			words = append(words, t.text)
			p.pos++

		default:
			if spec.named() || len(words) > 0 {
				return spec, finishSpecifier(&spec, words)
			}

			spec.name = t.text
			p.pos++
		}
	}

	if !spec.named() && len(words) == 0 {
		return spec, p.errorf("missing type")
	}

	return spec, finishSpecifier(&spec, words)
}

func finishSpecifier(spec *specifier, words []string) error {
	if len(words) == 0 {
		return nil
	}

	spec.name = canonicalBuiltin(words)

	return nil
}

func (p *declParser) parseRecordSpecifier(spec *specifier, union bool, parent string) error {
	tag := ""
	if p.peek().kind == tokIdent {
		tag = p.next().text
	}

	if !p.accept("{") {
		if tag == "" {
			return p.errorf("anonymous record without a body")
		}

		spec.name = tag
		spec.tag = tag

		// forward reference, completed if a definition follows
		if !p.h.isTypeName(tag) {
			p.h.addRecord(&Record{Name: tag, IsUnion: union, Opaque: true})
		}

		return nil
	}

	r := &Record{Name: tag, IsUnion: union}

	owner := tag
	if owner == "" {
		owner = parent
	}

	for !p.accept("}") {
		if p.eof() {
			return p.errorf("unterminated record")
		}

		if err := p.parseFieldDeclaration(r, owner); err != nil {
			return err
		}
	}

	if tag != "" {
		p.h.addRecord(r)
		spec.name = tag
		spec.tag = tag

		return nil
	}

	spec.record = r

	return nil
}

func (p *declParser) parseFieldDeclaration(r *Record, owner string) error {
	spec, err := p.parseSpecifier(owner)
	if err != nil {
		return err
	}

	if p.accept(";") {
		// anonymous member, reachable through a synthetic field
		name := fmt.Sprintf("anon%d", len(r.Fields))
		if spec.record == nil {
			return p.errorf("declaration does not declare anything")
		}

		spec.record.Name = liftedName(owner, name)
		p.h.addRecord(spec.record)
		r.Fields = append(r.Fields, Field{Name: name, Type: CType{Name: spec.record.Name}})

		return nil
	}

	for {
		d, err := p.parseDeclarator(false)
		if err != nil {
			return err
		}

		if p.is(":") {
			return p.errorf("bit-field %s is not supported", d.name)
		}

		if spec.record != nil {
			spec.record.Name = liftedName(owner, d.name)
			p.h.addRecord(spec.record)
			spec.name = spec.record.Name
			spec.record = nil
		}

		if spec.enum != nil {
			spec.enum.Name = liftedName(owner, d.name)
			p.defineEnum(spec.enum)
			spec.name = spec.enum.Name
			spec.enum = nil
		}

		r.Fields = append(r.Fields, Field{Name: d.name, Type: p.makeType(spec, d)})

		if !p.accept(",") {
			break
		}
	}

	return p.expect(";")
}

func liftedName(owner, field string) string {
	if owner == "" {
		return field
	}

	return owner + "_" + field
}

func (p *declParser) parseEnumSpecifier(spec *specifier) error {
	tag := ""
	if p.peek().kind == tokIdent {
		tag = p.next().text
	}

	if !p.accept("{") {
		if tag == "" {
			return p.errorf("anonymous enum without a body")
		}

		spec.name = tag
		spec.tag = tag

		return nil
	}

	e := &Enum{Name: tag}
	next := constant.MakeInt64(0)

	for !p.accept("}") {
		if p.eof() {
			return p.errorf("unterminated enum")
		}

		t := p.next()
		if t.kind != tokIdent {
			return p.errorf("expected enumerator, found %q", t.text)
		}

		value := next

		if p.accept("=") {
			expr := p.collectUntil(",", "}")

			v, err := evalExpr(expr, p.lookupConst(e))
			if err != nil {
				return fmt.Errorf("enumerator %s: %w", t.text, err)
			}

			value = asInt(v)
		}

		e.Values = append(e.Values, EnumValue{Name: t.text, Value: value})
		next = constant.BinaryOp(value, token.ADD, constant.MakeInt64(1))

		p.accept(",")
	}

	if tag != "" {
		p.defineEnum(e)
		spec.name = tag
		spec.tag = tag

		return nil
	}

	spec.enum = e

	return nil
}

func (p *declParser) defineEnum(e *Enum) {
	for _, v := range e.Values {
		p.h.enumerators[v.Name] = v.Value
	}

	p.h.addEnum(e)
}

// defineAnonymousEnum turns the enumerators into plain constants.
func (p *declParser) defineAnonymousEnum(e *Enum) {
	for _, v := range e.Values {
		p.h.enumerators[v.Name] = v.Value
		p.h.addMacro(&Macro{Name: v.Name, Value: v.Value, Body: v.Value.ExactString()})
	}
}

func (p *declParser) lookupConst(current *Enum) lookupFunc {
	return func(name string) (constant.Value, bool) {
		for _, v := range current.Values {
			if v.Name == name {
				return v.Value, true
			}
		}

		if v, ok := p.h.enumerators[name]; ok {
			return v, true
		}

		if p.macros != nil {
			return p.macros(name)
		}

		return nil, false
	}
}

// collectUntil joins tokens up to one of the stop tokens at nesting depth
// zero, leaving the stop token unread.
func (p *declParser) collectUntil(stops ...string) string {
	var words []string

	depth := 0

	for !p.eof() {
		t := p.peek()

		if depth == 0 && t.kind == tokPunct && contains(stops, t.text) {
			break
		}

		switch t.text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		}

		words = append(words, t.text)
		p.pos++
	}

	return strings.Join(words, " ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

// parseDeclarator reads pointers, the name, array sizes and parameter
// lists. Abstract declarators (no name) are accepted in parameters.
func (p *declParser) parseDeclarator(abstract bool) (declarator, error) {
	var d declarator

	for {
		if p.accept("*") {
			d.pointer++
			continue
		}

		if t := p.peek(); t.kind == tokIdent && (t.text == "const" || skippedWords[t.text]) {
			p.pos++
			continue
		}

		break
	}

	if p.is("(") && p.peekAt(1).text == "*" {
		p.pos += 2

		for p.accept("*") {
		}

		if p.peek().kind == tokIdent {
			d.name = p.next().text
		}

		for p.is("[") {
			if err := p.parseArray(&d); err != nil {
				return d, err
			}
		}

		if err := p.expect(")"); err != nil {
			return d, err
		}

		if !p.is("(") {
			return d, p.errorf("expected parameter list")
		}

		if err := p.skipBalanced(); err != nil {
			return d, err
		}

		d.funcPtr = true

		return d, nil
	}

	if p.peek().kind == tokIdent {
		d.name = p.next().text
	} else if !abstract {
		return d, p.errorf("expected identifier, found %q", p.peek().text)
	}

	for p.is("[") {
		if err := p.parseArray(&d); err != nil {
			return d, err
		}
	}

	if p.accept("(") {
		params, variadic, err := p.parseParams()
		if err != nil {
			return d, err
		}

		d.isFunc = true
		d.params = params
		d.variadic = variadic
	}

	for p.is("__attribute__") || p.is("__asm__") {
		p.pos++

		if err := p.skipBalanced(); err != nil {
			return d, err
		}
	}

	return d, nil
}

func (p *declParser) parseArray(d *declarator) error {
	if err := p.expect("["); err != nil {
		return err
	}

	expr := p.collectUntil("]")
	if err := p.expect("]"); err != nil {
		return err
	}

	if strings.TrimSpace(expr) == "" {
		d.arrays = append(d.arrays, 0)
		return nil
	}

	v, err := evalExpr(expr, p.lookupConst(&Enum{}))
	if err != nil {
		return fmt.Errorf("array size: %w", err)
	}

	n, ok := constant.Int64Val(asInt(v))
	if !ok || n < 0 {
		return fmt.Errorf("array size %s is out of range", v)
	}

	d.arrays = append(d.arrays, int(n))

	return nil
}

func (p *declParser) parseParams() ([]Param, bool, error) {
	if p.is("void") && p.peekAt(1).text == ")" {
		p.pos += 2
		return nil, false, nil
	}

	var (
		params   []Param
		variadic bool
	)

	for !p.accept(")") {
		if p.eof() {
			return nil, false, p.errorf("unterminated parameter list")
		}

		if p.accept("...") {
			variadic = true
			continue
		}

		spec, err := p.parseSpecifier("")
		if err != nil {
			return nil, false, err
		}

		d, err := p.parseDeclarator(true)
		if err != nil {
			return nil, false, err
		}

		t := p.makeType(spec, d)

		// arrays and functions decay to pointers in parameter lists
		if len(t.ArrayLen) > 0 {
			t.Pointer += len(t.ArrayLen)
			t.ArrayLen = nil
		}

		if d.isFunc {
			t = CType{FuncPtr: true}
		}

		params = append(params, Param{Name: d.name, Type: t})

		if !p.accept(",") && !p.is(")") {
			return nil, false, p.errorf("expected , or )")
		}
	}

	return params, variadic, nil
}

func (p *declParser) makeType(spec specifier, d declarator) CType {
	return CType{
		Name:     spec.name,
		Pointer:  d.pointer,
		IsConst:  spec.isConst,
		ArrayLen: d.arrays,
		FuncPtr:  d.funcPtr,
	}
}

func (p *declParser) skipBalanced() error {
	if err := p.expect("("); err != nil {
		return err
	}

	for depth := 1; depth > 0; {
		if p.eof() {
			return p.errorf("unbalanced parentheses")
		}

		switch p.next().text {
		case "(":
			depth++
		case ")":
			depth--
		}
	}

	return nil
}

func (p *declParser) anonName(hint string) string {
	if hint != "" {
		return hint + "_t"
	}

	p.anon++

	return fmt.Sprintf("anon%d", p.anon)
}

// canonicalBuiltin folds a list of builtin type keywords into the single
// spelling used by the type tables, e.g. "long unsigned int" becomes
// "unsigned long".
func canonicalBuiltin(words []string) string {
	counts := make(map[string]int)
	for _, w := range words {
		counts[w]++
	}

	prefix := ""
	if counts["unsigned"] > 0 {
		prefix = "unsigned "
	}

	switch {
	case counts["void"] > 0:
		return "void"
	case counts["_Bool"] > 0:
		return "bool"
	case counts["float"] > 0:
		return "float"
	case counts["double"] > 0:
		if counts["long"] > 0 {
			return "long double"
		}

		return "double"
	case counts["char"] > 0:
		switch {
		case counts["unsigned"] > 0:
			return "unsigned char"
		case counts["signed"] > 0:
			return "signed char"
		default:
			return "char"
		}
	case counts["short"] > 0:
		return prefix + "short"
	case counts["long"] >= 2:
		return prefix + "long long"
	case counts["long"] == 1:
		return prefix + "long"
	default:
		return prefix + "int"
	}
}

// parseSource preprocesses and parses the configured headers.
func parseSource(opts Options) (*Header, error) {
	pp := newPreprocessor(opts.IncludeDirs)

	for _, path := range opts.Headers {
		if err := pp.includeFile(path); err != nil {
			return nil, err
		}
	}

	for _, inline := range opts.HeaderContents {
		if err := pp.includeContents(inline.Name, inline.Contents); err != nil {
			return nil, err
		}
	}

	toks, err := tokenize(pp.out.String(), pp.emptyMacros())
	if err != nil {
		return nil, err
	}

	p := &declParser{
		toks: toks,
		h:    newHeader(),
		macros: func(name string) (constant.Value, bool) {
			return pp.value(name, nil)
		},
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	for _, name := range pp.order {
		def, ok := pp.macros[name]
		if !ok || def.body == "" {
			continue
		}

		m := &Macro{Name: name, Body: def.body}
		if v, ok := pp.value(name, nil); ok {
			m.Value = v
		} else if v, ok := p.h.enumerators[def.body]; ok {
			m.Value = v
		}

		p.h.addMacro(m)
	}

	return p.h, nil
}
