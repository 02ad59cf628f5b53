package bindgen

import (
	"bytes"
	"fmt"
	"go/constant"
	"go/format"
	"go/token"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const generatedHeader = "// Code generated by odpic-bindgen. DO NOT EDIT.\n"

const ffiImport = "github.com/jupiterrider/ffi"

var reservedParams = map[string]bool{
	"ffi": true, "unsafe": true, "fmt": true, "rvalue": true, "err": true, "lib": true,
}

// emitter renders a selection as Go source.
type emitter struct {
	opts      Options
	h         *Header
	sel       *selection
	r         *resolver
	bitfields map[string]bool

	body    bytes.Buffer
	imports map[string]bool
	out     *Bindings
}

func newEmitter(opts Options, h *Header, sel *selection) *emitter {
	qualifier := ""
	if opts.TypesPackage != nil {
		qualifier = opts.TypesPackage.Name + "."
	}

	bitfields := make(map[string]bool, len(opts.BitfieldEnums))
	for _, name := range opts.BitfieldEnums {
		bitfields[name] = true
	}

	return &emitter{
		opts:      opts,
		h:         h,
		sel:       sel,
		r:         newResolver(h, qualifier),
		bitfields: bitfields,
		imports:   make(map[string]bool),
		out:       &Bindings{Skipped: sel.skipped},
	}
}

func (e *emitter) printf(format string, args ...any) {
	fmt.Fprintf(&e.body, format, args...)
}

func (e *emitter) use(path string) {
	e.imports[path] = true
}

// name asks the callbacks for a replacement Go identifier.
func (e *emitter) name(kind ItemKind, cname, fallback string) string {
	if e.opts.Callbacks == nil {
		return fallback
	}

	if n := e.opts.Callbacks.ItemName(ItemInfo{Name: cname, Kind: kind}); n != "" {
		return n
	}

	return fallback
}

func (e *emitter) emit() ([]byte, error) {
	// names first so type references see the final identifiers
	for _, d := range e.sel.decls {
		switch d.Kind {
		case DeclRecord, DeclTypeDef, DeclEnum:
			if n := e.name(ItemType, d.Name, ""); n != "" {
				e.r.renamed[d.Name] = n
			}
		}
	}

	var funcs []*Function

	for _, d := range e.sel.decls {
		var err error

		switch d.Kind {
		case DeclMacro:
			err = e.emitMacro(e.h.Macros[d.Name])
		case DeclRecord:
			err = e.emitRecord(e.h.Records[d.Name])
		case DeclTypeDef:
			err = e.emitTypeDef(e.h.TypeDefs[d.Name])
		case DeclEnum:
			err = e.emitEnum(e.h.Enums[d.Name])
		case DeclFunction:
			funcs = append(funcs, e.h.Functions[d.Name])
		}

		if err != nil {
			return nil, err
		}
	}

	if err := e.emitFunctions(funcs); err != nil {
		return nil, err
	}

	return e.assemble()
}

func (e *emitter) emitMacro(m *Macro) error {
	goName := e.name(ItemVar, m.Name, exportName(m.Name))

	if m.Value.Kind() == constant.String {
		e.printf("const %s = %s\n", goName, strconv.Quote(constant.StringVal(m.Value)))
		e.out.Constants = append(e.out.Constants, m.Name)

		return nil
	}

	v := asInt(m.Value)
	if v.Kind() != constant.Int {
		return fmt.Errorf("macro %s: unsupported constant %s", m.Name, v)
	}

	kind, err := e.macroKind(m.Name, v)
	if err != nil {
		return err
	}

	e.printf("const %s %s = %s\n", goName, kind.GoType(), v.ExactString())
	e.out.Constants = append(e.out.Constants, m.Name)

	return nil
}

func (e *emitter) macroKind(name string, v constant.Value) (IntKind, error) {
	fallback, err := defaultIntKind(v)
	if err != nil {
		return 0, fmt.Errorf("macro %s: %w", name, err)
	}

	if e.opts.Callbacks == nil {
		return fallback, nil
	}

	n, exact := constant.Int64Val(v)
	if !exact {
		return fallback, nil
	}

	kind, ok := e.opts.Callbacks.IntMacro(name, n)
	if !ok {
		return fallback, nil
	}

	if !fits(v, kind) {
		e.out.Skipped = append(e.out.Skipped,
			fmt.Sprintf("macro %s: %s does not fit %s, using %s", name, v, kind.GoType(), fallback.GoType()))

		return fallback, nil
	}

	return kind, nil
}

// defaultIntKind is the width used when no callback decides: non-negative
// values take uint32 when they fit, negative ones int32.
func defaultIntKind(v constant.Value) (IntKind, error) {
	for _, k := range []IntKind{IntU32, IntI32, IntU64, IntI64} {
		if fits(v, k) {
			return k, nil
		}
	}

	return 0, fmt.Errorf("value %s does not fit 64 bits", v)
}

func fits(v constant.Value, k IntKind) bool {
	var lo, hi constant.Value

	switch k {
	case IntI8:
		lo, hi = constant.MakeInt64(math.MinInt8), constant.MakeInt64(math.MaxInt8)
	case IntU8:
		lo, hi = constant.MakeInt64(0), constant.MakeUint64(math.MaxUint8)
	case IntI16:
		lo, hi = constant.MakeInt64(math.MinInt16), constant.MakeInt64(math.MaxInt16)
	case IntU16:
		lo, hi = constant.MakeInt64(0), constant.MakeUint64(math.MaxUint16)
	case IntI32:
		lo, hi = constant.MakeInt64(math.MinInt32), constant.MakeInt64(math.MaxInt32)
	case IntU32:
		lo, hi = constant.MakeInt64(0), constant.MakeUint64(math.MaxUint32)
	case IntI64:
		lo, hi = constant.MakeInt64(math.MinInt64), constant.MakeInt64(math.MaxInt64)
	case IntU64:
		lo, hi = constant.MakeInt64(0), constant.MakeUint64(math.MaxUint64)
	default:
		return false
	}

	return constant.Compare(v, token.GEQ, lo) && constant.Compare(v, token.LEQ, hi)
}

func (e *emitter) emitRecord(rec *Record) error {
	goName := e.r.localName(rec.Name)
	e.out.Types = append(e.out.Types, rec.Name)

	if rec.Opaque {
		e.printf("type %s struct{}\n", goName)
		return nil
	}

	if rec.IsUnion {
		return e.emitUnion(rec, goName)
	}

	e.printf("type %s struct {\n", goName)

	var elems []string

	for _, f := range rec.Fields {
		goType, err := e.r.goType(f.Type)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", rec.Name, f.Name, err)
		}

		e.noteType(goType)
		e.printf("\t%s %s\n", exportName(f.Name), goType)

		desc, err := e.fieldDescriptors(f.Type)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", rec.Name, f.Name, err)
		}

		elems = append(elems, desc...)
	}

	e.printf("}\n\n")
	e.emitDescriptor(goName, elems)

	return nil
}

// fieldDescriptors expands arrays into repeated element descriptors, the
// way libffi expects fixed arrays inside structs.
func (e *emitter) fieldDescriptors(t CType) ([]string, error) {
	elem := t
	elem.ArrayLen = nil

	desc, err := e.r.ffiType(elem)
	if err != nil {
		return nil, err
	}

	n := 1
	for _, dim := range t.ArrayLen {
		n *= dim
	}

	out := make([]string, n)
	for i := range out {
		out[i] = desc
	}

	return out, nil
}

func (e *emitter) emitDescriptor(goName string, elems []string) {
	e.use(ffiImport)

	name := "FFIType" + goName
	if len(elems) == 0 {
		e.printf("var %s = ffi.NewType()\n\n", name)
		return
	}

	e.printf("var %s = ffi.NewType(\n", name)

	for _, el := range elems {
		e.printf("\t%s,\n", el)
	}

	e.printf(")\n\n")
}

// emitUnion renders a union as storage with the union's size and
// alignment plus one accessor per member.
func (e *emitter) emitUnion(rec *Record, goName string) error {
	size, align, err := e.r.recordLayout(rec)
	if err != nil {
		return err
	}

	word, wordFFI := unionWord(align)
	words := size / align

	e.printf("type %s struct {\n\traw [%d]%s\n}\n\n", goName, words, word)

	for _, f := range rec.Fields {
		goType, err := e.r.goType(f.Type)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", rec.Name, f.Name, err)
		}

		e.noteType(goType)
		e.use("unsafe")
		e.printf("func (u *%s) %s() *%s {\n\treturn (*%s)(unsafe.Pointer(u))\n}\n\n",
			goName, exportName(f.Name), goType, goType)
	}

	elems := make([]string, words)
	for i := range elems {
		elems[i] = "&" + wordFFI
	}

	e.emitDescriptor(goName, elems)

	return nil
}

func unionWord(align int) (string, string) {
	switch align {
	case 1:
		return "uint8", "ffi.TypeUint8"
	case 2:
		return "uint16", "ffi.TypeUint16"
	case 4:
		return "uint32", "ffi.TypeUint32"
	default:
		return "uint64", "ffi.TypeUint64"
	}
}

func (e *emitter) emitTypeDef(td *TypeDef) error {
	goName := e.r.localName(td.Name)
	e.out.Types = append(e.out.Types, td.Name)

	goType, err := e.r.goType(td.Target)
	if err != nil {
		return fmt.Errorf("typedef %s: %w", td.Name, err)
	}

	e.noteType(goType)

	if !e.bitfields[td.Name] {
		e.printf("type %s = %s\n", goName, goType)
		return nil
	}

	switch s, ok := e.r.smallInt(td.Target); {
	case ok:
		goType = s.goType
	case !isWideInt(td.Target):
		return fmt.Errorf("bitfield type %s is not an integer", td.Name)
	}

	e.emitBitfield(goName, goType)

	return nil
}

func isWideInt(t CType) bool {
	s, ok := scalars[t.Name]
	return ok && s.integer && t.Pointer == 0 && len(t.ArrayLen) == 0 && !t.FuncPtr
}

func (e *emitter) emitBitfield(goName, goType string) {
	e.printf("type %s %s\n\n", goName, goType)
	e.printf("func (f %s) Has(flag %s) bool {\n\treturn f&flag == flag\n}\n\n", goName, goName)
	e.printf("func (f *%s) Set(flag %s) {\n\t*f |= flag\n}\n\n", goName, goName)
	e.printf("func (f *%s) Clear(flag %s) {\n\t*f &^= flag\n}\n\n", goName, goName)
}

func (e *emitter) emitEnum(en *Enum) error {
	goName := e.r.localName(en.Name)
	e.out.Types = append(e.out.Types, en.Name)

	base := "uint32"
	if en.Signed() {
		base = "int32"
	}

	if e.bitfields[en.Name] {
		e.emitBitfield(goName, base)
	} else {
		e.printf("type %s = %s\n", goName, base)
	}

	for _, v := range en.Values {
		if !fits(v.Value, IntI32) && !fits(v.Value, IntU32) {
			return fmt.Errorf("enumerator %s: %s does not fit 32 bits", v.Name, v.Value)
		}

		e.printf("const %s %s = %s\n", e.name(ItemVar, v.Name, exportName(v.Name)), goName, v.Value.ExactString())
		e.out.Constants = append(e.out.Constants, v.Name)
	}

	return nil
}

// noteType records imports needed by a rendered Go type.
func (e *emitter) noteType(goType string) {
	if strings.Contains(goType, "unsafe.") {
		e.use("unsafe")
	}

	if e.opts.TypesPackage != nil && strings.Contains(goType, e.r.qualifier) {
		e.use(e.opts.TypesPackage.Path)
	}
}

func (e *emitter) noteFFI(desc string) {
	if e.opts.TypesPackage != nil && strings.HasPrefix(desc, "&"+e.r.qualifier) {
		e.use(e.opts.TypesPackage.Path)
	}
}

// wrapper is a function ready to be emitted.
type wrapper struct {
	fn      *Function
	goName  string
	funcVar string
	params  []string
	types   []string
	retType string
	prep    []string
	small   *scalar
}

func (e *emitter) emitFunctions(funcs []*Function) error {
	if len(funcs) == 0 {
		return nil
	}

	wrappers := make([]wrapper, 0, len(funcs))

	for _, fn := range funcs {
		w, err := e.prepareWrapper(fn)
		if err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}

		wrappers = append(wrappers, w)
		e.out.Functions = append(e.out.Functions, fn.Name)
	}

	e.use(ffiImport)
	e.use("fmt")

	e.printf("var (\n")

	for _, w := range wrappers {
		e.printf("\t%s ffi.Fun\n", w.funcVar)
	}

	e.printf(")\n\n")

	loader := e.opts.LoaderFunc
	if loader == "" {
		loader = "loadFuncs"
	}

	e.printf("func %s(lib ffi.Lib) error {\n\tvar err error\n\n", loader)

	for _, w := range wrappers {
		e.printf("\tif %s, err = lib.Prep(%q, %s); err != nil {\n", w.funcVar, w.fn.Name, strings.Join(w.prep, ", "))
		e.printf("\t\treturn fmt.Errorf(\"%s: %%w\", err)\n\t}\n\n", w.fn.Name)
	}

	e.printf("\treturn nil\n}\n\n")

	for _, w := range wrappers {
		e.emitWrapper(w)
	}

	return nil
}

func (e *emitter) prepareWrapper(fn *Function) (wrapper, error) {
	w := wrapper{
		fn:      fn,
		goName:  e.name(ItemFunction, fn.Name, exportName(fn.Name)),
		funcVar: lowerFirst(fn.Name) + "Func",
	}

	ret, err := e.r.goType(fn.Return)
	if err != nil {
		return w, fmt.Errorf("return type: %w", err)
	}

	e.noteType(ret)
	w.retType = ret

	retFFI, err := e.r.ffiType(fn.Return)
	if err != nil {
		return w, fmt.Errorf("return type: %w", err)
	}

	e.noteFFI(retFFI)
	w.prep = append(w.prep, retFFI)

	if s, ok := e.r.smallInt(fn.Return); ok {
		w.small = &s
	}

	seen := make(map[string]bool)

	for i, p := range fn.Params {
		goType, err := e.r.goType(p.Type)
		if err != nil {
			return w, fmt.Errorf("parameter %d: %w", i+1, err)
		}

		e.noteType(goType)

		desc, err := e.r.ffiType(p.Type)
		if err != nil {
			return w, fmt.Errorf("parameter %d: %w", i+1, err)
		}

		e.noteFFI(desc)

		w.params = append(w.params, paramName(p.Name, i, seen, e.opts.TypesPackage))
		w.types = append(w.types, goType)
		w.prep = append(w.prep, desc)
	}

	return w, nil
}

func (e *emitter) emitWrapper(w wrapper) {
	params := make([]string, len(w.params))
	args := make([]string, 0, len(w.params)+1)

	for i := range w.params {
		params[i] = w.params[i] + " " + w.types[i]
	}

	if len(w.params) > 0 || w.retType != "" {
		e.use("unsafe")
	}

	sig := fmt.Sprintf("func %s(%s)", w.goName, strings.Join(params, ", "))
	if w.retType != "" {
		sig += " " + w.retType
	}

	e.printf("%s {\n", sig)

	switch {
	case w.retType == "":
		args = append(args, "nil")
	case w.small != nil:
		e.printf("\tvar rvalue ffi.Arg\n")
		args = append(args, "unsafe.Pointer(&rvalue)")
	default:
		e.printf("\tvar rvalue %s\n", w.retType)
		args = append(args, "unsafe.Pointer(&rvalue)")
	}

	for _, p := range w.params {
		args = append(args, "unsafe.Pointer(&"+p+")")
	}

	e.printf("\t%s.Call(%s)\n", w.funcVar, strings.Join(args, ", "))

	switch {
	case w.retType == "":
	case w.small != nil && w.small.goType == "bool":
		e.printf("\treturn rvalue != 0\n")
	case w.small != nil:
		e.printf("\treturn %s(rvalue)\n", w.retType)
	default:
		e.printf("\treturn rvalue\n")
	}

	e.printf("}\n\n")
}

func paramName(name string, index int, seen map[string]bool, pkg *TypesPackage) string {
	if name == "" {
		name = fmt.Sprintf("arg%d", index)
	}

	if token.IsKeyword(name) || reservedParams[name] || (pkg != nil && pkg.Name == name) {
		name += "_"
	}

	for seen[name] {
		name = fmt.Sprintf("%s%d", name, index)
	}

	seen[name] = true

	return name
}

func lowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	return string(unicode.ToLower(r)) + name[size:]
}

// assemble adds the file header and imports, then formats the result.
func (e *emitter) assemble() ([]byte, error) {
	var b bytes.Buffer

	b.WriteString(generatedHeader)
	b.WriteString("\n")

	if e.opts.GoVersion != "" {
		fmt.Fprintf(&b, "//go:build %s\n\n", e.opts.GoVersion)
	}

	if doc := strings.TrimRight(e.opts.PackageDoc, "\n"); doc != "" {
		for _, line := range strings.Split(doc, "\n") {
			if line == "" {
				b.WriteString("//\n")
			} else {
				b.WriteString("// " + line + "\n")
			}
		}
	}

	fmt.Fprintf(&b, "package %s\n\n", e.opts.PackageName)

	var std, ext []string

	for path := range e.imports {
		typesPkg := e.opts.TypesPackage != nil && path == e.opts.TypesPackage.Path
		if typesPkg || strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
			ext = append(ext, path)
		} else {
			std = append(std, path)
		}
	}

	sort.Strings(std)
	sort.Strings(ext)

	if len(std)+len(ext) > 0 {
		b.WriteString("import (\n")

		for _, path := range std {
			fmt.Fprintf(&b, "\t%q\n", path)
		}

		if len(std) > 0 && len(ext) > 0 {
			b.WriteString("\n")
		}

		for _, path := range ext {
			if e.opts.TypesPackage != nil && path == e.opts.TypesPackage.Path {
				fmt.Fprintf(&b, "\t%s %q\n", e.opts.TypesPackage.Name, path)
				continue
			}

			fmt.Fprintf(&b, "\t%q\n", path)
		}

		b.WriteString(")\n\n")
	}

	b.Write(e.body.Bytes())

	src, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}

	return src, nil
}
