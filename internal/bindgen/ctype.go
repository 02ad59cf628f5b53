package bindgen

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// scalar describes a builtin C type on LP64 targets.
type scalar struct {
	goType  string
	ffiType string
	size    int
	integer bool
}

var scalars = map[string]scalar{
	"void":               {"", "ffi.TypeVoid", 0, false},
	"bool":               {"bool", "ffi.TypeUint8", 1, true},
	"char":               {"byte", "ffi.TypeUint8", 1, true},
	"signed char":        {"int8", "ffi.TypeSint8", 1, true},
	"unsigned char":      {"uint8", "ffi.TypeUint8", 1, true},
	"short":              {"int16", "ffi.TypeSint16", 2, true},
	"unsigned short":     {"uint16", "ffi.TypeUint16", 2, true},
	"int":                {"int32", "ffi.TypeSint32", 4, true},
	"unsigned int":       {"uint32", "ffi.TypeUint32", 4, true},
	"long":               {"int64", "ffi.TypeSint64", 8, true},
	"unsigned long":      {"uint64", "ffi.TypeUint64", 8, true},
	"long long":          {"int64", "ffi.TypeSint64", 8, true},
	"unsigned long long": {"uint64", "ffi.TypeUint64", 8, true},
	"float":              {"float32", "ffi.TypeFloat", 4, false},
	"double":             {"float64", "ffi.TypeDouble", 8, false},
	"int8_t":             {"int8", "ffi.TypeSint8", 1, true},
	"uint8_t":            {"uint8", "ffi.TypeUint8", 1, true},
	"int16_t":            {"int16", "ffi.TypeSint16", 2, true},
	"uint16_t":           {"uint16", "ffi.TypeUint16", 2, true},
	"int32_t":            {"int32", "ffi.TypeSint32", 4, true},
	"uint32_t":           {"uint32", "ffi.TypeUint32", 4, true},
	"int64_t":            {"int64", "ffi.TypeSint64", 8, true},
	"uint64_t":           {"uint64", "ffi.TypeUint64", 8, true},
	"size_t":             {"uint64", "ffi.TypeUint64", 8, true},
	"ssize_t":            {"int64", "ffi.TypeSint64", 8, true},
	"intptr_t":           {"int64", "ffi.TypeSint64", 8, true},
	"uintptr_t":          {"uintptr", "ffi.TypeUint64", 8, true},
}

const pointerSize = 8

// exportName turns a C identifier into an exported Go one.
func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	return string(unicode.ToUpper(r)) + name[size:]
}

// resolver maps C types to Go types, libffi descriptors and layouts.
type resolver struct {
	h *Header
	// qualifier prefixes declared type names, e.g. "dpi."
	qualifier string
	// renamed holds Go names chosen by callbacks
	renamed map[string]string

	layouts map[string][2]int
	busy    map[string]bool
}

func newResolver(h *Header, qualifier string) *resolver {
	return &resolver{
		h:         h,
		qualifier: qualifier,
		renamed:   make(map[string]string),
		layouts:   make(map[string][2]int),
		busy:      make(map[string]bool),
	}
}

// localName is the Go identifier of a declared type.
func (r *resolver) localName(name string) string {
	if n, ok := r.renamed[name]; ok {
		return n
	}

	return exportName(name)
}

// typeName is the possibly qualified reference to a declared type.
func (r *resolver) typeName(name string) string {
	return r.qualifier + r.localName(name)
}

// goType spells t in Go.
func (r *resolver) goType(t CType) (string, error) {
	var b strings.Builder

	for _, n := range t.ArrayLen {
		fmt.Fprintf(&b, "[%d]", n)
	}

	base, err := r.goBase(t)
	if err != nil {
		return "", err
	}

	b.WriteString(base)

	return b.String(), nil
}

func (r *resolver) goBase(t CType) (string, error) {
	if t.FuncPtr {
		return strings.Repeat("*", t.Pointer) + "unsafe.Pointer", nil
	}

	if s, ok := scalars[t.Name]; ok {
		if t.Name == "void" {
			if t.Pointer == 0 {
				return "", nil
			}

			return strings.Repeat("*", t.Pointer-1) + "unsafe.Pointer", nil
		}

		return strings.Repeat("*", t.Pointer) + s.goType, nil
	}

	if !r.h.isTypeName(t.Name) {
		return "", fmt.Errorf("unknown type %s", t)
	}

	return strings.Repeat("*", t.Pointer) + r.typeName(t.Name), nil
}

// ffiType returns the descriptor expression for a value of type t.
// Arrays are described by their element.
func (r *resolver) ffiType(t CType) (string, error) {
	if t.Pointer > 0 || t.FuncPtr {
		return "&ffi.TypePointer", nil
	}

	if s, ok := scalars[t.Name]; ok {
		return "&" + s.ffiType, nil
	}

	if td, ok := r.h.TypeDefs[t.Name]; ok {
		target := td.Target
		if len(target.ArrayLen) > 0 {
			return "", fmt.Errorf("array typedef %s passed by value", t.Name)
		}

		return r.ffiType(target)
	}

	if rec, ok := r.h.Records[t.Name]; ok {
		if rec.Opaque {
			return "", fmt.Errorf("opaque type %s passed by value", t.Name)
		}

		return "&" + r.qualifier + "FFIType" + r.localName(t.Name), nil
	}

	if e, ok := r.h.Enums[t.Name]; ok {
		if e.Signed() {
			return "&ffi.TypeSint32", nil
		}

		return "&ffi.TypeUint32", nil
	}

	return "", fmt.Errorf("unknown type %s", t)
}

// smallInt reports whether values of t come back from libffi widened to
// ffi_arg: integers of 32 bits or less.
func (r *resolver) smallInt(t CType) (scalar, bool) {
	if t.Pointer > 0 || t.FuncPtr || len(t.ArrayLen) > 0 {
		return scalar{}, false
	}

	if s, ok := scalars[t.Name]; ok {
		return s, s.integer && s.size <= 4
	}

	if td, ok := r.h.TypeDefs[t.Name]; ok {
		return r.smallInt(td.Target)
	}

	if _, ok := r.h.Enums[t.Name]; ok {
		return scalars["int"], true
	}

	return scalar{}, false
}

// layout returns the size and alignment of t.
func (r *resolver) layout(t CType) (int, int, error) {
	size, align, err := r.baseLayout(t)
	if err != nil {
		return 0, 0, err
	}

	for _, n := range t.ArrayLen {
		size *= n
	}

	return size, align, nil
}

func (r *resolver) baseLayout(t CType) (int, int, error) {
	if t.Pointer > 0 || t.FuncPtr {
		return pointerSize, pointerSize, nil
	}

	if s, ok := scalars[t.Name]; ok {
		if s.size == 0 {
			return 0, 0, fmt.Errorf("void has no size")
		}

		return s.size, s.size, nil
	}

	if td, ok := r.h.TypeDefs[t.Name]; ok {
		return r.layout(td.Target)
	}

	if _, ok := r.h.Enums[t.Name]; ok {
		return 4, 4, nil
	}

	rec, ok := r.h.Records[t.Name]
	if !ok {
		return 0, 0, fmt.Errorf("unknown type %s", t)
	}

	return r.recordLayout(rec)
}

func (r *resolver) recordLayout(rec *Record) (int, int, error) {
	if l, ok := r.layouts[rec.Name]; ok {
		return l[0], l[1], nil
	}

	if rec.Opaque {
		return 0, 0, fmt.Errorf("opaque type %s has no layout", rec.Name)
	}

	if r.busy[rec.Name] {
		return 0, 0, fmt.Errorf("type %s contains itself", rec.Name)
	}

	r.busy[rec.Name] = true
	defer delete(r.busy, rec.Name)

	size, align := 0, 1

	for _, f := range rec.Fields {
		fs, fa, err := r.layout(f.Type)
		if err != nil {
			return 0, 0, fmt.Errorf("%s.%s: %w", rec.Name, f.Name, err)
		}

		align = max(align, fa)

		if rec.IsUnion {
			size = max(size, fs)
		} else {
			size = alignUp(size, fa) + fs
		}
	}

	size = alignUp(size, align)
	r.layouts[rec.Name] = [2]int{size, align}

	return size, align, nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

// refs lists the declared type names t depends on.
func refs(t CType) []string {
	if t.FuncPtr {
		return nil
	}

	if _, ok := scalars[t.Name]; ok {
		return nil
	}

	return []string{t.Name}
}
