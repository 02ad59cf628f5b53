package bindgen

import (
	"fmt"
	"go/constant"
	"strings"
)

// CType is a C type as written in a declaration.
type CType struct {
	// Name is the canonical builtin spelling or the typedef, struct, union
	// or enum name.
	Name     string
	Pointer  int
	IsConst  bool
	ArrayLen []int
	// FuncPtr marks a pointer to function; Name is unused then.
	FuncPtr bool
}

func (t CType) String() string {
	var b strings.Builder

	if t.IsConst {
		b.WriteString("const ")
	}

	if t.FuncPtr {
		b.WriteString("(*)()")
	} else {
		b.WriteString(t.Name)
	}

	if t.Pointer > 0 {
		b.WriteString(" " + strings.Repeat("*", t.Pointer))
	}

	for _, n := range t.ArrayLen {
		fmt.Fprintf(&b, "[%d]", n)
	}

	return b.String()
}

// Field is a struct or union member.
type Field struct {
	Name string
	Type CType
}

// Record is a struct or union.
type Record struct {
	Name    string
	IsUnion bool
	// Opaque records were declared but never defined.
	Opaque bool
	Fields []Field
}

// Param is a function parameter. Name may be empty.
type Param struct {
	Name string
	Type CType
}

// Function is a function prototype.
type Function struct {
	Name     string
	Return   CType
	Params   []Param
	Variadic bool
}

// TypeDef is a typedef that does not simply name a record of the same name.
type TypeDef struct {
	Name   string
	Target CType
}

// EnumValue is one enumerator.
type EnumValue struct {
	Name  string
	Value constant.Value
}

// Enum is a named C enum.
type Enum struct {
	Name   string
	Values []EnumValue
}

// Signed reports whether any enumerator is negative.
func (e *Enum) Signed() bool {
	for _, v := range e.Values {
		if constant.Sign(v.Value) < 0 {
			return true
		}
	}

	return false
}

// Macro is an object-like macro or an enumerator of an anonymous enum.
// Value is nil when the body is not a constant expression.
type Macro struct {
	Name  string
	Value constant.Value
	Body  string
}

// DeclKind tells which table of a Header a declaration lives in.
type DeclKind int

const (
	_ DeclKind = iota
	DeclRecord
	DeclTypeDef
	DeclEnum
	DeclFunction
	DeclMacro
)

// Decl is an entry of the declaration order.
type Decl struct {
	Kind DeclKind
	Name string
}

// Header holds every declaration read from the input headers.
type Header struct {
	Records   map[string]*Record
	TypeDefs  map[string]*TypeDef
	Enums     map[string]*Enum
	Functions map[string]*Function
	Macros    map[string]*Macro

	// Order lists declarations as they first appeared. Macros come after
	// every other declaration, in definition order.
	Order []Decl

	// enumerators of named enums, for constant expressions
	enumerators map[string]constant.Value
}

func newHeader() *Header {
	return &Header{
		Records:     make(map[string]*Record),
		TypeDefs:    make(map[string]*TypeDef),
		Enums:       make(map[string]*Enum),
		Functions:   make(map[string]*Function),
		Macros:      make(map[string]*Macro),
		enumerators: make(map[string]constant.Value),
	}
}

func (h *Header) addRecord(r *Record) *Record {
	if existing, ok := h.Records[r.Name]; ok {
		if !r.Opaque {
			existing.Opaque = false
			existing.IsUnion = r.IsUnion
			existing.Fields = r.Fields
		}

		return existing
	}

	h.Records[r.Name] = r
	h.Order = append(h.Order, Decl{Kind: DeclRecord, Name: r.Name})

	return r
}

func (h *Header) addTypeDef(td *TypeDef) {
	if _, ok := h.TypeDefs[td.Name]; ok {
		h.TypeDefs[td.Name] = td
		return
	}

	h.TypeDefs[td.Name] = td
	h.Order = append(h.Order, Decl{Kind: DeclTypeDef, Name: td.Name})
}

func (h *Header) addEnum(e *Enum) {
	if _, ok := h.Enums[e.Name]; !ok {
		h.Order = append(h.Order, Decl{Kind: DeclEnum, Name: e.Name})
	}

	h.Enums[e.Name] = e
}

func (h *Header) addFunction(f *Function) {
	if _, ok := h.Functions[f.Name]; !ok {
		h.Order = append(h.Order, Decl{Kind: DeclFunction, Name: f.Name})
	}

	h.Functions[f.Name] = f
}

func (h *Header) addMacro(m *Macro) {
	if _, ok := h.Macros[m.Name]; !ok {
		h.Order = append(h.Order, Decl{Kind: DeclMacro, Name: m.Name})
	}

	h.Macros[m.Name] = m
}

// isTypeName reports whether name was declared as a type.
func (h *Header) isTypeName(name string) bool {
	if _, ok := h.TypeDefs[name]; ok {
		return true
	}

	if _, ok := h.Records[name]; ok {
		return true
	}

	_, ok := h.Enums[name]

	return ok
}
