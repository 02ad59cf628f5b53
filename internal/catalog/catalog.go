package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// Catalog is the indexed model of every documented type and function.
type Catalog struct {
	DataTypes []DataTypeInfo

	// RoundTripsMap maps a function name to its classification.
	RoundTripsMap map[string]RoundTrips
	// UnderlyingTypeMap maps an enum member name to the width of its enum.
	UnderlyingTypeMap map[string]UnderlyingType
	// NameToDesc maps a lookup key to its description. Keys are bare type,
	// function and enum constant names, or "Type::member" for fields.
	NameToDesc map[string]string

	types     map[string]*DataTypeInfo
	functions map[string]*FunctionInfo
}

// New builds a Catalog and its derived indexes from loaded data types.
// Duplicate type names and duplicate function names are rejected.
func New(types []DataTypeInfo) (*Catalog, error) {
	c := &Catalog{
		DataTypes:         types,
		RoundTripsMap:     make(map[string]RoundTrips),
		UnderlyingTypeMap: make(map[string]UnderlyingType),
		NameToDesc:        make(map[string]string),
		types:             make(map[string]*DataTypeInfo, len(types)),
		functions:         make(map[string]*FunctionInfo),
	}

	for i := range c.DataTypes {
		dt := &c.DataTypes[i]

		if _, ok := c.types[dt.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate data type %q", ErrParse, dt.Name)
		}

		c.types[dt.Name] = dt

		for j := range dt.Functions {
			fn := &dt.Functions[j]
			if _, ok := c.functions[fn.Name]; ok {
				return nil, fmt.Errorf("%w: duplicate function %q", ErrParse, fn.Name)
			}

			c.functions[fn.Name] = fn
			c.RoundTripsMap[fn.Name] = fn.RoundTrips
		}

		if dt.UnderlyingType != nil {
			for _, m := range dt.Members {
				c.UnderlyingTypeMap[m.Name] = *dt.UnderlyingType
			}
		}
	}

	for i := range c.DataTypes {
		c.indexDescriptions(&c.DataTypes[i])
	}

	return c, nil
}

func (c *Catalog) indexDescriptions(dt *DataTypeInfo) {
	c.NameToDesc[dt.Name] = dt.Desc

	switch dt.Kind {
	case DataKindEnum:
		for _, m := range dt.Members {
			c.NameToDesc[m.Name] = m.Desc
		}
	case DataKindStruct, DataKindUnion:
		for _, m := range dt.Members {
			c.NameToDesc[MemberKey(dt.Name, m.Name)] = m.Desc
		}
	case DataKindOpaqueStruct:
	}

	for _, fn := range dt.Functions {
		c.NameToDesc[fn.Name] = fn.Desc
	}
}

// MemberKey returns the composite lookup key of a struct or union field.
func MemberKey(typeName, member string) string {
	return typeName + "::" + member
}

// FindDesc returns the description registered under key.
func (c *Catalog) FindDesc(key string) (string, bool) {
	desc, ok := c.NameToDesc[key]
	return desc, ok
}

// FindUnderlyingType returns the fixed-width type of an enum member.
func (c *Catalog) FindUnderlyingType(name string) (UnderlyingType, bool) {
	u, ok := c.UnderlyingTypeMap[name]
	return u, ok
}

// Function returns the documented function with the given name.
func (c *Catalog) Function(name string) (*FunctionInfo, bool) {
	fn, ok := c.functions[name]
	return fn, ok
}

// DataType returns the documented type with the given name.
func (c *Catalog) DataType(name string) (*DataTypeInfo, bool) {
	dt, ok := c.types[name]
	return dt, ok
}

// FunctionNames returns every documented function name, sorted.
func (c *Catalog) FunctionNames() []string {
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// BitflagTypes returns the names of types hinted as bit flags, sorted.
func (c *Catalog) BitflagTypes() []string {
	var names []string

	for i := range c.DataTypes {
		if c.DataTypes[i].IsBitflags() {
			names = append(names, c.DataTypes[i].Name)
		}
	}

	slices.Sort(names)

	return names
}

// EnumCrossReference returns the description given to an enum constant
// once the value table has moved to its parent type.
func EnumCrossReference(typeName string) string {
	return "See `" + typeName + "`"
}

// RewriteEnumDescriptions appends a value table to the description of every
// enum type and replaces the description of each constant with a
// cross-reference to its type.
//
// The table is always rebuilt from the original member descriptions, so
// calling it again leaves NameToDesc unchanged.
func (c *Catalog) RewriteEnumDescriptions() {
	for i := range c.DataTypes {
		dt := &c.DataTypes[i]
		if dt.Kind != DataKindEnum {
			continue
		}

		c.NameToDesc[dt.Name] = dt.Desc + "\n" + enumTable(dt.Members)

		ref := EnumCrossReference(dt.Name)
		for _, m := range dt.Members {
			c.NameToDesc[m.Name] = ref
		}
	}
}

func enumTable(members []MemberInfo) string {
	var b strings.Builder

	b.WriteString("Value | Description\n")
	b.WriteString("---|---\n")

	for _, m := range members {
		b.WriteString("`")
		b.WriteString(m.Name)
		b.WriteString("` | ")
		b.WriteString(strings.TrimSpace(strings.ReplaceAll(m.Desc, "\n", " ")))
		b.WriteString("\n")
	}

	return b.String()
}
