package bindgen

// ItemKind tells a callback what sort of declaration it is looking at.
type ItemKind int

const (
	_ ItemKind = iota
	ItemFunction
	ItemType
	ItemVar
)

// ItemInfo describes a declaration about to be emitted.
type ItemInfo struct {
	Name string
	Kind ItemKind
}

// IntKind is the Go integer type an integer macro is emitted with.
type IntKind int

const (
	_ IntKind = iota
	IntI8
	IntU8
	IntI16
	IntU16
	IntI32
	IntU32
	IntI64
	IntU64
)

// GoType returns the Go spelling of the kind.
func (k IntKind) GoType() string {
	switch k {
	case IntI8:
		return "int8"
	case IntU8:
		return "uint8"
	case IntI16:
		return "int16"
	case IntU16:
		return "uint16"
	case IntI32:
		return "int32"
	case IntU32:
		return "uint32"
	case IntI64:
		return "int64"
	case IntU64:
		return "uint64"
	default:
		return ""
	}
}

// ParseCallbacks lets the caller observe and adjust emission.
type ParseCallbacks interface {
	// ItemName is consulted for every emitted item. A non-empty result
	// renames the Go identifier; the C symbol is unchanged.
	ItemName(item ItemInfo) string
	// IntMacro picks the Go type for an integer macro. Returning false
	// keeps the default width rule.
	IntMacro(name string, value int64) (IntKind, bool)
}

// InlineHeader is header text supplied in memory.
type InlineHeader struct {
	Name     string
	Contents string
}

// TypesPackage is the package that owns the declared types when the
// generated file only carries functions.
type TypesPackage struct {
	// Name is the package identifier used in qualified references.
	Name string
	// Path is the import path.
	Path string
}

// Options configures one generation run.
type Options struct {
	PackageName string
	// PackageDoc is written as the package comment.
	PackageDoc string

	Headers        []string
	HeaderContents []InlineHeader
	IncludeDirs    []string

	// Allow and block lists hold regular expressions matched against the
	// whole C name. With no allow list at all every declaration is emitted.
	AllowTypes     []string
	AllowFunctions []string
	AllowVars      []string
	BlockFunctions []string
	BlockTypes     []string

	// AllowRecursively pulls in the types referenced by allowed items.
	AllowRecursively bool
	// BitfieldEnums are integer typedefs emitted as bitmask types.
	BitfieldEnums []string

	// GoVersion adds a //go:build constraint when set, e.g. "go1.24".
	GoVersion string

	TypesPackage *TypesPackage
	// LoaderFunc names the generated function resolving the symbols.
	LoaderFunc string

	Callbacks ParseCallbacks
}

// DefaultOptions returns options emitting everything found in the headers.
func DefaultOptions() Options {
	return Options{
		PackageName:      "bindings",
		AllowRecursively: true,
		LoaderFunc:       "loadFuncs",
	}
}
