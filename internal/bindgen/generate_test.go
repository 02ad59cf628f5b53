package bindgen

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCallbacks struct {
	items  []ItemInfo
	widths map[string]IntKind
	rename map[string]string
}

func (c *fakeCallbacks) ItemName(item ItemInfo) string {
	c.items = append(c.items, item)
	return c.rename[item.Name]
}

func (c *fakeCallbacks) IntMacro(name string, _ int64) (IntKind, bool) {
	k, ok := c.widths[name]
	return k, ok
}

func (c *fakeCallbacks) names(kind ItemKind) []string {
	var out []string

	for _, item := range c.items {
		if item.Kind == kind {
			out = append(out, item.Name)
		}
	}

	return out
}

func publicOptions(cb ParseCallbacks) Options {
	opts := DefaultOptions()
	opts.PackageName = "dpi"
	opts.PackageDoc = "Package dpi binds the public API."
	opts.Headers = []string{"testdata/dpi.h"}
	opts.AllowTypes = []string{"dpi.*"}
	opts.AllowFunctions = []string{"dpi.*"}
	opts.AllowVars = []string{"DPI_.*"}
	opts.BlockFunctions = []string{"dpiConn_ping", "dpiConn_getServerVersion", "dpiConn_close"}
	opts.BitfieldEnums = []string{"dpiExecMode"}
	opts.GoVersion = "go1.24"
	opts.Callbacks = cb

	return opts
}

func TestGenerate_Public(t *testing.T) {
	cb := &fakeCallbacks{widths: map[string]IntKind{
		"DPI_SUCCESS":         IntI32,
		"DPI_MODE_FETCH_NEXT": IntU16,
	}}

	b, err := Generate(publicOptions(cb))
	require.NoError(t, err)

	src := string(b.Source)

	assert.True(t, strings.HasPrefix(src,
		"// Code generated by odpic-bindgen. DO NOT EDIT.\n\n//go:build go1.24\n\n// Package dpi binds the public API.\npackage dpi\n"),
		src)
	assert.Contains(t, src, "import (\n\t\"fmt\"\n\t\"unsafe\"\n\n\t\"github.com/jupiterrider/ffi\"\n)\n")

	for _, want := range []string{
		"const DPI_SUCCESS int32 = 0\n",
		"const DPI_FAILURE int32 = -1\n",
		"const DPI_MODE_FETCH_NEXT uint16 = 2\n",
		"const DPI_MODE_EXEC_COMMIT_ON_SUCCESS uint32 = 32\n",
		"const DPI_VERSION_NUMBER uint32 = 50100\n",
		"const DPI_DEFAULT_DRIVER_NAME = \"ODPI-C\"\n",
		"type DpiExecMode uint32\n",
		"func (f DpiExecMode) Has(flag DpiExecMode) bool {\n\treturn f&flag == flag\n}\n",
		"func (f *DpiExecMode) Clear(flag DpiExecMode) {\n\t*f &^= flag\n}\n",
		"type DpiFetchMode = uint16\n",
		"type DpiConn struct{}\n",
		"type DpiSubscrCallback = unsafe.Pointer\n",
		"type DpiDataBuffer struct {\n\traw [1]uint64\n}\n",
		"func (u *DpiDataBuffer) AsInt64() *int64 {\n\treturn (*int64)(unsafe.Pointer(u))\n}\n",
		"func (u *DpiDataBuffer) AsString() **byte {\n",
		"var FFITypeDpiVersionInfo = ffi.NewType(\n\t&ffi.TypeSint32,\n\t&ffi.TypeSint32,\n\t&ffi.TypeUint32,\n" +
			"\t&ffi.TypeUint8,\n\t&ffi.TypeUint8,\n\t&ffi.TypeUint8,\n\t&ffi.TypeUint8,\n)\n",
		"func loadFuncs(lib ffi.Lib) error {\n",
		"\tif dpiConn_addRefFunc, err = lib.Prep(\"dpiConn_addRef\", &ffi.TypeSint32, &ffi.TypePointer); err != nil {\n" +
			"\t\treturn fmt.Errorf(\"dpiConn_addRef: %w\", err)\n\t}\n",
		"func DpiConn_addRef(conn *DpiConn) int32 {\n\tvar rvalue ffi.Arg\n" +
			"\tdpiConn_addRefFunc.Call(unsafe.Pointer(&rvalue), unsafe.Pointer(&conn))\n\treturn int32(rvalue)\n}\n",
		"func DpiConn_subscribe(conn *DpiConn, callback DpiSubscrCallback) int32 {\n",
		"func DpiContext_getError(context *DpiContext, info *DpiErrorInfo) {\n" +
			"\tdpiContext_getErrorFunc.Call(nil, unsafe.Pointer(&context), unsafe.Pointer(&info))\n}\n",
		"func DpiFetchMode_default() uint16 {\n\tvar rvalue ffi.Arg\n" +
			"\tdpiFetchMode_defaultFunc.Call(unsafe.Pointer(&rvalue))\n\treturn uint16(rvalue)\n}\n",
	} {
		assert.Contains(t, src, want)
	}

	assert.Regexp(t, regexp.MustCompile(`(?m)^\tMessage\s+\*byte$`), src)
	assert.Regexp(t, regexp.MustCompile(`(?m)^\tLabel\s+\[4\]byte$`), src)

	for _, unwanted := range []string{
		"DpiConn_ping", "DpiConn_close", "DpiDebug_print", "DPI_FEATURE_OLD", "DPI_VERSION_STRING", "Color",
	} {
		assert.NotContains(t, src, unwanted)
	}

	assert.Equal(t, []string{
		"dpiConn_addRef", "dpiConn_subscribe", "dpiContext_getError", "dpiData_getBool", "dpiFetchMode_default",
	}, b.Functions)
	assert.Equal(t, b.Functions, cb.names(ItemFunction), spew.Sdump(cb.items))
	assert.Contains(t, b.Types, "dpiErrorInfo")
	assert.Contains(t, b.Constants, "DPI_SUCCESS")

	assert.Contains(t, b.Skipped, "function dpiDebug_print: variadic functions are not supported")
	assert.Contains(t, b.Skipped, `macro DPI_VERSION_STRING: unsupported expression "DPI_STR_HELPER(DPI_MAJOR_VERSION)"`)
}

func TestGenerate_DefaultMacroWidths(t *testing.T) {
	b, err := Generate(publicOptions(nil))
	require.NoError(t, err)

	src := string(b.Source)
	assert.Contains(t, src, "const DPI_SUCCESS uint32 = 0\n")
	assert.Contains(t, src, "const DPI_MODE_FETCH_NEXT uint32 = 2\n")
	assert.Contains(t, src, "const DPI_FAILURE int32 = -1\n")
}

func TestGenerate_MacroDoesNotFit(t *testing.T) {
	cb := &fakeCallbacks{widths: map[string]IntKind{"DPI_VERSION_NUMBER": IntU8}}

	b, err := Generate(publicOptions(cb))
	require.NoError(t, err)

	assert.Contains(t, string(b.Source), "const DPI_VERSION_NUMBER uint32 = 50100\n")
	assert.Contains(t, b.Skipped, "macro DPI_VERSION_NUMBER: 50100 does not fit uint8, using uint32")
}

func TestGenerate_Rename(t *testing.T) {
	cb := &fakeCallbacks{rename: map[string]string{"dpiConn": "Connection"}}

	b, err := Generate(publicOptions(cb))
	require.NoError(t, err)

	src := string(b.Source)
	assert.Contains(t, src, "type Connection struct{}\n")
	assert.Contains(t, src, "func DpiConn_addRef(conn *Connection) int32 {\n")
}

func TestGenerate_BlockingSet(t *testing.T) {
	cb := &fakeCallbacks{}

	opts := DefaultOptions()
	opts.PackageName = "blocking"
	opts.Headers = []string{"testdata/dpi.h"}
	opts.AllowFunctions = []string{"dpiConn_getServerVersion", "dpiConn_ping"}
	opts.AllowRecursively = false
	opts.TypesPackage = &TypesPackage{Name: "dpi", Path: "example.com/odpic/dpi"}
	opts.LoaderFunc = "loadBlockingFuncs"
	opts.Callbacks = cb

	b, err := Generate(opts)
	require.NoError(t, err)

	src := string(b.Source)
	assert.Contains(t, src, "\tdpi \"example.com/odpic/dpi\"\n")
	assert.Contains(t, src, "func loadBlockingFuncs(lib ffi.Lib) error {\n")
	assert.Contains(t, src, "func DpiConn_ping(conn *dpi.DpiConn) int32 {\n")
	assert.Contains(t, src, "func DpiConn_getServerVersion(conn *dpi.DpiConn, releaseString **byte, "+
		"releaseStringLength *uint32, versionInfo *dpi.DpiVersionInfo) int32 {\n")
	assert.NotContains(t, src, "\ntype ")
	assert.NotContains(t, src, "\nconst ")

	assert.Equal(t, []string{"dpiConn_getServerVersion", "dpiConn_ping"}, b.Functions)
	assert.Empty(t, b.Types)
	assert.Empty(t, cb.names(ItemType))
}

func TestGenerate_ConstantsOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.PackageName = "dpiimpl"
	opts.PackageDoc = "Constants here don't follow semantic versioning because of non-public ones."
	opts.Headers = []string{"testdata/impl/dpiImpl.h"}
	opts.IncludeDirs = []string{"testdata"}
	opts.AllowVars = []string{"DPI_.*"}

	b, err := Generate(opts)
	require.NoError(t, err)

	src := string(b.Source)
	assert.Contains(t, src, "// Constants here don't follow semantic versioning because of non-public ones.\npackage dpiimpl\n")
	assert.Contains(t, src, "const DPI_OCI_ATTR_SERVER uint32 = 12\n")
	assert.Contains(t, src, "const DPI_CHARSET_NAME_UTF8 = \"UTF-8\"\n")
	assert.Contains(t, src, "const DPI_SUCCESS uint32 = 0\n")
	assert.NotContains(t, src, "import")
	assert.NotContains(t, src, "func ")
	assert.Empty(t, b.Functions)
	assert.Empty(t, b.Types)
}

func TestGenerate_InlineHeader(t *testing.T) {
	opts := publicOptions(nil)
	opts.HeaderContents = []InlineHeader{{
		Name:     "extra.h",
		Contents: "typedef uint32_t dpiJsonOptions;\ntypedef uint32_t dpiSodaFlags;\n",
	}}

	b, err := Generate(opts)
	require.NoError(t, err)

	assert.Contains(t, string(b.Source), "type DpiJsonOptions = uint32\n")
	assert.Contains(t, string(b.Source), "type DpiSodaFlags = uint32\n")
}

func TestGenerate_RecursiveTypes(t *testing.T) {
	opts := DefaultOptions()
	opts.PackageName = "colors"
	opts.HeaderContents = []InlineHeader{{
		Name: "colors.h",
		Contents: `
typedef enum { Red, Green = 4, Blue } Color;
typedef struct { Color fg; Color bg; } Style;
typedef struct { int unused; } Ignored;
void paint(const Style *style);
`,
	}}
	opts.AllowFunctions = []string{"paint"}

	b, err := Generate(opts)
	require.NoError(t, err)

	src := string(b.Source)
	assert.Contains(t, src, "type Color = uint32\n")
	assert.Contains(t, src, "const Green Color = 4\n")
	assert.Contains(t, src, "type Style struct {\n")
	assert.Contains(t, src, "func Paint(style *Style) {\n")
	assert.NotContains(t, src, "Ignored")

	opts.AllowRecursively = false

	_, err = Generate(opts)
	require.NoError(t, err, "unselected types are still referenced by name")
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr string
	}{
		{
			name:    "no package",
			mutate:  func(o *Options) { o.PackageName = "" },
			wantErr: "package name is required",
		},
		{
			name:    "bad pattern",
			mutate:  func(o *Options) { o.AllowTypes = []string{"dpi("} },
			wantErr: "invalid pattern",
		},
		{
			name: "unknown type",
			mutate: func(o *Options) {
				o.HeaderContents = []InlineHeader{{Name: "bad.h", Contents: "int dpiMystery(mystery_t value);"}}
			},
			wantErr: "unknown type mystery_t",
		},
		{
			name:    "bitfield on pointer type",
			mutate:  func(o *Options) { o.BitfieldEnums = []string{"dpiSubscrCallback"} },
			wantErr: "bitfield type dpiSubscrCallback is not an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := publicOptions(nil)
			tt.mutate(&opts)

			b, err := Generate(opts)
			require.Error(t, err)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, ErrGeneration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerate_MissingHeader(t *testing.T) {
	opts := publicOptions(nil)
	opts.Headers = []string{"testdata/missing.h"}

	_, err := Generate(opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
