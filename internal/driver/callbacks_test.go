package driver

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odpic-bindgen/internal/bindgen"
	"odpic-bindgen/internal/catalog"
	"odpic-bindgen/internal/diagnostic"
)

func loadTestCatalog(t *testing.T) (*catalog.Catalog, *catalog.Classifier) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.CatalogPath = filepath.Join("testdata", "doc.yaml")

	c, cls, err := LoadCatalog(cfg)
	require.NoError(t, err)

	return c, cls
}

func TestFunctionFilters(t *testing.T) {
	_, cls := loadTestCatalog(t)

	allow, block := FunctionFilters(cls, catalog.RoundTripsNo)
	assert.Equal(t, []string{"dpiConn_ping", "dpiSodaDb_freeCollectionNames"}, allow)
	assert.Equal(t, []string{"dpiConn_close", "dpiConn_commit"}, block)

	blocking, rest := FunctionFilters(cls, catalog.RoundTripsYes, catalog.RoundTripsMaybe)
	assert.Equal(t, block, blocking)
	assert.Equal(t, allow, rest)

	none, all := FunctionFilters(cls)
	assert.Empty(t, none)
	assert.Len(t, all, cls.Len())
}

func TestDocCallbacks_IntMacro(t *testing.T) {
	c, cls := loadTestCatalog(t)
	cb := newDocCallbacks(c, cls, &diagnostic.Diagnostics{})

	tests := []struct {
		name   string
		want   bindgen.IntKind
		wantOK bool
	}{
		{"DPI_SUCCESS", bindgen.IntI32, true},
		{"Red", bindgen.IntU8, true},
		{"DPI_MODE_FETCH_NEXT", bindgen.IntU16, true},
		{"DPI_MODE_EXEC_DEFAULT", bindgen.IntU32, true},
		{"DPI_FAILURE", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cb.IntMacro(tt.name, 0)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocCallbacks_ItemName(t *testing.T) {
	c, cls := loadTestCatalog(t)
	diags := &diagnostic.Diagnostics{}
	cb := newDocCallbacks(c, cls, diags)

	assert.Empty(t, cb.ItemName(bindgen.ItemInfo{Name: "dpiConn_ping", Kind: bindgen.ItemFunction}))
	assert.Empty(t, cb.ItemName(bindgen.ItemInfo{Name: "dpiSodaDb_freeCollectionNames", Kind: bindgen.ItemFunction}))
	assert.Empty(t, cb.ItemName(bindgen.ItemInfo{Name: "dpiUnknownType", Kind: bindgen.ItemType}))
	assert.Empty(t, diags.Warnings)

	assert.Empty(t, cb.ItemName(bindgen.ItemInfo{Name: "dpiConn_release", Kind: bindgen.ItemFunction}))
	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, "function dpiConn_release isn't listed", diags.Warnings[0].Message)
	assert.Equal(t, diagnostic.CodeUndocumentedFunction, diags.Warnings[0].Code)
}
