package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odpic-bindgen/internal/bindgen"
	"odpic-bindgen/internal/catalog"
	"odpic-bindgen/internal/diagnostic"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Header = filepath.Join("testdata", "include", "dpi.h")
	cfg.ImplHeader = filepath.Join("testdata", "src", "dpiImpl.h")
	cfg.CatalogPath = filepath.Join("testdata", "doc.yaml")
	cfg.OutputDir = t.TempDir()
	cfg.ModulePath = "example.com/odpic/dpi"

	return cfg
}

func runDriver(t *testing.T, cfg Config) *Result {
	t.Helper()

	res, err := New(cfg, zerolog.Nop()).Run()
	require.NoError(t, err)

	return res
}

func readArtifact(t *testing.T, cfg Config, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
	require.NoError(t, err)

	return string(data)
}

func TestRun_Scenario(t *testing.T) {
	cfg := testConfig(t)
	res := runDriver(t, cfg)

	desc, ok := res.Catalog.FindDesc("Color")
	require.True(t, ok)
	assert.Contains(t, desc, "`Red` | The red one.\n")
	assert.Contains(t, desc, "`Green` | The green one.\n")

	red, _ := res.Catalog.FindDesc("Red")
	assert.Equal(t, "See `Color`", red)

	public := readArtifact(t, cfg, "bindings.go")
	assert.Contains(t, public, "// Pings the database to determine if a connection is usable.\nfunc DpiConn_ping(")
	assert.NotContains(t, public, "DpiConn_close")

	blocking := readArtifact(t, cfg, filepath.Join("blocking", "bindings_blocking.go"))
	assert.Contains(t, blocking, "package blocking\n")
	assert.Contains(t, blocking, "// Closes the connection.\nfunc DpiConn_close(conn *dpi.DpiConn")
	assert.Contains(t, blocking, `dpi "example.com/odpic/dpi"`)
	assert.NotContains(t, blocking, "DpiConn_ping")
}

func TestRun_UnionAccessors(t *testing.T) {
	cfg := testConfig(t)
	res := runDriver(t, cfg)

	public := readArtifact(t, cfg, "bindings.go")

	assert.Contains(t, public, "// This union is used for passing data to and from the database.\ntype DpiDataBuffer struct {\n\traw [1]uint64\n}\n")
	assert.Contains(t, public, "\n// Value that is used for the boolean native type.\nfunc (u *DpiDataBuffer) AsBoolean() *int32 {\n")
	assert.Contains(t, public, "\n// Value that is used for the int64 native type.\nfunc (u *DpiDataBuffer) AsInt64() *int64 {\n")

	missing := res.Diagnostics.Items(diagnostic.CodeMissingDescription)
	assert.NotContains(t, missing, "dpiDataBuffer::asBoolean")
	assert.NotContains(t, missing, "dpiDataBuffer::asInt64")
}

func TestRun_ClassificationCompleteness(t *testing.T) {
	cfg := testConfig(t)
	res := runDriver(t, cfg)

	public, ok := res.File("bindings.go")
	require.True(t, ok)

	blocking, ok := res.File("blocking/bindings_blocking.go")
	require.True(t, ok)

	assert.Equal(t, []string{"dpiConn_ping", "dpiConn_release"}, public.Functions)
	assert.Equal(t, []string{"dpiConn_close"}, blocking.Functions)

	h, err := bindgen.Parse(bindgen.Options{Headers: []string{cfg.Header}})
	require.NoError(t, err)

	var bound []string
	bound = append(bound, public.Functions...)
	bound = append(bound, blocking.Functions...)

	for name := range h.Functions {
		assert.Contains(t, bound, name)

		if r, ok := res.Classifier.Classify(name); ok && r.MayBlock() {
			assert.Contains(t, blocking.Functions, name)
		}
	}
}

func TestRun_MacroTyping(t *testing.T) {
	cfg := testConfig(t)
	runDriver(t, cfg)

	public := readArtifact(t, cfg, "bindings.go")

	assert.Contains(t, public, "const DPI_SUCCESS int32 = 0\n")
	assert.Contains(t, public, "const DPI_FAILURE int32 = -1\n")
	assert.Contains(t, public, "const DPI_MODE_FETCH_NEXT uint16 = 2\n")
	assert.Contains(t, public, "const DPI_MODE_EXEC_COMMIT_ON_SUCCESS uint32 = 32\n")
	assert.Contains(t, public, "type DpiExecMode uint32\n")
	assert.Contains(t, public, "type DpiJsonOptions = uint32\n")
}

func TestRun_ImplPass(t *testing.T) {
	cfg := testConfig(t)
	runDriver(t, cfg)

	impl := readArtifact(t, cfg, filepath.Join("dpiimpl", "bindings_impl.go"))

	assert.Contains(t, impl, "// Constants here don't follow semantic versioning because of non-public ones.\npackage dpiimpl\n")
	assert.Contains(t, impl, "const DPI_OCI_HTYPE_SVCCTX uint32 = 3\n")
	assert.Contains(t, impl, `const DPI_CHARSET_NAME_UTF8 = "UTF-8"`)
	// anonymous enum constants through a macro
	assert.Contains(t, impl, "const DPI_ERR_MAX uint32 = 1001\n")
	// no callbacks: the default width applies
	assert.Contains(t, impl, "const DPI_SUCCESS uint32 = 0\n")
	// no annotation
	assert.NotContains(t, impl, "See `")
	assert.NotContains(t, impl, "func ")

	_, err := os.Stat(filepath.Join(cfg.OutputDir, "dpiimpl", "loader.go"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Loaders(t *testing.T) {
	cfg := testConfig(t)
	runDriver(t, cfg)

	root := readArtifact(t, cfg, "loader.go")
	assert.Contains(t, root, "package dpi\n")
	assert.Contains(t, root, "if err := loadFuncs(lib); err != nil {")
	assert.Contains(t, root, `filename = "libodpic.so"`)
	assert.NotContains(t, root, "loadBlockingFuncs")

	sub := readArtifact(t, cfg, filepath.Join("blocking", "loader.go"))
	assert.Contains(t, sub, "package blocking\n")
	assert.Contains(t, sub, "func Load(lib ffi.Lib) error {")
}

func TestRun_SamePackageBlocking(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeparateBlocking = false
	cfg.ModulePath = ""

	runDriver(t, cfg)

	blocking := readArtifact(t, cfg, "bindings_blocking.go")
	assert.Contains(t, blocking, "package dpi\n")
	assert.Contains(t, blocking, "func loadBlockingFuncs(lib ffi.Lib) error {")
	assert.Contains(t, blocking, "func DpiConn_close(conn *DpiConn")

	root := readArtifact(t, cfg, "loader.go")
	assert.Contains(t, root, "if err := loadFuncs(lib); err != nil {")
	assert.Contains(t, root, "if err := loadBlockingFuncs(lib); err != nil {")

	_, err := os.Stat(filepath.Join(cfg.OutputDir, "blocking"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Diagnostics(t *testing.T) {
	cfg := testConfig(t)
	res := runDriver(t, cfg)

	assert.Equal(t, []string{"dpiConn_release"}, res.Diagnostics.Items(diagnostic.CodeUndocumentedFunction))
	assert.Equal(t, "function dpiConn_release isn't listed", res.Diagnostics.Warnings[0].Message)
	assert.Contains(t, res.Diagnostics.Items(diagnostic.CodeMissingDescription), "DPI_SUCCESS")
	assert.False(t, res.Diagnostics.HasErrors())
}

func TestRun_FailOnUndocumented(t *testing.T) {
	cfg := testConfig(t)
	cfg.FailOnUndocumented = true

	_, err := New(cfg, zerolog.Nop()).Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndocumented)

	// the blocking pass ran, the impl pass didn't
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "blocking", "bindings_blocking.go"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "dpiimpl", "bindings_impl.go"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantIs  error
		wantErr string
	}{
		{
			name:    "missing header",
			mutate:  func(c *Config) { c.Header = filepath.Join("testdata", "nowhere.h") },
			wantIs:  bindgen.ErrGeneration,
			wantErr: "public pass",
		},
		{
			name:   "missing catalog",
			mutate: func(c *Config) { c.CatalogPath = filepath.Join("testdata", "nowhere.yaml") },
			wantIs: os.ErrNotExist,
		},
		{
			name:    "invalid package",
			mutate:  func(c *Config) { c.Package = "not-a-package" },
			wantErr: "invalid configuration",
		},
		{
			name:    "missing module path",
			mutate:  func(c *Config) { c.ModulePath = "" },
			wantErr: "module_path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)

			_, err := New(cfg, zerolog.Nop()).Run()
			require.Error(t, err)

			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}

			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}

			entries, err := os.ReadDir(cfg.OutputDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestRun_BitflagsFromHints(t *testing.T) {
	cfg := testConfig(t)
	cfg.BitfieldEnums = nil
	cfg.BitflagsFromHints = true

	runDriver(t, cfg)

	public := readArtifact(t, cfg, "bindings.go")

	// dpiExecMode is hinted, dpiFetchMode isn't
	assert.Contains(t, public, "type DpiExecMode uint32\n")
	assert.Contains(t, public, "type DpiFetchMode = uint16\n")
}

func TestLoadCatalog_RoundTripsRST(t *testing.T) {
	dir := t.TempDir()
	rst := filepath.Join(dir, "round_trips.rst")

	content := strings.Join([]string{
		"    * - :func:`dpiConn_release()`",
		"      - Yes",
		"    * - :func:`dpiConn_ping()`",
		"      - Maybe",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(rst, []byte(content), 0o644))

	cfg := testConfig(t)
	cfg.RoundTripsRST = rst
	cfg.AdditionalRoundTrips = map[string]catalog.RoundTrips{"dpiConn_ping": catalog.RoundTripsNo}

	_, cls, err := LoadCatalog(cfg)
	require.NoError(t, err)

	r, ok := cls.Classify("dpiConn_release")
	require.True(t, ok)
	assert.Equal(t, catalog.RoundTripsYes, r)

	// configured entries win over the file
	r, _ = cls.Classify("dpiConn_ping")
	assert.Equal(t, catalog.RoundTripsNo, r)
}
