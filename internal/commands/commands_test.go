package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a configuration pointing at testdata and returns its
// path and the output directory.
func writeConfig(t *testing.T, extra string) (string, string) {
	t.Helper()

	header, err := filepath.Abs(filepath.Join("testdata", "dpi.h"))
	require.NoError(t, err)

	doc, err := filepath.Abs(filepath.Join("testdata", "doc.yaml"))
	require.NoError(t, err)

	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	content := fmt.Sprintf(`header: %s
impl_header: ""
catalog: %s
output_dir: %s
module_path: example.com/odpic/dpi
log:
  pretty: false
%s`, header, doc, out, extra)

	path := filepath.Join(dir, "odpic-bindgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path, out
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := RootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestGenerate(t *testing.T) {
	path, out := writeConfig(t, "")

	_, stderr, err := execute(t, "generate", "--config", path)
	require.NoError(t, err, stderr)

	for _, name := range []string{
		"bindings.go",
		filepath.Join("blocking", "bindings_blocking.go"),
		"loader.go",
		filepath.Join("blocking", "loader.go"),
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	assert.NoFileExists(t, filepath.Join(out, "dpiimpl", "bindings_impl.go"))

	// dpiConn_release isn't classified
	assert.Contains(t, stderr, `"code":"undocumented_function"`)
	assert.Contains(t, stderr, "Generation finished")
}

func TestGenerate_FailOnUndocumented(t *testing.T) {
	path, _ := writeConfig(t, "fail_on_undocumented: true\n")

	_, stderr, err := execute(t, "generate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undocumented functions")
	assert.Contains(t, stderr, "function dpiConn_release isn't listed")
}

func TestGenerate_LogLevelFlag(t *testing.T) {
	path, _ := writeConfig(t, "")

	_, stderr, err := execute(t, "generate", "--config", path, "--log-level", "error")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "Generation finished")
}

func TestClassify(t *testing.T) {
	path, _ := writeConfig(t, "")

	stdout, _, err := execute(t, "classify", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "FUNCTION")
	assert.Contains(t, stdout, "dpiConn_addRef")
	assert.Contains(t, stdout, "dpiConn_ping")
	// configured by default, absent from the catalog
	assert.Contains(t, stdout, "dpiSodaDb_freeCollectionNames")
	assert.Contains(t, stdout, "4 function(s)")

	stdout, _, err = execute(t, "classify", "--config", path, "--blocking")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dpiConn_close")
	assert.Contains(t, stdout, "dpiConn_ping")
	assert.NotContains(t, stdout, "dpiConn_addRef")
	assert.Contains(t, stdout, "2 function(s)")

	stdout, _, err = execute(t, "classify", "--config", path, "--non-blocking")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dpiConn_addRef")
	assert.NotContains(t, stdout, "dpiConn_close")

	_, _, err = execute(t, "classify", "--config", path, "--blocking", "--non-blocking")
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	path, _ := writeConfig(t, "")

	stdout, _, err := execute(t, "check", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "undocumented_function")
	assert.Contains(t, stdout, "dpiConn_release")
	assert.Contains(t, stdout, "missing_function")
	assert.Contains(t, stdout, "dpiConn_addRef")

	_, _, err = execute(t, "check", "--config", path, "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 disagreement(s)")
}

func TestRoot_BadConfig(t *testing.T) {
	_, _, err := execute(t, "generate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
