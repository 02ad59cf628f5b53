package catalog

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := LoadFile("testdata/doc.yaml")
	require.NoError(t, err)

	return c
}

func TestCatalog_Indexes(t *testing.T) {
	c := loadTestCatalog(t)

	require.Len(t, c.DataTypes, 4)

	// round trips map holds exactly the documented functions
	assert.Equal(t, map[string]RoundTrips{
		"dpiConn_ping":             RoundTripsYes,
		"dpiConn_getServerVersion": RoundTripsMaybe,
		"dpiConn_addRef":           RoundTripsNo,
	}, c.RoundTripsMap)

	// underlying types only come from enums declaring one
	assert.Equal(t, map[string]UnderlyingType{
		"DPI_MODE_EXEC_DEFAULT":           UnderlyingUint32,
		"DPI_MODE_EXEC_COMMIT_ON_SUCCESS": UnderlyingUint32,
		"DPI_MODE_FETCH_NEXT":             UnderlyingUint16,
	}, c.UnderlyingTypeMap)

	desc, ok := c.FindDesc("dpiErrorInfo::code")
	require.True(t, ok)
	assert.Equal(t, "The OCI error code if an OCI error has taken place.\n", desc)

	// struct fields are only reachable through the composite key
	_, ok = c.FindDesc("code")
	assert.False(t, ok)

	desc, ok = c.FindDesc("DPI_MODE_FETCH_NEXT")
	require.True(t, ok)
	assert.Equal(t, "Scroll the cursor to the next row in the result set.\n", desc)

	desc, ok = c.FindDesc("dpiConn_ping")
	require.True(t, ok)
	assert.Contains(t, desc, "Pings the database")

	fn, ok := c.Function("dpiConn_addRef")
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	require.NotNil(t, fn.Params[0].Mode)
	assert.Equal(t, ModeInOut, *fn.Params[0].Mode)
	assert.Equal(t, "dpiConn *", fn.Params[0].CType)
	assert.Equal(t, "int", fn.ReturnType)

	assert.Equal(t, []string{"dpiConn_addRef", "dpiConn_getServerVersion", "dpiConn_ping"}, c.FunctionNames())
	assert.Equal(t, []string{"dpiExecMode"}, c.BitflagTypes())
}

func TestCatalog_FindUnderlyingType(t *testing.T) {
	c := loadTestCatalog(t)

	u, ok := c.FindUnderlyingType("DPI_MODE_FETCH_NEXT")
	require.True(t, ok)
	assert.Equal(t, UnderlyingUint16, u)
	assert.Equal(t, 16, u.Bits())

	_, ok = c.FindUnderlyingType("DPI_SUCCESS")
	assert.False(t, ok)
}

func TestRewriteEnumDescriptions(t *testing.T) {
	c := loadTestCatalog(t)
	c.RewriteEnumDescriptions()

	desc, ok := c.FindDesc("dpiExecMode")
	require.True(t, ok)

	expected := "This enumeration identifies the available modes for executing statements\n" +
		"using the function dpiStmt_execute().\n" +
		"\n" +
		"Value | Description\n" +
		"---|---\n" +
		"`DPI_MODE_EXEC_DEFAULT` | Default value used for executing statements.\n" +
		"`DPI_MODE_EXEC_COMMIT_ON_SUCCESS` | Automatically commit the transaction if the statement executes successfully.\n"
	assert.Equal(t, expected, desc)

	desc, ok = c.FindDesc("DPI_MODE_EXEC_COMMIT_ON_SUCCESS")
	require.True(t, ok)
	assert.Equal(t, "See `dpiExecMode`", desc)

	// the model itself keeps the original descriptions
	dt, ok := c.DataType("dpiExecMode")
	require.True(t, ok)
	assert.Equal(t, "Default value used for executing statements.\n", dt.Members[0].Desc)

	// struct field descriptions are untouched
	desc, ok = c.FindDesc("dpiErrorInfo::message")
	require.True(t, ok)
	assert.Equal(t, "The error message as a byte string.\n", desc)
}

func TestRewriteEnumDescriptions_Idempotent(t *testing.T) {
	once := loadTestCatalog(t)
	once.RewriteEnumDescriptions()

	twice := loadTestCatalog(t)
	twice.RewriteEnumDescriptions()
	twice.RewriteEnumDescriptions()

	assert.Equal(t, once.NameToDesc, twice.NameToDesc, spew.Sdump(twice.NameToDesc))
}

func TestEndToEndEnumScenario(t *testing.T) {
	c, err := Parse([]byte(`
- name: Color
  kind: enum
  underlying_type: uint8_t
  desc: Colors.
  members:
    - name: Red
      desc: The red one.
    - name: Green
      desc: The green one.
`))
	require.NoError(t, err)

	c.RewriteEnumDescriptions()

	desc, _ := c.FindDesc("Color")
	assert.Contains(t, desc, "`Red` | The red one.\n")
	assert.Contains(t, desc, "`Green` | The green one.\n")

	red, _ := c.FindDesc("Red")
	assert.Equal(t, "See `Color`", red)

	u, ok := c.FindUnderlyingType("Green")
	require.True(t, ok)
	assert.Equal(t, UnderlyingUint8, u)
}
