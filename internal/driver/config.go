package driver

import (
	"errors"
	"fmt"
	"go/token"
	"path/filepath"

	"odpic-bindgen/internal/catalog"
)

// Config holds the inputs and layout of a generation run.
type Config struct {
	// Header is the public ODPI-C header (dpi.h).
	Header string
	// ImplHeader is the internal header (dpiImpl.h). Pass C is skipped
	// when it is empty.
	ImplHeader string
	// CatalogPath is the documentation catalog (doc.yaml).
	CatalogPath string
	// RoundTripsRST optionally adds classifications from round_trips.rst.
	RoundTripsRST string

	// OutputDir receives every artifact.
	OutputDir string
	// Package is the name of the main bindings package.
	Package string
	// ModulePath is the import path of OutputDir, used to qualify type
	// references from the blocking package.
	ModulePath string
	// LibName is the shared library name without prefix or extension.
	LibName string

	// SeparateBlocking puts the functions that may wait on the network
	// in their own package.
	SeparateBlocking bool
	BlockingPackage  string
	ImplPackage      string

	GoVersion string

	TypePattern     string
	FunctionPattern string
	VarPattern      string

	// BitfieldEnums are integer typedefs emitted as bitmask types.
	BitfieldEnums []string
	// BitflagsFromHints adds every catalog type hinted as bit flags.
	BitflagsFromHints bool
	// ExtraHeader is added to pass A for types the documentation uses but
	// dpi.h does not declare.
	ExtraHeader string

	// AdditionalRoundTrips classifies functions missing from the catalog.
	AdditionalRoundTrips map[string]catalog.RoundTrips

	// FailOnUndocumented turns undocumented functions into an error.
	FailOnUndocumented bool
}

// DefaultExtraHeader declares the types found in the documentation but not
// in dpi.h.
const DefaultExtraHeader = "#include <stdint.h>\n" +
	"typedef uint32_t dpiJsonOptions;\n" +
	"typedef uint32_t dpiSodaFlags;\n"

// DefaultConfig returns the configuration of the upstream layout.
func DefaultConfig() Config {
	return Config{
		Header:           filepath.Join("odpi", "include", "dpi.h"),
		ImplHeader:       filepath.Join("odpi", "src", "dpiImpl.h"),
		CatalogPath:      "doc.yaml",
		OutputDir:        ".",
		Package:          "dpi",
		LibName:          "odpic",
		SeparateBlocking: true,
		BlockingPackage:  "blocking",
		ImplPackage:      "dpiimpl",
		TypePattern:      "^dpi.*",
		FunctionPattern:  "^dpi.*",
		VarPattern:       "^DPI_.*",
		BitfieldEnums: []string{
			"dpiExecMode",
			"dpiFetchMode",
			"dpiOpCode",
			"dpiSubscrQOS",
		},
		ExtraHeader: DefaultExtraHeader,
		AdditionalRoundTrips: map[string]catalog.RoundTrips{
			// deprecated, absent from the documentation
			"dpiSodaDb_freeCollectionNames": catalog.RoundTripsNo,
		},
	}
}

// Validate reports the inconsistencies in the configuration.
func (c Config) Validate() error {
	var errs []error

	if c.Header == "" {
		errs = append(errs, errors.New("header is required"))
	}

	if c.CatalogPath == "" {
		errs = append(errs, errors.New("catalog is required"))
	}

	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	for _, pkg := range []struct{ key, name string }{
		{"package", c.Package},
		{"blocking_package", c.BlockingPackage},
		{"impl_package", c.ImplPackage},
	} {
		if !token.IsIdentifier(pkg.name) {
			errs = append(errs, fmt.Errorf("%s: %q is not a valid package name", pkg.key, pkg.name))
		}
	}

	if c.SeparateBlocking && c.ModulePath == "" {
		errs = append(errs, errors.New("module_path is required when separate_blocking is set"))
	}

	if c.LibName == "" {
		errs = append(errs, errors.New("lib_name is required"))
	}

	return errors.Join(errs...)
}
