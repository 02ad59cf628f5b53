// Package main provides the CLI entrypoint for odpic-bindgen.
//
// odpic-bindgen generates Go bindings for ODPI-C:
//   - Parses dpi.h and dpiImpl.h (preprocessor + declarations)
//   - Loads the documentation catalog (doc.yaml) and round-trip classes
//   - Splits functions into non-blocking and blocking packages
//   - Injects the documented descriptions into the generated source
package main

import (
	"os"

	"odpic-bindgen/internal/commands"
)

func main() {
	if err := commands.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
