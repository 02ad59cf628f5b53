package commands

import (
	"github.com/spf13/cobra"

	"odpic-bindgen/internal/driver"
	"odpic-bindgen/internal/logging"
)

// GenerateCmd creates the 'generate' command running every binding pass.
func GenerateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate the bindings and loader stubs",
		Long: `Generate writes, below output_dir:

  bindings.go                    types, constants and non-blocking functions
  blocking/bindings_blocking.go  functions that may wait on the network
  dpiimpl/bindings_impl.go       constants of the internal header
  loader.go                      code opening the shared library

Lookup failures are reported as warnings and never stop the run unless
fail_on_undocumented is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			d := driver.New(cfg.Driver, logger)
			res, err := d.Run()

			logging.Diagnostics(logger, d.Diagnostics())

			if err != nil {
				return err
			}

			logger.Info().
				Int("files", len(res.Files)).
				Int("warnings", len(res.Diagnostics.Warnings)).
				Str("output_dir", cfg.Driver.OutputDir).
				Msg("Generation finished")

			return nil
		},
	}
}
