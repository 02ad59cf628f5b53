// Package commands implements the odpic-bindgen command line.
package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"odpic-bindgen/internal/config"
	"odpic-bindgen/internal/logging"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	verbose    bool
}

// RootCmd creates the root command with every sub-command attached.
func RootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "odpic-bindgen",
		Short: "Generate documented Go bindings for ODPI-C",
		Long: `odpic-bindgen turns the ODPI-C public header and its documentation
catalog into Go bindings built on github.com/jupiterrider/ffi.

Functions are split by whether calling them may wait on a network
round-trip to the database. Every generated declaration gets the
description found in the catalog.

Settings are read from odpic-bindgen.yaml in the working directory, or
the file given with --config, and can be overridden with ODPIC_BINDGEN_*
environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (default ./odpic-bindgen.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output for debugging")

	cmd.AddCommand(GenerateCmd(opts))
	cmd.AddCommand(ClassifyCmd(opts))
	cmd.AddCommand(CheckCmd(opts))

	return cmd
}

// load reads the configuration and builds the logger. Flags win over the
// configuration file.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	if o.verbose {
		cfg.Log.Level = "debug"
	}

	cfg.Log.Output = cmd.ErrOrStderr()

	return cfg, logging.New(cfg.Log), nil
}
