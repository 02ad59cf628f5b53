// Package logging configures the zerolog loggers of the generator.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"odpic-bindgen/internal/diagnostic"
)

// Config contains logger configuration.
type Config struct {
	// Level sets the logging level (trace, debug, info, warn, error).
	Level string
	// Pretty enables human-readable console output with colors.
	Pretty bool
	// Output sets the output writer (defaults to os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Pretty: true,
		Output: os.Stderr,
	}
}

// New creates a new zerolog logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewWithComponent creates a logger with a component field for structured logging.
func NewWithComponent(cfg Config, component string) zerolog.Logger {
	return New(cfg).With().Str("component", component).Logger()
}

// Diagnostics writes collected diagnostics to the logger: errors at error
// level, warnings at warn level and infos at debug level.
func Diagnostics(logger zerolog.Logger, diags *diagnostic.Diagnostics) {
	if diags == nil {
		return
	}

	for _, list := range []struct {
		level zerolog.Level
		items []diagnostic.Diagnostic
	}{
		{zerolog.ErrorLevel, diags.Errors},
		{zerolog.WarnLevel, diags.Warnings},
		{zerolog.DebugLevel, diags.Infos},
	} {
		for _, d := range list.items {
			ev := logger.WithLevel(list.level).Str("code", d.Code)
			if d.Item != "" {
				ev = ev.Str("item", d.Item)
			}

			ev.Msg(d.Message)
		}
	}
}
