package bindgen

import (
	"errors"
	"fmt"
)

// ErrGeneration is returned for every failure of a generation run.
var ErrGeneration = errors.New("binding generation failed")

// Bindings is the result of one generation run.
type Bindings struct {
	// Source is the formatted Go file.
	Source []byte
	// Functions, Types and Constants list the emitted C names.
	Functions []string
	Types     []string
	Constants []string
	// Skipped explains declarations that were selected but not emitted.
	Skipped []string
}

// Parse reads the headers named by opts without generating anything.
func Parse(opts Options) (*Header, error) {
	h, err := parseSource(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return h, nil
}

// Generate parses the headers, selects declarations and renders them.
func Generate(opts Options) (*Bindings, error) {
	if opts.PackageName == "" {
		return nil, fmt.Errorf("%w: package name is required", ErrGeneration)
	}

	h, err := Parse(opts)
	if err != nil {
		return nil, err
	}

	sel, err := selectDecls(h, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	e := newEmitter(opts, h, sel)

	src, err := e.emit()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	e.out.Source = src

	return e.out, nil
}
