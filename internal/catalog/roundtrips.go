package catalog

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
)

// Classifier answers round-trip classification queries for the whole
// function surface: the catalog classification overlaid by extra entries
// for functions the documentation does not list.
type Classifier struct {
	classes map[string]RoundTrips
}

// NewClassifier creates a Classifier from a catalog and extra entries.
// Extra entries win over catalog entries of the same name.
func NewClassifier(c *Catalog, extra map[string]RoundTrips) *Classifier {
	classes := make(map[string]RoundTrips, len(c.RoundTripsMap)+len(extra))
	maps.Copy(classes, c.RoundTripsMap)
	maps.Copy(classes, extra)

	return &Classifier{classes: classes}
}

// Classify returns the classification of the named function.
func (cl *Classifier) Classify(name string) (RoundTrips, bool) {
	r, ok := cl.classes[name]
	return r, ok
}

// Len returns the number of classified functions.
func (cl *Classifier) Len() int {
	return len(cl.classes)
}

// Names returns, sorted, the functions whose classification is one of
// include. With no arguments every classified function is returned.
func (cl *Classifier) Names(include ...RoundTrips) []string {
	var names []string

	for name, r := range cl.classes {
		if len(include) == 0 || slices.Contains(include, r) {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// ParseRoundTrips parses a classification tag ("No", "Yes" or "Maybe").
func ParseRoundTrips(s string) (RoundTrips, error) {
	for _, r := range []RoundTrips{RoundTripsNo, RoundTripsYes, RoundTripsMaybe} {
		if r.String() == s {
			return r, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown round_trips %q", ErrParse, s)
}

// LoadRoundTripsRST reads classifications from the upstream
// user_guide/round_trips.rst file.
func LoadRoundTripsRST(path string) (map[string]RoundTrips, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open round trips file %s: %w", path, err)
	}
	defer f.Close()

	m, err := ParseRoundTripsRST(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// ParseRoundTripsRST parses the list-table of round_trips.rst. A row
// naming a function
//
//	* - :func:`dpiConn_ping()`
//	  - Yes
//
// must be followed by a line ending in " Yes", " No" or " Maybe".
func ParseRoundTripsRST(r io.Reader) (map[string]RoundTrips, error) {
	const funcMarker = "* - :func:`"

	m := make(map[string]RoundTrips)
	scanner := bufio.NewScanner(r)
	funcName := ""
	lineno := 0

	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), " \t\r")

		if funcName != "" {
			idx := strings.LastIndexByte(line, ' ')

			class, err := ParseRoundTrips(line[idx+1:])
			if idx < 0 || err != nil {
				return nil, fmt.Errorf("%w: unexpected format %q at line %d", ErrParse, line, lineno)
			}

			m[funcName] = class
			funcName = ""

			continue
		}

		s := strings.Index(line, funcMarker)
		e := strings.Index(line, "()`")

		if s >= 0 && e > s {
			funcName = line[s+len(funcMarker) : e]
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading round trips: %w", err)
	}

	return m, nil
}
