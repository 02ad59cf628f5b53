// Package match finds the closest known name for a C identifier the
// catalog and the header disagree on.
//
// Key functions:
//   - NormalizeIdent: folds a C identifier for fuzzy comparison
//   - Distance: computes the edit distance between two strings
//   - Rank: orders candidate names by similarity
package match
