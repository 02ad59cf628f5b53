// Package diagnostic provides structured warnings and errors collected while
// generating and annotating bindings.
//
// Diagnostics never end up in generated artifacts; callers flush them to
// the operator log once a pass completes.
//
// Key codes:
//   - undocumented_function: a header function is missing from the catalog
//   - missing_description: a generated declaration has no catalog entry
//   - empty_description: a generated declaration has an empty entry
//   - skipped_declaration: the generator could not render a declaration
package diagnostic
