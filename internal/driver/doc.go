// Package driver runs the generation passes that turn dpi.h and the
// documentation catalog into Go bindings.
//
// A run loads the catalog once, rewrites the enum descriptions and then
// invokes the binding generator three times:
//
//   - public: every type, constant and function that never waits on the
//     network, annotated with the catalog descriptions (bindings.go)
//   - blocking: only the functions classified Yes or Maybe, annotated,
//     in their own package unless SeparateBlocking is off
//     (blocking/bindings_blocking.go)
//   - impl: the constants of the internal header, unannotated
//     (dpiimpl/bindings_impl.go)
//
// Loader stubs opening the shared library are rendered last. Any failure
// stops the run.
package driver
