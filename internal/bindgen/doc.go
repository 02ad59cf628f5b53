// Package bindgen generates Go bindings for a C library from its headers.
//
// The headers are read with a small preprocessor (quoted includes,
// conditionals and object-like macros) and a declaration parser covering
// what library headers normally contain: structs, unions, enums, typedefs,
// function pointer typedefs and prototypes. Declarations are selected with
// anchored regular expressions, optionally pulling in every referenced type,
// and rendered as a single Go file that calls into the library through
// github.com/jupiterrider/ffi:
//
//	const DPI_SUCCESS int32 = 0
//
//	type DpiErrorInfo struct {
//		Code int32
//		...
//	}
//
//	func DpiConn_ping(conn *DpiConn) int32 {
//		var rvalue ffi.Arg
//		dpiConn_pingFunc.Call(unsafe.Pointer(&rvalue), unsafe.Pointer(&conn))
//		return int32(rvalue)
//	}
//
// Symbols are resolved by the generated loader function, which takes an
// opened ffi.Lib. Layouts assume an LP64 target.
package bindgen
