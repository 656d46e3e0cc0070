// Package compiler turns the CUE description of the call surface into
// ir.EntryPointSig records.
//
// The surface lives under a top-level "entrypoint" struct. Each field is
// one entry point with a required purpose, an args struct in call order,
// and a returns type:
//
//	entrypoint: sumAsI64: {
//		purpose: "Adds two signed 64-bit integers"
//		args: { a: int, b: int }
//		returns: int
//	}
//
// CUE kinds map to type tags: int is i64, float and number are f64,
// [...number] is f64[], string is string. A struct returns value becomes an
// object shape with fields in declaration order.
package compiler
