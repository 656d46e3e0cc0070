// Package engine dispatches boundary calls.
//
// An Engine binds the compiled call surface (see package compiler) to the
// native operations in package boundary. Invoke runs one boundary call end
// to end:
//
//  1. stamp the call with a logical seq and a flow token
//  2. convert host arguments to native types per the entry point signature
//  3. run the native operation
//  4. convert the native result back to a host value
//  5. log the call and hand the record to the Recorder, if any
//
// A conversion failure stops the call at step 2; the native operation never
// runs. Arithmetic edge cases (overflow, NaN, Inf) are not errors.
//
// Thread-safety: an Engine is immutable after New and safe for concurrent
// use. Seq numbers come from an atomic clock and the native operations
// share no state.
package engine
