// Command libffisum builds the summation entry points as a C shared library:
//
//	go build -buildmode=c-shared -o libffisum.so ./cmd/libffisum
package main

/*
#include <stdlib.h>
#include <stdint.h>
*/
import "C"
import (
	"unsafe"

	"github.com/roach88/ffibench/internal/boundary"
)

//export SumAsI64
func SumAsI64(a, b C.int64_t) C.int64_t {
	return C.int64_t(boundary.SumAsI64(int64(a), int64(b)))
}

//export SumListOfFloats
func SumListOfFloats(data *C.double, length C.int64_t) C.double {
	return C.double(boundary.SumListOfFloats(floats(data, length)))
}

// SumListOfFloatsWithTiming stores the sum in *result and returns the
// elapsed nanoseconds as a decimal string. The caller releases it with
// FreeCString.
//
//export SumListOfFloatsWithTiming
func SumListOfFloatsWithTiming(data *C.double, length C.int64_t, result *C.double) *C.char {
	tr := boundary.SumListOfFloatsWithTiming(floats(data, length))
	if result != nil {
		*result = C.double(tr.Result)
	}
	return C.CString(tr.Nanos)
}

//export FreeCString
func FreeCString(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// floats views a C array as a Go slice without copying. A nil pointer or a
// length sliceLen rejects is the empty sequence.
func floats(data *C.double, length C.int64_t) []float64 {
	n, ok := sliceLen(int64(length))
	if data == nil || !ok {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(data)), n)
}

func main() {}
