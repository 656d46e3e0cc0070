// Package convert is the marshalling layer between host values and the
// native types the boundary operations take.
//
// Host → native conversion either yields a well-typed, range-valid native
// value or a *ConversionError; the boundary operations never see anything
// else. Native → host conversion cannot fail.
package convert

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/ffibench/internal/boundary"
	"github.com/roach88/ffibench/internal/ir"
)

// ErrConversion matches every *ConversionError via errors.Is.
var ErrConversion = errors.New("conversion failed")

// ConversionError reports a host value that cannot become the native type
// an entry point expects.
type ConversionError struct {
	Path   string // argument path, e.g. "data[3]"
	Want   string // native type tag, e.g. ir.TypeI64
	Got    string // host kind, see ir.KindOf
	Reason string // optional detail
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %s to %s", e.Got, e.Want)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target is ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// Int64 converts a host number to int64.
// Integral floats inside the int64 range are accepted because hosts with a
// single number type cannot tell 3 from 3.0.
func Int64(v ir.IRValue) (int64, error) {
	switch n := v.(type) {
	case ir.IRInt:
		return int64(n), nil
	case ir.IRFloat:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &ConversionError{Want: ir.TypeI64, Got: ir.KindOf(v), Reason: "not finite"}
		}
		if f != math.Trunc(f) {
			return 0, &ConversionError{Want: ir.TypeI64, Got: ir.KindOf(v), Reason: fmt.Sprintf("%v has a fractional part", f)}
		}
		// -2^63 is exact in float64; 2^63 is the first value out of range.
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, &ConversionError{Want: ir.TypeI64, Got: ir.KindOf(v), Reason: fmt.Sprintf("%v is out of range", f)}
		}
		return int64(f), nil
	default:
		return 0, &ConversionError{Want: ir.TypeI64, Got: ir.KindOf(v)}
	}
}

// Float64 converts a host number to float64.
func Float64(v ir.IRValue) (float64, error) {
	switch n := v.(type) {
	case ir.IRFloat:
		return float64(n), nil
	case ir.IRInt:
		return float64(n), nil
	default:
		return 0, &ConversionError{Want: ir.TypeF64, Got: ir.KindOf(v)}
	}
}

// Float64Slice converts a host array of numbers to []float64, preserving order.
// An empty array yields an empty, non-nil slice.
func Float64Slice(v ir.IRValue) ([]float64, error) {
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, &ConversionError{Want: ir.TypeF64Array, Got: ir.KindOf(v)}
	}

	out := make([]float64, len(arr))
	for i, elem := range arr {
		f, err := Float64(elem)
		if err != nil {
			return nil, withPath(err, fmt.Sprintf("[%d]", i))
		}
		out[i] = f
	}
	return out, nil
}

// FromInt64 converts a native int64 result to a host value.
func FromInt64(n int64) ir.IRValue {
	return ir.IRInt(n)
}

// FromFloat64 converts a native float64 result to a host value.
func FromFloat64(f float64) ir.IRValue {
	return ir.IRFloat(f)
}

// FromTimingResult converts a TimingResult to a host object
// {result: float, nanos: string}.
func FromTimingResult(r boundary.TimingResult) ir.IRValue {
	return ir.IRObject{
		"result": ir.IRFloat(r.Result),
		"nanos":  ir.IRString(r.Nanos),
	}
}

// WithPath prefixes the path of a *ConversionError with name.
// Other errors are returned unchanged.
func WithPath(err error, name string) error {
	return withPath(err, name)
}

func withPath(err error, prefix string) error {
	var ce *ConversionError
	if !errors.As(err, &ce) {
		return err
	}
	out := *ce
	out.Path = prefix + out.Path
	return &out
}
