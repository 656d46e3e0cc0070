package convert

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ffibench/internal/boundary"
	"github.com/roach88/ffibench/internal/ir"
)

func TestInt64Accepts(t *testing.T) {
	tests := []struct {
		name     string
		in       ir.IRValue
		expected int64
	}{
		{"int", ir.IRInt(5), 5},
		{"negative int", ir.IRInt(-7), -7},
		{"integral float", ir.IRFloat(3), 3},
		{"negative zero", ir.IRFloat(math.Copysign(0, -1)), 0},
		{"min int64 as float", ir.IRFloat(math.MinInt64), math.MinInt64},
		{"max int64", ir.IRInt(math.MaxInt64), math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Int64(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInt64Rejects(t *testing.T) {
	tests := []struct {
		name   string
		in     ir.IRValue
		reason string
	}{
		{"fraction", ir.IRFloat(1.5), "fractional"},
		{"two to the 63", ir.IRFloat(9223372036854775808), "out of range"},
		{"huge negative", ir.IRFloat(-1e19), "out of range"},
		{"nan", ir.IRFloat(math.NaN()), "not finite"},
		{"inf", ir.IRFloat(math.Inf(1)), "not finite"},
		{"string", ir.IRString("5"), ""},
		{"bool", ir.IRBool(true), ""},
		{"array", ir.IRArray{}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Int64(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConversion))

			var ce *ConversionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, ir.TypeI64, ce.Want)
			assert.Contains(t, ce.Reason, tt.reason)
		})
	}
}

func TestFloat64(t *testing.T) {
	f, err := Float64(ir.IRInt(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)

	f, err = Float64(ir.IRFloat(-0.5))
	require.NoError(t, err)
	assert.Equal(t, -0.5, f)

	_, err = Float64(ir.IRString("1"))
	require.ErrorIs(t, err, ErrConversion)
	assert.EqualError(t, err, "cannot convert string to f64")
}

func TestFloat64Slice(t *testing.T) {
	got, err := Float64Slice(ir.IRArray{ir.IRFloat(1.5), ir.IRInt(2), ir.IRFloat(3)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2, 3}, got)
}

func TestFloat64SliceEmpty(t *testing.T) {
	got, err := Float64Slice(ir.IRArray{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFloat64SliceRejectsNonArray(t *testing.T) {
	_, err := Float64Slice(ir.IRObject{})
	require.ErrorIs(t, err, ErrConversion)
	assert.EqualError(t, err, "cannot convert object to f64[]")
}

func TestFloat64SliceNamesBadIndex(t *testing.T) {
	_, err := Float64Slice(ir.IRArray{ir.IRFloat(1), ir.IRInt(2), ir.IRBool(false)})
	require.Error(t, err)

	err = WithPath(err, "data")
	assert.EqualError(t, err, "data[2]: cannot convert bool to f64")
}

func TestWithPathLeavesOtherErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, WithPath(plain, "x"))
}

func TestFromNative(t *testing.T) {
	assert.Equal(t, ir.IRInt(5), FromInt64(5))
	assert.Equal(t, ir.IRFloat(7), FromFloat64(7))

	v := FromTimingResult(boundary.TimingResult{Result: 3, Nanos: "42"})
	assert.Equal(t, ir.IRObject{"result": ir.IRFloat(3), "nanos": ir.IRString("42")}, v)

	data, err := ir.MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"nanos":"42","result":3}`, string(data))
}
