package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalIRValueNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected IRValue
	}{
		{"small int", "5", IRInt(5)},
		{"negative int", "-7", IRInt(-7)},
		{"max int64", "9223372036854775807", IRInt(9223372036854775807)},
		{"fraction", "1.5", IRFloat(1.5)},
		{"integral float literal", "3.0", IRFloat(3)},
		{"exponent", "1e3", IRFloat(1000)},
		{"beyond int64 becomes float", "9223372036854775808", IRFloat(9223372036854775808)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestUnmarshalIRValueStructures(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"data":[1,2.5,"x",true],"name":"sum"}`))
	require.NoError(t, err)

	obj, ok := v.(IRObject)
	require.True(t, ok)
	assert.Equal(t, IRString("sum"), obj["name"])
	assert.Equal(t, IRArray{IRInt(1), IRFloat(2.5), IRString("x"), IRBool(true)}, obj["data"])
}

func TestUnmarshalIRValueRejectsNull(t *testing.T) {
	_, err := UnmarshalIRValue([]byte(`null`))
	require.Error(t, err)

	_, err = UnmarshalIRValue([]byte(`{"a":null}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object["a"]`)
}

func TestUnmarshalIRValueRejectsTrailingData(t *testing.T) {
	_, err := UnmarshalIRValue([]byte(`1 2`))
	require.Error(t, err)
}

func TestUnmarshalIRValueFloatOverflow(t *testing.T) {
	_, err := UnmarshalIRValue([]byte(`1e400`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of float64 range")
}

func TestIRObjectUnmarshalJSON(t *testing.T) {
	var obj IRObject
	require.NoError(t, json.Unmarshal([]byte(`{"a":2,"b":3}`), &obj))
	assert.Equal(t, IRObject{"a": IRInt(2), "b": IRInt(3)}, obj)

	err := json.Unmarshal([]byte(`[1]`), &obj)
	require.Error(t, err)
}

func TestIRArrayUnmarshalJSON(t *testing.T) {
	var arr IRArray
	require.NoError(t, json.Unmarshal([]byte(`[1.5,2]`), &arr))
	assert.Equal(t, IRArray{IRFloat(1.5), IRInt(2)}, arr)
}

func TestMarshalIRValue(t *testing.T) {
	obj := IRObject{"result": IRFloat(3), "nanos": IRString("1200")}

	data, err := MarshalIRValue(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"nanos":"1200","result":3}`, string(data))
}

func TestMarshalIRValueNonFinite(t *testing.T) {
	data, err := MarshalIRValue(IRArray{IRFloat(1), IRFloat(nan()), IRFloat(math.Inf(1)), IRFloat(math.Inf(-1))})
	require.NoError(t, err)
	assert.Equal(t, `[1,{"$float":"NaN"},{"$float":"Infinity"},{"$float":"-Infinity"}]`, string(data))
}

func TestUnmarshalIRValueNonFinite(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"data":[1,{"$float":"NaN"},{"$float":"-Infinity"}]}`))
	require.NoError(t, err)

	data := v.(IRObject)["data"].(IRArray)
	require.Len(t, data, 3)
	assert.Equal(t, IRInt(1), data[0])
	assert.True(t, math.IsNaN(float64(data[1].(IRFloat))))
	assert.True(t, math.IsInf(float64(data[2].(IRFloat)), -1))
}

func TestUnmarshalIRValueNonFiniteShapeIsExact(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown token", `{"$float":"inf"}`},
		{"extra key", `{"$float":"NaN","x":1}`},
		{"number token", `{"$float":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.IsType(t, IRObject{}, v)
		})
	}
}

func TestNonFiniteRoundTrip(t *testing.T) {
	for _, f := range []float64{math.Inf(1), math.Inf(-1)} {
		data, err := MarshalIRValue(IRFloat(f))
		require.NoError(t, err)
		v, err := UnmarshalIRValue(data)
		require.NoError(t, err)
		assert.Equal(t, IRFloat(f), v)
	}
}

func TestFormatText(t *testing.T) {
	tests := []struct {
		name  string
		input IRValue
		want  string
	}{
		{"finite", IRFloat(7.5), "7.5"},
		{"nan", IRFloat(nan()), "NaN"},
		{"inf", IRFloat(math.Inf(1)), "Infinity"},
		{"timing object", IRObject{"result": IRFloat(math.Inf(-1)), "nanos": IRString("12")}, `{"nanos":"12","result":-Infinity}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONMarshalThroughInterfaces(t *testing.T) {
	data, err := json.Marshal(map[string]any{"v": NewIRFloatArray([]float64{1.5, 2})})
	require.NoError(t, err)
	assert.Equal(t, `{"v":[1.5,2]}`, string(data))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "null", KindOf(nil))
	assert.Equal(t, "null", KindOf(IRNull{}))
	assert.Equal(t, "int", KindOf(IRInt(1)))
	assert.Equal(t, "float", KindOf(IRFloat(1)))
	assert.Equal(t, "string", KindOf(IRString("")))
	assert.Equal(t, "bool", KindOf(IRBool(true)))
	assert.Equal(t, "array", KindOf(IRArray{}))
	assert.Equal(t, "object", KindOf(IRObject{}))
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as the surrogate pair D83D DE00, which sorts before
	// U+FFFD in UTF-16 order but after it in UTF-8 byte order.
	obj := IRObject{
		"\uFFFD":     IRInt(1),
		"\U0001F600": IRInt(2),
		"a":          IRInt(3),
	}
	assert.Equal(t, []string{"a", "\U0001F600", "\uFFFD"}, obj.SortedKeys())
}
