package dtypes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestMapOfNames(t *testing.T) {
	require.Equal(t, Float16, MapOfNames["float16"])
	require.Equal(t, Float16, MapOfNames["f16"])
	require.Equal(t, Float16, MapOfNames["half"])
	require.Equal(t, Int64, MapOfNames["long"])
	require.Equal(t, Int32, MapOfNames["int"])

	dtype, err := FromName(" Float32 ")
	require.NoError(t, err)
	require.Equal(t, Float32, dtype)

	_, err = FromName("bfloat16")
	require.ErrorContains(t, err, "unknown dtype")
}

func TestDType_Size(t *testing.T) {
	require.Equal(t, 0, Invalid.Size())
	require.Equal(t, 2, Float16.Size())
	require.Equal(t, 4, Int32.Size())
	require.Equal(t, 4, Float32.Size())
	require.Equal(t, 8, Int64.Size())
	require.Equal(t, 8, Uint64.Size())
	require.Equal(t, "float64", Float64.String())
	require.Equal(t, "DType(99)", DType(99).String())
}

func TestFromGenericsType(t *testing.T) {
	require.Equal(t, Int32, FromGenericsType[int32]())
	require.Equal(t, Uint64, FromGenericsType[uint64]())
	require.Equal(t, Float16, FromGenericsType[float16.Float16]())
	require.Equal(t, Float64, FromGenericsType[float64]())
}

func TestBytes(t *testing.T) {
	require.Nil(t, Bytes[int32](nil))

	xs := []int32{42, -1}
	raw := Bytes(xs)
	require.Len(t, raw, 8)
	require.Equal(t, []byte{42, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}, raw)

	// Bytes is a view: changes are visible through the original slice.
	raw[0] = 43
	require.Equal(t, int32(43), xs[0])
}

func TestEncodeFormat(t *testing.T) {
	for _, tc := range []struct {
		dtype DType
		value float64
		want  string
	}{
		{Int32, 42, "42"},
		{Int32, -7, "-7"},
		{Uint32, 4294967295, "4294967295"},
		{Int64, -1 << 40, "-1099511627776"},
		{Uint64, 1 << 50, "1125899906842624"},
		{Float16, 1.5, "1.5"},
		{Float32, 0.25, "0.25"},
		{Float64, 3.141592653589793, "3.141592653589793"},
	} {
		data := make([]byte, 3*tc.dtype.Size())
		require.NoError(t, Encode(tc.dtype, data, 2, tc.value))
		got, err := Format(tc.dtype, data, 2)
		require.NoError(t, err)
		require.Equalf(t, tc.want, got, "dtype %s", tc.dtype)

		zero, err := Format(tc.dtype, data, 0)
		require.NoError(t, err)
		require.Equal(t, "0", zero)
	}
}

func TestEncodeErrors(t *testing.T) {
	data := make([]byte, 8)
	require.ErrorContains(t, Encode(Int32, data, 2, 1), "out of range")
	require.ErrorContains(t, Encode(Int32, data, -1, 1), "out of range")
	require.ErrorContains(t, Encode(Int64, data, 0, 1.5), "not integral")
	require.ErrorContains(t, Encode(Invalid, data, 0, 1), "cannot encode")
	require.ErrorContains(t, Encode(Int64, data, 0, math.NaN()), "not integral")

	for _, tc := range []struct {
		dtype DType
		value float64
	}{
		{Int32, 1e10},
		{Int32, 2147483648},
		{Int32, -2147483649},
		{Uint32, -1},
		{Uint32, 4294967296},
		{Int64, 1e300},
		{Int64, 0x1p63},
		{Int64, math.Inf(-1)},
		{Uint64, -5},
		{Uint64, 0x1p64},
	} {
		err := Encode(tc.dtype, data, 0, tc.value)
		require.ErrorContainsf(t, err, "out of the range of "+tc.dtype.String(), "Encode(%s, %g)", tc.dtype, tc.value)
	}
	require.Equal(t, make([]byte, 8), data, "rejected values must not be written")

	for _, tc := range []struct {
		dtype DType
		value float64
		want  string
	}{
		{Int32, 2147483647, "2147483647"},
		{Int32, -2147483648, "-2147483648"},
		{Uint32, 0, "0"},
		{Int64, -0x1p63, "-9223372036854775808"},
		{Uint64, 0x1p63, "9223372036854775808"},
	} {
		require.NoError(t, Encode(tc.dtype, data, 0, tc.value))
		got, err := Format(tc.dtype, data, 0)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
	_, err := Format(Float64, data, 1)
	require.ErrorContains(t, err, "out of range")
}
