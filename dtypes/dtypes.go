// Package dtypes defines the element types of host and device buffers exchanged with kernels.
package dtypes

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// DType is the element type of a buffer.
type DType int

const (
	// Invalid represents an invalid (or not set) dtype.
	Invalid DType = iota
	Int32
	Int64
	Uint32
	Uint64
	Float16
	Float32
	Float64
)

var dtypeNames = map[DType]string{
	Invalid: "invalid",
	Int32:   "int32",
	Int64:   "int64",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float16: "float16",
	Float32: "float32",
	Float64: "float64",
}

// MapOfNames maps the names and common aliases (lower-case) of the dtypes to their values.
//
// The C aliases assume an LP64 platform (long is 64 bits), which is what the CUDA driver supports on Linux.
var MapOfNames = map[string]DType{
	"int32": Int32, "i32": Int32, "s32": Int32, "int": Int32,
	"int64": Int64, "i64": Int64, "s64": Int64, "long": Int64,
	"uint32": Uint32, "u32": Uint32, "uint": Uint32,
	"uint64": Uint64, "u64": Uint64, "ulong": Uint64,
	"float16": Float16, "f16": Float16, "half": Float16,
	"float32": Float32, "f32": Float32, "float": Float32,
	"float64": Float64, "f64": Float64, "double": Float64,
}

// FromName returns the DType for the given name or alias, case-insensitive.
func FromName(name string) (DType, error) {
	dtype, found := MapOfNames[strings.ToLower(strings.TrimSpace(name))]
	if !found {
		return Invalid, errors.Errorf("unknown dtype %q", name)
	}
	return dtype, nil
}

// String implements fmt.Stringer.
func (dtype DType) String() string {
	if name, found := dtypeNames[dtype]; found {
		return name
	}
	return "DType(" + strconv.Itoa(int(dtype)) + ")"
}

// Size returns the number of bytes of one element of the dtype, or 0 for Invalid.
func (dtype DType) Size() int {
	switch dtype {
	case Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// IsFloat returns whether dtype is a floating point type.
func (dtype DType) IsFloat() bool {
	return dtype == Float16 || dtype == Float32 || dtype == Float64
}

// Supported lists the Go types that can be copied to and from device buffers.
type Supported interface {
	int32 | int64 | uint32 | uint64 | float16.Float16 | float32 | float64
}

// FromGenericsType returns the DType corresponding to the Go type T.
func FromGenericsType[T Supported]() DType {
	var t T
	switch any(t).(type) {
	case int32:
		return Int32
	case int64:
		return Int64
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float16.Float16:
		return Float16
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Invalid
}

// Bytes returns a view of the slice as raw bytes. No data is copied, and the returned slice aliases flat.
func Bytes[T Supported](flat []T) []byte {
	if len(flat) == 0 {
		return nil
	}
	var t T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(flat))), len(flat)*int(unsafe.Sizeof(t)))
}

// Encode writes value into the element at index of the little-endian buffer data.
//
// Integer dtypes require value to be integral and within the dtype's range; float16 values are rounded to the
// nearest representable value.
func Encode(dtype DType, data []byte, index int, value float64) error {
	size := dtype.Size()
	if size == 0 {
		return errors.Errorf("cannot encode value into buffer of dtype %s", dtype)
	}
	if index < 0 || (index+1)*size > len(data) {
		return errors.Errorf("index %d out of range for %s buffer with %d elements", index, dtype, len(data)/size)
	}
	if !dtype.IsFloat() && value != math.Trunc(value) {
		return errors.Errorf("value %g is not integral, it can't be stored as %s", value, dtype)
	}
	if lower, upper, bounded := intRange(dtype); bounded && (value < lower || value >= upper) {
		return errors.Errorf("value %g is out of the range of %s", value, dtype)
	}
	elem := data[index*size : (index+1)*size]
	switch dtype {
	case Int32:
		binary.LittleEndian.PutUint32(elem, uint32(int32(value)))
	case Uint32:
		binary.LittleEndian.PutUint32(elem, uint32(value))
	case Int64:
		binary.LittleEndian.PutUint64(elem, uint64(int64(value)))
	case Uint64:
		binary.LittleEndian.PutUint64(elem, uint64(value))
	case Float16:
		binary.LittleEndian.PutUint16(elem, float16.Fromfloat32(float32(value)).Bits())
	case Float32:
		binary.LittleEndian.PutUint32(elem, math.Float32bits(float32(value)))
	case Float64:
		binary.LittleEndian.PutUint64(elem, math.Float64bits(value))
	}
	return nil
}

// intRange returns the half-open range [lower, upper) of values representable by an integer dtype.
// Bounds are powers of 2, exact as float64.
func intRange(dtype DType) (lower, upper float64, bounded bool) {
	switch dtype {
	case Int32:
		return math.MinInt32, 0x1p31, true
	case Uint32:
		return 0, 0x1p32, true
	case Int64:
		return math.MinInt64, 0x1p63, true
	case Uint64:
		return 0, 0x1p64, true
	}
	return 0, 0, false
}

// Format returns the textual representation of the element at index of the little-endian buffer data.
// Integers are formatted in decimal, floats with the shortest representation that round-trips.
func Format(dtype DType, data []byte, index int) (string, error) {
	size := dtype.Size()
	if size == 0 {
		return "", errors.Errorf("cannot format value from buffer of dtype %s", dtype)
	}
	if index < 0 || (index+1)*size > len(data) {
		return "", errors.Errorf("index %d out of range for %s buffer with %d elements", index, dtype, len(data)/size)
	}
	elem := data[index*size : (index+1)*size]
	switch dtype {
	case Int32:
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(elem))), 10), nil
	case Uint32:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(elem)), 10), nil
	case Int64:
		return strconv.FormatInt(int64(binary.LittleEndian.Uint64(elem)), 10), nil
	case Uint64:
		return strconv.FormatUint(binary.LittleEndian.Uint64(elem), 10), nil
	case Float16:
		f := float16.Frombits(binary.LittleEndian.Uint16(elem)).Float32()
		return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
	case Float32:
		return strconv.FormatFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(elem))), 'g', -1, 32), nil
	default:
		return strconv.FormatFloat(math.Float64frombits(binary.LittleEndian.Uint64(elem)), 'g', -1, 64), nil
	}
}
