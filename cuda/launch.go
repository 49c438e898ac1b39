package cuda

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Dim3 is the shape of a grid (in blocks) or of a block (in threads) for a kernel launch.
type Dim3 struct {
	X, Y, Z int
}

// D3 returns a Dim3 with the given dimensions. Missing dimensions default to 1.
func D3(dims ...int) Dim3 {
	d := Dim3{X: 1, Y: 1, Z: 1}
	if len(dims) > 0 {
		d.X = dims[0]
	}
	if len(dims) > 1 {
		d.Y = dims[1]
	}
	if len(dims) > 2 {
		d.Z = dims[2]
	}
	return d
}

// Size returns the number of elements (blocks or threads) in the shape.
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// String implements fmt.Stringer.
func (d Dim3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", d.X, d.Y, d.Z)
}

// Validate returns an error if any of the dimensions is not positive or doesn't fit an unsigned 32 bits integer.
func (d Dim3) Validate() error {
	for _, v := range []int{d.X, d.Y, d.Z} {
		if v < 1 || int64(v) > math.MaxUint32 {
			return errors.Errorf("invalid dimensions %s: all axes must be in [1, 2^32)", d)
		}
	}
	return nil
}

// LaunchKernel launches function on the default stream of the current context, with the given grid of blocks,
// block of threads, dynamic shared memory and arguments.
//
// The arguments are passed by value, in order, and must match the kernel parameters. Supported types are
// DevicePtr, int32, uint32, int64, uint64, float32 and float64. An unsupported type fails before the driver
// is called.
//
// The launch is asynchronous: use Context.Synchronize, or a blocking copy from the device, to wait for it.
func LaunchKernel(function *Function, grid, block Dim3, sharedMemBytes int, args ...any) error {
	if err := grid.Validate(); err != nil {
		return errors.WithMessagef(err, "cuLaunchKernel(%s): grid", function.name)
	}
	if err := block.Validate(); err != nil {
		return errors.WithMessagef(err, "cuLaunchKernel(%s): block", function.name)
	}
	if sharedMemBytes < 0 {
		return errors.Errorf("cuLaunchKernel(%s): negative shared memory size %d", function.name, sharedMemBytes)
	}
	if function.module == nil || function.module.module == nil {
		return errors.Errorf("cuLaunchKernel(%s): module not loaded", function.name)
	}
	params, err := encodeKernelArgs(args)
	if err != nil {
		return errors.WithMessagef(err, "cuLaunchKernel(%s)", function.name)
	}
	klog.V(2).Infof("cuLaunchKernel(%s, grid=%s, block=%s, sharedMem=%d, %d args)", function.name, grid, block, sharedMemBytes, len(args))
	return toError(cuLaunchKernel(function.function, grid, block, sharedMemBytes, params),
		"cuLaunchKernel(%s, grid=%s, block=%s)", function.name, grid, block)
}

// encodeKernelArgs converts each argument to its little-endian in-memory representation, as the kernel
// expects it in its parameter space.
func encodeKernelArgs(args []any) ([][]byte, error) {
	params := make([][]byte, len(args))
	for ii, arg := range args {
		var buf []byte
		switch v := arg.(type) {
		case DevicePtr:
			buf = binary.LittleEndian.AppendUint64(nil, uint64(v))
		case int32:
			buf = binary.LittleEndian.AppendUint32(nil, uint32(v))
		case uint32:
			buf = binary.LittleEndian.AppendUint32(nil, v)
		case int64:
			buf = binary.LittleEndian.AppendUint64(nil, uint64(v))
		case uint64:
			buf = binary.LittleEndian.AppendUint64(nil, v)
		case float32:
			buf = binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))
		case float64:
			buf = binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
		default:
			return nil, errors.Errorf("kernel argument #%d has unsupported type %T", ii, arg)
		}
		params[ii] = buf
	}
	return params, nil
}
