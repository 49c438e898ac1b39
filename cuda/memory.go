package cuda

import (
	"fmt"
	"unsafe"

	"github.com/gomlx/goptx/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DevicePtr is the address of linear memory on the device, allocated with MemAlloc.
//
// It can be passed directly as a kernel argument to LaunchKernel.
type DevicePtr uint64

// String implements fmt.Stringer.
func (p DevicePtr) String() string {
	return fmt.Sprintf("DevicePtr(0x%x)", uint64(p))
}

// MemAlloc allocates bytes of linear memory on the device of the current context.
//
// The memory is not freed automatically: call DevicePtr.Free, or it lives until the process exits.
func MemAlloc(bytes int) (DevicePtr, error) {
	if bytes <= 0 {
		return 0, errors.Errorf("cuMemAlloc(%d bytes): size must be positive", bytes)
	}
	var ptr DevicePtr
	if err := toError(cuMemAlloc(&ptr, bytes), "cuMemAlloc(%d bytes)", bytes); err != nil {
		return 0, err
	}
	klog.V(2).Infof("cuMemAlloc(%d bytes) -> %s", bytes, ptr)
	return ptr, nil
}

// Free the device memory.
func (p DevicePtr) Free() error {
	return toError(cuMemFree(p), "cuMemFree(%s)", p)
}

// MemcpyHtoD copies src from host memory to the device memory at dst. It blocks until the copy is done.
func MemcpyHtoD(dst DevicePtr, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	klog.V(2).Infof("cuMemcpyHtoD(%s, %d bytes)", dst, len(src))
	return toError(cuMemcpyHtoD(dst, src), "cuMemcpyHtoD(%s, %d bytes)", dst, len(src))
}

// MemcpyDtoH copies len(dst) bytes from the device memory at src to host memory. It blocks until the copy is done.
func MemcpyDtoH(dst []byte, src DevicePtr) error {
	if len(dst) == 0 {
		return nil
	}
	klog.V(2).Infof("cuMemcpyDtoH(%s, %d bytes)", src, len(dst))
	return toError(cuMemcpyDtoH(dst, src), "cuMemcpyDtoH(%s, %d bytes)", src, len(dst))
}

// CopyToDevice copies the flat slice to the device memory at dst.
func CopyToDevice[T dtypes.Supported](dst DevicePtr, flat []T) error {
	return MemcpyHtoD(dst, dtypes.Bytes(flat))
}

// CopyFromDevice fills the flat slice with values copied from the device memory at src.
func CopyFromDevice[T dtypes.Supported](flat []T, src DevicePtr) error {
	return MemcpyDtoH(dtypes.Bytes(flat), src)
}

// AllocFor allocates device memory with the exact size (in bytes) of the flat slice.
func AllocFor[T dtypes.Supported](flat []T) (DevicePtr, error) {
	var t T
	return MemAlloc(len(flat) * int(unsafe.Sizeof(t)))
}
