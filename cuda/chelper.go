package cuda

/*
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"
)

// cgo helpers: Go memory handed to the driver beyond a single call argument is first copied to the C heap.

// cFree calls C.free() on the unsafe.Pointer version of data.
func cFree[T any](data *T) {
	C.free(unsafe.Pointer(data))
}

// cMallocArray allocates space for n zeroed values of T in the C heap. It must be freed with cFree.
func cMallocArray[T any](n int) *T {
	var zero T
	return (*T)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(zero))))
}

// cMallocArrayAndSet allocates space for n values of T in the C heap, and sets element i to setFn(i).
// It must be freed with cFree.
func cMallocArrayAndSet[T any](n int, setFn func(i int) T) *T {
	ptr := cMallocArray[T](n)
	slice := unsafe.Slice(ptr, n)
	for ii := range slice {
		slice[ii] = setFn(ii)
	}
	return ptr
}

// cBytesZ copies data to the C heap followed by a NUL byte. It must be freed with cFree.
func cBytesZ(data []byte) *byte {
	ptr := cMallocArray[byte](len(data) + 1)
	copy(unsafe.Slice(ptr, len(data)), data)
	return ptr
}
