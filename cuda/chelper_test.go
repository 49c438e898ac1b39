package cuda

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestCHelpers(t *testing.T) {
	image := cBytesZ([]byte("ptx"))
	require.Equal(t, []byte{'p', 't', 'x', 0}, unsafe.Slice(image, 4))
	cFree(image)

	squares := cMallocArrayAndSet(5, func(i int) int64 { return int64(i * i) })
	require.Equal(t, []int64{0, 1, 4, 9, 16}, unsafe.Slice(squares, 5))
	cFree(squares)
}
