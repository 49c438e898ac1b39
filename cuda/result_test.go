package cuda

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	require.Equal(t, "CUDA_ERROR_INVALID_PTX", ERROR_INVALID_PTX.String())
	require.Equal(t, "CUDA_ERROR_INVALID_PTX (code=218)", ERROR_INVALID_PTX.Error())
	require.Equal(t, "CUresult(12345)", Result(12345).String())
	require.Equal(t, "CUresult(12345) (code=12345)", Result(12345).Error())

	// Formatting as an error goes through Error, which must not format itself.
	var err error = ERROR_INVALID_PTX
	require.Equal(t, "CUDA_ERROR_INVALID_PTX (code=218)", fmt.Sprintf("%v", err))
	require.Equal(t, "CUDA_ERROR_INVALID_PTX (code=218)", fmt.Sprintf("%s", ERROR_INVALID_PTX))
}

func TestToError(t *testing.T) {
	require.NoError(t, toError(SUCCESS, "cuInit(%d)", 0))

	err := toError(ERROR_FILE_NOT_FOUND, "cuModuleLoad(%q)", "b.ptx")
	require.Error(t, err)
	require.ErrorIs(t, err, ERROR_FILE_NOT_FOUND)
	require.Equal(t, `cuModuleLoad("b.ptx"): CUDA_ERROR_FILE_NOT_FOUND (code=301)`, err.Error())

	var result Result
	require.True(t, errors.As(err, &result))
	require.Equal(t, ERROR_FILE_NOT_FOUND, result)
	require.Equal(t, ERROR_FILE_NOT_FOUND, errors.Cause(err))
	require.Contains(t, fmt.Sprintf("%+v", err), "CUDA_ERROR_FILE_NOT_FOUND (code=301)")
}
