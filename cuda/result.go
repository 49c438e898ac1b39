package cuda

import (
	"fmt"

	"github.com/pkg/errors"
)

// Result represents the CUresult code returned by every CUDA driver call.
//
// A Result other than SUCCESS is a valid error, so one can test returned errors with errors.Is, e.g.:
//
//	if errors.Is(err, cuda.ERROR_INVALID_PTX) { ... }
type Result int32

const (
	SUCCESS                              Result = 0
	ERROR_INVALID_VALUE                  Result = 1
	ERROR_OUT_OF_MEMORY                  Result = 2
	ERROR_NOT_INITIALIZED                Result = 3
	ERROR_DEINITIALIZED                  Result = 4
	ERROR_NO_DEVICE                      Result = 100
	ERROR_INVALID_DEVICE                 Result = 101
	ERROR_INVALID_IMAGE                  Result = 200
	ERROR_INVALID_CONTEXT                Result = 201
	ERROR_NO_BINARY_FOR_GPU              Result = 209
	ERROR_UNSUPPORTED_PTX_VERSION        Result = 222
	ERROR_INVALID_PTX                    Result = 218
	ERROR_JIT_COMPILER_NOT_FOUND         Result = 221
	ERROR_INVALID_SOURCE                 Result = 300
	ERROR_FILE_NOT_FOUND                 Result = 301
	ERROR_SHARED_OBJECT_SYMBOL_NOT_FOUND Result = 302
	ERROR_SHARED_OBJECT_INIT_FAILED      Result = 303
	ERROR_OPERATING_SYSTEM               Result = 304
	ERROR_INVALID_HANDLE                 Result = 400
	ERROR_NOT_FOUND                      Result = 500
	ERROR_NOT_READY                      Result = 600
	ERROR_ILLEGAL_ADDRESS                Result = 700
	ERROR_LAUNCH_OUT_OF_RESOURCES        Result = 701
	ERROR_LAUNCH_TIMEOUT                 Result = 702
	ERROR_CONTEXT_IS_DESTROYED           Result = 709
	ERROR_ASSERT                         Result = 710
	ERROR_ILLEGAL_INSTRUCTION            Result = 715
	ERROR_MISALIGNED_ADDRESS             Result = 716
	ERROR_LAUNCH_FAILED                  Result = 719
	ERROR_NOT_PERMITTED                  Result = 800
	ERROR_NOT_SUPPORTED                  Result = 801
	ERROR_UNKNOWN                        Result = 999
)

var resultNames = map[Result]string{
	SUCCESS:                              "CUDA_SUCCESS",
	ERROR_INVALID_VALUE:                  "CUDA_ERROR_INVALID_VALUE",
	ERROR_OUT_OF_MEMORY:                  "CUDA_ERROR_OUT_OF_MEMORY",
	ERROR_NOT_INITIALIZED:                "CUDA_ERROR_NOT_INITIALIZED",
	ERROR_DEINITIALIZED:                  "CUDA_ERROR_DEINITIALIZED",
	ERROR_NO_DEVICE:                      "CUDA_ERROR_NO_DEVICE",
	ERROR_INVALID_DEVICE:                 "CUDA_ERROR_INVALID_DEVICE",
	ERROR_INVALID_IMAGE:                  "CUDA_ERROR_INVALID_IMAGE",
	ERROR_INVALID_CONTEXT:                "CUDA_ERROR_INVALID_CONTEXT",
	ERROR_NO_BINARY_FOR_GPU:              "CUDA_ERROR_NO_BINARY_FOR_GPU",
	ERROR_UNSUPPORTED_PTX_VERSION:        "CUDA_ERROR_UNSUPPORTED_PTX_VERSION",
	ERROR_INVALID_PTX:                    "CUDA_ERROR_INVALID_PTX",
	ERROR_JIT_COMPILER_NOT_FOUND:         "CUDA_ERROR_JIT_COMPILER_NOT_FOUND",
	ERROR_INVALID_SOURCE:                 "CUDA_ERROR_INVALID_SOURCE",
	ERROR_FILE_NOT_FOUND:                 "CUDA_ERROR_FILE_NOT_FOUND",
	ERROR_SHARED_OBJECT_SYMBOL_NOT_FOUND: "CUDA_ERROR_SHARED_OBJECT_SYMBOL_NOT_FOUND",
	ERROR_SHARED_OBJECT_INIT_FAILED:      "CUDA_ERROR_SHARED_OBJECT_INIT_FAILED",
	ERROR_OPERATING_SYSTEM:               "CUDA_ERROR_OPERATING_SYSTEM",
	ERROR_INVALID_HANDLE:                 "CUDA_ERROR_INVALID_HANDLE",
	ERROR_NOT_FOUND:                      "CUDA_ERROR_NOT_FOUND",
	ERROR_NOT_READY:                      "CUDA_ERROR_NOT_READY",
	ERROR_ILLEGAL_ADDRESS:                "CUDA_ERROR_ILLEGAL_ADDRESS",
	ERROR_LAUNCH_OUT_OF_RESOURCES:        "CUDA_ERROR_LAUNCH_OUT_OF_RESOURCES",
	ERROR_LAUNCH_TIMEOUT:                 "CUDA_ERROR_LAUNCH_TIMEOUT",
	ERROR_CONTEXT_IS_DESTROYED:           "CUDA_ERROR_CONTEXT_IS_DESTROYED",
	ERROR_ASSERT:                         "CUDA_ERROR_ASSERT",
	ERROR_ILLEGAL_INSTRUCTION:            "CUDA_ERROR_ILLEGAL_INSTRUCTION",
	ERROR_MISALIGNED_ADDRESS:             "CUDA_ERROR_MISALIGNED_ADDRESS",
	ERROR_LAUNCH_FAILED:                  "CUDA_ERROR_LAUNCH_FAILED",
	ERROR_NOT_PERMITTED:                  "CUDA_ERROR_NOT_PERMITTED",
	ERROR_NOT_SUPPORTED:                  "CUDA_ERROR_NOT_SUPPORTED",
	ERROR_UNKNOWN:                        "CUDA_ERROR_UNKNOWN",
}

// String returns the name of the result as in cuda.h, e.g. "CUDA_ERROR_INVALID_PTX".
func (r Result) String() string {
	if name, found := resultNames[r]; found {
		return name
	}
	return fmt.Sprintf("CUresult(%d)", int32(r))
}

// Error implements the error interface.
func (r Result) Error() string {
	return fmt.Sprintf("%s (code=%d)", r.String(), int32(r))
}

// toError converts a Result to a Go error with a stack trace (see github.com/pkg/errors package), annotated
// with the driver call that returned it. It returns nil for SUCCESS.
func toError(r Result, call string, args ...any) error {
	if r == SUCCESS {
		return nil
	}
	return errors.Wrapf(r, call, args...)
}
