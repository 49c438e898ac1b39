package cuda

// This file holds all the cgo calls into the CUDA driver API.
//
// The symbols are declared here instead of including cuda.h, so the package builds without the CUDA toolkit
// installed. They are left unresolved at link time and bound lazily to the library opened (RTLD_GLOBAL)
// by loadDriver, which must succeed before any of the functions below is called.

/*
#cgo linux LDFLAGS: -Wl,--unresolved-symbols=ignore-in-object-files
#include <stdlib.h>
#include <stddef.h>

typedef int CUresult;
typedef int CUdevice;
typedef unsigned long long CUdeviceptr;
typedef struct CUctx_st *CUcontext;
typedef struct CUmod_st *CUmodule;
typedef struct CUfunc_st *CUfunction;
typedef struct CUstream_st *CUstream;

CUresult cuInit(unsigned int Flags);
CUresult cuDriverGetVersion(int *driverVersion);
CUresult cuDeviceGetCount(int *count);
CUresult cuDeviceGet(CUdevice *device, int ordinal);
CUresult cuDeviceGetName(char *name, int len, CUdevice dev);
CUresult cuDeviceTotalMem_v2(size_t *bytes, CUdevice dev);
CUresult cuDeviceGetAttribute(int *pi, int attrib, CUdevice dev);
CUresult cuCtxCreate_v2(CUcontext *pctx, unsigned int flags, CUdevice dev);
CUresult cuCtxDestroy_v2(CUcontext ctx);
CUresult cuCtxSynchronize(void);
CUresult cuModuleLoad(CUmodule *module, const char *fname);
CUresult cuModuleLoadData(CUmodule *module, const void *image);
CUresult cuModuleUnload(CUmodule hmod);
CUresult cuModuleGetFunction(CUfunction *hfunc, CUmodule hmod, const char *name);
CUresult cuMemAlloc_v2(CUdeviceptr *dptr, size_t bytesize);
CUresult cuMemFree_v2(CUdeviceptr dptr);
CUresult cuMemcpyHtoD_v2(CUdeviceptr dstDevice, const void *srcHost, size_t ByteCount);
CUresult cuMemcpyDtoH_v2(void *dstHost, CUdeviceptr srcDevice, size_t ByteCount);
CUresult cuLaunchKernel(CUfunction f,
		unsigned int gridDimX, unsigned int gridDimY, unsigned int gridDimZ,
		unsigned int blockDimX, unsigned int blockDimY, unsigned int blockDimZ,
		unsigned int sharedMemBytes, CUstream hStream, void **kernelParams, void **extra);
*/
import "C"
import (
	"unsafe"
)

// requiredSymbols are checked for presence when the driver library is opened.
var requiredSymbols = []string{
	"cuInit", "cuDriverGetVersion", "cuDeviceGetCount", "cuDeviceGet", "cuDeviceGetName", "cuDeviceTotalMem_v2",
	"cuDeviceGetAttribute", "cuCtxCreate_v2", "cuCtxDestroy_v2", "cuCtxSynchronize", "cuModuleLoad",
	"cuModuleLoadData", "cuModuleUnload", "cuModuleGetFunction", "cuMemAlloc_v2", "cuMemFree_v2",
	"cuMemcpyHtoD_v2", "cuMemcpyDtoH_v2", "cuLaunchKernel",
}

// Opaque handles, owned by the driver.
type (
	cContext  = C.CUcontext
	cModule   = C.CUmodule
	cFunction = C.CUfunction
)

func cuInit(flags uint32) Result {
	return Result(C.cuInit(C.uint(flags)))
}

func cuDriverGetVersion(version *int32) Result {
	return Result(C.cuDriverGetVersion((*C.int)(unsafe.Pointer(version))))
}

func cuDeviceGetCount(count *int32) Result {
	return Result(C.cuDeviceGetCount((*C.int)(unsafe.Pointer(count))))
}

func cuDeviceGet(device *Device, ordinal int32) Result {
	return Result(C.cuDeviceGet((*C.CUdevice)(unsafe.Pointer(device)), C.int(ordinal)))
}

func cuDeviceGetName(name []byte, dev Device) Result {
	return Result(C.cuDeviceGetName((*C.char)(unsafe.Pointer(&name[0])), C.int(len(name)), C.CUdevice(dev)))
}

func cuDeviceTotalMem(bytes *uint64, dev Device) Result {
	var cBytes C.size_t
	r := Result(C.cuDeviceTotalMem_v2(&cBytes, C.CUdevice(dev)))
	*bytes = uint64(cBytes)
	return r
}

func cuDeviceGetAttribute(value *int32, attribute DeviceAttribute, dev Device) Result {
	return Result(C.cuDeviceGetAttribute((*C.int)(unsafe.Pointer(value)), C.int(attribute), C.CUdevice(dev)))
}

func cuCtxCreate(ctx *cContext, flags uint32, dev Device) Result {
	return Result(C.cuCtxCreate_v2(ctx, C.uint(flags), C.CUdevice(dev)))
}

func cuCtxDestroy(ctx cContext) Result {
	return Result(C.cuCtxDestroy_v2(ctx))
}

func cuCtxSynchronize() Result {
	return Result(C.cuCtxSynchronize())
}

func cuModuleLoad(module *cModule, fileName string) Result {
	cFileName := C.CString(fileName)
	defer C.free(unsafe.Pointer(cFileName))
	return Result(C.cuModuleLoad(module, cFileName))
}

// cuModuleLoadData copies image to C memory, NUL-terminated, since textual PTX images must be terminated.
func cuModuleLoadData(module *cModule, image []byte) Result {
	cImage := cBytesZ(image)
	defer cFree(cImage)
	return Result(C.cuModuleLoadData(module, unsafe.Pointer(cImage)))
}

func cuModuleUnload(module cModule) Result {
	return Result(C.cuModuleUnload(module))
}

func cuModuleGetFunction(function *cFunction, module cModule, name string) Result {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return Result(C.cuModuleGetFunction(function, module, cName))
}

func cuMemAlloc(ptr *DevicePtr, bytes int) Result {
	var cPtr C.CUdeviceptr
	r := Result(C.cuMemAlloc_v2(&cPtr, C.size_t(bytes)))
	*ptr = DevicePtr(cPtr)
	return r
}

func cuMemFree(ptr DevicePtr) Result {
	return Result(C.cuMemFree_v2(C.CUdeviceptr(ptr)))
}

// cuMemcpyHtoD reads directly from Go memory: src holds no Go pointers, so it can be passed to C during the call.
func cuMemcpyHtoD(dst DevicePtr, src []byte) Result {
	return Result(C.cuMemcpyHtoD_v2(C.CUdeviceptr(dst), unsafe.Pointer(&src[0]), C.size_t(len(src))))
}

func cuMemcpyDtoH(dst []byte, src DevicePtr) Result {
	return Result(C.cuMemcpyDtoH_v2(unsafe.Pointer(&dst[0]), C.CUdeviceptr(src), C.size_t(len(dst))))
}

// cuLaunchKernel launches on the default stream. Each encoded parameter is copied to C memory and kernelParams
// is a C array of pointers to them, as required by the cgo pointer passing rules.
func cuLaunchKernel(function cFunction, grid, block Dim3, sharedMemBytes int, params [][]byte) Result {
	var cParams *unsafe.Pointer
	if len(params) > 0 {
		cParams = cMallocArrayAndSet(len(params), func(ii int) unsafe.Pointer { return C.CBytes(params[ii]) })
		defer func() {
			for _, slot := range unsafe.Slice(cParams, len(params)) {
				C.free(slot)
			}
			cFree(cParams)
		}()
	}
	return Result(C.cuLaunchKernel(function,
		C.uint(grid.X), C.uint(grid.Y), C.uint(grid.Z),
		C.uint(block.X), C.uint(block.Y), C.uint(block.Z),
		C.uint(sharedMemBytes), nil, cParams, nil))
}
