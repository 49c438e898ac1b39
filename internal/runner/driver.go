package runner

import (
	"github.com/gomlx/goptx/cuda"
)

// Driver is the subset of the CUDA driver API a run is sequenced against.
//
// CUDA returns the implementation backed by the real driver; tests use a fake one.
type Driver interface {
	Init() error
	DeviceGet(ordinal int) (cuda.Device, error)
	CtxCreate(device cuda.Device) (*cuda.Context, error)
	ModuleLoad(fileName string) (*cuda.Module, error)
	ModuleLoadData(image []byte) (*cuda.Module, error)
	ModuleGetFunction(module *cuda.Module, name string) (*cuda.Function, error)
	MemAlloc(bytes int) (cuda.DevicePtr, error)
	MemcpyHtoD(dst cuda.DevicePtr, src []byte) error
	MemcpyDtoH(dst []byte, src cuda.DevicePtr) error
	LaunchKernel(function *cuda.Function, grid, block cuda.Dim3, sharedMemBytes int, args ...any) error
}

// CUDA returns the Driver backed by the CUDA driver library.
func CUDA() Driver {
	return cudaDriver{}
}

type cudaDriver struct{}

var _ Driver = cudaDriver{}

func (cudaDriver) Init() error {
	return cuda.Init()
}

func (cudaDriver) DeviceGet(ordinal int) (cuda.Device, error) {
	return cuda.DeviceGet(ordinal)
}

func (cudaDriver) CtxCreate(device cuda.Device) (*cuda.Context, error) {
	return cuda.CtxCreate(0, device)
}

func (cudaDriver) ModuleLoad(fileName string) (*cuda.Module, error) {
	return cuda.ModuleLoad(fileName)
}

func (cudaDriver) ModuleLoadData(image []byte) (*cuda.Module, error) {
	return cuda.ModuleLoadData(image)
}

func (cudaDriver) ModuleGetFunction(module *cuda.Module, name string) (*cuda.Function, error) {
	return module.GetFunction(name)
}

func (cudaDriver) MemAlloc(bytes int) (cuda.DevicePtr, error) {
	return cuda.MemAlloc(bytes)
}

func (cudaDriver) MemcpyHtoD(dst cuda.DevicePtr, src []byte) error {
	return cuda.MemcpyHtoD(dst, src)
}

func (cudaDriver) MemcpyDtoH(dst []byte, src cuda.DevicePtr) error {
	return cuda.MemcpyDtoH(dst, src)
}

func (cudaDriver) LaunchKernel(function *cuda.Function, grid, block cuda.Dim3, sharedMemBytes int, args ...any) error {
	return cuda.LaunchKernel(function, grid, block, sharedMemBytes, args...)
}
