package runner

import (
	"encoding/binary"
	"fmt"

	"github.com/gomlx/goptx/cuda"
	"github.com/pkg/errors"
)

// MockDriver is a Driver that runs without a GPU: it records every call, and keeps the device memory in Go slices.
type MockDriver struct {
	// Calls lists the calls issued so far, formatted as "Name(args)".
	Calls []string

	// FailAt makes the call with that name (e.g. "ModuleGetFunction") fail with cuda.ERROR_INVALID_VALUE.
	FailAt string

	// Kernel, if set, simulates the kernel launch over the device memory of its arguments.
	Kernel func(args []any, memory map[cuda.DevicePtr][]byte)

	memory  map[cuda.DevicePtr][]byte
	nextPtr cuda.DevicePtr
}

var _ Driver = (*MockDriver)(nil)

// NewMockDriver returns a MockDriver whose device memory starts at address 0x1000.
func NewMockDriver() *MockDriver {
	return &MockDriver{memory: make(map[cuda.DevicePtr][]byte), nextPtr: 0x1000}
}

func (d *MockDriver) call(name string, format string, args ...any) error {
	d.Calls = append(d.Calls, name+"("+fmt.Sprintf(format, args...)+")")
	if d.FailAt == name {
		return errors.Wrapf(cuda.ERROR_INVALID_VALUE, "mock %s", name)
	}
	return nil
}

func (d *MockDriver) Init() error { return d.call("Init", "") }

func (d *MockDriver) DeviceGet(ordinal int) (cuda.Device, error) {
	return cuda.Device(ordinal), d.call("DeviceGet", "%d", ordinal)
}

func (d *MockDriver) CtxCreate(device cuda.Device) (*cuda.Context, error) {
	if err := d.call("CtxCreate", "%d", device); err != nil {
		return nil, err
	}
	return &cuda.Context{}, nil
}

func (d *MockDriver) ModuleLoad(fileName string) (*cuda.Module, error) {
	if err := d.call("ModuleLoad", "%s", fileName); err != nil {
		return nil, err
	}
	return &cuda.Module{}, nil
}

func (d *MockDriver) ModuleLoadData(image []byte) (*cuda.Module, error) {
	if err := d.call("ModuleLoadData", "%d", len(image)); err != nil {
		return nil, err
	}
	return &cuda.Module{}, nil
}

func (d *MockDriver) ModuleGetFunction(_ *cuda.Module, name string) (*cuda.Function, error) {
	if err := d.call("ModuleGetFunction", "%s", name); err != nil {
		return nil, err
	}
	return &cuda.Function{}, nil
}

func (d *MockDriver) MemAlloc(bytes int) (cuda.DevicePtr, error) {
	if err := d.call("MemAlloc", "%d", bytes); err != nil {
		return 0, err
	}
	ptr := d.nextPtr
	d.nextPtr += 0x1000000
	d.memory[ptr] = make([]byte, bytes)
	return ptr, nil
}

func (d *MockDriver) MemcpyHtoD(dst cuda.DevicePtr, src []byte) error {
	if err := d.call("MemcpyHtoD", "0x%x, %d", uint64(dst), len(src)); err != nil {
		return err
	}
	copy(d.memory[dst], src)
	return nil
}

func (d *MockDriver) MemcpyDtoH(dst []byte, src cuda.DevicePtr) error {
	if err := d.call("MemcpyDtoH", "0x%x, %d", uint64(src), len(dst)); err != nil {
		return err
	}
	copy(dst, d.memory[src])
	return nil
}

func (d *MockDriver) LaunchKernel(_ *cuda.Function, grid, block cuda.Dim3, sharedMemBytes int, args ...any) error {
	if err := d.call("LaunchKernel", "%s, %s, %d, %v", grid, block, sharedMemBytes, args); err != nil {
		return err
	}
	if d.Kernel != nil {
		d.Kernel(args, d.memory)
	}
	return nil
}

// IncrementKernel simulates f(int *xs) { xs[threadIdx.x] += 1 } launched with 32 threads.
func IncrementKernel(args []any, memory map[cuda.DevicePtr][]byte) {
	xs := memory[args[0].(cuda.DevicePtr)]
	for i := 0; i < 32; i++ {
		v := binary.LittleEndian.Uint32(xs[4*i:])
		binary.LittleEndian.PutUint32(xs[4*i:], v+1)
	}
}
