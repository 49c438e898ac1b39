package cuda

import (
	"k8s.io/klog/v2"
)

// Context is a CUDA execution context bound to a device, created with CtxCreate.
//
// All calls that manage modules, memory and kernels operate implicitly on the context current to the calling
// OS thread, see the package documentation.
type Context struct {
	device Device
	ctx    cContext
}

// CtxCreate creates a new context on the device, and makes it current to the calling OS thread.
func CtxCreate(flags uint32, device Device) (*Context, error) {
	c := &Context{device: device}
	klog.V(2).Infof("cuCtxCreate(flags=%d, device=%d)", flags, device)
	if err := toError(cuCtxCreate(&c.ctx, flags, device), "cuCtxCreate(flags=%d, device=%d)", flags, device); err != nil {
		return nil, err
	}
	return c, nil
}

// Device returns the device the context was created on.
func (c *Context) Device() Device {
	return c.device
}

// Synchronize blocks until the device has completed all preceding requested tasks, in the current context.
func (c *Context) Synchronize() error {
	return toError(cuCtxSynchronize(), "cuCtxSynchronize()")
}

// Destroy the context. It's a no-op if the context is already destroyed.
//
// Contexts are not destroyed automatically: a context that is never destroyed lives until the process exits.
func (c *Context) Destroy() error {
	if c == nil || c.ctx == nil {
		return nil
	}
	err := toError(cuCtxDestroy(c.ctx), "cuCtxDestroy(device=%d)", c.device)
	c.ctx = nil
	return err
}
