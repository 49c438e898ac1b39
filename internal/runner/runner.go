// Package runner executes a manifest.Manifest against a Driver, as a fixed sequence of stages:
//
//  1. device: initialize the driver, select the device and create a context on it.
//  2. module: load the module (from file or from the inline PTX) and resolve the function.
//  3. stage: allocate one device buffer per host buffer, with the same size, and copy the host data to them.
//  4. launch: launch the function with the device buffers as arguments, in order.
//  5. retrieve: copy the device buffers back to the host.
//
// The first failure stops the run: no driver call is issued after it. Driver handles are not released, they
// live until the process exits.
package runner

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/gomlx/goptx/cuda"
	"github.com/gomlx/goptx/dtypes"
	"github.com/gomlx/goptx/internal/manifest"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Result holds the host buffers after a successful run, in the same order as the manifest buffers.
type Result struct {
	Manifest *manifest.Manifest
	Buffers  [][]byte
}

// Buffer returns the host data of the named buffer, or nil if there is no such buffer.
func (r *Result) Buffer(name string) []byte {
	for ii, buf := range r.Manifest.Buffers {
		if buf.Name == name {
			return r.Buffers[ii]
		}
	}
	return nil
}

// run holds the handles produced by each stage, consumed by the following ones.
type run struct {
	drv Driver
	m   *manifest.Manifest

	device   cuda.Device
	cuCtx    *cuda.Context
	module   *cuda.Module
	function *cuda.Function
	host     [][]byte
	devPtrs  []cuda.DevicePtr
}

type stage struct {
	name string
	fn   func(r *run) error
}

var stages = []stage{
	{"device", (*run).acquireDevice},
	{"module", (*run).acquireModule},
	{"stage", (*run).stageBuffers},
	{"launch", (*run).launch},
	{"retrieve", (*run).retrieve},
}

// Run executes the manifest m against drv, and returns the host buffers copied back from the device.
//
// The calling goroutine is locked to its OS thread during the run, since the context created is current only
// to that thread. ctx is checked between stages: a driver call in progress is not interrupted.
func Run(ctx context.Context, drv Driver, m *manifest.Manifest) (*Result, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r := &run{drv: drv, m: m}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "run %q interrupted before stage %q", m.Name, s.name)
		}
		klog.V(1).Infof("run %q: stage %s", m.Name, s.name)
		if err := s.fn(r); err != nil {
			return nil, errors.WithMessagef(err, "run %q failed at stage %q", m.Name, s.name)
		}
	}
	return &Result{Manifest: m, Buffers: r.host}, nil
}

func (r *run) acquireDevice() (err error) {
	if err = r.drv.Init(); err != nil {
		return err
	}
	if r.device, err = r.drv.DeviceGet(r.m.Device); err != nil {
		return err
	}
	r.cuCtx, err = r.drv.CtxCreate(r.device)
	return err
}

func (r *run) acquireModule() (err error) {
	if modulePath := r.m.ModulePath(); modulePath != "" {
		r.module, err = r.drv.ModuleLoad(modulePath)
	} else {
		r.module, err = r.drv.ModuleLoadData([]byte(r.m.Module.PTX))
	}
	if err != nil {
		return err
	}
	r.function, err = r.drv.ModuleGetFunction(r.module, r.m.Function)
	return err
}

func (r *run) stageBuffers() error {
	r.host = make([][]byte, len(r.m.Buffers))
	r.devPtrs = make([]cuda.DevicePtr, len(r.m.Buffers))
	for ii := range r.m.Buffers {
		data, err := r.m.Buffers[ii].HostData()
		if err != nil {
			return err
		}
		r.host[ii] = data
	}
	for ii, data := range r.host {
		ptr, err := r.drv.MemAlloc(len(data))
		if err != nil {
			return errors.WithMessagef(err, "buffer %q", r.m.Buffers[ii].Name)
		}
		r.devPtrs[ii] = ptr
	}
	for ii, data := range r.host {
		if err := r.drv.MemcpyHtoD(r.devPtrs[ii], data); err != nil {
			return errors.WithMessagef(err, "buffer %q", r.m.Buffers[ii].Name)
		}
	}
	return nil
}

func (r *run) launch() error {
	args := make([]any, len(r.devPtrs))
	for ii, ptr := range r.devPtrs {
		args[ii] = ptr
	}
	return r.drv.LaunchKernel(r.function, r.m.GridDim(), r.m.BlockDim(), r.m.SharedMemBytes, args...)
}

func (r *run) retrieve() error {
	for ii, data := range r.host {
		if err := r.drv.MemcpyDtoH(data, r.devPtrs[ii]); err != nil {
			return errors.WithMessagef(err, "buffer %q", r.m.Buffers[ii].Name)
		}
	}
	return nil
}

// Print writes the values selected by the manifest's print section: one line per selected element index, with
// the value of each printed buffer separated by a space.
func (r *Result) Print(w io.Writer) error {
	p := r.Manifest.Print
	if len(p.Buffers) == 0 {
		return nil
	}
	type column struct {
		dtype dtypes.DType
		data  []byte
	}
	columns := make([]column, 0, len(p.Buffers))
	for _, name := range p.Buffers {
		data := r.Buffer(name)
		if data == nil {
			return errors.Errorf("print: no buffer named %q", name)
		}
		for _, buf := range r.Manifest.Buffers {
			if buf.Name == name {
				dtype, err := buf.Type()
				if err != nil {
					return err
				}
				columns = append(columns, column{dtype: dtype, data: data})
				break
			}
		}
	}

	var sb strings.Builder
	values := make([]string, len(columns))
	for y := range p.Rows {
		for x := range p.Columns {
			index := y*p.RowStride + x
			for ii, col := range columns {
				value, err := dtypes.Format(col.dtype, col.data, index)
				if err != nil {
					return errors.WithMessagef(err, "print buffer %q", p.Buffers[ii])
				}
				values[ii] = value
			}
			sb.WriteString(strings.Join(values, " "))
			sb.WriteByte('\n')
		}
	}
	if _, err := fmt.Fprint(w, sb.String()); err != nil {
		return errors.Wrap(err, "failed to print results")
	}
	return nil
}
