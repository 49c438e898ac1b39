package cuda

import (
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Module is a unit of compiled device code loaded into the current context, with ModuleLoad or ModuleLoadData.
type Module struct {
	// name is the file name, or a description of the image, used for error messages.
	name   string
	module cModule
}

// ModuleLoad loads the module from the given file (PTX, cubin or fatbin) into the current context.
func ModuleLoad(fileName string) (*Module, error) {
	// Check the file ourselves, for a more meaningful error than CUDA_ERROR_FILE_NOT_FOUND.
	if _, err := os.Stat(fileName); err != nil {
		return nil, errors.Wrapf(err, "cuModuleLoad(%q)", fileName)
	}
	m := &Module{name: fileName}
	klog.V(2).Infof("cuModuleLoad(%q)", fileName)
	if err := toError(cuModuleLoad(&m.module, fileName), "cuModuleLoad(%q)", fileName); err != nil {
		return nil, err
	}
	return m, nil
}

// ModuleLoadData loads the module from an in-memory image into the current context.
// For textual PTX the image doesn't need to be NUL-terminated, that is taken care of.
func ModuleLoadData(image []byte) (*Module, error) {
	if len(image) == 0 {
		return nil, errors.New("cuModuleLoadData(): empty module image")
	}
	m := &Module{name: "<image>"}
	klog.V(2).Infof("cuModuleLoadData(%d bytes)", len(image))
	if err := toError(cuModuleLoadData(&m.module, image), "cuModuleLoadData(%d bytes)", len(image)); err != nil {
		return nil, err
	}
	return m, nil
}

// String implements fmt.Stringer.
func (m *Module) String() string {
	return "Module(" + m.name + ")"
}

// GetFunction returns the kernel entry point with the given name.
func (m *Module) GetFunction(name string) (*Function, error) {
	if m.module == nil {
		return nil, errors.Errorf("cuModuleGetFunction(%q): module %s already unloaded", name, m.name)
	}
	f := &Function{name: name, module: m}
	if err := toError(cuModuleGetFunction(&f.function, m.module, name), "cuModuleGetFunction(%s, %q)", m, name); err != nil {
		return nil, err
	}
	return f, nil
}

// Unload the module from the current context. Functions obtained from it are no longer valid.
// It's a no-op if the module has already been unloaded.
func (m *Module) Unload() error {
	if m == nil || m.module == nil {
		return nil
	}
	err := toError(cuModuleUnload(m.module), "cuModuleUnload(%s)", m)
	m.module = nil
	return err
}

// Function is a kernel entry point of a Module, see Module.GetFunction and LaunchKernel.
type Function struct {
	name     string
	module   *Module
	function cFunction
}

// Name of the function in its module.
func (f *Function) Name() string {
	return f.name
}
