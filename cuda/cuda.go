// Package cuda implements a Go wrapper for the CUDA driver API: device and context management, loading of PTX
// modules, linear device memory and kernel launches.
//
// The driver library (libcuda.so.1) is loaded at runtime with dlopen by Init, so programs using this package
// build without the CUDA toolkit, and fail with a proper error (as opposed to a link error) where no driver is
// installed. See DriverLibraryPathsEnv to configure where to search for it.
//
// A CUDA context is current only on the OS thread that created it (or made it current). Since goroutines
// migrate between threads, callers should runtime.LockOSThread before creating a Context, and keep the
// goroutine locked while using it.
package cuda

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Init loads the CUDA driver library, if not loaded yet, and initializes the driver (cuInit).
//
// It must be called before any other function in this package. It is safe to call it more than once.
func Init() error {
	if err := loadDriver(); err != nil {
		return err
	}
	klog.V(2).Infof("cuInit(0)")
	return toError(cuInit(0), "cuInit(0)")
}

// Version of the CUDA driver, as reported by cuDriverGetVersion.
type Version int

// Major version, e.g. 12 for driver version 12040.
func (v Version) Major() int { return int(v) / 1000 }

// Minor version, e.g. 4 for driver version 12040.
func (v Version) Minor() int { return int(v) % 100 / 10 }

// String implements fmt.Stringer, e.g. "12.4".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// DriverGetVersion returns the version of the CUDA driver.
func DriverGetVersion() (Version, error) {
	var version int32
	if err := toError(cuDriverGetVersion(&version), "cuDriverGetVersion()"); err != nil {
		return 0, err
	}
	return Version(version), nil
}
