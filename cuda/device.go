package cuda

import (
	"fmt"
)

// Device is a handle to a CUDA device, obtained with DeviceGet. It is simply its ordinal, and never needs
// to be released.
type Device int32

// DeviceAttribute enumerates the device attributes that can be queried with Device.Attribute.
type DeviceAttribute int32

const (
	DEVICE_ATTRIBUTE_MAX_THREADS_PER_BLOCK    DeviceAttribute = 1
	DEVICE_ATTRIBUTE_MULTIPROCESSOR_COUNT     DeviceAttribute = 16
	DEVICE_ATTRIBUTE_COMPUTE_CAPABILITY_MAJOR DeviceAttribute = 75
	DEVICE_ATTRIBUTE_COMPUTE_CAPABILITY_MINOR DeviceAttribute = 76
)

// DeviceGetCount returns the number of CUDA capable devices.
func DeviceGetCount() (int, error) {
	var count int32
	if err := toError(cuDeviceGetCount(&count), "cuDeviceGetCount()"); err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeviceGet returns the device with the given ordinal, in the range [0, DeviceGetCount()).
func DeviceGet(ordinal int) (Device, error) {
	var device Device
	if err := toError(cuDeviceGet(&device, int32(ordinal)), "cuDeviceGet(ordinal=%d)", ordinal); err != nil {
		return 0, err
	}
	return device, nil
}

// Name returns the name of the device, e.g. "NVIDIA GeForce RTX 2080 Ti".
func (d Device) Name() (string, error) {
	name := make([]byte, 256)
	if err := toError(cuDeviceGetName(name, d), "cuDeviceGetName(device=%d)", d); err != nil {
		return "", err
	}
	return string(name[:clen(name)]), nil
}

// TotalMem returns the total amount of memory on the device, in bytes.
func (d Device) TotalMem() (uint64, error) {
	var bytes uint64
	if err := toError(cuDeviceTotalMem(&bytes, d), "cuDeviceTotalMem(device=%d)", d); err != nil {
		return 0, err
	}
	return bytes, nil
}

// Attribute returns the value of the given device attribute.
func (d Device) Attribute(attribute DeviceAttribute) (int, error) {
	var value int32
	if err := toError(cuDeviceGetAttribute(&value, attribute, d), "cuDeviceGetAttribute(attribute=%d, device=%d)", attribute, d); err != nil {
		return 0, err
	}
	return int(value), nil
}

// ComputeCapability returns the major and minor compute capability of the device, e.g. (7, 5) for sm_75.
func (d Device) ComputeCapability() (major, minor int, err error) {
	major, err = d.Attribute(DEVICE_ATTRIBUTE_COMPUTE_CAPABILITY_MAJOR)
	if err != nil {
		return
	}
	minor, err = d.Attribute(DEVICE_ATTRIBUTE_COMPUTE_CAPABILITY_MINOR)
	return
}

// DeviceInfo summarizes a device, as listed by ListDevices.
type DeviceInfo struct {
	Ordinal      int
	Name         string
	TotalMem     uint64
	Major, Minor int
}

// String implements fmt.Stringer.
func (info DeviceInfo) String() string {
	return fmt.Sprintf("#%d %s (sm_%d%d, %d MiB)", info.Ordinal, info.Name, info.Major, info.Minor, info.TotalMem>>20)
}

// ListDevices returns the description of all the devices available. Init must have been called.
func ListDevices() ([]DeviceInfo, error) {
	count, err := DeviceGetCount()
	if err != nil {
		return nil, err
	}
	infos := make([]DeviceInfo, 0, count)
	for ordinal := range count {
		device, err := DeviceGet(ordinal)
		if err != nil {
			return nil, err
		}
		info := DeviceInfo{Ordinal: ordinal}
		if info.Name, err = device.Name(); err != nil {
			return nil, err
		}
		if info.TotalMem, err = device.TotalMem(); err != nil {
			return nil, err
		}
		if info.Major, info.Minor, err = device.ComputeCapability(); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// clen returns the length of a NUL-terminated string stored in b.
func clen(b []byte) int {
	for i := range b {
		if b[i] == 0 {
			return i
		}
	}
	return len(b)
}
