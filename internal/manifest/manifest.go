// Package manifest describes a kernel run: where the module comes from, which function to launch, with which
// grid/block shape, and the host buffers staged to the device as the kernel arguments.
//
// Manifests are written in YAML, see Parse, and the two built-in demos are available as FileDemo and
// EmbeddedDemo.
package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/gomlx/goptx/cuda"
	"github.com/gomlx/goptx/dtypes"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest describes one kernel run.
type Manifest struct {
	Name   string `yaml:"name"`
	Module Module `yaml:"module"`

	// Function is the name of the kernel entry point in the module.
	Function string `yaml:"function"`

	// Device ordinal where to run.
	Device int `yaml:"device"`

	// Grid and Block shapes: up to 3 dimensions, missing ones default to 1.
	Grid  []int `yaml:"grid,flow"`
	Block []int `yaml:"block,flow"`

	SharedMemBytes int `yaml:"shared_mem_bytes,omitempty"`

	// Buffers are allocated on the device and passed, in this order, as the kernel arguments.
	Buffers []Buffer `yaml:"buffers"`

	Print Print `yaml:"print,omitempty"`

	// dir is the directory of the manifest file, used to resolve relative module paths.
	dir string
}

// Module is the source of the compiled device code: exactly one of Path or PTX must be set.
type Module struct {
	// Path to a PTX (or cubin) file. Relative paths are resolved against the manifest directory.
	Path string `yaml:"path,omitempty"`

	// PTX holds the module source text inline.
	PTX string `yaml:"ptx,omitempty"`
}

// Buffer is a host array, copied to a device buffer of the same size before the launch, and copied back after.
type Buffer struct {
	Name   string `yaml:"name"`
	DType  string `yaml:"dtype"`
	Length int    `yaml:"length"`

	// Init holds the initial values of the elements, indexed by position. Elements not listed are zero.
	Init map[int]float64 `yaml:"init,omitempty,flow"`
}

// Print selects the values printed after the run: rows × columns elements at index row*RowStride+column,
// one line per element index with the values of every listed buffer.
type Print struct {
	Buffers   []string `yaml:"buffers,flow"`
	Rows      int      `yaml:"rows"`
	Columns   int      `yaml:"columns"`
	RowStride int      `yaml:"row_stride,omitempty"`
}

// Load reads and validates the manifest in the given file.
func Load(filePath string) (*Manifest, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest")
	}
	m, err := Parse(contents)
	if err != nil {
		return nil, errors.WithMessagef(err, "manifest %q", filePath)
	}
	m.dir = filepath.Dir(filePath)
	return m, nil
}

// Parse decodes and validates a manifest in YAML. Unknown fields are an error.
func Parse(contents []byte) (*Manifest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)
	m := &Manifest{}
	if err := decoder.Decode(m); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal encodes the manifest in YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal manifest %q", m.Name)
	}
	return out, nil
}

// Validate checks that the manifest is complete and consistent, and normalizes Grid and Block to 3 dimensions.
func (m *Manifest) Validate() error {
	if (m.Module.Path == "") == (m.Module.PTX == "") {
		return errors.Errorf("manifest %q: exactly one of module.path or module.ptx must be set", m.Name)
	}
	if m.Function == "" {
		return errors.Errorf("manifest %q: missing function name", m.Name)
	}
	if m.Device < 0 {
		return errors.Errorf("manifest %q: invalid device ordinal %d", m.Name, m.Device)
	}
	var err error
	if m.Grid, err = normalizeDims(m.Grid); err != nil {
		return errors.WithMessagef(err, "manifest %q: grid", m.Name)
	}
	if m.Block, err = normalizeDims(m.Block); err != nil {
		return errors.WithMessagef(err, "manifest %q: block", m.Name)
	}
	if m.SharedMemBytes < 0 {
		return errors.Errorf("manifest %q: negative shared_mem_bytes %d", m.Name, m.SharedMemBytes)
	}
	if len(m.Buffers) == 0 {
		return errors.Errorf("manifest %q: at least one buffer is required", m.Name)
	}
	names := make(map[string]int, len(m.Buffers))
	for ii, buf := range m.Buffers {
		if buf.Name == "" {
			return errors.Errorf("manifest %q: buffer #%d has no name", m.Name, ii)
		}
		if _, found := names[buf.Name]; found {
			return errors.Errorf("manifest %q: duplicate buffer name %q", m.Name, buf.Name)
		}
		names[buf.Name] = ii
		if _, err := buf.Type(); err != nil {
			return errors.WithMessagef(err, "manifest %q: buffer %q", m.Name, buf.Name)
		}
		if buf.Length <= 0 {
			return errors.Errorf("manifest %q: buffer %q must have a positive length, got %d", m.Name, buf.Name, buf.Length)
		}
		for index := range buf.Init {
			if index < 0 || index >= buf.Length {
				return errors.Errorf("manifest %q: buffer %q init index %d out of range [0, %d)", m.Name, buf.Name, index, buf.Length)
			}
		}
	}
	return m.validatePrint(names)
}

func (m *Manifest) validatePrint(names map[string]int) error {
	p := &m.Print
	if len(p.Buffers) == 0 {
		return nil
	}
	if p.Rows <= 0 || p.Columns <= 0 || p.RowStride < 0 {
		return errors.Errorf("manifest %q: print rows and columns must be positive, got %d×%d (stride %d)",
			m.Name, p.Rows, p.Columns, p.RowStride)
	}
	lastIndex := (p.Rows-1)*p.RowStride + p.Columns - 1
	for _, name := range p.Buffers {
		ii, found := names[name]
		if !found {
			return errors.Errorf("manifest %q: print buffer %q is not defined", m.Name, name)
		}
		if lastIndex >= m.Buffers[ii].Length {
			return errors.Errorf("manifest %q: print index %d out of range of buffer %q with %d elements",
				m.Name, lastIndex, name, m.Buffers[ii].Length)
		}
	}
	return nil
}

func normalizeDims(dims []int) ([]int, error) {
	if len(dims) > 3 {
		return nil, errors.Errorf("at most 3 dimensions allowed, got %v", dims)
	}
	d := cuda.D3(dims...)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return []int{d.X, d.Y, d.Z}, nil
}

// GridDim returns the grid shape. Only valid after Validate.
func (m *Manifest) GridDim() cuda.Dim3 { return cuda.D3(m.Grid...) }

// BlockDim returns the block shape. Only valid after Validate.
func (m *Manifest) BlockDim() cuda.Dim3 { return cuda.D3(m.Block...) }

// ModulePath returns the module file path, resolved against the manifest directory, or "" if the module
// is given inline.
func (m *Manifest) ModulePath() string {
	if m.Module.Path == "" || filepath.IsAbs(m.Module.Path) || m.dir == "" {
		return m.Module.Path
	}
	return filepath.Join(m.dir, m.Module.Path)
}

// Type returns the buffer's DType.
func (b *Buffer) Type() (dtypes.DType, error) {
	return dtypes.FromName(b.DType)
}

// Bytes returns the buffer size in bytes.
func (b *Buffer) Bytes() (int, error) {
	dtype, err := b.Type()
	if err != nil {
		return 0, errors.WithMessagef(err, "buffer %q", b.Name)
	}
	return b.Length * dtype.Size(), nil
}

// HostData allocates the host array of the buffer, with its initial values, in little-endian format.
func (b *Buffer) HostData() ([]byte, error) {
	dtype, err := b.Type()
	if err != nil {
		return nil, err
	}
	data := make([]byte, b.Length*dtype.Size())
	indices := make([]int, 0, len(b.Init))
	for index := range b.Init {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	for _, index := range indices {
		if err := dtypes.Encode(dtype, data, index, b.Init[index]); err != nil {
			return nil, errors.WithMessagef(err, "buffer %q", b.Name)
		}
	}
	return data, nil
}
