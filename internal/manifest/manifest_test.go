package manifest

import (
	"path/filepath"
	"testing"

	"github.com/gomlx/goptx/cuda"
	"github.com/gomlx/goptx/dtypes"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	m, err := Load("testdata/increment.yaml")
	require.NoError(t, err)
	require.Equal(t, "increment", m.Name)
	require.Equal(t, "f", m.Function)
	require.Equal(t, filepath.Join("testdata", "increment.ptx"), m.ModulePath())
	require.Equal(t, cuda.D3(1), m.GridDim())
	require.Equal(t, cuda.D3(32), m.BlockDim())
	require.Equal(t, []int{32, 1, 1}, m.Block)

	require.Len(t, m.Buffers, 1)
	buf := &m.Buffers[0]
	numBytes, err := buf.Bytes()
	require.NoError(t, err)
	require.Equal(t, 128, numBytes)
	data, err := buf.HostData()
	require.NoError(t, err)
	require.Len(t, data, 128)
	first, err := dtypes.Format(dtypes.Int32, data, 0)
	require.NoError(t, err)
	require.Equal(t, "42", first)
	last, err := dtypes.Format(dtypes.Int32, data, 31)
	require.NoError(t, err)
	require.Equal(t, "-1", last)

	_, err = Load("testdata/missing.yaml")
	require.ErrorContains(t, err, "failed to read manifest")
}

func TestParseInlinePTX(t *testing.T) {
	m, err := Parse([]byte(`
name: inline
module:
  ptx: |
    .version 8.8
function: f
grid: [2, 2]
block: [16, 16]
buffers:
  - {name: a, dtype: half, length: 4, init: {1: 0.5}}
`))
	require.NoError(t, err)
	require.Equal(t, "", m.ModulePath())
	require.Contains(t, m.Module.PTX, ".version 8.8")
	require.Equal(t, cuda.Dim3{X: 2, Y: 2, Z: 1}, m.GridDim())
	require.Equal(t, cuda.Dim3{X: 16, Y: 16, Z: 1}, m.BlockDim())
	data, err := m.Buffers[0].HostData()
	require.NoError(t, err)
	value, err := dtypes.Format(dtypes.Float16, data, 1)
	require.NoError(t, err)
	require.Equal(t, "0.5", value)
}

func TestParseErrors(t *testing.T) {
	const validBuffers = "buffers: [{name: xs, dtype: int32, length: 4}]\n"
	for _, tc := range []struct {
		name, yaml, want string
	}{
		{"unknown field", "module: {path: a.ptx}\nfunction: f\nfoo: 1\n" + validBuffers, "field foo not found"},
		{"no module", "function: f\n" + validBuffers, "exactly one of module.path or module.ptx"},
		{"two modules", "module: {path: a.ptx, ptx: x}\nfunction: f\n" + validBuffers, "exactly one of module.path or module.ptx"},
		{"no function", "module: {path: a.ptx}\n" + validBuffers, "missing function name"},
		{"negative device", "module: {path: a.ptx}\nfunction: f\ndevice: -1\n" + validBuffers, "invalid device ordinal"},
		{"zero grid", "module: {path: a.ptx}\nfunction: f\ngrid: [0]\n" + validBuffers, "grid"},
		{"4d block", "module: {path: a.ptx}\nfunction: f\nblock: [1, 1, 1, 1]\n" + validBuffers, "at most 3 dimensions"},
		{"no buffers", "module: {path: a.ptx}\nfunction: f\n", "at least one buffer"},
		{"bad dtype", "module: {path: a.ptx}\nfunction: f\nbuffers: [{name: xs, dtype: int8, length: 4}]\n", "unknown dtype"},
		{"zero length", "module: {path: a.ptx}\nfunction: f\nbuffers: [{name: xs, dtype: int32, length: 0}]\n", "positive length"},
		{"duplicate", "module: {path: a.ptx}\nfunction: f\nbuffers: [{name: xs, dtype: int32, length: 1}, {name: xs, dtype: int32, length: 1}]\n", "duplicate buffer name"},
		{"init range", "module: {path: a.ptx}\nfunction: f\nbuffers: [{name: xs, dtype: int32, length: 4, init: {4: 1}}]\n", "init index 4 out of range"},
		{"print unknown", "module: {path: a.ptx}\nfunction: f\n" + validBuffers + "print: {buffers: [ys], rows: 1, columns: 1}\n", "print buffer \"ys\" is not defined"},
		{"print range", "module: {path: a.ptx}\nfunction: f\n" + validBuffers + "print: {buffers: [xs], rows: 2, columns: 2, row_stride: 2}\n", ""},
		{"print overflow", "module: {path: a.ptx}\nfunction: f\n" + validBuffers + "print: {buffers: [xs], rows: 2, columns: 2, row_stride: 3}\n", "print index 4 out of range"},
		{"print empty", "module: {path: a.ptx}\nfunction: f\n" + validBuffers + "print: {buffers: [xs], rows: 0, columns: 1}\n", "must be positive"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if tc.want == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestHostDataNonIntegral(t *testing.T) {
	buf := &Buffer{Name: "xs", DType: "int64", Length: 2, Init: map[int]float64{1: 0.5}}
	_, err := buf.HostData()
	require.ErrorContains(t, err, "not integral")
}

func TestBufferBytes(t *testing.T) {
	buf := Buffer{Name: "xs", DType: "float16", Length: 10}
	numBytes, err := buf.Bytes()
	require.NoError(t, err)
	require.Equal(t, 20, numBytes)

	buf.DType = "complex128"
	_, err = buf.Bytes()
	require.ErrorContains(t, err, `buffer "xs"`)
}

func TestDemos(t *testing.T) {
	file, err := FileDemo("")
	require.NoError(t, err)
	require.Equal(t, DefaultPTXFile, file.ModulePath())
	require.Equal(t, cuda.D3(1), file.GridDim())
	require.Equal(t, cuda.D3(32), file.BlockDim())
	numBytes, err := file.Buffers[0].Bytes()
	require.NoError(t, err)
	require.Equal(t, 32*4, numBytes)

	file, err = FileDemo("/tmp/kernels/b.ptx")
	require.NoError(t, err)
	require.Equal(t, "/tmp/kernels/b.ptx", file.ModulePath())

	embedded, err := EmbeddedDemo()
	require.NoError(t, err)
	require.Equal(t, RGBKernelPTX, embedded.Module.PTX)
	require.Equal(t, cuda.D3(256), embedded.GridDim())
	require.Equal(t, cuda.D3(256), embedded.BlockDim())
	require.Len(t, embedded.Buffers, 3)
	for _, buf := range embedded.Buffers {
		numBytes, err := buf.Bytes()
		require.NoError(t, err)
		require.Equal(t, 256*256*8, numBytes)
	}

	// Round trip through YAML keeps the demo intact.
	out, err := embedded.Marshal()
	require.NoError(t, err)
	parsed, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, embedded, parsed)
}

func TestExamples(t *testing.T) {
	files, err := filepath.Glob("../../examples/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			m, err := Load(file)
			require.NoError(t, err)
			if m.Module.Path != "" {
				require.FileExists(t, m.ModulePath())
			}
		})
	}
}
