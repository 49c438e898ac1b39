package manifest

// DefaultPTXFile is the module file loaded by FileDemo if none is given.
const DefaultPTXFile = "b.ptx"

// RGBKernelPTX is the module of the embedded demo: an entry point f taking three pointers, one per color
// channel, that doesn't touch them.
const RGBKernelPTX = `.version 8.8
.target sm_52
.address_size 64

           // .globl       f
.visible .entry f(
    .param .u64 ps_r,
    .param .u64 ps_g,
    .param .u64 ps_b
)
{
    .reg .b64 %rd<100>;
    .reg .b32 %r<100>;
    .reg .b32 %f<100>;

    ld.param.u64 %rd1, [ps_r];
    ld.param.u64 %rd2, [ps_g];
    ld.param.u64 %rd3, [ps_b];
    cvta.to.global.u64 %rd1, %rd1;
    cvta.to.global.u64 %rd2, %rd2;
    cvta.to.global.u64 %rd3, %rd3;

    ret;
}

`

// ImageSide is the width and height of the image processed by the embedded demo.
const ImageSide = 256

// FileDemo returns the manifest of the demo that loads its module from a file: a 32 × int32 buffer with
// xs[0] = 42, launched as 1 block of 32 threads, printing xs[0].
func FileDemo(ptxPath string) (*Manifest, error) {
	if ptxPath == "" {
		ptxPath = DefaultPTXFile
	}
	m := &Manifest{
		Name:     "ptx-file",
		Module:   Module{Path: ptxPath},
		Function: "f",
		Grid:     []int{1, 1, 1},
		Block:    []int{32, 1, 1},
		Buffers: []Buffer{
			{Name: "xs", DType: "int32", Length: 32, Init: map[int]float64{0: 42}},
		},
		Print: Print{Buffers: []string{"xs"}, Rows: 1, Columns: 1},
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// EmbeddedDemo returns the manifest of the demo that loads its module from RGBKernelPTX: three 256×256 int64
// channels, launched as 256 blocks of 256 threads, printing the first 16 pixels of the first row.
func EmbeddedDemo() (*Manifest, error) {
	const length = ImageSide * ImageSide
	m := &Manifest{
		Name:     "ptx-embedded",
		Module:   Module{PTX: RGBKernelPTX},
		Function: "f",
		Grid:     []int{ImageSide, 1, 1},
		Block:    []int{ImageSide, 1, 1},
		Buffers: []Buffer{
			{Name: "rs", DType: "int64", Length: length},
			{Name: "gs", DType: "int64", Length: length},
			{Name: "bs", DType: "int64", Length: length},
		},
		Print: Print{Buffers: []string{"rs", "gs", "bs"}, Rows: 1, Columns: 16, RowStride: ImageSide},
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
