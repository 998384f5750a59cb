package planar

import (
	"encoding/binary"
	"testing"

	"github.com/user/hevcdec/pkg/pixfmt"
)

func TestCopyPlane(t *testing.T) {
	src := make([]byte, 8*4)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, 16*4)
	CopyPlane(dst, 16, src, 8, 6, 4)

	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			if dst[y*16+x] != src[y*8+x] {
				t.Fatalf("dst[%d][%d] = %d, want %d", y, x, dst[y*16+x], src[y*8+x])
			}
		}
		// Padding past the copied width stays untouched.
		if dst[y*16+7] != 0 {
			t.Fatalf("row %d wrote past width", y)
		}
	}
}

func TestCopyPlaneEqualStrides(t *testing.T) {
	src := make([]byte, 8*4)
	for i := range src {
		src[i] = byte(i + 1)
	}
	dst := make([]byte, 8*4)
	CopyPlane(dst, 8, src, 8, 6, 4)

	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			if dst[y*8+x] != src[y*8+x] {
				t.Fatalf("dst[%d][%d] = %d, want %d", y, x, dst[y*8+x], src[y*8+x])
			}
		}
	}
	// The collapsed copy never reaches past the last row's width.
	if dst[3*8+7] != 0 {
		t.Error("copy ran past the final row")
	}
}

func TestCopyImageEqualStrides(t *testing.T) {
	f, err := NewFrame(32, 2, pixfmt.FormatYUV444P)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer f.Close()

	planes := make([]PlaneSource, 3)
	for i := range planes {
		data := make([]byte, f.Stride[i]*2)
		for j := range data {
			data[j] = byte(16*i + j%32)
		}
		planes[i] = PlaneSource{Data: data, Stride: f.Stride[i], BitDepth: 8, Width: 32, Height: 2}
	}
	if err := CopyImage(f, planes); err != nil {
		t.Fatalf("CopyImage: %v", err)
	}
	for i := 0; i < 3; i++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 32; x++ {
				want := planes[i].Data[y*f.Stride[i]+x]
				if got := f.Data[i][y*f.Stride[i]+x]; got != want {
					t.Fatalf("plane %d sample (%d,%d) = %d, want %d", i, x, y, got, want)
				}
			}
		}
	}
}

func TestShiftLeftCopy(t *testing.T) {
	src := make([]byte, 4*2)
	binary.LittleEndian.PutUint16(src[0:], 0x03FF)
	binary.LittleEndian.PutUint16(src[2:], 0x0001)
	dst := make([]byte, 4*2)
	ShiftLeftCopy(dst, 8, src, 8, 2, 1, 6)

	if got := binary.LittleEndian.Uint16(dst[0:]); got != 0x03FF<<6 {
		t.Errorf("sample 0 = %#x, want %#x", got, 0x03FF<<6)
	}
	if got := binary.LittleEndian.Uint16(dst[2:]); got != 1<<6 {
		t.Errorf("sample 1 = %#x, want %#x", got, 1<<6)
	}
}

func TestShiftRightCopy(t *testing.T) {
	src := make([]byte, 2*2)
	binary.LittleEndian.PutUint16(src[0:], 0x03FF)
	binary.LittleEndian.PutUint16(src[2:], 0x0200)
	dst := make([]byte, 2)
	ShiftRightCopy(dst, 2, src, 4, 2, 1, 2)

	if dst[0] != 0xFF {
		t.Errorf("sample 0 = %#x, want 0xFF", dst[0])
	}
	if dst[1] != 0x80 {
		t.Errorf("sample 1 = %#x, want 0x80", dst[1])
	}
}

func TestWidenCopy(t *testing.T) {
	src := []byte{0xFF, 0x01}
	dst := make([]byte, 4)
	WidenCopy(dst, 4, src, 2, 2, 1, 2)

	if got := binary.LittleEndian.Uint16(dst[0:]); got != 0xFF<<2 {
		t.Errorf("sample 0 = %#x, want %#x", got, 0xFF<<2)
	}
	if got := binary.LittleEndian.Uint16(dst[2:]); got != 1<<2 {
		t.Errorf("sample 1 = %#x, want %#x", got, 1<<2)
	}
}

func TestCopyImageExactDepth(t *testing.T) {
	f, err := NewFrame(4, 2, pixfmt.FormatYUV444P)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer f.Close()

	planes := make([]PlaneSource, 3)
	for i := range planes {
		data := make([]byte, 4*2)
		for j := range data {
			data[j] = byte(16*i + j)
		}
		planes[i] = PlaneSource{Data: data, Stride: 4, BitDepth: 8, Width: 4, Height: 2}
	}
	if err := CopyImage(f, planes); err != nil {
		t.Fatalf("CopyImage: %v", err)
	}
	for i := 0; i < 3; i++ {
		if f.Data[i][f.Stride[i]+3] != byte(16*i+7) {
			t.Errorf("plane %d bottom-right = %d", i, f.Data[i][f.Stride[i]+3])
		}
	}
}

func TestCopyImageShiftsUp(t *testing.T) {
	// 9-bit engine output into a 16-bit frame.
	f, err := NewFrame(2, 1, pixfmt.FormatYUV444P16)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer f.Close()

	src := make([]byte, 4)
	binary.LittleEndian.PutUint16(src[0:], 0x1FF)
	binary.LittleEndian.PutUint16(src[2:], 0x001)
	planes := []PlaneSource{
		{Data: src, Stride: 4, BitDepth: 9, Width: 2, Height: 1},
		{Data: src, Stride: 4, BitDepth: 9, Width: 2, Height: 1},
		{Data: src, Stride: 4, BitDepth: 9, Width: 2, Height: 1},
	}
	if err := CopyImage(f, planes); err != nil {
		t.Fatalf("CopyImage: %v", err)
	}
	if got := binary.LittleEndian.Uint16(f.Data[0]); got != 0x1FF<<7 {
		t.Errorf("sample = %#x, want %#x", got, 0x1FF<<7)
	}
}

func TestCopyImageNarrowsToGray(t *testing.T) {
	// Deep monochrome lands in the 8-bit gray plane.
	f, err := NewFrame(2, 1, pixfmt.FormatGray8)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer f.Close()

	src := make([]byte, 4)
	binary.LittleEndian.PutUint16(src[0:], 0xFFFF)
	binary.LittleEndian.PutUint16(src[2:], 0x0100)
	planes := []PlaneSource{{Data: src, Stride: 4, BitDepth: 16, Width: 2, Height: 1}}
	if err := CopyImage(f, planes); err != nil {
		t.Fatalf("CopyImage: %v", err)
	}
	if f.Data[0][0] != 0xFF || f.Data[0][1] != 0x01 {
		t.Errorf("samples = %#x %#x, want 0xFF 0x01", f.Data[0][0], f.Data[0][1])
	}
}

func TestCopyImageRejectsShortPlanes(t *testing.T) {
	f, err := NewFrame(4, 2, pixfmt.FormatYUV420P)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer f.Close()

	planes := []PlaneSource{{Data: make([]byte, 8), Stride: 4, BitDepth: 8, Width: 4, Height: 2}}
	if err := CopyImage(f, planes); err == nil {
		t.Error("missing chroma planes accepted")
	}
}
