package pngsink

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/user/hevcdec/pkg/mocks"
	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

func grayFrame(t *testing.T, w, h int, fill byte) *planar.Frame {
	t.Helper()
	f, err := planar.NewFrame(w, h, pixfmt.FormatGray8)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	for i := range f.Data[0] {
		f.Data[0][i] = fill
	}
	return f
}

func TestSinkWritesNumberedFiles(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := New("frames", fs, 0)

	if err := s.Begin(ports.StreamInfo{Width: 8, Height: 8, Format: pixfmt.FormatGray8}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for i := 0; i < 2; i++ {
		f := grayFrame(t, 8, 8, 0x80)
		if err := s.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		f.Close()
	}
	if err := s.End(); err != nil {
		t.Fatalf("End: %v", err)
	}

	for _, name := range []string{"frames/frame-00000.png", "frames/frame-00001.png"} {
		data, ok := fs.GetFile(name)
		if !ok {
			t.Fatalf("%s not written", name)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s does not decode: %v", name, err)
		}
		if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
			t.Errorf("%s is %v", name, img.Bounds())
		}
	}
}

func TestSinkScalesDown(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := New("frames", fs, 4)

	if err := s.Begin(ports.StreamInfo{Width: 16, Height: 8, Format: pixfmt.FormatGray8}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	f := grayFrame(t, 16, 8, 0x40)
	defer f.Close()
	if err := s.WriteFrame(f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	data, ok := fs.GetFile("frames/frame-00000.png")
	if !ok {
		t.Fatal("no output")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Errorf("scaled bounds %v, want 4x2", img.Bounds())
	}
}

func TestToRGBAColorConversion(t *testing.T) {
	f, err := planar.NewFrame(2, 2, pixfmt.FormatYUV420P)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer f.Close()

	// Neutral chroma and mid luma makes gray.
	for i := range f.Data[0] {
		f.Data[0][i] = 128
	}
	f.Data[1][0] = 128
	f.Data[2][0] = 128

	img := toRGBA(f)
	r, g, b, _ := img.At(0, 0).RGBA()
	if r != g || g != b {
		t.Errorf("neutral chroma is not gray: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestToRGBADeepSamples(t *testing.T) {
	f, err := planar.NewFrame(2, 2, pixfmt.FormatYUV444P10)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	defer f.Close()

	// 10-bit white luma, neutral chroma.
	for i := 0; i < 3; i++ {
		val := uint16(512)
		if i == 0 {
			val = 1023
		}
		for j := 0; j+1 < len(f.Data[i]); j += 2 {
			f.Data[i][j] = byte(val)
			f.Data[i][j+1] = byte(val >> 8)
		}
	}

	img := toRGBA(f)
	r, _, _, _ := img.At(0, 0).RGBA()
	if r>>8 < 250 {
		t.Errorf("white luma came out dark: %d", r>>8)
	}
}
