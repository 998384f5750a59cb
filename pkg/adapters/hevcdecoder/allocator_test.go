package hevcdecoder

import (
	"testing"
	"unsafe"

	"github.com/user/hevcdec/pkg/mocks"
	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

func newTestBridge() *allocBridge {
	return &allocBridge{
		frames: newFramePool(4),
		specs:  newSpecPool(4),
		log:    nopLogger{},
	}
}

func TestAllocateImageAttachesFrame(t *testing.T) {
	b := newTestBridge()
	target := mocks.NewPictureTarget(ports.ImageRequest{
		Width: 64, Height: 48,
		Chroma: pixfmt.Chroma420, LumaBits: 8, ChromaBits: 8,
	})

	if !b.AllocateImage(target) {
		t.Fatal("AllocateImage refused a supported request")
	}
	f := target.Attached()
	if f == nil {
		t.Fatal("no frame attached")
	}
	if f.Width != 64 || f.Height != 48 || f.Format != pixfmt.FormatYUV420P {
		t.Errorf("frame %dx%d %v", f.Width, f.Height, f.Format)
	}
	if f.Desc != nil {
		t.Error("descriptor attached without cropping")
	}
	b.ReleaseImage(target)
}

func TestAllocateImageAttachesCropDescriptor(t *testing.T) {
	b := newTestBridge()
	target := mocks.NewPictureTarget(ports.ImageRequest{
		Width: 64, Height: 48, CropRight: 2, CropBot: 4,
		Chroma: pixfmt.Chroma420, LumaBits: 10, ChromaBits: 10,
	})

	if !b.AllocateImage(target) {
		t.Fatal("AllocateImage refused a supported request")
	}
	f := target.Attached()
	if f.Desc == nil {
		t.Fatal("no crop descriptor on a cropped allocation")
	}
	if f.Desc.CropRight != 2 || f.Desc.CropBot != 4 {
		t.Errorf("descriptor crop %+v", *f.Desc)
	}
	if f.Format != pixfmt.FormatYUV420P10 {
		t.Errorf("format %v, want yuv420p10le", f.Format)
	}
	b.ReleaseImage(target)
}

func TestAllocateImageFallsBack(t *testing.T) {
	tests := []struct {
		name string
		req  ports.ImageRequest
	}{
		{"mismatched plane depths", ports.ImageRequest{
			Width: 64, Height: 48, Chroma: pixfmt.Chroma420, LumaBits: 10, ChromaBits: 8,
		}},
		{"depth between grid points", ports.ImageRequest{
			Width: 64, Height: 48, Chroma: pixfmt.Chroma420, LumaBits: 11, ChromaBits: 11,
		}},
		{"deep monochrome", ports.ImageRequest{
			Width: 64, Height: 48, Chroma: pixfmt.ChromaMono, LumaBits: 16,
		}},
		{"depth out of range", ports.ImageRequest{
			Width: 64, Height: 48, Chroma: pixfmt.Chroma444, LumaBits: 17, ChromaBits: 17,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBridge()
			target := mocks.NewPictureTarget(tt.req)
			if b.AllocateImage(target) {
				t.Error("expected fallback to engine allocation")
			}
			if target.Attached() != nil {
				t.Error("frame attached on fallback")
			}
		})
	}
}

func TestAllocateImageHonorsAlignment(t *testing.T) {
	b := newTestBridge()
	target := mocks.NewPictureTarget(ports.ImageRequest{
		Width: 64, Height: 48, Alignment: 4096,
		Chroma: pixfmt.Chroma420, LumaBits: 8, ChromaBits: 8,
	})

	if !b.AllocateImage(target) {
		t.Fatal("AllocateImage refused an aligned request")
	}
	f := target.Attached()
	for i := 0; i < 3; i++ {
		if addr := uintptr(unsafe.Pointer(&f.Data[i][0])); addr%4096 != 0 {
			t.Errorf("plane %d base %#x not 4096 byte aligned", i, addr)
		}
	}
	b.ReleaseImage(target)
}

func TestAllocateImageRejectsMisalignedHostFrame(t *testing.T) {
	b := newTestBridge()
	b.host = hostAllocFunc(func(spec planar.ImageSpec) (*planar.Frame, error) {
		// Odd plane bases miss every power-of-two boundary.
		backing := make([]byte, 64*48*2)
		f := &planar.Frame{Width: 64, Height: 48, Format: pixfmt.FormatYUV420P}
		f.Stride = [3]int{64, 32, 32}
		f.Data[0] = backing[1 : 1+64*48]
		f.Data[1] = backing[1+64*48 : 1+64*48+32*24]
		f.Data[2] = backing[1+64*48+32*24 : 1+64*48+2*32*24]
		f.Rearm()
		return f, nil
	})

	target := mocks.NewPictureTarget(ports.ImageRequest{
		Width: 64, Height: 48, Alignment: 32,
		Chroma: pixfmt.Chroma420, LumaBits: 8, ChromaBits: 8,
	})
	if b.AllocateImage(target) {
		t.Error("expected fallback for a misaligned host frame")
	}
	if target.Attached() != nil {
		t.Error("misaligned frame attached")
	}
}

func TestReleaseImageRecyclesIntoPools(t *testing.T) {
	b := newTestBridge()
	target := mocks.NewPictureTarget(ports.ImageRequest{
		Width: 64, Height: 48, CropRight: 2,
		Chroma: pixfmt.Chroma420, LumaBits: 8, ChromaBits: 8,
	})
	if !b.AllocateImage(target) {
		t.Fatal("AllocateImage refused")
	}
	b.ReleaseImage(target)

	if len(b.frames.frames) != 1 {
		t.Errorf("frame pool holds %d, want 1", len(b.frames.frames))
	}
	if len(b.specs.specs) != 1 {
		t.Errorf("spec pool holds %d, want 1", len(b.specs.specs))
	}
}

func TestReleaseImageIgnoresEngineAllocations(t *testing.T) {
	b := newTestBridge()
	target := mocks.NewPictureTarget(ports.ImageRequest{})
	b.ReleaseImage(target) // nothing attached, nothing to do
	if len(b.frames.frames) != 0 {
		t.Error("pool mutated for an engine-owned image")
	}
}

func TestAllocateImageUsesHostAllocator(t *testing.T) {
	var got planar.ImageSpec
	b := newTestBridge()
	b.host = hostAllocFunc(func(spec planar.ImageSpec) (*planar.Frame, error) {
		got = spec
		return planar.NewFrame(spec.Width, spec.Height, spec.Format)
	})

	target := mocks.NewPictureTarget(ports.ImageRequest{
		Width: 32, Height: 16,
		Chroma: pixfmt.Chroma444, LumaBits: 12, ChromaBits: 12,
	})
	if !b.AllocateImage(target) {
		t.Fatal("AllocateImage refused")
	}
	if got.Format != pixfmt.FormatYUV444P12 {
		t.Errorf("host allocator saw format %v", got.Format)
	}
	if len(b.frames.frames) != 0 {
		t.Error("pool used despite host allocator")
	}
	b.ReleaseImage(target)
}

type hostAllocFunc func(planar.ImageSpec) (*planar.Frame, error)

func (f hostAllocFunc) GetFrame(spec planar.ImageSpec) (*planar.Frame, error) {
	return f(spec)
}
