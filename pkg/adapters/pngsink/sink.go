// Package pngsink renders decoded frames to numbered PNG files.
package pngsink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// Sink converts each frame to RGB and writes frame-NNNNN.png files
// into a directory.
type Sink struct {
	dir      string
	fs       ports.FileSystem
	maxWidth int
	index    int
}

// New creates a sink writing into dir. A maxWidth above zero scales
// wider frames down, keeping the aspect ratio.
func New(dir string, fs ports.FileSystem, maxWidth int) *Sink {
	return &Sink{dir: dir, fs: fs, maxWidth: maxWidth}
}

// Begin creates the output directory.
func (s *Sink) Begin(info ports.StreamInfo) error {
	s.index = 0
	return s.fs.MkdirAll(s.dir)
}

// WriteFrame converts and writes one frame.
func (s *Sink) WriteFrame(f *planar.Frame) error {
	img := toRGBA(f)

	if s.maxWidth > 0 && img.Bounds().Dx() > s.maxWidth {
		h := img.Bounds().Dy() * s.maxWidth / img.Bounds().Dx()
		scaled := image.NewRGBA(image.Rect(0, 0, s.maxWidth, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode frame %d: %w", s.index, err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("frame-%05d.png", s.index))
	s.index++
	return s.fs.WriteFile(path, buf.Bytes())
}

// End does nothing; every frame is already on disk.
func (s *Sink) End() error {
	return nil
}

var _ ports.FrameSink = (*Sink)(nil)

// toRGBA converts a planar frame to RGBA. Deep samples are reduced to
// 8 bits first; chroma is picked nearest-neighbour per the layout.
func toRGBA(f *planar.Frame) *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	mono := f.Format.ChromaLayout() == pixfmt.ChromaMono
	depth := f.Format.BitDepth()
	bps := f.Format.BytesPerSample()
	hs, vs := f.Format.ChromaShift(1)

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			yVal := sample8(f.Data[0], f.Stride[0], x, y, bps, depth)
			if mono {
				idx := y*rgba.Stride + x*4
				rgba.Pix[idx] = yVal
				rgba.Pix[idx+1] = yVal
				rgba.Pix[idx+2] = yVal
				rgba.Pix[idx+3] = 255
				continue
			}
			uVal := sample8(f.Data[1], f.Stride[1], x>>hs, y>>vs, bps, depth)
			vVal := sample8(f.Data[2], f.Stride[2], x>>hs, y>>vs, bps, depth)

			// YUV to RGB conversion
			c := int(yVal) - 16
			d := int(uVal) - 128
			e := int(vVal) - 128

			r := clamp((298*c + 409*e + 128) >> 8)
			g := clamp((298*c - 100*d - 208*e + 128) >> 8)
			b := clamp((298*c + 516*d + 128) >> 8)

			idx := y*rgba.Stride + x*4
			rgba.Pix[idx] = uint8(r)
			rgba.Pix[idx+1] = uint8(g)
			rgba.Pix[idx+2] = uint8(b)
			rgba.Pix[idx+3] = 255
		}
	}
	return rgba
}

func sample8(plane []byte, stride, x, y, bps, depth int) uint8 {
	if bps == 1 {
		return plane[y*stride+x]
	}
	off := y*stride + 2*x
	v := uint16(plane[off]) | uint16(plane[off+1])<<8
	return uint8(v >> (depth - 8))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
