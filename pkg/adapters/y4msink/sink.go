// Package y4msink writes decoded frames as a YUV4MPEG2 stream.
package y4msink

import (
	"fmt"
	"io"
	"math"

	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// Sink streams frames to a .y4m file.
type Sink struct {
	path string
	fs   ports.FileSystem
	out  io.WriteCloser
	info ports.StreamInfo
}

// New creates a sink writing to the given path.
func New(path string, fs ports.FileSystem) *Sink {
	return &Sink{path: path, fs: fs}
}

// Begin opens the output file and writes the stream header.
func (s *Sink) Begin(info ports.StreamInfo) error {
	cs, err := colorspace(info.Format)
	if err != nil {
		return err
	}

	out, err := s.fs.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.path, err)
	}
	s.out = out
	s.info = info

	num, den := rational(info.FPS)
	_, err = fmt.Fprintf(out, "YUV4MPEG2 W%d H%d F%d:%d Ip A1:1 %s\n",
		info.Width, info.Height, num, den, cs)
	return err
}

// WriteFrame writes one frame, rows packed without stride padding.
func (s *Sink) WriteFrame(f *planar.Frame) error {
	if s.out == nil {
		return fmt.Errorf("sink not started")
	}
	if _, err := io.WriteString(s.out, "FRAME\n"); err != nil {
		return err
	}
	bps := f.Format.BytesPerSample()
	for i := 0; i < f.Format.PlaneCount(); i++ {
		pw, ph := f.Format.PlaneDims(i, f.Width, f.Height)
		row := pw * bps
		for y := 0; y < ph; y++ {
			if _, err := s.out.Write(f.Data[i][y*f.Stride[i] : y*f.Stride[i]+row]); err != nil {
				return err
			}
		}
	}
	return nil
}

// End closes the output file.
func (s *Sink) End() error {
	if s.out == nil {
		return nil
	}
	err := s.out.Close()
	s.out = nil
	return err
}

var _ ports.FrameSink = (*Sink)(nil)

func colorspace(format pixfmt.Format) (string, error) {
	var tag string
	switch format.ChromaLayout() {
	case pixfmt.ChromaMono:
		return "Cmono", nil
	case pixfmt.Chroma420:
		tag = "C420"
	case pixfmt.Chroma422:
		tag = "C422"
	case pixfmt.Chroma444:
		tag = "C444"
	default:
		return "", fmt.Errorf("no yuv4mpeg colorspace for %v", format)
	}
	if depth := format.BitDepth(); depth > 8 {
		tag = fmt.Sprintf("%sp%d", tag, depth)
	} else if format.ChromaLayout() == pixfmt.Chroma420 {
		tag = "C420jpeg"
	}
	return tag, nil
}

// rational maps a frame rate to the F token. The NTSC rates keep their
// exact 1001 denominators.
func rational(fps float64) (int, int) {
	if fps <= 0 {
		return 25, 1
	}
	for _, ntsc := range []int{24000, 30000, 60000} {
		if math.Abs(fps-float64(ntsc)/1001.0) < 0.01 {
			return ntsc, 1001
		}
	}
	if math.Abs(fps-math.Round(fps)) < 1e-6 {
		return int(math.Round(fps)), 1
	}
	return int(math.Round(fps * 1000)), 1000
}
