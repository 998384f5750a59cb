// Package nullsink provides a frame sink that discards everything.
package nullsink

import (
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// Sink is a no-op implementation of ports.FrameSink. Useful for
// decode-only benchmarking and for tests.
type Sink struct {
	frames int
}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// Begin does nothing.
func (s *Sink) Begin(info ports.StreamInfo) error {
	return nil
}

// WriteFrame counts and discards the frame.
func (s *Sink) WriteFrame(f *planar.Frame) error {
	s.frames++
	return nil
}

// End does nothing.
func (s *Sink) End() error {
	return nil
}

// Frames returns how many frames were discarded.
func (s *Sink) Frames() int {
	return s.frames
}

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)
