package mocks

import (
	"sync"

	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// FrameRecord captures what a sink saw for one frame.
type FrameRecord struct {
	Width  int
	Height int
	PTS    int64
	Luma   byte // first luma sample, for content checks
}

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	mu sync.Mutex

	Info     ports.StreamInfo
	Frames   []FrameRecord
	BeginErr error
	WriteErr error
	EndCalls int
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink() *FrameSink {
	return &FrameSink{}
}

func (m *FrameSink) Begin(info ports.StreamInfo) error {
	if m.BeginErr != nil {
		return m.BeginErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Info = info
	return nil
}

func (m *FrameSink) WriteFrame(f *planar.Frame) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := FrameRecord{Width: f.Width, Height: f.Height, PTS: f.PTS}
	if len(f.Data[0]) > 0 {
		rec.Luma = f.Data[0][0]
	}
	m.Frames = append(m.Frames, rec)
	return nil
}

func (m *FrameSink) End() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndCalls++
	return nil
}

var _ ports.FrameSink = (*FrameSink)(nil)
