package ports

import (
	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
)

// StreamInfo describes the decoded stream a sink is about to receive.
type StreamInfo struct {
	Width  int
	Height int
	Format pixfmt.Format
	FPS    float64 // 0 when the container carries no rate
}

// FrameSink consumes decoded frames in output order.
type FrameSink interface {
	// Begin prepares the sink for a stream. It is called once, before
	// the first frame.
	Begin(info StreamInfo) error

	// WriteFrame consumes one frame. The sink must not hold the frame
	// past the call; it takes its own reference if it needs to.
	WriteFrame(f *planar.Frame) error

	// End finalizes the sink's output.
	End() error
}
