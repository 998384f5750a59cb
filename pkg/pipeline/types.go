package pipeline

import (
	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/ports"
)

// =============================================================================
// Demux Stage Types
// =============================================================================

// DemuxInput contains parameters for track extraction.
type DemuxInput struct {
	Path string
}

// DemuxResult contains the extracted video track.
type DemuxResult struct {
	Track *ports.VideoTrack
}

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput contains parameters for stream decoding.
type DecodeInput struct {
	Track *ports.VideoTrack

	// FPS overrides the track's frame rate estimate when positive.
	FPS float64

	// PoolCapacity bounds the decoder's frame recycling pools.
	// Zero keeps the default.
	PoolCapacity int

	// EngineAllocation forces engine-owned image storage, disabling
	// decode into host frames.
	EngineAllocation bool

	// SkipLoopFilter disables in-loop filtering for faster decoding.
	SkipLoopFilter bool

	// DecodeRatio limits decoding to a percentage of frames. Zero or
	// 100 decodes everything.
	DecodeRatio int
}

// DefaultDecodeInput returns DecodeInput with default values.
func DefaultDecodeInput() DecodeInput {
	return DecodeInput{}
}

// DecodeResult summarizes a finished decode run.
type DecodeResult struct {
	Frames     int
	Width      int
	Height     int
	Format     pixfmt.Format
	FPS        float64 // effective rate handed to the sink
	DurationMs int64
}
