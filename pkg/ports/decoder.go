package ports

import (
	"github.com/user/hevcdec/pkg/planar"
)

// Packet is one encoded access unit with timing information.
type Packet struct {
	Data []byte
	PTS  int64 // NoPTS when unknown
}

// DecoderOptions tunes a decoder built by a DecoderFactory.
type DecoderOptions struct {
	// PoolCapacity bounds the frame and descriptor recycling pools.
	// Zero keeps the factory's default.
	PoolCapacity int

	// EngineAllocation forces engine-owned image storage instead of
	// decoding into host frames.
	EngineAllocation bool

	// SkipLoopFilter disables in-loop filtering for faster decoding.
	SkipLoopFilter bool

	// DecodeRatio limits decoding to a percentage of frames by dropping
	// the highest temporal layers. Zero or 100 decodes everything.
	DecodeRatio int
}

// DecoderFactory builds stream decoders bound to a track's out-of-band
// configuration. Config may be nil for raw bytestreams.
type DecoderFactory interface {
	NewDecoder(config []byte, opts DecoderOptions) (StreamDecoder, error)
}

// StreamDecoder turns encoded packets into decoded frames.
type StreamDecoder interface {
	// DecodePacket feeds one packet and returns a frame if one became
	// available. An empty packet signals end of stream and drains
	// buffered pictures; repeat until produced is false. The caller
	// owns the returned frame and must Close it.
	DecodePacket(pkt Packet) (frame *planar.Frame, produced bool, err error)

	// Flush drops buffered input and pictures, for use on seek.
	Flush() error

	// Close releases the decoder and its engine.
	Close() error
}
