package ports

import (
	"math"

	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
)

// NoPTS marks a packet or picture without a known timestamp.
const NoPTS = int64(math.MinInt64)

// Picture is one decoded image as the engine exposes it. Planes stay
// valid until the next decode step unless the picture was decoded into
// host storage, in which case HostFrame returns the owning frame.
type Picture interface {
	// Width returns the sample width of the given plane.
	Width(plane int) int

	// Height returns the sample height of the given plane.
	Height(plane int) int

	// BitDepth returns the coded bit depth of the given plane.
	BitDepth(plane int) int

	// ChromaLayout returns the picture's chroma subsampling.
	ChromaLayout() pixfmt.ChromaLayout

	// Plane returns the plane's sample data and its stride in bytes.
	// Samples wider than 8 bits are little-endian 16-bit.
	Plane(plane int) (data []byte, stride int)

	// PTS returns the presentation timestamp carried through the
	// engine, or NoPTS.
	PTS() int64

	// HostFrame returns the host frame the engine decoded into, or nil
	// when the engine used its own storage.
	HostFrame() *planar.Frame
}

// ImageRequest describes the buffer an engine wants for an in-flight
// picture, in the engine's own terms. The coded size covers the full
// CTB grid; the crop values reduce it to the visible window.
type ImageRequest struct {
	Width      int // coded
	Height     int // coded
	CropLeft   int
	CropTop    int
	CropRight  int
	CropBot    int
	Chroma     pixfmt.ChromaLayout
	LumaBits   int
	ChromaBits int
	Alignment  int
}

// VisibleWidth returns the width after cropping.
func (r ImageRequest) VisibleWidth() int {
	return r.Width - r.CropLeft - r.CropRight
}

// VisibleHeight returns the height after cropping.
func (r ImageRequest) VisibleHeight() int {
	return r.Height - r.CropTop - r.CropBot
}

// PictureTarget is the engine-side handle an ImageAllocator fills in.
// Attaching a frame makes the engine decode directly into it.
type PictureTarget interface {
	// Spec returns the buffer description the engine wants, including
	// the crop window it will report for the finished picture.
	Spec() ImageRequest

	// Attach hands the target a host frame to decode into. The target
	// owns the reference until the engine releases the image.
	Attach(f *planar.Frame)

	// Attached returns the frame handed to Attach, or nil.
	Attached() *planar.Frame
}

// ImageAllocator lets the host provide storage for the engine's decoded
// pictures. Returning false from AllocateImage makes the engine fall
// back to its own allocation for that picture.
type ImageAllocator interface {
	AllocateImage(target PictureTarget) bool
	ReleaseImage(target PictureTarget)
}

// HostAllocator hands out reusable frames for decoder output.
type HostAllocator interface {
	// GetFrame returns a frame matching the spec's padded geometry.
	GetFrame(spec planar.ImageSpec) (*planar.Frame, error)
}

// Engine abstracts an HEVC decoding core.
type Engine interface {
	// PushNAL feeds one NAL unit without start codes.
	PushNAL(nal []byte, pts int64) error

	// PushData feeds raw bytestream data with start codes.
	PushData(data []byte, pts int64) error

	// EndOfStream tells the engine no more data will arrive, so
	// buffered pictures can drain.
	EndOfStream() error

	// DecodeStep runs one decode iteration. more is false once the
	// engine needs input or has finished draining.
	DecodeStep() (more bool, err error)

	// NextPicture returns the next picture in output order, if any.
	// The picture stays valid until the next DecodeStep.
	NextPicture() (Picture, bool)

	// SetAllocator installs the host-side image allocator. Pass nil to
	// restore engine-internal allocation.
	SetAllocator(a ImageAllocator)

	// SetSkipLoopFilter disables the in-loop deblocking and SAO filters
	// when skip is true, trading conformance for speed.
	SetSkipLoopFilter(skip bool)

	// SetFramerateRatio limits decoding to roughly the given percentage
	// of frames by dropping the highest temporal layers. 100 decodes
	// everything.
	SetFramerateRatio(percent int)

	// Reset drops all buffered input and pictures.
	Reset() error

	// Close releases the engine.
	Close() error
}
