package planar

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/user/hevcdec/pkg/pixfmt"
)

var (
	ErrInvalidSpec   = errors.New("invalid image spec")
	ErrFrameReleased = errors.New("frame already released")
)

// Row alignment for plane allocations. Wide enough for SIMD-friendly
// consumers and for engines that read a few bytes past the row.
const strideAlign = 32

// ImageSpec describes the geometry a decoder wants for its output images.
type ImageSpec struct {
	Width     int
	Height    int
	Format    pixfmt.Format
	CropLeft  int
	CropTop   int
	CropRight int
	CropBot   int
}

// CroppedWidth returns the visible width after cropping.
func (s ImageSpec) CroppedWidth() int {
	return s.Width - s.CropLeft - s.CropRight
}

// CroppedHeight returns the visible height after cropping.
func (s ImageSpec) CroppedHeight() int {
	return s.Height - s.CropTop - s.CropBot
}

func (s ImageSpec) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSpec, s.Width, s.Height)
	}
	if s.Format == pixfmt.FormatNone {
		return fmt.Errorf("%w: no pixel format", ErrInvalidSpec)
	}
	if s.CropLeft < 0 || s.CropTop < 0 || s.CropRight < 0 || s.CropBot < 0 {
		return fmt.Errorf("%w: negative crop", ErrInvalidSpec)
	}
	if s.CroppedWidth() <= 0 || s.CroppedHeight() <= 0 {
		return fmt.Errorf("%w: crop %d,%d,%d,%d leaves nothing of %dx%d",
			ErrInvalidSpec, s.CropLeft, s.CropTop, s.CropRight, s.CropBot, s.Width, s.Height)
	}
	return nil
}

// Frame is a planar image with reference-counted storage. The last Close
// either hands the frame back to its recycler or drops the backing buffer.
//
// Plane data lives in one allocation; Data[i] aliases into it. A frame
// obtained from NewView shares storage with its parent and keeps the
// parent alive until the view is closed.
type Frame struct {
	Width  int
	Height int
	Format pixfmt.Format

	// Data holds one slice per plane, each Stride[i]*planeHeight bytes.
	Data   [3][]byte
	Stride [3]int

	// PTS is the presentation timestamp carried through the decoder,
	// in the caller's time base. NoPTS when unknown.
	PTS int64

	// Desc carries the allocation spec when the visible size differs
	// from the allocated geometry. The consumer crops from it and
	// detaches it before handing the frame on.
	Desc *ImageSpec

	refs    atomic.Int32
	parent  *Frame
	recycle func(*Frame)
	buf     []byte
}

// NewFrame allocates a frame for the given geometry. Rows are padded to
// a fixed alignment; the allocation covers all planes.
func NewFrame(width, height int, format pixfmt.Format) (*Frame, error) {
	return NewAlignedFrame(width, height, format, strideAlign)
}

// NewAlignedFrame allocates a frame whose plane base addresses and
// strides sit on align-byte boundaries. align must be a power of two;
// values below the default row alignment are raised to it.
func NewAlignedFrame(width, height int, format pixfmt.Format, align int) (*Frame, error) {
	spec := ImageSpec{Width: width, Height: height, Format: format}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if align < strideAlign {
		align = strideAlign
	}
	if align&(align-1) != 0 {
		return nil, fmt.Errorf("%w: alignment %d", ErrInvalidSpec, align)
	}

	f := &Frame{Width: width, Height: height, Format: format}
	total := 0
	var offsets [3]int
	for i := 0; i < format.PlaneCount(); i++ {
		pw, ph := format.PlaneDims(i, width, height)
		stride := alignUp(pw*format.BytesPerSample(), align)
		f.Stride[i] = stride
		offsets[i] = total
		total += stride * ph
	}
	// Go only guarantees the natural alignment of the element type, so
	// the buffer is padded and sliced to an aligned base. Plane offsets
	// are stride multiples, keeping every plane on the boundary.
	raw := make([]byte, total+align)
	pad := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) % uintptr(align)); rem != 0 {
		pad = align - rem
	}
	f.buf = raw[pad : pad+total]
	for i := 0; i < format.PlaneCount(); i++ {
		_, ph := format.PlaneDims(i, width, height)
		f.Data[i] = f.buf[offsets[i] : offsets[i]+f.Stride[i]*ph]
	}
	f.refs.Store(1)
	return f, nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

// PlanesAligned reports whether every plane's base address sits on an
// align-byte boundary. Alignments of one or less always hold.
func (f *Frame) PlanesAligned(align int) bool {
	if align <= 1 {
		return true
	}
	for i := 0; i < f.Format.PlaneCount(); i++ {
		if len(f.Data[i]) == 0 {
			return false
		}
		if uintptr(unsafe.Pointer(&f.Data[i][0]))%uintptr(align) != 0 {
			return false
		}
	}
	return true
}

// SetRecycler installs the hook that receives the frame when its last
// reference drops. Only the owning pool sets this, before handing the
// frame out.
func (f *Frame) SetRecycler(fn func(*Frame)) {
	f.recycle = fn
}

// Retain takes an additional reference.
func (f *Frame) Retain() *Frame {
	if f.refs.Add(1) <= 1 {
		panic("planar: Retain on released frame")
	}
	return f
}

// Close drops one reference. On the last drop the frame goes back to its
// recycler, or its storage is released; a view instead unrefs its parent.
func (f *Frame) Close() error {
	n := f.refs.Add(-1)
	if n > 0 {
		return nil
	}
	if n < 0 {
		return ErrFrameReleased
	}
	if f.parent != nil {
		parent := f.parent
		f.parent = nil
		f.Data = [3][]byte{}
		return parent.Close()
	}
	if f.recycle != nil {
		f.recycle(f)
		return nil
	}
	f.buf = nil
	f.Data = [3][]byte{}
	return nil
}

// NewView returns a frame sharing this frame's storage, with plane
// pointers offset for the given crop. The view holds a reference on the
// receiver; closing the view releases it.
func (f *Frame) NewView(spec ImageSpec) (*Frame, error) {
	if spec.Format != f.Format {
		return nil, fmt.Errorf("%w: view format %v on %v frame", ErrInvalidSpec, spec.Format, f.Format)
	}
	if spec.Width > f.Width || spec.Height > f.Height {
		return nil, fmt.Errorf("%w: view %dx%d exceeds frame %dx%d",
			ErrInvalidSpec, spec.Width, spec.Height, f.Width, f.Height)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}

	f.Retain()
	v := &Frame{
		Width:  spec.CroppedWidth(),
		Height: spec.CroppedHeight(),
		Format: f.Format,
		PTS:    f.PTS,
		parent: f,
	}
	v.refs.Store(1)
	bps := f.Format.BytesPerSample()
	for i := 0; i < f.Format.PlaneCount(); i++ {
		hs, vs := f.Format.ChromaShift(i)
		off := (spec.CropTop>>vs)*f.Stride[i] + (spec.CropLeft>>hs)*bps
		v.Stride[i] = f.Stride[i]
		v.Data[i] = f.Data[i][off:]
	}
	return v, nil
}

// resetForReuse rearms a recycled frame for another trip through a pool.
func (f *Frame) resetForReuse() {
	f.refs.Store(1)
	f.PTS = 0
	f.Desc = nil
}

// Rearm is resetForReuse for callers outside the package; pools use it
// when handing a recycled frame back out.
func (f *Frame) Rearm() {
	f.resetForReuse()
}

// Matches reports whether the frame's geometry equals the spec's padded
// geometry, ignoring crop.
func (f *Frame) Matches(spec ImageSpec) bool {
	return f.Width == spec.Width && f.Height == spec.Height && f.Format == spec.Format
}
