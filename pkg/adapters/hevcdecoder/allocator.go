package hevcdecoder

import (
	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// allocBridge implements the engine's image allocation callbacks. It
// negotiates a host pixel format for each request and hands the engine
// a frame to decode into, either from the host's allocator or from the
// recycling pools. Any failure makes the engine fall back to its own
// allocation for that picture, never an error.
//
// The engine calls AllocateImage and ReleaseImage from its worker
// threads; the pools carry their own locks.
type allocBridge struct {
	frames *framePool
	specs  *specPool
	host   ports.HostAllocator // optional
	log    ports.Logger
}

var _ ports.ImageAllocator = (*allocBridge)(nil)

func (b *allocBridge) AllocateImage(target ports.PictureTarget) bool {
	req := target.Spec()

	if req.Chroma != pixfmt.ChromaMono && req.LumaBits != req.ChromaBits {
		return false
	}
	format, ok := pixfmt.Resolve(req.Chroma, req.LumaBits)
	if !ok {
		b.log.Debug("no host format for %s at %d bits, engine allocates", req.Chroma, req.LumaBits)
		return false
	}
	// A format that cannot represent the coded depth exactly means the
	// samples need shifting, which only the copy path does.
	if format.BitDepth() != req.LumaBits {
		return false
	}

	frame, err := b.getFrame(req, format)
	if err != nil || frame == nil {
		return false
	}
	// The engine addresses plane bases at its own alignment, so storage
	// that misses the boundary is unusable for direct decoding.
	if !frame.PlanesAligned(req.Alignment) {
		b.log.Debug("frame misaligned for %d byte planes, engine allocates", req.Alignment)
		frame.Close()
		return false
	}

	if req.VisibleWidth() != req.Width || req.VisibleHeight() != req.Height {
		// Cropping happens at retrieval time; remember the window.
		desc := b.specs.get()
		*desc = planar.ImageSpec{
			Width:     req.Width,
			Height:    req.Height,
			Format:    format,
			CropLeft:  req.CropLeft,
			CropTop:   req.CropTop,
			CropRight: req.CropRight,
			CropBot:   req.CropBot,
		}
		frame.Desc = desc
	}

	target.Attach(frame)
	return true
}

func (b *allocBridge) getFrame(req ports.ImageRequest, format pixfmt.Format) (*planar.Frame, error) {
	if b.host != nil {
		return b.host.GetFrame(planar.ImageSpec{
			Width:     req.Width,
			Height:    req.Height,
			Format:    format,
			CropLeft:  req.CropLeft,
			CropTop:   req.CropTop,
			CropRight: req.CropRight,
			CropBot:   req.CropBot,
		})
	}
	return b.frames.acquire(req.Width, req.Height, format, req.Alignment)
}

func (b *allocBridge) ReleaseImage(target ports.PictureTarget) {
	frame := target.Attached()
	if frame == nil {
		return
	}
	if frame.Desc != nil {
		// The picture never reached the assembler with its descriptor.
		b.specs.put(frame.Desc)
		frame.Desc = nil
	}
	if err := frame.Close(); err != nil {
		b.log.Warn("releasing decoded image: %v", err)
	}
}

func (b *allocBridge) drain() {
	b.frames.drain()
	b.specs.drain()
}
