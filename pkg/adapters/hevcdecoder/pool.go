package hevcdecoder

import (
	"sync"

	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
)

// Default capacity for both recycling pools.
const defaultPoolCapacity = 16

// framePool is a bounded free-list of decoded-frame buffers. The engine
// releases frames from its worker threads while the calling thread
// acquires them, so every access takes the lock.
type framePool struct {
	mu       sync.Mutex
	frames   []*planar.Frame
	capacity int
}

func newFramePool(capacity int) *framePool {
	if capacity <= 0 {
		capacity = defaultPoolCapacity
	}
	return &framePool{capacity: capacity}
}

// acquire returns a frame with the requested geometry, its planes
// aligned to align bytes. The oldest pooled frame is considered; on a
// geometry or alignment mismatch it is discarded and a fresh frame
// allocated. The returned frame recycles itself back into the pool
// when its last reference drops.
func (p *framePool) acquire(width, height int, format pixfmt.Format, align int) (*planar.Frame, error) {
	p.mu.Lock()
	var frame *planar.Frame
	if len(p.frames) > 0 {
		frame = p.frames[0]
		copy(p.frames, p.frames[1:])
		p.frames = p.frames[:len(p.frames)-1]
	}
	p.mu.Unlock()

	if frame != nil {
		if frame.Matches(planar.ImageSpec{Width: width, Height: height, Format: format}) &&
			frame.PlanesAligned(align) {
			frame.Rearm()
			return frame, nil
		}
		// Wrong geometry or alignment, drop it and allocate fresh.
		frame = nil
	}

	f, err := planar.NewAlignedFrame(width, height, format, align)
	if err != nil {
		return nil, err
	}
	f.SetRecycler(p.put)
	return f, nil
}

// put takes a frame whose last reference dropped. Beyond capacity the
// frame is simply let go.
func (p *framePool) put(f *planar.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) < p.capacity {
		p.frames = append(p.frames, f)
	}
}

// drain empties the pool.
func (p *framePool) drain() {
	p.mu.Lock()
	p.frames = nil
	p.mu.Unlock()
}

// specPool is a bounded free-list of crop descriptor records, recycled
// alongside the frames they annotate.
type specPool struct {
	mu       sync.Mutex
	specs    []*planar.ImageSpec
	capacity int
}

func newSpecPool(capacity int) *specPool {
	if capacity <= 0 {
		capacity = defaultPoolCapacity
	}
	return &specPool{capacity: capacity}
}

func (p *specPool) get() *planar.ImageSpec {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.specs); n > 0 {
		s := p.specs[n-1]
		p.specs = p.specs[:n-1]
		return s
	}
	return &planar.ImageSpec{}
}

func (p *specPool) put(s *planar.ImageSpec) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.specs) < p.capacity {
		p.specs = append(p.specs, s)
	}
}

func (p *specPool) drain() {
	p.mu.Lock()
	p.specs = nil
	p.mu.Unlock()
}
