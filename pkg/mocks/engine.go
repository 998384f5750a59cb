package mocks

import (
	"sync"

	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// PictureTarget is a mock implementation of ports.PictureTarget.
type PictureTarget struct {
	Req   ports.ImageRequest
	frame *planar.Frame
}

// NewPictureTarget creates a target for the given request.
func NewPictureTarget(req ports.ImageRequest) *PictureTarget {
	return &PictureTarget{Req: req}
}

func (t *PictureTarget) Spec() ports.ImageRequest { return t.Req }
func (t *PictureTarget) Attach(f *planar.Frame)   { t.frame = f }
func (t *PictureTarget) Attached() *planar.Frame  { return t.frame }

var _ ports.PictureTarget = (*PictureTarget)(nil)

// EnginePicture is a mock implementation of ports.Picture. Internally
// allocated planes carry a per-plane fill pattern so copy paths can be
// verified.
type EnginePicture struct {
	Req    ports.ImageRequest
	Pts    int64
	target *PictureTarget
	host   *planar.Frame

	planes  [3][]byte
	strides [3]int
}

func (p *EnginePicture) Width(plane int) int {
	hs, _ := chromaShift(p.Req.Chroma, plane)
	return p.Req.VisibleWidth() >> hs
}

func (p *EnginePicture) Height(plane int) int {
	_, vs := chromaShift(p.Req.Chroma, plane)
	return p.Req.VisibleHeight() >> vs
}

func (p *EnginePicture) BitDepth(plane int) int {
	if plane == 0 {
		return p.Req.LumaBits
	}
	return p.Req.ChromaBits
}

func (p *EnginePicture) ChromaLayout() pixfmt.ChromaLayout { return p.Req.Chroma }

func (p *EnginePicture) Plane(plane int) ([]byte, int) {
	return p.planes[plane], p.strides[plane]
}

func (p *EnginePicture) PTS() int64               { return p.Pts }
func (p *EnginePicture) HostFrame() *planar.Frame { return p.host }

var _ ports.Picture = (*EnginePicture)(nil)

func chromaShift(chroma pixfmt.ChromaLayout, plane int) (int, int) {
	if plane == 0 || chroma == pixfmt.ChromaMono {
		return 0, 0
	}
	switch chroma {
	case pixfmt.Chroma420:
		return 1, 1
	case pixfmt.Chroma422:
		return 1, 0
	default:
		return 0, 0
	}
}

// Engine is a mock implementation of ports.Engine. Tests script it with
// QueuePicture; each DecodeStep surfaces one queued picture, going
// through the installed allocator like a real engine would.
type Engine struct {
	mu        sync.Mutex
	allocator ports.ImageAllocator
	queue     []script
	current   *EnginePicture
	retired   *EnginePicture

	NALs      [][]byte
	RawPushes [][]byte
	PTSValues []int64

	EndOfStreamCalls int
	ResetCalls       int
	CloseCalls       int

	SkipLoopFilter bool
	FramerateRatio int

	PushNALErr    error
	PushDataErr   error
	DecodeStepErr error

	// ForceInternal makes the engine skip the allocator, as if every
	// host allocation had failed.
	ForceInternal bool
}

type script struct {
	req ports.ImageRequest
	pts int64
}

// NewEngine creates a new mock Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// QueuePicture schedules one decoded picture for a later DecodeStep.
func (e *Engine) QueuePicture(req ports.ImageRequest, pts int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, script{req: req, pts: pts})
}

func (e *Engine) PushNAL(nal []byte, pts int64) error {
	if e.PushNALErr != nil {
		return e.PushNALErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.NALs = append(e.NALs, append([]byte(nil), nal...))
	e.PTSValues = append(e.PTSValues, pts)
	return nil
}

func (e *Engine) PushData(data []byte, pts int64) error {
	if e.PushDataErr != nil {
		return e.PushDataErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.RawPushes = append(e.RawPushes, append([]byte(nil), data...))
	e.PTSValues = append(e.PTSValues, pts)
	return nil
}

func (e *Engine) EndOfStream() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.EndOfStreamCalls++
	return nil
}

func (e *Engine) DecodeStep() (bool, error) {
	if e.DecodeStepErr != nil {
		return false, e.DecodeStepErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.retired != nil {
		e.releaseLocked(e.retired)
		e.retired = nil
	}
	if e.current != nil {
		return len(e.queue) > 0, nil
	}
	if len(e.queue) == 0 {
		return false, nil
	}
	s := e.queue[0]
	e.queue = e.queue[1:]
	e.current = e.buildPicture(s)
	return len(e.queue) > 0, nil
}

func (e *Engine) NextPicture() (ports.Picture, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil, false
	}
	p := e.current
	e.current = nil
	e.retired = p
	return p, true
}

func (e *Engine) SetAllocator(a ports.ImageAllocator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.allocator = a
}

func (e *Engine) SetSkipLoopFilter(skip bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.SkipLoopFilter = skip
}

func (e *Engine) SetFramerateRatio(percent int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.FramerateRatio = percent
}

func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked(e.current)
	e.releaseLocked(e.retired)
	e.current = nil
	e.retired = nil
	e.queue = nil
	e.ResetCalls++
	return nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked(e.current)
	e.releaseLocked(e.retired)
	e.current = nil
	e.retired = nil
	e.CloseCalls++
	return nil
}

var _ ports.Engine = (*Engine)(nil)

func (e *Engine) buildPicture(s script) *EnginePicture {
	p := &EnginePicture{Req: s.req, Pts: s.pts}
	if e.allocator != nil && !e.ForceInternal {
		t := NewPictureTarget(s.req)
		if e.allocator.AllocateImage(t) && t.Attached() != nil {
			p.target = t
			p.host = t.Attached()
			fillHostFrame(p.host, s.req)
			return p
		}
	}

	// Engine-internal allocation at visible dimensions.
	for i := 0; i < s.req.Chroma.PlaneCount(); i++ {
		bps := 1
		if p.BitDepth(i) > 8 {
			bps = 2
		}
		w := p.Width(i)
		h := p.Height(i)
		p.strides[i] = w * bps
		p.planes[i] = make([]byte, p.strides[i]*h)
		for j := range p.planes[i] {
			p.planes[i][j] = planeFill(i)
		}
	}
	return p
}

func (e *Engine) releaseLocked(p *EnginePicture) {
	if p == nil || p.target == nil || e.allocator == nil {
		return
	}
	e.allocator.ReleaseImage(p.target)
	p.target = nil
}

func fillHostFrame(f *planar.Frame, req ports.ImageRequest) {
	for i := 0; i < req.Chroma.PlaneCount(); i++ {
		for j := range f.Data[i] {
			f.Data[i][j] = planeFill(i)
		}
	}
}

func planeFill(plane int) byte {
	return byte(0x10*(plane+1) + 1)
}
