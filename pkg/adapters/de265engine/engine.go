//go:build darwin || linux

// Package de265engine binds libde265 through purego and exposes it as
// a decoding engine.
package de265engine

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

var (
	de265Once    sync.Once
	de265Handle  uintptr
	de265LoadErr error
)

// libde265 function pointers
var (
	de265NewDecoder         func() uintptr
	de265FreeDecoder        func(ctx uintptr) int32
	de265StartWorkerThreads func(ctx uintptr, threads int32) int32
	de265PushNAL            func(ctx uintptr, data unsafe.Pointer, length int32, pts int64, user unsafe.Pointer) int32
	de265PushData           func(ctx uintptr, data unsafe.Pointer, length int32, pts int64, user unsafe.Pointer) int32
	de265FlushData          func(ctx uintptr) int32
	de265Decode             func(ctx uintptr, more *int32) int32
	de265Reset              func(ctx uintptr)
	de265GetNextPicture     func(ctx uintptr) uintptr
	de265ReleaseNextPicture func(ctx uintptr)
	de265GetImageWidth      func(img uintptr, channel int32) int32
	de265GetImageHeight     func(img uintptr, channel int32) int32
	de265GetChromaFormat    func(img uintptr) int32
	de265GetBitsPerPixel    func(img uintptr, channel int32) int32
	de265GetImagePlane      func(img uintptr, channel int32, stride *int32) uintptr
	de265GetImagePTS        func(img uintptr) int64
	de265GetErrorText       func(code int32) uintptr
	de265IsOK               func(code int32) int32
	de265SetParameterBool   func(ctx uintptr, param int32, value int32)
	de265SetFramerateRatio  func(ctx uintptr, percent int32)
	de265SetImageAllocation func(ctx uintptr, alloc *de265ImageAllocation, userdata uintptr)
	de265DefaultAllocation  func() uintptr
	de265SetImagePlane      func(img uintptr, channel int32, mem unsafe.Pointer, stride int32, userdata uintptr)
	de265GetImagePlaneUser  func(img uintptr, channel int32) uintptr
)

// de265_param values from de265.h.
const (
	de265ParamDisableDeblocking = 7
	de265ParamDisableSAO        = 8
)

// de265_decode returns this while input is exhausted but the stream is
// not done. It is below the warning range, so de265_isOK rejects it.
const de265ErrWaitingForInputData = 13

func load() error {
	de265Once.Do(func() {
		de265LoadErr = loadLibrary()
	})
	return de265LoadErr
}

func loadLibrary() error {
	libName := "libde265.so"
	if runtime.GOOS == "darwin" {
		libName = "libde265.dylib"
	}

	paths := []string{libName}
	if env := os.Getenv("LIBDE265_PATH"); env != "" {
		paths = append([]string{env}, paths...)
	}
	if runtime.GOOS == "linux" {
		paths = append(paths, "libde265.so.0")
	}

	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		de265Handle = handle
		registerSymbols()
		return nil
	}
	return fmt.Errorf("failed to load libde265: %w", lastErr)
}

// boundSymbols lists every library entry point the binding uses. All of
// them are part of the stable 1.x API; the 2.x-only entry points (for
// example de265_push_end_of_stream and de265_get_action) must not
// appear here because registration resolves each name eagerly.
func boundSymbols() []struct {
	name string
	fn   any
} {
	return []struct {
		name string
		fn   any
	}{
		{"de265_new_decoder", &de265NewDecoder},
		{"de265_free_decoder", &de265FreeDecoder},
		{"de265_start_worker_threads", &de265StartWorkerThreads},
		{"de265_push_NAL", &de265PushNAL},
		{"de265_push_data", &de265PushData},
		{"de265_flush_data", &de265FlushData},
		{"de265_decode", &de265Decode},
		{"de265_reset", &de265Reset},
		{"de265_get_next_picture", &de265GetNextPicture},
		{"de265_release_next_picture", &de265ReleaseNextPicture},
		{"de265_get_image_width", &de265GetImageWidth},
		{"de265_get_image_height", &de265GetImageHeight},
		{"de265_get_chroma_format", &de265GetChromaFormat},
		{"de265_get_bits_per_pixel", &de265GetBitsPerPixel},
		{"de265_get_image_plane", &de265GetImagePlane},
		{"de265_get_image_PTS", &de265GetImagePTS},
		{"de265_get_error_text", &de265GetErrorText},
		{"de265_isOK", &de265IsOK},
		{"de265_set_parameter_bool", &de265SetParameterBool},
		{"de265_set_framerate_ratio", &de265SetFramerateRatio},
		{"de265_set_image_allocation_functions", &de265SetImageAllocation},
		{"de265_get_default_image_allocation_functions", &de265DefaultAllocation},
		{"de265_set_image_plane", &de265SetImagePlane},
		{"de265_get_image_plane_user_data", &de265GetImagePlaneUser},
	}
}

func registerSymbols() {
	for _, s := range boundSymbols() {
		purego.RegisterLibFunc(s.fn, de265Handle, s.name)
	}
}

func de265Error(code int32) error {
	ptr := de265GetErrorText(code)
	if ptr == 0 {
		return fmt.Errorf("de265 error %d", code)
	}
	return fmt.Errorf("%s (%d)", goString(ptr), code)
}

func goString(ptr uintptr) string {
	var n int
	for *(*byte)(unsafe.Pointer(ptr + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}

// de265_image_spec from de265.h. The format field only distinguishes
// chroma layouts; bit depths are queried off the image itself.
type de265ImageSpec struct {
	format        int32
	width         int32
	height        int32
	alignment     int32
	cropLeft      int32
	cropRight     int32
	cropTop       int32
	cropBottom    int32
	visibleWidth  int32
	visibleHeight int32
}

// de265_image_allocation from de265.h, a pair of C function pointers.
// The library copies the struct, so a package-level value is safe to
// hand over.
type de265ImageAllocation struct {
	getBuffer     uintptr
	releaseBuffer uintptr
}

const (
	de265FormatMono8    = 1
	de265FormatYUV420P8 = 2
	de265FormatYUV422P8 = 3
	de265FormatYUV444P8 = 4
)

func chromaFromSpecFormat(format int32) pixfmt.ChromaLayout {
	switch format {
	case de265FormatMono8:
		return pixfmt.ChromaMono
	case de265FormatYUV422P8:
		return pixfmt.Chroma422
	case de265FormatYUV444P8:
		return pixfmt.Chroma444
	default:
		return pixfmt.Chroma420
	}
}

// Handle registries carry Go values across the C callback boundary,
// since only integers survive the trip through void* userdata.
var (
	registryMu   sync.Mutex
	handleSeq    uintptr
	allocByUser  = map[uintptr]ports.ImageAllocator{}
	framesByUser = map[uintptr]*planar.Frame{}
)

func registerAllocator(a ports.ImageAllocator) uintptr {
	registryMu.Lock()
	defer registryMu.Unlock()
	handleSeq++
	allocByUser[handleSeq] = a
	return handleSeq
}

func lookupAllocator(handle uintptr) ports.ImageAllocator {
	registryMu.Lock()
	defer registryMu.Unlock()
	return allocByUser[handle]
}

func unregisterAllocator(handle uintptr) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(allocByUser, handle)
}

func registerFrame(f *planar.Frame) uintptr {
	registryMu.Lock()
	defer registryMu.Unlock()
	handleSeq++
	framesByUser[handleSeq] = f
	return handleSeq
}

func peekFrame(handle uintptr) *planar.Frame {
	registryMu.Lock()
	defer registryMu.Unlock()
	return framesByUser[handle]
}

func takeFrame(handle uintptr) *planar.Frame {
	registryMu.Lock()
	defer registryMu.Unlock()
	f := framesByUser[handle]
	delete(framesByUser, handle)
	return f
}

// The allocation callbacks run on libde265 worker threads. Their first
// argument is documented as always null in the 1.x API, so the engine
// is identified by the userdata handle instead.
var (
	getBufferCallback = purego.NewCallback(func(_ uintptr, spec *de265ImageSpec, img uintptr, userdata uintptr) uintptr {
		return uintptr(hostGetBuffer(spec, img, userdata))
	})
	releaseBufferCallback = purego.NewCallback(func(_ uintptr, img uintptr, userdata uintptr) {
		hostReleaseBuffer(img, userdata)
	})
)

func hostGetBuffer(spec *de265ImageSpec, img uintptr, userdata uintptr) int32 {
	alloc := lookupAllocator(userdata)
	if alloc == nil {
		return defaultGetBuffer(spec, img, userdata)
	}
	target := &imageTarget{img: img, spec: spec}
	if !alloc.AllocateImage(target) || target.frame == nil {
		return defaultGetBuffer(spec, img, userdata)
	}
	return 1
}

func hostReleaseBuffer(img uintptr, userdata uintptr) {
	handle := de265GetImagePlaneUser(img, 0)
	if handle == 0 {
		// The library allocated this image itself.
		defaultReleaseBuffer(img, userdata)
		return
	}
	frame := takeFrame(handle)
	if frame == nil {
		return
	}
	if alloc := lookupAllocator(userdata); alloc != nil {
		alloc.ReleaseImage(&imageTarget{img: img, frame: frame})
		return
	}
	frame.Close()
}

// defaultGetBuffer and defaultReleaseBuffer chain to the library's own
// allocator when the host declines a request.
var defaultGetBuffer = func(spec *de265ImageSpec, img uintptr, userdata uintptr) int32 {
	d := (*de265ImageAllocation)(unsafe.Pointer(de265DefaultAllocation()))
	r, _, _ := purego.SyscallN(d.getBuffer, 0, uintptr(unsafe.Pointer(spec)), img, userdata)
	return int32(r)
}

var defaultReleaseBuffer = func(img uintptr, userdata uintptr) {
	d := (*de265ImageAllocation)(unsafe.Pointer(de265DefaultAllocation()))
	purego.SyscallN(d.releaseBuffer, 0, img, userdata)
}

// imageTarget adapts one in-flight libde265 image to the allocator
// callbacks. Attaching a frame hands its planes to the library; the
// frame's registry handle rides along as plane 0 user data so the
// release callback and HostFrame can find it again.
type imageTarget struct {
	img   uintptr
	spec  *de265ImageSpec
	frame *planar.Frame
}

var _ ports.PictureTarget = (*imageTarget)(nil)

func (t *imageTarget) Spec() ports.ImageRequest {
	s := t.spec
	chroma := chromaFromSpecFormat(s.format)
	lumaBits := int(de265GetBitsPerPixel(t.img, 0))
	chromaBits := lumaBits
	if chroma != pixfmt.ChromaMono {
		chromaBits = int(de265GetBitsPerPixel(t.img, 1))
	}
	return ports.ImageRequest{
		Width:      int(s.width),
		Height:     int(s.height),
		CropLeft:   int(s.cropLeft),
		CropTop:    int(s.cropTop),
		CropRight:  int(s.cropRight),
		CropBot:    int(s.cropBottom),
		Chroma:     chroma,
		LumaBits:   lumaBits,
		ChromaBits: chromaBits,
		Alignment:  int(s.alignment),
	}
}

func (t *imageTarget) Attach(f *planar.Frame) {
	t.frame = f
	handle := registerFrame(f)
	for i := 0; i < f.Format.PlaneCount(); i++ {
		userdata := uintptr(0)
		if i == 0 {
			userdata = handle
		}
		de265SetImagePlane(t.img, int32(i), unsafe.Pointer(&f.Data[i][0]), int32(f.Stride[i]), userdata)
	}
}

func (t *imageTarget) Attached() *planar.Frame {
	return t.frame
}

// Engine drives a libde265 decoder context. With a host allocator
// installed the library decodes straight into host frames through its
// image allocation callbacks; without one, images land in engine-owned
// storage and the host copies planes out.
type Engine struct {
	ctx         uintptr
	current     uintptr // picture outstanding from NextPicture
	allocHandle uintptr // registry key while a host allocator is installed
}

var _ ports.Engine = (*Engine)(nil)

// New creates an engine with a worker pool sized from the given thread
// count hint (0 means use all CPUs).
func New(threads int) (*Engine, error) {
	if err := load(); err != nil {
		return nil, err
	}
	ctx := de265NewDecoder()
	if ctx == 0 {
		return nil, errors.New("de265_new_decoder returned null")
	}
	if rc := de265StartWorkerThreads(ctx, int32(workerThreads(threads))); de265IsOK(rc) == 0 {
		de265FreeDecoder(ctx)
		return nil, de265Error(rc)
	}
	return &Engine{ctx: ctx}, nil
}

// workerThreads sizes the worker pool. Half the CPUs decode frames in
// parallel, each wanting several slice workers; five frames in flight
// decode measurably faster than four.
func workerThreads(hint int) int {
	cpus := hint
	if cpus <= 0 {
		cpus = runtime.NumCPU()
	}
	parallel := cpus / 2
	if parallel <= 1 {
		parallel = 2
	}
	if parallel == 4 {
		parallel = 5
	}
	return parallel * 5
}

func (e *Engine) PushNAL(nal []byte, pts int64) error {
	if len(nal) == 0 {
		return nil
	}
	rc := de265PushNAL(e.ctx, unsafe.Pointer(&nal[0]), int32(len(nal)), pts, nil)
	if de265IsOK(rc) == 0 {
		return de265Error(rc)
	}
	return nil
}

func (e *Engine) PushData(data []byte, pts int64) error {
	if len(data) == 0 {
		return nil
	}
	rc := de265PushData(e.ctx, unsafe.Pointer(&data[0]), int32(len(data)), pts, nil)
	if de265IsOK(rc) == 0 {
		return de265Error(rc)
	}
	return nil
}

// EndOfStream marks the input complete; the library expresses this as
// a final flush of pending data.
func (e *Engine) EndOfStream() error {
	if rc := de265FlushData(e.ctx); de265IsOK(rc) == 0 {
		return de265Error(rc)
	}
	return nil
}

func (e *Engine) DecodeStep() (bool, error) {
	e.releaseCurrent()
	var more int32
	rc := de265Decode(e.ctx, &more)
	if rc != 0 {
		if rc == de265ErrWaitingForInputData {
			// Not a decode failure; the next packet restarts progress.
			return false, nil
		}
		if de265IsOK(rc) == 1 {
			// Non-fatal warning.
			return false, nil
		}
		return false, de265Error(rc)
	}
	return more != 0, nil
}

func (e *Engine) NextPicture() (ports.Picture, bool) {
	img := de265GetNextPicture(e.ctx)
	if img == 0 {
		return nil, false
	}
	e.current = img
	return &picture{img: img}, true
}

// SetAllocator installs the host allocator behind libde265's image
// allocation callbacks. Passing nil restores the library's own
// allocator.
func (e *Engine) SetAllocator(a ports.ImageAllocator) {
	if e.allocHandle != 0 {
		unregisterAllocator(e.allocHandle)
		e.allocHandle = 0
	}
	if a == nil {
		d := (*de265ImageAllocation)(unsafe.Pointer(de265DefaultAllocation()))
		de265SetImageAllocation(e.ctx, d, 0)
		return
	}
	e.allocHandle = registerAllocator(a)
	de265SetImageAllocation(e.ctx, &hostAllocation, e.allocHandle)
}

var hostAllocation = de265ImageAllocation{
	getBuffer:     getBufferCallback,
	releaseBuffer: releaseBufferCallback,
}

func (e *Engine) SetSkipLoopFilter(skip bool) {
	var v int32
	if skip {
		v = 1
	}
	de265SetParameterBool(e.ctx, de265ParamDisableDeblocking, v)
	de265SetParameterBool(e.ctx, de265ParamDisableSAO, v)
}

func (e *Engine) SetFramerateRatio(percent int) {
	de265SetFramerateRatio(e.ctx, int32(percent))
}

func (e *Engine) Reset() error {
	e.releaseCurrent()
	de265Reset(e.ctx)
	return nil
}

func (e *Engine) Close() error {
	if e.ctx == 0 {
		return nil
	}
	e.releaseCurrent()
	rc := de265FreeDecoder(e.ctx)
	e.ctx = 0
	// Freeing the context releases outstanding images, so the allocator
	// stays registered until after the call.
	if e.allocHandle != 0 {
		unregisterAllocator(e.allocHandle)
		e.allocHandle = 0
	}
	if de265IsOK(rc) == 0 {
		return de265Error(rc)
	}
	return nil
}

func (e *Engine) releaseCurrent() {
	if e.current != 0 {
		de265ReleaseNextPicture(e.ctx)
		e.current = 0
	}
}

// picture wraps a de265 image. The underlying storage belongs to the
// engine and stays valid until the next DecodeStep, unless the image
// was decoded into a host frame.
type picture struct {
	img uintptr
}

var _ ports.Picture = (*picture)(nil)

func (p *picture) Width(plane int) int {
	return int(de265GetImageWidth(p.img, int32(plane)))
}

func (p *picture) Height(plane int) int {
	return int(de265GetImageHeight(p.img, int32(plane)))
}

func (p *picture) BitDepth(plane int) int {
	return int(de265GetBitsPerPixel(p.img, int32(plane)))
}

func (p *picture) ChromaLayout() pixfmt.ChromaLayout {
	switch de265GetChromaFormat(p.img) {
	case 0:
		return pixfmt.ChromaMono
	case 1:
		return pixfmt.Chroma420
	case 2:
		return pixfmt.Chroma422
	default:
		return pixfmt.Chroma444
	}
}

func (p *picture) Plane(plane int) ([]byte, int) {
	var stride int32
	ptr := de265GetImagePlane(p.img, int32(plane), &stride)
	if ptr == 0 {
		return nil, 0
	}
	height := p.Height(plane)
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(stride)*height), int(stride)
}

func (p *picture) PTS() int64 {
	return de265GetImagePTS(p.img)
}

func (p *picture) HostFrame() *planar.Frame {
	handle := de265GetImagePlaneUser(p.img, 0)
	if handle == 0 {
		return nil
	}
	return peekFrame(handle)
}
