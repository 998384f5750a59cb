// Package pixfmt defines the planar pixel formats the decoder can emit and
// the negotiation from a bitstream's chroma layout and bit depth to a
// concrete output format.
package pixfmt

import "fmt"

// ChromaLayout is the subsampling scheme of the color planes relative to luma.
type ChromaLayout int

const (
	ChromaMono ChromaLayout = iota // luma only
	Chroma420                      // chroma halved horizontally and vertically
	Chroma422                      // chroma halved horizontally
	Chroma444                      // full-resolution chroma
)

// String returns the conventional name of the layout.
func (c ChromaLayout) String() string {
	switch c {
	case ChromaMono:
		return "mono"
	case Chroma420:
		return "4:2:0"
	case Chroma422:
		return "4:2:2"
	case Chroma444:
		return "4:4:4"
	default:
		return "unknown"
	}
}

// PlaneCount returns the number of planes for this layout.
func (c ChromaLayout) PlaneCount() int {
	if c == ChromaMono {
		return 1
	}
	return 3
}

// Subsampled returns true if the chroma planes are smaller than luma.
func (c ChromaLayout) Subsampled() bool {
	return c == Chroma420 || c == Chroma422
}

// Format is a concrete planar output pixel format. Formats deeper than 8 bits
// store each sample as a little-endian 16-bit value.
type Format int

const (
	FormatNone Format = iota // negotiation failed

	FormatGray8

	FormatYUV420P
	FormatYUV420P9
	FormatYUV420P10
	FormatYUV420P12
	FormatYUV420P14
	FormatYUV420P16

	FormatYUV422P
	FormatYUV422P9
	FormatYUV422P10
	FormatYUV422P12
	FormatYUV422P14
	FormatYUV422P16

	FormatYUV444P
	FormatYUV444P9
	FormatYUV444P10
	FormatYUV444P12
	FormatYUV444P14
	FormatYUV444P16
)

// String returns the conventional name of the format.
func (f Format) String() string {
	if f == FormatGray8 {
		return "gray8"
	}
	if f == FormatNone {
		return "none"
	}
	layout := f.ChromaLayout()
	if f.BitDepth() == 8 {
		return fmt.Sprintf("yuv%sp", layoutTag(layout))
	}
	return fmt.Sprintf("yuv%sp%dle", layoutTag(layout), f.BitDepth())
}

func layoutTag(c ChromaLayout) string {
	switch c {
	case Chroma420:
		return "420"
	case Chroma422:
		return "422"
	default:
		return "444"
	}
}

// ChromaLayout returns the subsampling layout of the format.
func (f Format) ChromaLayout() ChromaLayout {
	switch {
	case f == FormatGray8:
		return ChromaMono
	case f >= FormatYUV420P && f <= FormatYUV420P16:
		return Chroma420
	case f >= FormatYUV422P && f <= FormatYUV422P16:
		return Chroma422
	case f >= FormatYUV444P && f <= FormatYUV444P16:
		return Chroma444
	default:
		return ChromaMono
	}
}

// BitDepth returns the nominal bits per sample of the format, or -1 for
// FormatNone.
func (f Format) BitDepth() int {
	switch f {
	case FormatGray8, FormatYUV420P, FormatYUV422P, FormatYUV444P:
		return 8
	case FormatYUV420P9, FormatYUV422P9, FormatYUV444P9:
		return 9
	case FormatYUV420P10, FormatYUV422P10, FormatYUV444P10:
		return 10
	case FormatYUV420P12, FormatYUV422P12, FormatYUV444P12:
		return 12
	case FormatYUV420P14, FormatYUV422P14, FormatYUV444P14:
		return 14
	case FormatYUV420P16, FormatYUV422P16, FormatYUV444P16:
		return 16
	default:
		return -1
	}
}

// BytesPerSample returns the storage size of one sample: 1 for 8-bit formats,
// 2 for everything deeper.
func (f Format) BytesPerSample() int {
	if f.BitDepth() > 8 {
		return 2
	}
	return 1
}

// PlaneCount returns the number of planes of the format.
func (f Format) PlaneCount() int {
	return f.ChromaLayout().PlaneCount()
}

// ChromaShift returns the horizontal and vertical subsampling shifts for the
// given plane. Plane 0 (luma) is never shifted.
func (f Format) ChromaShift(plane int) (hshift, vshift int) {
	if plane == 0 {
		return 0, 0
	}
	switch f.ChromaLayout() {
	case Chroma420:
		return 1, 1
	case Chroma422:
		return 1, 0
	default:
		return 0, 0
	}
}

// PlaneDims returns the pixel dimensions of the given plane for an image of
// the given visible size. Odd dimensions round up for subsampled planes.
func (f Format) PlaneDims(plane, width, height int) (pw, ph int) {
	hs, vs := f.ChromaShift(plane)
	pw = (width + (1 << hs) - 1) >> hs
	ph = (height + (1 << vs) - 1) >> vs
	return pw, ph
}

var formatGrid = map[ChromaLayout]map[int]Format{
	Chroma420: {
		8: FormatYUV420P, 9: FormatYUV420P9, 10: FormatYUV420P10,
		12: FormatYUV420P12, 14: FormatYUV420P14, 16: FormatYUV420P16,
	},
	Chroma422: {
		8: FormatYUV422P, 9: FormatYUV422P9, 10: FormatYUV422P10,
		12: FormatYUV422P12, 14: FormatYUV422P14, 16: FormatYUV422P16,
	},
	Chroma444: {
		8: FormatYUV444P, 9: FormatYUV444P9, 10: FormatYUV444P10,
		12: FormatYUV444P12, 14: FormatYUV444P14, 16: FormatYUV444P16,
	},
}

// Resolve maps a chroma layout and bits-per-pixel to the output format.
//
// Exactly matching grid points (8, 9, 10, 12, 14, 16) map one to one. Depths
// between grid points, or above 14 up to 16, resolve to the 16-bit format of
// the layout; the consumer has to shift samples accordingly. Anything outside
// 8..16, or an unrecognised layout, reports ok=false.
func Resolve(chroma ChromaLayout, bitsPerPixel int) (Format, bool) {
	if chroma == ChromaMono {
		// There is no deep grayscale output; anything in range falls back to
		// 8-bit and the consumer right-shifts samples down.
		if bitsPerPixel < 8 || bitsPerPixel > 16 {
			return FormatNone, false
		}
		return FormatGray8, true
	}
	grid, known := formatGrid[chroma]
	if !known {
		return FormatNone, false
	}
	if f, exact := grid[bitsPerPixel]; exact {
		return f, true
	}
	if bitsPerPixel < 8 || bitsPerPixel > 16 {
		return FormatNone, false
	}
	return grid[16], true
}
