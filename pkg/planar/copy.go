package planar

import (
	"encoding/binary"
	"fmt"
)

// CopyPlane copies rows of width bytes between planes with independent
// strides. Matching strides collapse the rows into one pass over the
// plane, row padding included.
func CopyPlane(dst []byte, dstStride int, src []byte, srcStride, width, height int) {
	if height <= 0 {
		return
	}
	if dstStride == srcStride {
		copy(dst[:dstStride*(height-1)+width], src)
		return
	}
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+width], src[y*srcStride:])
	}
}

// ShiftLeftCopy copies little-endian 16-bit samples, shifting each value
// left. Used when the output format is deeper than the coded bit depth.
func ShiftLeftCopy(dst []byte, dstStride int, src []byte, srcStride, width, height, shift int) {
	for y := 0; y < height; y++ {
		drow := dst[y*dstStride:]
		srow := src[y*srcStride:]
		for x := 0; x < width; x++ {
			v := binary.LittleEndian.Uint16(srow[2*x:])
			binary.LittleEndian.PutUint16(drow[2*x:], v<<shift)
		}
	}
}

// ShiftRightCopy narrows little-endian 16-bit samples to bytes, shifting
// each value right. Used when deep input must land in an 8-bit plane.
func ShiftRightCopy(dst []byte, dstStride int, src []byte, srcStride, width, height, shift int) {
	for y := 0; y < height; y++ {
		drow := dst[y*dstStride:]
		srow := src[y*srcStride:]
		for x := 0; x < width; x++ {
			v := binary.LittleEndian.Uint16(srow[2*x:])
			drow[x] = byte(v >> shift)
		}
	}
}

// WidenCopy expands 8-bit samples into little-endian 16-bit samples with
// a left shift.
func WidenCopy(dst []byte, dstStride int, src []byte, srcStride, width, height, shift int) {
	for y := 0; y < height; y++ {
		drow := dst[y*dstStride:]
		srow := src[y*srcStride:]
		for x := 0; x < width; x++ {
			binary.LittleEndian.PutUint16(drow[2*x:], uint16(srow[x])<<shift)
		}
	}
}

// PlaneSource is one decoded plane as the engine exposes it.
type PlaneSource struct {
	Data     []byte
	Stride   int
	BitDepth int
	Width    int
	Height   int
}

// CopyImage fills dst from per-plane engine output, converting sample
// width where the engine's bit depth and dst's format disagree. Source
// samples wider than 8 bits are little-endian 16-bit.
func CopyImage(dst *Frame, planes []PlaneSource) error {
	want := dst.Format.PlaneCount()
	if len(planes) < want {
		return fmt.Errorf("%w: %d planes for %v", ErrInvalidSpec, len(planes), dst.Format)
	}
	dstDepth := dst.Format.BitDepth()
	dstBPS := dst.Format.BytesPerSample()
	for i := 0; i < want; i++ {
		p := planes[i]
		pw, ph := dst.Format.PlaneDims(i, dst.Width, dst.Height)
		if p.Width < pw || p.Height < ph {
			return fmt.Errorf("%w: plane %d is %dx%d, need %dx%d",
				ErrInvalidSpec, i, p.Width, p.Height, pw, ph)
		}
		srcBPS := 1
		if p.BitDepth > 8 {
			srcBPS = 2
		}
		switch {
		case srcBPS == dstBPS && p.BitDepth == dstDepth:
			CopyPlane(dst.Data[i], dst.Stride[i], p.Data, p.Stride, pw*dstBPS, ph)
		case srcBPS == 2 && dstBPS == 2 && p.BitDepth < dstDepth:
			ShiftLeftCopy(dst.Data[i], dst.Stride[i], p.Data, p.Stride, pw, ph, dstDepth-p.BitDepth)
		case srcBPS == 2 && dstBPS == 2 && p.BitDepth > dstDepth:
			// Deep source into a shallower 16-bit plane does not occur
			// with the formats the resolver hands out.
			return fmt.Errorf("%w: %d-bit source into %d-bit plane", ErrInvalidSpec, p.BitDepth, dstDepth)
		case srcBPS == 2 && dstBPS == 1:
			ShiftRightCopy(dst.Data[i], dst.Stride[i], p.Data, p.Stride, pw, ph, p.BitDepth-dstDepth)
		case srcBPS == 1 && dstBPS == 2:
			WidenCopy(dst.Data[i], dst.Stride[i], p.Data, p.Stride, pw, ph, dstDepth-p.BitDepth)
		default:
			CopyPlane(dst.Data[i], dst.Stride[i], p.Data, p.Stride, pw, ph)
		}
	}
	return nil
}
