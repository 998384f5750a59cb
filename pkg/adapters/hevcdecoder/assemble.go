package hevcdecoder

import (
	"fmt"

	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// assemble turns a finished engine picture into the frame handed to
// the host. Pictures decoded straight into host storage pass through
// by reference, cropping late if the allocation carried a descriptor;
// everything else is copied plane by plane with bit-depth conversion.
func (d *Decoder) assemble(pic ports.Picture) (*planar.Frame, error) {
	chroma := pic.ChromaLayout()
	planes := chroma.PlaneCount()
	bits := pic.BitDepth(0)
	for i := 1; i < planes; i++ {
		if b := pic.BitDepth(i); b > bits {
			bits = b
		}
	}
	format, ok := pixfmt.Resolve(chroma, bits)
	if !ok {
		return nil, fmt.Errorf("%w: %s at %d bits", ErrUnsupportedFormat, chroma, bits)
	}

	width := pic.Width(0)
	height := pic.Height(0)
	if width != d.width || height != d.height {
		if d.width != 0 {
			d.log.Info("dimension change %dx%d -> %dx%d", d.width, d.height, width, height)
		}
		if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
			return nil, fmt.Errorf("%w: picture size %dx%d", ErrInvalidData, width, height)
		}
		d.width = width
		d.height = height
	}

	if hf := pic.HostFrame(); hf != nil {
		return d.assembleDirect(hf, pic.PTS())
	}
	return d.assembleCopy(pic, format, width, height)
}

// assembleDirect hands out the host frame the engine decoded into.
func (d *Decoder) assembleDirect(hf *planar.Frame, pts int64) (*planar.Frame, error) {
	hf.PTS = pts
	desc := hf.Desc
	if desc == nil {
		return hf.Retain(), nil
	}

	// Cropping was deferred to now; the view offsets each plane by the
	// crop window, subsampled planes by the subsampled amount.
	hf.Desc = nil
	view, err := hf.NewView(*desc)
	if d.bridge != nil {
		d.bridge.specs.put(desc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cropping decoded frame: %v", ErrInvalidData, err)
	}
	return view, nil
}

// assembleCopy allocates a fresh frame and converts the engine's
// planes into it.
func (d *Decoder) assembleCopy(pic ports.Picture, format pixfmt.Format, width, height int) (*planar.Frame, error) {
	var frame *planar.Frame
	var err error
	if d.bridge != nil && d.bridge.host != nil {
		frame, err = d.bridge.host.GetFrame(planar.ImageSpec{Width: width, Height: height, Format: format})
	} else {
		frame, err = planar.NewFrame(width, height, format)
	}
	if err != nil {
		return nil, fmt.Errorf("allocating output frame: %w", err)
	}

	sources := make([]planar.PlaneSource, format.PlaneCount())
	for i := range sources {
		data, stride := pic.Plane(i)
		sources[i] = planar.PlaneSource{
			Data:     data,
			Stride:   stride,
			BitDepth: pic.BitDepth(i),
			Width:    pic.Width(i),
			Height:   pic.Height(i),
		}
	}
	if err := planar.CopyImage(frame, sources); err != nil {
		frame.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	frame.PTS = pic.PTS()
	return frame, nil
}
