// Package mp4reader pulls HEVC tracks out of fragmented MP4 files.
package mp4reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/hevcdec/pkg/ports"
)

var (
	ErrNoVideoTrack = errors.New("no HEVC video track found")
	ErrProgressive  = errors.New("progressive MP4 not supported, use fragmented MP4")
)

// Reader extracts HEVC tracks from MP4 files on a filesystem.
type Reader struct {
	fs  ports.FileSystem
	log ports.Logger
}

var _ ports.Demuxer = (*Reader)(nil)

// New creates a Reader backed by the given filesystem.
func New(fs ports.FileSystem, log ports.Logger) *Reader {
	return &Reader{fs: fs, log: log}
}

// Demux extracts the HEVC track from an MP4 file on disk.
func (r *Reader) Demux(path string) (*ports.VideoTrack, error) {
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return Read(bytes.NewReader(data), r.log)
}

// Read extracts the HEVC track from the reader.
func Read(reader io.ReadSeeker, log ports.Logger) (*ports.VideoTrack, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if !mp4File.IsFragmented() {
		return nil, ErrProgressive
	}
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return nil, ErrNoVideoTrack
	}
	moov := mp4File.Init.Moov

	// Find the HEVC video track and its configuration record.
	track := &ports.VideoTrack{Timescale: 1000}
	var trex *mp4.TrexBox
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		config, err := hvcCPayload(trak)
		if err != nil {
			continue
		}
		track.TrackID = trak.Tkhd.TrackID
		track.Config = config
		if trak.Mdia.Mdhd != nil {
			track.Timescale = trak.Mdia.Mdhd.Timescale
		}
		break
	}
	if track.TrackID == 0 {
		return nil, ErrNoVideoTrack
	}
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == track.TrackID {
				trex = t
				break
			}
		}
	}

	// Walk the fragments in order.
	var sampleDur uint32
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != track.TrackID {
					continue
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("get samples: %w", err)
				}
				if sampleDur == 0 && len(samples) > 0 {
					sampleDur = samples[0].Dur
				}
				appendSamples(track, samples)
			}
		}
	}

	track.FPS = estimateFPS(track.Timescale, sampleDur)
	if log != nil {
		log.Debug("track %d: %d samples at %d timescale",
			track.TrackID, len(track.Samples), track.Timescale)
	}
	return track, nil
}

// hvcCPayload digs the HEVCDecoderConfigurationRecord out of the
// track's sample description.
func hvcCPayload(trak *mp4.TrakBox) ([]byte, error) {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil, ErrNoVideoTrack
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		entry, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok || entry.HvcC == nil {
			continue
		}
		var buf bytes.Buffer
		if err := entry.HvcC.Encode(&buf); err != nil {
			return nil, fmt.Errorf("encode hvcC: %w", err)
		}
		// Drop the 8-byte box header, keeping the record itself.
		payload := buf.Bytes()
		if len(payload) <= 8 {
			return nil, errors.New("hvcC box too small")
		}
		return payload[8:], nil
	}
	return nil, ErrNoVideoTrack
}

// appendSamples converts fragment samples into track samples. The
// presentation time is the decode time shifted by the composition
// offset, so reordered streams keep their display order timestamps.
func appendSamples(track *ports.VideoTrack, samples []mp4.FullSample) {
	for _, sample := range samples {
		track.Samples = append(track.Samples, ports.VideoSample{
			Data:     sample.Data,
			PTS:      int64(sample.DecodeTime) + int64(sample.CompositionTimeOffset),
			Keyframe: sample.Flags == mp4.SyncSampleFlags,
		})
	}
}

// estimateFPS derives a frame rate from the first sample duration.
func estimateFPS(timescale uint32, dur uint32) float64 {
	if dur == 0 {
		return 0
	}
	return float64(timescale) / float64(dur)
}
