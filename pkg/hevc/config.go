// Package hevc handles HEVC bitstream framing: configuration records,
// length-prefixed NAL packets, and Annex B detection.
package hevc

import (
	"errors"
	"fmt"
)

var (
	ErrShortConfig   = errors.New("configuration record too short")
	ErrBadLengthSize = errors.New("invalid NAL length size")
	ErrTruncatedNAL  = errors.New("truncated NAL unit")
)

// Framing identifies how a stream delimits its NAL units.
type Framing int

const (
	// FramingAnnexB streams carry start codes inline.
	FramingAnnexB Framing = iota
	// FramingPacketized streams carry length-prefixed NAL units and a
	// separate configuration record.
	FramingPacketized
)

func (f Framing) String() string {
	switch f {
	case FramingAnnexB:
		return "annex-b"
	case FramingPacketized:
		return "packetized"
	default:
		return "unknown"
	}
}

// SniffFraming inspects out-of-band configuration data. A record that
// cannot be the start of an Annex B start code is an hvcC box payload.
func SniffFraming(config []byte) Framing {
	if len(config) > 3 && (config[0] != 0 || config[1] != 0 || config[2] > 1) {
		return FramingPacketized
	}
	return FramingAnnexB
}

// ConfigRecord is a parsed HEVCDecoderConfigurationRecord.
type ConfigRecord struct {
	// NALLengthSize is the byte width of each NAL unit's length prefix
	// in the stream, 1 to 4.
	NALLengthSize int

	// ParameterSets holds the VPS, SPS and PPS NAL units in record
	// order, without length prefixes or start codes.
	ParameterSets [][]byte
}

// ParseConfigRecord parses an hvcC payload. Only the length size and
// the parameter set arrays are extracted; the profile and level fields
// the record also carries belong to the engine.
func ParseConfigRecord(data []byte) (*ConfigRecord, error) {
	if len(data) < 23 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortConfig, len(data))
	}

	rec := &ConfigRecord{NALLengthSize: int(data[21]&3) + 1}
	numArrays := int(data[22])
	pos := 23
	for a := 0; a < numArrays; a++ {
		// One byte of array flags and NAL type, then the unit count.
		if pos+3 > len(data) {
			return nil, fmt.Errorf("%w: array %d header at %d", ErrShortConfig, a, pos)
		}
		count := int(data[pos+1])<<8 | int(data[pos+2])
		pos += 3
		for n := 0; n < count; n++ {
			if pos+2 > len(data) {
				return nil, fmt.Errorf("%w: array %d unit %d length at %d", ErrShortConfig, a, n, pos)
			}
			size := int(data[pos])<<8 | int(data[pos+1])
			pos += 2
			if pos+size > len(data) {
				return nil, fmt.Errorf("%w: array %d unit %d needs %d bytes", ErrTruncatedNAL, a, n, size)
			}
			rec.ParameterSets = append(rec.ParameterSets, data[pos:pos+size])
			pos += size
		}
	}
	return rec, nil
}

// SplitLengthPrefixed walks a packet of length-prefixed NAL units and
// returns them in order. The prefixes are big-endian of the given byte
// width. A prefix that points past the packet is an error rather than
// a short read; trailing bytes shorter than a prefix are ignored.
func SplitLengthPrefixed(data []byte, lengthSize int) ([][]byte, error) {
	if lengthSize < 1 || lengthSize > 4 {
		return nil, fmt.Errorf("%w: %d", ErrBadLengthSize, lengthSize)
	}

	var nals [][]byte
	pos := 0
	for pos+lengthSize <= len(data) {
		size := 0
		for i := 0; i < lengthSize; i++ {
			size = size<<8 | int(data[pos+i])
		}
		pos += lengthSize
		if size > len(data)-pos {
			return nil, fmt.Errorf("%w: prefix %d with %d bytes left", ErrTruncatedNAL, size, len(data)-pos)
		}
		nals = append(nals, data[pos:pos+size])
		pos += size
	}
	return nals, nil
}
