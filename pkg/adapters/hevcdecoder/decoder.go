// Package hevcdecoder bridges an HEVC decoding engine to host-owned
// frame buffers. It negotiates pixel formats, feeds the engine NAL
// units in either framing, and assembles decoded pictures into frames.
package hevcdecoder

import (
	"errors"
	"fmt"

	"github.com/user/hevcdec/pkg/hevc"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

var (
	ErrInvalidData       = errors.New("invalid bitstream data")
	ErrUnsupportedFormat = errors.New("unsupported picture format")
	ErrClosed            = errors.New("decoder closed")
)

// Level 6.2 bounds both picture axes.
const maxDimension = 16888

// Options configures a Decoder.
type Options struct {
	// Engine performs the actual decoding. Required.
	Engine ports.Engine

	// Config is the stream's out-of-band configuration block. An hvcC
	// record establishes packetized framing and carries the parameter
	// sets; anything else is treated as raw bytestream data. Empty
	// means raw framing with in-band parameter sets.
	Config []byte

	// HostAllocator, when set, supplies decoder output buffers and
	// takes priority over the internal recycling pools.
	HostAllocator ports.HostAllocator

	// PoolCapacity bounds each recycling pool. Zero means the default.
	PoolCapacity int

	// EngineAllocation disables the host-side allocator entirely, so
	// every picture takes the copy path.
	EngineAllocation bool

	Logger ports.Logger
}

// Decoder drives an engine packet by packet and yields frames in
// output order.
type Decoder struct {
	engine ports.Engine
	log    ports.Logger
	bridge *allocBridge

	framing    hevc.Framing
	lengthSize int
	config     []byte
	paramSets  [][]byte
	configSent bool

	width   int
	height  int
	lastPTS int64
	closed  bool
}

var _ ports.StreamDecoder = (*Decoder)(nil)

// New creates a decoder around the given engine. The configuration
// block is parsed immediately; parameter sets it carries are pushed on
// the first packet.
func New(opts Options) (*Decoder, error) {
	if opts.Engine == nil {
		return nil, errors.New("hevcdecoder: engine is required")
	}
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	log = log.WithComponent("hevcdec")

	d := &Decoder{
		engine:     opts.Engine,
		log:        log,
		config:     opts.Config,
		framing:    hevc.SniffFraming(opts.Config),
		lengthSize: 4,
		lastPTS:    ports.NoPTS,
	}

	if d.framing == hevc.FramingPacketized {
		// A block too short for a full configuration record still marks
		// a packetized stream: keep 4-byte prefixes and expect the
		// parameter sets in band.
		if len(opts.Config) > 22 {
			rec, err := hevc.ParseConfigRecord(opts.Config)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
			}
			d.lengthSize = rec.NALLengthSize
			d.paramSets = rec.ParameterSets
		}
		log.Debug("assuming packetized data (%d byte lengths, %d parameter sets)",
			d.lengthSize, len(d.paramSets))
	} else {
		log.Debug("assuming non-packetized data")
	}

	if !opts.EngineAllocation {
		d.bridge = &allocBridge{
			frames: newFramePool(opts.PoolCapacity),
			specs:  newSpecPool(opts.PoolCapacity),
			host:   opts.HostAllocator,
			log:    log,
		}
		opts.Engine.SetAllocator(d.bridge)
	}
	return d, nil
}

// pushConfig feeds the out-of-band block to the engine. For packetized
// streams that means the parameter set NAL units; for raw streams the
// block is bytestream data and goes in whole.
func (d *Decoder) pushConfig() error {
	if d.configSent {
		return nil
	}
	d.configSent = true
	if len(d.config) == 0 {
		return nil
	}

	if d.framing == hevc.FramingPacketized {
		for _, ps := range d.paramSets {
			if err := d.engine.PushNAL(ps, 0); err != nil {
				return fmt.Errorf("%w: pushing parameter set: %v", ErrInvalidData, err)
			}
		}
		return nil
	}
	if err := d.engine.PushData(d.config, 0); err != nil {
		return fmt.Errorf("%w: pushing configuration data: %v", ErrInvalidData, err)
	}
	return nil
}

// DecodePacket feeds one packet and polls the engine for a finished
// picture. An empty packet signals end of stream; keep calling with
// empty packets until produced comes back false to drain reordered
// pictures.
func (d *Decoder) DecodePacket(pkt ports.Packet) (*planar.Frame, bool, error) {
	if d.closed {
		return nil, false, ErrClosed
	}
	if err := d.pushConfig(); err != nil {
		return nil, false, err
	}

	if len(pkt.Data) > 0 {
		if err := d.pushPacket(pkt); err != nil {
			return nil, false, err
		}
	} else {
		if err := d.engine.EndOfStream(); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
	}

	// Decode until a picture comes out or the engine wants more input.
	for {
		more, err := d.engine.DecodeStep()
		if pic, ok := d.engine.NextPicture(); ok {
			frame, aerr := d.assemble(pic)
			if aerr != nil {
				return nil, false, aerr
			}
			return frame, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		if !more {
			return nil, false, nil
		}
	}
}

func (d *Decoder) pushPacket(pkt ports.Packet) error {
	// A packet without a timestamp reuses the last one seen, so the
	// engine never reorders against an unknown value.
	pts := pkt.PTS
	if pts == ports.NoPTS {
		pts = d.lastPTS
	} else {
		d.lastPTS = pts
	}

	if d.framing != hevc.FramingPacketized {
		if err := d.engine.PushData(pkt.Data, pts); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return nil
	}

	nals, err := hevc.SplitLengthPrefixed(pkt.Data, d.lengthSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	for _, nal := range nals {
		if err := d.engine.PushNAL(nal, pts); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
	}
	return nil
}

// SetSkipLoopFilter turns the engine's in-loop filters off or on.
// Skipping them speeds up decoding at the cost of conformance.
func (d *Decoder) SetSkipLoopFilter(skip bool) {
	d.engine.SetSkipLoopFilter(skip)
}

// SetDecodeRatio limits decoding to the given percentage of frames by
// dropping the highest temporal layers. Values outside 1..100 decode
// everything.
func (d *Decoder) SetDecodeRatio(percent int) {
	if percent <= 0 || percent > 100 {
		percent = 100
	}
	d.engine.SetFramerateRatio(percent)
}

// Flush drops buffered engine state, for use on seek. The recycling
// pools survive a flush.
func (d *Decoder) Flush() error {
	if d.closed {
		return ErrClosed
	}
	d.configSent = false
	d.lastPTS = ports.NoPTS
	return d.engine.Reset()
}

// Close tears down the engine and drains both pools.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.engine.Close()
	if d.bridge != nil {
		d.bridge.drain()
	}
	return err
}

// nopLogger keeps the decoder usable without a configured logger.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Warn(string, ...interface{})         {}
func (nopLogger) Error(string, ...interface{})        {}
func (n nopLogger) WithComponent(string) ports.Logger { return n }
