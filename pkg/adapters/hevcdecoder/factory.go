package hevcdecoder

import (
	"github.com/user/hevcdec/pkg/ports"
)

// Factory builds Decoders over freshly constructed engines.
type Factory struct {
	// NewEngine creates the engine each decoder will own. Required.
	NewEngine func() (ports.Engine, error)

	// HostAllocator is passed through to every decoder.
	HostAllocator ports.HostAllocator

	Logger ports.Logger
}

var _ ports.DecoderFactory = (*Factory)(nil)

func (f *Factory) NewDecoder(config []byte, opts ports.DecoderOptions) (ports.StreamDecoder, error) {
	engine, err := f.NewEngine()
	if err != nil {
		return nil, err
	}
	dec, err := New(Options{
		Engine:           engine,
		Config:           config,
		HostAllocator:    f.HostAllocator,
		PoolCapacity:     opts.PoolCapacity,
		EngineAllocation: opts.EngineAllocation,
		Logger:           f.Logger,
	})
	if err != nil {
		engine.Close()
		return nil, err
	}
	if opts.SkipLoopFilter {
		dec.SetSkipLoopFilter(true)
	}
	if opts.DecodeRatio > 0 {
		dec.SetDecodeRatio(opts.DecodeRatio)
	}
	return dec, nil
}
