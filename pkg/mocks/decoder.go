package mocks

import (
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// StreamDecoder is a mock implementation of ports.StreamDecoder. By
// default each DecodePacket call hands out the next queued frame.
type StreamDecoder struct {
	// Frames are handed out one per DecodePacket call.
	Frames []*planar.Frame

	DecodePacketFunc func(pkt ports.Packet) (*planar.Frame, bool, error)

	// Packets records everything fed to DecodePacket.
	Packets    []ports.Packet
	FlushCalls int
	CloseCalls int
}

var _ ports.StreamDecoder = (*StreamDecoder)(nil)

func (m *StreamDecoder) DecodePacket(pkt ports.Packet) (*planar.Frame, bool, error) {
	m.Packets = append(m.Packets, pkt)
	if m.DecodePacketFunc != nil {
		return m.DecodePacketFunc(pkt)
	}
	if len(m.Frames) == 0 {
		return nil, false, nil
	}
	frame := m.Frames[0]
	m.Frames = m.Frames[1:]
	return frame, true, nil
}

func (m *StreamDecoder) Flush() error {
	m.FlushCalls++
	return nil
}

func (m *StreamDecoder) Close() error {
	m.CloseCalls++
	return nil
}

// DecoderFactory is a mock implementation of ports.DecoderFactory.
type DecoderFactory struct {
	// Decoder is returned by default.
	Decoder *StreamDecoder

	NewDecoderFunc func(config []byte, opts ports.DecoderOptions) (ports.StreamDecoder, error)

	// Configs and Opts record every NewDecoder call.
	Configs [][]byte
	Opts    []ports.DecoderOptions
}

var _ ports.DecoderFactory = (*DecoderFactory)(nil)

func (m *DecoderFactory) NewDecoder(config []byte, opts ports.DecoderOptions) (ports.StreamDecoder, error) {
	m.Configs = append(m.Configs, config)
	m.Opts = append(m.Opts, opts)
	if m.NewDecoderFunc != nil {
		return m.NewDecoderFunc(config, opts)
	}
	if m.Decoder == nil {
		m.Decoder = &StreamDecoder{}
	}
	return m.Decoder, nil
}
