// Package decode implements the stream decoding stage.
package decode

import (
	"context"
	"fmt"
	"time"

	"github.com/user/hevcdec/pkg/pipeline"
	"github.com/user/hevcdec/pkg/planar"
	"github.com/user/hevcdec/pkg/ports"
)

// fallbackFPS is assumed when neither the caller nor the container
// provides a frame rate.
const fallbackFPS = 25.0

// Stage decodes a video track and streams the frames into a sink.
type Stage struct {
	factory ports.DecoderFactory
	sink    ports.FrameSink
	log     ports.Logger
}

// NewStage creates a new decode stage.
func NewStage(factory ports.DecoderFactory, sink ports.FrameSink, log ports.Logger) *Stage {
	return &Stage{
		factory: factory,
		sink:    sink,
		log:     log,
	}
}

// Execute decodes every sample in the track and writes the decoded
// frames to the sink in output order.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	result := pipeline.DecodeResult{}

	if input.Track == nil {
		return result, fmt.Errorf("no track to decode")
	}

	fps := input.FPS
	if fps <= 0 {
		fps = input.Track.FPS
	}
	if fps <= 0 {
		fps = fallbackFPS
		if s.log != nil {
			s.log.Warn("stream carries no frame rate, assuming %g fps", fps)
		}
	}
	result.FPS = fps

	dec, err := s.factory.NewDecoder(input.Track.Config, ports.DecoderOptions{
		PoolCapacity:     input.PoolCapacity,
		EngineAllocation: input.EngineAllocation,
		SkipLoopFilter:   input.SkipLoopFilter,
		DecodeRatio:      input.DecodeRatio,
	})
	if err != nil {
		return result, fmt.Errorf("create decoder: %w", err)
	}
	defer dec.Close()

	start := time.Now()
	began := false

	emit := func(frame *planar.Frame) error {
		defer frame.Close()
		if !began {
			info := ports.StreamInfo{
				Width:  frame.Width,
				Height: frame.Height,
				Format: frame.Format,
				FPS:    fps,
			}
			if err := s.sink.Begin(info); err != nil {
				return fmt.Errorf("begin sink: %w", err)
			}
			began = true
			result.Width = frame.Width
			result.Height = frame.Height
			result.Format = frame.Format
		}
		if err := s.sink.WriteFrame(frame); err != nil {
			return fmt.Errorf("write frame %d: %w", result.Frames, err)
		}
		result.Frames++
		return nil
	}

	for _, sample := range input.Track.Samples {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		frame, produced, err := dec.DecodePacket(ports.Packet{Data: sample.Data, PTS: sample.PTS})
		if err != nil {
			return result, fmt.Errorf("decode packet at pts %d: %w", sample.PTS, err)
		}
		if produced {
			if err := emit(frame); err != nil {
				return result, err
			}
		}
	}

	// Drain pictures still buffered for reordering.
	for {
		frame, produced, err := dec.DecodePacket(ports.Packet{})
		if err != nil {
			return result, fmt.Errorf("drain decoder: %w", err)
		}
		if !produced {
			break
		}
		if err := emit(frame); err != nil {
			return result, err
		}
	}

	if !began {
		return result, fmt.Errorf("stream produced no frames")
	}
	if err := s.sink.End(); err != nil {
		return result, fmt.Errorf("end sink: %w", err)
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}
