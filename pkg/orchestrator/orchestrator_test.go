package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/user/hevcdec/pkg/adapters/logger"
	"github.com/user/hevcdec/pkg/pipeline"
	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/ports"
)

// mockDemuxStage is a mock for the demux stage.
type mockDemuxStage struct {
	result pipeline.DemuxResult
	err    error
	input  pipeline.DemuxInput
}

func (m *mockDemuxStage) Execute(ctx context.Context, input pipeline.DemuxInput) (pipeline.DemuxResult, error) {
	m.input = input
	if m.err != nil {
		return pipeline.DemuxResult{}, m.err
	}
	return m.result, nil
}

// mockDecodeStage is a mock for the decode stage.
type mockDecodeStage struct {
	result pipeline.DecodeResult
	err    error
	input  pipeline.DecodeInput
}

func (m *mockDecodeStage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	m.input = input
	if m.err != nil {
		return pipeline.DecodeResult{}, m.err
	}
	return m.result, nil
}

func testTrack() *ports.VideoTrack {
	return &ports.VideoTrack{
		TrackID:   1,
		Timescale: 15360,
		FPS:       30,
		Samples: []ports.VideoSample{
			{Data: []byte{0x01}, PTS: 0, Keyframe: true},
			{Data: []byte{0x02}, PTS: 512},
			{Data: []byte{0x03}, PTS: 1024},
		},
	}
}

func TestRun(t *testing.T) {
	demuxStage := &mockDemuxStage{
		result: pipeline.DemuxResult{Track: testTrack()},
	}
	decodeStage := &mockDecodeStage{
		result: pipeline.DecodeResult{
			Frames:     3,
			Width:      1920,
			Height:     1080,
			Format:     pixfmt.FormatYUV420P10,
			DurationMs: 42,
		},
	}
	o := New(demuxStage, decodeStage, logger.NewNoop())

	config := DefaultConfig()
	config.InputPath = "/in.mp4"
	config.OutputPath = "/out.y4m"
	config.FPS = 24
	config.PoolCapacity = 8
	config.SkipLoopFilter = true
	config.DecodeRatio = 50

	result, err := o.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if demuxStage.input.Path != "/in.mp4" {
		t.Errorf("demux path = %q", demuxStage.input.Path)
	}
	if decodeStage.input.Track != demuxStage.result.Track {
		t.Error("decode stage did not receive the demuxed track")
	}
	if decodeStage.input.FPS != 24 || decodeStage.input.PoolCapacity != 8 {
		t.Errorf("decode input = %+v", decodeStage.input)
	}
	if !decodeStage.input.SkipLoopFilter || decodeStage.input.DecodeRatio != 50 {
		t.Errorf("decode policy = %+v", decodeStage.input)
	}

	if result.FrameCount != 3 {
		t.Errorf("FrameCount = %d, want 3", result.FrameCount)
	}
	if result.SampleCount != 3 {
		t.Errorf("SampleCount = %d, want 3", result.SampleCount)
	}
	if result.Width != 1920 || result.Height != 1080 {
		t.Errorf("dimensions = %dx%d", result.Width, result.Height)
	}
	if result.Format != "yuv420p10le" {
		t.Errorf("Format = %q, want yuv420p10le", result.Format)
	}
	if result.DurationMs != 42 {
		t.Errorf("DurationMs = %d, want 42", result.DurationMs)
	}
}

func TestRunDemuxError(t *testing.T) {
	demuxErr := errors.New("no such file")
	demuxStage := &mockDemuxStage{err: demuxErr}
	o := New(demuxStage, &mockDecodeStage{}, logger.NewNoop())

	_, err := o.Run(context.Background(), Config{InputPath: "/in.mp4"})
	if !errors.Is(err, demuxErr) {
		t.Errorf("expected wrapped demux error, got %v", err)
	}
}

func TestRunDecodeError(t *testing.T) {
	decodeErr := errors.New("corrupt stream")
	demuxStage := &mockDemuxStage{result: pipeline.DemuxResult{Track: testTrack()}}
	decodeStage := &mockDecodeStage{err: decodeErr}
	o := New(demuxStage, decodeStage, logger.NewNoop())

	_, err := o.Run(context.Background(), Config{InputPath: "/in.mp4"})
	if !errors.Is(err, decodeErr) {
		t.Errorf("expected wrapped decode error, got %v", err)
	}
}
