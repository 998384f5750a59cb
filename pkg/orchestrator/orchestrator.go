// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/user/hevcdec/pkg/pipeline"
	"github.com/user/hevcdec/pkg/ports"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input
	InputPath string

	// OutputPath is where the sink writes its result. Informational
	// here; the sink owns the actual writing.
	OutputPath string

	// Decoding
	FPS              float64 // overrides the container's frame rate when > 0
	PoolCapacity     int
	EngineAllocation bool
	SkipLoopFilter   bool
	DecodeRatio      int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	demuxStage  pipeline.Stage[pipeline.DemuxInput, pipeline.DemuxResult]
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	logger      ports.Logger
}

// New creates a new Orchestrator.
func New(
	demuxStage pipeline.Stage[pipeline.DemuxInput, pipeline.DemuxResult],
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult],
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		demuxStage:  demuxStage,
		decodeStage: decodeStage,
		logger:      logger,
	}
}

// Run executes the complete pipeline.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	o.logger.Info("Decoding %s", config.InputPath)

	// 1. Extract the video track
	demuxed, err := o.demuxStage.Execute(ctx, pipeline.DemuxInput{Path: config.InputPath})
	if err != nil {
		o.logger.Error("Failed to open input: %s", err)
		return RunResult{}, fmt.Errorf("demux stage: %w", err)
	}

	// 2. Decode it into the sink
	decodeInput := pipeline.DecodeInput{
		Track:            demuxed.Track,
		FPS:              config.FPS,
		PoolCapacity:     config.PoolCapacity,
		EngineAllocation: config.EngineAllocation,
		SkipLoopFilter:   config.SkipLoopFilter,
		DecodeRatio:      config.DecodeRatio,
	}
	decoded, err := o.decodeStage.Execute(ctx, decodeInput)
	if err != nil {
		o.logger.Error("Failed to decode: %s", err)
		return RunResult{}, fmt.Errorf("decode stage: %w", err)
	}

	o.logger.Info("Decoded %d frames in %d ms", decoded.Frames, decoded.DurationMs)
	if config.OutputPath != "" {
		o.logger.Info("Output saved to %s", config.OutputPath)
	}
	o.logger.Info("Pipeline completed successfully")

	result := RunResult{
		TrackID:     demuxed.Track.TrackID,
		SampleCount: len(demuxed.Track.Samples),
		Timescale:   demuxed.Track.Timescale,
		FrameCount:  decoded.Frames,
		Width:       decoded.Width,
		Height:      decoded.Height,
		Format:      decoded.Format.String(),
		FPS:         decoded.FPS,
		DurationMs:  decoded.DurationMs,
	}

	return result, nil
}

// RunResult contains the results of a pipeline run for summary output.
type RunResult struct {
	// Track information
	TrackID     uint32
	SampleCount int
	Timescale   uint32

	// Decoded output
	FrameCount int
	Width      int
	Height     int
	Format     string
	FPS        float64
	DurationMs int64
}
