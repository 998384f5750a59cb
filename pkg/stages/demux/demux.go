// Package demux implements the track extraction stage.
package demux

import (
	"context"
	"fmt"

	"github.com/user/hevcdec/pkg/pipeline"
	"github.com/user/hevcdec/pkg/ports"
)

// Stage extracts the coded video track from a container file.
type Stage struct {
	demuxer ports.Demuxer
}

// NewStage creates a new demux stage.
func NewStage(demuxer ports.Demuxer) *Stage {
	return &Stage{
		demuxer: demuxer,
	}
}

// Execute extracts the track from the input file.
func (s *Stage) Execute(ctx context.Context, input pipeline.DemuxInput) (pipeline.DemuxResult, error) {
	result := pipeline.DemuxResult{}

	if input.Path == "" {
		return result, fmt.Errorf("no input path")
	}

	track, err := s.demuxer.Demux(input.Path)
	if err != nil {
		return result, fmt.Errorf("demux %s: %w", input.Path, err)
	}
	if len(track.Samples) == 0 {
		return result, fmt.Errorf("track %d has no samples", track.TrackID)
	}

	result.Track = track
	return result, nil
}
