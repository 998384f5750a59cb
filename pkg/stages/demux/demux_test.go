package demux

import (
	"context"
	"errors"
	"testing"

	"github.com/user/hevcdec/pkg/mocks"
	"github.com/user/hevcdec/pkg/pipeline"
	"github.com/user/hevcdec/pkg/ports"
)

func TestExecute(t *testing.T) {
	demuxer := &mocks.Demuxer{
		Track: &ports.VideoTrack{
			TrackID:   1,
			Timescale: 15360,
			Samples: []ports.VideoSample{
				{Data: []byte{0x01}, PTS: 0, Keyframe: true},
				{Data: []byte{0x02}, PTS: 512},
			},
		},
	}
	stage := NewStage(demuxer)

	result, err := stage.Execute(context.Background(), pipeline.DemuxInput{Path: "/in.mp4"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Track.TrackID != 1 {
		t.Errorf("TrackID = %d, want 1", result.Track.TrackID)
	}
	if len(demuxer.Paths) != 1 || demuxer.Paths[0] != "/in.mp4" {
		t.Errorf("demuxed paths = %v", demuxer.Paths)
	}
}

func TestExecuteEmptyPath(t *testing.T) {
	stage := NewStage(&mocks.Demuxer{})

	_, err := stage.Execute(context.Background(), pipeline.DemuxInput{})
	if err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestExecuteDemuxError(t *testing.T) {
	demuxErr := errors.New("bad container")
	demuxer := &mocks.Demuxer{
		DemuxFunc: func(path string) (*ports.VideoTrack, error) {
			return nil, demuxErr
		},
	}
	stage := NewStage(demuxer)

	_, err := stage.Execute(context.Background(), pipeline.DemuxInput{Path: "/in.mp4"})
	if !errors.Is(err, demuxErr) {
		t.Errorf("expected wrapped demux error, got %v", err)
	}
}

func TestExecuteEmptyTrack(t *testing.T) {
	demuxer := &mocks.Demuxer{Track: &ports.VideoTrack{TrackID: 2}}
	stage := NewStage(demuxer)

	_, err := stage.Execute(context.Background(), pipeline.DemuxInput{Path: "/in.mp4"})
	if err == nil {
		t.Fatal("expected error for track without samples")
	}
}
