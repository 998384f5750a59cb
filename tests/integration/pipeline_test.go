// Package integration contains integration tests for the hevcdec pipeline.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"testing"

	"github.com/user/hevcdec/pkg/adapters/hevcdecoder"
	"github.com/user/hevcdec/pkg/adapters/logger"
	"github.com/user/hevcdec/pkg/adapters/nullsink"
	"github.com/user/hevcdec/pkg/adapters/pngsink"
	"github.com/user/hevcdec/pkg/adapters/y4msink"
	"github.com/user/hevcdec/pkg/mocks"
	"github.com/user/hevcdec/pkg/orchestrator"
	"github.com/user/hevcdec/pkg/pixfmt"
	"github.com/user/hevcdec/pkg/ports"
	"github.com/user/hevcdec/pkg/stages/decode"
	"github.com/user/hevcdec/pkg/stages/demux"
)

// configRecord builds a minimal hvcC-shaped record carrying one
// parameter set, with 4-byte NAL length prefixes.
func configRecord(paramSet []byte) []byte {
	rec := make([]byte, 23)
	rec[0] = 1
	rec[21] = 3 // lengthSizeMinusOne
	rec[22] = 1 // one parameter set array
	rec = append(rec, 0x21, 0x00, 0x01)
	rec = append(rec, byte(len(paramSet)>>8), byte(len(paramSet)))
	rec = append(rec, paramSet...)
	return rec
}

// lengthPrefixed frames a NAL with a 4-byte big-endian length.
func lengthPrefixed(nal []byte) []byte {
	out := []byte{byte(len(nal) >> 24), byte(len(nal) >> 16), byte(len(nal) >> 8), byte(len(nal))}
	return append(out, nal...)
}

// testTrack builds a packetized track with one NAL per sample.
func testTrack(samples int) *ports.VideoTrack {
	track := &ports.VideoTrack{
		TrackID:   1,
		Timescale: 15360,
		FPS:       30,
		Config:    configRecord([]byte{0x42, 0x01, 0x01}),
	}
	for i := 0; i < samples; i++ {
		track.Samples = append(track.Samples, ports.VideoSample{
			Data:     lengthPrefixed([]byte{0x26, 0x01, byte(i)}),
			PTS:      int64(i) * 512,
			Keyframe: i == 0,
		})
	}
	return track
}

func queuePictures(engine *mocks.Engine, count, width, height int) {
	for i := 0; i < count; i++ {
		engine.QueuePicture(ports.ImageRequest{
			Width:      width,
			Height:     height,
			Chroma:     pixfmt.Chroma420,
			LumaBits:   8,
			ChromaBits: 8,
		}, int64(i)*512)
	}
}

func newOrchestrator(track *ports.VideoTrack, engine *mocks.Engine, sink ports.FrameSink) *orchestrator.Orchestrator {
	log := logger.NewNoop()
	factory := &hevcdecoder.Factory{
		NewEngine: func() (ports.Engine, error) { return engine, nil },
		Logger:    log,
	}
	demuxStage := demux.NewStage(&mocks.Demuxer{Track: track})
	decodeStage := decode.NewStage(factory, sink, log)
	return orchestrator.New(demuxStage, decodeStage, log)
}

// TestPipelineToY4M runs demux → decode → Y4M output end to end.
func TestPipelineToY4M(t *testing.T) {
	engine := mocks.NewEngine()
	queuePictures(engine, 3, 64, 48)

	fs := mocks.NewFileSystem()
	orch := newOrchestrator(testTrack(3), engine, y4msink.New("/out.y4m", fs))

	config := orchestrator.Config{InputPath: "/in.mp4", OutputPath: "/out.y4m"}
	result, err := orch.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.FrameCount != 3 {
		t.Errorf("FrameCount = %d, want 3", result.FrameCount)
	}
	if result.Width != 64 || result.Height != 48 {
		t.Errorf("dimensions = %dx%d, want 64x48", result.Width, result.Height)
	}
	if result.Format != "yuv420p" {
		t.Errorf("Format = %q, want yuv420p", result.Format)
	}

	data, ok := fs.GetFile("/out.y4m")
	if !ok {
		t.Fatal("no Y4M output written")
	}
	wantHeader := "YUV4MPEG2 W64 H48 F30:1 Ip A1:1 C420jpeg\n"
	if !bytes.HasPrefix(data, []byte(wantHeader)) {
		t.Errorf("unexpected header in %q", data[:len(wantHeader)])
	}
	if got := bytes.Count(data, []byte("FRAME\n")); got != 3 {
		t.Errorf("frame markers = %d, want 3", got)
	}
	// Header plus three frames of 64x48 luma and quarter-size chroma.
	wantLen := len(wantHeader) + 3*(len("FRAME\n")+64*48+2*32*24)
	if len(data) != wantLen {
		t.Errorf("output size = %d, want %d", len(data), wantLen)
	}
}

// TestPipelineCroppedOutput checks that the conformance window, not the
// coded size, reaches the sink.
func TestPipelineCroppedOutput(t *testing.T) {
	engine := mocks.NewEngine()
	engine.QueuePicture(ports.ImageRequest{
		Width:      64,
		Height:     48,
		CropRight:  2,
		CropBot:    4,
		Chroma:     pixfmt.Chroma420,
		LumaBits:   8,
		ChromaBits: 8,
	}, 0)

	fs := mocks.NewFileSystem()
	orch := newOrchestrator(testTrack(1), engine, y4msink.New("/out.y4m", fs))

	result, err := orch.Run(context.Background(), orchestrator.Config{InputPath: "/in.mp4"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Width != 62 || result.Height != 44 {
		t.Errorf("dimensions = %dx%d, want 62x44", result.Width, result.Height)
	}

	data, ok := fs.GetFile("/out.y4m")
	if !ok {
		t.Fatal("no Y4M output written")
	}
	if !bytes.HasPrefix(data, []byte("YUV4MPEG2 W62 H44 ")) {
		t.Errorf("header does not carry cropped size: %q", data[:20])
	}
}

// TestPipelineToPNG runs the pipeline into numbered PNG files.
func TestPipelineToPNG(t *testing.T) {
	engine := mocks.NewEngine()
	queuePictures(engine, 2, 32, 32)

	fs := mocks.NewFileSystem()
	orch := newOrchestrator(testTrack(2), engine, pngsink.New("/frames", fs, 0))

	result, err := orch.Run(context.Background(), orchestrator.Config{InputPath: "/in.mp4", OutputPath: "/frames"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FrameCount != 2 {
		t.Errorf("FrameCount = %d, want 2", result.FrameCount)
	}

	for i := 0; i < 2; i++ {
		path := fmt.Sprintf("/frames/frame-%05d.png", i)
		data, ok := fs.GetFile(path)
		if !ok {
			t.Fatalf("missing %s", path)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
			t.Errorf("%s size = %v", path, img.Bounds())
		}
	}
}

// TestPipelineEngineAllocation forces the copy path and discards the
// output.
func TestPipelineEngineAllocation(t *testing.T) {
	engine := mocks.NewEngine()
	queuePictures(engine, 4, 16, 16)

	sink := nullsink.New()
	orch := newOrchestrator(testTrack(4), engine, sink)

	config := orchestrator.Config{InputPath: "/in.mp4", EngineAllocation: true}
	result, err := orch.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FrameCount != 4 {
		t.Errorf("FrameCount = %d, want 4", result.FrameCount)
	}
	if sink.Frames() != 4 {
		t.Errorf("sink frames = %d, want 4", sink.Frames())
	}
	if engine.CloseCalls != 1 {
		t.Errorf("engine CloseCalls = %d, want 1", engine.CloseCalls)
	}
}
