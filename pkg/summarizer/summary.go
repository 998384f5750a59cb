// Package summarizer provides summary generation for decode results.
package summarizer

import "time"

// Summary contains all data collected during a decode run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input track information
	Input InputInfo

	// Decoded output details
	Output OutputInfo

	// Timing results
	Timing TimingInfo
}

// InputInfo describes the source track.
type InputInfo struct {
	Path        string
	TrackID     uint32
	SampleCount int
	Timescale   uint32
}

// OutputInfo describes the decoded output.
type OutputInfo struct {
	Path        string
	Format      string // sink format: y4m, png or null
	PixelFormat string
	Width       int
	Height      int
	FrameCount  int
	FPS         float64
}

// TimingInfo contains timing measurements.
type TimingInfo struct {
	DecodeDurationMs int64
}

// Throughput returns decoded frames per second of wall time.
func (s *Summary) Throughput() float64 {
	if s.Timing.DecodeDurationMs <= 0 {
		return 0
	}
	return float64(s.Output.FrameCount) * 1000 / float64(s.Timing.DecodeDurationMs)
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithInput sets source track information.
func (b *Builder) WithInput(input InputInfo) *Builder {
	b.summary.Input = input
	return b
}

// WithOutput sets decoded output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// WithTiming sets timing information.
func (b *Builder) WithTiming(decodeDurationMs int64) *Builder {
	b.summary.Timing = TimingInfo{
		DecodeDurationMs: decodeDurationMs,
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
