package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter formats a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format converts a Summary to Markdown.
func (f *MarkdownFormatter) Format(summary *Summary) string {
	var b strings.Builder

	b.WriteString("# Decode Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Input\n\n")
	fmt.Fprintf(&b, "- Path: %s\n", summary.Input.Path)
	fmt.Fprintf(&b, "- Track: %d\n", summary.Input.TrackID)
	fmt.Fprintf(&b, "- Samples: %d\n", summary.Input.SampleCount)
	fmt.Fprintf(&b, "- Timescale: %d\n\n", summary.Input.Timescale)

	b.WriteString("## Output\n\n")
	if summary.Output.Path != "" {
		fmt.Fprintf(&b, "- Path: %s\n", summary.Output.Path)
	}
	fmt.Fprintf(&b, "- Format: %s\n", summary.Output.Format)
	fmt.Fprintf(&b, "- Pixel format: %s\n", summary.Output.PixelFormat)
	fmt.Fprintf(&b, "- Resolution: %dx%d\n", summary.Output.Width, summary.Output.Height)
	fmt.Fprintf(&b, "- Frames: %d\n", summary.Output.FrameCount)
	fmt.Fprintf(&b, "- Frame rate: %g fps\n\n", summary.Output.FPS)

	b.WriteString("## Timing\n\n")
	fmt.Fprintf(&b, "- Decode time: %d ms\n", summary.Timing.DecodeDurationMs)
	if throughput := summary.Throughput(); throughput > 0 {
		fmt.Fprintf(&b, "- Throughput: %.1f frames/s\n", throughput)
	}

	return b.String()
}
