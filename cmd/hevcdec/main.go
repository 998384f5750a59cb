// Package main provides the CLI entry point for hevcdec.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/hevcdec/pkg/adapters/de265engine"
	"github.com/user/hevcdec/pkg/adapters/hevcdecoder"
	"github.com/user/hevcdec/pkg/adapters/logger"
	"github.com/user/hevcdec/pkg/adapters/mp4reader"
	"github.com/user/hevcdec/pkg/adapters/nullsink"
	"github.com/user/hevcdec/pkg/adapters/osfilesystem"
	"github.com/user/hevcdec/pkg/adapters/pngsink"
	"github.com/user/hevcdec/pkg/adapters/y4msink"
	"github.com/user/hevcdec/pkg/config"
	"github.com/user/hevcdec/pkg/orchestrator"
	"github.com/user/hevcdec/pkg/ports"
	"github.com/user/hevcdec/pkg/stages/decode"
	"github.com/user/hevcdec/pkg/stages/demux"
	"github.com/user/hevcdec/pkg/summarizer"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "hevcdec",
		Usage:   l10n.T("Decode HEVC video from fragmented MP4 files"),
		Version: version,
		Commands: []*cli.Command{
			decodeCommand(),
			probeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     l10n.T("Decode an HEVC track into raw frames"),
		ArgsUsage: "INPUT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   l10n.T("Output path (Y4M file or PNG directory)"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   l10n.T("Output format (y4m, png, null)"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   l10n.T("Load settings from a YAML file"),
			},
			&cli.Float64Flag{
				Name:  "fps",
				Usage: l10n.T("Override the container frame rate"),
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				Usage:   l10n.T("Decoder thread count hint (0 = all CPUs)"),
			},
			&cli.IntFlag{
				Name:  "pool-capacity",
				Usage: l10n.T("Frame recycling pool capacity"),
			},
			&cli.BoolFlag{
				Name:  "engine-alloc",
				Usage: l10n.T("Decode into engine-owned buffers instead of host frames"),
			},
			&cli.BoolFlag{
				Name:  "skip-loop-filter",
				Usage: l10n.T("Skip in-loop filters for faster decoding"),
			},
			&cli.IntFlag{
				Name:  "decode-ratio",
				Usage: l10n.T("Decode only this percentage of frames (drops temporal layers)"),
			},
			&cli.IntFlag{
				Name:  "png-max-width",
				Usage: l10n.T("Downscale PNG output to this width (0 = original size)"),
			},
			&cli.StringFlag{
				Name:  "summary",
				Usage: l10n.T("Write a Markdown summary of the run to this path"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   l10n.T("Log level (debug, info, warn, error)"),
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"Q"},
				Usage:   l10n.T("Suppress all log output"),
			},
		},
		Action: runDecode,
	}
}

func runDecode(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file")
	}

	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	cfg.InputPath = c.Args().First()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.OutputPath == "" && cfg.OutputFormat != "null" {
		return fmt.Errorf("output path is required for %s format", cfg.OutputFormat)
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Interrupted, shutting down...")
		cancel()
	}()

	fs := osfilesystem.New()

	sink, err := buildSink(cfg, fs)
	if err != nil {
		return err
	}

	factory := &hevcdecoder.Factory{
		NewEngine: func() (ports.Engine, error) {
			return de265engine.New(cfg.Threads)
		},
		Logger: log,
	}

	demuxStage := demux.NewStage(mp4reader.New(fs, log))
	decodeStage := decode.NewStage(factory, sink, log)
	orch := orchestrator.New(demuxStage, decodeStage, log)

	result, err := orch.Run(ctx, cfg.ToOrchestratorConfig())
	if err != nil {
		return err
	}

	if path := c.String("summary"); path != "" {
		summary := summarizer.NewBuilder().
			WithInput(summarizer.InputInfo{
				Path:        cfg.InputPath,
				TrackID:     result.TrackID,
				SampleCount: result.SampleCount,
				Timescale:   result.Timescale,
			}).
			WithOutput(summarizer.OutputInfo{
				Path:        cfg.OutputPath,
				Format:      cfg.OutputFormat,
				PixelFormat: result.Format,
				Width:       result.Width,
				Height:      result.Height,
				FrameCount:  result.FrameCount,
				FPS:         result.FPS,
			}).
			WithTiming(result.DurationMs).
			Build()
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), fs)
		if err := writer.Write(path, summary); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	return nil
}

// buildConfig merges the optional config file with CLI flag overrides.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("format") {
		cfg.OutputFormat = c.String("format")
	} else if cfg.OutputPath != "" && !c.IsSet("config") {
		cfg.OutputFormat = formatFromPath(cfg.OutputPath)
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}
	if c.IsSet("pool-capacity") {
		cfg.PoolCapacity = c.Int("pool-capacity")
	}
	if c.IsSet("engine-alloc") {
		cfg.EngineAllocation = c.Bool("engine-alloc")
	}
	if c.IsSet("skip-loop-filter") {
		cfg.SkipLoopFilter = c.Bool("skip-loop-filter")
	}
	if c.IsSet("decode-ratio") {
		cfg.DecodeRatio = c.Int("decode-ratio")
	}
	if c.IsSet("png-max-width") {
		cfg.PNGMaxWidth = c.Int("png-max-width")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

// formatFromPath guesses the output format from the path: .y4m files
// produce Y4M, anything else is treated as a PNG directory.
func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".y4m") {
		return "y4m"
	}
	return "png"
}

func buildSink(cfg config.Config, fs ports.FileSystem) (ports.FrameSink, error) {
	switch cfg.OutputFormat {
	case "y4m":
		return y4msink.New(cfg.OutputPath, fs), nil
	case "png":
		return pngsink.New(cfg.OutputPath, fs, cfg.PNGMaxWidth), nil
	case "null":
		return nullsink.New(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", cfg.OutputFormat)
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show the HEVC track of a file without decoding"),
		ArgsUsage: "INPUT",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one input file")
			}
			reader := mp4reader.New(osfilesystem.New(), logger.NewNoop())
			track, err := reader.Demux(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Println(l10n.F("Track %d: %d samples, timescale %d", track.TrackID, len(track.Samples), track.Timescale))
			fmt.Println(l10n.F("Estimated frame rate: %g fps", track.FPS))
			fmt.Println(l10n.F("Configuration record: %d bytes", len(track.Config)))
			return nil
		},
	}
}
