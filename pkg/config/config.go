// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"github.com/user/hevcdec/pkg/orchestrator"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for hevcdec.
type Config struct {
	// Input/Output
	InputPath    string `yaml:"input"`
	OutputPath   string `yaml:"output"`
	OutputFormat string `yaml:"format"` // y4m, png or null

	// Decoding
	Threads          int     `yaml:"threads"`
	FPS              float64 `yaml:"fps"`
	PoolCapacity     int     `yaml:"pool_capacity"`
	EngineAllocation bool    `yaml:"engine_allocation"`
	SkipLoopFilter   bool    `yaml:"skip_loop_filter"`
	DecodeRatio      int     `yaml:"decode_ratio"` // percent of frames to decode, 0 = all

	// PNG output
	PNGMaxWidth int `yaml:"png_max_width"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputFormat: "y4m",

		PoolCapacity: 16,

		LogLevel: "info",
	}
}

// Validate checks settings that have a closed set of values.
func (c Config) Validate() error {
	switch c.OutputFormat {
	case "y4m", "png", "null":
	default:
		return fmt.Errorf("unknown output format: %s", c.OutputFormat)
	}
	if c.PoolCapacity < 0 {
		return fmt.Errorf("pool capacity must not be negative: %d", c.PoolCapacity)
	}
	if c.DecodeRatio < 0 || c.DecodeRatio > 100 {
		return fmt.Errorf("decode ratio must be between 0 and 100: %d", c.DecodeRatio)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		InputPath:  c.InputPath,
		OutputPath: c.OutputPath,

		FPS:              c.FPS,
		PoolCapacity:     c.PoolCapacity,
		EngineAllocation: c.EngineAllocation,
		SkipLoopFilter:   c.SkipLoopFilter,
		DecodeRatio:      c.DecodeRatio,
	}
}
