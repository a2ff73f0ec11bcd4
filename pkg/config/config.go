// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/squeeze/pkg/pipeline"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the full configuration for squeeze.
type Config struct {
	// Binaries (empty = search FFMPEG_PATH/FFPROBE_PATH, PATH, common locations)
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" or "json"

	Relay     RelayConfig     `yaml:"relay"`
	Transcode TranscodeConfig `yaml:"transcode"`
}

// EncodeConfig holds the encoder parameters shared by both flows.
type EncodeConfig struct {
	Codec   string `yaml:"codec"`
	Bitrate int    `yaml:"bitrate"` // kbit/s, 0 = unset
	Preset  string `yaml:"preset"`
	CRF     int    `yaml:"crf"` // 0 = unset
}

// RelayConfig configures the probe + frame relay flow.
type RelayConfig struct {
	Input       string       `yaml:"input"`
	Output      string       `yaml:"output"`
	Encode      EncodeConfig `yaml:",inline"`
	QueueDepth  int          `yaml:"queue_depth"`
	KeepPartial bool         `yaml:"keep_partial"`
	ProbeOutput bool         `yaml:"probe_output"`
}

// TranscodeConfig configures the single-call transcode flow.
type TranscodeConfig struct {
	Input       string       `yaml:"input"`
	Output      string       `yaml:"output"`
	Encode      EncodeConfig `yaml:",inline"`
	CheckInput  bool         `yaml:"check_input"`
	KeepPartial bool         `yaml:"keep_partial"`
	ProbeOutput bool         `yaml:"probe_output"`
}

// x264Presets are the speed presets libx264 accepts.
var x264Presets = map[string]bool{
	"ultrafast": true, "superfast": true, "veryfast": true, "faster": true, "fast": true,
	"medium": true, "slow": true, "slower": true, "veryslow": true, "placebo": true,
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",

		Relay: RelayConfig{
			Input:  "San Andreas/gtaSA.h264",
			Output: "San Andreas/compressed_SA.h264",
			Encode: EncodeConfig{
				Codec:   "libx264",
				Bitrate: 300,
				Preset:  "slow",
				CRF:     28,
			},
			QueueDepth: pipeline.DefaultQueueDepth,
		},

		Transcode: TranscodeConfig{
			Input:  "San Andreas/gtaSA_og.h264",
			Output: "San Andreas/compressed_gtaSA.h264",
			Encode: EncodeConfig{
				Codec:   "libx264",
				Bitrate: 1000,
				Preset:  "slow",
				CRF:     28,
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks both flow sections.
func (c Config) Validate() error {
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	if err := c.Transcode.Validate(); err != nil {
		return fmt.Errorf("transcode: %w", err)
	}
	return nil
}

// Validate checks the relay section.
func (r RelayConfig) Validate() error {
	if err := validatePaths(r.Input, r.Output); err != nil {
		return err
	}
	if r.QueueDepth < 0 {
		return fmt.Errorf("%w: queue_depth must not be negative", ErrInvalidConfig)
	}
	return r.Encode.Validate()
}

// Validate checks the transcode section.
func (t TranscodeConfig) Validate() error {
	if err := validatePaths(t.Input, t.Output); err != nil {
		return err
	}
	return t.Encode.Validate()
}

// Validate checks encoder parameters.
func (e EncodeConfig) Validate() error {
	if e.Codec == "" {
		return fmt.Errorf("%w: codec is required", ErrInvalidConfig)
	}
	if e.Bitrate < 0 {
		return fmt.Errorf("%w: bitrate must not be negative", ErrInvalidConfig)
	}
	if e.CRF < 0 || e.CRF > 51 {
		return fmt.Errorf("%w: crf must be between 0 and 51, got %d", ErrInvalidConfig, e.CRF)
	}
	if e.Preset != "" && e.Codec == "libx264" && !x264Presets[e.Preset] {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, e.Preset)
	}
	return nil
}

func validatePaths(input, output string) error {
	if input == "" {
		return fmt.Errorf("%w: input is required", ErrInvalidConfig)
	}
	if output == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidConfig)
	}
	if input == output {
		return fmt.Errorf("%w: input and output must differ", ErrInvalidConfig)
	}
	return nil
}
