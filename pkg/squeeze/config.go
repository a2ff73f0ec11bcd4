// Package squeeze provides a high-level API for configuring the relay and
// transcode flows.
package squeeze

import (
	"github.com/user/squeeze/pkg/orchestrator"
	"github.com/user/squeeze/pkg/pipeline"
	"github.com/user/squeeze/pkg/ports"
)

// QualityPreset represents a video quality preset name.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// maxCRF is the upper bound of libx264's constant rate factor.
const maxCRF = 51

// GetQualityCRF returns the CRF for the given preset.
func GetQualityCRF(preset QualityPreset) int {
	switch preset {
	case QualityLow:
		return 35
	case QualityHigh:
		return 20
	default: // medium
		return 28
	}
}

// Config represents the configuration for one squeeze run.
type Config struct {
	// Encoding
	Codec       string // ffmpeg encoder name
	BitrateKbps int    // target bitrate in kbit/s (0 = unset)
	Preset      string // x264 speed preset
	CRF         int    // 0-51, lower is better (0 = unset)

	// Relay
	QueueDepth int // frames buffered between decoder and encoder

	// Transcode
	CheckInput bool // fail before running ffmpeg when the input is missing

	// Output handling
	KeepPartial bool // keep a partially written output on failure
	ProbeOutput bool // re-probe the output for reporting
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewRelayConfigBuilder creates a ConfigBuilder with relay defaults
// (300 kbit/s, preset slow, CRF 28).
func NewRelayConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: relayDefaults(),
	}
}

// NewTranscodeConfigBuilder creates a ConfigBuilder with transcode
// defaults (1000 kbit/s, preset slow, CRF 28).
func NewTranscodeConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: transcodeDefaults(),
	}
}

// relayDefaults returns the relay preset configuration.
func relayDefaults() Config {
	return Config{
		Codec:       "libx264",
		BitrateKbps: 300,
		Preset:      "slow",
		CRF:         28,
		QueueDepth:  pipeline.DefaultQueueDepth,
	}
}

// transcodeDefaults returns the transcode preset configuration.
func transcodeDefaults() Config {
	return Config{
		Codec:       "libx264",
		BitrateKbps: 1000,
		Preset:      "slow",
		CRF:         28,
		QueueDepth:  pipeline.DefaultQueueDepth,
	}
}

// Build returns the final Config, applying validation and constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	// Clamp CRF to the libx264 range
	if cfg.CRF < 0 {
		cfg.CRF = 0
	}
	if cfg.CRF > maxCRF {
		cfg.CRF = maxCRF
	}

	// Negative bitrate means unset
	if cfg.BitrateKbps < 0 {
		cfg.BitrateKbps = 0
	}

	// Enforce a queue of at least one frame
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = 1
	}

	return cfg
}

// WithCodec sets the ffmpeg encoder name.
func (b *ConfigBuilder) WithCodec(codec string) *ConfigBuilder {
	b.config.Codec = codec
	return b
}

// WithBitrate sets the target bitrate in kbit/s.
func (b *ConfigBuilder) WithBitrate(kbps int) *ConfigBuilder {
	b.config.BitrateKbps = kbps
	return b
}

// WithPreset sets the encoder speed preset.
func (b *ConfigBuilder) WithPreset(preset string) *ConfigBuilder {
	b.config.Preset = preset
	return b
}

// WithCRF sets the constant rate factor.
// Values outside 0-51 are clamped.
func (b *ConfigBuilder) WithCRF(crf int) *ConfigBuilder {
	b.config.CRF = crf
	return b
}

// WithQualityPreset applies a quality preset (low, medium, high).
func (b *ConfigBuilder) WithQualityPreset(preset QualityPreset) *ConfigBuilder {
	b.config.CRF = GetQualityCRF(preset)
	return b
}

// WithQueueDepth sets how many frames may wait between decoder and encoder.
// Values below 1 will be forced to 1.
func (b *ConfigBuilder) WithQueueDepth(depth int) *ConfigBuilder {
	b.config.QueueDepth = depth
	return b
}

// WithCheckInput enables the input existence check before transcoding.
func (b *ConfigBuilder) WithCheckInput(check bool) *ConfigBuilder {
	b.config.CheckInput = check
	return b
}

// WithKeepPartial keeps partially written output on failure.
func (b *ConfigBuilder) WithKeepPartial(keep bool) *ConfigBuilder {
	b.config.KeepPartial = keep
	return b
}

// WithProbeOutput enables re-probing the finished output.
func (b *ConfigBuilder) WithProbeOutput(probe bool) *ConfigBuilder {
	b.config.ProbeOutput = probe
	return b
}

// MbpsToKbps converts megabits per second to kbit/s.
// Accepts float64 for fractional values (e.g., 1.5 Mbps).
func MbpsToKbps(mbps float64) int {
	return int(mbps * 1000)
}

// Settings returns the encoder settings part of the Config.
func (c Config) Settings() ports.EncoderSettings {
	return ports.EncoderSettings{
		Codec:       c.Codec,
		BitrateKbps: c.BitrateKbps,
		Preset:      c.Preset,
		CRF:         c.CRF,
	}
}

// ToRelayConfig converts Config to orchestrator.RelayConfig.
func (c Config) ToRelayConfig(inputPath, outputPath string) orchestrator.RelayConfig {
	return orchestrator.RelayConfig{
		InputPath:   inputPath,
		OutputPath:  outputPath,
		Settings:    c.Settings(),
		QueueDepth:  c.QueueDepth,
		KeepPartial: c.KeepPartial,
		ProbeOutput: c.ProbeOutput,
	}
}

// ToTranscodeConfig converts Config to orchestrator.TranscodeConfig.
func (c Config) ToTranscodeConfig(inputPath, outputPath string) orchestrator.TranscodeConfig {
	return orchestrator.TranscodeConfig{
		InputPath:   inputPath,
		OutputPath:  outputPath,
		Settings:    c.Settings(),
		CheckInput:  c.CheckInput,
		KeepPartial: c.KeepPartial,
		ProbeOutput: c.ProbeOutput,
	}
}
