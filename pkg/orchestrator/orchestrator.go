// Package orchestrator coordinates the stages of the two re-encode flows.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/user/squeeze/pkg/pipeline"
	"github.com/user/squeeze/pkg/ports"
)

// Flow names used in results and summaries.
const (
	FlowRelay     = "relay"
	FlowTranscode = "transcode"
)

// ErrInputNotFound is returned when the transcode input does not exist.
var ErrInputNotFound = errors.New("input file not found")

// RelayConfig contains the configuration for the relay flow.
type RelayConfig struct {
	InputPath  string
	OutputPath string
	Settings   ports.EncoderSettings
	QueueDepth int

	// KeepPartial leaves a partially written output in place on failure.
	KeepPartial bool
	// ProbeOutput re-probes the finished output for reporting.
	ProbeOutput bool
}

// TranscodeConfig contains the configuration for the transcode flow.
type TranscodeConfig struct {
	InputPath  string
	OutputPath string
	Settings   ports.EncoderSettings

	// CheckInput fails fast when the input file is missing instead of
	// letting ffmpeg report it.
	CheckInput  bool
	KeepPartial bool
	ProbeOutput bool
}

// RunResult contains information about a finished run, used for summaries.
type RunResult struct {
	Flow       string
	InputPath  string
	OutputPath string
	Settings   ports.EncoderSettings

	// Input is the probed input stream (relay only).
	Input *ports.StreamDescriptor
	// Output is the re-probed output stream when ProbeOutput is set and
	// probing succeeded.
	Output *ports.StreamDescriptor

	// Relay counters
	Frames        int
	Bytes         int64
	TrailingBytes int

	OutputSize int64
	Elapsed    time.Duration
}

// Orchestrator runs the relay and transcode flows.
type Orchestrator struct {
	probeStage     pipeline.Stage[pipeline.ProbeInput, pipeline.ProbeResult]
	relayStage     pipeline.Stage[pipeline.RelayInput, pipeline.RelayResult]
	transcodeStage pipeline.Stage[pipeline.TranscodeInput, pipeline.TranscodeResult]
	prober         ports.Prober
	fs             ports.FileSystem
	logger         ports.Logger
}

// New creates a new Orchestrator.
func New(
	probeStage pipeline.Stage[pipeline.ProbeInput, pipeline.ProbeResult],
	relayStage pipeline.Stage[pipeline.RelayInput, pipeline.RelayResult],
	transcodeStage pipeline.Stage[pipeline.TranscodeInput, pipeline.TranscodeResult],
	prober ports.Prober,
	fs ports.FileSystem,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		probeStage:     probeStage,
		relayStage:     relayStage,
		transcodeStage: transcodeStage,
		prober:         prober,
		fs:             fs,
		logger:         logger,
	}
}

// RunRelay probes the input, then relays decoded frames into the encoder.
func (o *Orchestrator) RunRelay(ctx context.Context, config RelayConfig) (RunResult, error) {
	start := time.Now()
	result := RunResult{
		Flow:       FlowRelay,
		InputPath:  config.InputPath,
		OutputPath: config.OutputPath,
		Settings:   config.Settings,
	}

	o.logger.Info("Relaying %s -> %s", config.InputPath, config.OutputPath)

	// 1. Probe input
	o.logger.Info("Probing %s", config.InputPath)
	probed, err := o.probeStage.Execute(ctx, pipeline.ProbeInput{
		Path:        config.InputPath,
		RequireH264: true,
	})
	if err != nil {
		o.logger.Error("Failed to probe input: %s", err)
		return result, fmt.Errorf("probe stage: %w", err)
	}
	desc := probed.Descriptor
	result.Input = &desc
	o.logger.Info("Video width: %d, height: %d, fps: %s", desc.Width, desc.Height, formatRate(desc.FrameRate))

	// 2. Relay frames
	if err := o.ensureOutputDir(config.OutputPath); err != nil {
		return result, err
	}

	before := o.snapshotOutput(config.OutputPath)
	relayed, err := o.relayStage.Execute(ctx, pipeline.RelayInput{
		InputPath:  config.InputPath,
		OutputPath: config.OutputPath,
		Descriptor: desc,
		Settings:   config.Settings,
		QueueDepth: config.QueueDepth,
	})
	result.Frames = relayed.Frames
	result.Bytes = relayed.Bytes
	result.TrailingBytes = relayed.TrailingBytes
	if err != nil {
		o.logger.Error("Failed to relay frames: %s", err)
		o.removePartial(config.OutputPath, before, config.KeepPartial)
		result.Elapsed = time.Since(start)
		return result, fmt.Errorf("relay stage: %w", err)
	}
	if relayed.TrailingBytes > 0 {
		o.logger.Warn("Dropped %d trailing bytes (incomplete frame)", relayed.TrailingBytes)
	}
	o.logger.Info("Relayed %d frames (%d bytes) in %s", relayed.Frames, relayed.Bytes, relayed.Elapsed.Round(time.Millisecond))

	// 3. Report output
	o.inspectOutput(ctx, &result, config.ProbeOutput)
	o.logger.Info("Compressed video saved as %s", config.OutputPath)

	result.Elapsed = time.Since(start)
	return result, nil
}

// RunTranscode re-encodes the input with a single ffmpeg invocation.
func (o *Orchestrator) RunTranscode(ctx context.Context, config TranscodeConfig) (RunResult, error) {
	start := time.Now()
	result := RunResult{
		Flow:       FlowTranscode,
		InputPath:  config.InputPath,
		OutputPath: config.OutputPath,
		Settings:   config.Settings,
	}

	o.logger.Info("Transcoding %s -> %s", config.InputPath, config.OutputPath)

	if config.CheckInput {
		exists, err := o.fs.Exists(config.InputPath)
		if err != nil {
			return result, fmt.Errorf("check input: %w", err)
		}
		if !exists {
			o.logger.Error("Failed to transcode: %s", ErrInputNotFound)
			return result, fmt.Errorf("%w: %s", ErrInputNotFound, config.InputPath)
		}
	}

	if err := o.ensureOutputDir(config.OutputPath); err != nil {
		return result, err
	}

	before := o.snapshotOutput(config.OutputPath)
	transcoded, err := o.transcodeStage.Execute(ctx, pipeline.TranscodeInput{
		InputPath:  config.InputPath,
		OutputPath: config.OutputPath,
		Settings:   config.Settings,
	})
	if err != nil {
		o.logger.Error("Failed to transcode: %s", err)
		o.removePartial(config.OutputPath, before, config.KeepPartial)
		result.Elapsed = time.Since(start)
		return result, fmt.Errorf("transcode stage: %w", err)
	}
	o.logger.Info("Transcode finished in %s", transcoded.Elapsed.Round(time.Millisecond))

	o.inspectOutput(ctx, &result, config.ProbeOutput)
	o.logger.Info("Transcoded video saved as %s", config.OutputPath)

	result.Elapsed = time.Since(start)
	return result, nil
}

func (o *Orchestrator) ensureOutputDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := o.fs.MkdirAll(dir); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// outputSnapshot records what was at the output path before a stage ran.
type outputSnapshot struct {
	known   bool // false when the path could not be inspected
	existed bool
	stat    ports.FileStat
}

func (o *Orchestrator) snapshotOutput(path string) outputSnapshot {
	exists, err := o.fs.Exists(path)
	if err != nil {
		return outputSnapshot{}
	}
	if !exists {
		return outputSnapshot{known: true}
	}
	st, err := o.fs.Stat(path)
	if err != nil {
		return outputSnapshot{}
	}
	return outputSnapshot{known: true, existed: true, stat: st}
}

// removePartial deletes the output after a failure, but only when the
// failed stage created or modified it. A file the stage never touched
// stays in place.
func (o *Orchestrator) removePartial(path string, before outputSnapshot, keep bool) {
	if keep || !before.known {
		return
	}
	after, err := o.fs.Stat(path)
	if err != nil {
		return
	}
	if before.existed && after.Size == before.stat.Size && after.ModTime.Equal(before.stat.ModTime) {
		return
	}
	if err := o.fs.Remove(path); err == nil {
		o.logger.Warn("Removed partial output %s", path)
	}
}

// inspectOutput records the output size and, if requested, its probed
// stream. Failures are logged and never fail the run.
func (o *Orchestrator) inspectOutput(ctx context.Context, result *RunResult, probeOutput bool) {
	if size, err := o.fs.Size(result.OutputPath); err == nil {
		result.OutputSize = size
		o.logger.Info("Output: %s, %d bytes", result.OutputPath, size)
	}

	if !probeOutput || o.prober == nil {
		return
	}
	desc, err := o.prober.Probe(ctx, result.OutputPath)
	if err != nil {
		o.logger.Warn("Could not probe output: %s", err)
		return
	}
	result.Output = &desc
}

// formatRate renders whole frame rates as integers ("30") and others as
// decimals ("29.97").
func formatRate(r ports.Rational) string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%.2f", r.Float64())
}
