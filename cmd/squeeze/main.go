// Package main provides the CLI entry point for squeeze.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/user/squeeze/pkg/adapters/barprogress"
	"github.com/user/squeeze/pkg/adapters/execlauncher"
	"github.com/user/squeeze/pkg/adapters/ffmpegcmd"
	"github.com/user/squeeze/pkg/adapters/ffprobe"
	"github.com/user/squeeze/pkg/adapters/logger"
	"github.com/user/squeeze/pkg/adapters/nullprogress"
	"github.com/user/squeeze/pkg/adapters/osfilesystem"
	"github.com/user/squeeze/pkg/config"
	"github.com/user/squeeze/pkg/orchestrator"
	"github.com/user/squeeze/pkg/pipeline"
	"github.com/user/squeeze/pkg/ports"
	"github.com/user/squeeze/pkg/squeeze"
	"github.com/user/squeeze/pkg/stages/probe"
	"github.com/user/squeeze/pkg/stages/relay"
	"github.com/user/squeeze/pkg/stages/transcode"
	"github.com/user/squeeze/pkg/summarizer"
)

var version = "dev"

// Flag categories
const (
	catFiles    = "Input and Output"
	catEncoding = "Encoding"
	catRelay    = "Relay"
	catOutput   = "Output Handling"
	catBinaries = "Binaries"
	catLogging  = "Logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "squeeze",
		Usage:   l10n.T("Re-encode H.264 video with ffmpeg"),
		Version: version,
		Description: l10n.T("squeeze compresses H.264 video either by relaying decoded frames " +
			"between two ffmpeg processes or by a single ffmpeg transcode."),
		Commands: []*cli.Command{
			relayCommand(),
			transcodeCommand(),
			probeCommand(),
			versionCommand(),
		},
	}
}

// --- Flags ---

func fileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Category: l10n.T(catFiles), Usage: l10n.T("Input video file path")},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: l10n.T(catFiles), Usage: l10n.T("Output video file path")},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"SQUEEZE_CONFIG"}, Category: l10n.T(catFiles), Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "summary", Category: l10n.T(catFiles), Usage: l10n.T("Output execution summary to file (Markdown format)")},
	}
}

func encodingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "codec", Category: l10n.T(catEncoding), Usage: l10n.T("ffmpeg encoder name (default: libx264)")},
		&cli.IntFlag{Name: "bitrate", Aliases: []string{"b"}, Category: l10n.T(catEncoding), Usage: l10n.T("Target bitrate in kbit/s (0 = unset)")},
		&cli.Float64Flag{Name: "bitrate-mbps", Category: l10n.T(catEncoding), Usage: l10n.T("Target bitrate in Mbit/s, overrides --bitrate")},
		&cli.StringFlag{Name: "preset", Category: l10n.T(catEncoding), Usage: l10n.T("Encoder speed preset (default: slow)")},
		&cli.IntFlag{Name: "crf", Category: l10n.T(catEncoding), Usage: l10n.T("Constant rate factor (0-51, lower is better, overrides quality preset)")},
		&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Category: l10n.T(catEncoding), Usage: l10n.T("Quality preset (low, medium, high)")},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "keep-partial", Category: l10n.T(catOutput), Usage: l10n.T("Keep partially written output on failure")},
		&cli.BoolFlag{Name: "probe-output", Category: l10n.T(catOutput), Usage: l10n.T("Probe the output file after encoding")},
	}
}

func binaryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "ffmpeg", Category: l10n.T(catBinaries), Usage: l10n.T("Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)")},
		&cli.StringFlag{Name: "ffprobe", Category: l10n.T(catBinaries), Usage: l10n.T("Path to ffprobe executable (falls back to FFPROBE_PATH env, then PATH)")},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T(catLogging), Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.StringFlag{Name: "log-format", Category: l10n.T(catLogging), Usage: l10n.T("Log format (text, json)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T(catLogging), Usage: l10n.T("Suppress all log output")},
	}
}

func concat(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

// --- Commands ---

func relayCommand() *cli.Command {
	relayFlags := []cli.Flag{
		&cli.IntFlag{Name: "queue-depth", Category: l10n.T(catRelay), Usage: l10n.T("Frames buffered between decoder and encoder")},
		&cli.BoolFlag{Name: "progress", Value: true, Category: l10n.T(catRelay), Usage: l10n.T("Show a progress bar on a terminal")},
	}
	return &cli.Command{
		Name:        "relay",
		Usage:       l10n.T("Relay decoded frames into a second ffmpeg encoder"),
		Description: l10n.T("Probe the input, decode it to raw yuv420p frames and feed them to an H.264 encoder (default 300 kbit/s)."),
		Flags:       concat(fileFlags(), encodingFlags(), relayFlags, outputFlags(), binaryFlags(), loggingFlags()),
		Action:      runRelay,
	}
}

func transcodeCommand() *cli.Command {
	transcodeFlags := []cli.Flag{
		&cli.BoolFlag{Name: "check-input", Category: l10n.T(catFiles), Usage: l10n.T("Fail before running ffmpeg when the input is missing")},
	}
	return &cli.Command{
		Name:        "transcode",
		Usage:       l10n.T("Re-encode with a single ffmpeg call"),
		Description: l10n.T("Run one ffmpeg invocation that decodes and re-encodes the input (default 1000 kbit/s)."),
		Flags:       concat(fileFlags(), transcodeFlags, encodingFlags(), outputFlags(), binaryFlags(), loggingFlags()),
		Action:      runTranscode,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:        "probe",
		Usage:       l10n.T("Show the video stream of a file"),
		Description: l10n.T("Print the probed stream descriptor and detected container as YAML."),
		ArgsUsage:   "[FILE]",
		Flags: concat(
			[]cli.Flag{
				&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Category: l10n.T(catFiles), Usage: l10n.T("Input video file path")},
				&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"SQUEEZE_CONFIG"}, Category: l10n.T(catFiles), Usage: l10n.T("YAML configuration file")},
			},
			binaryFlags(),
			loggingFlags(),
		),
		Action: runProbe,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, l10n.F("squeeze version %s", version))
			return nil
		},
	}
}

// --- Actions ---

func runRelay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	section := cfg.Relay
	builder := squeeze.NewRelayConfigBuilder().
		WithCodec(section.Encode.Codec).
		WithBitrate(section.Encode.Bitrate).
		WithPreset(section.Encode.Preset).
		WithCRF(section.Encode.CRF).
		WithQueueDepth(section.QueueDepth).
		WithKeepPartial(section.KeepPartial).
		WithProbeOutput(section.ProbeOutput)
	if err := applyEncodingFlags(c, builder); err != nil {
		return err
	}
	if c.IsSet("queue-depth") {
		builder.WithQueueDepth(c.Int("queue-depth"))
	}
	sq := builder.Build()

	input := stringFlag(c, "input", section.Input)
	output := stringFlag(c, "output", section.Output)
	final := config.RelayConfig{
		Input:      input,
		Output:     output,
		Encode:     encodeConfig(sq),
		QueueDepth: sq.QueueDepth,
	}
	if err := final.Validate(); err != nil {
		return err
	}

	bins, err := ffmpegcmd.Resolve(stringFlag(c, "ffmpeg", cfg.FFmpegPath), stringFlag(c, "ffprobe", cfg.FFprobePath))
	if err != nil {
		return err
	}

	var progress ports.ProgressReporter = nullprogress.New()
	if c.Bool("progress") && !c.Bool("quiet") {
		progress = barprogress.NewForTerminal(os.Stderr, l10n.T("Relaying frames"))
	}

	launcher := newLauncher(logLevel(c, cfg))
	args := ffmpegArgs(logLevel(c, cfg))
	prober := ffprobe.New(launcher, bins.FFprobe)
	fs := osfilesystem.New()

	orch := orchestrator.New(
		probe.New(prober, log),
		relay.New(launcher, bins.FFmpeg, args, progress, log),
		transcode.New(launcher, bins.FFmpeg, args, log),
		prober,
		fs,
		log,
	)

	ctx, cancel := withSignals(c.Context, log)
	defer cancel()

	result, err := orch.RunRelay(ctx, sq.ToRelayConfig(input, output))
	if err != nil {
		return err
	}
	writeSummary(c, result, sq, fs, log)
	return nil
}

func runTranscode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	section := cfg.Transcode
	builder := squeeze.NewTranscodeConfigBuilder().
		WithCodec(section.Encode.Codec).
		WithBitrate(section.Encode.Bitrate).
		WithPreset(section.Encode.Preset).
		WithCRF(section.Encode.CRF).
		WithCheckInput(section.CheckInput).
		WithKeepPartial(section.KeepPartial).
		WithProbeOutput(section.ProbeOutput)
	if err := applyEncodingFlags(c, builder); err != nil {
		return err
	}
	if c.IsSet("check-input") {
		builder.WithCheckInput(c.Bool("check-input"))
	}
	sq := builder.Build()

	input := stringFlag(c, "input", section.Input)
	output := stringFlag(c, "output", section.Output)
	final := config.TranscodeConfig{
		Input:  input,
		Output: output,
		Encode: encodeConfig(sq),
	}
	if err := final.Validate(); err != nil {
		return err
	}

	ffmpegPath, err := ffmpegcmd.FindFFmpeg(stringFlag(c, "ffmpeg", cfg.FFmpegPath))
	if err != nil {
		return err
	}
	launcher := newLauncher(logLevel(c, cfg))

	// ffprobe is only needed to re-probe the output.
	var prober ports.Prober
	if sq.ProbeOutput {
		ffprobePath, err := ffmpegcmd.FindFFprobe(stringFlag(c, "ffprobe", cfg.FFprobePath))
		if err != nil {
			return err
		}
		prober = ffprobe.New(launcher, ffprobePath)
	}

	fs := osfilesystem.New()

	orch := orchestrator.New(
		nil,
		nil,
		transcode.New(launcher, ffmpegPath, ffmpegArgs(logLevel(c, cfg)), log),
		prober,
		fs,
		log,
	)

	ctx, cancel := withSignals(c.Context, log)
	defer cancel()

	result, err := orch.RunTranscode(ctx, sq.ToTranscodeConfig(input, output))
	if err != nil {
		return err
	}
	writeSummary(c, result, sq, fs, log)
	return nil
}

// probeReport is the YAML document printed by the probe command.
type probeReport struct {
	Path        string            `yaml:"path"`
	Container   string            `yaml:"container"`
	Codec       string            `yaml:"codec"`
	Width       int               `yaml:"width"`
	Height      int               `yaml:"height"`
	FrameRate   string            `yaml:"frame_rate"`
	PixelFormat string            `yaml:"pixel_format,omitempty"`
	DurationSec float64           `yaml:"duration_sec,omitempty"`
	Frames      int64             `yaml:"frames,omitempty"`
	FrameSize   int               `yaml:"raw_frame_size"`
	Tags        map[string]string `yaml:"tags,omitempty"`
}

func runProbe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	input := c.Args().First()
	if input == "" {
		input = stringFlag(c, "input", cfg.Relay.Input)
	}

	ffprobePath, err := ffmpegcmd.FindFFprobe(stringFlag(c, "ffprobe", cfg.FFprobePath))
	if err != nil {
		return err
	}

	ctx, cancel := withSignals(c.Context, log)
	defer cancel()

	prober := ffprobe.New(newLauncher(logLevel(c, cfg)), ffprobePath)
	result, err := probe.New(prober, log).Execute(ctx, pipeline.ProbeInput{Path: input})
	if err != nil {
		return err
	}

	desc := result.Descriptor
	out, err := yaml.Marshal(probeReport{
		Path:        input,
		Container:   string(result.Container),
		Codec:       desc.Codec,
		Width:       desc.Width,
		Height:      desc.Height,
		FrameRate:   desc.FrameRate.String(),
		PixelFormat: desc.PixelFormat,
		DurationSec: desc.DurationSec,
		Frames:      desc.EstimatedFrames(),
		FrameSize:   desc.FrameSize(),
		Tags:        desc.Tags,
	})
	if err != nil {
		return fmt.Errorf("encode probe report: %w", err)
	}
	_, err = c.App.Writer.Write(out)
	return err
}

// --- Helpers ---

// loadConfig returns the defaults, or the YAML file named by --config on
// top of them.
func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Defaults(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyEncodingFlags overrides builder values with the flags that were set.
func applyEncodingFlags(c *cli.Context, b *squeeze.ConfigBuilder) error {
	if c.IsSet("codec") {
		b.WithCodec(c.String("codec"))
	}
	if c.IsSet("bitrate") {
		b.WithBitrate(c.Int("bitrate"))
	}
	if c.IsSet("bitrate-mbps") {
		b.WithBitrate(squeeze.MbpsToKbps(c.Float64("bitrate-mbps")))
	}
	if c.IsSet("preset") {
		b.WithPreset(c.String("preset"))
	}
	if c.IsSet("quality") {
		q := squeeze.QualityPreset(c.String("quality"))
		switch q {
		case squeeze.QualityLow, squeeze.QualityMedium, squeeze.QualityHigh:
			b.WithQualityPreset(q)
		default:
			return fmt.Errorf("%w: unknown quality preset %q", config.ErrInvalidConfig, q)
		}
	}
	// An explicit CRF wins over the quality preset.
	if c.IsSet("crf") {
		crf := c.Int("crf")
		if crf < 0 || crf > 51 {
			return fmt.Errorf("%w: crf must be between 0 and 51, got %d", config.ErrInvalidConfig, crf)
		}
		b.WithCRF(crf)
	}
	if c.IsSet("keep-partial") {
		b.WithKeepPartial(c.Bool("keep-partial"))
	}
	if c.IsSet("probe-output") {
		b.WithProbeOutput(c.Bool("probe-output"))
	}
	return nil
}

func encodeConfig(sq squeeze.Config) config.EncodeConfig {
	return config.EncodeConfig{
		Codec:   sq.Codec,
		Bitrate: sq.BitrateKbps,
		Preset:  sq.Preset,
		CRF:     sq.CRF,
	}
}

func stringFlag(c *cli.Context, name, fallback string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	return fallback
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	level := logLevel(c, cfg)
	if stringFlag(c, "log-format", cfg.LogFormat) == "json" {
		return logger.NewStructured(level, os.Stderr)
	}
	return logger.NewConsole(level)
}

func logLevel(c *cli.Context, cfg config.Config) ports.LogLevel {
	return ports.ParseLogLevel(stringFlag(c, "log-level", cfg.LogLevel))
}

// newLauncher mirrors ffmpeg's stderr to the terminal when debugging.
func newLauncher(level ports.LogLevel) *execlauncher.Launcher {
	launcher := execlauncher.New()
	if level == ports.LevelDebug {
		launcher.Tee = os.Stderr
	}
	return launcher
}

// ffmpegArgs lets ffmpeg's own warnings through when debugging.
func ffmpegArgs(level ports.LogLevel) *ffmpegcmd.Builder {
	args := ffmpegcmd.NewBuilder()
	if level == ports.LevelDebug {
		args.LogLevel = "warning"
	}
	return args
}

// withSignals cancels the returned context on SIGINT or SIGTERM.
func withSignals(parent context.Context, log ports.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func writeSummary(c *cli.Context, result orchestrator.RunResult, sq squeeze.Config, fs ports.FileSystem, log ports.Logger) {
	path := c.String("summary")
	if path == "" {
		return
	}

	settings := summarizer.Settings{
		Codec:       result.Settings.Codec,
		BitrateKbps: result.Settings.BitrateKbps,
		Preset:      result.Settings.Preset,
		CRF:         result.Settings.CRF,
	}
	if result.Flow == orchestrator.FlowRelay {
		settings.QueueDepth = sq.QueueDepth
	}

	summary := summarizer.NewBuilder().
		WithFlow(result.Flow).
		WithFiles(result.InputPath, result.OutputPath, result.OutputSize).
		WithSettings(settings).
		WithRelay(result.Frames, result.Bytes, result.TrailingBytes).
		WithInputStream(result.Input).
		WithOutputStream(result.Output).
		WithElapsed(result.Elapsed).
		Build()

	formatter := summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	if err := summarizer.NewWriter(formatter, fs).Write(path, summary); err != nil {
		log.Warn("Failed to write summary: %s", err)
		return
	}
	log.Info("Summary saved to %s", path)
}
