package ffmpegcmd

import (
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/user/squeeze/pkg/ports"
)

// PipeTarget is ffmpeg's name for stdin/stdout.
const PipeTarget = "pipe:"

// DefaultLogLevel keeps ffmpeg quiet except for real errors, which end up
// in the captured stderr.
const DefaultLogLevel = "error"

// Builder produces argument vectors for the three ffmpeg invocations.
type Builder struct {
	LogLevel string
}

// NewBuilder creates a Builder with DefaultLogLevel.
func NewBuilder() *Builder {
	return &Builder{LogLevel: DefaultLogLevel}
}

func (b *Builder) preamble(interactive bool) []string {
	level := b.LogLevel
	if level == "" {
		level = DefaultLogLevel
	}
	args := []string{"-hide_banner", "-loglevel", level}
	if !interactive {
		args = append(args, "-nostdin")
	}
	return args
}

// DecodeArgs decodes input to raw yuv420p frames on stdout.
func (b *Builder) DecodeArgs(input string) []string {
	stream := ffmpeg.Input(input).
		Output(PipeTarget, ffmpeg.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": ports.RawPixelFormat,
		})
	return append(b.preamble(false), stream.GetArgs()...)
}

// EncodeArgs reads raw yuv420p frames of the described geometry from
// stdin and encodes them to output, overwriting it.
func (b *Builder) EncodeArgs(desc ports.StreamDescriptor, output string, settings ports.EncoderSettings) []string {
	stream := ffmpeg.Input(PipeTarget, ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   ports.RawPixelFormat,
		"s":         desc.Resolution(),
		"framerate": desc.FrameRate.String(),
	}).
		Output(output, outputKwArgs(settings)).
		OverWriteOutput()
	// stdin carries frames, so no -nostdin here.
	return append(b.preamble(true), stream.GetArgs()...)
}

// TranscodeArgs re-encodes input straight to output in one invocation.
func (b *Builder) TranscodeArgs(input, output string, settings ports.EncoderSettings) []string {
	stream := ffmpeg.Input(input).
		Output(output, outputKwArgs(settings)).
		OverWriteOutput()
	return append(b.preamble(false), stream.GetArgs()...)
}

func outputKwArgs(settings ports.EncoderSettings) ffmpeg.KwArgs {
	kw := ffmpeg.KwArgs{}
	if settings.Codec != "" {
		kw["vcodec"] = settings.Codec
	}
	if settings.BitrateKbps > 0 {
		kw["video_bitrate"] = strconv.Itoa(settings.BitrateKbps) + "k"
	}
	if settings.Preset != "" {
		kw["preset"] = settings.Preset
	}
	if settings.CRF > 0 {
		kw["crf"] = strconv.Itoa(settings.CRF)
	}
	return kw
}
