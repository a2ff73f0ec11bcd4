// Package ffprobe implements ports.Prober on top of the ffprobe binary.
//
// A single JSON call (-show_format -show_streams) is made per file. The
// loosely typed JSON is converted into a validated ports.StreamDescriptor
// at this boundary: malformed dimensions or frame rates are rejected here
// instead of surfacing later as a wrong frame size on the relay pipe.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/user/squeeze/pkg/ports"
)

var (
	// ErrNoVideoStream is returned when the file has no video stream.
	ErrNoVideoStream = errors.New("ffprobe: no video stream")

	// ErrInvalidDimensions is returned for missing or non-positive width/height.
	ErrInvalidDimensions = errors.New("ffprobe: invalid dimensions")

	// ErrInvalidFrameRate is returned when no usable frame rate is reported.
	ErrInvalidFrameRate = errors.New("ffprobe: invalid frame rate")
)

// Prober runs ffprobe through a ports.ProcessLauncher.
type Prober struct {
	launcher ports.ProcessLauncher
	path     string
}

// New creates a Prober using the ffprobe executable at path.
func New(launcher ports.ProcessLauncher, path string) *Prober {
	return &Prober{launcher: launcher, path: path}
}

// Args returns the ffprobe arguments used to inspect path.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	}
}

// Probe runs ffprobe against path and returns the primary video stream.
func (p *Prober) Probe(ctx context.Context, path string) (ports.StreamDescriptor, error) {
	proc, err := p.launcher.Start(ctx, ports.ProcessSpec{
		Path:       p.path,
		Args:       Args(path),
		PipeStdout: true,
	})
	if err != nil {
		return ports.StreamDescriptor{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	out, readErr := io.ReadAll(proc.Stdout())
	if err := proc.Wait(); err != nil {
		return ports.StreamDescriptor{}, fmt.Errorf("ffprobe %q: %w", path,
			&ports.ProcessError{Role: "ffprobe", Err: err, Stderr: proc.Stderr()})
	}
	if readErr != nil {
		return ports.StreamDescriptor{}, fmt.Errorf("ffprobe %q: read output: %w", path, readErr)
	}

	return ParseJSON(out)
}

// ParseJSON converts raw ffprobe JSON output into a StreamDescriptor.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (ports.StreamDescriptor, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return ports.StreamDescriptor{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildDescriptor(&raw)
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	PixFmt       string            `json:"pix_fmt"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	RFrameRate   string            `json:"r_frame_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Duration     string            `json:"duration"`
	NbFrames     string            `json:"nb_frames"`
	Disposition  map[string]int    `json:"disposition"`
	Tags         map[string]string `json:"tags"`
}

// --- Conversion from wire types to the descriptor ---

func buildDescriptor(raw *ffprobeOutput) (ports.StreamDescriptor, error) {
	s := primaryVideo(raw.Streams)
	if s == nil {
		return ports.StreamDescriptor{}, ErrNoVideoStream
	}

	if s.Width <= 0 || s.Height <= 0 {
		return ports.StreamDescriptor{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, s.Width, s.Height)
	}

	rate, err := frameRate(s)
	if err != nil {
		return ports.StreamDescriptor{}, err
	}

	duration := parseFloat(s.Duration)
	if duration <= 0 {
		duration = parseFloat(raw.Format.Duration)
	}

	tags := make(map[string]string, len(raw.Format.Tags)+len(s.Tags))
	for k, v := range raw.Format.Tags {
		tags[k] = v
	}
	for k, v := range s.Tags {
		tags[k] = v
	}

	return ports.StreamDescriptor{
		Codec:       s.CodecName,
		Width:       s.Width,
		Height:      s.Height,
		FrameRate:   rate,
		PixelFormat: s.PixFmt,
		DurationSec: duration,
		FrameCount:  parseInt64(s.NbFrames),
		Tags:        tags,
	}, nil
}

// primaryVideo returns the first video stream that is not cover art.
func primaryVideo(streams []ffprobeStream) *ffprobeStream {
	for i := range streams {
		s := &streams[i]
		if s.CodecType == "video" && s.Disposition["attached_pic"] != 1 {
			return s
		}
	}
	return nil
}

// frameRate prefers r_frame_rate and falls back to avg_frame_rate.
// ffprobe reports "0/0" when a rate is unknown.
func frameRate(s *ffprobeStream) (ports.Rational, error) {
	for _, candidate := range []string{s.RFrameRate, s.AvgFrameRate} {
		r, err := ports.ParseRational(candidate)
		if err == nil && !r.IsZero() {
			return r, nil
		}
	}
	return ports.Rational{}, fmt.Errorf("%w: r_frame_rate=%q avg_frame_rate=%q",
		ErrInvalidFrameRate, s.RFrameRate, s.AvgFrameRate)
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

var _ ports.Prober = (*Prober)(nil)
