package ports

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRational is returned when a frame rate string cannot be parsed.
var ErrInvalidRational = errors.New("ports: invalid rational")

// Rational is an exact fraction such as a frame rate of 30000/1001.
type Rational struct {
	Num int64
	Den int64
}

// ParseRational parses "num/den" or a plain integer ("25").
// Zero or negative denominators and negative numerators are rejected.
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rational{}, fmt.Errorf("%w: empty", ErrInvalidRational)
	}

	numStr, denStr, found := strings.Cut(s, "/")
	if !found {
		denStr = "1"
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidRational, s)
	}
	den, err := strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidRational, s)
	}
	if den <= 0 || num < 0 {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidRational, s)
	}

	return Rational{Num: num, Den: den}, nil
}

// IsZero reports whether the rational is 0 or unset.
func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

// Float64 returns the rational as a float. Unset rationals return 0.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// String returns "num/den", the form ffmpeg accepts for -framerate.
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// RawPixelFormat is the planar 4:2:0 layout used on the relay pipe.
const RawPixelFormat = "yuv420p"

// StreamDescriptor describes the primary video stream of a probed file.
// It is read once per run and never mutated.
type StreamDescriptor struct {
	Codec       string
	Width       int
	Height      int
	FrameRate   Rational
	PixelFormat string  // pixel format of the source stream
	DurationSec float64 // 0 when unknown
	FrameCount  int64   // 0 when unknown
	Tags        map[string]string
}

// FrameSize returns the byte size of one raw yuv420p frame: a full
// resolution luma plane followed by two chroma planes subsampled 2x2.
// For even dimensions this is width*height*3/2.
func (d StreamDescriptor) FrameSize() int {
	chromaW := (d.Width + 1) / 2
	chromaH := (d.Height + 1) / 2
	return d.Width*d.Height + 2*chromaW*chromaH
}

// Resolution returns "WxH".
func (d StreamDescriptor) Resolution() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// EstimatedFrames returns the frame count if known, otherwise an
// estimate from duration and frame rate. Returns 0 when neither is known.
func (d StreamDescriptor) EstimatedFrames() int64 {
	if d.FrameCount > 0 {
		return d.FrameCount
	}
	if d.DurationSec > 0 && !d.FrameRate.IsZero() {
		return int64(d.DurationSec*d.FrameRate.Float64() + 0.5)
	}
	return 0
}

// EncoderSettings are the output parameters handed to ffmpeg.
type EncoderSettings struct {
	Codec       string // ffmpeg encoder name, e.g. "libx264"
	BitrateKbps int    // target bitrate in kbit/s (0 = let CRF decide)
	Preset      string // x264 speed preset, e.g. "slow"
	CRF         int    // constant rate factor (0-51 for libx264)
}
