// Package summarizer provides summary generation for squeeze runs.
package summarizer

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/user/squeeze/pkg/ports"
)

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	RunID       string
	GeneratedAt time.Time
	Flow        string // "relay" or "transcode"
	Elapsed     time.Duration

	// Files
	Input  FileInfo
	Output FileInfo

	// Encoder settings
	Settings Settings

	// Relay counters (relay flow only)
	Relay RelayInfo

	// Probed streams (nil when not probed)
	InputStream  *StreamInfo
	OutputStream *StreamInfo
}

// FileInfo describes an input or output file.
type FileInfo struct {
	Path string
	Size int64 // 0 when unknown
}

// Settings contains the encoder configuration.
type Settings struct {
	Codec       string
	BitrateKbps int
	Preset      string
	CRF         int
	QueueDepth  int // relay only
}

// RelayInfo contains frame relay counters.
type RelayInfo struct {
	Frames        int
	Bytes         int64
	TrailingBytes int
}

// StreamInfo contains the reportable fields of a probed stream.
type StreamInfo struct {
	Codec       string
	Width       int
	Height      int
	FrameRate   string
	FPS         float64
	PixelFormat string
	DurationSec float64
	FrameCount  int64
	FrameSize   int
	Tags        map[string]string
}

// NewStreamInfo converts a probed descriptor.
func NewStreamInfo(desc ports.StreamDescriptor) *StreamInfo {
	return &StreamInfo{
		Codec:       desc.Codec,
		Width:       desc.Width,
		Height:      desc.Height,
		FrameRate:   desc.FrameRate.String(),
		FPS:         desc.FrameRate.Float64(),
		PixelFormat: desc.PixelFormat,
		DurationSec: desc.DurationSec,
		FrameCount:  desc.EstimatedFrames(),
		FrameSize:   desc.FrameSize(),
		Tags:        desc.Tags,
	}
}

// TagKeys returns the tag names in sorted order.
func (s *StreamInfo) TagKeys() []string {
	keys := maps.Keys(s.Tags)
	slices.Sort(keys)
	return keys
}

// NewSummary creates a new Summary with a fresh run id and the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithFlow sets the flow name.
func (b *Builder) WithFlow(flow string) *Builder {
	b.summary.Flow = flow
	return b
}

// WithFiles sets input and output paths and the output size.
func (b *Builder) WithFiles(input, output string, outputSize int64) *Builder {
	b.summary.Input = FileInfo{Path: input}
	b.summary.Output = FileInfo{Path: output, Size: outputSize}
	return b
}

// WithSettings sets encoder settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithRelay sets relay counters.
func (b *Builder) WithRelay(frames int, bytes int64, trailing int) *Builder {
	b.summary.Relay = RelayInfo{
		Frames:        frames,
		Bytes:         bytes,
		TrailingBytes: trailing,
	}
	return b
}

// WithInputStream sets the probed input stream. A nil descriptor is ignored.
func (b *Builder) WithInputStream(desc *ports.StreamDescriptor) *Builder {
	if desc != nil {
		b.summary.InputStream = NewStreamInfo(*desc)
	}
	return b
}

// WithOutputStream sets the re-probed output stream. A nil descriptor is ignored.
func (b *Builder) WithOutputStream(desc *ports.StreamDescriptor) *Builder {
	if desc != nil {
		b.summary.OutputStream = NewStreamInfo(*desc)
	}
	return b
}

// WithElapsed sets the total run time.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
