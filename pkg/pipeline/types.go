package pipeline

import (
	"time"

	"github.com/user/squeeze/pkg/ports"
)

// DefaultQueueDepth is how many raw frames may wait between the relay
// reader and writer.
const DefaultQueueDepth = 4

// =============================================================================
// Probe Stage Types
// =============================================================================

// ProbeInput names the file to inspect.
type ProbeInput struct {
	Path string
	// RequireH264 rejects inputs the codec detector positively identifies
	// as something other than H.264.
	RequireH264 bool
}

// ProbeResult is the validated description of the input.
type ProbeResult struct {
	Descriptor ports.StreamDescriptor
	// Container is the layout reported by the codec detector ("mp4", "annexb", "unknown").
	Container string
}

// =============================================================================
// Relay Stage Types
// =============================================================================

// RelayInput contains parameters for the decode/encode frame relay.
type RelayInput struct {
	InputPath  string
	OutputPath string
	Descriptor ports.StreamDescriptor
	Settings   ports.EncoderSettings
	QueueDepth int // frames buffered between reader and writer (default: 4)
}

// RawFrame is one yuv420p frame as read from the decoder. Data is owned by
// the relay's free list and is only valid until the frame is written.
type RawFrame struct {
	Index int
	Data  []byte
}

// RelayResult reports what passed through the relay.
type RelayResult struct {
	Frames        int
	Bytes         int64
	TrailingBytes int // bytes of an incomplete last frame, dropped
	Elapsed       time.Duration
}

// =============================================================================
// Transcode Stage Types
// =============================================================================

// TranscodeInput contains parameters for the single-call transcode.
type TranscodeInput struct {
	InputPath  string
	OutputPath string
	Settings   ports.EncoderSettings
}

// TranscodeResult reports the transcode run.
type TranscodeResult struct {
	Elapsed time.Duration
}
