package ports

import "context"

// Prober inspects a media file's stream metadata without decoding it.
type Prober interface {
	// Probe returns the validated descriptor of the primary video stream.
	Probe(ctx context.Context, path string) (StreamDescriptor, error)
}
