// Package probe implements the input inspection stage.
package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/squeeze/pkg/adapters/codecdetect"
	"github.com/user/squeeze/pkg/pipeline"
	"github.com/user/squeeze/pkg/ports"
)

// ErrNotH264 is returned when the input is positively identified as
// another codec.
var ErrNotH264 = errors.New("probe: input is not H.264")

// Stage inspects an input file and returns its validated stream descriptor.
type Stage struct {
	prober ports.Prober
	logger ports.Logger
	detect func(path string) (codecdetect.Result, error)
}

// New creates a new probe stage.
func New(prober ports.Prober, logger ports.Logger) *Stage {
	return &Stage{
		prober: prober,
		logger: logger.WithComponent("probe"),
		detect: codecdetect.DetectFile,
	}
}

// Execute runs the container check and then ffprobe.
func (s *Stage) Execute(ctx context.Context, input pipeline.ProbeInput) (pipeline.ProbeResult, error) {
	result := pipeline.ProbeResult{}

	detected, err := s.detect(input.Path)
	if err != nil {
		return result, fmt.Errorf("inspect %s: %w", input.Path, err)
	}
	result.Container = string(detected.Container)
	s.logger.Debug("Detected codec: %s", string(detected.Codec))

	if info := detected.Elementary; info != nil {
		s.logger.Debug("Elementary stream SPS: %dx%d, chroma format %d", info.Width, info.Height, info.ChromaFormatIDC)
	}

	if input.RequireH264 && detected.Certain() && detected.Codec != codecdetect.CodecH264 {
		s.logger.Warn("Input codec is %s, not H.264", string(detected.Codec))
		return result, fmt.Errorf("%w: detected %s", ErrNotH264, detected.Codec)
	}

	desc, err := s.prober.Probe(ctx, input.Path)
	if err != nil {
		return result, fmt.Errorf("probe %s: %w", input.Path, err)
	}

	if input.RequireH264 && desc.Codec != "" && desc.Codec != string(codecdetect.CodecH264) {
		s.logger.Warn("Input codec is %s, not H.264", desc.Codec)
		return result, fmt.Errorf("%w: ffprobe reports %s", ErrNotH264, desc.Codec)
	}

	s.logger.Debug("Stream: %s %s %s fps, pix_fmt %s", desc.Codec, desc.Resolution(), desc.FrameRate.String(), desc.PixelFormat)

	result.Descriptor = desc
	return result, nil
}
