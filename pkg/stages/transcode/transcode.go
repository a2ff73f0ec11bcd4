// Package transcode implements the single-call transcode stage.
package transcode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/user/squeeze/pkg/adapters/ffmpegcmd"
	"github.com/user/squeeze/pkg/pipeline"
	"github.com/user/squeeze/pkg/ports"
)

// Stage re-encodes a file with one ffmpeg invocation.
type Stage struct {
	launcher   ports.ProcessLauncher
	ffmpegPath string
	args       *ffmpegcmd.Builder
	logger     ports.Logger
}

// New creates a new transcode stage.
func New(launcher ports.ProcessLauncher, ffmpegPath string, args *ffmpegcmd.Builder, logger ports.Logger) *Stage {
	return &Stage{
		launcher:   launcher,
		ffmpegPath: ffmpegPath,
		args:       args,
		logger:     logger.WithComponent("transcode"),
	}
}

// Execute runs ffmpeg and blocks until it exits. A non-zero exit is
// returned as a *ports.ProcessError carrying ffmpeg's stderr.
func (s *Stage) Execute(ctx context.Context, input pipeline.TranscodeInput) (pipeline.TranscodeResult, error) {
	start := time.Now()
	result := pipeline.TranscodeResult{}

	args := s.args.TranscodeArgs(input.InputPath, input.OutputPath, input.Settings)
	s.logger.Debug("Running: %s", strings.Join(args, " "))

	proc, err := s.launcher.Start(ctx, ports.ProcessSpec{Path: s.ffmpegPath, Args: args})
	if err != nil {
		return result, fmt.Errorf("start ffmpeg: %w", err)
	}

	waitErr := proc.Wait()
	result.Elapsed = time.Since(start)

	if ctx.Err() != nil {
		return result, fmt.Errorf("transcode interrupted: %w", ctx.Err())
	}
	if waitErr != nil {
		return result, &ports.ProcessError{Role: "ffmpeg", Err: waitErr, Stderr: proc.Stderr()}
	}

	s.logger.Debug("Transcode finished in %s", result.Elapsed.Round(time.Millisecond))
	return result, nil
}
