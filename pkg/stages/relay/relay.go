// Package relay implements the decode/encode frame relay stage.
//
// A decoder ffmpeg writes raw yuv420p frames to its stdout; the stage reads
// them in fixed frame-sized chunks and forwards them unmodified to the stdin
// of an encoder ffmpeg. Reading and writing run in separate goroutines
// joined by a bounded channel, so a slow encoder throttles the decoder.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/squeeze/pkg/adapters/ffmpegcmd"
	"github.com/user/squeeze/pkg/pipeline"
	"github.com/user/squeeze/pkg/ports"
)

// Stage relays raw frames between two ffmpeg processes.
type Stage struct {
	launcher   ports.ProcessLauncher
	ffmpegPath string
	args       *ffmpegcmd.Builder
	progress   ports.ProgressReporter
	logger     ports.Logger
}

// New creates a new relay stage.
func New(launcher ports.ProcessLauncher, ffmpegPath string, args *ffmpegcmd.Builder, progress ports.ProgressReporter, logger ports.Logger) *Stage {
	return &Stage{
		launcher:   launcher,
		ffmpegPath: ffmpegPath,
		args:       args,
		progress:   progress,
		logger:     logger.WithComponent("relay"),
	}
}

// Execute runs the decoder and encoder and relays every complete frame.
// Both processes have exited when Execute returns.
func (s *Stage) Execute(ctx context.Context, input pipeline.RelayInput) (pipeline.RelayResult, error) {
	start := time.Now()
	result := pipeline.RelayResult{}

	frameSize := input.Descriptor.FrameSize()
	if frameSize <= 0 {
		return result, fmt.Errorf("invalid frame size for %s", input.Descriptor.Resolution())
	}
	depth := input.QueueDepth
	if depth <= 0 {
		depth = pipeline.DefaultQueueDepth
	}
	s.logger.Debug("Frame size: %d bytes, queue depth: %d", frameSize, depth)

	decArgs := s.args.DecodeArgs(input.InputPath)
	s.logger.Debug("Starting decoder: %s", strings.Join(decArgs, " "))
	dec, err := s.launcher.Start(ctx, ports.ProcessSpec{
		Path:       s.ffmpegPath,
		Args:       decArgs,
		PipeStdout: true,
	})
	if err != nil {
		return result, fmt.Errorf("start decoder: %w", err)
	}

	encArgs := s.args.EncodeArgs(input.Descriptor, input.OutputPath, input.Settings)
	s.logger.Debug("Starting encoder: %s", strings.Join(encArgs, " "))
	enc, err := s.launcher.Start(ctx, ports.ProcessSpec{
		Path:      s.ffmpegPath,
		Args:      encArgs,
		PipeStdin: true,
	})
	if err != nil {
		dec.Kill()
		dec.Wait()
		return result, fmt.Errorf("start encoder: %w", err)
	}

	var (
		failOnce  sync.Once
		cause     error
		causeRole string
		stopOnce  sync.Once
	)
	// fail records the first failure and stops both processes so that any
	// goroutine blocked on a pipe returns.
	fail := func(role string, err error) error {
		failOnce.Do(func() { cause, causeRole = err, role })
		stopOnce.Do(func() {
			s.logger.Debug("Stopping subprocesses")
			dec.Kill()
			enc.Kill()
		})
		return err
	}

	s.progress.Start(input.Descriptor.EstimatedFrames())
	defer s.progress.Finish()

	frames := make(chan pipeline.RawFrame, depth)
	// One buffer per queue slot plus one held by each goroutine.
	free := make(chan []byte, depth+2)
	for i := 0; i < depth+2; i++ {
		free <- make([]byte, frameSize)
	}

	var (
		written  int
		bytesOut int64
		trailing int
	)

	g, gctx := errgroup.WithContext(ctx)

	// Reader: decoder stdout -> frames.
	g.Go(func() error {
		defer close(frames)
		stdout := dec.Stdout()
		for index := 0; ; index++ {
			var buf []byte
			select {
			case buf = <-free:
			case <-gctx.Done():
				return gctx.Err()
			}

			n, err := io.ReadFull(stdout, buf)
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				trailing = n
				s.logger.Debug("Short read of %d bytes, end of stream", n)
				return nil
			}
			if err != nil {
				return fail("decoder", fmt.Errorf("read frame %d: %w", index, err))
			}

			select {
			case frames <- pipeline.RawFrame{Index: index, Data: buf}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// Writer: frames -> encoder stdin.
	g.Go(func() error {
		stdin := enc.Stdin()
		for frame := range frames {
			if _, err := stdin.Write(frame.Data); err != nil {
				stdin.Close()
				return fail("encoder", fmt.Errorf("write frame %d: %w", frame.Index, err))
			}
			written++
			bytesOut += int64(len(frame.Data))
			free <- frame.Data
			s.progress.Advance(1)
		}
		if err := stdin.Close(); err != nil {
			return fail("encoder", fmt.Errorf("close stdin: %w", err))
		}
		return nil
	})

	relayErr := g.Wait()
	decErr := dec.Wait()
	encErr := enc.Wait()

	result.Frames = written
	result.Bytes = bytesOut
	result.TrailingBytes = trailing
	result.Elapsed = time.Since(start)

	if ctx.Err() != nil {
		return result, fmt.Errorf("relay interrupted: %w", ctx.Err())
	}
	if cause != nil {
		// Stderr is complete only once the process has exited.
		proc := dec
		if causeRole == "encoder" {
			proc = enc
		}
		return result, &ports.ProcessError{Role: causeRole, Err: cause, Stderr: proc.Stderr()}
	}
	if relayErr != nil {
		return result, relayErr
	}
	if decErr != nil {
		return result, &ports.ProcessError{Role: "decoder", Err: decErr, Stderr: dec.Stderr()}
	}
	if encErr != nil {
		return result, &ports.ProcessError{Role: "encoder", Err: encErr, Stderr: enc.Stderr()}
	}

	s.logger.Debug("Relayed %d frames (%d bytes) in %s", result.Frames, result.Bytes, result.Elapsed.Round(time.Millisecond))
	return result, nil
}
