package ports

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// ProcessSpec describes an external process to start.
type ProcessSpec struct {
	Path       string   // executable path
	Args       []string // arguments, excluding the executable
	PipeStdin  bool     // expose Stdin() for writing
	PipeStdout bool     // expose Stdout() for reading
}

// Process is a running external process.
type Process interface {
	// Stdin returns the write end of the process's standard input,
	// or nil if ProcessSpec did not request it.
	Stdin() io.WriteCloser

	// Stdout returns the read end of the process's standard output,
	// or nil if ProcessSpec did not request it.
	Stdout() io.ReadCloser

	// Wait blocks until the process exits. It may be called more than
	// once; later calls return the first result.
	Wait() error

	// Kill terminates the process. Safe to call after exit.
	Kill() error

	// Stderr returns the captured tail of the process's standard error.
	Stderr() string
}

// ProcessLauncher starts external processes.
type ProcessLauncher interface {
	Start(ctx context.Context, spec ProcessSpec) (Process, error)
}

// ProcessError reports a failed external process together with the tail
// of its standard error.
type ProcessError struct {
	Role   string // "decoder", "encoder", "ffmpeg", "ffprobe"
	Err    error
	Stderr string
}

func (e *ProcessError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%s: %v", e.Role, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Role, e.Err, stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
