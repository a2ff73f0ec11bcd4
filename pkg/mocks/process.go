package mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/user/squeeze/pkg/ports"
)

// ErrKilled is what Wait returns for a process stopped with Kill.
var ErrKilled = errors.New("mock process: killed")

// Behavior is the body of a fake process. It reads the process's stdin and
// writes its stdout through the Process accessors and returns the exit error.
type Behavior func(p *Process) error

// Process is an in-memory ports.Process backed by io.Pipe.
type Process struct {
	Spec ports.ProcessSpec

	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	mu     sync.Mutex
	stderr strings.Builder
	killed bool

	done     chan struct{}
	exitErr  error
	killOnce sync.Once
}

// NewProcess starts behavior in a goroutine and returns the fake process.
func NewProcess(spec ports.ProcessSpec, behavior Behavior) *Process {
	p := &Process{Spec: spec, done: make(chan struct{})}
	if spec.PipeStdin {
		p.stdinR, p.stdinW = io.Pipe()
	}
	if spec.PipeStdout {
		p.stdoutR, p.stdoutW = io.Pipe()
	}
	if behavior == nil {
		behavior = DrainStdin(nil)
	}

	go func() {
		err := behavior(p)
		if p.stdoutW != nil {
			p.stdoutW.Close()
		}
		if p.stdinR != nil {
			p.stdinR.Close()
		}
		p.mu.Lock()
		if p.killed {
			err = ErrKilled
		}
		p.exitErr = err
		p.mu.Unlock()
		close(p.done)
	}()
	return p
}

func (p *Process) Stdin() io.WriteCloser {
	if p.stdinW == nil {
		return nil
	}
	return p.stdinW
}

func (p *Process) Stdout() io.ReadCloser {
	if p.stdoutR == nil {
		return nil
	}
	return p.stdoutR
}

func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

func (p *Process) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	p.killOnce.Do(func() {
		p.mu.Lock()
		p.killed = true
		p.mu.Unlock()
		if p.stdinR != nil {
			p.stdinR.CloseWithError(ErrKilled)
		}
		if p.stdoutW != nil {
			p.stdoutW.CloseWithError(ErrKilled)
		}
	})
	return nil
}

func (p *Process) Stderr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stderr.String()
}

// Killed reports whether Kill stopped the process before it exited.
func (p *Process) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// Exited reports whether the behavior has returned.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// In returns the read side of stdin for use inside a Behavior, or nil.
func (p *Process) In() io.Reader {
	if p.stdinR == nil {
		return nil
	}
	return p.stdinR
}

// Out returns the write side of stdout for use inside a Behavior, or nil.
func (p *Process) Out() io.Writer {
	if p.stdoutW == nil {
		return nil
	}
	return p.stdoutW
}

// WriteStderr appends to the captured stderr.
func (p *Process) WriteStderr(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stderr.WriteString(s)
}

// --- Behaviors ---

// EmitBytes writes data to stdout and exits 0.
func EmitBytes(data []byte) Behavior {
	return func(p *Process) error {
		if _, err := p.Out().Write(data); err != nil {
			return err
		}
		return nil
	}
}

// DrainStdin copies stdin into sink (if not nil) until EOF and exits 0.
func DrainStdin(sink *SafeBuffer) Behavior {
	return func(p *Process) error {
		if p.In() == nil {
			return nil
		}
		w := io.Discard
		if sink != nil {
			w = sink
		}
		_, err := io.Copy(w, p.In())
		return err
	}
}

// Fail writes stderr text and exits with a non-zero status.
func Fail(stderr string) Behavior {
	return func(p *Process) error {
		p.WriteStderr(stderr)
		return fmt.Errorf("exit status 1")
	}
}

// Block waits until the process is killed.
func Block() Behavior {
	return func(p *Process) error {
		buf := make([]byte, 1)
		switch {
		case p.In() != nil:
			for {
				if _, err := p.In().Read(buf); err != nil {
					return err
				}
			}
		case p.Out() != nil:
			for {
				if _, err := p.Out().Write(buf); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// SafeBuffer is a bytes sink safe for concurrent use.
type SafeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Bytes returns a copy of everything written.
func (b *SafeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf...)
}

// ProcessLauncher is a mock implementation of ports.ProcessLauncher.
// The n-th Start runs Behaviors[n]; missing entries drain stdin and exit 0.
type ProcessLauncher struct {
	mu sync.Mutex

	StartFunc func(ctx context.Context, spec ports.ProcessSpec) (ports.Process, error)
	Behaviors []Behavior

	// Recorded calls for verification
	Started []*Process
}

func (m *ProcessLauncher) Start(ctx context.Context, spec ports.ProcessSpec) (ports.Process, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, spec)
	}

	m.mu.Lock()
	var behavior Behavior
	if n := len(m.Started); n < len(m.Behaviors) {
		behavior = m.Behaviors[n]
	}
	p := NewProcess(spec, behavior)
	m.Started = append(m.Started, p)
	m.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			p.Kill()
		case <-p.done:
		}
	}()
	return p, nil
}

// Processes returns the processes started so far.
func (m *ProcessLauncher) Processes() []*Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Process(nil), m.Started...)
}

var _ ports.ProcessLauncher = (*ProcessLauncher)(nil)
var _ ports.Process = (*Process)(nil)
