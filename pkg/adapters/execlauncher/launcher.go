// Package execlauncher implements ports.ProcessLauncher with os/exec.
package execlauncher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/user/squeeze/pkg/ports"
)

// DefaultStderrLimit is how many trailing stderr bytes are kept per process.
const DefaultStderrLimit = 16 * 1024

// Launcher starts processes with exec.CommandContext.
type Launcher struct {
	StderrLimit int
	// Tee, when set, also receives every stderr byte (e.g. os.Stderr in debug mode).
	Tee io.Writer
}

// New creates a Launcher with DefaultStderrLimit.
func New() *Launcher {
	return &Launcher{StderrLimit: DefaultStderrLimit}
}

// Start launches spec.Path with spec.Args.
func (l *Launcher) Start(ctx context.Context, spec ports.ProcessSpec) (ports.Process, error) {
	if spec.Path == "" {
		return nil, errors.New("execlauncher: empty executable path")
	}

	limit := l.StderrLimit
	if limit <= 0 {
		limit = DefaultStderrLimit
	}

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	setProcessGroup(cmd)
	p := &process{
		cmd:    cmd,
		stderr: newTailBuffer(limit),
	}
	if l.Tee != nil {
		cmd.Stderr = io.MultiWriter(p.stderr, l.Tee)
	} else {
		cmd.Stderr = p.stderr
	}

	if spec.PipeStdin {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		p.stdin = stdin
	}
	if spec.PipeStdout {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		p.stdout = stdout
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Path, err)
	}
	return p, nil
}

type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *tailBuffer

	waitOnce sync.Once
	waitErr  error
	mu       sync.Mutex
	exited   bool
}

func (p *process) Stdin() io.WriteCloser { return p.stdin }

func (p *process) Stdout() io.ReadCloser { return p.stdout }

func (p *process) Stderr() string { return p.stderr.String() }

func (p *process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		p.mu.Lock()
		p.exited = true
		p.mu.Unlock()
	})
	return p.waitErr
}

func (p *process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited || p.cmd.Process == nil {
		return nil
	}
	err := killProcessGroup(p.cmd)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

var _ ports.ProcessLauncher = (*Launcher)(nil)
