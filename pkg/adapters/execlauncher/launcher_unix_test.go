//go:build unix

package execlauncher

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/user/squeeze/pkg/ports"
)

// A wrapper script that forks leaves its child holding stdout. Killing
// only the script would keep the pipe open until the child exits.
func TestLauncher_KillReachesForkedChildren(t *testing.T) {
	sh := shPath(t)

	p, err := New().Start(context.Background(), ports.ProcessSpec{
		Path:       sh,
		Args:       []string{"-c", "sleep 30 & echo started; wait"},
		PipeStdout: true,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	line, err := bufio.NewReader(p.Stdout()).ReadString('\n')
	if err != nil || line != "started\n" {
		t.Fatalf("expected start marker, got %q (%v)", line, err)
	}

	if err := p.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		io.Copy(io.Discard, p.Stdout())
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stdout stayed open after Kill; forked child survived")
	}
}

func TestLauncher_CancelReachesForkedChildren(t *testing.T) {
	sh := shPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := New().Start(ctx, ports.ProcessSpec{
		Path:       sh,
		Args:       []string{"-c", "sleep 30 & echo started; wait"},
		PipeStdout: true,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	reader := bufio.NewReader(p.Stdout())
	if _, err := reader.ReadString('\n'); err != nil {
		t.Fatalf("read start marker: %v", err)
	}
	cancel()

	done := make(chan error, 1)
	go func() {
		io.Copy(io.Discard, reader)
		done <- p.Wait()
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected error after cancellation")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stdout stayed open after cancel; forked child survived")
	}
}
