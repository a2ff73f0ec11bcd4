// Package barprogress renders relay progress as a terminal progress bar.
package barprogress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/user/squeeze/pkg/adapters/nullprogress"
	"github.com/user/squeeze/pkg/ports"
)

// Reporter is a ports.ProgressReporter backed by progressbar.
// Start may be called again to begin a new bar.
type Reporter struct {
	// Throttle is the minimum interval between redraws.
	Throttle time.Duration

	mu          sync.Mutex
	w           io.Writer
	description string
	bar         *progressbar.ProgressBar
}

// New creates a Reporter writing to w.
func New(w io.Writer, description string) *Reporter {
	return &Reporter{w: w, description: description, Throttle: 100 * time.Millisecond}
}

// NewForTerminal returns a bar on f when f is a terminal, otherwise a
// reporter that prints nothing.
func NewForTerminal(f *os.File, description string) ports.ProgressReporter {
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return nullprogress.New()
	}
	return New(f, description)
}

// Start begins a bar over total frames. A total of 0 or less shows a
// spinner because the frame count of a raw stream is not always known.
func (r *Reporter) Start(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if total <= 0 {
		total = -1
	}
	r.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(r.description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(r.Throttle),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Advance adds n frames.
func (r *Reporter) Advance(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Add(n)
	}
}

// Finish completes the bar and ends the line.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	_, _ = io.WriteString(r.w, "\n")
	r.bar = nil
}

var _ ports.ProgressReporter = (*Reporter)(nil)
