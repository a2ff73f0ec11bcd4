// Package nullprogress provides a no-op progress reporter.
package nullprogress

import "github.com/user/squeeze/pkg/ports"

// Reporter is a no-op implementation of ports.ProgressReporter.
type Reporter struct{}

// New creates a new null reporter.
func New() *Reporter {
	return &Reporter{}
}

// Start does nothing.
func (r *Reporter) Start(total int64) {}

// Advance does nothing.
func (r *Reporter) Advance(n int) {}

// Finish does nothing.
func (r *Reporter) Finish() {}

// Ensure Reporter implements ports.ProgressReporter
var _ ports.ProgressReporter = (*Reporter)(nil)
