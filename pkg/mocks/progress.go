package mocks

import (
	"sync"

	"github.com/user/squeeze/pkg/ports"
)

// ProgressReporter is a mock implementation of ports.ProgressReporter.
type ProgressReporter struct {
	mu       sync.Mutex
	Total    int64
	Advanced int
	Started  bool
	Finished bool
}

func (m *ProgressReporter) Start(total int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Started = true
	m.Total = total
}

func (m *ProgressReporter) Advance(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Advanced += n
}

func (m *ProgressReporter) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Finished = true
}

// Count returns the number of units advanced so far.
func (m *ProgressReporter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Advanced
}

var _ ports.ProgressReporter = (*ProgressReporter)(nil)
