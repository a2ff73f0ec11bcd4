package mocks

import (
	"context"
	"sync"

	"github.com/user/squeeze/pkg/ports"
)

// Prober is a mock implementation of ports.Prober.
type Prober struct {
	mu sync.Mutex

	ProbeFunc func(ctx context.Context, path string) (ports.StreamDescriptor, error)

	// Descriptor is returned when ProbeFunc is nil.
	Descriptor ports.StreamDescriptor

	// Recorded calls for verification
	ProbeCalls []string
}

func (m *Prober) Probe(ctx context.Context, path string) (ports.StreamDescriptor, error) {
	m.mu.Lock()
	m.ProbeCalls = append(m.ProbeCalls, path)
	m.mu.Unlock()

	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return m.Descriptor, nil
}

var _ ports.Prober = (*Prober)(nil)
