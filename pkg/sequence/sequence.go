// Package sequence issues monotonically increasing request numbers per page
// view, so that responses to superseded requests can be recognised.
package sequence

import (
	"context"
	"sync"
)

// Source issues and reports sequence numbers for a view.
type Source interface {
	// Next issues a number greater than every number issued for view before.
	Next(ctx context.Context, view string) (uint64, error)
	// Latest returns the last number issued for view, or 0.
	Latest(ctx context.Context, view string) (uint64, error)
	// Forget drops the state kept for view.
	Forget(ctx context.Context, view string) error
}

var (
	_ Source = (*Memory)(nil)
	_ Source = (*Redis)(nil)
)

// Memory keeps sequence numbers in process.
type Memory struct {
	mu   sync.Mutex
	seqs map[string]uint64
}

func NewMemory() *Memory {
	return &Memory{seqs: make(map[string]uint64)}
}

func (m *Memory) Next(_ context.Context, view string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[view]++
	return m.seqs[view], nil
}

func (m *Memory) Latest(_ context.Context, view string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seqs[view], nil
}

func (m *Memory) Forget(_ context.Context, view string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seqs, view)
	return nil
}
