package genstore

import (
	"context"
	"sync"
)

// Local keeps generations in-process. Generations restart at zero with the
// process, which makes every envelope left in a shared provider stale.
type Local struct {
	mu   sync.RWMutex
	gens map[string]uint64
}

var _ GenStore = (*Local)(nil)

func NewLocal() *Local {
	return &Local{gens: make(map[string]uint64)}
}

func (s *Local) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	g := s.gens[k]
	s.mu.RUnlock()
	return g, nil
}

func (s *Local) Bump(_ context.Context, k string) (uint64, error) {
	s.mu.Lock()
	s.gens[k]++
	g := s.gens[k]
	s.mu.Unlock()
	return g, nil
}

func (s *Local) Close(context.Context) error { return nil }
