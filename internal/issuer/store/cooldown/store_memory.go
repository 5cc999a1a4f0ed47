package cooldown

import (
	"context"
	"sync"

	"pdtoken/pkg/domain"
)

// InMemory implements Store with a mutex-guarded map. This is the default
// for single-instance deployments; use Redis when instances share state.
type InMemory struct {
	mu     sync.RWMutex
	expiry map[domain.Address]uint64
}

// NewInMemory creates an empty in-memory cooldown store.
func NewInMemory() *InMemory {
	return &InMemory{expiry: make(map[domain.Address]uint64)}
}

func (s *InMemory) Set(ctx context.Context, addr domain.Address, untilBlock uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry[addr] = untilBlock
	return nil
}

func (s *InMemory) Until(ctx context.Context, addr domain.Address) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.expiry[addr]
	return until, ok, nil
}

func (s *InMemory) Clear(ctx context.Context, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expiry, addr)
	return nil
}
