package approvals

import (
	"context"
	"maps"
	"sync"

	"ceassist/internal/models"
)

// MemoryStore keeps approvals in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	approvals map[string]models.Approval
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{approvals: make(map[string]models.Approval)}
}

func (s *MemoryStore) Get(_ context.Context, threadID string) (models.Approval, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.approvals[threadID]
	return a, ok, nil
}

func (s *MemoryStore) Upsert(_ context.Context, threadID string, approval models.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[threadID] = approval
	return nil
}

func (s *MemoryStore) All(_ context.Context) (map[string]models.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.approvals), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
