package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"artshow/pkg/platform/sentinel"
)

// InMemoryStore keeps batches in a map for tests and dev mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	batches map[uuid.UUID]BatchScan
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{batches: make(map[uuid.UUID]BatchScan)}
}

func (s *InMemoryStore) Create(_ context.Context, scan *BatchScan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[scan.ID]; ok {
		return fmt.Errorf("batch %s: %w", scan.ID, sentinel.ErrConflict)
	}
	s.batches[scan.ID] = *scan
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*BatchScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scan, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", id, sentinel.ErrNotFound)
	}
	return &scan, nil
}

func (s *InMemoryStore) Update(_ context.Context, scan *BatchScan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[scan.ID]; !ok {
		return fmt.Errorf("batch %s: %w", scan.ID, sentinel.ErrNotFound)
	}
	s.batches[scan.ID] = *scan
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*BatchScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*BatchScan, 0, len(s.batches))
	for id := range s.batches {
		scan := s.batches[id]
		out = append(out, &scan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
