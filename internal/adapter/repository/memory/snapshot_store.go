// Package memory holds process-local stores. Nothing survives a restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

// SnapshotStore implements usecase.SnapshotStore with a map.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]*domain.Snapshot
}

var _ usecase.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snaps: make(map[string]*domain.Snapshot),
	}
}

// Get returns a copy of the snapshot stored under key.
func (s *SnapshotStore) Get(_ context.Context, key string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

// Put stores a copy of snap, replacing any previous snapshot for its key.
func (s *SnapshotStore) Put(_ context.Context, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps[snap.Key] = snap.Clone()
	return nil
}

// MarkStale flags the snapshot under key. Missing keys are ignored.
func (s *SnapshotStore) MarkStale(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.snaps[key]; ok {
		snap.Invalidated = true
	}
	return nil
}

// MarkStalePrefix flags every snapshot whose key starts with prefix.
func (s *SnapshotStore) MarkStalePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, snap := range s.snaps {
		if strings.HasPrefix(key, prefix) {
			snap.Invalidated = true
		}
	}
	return nil
}

// Prune deletes snapshots fetched before cutoff.
func (s *SnapshotStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, snap := range s.snaps {
		if snap.FetchedAt.Before(cutoff) {
			delete(s.snaps, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored snapshots.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}
