package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// MockSnapshotStore is an in-memory SnapshotStore whose methods can be
// overridden per test.
type MockSnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]*domain.Snapshot

	GetFunc             func(ctx context.Context, key string) (*domain.Snapshot, error)
	PutFunc             func(ctx context.Context, snap *domain.Snapshot) error
	MarkStaleFunc       func(ctx context.Context, key string) error
	MarkStalePrefixFunc func(ctx context.Context, prefix string) error
	PruneFunc           func(ctx context.Context, cutoff time.Time) (int, error)
}

func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{
		snaps: make(map[string]*domain.Snapshot),
	}
}

func (m *MockSnapshotStore) Get(ctx context.Context, key string) (*domain.Snapshot, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if snap, ok := m.snaps[key]; ok {
		return snap.Clone(), nil
	}
	return nil, domain.ErrSnapshotNotFound
}

func (m *MockSnapshotStore) Put(ctx context.Context, snap *domain.Snapshot) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, snap)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Key] = snap.Clone()
	return nil
}

func (m *MockSnapshotStore) MarkStale(ctx context.Context, key string) error {
	if m.MarkStaleFunc != nil {
		return m.MarkStaleFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap, ok := m.snaps[key]; ok {
		snap.Invalidated = true
	}
	return nil
}

func (m *MockSnapshotStore) MarkStalePrefix(ctx context.Context, prefix string) error {
	if m.MarkStalePrefixFunc != nil {
		return m.MarkStalePrefixFunc(ctx, prefix)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, snap := range m.snaps {
		if strings.HasPrefix(key, prefix) {
			snap.Invalidated = true
		}
	}
	return nil
}

func (m *MockSnapshotStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if m.PruneFunc != nil {
		return m.PruneFunc(ctx, cutoff)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, snap := range m.snaps {
		if snap.FetchedAt.Before(cutoff) {
			delete(m.snaps, key)
			n++
		}
	}
	return n, nil
}

// Snapshot returns the stored snapshot for key without going through Get.
func (m *MockSnapshotStore) Snapshot(key string) (*domain.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[key]
	return snap.Clone(), ok
}

// MockRecorder counts Recorder calls.
type MockRecorder struct {
	mu            sync.Mutex
	Lookups       map[string]int // "query/outcome"
	Invalidations map[string]int
	Refreshes     map[string]int
	Pruned        int
	Submissions   map[string]int // "mode/outcome"
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{
		Lookups:       make(map[string]int),
		Invalidations: make(map[string]int),
		Refreshes:     make(map[string]int),
		Submissions:   make(map[string]int),
	}
}

func (m *MockRecorder) CacheLookup(query, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups[query+"/"+outcome]++
}

func (m *MockRecorder) CacheInvalidated(query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidations[query]++
}

func (m *MockRecorder) BackgroundRefresh(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshes[outcome]++
}

func (m *MockRecorder) SnapshotsPruned(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pruned += n
}

func (m *MockRecorder) FormSubmitted(mode, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submissions[mode+"/"+outcome]++
}

// Count returns one counter under the lock.
func (m *MockRecorder) Count(counter map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return counter[key]
}
