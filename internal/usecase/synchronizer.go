package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// Snapshot keys, one per logical query.
const (
	ListKey            = "transactions/list"
	DetailPrefix       = "transactions/detail/"
	CounterpartyPrefix = "transactions/counterparty/"
)

// DetailKey is the snapshot key of a single-record query.
func DetailKey(id int64) string {
	return DetailPrefix + strconv.FormatInt(id, 10)
}

// CounterpartyKey is the snapshot key of a by-counterparty query.
func CounterpartyKey(name string) string {
	return CounterpartyPrefix + name
}

func queryKind(key string) string {
	switch {
	case strings.HasPrefix(key, DetailPrefix):
		return QueryDetail
	case strings.HasPrefix(key, CounterpartyPrefix):
		return QueryCounterparty
	}
	return QueryList
}

// Urgency tells a read what to do with an expired snapshot.
type Urgency int

const (
	// Blocking waits for a refetch before returning.
	Blocking Urgency = iota
	// Background returns the expired snapshot and refetches behind it.
	Background
)

// ReadResult is what a synchronized read returns.
type ReadResult struct {
	Records   []domain.Transaction
	FetchedAt time.Time
	// Stale is set when an expired snapshot was served while a refresh runs.
	Stale bool
}

// Record returns the single record of a detail read.
func (r ReadResult) Record() (domain.Transaction, bool) {
	if len(r.Records) == 0 {
		return domain.Transaction{}, false
	}
	return r.Records[0], true
}

// RefreshErrorHandler is told about background refreshes that failed.
type RefreshErrorHandler func(key string, err error)

// SynchronizerOption configures a Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithStaleTime sets how long a snapshot is served without refetching.
func WithStaleTime(d time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		if d > 0 {
			s.staleTime = d
		}
	}
}

// WithCacheTime sets how long a snapshot is kept before Prune removes it.
func WithCacheTime(d time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		if d > 0 {
			s.cacheTime = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SynchronizerOption {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) SynchronizerOption {
	return func(s *Synchronizer) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRefreshErrorHandler registers a callback for failed background refreshes.
func WithRefreshErrorHandler(h RefreshErrorHandler) SynchronizerOption {
	return func(s *Synchronizer) {
		s.onRefreshError = h
	}
}

// Synchronizer keeps cached query snapshots consistent with the remote
// service. Reads follow a stale-while-revalidate policy; every accepted
// mutation marks the affected snapshots stale so the next read refetches.
type Synchronizer struct {
	gateway  Gateway
	store    SnapshotStore
	logger   zerolog.Logger
	recorder Recorder

	staleTime      time.Duration
	cacheTime      time.Duration
	now            func() time.Time
	onRefreshError RefreshErrorHandler

	group singleflight.Group
	// epoch advances on every invalidation; fetches started in an older epoch
	// neither share flights with newer reads nor store trusted snapshots.
	epoch atomic.Uint64
	marks invalidations
	wg    sync.WaitGroup
}

// invalidations remembers, per key and per prefix, the epoch of the last
// invalidation seen by this process, and the epoch in which each key was last
// stored. A snapshot stored before its key was invalidated is not trusted even
// when the store could not record the flag.
type invalidations struct {
	mu       sync.Mutex
	keys     map[string]uint64
	prefixes map[string]uint64
	stored   map[string]uint64
}

func (m *invalidations) mark(epoch uint64, keys []string, prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys == nil {
		m.keys = make(map[string]uint64)
		m.prefixes = make(map[string]uint64)
	}
	for _, key := range keys {
		m.keys[key] = epoch
	}
	if prefix != "" {
		m.prefixes[prefix] = epoch
	}
}

func (m *invalidations) storedIn(key string, epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stored == nil {
		m.stored = make(map[string]uint64)
	}
	if epoch > m.stored[key] {
		m.stored[key] = epoch
	}
}

// lastFor returns the epoch of the latest invalidation covering key, or 0.
func (m *invalidations) lastFor(key string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	last := m.keys[key]
	for prefix, epoch := range m.prefixes {
		if epoch > last && strings.HasPrefix(key, prefix) {
			last = epoch
		}
	}
	return last
}

// trusted reports whether the stored snapshot of key postdates every
// invalidation covering it.
func (m *invalidations) trusted(key string) bool {
	last := m.lastFor(key)
	if last == 0 {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored[key] >= last
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(gateway Gateway, store SnapshotStore, logger zerolog.Logger, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		gateway:   gateway,
		store:     store,
		logger:    logger,
		recorder:  nopRecorder{},
		staleTime: DefaultStaleTime,
		cacheTime: DefaultCacheTime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List reads the full transaction list.
func (s *Synchronizer) List(ctx context.Context, urgency Urgency) (ReadResult, error) {
	return s.read(ctx, ListKey, urgency, s.gateway.ListTransactions)
}

// Get reads a single transaction.
func (s *Synchronizer) Get(ctx context.Context, id int64, urgency Urgency) (ReadResult, error) {
	return s.read(ctx, DetailKey(id), urgency, func(ctx context.Context) ([]domain.Transaction, error) {
		t, err := s.gateway.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		return []domain.Transaction{t}, nil
	})
}

// ByCounterparty reads the transactions of one counterparty.
func (s *Synchronizer) ByCounterparty(ctx context.Context, name string, urgency Urgency) (ReadResult, error) {
	return s.read(ctx, CounterpartyKey(name), urgency, func(ctx context.Context) ([]domain.Transaction, error) {
		return s.gateway.ListByCounterparty(ctx, name)
	})
}

// CreateTransaction creates t remotely and invalidates the list and every
// counterparty query.
func (s *Synchronizer) CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	created, err := s.gateway.CreateTransaction(ctx, t)
	if err != nil {
		if domain.WasAccepted(err) {
			s.invalidate(ctx, "create", []string{ListKey}, CounterpartyPrefix)
		}
		return domain.Transaction{}, err
	}

	s.invalidate(ctx, "create", []string{ListKey}, CounterpartyPrefix)
	return created, nil
}

// UpdateTransaction updates id remotely and invalidates the list, its detail
// query and every counterparty query.
func (s *Synchronizer) UpdateTransaction(ctx context.Context, id int64, t domain.Transaction) (domain.Transaction, error) {
	updated, err := s.gateway.UpdateTransaction(ctx, id, t)
	if err != nil {
		if domain.WasAccepted(err) {
			s.invalidate(ctx, "update", []string{ListKey, DetailKey(id)}, CounterpartyPrefix)
		}
		return domain.Transaction{}, err
	}

	s.invalidate(ctx, "update", []string{ListKey, DetailKey(id)}, CounterpartyPrefix)
	return updated, nil
}

// DeleteTransaction deletes id remotely and invalidates the list, its detail
// query and every counterparty query.
func (s *Synchronizer) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.gateway.DeleteTransaction(ctx, id); err != nil {
		if domain.WasAccepted(err) {
			s.invalidate(ctx, "delete", []string{ListKey, DetailKey(id)}, CounterpartyPrefix)
		}
		return err
	}

	s.invalidate(ctx, "delete", []string{ListKey, DetailKey(id)}, CounterpartyPrefix)
	return nil
}

// Invalidate marks the given snapshots stale without a mutation.
func (s *Synchronizer) Invalidate(ctx context.Context, keys ...string) {
	s.invalidate(ctx, "manual", keys, "")
}

// Prune deletes snapshots older than the cache time.
func (s *Synchronizer) Prune(ctx context.Context) (int, error) {
	n, err := s.store.Prune(ctx, s.now().Add(-s.cacheTime))
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	if n > 0 {
		s.recorder.SnapshotsPruned(n)
		s.logger.Debug().Int("count", n).Msg("pruned snapshots")
	}
	return n, nil
}

// Wait blocks until all background refreshes have finished.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

type fetchFunc func(ctx context.Context) ([]domain.Transaction, error)

func (s *Synchronizer) read(ctx context.Context, key string, urgency Urgency, fetch fetchFunc) (ReadResult, error) {
	kind := queryKind(key)

	snap, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("snapshot store read failed, refetching")
		}
		snap = nil
	}

	outcome := LookupMiss
	if snap != nil {
		switch {
		case snap.Invalidated || !s.marks.trusted(key):
			outcome = LookupInvalidated
		case snap.Age(s.now()) < s.staleTime:
			s.recorder.CacheLookup(kind, LookupHit)
			s.logger.Debug().Str("key", key).Msg("cache hit")
			return ReadResult{Records: snap.Records, FetchedAt: snap.FetchedAt}, nil
		case urgency == Background:
			s.recorder.CacheLookup(kind, LookupStale)
			s.logger.Debug().Str("key", key).Msg("serving stale snapshot, refreshing in background")
			s.refreshInBackground(ctx, key, fetch)
			return ReadResult{Records: snap.Records, FetchedAt: snap.FetchedAt, Stale: true}, nil
		default:
			outcome = LookupStale
		}
	}

	s.recorder.CacheLookup(kind, outcome)
	s.logger.Debug().Str("key", key).Str("outcome", outcome).Msg("cache refetch")

	fresh, err := s.fetch(ctx, key, fetch)
	if err != nil {
		return ReadResult{}, err
	}

	return ReadResult{Records: fresh.Records, FetchedAt: fresh.FetchedAt}, nil
}

func (s *Synchronizer) fetch(ctx context.Context, key string, fetch fetchFunc) (*domain.Snapshot, error) {
	epoch := s.epoch.Load()
	flight := key + "@" + strconv.FormatUint(epoch, 10)

	// the flight outlives any single caller; each caller only stops waiting
	flightCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	ch := s.group.DoChan(flight, func() (any, error) {
		records, err := fetch(flightCtx)
		if err != nil {
			return nil, err
		}

		snap := &domain.Snapshot{
			Key:       key,
			Records:   records,
			FetchedAt: s.now(),
			// an invalidation raced this fetch; keep the data but do not trust it
			Invalidated: s.marks.lastFor(key) > epoch,
		}

		if err := s.store.Put(flightCtx, snap); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to store snapshot")
			return snap, nil
		}
		s.marks.storedIn(key, epoch)

		// an invalidation that landed during Put may have flagged the row this
		// Put just replaced
		if !snap.Invalidated && s.marks.lastFor(key) > epoch {
			snap.Invalidated = true
			if err := s.store.MarkStale(flightCtx, key); err != nil {
				s.logger.Error().Err(err).Str("key", key).Msg("failed to invalidate snapshot")
			}
		}

		return snap, nil
	})

	select {
	case res := <-ch:
		s.wg.Done()
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Snapshot).Clone(), nil
	case <-ctx.Done():
		go func() {
			<-ch
			s.wg.Done()
		}()
		return nil, ctx.Err()
	}
}

func (s *Synchronizer) refreshInBackground(ctx context.Context, key string, fetch fetchFunc) {
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if _, err := s.fetch(ctx, key, fetch); err != nil {
			s.recorder.BackgroundRefresh(RefreshFailed)
			s.logger.Warn().Err(err).Str("key", key).Msg("background refresh failed")
			if s.onRefreshError != nil {
				s.onRefreshError(key, err)
			}
			return
		}

		s.recorder.BackgroundRefresh(RefreshSucceeded)
	}()
}

func (s *Synchronizer) invalidate(ctx context.Context, op string, keys []string, prefix string) {
	s.marks.mark(s.epoch.Add(1), keys, prefix)
	ctx = context.WithoutCancel(ctx)

	for _, key := range keys {
		if err := s.store.MarkStale(ctx, key); err != nil {
			s.logger.Error().Err(err).Str("op", op).Str("key", key).Msg("failed to invalidate snapshot")
			continue
		}
		s.recorder.CacheInvalidated(queryKind(key))
	}

	if prefix != "" {
		if err := s.store.MarkStalePrefix(ctx, prefix); err != nil {
			s.logger.Error().Err(err).Str("op", op).Str("prefix", prefix).Msg("failed to invalidate snapshots")
		} else {
			s.recorder.CacheInvalidated(queryKind(prefix))
		}
	}

	s.logger.Debug().Str("op", op).Strs("keys", keys).Str("prefix", prefix).Msg("snapshots invalidated")
}
