// Package sqlite persists snapshots and the client identifier in the local
// state database so they survive between runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jfpDev/bankTransations/internal/adapter/http/dto"
	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

// SnapshotStore implements usecase.SnapshotStore on the snapshots table.
type SnapshotStore struct {
	db *sql.DB
}

var _ usecase.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a new SnapshotStore. The schema must already be migrated.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Get(ctx context.Context, key string) (*domain.Snapshot, error) {
	var (
		records     []byte
		fetchedAt   int64
		invalidated bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT records, fetched_at, invalidated FROM snapshots WHERE key = ?`, key,
	).Scan(&records, &fetchedAt, &invalidated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}

	decoded, err := dto.DecodeRecords(records)
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}

	return &domain.Snapshot{
		Key:         key,
		Records:     decoded,
		FetchedAt:   time.Unix(0, fetchedAt).UTC(),
		Invalidated: invalidated,
	}, nil
}

func (s *SnapshotStore) Put(ctx context.Context, snap *domain.Snapshot) error {
	records, err := dto.EncodeRecords(snap.Records)
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", snap.Key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, records, fetched_at, invalidated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			records = excluded.records,
			fetched_at = excluded.fetched_at,
			invalidated = excluded.invalidated`,
		snap.Key, string(records), snap.FetchedAt.UnixNano(), snap.Invalidated,
	)
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", snap.Key, err)
	}
	return nil
}

func (s *SnapshotStore) MarkStale(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE snapshots SET invalidated = 1 WHERE key = ?`, key); err != nil {
		return fmt.Errorf("mark stale %s: %w", key, err)
	}
	return nil
}

// MarkStalePrefix compares with substr rather than LIKE so that "_" and "%"
// in counterparty names are matched literally.
func (s *SnapshotStore) MarkStalePrefix(ctx context.Context, prefix string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE snapshots SET invalidated = 1 WHERE substr(key, 1, length(?)) = ?`, prefix, prefix); err != nil {
		return fmt.Errorf("mark stale prefix %s: %w", prefix, err)
	}
	return nil
}

func (s *SnapshotStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE fetched_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return int(n), nil
}
