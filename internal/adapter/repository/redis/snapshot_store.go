package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jfpDev/bankTransations/internal/adapter/http/dto"
	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

// maxWatchRetries bounds optimistic-lock retries when marking a snapshot stale.
const maxWatchRetries = 3

// SnapshotStore implements usecase.SnapshotStore using Redis. Each snapshot is
// a JSON string; a sorted set scored by fetch time indexes them for pruning
// and prefix invalidation.
type SnapshotStore struct {
	client *redis.Client
	prefix string
	index  string
}

var _ usecase.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		prefix: "snapshot:",
		index:  "snapshot-index",
	}
}

// Get retrieves the snapshot stored under key.
func (s *SnapshotStore) Get(ctx context.Context, key string) (*domain.Snapshot, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc dto.SnapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return doc.ToDomain(), nil
}

// Put stores snap and indexes it by fetch time.
func (s *SnapshotStore) Put(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(dto.SnapshotFromDomain(snap))
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.Key, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.prefix+snap.Key, data, 0)
		pipe.ZAdd(ctx, s.index, redis.Z{
			Score:  float64(snap.FetchedAt.UnixMilli()),
			Member: snap.Key,
		})
		return nil
	})
	return err
}

// MarkStale flags the snapshot under key. Missing keys are ignored.
func (s *SnapshotStore) MarkStale(ctx context.Context, key string) error {
	fullKey := s.prefix + key

	update := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, fullKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var doc dto.SnapshotDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode snapshot %s: %w", key, err)
		}
		if doc.Invalidated {
			return nil
		}
		doc.Invalidated = true

		out, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode snapshot %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, fullKey, out, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = s.client.Watch(ctx, update, fullKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// MarkStalePrefix flags every indexed snapshot whose key starts with prefix.
func (s *SnapshotStore) MarkStalePrefix(ctx context.Context, prefix string) error {
	keys, err := s.client.ZRange(ctx, s.index, 0, -1).Result()
	if err != nil {
		return err
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := s.MarkStale(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Prune deletes snapshots fetched before cutoff.
func (s *SnapshotStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	keys, err := s.client.ZRangeByScore(ctx, s.index, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	fullKeys := make([]string, len(keys))
	members := make([]any, len(keys))
	for i, key := range keys {
		fullKeys[i] = s.prefix + key
		members[i] = key
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, fullKeys...)
		pipe.ZRem(ctx, s.index, members...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
