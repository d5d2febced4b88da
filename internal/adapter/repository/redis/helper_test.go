package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	"github.com/jfpDev/bankTransations/internal/domain"
)

func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// newSeededSnapshotStore returns a store whose documents and fetch-time index
// already hold seed.
func newSeededSnapshotStore(t *testing.T, seed ...*domain.Snapshot) (*SnapshotStore, *redislib.Client) {
	t.Helper()

	client, _ := newTestRedisClient(t)
	store := NewSnapshotStore(client)

	for _, snap := range seed {
		if err := store.Put(context.Background(), snap); err != nil {
			t.Fatalf("seed %s: %v", snap.Key, err)
		}
	}

	if n, err := client.ZCard(context.Background(), store.index).Result(); err != nil || n != int64(len(seed)) {
		t.Fatalf("expected %d indexed snapshots, got %d err=%v", len(seed), n, err)
	}

	return store, client
}
