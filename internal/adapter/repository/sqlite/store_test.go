package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfpDev/bankTransations/internal/domain"
	infrasqlite "github.com/jfpDev/bankTransations/internal/infrastructure/sqlite"
)

func newTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := infrasqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, infrasqlite.RunMigrations(db, zerolog.Nop()))
	return db
}

var fetched = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSnapshotStore_PutGetOverwrite(t *testing.T) {
	store := NewSnapshotStore(newTestDB(t, filepath.Join(t.TempDir(), "state.db")))
	ctx := context.Background()

	snap := &domain.Snapshot{
		Key: "transactions/list",
		Records: []domain.Transaction{{
			ID:               3,
			Amount:           2500,
			BusinessCategory: "Café",
			CounterpartyName: "María",
			TransactionDate:  time.Date(2024, 2, 2, 8, 30, 0, 0, time.UTC),
		}},
		FetchedAt:   fetched,
		Invalidated: true,
	}
	require.NoError(t, store.Put(ctx, snap))

	fresh := snap.Clone()
	fresh.Invalidated = false
	fresh.FetchedAt = fetched.Add(time.Minute)
	require.NoError(t, store.Put(ctx, fresh))

	got, err := store.Get(ctx, "transactions/list")
	require.NoError(t, err)
	assert.False(t, got.Invalidated)
	assert.True(t, got.FetchedAt.Equal(fresh.FetchedAt))
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Café", got.Records[0].BusinessCategory)
	assert.True(t, got.Records[0].TransactionDate.Equal(snap.Records[0].TransactionDate))
}

func TestSnapshotStore_GetMissing(t *testing.T) {
	store := NewSnapshotStore(newTestDB(t, ":memory:"))

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestSnapshotStore_MarkStalePrefixIsLiteral(t *testing.T) {
	store := NewSnapshotStore(newTestDB(t, ":memory:"))
	ctx := context.Background()

	keys := []string{
		"transactions/counterparty/ana_1",
		"transactions/counterparty/ana%",
		"transactions/detail/1",
		"transactions/list",
	}
	for _, key := range keys {
		require.NoError(t, store.Put(ctx, &domain.Snapshot{Key: key, FetchedAt: fetched}))
	}

	require.NoError(t, store.MarkStalePrefix(ctx, "transactions/counterparty/ana_"))
	require.NoError(t, store.MarkStale(ctx, "transactions/list"))

	want := map[string]bool{
		"transactions/counterparty/ana_1": true,
		"transactions/counterparty/ana%":  false,
		"transactions/detail/1":           false,
		"transactions/list":               true,
	}
	for key, invalidated := range want {
		snap, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, invalidated, snap.Invalidated, key)
	}
}

func TestSnapshotStore_Prune(t *testing.T) {
	store := NewSnapshotStore(newTestDB(t, ":memory:"))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &domain.Snapshot{Key: "old", FetchedAt: fetched.Add(-11 * time.Minute)}))
	require.NoError(t, store.Put(ctx, &domain.Snapshot{Key: "new", FetchedAt: fetched}))

	n, err := store.Prune(ctx, fetched.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(ctx, "old")
	assert.True(t, errors.Is(err, domain.ErrSnapshotNotFound))
	_, err = store.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestClientIDStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	db := newTestDB(t, path)
	store := NewClientIDStore(db, "clientId")

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, domain.ErrClientIDNotFound)
	require.NoError(t, store.Save(ctx, "client-01hx"))
	require.NoError(t, db.Close())

	reopened := NewClientIDStore(newTestDB(t, path), "clientId")
	id, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "client-01hx", id)

	other := NewClientIDStore(newTestDB(t, path), "otherKey")
	_, err = other.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrClientIDNotFound)
}
