package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/infrastructure/config"
	"github.com/jfpDev/bankTransations/internal/testutil/fakeservice"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

func testConfig(baseURL, store, statePath string) *config.Config {
	return &config.Config{
		APIURL:               baseURL,
		HTTPTimeout:          2 * time.Second,
		ReadRetries:          1,
		RetryInitialInterval: time.Millisecond,
		StaleTime:            5 * time.Minute,
		CacheTime:            10 * time.Minute,
		PruneSchedule:        "@every 1m",
		Store:                store,
		StatePath:            statePath,
		ClientIDKey:          "clientId",
		Timezone:             "UTC",
	}
}

func TestApp_FormSubmitThroughSynchronizer(t *testing.T) {
	svc, baseURL := fakeservice.Start(t)
	a, err := New(context.Background(), testConfig(baseURL, config.StoreMemory, ""), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	first, err := a.Sync.List(ctx, usecase.Blocking)
	require.NoError(t, err)
	assert.Empty(t, first.Records)

	form := a.NewForm(usecase.CreateMode())
	require.NoError(t, form.OnFieldChange(domain.FieldAmount, "15000"))
	require.NoError(t, form.OnFieldChange(domain.FieldBusinessCategory, "Farmacia"))
	require.NoError(t, form.OnFieldChange(domain.FieldCounterpartyName, "Juan"))
	require.NoError(t, form.OnFieldChange(domain.FieldTransactionDate, "2024-01-01T10:00"))

	res, err := form.Submit(ctx)
	require.NoError(t, err)
	require.True(t, res.Submitted)

	after, err := a.Sync.List(ctx, usecase.Blocking)
	require.NoError(t, err)
	require.Len(t, after.Records, 1)
	assert.Equal(t, "Farmacia", after.Records[0].BusinessCategory)

	id, err := a.Identity.ClientID(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, usecase.ClientIDPrefix))
	for _, r := range svc.Requests() {
		assert.Equal(t, id, r.ClientID)
	}
}

func TestApp_SQLiteStateSurvivesRestart(t *testing.T) {
	_, baseURL := fakeservice.Start(t)
	cfg := testConfig(baseURL, config.StoreSQLite, filepath.Join(t.TempDir(), "txnctl.db"))
	ctx := context.Background()

	a, err := New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	firstID, err := a.Identity.ClientID(ctx)
	require.NoError(t, err)
	_, err = a.Sync.List(ctx, usecase.Blocking)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	secondID, err := b.Identity.ClientID(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	j, err := b.NewJanitor()
	require.NoError(t, err)
	n, err := j.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApp_RejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), testConfig("ftp://example.com", config.StoreMemory, ""), zerolog.Nop())
	assert.Error(t, err)
}
