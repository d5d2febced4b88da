// Package app wires configuration, stores, the gateway and the use cases
// into one object for the command-line client.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfpDev/bankTransations/internal/adapter/http/gateway"
	memoryRepo "github.com/jfpDev/bankTransations/internal/adapter/repository/memory"
	redisRepo "github.com/jfpDev/bankTransations/internal/adapter/repository/redis"
	sqliteRepo "github.com/jfpDev/bankTransations/internal/adapter/repository/sqlite"
	"github.com/jfpDev/bankTransations/internal/infrastructure/config"
	"github.com/jfpDev/bankTransations/internal/infrastructure/idgen"
	"github.com/jfpDev/bankTransations/internal/infrastructure/metrics"
	"github.com/jfpDev/bankTransations/internal/infrastructure/redis"
	"github.com/jfpDev/bankTransations/internal/infrastructure/scheduler"
	"github.com/jfpDev/bankTransations/internal/infrastructure/sqlite"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

var (
	_ usecase.Recorder = (*metrics.Metrics)(nil)
	_ gateway.Observer = (*metrics.Metrics)(nil)
)

// Option configures New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
	clock      func() time.Time
}

// WithHTTPClient replaces the gateway's HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithMetrics shares an existing metrics bundle.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock replaces time.Now for the synchronizer and forms.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// App holds the wired components. Close releases the stores.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Location *time.Location
	Metrics  *metrics.Metrics
	Identity *usecase.ClientIdentity
	Gateway  *gateway.Client
	Sync     *usecase.Synchronizer

	clock   func() time.Time
	closers []func() error
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New(nil)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Metrics:  o.metrics,
		clock:    o.clock,
	}

	snapshots, clientIDs, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Identity = usecase.NewClientIdentity(clientIDs, idgen.NewULIDGenerator(), logger.With().Str("component", "identity").Logger())

	gwOpts := []gateway.Option{gateway.WithObserver(a.Metrics)}
	if o.httpClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(o.httpClient))
	}
	a.Gateway, err = gateway.NewClient(gateway.Config{
		BaseURL:              cfg.APIURL,
		Timeout:              cfg.HTTPTimeout,
		ReadRetries:          cfg.ReadRetries,
		RetryInitialInterval: cfg.RetryInitialInterval,
	}, a.Identity, logger.With().Str("component", "gateway").Logger(), gwOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	syncLogger := logger.With().Str("component", "sync").Logger()
	a.Sync = usecase.NewSynchronizer(a.Gateway, snapshots, syncLogger,
		usecase.WithStaleTime(cfg.StaleTime),
		usecase.WithCacheTime(cfg.CacheTime),
		usecase.WithClock(o.clock),
		usecase.WithRecorder(a.Metrics),
		usecase.WithRefreshErrorHandler(func(key string, err error) {
			syncLogger.Warn().Str("key", key).Err(err).Msg("showing cached data; refresh failed")
		}),
	)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (usecase.SnapshotStore, usecase.ClientIDStore, error) {
	cfg := a.Config

	switch cfg.Store {
	case config.StoreMemory:
		return memoryRepo.NewSnapshotStore(), memoryRepo.NewClientIDStore(), nil

	case config.StoreRedis:
		client, err := redis.Open(ctx, cfg.RedisURL, a.Logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client.Close)
		return redisRepo.NewSnapshotStore(client), redisRepo.NewClientIDStore(client, cfg.ClientIDKey), nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.StatePath)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := sqlite.RunMigrations(db, a.Logger); err != nil {
			return nil, nil, err
		}
		return sqliteRepo.NewSnapshotStore(db), sqliteRepo.NewClientIDStore(db, cfg.ClientIDKey), nil
	}

	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// NewForm returns a form controller that submits through the synchronizer.
func (a *App) NewForm(mode usecase.Mode) *usecase.FormController {
	return usecase.NewFormController(a.Sync, mode, a.Logger.With().Str("component", "form").Logger(),
		usecase.WithFormClock(a.clock),
		usecase.WithLocation(a.Location),
		usecase.WithFormRecorder(a.Metrics),
	)
}

// NewJanitor returns a prune janitor on the configured schedule.
func (a *App) NewJanitor() (*scheduler.Janitor, error) {
	return scheduler.NewJanitor(a.Config.PruneSchedule, a.Sync, a.Logger.With().Str("component", "janitor").Logger())
}

// Now returns the current time from the configured clock.
func (a *App) Now() time.Time {
	return a.clock()
}

// Close waits for background refreshes and releases the stores.
func (a *App) Close() error {
	if a.Sync != nil {
		a.Sync.Wait()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
