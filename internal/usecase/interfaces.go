package usecase

import (
	"context"
	"time"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// Gateway is the remote transaction service. Every error it returns is a
// *domain.Failure.
type Gateway interface {
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (domain.Transaction, error)
	ListByCounterparty(ctx context.Context, name string) ([]domain.Transaction, error)
	CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, t domain.Transaction) (domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// SnapshotStore persists cached read results.
type SnapshotStore interface {
	// Get returns domain.ErrSnapshotNotFound when nothing is cached under key.
	Get(ctx context.Context, key string) (*domain.Snapshot, error)
	Put(ctx context.Context, snap *domain.Snapshot) error
	MarkStale(ctx context.Context, key string) error
	MarkStalePrefix(ctx context.Context, prefix string) error
	// Prune deletes snapshots fetched before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// ClientIDStore persists the client identifier across runs.
type ClientIDStore interface {
	// Load returns domain.ErrClientIDNotFound when no identifier was saved yet.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, id string) error
}

// ClientIDSource supplies the identifier sent with every remote call.
type ClientIDSource interface {
	ClientID(ctx context.Context) (string, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Submitter performs the remote write behind a form submission.
type Submitter interface {
	CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, t domain.Transaction) (domain.Transaction, error)
}

// Recorder receives operational counters. Implementations must be safe for
// concurrent use.
type Recorder interface {
	CacheLookup(query, outcome string)
	CacheInvalidated(query string)
	BackgroundRefresh(outcome string)
	SnapshotsPruned(n int)
	FormSubmitted(mode, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, string) {}

func (nopRecorder) CacheInvalidated(string) {}

func (nopRecorder) BackgroundRefresh(string) {}

func (nopRecorder) SnapshotsPruned(int) {}

func (nopRecorder) FormSubmitted(string, string) {}
