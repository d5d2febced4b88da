package usecase

import "time"

const (
	// DefaultStaleTime is how long a snapshot is served without refetching.
	DefaultStaleTime = 5 * time.Minute

	// DefaultCacheTime is how long a snapshot is kept at all.
	DefaultCacheTime = 10 * time.Minute

	// ClientIDPrefix prefixes every generated client identifier.
	ClientIDPrefix = "client-"
)

// Cache lookup outcomes reported to the Recorder.
const (
	LookupHit         = "hit"
	LookupStale       = "stale"
	LookupMiss        = "miss"
	LookupInvalidated = "invalidated"
)

// Query kinds used as metric labels.
const (
	QueryList         = "list"
	QueryDetail       = "detail"
	QueryCounterparty = "counterparty"
)

// Refresh outcomes reported to the Recorder.
const (
	RefreshSucceeded = "succeeded"
	RefreshFailed    = "failed"
)

// Submission outcomes reported to the Recorder.
const (
	SubmitSucceeded = "succeeded"
	SubmitFailed    = "failed"
	SubmitInvalid   = "invalid"
)
