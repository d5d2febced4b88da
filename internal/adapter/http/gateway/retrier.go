package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// DefaultRetryInitialInterval is the first backoff step when none is configured.
const DefaultRetryInitialInterval = 200 * time.Millisecond

// Retrier retries read calls with exponential backoff on transport failures
// and 5xx responses.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetrier creates a Retrier allowing maxRetries attempts after the first.
func NewRetrier(maxRetries int, initialInterval time.Duration, logger zerolog.Logger) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initialInterval <= 0 {
		initialInterval = DefaultRetryInitialInterval
	}
	return &Retrier{
		maxRetries:      maxRetries,
		initialInterval: initialInterval,
		maxInterval:     2 * time.Second,
		maxElapsedTime:  30 * time.Second,
		logger:          logger,
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Int("retry", retryCount).
			Msg("retryable gateway error, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

// isRetryableError reports whether a failed read may succeed when repeated.
// Rate limiting (429) and other client errors are never retried.
func isRetryableError(err error) bool {
	var f *domain.Failure
	if !errors.As(err, &f) {
		return false
	}
	switch f.Kind {
	case domain.FailureTransport:
		return true
	case domain.FailureService:
		return f.HTTPStatus >= http.StatusInternalServerError
	}
	return false
}
