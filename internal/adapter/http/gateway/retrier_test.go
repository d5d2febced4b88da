package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfpDev/bankTransations/internal/domain"
)

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := NewRetrier(2, time.Millisecond, zerolog.Nop())
	r.maxInterval = 2 * time.Millisecond

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return domain.NewServiceFailure(503, "down", nil)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsAfterMaxRetries(t *testing.T) {
	r := NewRetrier(1, time.Millisecond, zerolog.Nop())

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return domain.NewTransportFailure(errors.New("reset"))
	})

	if !errors.Is(err, domain.ErrTransportFailure) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := NewRetrier(3, time.Millisecond, zerolog.Nop())
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return domain.NewServiceFailure(429, "Too many requests", nil)
	})

	if !errors.Is(err, domain.ErrServiceFailure) {
		t.Fatalf("expected service failure, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", domain.NewTransportFailure(errors.New("eof")), true},
		{"server error", domain.NewServiceFailure(500, "", nil), true},
		{"rate limited", domain.NewServiceFailure(429, "", nil), false},
		{"not found", domain.NewServiceFailure(404, "", nil), false},
		{"local", domain.NewLocalFailure(errors.New("bad")), false},
		{"plain error", errors.New("other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
