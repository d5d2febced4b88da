package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingPruner struct {
	calls atomic.Int32
	err   error
}

func (p *countingPruner) Prune(context.Context) (int, error) {
	p.calls.Add(1)
	return 2, p.err
}

func TestJanitorRunsOnSchedule(t *testing.T) {
	pruner := &countingPruner{}
	j, err := NewJanitor("@every 1s", pruner, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	j.Start()
	deadline := time.Now().Add(5 * time.Second)
	for pruner.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := j.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if pruner.calls.Load() == 0 {
		t.Fatalf("expected at least one scheduled prune")
	}
}

func TestJanitorRejectsBadSchedule(t *testing.T) {
	if _, err := NewJanitor("every so often", &countingPruner{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestJanitorRunOnce(t *testing.T) {
	pruner := &countingPruner{err: errors.New("store down")}
	j, err := NewJanitor("", pruner, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := j.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected prune error to propagate")
	}

	// a failing scheduled run only logs
	j.run()
	if pruner.calls.Load() != 2 {
		t.Fatalf("expected 2 prune calls, got %d", pruner.calls.Load())
	}
}
