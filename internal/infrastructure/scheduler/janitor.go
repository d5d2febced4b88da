// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule prunes once a minute.
const DefaultSchedule = "@every 1m"

// Pruner deletes cached data past its retention window.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// Janitor runs a Pruner on a cron schedule.
type Janitor struct {
	cron    *cron.Cron
	pruner  Pruner
	logger  zerolog.Logger
	timeout time.Duration
}

// NewJanitor creates a Janitor for spec, a cron expression or descriptor
// such as "@every 1m". Runs never overlap.
func NewJanitor(spec string, pruner Pruner, logger zerolog.Logger) (*Janitor, error) {
	if spec == "" {
		spec = DefaultSchedule
	}

	cl := cronLogger{logger: logger}
	j := &Janitor{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		pruner:  pruner,
		logger:  logger,
		timeout: 30 * time.Second,
	}

	if _, err := j.cron.AddFunc(spec, j.run); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	return j, nil
}

// Start begins running the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running prune to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce prunes immediately.
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	return j.pruner.Prune(ctx)
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.pruner.Prune(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("prune failed")
		return
	}
	if n > 0 {
		j.logger.Info().Int("count", n).Msg("pruned expired snapshots")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
