package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Janitor periodically clears idle windows so stale history is not kept
// around until the next inbound message for that pair.
type Janitor struct {
	logger   *slog.Logger
	sweeper  sweeper
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
}

func NewJanitor(log *slog.Logger, svc sweeper, schedule string) *Janitor {
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{
		logger:   log.With(slog.String("component", "memory_janitor")),
		sweeper:  svc,
		schedule: strings.TrimSpace(schedule),
		timeout:  time.Minute,
	}
}

// Start registers the sweep job. An empty schedule disables the janitor.
func (j *Janitor) Start() error {
	if j.schedule == "" || j.sweeper == nil {
		j.logger.Info("memory janitor disabled")
		return nil
	}
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	if _, err := c.AddFunc(j.schedule, j.RunOnce); err != nil {
		return fmt.Errorf("schedule memory sweep %q: %w", j.schedule, err)
	}
	j.cron = c
	c.Start()
	j.logger.Info("memory janitor started", slog.String("schedule", j.schedule))
	return nil
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	cleared, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		j.logger.Warn("memory sweep failed", slog.Any("error", err))
		return
	}
	if cleared > 0 {
		j.logger.Info("cleared idle conversation windows", slog.Int64("count", cleared))
	}
}

// Stop waits for a running sweep to finish or ctx to expire.
func (j *Janitor) Stop(ctx context.Context) error {
	if j.cron == nil {
		return nil
	}
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
