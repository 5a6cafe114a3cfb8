// Package scheduler runs the log retention job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/applog/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Purger deletes log rows written before cutoff. *repo.LogRepo satisfies it.
type Purger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention deletes logs older than a fixed window.
type Retention struct {
	logs Purger
	keep time.Duration
	now  func() time.Time
}

// NewRetention keeps days worth of logs.
func NewRetention(logs Purger, days int) *Retention {
	return &Retention{
		logs: logs,
		keep: time.Duration(days) * 24 * time.Hour,
		now:  time.Now,
	}
}

// RunOnce deletes everything older than the window and returns the number of rows removed.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.keep)
	n, err := r.logs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention: %w", err)
	}
	metrics.AddRetentionDeleted(n)
	slog.Info("retention: deleted old logs", "rows", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}

// Start schedules job on the cron spec (for example "@daily") and stops it when ctx is done.
// Overlapping runs are skipped.
func Start(ctx context.Context, spec string, job *Retention) (*cron.Cron, error) {
	logger := slogLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	if _, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		if _, err := job.RunOnce(runCtx); err != nil {
			slog.Error("retention run failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("retention: invalid cron spec %q: %w", spec, err)
	}

	c.Start()
	slog.Info("retention scheduled", "cron", spec, "keep", job.keep.String())
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}

// slogLogger adapts cron's logger to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
