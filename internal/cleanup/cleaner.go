// Package cleanup prunes aged rows so the row-per-file store stays
// small enough for full-prefix scans.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/internal/metric"
	"github.com/missionhq/missionctl/internal/terminallog"
	"github.com/missionhq/missionctl/pkg/panicerr"
)

// activityRetention bounds the activity feed. Older entries only
// matter in aggregate, which the metrics rows already capture.
const activityRetention = 7 * 24 * time.Hour

type Cleaner struct {
	activities   *activity.Service
	terminalLogs *terminallog.Service
	metrics      *metric.Service
	metricsDays  int
}

func NewCleaner(activities *activity.Service, terminalLogs *terminallog.Service, metrics *metric.Service, metricsRetentionDays int) *Cleaner {
	return &Cleaner{
		activities:   activities,
		terminalLogs: terminalLogs,
		metrics:      metrics,
		metricsDays:  metricsRetentionDays,
	}
}

// RunOnce sweeps every retained collection. Sweeps are independent;
// one failing does not stop the others.
func (c *Cleaner) RunOnce(ctx context.Context) {
	if n, err := c.activities.DeleteOlderThan(ctx, time.Now().Add(-activityRetention)); err != nil {
		slog.Error("activity cleanup failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned activities", "count", n)
	}

	if n, err := c.terminalLogs.Cleanup(ctx); err != nil {
		slog.Error("terminal log cleanup failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned terminal logs", "count", n)
	}

	if n, err := c.metrics.Cleanup(ctx, c.metricsDays); err != nil {
		slog.Error("metric cleanup failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned metrics", "count", n)
	}
}

// Runner sweeps on a fixed cadence until the context is cancelled.
type Runner struct {
	cleaner  *Cleaner
	interval time.Duration
}

func NewRunner(cleaner *Cleaner, interval time.Duration) *Runner {
	return &Runner{cleaner: cleaner, interval: interval}
}

func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := panicerr.SafeContext(func(ctx context.Context) error {
				r.cleaner.RunOnce(ctx)
				return nil
			})(ctx); err != nil {
				slog.Error("cleanup pass panicked", "error", err)
			}
		}
	}
}
