package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Pruner removes old notifications
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration, maxCount int) (int, error)
}

// RetentionJob trims the notification feed on a fixed interval
type RetentionJob struct {
	pruner   Pruner
	logger   *logrus.Logger
	interval time.Duration
	maxAge   time.Duration
	maxCount int
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRetentionJob creates a new retention job. A zero interval means hourly.
func NewRetentionJob(pruner Pruner, interval, maxAge time.Duration, maxCount int, logger *logrus.Logger) *RetentionJob {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RetentionJob{
		pruner:   pruner,
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
		maxCount: maxCount,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the job until Stop is called or ctx is cancelled
func (j *RetentionJob) Start(ctx context.Context) {
	j.logger.WithFields(logrus.Fields{
		"interval": j.interval.String(),
		"maxAge":   j.maxAge.String(),
		"maxCount": j.maxCount,
	}).Info("Retention job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-j.stopCh:
			j.logger.Info("Retention job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Retention job context cancelled")
			return
		}
	}
}

// Stop signals the job to stop. Safe to call more than once.
func (j *RetentionJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

// RunOnce performs a single prune pass and returns how many records went
func (j *RetentionJob) RunOnce(ctx context.Context) int {
	if j.maxAge <= 0 && j.maxCount <= 0 {
		return 0
	}

	removed, err := j.pruner.Prune(ctx, j.maxAge, j.maxCount)
	if err != nil {
		j.logger.Errorf("Failed to prune notifications: %v", err)
		return 0
	}
	if removed > 0 {
		j.logger.Infof("Pruned %d notifications", removed)
	} else {
		j.logger.Debug("No notifications to prune")
	}
	return removed
}
