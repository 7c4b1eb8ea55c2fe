package queue

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// GarbageCollector periodically removes expired messages from the dead
// letter queue so failed jobs do not accumulate forever.
type GarbageCollector struct {
	purger    DLQPurger
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

// NewGarbageCollector creates a collector that purges DLQ messages older
// than retention, checking every interval.
func NewGarbageCollector(purger DLQPurger, retention, interval time.Duration, logger *zap.Logger) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GarbageCollector{
		purger:    purger,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Run blocks until the context is cancelled, purging on each tick.
func (gc *GarbageCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()

	gc.logger.Info("DLQ garbage collector started",
		zap.Duration("retention", gc.retention),
		zap.Duration("interval", gc.interval))

	for {
		select {
		case <-ctx.Done():
			gc.logger.Info("DLQ garbage collector stopped")
			return
		case <-ticker.C:
			gc.purgeOnce(ctx)
		}
	}
}

func (gc *GarbageCollector) purgeOnce(ctx context.Context) {
	purged, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		gc.logger.Warn("DLQ purge failed", zap.Error(err), zap.Int("purged", purged))
		return
	}
	if purged > 0 {
		gc.logger.Info("purged expired DLQ messages", zap.Int("purged", purged))
	}
}
