package scheduler

import (
	"context"
	"time"

	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/persist"
)

// DefaultUsageInterval is how often storage usage is re-checked when no
// interval is configured.
const DefaultUsageInterval = 6 * time.Hour

// UsageMonitor periodically checks how much of the storage quota the
// document occupies and logs a warning once usage crosses the threshold.
type UsageMonitor struct {
	adapter  *persist.Adapter
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewUsageMonitor creates a usage monitor.
func NewUsageMonitor(adapter *persist.Adapter, log logger.Logger, interval time.Duration) *UsageMonitor {
	if interval <= 0 {
		interval = DefaultUsageInterval
	}
	return &UsageMonitor{
		adapter:  adapter,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start checks immediately, then on every tick until stopped.
func (um *UsageMonitor) Start(ctx context.Context) error {
	um.Check(ctx)

	ticker := time.NewTicker(um.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				um.Check(ctx)
			case <-um.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the monitor.
func (um *UsageMonitor) Stop() {
	close(um.stopCh)
}

// Check queries usage once and logs the result.
func (um *UsageMonitor) Check(ctx context.Context) {
	u := um.adapter.Usage(ctx)
	if u.IsWarning {
		um.logger.Warn("document storage usage above warning threshold",
			logger.Int64("bytes", u.Bytes),
			logger.String("formatted", u.Formatted))
		return
	}
	um.logger.Debug("document storage usage",
		logger.Int64("bytes", u.Bytes),
		logger.String("formatted", u.Formatted))
}
