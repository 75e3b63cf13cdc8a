package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type PriceRefresher interface {
	RefreshPrices(ctx context.Context) error
}

// PriceUpdater refreshes every stored portfolio on a fixed interval.
type PriceUpdater struct {
	service  PriceRefresher
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewPriceUpdater(service PriceRefresher, interval time.Duration) *PriceUpdater {
	return &PriceUpdater{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until Stop is called or ctx is cancelled.
func (u *PriceUpdater) Start(ctx context.Context) {
	if u.interval <= 0 {
		slog.InfoContext(ctx, "Price updater disabled")
		return
	}

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Price updater started", "interval", u.interval)

	for {
		select {
		case <-ticker.C:
			u.refresh(ctx)
		case <-u.stopChan:
			slog.InfoContext(ctx, "Price updater stopped")
			return
		case <-ctx.Done():
			slog.InfoContext(ctx, "Price updater stopped due to context cancellation")
			return
		}
	}
}

func (u *PriceUpdater) refresh(ctx context.Context) {
	started := time.Now()
	if err := u.service.RefreshPrices(ctx); err != nil {
		slog.ErrorContext(ctx, "Error refreshing prices", "error", err)
		return
	}
	slog.InfoContext(ctx, "Prices refreshed", "took", time.Since(started))
}

// Stop may be called more than once.
func (u *PriceUpdater) Stop() {
	u.stopOnce.Do(func() {
		close(u.stopChan)
	})
}
