package service

import (
	"context"
	"log/slog"
	"time"
)

// RunSweeper clears expired durable entries once at start and then every
// interval until ctx is done. It blocks; run it in its own goroutine.
func RunSweeper(ctx context.Context, catalog CatalogService, interval time.Duration) {
	if interval <= 0 {
		return
	}

	sweep := func() {
		if _, err := catalog.ClearExpired(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("⚠️ Expired entry sweep incomplete", slog.String("error", err.Error()))
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
