package channels

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads channel info.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StartRefreshWorker launches a background goroutine that refreshes channel
// info once at startup and then every interval until ctx is cancelled. The
// returned channel is closed when the goroutine exits.
func StartRefreshWorker(ctx context.Context, r Refresher, interval time.Duration, log *zap.Logger) <-chan struct{} {
	if log == nil {
		log = zap.NewNop()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.Warn("channel refresh failed (startup)", zap.Error(err))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
					log.Warn("channel refresh failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}
