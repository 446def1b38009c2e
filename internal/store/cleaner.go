package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper is implemented by stores that need expired jobs purged.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// StartCleaner sweeps expired jobs every interval until ctx is done.
// Stores without a Sweeper (redis expires keys itself) are ignored.
func StartCleaner(ctx context.Context, s Store, interval time.Duration, logger logrus.FieldLogger) {
	sw, ok := s.(Sweeper)
	if !ok {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := sw.Sweep(ctx)
				if err != nil {
					logger.WithError(err).Warn("sweep expired jobs failed")
					continue
				}
				if n > 0 {
					logger.WithField("removed", n).Debug("swept expired jobs")
				}
			}
		}
	}()
}
