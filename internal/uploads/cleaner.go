package uploads

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultTempFileTTL             = time.Hour
	DefaultTempFileCleanupInterval = 15 * time.Minute
)

// StartCleaner removes uploads older than ttl every interval until ctx is done.
func (s *Store) StartCleaner(ctx context.Context, ttl, interval time.Duration, logger logrus.FieldLogger) {
	if ttl <= 0 {
		ttl = DefaultTempFileTTL
	}
	if interval <= 0 {
		interval = DefaultTempFileCleanupInterval
	}
	go s.cleanupLoop(ctx, ttl, interval, logger)
}

func (s *Store) cleanupLoop(ctx context.Context, ttl, interval time.Duration, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CleanExpired(ttl, logger)
			if err != nil {
				logger.WithError(err).Warn("cleanup temp files error")
				continue
			}
			if n > 0 {
				logger.WithField("removed", n).Info("removed stale uploads")
			}
		}
	}
}

// CleanExpired deletes regular files in the upload dir modified more than ttl ago.
func (s *Store) CleanExpired(ttl time.Duration, logger logrus.FieldLogger) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.WithError(err).WithField("path", path).Warn("remove temp file failed")
			continue
		}
		removed++
	}
	return removed, nil
}
