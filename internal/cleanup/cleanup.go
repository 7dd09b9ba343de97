// Package cleanup reaps dead token rows on a fixed daily schedule.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	sl "notekeeper/internal/lib/logger"
)

type TokenPurger interface {
	PurgeExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper struct {
	log    *slog.Logger
	purger TokenPurger
	hour   int
}

func New(log *slog.Logger, purger TokenPurger, hour int) *Sweeper {
	return &Sweeper{log: log, purger: purger, hour: hour}
}

// Run blocks until ctx is cancelled, purging expired and revoked
// tokens once a day at the configured hour. The purge only removes
// rows that are already dead, so it is safe alongside live traffic.
func (s *Sweeper) Run(ctx context.Context) {
	const op = "cleanup.Run"

	log := s.log.With(slog.String("op", op))

	for {
		wait := time.Until(nextRun(time.Now(), s.hour))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		count, err := s.purger.PurgeExpiredOrRevoked(ctx, time.Now())
		if err != nil {
			log.Error("token cleanup failed", sl.Err(err))
			continue
		}

		log.Info("token cleanup completed", slog.Int64("deleted", count))
	}
}

// nextRun returns the next occurrence of hour:00 strictly after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
