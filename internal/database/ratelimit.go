package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// IncrementRateCounter counts one hit for key in a fixed window and returns the
// hit count so far plus the time the window resets. An expired window restarts at 1.
func (s *Service) IncrementRateCounter(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	nowMs := now.UnixMilli()
	expiry := nowMs + window.Milliseconds()

	var hits int
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, s.q(queryIncrementRateCounter), key, expiry, nowMs, nowMs, expiry).Scan(&hits, &expiresAt)
	if err != nil {
		zap.L().Error("Failed to increment rate counter", zap.String("key", key), zap.Error(err))
		return 0, time.Time{}, fmt.Errorf("unable to increment rate counter: %w", err)
	}

	return hits, time.UnixMilli(expiresAt).UTC(), nil
}

// PurgeExpiredRateCounters removes counters whose window ended before now
func (s *Service) PurgeExpiredRateCounters(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.q(queryDeleteExpiredRateCounters), now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("unable to purge rate counters: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unable to get rows affected: %w", err)
	}
	return n, nil
}
