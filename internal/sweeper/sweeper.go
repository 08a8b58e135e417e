package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Store is the part of the purchase store the sweeper works on
type Store interface {
	ListStalePurchases(ctx context.Context, cutoff time.Time) ([]models.Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, params store.UpdateStatusParams) (*models.Purchase, error)
	PurgeExpiredRateCounters(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically fails purchases that stayed pending longer than the TTL,
// which releases their allowance, and drops expired rate limit counters.
type Sweeper struct {
	store      Store
	interval   time.Duration
	pendingTTL time.Duration
	scheduler  gocron.Scheduler
	ctx        context.Context
	cancel     context.CancelFunc
	now        func() time.Time
}

func New(s Store, cfg models.SweeperConfig) (*Sweeper, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("sweeper interval must be positive, got %v", cfg.Interval)
	}
	if cfg.PendingTTL <= 0 {
		return nil, fmt.Errorf("pending purchase TTL must be positive, got %v", cfg.PendingTTL)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("unable to create scheduler: %w", err)
	}

	return &Sweeper{
		store:      s,
		interval:   cfg.Interval,
		pendingTTL: cfg.PendingTTL,
		scheduler:  scheduler,
		now:        time.Now,
	}, nil
}

// Start schedules the sweep and runs it once immediately
func (w *Sweeper) Start(ctx context.Context) error {
	zap.L().Info("Starting stale purchase sweeper",
		zap.Duration("interval", w.interval),
		zap.Duration("pending_ttl", w.pendingTTL))

	w.ctx, w.cancel = context.WithCancel(ctx)

	_, err := w.scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if _, err := w.Sweep(w.ctx); err != nil && !errors.Is(err, context.Canceled) {
				zap.L().Error("Sweep failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		w.cancel()
		return fmt.Errorf("unable to schedule sweep: %w", err)
	}

	w.scheduler.Start()
	return nil
}

// Stop waits for a running sweep to finish and shuts the scheduler down
func (w *Sweeper) Stop() {
	zap.L().Info("Stopping stale purchase sweeper")
	if w.cancel != nil {
		w.cancel()
	}
	if err := w.scheduler.Shutdown(); err != nil {
		zap.L().Warn("Scheduler shutdown failed", zap.Error(err))
	}
	zap.L().Info("Stale purchase sweeper stopped")
}

// Sweep fails every purchase left pending or processing for longer than the TTL and returns how many were failed
func (w *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := w.now().UTC()
	cutoff := now.Add(-w.pendingTTL)

	stale, err := w.store.ListStalePurchases(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale purchases: %w", err)
	}

	failed := 0
	for _, p := range stale {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		_, err := w.store.UpdatePurchaseStatus(ctx, store.UpdateStatusParams{
			PurchaseId: p.Id,
			Status:     models.StatusFailed,
		})
		if err != nil {
			// a callback may have moved it on since it was listed
			if errors.Is(err, store.ErrInvalidStatusTransition) || errors.Is(err, store.ErrConcurrentModification) {
				zap.L().Info("Stale purchase changed during sweep, skipping", zap.String("purchase_id", p.Id), zap.Error(err))
				continue
			}
			zap.L().Error("Failed to expire purchase", zap.String("purchase_id", p.Id), zap.Error(err))
			continue
		}

		failed++
		zap.L().Info("Expired stale purchase",
			zap.String("purchase_id", p.Id),
			zap.String("status", string(p.Status)),
			zap.String("wallet", p.WalletAddress),
			zap.String("usd_amount", p.UsdAmount.String()),
			zap.Time("created_at", p.CreatedAt))
	}

	purged, err := w.store.PurgeExpiredRateCounters(ctx, now)
	if err != nil {
		zap.L().Warn("Failed to purge rate limit counters", zap.Error(err))
	}

	if failed > 0 || purged > 0 {
		zap.L().Info("Sweep completed", zap.Int("expired_purchases", failed), zap.Int64("purged_rate_counters", purged))
	}
	return failed, nil
}
