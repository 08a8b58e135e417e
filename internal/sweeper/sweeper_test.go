package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"
)

type fakeStore struct {
	mu       sync.Mutex
	stale    []models.Purchase
	cutoffs  []time.Time
	updated  []store.UpdateStatusParams
	failIds  map[string]error
	purges   int
	listed   chan struct{}
	listOnce sync.Once
}

func newFakeStore(stale ...models.Purchase) *fakeStore {
	return &fakeStore{stale: stale, failIds: map[string]error{}, listed: make(chan struct{})}
}

func (f *fakeStore) ListStalePurchases(_ context.Context, cutoff time.Time) ([]models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	f.listOnce.Do(func() { close(f.listed) })
	return f.stale, nil
}

func (f *fakeStore) UpdatePurchaseStatus(_ context.Context, params store.UpdateStatusParams) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failIds[params.PurchaseId]; ok {
		return nil, err
	}
	f.updated = append(f.updated, params)
	return &models.Purchase{Id: params.PurchaseId, Status: params.Status}, nil
}

func (f *fakeStore) PurgeExpiredRateCounters(_ context.Context, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purges++
	return 0, nil
}

func TestSweep_FailsStalePurchases(t *testing.T) {
	fs := newFakeStore(models.Purchase{Id: "p1"}, models.Purchase{Id: "p2"}, models.Purchase{Id: "p3"})
	fs.failIds["p2"] = store.ErrInvalidStatusTransition

	w, err := New(fs, models.SweeperConfig{Interval: time.Minute, PendingTTL: 30 * time.Minute})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	failed, err := w.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if failed != 2 {
		t.Errorf("Expected 2 expired purchases, got %d", failed)
	}

	if len(fs.cutoffs) != 1 || !fs.cutoffs[0].Equal(now.Add(-30*time.Minute)) {
		t.Errorf("Expected cutoff %v, got %v", now.Add(-30*time.Minute), fs.cutoffs)
	}
	for _, u := range fs.updated {
		if u.Status != models.StatusFailed {
			t.Errorf("Expected purchase %s to be failed, got %s", u.PurchaseId, u.Status)
		}
	}
	if fs.purges != 1 {
		t.Errorf("Expected rate counters to be purged once, got %d", fs.purges)
	}
}

func TestSweep_StopsOnCancelledContext(t *testing.T) {
	fs := newFakeStore(models.Purchase{Id: "p1"})
	w, err := New(fs, models.SweeperConfig{Interval: time.Minute, PendingTTL: time.Minute})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Sweep(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(fs.updated) != 0 {
		t.Errorf("Expected no updates after cancellation, got %d", len(fs.updated))
	}
}

func TestStart_RunsImmediately(t *testing.T) {
	fs := newFakeStore()
	w, err := New(fs, models.SweeperConfig{Interval: time.Hour, PendingTTL: time.Minute})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	select {
	case <-fs.listed:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected sweep to run on start")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(newFakeStore(), models.SweeperConfig{PendingTTL: time.Minute}); err == nil {
		t.Error("Expected error for zero interval")
	}
	if _, err := New(newFakeStore(), models.SweeperConfig{Interval: time.Minute}); err == nil {
		t.Error("Expected error for zero TTL")
	}
}
