package limits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-presale-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrBlacklisted   = errors.New("wallet is blacklisted")
	ErrSaleNotActive = errors.New("sale is not active")
)

// LimitExceededError is returned when a purchase would take a wallet past its cap
type LimitExceededError struct {
	TotalPurchased decimal.Decimal
	WalletLimit    decimal.Decimal
	Remaining      decimal.Decimal
	Requested      decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("purchase of %s exceeds wallet limit: purchased %s of %s, remaining %s",
		e.Requested.String(), e.TotalPurchased.String(), e.WalletLimit.String(), e.Remaining.String())
}

// Reader is the slice of the purchase store the tracker needs
type Reader interface {
	GetTotalPurchased(ctx context.Context, wallet string) (decimal.Decimal, int, error)
	IsBlacklisted(ctx context.Context, wallet string) (bool, error)
}

// Tracker derives wallet allowances from stored purchase totals. It never writes.
type Tracker struct {
	reader    Reader
	walletCap decimal.Decimal
	saleStart time.Time
	saleEnd   time.Time
	now       func() time.Time
}

func NewTracker(reader Reader, sale models.SaleConfig) *Tracker {
	return &Tracker{
		reader:    reader,
		walletCap: sale.WalletCapUSD,
		saleStart: sale.SaleStart,
		saleEnd:   sale.SaleEnd,
		now:       time.Now,
	}
}

func (t *Tracker) WalletCap() decimal.Decimal {
	return t.walletCap
}

// GetWalletLimit returns the wallet's purchased total and what is left under the cap.
// Remaining is negative if the cap was lowered after purchases were made.
func (t *Tracker) GetWalletLimit(ctx context.Context, wallet string) (*models.WalletLimit, error) {
	total, count, err := t.reader.GetTotalPurchased(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchased total: %w", err)
	}

	remaining := t.walletCap.Sub(total)
	return &models.WalletLimit{
		WalletAddress:  wallet,
		TotalPurchased: total,
		WalletLimit:    t.walletCap,
		Remaining:      remaining,
		PurchaseCount:  count,
		CanPurchase:    remaining.IsPositive(),
	}, nil
}

// SaleActive reports whether now falls in [start, end). A zero bound is open.
func (t *Tracker) SaleActive(now time.Time) bool {
	if !t.saleStart.IsZero() && now.Before(t.saleStart) {
		return false
	}
	if !t.saleEnd.IsZero() && !now.Before(t.saleEnd) {
		return false
	}
	return true
}

// Check verifies that wallet may purchase requested USD right now. The returned
// limit reflects the state before the purchase and is set whenever it could be read.
func (t *Tracker) Check(ctx context.Context, wallet string, requested decimal.Decimal) (*models.WalletLimit, error) {
	blacklisted, err := t.reader.IsBlacklisted(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		zap.L().Warn("Rejected purchase from blacklisted wallet", zap.String("wallet", wallet))
		return nil, ErrBlacklisted
	}

	if !t.SaleActive(t.now()) {
		return nil, ErrSaleNotActive
	}

	limit, err := t.GetWalletLimit(ctx, wallet)
	if err != nil {
		return nil, err
	}

	if requested.GreaterThan(limit.Remaining) {
		zap.L().Info("Purchase exceeds wallet limit",
			zap.String("wallet", wallet),
			zap.String("requested_usd", requested.String()),
			zap.String("total_purchased", limit.TotalPurchased.String()),
			zap.String("remaining", limit.Remaining.String()))
		return limit, &LimitExceededError{
			TotalPurchased: limit.TotalPurchased,
			WalletLimit:    limit.WalletLimit,
			Remaining:      limit.Remaining,
			Requested:      requested,
		}
	}

	return limit, nil
}
