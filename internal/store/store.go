package store

import (
	"context"
	"errors"
	"time"

	"token-presale-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicatePurchase       = errors.New("duplicate purchase")
	ErrConcurrentModification  = errors.New("concurrent modification detected")
	ErrPurchaseNotFound        = errors.New("purchase not found")
	ErrWalletCapExceeded       = errors.New("wallet purchase cap exceeded")
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
	ErrClaimExceedsUnlocked    = errors.New("claim exceeds unlocked tokens")
)

// CreatePurchaseParams contains everything persisted for an accepted purchase.
// WalletCap is re-checked inside the insert transaction.
type CreatePurchaseParams struct {
	WalletAddress string
	Email         string
	PaymentMethod models.PaymentMethod
	ReferralCode  string
	UsdAmount     decimal.Decimal
	TokenPriceUSD decimal.Decimal
	BaseTokens    decimal.Decimal
	BonusPercent  decimal.Decimal
	BonusTokens   decimal.Decimal
	TotalTokens   decimal.Decimal
	WalletCap     decimal.Decimal
}

// UpdateStatusParams carries a payment gateway status change
type UpdateStatusParams struct {
	PurchaseId  string
	Status      models.PaymentStatus
	ExternalRef string
}

// CreateClaimParams records a claim; MaxClaimable is the wallet's unlocked-to-date total.
type CreateClaimParams struct {
	WalletAddress string
	Amount        decimal.Decimal
	MaxClaimable  decimal.Decimal
}

// PurchaseStore defines the contract that every persistence backend must satisfy.
type PurchaseStore interface {
	// --- Purchases ---
	GetTotalPurchased(ctx context.Context, wallet string) (decimal.Decimal, int, error)
	CreatePurchase(ctx context.Context, params CreatePurchaseParams) (*models.Purchase, error)
	GetPurchase(ctx context.Context, purchaseId string) (*models.Purchase, error)
	GetPurchasesByWallet(ctx context.Context, wallet string) ([]models.Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, params UpdateStatusParams) (*models.Purchase, error)
	ListStalePurchases(ctx context.Context, cutoff time.Time) ([]models.Purchase, error)
	ListWallets(ctx context.Context) ([]models.WalletTotal, error)
	ReconcileWalletTotal(ctx context.Context, wallet string) error

	// --- Blacklist ---
	IsBlacklisted(ctx context.Context, wallet string) (bool, error)
	AddToBlacklist(ctx context.Context, wallet, reason string) error
	RemoveFromBlacklist(ctx context.Context, wallet string) (bool, error)
	ListBlacklist(ctx context.Context) ([]models.BlacklistEntry, error)

	// --- Claims ---
	GetClaimedTokens(ctx context.Context, wallet string) (decimal.Decimal, error)
	CreateClaim(ctx context.Context, params CreateClaimParams) (*models.Claim, error)

	// --- Referrals ---
	GetReferralStats(ctx context.Context, code string) (*models.ReferralStats, error)

	// --- Rate limiting ---
	IncrementRateCounter(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error)
	PurgeExpiredRateCounters(ctx context.Context, now time.Time) (int64, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
