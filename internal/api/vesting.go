package api

import (
	"context"
	"errors"
	"fmt"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"
	"token-presale-go/internal/vesting"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetVestingStatus builds the vesting schedule over a wallet's completed purchases.
// Nothing is unlocked while the vesting start is unset or in the future.
func (s *PresaleService) GetVestingStatus(ctx context.Context, address string) (*models.VestingStatus, error) {
	wallet, err := NormalizeWalletAddress(address)
	if err != nil {
		return nil, err
	}
	return s.vestingStatus(ctx, wallet)
}

func (s *PresaleService) vestingStatus(ctx context.Context, wallet string) (*models.VestingStatus, error) {
	purchases, err := s.store.GetPurchasesByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases: %w", err)
	}

	total := decimal.Zero
	for _, p := range purchases {
		if p.Status == models.StatusCompleted {
			total = total.Add(p.TotalTokens)
		}
	}

	schedule, err := vesting.Generate(total, s.sale.ImmediateFraction, s.sale.VestingIntervals)
	if err != nil {
		return nil, fmt.Errorf("failed to generate vesting schedule: %w", err)
	}

	unlocked := decimal.Zero
	if !s.sale.VestingStart.IsZero() {
		schedule = vesting.WithStart(schedule, s.sale.VestingStart)
		unlocked = vesting.UnlockedAt(schedule, s.sale.VestingStart, s.now())
	}

	claimed, err := s.store.GetClaimedTokens(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get claimed tokens: %w", err)
	}

	// a refund after claiming can leave claimed above unlocked
	claimable := decimal.Max(unlocked.Sub(claimed), decimal.Zero)

	return &models.VestingStatus{
		WalletAddress: ChecksumAddress(wallet),
		Schedule:      schedule,
		Unlocked:      unlocked,
		Claimed:       claimed,
		Claimable:     claimable,
	}, nil
}

// Claim records a claim of unlocked tokens for a wallet
func (s *PresaleService) Claim(ctx context.Context, address string, amount decimal.Decimal) (*models.ClaimResult, error) {
	wallet, err := NormalizeWalletAddress(address)
	if err != nil {
		return claimFailure(models.CodeValidation, err.Error(), decimal.Zero), nil
	}
	if !amount.IsPositive() {
		return claimFailure(models.CodeValidation, "amount must be greater than 0", decimal.Zero), nil
	}
	if !hasAtMostPlaces(amount, tokenDecimalPlaces) {
		return claimFailure(models.CodeValidation, fmt.Sprintf("amount must have at most %d decimal places", tokenDecimalPlaces), decimal.Zero), nil
	}

	status, err := s.vestingStatus(ctx, wallet)
	if err != nil {
		zap.L().Error("Failed to get vesting status", zap.String("wallet", wallet), zap.Error(err))
		return claimFailure(models.CodeInternal, "internal error", decimal.Zero), nil
	}

	claim, err := s.store.CreateClaim(ctx, store.CreateClaimParams{
		WalletAddress: wallet,
		Amount:        amount,
		MaxClaimable:  status.Unlocked,
	})
	if err != nil {
		if errors.Is(err, store.ErrClaimExceedsUnlocked) {
			zap.L().Info("Claim exceeds unlocked tokens",
				zap.String("wallet", wallet),
				zap.String("amount", amount.String()),
				zap.String("claimable", status.Claimable.String()))
			return claimFailure(models.CodeLimitExceeded, "claim exceeds claimable tokens", status.Claimable), nil
		}
		zap.L().Error("Failed to record claim", zap.String("wallet", wallet), zap.Error(err))
		return claimFailure(models.CodeInternal, "internal error", decimal.Zero), nil
	}

	return &models.ClaimResult{
		Success:   true,
		ClaimId:   claim.Id,
		Amount:    claim.Amount,
		Claimable: decimal.Max(status.Claimable.Sub(claim.Amount), decimal.Zero),
	}, nil
}

func claimFailure(code, message string, claimable decimal.Decimal) *models.ClaimResult {
	return &models.ClaimResult{
		Success:   false,
		Claimable: claimable,
		Error:     message,
		Code:      code,
	}
}
