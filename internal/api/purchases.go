package api

import (
	"context"
	"errors"
	"fmt"
	"math"

	"token-presale-go/internal/limits"
	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreatePurchase validates a purchase request, quotes it, checks the wallet limit and
// records it as pending. Business rejections come back as an unsuccessful result with a code.
func (s *PresaleService) CreatePurchase(ctx context.Context, req models.PurchaseRequest) (*models.PurchaseResult, error) {
	zap.L().Info("Processing purchase request", requestFields(ctx,
		zap.String("wallet", req.WalletAddress),
		zap.String("payment_method", req.PaymentMethod),
		zap.String("amount_usd", req.AmountUSD.String()))...)

	valid, err := validatePurchaseRequest(req)
	if err != nil {
		zap.L().Warn("Invalid purchase request", zap.String("wallet", req.WalletAddress), zap.Error(err))
		return purchaseFailure(models.CodeValidation, err.Error()), nil
	}

	quote := s.calculator.Calculate(valid.amount.InexactFloat64())

	limit, err := s.tracker.Check(ctx, valid.wallet, valid.amount)
	if err != nil {
		return s.limitFailure(valid.wallet, limit, err), nil
	}

	purchase, err := s.store.CreatePurchase(ctx, store.CreatePurchaseParams{
		WalletAddress: valid.wallet,
		Email:         valid.email,
		PaymentMethod: valid.method,
		ReferralCode:  valid.referralCode,
		UsdAmount:     valid.amount,
		TokenPriceUSD: decimal.NewFromFloat(s.calculator.TokenPriceUSD()),
		BaseTokens:    decimal.NewFromFloat(quote.BaseTokens),
		BonusPercent:  decimal.NewFromFloat(quote.BonusPercentage),
		BonusTokens:   decimal.NewFromFloat(quote.BonusTokens),
		TotalTokens:   decimal.NewFromFloat(quote.TotalTokens),
		WalletCap:     s.tracker.WalletCap(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrWalletCapExceeded):
			// another purchase for this wallet committed between the check and the insert
			current, limitErr := s.tracker.GetWalletLimit(ctx, valid.wallet)
			if limitErr != nil {
				zap.L().Error("Failed to reload wallet limit", zap.String("wallet", valid.wallet), zap.Error(limitErr))
				return purchaseFailure(models.CodeInternal, "internal error"), nil
			}
			return s.limitFailure(valid.wallet, current, &limits.LimitExceededError{
				TotalPurchased: current.TotalPurchased,
				WalletLimit:    current.WalletLimit,
				Remaining:      current.Remaining,
				Requested:      valid.amount,
			}), nil
		case errors.Is(err, store.ErrConcurrentModification):
			zap.L().Warn("Concurrent purchase for wallet", zap.String("wallet", valid.wallet))
			return purchaseFailure(models.CodeConflict, "concurrent purchase for this wallet, please retry"), nil
		default:
			zap.L().Error("Failed to store purchase", zap.String("wallet", valid.wallet), zap.Error(err))
			return purchaseFailure(models.CodeInternal, "internal error"), nil
		}
	}

	after := *limit
	after.WalletAddress = ChecksumAddress(valid.wallet)
	after.TotalPurchased = limit.TotalPurchased.Add(valid.amount)
	after.Remaining = limit.Remaining.Sub(valid.amount)
	after.PurchaseCount = limit.PurchaseCount + 1
	after.CanPurchase = after.Remaining.IsPositive()

	zap.L().Info("Purchase accepted",
		zap.String("purchase_id", purchase.Id),
		zap.String("wallet", valid.wallet),
		zap.Float64("total_tokens", quote.TotalTokens),
		zap.String("remaining_usd", after.Remaining.String()))

	return &models.PurchaseResult{
		Success:    true,
		PurchaseId: purchase.Id,
		Status:     string(purchase.Status),
		Quote:      &quote,
		Limit:      &after,
	}, nil
}

func (s *PresaleService) limitFailure(wallet string, limit *models.WalletLimit, err error) *models.PurchaseResult {
	var exceeded *limits.LimitExceededError
	switch {
	case errors.As(err, &exceeded):
		result := purchaseFailure(models.CodeLimitExceeded, fmt.Sprintf(
			"purchase exceeds wallet limit, remaining allowance is $%s", exceeded.Remaining.StringFixed(2)))
		if limit != nil {
			shown := *limit
			shown.WalletAddress = ChecksumAddress(wallet)
			result.Limit = &shown
		}
		return result
	case errors.Is(err, limits.ErrBlacklisted):
		return purchaseFailure(models.CodeBlacklisted, "wallet is not allowed to participate in the sale")
	case errors.Is(err, limits.ErrSaleNotActive):
		return purchaseFailure(models.CodeSaleInactive, "sale is not active")
	default:
		zap.L().Error("Limit check failed", zap.String("wallet", wallet), zap.Error(err))
		return purchaseFailure(models.CodeInternal, "internal error")
	}
}

func purchaseFailure(code, message string) *models.PurchaseResult {
	return &models.PurchaseResult{
		Success: false,
		Error:   message,
		Code:    code,
	}
}

// Quote prices a USD amount without recording anything
func (s *PresaleService) Quote(usdAmount decimal.Decimal) (*models.TokenQuote, error) {
	if !usdAmount.IsPositive() {
		return nil, fmt.Errorf("%w: amountUSD must be greater than 0", ErrInvalidRequest)
	}
	amount := usdAmount.InexactFloat64()
	if math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w: amountUSD is out of range", ErrInvalidRequest)
	}
	quote := s.calculator.Calculate(amount)
	return &quote, nil
}

func (s *PresaleService) GetWalletLimit(ctx context.Context, address string) (*models.WalletLimit, error) {
	wallet, err := NormalizeWalletAddress(address)
	if err != nil {
		return nil, err
	}

	limit, err := s.tracker.GetWalletLimit(ctx, wallet)
	if err != nil {
		zap.L().Error("Failed to get wallet limit", zap.String("wallet", wallet), zap.Error(err))
		return nil, err
	}
	limit.WalletAddress = ChecksumAddress(wallet)
	return limit, nil
}

// GetPurchaseHistory returns a wallet's purchases, newest first
func (s *PresaleService) GetPurchaseHistory(ctx context.Context, address string) ([]models.PurchaseRecord, error) {
	wallet, err := NormalizeWalletAddress(address)
	if err != nil {
		return nil, err
	}

	purchases, err := s.store.GetPurchasesByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases: %w", err)
	}

	records := make([]models.PurchaseRecord, 0, len(purchases))
	for _, p := range purchases {
		records = append(records, models.PurchaseRecord{
			Id:            p.Id,
			PaymentMethod: string(p.PaymentMethod),
			UsdAmount:     p.UsdAmount,
			BaseTokens:    p.BaseTokens,
			BonusTokens:   p.BonusTokens,
			TotalTokens:   p.TotalTokens,
			Status:        string(p.Status),
			CreatedAt:     p.CreatedAt,
		})
	}
	return records, nil
}
