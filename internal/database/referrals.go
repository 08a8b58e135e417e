package database

import (
	"context"
	"fmt"

	"token-presale-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetReferralStats aggregates the non-failed, non-refunded purchases made with a referral code
func (s *Service) GetReferralStats(ctx context.Context, code string) (*models.ReferralStats, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetReferralPurchases), code)
	if err != nil {
		zap.L().Error("Failed to query referral purchases", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("unable to query referral purchases: %w", err)
	}
	defer closeRows(rows)

	stats := &models.ReferralStats{Code: code, TotalUsd: decimal.Zero, TotalTokens: decimal.Zero}
	for rows.Next() {
		var usdStr, tokensStr string
		if err := rows.Scan(&usdStr, &tokensStr); err != nil {
			return nil, fmt.Errorf("unable to scan referral purchase: %w", err)
		}
		usd, err := decimal.NewFromString(usdStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse usd_amount '%s': %w", usdStr, err)
		}
		tokens, err := decimal.NewFromString(tokensStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total_tokens '%s': %w", tokensStr, err)
		}
		stats.PurchaseCount++
		stats.TotalUsd = stats.TotalUsd.Add(usd)
		stats.TotalTokens = stats.TotalTokens.Add(tokens)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referral rows: %w", err)
	}
	return stats, nil
}
