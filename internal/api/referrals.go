package api

import (
	"context"
	"fmt"

	"token-presale-go/internal/models"
)

func (s *PresaleService) GetReferralStats(ctx context.Context, code string) (*models.ReferralStats, error) {
	normalized, err := normalizeReferralCode(code)
	if err != nil {
		return nil, err
	}
	if normalized == "" {
		return nil, fmt.Errorf("%w: referral code is required", ErrInvalidRequest)
	}

	stats, err := s.store.GetReferralStats(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}
	return stats, nil
}
