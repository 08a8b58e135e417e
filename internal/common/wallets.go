package common

import (
	"context"
	"fmt"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	"go.uber.org/zap"
)

// LoadWallets returns the wallet totals to report on. With a filter only that
// wallet is returned, even when it has never purchased.
func LoadWallets(ctx context.Context, dbService store.PurchaseStore, walletFilter string, logger *zap.Logger) ([]models.WalletTotal, error) {
	if walletFilter != "" {
		logger.Info("Looking up wallet", zap.String("wallet", walletFilter))
		total, count, err := dbService.GetTotalPurchased(ctx, walletFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to get wallet total: %w", err)
		}
		return []models.WalletTotal{{
			WalletAddress: walletFilter,
			TotalUsd:      total,
			PurchaseCount: count,
		}}, nil
	}

	wallets, err := dbService.ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	logger.Info("Retrieved wallets", zap.Int("count", len(wallets)))
	return wallets, nil
}
