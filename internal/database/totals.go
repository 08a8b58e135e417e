package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetTotalPurchased returns the USD counted against the wallet cap and the number of counted purchases (O(1) lookup)
func (s *Service) GetTotalPurchased(ctx context.Context, wallet string) (decimal.Decimal, int, error) {
	zap.L().Debug("Getting wallet total", zap.String("wallet", wallet))

	var totalStr string
	var count int
	var version int64
	err := s.db.QueryRowContext(ctx, s.q(queryGetWalletTotal), wallet).Scan(&totalStr, &count, &version)
	if errors.Is(err, sql.ErrNoRows) {
		// No total record means nothing purchased yet
		return decimal.Zero, 0, nil
	}
	if err != nil {
		zap.L().Error("Failed to get wallet total", zap.String("wallet", wallet), zap.Error(err))
		return decimal.Zero, 0, fmt.Errorf("failed to get wallet total: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to parse wallet total '%s': %w", totalStr, err)
	}

	return total, count, nil
}

// ListWallets returns every wallet that has ever purchased
func (s *Service) ListWallets(ctx context.Context) ([]models.WalletTotal, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryListWalletTotals))
	if err != nil {
		zap.L().Error("Failed to list wallet totals", zap.Error(err))
		return nil, fmt.Errorf("failed to list wallet totals: %w", err)
	}
	defer closeRows(rows)

	var wallets []models.WalletTotal
	for rows.Next() {
		var w models.WalletTotal
		var totalStr string
		if err := rows.Scan(&w.WalletAddress, &totalStr, &w.PurchaseCount, &w.LastPurchaseId, &w.Version, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet total: %w", err)
		}
		if w.TotalUsd, err = decimal.NewFromString(totalStr); err != nil {
			return nil, fmt.Errorf("failed to parse wallet total '%s': %w", totalStr, err)
		}
		wallets = append(wallets, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet total rows: %w", err)
	}

	return wallets, nil
}

// ReconcileWalletTotal verifies that the stored total matches the sum of the wallet's counted purchases
func (s *Service) ReconcileWalletTotal(ctx context.Context, wallet string) error {
	zap.L().Info("Reconciling wallet total", zap.String("wallet", wallet))

	storedTotal, storedCount, err := s.GetTotalPurchased(ctx, wallet)
	if err != nil {
		return fmt.Errorf("failed to get stored total: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(queryGetWalletPurchaseAmounts), wallet)
	if err != nil {
		return fmt.Errorf("failed to query purchase amounts: %w", err)
	}
	defer closeRows(rows)

	calculatedTotal := decimal.Zero
	calculatedCount := 0
	for rows.Next() {
		var amountStr, status string
		if err := rows.Scan(&amountStr, &status); err != nil {
			return fmt.Errorf("failed to scan purchase amount: %w", err)
		}
		if models.PaymentStatus(status).ReleasesAllowance() {
			continue
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("failed to parse purchase amount '%s': %w", amountStr, err)
		}
		calculatedTotal = calculatedTotal.Add(amount)
		calculatedCount++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating purchase amount rows: %w", err)
	}

	// Check if totals match (exact decimal comparison)
	if !storedTotal.Equal(calculatedTotal) || storedCount != calculatedCount {
		zap.L().Error("Wallet total reconciliation failed",
			zap.String("wallet", wallet),
			zap.String("stored_total", storedTotal.String()),
			zap.String("calculated_total", calculatedTotal.String()),
			zap.Int("stored_count", storedCount),
			zap.Int("calculated_count", calculatedCount),
			zap.String("difference", storedTotal.Sub(calculatedTotal).String()))
		return fmt.Errorf("wallet total mismatch: stored=%s (%d purchases), calculated=%s (%d purchases)",
			storedTotal.String(), storedCount, calculatedTotal.String(), calculatedCount)
	}

	zap.L().Info("Wallet total reconciliation successful",
		zap.String("wallet", wallet),
		zap.String("total_usd", storedTotal.String()),
		zap.Int("purchase_count", storedCount))
	return nil
}

// getWalletTotalTx reads the wallet total inside tx. A zero Version means no row exists yet.
func (s *Service) getWalletTotalTx(ctx context.Context, tx *sql.Tx, wallet string) (models.WalletTotal, error) {
	current := models.WalletTotal{WalletAddress: wallet, TotalUsd: decimal.Zero}

	var totalStr string
	err := tx.QueryRowContext(ctx, s.q(queryGetWalletTotal), wallet).Scan(&totalStr, &current.PurchaseCount, &current.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return current, nil
	}
	if err != nil {
		return current, fmt.Errorf("failed to get current wallet total: %w", err)
	}

	current.TotalUsd, err = decimal.NewFromString(totalStr)
	if err != nil {
		return current, fmt.Errorf("failed to parse current wallet total '%s': %w", totalStr, err)
	}
	return current, nil
}

// writeWalletTotalTx stores a new total guarded by the version read in getWalletTotalTx
func (s *Service) writeWalletTotalTx(ctx context.Context, tx *sql.Tx, current models.WalletTotal, total decimal.Decimal, count int, purchaseId string, now time.Time) error {
	var result sql.Result
	var err error
	if current.Version == 0 {
		result, err = tx.ExecContext(ctx, s.q(queryInsertWalletTotal),
			current.WalletAddress, total.String(), count, purchaseId, now)
	} else {
		result, err = tx.ExecContext(ctx, s.q(queryUpdateWalletTotal),
			total.String(), count, purchaseId, now, current.WalletAddress, current.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to write wallet total: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wallet total update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}
