package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// CreatePurchase atomically re-checks the wallet cap, records the purchase and bumps the wallet total
func (s *Service) CreatePurchase(ctx context.Context, params store.CreatePurchaseParams) (*models.Purchase, error) {
	zap.L().Info("Creating purchase",
		zap.String("wallet", params.WalletAddress),
		zap.String("payment_method", string(params.PaymentMethod)),
		zap.String("usd_amount", params.UsdAmount.String()),
		zap.String("total_tokens", params.TotalTokens.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	current, err := s.getWalletTotalTx(ctx, tx, params.WalletAddress)
	if err != nil {
		return nil, err
	}

	newTotal := current.TotalUsd.Add(params.UsdAmount)
	if newTotal.GreaterThan(params.WalletCap) {
		zap.L().Warn("Wallet cap exceeded at commit time",
			zap.String("wallet", params.WalletAddress),
			zap.String("total_usd", current.TotalUsd.String()),
			zap.String("requested_usd", params.UsdAmount.String()),
			zap.String("wallet_cap", params.WalletCap.String()))
		return nil, fmt.Errorf("%w: total %s + requested %s > cap %s",
			store.ErrWalletCapExceeded, current.TotalUsd.String(), params.UsdAmount.String(), params.WalletCap.String())
	}

	now := time.Now().UTC()
	purchase := &models.Purchase{
		Id:            uuid.New().String(),
		WalletAddress: params.WalletAddress,
		Email:         params.Email,
		PaymentMethod: params.PaymentMethod,
		ReferralCode:  params.ReferralCode,
		UsdAmount:     params.UsdAmount,
		TokenPriceUSD: params.TokenPriceUSD,
		BaseTokens:    params.BaseTokens,
		BonusPercent:  params.BonusPercent,
		BonusTokens:   params.BonusTokens,
		TotalTokens:   params.TotalTokens,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = tx.ExecContext(ctx, s.q(queryInsertPurchase),
		purchase.Id, purchase.WalletAddress, purchase.Email, string(purchase.PaymentMethod), purchase.ReferralCode,
		purchase.UsdAmount.String(), purchase.TokenPriceUSD.String(), purchase.BaseTokens.String(),
		purchase.BonusPercent.String(), purchase.BonusTokens.String(), purchase.TotalTokens.String(),
		string(purchase.Status), purchase.ExternalRef, purchase.CreatedAt, purchase.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert purchase: %w", err)
	}

	if err := s.writeWalletTotalTx(ctx, tx, current, newTotal, current.PurchaseCount+1, purchase.Id, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Purchase created successfully",
		zap.String("purchase_id", purchase.Id),
		zap.String("wallet", purchase.WalletAddress),
		zap.String("old_total_usd", current.TotalUsd.String()),
		zap.String("new_total_usd", newTotal.String()))

	return purchase, nil
}

func (s *Service) GetPurchase(ctx context.Context, purchaseId string) (*models.Purchase, error) {
	purchase, err := scanPurchase(s.db.QueryRowContext(ctx, s.q(queryGetPurchase), purchaseId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrPurchaseNotFound, purchaseId)
	}
	if err != nil {
		zap.L().Error("Failed to query purchase", zap.String("purchase_id", purchaseId), zap.Error(err))
		return nil, fmt.Errorf("unable to query purchase: %w", err)
	}
	return purchase, nil
}

// GetPurchasesByWallet returns every purchase of a wallet, newest first
func (s *Service) GetPurchasesByWallet(ctx context.Context, wallet string) ([]models.Purchase, error) {
	zap.L().Debug("Querying purchases by wallet", zap.String("wallet", wallet))
	return s.queryPurchases(ctx, queryGetPurchasesByWallet, wallet)
}

// ListStalePurchases returns pending purchases created before the cutoff and
// processing purchases whose last status change is older than the cutoff
func (s *Service) ListStalePurchases(ctx context.Context, cutoff time.Time) ([]models.Purchase, error) {
	cutoff = cutoff.UTC()
	return s.queryPurchases(ctx, queryGetStalePurchases, cutoff, cutoff)
}

// UpdatePurchaseStatus applies a gateway status change. Moving into failed or
// refunded releases the purchase's USD from the wallet total in the same transaction.
func (s *Service) UpdatePurchaseStatus(ctx context.Context, params store.UpdateStatusParams) (*models.Purchase, error) {
	zap.L().Info("Updating purchase status",
		zap.String("purchase_id", params.PurchaseId),
		zap.String("status", string(params.Status)),
		zap.String("external_ref", params.ExternalRef))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	purchase, err := scanPurchase(tx.QueryRowContext(ctx, s.q(queryGetPurchase), params.PurchaseId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrPurchaseNotFound, params.PurchaseId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query purchase: %w", err)
	}

	statusChanged := purchase.Status != params.Status
	if !statusChanged {
		if params.ExternalRef == "" || params.ExternalRef == purchase.ExternalRef {
			zap.L().Info("Purchase already in requested status, skipping",
				zap.String("purchase_id", purchase.Id),
				zap.String("status", string(purchase.Status)))
			return purchase, nil
		}
		// a reference may be attached once; a different one for the same status is a conflicting callback
		if purchase.ExternalRef != "" {
			zap.L().Warn("Callback repeats status with a different external reference",
				zap.String("purchase_id", purchase.Id),
				zap.String("status", string(purchase.Status)),
				zap.String("stored_external_ref", purchase.ExternalRef),
				zap.String("external_ref", params.ExternalRef))
			return nil, fmt.Errorf("%w: purchase %s already has external_ref %s, got %s",
				store.ErrDuplicatePurchase, purchase.Id, purchase.ExternalRef, params.ExternalRef)
		}
	} else if !purchase.Status.CanTransitionTo(params.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", store.ErrInvalidStatusTransition, purchase.Status, params.Status)
	}

	externalRef := purchase.ExternalRef
	if params.ExternalRef != "" {
		externalRef = params.ExternalRef
	}

	if externalRef != "" {
		var existingId string
		err := tx.QueryRowContext(ctx, s.q(queryCheckDuplicateExternalRef), externalRef, purchase.Id).Scan(&existingId)
		if err == nil {
			zap.L().Warn("External payment reference already used by another purchase",
				zap.String("external_ref", externalRef),
				zap.String("existing_purchase_id", existingId))
			return nil, fmt.Errorf("%w: external_ref %s already attached to %s", store.ErrDuplicatePurchase, externalRef, existingId)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for duplicate external reference: %w", err)
		}
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, s.q(queryUpdatePurchaseStatus),
		string(params.Status), externalRef, now, purchase.Id, string(purchase.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to update purchase status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("status update failed - %w", store.ErrConcurrentModification)
	}

	if statusChanged && params.Status.ReleasesAllowance() {
		current, err := s.getWalletTotalTx(ctx, tx, purchase.WalletAddress)
		if err != nil {
			return nil, err
		}
		released := current.TotalUsd.Sub(purchase.UsdAmount)
		if err := s.writeWalletTotalTx(ctx, tx, current, released, current.PurchaseCount-1, purchase.Id, now); err != nil {
			return nil, err
		}
		zap.L().Info("Released wallet allowance",
			zap.String("wallet", purchase.WalletAddress),
			zap.String("released_usd", purchase.UsdAmount.String()),
			zap.String("new_total_usd", released.String()))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	previous := purchase.Status
	purchase.Status = params.Status
	purchase.ExternalRef = externalRef
	purchase.UpdatedAt = now

	zap.L().Info("Purchase status updated",
		zap.String("purchase_id", purchase.Id),
		zap.String("from", string(previous)),
		zap.String("to", string(purchase.Status)))

	return purchase, nil
}

func (s *Service) queryPurchases(ctx context.Context, query string, args ...any) ([]models.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		zap.L().Error("Failed to query purchases", zap.Error(err))
		return nil, fmt.Errorf("unable to query purchases: %w", err)
	}
	defer closeRows(rows)

	var purchases []models.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan purchase row: %w", err)
		}
		purchases = append(purchases, *purchase)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during purchase row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating purchase rows: %w", err)
	}

	return purchases, nil
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var p models.Purchase
	var method, status string
	var usdStr, priceStr, baseStr, bonusPctStr, bonusStr, totalStr string

	err := row.Scan(&p.Id, &p.WalletAddress, &p.Email, &method, &p.ReferralCode,
		&usdStr, &priceStr, &baseStr, &bonusPctStr, &bonusStr, &totalStr,
		&status, &p.ExternalRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.PaymentMethod = models.PaymentMethod(method)
	p.Status = models.PaymentStatus(status)

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"usd_amount", usdStr, &p.UsdAmount},
		{"token_price_usd", priceStr, &p.TokenPriceUSD},
		{"base_tokens", baseStr, &p.BaseTokens},
		{"bonus_percent", bonusPctStr, &p.BonusPercent},
		{"bonus_tokens", bonusStr, &p.BonusTokens},
		{"total_tokens", totalStr, &p.TotalTokens},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s '%s': %w", f.name, f.raw, err)
		}
	}

	return &p, nil
}
