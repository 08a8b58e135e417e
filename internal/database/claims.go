package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// GetClaimedTokens returns the sum of all claims recorded for a wallet
func (s *Service) GetClaimedTokens(ctx context.Context, wallet string) (decimal.Decimal, error) {
	return s.sumClaims(ctx, s.db, wallet)
}

// CreateClaim records a claim unless it would take the wallet past MaxClaimable
func (s *Service) CreateClaim(ctx context.Context, params store.CreateClaimParams) (*models.Claim, error) {
	zap.L().Info("Creating claim",
		zap.String("wallet", params.WalletAddress),
		zap.String("amount", params.Amount.String()),
		zap.String("max_claimable", params.MaxClaimable.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, s.q(queryLockWalletTotal), params.WalletAddress); err != nil {
		return nil, fmt.Errorf("failed to lock wallet total: %w", err)
	}

	claimed, err := s.sumClaims(ctx, tx, params.WalletAddress)
	if err != nil {
		return nil, err
	}

	if claimed.Add(params.Amount).GreaterThan(params.MaxClaimable) {
		return nil, fmt.Errorf("%w: claimed %s + requested %s > unlocked %s",
			store.ErrClaimExceedsUnlocked, claimed.String(), params.Amount.String(), params.MaxClaimable.String())
	}

	claim := &models.Claim{
		Id:            uuid.New().String(),
		WalletAddress: params.WalletAddress,
		Amount:        params.Amount,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, s.q(queryInsertClaim), claim.Id, claim.WalletAddress, claim.Amount.String(), claim.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Claim recorded",
		zap.String("claim_id", claim.Id),
		zap.String("wallet", claim.WalletAddress),
		zap.String("claimed_total", claimed.Add(claim.Amount).String()))

	return claim, nil
}

func (s *Service) sumClaims(ctx context.Context, db queryer, wallet string) (decimal.Decimal, error) {
	rows, err := db.QueryContext(ctx, s.q(queryGetClaimAmounts), wallet)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query claims: %w", err)
	}
	defer closeRows(rows)

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan claim: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse claim amount '%s': %w", amountStr, err)
		}
		total = total.Add(amount)
	}

	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating claim rows: %w", err)
	}
	return total, nil
}
