package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"token-presale-go/internal/models"

	"go.uber.org/zap"
)

func (s *Service) IsBlacklisted(ctx context.Context, wallet string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(queryIsBlacklisted), wallet).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		zap.L().Error("Failed to check blacklist", zap.String("wallet", wallet), zap.Error(err))
		return false, fmt.Errorf("unable to check blacklist: %w", err)
	}
	return true, nil
}

// AddToBlacklist inserts the wallet or updates the reason of an existing entry
func (s *Service) AddToBlacklist(ctx context.Context, wallet, reason string) error {
	zap.L().Info("Blacklisting wallet", zap.String("wallet", wallet), zap.String("reason", reason))

	if _, err := s.db.ExecContext(ctx, s.q(queryInsertBlacklist), wallet, reason, time.Now().UTC()); err != nil {
		zap.L().Error("Failed to blacklist wallet", zap.String("wallet", wallet), zap.Error(err))
		return fmt.Errorf("unable to blacklist wallet: %w", err)
	}
	return nil
}

// RemoveFromBlacklist reports whether an entry was removed
func (s *Service) RemoveFromBlacklist(ctx context.Context, wallet string) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.q(queryDeleteBlacklist), wallet)
	if err != nil {
		return false, fmt.Errorf("unable to remove wallet from blacklist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to get rows affected: %w", err)
	}

	zap.L().Info("Blacklist removal", zap.String("wallet", wallet), zap.Bool("removed", rowsAffected > 0))
	return rowsAffected > 0, nil
}

func (s *Service) ListBlacklist(ctx context.Context) ([]models.BlacklistEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryListBlacklist))
	if err != nil {
		return nil, fmt.Errorf("unable to query blacklist: %w", err)
	}
	defer closeRows(rows)

	var entries []models.BlacklistEntry
	for rows.Next() {
		var e models.BlacklistEntry
		if err := rows.Scan(&e.WalletAddress, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan blacklist row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blacklist rows: %w", err)
	}
	return entries, nil
}
