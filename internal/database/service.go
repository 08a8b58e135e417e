/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.PurchaseStore.
var _ store.PurchaseStore = (*Service)(nil)

type Service struct {
	db      *sql.DB
	dialect dialect
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	d, err := newDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Opening database", zap.String("driver", cfg.Driver))
	db, err := sql.Open(cfg.Driver, d.dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := newServiceFromDB(db, d)
	if err := service.InitSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after schema failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func newServiceFromDB(db *sql.DB, d dialect) *Service {
	return &Service{db: db, dialect: d}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) q(query string) string {
	return s.dialect.rebind(query)
}

func (s *Service) InitSchema(ctx context.Context) error {
	amount := s.dialect.amountType()

	statements := []string{
		// Purchases (audit trail, one row per accepted request)
		`CREATE TABLE IF NOT EXISTS purchases (
			id TEXT PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			email TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			referral_code TEXT NOT NULL DEFAULT '',
			usd_amount ` + amount + ` NOT NULL,
			token_price_usd ` + amount + ` NOT NULL,
			base_tokens ` + amount + ` NOT NULL,
			bonus_percent ` + amount + ` NOT NULL,
			bonus_tokens ` + amount + ` NOT NULL,
			total_tokens ` + amount + ` NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			external_ref TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_wallet ON purchases(wallet_address)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_status_created ON purchases(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_referral ON purchases(referral_code)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_purchases_external_ref ON purchases(external_ref) WHERE external_ref <> ''`,

		// Wallet totals (current state, versioned for optimistic locking)
		`CREATE TABLE IF NOT EXISTS wallet_totals (
			wallet_address TEXT PRIMARY KEY,
			total_usd ` + amount + ` NOT NULL,
			purchase_count INTEGER NOT NULL DEFAULT 0,
			last_purchase_id TEXT NOT NULL DEFAULT '',
			version BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS blacklist (
			wallet_address TEXT PRIMARY KEY,
			reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS claims (
			id TEXT PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			amount ` + amount + ` NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_wallet ON claims(wallet_address)`,

		// Shared rate limit counters, expiry in unix milliseconds
		`CREATE TABLE IF NOT EXISTS rate_limits (
			client_key TEXT PRIMARY KEY,
			hits INTEGER NOT NULL,
			expires_at BIGINT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		zap.L().Warn("Failed to roll back transaction", zap.Error(err))
	}
}
