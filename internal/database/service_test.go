package database

import (
	"context"
	"database/sql"
	"testing"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const (
	testWallet  = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	testWallet2 = "0x8ba1f109551bd432803012645ac136ddd64dba72"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every pooled connection to :memory: would get its own empty database
	db.SetMaxOpenConns(1)

	service := newServiceFromDB(db, dialect{driver: DriverSQLite})
	if err := service.InitSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func purchaseParams(wallet string, usd string) store.CreatePurchaseParams {
	amount := decimal.RequireFromString(usd)
	price := decimal.RequireFromString("0.0015")
	base := amount.Div(price)
	return store.CreatePurchaseParams{
		WalletAddress: wallet,
		Email:         "buyer@example.com",
		PaymentMethod: models.PaymentMethodUSDT,
		UsdAmount:     amount,
		TokenPriceUSD: price,
		BaseTokens:    base,
		BonusPercent:  decimal.Zero,
		BonusTokens:   decimal.Zero,
		TotalTokens:   base,
		WalletCap:     decimal.NewFromInt(500),
	}
}

func mustCreatePurchase(t *testing.T, service *Service, params store.CreatePurchaseParams) *models.Purchase {
	t.Helper()
	purchase, err := service.CreatePurchase(context.Background(), params)
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}
	return purchase
}

func TestInitSchema_Idempotent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	if err := service.InitSchema(context.Background()); err != nil {
		t.Fatalf("Second InitSchema failed: %v", err)
	}
}

func TestPing(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	if err := service.Ping(context.Background()); err != nil {
		t.Errorf("Expected ping to succeed, got %v", err)
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.DatabaseConfig
	}{
		{"empty path", models.DatabaseConfig{Driver: DriverSQLite, MaxOpenConns: 1, PingTimeout: 1}},
		{"zero max open", models.DatabaseConfig{Driver: DriverSQLite, Path: "x.db", PingTimeout: 1}},
		{"negative idle", models.DatabaseConfig{Driver: DriverSQLite, Path: "x.db", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: 1}},
		{"zero ping timeout", models.DatabaseConfig{Driver: DriverSQLite, Path: "x.db", MaxOpenConns: 1}},
		{"unknown driver", models.DatabaseConfig{Driver: "mysql", Path: "x.db", MaxOpenConns: 1, PingTimeout: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(context.Background(), tt.cfg); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}
