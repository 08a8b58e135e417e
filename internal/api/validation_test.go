package api

import (
	"errors"
	"testing"

	"token-presale-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestNormalizeWalletAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"checksummed", testWallet, testWalletLower, false},
		{"upper prefix", "0X742D35CC6634C0532925A3B844BC454E4438F44E", testWalletLower, false},
		{"surrounding spaces", "  " + testWalletLower + " ", testWalletLower, false},
		{"missing prefix", "742d35cc6634c0532925a3b844bc454e4438f44e", "", true},
		{"too short", "0x742d35cc", "", true},
		{"not hex", "0x742d35cc6634c0532925a3b844bc454e4438f44g", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeWalletAddress(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("Expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestChecksumAddress(t *testing.T) {
	if got := ChecksumAddress(testWalletLower); got != testWallet {
		t.Errorf("Expected %s, got %s", testWallet, got)
	}
}

func TestValidatePurchaseRequest(t *testing.T) {
	valid := models.PurchaseRequest{
		WalletAddress: testWallet,
		PaymentMethod: "eth",
		AmountUSD:     decimal.NewFromInt(100),
		Email:         "Buyer@Example.com",
		ReferralCode:  "alpha-1",
	}

	got, err := validatePurchaseRequest(valid)
	if err != nil {
		t.Fatalf("Expected valid request, got %v", err)
	}
	if got.method != models.PaymentMethodETH || got.email != "buyer@example.com" || got.referralCode != "ALPHA-1" {
		t.Errorf("Unexpected normalization: %+v", got)
	}

	tests := []struct {
		name   string
		mutate func(r *models.PurchaseRequest)
	}{
		{"bad wallet", func(r *models.PurchaseRequest) { r.WalletAddress = "0x123" }},
		{"bad method", func(r *models.PurchaseRequest) { r.PaymentMethod = "DOGE" }},
		{"zero amount", func(r *models.PurchaseRequest) { r.AmountUSD = decimal.Zero }},
		{"negative amount", func(r *models.PurchaseRequest) { r.AmountUSD = decimal.NewFromInt(-5) }},
		{"sub-cent amount", func(r *models.PurchaseRequest) { r.AmountUSD = decimal.RequireFromString("100.005") }},
		{"beyond column precision", func(r *models.PurchaseRequest) {
			r.AmountUSD = decimal.RequireFromString("0.0000000000000000001")
		}},
		{"bad email", func(r *models.PurchaseRequest) { r.Email = "not-an-email" }},
		{"bad referral", func(r *models.PurchaseRequest) { r.ReferralCode = "has spaces" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if _, err := validatePurchaseRequest(req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestValidatePurchaseRequest_CentPrecision(t *testing.T) {
	for _, amount := range []string{"100", "99.9", "49.99", "250.50", "100.000"} {
		req := models.PurchaseRequest{
			WalletAddress: testWallet,
			PaymentMethod: "usdc",
			AmountUSD:     decimal.RequireFromString(amount),
			Email:         "buyer@example.com",
		}
		if _, err := validatePurchaseRequest(req); err != nil {
			t.Errorf("Expected %s to be accepted, got %v", amount, err)
		}
	}
}
