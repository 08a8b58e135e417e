package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase represents an accepted presale purchase
type Purchase struct {
	Id            string          `db:"id"`
	WalletAddress string          `db:"wallet_address"`
	Email         string          `db:"email"`
	PaymentMethod PaymentMethod   `db:"payment_method"`
	ReferralCode  string          `db:"referral_code"`
	UsdAmount     decimal.Decimal `db:"usd_amount"`
	TokenPriceUSD decimal.Decimal `db:"token_price_usd"`
	BaseTokens    decimal.Decimal `db:"base_tokens"`
	BonusPercent  decimal.Decimal `db:"bonus_percent"`
	BonusTokens   decimal.Decimal `db:"bonus_tokens"`
	TotalTokens   decimal.Decimal `db:"total_tokens"`
	Status        PaymentStatus   `db:"status"`
	ExternalRef   string          `db:"external_ref"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// WalletTotal is the running USD total for a wallet (hot data)
type WalletTotal struct {
	WalletAddress  string          `db:"wallet_address"`
	TotalUsd       decimal.Decimal `db:"total_usd"`
	PurchaseCount  int             `db:"purchase_count"`
	LastPurchaseId string          `db:"last_purchase_id"`
	Version        int64           `db:"version"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Claim records tokens released to a wallet
type Claim struct {
	Id            string          `db:"id"`
	WalletAddress string          `db:"wallet_address"`
	Amount        decimal.Decimal `db:"amount"`
	CreatedAt     time.Time       `db:"created_at"`
}

// BlacklistEntry is a wallet barred from purchasing
type BlacklistEntry struct {
	WalletAddress string    `db:"wallet_address"`
	Reason        string    `db:"reason"`
	CreatedAt     time.Time `db:"created_at"`
}

// ReferralStats aggregates purchases made with a referral code
type ReferralStats struct {
	Code          string          `json:"code"`
	PurchaseCount int             `json:"purchaseCount"`
	TotalUsd      decimal.Decimal `json:"totalUsd"`
	TotalTokens   decimal.Decimal `json:"totalTokens"`
}
