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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Error codes returned to API clients
const (
	CodeValidation    = "validation_error"
	CodeLimitExceeded = "limit_exceeded"
	CodeBlacklisted   = "blacklisted"
	CodeSaleInactive  = "sale_inactive"
	CodeConflict      = "conflict"
	CodeNotFound      = "not_found"
	CodeInternal      = "internal_error"
)

// TokenQuote is the calculator output for a USD amount
type TokenQuote struct {
	UsdAmount       float64 `json:"usdAmount"`
	BaseTokens      float64 `json:"baseTokens"`
	BonusPercentage float64 `json:"bonusPercentage"`
	BonusTokens     float64 `json:"bonusTokens"`
	TotalTokens     float64 `json:"totalTokens"`
}

// WalletLimit is the derived purchase allowance of a wallet
type WalletLimit struct {
	WalletAddress  string          `json:"walletAddress"`
	TotalPurchased decimal.Decimal `json:"totalPurchased"`
	WalletLimit    decimal.Decimal `json:"walletLimit"`
	Remaining      decimal.Decimal `json:"remaining"`
	PurchaseCount  int             `json:"purchaseCount"`
	CanPurchase    bool            `json:"canPurchase"`
}

// PurchaseResult represents the result of submitting a purchase
type PurchaseResult struct {
	Success    bool         `json:"success"`
	PurchaseId string       `json:"purchaseId,omitempty"`
	Status     string       `json:"status,omitempty"`
	Quote      *TokenQuote  `json:"quote,omitempty"`
	Limit      *WalletLimit `json:"limit,omitempty"`
	Error      string       `json:"error,omitempty"`
	Code       string       `json:"code,omitempty"`
}

// PaymentUpdateResult represents the result of a payment gateway callback
type PaymentUpdateResult struct {
	Success    bool   `json:"success"`
	PurchaseId string `json:"purchaseId,omitempty"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
}

// PurchaseRecord represents a purchase in a wallet's history
type PurchaseRecord struct {
	Id            string          `json:"id"`
	PaymentMethod string          `json:"paymentMethod"`
	UsdAmount     decimal.Decimal `json:"usdAmount"`
	BaseTokens    decimal.Decimal `json:"baseTokens"`
	BonusTokens   decimal.Decimal `json:"bonusTokens"`
	TotalTokens   decimal.Decimal `json:"totalTokens"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// VestingInterval is one monthly release of a schedule
type VestingInterval struct {
	Index      int             `json:"index"`
	Release    decimal.Decimal `json:"release"`
	Cumulative decimal.Decimal `json:"cumulative"`
	UnlockAt   *time.Time      `json:"unlockAt,omitempty"`
}

// VestingSchedule splits a token total into an immediate unlock and monthly releases
type VestingSchedule struct {
	TotalTokens       decimal.Decimal   `json:"totalTokens"`
	ImmediateFraction decimal.Decimal   `json:"immediateFraction"`
	ImmediateUnlock   decimal.Decimal   `json:"immediateUnlock"`
	MonthlyRelease    decimal.Decimal   `json:"monthlyRelease"`
	Intervals         []VestingInterval `json:"intervals"`
}

// VestingStatus is a wallet's schedule together with its claim position
type VestingStatus struct {
	WalletAddress string          `json:"walletAddress"`
	Schedule      VestingSchedule `json:"schedule"`
	Unlocked      decimal.Decimal `json:"unlocked"`
	Claimed       decimal.Decimal `json:"claimed"`
	Claimable     decimal.Decimal `json:"claimable"`
}

// ClaimResult represents the result of a claim request
type ClaimResult struct {
	Success   bool            `json:"success"`
	ClaimId   string          `json:"claimId,omitempty"`
	Amount    decimal.Decimal `json:"amount,omitempty"`
	Claimable decimal.Decimal `json:"claimable,omitempty"`
	Error     string          `json:"error,omitempty"`
	Code      string          `json:"code,omitempty"`
}
