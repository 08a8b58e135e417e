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
	"strings"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodETH  PaymentMethod = "ETH"
	PaymentMethodUSDT PaymentMethod = "USDT"
	PaymentMethodUSDC PaymentMethod = "USDC"
	PaymentMethodBTC  PaymentMethod = "BTC"
	PaymentMethodCard PaymentMethod = "CARD"
)

// ParsePaymentMethod accepts any casing of a supported method
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case PaymentMethodETH, PaymentMethodUSDT, PaymentMethodUSDC, PaymentMethodBTC, PaymentMethodCard:
		return m, true
	}
	return "", false
}

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusCompleted  PaymentStatus = "completed"
	StatusFailed     PaymentStatus = "failed"
	StatusRefunded   PaymentStatus = "refunded"
)

var statusTransitions = map[PaymentStatus][]PaymentStatus{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRefunded},
}

// ParsePaymentStatus returns the status for a gateway-supplied string
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch st := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRefunded:
		return st, true
	}
	return "", false
}

// CanTransitionTo reports whether a purchase in status s may move to next
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReleasesAllowance is true for statuses that no longer count against the wallet cap
func (s PaymentStatus) ReleasesAllowance() bool {
	return s == StatusFailed || s == StatusRefunded
}

// PurchaseRequest is an incoming purchase as submitted by a client
type PurchaseRequest struct {
	WalletAddress string          `json:"walletAddress"`
	PaymentMethod string          `json:"paymentMethod"`
	AmountUSD     decimal.Decimal `json:"amountUSD"`
	Email         string          `json:"email"`
	ReferralCode  string          `json:"referralCode,omitempty"`
}
