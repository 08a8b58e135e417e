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

const (
	purchaseColumns = `id, wallet_address, email, payment_method, referral_code, usd_amount, token_price_usd,
		base_tokens, bonus_percent, bonus_tokens, total_tokens, status, external_ref, created_at, updated_at`

	// Purchase queries
	queryInsertPurchase = `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPurchase = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE id = ?`

	queryGetPurchasesByWallet = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE wallet_address = ?
		ORDER BY created_at DESC`

	queryGetStalePurchases = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE (status = 'pending' AND created_at < ?)
			OR (status = 'processing' AND updated_at < ?)
		ORDER BY created_at`

	queryUpdatePurchaseStatus = `
		UPDATE purchases
		SET status = ?, external_ref = ?, updated_at = ?
		WHERE id = ? AND status = ?`

	queryCheckDuplicateExternalRef = `
		SELECT id FROM purchases WHERE external_ref = ? AND id != ? LIMIT 1`

	queryGetWalletPurchaseAmounts = `
		SELECT usd_amount, status
		FROM purchases
		WHERE wallet_address = ?`

	queryGetReferralPurchases = `
		SELECT usd_amount, total_tokens
		FROM purchases
		WHERE referral_code = ? AND status IN ('pending', 'processing', 'completed')`

	// Wallet total queries
	queryGetWalletTotal = `
		SELECT total_usd, purchase_count, version
		FROM wallet_totals
		WHERE wallet_address = ?`

	queryInsertWalletTotal = `
		INSERT INTO wallet_totals (wallet_address, total_usd, purchase_count, last_purchase_id, version, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT (wallet_address) DO NOTHING`

	queryUpdateWalletTotal = `
		UPDATE wallet_totals
		SET total_usd = ?, purchase_count = ?, last_purchase_id = ?, version = version + 1, updated_at = ?
		WHERE wallet_address = ? AND version = ?`

	// Row-locks the wallet total so claims for one wallet are serialized; version is unchanged
	queryLockWalletTotal = `
		UPDATE wallet_totals SET version = version WHERE wallet_address = ?`

	queryListWalletTotals = `
		SELECT wallet_address, total_usd, purchase_count, last_purchase_id, version, updated_at
		FROM wallet_totals
		ORDER BY wallet_address`

	// Blacklist queries
	queryIsBlacklisted = `
		SELECT 1 FROM blacklist WHERE wallet_address = ?`

	queryInsertBlacklist = `
		INSERT INTO blacklist (wallet_address, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (wallet_address) DO UPDATE SET reason = excluded.reason`

	queryDeleteBlacklist = `
		DELETE FROM blacklist WHERE wallet_address = ?`

	queryListBlacklist = `
		SELECT wallet_address, reason, created_at
		FROM blacklist
		ORDER BY created_at`

	// Claim queries
	queryGetClaimAmounts = `
		SELECT amount FROM claims WHERE wallet_address = ?`

	queryInsertClaim = `
		INSERT INTO claims (id, wallet_address, amount, created_at)
		VALUES (?, ?, ?, ?)`

	// Rate limit queries
	queryIncrementRateCounter = `
		INSERT INTO rate_limits (client_key, hits, expires_at)
		VALUES (?, 1, ?)
		ON CONFLICT (client_key) DO UPDATE SET
			hits = CASE WHEN rate_limits.expires_at <= ? THEN 1 ELSE rate_limits.hits + 1 END,
			expires_at = CASE WHEN rate_limits.expires_at <= ? THEN ? ELSE rate_limits.expires_at END
		RETURNING hits, expires_at`

	queryDeleteExpiredRateCounters = `
		DELETE FROM rate_limits WHERE expires_at <= ?`
)
