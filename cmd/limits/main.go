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
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"token-presale-go/internal/api"
	"token-presale-go/internal/common"
	"token-presale-go/internal/config"
	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type limitStats struct {
	walletsQueried  int
	walletsAtCap    int
	totalUsd        decimal.Decimal
	reconcileFailed int
}

func printWallet(wallet models.WalletTotal, walletCap decimal.Decimal, reconcileErr error, reconciled bool) {
	remaining := walletCap.Sub(wallet.TotalUsd)

	fmt.Printf("\n┌─ Wallet: %s\n", api.ChecksumAddress(wallet.WalletAddress))
	fmt.Printf("%s Purchased: %12s of %s %s\n", common.BoxPrefix(false),
		common.FormatUSD(wallet.TotalUsd), common.FormatUSD(walletCap), common.UsageBar(wallet.TotalUsd, walletCap, 20))
	fmt.Printf("%s Remaining: %12s (%d purchases)\n", common.BoxPrefix(!reconciled && wallet.Version == 0),
		common.FormatUSD(remaining), wallet.PurchaseCount)
	if wallet.Version > 0 {
		fmt.Printf("%s Version:   v%d, updated %s\n", common.BoxPrefix(!reconciled),
			wallet.Version, wallet.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if reconciled {
		status := "✓ matches purchases"
		if reconcileErr != nil {
			status = "✗ " + reconcileErr.Error()
		}
		fmt.Printf("%s Reconcile: %s\n", common.BoxPrefix(true), status)
	}
}

func generateReport(ctx context.Context, wallets []models.WalletTotal, dbService store.PurchaseStore, walletCap decimal.Decimal, reconcile bool, logger *zap.Logger) limitStats {
	stats := limitStats{totalUsd: decimal.Zero}

	for _, wallet := range wallets {
		stats.walletsQueried++
		stats.totalUsd = stats.totalUsd.Add(wallet.TotalUsd)
		if !wallet.TotalUsd.LessThan(walletCap) {
			stats.walletsAtCap++
		}

		var reconcileErr error
		if reconcile {
			reconcileErr = dbService.ReconcileWalletTotal(ctx, wallet.WalletAddress)
			if reconcileErr != nil {
				stats.reconcileFailed++
				logger.Error("Wallet total does not match purchases",
					zap.String("wallet", wallet.WalletAddress),
					zap.Error(reconcileErr))
			}
		}

		printWallet(wallet, walletCap, reconcileErr, reconcile)
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	walletFlag := flag.String("wallet", "", "Report a single wallet address (optional)")
	reconcileFlag := flag.Bool("reconcile", false, "Verify stored totals against the purchase rows")
	flag.Parse()

	logger.Info("Starting wallet limit report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	walletFilter := ""
	if *walletFlag != "" {
		walletFilter, err = api.NormalizeWalletAddress(*walletFlag)
		if err != nil {
			logger.Fatal("Invalid wallet address", zap.String("wallet", *walletFlag), zap.Error(err))
		}
	}

	logger.Info("Connecting to database", zap.String("driver", cfg.Database.Driver))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	wallets, err := common.LoadWallets(ctx, dbService, walletFilter, logger)
	if err != nil {
		logger.Fatal("Failed to load wallets", zap.Error(err))
	}

	common.PrintHeader("WALLET PURCHASE LIMIT REPORT (cap "+common.FormatUSD(cfg.Sale.WalletCapUSD)+")", common.DefaultWidth)

	stats := generateReport(ctx, wallets, dbService, cfg.Sale.WalletCapUSD, *reconcileFlag, logger)

	var summary strings.Builder
	fmt.Fprintf(&summary, "SUMMARY: %d wallets, %s raised, %d at cap",
		stats.walletsQueried, common.FormatUSD(stats.totalUsd), stats.walletsAtCap)
	if *reconcileFlag {
		fmt.Fprintf(&summary, ", %d reconciliation failures", stats.reconcileFailed)
	}
	common.PrintFooter(summary.String(), common.DefaultWidth)

	logger.Info("Wallet limit report completed",
		zap.Int("wallets_queried", stats.walletsQueried),
		zap.Int("wallets_at_cap", stats.walletsAtCap),
		zap.String("total_usd", stats.totalUsd.String()),
		zap.Int("reconcile_failures", stats.reconcileFailed))

	if stats.reconcileFailed > 0 {
		loggerCleanup()
		os.Exit(1)
	}
}
