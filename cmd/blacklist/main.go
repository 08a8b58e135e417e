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

	"token-presale-go/internal/api"
	"token-presale-go/internal/common"
	"token-presale-go/internal/config"
	"token-presale-go/internal/models"

	"go.uber.org/zap"
)

func validateReason(reason string) error {
	if reason == "" {
		return fmt.Errorf("reason cannot be empty")
	}
	if len(reason) > 256 {
		return fmt.Errorf("reason must be at most 256 characters")
	}
	return nil
}

func printEntries(entries []models.BlacklistEntry) {
	for i, entry := range entries {
		isLast := i == len(entries)-1
		fmt.Printf("%s%s  %s\n", common.BoxPrefix(isLast), api.ChecksumAddress(entry.WalletAddress),
			entry.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("%s   reason: %s\n", common.BoxDetailPrefix(isLast), entry.Reason)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  blacklist -action list\n")
	fmt.Fprintf(os.Stderr, "  blacklist -action add -wallet 0x... -reason \"...\"\n")
	fmt.Fprintf(os.Stderr, "  blacklist -action remove -wallet 0x...\n")
	flag.PrintDefaults()
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	actionFlag := flag.String("action", "list", "One of: list, add, remove")
	walletFlag := flag.String("wallet", "", "Wallet address (add, remove)")
	reasonFlag := flag.String("reason", "", "Reason for blacklisting (add)")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	var wallet string
	if *actionFlag == "add" || *actionFlag == "remove" {
		wallet, err = api.NormalizeWalletAddress(*walletFlag)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			usage()
			os.Exit(2)
		}
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	switch *actionFlag {
	case "list":
		entries, err := dbService.ListBlacklist(ctx)
		if err != nil {
			logger.Fatal("Failed to list blacklist", zap.Error(err))
		}
		common.PrintHeader("BLACKLISTED WALLETS", common.DefaultWidth)
		printEntries(entries)
		common.PrintFooter(fmt.Sprintf("SUMMARY: %d blacklisted wallets", len(entries)), common.DefaultWidth)

	case "add":
		if err := validateReason(*reasonFlag); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(2)
		}
		if err := dbService.AddToBlacklist(ctx, wallet, *reasonFlag); err != nil {
			logger.Fatal("Failed to blacklist wallet", zap.Error(err))
		}
		fmt.Printf("✓ %s blacklisted: %s\n", api.ChecksumAddress(wallet), *reasonFlag)

	case "remove":
		removed, err := dbService.RemoveFromBlacklist(ctx, wallet)
		if err != nil {
			logger.Fatal("Failed to remove wallet from blacklist", zap.Error(err))
		}
		if removed {
			fmt.Printf("✓ %s removed from blacklist\n", api.ChecksumAddress(wallet))
		} else {
			fmt.Printf("~ %s was not blacklisted\n", api.ChecksumAddress(wallet))
		}

	default:
		usage()
		os.Exit(2)
	}
}
