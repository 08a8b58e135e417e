package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"token-presale-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// saleFile mirrors sale.yaml. Amounts and times are strings so they parse exactly.
type saleFile struct {
	TokenPriceUSD     float64            `yaml:"token_price_usd"`
	WalletCapUSD      string             `yaml:"wallet_cap_usd"`
	BonusTiers        []models.BonusTier `yaml:"bonus_tiers"`
	ImmediateFraction string             `yaml:"immediate_fraction"`
	VestingIntervals  int                `yaml:"vesting_intervals"`
	VestingStart      string             `yaml:"vesting_start"`
	SaleStart         string             `yaml:"sale_start"`
	SaleEnd           string             `yaml:"sale_end"`
}

func DefaultSaleConfig() models.SaleConfig {
	return models.SaleConfig{
		TokenPriceUSD: 0.0015,
		WalletCapUSD:  decimal.NewFromInt(500),
		BonusTiers: []models.BonusTier{
			{MinUSD: 50, BonusPercent: 5},
			{MinUSD: 100, BonusPercent: 10},
			{MinUSD: 250, BonusPercent: 20},
			{MinUSD: 500, BonusPercent: 30},
		},
		ImmediateFraction: decimal.RequireFromString("0.4"),
		VestingIntervals:  6,
	}
}

// LoadSaleConfig reads sale parameters from a YAML file. Fields left out keep their defaults.
func LoadSaleConfig(saleFilePath string) (*models.SaleConfig, error) {
	path := saleFilePath
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, saleFilePath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", saleFilePath, err)
	}

	return parseSaleConfig(data, saleFilePath)
}

func parseSaleConfig(data []byte, name string) (*models.SaleConfig, error) {
	var file saleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", name, err)
	}

	sale := DefaultSaleConfig()
	var err error

	if file.TokenPriceUSD != 0 {
		sale.TokenPriceUSD = file.TokenPriceUSD
	}
	if file.WalletCapUSD != "" {
		if sale.WalletCapUSD, err = decimal.NewFromString(file.WalletCapUSD); err != nil {
			return nil, fmt.Errorf("invalid wallet_cap_usd %q: %w", file.WalletCapUSD, err)
		}
	}
	if file.BonusTiers != nil {
		sale.BonusTiers = file.BonusTiers
	}
	if file.ImmediateFraction != "" {
		if sale.ImmediateFraction, err = decimal.NewFromString(file.ImmediateFraction); err != nil {
			return nil, fmt.Errorf("invalid immediate_fraction %q: %w", file.ImmediateFraction, err)
		}
	}
	if file.VestingIntervals != 0 {
		sale.VestingIntervals = file.VestingIntervals
	}
	if sale.VestingStart, err = parseTime("vesting_start", file.VestingStart); err != nil {
		return nil, err
	}
	if sale.SaleStart, err = parseTime("sale_start", file.SaleStart); err != nil {
		return nil, err
	}
	if sale.SaleEnd, err = parseTime("sale_end", file.SaleEnd); err != nil {
		return nil, err
	}

	if err := ValidateSaleConfig(sale); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &sale, nil
}

func parseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, expected RFC3339: %w", field, value, err)
	}
	return t.UTC(), nil
}

// ValidateSaleConfig checks the values that the calculator does not
func ValidateSaleConfig(sale models.SaleConfig) error {
	if sale.TokenPriceUSD <= 0 {
		return fmt.Errorf("token price must be positive, got %v", sale.TokenPriceUSD)
	}
	if !sale.WalletCapUSD.IsPositive() {
		return fmt.Errorf("wallet cap must be positive, got %s", sale.WalletCapUSD)
	}
	if sale.ImmediateFraction.IsNegative() || sale.ImmediateFraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("immediate fraction must be between 0 and 1, got %s", sale.ImmediateFraction)
	}
	if sale.VestingIntervals < 1 {
		return fmt.Errorf("vesting intervals must be at least 1, got %d", sale.VestingIntervals)
	}
	if !sale.SaleStart.IsZero() && !sale.SaleEnd.IsZero() && !sale.SaleEnd.After(sale.SaleStart) {
		return fmt.Errorf("sale end %s must be after sale start %s", sale.SaleEnd, sale.SaleStart)
	}
	return nil
}
