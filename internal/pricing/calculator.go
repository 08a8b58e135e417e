package pricing

import (
	"fmt"
	"math"
	"sort"

	"token-presale-go/internal/models"
)

// Calculator converts USD amounts into base and bonus tokens.
// It is immutable once built and safe for concurrent use.
type Calculator struct {
	tokenPriceUSD float64
	tiers         []models.BonusTier // descending by MinUSD
}

// NewCalculator validates the tier table and returns a calculator for it.
// Tiers may be given in any order; they are scanned highest threshold first.
func NewCalculator(tokenPriceUSD float64, tiers []models.BonusTier) (*Calculator, error) {
	if tokenPriceUSD <= 0 || math.IsNaN(tokenPriceUSD) || math.IsInf(tokenPriceUSD, 0) {
		return nil, fmt.Errorf("token price must be a positive finite number, got %v", tokenPriceUSD)
	}

	sorted := make([]models.BonusTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinUSD > sorted[j].MinUSD })

	for i, tier := range sorted {
		if tier.MinUSD < 0 || math.IsNaN(tier.MinUSD) {
			return nil, fmt.Errorf("bonus tier threshold must be non-negative, got %v", tier.MinUSD)
		}
		if tier.BonusPercent < 0 || math.IsNaN(tier.BonusPercent) {
			return nil, fmt.Errorf("bonus percent must be non-negative, got %v", tier.BonusPercent)
		}
		if i > 0 && sorted[i-1].MinUSD == tier.MinUSD {
			return nil, fmt.Errorf("duplicate bonus tier threshold %v", tier.MinUSD)
		}
	}

	return &Calculator{tokenPriceUSD: tokenPriceUSD, tiers: sorted}, nil
}

// TokenPriceUSD returns the configured token price
func (c *Calculator) TokenPriceUSD() float64 {
	return c.tokenPriceUSD
}

// Tiers returns a copy of the tier table, highest threshold first
func (c *Calculator) Tiers() []models.BonusTier {
	out := make([]models.BonusTier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// BonusPercentage returns the bonus of the highest tier whose threshold is <= usdAmount.
func (c *Calculator) BonusPercentage(usdAmount float64) float64 {
	for _, tier := range c.tiers {
		if usdAmount >= tier.MinUSD {
			return tier.BonusPercent
		}
	}
	return 0
}

// Calculate quotes a purchase. Input is not validated and no rounding is applied.
func (c *Calculator) Calculate(usdAmount float64) models.TokenQuote {
	baseTokens := usdAmount / c.tokenPriceUSD
	bonusPercentage := c.BonusPercentage(usdAmount)
	bonusTokens := baseTokens * bonusPercentage / 100

	return models.TokenQuote{
		UsdAmount:       usdAmount,
		BaseTokens:      baseTokens,
		BonusPercentage: bonusPercentage,
		BonusTokens:     bonusTokens,
		TotalTokens:     baseTokens + bonusTokens,
	}
}
