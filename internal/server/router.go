package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustedProxies decides whose X-Forwarded-For sets the client IP used as the rate limit key
	TrustedProxies []string
}

func SetupRouter(h *PresaleHandler, counter RateCounter, cfg RouterConfig) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), requestContext(), requestLogger())

	r.GET("/health", h.Health)

	presale := r.Group("/api/v1/presale")
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
		presale.Use(rateLimit(counter, cfg.RateLimitRequests, cfg.RateLimitWindow))
	}
	{
		presale.GET("/quote", h.GetQuote)
		presale.POST("/purchases", h.CreatePurchase)
		presale.GET("/wallets/:address/limit", h.GetWalletLimit)
		presale.GET("/wallets/:address/purchases", h.GetPurchaseHistory)
		presale.GET("/wallets/:address/vesting", h.GetVesting)
		presale.POST("/wallets/:address/claims", h.CreateClaim)
		presale.GET("/referrals/:code", h.GetReferralStats)
	}

	// gateway callbacks are authenticated by secret and not rate limited
	r.POST("/api/v1/presale/payments/callback", h.PaymentCallback)

	return r, nil
}
