package server

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"token-presale-go/internal/api"
	"token-presale-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const callbackSecretHeader = "X-Callback-Secret"

var codeStatus = map[string]int{
	models.CodeValidation:    http.StatusBadRequest,
	models.CodeLimitExceeded: http.StatusBadRequest,
	models.CodeBlacklisted:   http.StatusForbidden,
	models.CodeSaleInactive:  http.StatusForbidden,
	models.CodeConflict:      http.StatusConflict,
	models.CodeNotFound:      http.StatusNotFound,
	models.CodeInternal:      http.StatusInternalServerError,
}

func statusForCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type PresaleHandler struct {
	svc            *api.PresaleService
	callbackSecret string
}

func NewPresaleHandler(svc *api.PresaleService, callbackSecret string) *PresaleHandler {
	return &PresaleHandler{svc: svc, callbackSecret: callbackSecret}
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, api.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": models.CodeValidation})
		return
	}
	zap.L().Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error", "code": models.CodeInternal})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message, "code": models.CodeValidation})
}

// POST /api/v1/presale/purchases
func (h *PresaleHandler) CreatePurchase(c *gin.Context) {
	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.svc.CreatePurchase(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	if !result.Success {
		c.JSON(statusForCode(result.Code), result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /api/v1/presale/wallets/:address/limit
func (h *PresaleHandler) GetWalletLimit(c *gin.Context) {
	limit, err := h.svc.GetWalletLimit(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, limit)
}

// GET /api/v1/presale/quote?amountUSD=
func (h *PresaleHandler) GetQuote(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amountUSD"))
	if err != nil {
		badRequest(c, "amountUSD must be a number")
		return
	}

	quote, err := h.svc.Quote(amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GET /api/v1/presale/wallets/:address/purchases
func (h *PresaleHandler) GetPurchaseHistory(c *gin.Context) {
	records, err := h.svc.GetPurchaseHistory(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(records), "records": records})
}

// GET /api/v1/presale/wallets/:address/vesting
func (h *PresaleHandler) GetVesting(c *gin.Context) {
	status, err := h.svc.GetVestingStatus(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type claimRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// POST /api/v1/presale/wallets/:address/claims
func (h *PresaleHandler) CreateClaim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.svc.Claim(c.Request.Context(), c.Param("address"), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	if !result.Success {
		c.JSON(statusForCode(result.Code), result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /api/v1/presale/referrals/:code
func (h *PresaleHandler) GetReferralStats(c *gin.Context) {
	stats, err := h.svc.GetReferralStats(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type paymentCallbackRequest struct {
	PurchaseId  string `json:"purchaseId"`
	Status      string `json:"status"`
	ExternalRef string `json:"externalRef"`
}

// POST /api/v1/presale/payments/callback
func (h *PresaleHandler) PaymentCallback(c *gin.Context) {
	provided := c.GetHeader(callbackSecretHeader)
	if h.callbackSecret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.callbackSecret)) != 1 {
		zap.L().Warn("Rejected payment callback with bad secret", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}

	var req paymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.svc.HandlePaymentCallback(c.Request.Context(), req.PurchaseId, req.Status, req.ExternalRef)
	if err != nil {
		writeError(c, err)
		return
	}
	if !result.Success {
		c.JSON(statusForCode(result.Code), result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /health
func (h *PresaleHandler) Health(c *gin.Context) {
	if err := h.svc.HealthCheck(c.Request.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
