package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"token-presale-go/internal/api"
	"token-presale-go/internal/database"
	"token-presale-go/internal/limits"
	"token-presale-go/internal/models"
	"token-presale-go/internal/notifier"
	"token-presale-go/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	testWallet = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	testSecret = "s3cret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T, routerCfg RouterConfig) (*gin.Engine, *database.Service, func()) {
	ctx := context.Background()
	db, err := database.NewService(ctx, models.DatabaseConfig{
		Driver:       database.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "presale.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sale := models.SaleConfig{
		TokenPriceUSD:     0.0015,
		WalletCapUSD:      decimal.NewFromInt(500),
		BonusTiers:        []models.BonusTier{{MinUSD: 50, BonusPercent: 5}, {MinUSD: 100, BonusPercent: 10}},
		ImmediateFraction: decimal.RequireFromString("0.4"),
		VestingIntervals:  6,
		VestingStart:      time.Now().AddDate(-1, 0, 0),
	}
	calculator, err := pricing.NewCalculator(sale.TokenPriceUSD, sale.BonusTiers)
	if err != nil {
		t.Fatalf("Failed to create calculator: %v", err)
	}

	svc := api.NewPresaleService(db, calculator, limits.NewTracker(db, sale), sale, notifier.Noop{})
	router, err := SetupRouter(NewPresaleHandler(svc, testSecret), db, routerCfg)
	if err != nil {
		t.Fatalf("Failed to set up router: %v", err)
	}

	cleanup := func() {
		db.Close()
	}
	return router, db, cleanup
}

func doRequest(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func purchaseBody(amount string) map[string]any {
	return map[string]any{
		"walletAddress": testWallet,
		"paymentMethod": "ETH",
		"amountUSD":     amount,
		"email":         "buyer@example.com",
	}
}

func createPurchase(t *testing.T, router *gin.Engine, amount string) string {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/api/v1/presale/purchases", purchaseBody(amount), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decodeBody(t, w)["purchaseId"].(string)
}

func TestHealth(t *testing.T) {
	router, _, cleanup := setupTestRouter(t, RouterConfig{})
	defer cleanup()

	w := doRequest(router, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestCreatePurchase_StatusCodes(t *testing.T) {
	router, db, cleanup := setupTestRouter(t, RouterConfig{})
	defer cleanup()

	createPurchase(t, router, "450")

	w := doRequest(router, http.MethodPost, "/api/v1/presale/purchases", purchaseBody("100"), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for limit exceeded, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["code"] != models.CodeLimitExceeded {
		t.Errorf("Expected limit_exceeded, got %v", body["code"])
	}
	limit := body["limit"].(map[string]any)
	if limit["remaining"] != "50" || limit["totalPurchased"] != "450" || limit["walletLimit"] != "500" {
		t.Errorf("Unexpected limit details: %v", limit)
	}

	bad := purchaseBody("10")
	bad["walletAddress"] = "0x1234"
	if w := doRequest(router, http.MethodPost, "/api/v1/presale/purchases", bad, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad wallet, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/presale/purchases", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", rec.Code)
	}

	if err := db.AddToBlacklist(context.Background(), strings.ToLower(testWallet), "fraud"); err != nil {
		t.Fatalf("AddToBlacklist failed: %v", err)
	}
	if w := doRequest(router, http.MethodPost, "/api/v1/presale/purchases", purchaseBody("10"), nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for blacklisted wallet, got %d", w.Code)
	}
}

func TestWalletEndpoints(t *testing.T) {
	router, _, cleanup := setupTestRouter(t, RouterConfig{})
	defer cleanup()

	createPurchase(t, router, "100")

	w := doRequest(router, http.MethodGet, "/api/v1/presale/wallets/"+testWallet+"/limit", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["remaining"] != "400" || body["canPurchase"] != true || body["walletAddress"] != testWallet {
		t.Errorf("Unexpected limit response: %v", body)
	}

	w = doRequest(router, http.MethodGet, "/api/v1/presale/wallets/"+testWallet+"/purchases", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if total := decodeBody(t, w)["total"]; total != float64(1) {
		t.Errorf("Expected 1 purchase, got %v", total)
	}

	if w := doRequest(router, http.MethodGet, "/api/v1/presale/wallets/not-a-wallet/limit", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid wallet, got %d", w.Code)
	}
}

func TestGetQuote(t *testing.T) {
	router, _, cleanup := setupTestRouter(t, RouterConfig{})
	defer cleanup()

	w := doRequest(router, http.MethodGet, "/api/v1/presale/quote?amountUSD=100", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if pct := decodeBody(t, w)["bonusPercentage"]; pct != float64(10) {
		t.Errorf("Expected 10%% bonus, got %v", pct)
	}

	for _, q := range []string{"", "abc", "-5"} {
		if w := doRequest(router, http.MethodGet, "/api/v1/presale/quote?amountUSD="+q, nil, nil); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for amountUSD=%q, got %d", q, w.Code)
		}
	}
}

func TestPaymentCallback(t *testing.T) {
	router, _, cleanup := setupTestRouter(t, RouterConfig{})
	defer cleanup()

	purchaseId := createPurchase(t, router, "100")
	body := map[string]any{"purchaseId": purchaseId, "status": "completed", "externalRef": "0xfeed"}
	path := "/api/v1/presale/payments/callback"

	if w := doRequest(router, http.MethodPost, path, body, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without secret, got %d", w.Code)
	}
	if w := doRequest(router, http.MethodPost, path, body, map[string]string{callbackSecretHeader: "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong secret, got %d", w.Code)
	}

	auth := map[string]string{callbackSecretHeader: testSecret}
	w := doRequest(router, http.MethodPost, path, body, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	back := map[string]any{"purchaseId": purchaseId, "status": "pending"}
	if w := doRequest(router, http.MethodPost, path, back, auth); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for invalid transition, got %d", w.Code)
	}

	missing := map[string]any{"purchaseId": "nope", "status": "completed"}
	if w := doRequest(router, http.MethodPost, path, missing, auth); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown purchase, got %d", w.Code)
	}
}

func TestVestingAndClaims(t *testing.T) {
	router, _, cleanup := setupTestRouter(t, RouterConfig{})
	defer cleanup()

	purchaseId := createPurchase(t, router, "30")
	w := doRequest(router, http.MethodPost, "/api/v1/presale/payments/callback",
		map[string]any{"purchaseId": purchaseId, "status": "completed"},
		map[string]string{callbackSecretHeader: testSecret})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/v1/presale/wallets/"+testWallet+"/vesting", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	vesting := decodeBody(t, w)
	unlocked := decimal.RequireFromString(vesting["unlocked"].(string))
	if !unlocked.IsPositive() {
		t.Fatalf("Expected tokens unlocked, got %v", vesting)
	}

	claimPath := "/api/v1/presale/wallets/" + testWallet + "/claims"
	if w := doRequest(router, http.MethodPost, claimPath, map[string]any{"amount": unlocked.String()}, nil); w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for claim, got %d: %s", w.Code, w.Body.String())
	}
	if w := doRequest(router, http.MethodPost, claimPath, map[string]any{"amount": "1"}, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for over-claim, got %d", w.Code)
	}
}

func TestReferralStats(t *testing.T) {
	router, _, cleanup := setupTestRouter(t, RouterConfig{})
	defer cleanup()

	body := purchaseBody("100")
	body["referralCode"] = "launch"
	if w := doRequest(router, http.MethodPost, "/api/v1/presale/purchases", body, nil); w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	w := doRequest(router, http.MethodGet, "/api/v1/presale/referrals/launch", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	stats := decodeBody(t, w)
	if stats["purchaseCount"] != float64(1) || stats["totalUsd"] != "100" {
		t.Errorf("Unexpected referral stats: %v", stats)
	}
}
