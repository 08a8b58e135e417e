package api

import (
	"context"
	"testing"

	"token-presale-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestHandlePaymentCallback_CompletesOnce(t *testing.T) {
	service, _, notifier, cleanup := setupTestService(t, testSaleConfig())
	defer cleanup()

	ctx := context.Background()
	purchase := mustPurchase(t, service, purchaseRequest("100"))

	result, err := service.HandlePaymentCallback(ctx, purchase.PurchaseId, "completed", "0xfeed")
	if err != nil {
		t.Fatalf("HandlePaymentCallback returned error: %v", err)
	}
	if !result.Success || result.Status != string(models.StatusCompleted) {
		t.Fatalf("Expected completed, got %+v", result)
	}

	// gateways redeliver callbacks
	result, err = service.HandlePaymentCallback(ctx, purchase.PurchaseId, "completed", "0xfeed")
	if err != nil || !result.Success {
		t.Fatalf("Expected repeated callback to succeed, got %+v (%v)", result, err)
	}

	if len(notifier.completed) != 1 || notifier.completed[0] != purchase.PurchaseId {
		t.Errorf("Expected exactly one notification, got %v", notifier.completed)
	}
}

func TestHandlePaymentCallback_DifferentRefForSameStatus(t *testing.T) {
	service, _, _, cleanup := setupTestService(t, testSaleConfig())
	defer cleanup()

	ctx := context.Background()
	purchase := mustPurchase(t, service, purchaseRequest("100"))

	if result, err := service.HandlePaymentCallback(ctx, purchase.PurchaseId, "completed", "0xfeed"); err != nil || !result.Success {
		t.Fatalf("Expected completion to succeed, got %+v (%v)", result, err)
	}

	result, err := service.HandlePaymentCallback(ctx, purchase.PurchaseId, "completed", "0xbeef")
	if err != nil {
		t.Fatalf("HandlePaymentCallback returned error: %v", err)
	}
	if result.Success || result.Code != models.CodeConflict {
		t.Errorf("Expected conflict for a second reference, got %+v", result)
	}
}

func TestHandlePaymentCallback_FailedReleasesAllowance(t *testing.T) {
	service, _, notifier, cleanup := setupTestService(t, testSaleConfig())
	defer cleanup()

	ctx := context.Background()
	purchase := mustPurchase(t, service, purchaseRequest("500"))

	result, err := service.HandlePaymentCallback(ctx, purchase.PurchaseId, "failed", "")
	if err != nil || !result.Success {
		t.Fatalf("Expected failed callback to succeed, got %+v (%v)", result, err)
	}

	limit, err := service.GetWalletLimit(ctx, testWallet)
	if err != nil {
		t.Fatalf("GetWalletLimit failed: %v", err)
	}
	if !limit.Remaining.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected allowance to be released, remaining %s", limit.Remaining)
	}
	if len(notifier.completed) != 0 {
		t.Errorf("Expected no notification for failed payment, got %v", notifier.completed)
	}

	mustPurchase(t, service, purchaseRequest("500"))
}

func TestHandlePaymentCallback_Errors(t *testing.T) {
	service, _, _, cleanup := setupTestService(t, testSaleConfig())
	defer cleanup()

	ctx := context.Background()
	purchase := mustPurchase(t, service, purchaseRequest("100"))
	if _, err := service.HandlePaymentCallback(ctx, purchase.PurchaseId, "completed", ""); err != nil {
		t.Fatalf("HandlePaymentCallback returned error: %v", err)
	}

	tests := []struct {
		name       string
		purchaseId string
		status     string
		code       string
	}{
		{"unknown purchase", "does-not-exist", "completed", models.CodeNotFound},
		{"unknown status", purchase.PurchaseId, "shipped", models.CodeValidation},
		{"missing id", "", "completed", models.CodeValidation},
		{"backwards transition", purchase.PurchaseId, "pending", models.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.HandlePaymentCallback(ctx, tt.purchaseId, tt.status, "")
			if err != nil {
				t.Fatalf("HandlePaymentCallback returned error: %v", err)
			}
			if result.Success || result.Code != tt.code {
				t.Errorf("Expected code %s, got %+v", tt.code, result)
			}
		})
	}
}
