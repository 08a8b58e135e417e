package api

import (
	"context"
	"errors"
	"strings"

	"token-presale-go/internal/models"
	"token-presale-go/internal/store"

	"go.uber.org/zap"
)

// HandlePaymentCallback applies a payment gateway status update to a purchase
func (s *PresaleService) HandlePaymentCallback(ctx context.Context, purchaseId, status, externalRef string) (*models.PaymentUpdateResult, error) {
	zap.L().Info("Processing payment callback", requestFields(ctx,
		zap.String("purchase_id", purchaseId),
		zap.String("status", status),
		zap.String("external_ref", externalRef))...)

	purchaseId = strings.TrimSpace(purchaseId)
	next, ok := models.ParsePaymentStatus(status)
	if purchaseId == "" || !ok {
		return paymentFailure(purchaseId, models.CodeValidation, "purchaseId and a valid status are required"), nil
	}

	before, err := s.store.GetPurchase(ctx, purchaseId)
	if err != nil {
		return s.paymentStoreFailure(purchaseId, err), nil
	}

	purchase, err := s.store.UpdatePurchaseStatus(ctx, store.UpdateStatusParams{
		PurchaseId:  purchaseId,
		Status:      next,
		ExternalRef: strings.TrimSpace(externalRef),
	})
	if err != nil {
		return s.paymentStoreFailure(purchaseId, err), nil
	}

	if before.Status != models.StatusCompleted && purchase.Status == models.StatusCompleted && s.notifier != nil {
		if err := s.notifier.PurchaseCompleted(ctx, purchase); err != nil {
			// the purchase is recorded, a lost notification is not fatal
			zap.L().Warn("Failed to send purchase notification", zap.String("purchase_id", purchase.Id), zap.Error(err))
		}
	}

	return &models.PaymentUpdateResult{
		Success:    true,
		PurchaseId: purchase.Id,
		Status:     string(purchase.Status),
	}, nil
}

func (s *PresaleService) paymentStoreFailure(purchaseId string, err error) *models.PaymentUpdateResult {
	switch {
	case errors.Is(err, store.ErrPurchaseNotFound):
		return paymentFailure(purchaseId, models.CodeNotFound, "purchase not found")
	case errors.Is(err, store.ErrInvalidStatusTransition):
		return paymentFailure(purchaseId, models.CodeConflict, err.Error())
	case errors.Is(err, store.ErrDuplicatePurchase):
		zap.L().Warn("Duplicate payment reference", zap.String("purchase_id", purchaseId), zap.Error(err))
		return paymentFailure(purchaseId, models.CodeConflict, "payment reference conflicts with a stored reference")
	case errors.Is(err, store.ErrConcurrentModification):
		return paymentFailure(purchaseId, models.CodeConflict, "purchase was modified concurrently, please retry")
	default:
		zap.L().Error("Payment callback failed", zap.String("purchase_id", purchaseId), zap.Error(err))
		return paymentFailure(purchaseId, models.CodeInternal, "internal error")
	}
}

func paymentFailure(purchaseId, code, message string) *models.PaymentUpdateResult {
	return &models.PaymentUpdateResult{
		Success:    false,
		PurchaseId: purchaseId,
		Error:      message,
		Code:       code,
	}
}
