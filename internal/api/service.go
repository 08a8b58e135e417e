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
package api

import (
	"context"
	"fmt"
	"time"

	"token-presale-go/internal/limits"
	"token-presale-go/internal/models"
	"token-presale-go/internal/pricing"
	"token-presale-go/internal/store"

	"go.uber.org/zap"
)

// Notifier is told about purchases whose payment completed
type Notifier interface {
	PurchaseCompleted(ctx context.Context, purchase *models.Purchase) error
}

// PresaleService orchestrates quoting, limit checks and persistence for the presale
type PresaleService struct {
	store      store.PurchaseStore
	calculator *pricing.Calculator
	tracker    *limits.Tracker
	sale       models.SaleConfig
	notifier   Notifier
	now        func() time.Time
}

func NewPresaleService(
	purchaseStore store.PurchaseStore,
	calculator *pricing.Calculator,
	tracker *limits.Tracker,
	sale models.SaleConfig,
	notifier Notifier,
) *PresaleService {
	return &PresaleService{
		store:      purchaseStore,
		calculator: calculator,
		tracker:    tracker,
		sale:       sale,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (s *PresaleService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// requestFields returns log fields for the request metadata attached by the HTTP layer
func requestFields(ctx context.Context, fields ...zap.Field) []zap.Field {
	if rc := models.GetRequestContext(ctx); rc != nil {
		fields = append(fields, zap.String("request_id", rc.RequestId), zap.String("client_ip", rc.ClientIP))
	}
	return fields
}
