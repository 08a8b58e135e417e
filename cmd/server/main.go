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
	"os"
	"os/signal"
	"syscall"

	"token-presale-go/internal/common"
	"token-presale-go/internal/config"
	"token-presale-go/internal/server"
	"token-presale-go/internal/sweeper"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting token presale server")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Server.CallbackSecret == "" {
		zap.L().Warn("CALLBACK_SECRET not set, payment callbacks will be rejected")
	}

	stale, err := sweeper.New(services.DbService, cfg.Sweeper)
	if err != nil {
		zap.L().Fatal("Failed to create sweeper", zap.Error(err))
	}
	if err := stale.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start sweeper", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	handler := server.NewPresaleHandler(services.PresaleService, cfg.Server.CallbackSecret)
	router, err := server.SetupRouter(handler, services.DbService, server.RouterConfig{
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		TrustedProxies:    cfg.Server.TrustedProxies,
	})
	if err != nil {
		zap.L().Fatal("Failed to set up router", zap.Error(err))
	}

	srv := server.New(cfg.Server, router)
	serveErrs := srv.Start()

	zap.L().Info("Presale server running", zap.String("addr", cfg.Server.Addr))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping server...")
	case err := <-serveErrs:
		if err != nil {
			zap.L().Error("Server stopped unexpectedly", zap.Error(err))
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		zap.L().Warn("Forced shutdown after timeout", zap.Error(err))
	}
	stale.Stop()
	cancel()

	zap.L().Info("Presale server stopped")
}
