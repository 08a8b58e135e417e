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
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"token-presale-go/internal/models"

	"go.uber.org/zap"
)

const defaultSaleConfigFile = "sale.yaml"

func Load() (*models.Config, error) {
	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	rateLimitWindow, err := getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := getEnvDuration("SWEEPER_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	pendingTTL, err := getEnvDuration("PENDING_PURCHASE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	trustedProxies, err := getEnvProxies("TRUSTED_PROXIES")
	if err != nil {
		return nil, err
	}

	chatId, err := getEnvInt64("TELEGRAM_ADMIN_CHAT_ID", 0)
	if err != nil {
		return nil, err
	}

	sale, err := loadSale()
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Driver:          getEnvString("DATABASE_DRIVER", "sqlite3"),
			Path:            getEnvString("DATABASE_PATH", "presale.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Server: models.ServerConfig{
			Addr:              getEnvString("SERVER_ADDR", ":8080"),
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			ShutdownTimeout:   shutdownTimeout,
			RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 60),
			RateLimitWindow:   rateLimitWindow,
			CallbackSecret:    os.Getenv("CALLBACK_SECRET"),
			TrustedProxies:    trustedProxies,
		},
		Sale: *sale,
		Sweeper: models.SweeperConfig{
			Interval:   sweepInterval,
			PendingTTL: pendingTTL,
		},
		Notifier: models.NotifierConfig{
			TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramChatId: chatId,
		},
	}, nil
}

// loadSale reads SALE_CONFIG_FILE. Without it, sale.yaml is used when present and defaults otherwise.
func loadSale() (*models.SaleConfig, error) {
	if path := os.Getenv("SALE_CONFIG_FILE"); path != "" {
		return LoadSaleConfig(path)
	}

	if _, err := os.Stat(defaultSaleConfigFile); errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("No sale config file found, using default sale parameters", zap.String("file", defaultSaleConfigFile))
		sale := DefaultSaleConfig()
		return &sale, nil
	}
	return LoadSaleConfig(defaultSaleConfigFile)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %q (%w)", key, value, err)
		}
		return intValue, nil
	}
	return defaultValue, nil
}

// getEnvProxies parses a comma separated list of IPs or CIDRs. Unset means no proxy is trusted.
func getEnvProxies(key string) ([]string, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}

	var proxies []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if net.ParseIP(entry) == nil {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return nil, fmt.Errorf("invalid proxy for %s: %q is not an IP or CIDR", key, entry)
			}
		}
		proxies = append(proxies, entry)
	}
	return proxies, nil
}
