package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Sale     SaleConfig
	Sweeper  SweeperConfig
	Notifier NotifierConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // "sqlite3" or "postgres"
	Path            string // sqlite file path or postgres DSN
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CallbackSecret    string
	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is believed; empty means use the peer address
	TrustedProxies []string
}

// SweeperConfig holds settings for the stale pending purchase sweeper
type SweeperConfig struct {
	Interval   time.Duration
	PendingTTL time.Duration
}

// NotifierConfig holds Telegram admin notification settings
type NotifierConfig struct {
	TelegramToken  string
	TelegramChatId int64
}

// BonusTier grants BonusPercent extra tokens to purchases of at least MinUSD
type BonusTier struct {
	MinUSD       float64 `yaml:"min_usd" json:"minUsd"`
	BonusPercent float64 `yaml:"bonus_percent" json:"bonusPercent"`
}

// SaleConfig is the immutable sale parameter set loaded once at startup
type SaleConfig struct {
	TokenPriceUSD     float64
	WalletCapUSD      decimal.Decimal
	BonusTiers        []BonusTier
	ImmediateFraction decimal.Decimal
	VestingIntervals  int
	VestingStart      time.Time
	SaleStart         time.Time
	SaleEnd           time.Time
}
