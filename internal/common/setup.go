package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"token-presale-go/internal/api"
	"token-presale-go/internal/database"
	"token-presale-go/internal/limits"
	"token-presale-go/internal/models"
	"token-presale-go/internal/notifier"
	"token-presale-go/internal/pricing"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine, variables can come from the shell or the container
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService      *database.Service
	Calculator     *pricing.Calculator
	Tracker        *limits.Tracker
	PresaleService *api.PresaleService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	calculator, err := pricing.NewCalculator(cfg.Sale.TokenPriceUSD, cfg.Sale.BonusTiers)
	if err != nil {
		return nil, fmt.Errorf("invalid sale pricing: %w", err)
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	n, err := newNotifier(cfg.Notifier)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	tracker := limits.NewTracker(dbService, cfg.Sale)

	zap.L().Info("Presale configured",
		zap.Float64("token_price_usd", cfg.Sale.TokenPriceUSD),
		zap.String("wallet_cap_usd", cfg.Sale.WalletCapUSD.String()),
		zap.Int("bonus_tiers", len(cfg.Sale.BonusTiers)),
		zap.String("immediate_fraction", cfg.Sale.ImmediateFraction.String()),
		zap.Int("vesting_intervals", cfg.Sale.VestingIntervals),
		zap.Time("sale_start", cfg.Sale.SaleStart),
		zap.Time("sale_end", cfg.Sale.SaleEnd))

	return &Services{
		DbService:      dbService,
		Calculator:     calculator,
		Tracker:        tracker,
		PresaleService: api.NewPresaleService(dbService, calculator, tracker, cfg.Sale, n),
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for admin tools like the limit report and blacklist management
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func newNotifier(cfg models.NotifierConfig) (api.Notifier, error) {
	if cfg.TelegramToken == "" {
		zap.L().Info("TELEGRAM_BOT_TOKEN not set, admin notifications disabled")
		return notifier.Noop{}, nil
	}

	tg, err := notifier.NewTelegram(cfg)
	if err != nil {
		return nil, err
	}
	return tg, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
