package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	"token-presale-go/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts admin notifications to a single chat
type Telegram struct {
	bot    sender
	chatId int64
}

func NewTelegram(cfg models.NotifierConfig) (*Telegram, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if cfg.TelegramChatId == 0 {
		return nil, fmt.Errorf("telegram admin chat id is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("unable to create telegram bot: %w", err)
	}

	zap.L().Info("Telegram notifier ready", zap.String("bot", bot.Self.UserName), zap.Int64("chat_id", cfg.TelegramChatId))
	return &Telegram{bot: bot, chatId: cfg.TelegramChatId}, nil
}

func (t *Telegram) PurchaseCompleted(_ context.Context, purchase *models.Purchase) error {
	msg := tgbotapi.NewMessage(t.chatId, formatPurchaseCompleted(purchase))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("unable to send telegram message: %w", err)
	}
	return nil
}

func formatPurchaseCompleted(p *models.Purchase) string {
	var b strings.Builder
	b.WriteString("<b>Presale purchase completed</b>\n")
	fmt.Fprintf(&b, "Wallet: <code>%s</code>\n", html.EscapeString(p.WalletAddress))
	fmt.Fprintf(&b, "Amount: $%s via %s\n", p.UsdAmount.StringFixed(2), html.EscapeString(string(p.PaymentMethod)))
	fmt.Fprintf(&b, "Tokens: %s (bonus %s%%)\n", p.TotalTokens.StringFixed(2), p.BonusPercent.String())
	if p.ReferralCode != "" {
		fmt.Fprintf(&b, "Referral: %s\n", html.EscapeString(p.ReferralCode))
	}
	if p.ExternalRef != "" {
		fmt.Fprintf(&b, "Payment ref: <code>%s</code>\n", html.EscapeString(p.ExternalRef))
	}
	fmt.Fprintf(&b, "Purchase: <code>%s</code>", html.EscapeString(p.Id))
	return b.String()
}

// Noop drops notifications; used when no bot token is configured
type Noop struct{}

func (Noop) PurchaseCompleted(_ context.Context, purchase *models.Purchase) error {
	zap.L().Debug("Notification skipped, notifier disabled", zap.String("purchase_id", purchase.Id))
	return nil
}
