package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/semmidev/mongobak/internal/config"
	"github.com/semmidev/mongobak/internal/domain"
	"github.com/semmidev/mongobak/internal/infrastructure/logger"
)

// Telegram messages are capped at 4096 characters.
const maxMessageLength = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts every progress message to one chat as plain text.
type Telegram struct {
	bot    sender
	chatID int64
	logger *logger.Logger
}

func NewTelegram(cfg *config.TelegramConfig, log *logger.Logger) (*Telegram, error) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(cfg.ChatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return newTelegram(bot, chatID, log), nil
}

func newTelegram(bot sender, chatID int64, log *logger.Logger) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, logger: log}
}

func (t *Telegram) Progress(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if r := []rune(message); len(r) > maxMessageLength {
		message = string(r[:maxMessageLength-3]) + "..."
	}

	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, message)); err != nil {
		t.logger.Errorw("Failed to send progress update", "chat_id", t.chatID, "error", err)
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}

	t.logger.Debugw("Sent progress update", "chat_id", t.chatID)
	return nil
}

var _ domain.ProgressSink = (*Telegram)(nil)
