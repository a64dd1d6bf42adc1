package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/config"
	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/infra/metrics"
)

var _ adapter.Alerter = (*Alerter)(nil)

// maxMessageLen is Telegram's limit for a text message.
const maxMessageLen = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Alerter sends operator alerts to the configured admin chats.
type Alerter struct {
	bot     sender
	chatIDs []int64
	log     *zerolog.Logger
}

// NewAlerter connects to the Bot API. It fails when the token is rejected.
func NewAlerter(cfg *config.AlertConfig, logger *zerolog.Logger) (*Alerter, error) {
	if cfg == nil || cfg.TelegramToken == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newAlerter(bot, cfg.AdminChatIDs, logger), nil
}

func newAlerter(bot sender, chatIDs []int64, logger *zerolog.Logger) *Alerter {
	l := logger.With().Str("component", "TelegramAlerter").Logger()
	return &Alerter{bot: bot, chatIDs: chatIDs, log: &l}
}

// Alert delivers text to every admin chat and returns the joined errors of
// the chats that could not be reached.
func (a *Alerter) Alert(ctx context.Context, text string) error {
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen]
	}
	var errs []error
	for _, id := range a.chatIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.DisableWebPagePreview = true
		if _, err := a.bot.Send(msg); err != nil {
			metrics.IncAlert("error")
			a.log.Warn().Err(err).Int64("chat_id", id).Msg("alert delivery failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
			continue
		}
		metrics.IncAlert("sent")
	}
	return errors.Join(errs...)
}

var _ adapter.Alerter = (*NoopAlerter)(nil)

// NoopAlerter logs alerts instead of sending them; used when no token is configured.
type NoopAlerter struct {
	log *zerolog.Logger
}

func NewNoopAlerter(logger *zerolog.Logger) *NoopAlerter {
	l := logger.With().Str("component", "NoopAlerter").Logger()
	return &NoopAlerter{log: &l}
}

func (n *NoopAlerter) Alert(_ context.Context, text string) error {
	metrics.IncAlert("dropped")
	n.log.Warn().Str("alert", text).Msg("admin alert (telegram disabled)")
	return nil
}
