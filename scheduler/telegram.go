package scheduler

import (
	"fmt"
	"math"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSink delivers alerts to the staff Telegram chat. It is the
// out-of-app channel, so it still reaches operators whose console is
// backgrounded or closed on the session floor.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

func NewTelegramSink(token string, chatID int64, logger zerolog.Logger) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &TelegramSink{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "telegram-sink").Logger(),
	}, nil
}

// Deliver sends the alert, retrying a few times with exponential sleeps.
// A permanently failed delivery is logged and dropped; the scheduler must
// keep going for the remaining sessions.
func (t *TelegramSink) Deliver(a Alert) {
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("%s\n%s", a.Title, a.Body))

	var err error
	for i := 0; i < 3; i++ {
		if i != 0 {
			time.Sleep(time.Duration(math.Pow(2, float64(i))) * time.Second)
		}
		if _, err = t.bot.Send(msg); err == nil {
			return
		}
		t.logger.Warn().Err(err).Int("retry", i+1).Str("kind", string(a.Kind)).Msg("send failed, retrying")
	}
	t.logger.Error().Err(err).Str("kind", string(a.Kind)).Msg("send permanently failed")
}
