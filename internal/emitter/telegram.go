package emitter

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/models"
)

// TelegramEmitter sends signals to a Telegram chat with inline
// Win/Loss/Skip buttons. The chat id is learned from the first command
// that arms the emitter (/autopoll), so it is mutable.
type TelegramEmitter struct {
	bot    *tgbotapi.BotAPI
	chatID atomic.Int64
	logger zerolog.Logger
}

func NewTelegramEmitter(bot *tgbotapi.BotAPI) *TelegramEmitter {
	return &TelegramEmitter{
		bot:    bot,
		logger: log.With().Str("component", "telegram_emitter").Logger(),
	}
}

// SetChatID points the emitter at a chat. Safe to call concurrently with
// emissions.
func (e *TelegramEmitter) SetChatID(id int64) {
	e.chatID.Store(id)
}

// ChatID returns the currently armed chat, 0 when unset.
func (e *TelegramEmitter) ChatID() int64 {
	return e.chatID.Load()
}

func outcomeKeyboard(signalID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Win", fmt.Sprintf("outcome:win:%d", signalID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Loss", fmt.Sprintf("outcome:loss:%d", signalID)),
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", fmt.Sprintf("outcome:skip:%d", signalID)),
		),
	)
}

func (e *TelegramEmitter) Emit(_ context.Context, sig models.Signal) error {
	chatID := e.chatID.Load()
	if chatID == 0 {
		return fmt.Errorf("telegram emitter has no chat armed")
	}
	text := fmt.Sprintf("📊 OTC Signal\nPair: %s\n👉 %s\nConfidence: %d%%",
		sig.Instrument, sig.Direction, int(sig.Confidence*100))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = outcomeKeyboard(sig.ID)
	_, err := e.bot.Send(msg)
	return err
}

func (e *TelegramEmitter) EmitBatch(ctx context.Context, sigs []models.Signal) error {
	if len(sigs) == 1 {
		return e.Emit(ctx, sigs[0])
	}
	chatID := e.chatID.Load()
	if chatID == 0 {
		return fmt.Errorf("telegram emitter has no chat armed")
	}

	lines := make([]string, 0, len(sigs)+1)
	lines = append(lines, "📊 Multi-Signal")
	for _, sig := range sigs {
		lines = append(lines, fmt.Sprintf("%s: %s 📊 %d%%",
			sig.Instrument, sig.Direction, int(sig.Confidence*100)))
	}
	msg := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
	// One keyboard for the bundle; the outcome applies to the streak, not
	// to a single stored signal.
	msg.ReplyMarkup = outcomeKeyboard(0)
	_, err := e.bot.Send(msg)
	return err
}

func (e *TelegramEmitter) Notify(_ context.Context, text string) error {
	chatID := e.chatID.Load()
	if chatID == 0 {
		e.logger.Warn().Str("text", text).Msg("notification dropped, no chat armed")
		return nil
	}
	_, err := e.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
