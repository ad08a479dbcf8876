// Telegram front end for the scanner: on-demand sweeps, an autopoll loop
// and inline Win/Loss/Skip buttons that feed the circuit breaker.
package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/config"
	"github.com/Alias1177/Signaler/internal/app"
	"github.com/Alias1177/Signaler/internal/database"
	"github.com/Alias1177/Signaler/internal/emitter"
	"github.com/Alias1177/Signaler/internal/governor"
	"github.com/Alias1177/Signaler/internal/scanner"
	"github.com/Alias1177/Signaler/models"
)

const welcomeText = `Welcome to the OTC Signal Scanner!

/signal — scan now, best pick only
/multisignal — scan now, all qualifying pairs
/autopoll — scan automatically on a timer
/stop — stop the autopoll loop
/watchlist [pairs] — show or replace the watchlist (max 5)
/economy on|off — widen pacing to save API quota
/status — pacing and streak state
/reset — clear the loss-streak pause`

type botApp struct {
	cfg     *config.Config
	bot     *tgbotapi.BotAPI
	emitter *emitter.TelegramEmitter
	scanner *scanner.Scanner
	db      *database.DB // nil when history is disabled
	logger  zerolog.Logger

	mu         sync.Mutex
	cancelPoll context.CancelFunc
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	app.SetupLogger(cfg.LogLevel)

	if cfg.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Telegram bot")
	}
	log.Info().Str("username", bot.Self.UserName).Msg("authorized on Telegram")

	tgEmitter := emitter.NewTelegramEmitter(bot)
	comps, err := app.BuildScanner(cfg, tgEmitter)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	if comps.DB != nil {
		defer comps.DB.Close()
	}

	a := &botApp{
		cfg:     cfg,
		bot:     bot,
		emitter: tgEmitter,
		scanner: comps.Scanner,
		db:      comps.DB,
		logger:  log.With().Str("component", "tgbot").Logger(),
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	ctx := context.Background()
	for update := range updates {
		switch {
		case update.Message != nil && update.Message.IsCommand():
			a.handleCommand(ctx, update.Message)
		case update.CallbackQuery != nil:
			a.handleCallback(ctx, update.CallbackQuery)
		}
	}
}

func (a *botApp) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	// Every command arms the emitter for this chat so notifications and
	// autopoll signals land where the operator is.
	a.emitter.SetChatID(chatID)

	switch msg.Command() {
	case "start":
		a.reply(chatID, welcomeText)
	case "signal":
		a.scanNow(ctx, chatID, scanner.ModeBestPick)
	case "multisignal":
		a.scanNow(ctx, chatID, scanner.ModeBundle)
	case "autopoll":
		a.startAutopoll(chatID)
	case "stop":
		if a.stopAutopoll() {
			a.reply(chatID, "⏹ Autopoll stopped.")
		} else {
			a.reply(chatID, "Autopoll is not running.")
		}
	case "watchlist":
		a.handleWatchlist(chatID, msg.CommandArguments())
	case "economy":
		a.handleEconomy(chatID, msg.CommandArguments())
	case "status":
		a.reply(chatID, a.statusText(ctx))
	case "reset":
		a.scanner.Reset()
		a.reply(chatID, "✅ Pacing state cleared. Scanning resumes.")
	default:
		a.reply(chatID, "Unknown command. Send /start for the list.")
	}
}

// scanNow runs one sweep on demand. The scanner emits accepted signals
// itself; here we only report the empty case.
func (a *botApp) scanNow(ctx context.Context, chatID int64, mode scanner.Mode) {
	sent, _ := a.bot.Send(tgbotapi.NewMessage(chatID, "🔍 Scanning the watchlist..."))

	sigs, err := a.scanner.ScanOnce(ctx, mode)
	if err != nil {
		a.edit(chatID, sent.MessageID, fmt.Sprintf("⚠️ Scan failed: %v", err))
		return
	}
	if len(sigs) == 0 {
		a.edit(chatID, sent.MessageID, emptySweepReply(a.scanner.Status()))
		return
	}
	a.edit(chatID, sent.MessageID, fmt.Sprintf("Done, %d signal(s) sent.", len(sigs)))
}

// emptySweepReply distinguishes a tripped circuit breaker from an
// ordinary quiet market; the two must never read the same.
func emptySweepReply(st governor.Status) string {
	if st.CircuitOpen {
		return fmt.Sprintf("🚫 Paused after %d consecutive losses. Send /reset to resume.", st.LossStreak)
	}
	return "No qualifying setup right now. Try again in a few minutes."
}

func (a *botApp) startAutopoll(chatID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelPoll != nil {
		a.reply(chatID, "Autopoll is already running. Send /stop first.")
		return
	}

	duration := a.cfg.AutopollDuration()
	pollCtx, cancel := context.WithTimeout(context.Background(), duration)
	a.cancelPoll = cancel

	go func() {
		a.scanner.Run(pollCtx, a.cfg.ScanInterval())
		if pollCtx.Err() == context.DeadlineExceeded {
			a.reply(chatID, "⏹ Autopoll finished. Send /autopoll to restart.")
		}
		a.mu.Lock()
		a.cancelPoll = nil
		a.mu.Unlock()
	}()

	a.reply(chatID, fmt.Sprintf("▶️ Autopoll started: every %s for %s. Send /stop to end early.",
		a.cfg.ScanInterval(), duration))
}

func (a *botApp) stopAutopoll() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelPoll == nil {
		return false
	}
	a.cancelPoll()
	a.cancelPoll = nil
	return true
}

func (a *botApp) handleWatchlist(chatID int64, args string) {
	pairs := strings.Fields(strings.ReplaceAll(args, ",", " "))
	if len(pairs) == 0 {
		a.reply(chatID, "Watching: "+strings.Join(a.scanner.Watchlist(), ", "))
		return
	}
	if len(pairs) > 5 {
		a.reply(chatID, "At most 5 pairs; vendor quota does not stretch further.")
		return
	}
	for i := range pairs {
		pairs[i] = strings.ToUpper(pairs[i])
	}
	a.scanner.SetWatchlist(pairs)
	a.reply(chatID, "✅ Watchlist updated: "+strings.Join(pairs, ", "))
}

func (a *botApp) handleEconomy(chatID int64, args string) {
	switch strings.TrimSpace(args) {
	case "on":
		a.scanner.SetEconomy(true)
		a.reply(chatID, "🐢 Economy mode on: cooldown ≥15m, global gap ≥20m.")
	case "off":
		a.scanner.SetEconomy(false)
		a.reply(chatID, "🚀 Economy mode off, normal pacing restored.")
	default:
		a.reply(chatID, "Usage: /economy on|off")
	}
}

func (a *botApp) statusText(ctx context.Context) string {
	st := a.scanner.Status()
	var b strings.Builder
	b.WriteString("📊 Scanner status\n")
	fmt.Fprintf(&b, "Watchlist: %s\n", strings.Join(a.scanner.Watchlist(), ", "))
	fmt.Fprintf(&b, "Loss streak: %d/%d\n", st.LossStreak, st.LossStreakLimit)
	fmt.Fprintf(&b, "Today: %d wins, %d losses\n", st.DailyWins, st.DailyLosses)
	if st.CircuitOpen {
		b.WriteString("Circuit: 🚫 OPEN (send /reset)\n")
	} else {
		b.WriteString("Circuit: ✅ closed\n")
	}
	if !st.LastGlobalEmission.IsZero() {
		fmt.Fprintf(&b, "Last signal: %s ago\n", time.Since(st.LastGlobalEmission).Round(time.Second))
	}
	if st.Economy {
		b.WriteString("Economy mode: on\n")
	}

	if a.db != nil {
		wins, losses, err := a.db.DailyStats(ctx, time.Now().UTC())
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to read daily stats")
			return b.String()
		}
		recent, err := a.db.RecentSignals(ctx, 3)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to read recent signals")
			recent = nil
		}
		b.WriteString(historySummary(wins, losses, recent))
	}
	return b.String()
}

// historySummary renders the persisted side of /status: outcomes recorded
// in storage rather than the in-process governor counters.
func historySummary(wins, losses int, recent []models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recorded today: %d wins, %d losses\n", wins, losses)
	if len(recent) > 0 {
		b.WriteString("Recent signals:\n")
		for _, sig := range recent {
			fmt.Fprintf(&b, "• %s %s %d%%\n", sig.Instrument, sig.Direction, int(sig.Confidence*100))
		}
	}
	return b.String()
}

// handleCallback processes the Win/Loss/Skip buttons under emitted
// signals. Data format: outcome:<win|loss|skip>:<signal id>.
func (a *botApp) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	a.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 || parts[0] != "outcome" {
		return
	}
	outcome, ok := models.ParseOutcome(parts[1])
	if !ok {
		return
	}
	signalID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return
	}

	a.scanner.ReportOutcome(ctx, signalID, outcome)

	if cb.Message != nil {
		var marker string
		switch outcome {
		case models.OutcomeWin:
			marker = "✅ WIN"
		case models.OutcomeLoss:
			marker = "❌ LOSS"
		default:
			marker = "⏭ SKIP"
		}
		a.edit(cb.Message.Chat.ID, cb.Message.MessageID, cb.Message.Text+"\n\n"+marker)
	}
}

func (a *botApp) reply(chatID int64, text string) {
	if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		a.logger.Warn().Err(err).Msg("failed to send message")
	}
}

func (a *botApp) edit(chatID int64, messageID int, text string) {
	if _, err := a.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		a.logger.Warn().Err(err).Msg("failed to edit message")
	}
}
