// Package app wires configuration into a ready-to-run scanner. Both
// binaries share this assembly; they differ only in the emitter and the
// command surface around it.
package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/config"
	"github.com/Alias1177/Signaler/internal/database"
	"github.com/Alias1177/Signaler/internal/governor"
	"github.com/Alias1177/Signaler/internal/metrics"
	"github.com/Alias1177/Signaler/internal/provider"
	"github.com/Alias1177/Signaler/internal/provider/alphavantage"
	"github.com/Alias1177/Signaler/internal/provider/twelvedata"
	"github.com/Alias1177/Signaler/internal/scanner"
	"github.com/Alias1177/Signaler/internal/strategy"
	"github.com/Alias1177/Signaler/models"
)

// SetupLogger configures the global zerolog logger the way every binary
// in this repo does it.
func SetupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).With().Timestamp().Logger()
}

// Components is everything BuildScanner assembled. DB is nil when signal
// history is not configured.
type Components struct {
	Scanner  *scanner.Scanner
	Provider models.CandleProvider
	Metrics  *metrics.Metrics
	DB       *database.DB
}

// BuildScanner assembles providers, strategy, governor and scanner from
// the validated configuration.
func BuildScanner(cfg *config.Config, emit models.Emitter) (*Components, error) {
	var providers []models.CandleProvider
	if cfg.TwelveAPIKey != "" {
		providers = append(providers, twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:         cfg.TwelveAPIKey,
			RequestTimeout: cfg.FetchTimeout(),
		}))
	}
	if cfg.AlphaVantageKey != "" {
		providers = append(providers, alphavantage.NewClient(alphavantage.ClientOptions{
			APIKey:         cfg.AlphaVantageKey,
			RequestTimeout: cfg.FetchTimeout(),
		}))
	}
	chain := provider.NewChain(cfg.CacheTTL(), providers...)

	var strat strategy.Strategy
	switch cfg.Strategy {
	case "weighted":
		strat = strategy.NewWeighted(cfg.ScoreSeparation)
	default:
		strat = strategy.NewConfluence(cfg.RequiredVotes)
	}

	opts := strategy.ScorerOptions{
		MinHistory:          cfg.CandleCount,
		ATRFloor:            cfg.ATRFloor,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}
	if cfg.HTFConfirm {
		opts.Confirmer = strategy.NewHTFConfirmer(chain, cfg.HTFInterval, cfg.HTFEMAPeriod)
	}
	scorer := strategy.NewScorer(strat, opts)

	gov := governor.New(governor.Config{
		Cooldown:            cfg.Cooldown(),
		GlobalMinGap:        cfg.GlobalMinGap(),
		MaxEmissionsPerHour: cfg.MaxEmissionsPerHour,
		LossStreakLimit:     cfg.LossStreakLimit,
		DailyWinCap:         cfg.DailyWinCap,
		DailyLossCap:        cfg.DailyLossCap,
	})
	gov.SetEconomy(cfg.Economy)

	mode := scanner.ModeBundle
	if cfg.Mode == "bestpick" {
		mode = scanner.ModeBestPick
	}

	sc := scanner.New(scanner.Config{
		Instruments:  cfg.Watchlist,
		Timeframe:    cfg.Interval,
		CandleCount:  cfg.CandleCount,
		Mode:         mode,
		FetchTimeout: cfg.FetchTimeout(),
	}, chain, scorer, gov, emit)

	m := metrics.New()
	sc.WithMetrics(m)

	comps := &Components{Scanner: sc, Provider: chain, Metrics: m}

	if cfg.HistoryEnabled() {
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting signal history: %w", err)
		}
		sc.WithStore(db)
		comps.DB = db
	}

	return comps, nil
}
