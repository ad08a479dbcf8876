package strategy

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/internal/indicator"
	"github.com/Alias1177/Signaler/models"
)

// TrendConfirmer checks the chosen side against a coarser-timeframe
// trend. Returning false vetoes the decision.
type TrendConfirmer interface {
	Confirm(ctx context.Context, instrument string, dir models.Direction) bool
}

// ScorerOptions configures the pre-decision filters applied on top of a
// strategy.
type ScorerOptions struct {
	MinHistory          int     // candles required before scoring, default 60
	ATRFloor            float64 // decisions in flatter markets are suppressed
	ConfidenceThreshold float64
	Confirmer           TrendConfirmer // optional
	Periods             Periods
}

// Scorer runs one strategy behind the common filter chain: volatility
// floor first, then confidence floor, then the optional higher-timeframe
// confirmation. Every failure path collapses to a None decision; nothing
// here returns an error to the caller.
type Scorer struct {
	strategy Strategy
	opts     ScorerOptions
	logger   zerolog.Logger
}

func NewScorer(s Strategy, opts ScorerOptions) *Scorer {
	if opts.MinHistory <= 0 {
		opts.MinHistory = 60
	}
	if opts.Periods == (Periods{}) {
		opts.Periods = DefaultPeriods()
	}
	return &Scorer{
		strategy: s,
		opts:     opts,
		logger:   log.With().Str("component", "scorer").Str("strategy", s.Name()).Logger(),
	}
}

// Score evaluates one instrument. A zero-valued Decision (Direction None)
// means "no qualifying setup, stay silent".
func (s *Scorer) Score(ctx context.Context, instrument string, candles []models.Candle) models.Decision {
	if len(candles) < s.opts.MinHistory {
		s.logger.Debug().Str("instrument", instrument).Int("candles", len(candles)).
			Msg("insufficient history")
		return models.Decision{}
	}

	snap := BuildSnapshot(candles, s.opts.Periods)

	if !snap.ATR.OK || snap.ATR.V < s.opts.ATRFloor {
		s.logger.Debug().Str("instrument", instrument).Float64("atr", snap.ATR.V).
			Msg("below volatility floor")
		return models.Decision{}
	}

	decision := s.strategy.Evaluate(snap, candles)
	if decision.Direction == models.None {
		return models.Decision{}
	}

	if decision.Confidence < s.opts.ConfidenceThreshold {
		s.logger.Debug().Str("instrument", instrument).
			Float64("confidence", decision.Confidence).
			Msg("below confidence threshold")
		return models.Decision{}
	}

	if s.opts.Confirmer != nil && !s.opts.Confirmer.Confirm(ctx, instrument, decision.Direction) {
		s.logger.Debug().Str("instrument", instrument).
			Str("direction", decision.Direction.String()).
			Msg("contradicts higher-timeframe trend")
		return models.Decision{}
	}

	return decision
}

// HTFConfirmer confirms a side against the EMA trend of a coarser
// timeframe fetched from a candle provider. A failed or short fetch skips
// confirmation rather than vetoing: the filter is an extra check, not a
// data dependency.
type HTFConfirmer struct {
	Provider  models.CandleProvider
	Timeframe string // e.g. "15min"
	EMAPeriod int    // e.g. 50
	Count     int
	logger    zerolog.Logger
}

func NewHTFConfirmer(p models.CandleProvider, timeframe string, emaPeriod int) *HTFConfirmer {
	return &HTFConfirmer{
		Provider:  p,
		Timeframe: timeframe,
		EMAPeriod: emaPeriod,
		Count:     emaPeriod + 10,
		logger:    log.With().Str("component", "htf_confirmer").Logger(),
	}
}

func (h *HTFConfirmer) Confirm(ctx context.Context, instrument string, dir models.Direction) bool {
	candles, err := h.Provider.GetCandles(ctx, instrument, h.Timeframe, h.Count)
	if err != nil {
		h.logger.Debug().Err(err).Str("instrument", instrument).Msg("htf fetch failed, skipping confirmation")
		return true
	}
	closes := models.Closes(candles)
	ema, ok := indicator.EMA(closes, h.EMAPeriod)
	if !ok || len(closes) == 0 {
		return true
	}
	last := closes[len(closes)-1]
	switch dir {
	case models.Buy:
		return last >= ema
	case models.Sell:
		return last <= ema
	}
	return true
}
