// Package scanner drives the scan loop: fetch candles for each watched
// instrument, score them, consult the pacing governor and forward accepted
// signals to the emitter.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/internal/governor"
	"github.com/Alias1177/Signaler/internal/metrics"
	"github.com/Alias1177/Signaler/internal/strategy"
	"github.com/Alias1177/Signaler/models"
)

// Mode selects how accepted decisions of one sweep are emitted.
type Mode int

const (
	// ModeBundle emits every accepted decision of the sweep as one batch.
	ModeBundle Mode = iota
	// ModeBestPick emits only the highest-confidence accepted decision.
	ModeBestPick
)

// Store persists emitted signals and their outcomes. Optional.
type Store interface {
	RecordSignal(ctx context.Context, sig *models.Signal) error
	RecordOutcome(ctx context.Context, id int64, outcome models.Outcome) error
}

// Config holds the sweep parameters.
type Config struct {
	Instruments  []string
	Timeframe    string // candle interval, e.g. "5min"
	CandleCount  int
	Mode         Mode
	FetchTimeout time.Duration // per-instrument fetch bound, <= tick interval
}

// Scanner owns no pacing state itself; all of that lives in the governor
// so cooldowns and the circuit breaker survive a stop/restart of the loop.
type Scanner struct {
	mu       sync.RWMutex // guards cfg.Instruments (watchlist edits mid-run)
	cfg      Config
	provider models.CandleProvider
	scorer   *strategy.Scorer
	gov      *governor.Governor
	emitter  models.Emitter
	store    Store            // may be nil
	metrics  *metrics.Metrics // may be nil
	logger   zerolog.Logger
}

func New(cfg Config, provider models.CandleProvider, scorer *strategy.Scorer,
	gov *governor.Governor, emitter models.Emitter) *Scanner {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 12 * time.Second
	}
	if cfg.CandleCount <= 0 {
		cfg.CandleCount = 60
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = "5min"
	}
	return &Scanner{
		cfg:      cfg,
		provider: provider,
		scorer:   scorer,
		gov:      gov,
		emitter:  emitter,
		logger:   log.With().Str("component", "scanner").Logger(),
	}
}

// WithStore attaches signal-history persistence.
func (s *Scanner) WithStore(store Store) *Scanner {
	s.store = store
	return s
}

// WithMetrics attaches Prometheus instrumentation.
func (s *Scanner) WithMetrics(m *metrics.Metrics) *Scanner {
	s.metrics = m
	return s
}

// SetWatchlist replaces the scanned instruments. Pacing state for removed
// instruments is deliberately kept; cooldowns are wall-clock facts.
func (s *Scanner) SetWatchlist(instruments []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Instruments = instruments
}

// Watchlist returns the scanned instruments in sweep order.
func (s *Scanner) Watchlist() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.cfg.Instruments))
	copy(out, s.cfg.Instruments)
	return out
}

// Run sweeps at the given interval until ctx is cancelled. The first
// sweep happens immediately.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	s.logger.Info().Dur("interval", interval).Int("instruments", len(s.Watchlist())).
		Msg("scan loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scan loop stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scanner) sweep(ctx context.Context) {
	start := time.Now()
	if _, err := s.ScanOnce(ctx, s.cfg.Mode); err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
	}
	if s.metrics != nil {
		s.metrics.ScansTotal.Inc()
		s.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}
}

// ScanOnce performs a single sweep over the watchlist in stable order and
// returns the emitted signals. Fetch failures and non-qualifying setups
// skip the instrument silently; only the emission of accepted signals
// mutates pacing state.
func (s *Scanner) ScanOnce(ctx context.Context, mode Mode) ([]models.Signal, error) {
	var accepted []models.Signal

	for _, instrument := range s.Watchlist() {
		if ctx.Err() != nil {
			return accepted, ctx.Err()
		}

		candles, err := s.fetch(ctx, instrument)
		if err != nil {
			// DataUnavailable: silent skip, no pacing mutation.
			s.logger.Debug().Err(err).Str("instrument", instrument).Msg("fetch failed, skipping")
			if s.metrics != nil {
				s.metrics.FetchErrorsTotal.WithLabelValues(instrument).Inc()
			}
			continue
		}

		decision := s.scorer.Score(ctx, instrument, candles)
		if decision.Direction == models.None {
			continue
		}

		verdict := s.gov.Allow(instrument)
		if !verdict.Allowed {
			s.logger.Debug().Str("instrument", instrument).
				Str("reason", verdict.Reason.String()).
				Msg("decision rejected by governor")
			if s.metrics != nil {
				s.metrics.RejectionsTotal.WithLabelValues(verdict.Reason.String()).Inc()
			}
			continue
		}

		accepted = append(accepted, models.Signal{
			Instrument: instrument,
			Direction:  decision.Direction,
			Confidence: decision.Confidence,
			At:         time.Now().UTC(),
		})
	}

	if len(accepted) == 0 {
		s.updateGauges()
		return nil, nil
	}

	var emitted []models.Signal
	var err error
	switch mode {
	case ModeBestPick:
		emitted, err = s.emitBest(ctx, accepted)
	default:
		emitted, err = s.emitBundle(ctx, accepted)
	}
	s.updateGauges()
	return emitted, err
}

func (s *Scanner) fetch(ctx context.Context, instrument string) ([]models.Candle, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.provider.GetCandles(fetchCtx, instrument, s.cfg.Timeframe, s.cfg.CandleCount)
}

// emitBundle sends all accepted signals as one message. Each instrument
// starts its own cooldown; the bundle counts as a single global emission.
func (s *Scanner) emitBundle(ctx context.Context, accepted []models.Signal) ([]models.Signal, error) {
	instruments := make([]string, len(accepted))
	for i := range accepted {
		s.persist(ctx, &accepted[i])
		instruments[i] = accepted[i].Instrument
	}
	s.gov.RecordBatchEmission(instruments)
	s.countEmitted(accepted)

	if err := s.emitter.EmitBatch(ctx, accepted); err != nil {
		return accepted, fmt.Errorf("emit batch: %w", err)
	}
	return accepted, nil
}

// emitBest sends only the highest-confidence signal of the sweep.
func (s *Scanner) emitBest(ctx context.Context, accepted []models.Signal) ([]models.Signal, error) {
	best := accepted[0]
	for _, sig := range accepted[1:] {
		if sig.Confidence > best.Confidence {
			best = sig
		}
	}
	s.persist(ctx, &best)
	s.gov.RecordEmission(best.Instrument)
	s.countEmitted([]models.Signal{best})

	if err := s.emitter.Emit(ctx, best); err != nil {
		return []models.Signal{best}, fmt.Errorf("emit: %w", err)
	}
	return []models.Signal{best}, nil
}

func (s *Scanner) persist(ctx context.Context, sig *models.Signal) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordSignal(ctx, sig); err != nil {
		s.logger.Warn().Err(err).Str("instrument", sig.Instrument).Msg("failed to persist signal")
	}
}

func (s *Scanner) countEmitted(sigs []models.Signal) {
	if s.metrics == nil {
		return
	}
	for _, sig := range sigs {
		s.metrics.SignalsTotal.WithLabelValues(sig.Instrument, sig.Direction.String()).Inc()
	}
}

// ReportOutcome feeds a Win/Loss/Skip event into the governor and the
// signal history. When the loss trips the circuit breaker, the one-time
// stop notification goes out through the emitter.
func (s *Scanner) ReportOutcome(ctx context.Context, signalID int64, outcome models.Outcome) {
	if s.store != nil && signalID > 0 {
		if err := s.store.RecordOutcome(ctx, signalID, outcome); err != nil {
			s.logger.Warn().Err(err).Int64("signal_id", signalID).Msg("failed to persist outcome")
		}
	}

	tripped := s.gov.RecordOutcome(outcome)
	s.updateGauges()
	if tripped {
		st := s.gov.Snapshot()
		text := fmt.Sprintf("🚫 Paused after %d consecutive losses. Send /reset to resume.", st.LossStreak)
		if err := s.emitter.Notify(ctx, text); err != nil {
			s.logger.Warn().Err(err).Msg("failed to send circuit notification")
		}
	}
}

// Status exposes the governor state for /status reporting.
func (s *Scanner) Status() governor.Status {
	return s.gov.Snapshot()
}

// SetEconomy toggles the widened quota-saving pacing.
func (s *Scanner) SetEconomy(on bool) {
	s.gov.SetEconomy(on)
}

// Reset clears the circuit breaker and daily counters.
func (s *Scanner) Reset() {
	s.gov.Reset()
	s.updateGauges()
}

func (s *Scanner) updateGauges() {
	if s.metrics == nil {
		return
	}
	st := s.gov.Snapshot()
	if st.CircuitOpen {
		s.metrics.CircuitOpen.Set(1)
	} else {
		s.metrics.CircuitOpen.Set(0)
	}
	s.metrics.LossStreak.Set(float64(st.LossStreak))
}
