// Package governor gates signal emission: per-instrument cooldowns and
// hourly caps, a global minimum gap, daily win/loss caps and a loss-streak
// circuit breaker. It owns all pacing state; nothing else in the process
// mutates it.
package governor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/models"
)

// Reason explains why a decision was rejected (or ReasonOK).
type Reason int

const (
	ReasonOK Reason = iota
	ReasonCircuitOpen
	ReasonGlobalGap
	ReasonDailyCap
	ReasonCooldown
	ReasonHourlyCap
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonCircuitOpen:
		return "circuit_open"
	case ReasonGlobalGap:
		return "global_gap"
	case ReasonDailyCap:
		return "daily_cap"
	case ReasonCooldown:
		return "cooldown"
	case ReasonHourlyCap:
		return "hourly_cap"
	}
	return "unknown"
}

// Config holds the pacing parameters. Zero caps disable the daily limits.
type Config struct {
	Cooldown            time.Duration
	GlobalMinGap        time.Duration
	MaxEmissionsPerHour int
	LossStreakLimit     int
	DailyWinCap         int
	DailyLossCap        int

	// Now is the clock; defaults to time.Now. Injected by tests.
	Now func() time.Time
}

// Verdict is the result of an Allow check.
type Verdict struct {
	Allowed bool
	Reason  Reason
}

// Status is a read-only snapshot of the global pacing state.
type Status struct {
	CircuitOpen        bool
	LossStreak         int
	LossStreakLimit    int
	DailyWins          int
	DailyLosses        int
	LastGlobalEmission time.Time
	Economy            bool
}

type instrumentState struct {
	lastEmission time.Time
	emissions    []time.Time // sliding one-hour window
}

// Governor is safe for concurrent use; a single mutex serializes every
// state mutation so concurrent accepts and outcome events cannot race.
type Governor struct {
	mu     sync.Mutex
	cfg    Config
	now    func() time.Time
	logger zerolog.Logger

	instruments map[string]*instrumentState

	lastGlobalEmission time.Time
	lossStreak         int
	circuitOpen        bool
	dailyWins          int
	dailyLosses        int
	dailyDate          string // UTC day the daily counters belong to

	economy bool
}

func New(cfg Config) *Governor {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Governor{
		cfg:         cfg,
		now:         now,
		logger:      log.With().Str("component", "governor").Logger(),
		instruments: make(map[string]*instrumentState),
	}
}

// SetEconomy widens the pacing to save vendor quota: cooldown becomes at
// least 15 minutes and the global gap at least 20.
func (g *Governor) SetEconomy(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.economy = on
}

func (g *Governor) effectiveCooldown() time.Duration {
	if g.economy && g.cfg.Cooldown < 15*time.Minute {
		return 15 * time.Minute
	}
	return g.cfg.Cooldown
}

func (g *Governor) effectiveGap() time.Duration {
	if g.economy && g.cfg.GlobalMinGap < 20*time.Minute {
		return 20 * time.Minute
	}
	return g.cfg.GlobalMinGap
}

// Allow checks whether an emission for the instrument may happen right
// now. Gates run in order: circuit breaker, global gap, daily caps,
// per-instrument cooldown, hourly cap. It does not mutate state; pair it
// with RecordEmission once the signal is actually sent.
func (g *Governor) Allow(instrument string) Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.rollDay(now)

	if g.circuitOpen {
		return Verdict{Reason: ReasonCircuitOpen}
	}
	if !g.lastGlobalEmission.IsZero() && now.Sub(g.lastGlobalEmission) < g.effectiveGap() {
		return Verdict{Reason: ReasonGlobalGap}
	}
	if g.cfg.DailyWinCap > 0 && g.dailyWins >= g.cfg.DailyWinCap {
		return Verdict{Reason: ReasonDailyCap}
	}
	if g.cfg.DailyLossCap > 0 && g.dailyLosses >= g.cfg.DailyLossCap {
		return Verdict{Reason: ReasonDailyCap}
	}

	st := g.instruments[instrument]
	if st != nil {
		if !st.lastEmission.IsZero() && now.Sub(st.lastEmission) < g.effectiveCooldown() {
			return Verdict{Reason: ReasonCooldown}
		}
		if g.cfg.MaxEmissionsPerHour > 0 && g.countLastHour(st, now) >= g.cfg.MaxEmissionsPerHour {
			return Verdict{Reason: ReasonHourlyCap}
		}
	}

	return Verdict{Allowed: true, Reason: ReasonOK}
}

// RecordEmission marks one emitted signal for the instrument, updating
// both the instrument window and the global gap timestamp.
func (g *Governor) RecordEmission(instrument string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	g.recordInstrument(instrument, now)
	g.lastGlobalEmission = now
}

// RecordBatchEmission marks a bundled emission: each instrument gets its
// own cooldown/hourly bookkeeping while the bundle counts as a single
// global emission.
func (g *Governor) RecordBatchEmission(instruments []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for _, instrument := range instruments {
		g.recordInstrument(instrument, now)
	}
	if len(instruments) > 0 {
		g.lastGlobalEmission = now
	}
}

func (g *Governor) recordInstrument(instrument string, now time.Time) {
	st := g.instruments[instrument]
	if st == nil {
		st = &instrumentState{}
		g.instruments[instrument] = st
	}
	st.lastEmission = now
	st.emissions = append(st.emissions, now)
	g.evictOld(st, now)
}

// RecordOutcome feeds an externally reported trade result back into the
// breaker. A Win clears the loss streak but never the open circuit: the
// breaker exists to force a human pause, so only Reset reopens emissions.
// The return value is true exactly once, when this loss trips the
// breaker, so the caller can send the one-time stop notification.
func (g *Governor) RecordOutcome(outcome models.Outcome) (tripped bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.rollDay(now)

	switch outcome {
	case models.OutcomeWin:
		g.lossStreak = 0
		g.dailyWins++
	case models.OutcomeLoss:
		g.lossStreak++
		g.dailyLosses++
		if g.cfg.LossStreakLimit > 0 && g.lossStreak >= g.cfg.LossStreakLimit && !g.circuitOpen {
			g.circuitOpen = true
			tripped = true
			g.logger.Warn().Int("streak", g.lossStreak).Msg("loss streak limit reached, circuit open")
		}
	case models.OutcomeSkip:
		// no state change
	}
	return tripped
}

// Reset clears the loss streak, the circuit breaker and the daily
// counters. Operator action only.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lossStreak = 0
	g.circuitOpen = false
	g.dailyWins = 0
	g.dailyLosses = 0
	g.logger.Info().Msg("pacing state reset")
}

// Snapshot returns the current global pacing state for status reporting.
func (g *Governor) Snapshot() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDay(g.now())
	return Status{
		CircuitOpen:        g.circuitOpen,
		LossStreak:         g.lossStreak,
		LossStreakLimit:    g.cfg.LossStreakLimit,
		DailyWins:          g.dailyWins,
		DailyLosses:        g.dailyLosses,
		LastGlobalEmission: g.lastGlobalEmission,
		Economy:            g.economy,
	}
}

// rollDay resets the daily counters when the UTC day changes. Callers
// hold the mutex.
func (g *Governor) rollDay(now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if g.dailyDate != day {
		g.dailyDate = day
		g.dailyWins = 0
		g.dailyLosses = 0
	}
}

func (g *Governor) countLastHour(st *instrumentState, now time.Time) int {
	g.evictOld(st, now)
	return len(st.emissions)
}

func (g *Governor) evictOld(st *instrumentState, now time.Time) {
	cutoff := now.Add(-time.Hour)
	i := 0
	for i < len(st.emissions) && !st.emissions[i].After(cutoff) {
		i++
	}
	if i > 0 {
		st.emissions = append(st.emissions[:0], st.emissions[i:]...)
	}
}
