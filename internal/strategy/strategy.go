// Package strategy turns a candle series into a directional decision with
// a heuristic confidence score.
package strategy

import (
	"github.com/Alias1177/Signaler/internal/indicator"
	"github.com/Alias1177/Signaler/models"
)

// Value is an indicator output that may be undefined when there was not
// enough history to compute it.
type Value struct {
	V  float64
	OK bool
}

// Snapshot holds the indicator values one strategy evaluation consumes.
// Recomputed each cycle, never persisted.
type Snapshot struct {
	EMAFast    Value // short EMA, default period 20
	EMAMid     Value // mid EMA, default period 50
	EMATrend   Value // long trend EMA, default period 200
	RSI        Value
	MACDLine   Value
	MACDSignal Value
	ATR        Value
}

// Periods configures the indicator periods that feed a Snapshot.
type Periods struct {
	EMAFast    int
	EMAMid     int
	EMATrend   int
	RSI        int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	ATR        int
}

// DefaultPeriods matches the reference bot family.
func DefaultPeriods() Periods {
	return Periods{
		EMAFast:    20,
		EMAMid:     50,
		EMATrend:   200,
		RSI:        14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		ATR:        14,
	}
}

// BuildSnapshot computes all indicator values for the series. When there
// is less history than the trend-EMA period, the trend value falls back to
// the simple average of all closes, matching the reference behavior.
func BuildSnapshot(candles []models.Candle, p Periods) Snapshot {
	closes := models.Closes(candles)
	highs := models.Highs(candles)
	lows := models.Lows(candles)

	var snap Snapshot
	snap.EMAFast.V, snap.EMAFast.OK = indicator.EMA(closes, p.EMAFast)
	snap.EMAMid.V, snap.EMAMid.OK = indicator.EMA(closes, p.EMAMid)
	snap.EMATrend.V, snap.EMATrend.OK = indicator.EMA(closes, p.EMATrend)
	if !snap.EMATrend.OK && len(closes) > 0 {
		var sum float64
		for _, c := range closes {
			sum += c
		}
		snap.EMATrend = Value{V: sum / float64(len(closes)), OK: true}
	}
	snap.RSI.V, snap.RSI.OK = indicator.RSI(closes, p.RSI)
	var macdOK bool
	snap.MACDLine.V, snap.MACDSignal.V, macdOK = indicator.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	snap.MACDLine.OK = macdOK
	snap.MACDSignal.OK = macdOK
	snap.ATR.V, snap.ATR.OK = indicator.ATR(highs, lows, closes, p.ATR)
	return snap
}

// Strategy scores one instrument from its indicator snapshot plus the raw
// candles (the weighted strategy looks at recent candle bodies).
type Strategy interface {
	Name() string
	Evaluate(snap Snapshot, candles []models.Candle) models.Decision
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
