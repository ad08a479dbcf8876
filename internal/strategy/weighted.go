package strategy

import (
	"math"
	"sort"

	"github.com/Alias1177/Signaler/models"
)

// Weighted is the score-based strategy: a trend term, an RSI-deviation
// term and a momentum-boost term are combined per side and the stronger
// side must clear a separation threshold.
//
// The 0.45/0.40/0.15 weights are heuristics carried over from the
// reference bot family, documented as approximations and left alone.
type Weighted struct {
	Oversold   float64 // RSI band, default 30
	Overbought float64 // RSI band, default 70
	Separation float64 // minimum winning score, default 0.35

	RSIWeight      float64
	TrendWeight    float64
	MomentumWeight float64

	MomentumLookback int // candles used for the median body, default 10
}

// NewWeighted applies the reference defaults for zero fields.
func NewWeighted(separation float64) *Weighted {
	if separation <= 0 {
		separation = 0.35
	}
	return &Weighted{
		Oversold:         30,
		Overbought:       70,
		Separation:       separation,
		RSIWeight:        0.45,
		TrendWeight:      0.40,
		MomentumWeight:   0.15,
		MomentumLookback: 10,
	}
}

func (w *Weighted) Name() string { return "weighted" }

func (w *Weighted) Evaluate(snap Snapshot, candles []models.Candle) models.Decision {
	if len(candles) == 0 {
		return models.Decision{}
	}
	last := candles[len(candles)-1]

	var scoreUp, scoreDn float64

	if snap.EMATrend.OK {
		if last.Close > snap.EMATrend.V {
			scoreUp += w.TrendWeight
		} else if last.Close < snap.EMATrend.V {
			scoreDn += w.TrendWeight
		}
	}

	if snap.RSI.OK {
		// Distance from the midline, saturating at the band on each side.
		// The bands may sit at different distances from 50.
		switch {
		case snap.RSI.V > 50 && w.Overbought > 50:
			scoreUp += w.RSIWeight * clamp((snap.RSI.V-50)/(w.Overbought-50), 0, 1)
		case snap.RSI.V < 50 && w.Oversold < 50:
			scoreDn += w.RSIWeight * clamp((50-snap.RSI.V)/(50-w.Oversold), 0, 1)
		}
	}

	if boost, ok := w.momentumBoost(candles); ok {
		if last.Bullish() {
			scoreUp += w.MomentumWeight * boost
		} else if last.Close < last.Open {
			scoreDn += w.MomentumWeight * boost
		}
	}

	var side models.Direction
	var score float64
	switch {
	case scoreUp > scoreDn && scoreUp >= w.Separation:
		side, score = models.Buy, scoreUp
	case scoreDn > scoreUp && scoreDn >= w.Separation:
		side, score = models.Sell, scoreDn
	default:
		return models.Decision{}
	}

	// Score already lives in [0,1] for the default weights; reuse it as
	// the confidence and keep it inside the same band the vote strategy
	// uses.
	conf := clamp(score, 0, 0.95)
	return models.Decision{Direction: side, Confidence: conf, Score: score}
}

// momentumBoost compares the current candle body against the median body
// of the recent lookback window: min(body/median, 2)/2, in [0,1].
func (w *Weighted) momentumBoost(candles []models.Candle) (float64, bool) {
	lookback := w.MomentumLookback
	if lookback <= 0 {
		lookback = 10
	}
	if len(candles) < lookback+1 {
		return 0, false
	}
	recent := candles[len(candles)-1-lookback : len(candles)-1]
	bodies := make([]float64, len(recent))
	for i, c := range recent {
		bodies[i] = c.Body()
	}
	sort.Float64s(bodies)
	median := bodies[len(bodies)/2]
	if len(bodies)%2 == 0 {
		median = (bodies[len(bodies)/2-1] + bodies[len(bodies)/2]) / 2
	}
	if median == 0 {
		return 0, false
	}
	body := candles[len(candles)-1].Body()
	return math.Min(body/median, 2) / 2, true
}
