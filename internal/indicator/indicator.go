// Package indicator implements the numeric indicators used by the
// strategies. All functions are pure; when the input is too short for the
// requested period they report ok=false and callers must suppress rather
// than substitute a neutral value.
//
// EMA, RSI and ATR seed their recurrences with a simple arithmetic mean
// over the first period values. That warm-up is a known approximation,
// kept on purpose so outputs stay reproducible against the reference bot
// family.
package indicator

import "math"

// EMA returns the last value of the exponential moving average with the
// given period. Needs at least period values.
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	k := 2.0 / float64(period+1)
	e := mean(values[:period])
	for _, v := range values[period:] {
		e += k * (v - e)
	}
	return e, true
}

// EMASeries returns per-index EMA values aligned with the input. Entries
// before index start are undefined. ok is false when the input is shorter
// than period.
func EMASeries(values []float64, period int) (series []float64, start int, ok bool) {
	if period <= 0 || len(values) < period {
		return nil, 0, false
	}
	k := 2.0 / float64(period+1)
	series = make([]float64, len(values))
	start = period - 1
	e := mean(values[:period])
	series[start] = e
	for i := period; i < len(values); i++ {
		e += k * (values[i] - e)
		series[i] = e
	}
	return series, start, true
}

// RSI returns the Wilder-smoothed relative strength index over closes.
// Needs at least period+1 values. When the average loss is zero the
// result is 100.
func RSI(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period+1 {
		return 0, false
	}
	gains := make([]float64, 0, len(values)-1)
	losses := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		ch := values[i] - values[i-1]
		gains = append(gains, math.Max(ch, 0))
		losses = append(losses, math.Max(-ch, 0))
	}
	avgGain := mean(gains[:period])
	avgLoss := mean(losses[:period])
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// MACD returns the last MACD line value and the last signal line value.
// The MACD line is EMA(fast)-EMA(slow) where both are defined; the signal
// is an EMA over the defined MACD values. Needs at least slow+signal
// values.
func MACD(values []float64, fast, slow, signal int) (macdLine, signalLine float64, ok bool) {
	if fast <= 0 || slow <= 0 || signal <= 0 || len(values) < slow+signal {
		return 0, 0, false
	}
	fastSeries, _, okFast := EMASeries(values, fast)
	slowSeries, slowStart, okSlow := EMASeries(values, slow)
	if !okFast || !okSlow {
		return 0, 0, false
	}
	// Both EMAs are defined from slowStart on (slow >= fast is the usual
	// configuration; when it is not, defined-from is the later of the two).
	from := slowStart
	if fast > slow {
		from = fast - 1
	}
	macdVals := make([]float64, 0, len(values)-from)
	for i := from; i < len(values); i++ {
		macdVals = append(macdVals, fastSeries[i]-slowSeries[i])
	}
	sig, okSig := EMA(macdVals, signal)
	if !okSig {
		return 0, 0, false
	}
	return macdVals[len(macdVals)-1], sig, true
}

// ATR returns the Wilder-smoothed average true range. Needs at least
// period+1 candles worth of highs/lows/closes.
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return 0, false
	}
	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		trs = append(trs, tr)
	}
	atr := mean(trs[:period])
	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}
	return atr, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
