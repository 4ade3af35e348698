// Package indicator computes the technical indicators the signal and policy
// stages depend on. All functions operate over the full bar series and return
// one value per input element, with NaN for the warm-up prefix.
package indicator

import (
	"math"

	"github.com/helios-lab/helios-trading/internal/types"
)

// SMA computes the simple moving average of values over the given period.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64

	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// EMA computes the exponential moving average of values over the given
// period, seeded with the SMA of the first period values.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}

	prev := seed / float64(period)
	out[period-1] = prev
	multiplier := 2.0 / (float64(period) + 1.0)

	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*multiplier + prev
		out[i] = prev
	}

	return out
}

// RSI computes the Relative Strength Index using Wilder's smoothing.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	var avgGain, avgLoss float64

	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]

		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs)
}

// MACD computes the MACD line and its signal line for the given fast, slow
// and signal periods.
func MACD(values []float64, fast, slow, signal int) (macd []float64, signalLine []float64) {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	macd = nanSlice(len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	// The signal line is an EMA of the MACD line, computed over the suffix
	// where the MACD line is defined.
	signalLine = nanSlice(len(values))

	start := slow - 1
	if start >= len(values) {
		return macd, signalLine
	}

	suffix := EMA(macd[start:], signal)
	for i, v := range suffix {
		signalLine[start+i] = v
	}

	return macd, signalLine
}

// ATR computes the Average True Range over the given period using Wilder's
// smoothing of the true range.
func ATR(bars []types.Bar, period int) []float64 {
	out := nanSlice(len(bars))
	if period <= 0 || len(bars) <= period {
		return out
	}

	tr := make([]float64, len(bars))
	tr[0] = bars[0].High - bars[0].Low

	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowClose := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}

	var sum float64
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}

	prev := sum / float64(period)
	out[period] = prev

	for i := period + 1; i < len(bars); i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		out[i] = prev
	}

	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
