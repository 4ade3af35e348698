package indicator

import (
	"math"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
)

// Periods for the enrichment stage. These are fixed properties of the
// strategy rather than tunables.
const (
	smaFastPeriod    = 50
	smaSlowPeriod    = 200
	emaShortPeriod   = 20
	emaMediumPeriod  = 50
	emaLongPeriod    = 200
	rsiPeriod        = 14
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	atrPeriod        = 14
)

// Enrich annotates the bar series with the indicator set the downstream
// stages consume, derives the regime and trend labels, and drops the warm-up
// prefix where any indicator is still undefined. The returned slice is a new
// allocation; the input is not modified.
func Enrich(bars []types.Bar) ([]types.Bar, error) {
	if len(bars) <= smaSlowPeriod {
		return nil, errors.Newf(errors.ErrCodeInsufficientData,
			"enrichment requires more than %d bars, got %d", smaSlowPeriod, len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	sma50 := SMA(closes, smaFastPeriod)
	sma200 := SMA(closes, smaSlowPeriod)
	ema20 := EMA(closes, emaShortPeriod)
	ema50 := EMA(closes, emaMediumPeriod)
	ema200 := EMA(closes, emaLongPeriod)
	rsi := RSI(closes, rsiPeriod)
	macd, macdSignal := MACD(closes, macdFastPeriod, macdSlowPeriod, macdSignalPeriod)
	atr := ATR(bars, atrPeriod)

	out := make([]types.Bar, 0, len(bars))

	for i := range bars {
		b := bars[i]
		b.SMA50 = sma50[i]
		b.SMA200 = sma200[i]
		b.EMA20 = ema20[i]
		b.EMA50 = ema50[i]
		b.EMA200 = ema200[i]
		b.RSI = rsi[i]
		b.MACD = macd[i]
		b.MACDSignal = macdSignal[i]
		b.ATR = atr[i]

		if anyNaN(b.SMA50, b.SMA200, b.EMA20, b.EMA50, b.EMA200, b.RSI, b.MACD, b.MACDSignal, b.ATR) {
			continue
		}

		b.Regime = regimeOf(b)
		b.Trend = trendOf(b)
		out = append(out, b)
	}

	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInsufficientData,
			"no bars remain after indicator warm-up")
	}

	return out, nil
}

// regimeOf classifies the market regime from the moving average cross.
func regimeOf(b types.Bar) types.Regime {
	if b.SMA50 > b.SMA200 {
		return types.RegimeTrending
	}

	return types.RegimeChoppy
}

// trendOf classifies the trend state used to scale the take-profit target.
func trendOf(b types.Bar) types.TrendState {
	switch {
	case b.EMA50 > b.EMA200:
		return types.TrendUptrend
	case b.EMA20 <= b.EMA50:
		return types.TrendNonUptrend
	default:
		return types.TrendIntermediate
	}
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}
