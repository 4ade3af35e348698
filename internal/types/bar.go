package types

import "time"

// Regime is the categorical market-state tag derived from the SMA50/SMA200
// relationship. It conditions position sizing and stop tightness.
type Regime string

const (
	RegimeTrending Regime = "trending"
	RegimeChoppy   Regime = "choppy"
)

// TrendState classifies the longer-term trend used to pick the take-profit
// ATR multiplier.
type TrendState string

const (
	// TrendUptrend means EMA50 > EMA200 (long-term uptrend).
	TrendUptrend TrendState = "uptrend"
	// TrendNonUptrend means EMA20 <= EMA50 (short-term bear or sideways).
	TrendNonUptrend TrendState = "non_uptrend"
	// TrendIntermediate means a short-term uptrend inside a long-term non-uptrend.
	TrendIntermediate TrendState = "intermediate"
)

// Bar is one immutable time step of the input series. The OHLCV fields come
// from the feed; the indicator, signal and regime fields are filled in by the
// enrichment and signal stages before the bar reaches the simulation.
type Bar struct {
	Time   time.Time `csv:"timestamp"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`

	// Indicator fields.
	SMA50      float64 `csv:"sma50"`
	SMA200     float64 `csv:"sma200"`
	EMA20      float64 `csv:"ema20"`
	EMA50      float64 `csv:"ema50"`
	EMA200     float64 `csv:"ema200"`
	RSI        float64 `csv:"rsi"`
	MACD       float64 `csv:"macd"`
	MACDSignal float64 `csv:"macd_signal"`
	ATR        float64 `csv:"atr"`

	// SignalProb is the predictive model's probability of favorable upward
	// movement. Signal is the thresholded binary decision the core consumes.
	SignalProb float64 `csv:"signal_prob"`
	Signal     int     `csv:"signal"`
	// SellSignal marks a rule-based exit signal; evaluated after the
	// stop/profit/trailing exits.
	SellSignal int `csv:"sell_signal"`

	Regime Regime     `csv:"regime"`
	Trend  TrendState `csv:"trend"`
}
