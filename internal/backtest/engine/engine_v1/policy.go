package engine

import (
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/moznion/go-optional"
)

// ExitPolicy decides whether an open position must be closed on a bar. The
// priced exits are checked in a fixed priority: stop-loss, then take-profit,
// then trailing stop; the sell-signal exit ranks last. Exactly one exit can
// fire per bar.
type ExitPolicy struct {
	config BacktestConfig
}

// NewExitPolicy creates the exit policy for the given config.
func NewExitPolicy(config BacktestConfig) *ExitPolicy {
	return &ExitPolicy{config: config}
}

// Evaluate returns the exit reason that fires on this bar, if any. All price
// comparisons are strict, so a close sitting exactly on a level does not
// trigger.
func (p *ExitPolicy) Evaluate(position *types.Position, bar types.Bar) optional.Option[types.ExitReason] {
	if bar.Close < position.EntryPrice-p.stopMultiple(bar.Regime)*bar.ATR {
		return optional.Some(types.ExitReasonStopLoss)
	}

	if bar.Close > position.EntryPrice+p.takeProfitMultiple(bar.Trend)*bar.ATR {
		return optional.Some(types.ExitReasonTakeProfit)
	}

	if bar.Close < position.PeakPrice*(1-p.config.TrailingStopPercent) {
		return optional.Some(types.ExitReasonTrailingStop)
	}

	if bar.SellSignal == 1 {
		return optional.Some(types.ExitReasonSignal)
	}

	return optional.None[types.ExitReason]()
}

// stopMultiple tightens the stop in a choppy regime.
func (p *ExitPolicy) stopMultiple(regime types.Regime) float64 {
	if regime == types.RegimeChoppy {
		return p.config.StopLossATR * p.config.ChoppyStopTightening
	}

	return p.config.StopLossATR
}

// takeProfitMultiple scales the profit target with the trend state: an
// established uptrend is given the most room to run.
func (p *ExitPolicy) takeProfitMultiple(trend types.TrendState) float64 {
	switch trend {
	case types.TrendUptrend:
		return p.config.TakeProfitATRUptrend
	case types.TrendNonUptrend:
		return p.config.TakeProfitATRNonTrend
	default:
		return p.config.TakeProfitATRIntermediate
	}
}

// EntryPolicy decides whether and how large a position to open on a bar.
type EntryPolicy struct {
	config BacktestConfig
}

// NewEntryPolicy creates the entry policy for the given config.
func NewEntryPolicy(config BacktestConfig) *EntryPolicy {
	return &EntryPolicy{config: config}
}

// Evaluate returns the notional to commit on this bar, or none. An entry
// requires the bar to carry an entry signal, and the cash balance must cover
// both the full notional and the minimum cash guard.
func (p *EntryPolicy) Evaluate(bar types.Bar, cash float64, portfolioValue float64) optional.Option[float64] {
	if bar.Signal != 1 {
		return optional.None[float64]()
	}

	fraction := p.config.PositionFraction
	if bar.Regime == types.RegimeChoppy {
		fraction = p.config.ChoppyPositionFraction
	}

	notional := fraction * portfolioValue
	if cash < fraction*portfolioValue*minCashGuardFraction || cash < notional {
		return optional.None[float64]()
	}

	return optional.Some(notional)
}
