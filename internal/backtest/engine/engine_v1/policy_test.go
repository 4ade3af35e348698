package engine

import (
	"testing"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/stretchr/testify/suite"
)

type PolicyTestSuite struct {
	suite.Suite

	config BacktestConfig
}

func TestPolicySuite(t *testing.T) {
	suite.Run(t, new(PolicyTestSuite))
}

func (suite *PolicyTestSuite) SetupTest() {
	suite.config = DefaultConfig()
}

func openPosition(entryPrice, peakPrice float64) types.Position {
	return types.Position{Quantity: 1, EntryPrice: entryPrice, PeakPrice: peakPrice}
}

func (suite *PolicyTestSuite) TestStopLossIsStrict() {
	policy := NewExitPolicy(suite.config)
	position := openPosition(100, 100)

	// Stop level is 100 - 1.0 * 2 = 98; sitting exactly on it does not fire.
	atLevel := types.Bar{Close: 98, ATR: 2, Regime: types.RegimeTrending, Trend: types.TrendUptrend}
	suite.True(policy.Evaluate(&position, atLevel).IsNone())

	below := types.Bar{Close: 97.99, ATR: 2, Regime: types.RegimeTrending, Trend: types.TrendUptrend}
	reason := policy.Evaluate(&position, below)
	suite.Require().True(reason.IsSome())
	suite.Equal(types.ExitReasonStopLoss, reason.Unwrap())
}

func (suite *PolicyTestSuite) TestStopTightensInChoppyRegime() {
	policy := NewExitPolicy(suite.config)
	position := openPosition(100, 100)

	// Choppy stop level is 100 - 0.75 * 2 = 98.5.
	bar := types.Bar{Close: 98.2, ATR: 2, Regime: types.RegimeChoppy, Trend: types.TrendUptrend}
	reason := policy.Evaluate(&position, bar)
	suite.Require().True(reason.IsSome())
	suite.Equal(types.ExitReasonStopLoss, reason.Unwrap())

	// The same close survives the wider trending stop.
	bar.Regime = types.RegimeTrending
	suite.True(policy.Evaluate(&position, bar).IsNone())
}

func (suite *PolicyTestSuite) TestTakeProfitScalesWithTrend() {
	policy := NewExitPolicy(suite.config)
	position := openPosition(100, 100)

	// Target is entry + multiple * ATR with ATR = 2: uptrend 110,
	// intermediate 108, non-uptrend 106.
	bar := types.Bar{Close: 107, ATR: 2, Regime: types.RegimeTrending}

	bar.Trend = types.TrendUptrend
	suite.True(policy.Evaluate(&position, bar).IsNone())

	bar.Trend = types.TrendIntermediate
	suite.True(policy.Evaluate(&position, bar).IsNone())

	bar.Trend = types.TrendNonUptrend
	reason := policy.Evaluate(&position, bar)
	suite.Require().True(reason.IsSome())
	suite.Equal(types.ExitReasonTakeProfit, reason.Unwrap())
}

func (suite *PolicyTestSuite) TestStopLossOutranksTrailingStop() {
	policy := NewExitPolicy(suite.config)

	// A deep drop from a high peak breaches both the stop-loss and the
	// trailing stop; the stop-loss reason wins.
	position := openPosition(100, 120)
	bar := types.Bar{Close: 90, ATR: 2, Regime: types.RegimeTrending, Trend: types.TrendUptrend}

	reason := policy.Evaluate(&position, bar)
	suite.Require().True(reason.IsSome())
	suite.Equal(types.ExitReasonStopLoss, reason.Unwrap())
}

func (suite *PolicyTestSuite) TestTrailingStopFromPeak() {
	policy := NewExitPolicy(suite.config)
	position := openPosition(112, 120)

	// Trailing level is 120 * 0.97 = 116.4, above the stop (110) and below
	// the take-profit target (122).
	bar := types.Bar{Close: 116, ATR: 2, Regime: types.RegimeTrending, Trend: types.TrendUptrend}

	reason := policy.Evaluate(&position, bar)
	suite.Require().True(reason.IsSome())
	suite.Equal(types.ExitReasonTrailingStop, reason.Unwrap())
}

func (suite *PolicyTestSuite) TestSellSignalRanksLast() {
	policy := NewExitPolicy(suite.config)
	position := openPosition(100, 100)

	// Nothing priced fires; the sell signal exits.
	bar := types.Bar{Close: 100.5, ATR: 2, Regime: types.RegimeTrending, Trend: types.TrendUptrend, SellSignal: 1}
	reason := policy.Evaluate(&position, bar)
	suite.Require().True(reason.IsSome())
	suite.Equal(types.ExitReasonSignal, reason.Unwrap())

	// A breached stop outranks the sell signal.
	bar.Close = 90
	reason = policy.Evaluate(&position, bar)
	suite.Require().True(reason.IsSome())
	suite.Equal(types.ExitReasonStopLoss, reason.Unwrap())
}

func (suite *PolicyTestSuite) TestEntryRequiresSignal() {
	policy := NewEntryPolicy(suite.config)

	bar := types.Bar{Close: 100, Regime: types.RegimeTrending, Signal: 0}
	suite.True(policy.Evaluate(bar, 10000, 10000).IsNone())

	bar.Signal = 1
	notional := policy.Evaluate(bar, 10000, 10000)
	suite.Require().True(notional.IsSome())
	suite.InDelta(7000.0, notional.Unwrap(), 1e-9)
}

func (suite *PolicyTestSuite) TestEntrySizeShrinksInChoppyRegime() {
	policy := NewEntryPolicy(suite.config)

	bar := types.Bar{Close: 100, Regime: types.RegimeChoppy, Signal: 1}
	notional := policy.Evaluate(bar, 10000, 10000)
	suite.Require().True(notional.IsSome())
	suite.InDelta(5000.0, notional.Unwrap(), 1e-9)
}

func (suite *PolicyTestSuite) TestEntryCashGuard() {
	policy := NewEntryPolicy(suite.config)
	bar := types.Bar{Close: 100, Regime: types.RegimeTrending, Signal: 1}

	// Cash covers neither the notional nor the guard.
	suite.True(policy.Evaluate(bar, 2000, 10000).IsNone())

	// Cash covers the guard (3500) but not the full notional (7000).
	suite.True(policy.Evaluate(bar, 5000, 10000).IsNone())

	// Cash covers both.
	suite.True(policy.Evaluate(bar, 7000, 10000).IsSome())
}
