package engine

import (
	"github.com/helios-lab/helios-trading/internal/types"
)

// Accumulator aggregates per-trade statistics as exits are recorded. Regime
// attribution is keyed to the regime at entry, so a trade opened in a
// trending market counts against the trending bucket even if it closes in
// chop.
type Accumulator struct {
	grossProfit float64
	grossLoss   float64
	totalFees   float64

	consecutiveWins      int
	consecutiveLosses    int
	maxConsecutiveWins   int
	maxConsecutiveLosses int

	closedTrades   int
	sumHoldingBars float64
	regimeTrades   map[types.Regime]int
	regimeWins     map[types.Regime]int
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		regimeTrades: make(map[types.Regime]int),
		regimeWins:   make(map[types.Regime]int),
	}
}

// RecordFee accounts a fill fee. Called for both sides of a trade.
func (a *Accumulator) RecordFee(fee float64) {
	a.totalFees += fee
}

// RecordExit folds a closed trade into the running statistics. A trade with
// zero realized profit counts on the losing side: it extends the loss streak
// and contributes nothing to gross profit.
func (a *Accumulator) RecordExit(profit float64, holdingBars float64, entryRegime types.Regime) {
	a.closedTrades++
	a.sumHoldingBars += holdingBars
	a.regimeTrades[entryRegime]++

	if profit > 0 {
		a.grossProfit += profit
		a.consecutiveWins++
		a.consecutiveLosses = 0
		a.regimeWins[entryRegime]++
	} else {
		a.grossLoss += -profit
		a.consecutiveLosses++
		a.consecutiveWins = 0
	}

	if a.consecutiveWins > a.maxConsecutiveWins {
		a.maxConsecutiveWins = a.consecutiveWins
	}

	if a.consecutiveLosses > a.maxConsecutiveLosses {
		a.maxConsecutiveLosses = a.consecutiveLosses
	}
}

// GrossProfit returns the summed profit of winning trades.
func (a *Accumulator) GrossProfit() float64 {
	return a.grossProfit
}

// GrossLoss returns the summed magnitude of losing trades.
func (a *Accumulator) GrossLoss() float64 {
	return a.grossLoss
}

// TotalFees returns the summed fill fees.
func (a *Accumulator) TotalFees() float64 {
	return a.totalFees
}

// MaxConsecutiveWins returns the longest win streak seen.
func (a *Accumulator) MaxConsecutiveWins() int {
	return a.maxConsecutiveWins
}

// MaxConsecutiveLosses returns the longest loss streak seen.
func (a *Accumulator) MaxConsecutiveLosses() int {
	return a.maxConsecutiveLosses
}

// AvgHoldingBars returns the mean holding period of closed trades, in bars.
func (a *Accumulator) AvgHoldingBars() float64 {
	if a.closedTrades == 0 {
		return 0
	}

	return a.sumHoldingBars / float64(a.closedTrades)
}

// RegimeStats returns the trade count, win count and win rate for a regime.
func (a *Accumulator) RegimeStats(regime types.Regime) types.RegimeStats {
	stats := types.RegimeStats{
		Trades: a.regimeTrades[regime],
		Wins:   a.regimeWins[regime],
	}

	if stats.Trades > 0 {
		stats.WinRatePercent = float64(stats.Wins) / float64(stats.Trades) * 100
	}

	return stats
}
