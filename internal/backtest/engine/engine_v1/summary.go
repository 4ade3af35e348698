package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
)

// Summarize reduces a completed run to its summary statistics. It is a pure
// function of its inputs: calling it twice on the same run state yields the
// same figures (aside from the generated ID and timestamp).
func Summarize(config BacktestConfig, valueSeries []float64, records []types.TradeRecord, metrics *Accumulator) (types.Summary, error) {
	if len(valueSeries) == 0 {
		return types.Summary{}, errors.New(errors.ErrCodeInsufficientData,
			"cannot summarize a run with no portfolio values")
	}

	summary := types.Summary{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		InitialCapital: config.InitialCapital,
		FinalValue:     valueSeries[len(valueSeries)-1],
		TotalFees:      metrics.TotalFees(),
		AvgHoldingBars: metrics.AvgHoldingBars(),
		GrossProfit:    metrics.GrossProfit(),
		GrossLoss:      metrics.GrossLoss(),

		MaxConsecutiveWins:   metrics.MaxConsecutiveWins(),
		MaxConsecutiveLosses: metrics.MaxConsecutiveLosses(),

		Trending: metrics.RegimeStats(types.RegimeTrending),
		Choppy:   metrics.RegimeStats(types.RegimeChoppy),
	}

	summary.TotalReturnPercent = (summary.FinalValue - config.InitialCapital) / config.InitialCapital * 100
	summary.SharpeRatio, summary.SharpeDegraded = sharpeRatio(valueSeries, config.AnnualizationFactor)
	summary.MaxDrawdown = maxDrawdown(valueSeries)

	summary.ProfitFactor = math.Inf(1)
	if summary.GrossLoss > 0 {
		summary.ProfitFactor = summary.GrossProfit / summary.GrossLoss
	}

	var buys, sells []types.TradeRecord

	for _, record := range records {
		switch record.Side {
		case types.SideBuy:
			buys = append(buys, record)
		case types.SideSell:
			sells = append(sells, record)
		}
	}

	summary.BuyCount = len(buys)
	summary.SellCount = len(sells)
	summary.TotalTrades = len(records)
	summary.WinRatePercent = winRate(buys, sells)

	return summary, nil
}

// sharpeRatio computes the annualized Sharpe ratio over simple per-bar
// returns. With fewer than two returns, or a flat series, the ratio is
// reported as zero and flagged as degraded instead of failing the run.
func sharpeRatio(valueSeries []float64, annualizationFactor float64) (float64, bool) {
	returns := make([]float64, 0, len(valueSeries))

	for i := 1; i < len(valueSeries); i++ {
		if valueSeries[i-1] == 0 {
			continue
		}

		returns = append(returns, (valueSeries[i]-valueSeries[i-1])/valueSeries[i-1])
	}

	if len(returns) < 2 {
		return 0, true
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	variance /= float64(len(returns) - 1)
	stdev := math.Sqrt(variance)

	if stdev == 0 {
		return 0, true
	}

	return mean / stdev * math.Sqrt(annualizationFactor), false
}

// maxDrawdown returns the largest peak-to-trough decline of the value
// series, as a fraction of the running peak.
func maxDrawdown(valueSeries []float64) float64 {
	var peak, maxDD float64

	for _, v := range valueSeries {
		if v > peak {
			peak = v
		}

		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// winRate pairs the i-th sell with the i-th buy and counts a win when the
// sell price strictly exceeds the buy price. Unmatched buys (an open
// position at the end of the run) are excluded.
func winRate(buys, sells []types.TradeRecord) float64 {
	pairs := len(sells)
	if pairs > len(buys) {
		pairs = len(buys)
	}

	if pairs == 0 {
		return 0
	}

	var wins int

	for i := 0; i < pairs; i++ {
		if sells[i].Price > buys[i].Price {
			wins++
		}
	}

	return float64(wins) / float64(pairs) * 100
}
