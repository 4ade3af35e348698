package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RegimeStats holds the per-regime trade breakdown.
type RegimeStats struct {
	Trades int `yaml:"trades"`
	Wins   int `yaml:"wins"`
	// WinRatePercent is wins / trades * 100, 0 when no trades.
	WinRatePercent float64 `yaml:"win_rate_percent"`
}

// Summary is the portfolio-level performance report derived from the full
// portfolio-value series and the trade list.
type Summary struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`

	InitialCapital     float64 `yaml:"initial_capital"`
	FinalValue         float64 `yaml:"final_value"`
	TotalReturnPercent float64 `yaml:"total_return_percent"`

	// SharpeRatio is annualized; 0.0 when there are fewer than two return
	// observations or the returns have zero standard deviation, in which
	// case SharpeDegraded is set.
	SharpeRatio    float64 `yaml:"sharpe_ratio"`
	SharpeDegraded bool    `yaml:"sharpe_degraded"`

	// MaxDrawdown is a fraction of the running peak, not a percentage.
	MaxDrawdown float64 `yaml:"max_drawdown"`

	TotalTrades int `yaml:"total_trades"`
	BuyCount    int `yaml:"buy_count"`
	SellCount   int `yaml:"sell_count"`

	// WinRatePercent pairs the i-th sell with the i-th buy by list order.
	WinRatePercent float64 `yaml:"win_rate_percent"`

	TotalFees      float64 `yaml:"total_fees"`
	AvgHoldingBars float64 `yaml:"avg_holding_bars"`

	GrossProfit float64 `yaml:"gross_profit"`
	GrossLoss   float64 `yaml:"gross_loss"`
	// ProfitFactor is GrossProfit / GrossLoss, +Inf when GrossLoss is zero.
	ProfitFactor float64 `yaml:"profit_factor"`

	MaxConsecutiveWins   int `yaml:"max_consecutive_wins"`
	MaxConsecutiveLosses int `yaml:"max_consecutive_losses"`

	Trending RegimeStats `yaml:"trending"`
	Choppy   RegimeStats `yaml:"choppy"`
}

// WriteSummary writes the summary as YAML to the given path.
func WriteSummary(path string, summary Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary to file: %w", err)
	}

	return nil
}
