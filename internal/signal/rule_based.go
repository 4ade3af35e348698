package signal

import "github.com/helios-lab/helios-trading/internal/types"

// Rule thresholds for the baseline predictor.
const (
	ruleRSIThreshold = 40.0
)

// RuleBasedPredictor is the baseline predictor: it fires with full
// confidence when RSI is oversold and MACD has crossed above its signal
// line, and stays flat otherwise.
type RuleBasedPredictor struct{}

// NewRuleBasedPredictor creates the baseline rule predictor.
func NewRuleBasedPredictor() *RuleBasedPredictor {
	return &RuleBasedPredictor{}
}

// Predict implements Predictor.
func (p *RuleBasedPredictor) Predict(bar types.Bar) (float64, error) {
	if bar.RSI < ruleRSIThreshold && bar.MACD > bar.MACDSignal {
		return 1.0, nil
	}

	return 0.0, nil
}

// Name implements Predictor.
func (p *RuleBasedPredictor) Name() string {
	return "rule_based"
}
