// Package signal turns enriched bars into entry and exit signals. A
// Predictor scores each bar with an entry probability; Annotate thresholds
// the score into the binary Signal column and derives the momentum-based
// SellSignal column.
package signal

import (
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
)

// Sell-signal thresholds. A sell signal requires overbought RSI together
// with a bearish MACD cross, and is suppressed on bars that also carry an
// entry signal.
const (
	sellRSIThreshold = 60.0
)

// Predictor scores a bar with the probability that entering a position now
// is favorable. Implementations must be deterministic for a given bar.
type Predictor interface {
	// Predict returns the entry probability for the bar, in [0, 1].
	Predict(bar types.Bar) (float64, error)

	// Name identifies the predictor in logs and reports.
	Name() string
}

// Annotate scores every bar with the predictor and fills the SignalProb,
// Signal and SellSignal columns in place. A bar carries an entry signal when
// its probability strictly exceeds threshold.
func Annotate(bars []types.Bar, predictor Predictor, threshold float64) error {
	if predictor == nil {
		return errors.New(errors.ErrCodePredictorFailed, "predictor is nil")
	}

	for i := range bars {
		prob, err := predictor.Predict(bars[i])
		if err != nil {
			return errors.Wrapf(errors.ErrCodePredictorFailed, err,
				"predictor %q failed at bar %s", predictor.Name(), bars[i].Time)
		}

		bars[i].SignalProb = prob

		if prob > threshold {
			bars[i].Signal = 1
		} else {
			bars[i].Signal = 0
		}

		bars[i].SellSignal = 0
		if bars[i].RSI > sellRSIThreshold && bars[i].MACD < bars[i].MACDSignal && bars[i].Signal == 0 {
			bars[i].SellSignal = 1
		}
	}

	return nil
}
