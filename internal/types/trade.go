package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/helios-lab/helios-trading/pkg/errors"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ExitReason records why a sell fill was emitted. Empty for buys.
type ExitReason string

const (
	ExitReasonSignal       ExitReason = "signal"
	ExitReasonStopLoss     ExitReason = "stop-loss"
	ExitReasonTakeProfit   ExitReason = "take-profit"
	ExitReasonTrailingStop ExitReason = "trailing-stop"
)

// TradeRecord is one fill, immutable once appended to the trade log.
type TradeRecord struct {
	ID string `yaml:"id" json:"id" csv:"id"`
	// Sequence is 1-based and monotonically increasing across the run.
	Sequence  int       `yaml:"sequence" json:"sequence" csv:"sequence" validate:"required,gt=0"`
	Side      Side      `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp" validate:"required"`
	Price     float64   `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	Quantity  float64   `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	// Fee is price * quantity * fee rate at fill time.
	Fee float64 `yaml:"fee" json:"fee" csv:"fee" validate:"gte=0"`
	// PortfolioValue is the portfolio value recorded at the start of the fill bar.
	PortfolioValue float64 `yaml:"portfolio_value" json:"portfolio_value" csv:"portfolio_value"`
	// Reason is set on sells only.
	Reason ExitReason `yaml:"reason,omitempty" json:"reason,omitempty" csv:"reason"`
	// ProfitLoss is the realized, fee-inclusive profit of the round trip.
	// Zero for buys.
	ProfitLoss float64 `yaml:"profit_loss" json:"profit_loss" csv:"profit_loss"`
	// Regime active when the position was entered.
	Regime Regime `yaml:"regime" json:"regime" csv:"regime"`
}

// Validate validates the TradeRecord struct.
func (t *TradeRecord) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTrade, "invalid trade record", err)
	}

	return nil
}
