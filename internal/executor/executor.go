// Package executor abstracts how orders turn into fills. The backtest
// executor fills deterministically at the quoted price; live executors can
// be wrapped with retry semantics for transient venue failures.
package executor

import (
	"context"

	"github.com/helios-lab/helios-trading/pkg/errors"
)

// Fill is the result of executing one order.
type Fill struct {
	// Quantity is the number of units bought or sold.
	Quantity float64
	// Price is the execution price per unit.
	Price float64
	// Fee is the fee charged for the fill.
	Fee float64
	// CashDelta is the signed change to the cash balance.
	CashDelta float64
}

// FillExecutor executes orders. Buys are sized by notional amount, sells by
// unit quantity.
type FillExecutor interface {
	// ExecuteBuy spends notional cash at price and returns the fill.
	ExecuteBuy(ctx context.Context, price float64, notional float64) (Fill, error)

	// ExecuteSell sells quantity units at price and returns the fill.
	ExecuteSell(ctx context.Context, price float64, quantity float64) (Fill, error)
}

// BacktestFillExecutor fills orders instantly at the quoted price with a
// proportional fee. On buys the fee comes out of the purchased quantity, so
// cash decreases by exactly the notional; on sells it comes out of the
// proceeds.
type BacktestFillExecutor struct {
	feeRate float64
}

// NewBacktestFillExecutor creates a deterministic executor with the given
// proportional fee rate.
func NewBacktestFillExecutor(feeRate float64) *BacktestFillExecutor {
	return &BacktestFillExecutor{feeRate: feeRate}
}

// ExecuteBuy implements FillExecutor.
func (e *BacktestFillExecutor) ExecuteBuy(_ context.Context, price float64, notional float64) (Fill, error) {
	if price <= 0 || notional <= 0 {
		return Fill{}, errors.Newf(errors.ErrCodeFillFailed,
			"invalid buy: price=%f notional=%f", price, notional)
	}

	quantity := notional / price * (1 - e.feeRate)

	return Fill{
		Quantity:  quantity,
		Price:     price,
		Fee:       quantity * price * e.feeRate,
		CashDelta: -notional,
	}, nil
}

// ExecuteSell implements FillExecutor.
func (e *BacktestFillExecutor) ExecuteSell(_ context.Context, price float64, quantity float64) (Fill, error) {
	if price <= 0 || quantity <= 0 {
		return Fill{}, errors.Newf(errors.ErrCodeFillFailed,
			"invalid sell: price=%f quantity=%f", price, quantity)
	}

	return Fill{
		Quantity:  quantity,
		Price:     price,
		Fee:       quantity * price * e.feeRate,
		CashDelta: quantity * price * (1 - e.feeRate),
	}, nil
}
