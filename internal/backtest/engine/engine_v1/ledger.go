package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/helios-lab/helios-trading/internal/executor"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	"github.com/shopspring/decimal"
)

// Minimum cash guard: an entry is skipped unless cash also covers half the
// target notional, so a nearly-exhausted balance never opens a dust position.
const minCashGuardFraction = 0.5

// Ledger owns the cash balance and the append-only trade record stream for a
// run. All fills go through the executor and then the ledger; nothing else
// mutates cash.
type Ledger struct {
	cash     float64
	exec     executor.FillExecutor
	sequence int
	records  []types.TradeRecord
}

// NewLedger creates a ledger with the given starting cash. Fills are
// executed through exec.
func NewLedger(initialCapital float64, exec executor.FillExecutor) *Ledger {
	return &Ledger{cash: initialCapital, exec: exec}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Records returns the trade records appended so far, in fill order.
func (l *Ledger) Records() []types.TradeRecord {
	return l.records
}

// PortfolioValue returns cash plus the marked value of the open position.
func (l *Ledger) PortfolioValue(position *types.Position, price float64) float64 {
	if position.IsOpen() {
		return l.cash + position.Quantity*price
	}

	return l.cash
}

// ApplyBuy opens a position of the given notional at the bar close and
// records the fill. The position fields are written through position.
func (l *Ledger) ApplyBuy(ctx context.Context, position *types.Position, bar types.Bar, notional float64) (types.TradeRecord, error) {
	if position.IsOpen() {
		return types.TradeRecord{}, errors.New(errors.ErrCodeFillFailed,
			"cannot buy while a position is open")
	}

	fill, err := l.exec.ExecuteBuy(ctx, bar.Close, notional)
	if err != nil {
		return types.TradeRecord{}, err
	}

	l.cash += fill.CashDelta

	position.Quantity = fill.Quantity
	position.EntryPrice = fill.Price
	position.EntryTime = bar.Time
	position.EntryFee = fill.Fee
	position.PeakPrice = bar.Close
	position.EntryRegime = bar.Regime

	record := l.append(types.TradeRecord{
		Side:           types.SideBuy,
		Timestamp:      bar.Time,
		Price:          fill.Price,
		Quantity:       fill.Quantity,
		Fee:            fill.Fee,
		PortfolioValue: l.PortfolioValue(position, bar.Close),
		Regime:         bar.Regime,
	})

	return record, nil
}

// ApplySell closes the open position at the bar close and records the fill.
// The realized profit nets out both the entry and exit fees and is computed
// in decimal arithmetic to keep reported PnL exact.
func (l *Ledger) ApplySell(ctx context.Context, position *types.Position, bar types.Bar, reason types.ExitReason) (types.TradeRecord, error) {
	if !position.IsOpen() {
		return types.TradeRecord{}, errors.New(errors.ErrCodeFillFailed,
			"cannot sell without an open position")
	}

	fill, err := l.exec.ExecuteSell(ctx, bar.Close, position.Quantity)
	if err != nil {
		return types.TradeRecord{}, err
	}

	price := decimal.NewFromFloat(fill.Price)
	entry := decimal.NewFromFloat(position.EntryPrice)
	quantity := decimal.NewFromFloat(fill.Quantity)
	profit, _ := price.Sub(entry).Mul(quantity).
		Sub(decimal.NewFromFloat(fill.Fee)).
		Sub(decimal.NewFromFloat(position.EntryFee)).
		Float64()

	l.cash += fill.CashDelta

	record := l.append(types.TradeRecord{
		Side:           types.SideSell,
		Timestamp:      bar.Time,
		Price:          fill.Price,
		Quantity:       fill.Quantity,
		Fee:            fill.Fee,
		PortfolioValue: l.cash,
		Reason:         reason,
		ProfitLoss:     profit,
		Regime:         position.EntryRegime,
	})

	position.Reset()

	return record, nil
}

// HoldingBars expresses the holding period of a just-closed trade in bar
// units.
func HoldingBars(entryTime, exitTime time.Time, barInterval time.Duration) float64 {
	if barInterval <= 0 {
		return 0
	}

	return exitTime.Sub(entryTime).Seconds() / barInterval.Seconds()
}

func (l *Ledger) append(record types.TradeRecord) types.TradeRecord {
	l.sequence++
	record.ID = uuid.New().String()
	record.Sequence = l.sequence
	l.records = append(l.records, record)

	return record
}
