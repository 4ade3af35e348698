package types

import "time"

// Position is the mutable simulation state for the single open position.
// Quantity > 0, an active entry and PeakPrice > 0 all hold together; a flat
// position is the zero value.
type Position struct {
	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time
	EntryFee   float64
	// PeakPrice is the highest close observed since entry. Non-decreasing
	// while the position is open, zero when flat.
	PeakPrice float64
	// EntryRegime is the regime tag captured on the entry bar. It keys the
	// per-regime trade statistics when the position closes.
	EntryRegime Regime
}

// IsOpen reports whether a position is currently held.
func (p *Position) IsOpen() bool {
	return p.Quantity > 0
}

// Reset returns the position to flat.
func (p *Position) Reset() {
	*p = Position{}
}
