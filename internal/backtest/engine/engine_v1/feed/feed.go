// Package feed provides ordered bar series to the backtest engine. Feeds
// yield bars strictly ascending in time; the engine validates the ordering
// before simulation.
package feed

import (
	"iter"
	"time"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/moznion/go-optional"
)

// Feed is an ordered source of bars.
type Feed interface {
	// ReadAll iterates over bars, optionally restricted to [start, end].
	// Iteration stops at the first read error.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.Bar, error]

	// Count returns the number of bars ReadAll would yield with no bounds.
	Count() (int, error)

	// Close releases resources held by the feed.
	Close() error
}

// inRange reports whether t falls inside the optional [start, end] window.
func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
