// Package engine defines the contract a backtest engine implements.
package engine

import (
	"context"

	"github.com/helios-lab/helios-trading/internal/backtest/engine/engine_v1/feed"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/moznion/go-optional"
)

// OnProcessDataCallback reports simulation progress. current is the index of
// the bar just processed and total the number of bars in the feed. Returning
// an error aborts the run.
type OnProcessDataCallback func(current int, total int) error

// Engine runs a full backtest: it consumes a bar feed, simulates the trading
// state machine, and writes trades, statistics and a report to the results
// folder.
type Engine interface {
	// Initialize configures the engine from a YAML document.
	Initialize(config string) error

	// SetFeed sets the bar feed to simulate over.
	SetFeed(f feed.Feed) error

	// SetResultsFolder sets the directory run artifacts are written to.
	SetResultsFolder(folder string) error

	// Run executes the backtest. The optional callback is invoked once per
	// processed bar.
	Run(ctx context.Context, onProcessData optional.Option[OnProcessDataCallback]) error

	// LastSummary returns the summary of the most recent completed run.
	LastSummary() (types.Summary, error)
}
