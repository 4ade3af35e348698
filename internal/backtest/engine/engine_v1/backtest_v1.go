// Package engine_v1 is the first-generation backtest engine: an exit-first
// trading state machine driven by regime-conditioned policies, simulated
// bar by bar over an ordered feed.
package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/helios-lab/helios-trading/internal/backtest/engine"
	"github.com/helios-lab/helios-trading/internal/backtest/engine/engine_v1/feed"
	"github.com/helios-lab/helios-trading/internal/indicator"
	"github.com/helios-lab/helios-trading/internal/logger"
	"github.com/helios-lab/helios-trading/internal/report"
	"github.com/helios-lab/helios-trading/internal/signal"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// Artifact file names written into the results folder.
const (
	TradesFileName = "trades.parquet"
	StatsFileName  = "stats.yaml"
	ReportFileName = "report.html"
)

// BacktestEngineV1 implements engine.Engine.
type BacktestEngineV1 struct {
	config        BacktestConfig
	barFeed       feed.Feed
	resultsFolder string
	predictor     signal.Predictor
	log           *logger.Logger

	initialized bool
	lastSummary optional.Option[types.Summary]
}

// NewBacktestEngineV1 creates an engine with the rule-based predictor.
func NewBacktestEngineV1() *BacktestEngineV1 {
	log, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}

	return &BacktestEngineV1{
		predictor: signal.NewRuleBasedPredictor(),
		log:       log,
	}
}

// Initialize implements engine.Engine.
func (e *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	e.config = parsed
	e.initialized = true
	e.log.Info("engine initialized",
		zap.Float64("initial_capital", parsed.InitialCapital),
		zap.Duration("bar_interval", parsed.BarInterval))

	return nil
}

// SetFeed implements engine.Engine.
func (e *BacktestEngineV1) SetFeed(f feed.Feed) error {
	if f == nil {
		return errors.New(errors.ErrCodeNoFeedConfigured, "feed is nil")
	}

	e.barFeed = f

	return nil
}

// SetPredictor replaces the default rule-based predictor.
func (e *BacktestEngineV1) SetPredictor(p signal.Predictor) error {
	if p == nil {
		return errors.New(errors.ErrCodePredictorFailed, "predictor is nil")
	}

	e.predictor = p

	return nil
}

// SetResultsFolder implements engine.Engine.
func (e *BacktestEngineV1) SetResultsFolder(folder string) error {
	if folder == "" {
		return errors.New(errors.ErrCodeNoResultsFolder, "results folder is empty")
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeNoResultsFolder, err,
			"cannot create results folder %s", folder)
	}

	e.resultsFolder = folder

	return nil
}

// Run implements engine.Engine. The feed is validated and prepared before
// the first bar is simulated, so a malformed feed never produces a partial
// run.
func (e *BacktestEngineV1) Run(ctx context.Context, onProcessData optional.Option[engine.OnProcessDataCallback]) error {
	if err := e.checkReady(); err != nil {
		return err
	}

	bars, err := e.loadBars()
	if err != nil {
		return err
	}

	e.log.Info("starting backtest", zap.Int("bars", len(bars)))

	sim := NewSimulation(e.config, e.log)

	for i, bar := range bars {
		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCodeUnknown, "backtest cancelled", ctx.Err())
		default:
		}

		if err := sim.ProcessBar(ctx, bar); err != nil {
			return err
		}

		if onProcessData.IsSome() {
			if err := onProcessData.Unwrap()(i+1, len(bars)); err != nil {
				return err
			}
		}
	}

	summary, err := Summarize(e.config, sim.ValueSeries(), sim.Ledger().Records(), sim.Metrics())
	if err != nil {
		return err
	}

	if err := e.writeResults(summary, sim.Ledger().Records()); err != nil {
		return err
	}

	e.lastSummary = optional.Some(summary)
	e.log.Info("backtest finished",
		zap.Float64("final_value", summary.FinalValue),
		zap.Float64("total_return_pct", summary.TotalReturnPercent),
		zap.Int("trades", summary.TotalTrades))

	return nil
}

// LastSummary implements engine.Engine.
func (e *BacktestEngineV1) LastSummary() (types.Summary, error) {
	if e.lastSummary.IsNone() {
		return types.Summary{}, errors.New(errors.ErrCodeInsufficientData,
			"no completed run to summarize")
	}

	return e.lastSummary.Unwrap(), nil
}

func (e *BacktestEngineV1) checkReady() error {
	if !e.initialized {
		return errors.New(errors.ErrCodeInvalidConfiguration, "engine is not initialized")
	}

	if e.barFeed == nil {
		return errors.New(errors.ErrCodeNoFeedConfigured, "no feed configured")
	}

	if e.resultsFolder == "" {
		return errors.New(errors.ErrCodeNoResultsFolder, "no results folder configured")
	}

	return nil
}

// loadBars drains the feed, enforces strict time ordering, and runs the
// enrichment and signal stages when the config asks for them.
func (e *BacktestEngineV1) loadBars() ([]types.Bar, error) {
	var bars []types.Bar

	for bar, err := range e.barFeed.ReadAll(e.config.StartTime, e.config.EndTime) {
		if err != nil {
			return nil, err
		}

		if len(bars) > 0 && !bar.Time.After(bars[len(bars)-1].Time) {
			return nil, errors.Newf(errors.ErrCodeInvalidBarSequence,
				"bar at %s does not advance past %s", bar.Time, bars[len(bars)-1].Time)
		}

		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyFeed, "feed yielded no bars")
	}

	if !e.config.EnrichBars {
		return bars, nil
	}

	enriched, err := indicator.Enrich(bars)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEnrichmentFailed, "enrichment failed", err)
	}

	if err := signal.Annotate(enriched, e.predictor, e.config.SignalThreshold); err != nil {
		return nil, err
	}

	return enriched, nil
}

// writeResults exports the fill stream, summary statistics and HTML report
// into the results folder.
func (e *BacktestEngineV1) writeResults(summary types.Summary, records []types.TradeRecord) error {
	tradeLog, err := NewTradeLog()
	if err != nil {
		return err
	}
	defer tradeLog.Close()

	for _, record := range records {
		if err := tradeLog.Append(record); err != nil {
			return err
		}
	}

	if err := tradeLog.Write(filepath.Join(e.resultsFolder, TradesFileName)); err != nil {
		return err
	}

	if err := types.WriteSummary(filepath.Join(e.resultsFolder, StatsFileName), summary); err != nil {
		return err
	}

	return report.WriteHTML(filepath.Join(e.resultsFolder, ReportFileName), summary, records)
}
