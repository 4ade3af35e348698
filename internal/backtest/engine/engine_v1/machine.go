package engine

import (
	"context"

	"github.com/helios-lab/helios-trading/internal/executor"
	"github.com/helios-lab/helios-trading/internal/logger"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	"go.uber.org/zap"
)

// Simulation is the per-bar trading state machine. Each bar is processed in
// a fixed order: the portfolio value series is appended first, then the
// cooldown gate, then exit management for an open position, then entry for a
// flat one. An exit terminates the bar, so the same bar never both closes
// and reopens a position.
type Simulation struct {
	config  BacktestConfig
	ledger  *Ledger
	exits   *ExitPolicy
	entries *EntryPolicy
	metrics *Accumulator
	logger  *logger.Logger

	position      types.Position
	cooldown      int
	valueSeries   []float64
	processedBars int
}

// NewSimulation creates a simulation in the flat state with the configured
// starting capital, filling through a deterministic backtest executor.
func NewSimulation(config BacktestConfig, log *logger.Logger) *Simulation {
	return NewSimulationWithExecutor(config,
		executor.NewBacktestFillExecutor(config.FeeRate), log)
}

// NewSimulationWithExecutor creates a simulation filling through exec.
func NewSimulationWithExecutor(config BacktestConfig, exec executor.FillExecutor, log *logger.Logger) *Simulation {
	return &Simulation{
		config:  config,
		ledger:  NewLedger(config.InitialCapital, exec),
		exits:   NewExitPolicy(config),
		entries: NewEntryPolicy(config),
		metrics: NewAccumulator(),
		logger:  log,
	}
}

// ProcessBar advances the state machine by one bar.
func (s *Simulation) ProcessBar(ctx context.Context, bar types.Bar) error {
	s.processedBars++
	s.valueSeries = append(s.valueSeries, s.ledger.PortfolioValue(&s.position, bar.Close))

	if s.cooldown > 0 {
		s.cooldown--

		return nil
	}

	if s.position.IsOpen() {
		return s.manageOpenPosition(ctx, bar)
	}

	return s.tryEnter(ctx, bar)
}

// manageOpenPosition evaluates the exit hierarchy. If no exit fires, the
// peak close is ratcheted for the trailing stop.
func (s *Simulation) manageOpenPosition(ctx context.Context, bar types.Bar) error {
	reason := s.exits.Evaluate(&s.position, bar)
	if reason.IsNone() {
		if bar.Close > s.position.PeakPrice {
			s.position.PeakPrice = bar.Close
		}

		return nil
	}

	entryTime := s.position.EntryTime
	entryRegime := s.position.EntryRegime

	record, err := s.ledger.ApplySell(ctx, &s.position, bar, reason.Unwrap())
	if err != nil {
		return errors.Wrap(errors.ErrCodeFillFailed, "exit fill failed", err)
	}

	s.metrics.RecordFee(record.Fee)
	s.metrics.RecordExit(record.ProfitLoss,
		HoldingBars(entryTime, bar.Time, s.config.BarInterval), entryRegime)

	if record.ProfitLoss < 0 {
		s.cooldown = s.config.CooldownLossBars
	} else {
		s.cooldown = s.config.CooldownWinBars
	}

	s.logger.Debug("closed position",
		zap.String("reason", string(record.Reason)),
		zap.Float64("price", record.Price),
		zap.Float64("profit", record.ProfitLoss),
		zap.Int("cooldown", s.cooldown))

	return nil
}

// tryEnter opens a position when the entry policy approves the bar.
func (s *Simulation) tryEnter(ctx context.Context, bar types.Bar) error {
	portfolioValue := s.ledger.PortfolioValue(&s.position, bar.Close)

	notional := s.entries.Evaluate(bar, s.ledger.Cash(), portfolioValue)
	if notional.IsNone() {
		return nil
	}

	record, err := s.ledger.ApplyBuy(ctx, &s.position, bar, notional.Unwrap())
	if err != nil {
		return errors.Wrap(errors.ErrCodeFillFailed, "entry fill failed", err)
	}

	s.metrics.RecordFee(record.Fee)

	s.logger.Debug("opened position",
		zap.Float64("price", record.Price),
		zap.Float64("quantity", record.Quantity),
		zap.String("regime", string(bar.Regime)))

	return nil
}

// Position returns the current position state.
func (s *Simulation) Position() types.Position {
	return s.position
}

// Cooldown returns the remaining cooldown bars.
func (s *Simulation) Cooldown() int {
	return s.cooldown
}

// Ledger returns the simulation's ledger.
func (s *Simulation) Ledger() *Ledger {
	return s.ledger
}

// Metrics returns the simulation's trade statistics accumulator.
func (s *Simulation) Metrics() *Accumulator {
	return s.metrics
}

// ValueSeries returns the per-bar portfolio value series, one entry per
// processed bar, valued before any fill on that bar.
func (s *Simulation) ValueSeries() []float64 {
	return s.valueSeries
}

// ProcessedBars returns the number of bars processed so far.
func (s *Simulation) ProcessedBars() int {
	return s.processedBars
}
