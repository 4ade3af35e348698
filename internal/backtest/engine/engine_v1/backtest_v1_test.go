package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/helios-lab/helios-trading/internal/backtest/engine"
	"github.com/helios-lab/helios-trading/internal/backtest/engine/engine_v1/feed"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

// scenarioConfigYAML disables enrichment so tests can feed pre-annotated
// bars, disarms the trailing stop and removes fees.
const scenarioConfigYAML = `
initial_capital: 10000
fee_rate: 0
position_fraction: 0.7
choppy_position_fraction: 0.5
stop_loss_atr: 1.0
choppy_stop_tightening: 0.75
take_profit_atr_uptrend: 5.0
take_profit_atr_non_trend: 3.0
take_profit_atr_intermediate: 4.0
trailing_stop_percent: 0.5
cooldown_win_bars: 2
cooldown_loss_bars: 4
signal_threshold: 0.65
annualization_factor: 252
bar_interval: 4h
enrich_bars: false
`

type BacktestEngineTestSuite struct {
	suite.Suite

	ctx       context.Context
	engine    *BacktestEngineV1
	resultDir string
}

func TestBacktestEngineSuite(t *testing.T) {
	suite.Run(t, new(BacktestEngineTestSuite))
}

func (suite *BacktestEngineTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.engine = NewBacktestEngineV1()
	suite.resultDir = suite.T().TempDir()
}

func (suite *BacktestEngineTestSuite) prepare(bars []types.Bar) {
	suite.Require().NoError(suite.engine.Initialize(scenarioConfigYAML))
	suite.Require().NoError(suite.engine.SetFeed(feed.NewInMemoryFeed(bars)))
	suite.Require().NoError(suite.engine.SetResultsFolder(suite.resultDir))
}

func (suite *BacktestEngineTestSuite) TestRunRequiresInitialization() {
	err := suite.engine.Run(suite.ctx, optional.None[engine.OnProcessDataCallback]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *BacktestEngineTestSuite) TestRunRequiresFeed() {
	suite.Require().NoError(suite.engine.Initialize(scenarioConfigYAML))

	err := suite.engine.Run(suite.ctx, optional.None[engine.OnProcessDataCallback]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoFeedConfigured))
}

func (suite *BacktestEngineTestSuite) TestRunRequiresResultsFolder() {
	suite.Require().NoError(suite.engine.Initialize(scenarioConfigYAML))
	suite.Require().NoError(suite.engine.SetFeed(feed.NewInMemoryFeed(nil)))

	err := suite.engine.Run(suite.ctx, optional.None[engine.OnProcessDataCallback]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoResultsFolder))
}

func (suite *BacktestEngineTestSuite) TestSetFeedRejectsNil() {
	suite.Error(suite.engine.SetFeed(nil))
}

func (suite *BacktestEngineTestSuite) TestEmptyFeedIsFatal() {
	suite.prepare(nil)

	err := suite.engine.Run(suite.ctx, optional.None[engine.OnProcessDataCallback]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyFeed))
}

func (suite *BacktestEngineTestSuite) TestOutOfOrderFeedIsFatal() {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.Bar{
		{Time: t0.Add(4 * time.Hour), Close: 100},
		{Time: t0, Close: 101},
	}
	suite.prepare(bars)

	err := suite.engine.Run(suite.ctx, optional.None[engine.OnProcessDataCallback]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidBarSequence))
}

func (suite *BacktestEngineTestSuite) TestDuplicateTimestampIsFatal() {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.Bar{
		{Time: t0, Close: 100},
		{Time: t0, Close: 101},
	}
	suite.prepare(bars)

	err := suite.engine.Run(suite.ctx, optional.None[engine.OnProcessDataCallback]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidBarSequence))
}

func (suite *BacktestEngineTestSuite) TestLastSummaryBeforeRun() {
	_, err := suite.engine.LastSummary()
	suite.Error(err)
}

func (suite *BacktestEngineTestSuite) TestFullRunWritesArtifacts() {
	bars := []types.Bar{
		scenarioBar(0, 100, 1),
		scenarioBar(1, 105, 0),
		scenarioBar(2, 103, 0),
		scenarioBar(3, 94, 0),
		scenarioBar(4, 94, 1),
	}
	suite.prepare(bars)

	progressCalls := 0
	callback := engine.OnProcessDataCallback(func(current int, total int) error {
		progressCalls++
		suite.Equal(5, total)
		suite.Equal(progressCalls, current)

		return nil
	})

	suite.Require().NoError(suite.engine.Run(suite.ctx, optional.Some(callback)))
	suite.Equal(5, progressCalls)

	summary, err := suite.engine.LastSummary()
	suite.Require().NoError(err)

	suite.InDelta(9580.0, summary.FinalValue, 1e-9)
	suite.Equal(2, summary.TotalTrades)
	suite.Equal(1, summary.BuyCount)
	suite.Equal(1, summary.SellCount)
	suite.InDelta(0.0, summary.WinRatePercent, 1e-9)
	suite.InDelta(420.0, summary.GrossLoss, 1e-9)
	suite.Equal(1, summary.Trending.Trades)

	for _, name := range []string{TradesFileName, StatsFileName, ReportFileName} {
		info, err := os.Stat(filepath.Join(suite.resultDir, name))
		suite.Require().NoError(err, name)
		suite.Greater(info.Size(), int64(0), name)
	}
}

func (suite *BacktestEngineTestSuite) TestRunHonorsCancellation() {
	bars := []types.Bar{scenarioBar(0, 100, 0), scenarioBar(1, 101, 0)}
	suite.prepare(bars)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := suite.engine.Run(ctx, optional.None[engine.OnProcessDataCallback]())
	suite.Error(err)
}
