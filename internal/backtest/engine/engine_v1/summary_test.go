package engine

import (
	"math"
	"testing"
	"time"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SummaryTestSuite struct {
	suite.Suite

	config BacktestConfig
}

func TestSummarySuite(t *testing.T) {
	suite.Run(t, new(SummaryTestSuite))
}

func (suite *SummaryTestSuite) SetupTest() {
	suite.config = DefaultConfig()
}

func sellRecord(sequence int, price float64, profit float64) types.TradeRecord {
	return types.TradeRecord{
		Sequence:   sequence,
		Side:       types.SideSell,
		Timestamp:  time.Now(),
		Price:      price,
		Quantity:   1,
		ProfitLoss: profit,
	}
}

func buyRecord(sequence int, price float64) types.TradeRecord {
	return types.TradeRecord{
		Sequence:  sequence,
		Side:      types.SideBuy,
		Timestamp: time.Now(),
		Price:     price,
		Quantity:  1,
	}
}

func (suite *SummaryTestSuite) TestEmptyValueSeriesFails() {
	_, err := Summarize(suite.config, nil, nil, NewAccumulator())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInsufficientData))
}

func (suite *SummaryTestSuite) TestTotalReturn() {
	values := []float64{10000, 10500, 11000}

	summary, err := Summarize(suite.config, values, nil, NewAccumulator())
	suite.Require().NoError(err)

	suite.InDelta(11000.0, summary.FinalValue, 1e-9)
	suite.InDelta(10.0, summary.TotalReturnPercent, 1e-9)
	suite.False(summary.SharpeDegraded)
	suite.Greater(summary.SharpeRatio, 0.0)
}

func (suite *SummaryTestSuite) TestSharpeDegradedOnFlatSeries() {
	values := []float64{10000, 10000, 10000, 10000}

	summary, err := Summarize(suite.config, values, nil, NewAccumulator())
	suite.Require().NoError(err)

	suite.InDelta(0.0, summary.SharpeRatio, 1e-9)
	suite.True(summary.SharpeDegraded)
}

func (suite *SummaryTestSuite) TestSharpeDegradedOnShortSeries() {
	summary, err := Summarize(suite.config, []float64{10000, 10100}, nil, NewAccumulator())
	suite.Require().NoError(err)

	suite.InDelta(0.0, summary.SharpeRatio, 1e-9)
	suite.True(summary.SharpeDegraded)
}

func (suite *SummaryTestSuite) TestMaxDrawdown() {
	// Peak 12000, trough 9000: drawdown 25%.
	values := []float64{10000, 12000, 9000, 11000}

	summary, err := Summarize(suite.config, values, nil, NewAccumulator())
	suite.Require().NoError(err)

	suite.InDelta(0.25, summary.MaxDrawdown, 1e-9)
}

func (suite *SummaryTestSuite) TestWinRatePairsPositionally() {
	records := []types.TradeRecord{
		buyRecord(1, 100),
		sellRecord(2, 110, 10),
		buyRecord(3, 120),
		sellRecord(4, 115, -5),
		// Open position at the end: unmatched buy is excluded.
		buyRecord(5, 110),
	}

	summary, err := Summarize(suite.config, []float64{10000, 10100, 10050}, records, NewAccumulator())
	suite.Require().NoError(err)

	suite.Equal(3, summary.BuyCount)
	suite.Equal(2, summary.SellCount)
	suite.Equal(5, summary.TotalTrades)
	suite.InDelta(50.0, summary.WinRatePercent, 1e-9)
}

func (suite *SummaryTestSuite) TestWinRateIsStrict() {
	records := []types.TradeRecord{
		buyRecord(1, 100),
		// Selling exactly at the buy price is not a win.
		sellRecord(2, 100, 0),
	}

	summary, err := Summarize(suite.config, []float64{10000, 10000, 10000}, records, NewAccumulator())
	suite.Require().NoError(err)

	suite.InDelta(0.0, summary.WinRatePercent, 1e-9)
}

func (suite *SummaryTestSuite) TestProfitFactorInfiniteWithoutLosses() {
	metrics := NewAccumulator()
	metrics.RecordExit(10, 1, types.RegimeTrending)

	summary, err := Summarize(suite.config, []float64{10000, 10100}, nil, metrics)
	suite.Require().NoError(err)

	suite.True(math.IsInf(summary.ProfitFactor, 1))
}

func (suite *SummaryTestSuite) TestProfitFactor() {
	metrics := NewAccumulator()
	metrics.RecordExit(30, 1, types.RegimeTrending)
	metrics.RecordExit(-10, 1, types.RegimeTrending)

	summary, err := Summarize(suite.config, []float64{10000, 10100}, nil, metrics)
	suite.Require().NoError(err)

	suite.InDelta(3.0, summary.ProfitFactor, 1e-9)
}

func (suite *SummaryTestSuite) TestSummarizeIsRepeatable() {
	metrics := NewAccumulator()
	metrics.RecordExit(10, 2, types.RegimeChoppy)

	values := []float64{10000, 10200, 10100, 10400}
	records := []types.TradeRecord{buyRecord(1, 100), sellRecord(2, 104, 10)}

	first, err := Summarize(suite.config, values, records, metrics)
	suite.Require().NoError(err)

	second, err := Summarize(suite.config, values, records, metrics)
	suite.Require().NoError(err)

	// Everything except the generated identity matches.
	suite.InDelta(first.SharpeRatio, second.SharpeRatio, 1e-12)
	suite.InDelta(first.MaxDrawdown, second.MaxDrawdown, 1e-12)
	suite.InDelta(first.WinRatePercent, second.WinRatePercent, 1e-12)
	suite.Equal(first.Choppy, second.Choppy)
	suite.NotEqual(first.ID, second.ID)
}
