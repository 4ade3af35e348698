package engine

import (
	"testing"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) TestStreakTracking() {
	metrics := NewAccumulator()

	for _, profit := range []float64{1, 1, -1, 1, 1, 1} {
		metrics.RecordExit(profit, 1, types.RegimeTrending)
	}

	suite.Equal(3, metrics.MaxConsecutiveWins())
	suite.Equal(1, metrics.MaxConsecutiveLosses())
	suite.InDelta(5.0, metrics.GrossProfit(), 1e-9)
	suite.InDelta(1.0, metrics.GrossLoss(), 1e-9)
}

func (suite *MetricsTestSuite) TestZeroProfitBreaksWinStreak() {
	metrics := NewAccumulator()

	metrics.RecordExit(1, 1, types.RegimeTrending)
	metrics.RecordExit(0, 1, types.RegimeTrending)
	metrics.RecordExit(1, 1, types.RegimeTrending)

	suite.Equal(1, metrics.MaxConsecutiveWins())
	suite.Equal(1, metrics.MaxConsecutiveLosses())
	suite.InDelta(0.0, metrics.GrossLoss(), 1e-9)
}

func (suite *MetricsTestSuite) TestRegimeAttribution() {
	metrics := NewAccumulator()

	metrics.RecordExit(10, 2, types.RegimeTrending)
	metrics.RecordExit(-5, 4, types.RegimeTrending)
	metrics.RecordExit(3, 6, types.RegimeChoppy)

	trending := metrics.RegimeStats(types.RegimeTrending)
	suite.Equal(2, trending.Trades)
	suite.Equal(1, trending.Wins)
	suite.InDelta(50.0, trending.WinRatePercent, 1e-9)

	choppy := metrics.RegimeStats(types.RegimeChoppy)
	suite.Equal(1, choppy.Trades)
	suite.Equal(1, choppy.Wins)
	suite.InDelta(100.0, choppy.WinRatePercent, 1e-9)

	suite.InDelta(4.0, metrics.AvgHoldingBars(), 1e-9)
}

func (suite *MetricsTestSuite) TestEmptyAccumulator() {
	metrics := NewAccumulator()

	suite.InDelta(0.0, metrics.AvgHoldingBars(), 1e-9)
	suite.Equal(0, metrics.MaxConsecutiveWins())

	stats := metrics.RegimeStats(types.RegimeChoppy)
	suite.Equal(0, stats.Trades)
	suite.InDelta(0.0, stats.WinRatePercent, 1e-9)
}

func (suite *MetricsTestSuite) TestFeeAccumulation() {
	metrics := NewAccumulator()

	metrics.RecordFee(1.5)
	metrics.RecordFee(2.5)

	suite.InDelta(4.0, metrics.TotalFees(), 1e-9)
}
