package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MarketDataTestSuite struct {
	suite.Suite
}

func TestMarketDataSuite(t *testing.T) {
	suite.Run(t, new(MarketDataTestSuite))
}

func (suite *MarketDataTestSuite) TestDuckDBWriterCSVRoundTrip() {
	path := filepath.Join(suite.T().TempDir(), "bars.csv")

	writer, err := NewDuckDBWriter(path)
	suite.Require().NoError(err)

	defer writer.Close()

	suite.Require().NoError(writer.Initialize())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		bar := types.Bar{
			Time:   start.Add(time.Duration(i) * 4 * time.Hour),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100.5,
			Volume: 1000,
		}
		suite.Require().NoError(writer.Write(bar))
	}

	outputPath, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Equal(path, outputPath)
	suite.Equal(path, writer.OutputPath())

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	suite.Len(lines, 4)
	suite.Contains(lines[0], "close")
}

func (suite *MarketDataTestSuite) TestDuckDBWriterDeduplicatesOnTime() {
	path := filepath.Join(suite.T().TempDir(), "bars.csv")

	writer, err := NewDuckDBWriter(path)
	suite.Require().NoError(err)

	defer writer.Close()

	suite.Require().NoError(writer.Initialize())

	bar := types.Bar{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 100}
	suite.Require().NoError(writer.Write(bar))
	suite.Require().NoError(writer.Write(bar))

	_, err = writer.Finalize()
	suite.Require().NoError(err)

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Len(strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

func (suite *MarketDataTestSuite) TestDuckDBWriterRejectsUnknownExtension() {
	_, err := NewDuckDBWriter("bars.json")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
}

func (suite *MarketDataTestSuite) TestDownloadRequiresWriter() {
	provider := NewBinanceProvider(nil)

	_, err := provider.Download(context.Background(), "BTCUSDT", "4h",
		time.Now().Add(-time.Hour), time.Now(), nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
}

func (suite *MarketDataTestSuite) TestKlineToBar() {
	bar, err := klineToBar(1704067200000, "100.5", "101.0", "99.5", "100.75", "1234.5")
	suite.Require().NoError(err)

	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bar.Time)
	suite.InDelta(100.5, bar.Open, 1e-9)
	suite.InDelta(100.75, bar.Close, 1e-9)
	suite.InDelta(1234.5, bar.Volume, 1e-9)
}

func (suite *MarketDataTestSuite) TestKlineToBarRejectsGarbage() {
	_, err := klineToBar(0, "not-a-number", "1", "1", "1", "1")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
}
