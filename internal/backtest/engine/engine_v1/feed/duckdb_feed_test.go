package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type DuckDBFeedTestSuite struct {
	suite.Suite

	csvPath string
	start   time.Time
}

func TestDuckDBFeedSuite(t *testing.T) {
	suite.Run(t, new(DuckDBFeedTestSuite))
}

func (suite *DuckDBFeedTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var b strings.Builder

	b.WriteString("time,open,high,low,close,volume\n")

	// Rows are written out of order; the feed must still yield ascending.
	for _, i := range []int{2, 0, 4, 1, 3} {
		t := suite.start.Add(time.Duration(i) * 4 * time.Hour)
		fmt.Fprintf(&b, "%s,%f,%f,%f,%f,%f\n",
			t.Format("2006-01-02 15:04:05"),
			100.0+float64(i), 101.0+float64(i), 99.0+float64(i), 100.5+float64(i), 1000.0)
	}

	suite.csvPath = filepath.Join(suite.T().TempDir(), "bars.csv")
	suite.Require().NoError(os.WriteFile(suite.csvPath, []byte(b.String()), 0o644))
}

func (suite *DuckDBFeedTestSuite) TestReadAllOrdersByTime() {
	f, err := NewDuckDBFeed(suite.csvPath)
	suite.Require().NoError(err)

	defer f.Close()

	var bars []types.Bar

	for bar, err := range f.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		bars = append(bars, bar)
	}

	suite.Require().Len(bars, 5)

	for i := 1; i < len(bars); i++ {
		suite.True(bars[i].Time.After(bars[i-1].Time))
	}

	suite.InDelta(100.5, bars[0].Close, 1e-9)
	suite.InDelta(104.5, bars[4].Close, 1e-9)
}

func (suite *DuckDBFeedTestSuite) TestReadAllWindow() {
	f, err := NewDuckDBFeed(suite.csvPath)
	suite.Require().NoError(err)

	defer f.Close()

	start := optional.Some(suite.start.Add(4 * time.Hour))
	end := optional.Some(suite.start.Add(12 * time.Hour))

	count := 0
	for _, err := range f.ReadAll(start, end) {
		suite.Require().NoError(err)

		count++
	}

	suite.Equal(3, count)
}

func (suite *DuckDBFeedTestSuite) TestCount() {
	f, err := NewDuckDBFeed(suite.csvPath)
	suite.Require().NoError(err)

	defer f.Close()

	count, err := f.Count()
	suite.Require().NoError(err)
	suite.Equal(5, count)
}

func (suite *DuckDBFeedTestSuite) TestUnsupportedExtension() {
	_, err := NewDuckDBFeed("bars.txt")
	suite.Error(err)
}
