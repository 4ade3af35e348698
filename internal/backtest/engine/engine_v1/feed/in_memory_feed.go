package feed

import (
	"iter"
	"time"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/moznion/go-optional"
)

// InMemoryFeed serves bars from a slice. It is the feed of choice for tests
// and for callers that already hold an enriched series.
type InMemoryFeed struct {
	bars []types.Bar
}

// NewInMemoryFeed creates a feed over the given bars. The slice is not
// copied; callers must not mutate it while the feed is in use.
func NewInMemoryFeed(bars []types.Bar) *InMemoryFeed {
	return &InMemoryFeed{bars: bars}
}

// ReadAll implements Feed.
func (f *InMemoryFeed) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range f.bars {
			if !inRange(bar.Time, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements Feed.
func (f *InMemoryFeed) Count() (int, error) {
	return len(f.bars), nil
}

// Close implements Feed.
func (f *InMemoryFeed) Close() error {
	return nil
}
