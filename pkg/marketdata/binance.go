package marketdata

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
)

// Binance returns at most this many klines per request; pagination walks the
// range page by page.
const binancePageLimit = 500

// OnDownloadProgress reports download progress as the current position
// within the requested time range.
type OnDownloadProgress func(current time.Time, end time.Time)

// Provider fetches historical bars from a market data venue.
type Provider interface {
	// Download fetches [start, end] klines for symbol at interval and
	// writes them through the configured writer, returning the output
	// path.
	Download(ctx context.Context, symbol string, interval string, start time.Time, end time.Time, onProgress OnDownloadProgress) (string, error)
}

// BinanceProvider downloads spot klines from the public Binance API.
// Requests are retried with a constant backoff before the download is
// failed.
type BinanceProvider struct {
	client        *binance.Client
	writer        Writer
	retryInterval time.Duration
	maxRetries    uint64
}

// NewBinanceProvider creates a provider writing through w. No API key is
// needed for kline data.
func NewBinanceProvider(w Writer) *BinanceProvider {
	return &BinanceProvider{
		client:        binance.NewClient("", ""),
		writer:        w,
		retryInterval: 2 * time.Second,
		maxRetries:    3,
	}
}

// Download implements Provider.
func (p *BinanceProvider) Download(ctx context.Context, symbol string, interval string, start time.Time, end time.Time, onProgress OnDownloadProgress) (string, error) {
	if p.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured")
	}

	if err := p.writer.Initialize(); err != nil {
		return "", err
	}

	endMillis := end.UnixMilli()
	currentStart := start.UnixMilli()

	for {
		klines, err := p.fetchPage(ctx, symbol, interval, currentStart, endMillis)
		if err != nil {
			return "", err
		}

		if onProgress != nil {
			onProgress(time.UnixMilli(currentStart), end)
		}

		if err := p.writeKlines(klines); err != nil {
			return "", err
		}

		// A short page means the range is exhausted.
		if len(klines) < binancePageLimit {
			break
		}

		// Resume just past the close of the last kline to avoid
		// duplicates.
		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	return p.writer.Finalize()
}

// fetchPage requests one page of klines, retrying transient failures.
func (p *BinanceProvider) fetchPage(ctx context.Context, symbol string, interval string, startMillis int64, endMillis int64) ([]*binance.Kline, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.retryInterval), p.maxRetries), ctx)

	klines, err := backoff.RetryWithData(func() ([]*binance.Kline, error) {
		return p.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(startMillis).
			EndTime(endMillis).
			Limit(binancePageLimit).
			Do(ctx)
	}, policy)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err,
			"failed to fetch %s klines from binance", symbol)
	}

	return klines, nil
}

func (p *BinanceProvider) writeKlines(klines []*binance.Kline) error {
	for _, k := range klines {
		bar, err := klineToBar(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return err
		}

		if err := p.writer.Write(bar); err != nil {
			return err
		}
	}

	return nil
}

// klineToBar parses the string-encoded kline fields Binance returns.
func klineToBar(openTimeMillis int64, open, high, low, closePrice, volume string) (types.Bar, error) {
	fields := []string{open, high, low, closePrice, volume}
	parsed := make([]float64, len(fields))

	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
				"invalid kline field %q", field)
		}

		parsed[i] = value
	}

	return types.Bar{
		Time:   time.UnixMilli(openTimeMillis).UTC(),
		Open:   parsed[0],
		High:   parsed[1],
		Low:    parsed[2],
		Close:  parsed[3],
		Volume: parsed[4],
	}, nil
}
