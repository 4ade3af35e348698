package marketdata

import (
	"context"

	binance "github.com/adshao/go-binance/v2"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
)

// OnBar is invoked for every closed bar received from a stream.
type OnBar func(bar types.Bar)

// StreamKlines subscribes to the Binance kline websocket stream for symbol
// at interval and invokes onBar for each bar as it closes. It blocks until
// ctx is cancelled or the stream terminates.
func StreamKlines(ctx context.Context, symbol string, interval string, onBar OnBar) error {
	errC := make(chan error, 1)

	handler := func(event *binance.WsKlineEvent) {
		// Intermediate updates of the forming bar are skipped.
		if !event.Kline.IsFinal {
			return
		}

		bar, err := klineToBar(event.Kline.StartTime,
			event.Kline.Open, event.Kline.High, event.Kline.Low,
			event.Kline.Close, event.Kline.Volume)
		if err != nil {
			select {
			case errC <- err:
			default:
			}

			return
		}

		onBar(bar)
	}

	errHandler := func(err error) {
		select {
		case errC <- errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "kline stream failed", err):
		default:
		}
	}

	doneC, stopC, err := binance.WsKlineServe(symbol, interval, handler, errHandler)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err,
			"failed to open %s kline stream", symbol)
	}

	select {
	case <-ctx.Done():
		close(stopC)
		<-doneC

		return ctx.Err()
	case err := <-errC:
		close(stopC)
		<-doneC

		return err
	case <-doneC:
		return nil
	}
}
