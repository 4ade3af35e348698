package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/marketdata"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// downloadAction fetches historical klines from Binance and writes them to
// the output file.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	if dir := filepath.Dir(cmd.String("output")); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	writer, err := marketdata.NewDuckDBWriter(cmd.String("output"))
	if err != nil {
		return err
	}
	defer writer.Close()

	provider := marketdata.NewBinanceProvider(writer)

	start := cmd.Timestamp("start")
	end := cmd.Timestamp("end")

	bar := progressbar.Default(end.UnixMilli()-start.UnixMilli(), "downloading")
	onProgress := func(current time.Time, _ time.Time) {
		_ = bar.Set64(current.UnixMilli() - start.UnixMilli())
	}

	log.Printf("Downloading %s %s klines from %s to %s...",
		cmd.String("symbol"), cmd.String("interval"),
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	path, err := provider.Download(ctx, cmd.String("symbol"), cmd.String("interval"),
		start, end, onProgress)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	_ = bar.Finish()
	log.Printf("Wrote %s", path)

	return nil
}

// streamAction tails the live kline stream and prints each bar as it
// closes.
func streamAction(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Streaming %s %s klines (ctrl-c to stop)...",
		cmd.String("symbol"), cmd.String("interval"))

	return marketdata.StreamKlines(ctx, cmd.String("symbol"), cmd.String("interval"),
		func(bar types.Bar) {
			log.Printf("%s open=%.4f high=%.4f low=%.4f close=%.4f volume=%.4f",
				bar.Time.Format(time.RFC3339), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		})
}

func main() {
	symbolFlag := &cli.StringFlag{
		Name:     "symbol",
		Aliases:  []string{"s"},
		Usage:    "Trading pair symbol (e.g. BTCUSDT)",
		Required: true,
	}
	intervalFlag := &cli.StringFlag{
		Name:    "interval",
		Aliases: []string{"i"},
		Usage:   "Kline interval (e.g. 1m, 1h, 4h, 1d)",
		Value:   "4h",
	}

	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download or stream market data from Binance",
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "Download historical klines to a file",
				Flags: []cli.Flag{
					symbolFlag,
					intervalFlag,
					&cli.TimestampFlag{
						Name:     "start",
						Usage:    "Start date in `YYYY-MM-DD` format",
						Required: true,
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
					&cli.TimestampFlag{
						Name:  "end",
						Usage: "End date in `YYYY-MM-DD` format. Defaults to now.",
						Value: time.Now(),
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (.csv or .parquet)",
						Value:   "data/bars.parquet",
					},
				},
				Action: downloadAction,
			},
			{
				Name:   "stream",
				Usage:  "Print live klines as they close",
				Flags:  []cli.Flag{symbolFlag, intervalFlag},
				Action: streamAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
