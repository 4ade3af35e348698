package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/helios-lab/helios-trading/internal/backtest/engine"
	engine_v1 "github.com/helios-lab/helios-trading/internal/backtest/engine/engine_v1"
	"github.com/helios-lab/helios-trading/internal/backtest/engine/engine_v1/feed"
	"github.com/helios-lab/helios-trading/internal/logger"
	"github.com/helios-lab/helios-trading/internal/report"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Width(24).Foreground(lipgloss.Color("8"))
	winStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// runAction executes a backtest over a CSV or Parquet bar file.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configData, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	barFeed, err := feed.NewDuckDBFeed(cmd.String("data"))
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer barFeed.Close()

	backtester := engine_v1.NewBacktestEngineV1()

	if err := backtester.Initialize(string(configData)); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	if err := backtester.SetFeed(barFeed); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(cmd.String("output")); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onProgress := engine.OnProcessDataCallback(func(current int, total int) error {
		if bar == nil {
			bar = progressbar.Default(int64(total), "backtesting")
		}

		return bar.Set(current)
	})

	if err := backtester.Run(ctx, optional.Some(onProgress)); err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	summary, err := backtester.LastSummary()
	if err != nil {
		return err
	}

	printSummary(summary, cmd.String("output"))

	return nil
}

// printSummary renders the run summary to the terminal.
func printSummary(summary types.Summary, outputFolder string) {
	returnStyle := winStyle
	if summary.TotalReturnPercent < 0 {
		returnStyle = lossStyle
	}

	sharpe := fmt.Sprintf("%.4f", summary.SharpeRatio)
	if summary.SharpeDegraded {
		sharpe += " (degraded)"
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Backtest Summary"))
	fmt.Println(labelStyle.Render("Initial capital"), fmt.Sprintf("%.2f", summary.InitialCapital))
	fmt.Println(labelStyle.Render("Final value"), fmt.Sprintf("%.2f", summary.FinalValue))
	fmt.Println(labelStyle.Render("Total return"), returnStyle.Render(fmt.Sprintf("%.2f%%", summary.TotalReturnPercent)))
	fmt.Println(labelStyle.Render("Sharpe ratio"), sharpe)
	fmt.Println(labelStyle.Render("Max drawdown"), fmt.Sprintf("%.2f%%", summary.MaxDrawdown*100))
	fmt.Println(labelStyle.Render("Trades (buy/sell)"), fmt.Sprintf("%d (%d/%d)",
		summary.TotalTrades, summary.BuyCount, summary.SellCount))
	fmt.Println(labelStyle.Render("Win rate"), fmt.Sprintf("%.2f%%", summary.WinRatePercent))
	fmt.Println(labelStyle.Render("Profit factor"), fmt.Sprintf("%.4f", summary.ProfitFactor))
	fmt.Println(labelStyle.Render("Total fees"), fmt.Sprintf("%.2f", summary.TotalFees))
	fmt.Println(labelStyle.Render("Trending win rate"), fmt.Sprintf("%.2f%% (%d trades)",
		summary.Trending.WinRatePercent, summary.Trending.Trades))
	fmt.Println(labelStyle.Render("Choppy win rate"), fmt.Sprintf("%.2f%% (%d trades)",
		summary.Choppy.WinRatePercent, summary.Choppy.Trades))
	fmt.Println()
	fmt.Println(labelStyle.Render("Results folder"), outputFolder)
}

// schemaAction prints the JSON schema for the engine configuration.
func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := engine_v1.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

// serveAction serves a results folder over HTTP.
func serveAction(_ context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}

	server := report.NewServer(cmd.String("results"), log)

	return server.ListenAndServe(cmd.String("addr"))
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run trading backtests over historical bar data",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML backtest config",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the bar data file (.csv or .parquet)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Results folder",
						Value:   "results",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the backtest config",
				Action: schemaAction,
			},
			{
				Name:  "serve",
				Usage: "Serve a results folder over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Results folder to serve",
						Value:   "results",
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
				},
				Action: serveAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
