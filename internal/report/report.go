// Package report renders a completed run into a standalone HTML report and
// can serve a results folder over HTTP for inspection.
package report

import (
	"html/template"
	"os"
	"strings"

	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
)

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Backtest Report {{.Summary.ID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th { background: #f2f2f2; }
td.label, th.label { text-align: left; }
.loss { color: #b00; }
.win { color: #080; }
</style>
</head>
<body>
<h1>Backtest Report</h1>
<p>Run {{.Summary.ID}} at {{.Summary.Timestamp.Format "2006-01-02 15:04:05 MST"}}</p>

<h2>Performance</h2>
<table>
<tr><td class="label">Initial capital</td><td>{{printf "%.2f" .Summary.InitialCapital}}</td></tr>
<tr><td class="label">Final value</td><td>{{printf "%.2f" .Summary.FinalValue}}</td></tr>
<tr><td class="label">Total return</td><td>{{printf "%.2f%%" .Summary.TotalReturnPercent}}</td></tr>
<tr><td class="label">Sharpe ratio</td><td>{{printf "%.4f" .Summary.SharpeRatio}}{{if .Summary.SharpeDegraded}} (degraded){{end}}</td></tr>
<tr><td class="label">Max drawdown</td><td>{{printf "%.2f%%" (pct .Summary.MaxDrawdown)}}</td></tr>
<tr><td class="label">Win rate</td><td>{{printf "%.2f%%" .Summary.WinRatePercent}}</td></tr>
<tr><td class="label">Profit factor</td><td>{{printf "%.4f" .Summary.ProfitFactor}}</td></tr>
<tr><td class="label">Gross profit</td><td>{{printf "%.2f" .Summary.GrossProfit}}</td></tr>
<tr><td class="label">Gross loss</td><td>{{printf "%.2f" .Summary.GrossLoss}}</td></tr>
<tr><td class="label">Total fees</td><td>{{printf "%.2f" .Summary.TotalFees}}</td></tr>
<tr><td class="label">Avg holding (bars)</td><td>{{printf "%.2f" .Summary.AvgHoldingBars}}</td></tr>
<tr><td class="label">Max consecutive wins</td><td>{{.Summary.MaxConsecutiveWins}}</td></tr>
<tr><td class="label">Max consecutive losses</td><td>{{.Summary.MaxConsecutiveLosses}}</td></tr>
</table>

<h2>Regimes</h2>
<table>
<tr><th class="label">Regime</th><th>Trades</th><th>Wins</th><th>Win rate</th></tr>
<tr><td class="label">Trending</td><td>{{.Summary.Trending.Trades}}</td><td>{{.Summary.Trending.Wins}}</td><td>{{printf "%.2f%%" .Summary.Trending.WinRatePercent}}</td></tr>
<tr><td class="label">Choppy</td><td>{{.Summary.Choppy.Trades}}</td><td>{{.Summary.Choppy.Wins}}</td><td>{{printf "%.2f%%" .Summary.Choppy.WinRatePercent}}</td></tr>
</table>

<h2>Trades ({{len .Records}})</h2>
<table>
<tr><th>#</th><th class="label">Side</th><th class="label">Time</th><th>Price</th><th>Quantity</th><th>Fee</th><th>Portfolio</th><th class="label">Reason</th><th>Profit</th><th class="label">Regime</th></tr>
{{range .Records}}
<tr>
<td>{{.Sequence}}</td>
<td class="label">{{.Side}}</td>
<td class="label">{{.Timestamp.Format "2006-01-02 15:04"}}</td>
<td>{{printf "%.4f" .Price}}</td>
<td>{{printf "%.6f" .Quantity}}</td>
<td>{{printf "%.4f" .Fee}}</td>
<td>{{printf "%.2f" .PortfolioValue}}</td>
<td class="label">{{.Reason}}</td>
{{if eq .Side "SELL"}}<td class="{{if lt .ProfitLoss 0.0}}loss{{else}}win{{end}}">{{printf "%.4f" .ProfitLoss}}</td>{{else}}<td>N/A</td>{{end}}
<td class="label">{{.Regime}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`

// Render produces the HTML report for a run.
func Render(summary types.Summary, records []types.TradeRecord) (string, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"pct": func(v float64) float64 { return v * 100 },
	}).Parse(reportTemplate)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeReportRenderFailed, "failed to parse report template", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, struct {
		Summary types.Summary
		Records []types.TradeRecord
	}{Summary: summary, Records: records}); err != nil {
		return "", errors.Wrap(errors.ErrCodeReportRenderFailed, "failed to render report", err)
	}

	return buf.String(), nil
}

// WriteHTML renders the report and writes it to path.
func WriteHTML(path string, summary types.Summary, records []types.TradeRecord) error {
	html, err := Render(summary, records)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
