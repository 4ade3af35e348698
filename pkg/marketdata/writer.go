// Package marketdata downloads and streams OHLCV bars from Binance and
// persists them to files a backtest feed can read.
package marketdata

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	_ "github.com/marcboeker/go-duckdb"
)

// Writer persists downloaded bars to a destination file.
type Writer interface {
	// Initialize sets up the writer, creating tables or files as needed.
	Initialize() error
	// Write persists a single bar.
	Write(bar types.Bar) error
	// Finalize completes the writing process and returns the output path.
	Finalize() (string, error)
	// Close releases resources held by the writer.
	Close() error
	// OutputPath returns the configured output file path.
	OutputPath() string
}

// DuckDBWriter buffers bars in an in-memory DuckDB table and exports them in
// one COPY statement on finalize. The output format follows the file
// extension: .csv or .parquet.
type DuckDBWriter struct {
	db         *sql.DB
	outputPath string
}

// NewDuckDBWriter creates a writer targeting the given .csv or .parquet
// file.
func NewDuckDBWriter(outputPath string) (*DuckDBWriter, error) {
	ext := strings.ToLower(filepath.Ext(outputPath))
	if ext != ".csv" && ext != ".parquet" {
		return nil, errors.Newf(errors.ErrCodeMarketDataWriteFailed,
			"unsupported output file type: %s", outputPath)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open duckdb", err)
	}

	return &DuckDBWriter{db: db, outputPath: outputPath}, nil
}

// Initialize implements Writer.
func (w *DuckDBWriter) Initialize() error {
	_, err := w.db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			time TIMESTAMP NOT NULL,
			open DOUBLE NOT NULL,
			high DOUBLE NOT NULL,
			low DOUBLE NOT NULL,
			close DOUBLE NOT NULL,
			volume DOUBLE NOT NULL
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create bars table", err)
	}

	return nil
}

// Write implements Writer.
func (w *DuckDBWriter) Write(bar types.Bar) error {
	query, args, err := sq.Insert("bars").
		Columns("time", "open", "high", "low", "close", "volume").
		Values(bar.Time, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to build insert", err)
	}

	if _, err := w.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert bar", err)
	}

	return nil
}

// Finalize implements Writer. Bars are deduplicated on time and exported in
// ascending order.
func (w *DuckDBWriter) Finalize() (string, error) {
	format := "FORMAT PARQUET"
	if strings.EqualFold(filepath.Ext(w.outputPath), ".csv") {
		format = "FORMAT CSV, HEADER"
	}

	_, err := w.db.Exec(fmt.Sprintf(
		"COPY (SELECT DISTINCT ON (time) * FROM bars ORDER BY time) TO '%s' (%s)",
		w.outputPath, format))
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err,
			"failed to export %s", w.outputPath)
	}

	return w.outputPath, nil
}

// Close implements Writer.
func (w *DuckDBWriter) Close() error {
	return w.db.Close()
}

// OutputPath implements Writer.
func (w *DuckDBWriter) OutputPath() string {
	return w.outputPath
}
