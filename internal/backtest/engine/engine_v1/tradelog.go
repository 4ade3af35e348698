package engine

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	_ "github.com/marcboeker/go-duckdb"
)

// TradeLog persists the fill stream of a run in an in-memory DuckDB
// instance, so it can be exported to Parquet in one statement at the end of
// the run.
type TradeLog struct {
	db *sql.DB
}

// NewTradeLog opens a fresh trade log.
func NewTradeLog() (*TradeLog, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTradeLogFailed, "failed to open duckdb", err)
	}

	_, err = db.Exec(`
		CREATE TABLE trades (
			id VARCHAR PRIMARY KEY,
			sequence INTEGER NOT NULL,
			side VARCHAR NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			price DOUBLE NOT NULL,
			quantity DOUBLE NOT NULL,
			fee DOUBLE NOT NULL,
			portfolio_value DOUBLE NOT NULL,
			reason VARCHAR,
			profit_loss DOUBLE,
			regime VARCHAR
		)
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeTradeLogFailed, "failed to create trades table", err)
	}

	return &TradeLog{db: db}, nil
}

// Append records a fill.
func (t *TradeLog) Append(record types.TradeRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	query, args, err := sq.Insert("trades").
		Columns("id", "sequence", "side", "timestamp", "price", "quantity",
			"fee", "portfolio_value", "reason", "profit_loss", "regime").
		Values(record.ID, record.Sequence, string(record.Side), record.Timestamp,
			record.Price, record.Quantity, record.Fee, record.PortfolioValue,
			string(record.Reason), record.ProfitLoss, string(record.Regime)).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeTradeLogFailed, "failed to build insert", err)
	}

	if _, err := t.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeTradeLogFailed, "failed to insert trade", err)
	}

	return nil
}

// Count returns the number of recorded fills.
func (t *TradeLog) Count() (int, error) {
	var count int
	if err := t.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeTradeLogFailed, "failed to count trades", err)
	}

	return count, nil
}

// Write exports the fill stream to a Parquet file, ordered by sequence.
func (t *TradeLog) Write(path string) error {
	_, err := t.db.Exec(fmt.Sprintf(
		"COPY (SELECT * FROM trades ORDER BY sequence) TO '%s' (FORMAT PARQUET)", path))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeTradeLogFailed, err, "failed to write %s", path)
	}

	return nil
}

// Close releases the underlying database.
func (t *TradeLog) Close() error {
	return t.db.Close()
}
