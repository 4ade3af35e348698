package feed

import (
	"database/sql"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/helios-lab/helios-trading/internal/types"
	"github.com/helios-lab/helios-trading/pkg/errors"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
)

// DuckDBFeed reads OHLCV bars from a CSV or Parquet file through an
// in-memory DuckDB instance. DuckDB handles file parsing and ordering, so
// arbitrarily large files can be streamed without loading them into Go.
type DuckDBFeed struct {
	db   *sql.DB
	path string
}

// NewDuckDBFeed opens the given .csv or .parquet file as a bar feed.
func NewDuckDBFeed(path string) (*DuckDBFeed, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedReadFailed, "failed to open duckdb", err)
	}

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = "read_csv_auto"
	case ".parquet":
		reader = "read_parquet"
	default:
		db.Close()

		return nil, errors.Newf(errors.ErrCodeFeedReadFailed, "unsupported feed file type: %s", path)
	}

	_, err = db.Exec(fmt.Sprintf(
		"CREATE VIEW bars AS SELECT time, open, high, low, close, volume FROM %s('%s')",
		reader, path))
	if err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeFeedReadFailed, err, "failed to read %s", path)
	}

	return &DuckDBFeed{db: db, path: path}, nil
}

// ReadAll implements Feed. Bars are yielded in ascending time order.
func (f *DuckDBFeed) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		builder := sq.Select("time", "open", "high", "low", "close", "volume").
			From("bars").
			OrderBy("time ASC")

		if start.IsSome() {
			builder = builder.Where(sq.GtOrEq{"time": start.Unwrap()})
		}

		if end.IsSome() {
			builder = builder.Where(sq.LtOrEq{"time": end.Unwrap()})
		}

		query, args, err := builder.ToSql()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeFeedReadFailed, "failed to build feed query", err))

			return
		}

		rows, err := f.db.Query(query, args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeFeedReadFailed, "failed to query feed", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var bar types.Bar
			if err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
				yield(types.Bar{}, errors.Wrap(errors.ErrCodeFeedReadFailed, "failed to scan bar", err))

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeFeedReadFailed, "feed iteration failed", err))
		}
	}
}

// Count implements Feed.
func (f *DuckDBFeed) Count() (int, error) {
	var count int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM bars").Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeFeedReadFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements Feed.
func (f *DuckDBFeed) Close() error {
	return f.db.Close()
}
