package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteCandleTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
    symbol      TEXT    NOT NULL,
    candle_time TEXT    NOT NULL,
    open        REAL    NOT NULL,
    high        REAL    NOT NULL,
    low         REAL    NOT NULL,
    close       REAL    NOT NULL,
    volume      INTEGER NOT NULL,
    up_volume   INTEGER NOT NULL,
    down_volume INTEGER NOT NULL,
    up_ticks    INTEGER NOT NULL,
    down_ticks  INTEGER NOT NULL,
    updated_at  TEXT    NOT NULL,
    PRIMARY KEY (symbol, candle_time)
)`

const sqliteUpsert = `
INSERT INTO %s (symbol, candle_time, open, high, low, close, volume, up_volume, down_volume, up_ticks, down_ticks, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(symbol, candle_time) DO UPDATE SET
    open = excluded.open,
    high = excluded.high,
    low = excluded.low,
    close = excluded.close,
    volume = excluded.volume,
    up_volume = excluded.up_volume,
    down_volume = excluded.down_volume,
    up_ticks = excluded.up_ticks,
    down_ticks = excluded.down_ticks,
    updated_at = excluded.updated_at`

// SQLiteCandleWriter is a file-backed candle store for local runs.
type SQLiteCandleWriter struct {
	db     *sql.DB
	schema *schemaSet
}

var _ domrepo.CandleWriter = (*SQLiteCandleWriter)(nil)

// NewSQLiteCandleWriter opens (or creates) the database at path.
func NewSQLiteCandleWriter(path string) (*SQLiteCandleWriter, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteCandleWriter{db: db, schema: newSchemaSet()}, nil
}

func (w *SQLiteCandleWriter) Persist(ctx context.Context, tf domrepo.Timeframe, symbol string, c models.Candle) error {
	table, err := TableName(tf, symbol)
	if err != nil {
		return err
	}
	if err := w.schema.ensure(table, func() error {
		_, err := w.db.ExecContext(ctx, fmt.Sprintf(sqliteCandleTableDDL, table))
		return err
	}); err != nil {
		return err
	}

	_, err = w.db.ExecContext(ctx, fmt.Sprintf(sqliteUpsert, table),
		symbol, c.Datetime.UTC().Format(time.RFC3339),
		c.Open, c.High, c.Low, c.Close,
		c.Volume, c.UpVolume, c.DownVolume, c.UpTicks, c.DownTicks,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

// Candles returns stored candles for tf and symbol in ascending time order.
func (w *SQLiteCandleWriter) Candles(ctx context.Context, tf domrepo.Timeframe, symbol string) ([]models.Candle, error) {
	table, err := TableName(tf, symbol)
	if err != nil {
		return nil, err
	}
	rows, err := w.db.QueryContext(ctx, fmt.Sprintf(`SELECT candle_time, open, high, low, close, volume, up_volume, down_volume, up_ticks, down_ticks
        FROM %s WHERE symbol = ? ORDER BY candle_time ASC`, table), symbol)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.Candle
	for rows.Next() {
		var (
			c  models.Candle
			ts string
		)
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.UpVolume, &c.DownVolume, &c.UpTicks, &c.DownTicks); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		if c.Datetime, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("parse candle_time %q: %w", ts, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (w *SQLiteCandleWriter) Close() error {
	return w.db.Close()
}
