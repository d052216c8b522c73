package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"piecetrack/internal/storage"
)

const ratesSchema = `
CREATE TABLE IF NOT EXISTS rate_mirror (
    sku             TEXT NOT NULL,
    operation       TEXT NOT NULL,
    rate            TEXT NOT NULL,
    is_active       INTEGER NOT NULL,
    effective_start TEXT NOT NULL,
    effective_end   TEXT NOT NULL,
    rate_source     TEXT NOT NULL,
    last_sync_utc   TEXT,
    PRIMARY KEY (sku, operation, effective_start)
);
`

const dateOnly = "2006-01-02"

// ReplaceRates swaps the mirrored rate table for a fresh copy. Called after
// every successful sync so offline pricing tracks the authoritative table
// as closely as connectivity allows.
func (q *Store) ReplaceRates(ctx context.Context, rates []storage.PieceRate) error {
	const op = "storage.sqlite.ReplaceRates"

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_mirror`); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range rates {
		var lastSync any
		if r.LastSyncUTC != nil {
			lastSync = r.LastSyncUTC.UTC().Format(time.RFC3339Nano)
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO rate_mirror
            (sku, operation, rate, is_active, effective_start, effective_end, rate_source, last_sync_utc)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.SKU,
			r.Operation,
			r.Rate.String(),
			r.IsActive,
			r.EffectiveStart.UTC().Format(dateOnly),
			r.EffectiveEnd.UTC().Format(dateOnly),
			r.RateSource,
			lastSync,
		)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ActiveRates returns every mirrored active rate covering onDate for the
// pair, ordered by effective_start. Same contract as the authoritative
// store so resolution behaves identically on either side.
func (q *Store) ActiveRates(ctx context.Context, sku, operation string, onDate time.Time) ([]storage.PieceRate, error) {
	const op = "storage.sqlite.ActiveRates"

	day := onDate.UTC().Format(dateOnly)
	rows, err := q.db.QueryContext(ctx, `
        SELECT sku, operation, rate, is_active, effective_start, effective_end, rate_source, last_sync_utc
        FROM rate_mirror
        WHERE sku = ? AND operation = ? AND is_active = 1
          AND effective_start <= ? AND effective_end >= ?
        ORDER BY effective_start ASC`,
		sku, operation, day, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var rates []storage.PieceRate
	for rows.Next() {
		var r storage.PieceRate
		var rate, start, end string
		var lastSync *string

		err := rows.Scan(&r.SKU, &r.Operation, &rate, &r.IsActive, &start, &end, &r.RateSource, &lastSync)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		if r.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("%s: parse rate: %w", op, err)
		}
		if r.EffectiveStart, err = time.Parse(dateOnly, start); err != nil {
			return nil, fmt.Errorf("%s: parse effective_start: %w", op, err)
		}
		if r.EffectiveEnd, err = time.Parse(dateOnly, end); err != nil {
			return nil, fmt.Errorf("%s: parse effective_end: %w", op, err)
		}
		if lastSync != nil {
			t, err := time.Parse(time.RFC3339Nano, *lastSync)
			if err != nil {
				return nil, fmt.Errorf("%s: parse last_sync_utc: %w", op, err)
			}
			r.LastSyncUTC = &t
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}
