package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"piecetrack/internal/storage"
)

const dateOnly = "2006-01-02"

// ActiveRates returns every active rate covering onDate for the pair,
// ordered by effective_start. Non-overlap of windows is a data invariant,
// so more than one row is an integrity violation the caller should log;
// taking the first row keeps resolution deterministic either way.
func (s *Storage) ActiveRates(ctx context.Context, sku, operation string, onDate time.Time) ([]storage.PieceRate, error) {
	const op = "storage.mysql.ActiveRates"

	day := onDate.UTC().Format(dateOnly)
	rows, err := s.db.QueryContext(ctx, `
        SELECT sku, operation, rate, is_active, effective_start, effective_end, rate_source, last_sync_utc
        FROM piece_rates
        WHERE sku = ? AND operation = ? AND is_active = TRUE
          AND effective_start <= ? AND effective_end >= ?
        ORDER BY effective_start ASC`,
		sku, operation, day, day)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var rates []storage.PieceRate
	for rows.Next() {
		r, err := scanRateRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// ListRates returns the full rate table for the admin panel.
func (s *Storage) ListRates(ctx context.Context) ([]storage.PieceRate, error) {
	const op = "storage.mysql.ListRates"

	rows, err := s.db.QueryContext(ctx, `
        SELECT sku, operation, rate, is_active, effective_start, effective_end, rate_source, last_sync_utc
        FROM piece_rates
        ORDER BY sku ASC, operation ASC, effective_start ASC`)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var rates []storage.PieceRate
	for rows.Next() {
		r, err := scanRateRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// UpsertRate inserts or replaces the rate window keyed by
// (sku, operation, effective_start). This is where the external rate feed
// and the admin panel land their updates.
func (s *Storage) UpsertRate(ctx context.Context, rate storage.PieceRate) error {
	const op = "storage.mysql.UpsertRate"

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO piece_rates
        (sku, operation, rate, is_active, effective_start, effective_end, rate_source, last_sync_utc)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
            rate = VALUES(rate),
            is_active = VALUES(is_active),
            effective_end = VALUES(effective_end),
            rate_source = VALUES(rate_source),
            last_sync_utc = VALUES(last_sync_utc)`,
		rate.SKU,
		rate.Operation,
		rate.Rate,
		rate.IsActive,
		rate.EffectiveStart.UTC().Format(dateOnly),
		rate.EffectiveEnd.UTC().Format(dateOnly),
		rate.RateSource,
		rate.LastSyncUTC,
	)
	if err != nil {
		return unavailable(op, err)
	}
	return nil
}

func scanRateRow(rows rowScanner) (storage.PieceRate, error) {
	var r storage.PieceRate
	var rate string
	var lastSync *time.Time

	err := rows.Scan(&r.SKU, &r.Operation, &rate, &r.IsActive,
		&r.EffectiveStart, &r.EffectiveEnd, &r.RateSource, &lastSync)
	if err != nil {
		return storage.PieceRate{}, err
	}
	if r.Rate, err = decimal.NewFromString(rate); err != nil {
		return storage.PieceRate{}, fmt.Errorf("parse rate: %w", err)
	}
	if lastSync != nil {
		t := lastSync.UTC()
		r.LastSyncUTC = &t
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
