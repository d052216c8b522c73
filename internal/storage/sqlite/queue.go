// Package sqlite holds the device-local store: the offline scan queue and a
// mirror of the piece-rate table. Scans captured while disconnected live in
// the queue until reconciliation moves them into the authoritative log; the
// rate mirror lets those scans be priced without the remote store. The file
// must survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"piecetrack/internal/storage"
)

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS scan_queue (
    position         INTEGER PRIMARY KEY AUTOINCREMENT,
    scan_id          TEXT NOT NULL UNIQUE,
    timestamp_utc    TEXT NOT NULL,
    employee_id      TEXT NOT NULL,
    mo               TEXT NOT NULL,
    sku              TEXT NOT NULL,
    unit             TEXT NOT NULL,
    operation        TEXT NOT NULL,
    rate             TEXT NOT NULL,
    earnings         TEXT NOT NULL,
    barcode_raw      TEXT NOT NULL,
    device_id        TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending',
    rejection_reason TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scan_queue_dedup ON scan_queue (mo, unit, operation);
`

// New opens (creating if needed) the device-local database at path.
func New(path string) (*Store, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// The store belongs to a single local process; one connection avoids
	// writer contention in WAL mode.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("%s: create schema: %w", op, err)
	}
	if _, err := db.Exec(ratesSchema); err != nil {
		return nil, fmt.Errorf("%s: create rates schema: %w", op, err)
	}

	return &Store{db: db}, nil
}

func (q *Store) Close() error {
	return q.db.Close()
}

// Append stores a pending scan. A failure here is a local persistence
// failure: the scan was never recorded anywhere and the caller must not
// report it as queued.
func (q *Store) Append(ctx context.Context, rec storage.ScanRecord) error {
	const op = "storage.sqlite.Append"

	_, err := q.db.ExecContext(ctx, `
        INSERT INTO scan_queue
        (scan_id, timestamp_utc, employee_id, mo, sku, unit, operation, rate, earnings, barcode_raw, device_id, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ScanID,
		rec.TimestampUTC.UTC().Format(time.RFC3339Nano),
		rec.EmployeeID,
		rec.MO,
		rec.SKU,
		rec.Unit,
		rec.Operation,
		rec.Rate.String(),
		rec.Earnings.String(),
		rec.BarcodeRaw,
		rec.DeviceID,
		storage.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Pending lists queued scans in original enqueue order. Rejected history
// rows are excluded.
func (q *Store) Pending(ctx context.Context) ([]storage.ScanRecord, error) {
	const op = "storage.sqlite.Pending"

	rows, err := q.db.QueryContext(ctx, `
        SELECT scan_id, timestamp_utc, employee_id, mo, sku, unit, operation,
               rate, earnings, barcode_raw, device_id, status, rejection_reason
        FROM scan_queue
        WHERE status = ?
        ORDER BY position ASC`, storage.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var records []storage.ScanRecord
	for rows.Next() {
		rec, err := scanQueueRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Has reports pending-queue membership of a dedup key.
func (q *Store) Has(ctx context.Context, mo, unit, operation string) (bool, error) {
	const op = "storage.sqlite.Has"

	var n int
	err := q.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM scan_queue
        WHERE mo = ? AND unit = ? AND operation = ? AND status = ?`,
		mo, unit, operation, storage.StatusPending).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// Remove deletes a queue entry whose outcome has been durably recorded in
// the committed log.
func (q *Store) Remove(ctx context.Context, scanID string) error {
	const op = "storage.sqlite.Remove"

	res, err := q.db.ExecContext(ctx, `DELETE FROM scan_queue WHERE scan_id = ?`, scanID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrScanNotFound)
	}
	return nil
}

// MarkRejected takes the entry out of the pending view but keeps the row as
// local history of why the scan was not paid.
func (q *Store) MarkRejected(ctx context.Context, scanID, reason string) error {
	const op = "storage.sqlite.MarkRejected"

	res, err := q.db.ExecContext(ctx, `
        UPDATE scan_queue SET status = ?, rejection_reason = ?
        WHERE scan_id = ? AND status = ?`,
		storage.StatusRejected, reason, scanID, storage.StatusPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrScanNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueRow(rows rowScanner) (storage.ScanRecord, error) {
	var rec storage.ScanRecord
	var ts, rate, earnings string

	err := rows.Scan(&rec.ScanID, &ts, &rec.EmployeeID, &rec.MO, &rec.SKU,
		&rec.Unit, &rec.Operation, &rate, &earnings, &rec.BarcodeRaw,
		&rec.DeviceID, &rec.Status, &rec.RejectionReason)
	if err != nil {
		return storage.ScanRecord{}, err
	}

	if rec.TimestampUTC, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return storage.ScanRecord{}, fmt.Errorf("parse timestamp: %w", err)
	}
	if rec.Rate, err = decimal.NewFromString(rate); err != nil {
		return storage.ScanRecord{}, fmt.Errorf("parse rate: %w", err)
	}
	if rec.Earnings, err = decimal.NewFromString(earnings); err != nil {
		return storage.ScanRecord{}, fmt.Errorf("parse earnings: %w", err)
	}
	return rec, nil
}
