package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"piecetrack/internal/storage"
)

// AppendScan commits one scan into the log. The UNIQUE KEY on
// (mo, unit, operation) is the linearization point for deduplication:
// of two racing appends for the same key exactly one row lands and the
// loser gets storage.ErrDuplicateScan.
func (s *Storage) AppendScan(ctx context.Context, rec storage.ScanRecord) error {
	const op = "storage.mysql.AppendScan"

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO scan_log
        (scan_id, timestamp_utc, employee_id, mo, sku, unit, operation, rate, earnings, barcode_raw, device_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ScanID,
		rec.TimestampUTC.UTC(),
		rec.EmployeeID,
		rec.MO,
		rec.SKU,
		rec.Unit,
		rec.Operation,
		rec.Rate,
		rec.Earnings,
		rec.BarcodeRaw,
		rec.DeviceID,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrDuplicateScan)
		}
		return unavailable(op, err)
	}
	return nil
}

// HasScan reports committed-log membership of a dedup key.
func (s *Storage) HasScan(ctx context.Context, mo, unit, operation string) (bool, error) {
	const op = "storage.mysql.HasScan"

	var n int
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM scan_log WHERE mo = ? AND unit = ? AND operation = ?`,
		mo, unit, operation).Scan(&n)
	if err != nil {
		return false, unavailable(op, err)
	}
	return n > 0, nil
}

// HasScanID reports whether a particular scan already landed in the log.
// Reconciliation uses it to tell "this entry committed on an earlier pass"
// apart from "another device took the dedup key".
func (s *Storage) HasScanID(ctx context.Context, scanID string) (bool, error) {
	const op = "storage.mysql.HasScanID"

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_log WHERE scan_id = ?`, scanID).Scan(&n)
	if err != nil {
		return false, unavailable(op, err)
	}
	return n > 0, nil
}

// ListScansBetween returns committed scans with start <= timestamp <= end,
// oldest first.
func (s *Storage) ListScansBetween(ctx context.Context, start, end time.Time) ([]storage.ScanRecord, error) {
	const op = "storage.mysql.ListScansBetween"

	rows, err := s.db.QueryContext(ctx, `
        SELECT scan_id, timestamp_utc, employee_id, mo, sku, unit, operation,
               rate, earnings, barcode_raw, device_id
        FROM scan_log
        WHERE timestamp_utc BETWEEN ? AND ?
        ORDER BY timestamp_utc ASC, scan_id ASC`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	return collectScans(op, rows)
}

// ListEmployeeScansBetween is ListScansBetween narrowed to one employee.
func (s *Storage) ListEmployeeScansBetween(ctx context.Context, employeeID string, start, end time.Time) ([]storage.ScanRecord, error) {
	const op = "storage.mysql.ListEmployeeScansBetween"

	rows, err := s.db.QueryContext(ctx, `
        SELECT scan_id, timestamp_utc, employee_id, mo, sku, unit, operation,
               rate, earnings, barcode_raw, device_id
        FROM scan_log
        WHERE employee_id = ? AND timestamp_utc BETWEEN ? AND ?
        ORDER BY timestamp_utc ASC, scan_id ASC`,
		employeeID, start.UTC(), end.UTC())
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	return collectScans(op, rows)
}

// SearchScans returns the newest committed scans, optionally filtered by a
// substring match on employee, SKU or MO. Backs the admin scan-log view.
func (s *Storage) SearchScans(ctx context.Context, search string, limit int) ([]storage.ScanRecord, error) {
	const op = "storage.mysql.SearchScans"

	pattern := "%" + search + "%"
	rows, err := s.db.QueryContext(ctx, `
        SELECT scan_id, timestamp_utc, employee_id, mo, sku, unit, operation,
               rate, earnings, barcode_raw, device_id
        FROM scan_log
        WHERE ? = '' OR employee_id LIKE ? OR sku LIKE ? OR mo LIKE ?
        ORDER BY timestamp_utc DESC, scan_id DESC
        LIMIT ?`,
		search, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	return collectScans(op, rows)
}

func collectScans(op string, rows *sql.Rows) ([]storage.ScanRecord, error) {
	var records []storage.ScanRecord
	for rows.Next() {
		var rec storage.ScanRecord
		var rate, earnings string

		err := rows.Scan(&rec.ScanID, &rec.TimestampUTC, &rec.EmployeeID,
			&rec.MO, &rec.SKU, &rec.Unit, &rec.Operation,
			&rate, &earnings, &rec.BarcodeRaw, &rec.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		if rec.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("%s: parse rate: %w", op, err)
		}
		if rec.Earnings, err = decimal.NewFromString(earnings); err != nil {
			return nil, fmt.Errorf("%s: parse earnings: %w", op, err)
		}
		rec.TimestampUTC = rec.TimestampUTC.UTC()
		rec.Status = storage.StatusCommitted
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}
