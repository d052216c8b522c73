package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Scan statuses. A record is created pending (offline) or committed (online)
// and never changes again once committed or rejected.
const (
	StatusPending   = "pending"
	StatusCommitted = "committed"
	StatusRejected  = "rejected"
)

// Rejection reasons carried on rejected scans and submit responses.
const (
	ReasonMalformedBarcode = "malformed_barcode"
	ReasonNoActiveRate     = "no_active_rate"
	ReasonDuplicate        = "duplicate"
)

type Employee struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	PIN        string `json:"pin,omitempty"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
}

type Operation struct {
	Code      string `json:"operation"`
	Name      string `json:"operation_name"`
	SortOrder int    `json:"sort_order"`
}

type PieceRate struct {
	SKU            string          `json:"sku"`
	Operation      string          `json:"operation"`
	Rate           decimal.Decimal `json:"rate"`
	IsActive       bool            `json:"is_active"`
	EffectiveStart time.Time       `json:"effective_start"`
	EffectiveEnd   time.Time       `json:"effective_end"`
	RateSource     string          `json:"rate_source"`
	LastSyncUTC    *time.Time      `json:"last_sync_utc,omitempty"`
}

// ScanRecord is one paid unit/operation. Rate and earnings are snapshotted
// from the resolved PieceRate at scan time and never re-read.
type ScanRecord struct {
	ScanID          string          `json:"scan_id"`
	TimestampUTC    time.Time       `json:"timestamp_utc"`
	EmployeeID      string          `json:"employee_id"`
	MO              string          `json:"mo"`
	SKU             string          `json:"sku"`
	Unit            string          `json:"unit"`
	Operation       string          `json:"operation"`
	Rate            decimal.Decimal `json:"rate"`
	Earnings        decimal.Decimal `json:"earnings"`
	BarcodeRaw      string          `json:"barcode_raw"`
	DeviceID        string          `json:"device_id"`
	Status          string          `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// DedupKey is the uniqueness key for paid work: a unit is paid once per
// operation no matter which SKU or device the re-scan carries.
func (s ScanRecord) DedupKey() (mo, unit, operation string) {
	return s.MO, s.Unit, s.Operation
}
