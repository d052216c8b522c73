package earnings

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piecetrack/internal/payweek"
	"piecetrack/internal/storage"
	"piecetrack/internal/testfixtures"
)

func committedScan(employee, mo, sku, unit, operation, rate string, ts time.Time) storage.ScanRecord {
	amount := decimal.RequireFromString(rate)
	return storage.ScanRecord{
		ScanID:       "SCAN-" + mo + "-" + unit + "-" + operation,
		TimestampUTC: ts,
		EmployeeID:   employee,
		MO:           mo,
		SKU:          sku,
		Unit:         unit,
		Operation:    operation,
		Rate:         amount,
		Earnings:     amount,
		DeviceID:     "DEVICE001",
		Status:       storage.StatusCommitted,
	}
}

func TestWeeklyByOperation_GroupsAndSums(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	week := payweek.For(anchor)

	scans := []storage.ScanRecord{
		committedScan("EMP002", "12345", "WIDGET-A", "001", "PAINT", "2.00", anchor),
		committedScan("EMP002", "12345", "WIDGET-A", "002", "PAINT", "2.00", anchor.Add(time.Hour)),
		committedScan("EMP002", "12345", "WIDGET-A", "001", "CUT", "2.50", anchor),
		committedScan("EMP003", "12345", "WIDGET-A", "003", "PAINT", "2.00", anchor), // other employee
		committedScan("EMP002", "12345", "WIDGET-A", "004", "PAINT", "2.00", anchor.AddDate(0, 0, -7)), // last week
	}

	rows := WeeklyByOperation("EMP002", scans, week)

	require.Len(t, rows, 2)
	assert.Equal(t, "CUT", rows[0].Operation)
	assert.Equal(t, 1, rows[0].Count)
	assert.Equal(t, "2.50", rows[0].Earnings.StringFixed(2))
	assert.Equal(t, "PAINT", rows[1].Operation)
	assert.Equal(t, 2, rows[1].Count)
	assert.Equal(t, "4.00", rows[1].Earnings.StringFixed(2))
}

func TestWeeklyByOperation_EmptyWeek(t *testing.T) {
	week := payweek.For(testfixtures.ReferenceTime())
	rows := WeeklyByOperation("EMP002", nil, week)
	assert.Empty(t, rows)
}

func TestPayrollRows_GroupsByEmployeeSkuOperationRate(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	week := payweek.For(anchor)

	scans := []storage.ScanRecord{
		committedScan("EMP002", "12345", "WIDGET-A", "001", "PAINT", "2.00", anchor),
		committedScan("EMP002", "12345", "WIDGET-A", "002", "PAINT", "2.00", anchor),
		committedScan("EMP003", "12346", "WIDGET-B", "001", "CUT", "3.00", anchor),
	}

	rows := PayrollRows(scans, week, testfixtures.Employees())

	require.Len(t, rows, 2)
	assert.Equal(t, "EMP002", rows[0].EmployeeID)
	assert.Equal(t, "Maria Garcia", rows[0].EmployeeName)
	assert.Equal(t, 2, rows[0].Qty)
	assert.Equal(t, "4.00", rows[0].TotalEarnings.StringFixed(2))
	assert.Equal(t, week.Start, rows[0].WeekStart)
	assert.Equal(t, "EMP003", rows[1].EmployeeID)
	assert.Equal(t, 1, rows[1].Qty)
}

// Scans priced under different rate versions of the same (sku, operation)
// must not merge into one row: rate is part of the grouping key.
func TestPayrollRows_RateChangeMidWeekSplitsRows(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	week := payweek.For(anchor)

	scans := []storage.ScanRecord{
		committedScan("EMP002", "12345", "WIDGET-A", "001", "PAINT", "2.00", week.Start.Add(time.Hour)),
		committedScan("EMP002", "12345", "WIDGET-A", "002", "PAINT", "2.40", week.Start.AddDate(0, 0, 2)),
	}

	rows := PayrollRows(scans, week, testfixtures.Employees())

	require.Len(t, rows, 2)
	assert.Equal(t, "2.00", rows[0].Rate.StringFixed(2))
	assert.Equal(t, 1, rows[0].Qty)
	assert.Equal(t, "2.40", rows[1].Rate.StringFixed(2))
	assert.Equal(t, 1, rows[1].Qty)
}

func TestPayrollRows_UnknownEmployeeName(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	week := payweek.For(anchor)

	scans := []storage.ScanRecord{
		committedScan("EMP999", "12345", "WIDGET-A", "001", "PAINT", "2.00", anchor),
	}

	rows := PayrollRows(scans, week, testfixtures.Employees())

	require.Len(t, rows, 1)
	assert.Equal(t, "Unknown", rows[0].EmployeeName)
}

// Earnings are snapshots: aggregation reads only what is stored on the
// scan, so a later rate change or deactivation cannot alter past pay.
func TestAggregation_IgnoresCurrentRateTable(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	week := payweek.For(anchor)

	scan := committedScan("EMP002", "12345", "WIDGET-A", "001", "PAINT", "2.00", anchor)
	before := WeeklyByOperation("EMP002", []storage.ScanRecord{scan}, week)

	// The live rate table moving (or the window expiring) changes nothing
	// about a committed record.
	rates := testfixtures.PieceRates()
	for i := range rates {
		rates[i].Rate = decimal.RequireFromString("9.99")
		rates[i].IsActive = false
	}
	after := WeeklyByOperation("EMP002", []storage.ScanRecord{scan}, week)

	assert.Equal(t, before, after)
	assert.Equal(t, "2.00", after[0].Earnings.StringFixed(2))
}

func TestLastNWeeksHistory(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	gen := testfixtures.NewGenerator(42)

	var scans []storage.ScanRecord
	// Three scans this week, one scan two weeks back.
	for i := 0; i < 3; i++ {
		scans = append(scans, gen.CommittedScan("EMP002", anchor.Add(time.Duration(i)*time.Hour)))
	}
	scans = append(scans, gen.CommittedScan("EMP002", anchor.AddDate(0, 0, -14)))

	weeks := LastNWeeksHistory("EMP002", scans, 4, anchor)

	require.Len(t, weeks, 4)
	assert.Equal(t, 3, weeks[0].Scans)
	assert.Equal(t, 0, weeks[1].Scans)
	assert.Equal(t, 1, weeks[2].Scans)
	assert.Equal(t, 0, weeks[3].Scans)

	var total decimal.Decimal
	for _, s := range scans[:3] {
		total = total.Add(s.Earnings)
	}
	assert.True(t, total.Equal(weeks[0].Earnings))
}
