// Package earnings aggregates committed scans into weekly views and
// payroll export rows. Aggregation is pure: it never re-reads rates, only
// the earnings snapshotted on each scan.
package earnings

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"piecetrack/internal/payweek"
	"piecetrack/internal/storage"
)

type OperationSummary struct {
	SKU       string          `json:"sku"`
	Operation string          `json:"operation"`
	Count     int             `json:"count"`
	Earnings  decimal.Decimal `json:"earnings"`
}

// WeeklyByOperation filters scans to the employee and week and groups them
// by (sku, operation), ordered by sku then operation.
func WeeklyByOperation(employeeID string, scans []storage.ScanRecord, week payweek.Bounds) []OperationSummary {
	type key struct{ sku, operation string }
	groups := make(map[key]*OperationSummary)

	for _, s := range scans {
		if s.EmployeeID != employeeID || !week.Contains(s.TimestampUTC) {
			continue
		}
		k := key{s.SKU, s.Operation}
		g, ok := groups[k]
		if !ok {
			g = &OperationSummary{SKU: s.SKU, Operation: s.Operation, Earnings: decimal.Zero}
			groups[k] = g
		}
		g.Count++
		g.Earnings = g.Earnings.Add(s.Earnings)
	}

	out := make([]OperationSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].Operation < out[j].Operation
	})
	return out
}

type PayrollRow struct {
	EmployeeID    string          `json:"employee_id"`
	EmployeeName  string          `json:"employee_name"`
	WeekStart     time.Time       `json:"week_start"`
	WeekEnd       time.Time       `json:"week_end"`
	SKU           string          `json:"sku"`
	Operation     string          `json:"operation"`
	Qty           int             `json:"qty_scans"`
	Rate          decimal.Decimal `json:"rate"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

// PayrollRows groups a week's scans by (employee, sku, operation, rate).
// Rate is part of the key so scans priced under different rate versions of
// the same pair never mix into one row.
func PayrollRows(scans []storage.ScanRecord, week payweek.Bounds, employees []storage.Employee) []PayrollRow {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.EmployeeID] = e.Name
	}

	type key struct{ employee, sku, operation, rate string }
	groups := make(map[key]*PayrollRow)

	for _, s := range scans {
		if !week.Contains(s.TimestampUTC) {
			continue
		}
		k := key{s.EmployeeID, s.SKU, s.Operation, s.Rate.String()}
		g, ok := groups[k]
		if !ok {
			name, found := names[s.EmployeeID]
			if !found {
				name = "Unknown"
			}
			g = &PayrollRow{
				EmployeeID:    s.EmployeeID,
				EmployeeName:  name,
				WeekStart:     week.Start,
				WeekEnd:       week.End,
				SKU:           s.SKU,
				Operation:     s.Operation,
				Rate:          s.Rate,
				TotalEarnings: decimal.Zero,
			}
			groups[k] = g
		}
		g.Qty++
		g.TotalEarnings = g.TotalEarnings.Add(s.Earnings)
	}

	out := make([]PayrollRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		if a.SKU != b.SKU {
			return a.SKU < b.SKU
		}
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		return a.Rate.LessThan(b.Rate)
	})
	return out
}

type WeekSummary struct {
	Week     payweek.Bounds  `json:"week"`
	Scans    int             `json:"scans"`
	Earnings decimal.Decimal `json:"earnings"`
}

// LastNWeeksHistory walks backward from the week containing anchor and
// summarizes each of n weeks for the employee, most recent first.
func LastNWeeksHistory(employeeID string, scans []storage.ScanRecord, n int, anchor time.Time) []WeekSummary {
	weeks := payweek.LastN(anchor, n)
	out := make([]WeekSummary, 0, n)

	for _, w := range weeks {
		summary := WeekSummary{Week: w, Earnings: decimal.Zero}
		for _, s := range scans {
			if s.EmployeeID == employeeID && w.Contains(s.TimestampUTC) {
				summary.Scans++
				summary.Earnings = summary.Earnings.Add(s.Earnings)
			}
		}
		out = append(out, summary)
	}
	return out
}
