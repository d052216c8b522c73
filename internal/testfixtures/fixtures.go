// Package testfixtures supplies deterministic data for the test suite.
// Production code never imports it: fixtures are seeded, not random, so a
// failing test replays exactly.
package testfixtures

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"piecetrack/internal/storage"
)

// Employees mirrors the pilot roster.
func Employees() []storage.Employee {
	return []storage.Employee{
		{EmployeeID: "EMP001", Name: "John Smith", PIN: "1234", Role: storage.RoleAdmin, IsActive: true},
		{EmployeeID: "EMP002", Name: "Maria Garcia", PIN: "5678", Role: storage.RoleEmployee, IsActive: true},
		{EmployeeID: "EMP003", Name: "David Chen", PIN: "9012", Role: storage.RoleEmployee, IsActive: true},
		{EmployeeID: "EMP004", Name: "Sarah Johnson", PIN: "3456", Role: storage.RoleEmployee, IsActive: false},
	}
}

// PieceRates covers the pilot SKUs with wide-open effective windows.
func PieceRates() []storage.PieceRate {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

	rate := func(sku, operation, amount string) storage.PieceRate {
		return storage.PieceRate{
			SKU:            sku,
			Operation:      operation,
			Rate:           decimal.RequireFromString(amount),
			IsActive:       true,
			EffectiveStart: start,
			EffectiveEnd:   end,
			RateSource:     "manual",
		}
	}

	return []storage.PieceRate{
		rate("WIDGET-A", "CUT", "2.50"),
		rate("WIDGET-A", "WELD", "3.75"),
		rate("WIDGET-A", "PAINT", "2.00"),
		rate("WIDGET-B", "CUT", "3.00"),
		rate("WIDGET-B", "ASSEMBLE", "5.50"),
		rate("BRACKET-X", "CUT", "1.50"),
		rate("BRACKET-X", "WELD", "2.25"),
	}
}

// Generator produces deterministic scan records from a seed.
type Generator struct {
	rnd *rand.Rand
	seq int
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

var (
	genSKUs       = []string{"WIDGET-A", "WIDGET-B", "BRACKET-X"}
	genOperations = []string{"CUT", "WELD", "PAINT", "ASSEMBLE"}
)

// CommittedScan builds one committed scan at ts. MO and unit advance with
// an internal sequence so generated scans never collide on the dedup key.
func (g *Generator) CommittedScan(employeeID string, ts time.Time) storage.ScanRecord {
	g.seq++
	sku := genSKUs[g.rnd.Intn(len(genSKUs))]
	operation := genOperations[g.rnd.Intn(len(genOperations))]
	mo := fmt.Sprintf("MO%05d", 10000+g.seq)
	unit := fmt.Sprintf("%03d", 1+g.rnd.Intn(999))

	rate := decimal.NewFromInt(2)
	for _, r := range PieceRates() {
		if r.SKU == sku && r.Operation == operation {
			rate = r.Rate
			break
		}
	}

	return storage.ScanRecord{
		ScanID:       fmt.Sprintf("SCAN%06d", g.seq),
		TimestampUTC: ts.UTC(),
		EmployeeID:   employeeID,
		MO:           mo,
		SKU:          sku,
		Unit:         unit,
		Operation:    operation,
		Rate:         rate,
		Earnings:     rate,
		BarcodeRaw:   fmt.Sprintf("%s|%s|%s|%s", mo, sku, unit, operation),
		DeviceID:     "DEVICE001",
		Status:       storage.StatusCommitted,
	}
}
