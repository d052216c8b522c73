package earnings

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"piecetrack/internal/payweek"
	"piecetrack/internal/storage"
)

type ExportStorage interface {
	ListScansBetween(ctx context.Context, start, end time.Time) ([]storage.ScanRecord, error)
	ListAllEmployees(ctx context.Context) ([]storage.Employee, error)
}

// ExportService builds payroll export rows for a pay week from the
// committed log and the roster.
type ExportService struct {
	storage ExportStorage
}

func NewExportService(storage ExportStorage) *ExportService {
	return &ExportService{storage: storage}
}

var csvHeader = []string{
	"employee_id", "employee_name", "week_start", "week_end",
	"sku", "operation", "qty_scans", "rate", "total_earnings",
}

func (e *ExportService) RowsForWeek(ctx context.Context, week payweek.Bounds) ([]PayrollRow, error) {
	const op = "service.earnings.RowsForWeek"

	var (
		scans     []storage.ScanRecord
		employees []storage.Employee
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scans, err = e.storage.ListScansBetween(gCtx, week.Start, week.End)
		if err != nil {
			return fmt.Errorf("scans: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		employees, err = e.storage.ListAllEmployees(gCtx)
		if err != nil {
			return fmt.Errorf("employees: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return PayrollRows(scans, week, employees), nil
}

// WriteCSV renders payroll rows with the fixed export header. Money is
// formatted with two decimal places, dates as YYYY-MM-DD.
func WriteCSV(rows []PayrollRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.EmployeeID,
			r.EmployeeName,
			r.WeekStart.Format("2006-01-02"),
			r.WeekEnd.Format("2006-01-02"),
			r.SKU,
			r.Operation,
			fmt.Sprintf("%d", r.Qty),
			r.Rate.StringFixed(2),
			r.TotalEarnings.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX renders the same rows as a spreadsheet for supervisors who
// open the export directly.
func WriteXLSX(rows []PayrollRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payroll"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	for i, name := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(csvHeader), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	for i, r := range rows {
		rowIdx := i + 2
		values := []any{
			r.EmployeeID,
			r.EmployeeName,
			r.WeekStart.Format("2006-01-02"),
			r.WeekEnd.Format("2006-01-02"),
			r.SKU,
			r.Operation,
			r.Qty,
			r.Rate.StringFixed(2),
			r.TotalEarnings.StringFixed(2),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, rowIdx)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFileName names a download payroll_<start>_to_<end>.<ext>.
func ExportFileName(week payweek.Bounds, ext string) string {
	return fmt.Sprintf("payroll_%s_to_%s.%s",
		week.Start.Format("2006-01-02"),
		week.End.Format("2006-01-02"),
		ext,
	)
}
