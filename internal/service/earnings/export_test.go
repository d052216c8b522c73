package earnings

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"piecetrack/internal/payweek"
	"piecetrack/internal/storage"
	"piecetrack/internal/testfixtures"
)

type MockExportStorage struct {
	mock.Mock
}

func (m *MockExportStorage) ListScansBetween(ctx context.Context, start, end time.Time) ([]storage.ScanRecord, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ScanRecord), args.Error(1)
}

func (m *MockExportStorage) ListAllEmployees(ctx context.Context) ([]storage.Employee, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Employee), args.Error(1)
}

func TestRowsForWeek(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	week := payweek.For(anchor)

	store := new(MockExportStorage)
	store.On("ListScansBetween", mock.Anything, week.Start, week.End).Return([]storage.ScanRecord{
		committedScan("EMP002", "12345", "WIDGET-A", "001", "PAINT", "2.00", anchor),
		committedScan("EMP002", "12345", "WIDGET-A", "002", "PAINT", "2.00", anchor),
	}, nil)
	store.On("ListAllEmployees", mock.Anything).Return(testfixtures.Employees(), nil)

	svc := NewExportService(store)
	rows, err := svc.RowsForWeek(context.Background(), week)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Qty)
	store.AssertExpectations(t)
}

func TestWriteCSV_FormatMatchesExportContract(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	week := payweek.For(anchor)

	rows := PayrollRows([]storage.ScanRecord{
		committedScan("EMP002", "12345", "WIDGET-A", "001", "PAINT", "2.00", anchor),
		committedScan("EMP002", "12345", "WIDGET-A", "002", "PAINT", "2.00", anchor),
	}, week, testfixtures.Employees())

	out, err := WriteCSV(rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"employee_id,employee_name,week_start,week_end,sku,operation,qty_scans,rate,total_earnings",
		lines[0])
	assert.Equal(t, "EMP002,Maria Garcia,2024-06-10,2024-06-14,WIDGET-A,PAINT,2,2.00,4.00", lines[1])
}

func TestWriteCSV_EmptyWeekStillHasHeader(t *testing.T) {
	out, err := WriteCSV(nil)
	require.NoError(t, err)
	assert.Equal(t,
		"employee_id,employee_name,week_start,week_end,sku,operation,qty_scans,rate,total_earnings",
		strings.TrimSpace(string(out)))
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	anchor := testfixtures.ReferenceTime()
	week := payweek.For(anchor)

	rows := PayrollRows([]storage.ScanRecord{
		committedScan("EMP003", "12346", "WIDGET-B", "001", "CUT", "3.00", anchor),
	}, week, testfixtures.Employees())

	out, err := WriteXLSX(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Payroll", "A2")
	require.NoError(t, err)
	assert.Equal(t, "EMP003", got)

	rate, err := f.GetCellValue("Payroll", "H2")
	require.NoError(t, err)
	assert.Equal(t, "3.00", rate)
}

func TestExportFileName(t *testing.T) {
	week := payweek.For(testfixtures.ReferenceTime())
	assert.Equal(t, "payroll_2024-06-10_to_2024-06-14.csv", ExportFileName(week, "csv"))
	assert.Equal(t, "payroll_2024-06-10_to_2024-06-14.xlsx", ExportFileName(week, "xlsx"))
}
