package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"piecetrack/internal/payweek"
	"piecetrack/internal/service/earnings"
)

type PayrollProvider interface {
	RowsForWeek(ctx context.Context, week payweek.Bounds) ([]earnings.PayrollRow, error)
}

// PayrollCSV streams the current pay week's payroll export. An optional
// date=YYYY-MM-DD query selects another week.
func PayrollCSV(log *slog.Logger, svc PayrollProvider, now func() time.Time) http.HandlerFunc {
	return payroll(log, svc, now, "csv", "text/csv", earnings.WriteCSV)
}

// PayrollXLSX is the same export as a spreadsheet.
func PayrollXLSX(log *slog.Logger, svc PayrollProvider, now func() time.Time) http.HandlerFunc {
	return payroll(log, svc, now,
		"xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		earnings.WriteXLSX)
}

func payroll(log *slog.Logger, svc PayrollProvider, now func() time.Time,
	ext, contentType string, write func([]earnings.PayrollRow) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.export.Payroll"

		anchor := now().UTC()
		if d := r.URL.Query().Get("date"); d != "" {
			parsed, err := time.Parse("2006-01-02", d)
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			anchor = parsed
		}
		week := payweek.For(anchor)

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		rows, err := svc.RowsForWeek(ctx, week)
		if err != nil {
			log.Error("failed to build payroll rows", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out, err := write(rows)
		if err != nil {
			log.Error("failed to render payroll export", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", earnings.ExportFileName(week, ext)))
		w.Write(out)
	}
}
