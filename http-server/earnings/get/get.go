package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"piecetrack/internal/payweek"
	"piecetrack/internal/service/earnings"
	"piecetrack/internal/storage"
)

type ScanLister interface {
	ListEmployeeScansBetween(ctx context.Context, employeeID string, start, end time.Time) ([]storage.ScanRecord, error)
}

type weeklyResponse struct {
	Week payweek.Bounds              `json:"week"`
	Rows []earnings.OperationSummary `json:"rows"`
}

// GetWeeklyEarnings returns the per-(sku, operation) summary for one
// employee's current pay week. An optional date=YYYY-MM-DD query selects
// another week.
func GetWeeklyEarnings(log *slog.Logger, store ScanLister, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.earnings.get.GetWeeklyEarnings"

		employeeID := r.URL.Query().Get("employee_id")
		if employeeID == "" {
			http.Error(w, "employee_id is required", http.StatusBadRequest)
			return
		}

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		scans, err := store.ListEmployeeScansBetween(ctx, employeeID, week.Start, week.End)
		if err != nil {
			log.Error("failed to list scans", slog.String("op", op),
				slog.String("employee_id", employeeID), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		rows := earnings.WeeklyByOperation(employeeID, scans, week)
		if rows == nil {
			rows = []earnings.OperationSummary{}
		}
		render.JSON(w, r, weeklyResponse{Week: week, Rows: rows})
	}
}

// GetEarningsHistory returns week summaries walking backward from the
// current week, most recent first. weeks defaults to 4, capped at 26.
func GetEarningsHistory(log *slog.Logger, store ScanLister, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.earnings.get.GetEarningsHistory"

		employeeID := r.URL.Query().Get("employee_id")
		if employeeID == "" {
			http.Error(w, "employee_id is required", http.StatusBadRequest)
			return
		}

		weeks := 4
		if raw := r.URL.Query().Get("weeks"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "weeks must be a positive integer", http.StatusBadRequest)
				return
			}
			weeks = n
		}
		if weeks > 26 {
			weeks = 26
		}

		anchor := now().UTC()
		bounds := payweek.LastN(anchor, weeks)
		oldest := bounds[len(bounds)-1]

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		scans, err := store.ListEmployeeScansBetween(ctx, employeeID, oldest.Start, bounds[0].End)
		if err != nil {
			log.Error("failed to list scans", slog.String("op", op),
				slog.String("employee_id", employeeID), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, earnings.LastNWeeksHistory(employeeID, scans, weeks, anchor))
	}
}
