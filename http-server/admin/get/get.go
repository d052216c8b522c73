package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"piecetrack/internal/storage"
)

type RateLister interface {
	ListRates(ctx context.Context) ([]storage.PieceRate, error)
}

type EmployeeLister interface {
	ListAllEmployees(ctx context.Context) ([]storage.Employee, error)
}

type ScanSearcher interface {
	SearchScans(ctx context.Context, search string, limit int) ([]storage.ScanRecord, error)
}

// GetRatesAdmin returns the full rate table including inactive and future
// windows.
func GetRatesAdmin(log *slog.Logger, store RateLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.get.GetRatesAdmin"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rates, err := store.ListRates(ctx)
		if err != nil {
			log.Error("failed to list rates", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if rates == nil {
			rates = []storage.PieceRate{}
		}

		render.JSON(w, r, rates)
	}
}

func GetAllEmployeesAdmin(log *slog.Logger, store EmployeeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.get.GetAllEmployeesAdmin"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		employees, err := store.ListAllEmployees(ctx)
		if err != nil {
			log.Error("failed to list employees", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if employees == nil {
			employees = []storage.Employee{}
		}

		render.JSON(w, r, employees)
	}
}

const (
	defaultScanLogLimit = 50
	maxScanLogLimit     = 500
)

// GetScanLogAdmin is the scan-log view: newest committed scans first, with
// an optional search over employee, SKU and MO.
func GetScanLogAdmin(log *slog.Logger, store ScanSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.get.GetScanLogAdmin"

		search := r.URL.Query().Get("search")

		limit := defaultScanLogLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}
		if limit > maxScanLogLimit {
			limit = maxScanLogLimit
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		scans, err := store.SearchScans(ctx, search, limit)
		if err != nil {
			log.Error("failed to search scan log", slog.String("op", op),
				slog.String("search", search), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if scans == nil {
			scans = []storage.ScanRecord{}
		}

		render.JSON(w, r, scans)
	}
}
