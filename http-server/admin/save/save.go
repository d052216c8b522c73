package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"piecetrack/internal/storage"
)

type RateUpserter interface {
	UpsertRate(ctx context.Context, rate storage.PieceRate) error
}

type EmployeeSaver interface {
	SaveEmployee(ctx context.Context, e storage.Employee) error
}

type RateRequest struct {
	SKU            string          `json:"sku"`
	Operation      string          `json:"operation"`
	Rate           decimal.Decimal `json:"rate"`
	IsActive       bool            `json:"is_active"`
	EffectiveStart string          `json:"effective_start"`
	EffectiveEnd   string          `json:"effective_end"`
	RateSource     string          `json:"rate_source"`
}

// UpsertRateAdmin lands piece-rate updates, both from the admin panel and
// from the external pricing feed. The last-sync timestamp is stamped here.
func UpsertRateAdmin(log *slog.Logger, store RateUpserter, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.save.UpsertRateAdmin"

		var req RateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request: invalid JSON", http.StatusBadRequest)
			return
		}
		if req.SKU == "" || req.Operation == "" {
			http.Error(w, "sku and operation are required", http.StatusBadRequest)
			return
		}
		if req.Rate.IsNegative() || req.Rate.IsZero() {
			http.Error(w, "rate must be positive", http.StatusBadRequest)
			return
		}
		start, err := time.Parse("2006-01-02", req.EffectiveStart)
		if err != nil {
			http.Error(w, "effective_start must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := time.Parse("2006-01-02", req.EffectiveEnd)
		if err != nil {
			http.Error(w, "effective_end must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if end.Before(start) {
			http.Error(w, "effective_end must not precede effective_start", http.StatusBadRequest)
			return
		}
		source := req.RateSource
		if source == "" {
			source = "manual"
		}

		syncedAt := now().UTC()
		rate := storage.PieceRate{
			SKU:            req.SKU,
			Operation:      req.Operation,
			Rate:           req.Rate,
			IsActive:       req.IsActive,
			EffectiveStart: start,
			EffectiveEnd:   end,
			RateSource:     source,
			LastSyncUTC:    &syncedAt,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := store.UpsertRate(ctx, rate); err != nil {
			log.Error("failed to upsert rate", slog.String("op", op),
				slog.String("sku", req.SKU), slog.String("operation", req.Operation),
				slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": "saved"})
	}
}

func SaveEmployeeAdmin(log *slog.Logger, store EmployeeSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.save.SaveEmployeeAdmin"

		var req storage.Employee
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request: invalid JSON", http.StatusBadRequest)
			return
		}
		if req.EmployeeID == "" || req.Name == "" || req.PIN == "" {
			http.Error(w, "employee_id, name and pin are required", http.StatusBadRequest)
			return
		}
		if req.Role == "" {
			req.Role = storage.RoleEmployee
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := store.SaveEmployee(ctx, req); err != nil {
			log.Error("failed to save employee", slog.String("op", op),
				slog.String("employee_id", req.EmployeeID), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": "created"})
	}
}
