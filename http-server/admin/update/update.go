package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"piecetrack/internal/storage"
)

type EmployeeUpdater interface {
	UpdateEmployee(ctx context.Context, e storage.Employee) error
}

// UpdateEmployeeAdmin edits name, role, PIN and the active flag of a
// roster entry.
func UpdateEmployeeAdmin(log *slog.Logger, store EmployeeUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.update.UpdateEmployeeAdmin"

		employeeID := chi.URLParam(r, "employeeID")
		if employeeID == "" {
			http.Error(w, "employee id is required", http.StatusBadRequest)
			return
		}

		var req storage.Employee
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request: invalid JSON", http.StatusBadRequest)
			return
		}
		req.EmployeeID = employeeID
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if req.Role == "" {
			req.Role = storage.RoleEmployee
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := store.UpdateEmployee(ctx, req)
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			http.Error(w, "Employee not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("failed to update employee", slog.String("op", op),
				slog.String("employee_id", employeeID), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": "updated"})
	}
}
