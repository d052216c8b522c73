package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"piecetrack/internal/storage"
)

type CredentialChecker interface {
	FindByCredentials(ctx context.Context, employeeID, pin string) (*storage.Employee, error)
}

type Request struct {
	EmployeeID string `json:"employee_id"`
	PIN        string `json:"pin"`
}

// Login is the roster equality check: id + PIN against an active employee.
func Login(log *slog.Logger, roster CredentialChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employees.login.Login"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request: invalid JSON", http.StatusBadRequest)
			return
		}
		if req.EmployeeID == "" || req.PIN == "" {
			http.Error(w, "employee_id and pin are required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		employee, err := roster.FindByCredentials(ctx, req.EmployeeID, req.PIN)
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			http.Error(w, "Invalid credentials or inactive account", http.StatusUnauthorized)
			return
		}
		if err != nil {
			log.Error("login lookup failed", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, employee)
	}
}
