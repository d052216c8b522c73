package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"piecetrack/internal/storage"
)

type OperationLister interface {
	ListOperations(ctx context.Context) ([]storage.Operation, error)
}

func GetOperations(log *slog.Logger, store OperationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.operations.get.GetOperations"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		operations, err := store.ListOperations(ctx)
		if err != nil {
			log.Error("failed to list operations", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if operations == nil {
			operations = []storage.Operation{}
		}

		render.JSON(w, r, operations)
	}
}
