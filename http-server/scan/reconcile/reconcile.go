package reconcile

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"piecetrack/internal/service/scan"
	"piecetrack/internal/storage"
)

type QueueDrainer interface {
	Reconcile(ctx context.Context) (scan.ReconcileResult, error)
}

type PendingLister interface {
	Pending(ctx context.Context) ([]storage.ScanRecord, error)
}

// TriggerSync drains the offline queue into the committed log. The client
// calls it when connectivity comes back; it is also safe to call any time
// since reconciliation is idempotent.
func TriggerSync(log *slog.Logger, reconciler QueueDrainer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scan.reconcile.TriggerSync"

		// The drain tolerates interruption at entry boundaries, but give a
		// full pass a generous window.
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		result, err := reconciler.Reconcile(ctx)
		if err != nil {
			log.Error("reconciliation failed", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Sync failed", http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, r, result)
	}
}

// GetPendingQueue lists scans still waiting for sync, oldest first.
func GetPendingQueue(log *slog.Logger, queue PendingLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scan.reconcile.GetPendingQueue"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		pending, err := queue.Pending(ctx)
		if err != nil {
			log.Error("failed to read pending queue", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if pending == nil {
			pending = []storage.ScanRecord{}
		}

		render.JSON(w, r, pending)
	}
}
