package submit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"piecetrack/internal/service/scan"
	"piecetrack/internal/storage"
)

type ScanSubmitter interface {
	Submit(ctx context.Context, req scan.SubmitRequest) (scan.Outcome, error)
}

type Request struct {
	Barcode    string `json:"barcode"`
	EmployeeID string `json:"employee_id"`
	DeviceID   string `json:"device_id,omitempty"`
	Offline    bool   `json:"offline,omitempty"`
}

// SubmitScan runs one barcode through the processing pipeline. Validation
// rejections come back as 200 responses with a rejected outcome; only
// infrastructure failures map to error statuses.
func SubmitScan(log *slog.Logger, processor ScanSubmitter, defaultDeviceID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scan.submit.SubmitScan"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Bad request: invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Barcode == "" {
			http.Error(w, "barcode is required", http.StatusBadRequest)
			return
		}
		if req.EmployeeID == "" {
			http.Error(w, "employee_id is required", http.StatusBadRequest)
			return
		}
		deviceID := req.DeviceID
		if deviceID == "" {
			deviceID = defaultDeviceID
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		outcome, err := processor.Submit(ctx, scan.SubmitRequest{
			RawText:    req.Barcode,
			EmployeeID: req.EmployeeID,
			DeviceID:   deviceID,
			Online:     !req.Offline,
		})
		if err != nil {
			log.Error("scan submission failed", slog.String("op", op),
				slog.String("employee_id", req.EmployeeID), slog.String("error", err.Error()))
			if errors.Is(err, storage.ErrUnavailable) {
				http.Error(w, "Store temporarily unavailable", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		switch outcome.Status {
		case scan.OutcomeCommitted:
			render.Status(r, http.StatusCreated)
		case scan.OutcomeQueued:
			render.Status(r, http.StatusAccepted)
		}
		render.JSON(w, r, outcome)
	}
}
