package submit

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"piecetrack/internal/service/scan"
	"piecetrack/internal/storage"
)

type MockScanSubmitter struct {
	mock.Mock
}

func (m *MockScanSubmitter) Submit(ctx context.Context, req scan.SubmitRequest) (scan.Outcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(scan.Outcome), args.Error(1)
}

func postScan(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestSubmitScan_Committed(t *testing.T) {
	processor := new(MockScanSubmitter)
	processor.On("Submit", mock.Anything, mock.MatchedBy(func(req scan.SubmitRequest) bool {
		return req.RawText == "12345|WIDGET-A|001|PAINT" &&
			req.EmployeeID == "EMP002" &&
			req.DeviceID == "DEVICE001" &&
			req.Online
	})).Return(scan.Outcome{Status: scan.OutcomeCommitted}, nil)

	handler := SubmitScan(slog.Default(), processor, "DEVICE001")
	rr := postScan(t, handler, `{"barcode":"12345|WIDGET-A|001|PAINT","employee_id":"EMP002"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp scan.Outcome
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	assert.Equal(t, scan.OutcomeCommitted, resp.Status)
	processor.AssertExpectations(t)
}

func TestSubmitScan_OfflineQueued(t *testing.T) {
	processor := new(MockScanSubmitter)
	processor.On("Submit", mock.Anything, mock.MatchedBy(func(req scan.SubmitRequest) bool {
		return !req.Online
	})).Return(scan.Outcome{Status: scan.OutcomeQueued}, nil)

	handler := SubmitScan(slog.Default(), processor, "DEVICE001")
	rr := postScan(t, handler, `{"barcode":"12345|WIDGET-A|001|PAINT","employee_id":"EMP002","offline":true}`)

	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestSubmitScan_RejectedDuplicate(t *testing.T) {
	processor := new(MockScanSubmitter)
	processor.On("Submit", mock.Anything, mock.Anything).
		Return(scan.Outcome{Status: scan.OutcomeRejected, Reason: storage.ReasonDuplicate}, nil)

	handler := SubmitScan(slog.Default(), processor, "DEVICE001")
	rr := postScan(t, handler, `{"barcode":"12345|WIDGET-A|001|PAINT","employee_id":"EMP002"}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp scan.Outcome
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	assert.Equal(t, scan.OutcomeRejected, resp.Status)
	assert.Equal(t, storage.ReasonDuplicate, resp.Reason)
}

func TestSubmitScan_InvalidJSON(t *testing.T) {
	handler := SubmitScan(slog.Default(), new(MockScanSubmitter), "DEVICE001")
	rr := postScan(t, handler, `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitScan_MissingFields(t *testing.T) {
	handler := SubmitScan(slog.Default(), new(MockScanSubmitter), "DEVICE001")

	rr := postScan(t, handler, `{"employee_id":"EMP002"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postScan(t, handler, `{"barcode":"12345|WIDGET-A|001|PAINT"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitScan_StoreUnavailable(t *testing.T) {
	processor := new(MockScanSubmitter)
	processor.On("Submit", mock.Anything, mock.Anything).
		Return(scan.Outcome{}, storage.ErrUnavailable)

	handler := SubmitScan(slog.Default(), processor, "DEVICE001")
	rr := postScan(t, handler, `{"barcode":"12345|WIDGET-A|001|PAINT","employee_id":"EMP002"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
