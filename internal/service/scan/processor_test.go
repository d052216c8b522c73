package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"piecetrack/internal/storage"
	"piecetrack/internal/testfixtures"
)

type MockCommittedLog struct {
	mock.Mock
}

func (m *MockCommittedLog) AppendScan(ctx context.Context, rec storage.ScanRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockCommittedLog) HasScan(ctx context.Context, mo, unit, operation string) (bool, error) {
	args := m.Called(ctx, mo, unit, operation)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommittedLog) HasScanID(ctx context.Context, scanID string) (bool, error) {
	args := m.Called(ctx, scanID)
	return args.Bool(0), args.Error(1)
}

type MockPendingQueue struct {
	mock.Mock
}

func (m *MockPendingQueue) Append(ctx context.Context, rec storage.ScanRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockPendingQueue) Pending(ctx context.Context) ([]storage.ScanRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ScanRecord), args.Error(1)
}

func (m *MockPendingQueue) Has(ctx context.Context, mo, unit, operation string) (bool, error) {
	args := m.Called(ctx, mo, unit, operation)
	return args.Bool(0), args.Error(1)
}

func (m *MockPendingQueue) Remove(ctx context.Context, scanID string) error {
	args := m.Called(ctx, scanID)
	return args.Error(0)
}

func (m *MockPendingQueue) MarkRejected(ctx context.Context, scanID, reason string) error {
	args := m.Called(ctx, scanID, reason)
	return args.Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, sku, operation string, onDate time.Time, online bool) (storage.PieceRate, error) {
	args := m.Called(ctx, sku, operation, onDate, online)
	if args.Get(0) == nil {
		return storage.PieceRate{}, args.Error(1)
	}
	return args.Get(0).(storage.PieceRate), args.Error(1)
}

func paintRate() storage.PieceRate {
	return storage.PieceRate{
		SKU:       "WIDGET-A",
		Operation: "PAINT",
		Rate:      decimal.RequireFromString("2.00"),
		IsActive:  true,
	}
}

func newTestProcessor(resolver Resolver, logStore CommittedLog, queue PendingQueue) *Processor {
	p := NewProcessor(slog.Default(), resolver, logStore, queue)
	p.Now = testfixtures.NewClock(time.Time{}).NowFunc()
	p.NewID = func() string { return "scan-test-1" }
	return p
}

func TestSubmit_OnlineCommit(t *testing.T) {
	logStore := new(MockCommittedLog)
	queue := new(MockPendingQueue)
	resolver := new(MockResolver)

	resolver.On("Resolve", mock.Anything, "WIDGET-A", "PAINT", mock.Anything, mock.Anything).Return(paintRate(), nil)
	queue.On("Has", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	logStore.On("HasScan", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	logStore.On("AppendScan", mock.Anything, mock.MatchedBy(func(rec storage.ScanRecord) bool {
		return rec.MO == "12345" && rec.Unit == "001" && rec.Operation == "PAINT" &&
			rec.Rate.Equal(decimal.RequireFromString("2.00")) &&
			rec.Earnings.Equal(decimal.RequireFromString("2.00")) &&
			rec.EmployeeID == "EMP002" && rec.DeviceID == "DEVICE001"
	})).Return(nil)

	p := newTestProcessor(resolver, logStore, queue)
	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText:    "12345|WIDGET-A|001|PAINT",
		EmployeeID: "EMP002",
		DeviceID:   "DEVICE001",
		Online:     true,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, out.Status)
	require.NotNil(t, out.Record)
	assert.Equal(t, storage.StatusCommitted, out.Record.Status)
	assert.Equal(t, "2.00", out.Record.Earnings.StringFixed(2))
	logStore.AssertExpectations(t)
}

func TestSubmit_DuplicateAlreadyCommitted(t *testing.T) {
	logStore := new(MockCommittedLog)
	queue := new(MockPendingQueue)
	resolver := new(MockResolver)

	resolver.On("Resolve", mock.Anything, "WIDGET-A", "PAINT", mock.Anything, mock.Anything).Return(paintRate(), nil)
	queue.On("Has", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	logStore.On("HasScan", mock.Anything, "12345", "001", "PAINT").Return(true, nil)

	p := newTestProcessor(resolver, logStore, queue)
	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "12345|WIDGET-A|001|PAINT", EmployeeID: "EMP002", DeviceID: "DEVICE001", Online: true,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, out.Status)
	assert.Equal(t, storage.ReasonDuplicate, out.Reason)
	assert.Nil(t, out.Record)
	logStore.AssertNotCalled(t, "AppendScan", mock.Anything, mock.Anything)
}

func TestSubmit_MalformedBarcode(t *testing.T) {
	p := newTestProcessor(new(MockResolver), new(MockCommittedLog), new(MockPendingQueue))

	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "12345|WIDGET-A|001", EmployeeID: "EMP002", Online: true,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, out.Status)
	assert.Equal(t, storage.ReasonMalformedBarcode, out.Reason)
	assert.Nil(t, out.Record)
}

func TestSubmit_NoActiveRate(t *testing.T) {
	logStore := new(MockCommittedLog)
	queue := new(MockPendingQueue)
	resolver := new(MockResolver)

	resolver.On("Resolve", mock.Anything, "UNKNOWN-SKU", "CUT", mock.Anything, mock.Anything).
		Return(nil, storage.ErrNoActiveRate)

	p := newTestProcessor(resolver, logStore, queue)
	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "99999|UNKNOWN-SKU|001|CUT", EmployeeID: "EMP002", Online: true,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, out.Status)
	assert.Equal(t, storage.ReasonNoActiveRate, out.Reason)
	// No record is created for a scan that cannot be priced.
	queue.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	logStore.AssertNotCalled(t, "AppendScan", mock.Anything, mock.Anything)
}

func TestSubmit_OfflineQueues(t *testing.T) {
	logStore := new(MockCommittedLog)
	queue := new(MockPendingQueue)
	resolver := new(MockResolver)

	resolver.On("Resolve", mock.Anything, "WIDGET-A", "PAINT", mock.Anything, mock.Anything).Return(paintRate(), nil)
	queue.On("Has", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	queue.On("Append", mock.Anything, mock.MatchedBy(func(rec storage.ScanRecord) bool {
		return rec.Status == storage.StatusPending && rec.ScanID == "scan-test-1"
	})).Return(nil)

	p := newTestProcessor(resolver, logStore, queue)
	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "12345|WIDGET-A|001|PAINT", EmployeeID: "EMP002", DeviceID: "DEVICE001", Online: false,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeQueued, out.Status)
	// The committed log is never touched while offline.
	logStore.AssertNotCalled(t, "HasScan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	logStore.AssertNotCalled(t, "AppendScan", mock.Anything, mock.Anything)
	queue.AssertExpectations(t)
}

func TestSubmit_OfflineDuplicateInQueue(t *testing.T) {
	queue := new(MockPendingQueue)
	resolver := new(MockResolver)

	resolver.On("Resolve", mock.Anything, "WIDGET-A", "PAINT", mock.Anything, mock.Anything).Return(paintRate(), nil)
	queue.On("Has", mock.Anything, "12345", "001", "PAINT").Return(true, nil)

	p := newTestProcessor(resolver, new(MockCommittedLog), queue)
	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "12345|WIDGET-A|001|PAINT", EmployeeID: "EMP002", Online: false,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, out.Status)
	assert.Equal(t, storage.ReasonDuplicate, out.Reason)
}

func TestSubmit_OnlineStoreFailureFallsBackToQueue(t *testing.T) {
	logStore := new(MockCommittedLog)
	queue := new(MockPendingQueue)
	resolver := new(MockResolver)

	resolver.On("Resolve", mock.Anything, "WIDGET-A", "PAINT", mock.Anything, mock.Anything).Return(paintRate(), nil)
	queue.On("Has", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	logStore.On("HasScan", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	logStore.On("AppendScan", mock.Anything, mock.Anything).Return(storage.ErrUnavailable)
	queue.On("Append", mock.Anything, mock.Anything).Return(nil)

	p := newTestProcessor(resolver, logStore, queue)
	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "12345|WIDGET-A|001|PAINT", EmployeeID: "EMP002", DeviceID: "DEVICE001", Online: true,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeQueued, out.Status)
	queue.AssertCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSubmit_CommitRaceLosesToOtherDevice(t *testing.T) {
	logStore := new(MockCommittedLog)
	queue := new(MockPendingQueue)
	resolver := new(MockResolver)

	resolver.On("Resolve", mock.Anything, "WIDGET-A", "PAINT", mock.Anything, mock.Anything).Return(paintRate(), nil)
	queue.On("Has", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	// Pre-check missed the racing commit; the unique key catches it.
	logStore.On("HasScan", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	logStore.On("AppendScan", mock.Anything, mock.Anything).Return(storage.ErrDuplicateScan)

	p := newTestProcessor(resolver, logStore, queue)
	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "12345|WIDGET-A|001|PAINT", EmployeeID: "EMP002", Online: true,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, out.Status)
	assert.Equal(t, storage.ReasonDuplicate, out.Reason)
	queue.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSubmit_LocalPersistenceFailureIsAnError(t *testing.T) {
	queue := new(MockPendingQueue)
	resolver := new(MockResolver)
	persistErr := errors.New("disk full")

	resolver.On("Resolve", mock.Anything, "WIDGET-A", "PAINT", mock.Anything, mock.Anything).Return(paintRate(), nil)
	queue.On("Has", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	queue.On("Append", mock.Anything, mock.Anything).Return(persistErr)

	p := newTestProcessor(resolver, new(MockCommittedLog), queue)
	_, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "12345|WIDGET-A|001|PAINT", EmployeeID: "EMP002", Online: false,
	})

	assert.ErrorIs(t, err, persistErr)
}

// A disconnected device must still price and queue a scan: resolution goes
// through the local rate mirror, never the unreachable remote table.
func TestSubmit_OfflineRemoteDownStillQueues(t *testing.T) {
	remote := new(MockRateStore)
	mirror := new(MockRateStore)
	queue := new(MockPendingQueue)

	remoteDown := fmt.Errorf("storage.mysql.ActiveRates: %w: dial tcp: no route to host", storage.ErrUnavailable)
	remote.On("ActiveRates", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, remoteDown).Maybe()
	mirror.On("ActiveRates", mock.Anything, "WIDGET-A", "PAINT", mock.Anything).
		Return([]storage.PieceRate{paintRate()}, nil)
	queue.On("Has", mock.Anything, "12345", "001", "PAINT").Return(false, nil)
	queue.On("Append", mock.Anything, mock.MatchedBy(func(rec storage.ScanRecord) bool {
		return rec.Status == storage.StatusPending &&
			rec.Earnings.Equal(decimal.RequireFromString("2.00"))
	})).Return(nil)

	resolver := NewRateResolver(slog.Default(), remote, mirror)
	p := newTestProcessor(resolver, new(MockCommittedLog), queue)
	out, err := p.Submit(context.Background(), SubmitRequest{
		RawText: "12345|WIDGET-A|001|PAINT", EmployeeID: "EMP002", DeviceID: "DEVICE001", Online: false,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeQueued, out.Status)
	remote.AssertNotCalled(t, "ActiveRates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	queue.AssertExpectations(t)
}
