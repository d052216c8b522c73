package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"piecetrack/internal/barcode"
	"piecetrack/internal/storage"
)

type Resolver interface {
	Resolve(ctx context.Context, sku, operation string, onDate time.Time, online bool) (storage.PieceRate, error)
}

// Submit outcome statuses.
const (
	OutcomeCommitted = "committed"
	OutcomeQueued    = "queued"
	OutcomeRejected  = "rejected"
)

type Outcome struct {
	Status string              `json:"status"`
	Reason string              `json:"reason,omitempty"`
	Record *storage.ScanRecord `json:"record,omitempty"`
}

type SubmitRequest struct {
	RawText    string
	EmployeeID string
	DeviceID   string
	Online     bool
}

// Processor runs one scan through parse, rate resolution, duplicate
// detection and commit-or-queue.
type Processor struct {
	log      *slog.Logger
	resolver Resolver
	logStore CommittedLog
	queue    PendingQueue
	dedup    *DedupIndex

	// Injectable for tests.
	Now   func() time.Time
	NewID func() string
}

func NewProcessor(log *slog.Logger, resolver Resolver, logStore CommittedLog, queue PendingQueue) *Processor {
	return &Processor{
		log:      log,
		resolver: resolver,
		logStore: logStore,
		queue:    queue,
		dedup:    NewDedupIndex(logStore, queue),
		Now:      time.Now,
		NewID:    func() string { return uuid.NewString() },
	}
}

// Submit processes one scan. Validation failures (malformed barcode, no
// active rate, duplicate) come back as rejected outcomes, not errors;
// retrying them cannot change the result. An error return means the scan
// could not be durably recorded anywhere and the worker must re-scan.
func (p *Processor) Submit(ctx context.Context, req SubmitRequest) (Outcome, error) {
	const op = "service.scan.Submit"

	intent, err := barcode.Parse(req.RawText)
	if err != nil {
		return Outcome{Status: OutcomeRejected, Reason: storage.ReasonMalformedBarcode}, nil
	}

	now := p.Now().UTC()

	rate, err := p.resolver.Resolve(ctx, intent.SKU, intent.Operation, now, req.Online)
	if errors.Is(err, storage.ErrNoActiveRate) {
		return Outcome{Status: OutcomeRejected, Reason: storage.ReasonNoActiveRate}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := p.dedup.Exists(ctx, intent.MO, intent.Unit, intent.Operation, req.Online)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return Outcome{Status: OutcomeRejected, Reason: storage.ReasonDuplicate}, nil
	}

	// Only now is a record worth constructing: parse and resolve passed,
	// and the rate is snapshotted so later rate changes never touch it.
	rec := storage.ScanRecord{
		ScanID:       p.NewID(),
		TimestampUTC: now,
		EmployeeID:   req.EmployeeID,
		MO:           intent.MO,
		SKU:          intent.SKU,
		Unit:         intent.Unit,
		Operation:    intent.Operation,
		Rate:         rate.Rate,
		Earnings:     rate.Rate,
		BarcodeRaw:   intent.String(),
		DeviceID:     req.DeviceID,
		Status:       storage.StatusPending,
	}

	if !req.Online {
		return p.enqueue(ctx, op, rec)
	}

	err = retryAppend(ctx, func() error { return p.logStore.AppendScan(ctx, rec) })
	switch {
	case err == nil:
		rec.Status = storage.StatusCommitted
		return Outcome{Status: OutcomeCommitted, Record: &rec}, nil
	case errors.Is(err, storage.ErrDuplicateScan):
		// Lost the race at the linearization point.
		return Outcome{Status: OutcomeRejected, Reason: storage.ReasonDuplicate}, nil
	case errors.Is(err, storage.ErrUnavailable):
		// Transient store failure mid-submit: do not lose the scan.
		p.log.Warn("online commit failed, falling back to offline queue",
			slog.String("op", op),
			slog.String("scan_id", rec.ScanID),
			slog.String("error", err.Error()),
		)
		return p.enqueue(ctx, op, rec)
	default:
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}
}

func (p *Processor) enqueue(ctx context.Context, op string, rec storage.ScanRecord) (Outcome, error) {
	if err := p.queue.Append(ctx, rec); err != nil {
		// Local durable write failed; nothing holds this scan.
		return Outcome{}, fmt.Errorf("%s: queue scan: %w", op, err)
	}
	return Outcome{Status: OutcomeQueued, Record: &rec}, nil
}

const appendMaxTries = 3

// retryAppend retries transient store failures with bounded exponential
// backoff; every other error aborts immediately.
func retryAppend(ctx context.Context, appendFn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := appendFn(); err != nil {
			if errors.Is(err, storage.ErrUnavailable) {
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(appendMaxTries))
	return err
}
