package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"piecetrack/internal/storage"
)

type RejectedScan struct {
	Record storage.ScanRecord `json:"record"`
	Reason string             `json:"reason"`
}

type ReconcileResult struct {
	Committed []storage.ScanRecord `json:"committed"`
	Rejected  []RejectedScan       `json:"rejected"`
	Remaining int                  `json:"remaining"`
}

type RateLister interface {
	ListRates(ctx context.Context) ([]storage.PieceRate, error)
}

type RateMirror interface {
	ReplaceRates(ctx context.Context, rates []storage.PieceRate) error
}

// Reconciler drains the offline queue into the committed log once
// connectivity is back. Each entry's outcome is independent, and a queue
// entry is only removed after its outcome is durably recorded, so the
// drain can be killed and re-run at any entry boundary without
// double-committing or losing scans. Each pass also refreshes the local
// rate mirror so the next offline stretch prices scans from current rates.
type Reconciler struct {
	log      *slog.Logger
	logStore CommittedLog
	queue    PendingQueue
	rates    RateLister
	mirror   RateMirror
}

func NewReconciler(log *slog.Logger, logStore CommittedLog, queue PendingQueue, rates RateLister, mirror RateMirror) *Reconciler {
	return &Reconciler{log: log, logStore: logStore, queue: queue, rates: rates, mirror: mirror}
}

// Reconcile processes queued scans in original enqueue order. Entries that
// hit a transient store failure stay queued for the next run; Remaining
// counts them.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileResult, error) {
	const op = "service.scan.Reconcile"

	pending, err := r.queue.Pending(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var result ReconcileResult
	for i, rec := range pending {
		if ctx.Err() != nil {
			result.Remaining += len(pending) - i
			return result, fmt.Errorf("%s: %w", op, ctx.Err())
		}

		outcome, err := r.reconcileOne(ctx, rec)
		if err != nil {
			// Transient failure on this entry; it stays queued and the
			// rest of the queue is still processed.
			r.log.Warn("reconcile entry failed, leaving queued",
				slog.String("op", op),
				slog.String("scan_id", rec.ScanID),
				slog.String("error", err.Error()),
			)
			result.Remaining++
			continue
		}

		switch outcome {
		case OutcomeCommitted:
			rec.Status = storage.StatusCommitted
			result.Committed = append(result.Committed, rec)
		case OutcomeRejected:
			rec.Status = storage.StatusRejected
			rec.RejectionReason = storage.ReasonDuplicate
			result.Rejected = append(result.Rejected, RejectedScan{Record: rec, Reason: storage.ReasonDuplicate})
		}
	}

	if len(result.Committed)+len(result.Rejected) > 0 {
		r.log.Info("reconciliation pass finished",
			slog.String("op", op),
			slog.Int("committed", len(result.Committed)),
			slog.Int("rejected", len(result.Rejected)),
			slog.Int("remaining", result.Remaining),
		)
	}

	// A failed refresh leaves the previous mirror in place; the sync
	// outcome above still stands.
	if err := r.refreshMirror(ctx); err != nil {
		r.log.Warn("rate mirror refresh failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

func (r *Reconciler) refreshMirror(ctx context.Context) error {
	rates, err := r.rates.ListRates(ctx)
	if err != nil {
		return err
	}
	return r.mirror.ReplaceRates(ctx, rates)
}

func (r *Reconciler) reconcileOne(ctx context.Context, rec storage.ScanRecord) (string, error) {
	err := retryAppend(ctx, func() error { return r.logStore.AppendScan(ctx, rec) })
	if err == nil {
		if err := r.queue.Remove(ctx, rec.ScanID); err != nil {
			// The commit is durable; a failed removal resolves itself on
			// the next pass via the scan_id check below.
			return "", err
		}
		return OutcomeCommitted, nil
	}

	if !errors.Is(err, storage.ErrDuplicateScan) {
		return "", err
	}

	// The dedup key is taken. If the log holds this very scan_id, a
	// previous pass committed it and died before removing the queue entry;
	// finish that work instead of rejecting honest earnings.
	mine, idErr := r.logStore.HasScanID(ctx, rec.ScanID)
	if idErr != nil {
		return "", idErr
	}
	if mine {
		if err := r.queue.Remove(ctx, rec.ScanID); err != nil {
			return "", err
		}
		return OutcomeCommitted, nil
	}

	if err := r.queue.MarkRejected(ctx, rec.ScanID, storage.ReasonDuplicate); err != nil {
		return "", err
	}
	return OutcomeRejected, nil
}
