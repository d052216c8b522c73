package scan

import (
	"context"
	"fmt"

	"piecetrack/internal/storage"
)

type CommittedLog interface {
	AppendScan(ctx context.Context, rec storage.ScanRecord) error
	HasScan(ctx context.Context, mo, unit, operation string) (bool, error)
	HasScanID(ctx context.Context, scanID string) (bool, error)
}

type PendingQueue interface {
	Append(ctx context.Context, rec storage.ScanRecord) error
	Pending(ctx context.Context) ([]storage.ScanRecord, error)
	Has(ctx context.Context, mo, unit, operation string) (bool, error)
	Remove(ctx context.Context, scanID string) error
	MarkRejected(ctx context.Context, scanID, reason string) error
}

// DedupIndex answers whether a (mo, unit, operation) key was already paid
// or is waiting to be. The pending queue is always consulted; the
// committed log only while online. Queued entries are re-checked during
// reconciliation anyway, and the unique key on the log is what actually
// serializes racing commits.
type DedupIndex struct {
	log   CommittedLog
	queue PendingQueue
}

func NewDedupIndex(log CommittedLog, queue PendingQueue) *DedupIndex {
	return &DedupIndex{log: log, queue: queue}
}

func (d *DedupIndex) Exists(ctx context.Context, mo, unit, operation string, online bool) (bool, error) {
	const op = "service.scan.DedupIndex.Exists"

	queued, err := d.queue.Has(ctx, mo, unit, operation)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if queued {
		return true, nil
	}

	if !online {
		return false, nil
	}

	committed, err := d.log.HasScan(ctx, mo, unit, operation)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return committed, nil
}
