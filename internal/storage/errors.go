package storage

import "errors"

var (
	// ErrDuplicateScan reports that the dedup key (mo, unit, operation) is
	// already present in the committed log or the pending queue.
	ErrDuplicateScan = errors.New("scan already recorded for this unit and operation")

	// ErrNoActiveRate reports that no active piece rate covers the
	// (sku, operation) pair on the requested date. A normal outcome for
	// unpriced SKUs, not a storage fault.
	ErrNoActiveRate = errors.New("no active piece rate")

	ErrScanNotFound     = errors.New("scan not found")
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrUnavailable marks a transient store failure: the caller may retry
	// or fall back to the offline queue. Local durable-write failures are
	// returned as-is and are fatal for the submitted scan.
	ErrUnavailable = errors.New("storage unavailable")
)
