package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"piecetrack/internal/storage"
)

type RateStore interface {
	ActiveRates(ctx context.Context, sku, operation string, onDate time.Time) ([]storage.PieceRate, error)
}

// RateResolver finds the single active, effective-dated piece rate for a
// (sku, operation) pair. Online it reads the authoritative table; offline,
// or when that table is unreachable, it reads the device-local mirror so a
// disconnected device can still price and queue a scan. The mirror is
// refreshed on every successful sync.
type RateResolver struct {
	log    *slog.Logger
	remote RateStore
	mirror RateStore
}

func NewRateResolver(log *slog.Logger, remote, mirror RateStore) *RateResolver {
	return &RateResolver{log: log, remote: remote, mirror: mirror}
}

// Resolve returns the rate covering onDate. storage.ErrNoActiveRate is a
// normal outcome for unpriced SKUs. Overlapping active windows violate the
// rate-table invariant; resolution stays deterministic by taking the
// earliest effective_start, and the violation is logged.
func (r *RateResolver) Resolve(ctx context.Context, sku, operation string, onDate time.Time, online bool) (storage.PieceRate, error) {
	const op = "service.scan.Resolve"

	if online {
		rates, err := r.remote.ActiveRates(ctx, sku, operation, onDate)
		switch {
		case err == nil:
			return r.pick(op, sku, operation, rates)
		case errors.Is(err, storage.ErrUnavailable):
			// Mid-submit connectivity loss: price from the mirror rather
			// than dropping the scan.
			r.log.Warn("rate table unreachable, resolving from local mirror",
				slog.String("op", op),
				slog.String("sku", sku),
				slog.String("operation", operation),
				slog.String("error", err.Error()),
			)
		default:
			return storage.PieceRate{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	rates, err := r.mirror.ActiveRates(ctx, sku, operation, onDate)
	if err != nil {
		return storage.PieceRate{}, fmt.Errorf("%s: %w", op, err)
	}
	return r.pick(op, sku, operation, rates)
}

func (r *RateResolver) pick(op, sku, operation string, rates []storage.PieceRate) (storage.PieceRate, error) {
	if len(rates) == 0 {
		return storage.PieceRate{}, fmt.Errorf("%s: %s/%s: %w", op, sku, operation, storage.ErrNoActiveRate)
	}
	if len(rates) > 1 {
		r.log.Warn("overlapping active rate windows, taking earliest effective_start",
			slog.String("op", op),
			slog.String("sku", sku),
			slog.String("operation", operation),
			slog.Int("matches", len(rates)),
		)
	}
	return rates[0], nil
}
