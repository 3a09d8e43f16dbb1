package scraper

import (
	"context"

	"sjsage522/gpuwatcher/pkg/errors"
)

// WithinBudget applies the per-SKU maximum-price threshold. The boundary is
// inclusive: an offer priced exactly at the ceiling is admitted.
func WithinBudget(price float64, target SearchTarget) bool {
	return price <= target.MaxPrice
}

// SeenStore is the narrow contract the pipeline holds on the persisted
// fingerprint set. Backends live in services/history.
type SeenStore interface {
	Contains(ctx context.Context, fingerprint string) (bool, error)
	Append(ctx context.Context, offer Offer) error
}

// Deduplicator suppresses offers already emitted on any previous run
type Deduplicator struct {
	store SeenStore
}

// NewDeduplicator creates a deduplicator over an opened store handle
func NewDeduplicator(store SeenStore) *Deduplicator {
	return &Deduplicator{store: store}
}

// Admit records an offer's fingerprint and reports whether it is new. The
// record is written before dispatch is attempted: a lost notification is
// preferred over a duplicate one.
func (d *Deduplicator) Admit(ctx context.Context, offer Offer) (bool, error) {
	fp := offer.Fingerprint()

	seen, err := d.store.Contains(ctx, fp)
	if err != nil {
		return false, errors.NewStorage(offer.SKU, "fingerprint lookup failed", err)
	}
	if seen {
		return false, nil
	}

	if err := d.store.Append(ctx, offer); err != nil {
		return false, errors.NewStorage(offer.SKU, "history append failed", err)
	}
	return true, nil
}
