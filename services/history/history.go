// Package history persists the set of already-emitted offers across runs.
// The core pipeline treats it only through Contains and Append; the storage
// format is this package's concern.
package history

import (
	"context"

	"sjsage522/gpuwatcher/internal/scraper"
)

// Store is a persisted append-only record of emitted offers plus the
// fingerprint set derived from it. Implementations must be safe for
// concurrent use; writes are single-writer append with per-record flush, so
// a crash mid-write loses at most the in-flight record.
type Store interface {
	// Contains reports whether a fingerprint was recorded on any run
	Contains(ctx context.Context, fingerprint string) (bool, error)

	// Append records an offer and its fingerprint
	Append(ctx context.Context, offer scraper.Offer) error

	// Close flushes and releases the store
	Close() error
}
