// Package idempotency provides a durable seen-keys set with TTL eviction.
// The gate consults it before each publish evaluation so a retried workflow
// does not double-post, and marks the key after the effectful step.
package idempotency

import "context"

// SeenStore is queried before and updated after any effectful operation.
// Implementations must treat their own failures as soft: a missed dedupe is
// acceptable, a false block is not.
type SeenStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}
