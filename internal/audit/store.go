package audit

import (
	"context"
	"time"
)

// Store persists audit entries. Appends from concurrent units may interleave;
// ordering is best-effort, which is acceptable because every row is
// self-contained and timestamped.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Count(ctx context.Context) (int, error)
	// DeleteOldest removes the n oldest rows. Used by retention only.
	DeleteOldest(ctx context.Context, n int) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	ListSince(ctx context.Context, since time.Time) ([]Entry, error)
}
