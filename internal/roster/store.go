package roster

import "context"

// Store is the tabular-store boundary the hydrator reads from. Rows come back
// raw (header name to cell value); all interpretation happens in this package
// so storage backends stay dumb.
type Store interface {
	ReadProfiles(ctx context.Context) ([]Row, error)
	ReadConsents(ctx context.Context) ([]Row, error)
}
