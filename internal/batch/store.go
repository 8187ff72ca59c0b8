package batch

import (
	"context"

	"github.com/google/uuid"
)

// Store persists BatchScan records. Get misses return an error wrapping
// sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, scan *BatchScan) error
	Get(ctx context.Context, id uuid.UUID) (*BatchScan, error)
	Update(ctx context.Context, scan *BatchScan) error
	List(ctx context.Context) ([]*BatchScan, error)
}
