package ports

import (
	"context"

	"github.com/biblioteca/maestros-api/internal/core/domain"
)

// EventPublisher delivers committed ledger events to a downstream broker.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.MovementRecorded) error
	Close() error
}

// IdempotencyStore remembers which movement was created for a client
// supplied Idempotency-Key. A key is claimed before the movement is written,
// so concurrent retries cannot both insert.
type IdempotencyStore interface {
	// Claim reserves key. When another request already holds it, claimed is
	// false and movementID is the recorded movement, or empty while that
	// request is still pending.
	Claim(ctx context.Context, key string) (movementID string, claimed bool, err error)
	// Complete records the movement created under a claimed key.
	Complete(ctx context.Context, key, movementID string) error
	// Release drops a claim whose request failed, so the client may retry.
	Release(ctx context.Context, key string) error
}
