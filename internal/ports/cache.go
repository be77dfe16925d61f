package ports

import (
	"context"
	"time"
)

// TicketStore holds serialized dispatch batches until reconciliation. Take is a
// read-once: a found entry is removed in the same call.
type TicketStore interface {
	Put(ctx context.Context, key string, value string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, bool, error)
}
