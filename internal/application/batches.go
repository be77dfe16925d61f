package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/birthday-reminder/internal/domain"
)

func newDispatchBatchID() string {
	return uuid.NewString()
}

// batchTracker holds the tagged lifecycle of every batch dispatched by this
// process. Terminal entries are dropped once older than retention.
type batchTracker struct {
	mu        sync.Mutex
	retention time.Duration
	items     map[string]domain.BatchStatus
}

func newBatchTracker(retention time.Duration) *batchTracker {
	return &batchTracker{retention: retention, items: map[string]domain.BatchStatus{}}
}

func (t *batchTracker) pending(batchID string, ticketCount int, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked(now)
	t.items[batchID] = domain.BatchStatus{
		BatchID:     batchID,
		State:       domain.BatchStatePending,
		TicketCount: ticketCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// settle moves a pending batch to a terminal state. Unknown or already
// terminal batches are left alone and reported as not transitioned.
func (t *batchTracker) settle(batchID string, state domain.BatchState, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[batchID]
	if !ok || item.State.Terminal() {
		return false
	}
	item.State = state
	item.UpdatedAt = now
	t.items[batchID] = item
	return true
}

func (t *batchTracker) get(batchID string) (domain.BatchStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[batchID]
	return item, ok
}

func (t *batchTracker) pruneLocked(now time.Time) {
	for id, item := range t.items {
		if item.State.Terminal() && now.Sub(item.UpdatedAt) > t.retention {
			delete(t.items, id)
		}
	}
}
