// Package review holds the durable queue of quotes awaiting human
// approval. The queue is the only shared mutable state in the pipeline;
// terminal transitions are enforced with atomic per-record updates so
// concurrent approvals cannot race.
package review

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quoteflow/internal/model"
)

// ErrNotFound is returned when a queue id does not exist.
var ErrNotFound = eris.New("review: item not found")

// Store defines the persistence interface for the review queue. Records
// survive process restarts; items are never deleted by this subsystem.
type Store interface {
	Insert(ctx context.Context, item model.ReviewQueueItem) error
	Get(ctx context.Context, queueID string) (*model.ReviewQueueItem, error)
	// List returns items filtered by status; an empty status lists all.
	List(ctx context.Context, status model.ReviewStatus) ([]model.ReviewQueueItem, error)
	// Resolve atomically moves an item from pending to the given terminal
	// status. It returns false without error when the item does not exist
	// or has already left pending; no field changes in that case.
	Resolve(ctx context.Context, queueID string, status model.ReviewStatus, reviewer, notes string, reviewedAt time.Time) (bool, error)
	// SetCustomerNotified records that the customer was told about a
	// resolution. Allowed on terminal items.
	SetCustomerNotified(ctx context.Context, queueID string, notified bool) error

	Migrate(ctx context.Context) error
	Close() error
}
