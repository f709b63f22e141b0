package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quoteflow/internal/model"
	"github.com/sells-group/quoteflow/internal/notify"
)

// Service wraps the store with the two-state approval workflow and the
// outbound notification hooks.
type Service struct {
	store    Store
	notifier notify.Notifier
}

// NewService creates a review Service.
func NewService(store Store, notifier notify.Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Enqueue creates a pending review item for a quote that needs a human and
// fires a review_requested notification. The notification is best-effort;
// a failed send never fails the enqueue.
func (s *Service) Enqueue(ctx context.Context, quote *model.ValidatedQuote, reasons []string, originalRequest, customerEmail string) (string, error) {
	item := model.ReviewQueueItem{
		QueueID:         uuid.New().String(),
		CreatedAt:       time.Now().UTC(),
		CustomerEmail:   customerEmail,
		OriginalRequest: originalRequest,
		GeneratedQuote:  quote,
		ReviewReasons:   reasons,
		Status:          model.ReviewPending,
	}

	if err := s.store.Insert(ctx, item); err != nil {
		return "", eris.Wrap(err, "review: enqueue")
	}

	if err := s.notifier.Send(ctx, notify.EventReviewRequested, item); err != nil {
		zap.L().Warn("review: review_requested notification failed",
			zap.String("queue_id", item.QueueID),
			zap.Error(err),
		)
	}

	zap.L().Info("review: quote queued for manual review",
		zap.String("queue_id", item.QueueID),
		zap.Strings("reasons", reasons),
	)
	return item.QueueID, nil
}

// Approve moves a pending item to approved and notifies the customer.
// Returns false when the item does not exist or is already terminal; the
// record is left untouched in that case. Notification failure does not
// roll back the approval.
func (s *Service) Approve(ctx context.Context, queueID, reviewer, notes string) (bool, error) {
	ok, err := s.store.Resolve(ctx, queueID, model.ReviewApproved, reviewer, notes, time.Now().UTC())
	if err != nil || !ok {
		return ok, err
	}

	item, err := s.store.Get(ctx, queueID)
	if err != nil {
		zap.L().Warn("review: reload after approve failed",
			zap.String("queue_id", queueID),
			zap.Error(err),
		)
		return true, nil
	}

	if err := s.notifier.Send(ctx, notify.EventReviewApproved, item); err != nil {
		zap.L().Warn("review: review_approved notification failed",
			zap.String("queue_id", queueID),
			zap.Error(err),
		)
	} else if err := s.store.SetCustomerNotified(ctx, queueID, true); err != nil {
		zap.L().Warn("review: mark customer notified failed",
			zap.String("queue_id", queueID),
			zap.Error(err),
		)
	}

	zap.L().Info("review: quote approved",
		zap.String("queue_id", queueID),
		zap.String("reviewer", reviewer),
	)
	return true, nil
}

// Reject moves a pending item to rejected. No customer-facing approval
// notification is sent. Returns false when the item does not exist or is
// already terminal.
func (s *Service) Reject(ctx context.Context, queueID, reviewer, notes string) (bool, error) {
	ok, err := s.store.Resolve(ctx, queueID, model.ReviewRejected, reviewer, notes, time.Now().UTC())
	if err != nil || !ok {
		return ok, err
	}

	zap.L().Info("review: quote rejected",
		zap.String("queue_id", queueID),
		zap.String("reviewer", reviewer),
	)
	return true, nil
}

// ListPending returns items still awaiting a reviewer.
func (s *Service) ListPending(ctx context.Context) ([]model.ReviewQueueItem, error) {
	return s.store.List(ctx, model.ReviewPending)
}

// ListAll returns every queue item regardless of status.
func (s *Service) ListAll(ctx context.Context) ([]model.ReviewQueueItem, error) {
	return s.store.List(ctx, "")
}

// Get returns a single item by queue id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, queueID string) (*model.ReviewQueueItem, error) {
	return s.store.Get(ctx, queueID)
}
