package model

import "time"

// ReviewStatus is the state of a review queue item. pending is the only
// non-terminal state.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewQueueItem is one quote awaiting human approval. Once status leaves
// pending the record is terminal: only Notes and CustomerNotified may still
// change, and ReviewedBy/ReviewedAt are immutable once set.
type ReviewQueueItem struct {
	QueueID          string          `json:"queue_id"`
	CreatedAt        time.Time       `json:"created_at"`
	CustomerEmail    string          `json:"customer_email"`
	OriginalRequest  string          `json:"original_request"`
	GeneratedQuote   *ValidatedQuote `json:"generated_quote,omitempty"`
	ReviewReasons    []string        `json:"review_reasons"`
	Status           ReviewStatus    `json:"status"`
	ReviewedBy       string          `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CustomerNotified bool            `json:"customer_notified"`
}
