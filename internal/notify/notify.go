// Package notify sends outbound review notifications over a webhook. The
// review queue treats sends as fire-and-forget: failures are logged by the
// caller, never propagated as pipeline errors.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Event identifies the kind of notification.
type Event string

const (
	EventReviewRequested Event = "review_requested"
	EventReviewApproved  Event = "review_approved"
)

// Notifier delivers review events to an external destination.
type Notifier interface {
	Send(ctx context.Context, event Event, payload any) error
}

// WebhookNotifier posts events as JSON to a configured webhook URL. Sends
// are rate limited so a burst of enqueues cannot flood the destination.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebhook creates a WebhookNotifier. An empty URL yields a notifier
// whose sends are silent no-ops.
func NewWebhook(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

type envelope struct {
	Event     Event     `json:"event"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

func (n *WebhookNotifier) Send(ctx context.Context, event Event, payload any) error {
	if n.url == "" {
		return nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notify: rate limit wait")
	}

	body, err := json.Marshal(envelope{
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return eris.Wrap(err, "notify: marshal envelope")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "notify: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "notify: send %s", event)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return eris.Errorf("notify: webhook returned %d for %s", resp.StatusCode, event)
	}
	return nil
}
