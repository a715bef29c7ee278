package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chatguard/fraud-monitor/pkg/resilience"
)

// Severity grades an emitted alert for the notification transport.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityForScore maps a total score onto an alert severity.
func SeverityForScore(score float64) Severity {
	switch {
	case score >= 0.9:
		return SeverityCritical
	case score >= 0.8:
		return SeverityHigh
	case score >= 0.6:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// maxNotifiedTextLen bounds the message excerpt carried in a notification.
const maxNotifiedTextLen = 500

// Notification is the payload handed to the notification collaborator for an
// emitted alert. The core has no knowledge of the transport behind it.
type Notification struct {
	DetectionID     string    `json:"detection_id"`
	ChatID          string    `json:"chat_id"`
	MessageExcerpt  string    `json:"message_excerpt"`
	TotalScore      float64   `json:"total_score"`
	Classification  string    `json:"classification"`
	Severity        Severity  `json:"severity"`
	MatchedKeywords []string  `json:"matched_keywords,omitempty"`
	MatchedBrands   []string  `json:"matched_brands,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
}

// Excerpt truncates text for inclusion in a notification.
func Excerpt(text string) string {
	if len(text) <= maxNotifiedTextLen {
		return text
	}
	return text[:maxNotifiedTextLen] + "..."
}

// Notifier dispatches emitted alerts.
type Notifier interface {
	Notify(ctx context.Context, notification *Notification) error
}

// WebhookNotifier posts notifications as JSON to a configured endpoint,
// guarded by a circuit breaker so a dead endpoint cannot stall scoring.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

// Ensure the webhook notifier satisfies the collaborator contract.
var _ Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a webhook notifier for the given URL.
func NewWebhookNotifier(url string, breaker *resilience.CircuitBreaker) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: breaker,
	}
}

// Notify posts the notification. A non-2xx response counts as a failure.
func (w *WebhookNotifier) Notify(ctx context.Context, notification *Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	send := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	}

	if w.breaker != nil {
		return w.breaker.Execute(ctx, send)
	}
	return send()
}
