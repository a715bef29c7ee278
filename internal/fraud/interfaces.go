package fraud

import (
	"context"
	"time"

	"github.com/chatguard/fraud-monitor/internal/alerts"
)

// RuleStore provides the read-only keyword/brand snapshot the engine is built
// from. Editing the store is external management tooling; the core never
// writes back.
type RuleStore interface {
	LoadKeywords(ctx context.Context) ([]KeywordEntry, error)
	LoadBrands(ctx context.Context) ([]BrandEntry, error)
}

// DetectionRepository persists finished detections and serves read queries.
type DetectionRepository interface {
	SaveDetection(ctx context.Context, detection *Detection) error
	GetDetectionsByChat(ctx context.Context, chatID string, limit, offset int) ([]*Detection, error)
	GetStats(ctx context.Context) (*Stats, error)
}

// AlertGate decides whether a scored message becomes an alert.
type AlertGate interface {
	Evaluate(chatID string, score float64, clean bool, now time.Time) alerts.Decision
}

// ScoreCache caches score results keyed by a digest of the input text, so
// identical spam blasted across many chats is scored once.
type ScoreCache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// EventPublisher publishes detection lifecycle events for downstream
// consumers.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}
