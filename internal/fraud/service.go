package fraud

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatguard/fraud-monitor/internal/alerts"
	"github.com/chatguard/fraud-monitor/pkg/eventbus"
	"github.com/chatguard/fraud-monitor/pkg/logger"
)

// AnalyzeRequest is one inbound message to score.
type AnalyzeRequest struct {
	ChatID      string `json:"chat_id" binding:"required" validate:"required"`
	MessageText string `json:"message_text"`
	// OCRText is text extracted from an attached image by the OCR
	// collaborator, scored alongside the message at a reduced weight.
	OCRText string `json:"ocr_text"`
}

// AnalyzeResponse carries the score and the gatekeeper's verdict back to the
// caller.
type AnalyzeResponse struct {
	DetectionID uuid.UUID       `json:"detection_id"`
	Result      ScoreResult     `json:"result"`
	Alert       alerts.Decision `json:"alert"`
	Severity    alerts.Severity `json:"severity,omitempty"`
}

// Service orchestrates scoring, gating, persistence, and notification.
type Service struct {
	engine   *Engine
	gate     AlertGate
	repo     DetectionRepository
	rules    RuleSnapshot
	cache    ScoreCache
	cacheTTL time.Duration
	notifier alerts.Notifier
	bus      EventPublisher
	now      func() time.Time
}

// NewService creates the fraud service. Cache, notifier, and event bus are
// optional collaborators wired with the Set* methods.
func NewService(engine *Engine, gate AlertGate, repo DetectionRepository, rules RuleSnapshot) *Service {
	return &Service{
		engine: engine,
		gate:   gate,
		repo:   repo,
		rules:  rules,
		now:    time.Now,
	}
}

// SetScoreCache wires the optional score cache.
func (s *Service) SetScoreCache(cache ScoreCache, ttl time.Duration) {
	s.cache = cache
	s.cacheTTL = ttl
}

// SetNotifier wires the notification collaborator.
func (s *Service) SetNotifier(notifier alerts.Notifier) {
	s.notifier = notifier
}

// SetEventBus wires the event publisher.
func (s *Service) SetEventBus(bus EventPublisher) {
	s.bus = bus
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// AnalyzeMessage scores a message, runs the alert gate, persists the
// detection, and dispatches a notification when an alert is emitted. Scoring
// never fails; only downstream collaborator errors are logged and tolerated.
func (s *Service) AnalyzeMessage(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	result := s.score(ctx, req.MessageText, req.OCRText)
	now := s.now()

	clean := result.Classification == ClassificationClean
	decision := s.gate.Evaluate(req.ChatID, result.TotalScore, clean, now)

	messagesScoredTotal.WithLabelValues(string(result.Classification)).Inc()
	if decision.Emit {
		alertsEmittedTotal.Inc()
	} else if !clean {
		alertsSuppressedTotal.WithLabelValues(reasonLabel(decision.Reason)).Inc()
	}

	detection := &Detection{
		ID:              uuid.New(),
		ChatID:          req.ChatID,
		MessageText:     req.MessageText,
		OCRText:         req.OCRText,
		TotalScore:      result.TotalScore,
		Classification:  result.Classification,
		Signals:         result.Signals,
		MatchedKeywords: result.MatchedKeywords,
		MatchedBrands:   result.MatchedBrands,
		AlertEmitted:    decision.Emit,
		AlertReason:     decision.Reason,
		DetectedAt:      now,
	}

	// Persistence is downstream of the decision; a storage hiccup must not
	// swallow an alert.
	if err := s.repo.SaveDetection(ctx, detection); err != nil {
		logger.WithContext(ctx).Error("failed to persist detection",
			zap.String("chat_id", req.ChatID),
			zap.Error(err))
	}

	if !clean {
		s.publish(ctx, eventbus.SubjectMessageScored, eventbus.MessageScoredData{
			DetectionID:     detection.ID.String(),
			ChatID:          detection.ChatID,
			TotalScore:      detection.TotalScore,
			Classification:  string(detection.Classification),
			MatchedKeywords: detection.MatchedKeywords,
			MatchedBrands:   detection.MatchedBrands,
		})
	}

	response := &AnalyzeResponse{
		DetectionID: detection.ID,
		Result:      result,
		Alert:       decision,
	}

	if decision.Emit {
		severity := alerts.SeverityForScore(result.TotalScore)
		response.Severity = severity
		s.dispatchAlert(ctx, detection, severity)
	}

	return response, nil
}

// GetDetections returns persisted detections for a chat.
func (s *Service) GetDetections(ctx context.Context, chatID string, limit, offset int) ([]*Detection, error) {
	return s.repo.GetDetectionsByChat(ctx, chatID, limit, offset)
}

// GetStats returns detection and alerting statistics.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repo.GetStats(ctx)
}

// Rules returns the rule snapshot the engine was built from.
func (s *Service) Rules() RuleSnapshot {
	return s.rules
}

// score runs the engine, consulting the cache first so identical spam texts
// blasted across many chats are scored once. Cache failures fall back to a
// fresh computation.
func (s *Service) score(ctx context.Context, text, ocrText string) ScoreResult {
	if s.cache == nil {
		return s.engine.Score(text, ocrText)
	}

	key := scoreCacheKey(text, ocrText)
	if cached, err := s.cache.GetString(ctx, key); err == nil {
		var result ScoreResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return result
		}
	}

	result := s.engine.Score(text, ocrText)
	if payload, err := json.Marshal(result); err == nil {
		if err := s.cache.SetWithExpiration(ctx, key, payload, s.cacheTTL); err != nil {
			logger.WithContext(ctx).Debug("score cache write failed", zap.Error(err))
		}
	}
	return result
}

func scoreCacheKey(text, ocrText string) string {
	digest := sha256.Sum256([]byte(text + "\x00" + ocrText))
	return fmt.Sprintf("fraud:score:%x", digest)
}

func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, subject, data); err != nil {
		logger.WithContext(ctx).Warn("failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

func (s *Service) dispatchAlert(ctx context.Context, detection *Detection, severity alerts.Severity) {
	s.publish(ctx, eventbus.SubjectAlertEmitted, eventbus.AlertEmittedData{
		DetectionID:    detection.ID.String(),
		ChatID:         detection.ChatID,
		TotalScore:     detection.TotalScore,
		Classification: string(detection.Classification),
		Severity:       string(severity),
	})

	if s.notifier == nil {
		return
	}

	notification := &alerts.Notification{
		DetectionID:     detection.ID.String(),
		ChatID:          detection.ChatID,
		MessageExcerpt:  alerts.Excerpt(detection.MessageText),
		TotalScore:      detection.TotalScore,
		Classification:  string(detection.Classification),
		Severity:        severity,
		MatchedKeywords: detection.MatchedKeywords,
		MatchedBrands:   detection.MatchedBrands,
		DetectedAt:      detection.DetectedAt,
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		logger.WithContext(ctx).Error("failed to dispatch alert notification",
			zap.String("chat_id", detection.ChatID),
			zap.Error(err))
	}
}
