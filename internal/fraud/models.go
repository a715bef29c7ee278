package fraud

import (
	"time"

	"github.com/google/uuid"
)

// Detection is one scored message together with the gatekeeper's verdict,
// handed to the persistence collaborator. Persisted history is never read
// back for scoring.
type Detection struct {
	ID              uuid.UUID      `json:"id"`
	ChatID          string         `json:"chat_id"`
	MessageText     string         `json:"message_text"`
	OCRText         string         `json:"ocr_text,omitempty"`
	TotalScore      float64        `json:"total_score"`
	Classification  Classification `json:"classification"`
	Signals         []Signal       `json:"signals"`
	MatchedKeywords []string       `json:"matched_keywords"`
	MatchedBrands   []string       `json:"matched_brands"`
	AlertEmitted    bool           `json:"alert_emitted"`
	AlertReason     string         `json:"alert_reason"`
	DetectedAt      time.Time      `json:"detected_at"`
}

// Stats summarizes detection and alerting activity.
type Stats struct {
	TotalDetections  int64 `json:"total_detections"`
	CleanCount       int64 `json:"clean_count"`
	LowCount         int64 `json:"low_count"`
	MediumCount      int64 `json:"medium_count"`
	HighCount        int64 `json:"high_count"`
	AlertsEmitted    int64 `json:"alerts_emitted"`
	AlertsSuppressed int64 `json:"alerts_suppressed"`
}
