package fraud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres-backed rule store and detection persistence.
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var (
	_ RuleStore           = (*Repository)(nil)
	_ DetectionRepository = (*Repository)(nil)
)

// NewRepository creates a new fraud repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// LoadKeywords reads the full keyword table as an immutable snapshot.
func (r *Repository) LoadKeywords(ctx context.Context) ([]KeywordEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT phrase, category, weight FROM fraud_keywords ORDER BY phrase`)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	defer rows.Close()

	var entries []KeywordEntry
	for rows.Next() {
		var entry KeywordEntry
		if err := rows.Scan(&entry.Phrase, &entry.Category, &entry.Weight); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LoadBrands reads the full brand table as an immutable snapshot.
func (r *Repository) LoadBrands(ctx context.Context) ([]BrandEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, aliases, weight FROM fraud_brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load brands: %w", err)
	}
	defer rows.Close()

	var entries []BrandEntry
	for rows.Next() {
		var entry BrandEntry
		if err := rows.Scan(&entry.Name, &entry.Aliases, &entry.Weight); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveDetection persists a finished detection.
func (r *Repository) SaveDetection(ctx context.Context, detection *Detection) error {
	signalsJSON, err := json.Marshal(detection.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}

	query := `
		INSERT INTO detections (
			id, chat_id, message_text, ocr_text, total_score, classification,
			signals, matched_keywords, matched_brands, alert_emitted,
			alert_reason, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.Exec(ctx, query,
		detection.ID,
		detection.ChatID,
		detection.MessageText,
		detection.OCRText,
		detection.TotalScore,
		detection.Classification,
		signalsJSON,
		detection.MatchedKeywords,
		detection.MatchedBrands,
		detection.AlertEmitted,
		detection.AlertReason,
		detection.DetectedAt,
	)
	return err
}

// GetDetectionsByChat retrieves detections for a chat, newest first.
func (r *Repository) GetDetectionsByChat(ctx context.Context, chatID string, limit, offset int) ([]*Detection, error) {
	query := `
		SELECT id, chat_id, message_text, ocr_text, total_score, classification,
		       signals, matched_keywords, matched_brands, alert_emitted,
		       alert_reason, detected_at
		FROM detections
		WHERE chat_id = $1
		ORDER BY detected_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query detections: %w", err)
	}
	defer rows.Close()

	detections := make([]*Detection, 0)
	for rows.Next() {
		var detection Detection
		var signalsJSON []byte

		err := rows.Scan(
			&detection.ID,
			&detection.ChatID,
			&detection.MessageText,
			&detection.OCRText,
			&detection.TotalScore,
			&detection.Classification,
			&signalsJSON,
			&detection.MatchedKeywords,
			&detection.MatchedBrands,
			&detection.AlertEmitted,
			&detection.AlertReason,
			&detection.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}

		if err := json.Unmarshal(signalsJSON, &detection.Signals); err != nil {
			detection.Signals = nil
		}

		detections = append(detections, &detection)
	}
	return detections, rows.Err()
}

// GetStats aggregates detection and alert counts.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE classification = 'clean') AS clean_count,
			COUNT(*) FILTER (WHERE classification = 'low') AS low_count,
			COUNT(*) FILTER (WHERE classification = 'medium') AS medium_count,
			COUNT(*) FILTER (WHERE classification = 'high') AS high_count,
			COUNT(*) FILTER (WHERE alert_emitted) AS alerts_emitted,
			COUNT(*) FILTER (WHERE NOT alert_emitted AND classification <> 'clean') AS alerts_suppressed
		FROM detections
	`

	var stats Stats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalDetections,
		&stats.CleanCount,
		&stats.LowCount,
		&stats.MediumCount,
		&stats.HighCount,
		&stats.AlertsEmitted,
		&stats.AlertsSuppressed,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}
