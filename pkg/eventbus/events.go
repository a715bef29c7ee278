package eventbus

// Subjects published by the monitor service.
const (
	SubjectMessageScored = "fraud.message.scored"
	SubjectAlertEmitted  = "fraud.alert.emitted"
)

// MessageScoredData is published for every scored non-clean message.
type MessageScoredData struct {
	DetectionID     string   `json:"detection_id"`
	ChatID          string   `json:"chat_id"`
	TotalScore      float64  `json:"total_score"`
	Classification  string   `json:"classification"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	MatchedBrands   []string `json:"matched_brands,omitempty"`
}

// AlertEmittedData is published when the gatekeeper lets an alert through.
type AlertEmittedData struct {
	DetectionID    string  `json:"detection_id"`
	ChatID         string  `json:"chat_id"`
	TotalScore     float64 `json:"total_score"`
	Classification string  `json:"classification"`
	Severity       string  `json:"severity"`
}
