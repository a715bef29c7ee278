package fraud

// SignalKind identifies which detector produced a signal.
type SignalKind string

const (
	SignalKeyword SignalKind = "keyword"
	SignalBrand   SignalKind = "brand"
	SignalContext SignalKind = "context"
	SignalOCR     SignalKind = "ocr"
)

// Signal is one independent piece of evidence contributing to a fraud score.
// Signals are immutable once produced.
type Signal struct {
	Kind     SignalKind `json:"kind"`
	Weight   float64    `json:"weight"`
	Label    string     `json:"label"`
	Evidence string     `json:"evidence"`
}

// Classification buckets a total score into a human-readable risk level.
type Classification string

const (
	ClassificationClean  Classification = "clean"
	ClassificationLow    Classification = "low"
	ClassificationMedium Classification = "medium"
	ClassificationHigh   Classification = "high"
)

// ScoreResult is the aggregated, explainable outcome of scoring one message.
// It is created once per message and read-only afterward; the total score is
// always the saturating sum of the retained signals.
type ScoreResult struct {
	TotalScore      float64        `json:"total_score"`
	Classification  Classification `json:"classification"`
	Signals         []Signal       `json:"signals"`
	MatchedKeywords []string       `json:"matched_keywords"`
	MatchedBrands   []string       `json:"matched_brands"`
}
