package fraud

import "fmt"

// Thresholds are the classification boundaries. A score below Low is clean,
// [Low,Medium) is low, [Medium,High) is medium, and >= High is high.
type Thresholds struct {
	Low    float64
	Medium float64
	High   float64
}

// DefaultThresholds returns the stock classification boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.3, Medium: 0.6, High: 0.8}
}

// Validate rejects unordered or out-of-range boundaries.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{"low": t.Low, "medium": t.Medium, "high": t.High} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: threshold %s=%v outside [0,1]", ErrConfiguration, name, v)
		}
	}
	if !(t.Low < t.Medium && t.Medium < t.High) {
		return fmt.Errorf("%w: thresholds must be strictly increasing (low=%v medium=%v high=%v)",
			ErrConfiguration, t.Low, t.Medium, t.High)
	}
	return nil
}

// Aggregator combines detector signals into one bounded score.
type Aggregator struct {
	thresholds Thresholds
}

// NewAggregator validates the thresholds and builds an aggregator.
func NewAggregator(thresholds Thresholds) (*Aggregator, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{thresholds: thresholds}, nil
}

// Aggregate merges message signals and OCR signals into a ScoreResult using
// an additive saturating model: independent indicators compound but the total
// never exceeds 1.0. Signals are retained in the order produced, OCR last.
// No signals yields the zero result, never an error.
func (a *Aggregator) Aggregate(signals []Signal, ocrSignals []Signal) ScoreResult {
	all := make([]Signal, 0, len(signals)+len(ocrSignals))
	all = append(all, signals...)
	all = append(all, ocrSignals...)

	var total float64
	keywords := make([]string, 0)
	brands := make([]string, 0)
	for _, signal := range all {
		total += signal.Weight
		switch signal.Kind {
		case SignalKeyword:
			keywords = appendUnique(keywords, signal.Label)
		case SignalBrand:
			brands = appendUnique(brands, signal.Label)
		}
	}
	total = min(total, 1.0)

	return ScoreResult{
		TotalScore:      total,
		Classification:  a.Classify(total),
		Signals:         all,
		MatchedKeywords: keywords,
		MatchedBrands:   brands,
	}
}

// Classify maps a score onto its classification bucket. Boundaries are exact:
// a score equal to a threshold belongs to the higher bucket.
func (a *Aggregator) Classify(score float64) Classification {
	switch {
	case score >= a.thresholds.High:
		return ClassificationHigh
	case score >= a.thresholds.Medium:
		return ClassificationMedium
	case score >= a.thresholds.Low:
		return ClassificationLow
	default:
		return ClassificationClean
	}
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
