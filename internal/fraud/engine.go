package fraud

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration marks invalid engine configuration: weights or thresholds
// outside [0,1], malformed keyword/brand entries. It is fatal at construction
// and never silently clamped.
var ErrConfiguration = errors.New("invalid fraud engine configuration")

// RuleSnapshot is the immutable keyword/brand configuration the engine is
// built from. Reload is handled by reconstructing the engine with a fresh
// snapshot; the engine never writes back to the store.
type RuleSnapshot struct {
	Keywords []KeywordEntry
	Brands   []BrandEntry
}

// EngineConfig tunes scoring behavior.
type EngineConfig struct {
	Thresholds     Thresholds
	ContextWeights ContextWeights
	// OCRWeightFactor scales signals derived from OCR-extracted text, which
	// is noisier than message text. Must be within [0,1].
	OCRWeightFactor float64
}

// DefaultEngineConfig returns the stock engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Thresholds:      DefaultThresholds(),
		ContextWeights:  DefaultContextWeights(),
		OCRWeightFactor: 0.5,
	}
}

// Engine converts raw text into a bounded, explainable fraud score. Scoring
// is pure and side-effect-free; one engine may be shared by any number of
// goroutines.
type Engine struct {
	keywords   *KeywordMatcher
	brands     *BrandRecognizer
	contexts   *ContextAnalyzer
	aggregator *Aggregator
	ocrFactor  float64
}

// NewEngine validates the snapshot and configuration and builds an engine.
func NewEngine(snapshot RuleSnapshot, cfg EngineConfig) (*Engine, error) {
	if cfg.OCRWeightFactor < 0 || cfg.OCRWeightFactor > 1 {
		return nil, fmt.Errorf("%w: ocr weight factor %v outside [0,1]", ErrConfiguration, cfg.OCRWeightFactor)
	}

	keywords, err := NewKeywordMatcher(snapshot.Keywords)
	if err != nil {
		return nil, err
	}
	brands, err := NewBrandRecognizer(snapshot.Brands)
	if err != nil {
		return nil, err
	}
	contexts, err := NewContextAnalyzer(cfg.ContextWeights)
	if err != nil {
		return nil, err
	}
	aggregator, err := NewAggregator(cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	return &Engine{
		keywords:   keywords,
		brands:     brands,
		contexts:   contexts,
		aggregator: aggregator,
		ocrFactor:  cfg.OCRWeightFactor,
	}, nil
}

// Score runs all detectors over the message text and, if present, the
// OCR-extracted text. Empty or whitespace-only input scores clean with no
// signals. Scoring the same input always yields the same result.
func (e *Engine) Score(text, ocrText string) ScoreResult {
	signals := e.detect(text)

	var ocrSignals []Signal
	if strings.TrimSpace(ocrText) != "" {
		for _, signal := range e.detect(ocrText) {
			signal.Kind = SignalOCR
			signal.Weight *= e.ocrFactor
			ocrSignals = append(ocrSignals, signal)
		}
	}

	return e.aggregator.Aggregate(signals, ocrSignals)
}

// Classify exposes the aggregator's classification buckets.
func (e *Engine) Classify(score float64) Classification {
	return e.aggregator.Classify(score)
}

// detect runs the three detectors in their fixed order: keyword, brand,
// context.
func (e *Engine) detect(text string) []Signal {
	var signals []Signal
	signals = append(signals, e.keywords.Match(text)...)
	signals = append(signals, e.brands.Detect(text)...)
	signals = append(signals, e.contexts.Analyze(text)...)
	return signals
}
