package fraud

import (
	"fmt"
	"regexp"
	"strings"
)

// Context pattern sets. Each slice feeds one sub-detector; the sub-detectors
// run independently and never short-circuit each other.
var (
	urgencyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(act now|right now|immediately|urgent|asap|hurry)\b`),
		regexp.MustCompile(`\b(limited time|expires?|deadline|last chance|final (warning|notice)|ending soon)\b`),
		regexp.MustCompile(`\b(account will be (closed|suspended|terminated|deleted))\b`),
	}

	financialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(send (me )?money|wire transfer|western union|moneygram|bank transfer|gift ?cards?)\b`),
		regexp.MustCompile(`\b(bitcoin|btc|ethereum|usdt|crypto(currency)?|wallet address)\b`),
		regexp.MustCompile(`\b(paypal me|venmo|cash ?app|zelle|payment method)\b`),
		// BTC (legacy + bech32) and ETH address shapes.
		regexp.MustCompile(`\b(bc1[a-z0-9]{25,39}|[13][a-km-zA-HJ-NP-Z1-9]{25,34})\b`),
		regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`),
	}

	contactPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d[\d ().-]{7,}\d`),
		regexp.MustCompile(`\b(whatsapp|telegram|signal|viber|discord|wechat)\b`),
		regexp.MustCompile(`\b(dm me|pm me|text me|call me|message me( privately)?|contact me|write me)\b`),
	}
)

// ContextWeights are the per-category weights for context signals.
type ContextWeights struct {
	Urgency   float64
	Financial float64
	Contact   float64
}

// DefaultContextWeights returns the stock context signal weights.
func DefaultContextWeights() ContextWeights {
	return ContextWeights{
		Urgency:   0.2,
		Financial: 0.25,
		Contact:   0.25,
	}
}

// ContextAnalyzer detects urgency language, financial-request patterns, and
// contact-redirection patterns (moving victims off-platform).
type ContextAnalyzer struct {
	weights ContextWeights
}

// NewContextAnalyzer validates the weights and builds an analyzer.
func NewContextAnalyzer(weights ContextWeights) (*ContextAnalyzer, error) {
	for name, w := range map[string]float64{
		"urgency":   weights.Urgency,
		"financial": weights.Financial,
		"contact":   weights.Contact,
	} {
		if w < 0 || w > 1 {
			return nil, fmt.Errorf("%w: context weight %s=%v outside [0,1]", ErrConfiguration, name, w)
		}
	}
	return &ContextAnalyzer{weights: weights}, nil
}

// Analyze emits at most one Signal per category per message.
func (a *ContextAnalyzer) Analyze(text string) []Signal {
	folded := strings.ToLower(text)
	if strings.TrimSpace(folded) == "" {
		return nil
	}

	var signals []Signal
	if evidence := firstMatch(folded, urgencyPatterns); evidence != "" {
		signals = append(signals, Signal{
			Kind:     SignalContext,
			Weight:   a.weights.Urgency,
			Label:    "urgency",
			Evidence: evidence,
		})
	}
	if evidence := firstMatch(folded, financialPatterns); evidence != "" {
		signals = append(signals, Signal{
			Kind:     SignalContext,
			Weight:   a.weights.Financial,
			Label:    "financial_request",
			Evidence: evidence,
		})
	}
	if evidence := firstMatch(folded, contactPatterns); evidence != "" {
		signals = append(signals, Signal{
			Kind:     SignalContext,
			Weight:   a.weights.Contact,
			Label:    "contact_redirection",
			Evidence: evidence,
		})
	}
	return signals
}

func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		if match := p.FindString(text); match != "" {
			return match
		}
	}
	return ""
}
