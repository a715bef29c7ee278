package fraud

import (
	"fmt"
	"regexp"
	"strings"
)

// impersonationBoost is applied once per brand per message when the brand
// mention co-occurs with urgency or account-verification language.
const impersonationBoost = 1.5

// verificationContext marks language that turns a brand mention into a likely
// impersonation attempt ("Your PayPal account will be suspended, verify now")
// rather than an ordinary mention ("I bought this on Amazon").
var verificationContext = regexp.MustCompile(
	`\b(verify|verification|suspended|suspend|locked|confirm your|account will be|` +
		`unauthorized|security alert|unusual activity|re-?activate|log ?in now|act now|urgent)\b`)

// BrandEntry is a known brand with its alias spellings, loaded from the brand
// store at engine construction.
type BrandEntry struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
	Weight  float64  `json:"weight"`
}

type compiledBrand struct {
	entry    BrandEntry
	patterns []*regexp.Regexp
}

// BrandRecognizer detects impersonation of known brand names.
type BrandRecognizer struct {
	brands []compiledBrand
}

// NewBrandRecognizer compiles the brand table. Entries with an empty name or
// a weight outside [0,1] are rejected.
func NewBrandRecognizer(entries []BrandEntry) (*BrandRecognizer, error) {
	seen := make(map[string]struct{}, len(entries))
	brands := make([]compiledBrand, 0, len(entries))

	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: brand name must not be empty", ErrConfiguration)
		}
		if entry.Weight < 0 || entry.Weight > 1 {
			return nil, fmt.Errorf("%w: brand %q weight %v outside [0,1]", ErrConfiguration, entry.Name, entry.Weight)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate brand %q", ErrConfiguration, name)
		}
		seen[key] = struct{}{}

		patterns := make([]*regexp.Regexp, 0, len(entry.Aliases)+1)
		patterns = append(patterns, compilePhrase(key))
		for _, alias := range entry.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" {
				return nil, fmt.Errorf("%w: brand %q has an empty alias", ErrConfiguration, entry.Name)
			}
			patterns = append(patterns, compilePhrase(alias))
		}

		entry.Name = name
		brands = append(brands, compiledBrand{entry: entry, patterns: patterns})
	}

	return &BrandRecognizer{brands: brands}, nil
}

// Detect returns at most one Signal per brand per message. The signal weight
// is upgraded by a fixed factor (capped at 1.0) when the mention co-occurs
// with verification or urgency language; repeated mentions never compound.
func (r *BrandRecognizer) Detect(text string) []Signal {
	folded := strings.ToLower(text)
	if strings.TrimSpace(folded) == "" {
		return nil
	}

	boosted := verificationContext.MatchString(folded)

	var signals []Signal
	for _, brand := range r.brands {
		var evidence string
		for _, pattern := range brand.patterns {
			if match := pattern.FindString(folded); match != "" {
				evidence = match
				break
			}
		}
		if evidence == "" {
			continue
		}

		weight := brand.entry.Weight
		if boosted {
			weight = min(1.0, weight*impersonationBoost)
		}

		signals = append(signals, Signal{
			Kind:     SignalBrand,
			Weight:   weight,
			Label:    brand.entry.Name,
			Evidence: evidence,
		})
	}
	return signals
}
