package fraud

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// KeywordCategory groups keywords by the kind of fraud they indicate.
type KeywordCategory string

const (
	CategoryScam           KeywordCategory = "scam"
	CategoryPhishing       KeywordCategory = "phishing"
	CategoryInvestment     KeywordCategory = "investment"
	CategoryCryptocurrency KeywordCategory = "cryptocurrency"
	CategoryRomance        KeywordCategory = "romance"
	CategoryTechSupport    KeywordCategory = "tech_support"
	CategoryLottery        KeywordCategory = "lottery"
	CategoryEmployment     KeywordCategory = "employment"
	CategoryUrgency        KeywordCategory = "urgency"
	CategoryGeneral        KeywordCategory = "general"
)

// KeywordEntry is a single weighted phrase from the keyword store. Entries are
// read-only configuration once the matcher is built.
type KeywordEntry struct {
	Phrase   string          `json:"phrase"`
	Category KeywordCategory `json:"category"`
	Weight   float64         `json:"weight"`
}

type compiledKeyword struct {
	entry KeywordEntry
	re    *regexp.Regexp
}

// KeywordMatcher scores text against a weighted keyword/phrase table.
type KeywordMatcher struct {
	keywords []compiledKeyword
}

// NewKeywordMatcher compiles the keyword table. Entries with an empty phrase,
// a weight outside [0,1], or a duplicate phrase are rejected.
func NewKeywordMatcher(entries []KeywordEntry) (*KeywordMatcher, error) {
	seen := make(map[string]struct{}, len(entries))
	keywords := make([]compiledKeyword, 0, len(entries))

	for _, entry := range entries {
		phrase := strings.ToLower(strings.TrimSpace(entry.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("%w: keyword phrase must not be empty", ErrConfiguration)
		}
		if entry.Weight < 0 || entry.Weight > 1 {
			return nil, fmt.Errorf("%w: keyword %q weight %v outside [0,1]", ErrConfiguration, entry.Phrase, entry.Weight)
		}
		if _, dup := seen[phrase]; dup {
			return nil, fmt.Errorf("%w: duplicate keyword %q", ErrConfiguration, phrase)
		}
		seen[phrase] = struct{}{}

		entry.Phrase = phrase
		keywords = append(keywords, compiledKeyword{
			entry: entry,
			re:    compilePhrase(phrase),
		})
	}

	return &KeywordMatcher{keywords: keywords}, nil
}

// compilePhrase builds a case-insensitive whole-phrase pattern. Word
// boundaries keep "art" from matching inside "party"; interior whitespace
// matches any run of whitespace.
func compilePhrase(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b` + strings.Join(words, `\s+`) + `\b`)
}

type keywordSpan struct {
	start, end int
	keyword    compiledKeyword
}

// Match returns one Signal per matched phrase. Overlapping matches are
// deduplicated, keeping the longest (then highest-weight) match per span.
// No match yields an empty slice, never an error.
func (m *KeywordMatcher) Match(text string) []Signal {
	folded := strings.ToLower(text)
	if strings.TrimSpace(folded) == "" {
		return nil
	}

	var spans []keywordSpan
	for _, kw := range m.keywords {
		for _, loc := range kw.re.FindAllStringIndex(folded, -1) {
			spans = append(spans, keywordSpan{start: loc[0], end: loc[1], keyword: kw})
		}
	}
	if len(spans) == 0 {
		return nil
	}

	// Longest span wins a tie on containment; weight breaks exact-length ties.
	sort.Slice(spans, func(i, j int) bool {
		li, lj := spans[i].end-spans[i].start, spans[j].end-spans[j].start
		if li != lj {
			return li > lj
		}
		if spans[i].keyword.entry.Weight != spans[j].keyword.entry.Weight {
			return spans[i].keyword.entry.Weight > spans[j].keyword.entry.Weight
		}
		return spans[i].start < spans[j].start
	})

	var kept []keywordSpan
	for _, span := range spans {
		contained := false
		for _, k := range kept {
			if span.start >= k.start && span.end <= k.end {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, span)
		}
	}

	// One signal per distinct phrase, ordered by first occurrence.
	sort.Slice(kept, func(i, j int) bool { return kept[i].start < kept[j].start })

	signals := make([]Signal, 0, len(kept))
	emitted := make(map[string]struct{}, len(kept))
	for _, span := range kept {
		phrase := span.keyword.entry.Phrase
		if _, done := emitted[phrase]; done {
			continue
		}
		emitted[phrase] = struct{}{}
		signals = append(signals, Signal{
			Kind:     SignalKeyword,
			Weight:   span.keyword.entry.Weight,
			Label:    phrase,
			Evidence: folded[span.start:span.end],
		})
	}
	return signals
}
