package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T) *ContextAnalyzer {
	t.Helper()
	analyzer, err := NewContextAnalyzer(DefaultContextWeights())
	require.NoError(t, err)
	return analyzer
}

func TestContextAnalyzerUrgency(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	signals := analyzer.Analyze("act now before it is too late")
	require.Len(t, signals, 1)
	assert.Equal(t, SignalContext, signals[0].Kind)
	assert.Equal(t, "urgency", signals[0].Label)
	assert.Equal(t, 0.2, signals[0].Weight)
}

func TestContextAnalyzerFinancialRequest(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	tests := []struct {
		name string
		text string
	}{
		{"wire transfer", "please complete the wire transfer today"},
		{"crypto mention", "pay me in bitcoin"},
		{"btc address", "send it to bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"},
		{"eth address", "my wallet is 0x52908400098527886E0F7030069857D2E4169EE7"},
		{"gift cards", "buy gift cards and share the codes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := analyzer.Analyze(tt.text)
			require.Len(t, signals, 1)
			assert.Equal(t, "financial_request", signals[0].Label)
			assert.Equal(t, 0.25, signals[0].Weight)
		})
	}
}

func TestContextAnalyzerContactRedirection(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	tests := []struct {
		name string
		text string
	}{
		{"phone number", "call +1 (555) 123-4567 for details"},
		{"messenger", "add me on whatsapp"},
		{"direct message", "dm me for the full offer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := analyzer.Analyze(tt.text)
			require.Len(t, signals, 1)
			assert.Equal(t, "contact_redirection", signals[0].Label)
		})
	}
}

func TestContextAnalyzerOneSignalPerCategory(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	// Two urgency cues collapse into one urgency signal.
	signals := analyzer.Analyze("act now, this is your last chance")
	require.Len(t, signals, 1)
	assert.Equal(t, "urgency", signals[0].Label)
}

func TestContextAnalyzerAllCategories(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	signals := analyzer.Analyze("act now, send money via western union, dm me on telegram")
	require.Len(t, signals, 3)

	labels := make([]string, 0, len(signals))
	for _, s := range signals {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"urgency", "financial_request", "contact_redirection"}, labels)
}

func TestContextAnalyzerEmptyText(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	assert.Empty(t, analyzer.Analyze(""))
	assert.Empty(t, analyzer.Analyze("see you at lunch"))
}

func TestNewContextAnalyzerRejectsBadWeights(t *testing.T) {
	_, err := NewContextAnalyzer(ContextWeights{Urgency: 1.2, Financial: 0.25, Contact: 0.25})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewContextAnalyzer(ContextWeights{Urgency: 0.2, Financial: -0.1, Contact: 0.25})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}
