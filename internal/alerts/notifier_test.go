package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatguard/fraud-monitor/pkg/resilience"
)

func TestSeverityForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Severity
	}{
		{0.95, SeverityCritical},
		{0.9, SeverityCritical},
		{0.85, SeverityHigh},
		{0.8, SeverityHigh},
		{0.7, SeverityMedium},
		{0.6, SeverityMedium},
		{0.5, SeverityLow},
		{0.0, SeverityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityForScore(tt.score), "score %v", tt.score)
	}
}

func TestExcerpt(t *testing.T) {
	short := "a short message"
	assert.Equal(t, short, Excerpt(short))

	long := strings.Repeat("x", maxNotifiedTextLen+100)
	got := Excerpt(long)
	assert.Len(t, got, maxNotifiedTextLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestWebhookNotifierPostsNotification(t *testing.T) {
	var received Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, nil)
	notification := &Notification{
		DetectionID:     "det-1",
		ChatID:          "chat-1",
		MessageExcerpt:  "guaranteed profit",
		TotalScore:      0.85,
		Classification:  "high",
		Severity:        SeverityHigh,
		MatchedKeywords: []string{"guaranteed profit"},
		DetectedAt:      time.Now().UTC(),
	}

	err := notifier.Notify(context.Background(), notification)
	require.NoError(t, err)
	assert.Equal(t, "chat-1", received.ChatID)
	assert.Equal(t, SeverityHigh, received.Severity)
	assert.Equal(t, []string{"guaranteed profit"}, received.MatchedKeywords)
}

func TestWebhookNotifierNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, nil)
	err := notifier.Notify(context.Background(), &Notification{ChatID: "chat-1"})
	assert.Error(t, err)
}

func TestWebhookNotifierCircuitOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	breaker := resilience.NewCircuitBreaker(resilience.BuildSettings("test-webhook", 60, 30, 2, 1))
	notifier := NewWebhookNotifier(server.URL, breaker)
	ctx := context.Background()

	require.Error(t, notifier.Notify(ctx, &Notification{ChatID: "chat-1"}))
	require.Error(t, notifier.Notify(ctx, &Notification{ChatID: "chat-1"}))

	err := notifier.Notify(ctx, &Notification{ChatID: "chat-1"})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}
