package alerts

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		ScoreThreshold: 0.6,
		RateLimit:      5,
		Cooldown:       5 * time.Minute,
		Window:         time.Minute,
		StateRetention: time.Hour,
	}
}

func newTestGatekeeper(t *testing.T, cfg Config) *Gatekeeper {
	t.Helper()
	gate, err := NewGatekeeper(cfg)
	require.NoError(t, err)
	return gate
}

func TestGatekeeperBelowThreshold(t *testing.T) {
	gate := newTestGatekeeper(t, testConfig())
	now := time.Now()

	decision := gate.Evaluate("chat-1", 0.59, false, now)
	assert.False(t, decision.Emit)
	assert.Equal(t, ReasonBelowThreshold, decision.Reason)

	// A clean classification never alerts, regardless of score.
	decision = gate.Evaluate("chat-1", 0.9, true, now)
	assert.False(t, decision.Emit)
	assert.Equal(t, ReasonBelowThreshold, decision.Reason)
}

func TestGatekeeperThresholdIsInclusive(t *testing.T) {
	gate := newTestGatekeeper(t, testConfig())

	decision := gate.Evaluate("chat-1", 0.6, false, time.Now())
	assert.True(t, decision.Emit)
	assert.Equal(t, ReasonAlertEmitted, decision.Reason)
}

func TestGatekeeperCooldown(t *testing.T) {
	cfg := testConfig()
	gate := newTestGatekeeper(t, cfg)
	start := time.Now()

	first := gate.Evaluate("chat-1", 0.9, false, start)
	require.True(t, first.Emit)

	during := gate.Evaluate("chat-1", 0.9, false, start.Add(cfg.Cooldown-time.Second))
	assert.False(t, during.Emit)
	assert.Equal(t, ReasonCooldownActive, during.Reason)

	after := gate.Evaluate("chat-1", 0.9, false, start.Add(cfg.Cooldown))
	assert.True(t, after.Emit)
}

func TestGatekeeperRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Cooldown = 0
	cfg.RateLimit = 2
	gate := newTestGatekeeper(t, cfg)
	start := time.Now()

	require.True(t, gate.Evaluate("chat-1", 0.9, false, start).Emit)
	require.True(t, gate.Evaluate("chat-1", 0.9, false, start.Add(time.Second)).Emit)

	limited := gate.Evaluate("chat-1", 0.9, false, start.Add(2*time.Second))
	assert.False(t, limited.Emit)
	assert.Equal(t, ReasonRateLimited, limited.Reason)

	// Once the first alert slides out of the window, capacity frees up.
	later := gate.Evaluate("chat-1", 0.9, false, start.Add(cfg.Window+time.Second))
	assert.True(t, later.Emit)
}

func TestGatekeeperSuppressedMessagesDoNotConsumeCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.Cooldown = 0
	cfg.RateLimit = 1
	gate := newTestGatekeeper(t, cfg)
	start := time.Now()

	require.True(t, gate.Evaluate("chat-1", 0.9, false, start).Emit)
	for i := 1; i <= 10; i++ {
		decision := gate.Evaluate("chat-1", 0.9, false, start.Add(time.Duration(i)*time.Second))
		require.False(t, decision.Emit)
	}

	// Only the single emitted alert counts against the window.
	after := gate.Evaluate("chat-1", 0.9, false, start.Add(cfg.Window+time.Second))
	assert.True(t, after.Emit)
}

func TestGatekeeperChatsIndependent(t *testing.T) {
	gate := newTestGatekeeper(t, testConfig())
	now := time.Now()

	require.True(t, gate.Evaluate("chat-1", 0.9, false, now).Emit)

	// chat-1 is in cooldown; chat-2 is untouched.
	assert.False(t, gate.Evaluate("chat-1", 0.9, false, now.Add(time.Second)).Emit)
	assert.True(t, gate.Evaluate("chat-2", 0.9, false, now.Add(time.Second)).Emit)
}

func TestGatekeeperEvictIdle(t *testing.T) {
	cfg := testConfig()
	gate := newTestGatekeeper(t, cfg)
	start := time.Now()

	gate.Evaluate("chat-1", 0.9, false, start)
	gate.Evaluate("chat-2", 0.1, false, start.Add(30*time.Minute))
	require.Equal(t, 2, gate.ChatCount())

	gate.EvictIdle(start.Add(cfg.StateRetention + time.Minute))
	assert.Equal(t, 1, gate.ChatCount(), "only chat-1 passed the retention cutoff")

	gate.EvictIdle(start.Add(2 * cfg.StateRetention))
	assert.Equal(t, 0, gate.ChatCount())

	// Evicted state forgets the cooldown.
	decision := gate.Evaluate("chat-1", 0.9, false, start.Add(2*cfg.StateRetention))
	assert.True(t, decision.Emit)
}

func TestGatekeeperConcurrentSameChat(t *testing.T) {
	cfg := testConfig()
	cfg.Cooldown = 0
	cfg.RateLimit = 10
	gate := newTestGatekeeper(t, cfg)
	now := time.Now()

	const workers = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	emitted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.Evaluate("chat-1", 0.9, false, now).Emit {
				mu.Lock()
				emitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, cfg.RateLimit, emitted)
}

func TestGatekeeperConcurrentDistinctChats(t *testing.T) {
	gate := newTestGatekeeper(t, testConfig())
	now := time.Now()

	const workers = 50
	var wg sync.WaitGroup
	results := make([]Decision, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chatID := "chat-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			results[i] = gate.Evaluate(chatID, 0.9, false, now)
		}(i)
	}
	wg.Wait()

	for i, decision := range results {
		assert.True(t, decision.Emit, "chat %d should alert independently", i)
	}
}

func TestNewGatekeeperRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.ScoreThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.ScoreThreshold = -0.1 }},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }},
		{"negative cooldown", func(c *Config) { c.Cooldown = -time.Second }},
		{"zero window", func(c *Config) { c.Window = 0 }},
		{"zero retention", func(c *Config) { c.StateRetention = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewGatekeeper(cfg)
			assert.Error(t, err)
		})
	}
}
