package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Decision reasons. Reason is always one of these values.
const (
	ReasonBelowThreshold = "below threshold"
	ReasonCooldownActive = "cooldown active"
	ReasonRateLimited    = "rate limited"
	ReasonAlertEmitted   = "alert emitted"
)

// Decision is the gatekeeper's verdict for one scored message.
type Decision struct {
	Emit   bool   `json:"emit"`
	Reason string `json:"reason"`
}

// Config tunes the gatekeeper.
type Config struct {
	// ScoreThreshold is the sole alert gate; classification is informational.
	ScoreThreshold float64
	// RateLimit caps emitted alerts per chat within the trailing Window.
	RateLimit int
	// Cooldown is the minimum time between consecutive alerts for one chat.
	Cooldown time.Duration
	// Window is the trailing interval the rate limit counts over.
	Window time.Duration
	// StateRetention is how long idle per-chat state is kept before eviction.
	StateRetention time.Duration
}

// Validate rejects configuration the gatekeeper cannot operate with.
func (c Config) Validate() error {
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("alert score threshold %v outside [0,1]", c.ScoreThreshold)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("alert rate limit must be positive, got %d", c.RateLimit)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("alert cooldown must not be negative, got %v", c.Cooldown)
	}
	if c.Window <= 0 {
		return fmt.Errorf("alert window must be positive, got %v", c.Window)
	}
	if c.StateRetention <= 0 {
		return fmt.Errorf("alert state retention must be positive, got %v", c.StateRetention)
	}
	return nil
}

// chatState is the per-chat throttling bookkeeping. It is only ever touched
// while holding its mutex.
type chatState struct {
	mu          sync.Mutex
	lastAlertAt time.Time
	emitted     []time.Time // timestamps of emitted alerts inside the window
	lastSeen    time.Time
}

// Gatekeeper decides whether a scored message becomes an alert, throttled by
// a per-chat cooldown and a sliding-window rate limit. State is partitioned
// per chat id: evaluations for different chats never contend, evaluations for
// the same chat are serialized on that chat's lock.
type Gatekeeper struct {
	cfg Config

	mu    sync.Mutex
	chats map[string]*chatState
}

// NewGatekeeper validates the configuration and builds a gatekeeper.
func NewGatekeeper(cfg Config) (*Gatekeeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gatekeeper configuration: %w", err)
	}
	return &Gatekeeper{
		cfg:   cfg,
		chats: make(map[string]*chatState),
	}, nil
}

// Evaluate decides whether to emit an alert for the given chat. Its single
// side effect is recording the alert in the chat's state when one is emitted.
func (g *Gatekeeper) Evaluate(chatID string, score float64, clean bool, now time.Time) Decision {
	state := g.lockChat(chatID, now)
	defer state.mu.Unlock()

	if clean || score < g.cfg.ScoreThreshold {
		return Decision{Emit: false, Reason: ReasonBelowThreshold}
	}

	if !state.lastAlertAt.IsZero() && now.Sub(state.lastAlertAt) < g.cfg.Cooldown {
		return Decision{Emit: false, Reason: ReasonCooldownActive}
	}

	// Slide the window before counting.
	cutoff := now.Add(-g.cfg.Window)
	kept := state.emitted[:0]
	for _, ts := range state.emitted {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	state.emitted = kept

	if len(state.emitted) >= g.cfg.RateLimit {
		return Decision{Emit: false, Reason: ReasonRateLimited}
	}

	state.lastAlertAt = now
	state.emitted = append(state.emitted, now)
	return Decision{Emit: true, Reason: ReasonAlertEmitted}
}

// lockChat returns the chat's state with its mutex held, creating it lazily.
// It re-checks map membership after locking so a state evicted between lookup
// and lock is never mutated.
func (g *Gatekeeper) lockChat(chatID string, now time.Time) *chatState {
	for {
		g.mu.Lock()
		state, ok := g.chats[chatID]
		if !ok {
			state = &chatState{}
			g.chats[chatID] = state
		}
		g.mu.Unlock()

		state.mu.Lock()
		g.mu.Lock()
		current := g.chats[chatID]
		g.mu.Unlock()
		if current == state {
			state.lastSeen = now
			return state
		}
		state.mu.Unlock()
	}
}

// Run evicts idle chat state until ctx is cancelled, bounding memory for
// long-running processes monitoring many chats.
func (g *Gatekeeper) Run(ctx context.Context) {
	interval := g.cfg.StateRetention / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			g.EvictIdle(now)
		}
	}
}

// EvictIdle removes chat state idle for longer than the retention period.
func (g *Gatekeeper) EvictIdle(now time.Time) {
	cutoff := now.Add(-g.cfg.StateRetention)

	g.mu.Lock()
	defer g.mu.Unlock()
	for chatID, state := range g.chats {
		// TryLock keeps lock ordering safe: an evaluation holding the state
		// lock may be waiting on g.mu inside lockChat. A busy chat is not
		// idle, so skipping it is correct.
		if !state.mu.TryLock() {
			continue
		}
		idle := state.lastSeen.Before(cutoff)
		state.mu.Unlock()
		if idle {
			delete(g.chats, chatID)
		}
	}
}

// ChatCount reports how many chats currently hold throttling state.
func (g *Gatekeeper) ChatCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.chats)
}
