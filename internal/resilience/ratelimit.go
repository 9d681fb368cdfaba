package resilience

import (
	"sync"
	"time"
)

// RateLimiterConfig controls sliding-window admission.
type RateLimiterConfig struct {
	// Window is the trailing window over which requests are counted.
	// Default: 60s.
	Window time.Duration

	// Limit is the maximum number of admitted requests per actor within
	// the window. Default: 100.
	Limit int

	// IdleSweep is how often the actor index is swept of actors with no
	// requests inside the window. Default: 5m.
	IdleSweep time.Duration
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Window:    60 * time.Second,
		Limit:     100,
		IdleSweep: 5 * time.Minute,
	}
}

// RateLimiter admits requests per actor over a sliding window. Per-actor
// timestamp lists are pruned on every access and the actor index itself is
// swept of idle actors, so memory stays bounded by active traffic.
type RateLimiter struct {
	cfg RateLimiterConfig

	mu        sync.Mutex
	actors    map[string][]time.Time
	lastSweep time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewRateLimiter creates a sliding-window rate limiter.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = 60 * time.Second
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.IdleSweep <= 0 {
		cfg.IdleSweep = 5 * time.Minute
	}
	return &RateLimiter{
		cfg:    cfg,
		actors: make(map[string][]time.Time),
		nowFunc: time.Now,
	}
}

// Admit decides whether a request from the actor may proceed. When denied,
// retryAfter hints how long until the oldest in-window request ages out.
// Denied requests are not recorded against the window.
func (rl *RateLimiter) Admit(actorID string) (allowed bool, retryAfter time.Duration) {
	now := rl.nowFunc()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.maybeSweep(now)

	cutoff := now.Add(-rl.cfg.Window)
	stamps := pruneBefore(rl.actors[actorID], cutoff)

	if len(stamps) >= rl.cfg.Limit {
		rl.actors[actorID] = stamps
		retryAfter = stamps[0].Add(rl.cfg.Window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	rl.actors[actorID] = append(stamps, now)
	return true, 0
}

// ActiveActors returns the number of actors with at least one request
// inside the current window.
func (rl *RateLimiter) ActiveActors() int {
	now := rl.nowFunc()
	cutoff := now.Add(-rl.cfg.Window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	count := 0
	for _, stamps := range rl.actors {
		if n := len(stamps); n > 0 && stamps[n-1].After(cutoff) {
			count++
		}
	}
	return count
}

// maybeSweep drops actors whose newest request is outside the window.
// Caller must hold rl.mu.
func (rl *RateLimiter) maybeSweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.cfg.IdleSweep {
		return
	}
	rl.lastSweep = now

	cutoff := now.Add(-rl.cfg.Window)
	for actor, stamps := range rl.actors {
		if n := len(stamps); n == 0 || !stamps[n-1].After(cutoff) {
			delete(rl.actors, actor)
		}
	}
}

// pruneBefore drops timestamps at or before cutoff, preserving order.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return stamps
	}
	return append(stamps[:0:0], stamps[idx:]...)
}
