// Package resilience provides the admission-control primitives that gate
// every scoring operation: a sliding-window rate limiter, per-dependency
// circuit breakers, and a TTL cache.
package resilience

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed is the normal operating state — calls flow through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means too many consecutive failures — calls are rejected.
	CircuitOpen
	// CircuitHalfOpen allows exactly one trial call to test recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	// the circuit. Default: 3.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before a half-open
	// trial call is permitted. Default: 60s.
	ResetTimeout time.Duration

	// OnStateChange is called when the circuit transitions between states.
	OnStateChange func(dependency string, from, to CircuitState)
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     60 * time.Second,
	}
}

// CircuitBreaker tracks consecutive failures for a single named dependency.
// State transitions happen only on explicit success/failure reports from
// call sites, never by background polling.
type CircuitBreaker struct {
	name string
	cfg  BreakerConfig

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	lastFailureAt       time.Time
	lastSuccessAt       time.Time
	probeInFlight       bool

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewCircuitBreaker creates a breaker for the named dependency.
func NewCircuitBreaker(name string, cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	return &CircuitBreaker{
		name:    name,
		cfg:     cfg,
		state:   CircuitClosed,
		nowFunc: time.Now,
	}
}

// BeforeCall decides whether a call to the dependency may proceed. While
// open it returns a ServiceUnavailableError unless the reset timeout has
// elapsed, in which case the breaker moves to half-open and admits exactly
// one trial call; that call's reported outcome decides whether the breaker
// closes or re-opens.
func (cb *CircuitBreaker) BeforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if cb.nowFunc().Sub(cb.lastFailureAt) >= cb.cfg.ResetTimeout {
			cb.transition(CircuitHalfOpen)
			cb.probeInFlight = true
			return nil
		}
		return &ServiceUnavailableError{Dependency: cb.name}
	case CircuitHalfOpen:
		if cb.probeInFlight {
			return &ServiceUnavailableError{Dependency: cb.name}
		}
		cb.probeInFlight = true
		return nil
	default:
		return nil
	}
}

// ReportSuccess resets the failure counter and closes the circuit.
func (cb *CircuitBreaker) ReportSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	cb.lastSuccessAt = cb.nowFunc()
	cb.probeInFlight = false
	if cb.state != CircuitClosed {
		cb.transition(CircuitClosed)
	}
}

// ReportFailure increments the failure counter, opening the circuit once
// the threshold is reached. A failed half-open trial re-opens immediately.
func (cb *CircuitBreaker) ReportFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	cb.lastFailureAt = cb.nowFunc()
	cb.probeInFlight = false

	switch cb.state {
	case CircuitClosed:
		if cb.consecutiveFailures >= cb.cfg.FailureThreshold {
			cb.transition(CircuitOpen)
		}
	case CircuitHalfOpen:
		cb.transition(CircuitOpen)
	}
}

// Execute runs fn through the breaker, reporting its outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.BeforeCall(); err != nil {
		return err
	}
	err := fn(ctx)
	if err != nil {
		cb.ReportFailure()
	} else {
		cb.ReportSuccess()
	}
	return err
}

// ExecuteVal is like Execute but preserves a return value.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := cb.BeforeCall(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	if err != nil {
		cb.ReportFailure()
		return zero, err
	}
	cb.ReportSuccess()
	return val, nil
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.nowFunc().Sub(cb.lastFailureAt) >= cb.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// BreakerStatus is a read-only snapshot for monitoring.
type BreakerStatus struct {
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	Failures      int       `json:"failures"`
	LastFailureAt time.Time `json:"last_failure_at,omitempty"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
}

// Snapshot returns the breaker's current status.
func (cb *CircuitBreaker) Snapshot() BreakerStatus {
	state := cb.State()
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return BreakerStatus{
		Name:          cb.name,
		Status:        state.String(),
		Failures:      cb.consecutiveFailures,
		LastFailureAt: cb.lastFailureAt,
		LastSuccessAt: cb.lastSuccessAt,
	}
}

// BreakerSet manages circuit breakers for multiple named dependencies.
type BreakerSet struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	cfg      BreakerConfig
}

// NewBreakerSet creates a registry of per-dependency circuit breakers.
func NewBreakerSet(cfg BreakerConfig) *BreakerSet {
	if cfg.OnStateChange == nil {
		cfg.OnStateChange = logStateChange
	}
	return &BreakerSet{
		breakers: make(map[string]*CircuitBreaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for the named dependency, creating one if needed.
func (bs *BreakerSet) Get(dependency string) *CircuitBreaker {
	bs.mu.RLock()
	cb, ok := bs.breakers[dependency]
	bs.mu.RUnlock()
	if ok {
		return cb
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	// Double-check after acquiring write lock.
	if cb, ok = bs.breakers[dependency]; ok {
		return cb
	}
	cb = NewCircuitBreaker(dependency, bs.cfg)
	bs.breakers[dependency] = cb
	return cb
}

// Report feeds an externally observed call outcome into the named breaker.
func (bs *BreakerSet) Report(dependency string, success bool) {
	cb := bs.Get(dependency)
	if success {
		cb.ReportSuccess()
	} else {
		cb.ReportFailure()
	}
}

// Snapshots returns the status of every registered breaker.
func (bs *BreakerSet) Snapshots() []BreakerStatus {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	out := make([]BreakerStatus, 0, len(bs.breakers))
	for _, cb := range bs.breakers {
		out = append(out, cb.Snapshot())
	}
	return out
}

func logStateChange(dependency string, from, to CircuitState) {
	zap.L().Warn("circuit breaker state change",
		zap.String("dependency", dependency),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, from, to)
	}
}
