package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State string

const (
	// StateClosed lets calls pass through normally.
	StateClosed State = "closed"

	// StateOpen bypasses the protected dependency entirely.
	StateOpen State = "open"

	// StateHalfOpen allows exactly one probe call through.
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned by Do when the breaker is open and the call was
// bypassed without being attempted.
var ErrOpen = errors.New("breaker: circuit open")

// Config contains tuning parameters for a single breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures within Window
	// that trips the breaker open.
	FailureThreshold int

	// Window is the sliding window over which a failure streak counts.
	// A streak older than the window starts over.
	Window time.Duration

	// Cooldown is the initial time the breaker stays open before allowing
	// a half-open probe.
	Cooldown time.Duration

	// MaxCooldown caps the exponential backoff applied after failed probes.
	MaxCooldown time.Duration
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Window:           30 * time.Second,
		Cooldown:         10 * time.Second,
		MaxCooldown:      5 * time.Minute,
	}
}

// Validate checks the configuration for fatal misconfiguration.
func (c Config) Validate() error {
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive, got %d", c.FailureThreshold)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %v", c.Window)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be positive, got %v", c.Cooldown)
	}
	if c.MaxCooldown < c.Cooldown {
		return fmt.Errorf("max_cooldown %v must be >= cooldown %v", c.MaxCooldown, c.Cooldown)
	}
	return nil
}

// TransitionFunc observes state transitions, for metrics and logging.
type TransitionFunc func(name string, from, to State)

// Breaker is a circuit breaker guarding one decision tier. Only thrown
// errors and timeouts count as failures; semantic results (deny, high risk)
// never trip the breaker.
type Breaker struct {
	name   string
	config Config

	mu              sync.Mutex
	state           State
	failures        int
	streakStart     time.Time
	openedAt        time.Time
	currentCooldown time.Duration
	probeInFlight   bool

	onTransition TransitionFunc
	logger       *slog.Logger
}

// New creates a breaker in the closed state.
func New(name string, config Config, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{
		name:            name,
		config:          config,
		state:           StateClosed,
		currentCooldown: config.Cooldown,
		logger:          logger.With("breaker", name),
	}
}

// OnTransition registers a callback invoked on every state transition.
func (b *Breaker) OnTransition(fn TransitionFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTransition = fn
}

// State returns the current state, promoting open to half-open when the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpenLocked(time.Now())
	return b.state
}

// Allow reports whether a call may proceed. In half-open state at most one
// caller is admitted as the probe; everyone else is bypassed until the probe
// resolves.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.maybeHalfOpenLocked(now)

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess records a successful call, resetting the failure streak.
// A successful half-open probe closes the breaker and resets the cooldown.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.probeInFlight = false
		b.currentCooldown = b.config.Cooldown
		b.transitionLocked(StateClosed)
	}
	b.failures = 0
	b.streakStart = time.Time{}
}

// RecordFailure records a failed call. The failure_threshold-th consecutive
// failure within the window trips the breaker; a failed half-open probe
// reopens it with exponentially increased cooldown.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	switch b.state {
	case StateHalfOpen:
		b.probeInFlight = false
		b.currentCooldown = min(b.currentCooldown*2, b.config.MaxCooldown)
		b.openedAt = now
		b.transitionLocked(StateOpen)
		return
	case StateOpen:
		// Stray failure from a call admitted before the trip; ignored.
		return
	}

	if b.failures == 0 || now.Sub(b.streakStart) > b.config.Window {
		b.failures = 0
		b.streakStart = now
	}
	b.failures++

	if b.failures >= b.config.FailureThreshold {
		b.openedAt = now
		b.transitionLocked(StateOpen)
	}
}

// Do wraps fn with the breaker. When the breaker is open the call is
// bypassed and ErrOpen returned. Any error from fn (including a context
// deadline) is recorded as a failure.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.Allow() {
		return ErrOpen
	}

	err := fn(ctx)
	if err != nil {
		b.RecordFailure()
		return err
	}

	b.RecordSuccess()
	return nil
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// maybeHalfOpenLocked promotes open to half-open once the cooldown elapses.
// Caller must hold the lock.
func (b *Breaker) maybeHalfOpenLocked(now time.Time) {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.currentCooldown {
		b.probeInFlight = false
		b.transitionLocked(StateHalfOpen)
	}
}

// transitionLocked moves the breaker to a new state and notifies observers.
// Caller must hold the lock.
func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to

	b.logger.Info("breaker state changed",
		"from", string(from),
		"to", string(to),
		"consecutive_failures", b.failures,
		"cooldown", b.currentCooldown,
	)

	if b.onTransition != nil {
		// Invoked under the lock; observers must not call back into the
		// breaker.
		b.onTransition(b.name, from, to)
	}
}
