package breaker

import (
	"log/slog"
	"sync"
)

// Well-known tier names. One breaker exists per decision tier.
const (
	TierPolicy     = "policy"
	TierPattern    = "pattern"
	TierEscalation = "escalation"
)

// Registry holds one breaker per named tier. Breakers are created at
// startup and shared by every request.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	config   Config
	logger   *slog.Logger
	onCreate TransitionFunc
}

// NewRegistry creates a registry that hands out breakers with the given
// shared configuration.
func NewRegistry(config Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		breakers: make(map[string]*Breaker),
		config:   config,
		logger:   logger,
	}
}

// Get returns the breaker for a tier, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b = New(name, r.config, r.logger)
	if r.onCreate != nil {
		b.OnTransition(r.onCreate)
	}
	r.breakers[name] = b
	return b
}

// States returns a snapshot of every breaker's state, keyed by tier name.
func (r *Registry) States() map[string]State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for name, b := range r.breakers {
		states[name] = b.State()
	}
	return states
}

// OnTransition registers a transition observer on every current and future
// breaker in the registry.
func (r *Registry) OnTransition(fn TransitionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.breakers {
		b.OnTransition(fn)
	}
	r.onCreate = fn
}
