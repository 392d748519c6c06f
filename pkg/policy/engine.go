package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"sentinel-hq/ceres/pkg/validation"
)

// Evaluator is the Tier 2 contract: deterministic rule evaluation for one
// request. An error means the evaluator itself failed (rule-set load error,
// internal fault) and counts against the tier's breaker; a deny verdict is
// a successful evaluation, never an error.
type Evaluator interface {
	Evaluate(ctx context.Context, req *validation.Request) (*Result, error)
}

// Source provides rule sets to the engine.
type Source interface {
	// LoadRules loads the full rule set from the source.
	LoadRules(ctx context.Context) (*RuleSet, error)
}

// Engine evaluates a rule set against requests. Rules are held behind a
// read-write mutex so evaluation proceeds concurrently with hot reloads.
type Engine struct {
	mu     sync.RWMutex
	rules  []Rule // sorted by priority
	source Source
	logger *slog.Logger
}

// NewEngine creates an engine and performs the initial rule load.
// A load failure at construction is fatal: the gateway must not serve
// traffic with an unknown rule state.
func NewEngine(ctx context.Context, source Source, logger *slog.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("rule source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		source: source,
		logger: logger.With("component", "policy.engine"),
	}

	if err := e.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load initial rules: %w", err)
	}

	return e, nil
}

// Evaluate walks the rules in priority order and returns the verdict of the
// first matching rule, or no_match when the rules have no opinion.
func (e *Engine) Evaluate(ctx context.Context, req *validation.Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	start := time.Now()

	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	for i := range rules {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rule := &rules[i]
		if !rule.matches(req) {
			continue
		}

		verdict := VerdictDeny
		if rule.Action == "allow" {
			verdict = VerdictAllow
		}

		e.logger.Debug("rule matched",
			"rule", rule.Name,
			"verdict", string(verdict),
			"agent_id", req.AgentID,
		)

		return &Result{
			Verdict:        verdict,
			RuleName:       rule.Name,
			EvaluationTime: time.Since(start),
		}, nil
	}

	return &Result{
		Verdict:        VerdictNoMatch,
		EvaluationTime: time.Since(start),
	}, nil
}

// Reload loads rules from the source and atomically replaces the active set.
// On failure the previous rules remain in effect.
func (e *Engine) Reload(ctx context.Context) error {
	ruleSet, err := e.source.LoadRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	if err := ruleSet.Validate(); err != nil {
		return fmt.Errorf("invalid rule set: %w", err)
	}

	rules := make([]Rule, len(ruleSet.Rules))
	copy(rules, ruleSet.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	e.mu.Lock()
	e.rules = rules
	e.mu.Unlock()

	e.logger.Info("rules reloaded",
		"rule_set", ruleSet.Name,
		"rule_count", len(rules),
	)

	return nil
}

// Rules returns a copy of the active rules, for introspection.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}
