package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sentinel-hq/ceres/pkg/breaker"
	"sentinel-hq/ceres/pkg/cache"
	"sentinel-hq/ceres/pkg/escalation"
	"sentinel-hq/ceres/pkg/pattern"
	"sentinel-hq/ceres/pkg/policy"
	"sentinel-hq/ceres/pkg/telemetry/metrics"
	"sentinel-hq/ceres/pkg/validation"
)

// Config contains dispatcher tuning parameters.
type Config struct {
	// TierCallTimeout bounds each policy or pattern evaluation. Exceeding
	// it counts as a tier failure for breaker purposes.
	TierCallTimeout time.Duration

	// LowWatermark is the risk score below which a command is approved.
	LowWatermark float64

	// HighWatermark is the risk score above which a command is blocked.
	// Scores in [LowWatermark, HighWatermark] escalate to expert review.
	HighWatermark float64

	// TTLPolicyMatch is the Tier 1 TTL for decisions backed by an explicit
	// policy rule.
	TTLPolicyMatch time.Duration

	// TTLPattern is the Tier 1 TTL for decisions backed by a risk score or
	// an expert answer.
	TTLPattern time.Duration
}

// Validate checks the configuration for fatal misconfiguration.
func (c Config) Validate() error {
	if c.TierCallTimeout <= 0 {
		return fmt.Errorf("tier call timeout must be positive, got %v", c.TierCallTimeout)
	}
	if c.LowWatermark <= 0 || c.HighWatermark > 1 || c.LowWatermark >= c.HighWatermark {
		return fmt.Errorf("watermarks must satisfy 0 < low < high <= 1, got low=%v high=%v",
			c.LowWatermark, c.HighWatermark)
	}
	if c.TTLPolicyMatch <= 0 || c.TTLPattern <= 0 {
		return fmt.Errorf("cache TTLs must be positive, got policy=%v pattern=%v",
			c.TTLPolicyMatch, c.TTLPattern)
	}
	return nil
}

// Auditor mirrors decisions to the external audit log, fire-and-forget.
type Auditor interface {
	Append(req *validation.Request, decision *validation.Decision)
}

// Deps holds every collaborator the dispatcher orchestrates. All tier
// instances are injected explicitly; nothing is reached through globals.
type Deps struct {
	// Cache is the Tier 1 fingerprint cache. Required.
	Cache *cache.FingerprintCache

	// Policy is the Tier 2 rule evaluator. Required.
	Policy policy.Evaluator

	// Pattern is the Tier 3 risk scorer. Required.
	Pattern pattern.Scorer

	// Breakers supplies the per-tier circuit breakers. Required.
	Breakers *breaker.Registry

	// Escalator hands gray-zone requests to expert review. Required.
	Escalator *escalation.Coordinator

	// Auditor mirrors decisions outbound. Optional.
	Auditor Auditor

	// Metrics records instrumentation. Optional.
	Metrics *metrics.Collector

	// Logger for dispatcher events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Dispatcher orchestrates the decision tiers for each incoming request and
// produces the terminal decision. Validate never returns an error: every
// failure mode degrades to a decision, with blocked as the safe default.
type Dispatcher struct {
	config    Config
	cache     *cache.FingerprintCache
	policy    policy.Evaluator
	pattern   pattern.Scorer
	breakers  *breaker.Registry
	escalator *escalation.Coordinator
	auditor   Auditor
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// New creates a dispatcher. Misconfiguration and missing collaborators are
// fatal: the gateway must not serve traffic half-wired.
func New(config Config, deps Deps) (*Dispatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatcher config: %w", err)
	}
	if deps.Cache == nil || deps.Policy == nil || deps.Pattern == nil ||
		deps.Breakers == nil || deps.Escalator == nil {
		return nil, errors.New("dispatcher: cache, policy, pattern, breakers, and escalator are all required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		config:    config,
		cache:     deps.Cache,
		policy:    deps.Policy,
		pattern:   deps.Pattern,
		breakers:  deps.Breakers,
		escalator: deps.Escalator,
		auditor:   deps.Auditor,
		metrics:   deps.Metrics,
		logger:    logger.With("component", "dispatcher"),
	}

	if d.metrics != nil {
		deps.Breakers.OnTransition(func(name string, from, to breaker.State) {
			d.metrics.RecordBreakerTransition(name, string(from), string(to))
		})
	}

	return d, nil
}

// Validate decides one request. It always returns a decision, never an
// error: tier failures are absorbed by the breakers, full unavailability and
// escalation timeouts surface as blocked decisions.
func (d *Dispatcher) Validate(ctx context.Context, req *validation.Request) *validation.Decision {
	start := time.Now()
	fp := validation.EnsureFingerprint(req)

	// Tier 1: exact-match replay. The sub-millisecond hot path.
	if rec := d.cache.Lookup(fp); rec != nil {
		d.recordCacheHit()
		decision := d.replay(req, rec, start)
		d.emit(req, decision)
		return decision
	}
	d.recordCacheMiss()

	// Tier 2: policy rules through their breaker. An explicit verdict is
	// authoritative and Tier 3 is never consulted.
	if result := d.evaluatePolicy(ctx, req); result != nil {
		decision := d.policyDecision(req, fp, result, start)
		d.finish(req, decision, d.config.TTLPolicyMatch)
		return decision
	}

	// Tier 3: risk score through its breaker, consulted only when the
	// rules had no opinion or their tier was unavailable.
	if score, ok := d.scorePattern(ctx, req); ok {
		if score < d.config.LowWatermark {
			decision := d.patternDecision(req, fp, score, validation.OutcomeApproved, validation.ReasonRiskLow, start)
			d.finish(req, decision, d.config.TTLPattern)
			return decision
		}
		if score > d.config.HighWatermark {
			decision := d.patternDecision(req, fp, score, validation.OutcomeBlocked, validation.ReasonRiskHigh, start)
			d.finish(req, decision, d.config.TTLPattern)
			return decision
		}
		// Gray zone: neither watermark is cleared.
		decision := d.escalate(ctx, req, fp, score, true, start)
		if decision.Tier == validation.TierExpert {
			d.finish(req, decision, d.config.TTLPattern)
		} else {
			// Safe defaults reflect unavailability, not the command;
			// they are never cached.
			d.emit(req, decision)
		}
		return decision
	}

	// No deterministic result from any automated tier; the gray-zone path
	// applies with no numeric score available.
	decision := d.escalate(ctx, req, fp, 0, false, start)
	if decision.Tier == validation.TierExpert {
		d.finish(req, decision, d.config.TTLPattern)
	} else {
		d.emit(req, decision)
	}
	return decision
}

// evaluatePolicy runs Tier 2 through its breaker. A nil result means the
// tier produced no authoritative verdict: no_match, tier failure, or open
// breaker.
func (d *Dispatcher) evaluatePolicy(ctx context.Context, req *validation.Request) *policy.Result {
	b := d.breakers.Get(breaker.TierPolicy)
	if !b.Allow() {
		d.recordBypass(breaker.TierPolicy)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, d.config.TierCallTimeout)
	result, err := d.policy.Evaluate(callCtx, req)
	cancel()

	if err != nil {
		b.RecordFailure()
		d.logger.Warn("policy tier failed",
			"request_id", req.ID,
			"error", err,
		)
		return nil
	}
	b.RecordSuccess()

	if result.Verdict == policy.VerdictNoMatch {
		return nil
	}
	return result
}

// scorePattern runs Tier 3 through its breaker. ok is false when no score
// is available: tier failure or open breaker.
func (d *Dispatcher) scorePattern(ctx context.Context, req *validation.Request) (float64, bool) {
	b := d.breakers.Get(breaker.TierPattern)
	if !b.Allow() {
		d.recordBypass(breaker.TierPattern)
		return 0, false
	}

	callCtx, cancel := context.WithTimeout(ctx, d.config.TierCallTimeout)
	score, err := d.pattern.Score(callCtx, req)
	cancel()

	if err != nil {
		b.RecordFailure()
		d.logger.Warn("pattern tier failed",
			"request_id", req.ID,
			"error", err,
		)
		return 0, false
	}
	b.RecordSuccess()
	return score, true
}

// escalate hands the request to expert review and waits within the ticket's
// budget. Timeouts and channel unavailability produce the safe default.
func (d *Dispatcher) escalate(ctx context.Context, req *validation.Request, fp string, score float64, scored bool, start time.Time) *validation.Decision {
	b := d.breakers.Get(breaker.TierEscalation)
	if !b.Allow() {
		d.recordBypass(breaker.TierEscalation)
		return d.safeDefault(req, fp, validation.ReasonAllTiersUnavailable, score, start)
	}

	ticket, created, err := d.escalator.Escalate(ctx, req)
	if err != nil {
		b.RecordFailure()
		d.logger.Error("escalation publish failed",
			"request_id", req.ID,
			"error", err,
		)
		return d.safeDefault(req, fp, validation.ReasonAllTiersUnavailable, score, start)
	}
	b.RecordSuccess()
	if created {
		d.recordEscalationOpened()
	} else {
		d.recordEscalationAttached()
	}
	d.updateEscalationGauge()

	answer, err := d.escalator.AwaitResolution(ctx, ticket)
	d.updateEscalationGauge()
	if err != nil {
		if errors.Is(err, escalation.ErrTimedOut) {
			d.recordEscalationResult("timed_out")
		}
		return d.safeDefault(req, fp, validation.ReasonEscalationTimeout, score, start)
	}
	d.recordEscalationResult("resolved")

	outcome := validation.OutcomeBlocked
	reason := validation.ReasonExpertDenied
	if answer.Approve {
		outcome = validation.OutcomeApproved
		reason = validation.ReasonExpertApproved
	}

	decision := &validation.Decision{
		RequestID:   req.ID,
		Fingerprint: fp,
		Outcome:     outcome,
		Tier:        validation.TierExpert,
		Reason:      reason,
		Confidence:  1.0,
		Latency:     time.Since(start),
		DecidedAt:   time.Now(),
	}
	if scored {
		decision.RiskScore = score
	}
	return decision
}

// replay builds a fresh decision from a cached record.
func (d *Dispatcher) replay(req *validation.Request, rec *cache.Record, start time.Time) *validation.Decision {
	cached := rec.Decision
	return &validation.Decision{
		RequestID:   req.ID,
		Fingerprint: cached.Fingerprint,
		Outcome:     cached.Outcome,
		Tier:        validation.TierCache,
		Reason:      validation.ReasonCacheHit,
		RiskScore:   cached.RiskScore,
		RuleName:    cached.RuleName,
		Confidence:  cached.Confidence,
		Latency:     time.Since(start),
		DecidedAt:   time.Now(),
	}
}

// policyDecision builds a decision from an authoritative rule verdict.
func (d *Dispatcher) policyDecision(req *validation.Request, fp string, result *policy.Result, start time.Time) *validation.Decision {
	outcome := validation.OutcomeBlocked
	reason := validation.ReasonPolicyDeny
	if result.Verdict == policy.VerdictAllow {
		outcome = validation.OutcomeApproved
		reason = validation.ReasonPolicyAllow
	}

	return &validation.Decision{
		RequestID:   req.ID,
		Fingerprint: fp,
		Outcome:     outcome,
		Tier:        validation.TierPolicy,
		Reason:      reason,
		RuleName:    result.RuleName,
		Confidence:  1.0,
		Latency:     time.Since(start),
		DecidedAt:   time.Now(),
	}
}

// patternDecision builds a decision from a risk score outside the gray zone.
func (d *Dispatcher) patternDecision(req *validation.Request, fp string, score float64, outcome validation.Outcome, reason validation.ReasonCode, start time.Time) *validation.Decision {
	confidence := score
	if outcome == validation.OutcomeApproved {
		confidence = 1 - score
	}

	return &validation.Decision{
		RequestID:   req.ID,
		Fingerprint: fp,
		Outcome:     outcome,
		Tier:        validation.TierPattern,
		Reason:      reason,
		RiskScore:   score,
		Confidence:  confidence,
		Latency:     time.Since(start),
		DecidedAt:   time.Now(),
	}
}

// safeDefault builds the conservative blocked decision used whenever
// information is missing or a dependency is unavailable.
func (d *Dispatcher) safeDefault(req *validation.Request, fp string, reason validation.ReasonCode, score float64, start time.Time) *validation.Decision {
	d.logger.Warn("safe default applied",
		"request_id", req.ID,
		"fingerprint", fp,
		"reason", string(reason),
	)

	return &validation.Decision{
		RequestID:   req.ID,
		Fingerprint: fp,
		Outcome:     validation.OutcomeBlocked,
		Tier:        validation.TierNone,
		Reason:      reason,
		RiskScore:   score,
		Latency:     time.Since(start),
		DecidedAt:   time.Now(),
	}
}

// finish caches the decision with the given TTL, then emits it.
func (d *Dispatcher) finish(req *validation.Request, decision *validation.Decision, ttl time.Duration) {
	d.cache.Store(decision.Fingerprint, decision, ttl)
	if d.metrics != nil {
		d.metrics.UpdateCacheSize("fingerprint", d.cache.Len())
	}
	d.emit(req, decision)
}

// emit mirrors the decision to the audit log and metrics. Fire-and-forget:
// nothing here can alter the decision.
func (d *Dispatcher) emit(req *validation.Request, decision *validation.Decision) {
	if d.auditor != nil {
		d.auditor.Append(req, decision)
	}
	if d.metrics != nil {
		d.metrics.RecordDecision(
			string(decision.Outcome),
			string(decision.Tier),
			string(decision.Reason),
			decision.Latency,
		)
	}

	d.logger.Info("decision",
		"request_id", decision.RequestID,
		"fingerprint", decision.Fingerprint,
		"outcome", string(decision.Outcome),
		"tier", string(decision.Tier),
		"reason", string(decision.Reason),
		"latency", decision.Latency,
	)
}

func (d *Dispatcher) recordCacheHit() {
	if d.metrics != nil {
		d.metrics.RecordCacheHit("fingerprint")
	}
}

func (d *Dispatcher) recordCacheMiss() {
	if d.metrics != nil {
		d.metrics.RecordCacheMiss("fingerprint")
	}
}

func (d *Dispatcher) recordBypass(tier string) {
	if d.metrics != nil {
		d.metrics.RecordBreakerBypass(tier)
	}
}

func (d *Dispatcher) recordEscalationOpened() {
	if d.metrics != nil {
		d.metrics.RecordEscalationOpened()
	}
}

func (d *Dispatcher) recordEscalationAttached() {
	if d.metrics != nil {
		d.metrics.RecordEscalationAttached()
	}
}

func (d *Dispatcher) recordEscalationResult(result string) {
	if d.metrics != nil {
		d.metrics.RecordEscalationResult(result)
	}
}

func (d *Dispatcher) updateEscalationGauge() {
	if d.metrics != nil {
		d.metrics.UpdatePendingEscalations(d.escalator.PendingCount())
	}
}
