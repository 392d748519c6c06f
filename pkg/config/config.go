package config

import "time"

// Config is the root configuration structure for Sentinel Ceres.
// It contains all configuration sections for the HTTP server, dispatcher,
// circuit breakers, policy engine, escalation, audit log, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Dispatcher contains configuration for the validation dispatcher:
	// cache sizing, TTLs, tier timeouts, and risk watermarks.
	Dispatcher DispatcherConfig `yaml:"dispatcher"`

	// Breaker contains per-tier circuit breaker configuration.
	Breaker BreakerConfig `yaml:"breaker"`

	// Policy contains configuration for the policy rules source including
	// the rules file path and watch mode.
	Policy PolicyConfig `yaml:"policy"`

	// Escalation contains configuration for expert escalation.
	Escalation EscalationConfig `yaml:"escalation"`

	// Audit contains configuration for the decision audit log.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DispatcherConfig contains configuration for the validation dispatcher.
type DispatcherConfig struct {
	// Tier1Capacity is the maximum number of fingerprint cache entries.
	// Default: 10000
	Tier1Capacity int `yaml:"tier1_capacity"`

	// Tier1TTLPolicyMatch is the cache TTL for decisions produced by an
	// explicit policy rule match. Rule-backed decisions are stable until
	// the rules change, so this TTL is long.
	// Default: 1h
	Tier1TTLPolicyMatch time.Duration `yaml:"tier1_ttl_policy_match"`

	// Tier1TTLPattern is the cache TTL for decisions produced by risk
	// scoring or expert review.
	// Default: 5m
	Tier1TTLPattern time.Duration `yaml:"tier1_ttl_pattern"`

	// MemoTTL is the short memoization TTL shared by the policy and
	// pattern tiers to absorb identical in-flight bursts.
	// Default: 10s
	MemoTTL time.Duration `yaml:"memo_ttl"`

	// TierCallTimeout bounds each individual tier evaluation.
	// Default: 2s
	TierCallTimeout time.Duration `yaml:"tier_call_timeout"`

	// LowWatermark is the risk score below which a command is approved.
	// Must be less than HighWatermark.
	// Default: 0.3
	LowWatermark float64 `yaml:"low_watermark"`

	// HighWatermark is the risk score at or above which a command is
	// blocked. Scores between the watermarks escalate to expert review.
	// Default: 0.7
	HighWatermark float64 `yaml:"high_watermark"`

	// EscalationWaitBudget is how long the dispatcher waits for an expert
	// answer before returning the safe default.
	// Default: 30s
	EscalationWaitBudget time.Duration `yaml:"escalation_wait_budget"`
}

// BreakerConfig contains circuit breaker configuration applied to each tier.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures within the
	// window that opens the breaker.
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold"`

	// Window is the sliding window in which consecutive failures count
	// toward the threshold.
	// Default: 30s
	Window time.Duration `yaml:"window"`

	// Cooldown is how long the breaker stays open before admitting a
	// half-open probe.
	// Default: 10s
	Cooldown time.Duration `yaml:"cooldown"`

	// MaxCooldown caps the exponential cooldown growth on repeated probe
	// failures.
	// Default: 5m
	MaxCooldown time.Duration `yaml:"max_cooldown"`
}

// PolicyConfig contains configuration for the policy rules source.
type PolicyConfig struct {
	// RulesPath is the path to the YAML rules file.
	// Default: "./rules.yaml"
	RulesPath string `yaml:"rules_path"`

	// Watch enables hot reload of the rules file.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval coalesces rapid file change events into one
	// reload.
	// Default: 500ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// EscalationConfig contains configuration for expert escalation.
type EscalationConfig struct {
	// TargetPool names the expert pool escalation tickets are published
	// to.
	// Default: "default"
	TargetPool string `yaml:"target_pool"`

	// Buffer is the capacity of the in-memory escalation channel.
	// Default: 100
	Buffer int `yaml:"buffer"`
}

// AuditConfig contains configuration for the decision audit log.
type AuditConfig struct {
	// Enabled controls whether decisions are mirrored to the audit log.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path when Backend is "sqlite".
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// Buffer is the size of the async append channel.
	// Default: 1000
	Buffer int `yaml:"buffer"`

	// RetentionDays is how many days of decisions to keep. Zero disables
	// pruning.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a standard cron expression for when pruning runs.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path the metrics handler is mounted at.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus metric namespace.
	// Default: "ceres"
	Namespace string `yaml:"namespace"`
}
