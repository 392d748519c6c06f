package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Dispatcher defaults
	DefaultTier1Capacity        = 10000
	DefaultTier1TTLPolicyMatch  = time.Hour
	DefaultTier1TTLPattern      = 5 * time.Minute
	DefaultMemoTTL              = 10 * time.Second
	DefaultTierCallTimeout      = 2 * time.Second
	DefaultLowWatermark         = 0.3
	DefaultHighWatermark        = 0.7
	DefaultEscalationWaitBudget = 30 * time.Second

	// Breaker defaults
	DefaultFailureThreshold = 5
	DefaultBreakerWindow    = 30 * time.Second
	DefaultCooldown         = 10 * time.Second
	DefaultMaxCooldown      = 5 * time.Minute

	// Policy defaults
	DefaultRulesPath        = "./rules.yaml"
	DefaultPolicyWatch      = false
	DefaultDebounceInterval = 500 * time.Millisecond

	// Escalation defaults
	DefaultTargetPool       = "default"
	DefaultEscalationBuffer = 100

	// Audit defaults
	DefaultAuditEnabled  = true
	DefaultAuditBackend  = "sqlite"
	DefaultSQLitePath    = "data/audit.db"
	DefaultAuditBuffer   = 1000
	DefaultRetentionDays = 90
	DefaultPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
	DefaultNamespace      = "ceres"
)

// DefaultConfig returns a configuration populated entirely with defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued fields.
// Boolean fields whose default is true are handled by the loaders, which
// set them before unmarshaling so an explicit false in the file survives.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Dispatcher
	if cfg.Dispatcher.Tier1Capacity == 0 {
		cfg.Dispatcher.Tier1Capacity = DefaultTier1Capacity
	}
	if cfg.Dispatcher.Tier1TTLPolicyMatch == 0 {
		cfg.Dispatcher.Tier1TTLPolicyMatch = DefaultTier1TTLPolicyMatch
	}
	if cfg.Dispatcher.Tier1TTLPattern == 0 {
		cfg.Dispatcher.Tier1TTLPattern = DefaultTier1TTLPattern
	}
	if cfg.Dispatcher.MemoTTL == 0 {
		cfg.Dispatcher.MemoTTL = DefaultMemoTTL
	}
	if cfg.Dispatcher.TierCallTimeout == 0 {
		cfg.Dispatcher.TierCallTimeout = DefaultTierCallTimeout
	}
	if cfg.Dispatcher.LowWatermark == 0 {
		cfg.Dispatcher.LowWatermark = DefaultLowWatermark
	}
	if cfg.Dispatcher.HighWatermark == 0 {
		cfg.Dispatcher.HighWatermark = DefaultHighWatermark
	}
	if cfg.Dispatcher.EscalationWaitBudget == 0 {
		cfg.Dispatcher.EscalationWaitBudget = DefaultEscalationWaitBudget
	}

	// Breaker
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Breaker.Window == 0 {
		cfg.Breaker.Window = DefaultBreakerWindow
	}
	if cfg.Breaker.Cooldown == 0 {
		cfg.Breaker.Cooldown = DefaultCooldown
	}
	if cfg.Breaker.MaxCooldown == 0 {
		cfg.Breaker.MaxCooldown = DefaultMaxCooldown
	}

	// Policy
	if cfg.Policy.RulesPath == "" {
		cfg.Policy.RulesPath = DefaultRulesPath
	}
	if cfg.Policy.DebounceInterval == 0 {
		cfg.Policy.DebounceInterval = DefaultDebounceInterval
	}

	// Escalation
	if cfg.Escalation.TargetPool == "" {
		cfg.Escalation.TargetPool = DefaultTargetPool
	}
	if cfg.Escalation.Buffer == 0 {
		cfg.Escalation.Buffer = DefaultEscalationBuffer
	}

	// Audit
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultSQLitePath
	}
	if cfg.Audit.Buffer == 0 {
		cfg.Audit.Buffer = DefaultAuditBuffer
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultRetentionDays
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = DefaultPruneSchedule
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultNamespace
	}
}

// applyBoolDefaults sets boolean fields whose default is true. Called before
// unmarshaling so a file value of false overrides it.
func applyBoolDefaults(cfg *Config) {
	cfg.Audit.Enabled = DefaultAuditEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
}
