package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "dispatcher.low_watermark").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDispatcher(&cfg.Dispatcher)...)
	errs = append(errs, validateBreaker(&cfg.Breaker)...)
	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must not be negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must not be negative",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must not be negative",
		})
	}

	return errs
}

func validateDispatcher(cfg *DispatcherConfig) []FieldError {
	var errs []FieldError

	if cfg.Tier1Capacity <= 0 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.tier1_capacity",
			Message: "cache capacity must be positive",
		})
	}
	if cfg.Tier1TTLPolicyMatch <= 0 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.tier1_ttl_policy_match",
			Message: "cache TTL must be positive",
		})
	}
	if cfg.Tier1TTLPattern <= 0 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.tier1_ttl_pattern",
			Message: "cache TTL must be positive",
		})
	}
	if cfg.MemoTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.memo_ttl",
			Message: "memoization TTL must not be negative",
		})
	}
	if cfg.TierCallTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.tier_call_timeout",
			Message: "tier call timeout must be positive",
		})
	}
	if cfg.LowWatermark <= 0 || cfg.LowWatermark >= 1 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.low_watermark",
			Message: "low watermark must be between 0 and 1 exclusive",
		})
	}
	if cfg.HighWatermark <= 0 || cfg.HighWatermark > 1 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.high_watermark",
			Message: "high watermark must be between 0 exclusive and 1 inclusive",
		})
	}
	if cfg.LowWatermark >= cfg.HighWatermark {
		errs = append(errs, FieldError{
			Field:   "dispatcher.low_watermark",
			Message: "low watermark must be less than high watermark",
		})
	}
	if cfg.EscalationWaitBudget <= 0 {
		errs = append(errs, FieldError{
			Field:   "dispatcher.escalation_wait_budget",
			Message: "escalation wait budget must be positive",
		})
	}

	return errs
}

func validateBreaker(cfg *BreakerConfig) []FieldError {
	var errs []FieldError

	if cfg.FailureThreshold <= 0 {
		errs = append(errs, FieldError{
			Field:   "breaker.failure_threshold",
			Message: "failure threshold must be positive",
		})
	}
	if cfg.Window <= 0 {
		errs = append(errs, FieldError{
			Field:   "breaker.window",
			Message: "failure window must be positive",
		})
	}
	if cfg.Cooldown <= 0 {
		errs = append(errs, FieldError{
			Field:   "breaker.cooldown",
			Message: "cooldown must be positive",
		})
	}
	if cfg.MaxCooldown < cfg.Cooldown {
		errs = append(errs, FieldError{
			Field:   "breaker.max_cooldown",
			Message: "max cooldown must be at least the base cooldown",
		})
	}

	return errs
}

func validatePolicy(cfg *PolicyConfig) []FieldError {
	var errs []FieldError

	if cfg.RulesPath == "" {
		errs = append(errs, FieldError{
			Field:   "policy.rules_path",
			Message: "rules path is required",
		})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "policy.debounce_interval",
			Message: "debounce interval must not be negative",
		})
	}

	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unknown backend %q (must be sqlite or memory)", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite_path",
			Message: "sqlite path is required for the sqlite backend",
		})
	}
	if cfg.Buffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.buffer",
			Message: "append buffer must be positive",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention_days",
			Message: "retention days must not be negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path is required when metrics are enabled",
		})
	}

	return errs
}
