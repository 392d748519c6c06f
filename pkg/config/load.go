package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := &Config{}
	applyBoolDefaults(cfg)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SENTINEL_SECTION_FIELD (e.g., SENTINEL_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format SENTINEL_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("SENTINEL_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	setDuration("SENTINEL_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("SENTINEL_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("SENTINEL_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Dispatcher overrides
	setInt("SENTINEL_DISPATCHER_TIER1_CAPACITY", &cfg.Dispatcher.Tier1Capacity)
	setDuration("SENTINEL_DISPATCHER_TIER1_TTL_POLICY_MATCH", &cfg.Dispatcher.Tier1TTLPolicyMatch)
	setDuration("SENTINEL_DISPATCHER_TIER1_TTL_PATTERN", &cfg.Dispatcher.Tier1TTLPattern)
	setDuration("SENTINEL_DISPATCHER_MEMO_TTL", &cfg.Dispatcher.MemoTTL)
	setDuration("SENTINEL_DISPATCHER_TIER_CALL_TIMEOUT", &cfg.Dispatcher.TierCallTimeout)
	setFloat("SENTINEL_DISPATCHER_LOW_WATERMARK", &cfg.Dispatcher.LowWatermark)
	setFloat("SENTINEL_DISPATCHER_HIGH_WATERMARK", &cfg.Dispatcher.HighWatermark)
	setDuration("SENTINEL_DISPATCHER_ESCALATION_WAIT_BUDGET", &cfg.Dispatcher.EscalationWaitBudget)

	// Breaker overrides
	setInt("SENTINEL_BREAKER_FAILURE_THRESHOLD", &cfg.Breaker.FailureThreshold)
	setDuration("SENTINEL_BREAKER_WINDOW", &cfg.Breaker.Window)
	setDuration("SENTINEL_BREAKER_COOLDOWN", &cfg.Breaker.Cooldown)
	setDuration("SENTINEL_BREAKER_MAX_COOLDOWN", &cfg.Breaker.MaxCooldown)

	// Policy overrides
	if val := os.Getenv("SENTINEL_POLICY_RULES_PATH"); val != "" {
		cfg.Policy.RulesPath = val
	}
	setBool("SENTINEL_POLICY_WATCH", &cfg.Policy.Watch)
	setDuration("SENTINEL_POLICY_DEBOUNCE_INTERVAL", &cfg.Policy.DebounceInterval)

	// Escalation overrides
	if val := os.Getenv("SENTINEL_ESCALATION_TARGET_POOL"); val != "" {
		cfg.Escalation.TargetPool = val
	}
	setInt("SENTINEL_ESCALATION_BUFFER", &cfg.Escalation.Buffer)

	// Audit overrides
	setBool("SENTINEL_AUDIT_ENABLED", &cfg.Audit.Enabled)
	if val := os.Getenv("SENTINEL_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("SENTINEL_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}
	setInt("SENTINEL_AUDIT_BUFFER", &cfg.Audit.Buffer)
	setInt("SENTINEL_AUDIT_RETENTION_DAYS", &cfg.Audit.RetentionDays)
	if val := os.Getenv("SENTINEL_AUDIT_PRUNE_SCHEDULE"); val != "" {
		cfg.Audit.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("SENTINEL_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	setBool("SENTINEL_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	if val := os.Getenv("SENTINEL_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
}

func setDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func setInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setFloat(key string, dst *float64) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
