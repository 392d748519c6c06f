package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: 10s
dispatcher:
  tier1_capacity: 500
  low_watermark: 0.2
  high_watermark: 0.8
  escalation_wait_budget: 15s
breaker:
  failure_threshold: 3
policy:
  rules_path: "/etc/ceres/rules.yaml"
  watch: true
audit:
  backend: memory
telemetry:
  logging:
    level: debug
    format: text
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("Expected listen address from file, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Expected read timeout 10s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Dispatcher.Tier1Capacity != 500 {
		t.Errorf("Expected tier1 capacity 500, got %d", cfg.Dispatcher.Tier1Capacity)
	}
	if cfg.Breaker.FailureThreshold != 3 {
		t.Errorf("Expected failure threshold 3, got %d", cfg.Breaker.FailureThreshold)
	}
	if !cfg.Policy.Watch {
		t.Error("Expected policy watch enabled")
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("Expected memory audit backend, got %q", cfg.Audit.Backend)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Fields absent from the file get defaults.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("Expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Dispatcher.Tier1TTLPolicyMatch != DefaultTier1TTLPolicyMatch {
		t.Errorf("Expected default policy-match TTL, got %v", cfg.Dispatcher.Tier1TTLPolicyMatch)
	}
	if cfg.Dispatcher.TierCallTimeout != DefaultTierCallTimeout {
		t.Errorf("Expected default tier call timeout, got %v", cfg.Dispatcher.TierCallTimeout)
	}
	if cfg.Breaker.Window != DefaultBreakerWindow {
		t.Errorf("Expected default breaker window, got %v", cfg.Breaker.Window)
	}
	if cfg.Audit.PruneSchedule != DefaultPruneSchedule {
		t.Errorf("Expected default prune schedule, got %q", cfg.Audit.PruneSchedule)
	}
	if !cfg.Audit.Enabled {
		t.Error("Expected audit enabled by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("Expected metrics enabled by default")
	}
}

func TestLoadConfig_ExplicitFalseSurvivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
audit:
  enabled: false
telemetry:
  metrics:
    enabled: false
`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Audit.Enabled {
		t.Error("Expected explicit audit.enabled=false to survive defaulting")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Expected explicit metrics.enabled=false to survive defaulting")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server: [not a mapping"))
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("SENTINEL_SERVER_LISTEN_ADDRESS", "127.0.0.1:7777")
	t.Setenv("SENTINEL_DISPATCHER_HIGH_WATERMARK", "0.9")
	t.Setenv("SENTINEL_DISPATCHER_TIER_CALL_TIMEOUT", "750ms")
	t.Setenv("SENTINEL_POLICY_WATCH", "false")
	t.Setenv("SENTINEL_AUDIT_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:7777" {
		t.Errorf("Expected env override for listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Dispatcher.HighWatermark != 0.9 {
		t.Errorf("Expected env override for high watermark, got %v", cfg.Dispatcher.HighWatermark)
	}
	if cfg.Dispatcher.TierCallTimeout != 750*time.Millisecond {
		t.Errorf("Expected env override for tier call timeout, got %v", cfg.Dispatcher.TierCallTimeout)
	}
	if cfg.Policy.Watch {
		t.Error("Expected env override to disable policy watch")
	}
	if cfg.Audit.Enabled {
		t.Error("Expected env override to disable audit")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValueIgnored(t *testing.T) {
	t.Setenv("SENTINEL_DISPATCHER_TIER1_CAPACITY", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}
	if cfg.Dispatcher.Tier1Capacity != 500 {
		t.Errorf("Expected file value to survive malformed env override, got %d", cfg.Dispatcher.Tier1Capacity)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *Config) {},
		},
		{
			name: "inverted watermarks",
			mutate: func(cfg *Config) {
				cfg.Dispatcher.LowWatermark = 0.8
				cfg.Dispatcher.HighWatermark = 0.3
			},
			wantErr: "dispatcher.low_watermark",
		},
		{
			name: "equal watermarks",
			mutate: func(cfg *Config) {
				cfg.Dispatcher.LowWatermark = 0.5
				cfg.Dispatcher.HighWatermark = 0.5
			},
			wantErr: "dispatcher.low_watermark",
		},
		{
			name: "negative cache capacity",
			mutate: func(cfg *Config) {
				cfg.Dispatcher.Tier1Capacity = -1
			},
			wantErr: "dispatcher.tier1_capacity",
		},
		{
			name: "zero tier call timeout",
			mutate: func(cfg *Config) {
				cfg.Dispatcher.TierCallTimeout = 0
			},
			wantErr: "dispatcher.tier_call_timeout",
		},
		{
			name: "zero failure threshold",
			mutate: func(cfg *Config) {
				cfg.Breaker.FailureThreshold = 0
			},
			wantErr: "breaker.failure_threshold",
		},
		{
			name: "max cooldown below cooldown",
			mutate: func(cfg *Config) {
				cfg.Breaker.Cooldown = time.Minute
				cfg.Breaker.MaxCooldown = time.Second
			},
			wantErr: "breaker.max_cooldown",
		},
		{
			name: "empty rules path",
			mutate: func(cfg *Config) {
				cfg.Policy.RulesPath = ""
			},
			wantErr: "policy.rules_path",
		},
		{
			name: "unknown audit backend",
			mutate: func(cfg *Config) {
				cfg.Audit.Backend = "postgres"
			},
			wantErr: "audit.backend",
		},
		{
			name: "unknown log level",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Logging.Level = "verbose"
			},
			wantErr: "telemetry.logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Audit.Enabled = true
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected validation error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ListenAddress = ""
	cfg.Dispatcher.Tier1Capacity = 0
	cfg.Breaker.FailureThreshold = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation errors")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 3 {
		t.Errorf("Expected at least 3 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}
