// Package config loads, defaults, and validates the Ceres configuration.
//
// Configuration is read from a YAML file, filled in with defaults, and
// optionally overridden by SENTINEL_* environment variables. Validation is
// fail-fast: a misconfigured dispatcher (inverted watermarks, zero
// capacities, non-positive budgets) refuses to start rather than degrading
// at runtime.
package config
