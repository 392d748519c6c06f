package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sentinel-hq/ceres/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Path:      "/metrics",
	}
}

func TestCollector_RecordDecision(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	collector.RecordDecision("approved", "cache", "cache_hit", 50*time.Microsecond)
	collector.RecordDecision("blocked", "policy", "policy_deny", 2*time.Millisecond)
	collector.RecordDecision("blocked", "policy", "policy_deny", 3*time.Millisecond)

	got := testutil.ToFloat64(
		collector.decisionMetrics.decisionsTotal.WithLabelValues("blocked", "policy", "policy_deny"),
	)
	if got != 2 {
		t.Errorf("Expected 2 blocked policy decisions, got %v", got)
	}

	got = testutil.ToFloat64(
		collector.decisionMetrics.decisionsTotal.WithLabelValues("approved", "cache", "cache_hit"),
	)
	if got != 1 {
		t.Errorf("Expected 1 approved cache decision, got %v", got)
	}
}

func TestCollector_CacheMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	collector.RecordCacheHit("fingerprint")
	collector.RecordCacheHit("fingerprint")
	collector.RecordCacheMiss("fingerprint")
	collector.UpdateCacheSize("fingerprint", 42)

	if got := testutil.ToFloat64(collector.cacheMetrics.hitsTotal.WithLabelValues("fingerprint")); got != 2 {
		t.Errorf("Expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(collector.cacheMetrics.missesTotal.WithLabelValues("fingerprint")); got != 1 {
		t.Errorf("Expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(collector.cacheMetrics.entries.WithLabelValues("fingerprint")); got != 42 {
		t.Errorf("Expected size 42, got %v", got)
	}
}

func TestCollector_BreakerMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	collector.RecordBreakerTransition("policy", "closed", "open")
	collector.RecordBreakerBypass("policy")
	collector.RecordBreakerBypass("policy")

	if got := testutil.ToFloat64(collector.breakerMetrics.state.WithLabelValues("policy")); got != 2 {
		t.Errorf("Expected open state gauge 2, got %v", got)
	}

	collector.RecordBreakerTransition("policy", "open", "half_open")
	if got := testutil.ToFloat64(collector.breakerMetrics.state.WithLabelValues("policy")); got != 1 {
		t.Errorf("Expected half_open state gauge 1, got %v", got)
	}

	collector.RecordBreakerTransition("policy", "half_open", "closed")
	if got := testutil.ToFloat64(collector.breakerMetrics.state.WithLabelValues("policy")); got != 0 {
		t.Errorf("Expected closed state gauge 0, got %v", got)
	}

	if got := testutil.ToFloat64(collector.breakerMetrics.bypassTotal.WithLabelValues("policy")); got != 2 {
		t.Errorf("Expected 2 bypasses, got %v", got)
	}
}

func TestCollector_EscalationMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	collector.RecordEscalationOpened()
	collector.RecordEscalationAttached()
	collector.RecordEscalationAttached()
	collector.UpdatePendingEscalations(1)
	collector.RecordEscalationResult("resolved")

	if got := testutil.ToFloat64(collector.escalationMetrics.openedTotal); got != 1 {
		t.Errorf("Expected 1 opened ticket, got %v", got)
	}
	if got := testutil.ToFloat64(collector.escalationMetrics.attachedTotal); got != 2 {
		t.Errorf("Expected 2 attached requests, got %v", got)
	}
	if got := testutil.ToFloat64(collector.escalationMetrics.resultTotal.WithLabelValues("resolved")); got != 1 {
		t.Errorf("Expected 1 resolved ticket, got %v", got)
	}
}

func TestCollector_DisabledIsNoop(t *testing.T) {
	registry := prometheus.NewRegistry()
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, registry)

	collector.RecordDecision("approved", "cache", "cache_hit", time.Millisecond)
	collector.RecordCacheHit("fingerprint")
	collector.RecordEscalationOpened()

	if got := testutil.ToFloat64(collector.escalationMetrics.openedTotal); got != 0 {
		t.Errorf("Expected disabled collector to record nothing, got %v", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)
	collector.RecordDecision("approved", "policy", "policy_allow", time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from metrics handler, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_decisions_total") {
		t.Errorf("Expected decisions metric in exposition, got:\n%s", rec.Body.String())
	}
}
