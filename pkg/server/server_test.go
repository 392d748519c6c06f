package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentinel-hq/ceres/pkg/breaker"
	"sentinel-hq/ceres/pkg/cache"
	"sentinel-hq/ceres/pkg/config"
	"sentinel-hq/ceres/pkg/dispatcher"
	"sentinel-hq/ceres/pkg/escalation"
	"sentinel-hq/ceres/pkg/pattern"
	"sentinel-hq/ceres/pkg/policy"
	"sentinel-hq/ceres/pkg/validation"
)

type stubEvaluator struct {
	result *policy.Result
}

func (s *stubEvaluator) Evaluate(ctx context.Context, req *validation.Request) (*policy.Result, error) {
	return s.result, nil
}

func newTestServer(t *testing.T, eval policy.Evaluator, scorer pattern.Scorer) (*Server, *escalation.InMemoryChannel) {
	t.Helper()

	channel := escalation.NewInMemoryChannel(16)
	escalator := escalation.NewCoordinator(channel, escalation.Config{
		TargetPool: "test",
		WaitBudget: time.Second,
	}, nil)

	d, err := dispatcher.New(dispatcher.Config{
		TierCallTimeout: time.Second,
		LowWatermark:    0.2,
		HighWatermark:   0.8,
		TTLPolicyMatch:  time.Hour,
		TTLPattern:      time.Minute,
	}, dispatcher.Deps{
		Cache:     cache.NewFingerprintCache(64, nil),
		Policy:    eval,
		Pattern:   scorer,
		Breakers:  breaker.NewRegistry(breaker.DefaultConfig(), nil),
		Escalator: escalator,
	})
	if err != nil {
		t.Fatalf("dispatcher.New failed: %v", err)
	}

	srv := NewServer(config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}, d, escalator, Options{})

	return srv, channel
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestValidateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t,
		&stubEvaluator{result: &policy.Result{Verdict: policy.VerdictDeny, RuleName: "deny-all"}},
		pattern.ScorerFunc(func(ctx context.Context, req *validation.Request) (float64, error) { return 0, nil }),
	)
	handler := srv.Handler()

	rec := postJSON(t, handler, "/v1/validate", ValidateRequest{
		AgentID: "agent-1",
		Command: "rm -rf /",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var decision validation.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &decision); err != nil {
		t.Fatalf("Failed to decode decision: %v", err)
	}
	if decision.Outcome != validation.OutcomeBlocked {
		t.Errorf("Expected blocked, got %s", decision.Outcome)
	}
	if decision.Tier != validation.TierPolicy {
		t.Errorf("Expected policy tier, got %s", decision.Tier)
	}
	if decision.RequestID == "" {
		t.Error("Expected a generated request ID")
	}
}

func TestValidateEndpoint_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t,
		&stubEvaluator{result: &policy.Result{Verdict: policy.VerdictNoMatch}},
		pattern.ScorerFunc(func(ctx context.Context, req *validation.Request) (float64, error) { return 0.05, nil }),
	)
	handler := srv.Handler()

	// Missing fields.
	rec := postJSON(t, handler, "/v1/validate", ValidateRequest{Command: "ls"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing agent_id, got %d", rec.Code)
	}

	// Malformed JSON.
	req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader([]byte("{not json")))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", rec.Code)
	}

	// Wrong method.
	req = httptest.NewRequest(http.MethodGet, "/v1/validate", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", rec.Code)
	}
}

func TestAnswerEndpoint_ResolvesTicket(t *testing.T) {
	srv, channel := newTestServer(t,
		&stubEvaluator{result: &policy.Result{Verdict: policy.VerdictNoMatch}},
		pattern.ScorerFunc(func(ctx context.Context, req *validation.Request) (float64, error) { return 0.5, nil }),
	)
	handler := srv.Handler()

	// Drive a gray-zone request to open a ticket.
	type result struct {
		code int
		body []byte
	}
	done := make(chan result, 1)
	go func() {
		rec := postJSON(t, handler, "/v1/validate", ValidateRequest{
			AgentID: "agent-1",
			Command: "kubectl delete ns prod",
		})
		done <- result{rec.Code, rec.Body.Bytes()}
	}()

	var ticketID string
	select {
	case req := <-channel.Requests():
		ticketID = req.TicketID
	case <-time.After(time.Second):
		t.Fatal("No escalation published")
	}

	rec := postJSON(t, handler, "/v1/answers", AnswerRequest{
		TicketID: ticketID,
		Approve:  true,
		ExpertID: "expert-9",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from answer endpoint, got %d: %s", rec.Code, rec.Body.String())
	}

	res := <-done
	var decision validation.Decision
	if err := json.Unmarshal(res.body, &decision); err != nil {
		t.Fatalf("Failed to decode decision: %v", err)
	}
	if decision.Outcome != validation.OutcomeApproved {
		t.Errorf("Expected expert approval, got %s", decision.Outcome)
	}
	if decision.Tier != validation.TierExpert {
		t.Errorf("Expected expert tier, got %s", decision.Tier)
	}

	// A second answer for the same ticket conflicts.
	rec = postJSON(t, handler, "/v1/answers", AnswerRequest{TicketID: ticketID, Approve: false})
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for closed ticket, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t,
		&stubEvaluator{result: &policy.Result{Verdict: policy.VerdictNoMatch}},
		pattern.ScorerFunc(func(ctx context.Context, req *validation.Request) (float64, error) { return 0.05, nil }),
	)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from healthz, got %d", rec.Code)
	}
}
