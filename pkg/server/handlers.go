package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"sentinel-hq/ceres/pkg/dispatcher"
	"sentinel-hq/ceres/pkg/escalation"
	"sentinel-hq/ceres/pkg/validation"
)

// ValidateHandler serves POST /v1/validate: one command in, one decision
// out. The handler never returns a 5xx for tier trouble; the dispatcher's
// safe defaults keep the contract "a decision, always".
type ValidateHandler struct {
	Dispatcher *dispatcher.Dispatcher
	Logger     *slog.Logger
}

// ValidateRequest is the inbound request body.
type ValidateRequest struct {
	AgentID     string   `json:"agent_id"`
	Command     string   `json:"command"`
	WorkingDir  string   `json:"working_dir,omitempty"`
	Paths       []string `json:"paths,omitempty"`
	PayloadSize int64    `json:"payload_size,omitempty"`
	RiskHints   []string `json:"risk_hints,omitempty"`
}

func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.AgentID == "" || body.Command == "" {
		writeError(w, http.StatusBadRequest, "agent_id and command are required")
		return
	}

	req := &validation.Request{
		ID:          uuid.NewString(),
		AgentID:     body.AgentID,
		Command:     body.Command,
		WorkingDir:  body.WorkingDir,
		Paths:       body.Paths,
		PayloadSize: body.PayloadSize,
		RiskHints:   body.RiskHints,
		SubmittedAt: time.Now(),
	}

	decision := h.Dispatcher.Validate(r.Context(), req)
	writeJSON(w, http.StatusOK, decision)
}

// AnswerHandler serves POST /v1/answers: expert answers and operator
// overrides correlated back to pending tickets.
type AnswerHandler struct {
	Escalator *escalation.Coordinator
	Logger    *slog.Logger
}

// AnswerRequest is the inbound answer body.
type AnswerRequest struct {
	TicketID string `json:"ticket_id"`
	Approve  bool   `json:"approve"`
	ExpertID string `json:"expert_id"`
	Comment  string `json:"comment,omitempty"`
}

func (h *AnswerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.TicketID == "" {
		writeError(w, http.StatusBadRequest, "ticket_id is required")
		return
	}

	err := h.Escalator.Resolve(body.TicketID, &escalation.Answer{
		Approve:  body.Approve,
		ExpertID: body.ExpertID,
		Comment:  body.Comment,
	})
	if err != nil {
		// Unknown or already-closed ticket. The answer is discarded by
		// contract; tell the expert their verdict changed nothing.
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// HealthHandler serves GET /healthz.
type HealthHandler struct{}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
