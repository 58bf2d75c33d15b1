package http

import (
	"context"
	"net/http"

	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/domain/taskforce"
	"github.com/switchboard-orch/switchboard/internal/service"
)

// Handlers holds the services used by the HTTP API.
type Handlers struct {
	Orchestrator *service.OrchestratorService
	Engine       *service.EngineService
	Forces       *service.TaskForceService

	// ReadyCheck reports whether backing services (DB, queue) are reachable.
	// Optional; when nil /health always reports ok.
	ReadyCheck func(ctx context.Context) error
}

// scoreRequest is the body for POST /score.
type scoreRequest struct {
	TaskDescription string         `json:"task_description"`
	Context         map[string]any `json:"context,omitempty"`
}

// statusRequest is the body for POST /taskforces/{id}/status.
type statusRequest struct {
	Status string `json:"status"`
}

// Orchestrate handles POST /api/v1/orchestrate.
func (h *Handlers) Orchestrate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[decision.OrchestrateRequest](w, r)
	if !ok {
		return
	}
	res, err := h.Orchestrator.Orchestrate(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "orchestration failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ScoreTask handles POST /api/v1/score. It computes a complexity score
// without recording a decision.
func (h *Handlers) ScoreTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[scoreRequest](w, r)
	if !ok {
		return
	}
	score, err := h.Engine.Score(r.Context(), req.TaskDescription, req.Context)
	if err != nil {
		writeDomainError(w, err, "scoring failed")
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// MakeDecision handles POST /api/v1/decisions.
func (h *Handlers) MakeDecision(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[decision.MakeRequest](w, r)
	if !ok {
		return
	}
	d, err := h.Engine.MakeDecision(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "decision failed")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// DecisionStats handles GET /api/v1/decisions/stats.
func (h *Handlers) DecisionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Engine.Stats(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UpdateTaskForceStatus handles POST /api/v1/taskforces/{id}/status.
func (h *Handlers) UpdateTaskForceStatus(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[statusRequest](w, r)
	if !ok {
		return
	}
	tf, err := h.Forces.UpdateStatus(r.Context(), id, taskforce.Status(req.Status))
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusOK, tf)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.ReadyCheck != nil {
		if err := h.ReadyCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
