package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/switchboard-orch/switchboard/internal/domain"
	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/domain/taskforce"
	"github.com/switchboard-orch/switchboard/internal/port/messagequeue"
	"github.com/switchboard-orch/switchboard/internal/service"
)

// fakeStore implements database.Store in memory.
type fakeStore struct {
	decisions []decision.Decision
	forces    map[string]*taskforce.TaskForce
}

func newFakeStore() *fakeStore {
	return &fakeStore{forces: make(map[string]*taskforce.TaskForce)}
}

func (f *fakeStore) AppendDecision(_ context.Context, d *decision.Decision) error {
	f.decisions = append(f.decisions, *d)
	return nil
}

func (f *fakeStore) GetDecision(_ context.Context, id string) (*decision.Decision, error) {
	for i := range f.decisions {
		if f.decisions[i].ID == id {
			d := f.decisions[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("get decision %s: %w", id, domain.ErrNotFound)
}

func (f *fakeStore) ListDecisionsByTask(_ context.Context, taskID string) ([]decision.Decision, error) {
	var out []decision.Decision
	for _, d := range f.decisions {
		if d.TaskID == taskID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) DecisionStats(_ context.Context) (*decision.Stats, error) {
	stats := &decision.Stats{ByType: make(map[decision.Type]int)}
	for _, d := range f.decisions {
		stats.ByType[d.Type]++
		stats.Total++
	}
	return stats, nil
}

func (f *fakeStore) CreateTaskForce(_ context.Context, tf *taskforce.TaskForce) error {
	cp := *tf
	f.forces[tf.ID] = &cp
	return nil
}

func (f *fakeStore) GetTaskForce(_ context.Context, id string) (*taskforce.TaskForce, error) {
	tf, ok := f.forces[id]
	if !ok {
		return nil, fmt.Errorf("get task force %s: %w", id, domain.ErrNotFound)
	}
	cp := *tf
	return &cp, nil
}

func (f *fakeStore) ListTaskForces(_ context.Context) ([]taskforce.TaskForce, error) {
	out := make([]taskforce.TaskForce, 0, len(f.forces))
	for _, tf := range f.forces {
		out = append(out, *tf)
	}
	return out, nil
}

func (f *fakeStore) UpdateTaskForceStatus(_ context.Context, id string, status taskforce.Status, expectedVersion int) error {
	tf, ok := f.forces[id]
	if !ok {
		return fmt.Errorf("update task force %s status: %w", id, domain.ErrNotFound)
	}
	if tf.Version != expectedVersion {
		return fmt.Errorf("task force %s modified concurrently: %w", id, domain.ErrConflict)
	}
	tf.Status = status
	tf.Version++
	return nil
}

// fakeQueue implements messagequeue.Queue and records publishes.
type fakeQueue struct {
	subjects []string
}

func (q *fakeQueue) Publish(_ context.Context, subject string, _ []byte) error {
	q.subjects = append(q.subjects, subject)
	return nil
}

func (q *fakeQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *fakeQueue) Close() error { return nil }

// fakeHub implements broadcast.Broadcaster.
type fakeHub struct{ count int }

func (h *fakeHub) BroadcastEvent(_ context.Context, _ string, _ any) { h.count++ }

func newTestRouter() (chi.Router, *fakeStore) {
	store := newFakeStore()
	queue := &fakeQueue{}
	hub := &fakeHub{}

	engine := service.NewEngineService(store, queue, nil, hub)
	forces := service.NewTaskForceService(store, queue, nil, hub, 5, "agent")
	orch := service.NewOrchestratorService(engine, forces, queue, nil, hub)

	h := &Handlers{Orchestrator: orch, Engine: engine, Forces: forces}
	r := chi.NewRouter()
	MountRoutes(r, h)
	return r, store
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOrchestrateEndpoint(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/orchestrate", map[string]any{
		"task_id":          "t1",
		"task_description": "Update user profile",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res decision.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Type != decision.TypeSequential || res.Status != "dispatched" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestOrchestrateEndpointTaskForce(t *testing.T) {
	r, store := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/orchestrate", map[string]any{
		"task_id":          "t2",
		"task_description": "Implement comprehensive security audit across multiple database systems with testing",
		"context": map[string]any{
			"num_subtasks":    5,
			"required_skills": []string{"security", "database", "testing"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res decision.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Type != decision.TypeTaskForce || res.TaskForceID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := store.forces[res.TaskForceID]; !ok {
		t.Fatal("task force not persisted")
	}
}

func TestOrchestrateEndpointInvalidBody(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orchestrate", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestScoreEndpoint(t *testing.T) {
	r, store := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/score", map[string]any{
		"task_description": "Update user profile",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Dimensions            map[string]float64 `json:"dimensions"`
		TotalScore            float64            `json:"total_score"`
		RequiresCollaboration bool               `json:"requires_collaboration"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Dimensions) != 5 {
		t.Fatalf("expected 5 dimensions, got %d", len(body.Dimensions))
	}

	// Scoring alone must not log a decision.
	if len(store.decisions) != 0 {
		t.Fatalf("expected no decisions, got %d", len(store.decisions))
	}
}

func TestScoreEndpointEmptyDescription(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/score", map[string]any{
		"task_description": "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestScoreEndpointInvalidContext(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/score", map[string]any{
		"task_description": "Update user profile",
		"context":          map[string]any{"num_subtasks": -1},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMakeDecisionEndpoint(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/decisions", map[string]any{
		"task_id":          "t1",
		"task_description": "Update user profile",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var d decision.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}

	// Round-trip through the read API.
	rec = doJSON(t, r, http.MethodGet, "/api/v1/decisions/"+d.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMakeDecisionEndpointMissingTaskID(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/decisions", map[string]any{
		"task_description": "Update user profile",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetDecisionNotFound(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodGet, "/api/v1/decisions/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDecisionStatsEndpoint(t *testing.T) {
	r, _ := newTestRouter()

	for i := range 3 {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/decisions", map[string]any{
			"task_id":          fmt.Sprintf("t%d", i),
			"task_description": "Update user profile",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("decision %d: expected 201, got %d", i, rec.Code)
		}
	}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/decisions/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats decision.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 {
		t.Fatalf("expected 3 decisions, got %d", stats.Total)
	}
}

func TestTaskDecisionHistoryEndpoint(t *testing.T) {
	r, _ := newTestRouter()

	for range 2 {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/decisions", map[string]any{
			"task_id":          "t1",
			"task_description": "Update user profile",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/tasks/t1/decisions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var list []decision.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(list))
	}
}

func TestTaskForceLifecycleEndpoints(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/taskforces", map[string]any{
		"objective":              "audit the payment flow",
		"master_orchestrator_id": "switchboard-master",
		"roles":                  []string{"coordinator", "security_analyst"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var tf taskforce.TaskForce
	if err := json.Unmarshal(rec.Body.Bytes(), &tf); err != nil {
		t.Fatal(err)
	}
	if len(tf.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(tf.Members))
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/taskforces", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/taskforces/"+tf.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/taskforces/"+tf.ID+"/status", map[string]any{
		"status": "resolved",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Resolved is terminal: a further transition conflicts.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/taskforces/"+tf.ID+"/status", map[string]any{
		"status": "active",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTaskForceCreateValidationEndpoint(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/taskforces", map[string]any{
		"objective": "no roles",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthEndpointDegraded(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	hub := &fakeHub{}
	engine := service.NewEngineService(store, queue, nil, hub)
	forces := service.NewTaskForceService(store, queue, nil, hub, 5, "agent")
	orch := service.NewOrchestratorService(engine, forces, queue, nil, hub)

	h := &Handlers{
		Orchestrator: orch,
		Engine:       engine,
		Forces:       forces,
		ReadyCheck:   func(context.Context) error { return errors.New("db unreachable") },
	}
	r := chi.NewRouter()
	MountRoutes(r, h)

	rec := doJSON(t, r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
