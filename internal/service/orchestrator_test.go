package service

import (
	"context"
	"errors"
	"testing"

	"github.com/switchboard-orch/switchboard/internal/domain"
	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/port/messagequeue"
)

func newTestOrchestrator() (*OrchestratorService, *mockStore, *mockQueue, *mockHub) {
	store := newMockStore()
	queue := &mockQueue{}
	hub := &mockHub{}
	engine := NewEngineService(store, queue, nil, hub)
	forces := NewTaskForceService(store, queue, nil, hub, 5, "agent")
	return NewOrchestratorService(engine, forces, queue, nil, hub), store, queue, hub
}

func publishedSubjects(q *mockQueue) []string {
	out := make([]string, 0, len(q.published))
	for _, p := range q.published {
		out = append(out, p.subject)
	}
	return out
}

func TestOrchestrateSequential(t *testing.T) {
	svc, _, queue, _ := newTestOrchestrator()

	res, err := svc.Orchestrate(context.Background(), &decision.OrchestrateRequest{
		TaskID:          "t1",
		TaskDescription: "Update user profile",
		AgentID:         "agent-7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Type != decision.TypeSequential {
		t.Fatalf("expected sequential, got %s", res.Type)
	}
	if res.Status != StatusDispatched {
		t.Fatalf("expected dispatched, got %q", res.Status)
	}
	if res.TaskForceID != "" {
		t.Fatal("sequential result must not carry a task force ID")
	}

	subjects := publishedSubjects(queue)
	want := map[string]bool{
		messagequeue.SubjectDecisionCreated: false,
		messagequeue.SubjectTaskDispatch:    false,
	}
	for _, s := range subjects {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for s, seen := range want {
		if !seen {
			t.Fatalf("expected publish on %s, got %v", s, subjects)
		}
	}
}

func TestOrchestrateTaskForce(t *testing.T) {
	svc, store, _, _ := newTestOrchestrator()

	res, err := svc.Orchestrate(context.Background(), &decision.OrchestrateRequest{
		TaskID:          "t2",
		TaskDescription: complexDescription,
		Context:         complexContext(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Type != decision.TypeTaskForce {
		t.Fatalf("expected task_force, got %s", res.Type)
	}
	if res.Status != StatusDelegated {
		t.Fatalf("expected delegated, got %q", res.Status)
	}
	if res.TaskForceID == "" {
		t.Fatal("expected task force ID on result")
	}

	tf, ok := store.forces[res.TaskForceID]
	if !ok {
		t.Fatal("task force not persisted")
	}
	if tf.MasterOrchestratorID != MasterOrchestratorID {
		t.Fatalf("expected master %q, got %q", MasterOrchestratorID, tf.MasterOrchestratorID)
	}
	if len(tf.Members) == 0 || tf.Members[0].Role != "coordinator" {
		t.Fatalf("expected coordinator as first member, got %+v", tf.Members)
	}
}

func TestOrchestrateEscalation(t *testing.T) {
	svc, _, queue, hub := newTestOrchestrator()

	res, err := svc.Orchestrate(context.Background(), &decision.OrchestrateRequest{
		TaskID:          "t3",
		TaskDescription: "Update user profile",
		ForceEscalation: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Type != decision.TypeEscalation {
		t.Fatalf("expected escalation, got %s", res.Type)
	}
	if res.Status != StatusEscalated {
		t.Fatalf("expected escalated, got %q", res.Status)
	}

	found := false
	for _, s := range publishedSubjects(queue) {
		if s == messagequeue.SubjectEscalationRequested {
			found = true
		}
	}
	if !found {
		t.Fatal("expected publish on escalations.requested")
	}
	if len(hub.events) != 2 { // decision.created + escalation.requested
		t.Fatalf("expected 2 broadcast events, got %d", len(hub.events))
	}
}

func TestOrchestrateValidation(t *testing.T) {
	svc, _, _, _ := newTestOrchestrator()

	_, err := svc.Orchestrate(context.Background(), &decision.OrchestrateRequest{
		TaskDescription: "missing task id",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOrchestrateDecisionLoggedBeforeAction(t *testing.T) {
	svc, store, queue, _ := newTestOrchestrator()
	queue.publishErr = errors.New("nats down")

	// Dispatch fails but the decision must already be in the log.
	res, err := svc.Orchestrate(context.Background(), &decision.OrchestrateRequest{
		TaskID:          "t4",
		TaskDescription: "Update user profile",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusDispatched {
		t.Fatalf("expected dispatched, got %q", res.Status)
	}
	if len(store.decisions) != 1 {
		t.Fatalf("expected 1 logged decision, got %d", len(store.decisions))
	}
}
