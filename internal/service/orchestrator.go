package service

import (
	"context"
	"fmt"
	"log/slog"

	obs "github.com/switchboard-orch/switchboard/internal/adapter/otel"
	"github.com/switchboard-orch/switchboard/internal/adapter/ws"
	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/domain/taskforce"
	"github.com/switchboard-orch/switchboard/internal/port/broadcast"
	"github.com/switchboard-orch/switchboard/internal/port/messagequeue"
	"github.com/switchboard-orch/switchboard/internal/resilience"
)

// MasterOrchestratorID identifies this service as the coordinating
// orchestrator on task forces it assembles.
const MasterOrchestratorID = "switchboard-master"

// Result statuses for the three execution strategies.
const (
	StatusDispatched = "dispatched"
	StatusDelegated  = "delegated"
	StatusEscalated  = "escalated"
)

// dispatchMessage is the payload published for sequential execution.
type dispatchMessage struct {
	TaskID          string `json:"task_id"`
	TaskDescription string `json:"task_description"`
	AgentID         string `json:"agent_id,omitempty"`
	DecisionID      string `json:"decision_id"`
}

// escalationMessage is the payload published when a task needs human oversight.
type escalationMessage struct {
	TaskID          string `json:"task_id"`
	TaskDescription string `json:"task_description"`
	DecisionID      string `json:"decision_id"`
}

// OrchestratorService is the single entry point for task routing. It asks
// the decision engine for a strategy and then acts on it: dispatch the
// task, assemble a task force, or request escalation.
type OrchestratorService struct {
	engine  *EngineService
	forces  *TaskForceService
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	hub     broadcast.Broadcaster
	metrics *obs.Metrics
}

// NewOrchestratorService creates a new OrchestratorService.
func NewOrchestratorService(engine *EngineService, forces *TaskForceService, queue messagequeue.Queue, breaker *resilience.Breaker, hub broadcast.Broadcaster) *OrchestratorService {
	return &OrchestratorService{
		engine:  engine,
		forces:  forces,
		queue:   queue,
		breaker: breaker,
		hub:     hub,
	}
}

// SetMetrics enables metric instrumentation.
func (s *OrchestratorService) SetMetrics(m *obs.Metrics) {
	s.metrics = m
}

// Orchestrate decides how a task should be executed and carries the
// decision out. The decision is logged even when the follow-up action
// (dispatch or escalation publish) fails.
func (s *OrchestratorService) Orchestrate(ctx context.Context, req *decision.OrchestrateRequest) (*decision.Result, error) {
	spanCtx, span := obs.StartOrchestrateSpan(ctx, req.TaskID, req.AgentID)
	defer span.End()
	ctx = spanCtx

	d, err := s.engine.MakeDecision(ctx, &decision.MakeRequest{
		TaskID:          req.TaskID,
		TaskDescription: req.TaskDescription,
		Context:         req.Context,
		ForceEscalation: req.ForceEscalation,
	})
	if err != nil {
		return nil, err
	}

	result := &decision.Result{
		TaskID:   req.TaskID,
		Type:     d.Type,
		Decision: d,
	}

	switch d.Type {
	case decision.TypeSequential:
		msg := dispatchMessage{
			TaskID:          req.TaskID,
			TaskDescription: req.TaskDescription,
			AgentID:         req.AgentID,
			DecisionID:      d.ID,
		}
		if err := publishJSON(ctx, s.queue, s.breaker, messagequeue.SubjectTaskDispatch, msg); err != nil {
			slog.Error("failed to dispatch task", "task_id", req.TaskID, "error", err)
		}
		result.Status = StatusDispatched

	case decision.TypeTaskForce:
		tf, err := s.forces.Create(ctx, &taskforce.CreateRequest{
			Objective:            req.TaskDescription,
			MasterOrchestratorID: MasterOrchestratorID,
			Roles:                taskforce.MatchRoles(req.TaskDescription),
		})
		if err != nil {
			return nil, fmt.Errorf("assemble task force for task %s: %w", req.TaskID, err)
		}
		result.Status = StatusDelegated
		result.TaskForceID = tf.ID

	case decision.TypeEscalation:
		msg := escalationMessage{
			TaskID:          req.TaskID,
			TaskDescription: req.TaskDescription,
			DecisionID:      d.ID,
		}
		if err := publishJSON(ctx, s.queue, s.breaker, messagequeue.SubjectEscalationRequested, msg); err != nil {
			slog.Error("failed to publish escalation", "task_id", req.TaskID, "error", err)
		}
		s.hub.BroadcastEvent(ctx, ws.EventEscalation, ws.EscalationEvent{
			TaskID:     req.TaskID,
			DecisionID: d.ID,
		})
		if s.metrics != nil {
			s.metrics.Escalations.Add(ctx, 1)
		}
		result.Status = StatusEscalated

	default:
		return nil, fmt.Errorf("%w: %q", decision.ErrUnknownType, d.Type)
	}

	slog.Info("task orchestrated",
		"task_id", req.TaskID,
		"type", d.Type,
		"status", result.Status)

	return result, nil
}
