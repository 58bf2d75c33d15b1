package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	obs "github.com/switchboard-orch/switchboard/internal/adapter/otel"
	"github.com/switchboard-orch/switchboard/internal/adapter/ws"
	"github.com/switchboard-orch/switchboard/internal/domain"
	"github.com/switchboard-orch/switchboard/internal/domain/taskforce"
	"github.com/switchboard-orch/switchboard/internal/port/broadcast"
	"github.com/switchboard-orch/switchboard/internal/port/database"
	"github.com/switchboard-orch/switchboard/internal/port/messagequeue"
	"github.com/switchboard-orch/switchboard/internal/resilience"
)

// TaskForceService manages task force lifecycle: assembly, lookup, and
// status transitions.
type TaskForceService struct {
	store   database.Store
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	hub     broadcast.Broadcaster

	maxTeamSize   int
	agentIDPrefix string
	metrics       *obs.Metrics
}

// NewTaskForceService creates a new TaskForceService.
func NewTaskForceService(store database.Store, queue messagequeue.Queue, breaker *resilience.Breaker, hub broadcast.Broadcaster, maxTeamSize int, agentIDPrefix string) *TaskForceService {
	return &TaskForceService{
		store:         store,
		queue:         queue,
		breaker:       breaker,
		hub:           hub,
		maxTeamSize:   maxTeamSize,
		agentIDPrefix: agentIDPrefix,
	}
}

// SetMetrics enables metric instrumentation.
func (s *TaskForceService) SetMetrics(m *obs.Metrics) {
	s.metrics = m
}

// Create assembles a new task force with one member per requested role.
// The coordinator role always survives truncation when the requested roles
// exceed the configured team size.
func (s *TaskForceService) Create(ctx context.Context, req *taskforce.CreateRequest) (*taskforce.TaskForce, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	spanCtx, span := obs.StartTaskForceSpan(ctx, req.Objective)
	defer span.End()
	ctx = spanCtx

	roles := req.Roles
	if len(roles) > s.maxTeamSize {
		slog.Warn("truncating task force roles",
			"requested", len(roles),
			"max", s.maxTeamSize)
		roles = roles[:s.maxTeamSize]
	}

	now := time.Now().UTC()
	tf := &taskforce.TaskForce{
		ID:                   uuid.NewString(),
		Objective:            req.Objective,
		Status:               taskforce.StatusActive,
		MasterOrchestratorID: req.MasterOrchestratorID,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	tf.Members = make([]taskforce.Member, 0, len(roles))
	for _, role := range roles {
		tf.Members = append(tf.Members, taskforce.Member{
			ID:          uuid.NewString(),
			TaskForceID: tf.ID,
			AgentID:     fmt.Sprintf("%s-%s", s.agentIDPrefix, role),
			Role:        role,
			JoinedAt:    now,
		})
	}

	if err := s.store.CreateTaskForce(ctx, tf); err != nil {
		return nil, err
	}

	if err := publishJSON(ctx, s.queue, s.breaker, messagequeue.SubjectTaskForceCreated, tf); err != nil {
		slog.Error("failed to publish task force", "task_force_id", tf.ID, "error", err)
	}

	s.hub.BroadcastEvent(ctx, ws.EventTaskForceCreated, ws.TaskForceCreatedEvent{
		TaskForceID: tf.ID,
		Objective:   tf.Objective,
		Roles:       roles,
	})

	if s.metrics != nil {
		s.metrics.TaskForcesCreated.Add(ctx, 1)
	}

	slog.Info("task force created",
		"task_force_id", tf.ID,
		"members", len(tf.Members))

	return tf, nil
}

// Get returns a task force with its members.
func (s *TaskForceService) Get(ctx context.Context, id string) (*taskforce.TaskForce, error) {
	return s.store.GetTaskForce(ctx, id)
}

// List returns all task forces, newest first.
func (s *TaskForceService) List(ctx context.Context) ([]taskforce.TaskForce, error) {
	return s.store.ListTaskForces(ctx)
}

// UpdateStatus applies a lifecycle transition. Unknown statuses are
// rejected as validation errors; disallowed transitions as conflicts.
func (s *TaskForceService) UpdateStatus(ctx context.Context, id string, status taskforce.Status) (*taskforce.TaskForce, error) {
	if !taskforce.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	tf, err := s.store.GetTaskForce(ctx, id)
	if err != nil {
		return nil, err
	}

	if !tf.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: cannot transition task force from %s to %s", domain.ErrConflict, tf.Status, status)
	}

	// The conditional update guards against a writer that slipped in
	// between the read above and this point.
	if err := s.store.UpdateTaskForceStatus(ctx, id, status, tf.Version); err != nil {
		return nil, err
	}
	tf.Status = status
	tf.Version++
	tf.UpdatedAt = time.Now().UTC()

	s.hub.BroadcastEvent(ctx, ws.EventTaskForceStatus, ws.TaskForceStatusEvent{
		TaskForceID: id,
		Status:      string(status),
	})

	slog.Info("task force status updated", "task_force_id", id, "status", status)
	return tf, nil
}
