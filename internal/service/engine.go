// Package service implements business logic on top of ports.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	obs "github.com/switchboard-orch/switchboard/internal/adapter/otel"
	"github.com/switchboard-orch/switchboard/internal/adapter/ws"
	"github.com/switchboard-orch/switchboard/internal/domain/complexity"
	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/logger"
	"github.com/switchboard-orch/switchboard/internal/port/broadcast"
	"github.com/switchboard-orch/switchboard/internal/port/cache"
	"github.com/switchboard-orch/switchboard/internal/port/database"
	"github.com/switchboard-orch/switchboard/internal/port/messagequeue"
	"github.com/switchboard-orch/switchboard/internal/resilience"
)

// EngineService scores tasks and routes them to an execution strategy.
// Every decision is appended to the decision log before it takes effect.
type EngineService struct {
	store   database.Store
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	hub     broadcast.Broadcaster

	scoreCache cache.Cache
	scoreTTL   time.Duration
	metrics    *obs.Metrics
}

// NewEngineService creates a new EngineService.
func NewEngineService(store database.Store, queue messagequeue.Queue, breaker *resilience.Breaker, hub broadcast.Broadcaster) *EngineService {
	return &EngineService{store: store, queue: queue, breaker: breaker, hub: hub}
}

// SetScoreCache enables score memoization with the given cache and TTL.
func (s *EngineService) SetScoreCache(c cache.Cache, ttl time.Duration) {
	s.scoreCache = c
	s.scoreTTL = ttl
}

// SetMetrics enables metric instrumentation.
func (s *EngineService) SetMetrics(m *obs.Metrics) {
	s.metrics = m
}

// Score computes the complexity score for a task description and context
// without recording a decision.
func (s *EngineService) Score(ctx context.Context, description string, taskCtx map[string]any) (*complexity.Score, error) {
	tc, err := complexity.ParseContext(taskCtx)
	if err != nil {
		return nil, err
	}
	return s.scoreMemoized(ctx, description, tc)
}

// MakeDecision scores the task, picks an execution strategy, and appends
// the decision to the log. The append must succeed for the decision to
// count; publish and broadcast failures are logged but not fatal.
func (s *EngineService) MakeDecision(ctx context.Context, req *decision.MakeRequest) (*decision.Decision, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tc, err := complexity.ParseContext(req.Context)
	if err != nil {
		return nil, err
	}

	spanCtx, span := obs.StartDecisionSpan(ctx, req.TaskID)
	defer span.End()
	ctx = spanCtx

	score, err := s.scoreMemoized(ctx, req.TaskDescription, tc)
	if err != nil {
		return nil, err
	}

	typ := decision.TypeSequential
	if score.RequiresCollaboration {
		typ = decision.TypeTaskForce
	}
	if req.ForceEscalation {
		typ = decision.TypeEscalation
	}

	d := &decision.Decision{
		ID:        uuid.NewString(),
		TaskID:    req.TaskID,
		Type:      typ,
		Score:     score,
		RequestID: logger.RequestID(ctx),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.AppendDecision(ctx, d); err != nil {
		return nil, err
	}

	if err := publishJSON(ctx, s.queue, s.breaker, messagequeue.SubjectDecisionCreated, d); err != nil {
		slog.Error("failed to publish decision", "decision_id", d.ID, "error", err)
	}

	s.hub.BroadcastEvent(ctx, ws.EventDecisionCreated, ws.DecisionCreatedEvent{
		DecisionID: d.ID,
		TaskID:     d.TaskID,
		Type:       string(d.Type),
		TotalScore: score.TotalScore,
	})

	if s.metrics != nil {
		s.metrics.DecisionsMade.Add(ctx, 1, metric.WithAttributes(
			attribute.String("decision.type", string(d.Type))))
	}

	slog.Info("decision made",
		"decision_id", d.ID,
		"task_id", d.TaskID,
		"type", d.Type,
		"total_score", score.TotalScore)

	return d, nil
}

// GetDecision returns a single decision from the log.
func (s *EngineService) GetDecision(ctx context.Context, id string) (*decision.Decision, error) {
	return s.store.GetDecision(ctx, id)
}

// ListByTask returns the decision history for a task, oldest first.
func (s *EngineService) ListByTask(ctx context.Context, taskID string) ([]decision.Decision, error) {
	return s.store.ListDecisionsByTask(ctx, taskID)
}

// Stats returns decision counts grouped by type.
func (s *EngineService) Stats(ctx context.Context) (*decision.Stats, error) {
	return s.store.DecisionStats(ctx)
}

// scoreMemoized computes a score, consulting the cache first. Scoring is
// deterministic, so a cached score is always valid until its TTL expires.
func (s *EngineService) scoreMemoized(ctx context.Context, description string, tc *complexity.TaskContext) (*complexity.Score, error) {
	start := time.Now()

	key := scoreCacheKey(description, tc)
	if s.scoreCache != nil {
		if data, ok, err := s.scoreCache.Get(ctx, key); err == nil && ok {
			var cached complexity.Score
			if err := json.Unmarshal(data, &cached); err == nil {
				if s.metrics != nil {
					s.metrics.ScoreCacheHits.Add(ctx, 1)
				}
				return &cached, nil
			}
		}
	}

	score, err := complexity.ScoreTask(description, tc)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ScoringDuration.Record(ctx, time.Since(start).Seconds())
	}

	if s.scoreCache != nil {
		if data, err := json.Marshal(score); err == nil {
			_ = s.scoreCache.Set(ctx, key, data, s.scoreTTL)
		}
	}
	return score, nil
}

// scoreCacheKey derives a stable cache key from the description and the
// canonical context form.
func scoreCacheKey(description string, tc *complexity.TaskContext) string {
	sum := sha256.Sum256([]byte(description + "\x00" + tc.CacheKey()))
	return "score:" + hex.EncodeToString(sum[:])
}
