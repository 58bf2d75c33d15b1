package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/switchboard-orch/switchboard/internal/domain"
	"github.com/switchboard-orch/switchboard/internal/domain/complexity"
	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/domain/taskforce"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Decisions ---

func (s *Store) AppendDecision(ctx context.Context, d *decision.Decision) error {
	scoreJSON, err := json.Marshal(d.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO decisions (id, task_id, decision_type, score, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.TaskID, d.Type, scoreJSON, d.RequestID, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

func (s *Store) GetDecision(ctx context.Context, id string) (*decision.Decision, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, task_id, decision_type, score, request_id, created_at
		 FROM decisions WHERE id = $1`, id)

	d, err := scanDecision(row)
	if err != nil {
		return nil, notFoundWrap(err, "get decision %s", id)
	}
	return &d, nil
}

func (s *Store) ListDecisionsByTask(ctx context.Context, taskID string) ([]decision.Decision, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, decision_type, score, request_id, created_at
		 FROM decisions WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list decisions for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var decisions []decision.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return orEmpty(decisions), rows.Err()
}

func (s *Store) DecisionStats(ctx context.Context) (*decision.Stats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT decision_type, COUNT(*) FROM decisions GROUP BY decision_type`)
	if err != nil {
		return nil, fmt.Errorf("decision stats: %w", err)
	}
	defer rows.Close()

	stats := &decision.Stats{ByType: make(map[decision.Type]int)}
	for rows.Next() {
		var typ decision.Type
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("scan decision stats: %w", err)
		}
		stats.ByType[typ] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

func scanDecision(row scannable) (decision.Decision, error) {
	var d decision.Decision
	var scoreJSON []byte

	if err := row.Scan(&d.ID, &d.TaskID, &d.Type, &scoreJSON, &d.RequestID, &d.CreatedAt); err != nil {
		return decision.Decision{}, err
	}

	if len(scoreJSON) > 0 {
		var score complexity.Score
		if err := json.Unmarshal(scoreJSON, &score); err != nil {
			return decision.Decision{}, fmt.Errorf("unmarshal score: %w", err)
		}
		d.Score = &score
	}
	return d, nil
}

// --- Task forces ---

func (s *Store) CreateTaskForce(ctx context.Context, tf *taskforce.TaskForce) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create task force: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO task_forces (id, objective, status, master_orchestrator_id, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tf.ID, tf.Objective, tf.Status, tf.MasterOrchestratorID, tf.Version, tf.CreatedAt, tf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task force: %w", err)
	}

	// The ordinal preserves assembly order across read-back; the
	// coordinator always sits at 0.
	for i := range tf.Members {
		m := &tf.Members[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO task_force_members (id, task_force_id, agent_id, agent_role, ordinal, joined_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, m.TaskForceID, m.AgentID, m.Role, i, m.JoinedAt)
		if err != nil {
			return fmt.Errorf("create task force member %s: %w", m.Role, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create task force: %w", err)
	}
	return nil
}

func (s *Store) GetTaskForce(ctx context.Context, id string) (*taskforce.TaskForce, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, objective, status, master_orchestrator_id, version, created_at, updated_at
		 FROM task_forces WHERE id = $1`, id)

	var tf taskforce.TaskForce
	err := row.Scan(&tf.ID, &tf.Objective, &tf.Status, &tf.MasterOrchestratorID,
		&tf.Version, &tf.CreatedAt, &tf.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get task force %s", id)
	}

	members, err := s.listMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	tf.Members = members
	return &tf, nil
}

func (s *Store) ListTaskForces(ctx context.Context) ([]taskforce.TaskForce, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, objective, status, master_orchestrator_id, version, created_at, updated_at
		 FROM task_forces ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list task forces: %w", err)
	}
	defer rows.Close()

	var forces []taskforce.TaskForce
	for rows.Next() {
		var tf taskforce.TaskForce
		err := rows.Scan(&tf.ID, &tf.Objective, &tf.Status, &tf.MasterOrchestratorID,
			&tf.Version, &tf.CreatedAt, &tf.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan task force: %w", err)
		}
		forces = append(forces, tf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range forces {
		members, err := s.listMembers(ctx, forces[i].ID)
		if err != nil {
			return nil, err
		}
		forces[i].Members = members
	}
	return orEmpty(forces), nil
}

func (s *Store) UpdateTaskForceStatus(ctx context.Context, id string, status taskforce.Status, expectedVersion int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE task_forces SET status = $2, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $3`, id, status, expectedVersion)
	if err != nil {
		return fmt.Errorf("update task force %s status: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Zero rows means either the record is gone or another writer bumped
	// the version first; tell them apart for the caller.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM task_forces WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("update task force %s status: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("update task force %s status: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("task force %s modified concurrently: %w", id, domain.ErrConflict)
}

func (s *Store) listMembers(ctx context.Context, taskForceID string) ([]taskforce.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_force_id, agent_id, agent_role, joined_at
		 FROM task_force_members WHERE task_force_id = $1 ORDER BY ordinal`, taskForceID)
	if err != nil {
		return nil, fmt.Errorf("list members for task force %s: %w", taskForceID, err)
	}
	defer rows.Close()

	var members []taskforce.Member
	for rows.Next() {
		var m taskforce.Member
		if err := rows.Scan(&m.ID, &m.TaskForceID, &m.AgentID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return orEmpty(members), rows.Err()
}
