// Package database defines the persistence port for the decision log and
// task force records.
package database

import (
	"context"

	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/domain/taskforce"
)

// Store is the port interface backing the decision engine and the task
// force manager. The decision log is append-only: there is no update or
// delete path for decisions.
type Store interface {
	// AppendDecision persists a new decision. Implementations must surface
	// write failures; a dropped decision would corrupt DecisionStats.
	AppendDecision(ctx context.Context, d *decision.Decision) error

	// GetDecision returns a single decision by ID.
	GetDecision(ctx context.Context, id string) (*decision.Decision, error)

	// ListDecisionsByTask returns all decisions for a task, oldest first.
	ListDecisionsByTask(ctx context.Context, taskID string) ([]decision.Decision, error)

	// DecisionStats returns counts grouped by decision type plus the total.
	DecisionStats(ctx context.Context) (*decision.Stats, error)

	CreateTaskForce(ctx context.Context, tf *taskforce.TaskForce) error
	GetTaskForce(ctx context.Context, id string) (*taskforce.TaskForce, error)
	ListTaskForces(ctx context.Context) ([]taskforce.TaskForce, error)

	// UpdateTaskForceStatus applies the status only when the stored version
	// still equals expectedVersion, bumping the version on success. A lost
	// race surfaces as domain.ErrConflict, a missing record as
	// domain.ErrNotFound.
	UpdateTaskForceStatus(ctx context.Context, id string, status taskforce.Status, expectedVersion int) error
}
