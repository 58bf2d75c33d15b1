// Package taskforce defines the TaskForce domain entity: an ad hoc group of
// role-tagged agents assembled to jointly handle one complex task.
package taskforce

import (
	"fmt"
	"time"

	"github.com/switchboard-orch/switchboard/internal/domain"
)

// Status represents the lifecycle state of a task force.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
	StatusPaused   Status = "paused"
)

// ValidStatus reports whether s is a known task force status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusResolved, StatusFailed, StatusPaused:
		return true
	}
	return false
}

// IsTerminal returns true if the task force is in a final state.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusFailed
}

// CanTransition reports whether a status change from s to next is allowed.
// Active forces may resolve, fail, or pause; paused forces may resume.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusResolved || next == StatusFailed || next == StatusPaused
	case StatusPaused:
		return next == StatusActive || next == StatusFailed
	}
	return false
}

// TaskForce groups multiple agents for collaborative work on one task.
type TaskForce struct {
	ID                   string    `json:"task_force_id"`
	Objective            string    `json:"objective"`
	Status               Status    `json:"status"`
	MasterOrchestratorID string    `json:"master_orchestrator_id"`
	Members              []Member  `json:"members"`
	Version              int       `json:"version"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Member represents one agent's role in a task force.
type Member struct {
	ID          string    `json:"member_id"`
	TaskForceID string    `json:"task_force_id"`
	AgentID     string    `json:"agent_id"`
	Role        string    `json:"agent_role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// CreateRequest holds the fields needed to create a new task force.
type CreateRequest struct {
	Objective            string   `json:"objective"`
	MasterOrchestratorID string   `json:"master_orchestrator_id"`
	Roles                []string `json:"roles"`
}

// Validate checks that a CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if r.Objective == "" {
		return fmt.Errorf("%w: objective is required", domain.ErrValidation)
	}
	if len(r.Roles) == 0 {
		return fmt.Errorf("%w: at least one role is required", domain.ErrValidation)
	}
	seen := make(map[string]bool, len(r.Roles))
	for _, role := range r.Roles {
		if role == "" {
			return fmt.Errorf("%w: empty role", domain.ErrValidation)
		}
		if seen[role] {
			return fmt.Errorf("%w: duplicate role %q", domain.ErrValidation, role)
		}
		seen[role] = true
	}
	return nil
}
