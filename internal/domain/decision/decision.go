// Package decision defines the OrchestrationDecision domain entity and the
// three-way routing taxonomy.
package decision

import (
	"errors"
	"fmt"
	"time"

	"github.com/switchboard-orch/switchboard/internal/domain"
	"github.com/switchboard-orch/switchboard/internal/domain/complexity"
)

// Type identifies the execution strategy chosen for a task.
type Type string

const (
	TypeSequential Type = "sequential"
	TypeTaskForce  Type = "task_force"
	TypeEscalation Type = "escalation"
)

// ValidType reports whether t is a known decision type.
func ValidType(t Type) bool {
	switch t {
	case TypeSequential, TypeTaskForce, TypeEscalation:
		return true
	}
	return false
}

// ErrUnknownType indicates the decision rule produced a type outside the
// closed set. This is a logic bug, not bad input.
var ErrUnknownType = errors.New("unknown decision type")

// Decision is one immutable entry in the append-only decision log.
type Decision struct {
	ID        string            `json:"id"`
	TaskID    string            `json:"task_id"`
	Type      Type              `json:"decision_type"`
	Score     *complexity.Score `json:"complexity_score"`
	RequestID string            `json:"request_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Stats aggregates the decision log by type.
type Stats struct {
	Total  int          `json:"total_decisions"`
	ByType map[Type]int `json:"by_type"`
}

// MakeRequest holds the inputs for one decision.
type MakeRequest struct {
	TaskID          string         `json:"task_id"`
	TaskDescription string         `json:"task_description"`
	Context         map[string]any `json:"context,omitempty"`
	// ForceEscalation routes the task to human oversight regardless of the
	// complexity score. The scoring thresholds alone never reach the
	// escalation branch, so this flag is its only trigger.
	ForceEscalation bool `json:"force_escalation,omitempty"`
}

// Validate checks that a MakeRequest is well-formed.
func (r *MakeRequest) Validate() error {
	if r.TaskID == "" {
		return fmt.Errorf("%w: task_id is required", domain.ErrValidation)
	}
	return nil
}

// OrchestrateRequest is the top-level orchestration input. AgentID names the
// preferred agent for sequential dispatch; it may be empty.
type OrchestrateRequest struct {
	TaskID          string         `json:"task_id"`
	TaskDescription string         `json:"task_description"`
	AgentID         string         `json:"agent_id,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	ForceEscalation bool           `json:"force_escalation,omitempty"`
}

// Result is the outcome of a single orchestrate call.
type Result struct {
	TaskID      string    `json:"task_id"`
	Type        Type      `json:"decision_type"`
	Status      string    `json:"status"` // dispatched | delegated | escalated
	TaskForceID string    `json:"task_force_id,omitempty"`
	Decision    *Decision `json:"decision"`
}
