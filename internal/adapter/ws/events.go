package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventDecisionCreated  = "decision.created"
	EventTaskForceCreated = "taskforce.created"
	EventTaskForceStatus  = "taskforce.status"
	EventEscalation       = "escalation.requested"
)

// DecisionCreatedEvent is broadcast when a routing decision is logged.
type DecisionCreatedEvent struct {
	DecisionID string  `json:"decision_id"`
	TaskID     string  `json:"task_id"`
	Type       string  `json:"decision_type"`
	TotalScore float64 `json:"total_score"`
}

// TaskForceCreatedEvent is broadcast when a task force is assembled.
type TaskForceCreatedEvent struct {
	TaskForceID string   `json:"task_force_id"`
	Objective   string   `json:"objective"`
	Roles       []string `json:"roles"`
}

// TaskForceStatusEvent is broadcast when a task force changes lifecycle state.
type TaskForceStatusEvent struct {
	TaskForceID string `json:"task_force_id"`
	Status      string `json:"status"`
}

// EscalationEvent is broadcast when a task is routed to human oversight.
type EscalationEvent struct {
	TaskID     string `json:"task_id"`
	DecisionID string `json:"decision_id"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
