package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/switchboard-orch/switchboard/internal/port/messagequeue"
	"github.com/switchboard-orch/switchboard/internal/resilience"
)

// publishJSON marshals payload and publishes it to the given subject,
// routing the publish through the circuit breaker when one is configured.
func publishJSON(ctx context.Context, q messagequeue.Queue, b *resilience.Breaker, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}

	if b == nil {
		return q.Publish(ctx, subject, data)
	}
	return b.Execute(func() error {
		return q.Publish(ctx, subject, data)
	})
}
