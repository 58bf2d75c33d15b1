package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/switchboard-orch/switchboard/internal/domain"
	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/domain/taskforce"
	"github.com/switchboard-orch/switchboard/internal/port/messagequeue"
)

// mockStore implements database.Store for testing.
type mockStore struct {
	decisions []decision.Decision
	forces    map[string]*taskforce.TaskForce

	appendErr error
	createErr error
	updateErr error

	// beforeUpdate, when set, runs at the top of UpdateTaskForceStatus to
	// simulate a concurrent writer.
	beforeUpdate func()
}

func newMockStore() *mockStore {
	return &mockStore{forces: make(map[string]*taskforce.TaskForce)}
}

func (m *mockStore) AppendDecision(_ context.Context, d *decision.Decision) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.decisions = append(m.decisions, *d)
	return nil
}

func (m *mockStore) GetDecision(_ context.Context, id string) (*decision.Decision, error) {
	for i := range m.decisions {
		if m.decisions[i].ID == id {
			d := m.decisions[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("get decision %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ListDecisionsByTask(_ context.Context, taskID string) ([]decision.Decision, error) {
	var out []decision.Decision
	for _, d := range m.decisions {
		if d.TaskID == taskID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) DecisionStats(_ context.Context) (*decision.Stats, error) {
	stats := &decision.Stats{ByType: make(map[decision.Type]int)}
	for _, d := range m.decisions {
		stats.ByType[d.Type]++
		stats.Total++
	}
	return stats, nil
}

func (m *mockStore) CreateTaskForce(_ context.Context, tf *taskforce.TaskForce) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *tf
	m.forces[tf.ID] = &cp
	return nil
}

func (m *mockStore) GetTaskForce(_ context.Context, id string) (*taskforce.TaskForce, error) {
	tf, ok := m.forces[id]
	if !ok {
		return nil, fmt.Errorf("get task force %s: %w", id, domain.ErrNotFound)
	}
	cp := *tf
	return &cp, nil
}

func (m *mockStore) ListTaskForces(_ context.Context) ([]taskforce.TaskForce, error) {
	out := make([]taskforce.TaskForce, 0, len(m.forces))
	for _, tf := range m.forces {
		out = append(out, *tf)
	}
	return out, nil
}

func (m *mockStore) UpdateTaskForceStatus(_ context.Context, id string, status taskforce.Status, expectedVersion int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	tf, ok := m.forces[id]
	if !ok {
		return fmt.Errorf("update task force %s status: %w", id, domain.ErrNotFound)
	}
	if tf.Version != expectedVersion {
		return fmt.Errorf("task force %s modified concurrently: %w", id, domain.ErrConflict)
	}
	tf.Status = status
	tf.Version++
	return nil
}

// mockQueue implements messagequeue.Queue for testing.
type mockQueue struct {
	published []struct {
		subject string
		data    []byte
	}
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Close() error { return nil }

// mockHub implements broadcast.Broadcaster for testing.
type mockHub struct {
	events []struct {
		eventType string
		payload   any
	}
}

func (h *mockHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	h.events = append(h.events, struct {
		eventType string
		payload   any
	}{eventType, payload})
}

// mockCache implements cache.Cache for testing score memoization.
type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
	sets    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	data, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return data, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
