package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "switchboard"

// Metrics holds all Switchboard metric instruments.
type Metrics struct {
	DecisionsMade     metric.Int64Counter
	TaskForcesCreated metric.Int64Counter
	Escalations       metric.Int64Counter
	ScoringDuration   metric.Float64Histogram
	ScoreCacheHits    metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.DecisionsMade, err = meter.Int64Counter("switchboard.decisions.made",
		metric.WithDescription("Number of orchestration decisions made"))
	if err != nil {
		return nil, err
	}

	m.TaskForcesCreated, err = meter.Int64Counter("switchboard.taskforces.created",
		metric.WithDescription("Number of task forces assembled"))
	if err != nil {
		return nil, err
	}

	m.Escalations, err = meter.Int64Counter("switchboard.escalations",
		metric.WithDescription("Number of tasks escalated to human oversight"))
	if err != nil {
		return nil, err
	}

	m.ScoringDuration, err = meter.Float64Histogram("switchboard.scoring.duration_seconds",
		metric.WithDescription("Complexity scoring duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.ScoreCacheHits, err = meter.Int64Counter("switchboard.scoring.cache_hits",
		metric.WithDescription("Number of memoized complexity score hits"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
