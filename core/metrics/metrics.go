package metrics

import "time"

// SolveEvent describes one call to the dispatch optimizer.
type SolveEvent struct {
	RunID string
	// Strategy is the configured strategy, Method the one that produced the
	// schedule.
	Strategy string
	Method   string
	Hours    int
	Revenue  float64
	// FinalStorage is the reservoir level at the end of the horizon.
	FinalStorage float64
	Duration     time.Duration
	// ErrorKind is empty on success.
	ErrorKind string
	Time      time.Time
}

// MetricsSink records dispatch solves for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// EvaluationEvent summarises a performance evaluation run.
type EvaluationEvent struct {
	RunID             string
	Hours             int
	Days              int
	ExcludedDays      int
	RevenueStable     float64
	RevenueProgrammed float64
	RevenueHindsight  float64
	Efficiency        float64
	Duration          time.Duration
	Time              time.Time
}

// EvaluationRecorder records evaluation runs.
type EvaluationRecorder interface {
	RecordEvaluation(ev EvaluationEvent) error
}

// DayEvent is the outcome of one evaluated day.
type DayEvent struct {
	RunID      string
	Day        int
	Efficiency float64
	Excluded   bool
	Time       time.Time
}

// DayRecorder records per-day evaluation outcomes.
type DayRecorder interface {
	RecordDays(evs []DayEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error           { return nil }
func (NopSink) RecordEvaluation(EvaluationEvent) error { return nil }
func (NopSink) RecordDays([]DayEvent) error            { return nil }
