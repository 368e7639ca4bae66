package events

import (
	"time"

	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/core/performance"
)

// SolveEvent is published after every optimize request.
type SolveEvent struct {
	RunID    string
	Strategy string
	Plant    model.Plant
	Prices   model.PriceSeries
	Schedule model.Schedule
	Err      error
	Duration time.Duration
	Time     time.Time
}

// EvaluationEvent is published after every successful evaluation.
type EvaluationEvent struct {
	RunID    string
	Plant    model.Plant
	Result   performance.Result
	Duration time.Duration
	Time     time.Time
}
