package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hydrodispatch/core/events"
	coremetrics "github.com/kilianp07/hydrodispatch/core/metrics"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/core/performance"
	"github.com/kilianp07/hydrodispatch/internal/eventbus"
)

type captureSink struct {
	mu     sync.Mutex
	solves []coremetrics.SolveEvent
	evals  []coremetrics.EvaluationEvent
	days   []coremetrics.DayEvent
}

func (c *captureSink) RecordSolve(ev coremetrics.SolveEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.solves = append(c.solves, ev)
	return nil
}

func (c *captureSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evals = append(c.evals, ev)
	return nil
}

func (c *captureSink) RecordDays(evs []coremetrics.DayEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.days = append(c.days, evs...)
	return nil
}

func TestCollectSolve(t *testing.T) {
	sink := &captureSink{}
	sched := model.Schedule{Power: []float64{1, 2}, Storage: []float64{10, 9, 7}, Method: "greedy"}
	Collect(sink, events.SolveEvent{RunID: "r", Strategy: "chain", Prices: model.PriceSeries{10, 20}, Schedule: sched})
	Collect(sink, events.SolveEvent{RunID: "f", Strategy: "lp", Prices: model.PriceSeries{1}, Err: model.Errorf(model.KindInfeasible, "x", "y")})
	Collect(sink, "ignored")

	require.Len(t, sink.solves, 2)
	assert.Equal(t, "greedy", sink.solves[0].Method)
	assert.Equal(t, 50.0, sink.solves[0].Revenue)
	assert.Equal(t, 7.0, sink.solves[0].FinalStorage)
	assert.Equal(t, "infeasible", sink.solves[1].ErrorKind)
	assert.Equal(t, 1, sink.solves[1].Hours)
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New[Event]()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink)

	res := performance.Result{
		Summary: performance.Summary{Horizon: 48, Efficiency: 88, ExcludedDays: 1},
		Daily:   []performance.DayPerformance{{Day: 1, Efficiency: 88}, {Day: 2, Excluded: true}},
	}
	bus.Publish(events.EvaluationEvent{RunID: "e1", Result: res, Time: time.Now()})
	bus.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	require.Len(t, sink.evals, 1)
	assert.Equal(t, 2, sink.evals[0].Days)
	assert.Equal(t, 48, sink.evals[0].Hours)
	require.Len(t, sink.days, 2)
	assert.True(t, sink.days[1].Excluded)
}
