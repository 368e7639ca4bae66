package metrics

import (
	"context"

	"github.com/kilianp07/hydrodispatch/core/events"
	coremetrics "github.com/kilianp07/hydrodispatch/core/metrics"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/internal/eventbus"
)

// Event is the payload carried on the service event bus.
type Event = any

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus[Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				Collect(sink, ev)
			}
		}
	}()
	return done
}

// Collect maps one bus event to the recorders sink implements. Record errors
// are ignored; metrics never fail a request.
func Collect(sink coremetrics.MetricsSink, ev Event) {
	switch e := ev.(type) {
	case events.SolveEvent:
		_ = sink.RecordSolve(solveEvent(e))
	case events.EvaluationEvent:
		if r, ok := sink.(coremetrics.EvaluationRecorder); ok {
			s := e.Result.Summary
			_ = r.RecordEvaluation(coremetrics.EvaluationEvent{
				RunID:             e.RunID,
				Hours:             s.Horizon,
				Days:              len(e.Result.Daily),
				ExcludedDays:      s.ExcludedDays,
				RevenueStable:     s.RevenueStable,
				RevenueProgrammed: s.RevenueProgrammed,
				RevenueHindsight:  s.RevenueHindsight,
				Efficiency:        s.Efficiency,
				Duration:          e.Duration,
				Time:              e.Time,
			})
		}
		if r, ok := sink.(coremetrics.DayRecorder); ok {
			days := make([]coremetrics.DayEvent, 0, len(e.Result.Daily))
			for _, d := range e.Result.Daily {
				days = append(days, coremetrics.DayEvent{
					RunID:      e.RunID,
					Day:        d.Day,
					Efficiency: d.Efficiency,
					Excluded:   d.Excluded,
					Time:       e.Time,
				})
			}
			_ = r.RecordDays(days)
		}
	}
}

func solveEvent(e events.SolveEvent) coremetrics.SolveEvent {
	out := coremetrics.SolveEvent{
		RunID:    e.RunID,
		Strategy: e.Strategy,
		Method:   e.Schedule.Method,
		Hours:    len(e.Prices),
		Duration: e.Duration,
		Time:     e.Time,
	}
	if e.Err != nil {
		out.ErrorKind = model.KindOf(e.Err).String()
		out.Method = "none"
		return out
	}
	out.Revenue = e.Schedule.Revenue(e.Prices)
	out.FinalStorage = e.Schedule.FinalStorage()
	return out
}
