package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hydrodispatch/core/events"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/infra/logger"
	"github.com/kilianp07/hydrodispatch/internal/eventbus"
)

func TestScheduleForwarder(t *testing.T) {
	bus := eventbus.New[any]()
	pub := NewMockPublisher()
	done := StartScheduleForwarder(context.Background(), bus, pub, time.Millisecond, logger.NopLogger{})

	sched := model.Schedule{Power: []float64{1, 3}, Storage: []float64{5, 4, 1}, Method: model.MethodLP}
	bus.Publish(events.SolveEvent{RunID: "ok", Prices: model.PriceSeries{10, 20}, Schedule: sched, Time: time.Now()})
	bus.Publish(events.SolveEvent{RunID: "failed", Err: model.Errorf(model.KindInfeasible, "lp", "x")})
	bus.Publish(events.EvaluationEvent{RunID: "eval"})
	bus.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forwarder did not stop")
	}
	msgs := pub.Published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ok", msgs[0].RunID)
	assert.Equal(t, 70.0, msgs[0].Revenue)
	assert.Equal(t, []float64{1, 3}, msgs[0].Power)
}

func TestScheduleForwarderPublishFailure(t *testing.T) {
	bus := eventbus.New[any]()
	pub := NewMockPublisher()
	pub.Fail = true
	ctx, cancel := context.WithCancel(context.Background())
	done := StartScheduleForwarder(ctx, bus, pub, 0, nil)
	bus.Publish(events.SolveEvent{RunID: "r", Schedule: model.Schedule{Power: []float64{1}}})
	cancel()
	<-done
	assert.Empty(t, pub.Published())
}
