package mqtt

import (
	"context"
	"time"

	"github.com/kilianp07/hydrodispatch/core/events"
	coremqtt "github.com/kilianp07/hydrodispatch/core/mqtt"
	"github.com/kilianp07/hydrodispatch/infra/logger"
	"github.com/kilianp07/hydrodispatch/internal/eventbus"
)

// StartScheduleForwarder publishes every successful solve seen on the bus.
// Failed solves are skipped. When ackTimeout is positive the forwarder waits
// for the controller acknowledgment and logs its outcome. The returned
// channel is closed when the forwarder exits.
func StartScheduleForwarder(ctx context.Context, bus eventbus.EventBus[any], pub Publisher, ackTimeout time.Duration, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || pub == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
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
				e, ok := ev.(events.SolveEvent)
				if !ok || e.Err != nil {
					continue
				}
				forward(ctx, pub, e, ackTimeout, log)
			}
		}
	}()
	return done
}

func forward(ctx context.Context, pub Publisher, e events.SolveEvent, ackTimeout time.Duration, log logger.Logger) {
	msg := coremqtt.ScheduleMessage{
		RunID:     e.RunID,
		Method:    e.Schedule.Method,
		Power:     e.Schedule.Power,
		Storage:   e.Schedule.Storage,
		Revenue:   e.Schedule.Revenue(e.Prices),
		Timestamp: e.Time.UnixMilli(),
	}
	id, err := pub.PublishSchedule(ctx, msg)
	if err != nil {
		log.Errorf("publish schedule for run %s: %v", e.RunID, err)
		return
	}
	if ackTimeout <= 0 {
		return
	}
	ok, err := pub.WaitForAck(id, ackTimeout)
	if err != nil || !ok {
		log.Warnf("schedule %s for run %s not acknowledged: %v", id, e.RunID, err)
		return
	}
	log.Debugw("schedule acknowledged", map[string]any{"run_id": e.RunID, "message_id": id})
}
