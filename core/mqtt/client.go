// Package mqtt defines how computed schedules reach the plant controller.
package mqtt

import (
	"context"
	"time"
)

// ScheduleMessage is the payload published for an accepted schedule.
type ScheduleMessage struct {
	MessageID string    `json:"message_id"`
	RunID     string    `json:"run_id"`
	Method    string    `json:"method"`
	Power     []float64 `json:"power_mw"`
	Storage   []float64 `json:"storage"`
	Revenue   float64   `json:"revenue"`
	Timestamp int64     `json:"timestamp"`
}

// Publisher sends schedules to the plant controller and waits for its
// acknowledgment.
type Publisher interface {
	// PublishSchedule publishes msg and returns the message identifier used
	// to track the acknowledgment.
	PublishSchedule(ctx context.Context, msg ScheduleMessage) (messageID string, err error)

	// WaitForAck waits for an acknowledgment for the provided message
	// identifier or until the timeout expires.
	WaitForAck(messageID string, timeout time.Duration) (bool, error)
}
