package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/hydrodispatch/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher is a simple publisher used in tests and when MQTT is
// disabled.
type MockPublisher struct {
	Messages []coremqtt.ScheduleMessage
	// Fail makes every publish return an error.
	Fail bool
	// NoAck makes WaitForAck report a missing acknowledgment.
	NoAck bool
	mu    sync.Mutex
	seq   int
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishSchedule records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishSchedule(_ context.Context, msg coremqtt.ScheduleMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", fmt.Errorf("publish failed")
	}
	m.seq++
	if msg.MessageID == "" {
		msg.MessageID = fmt.Sprintf("msg-%d", m.seq)
	}
	m.Messages = append(m.Messages, msg)
	return msg.MessageID, nil
}

// WaitForAck simulates an immediate acknowledgment.
func (m *MockPublisher) WaitForAck(messageID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.Messages {
		if msg.MessageID == messageID {
			if m.NoAck {
				return false, coremqtt.ErrAckTimeout
			}
			return true, nil
		}
	}
	return false, coremqtt.ErrUnknownMessage
}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []coremqtt.ScheduleMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]coremqtt.ScheduleMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}
