package mocks

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/infrastructure/kafka"
)

// MockPublisher records published events instead of writing to a broker
type MockPublisher struct {
	mu     sync.RWMutex
	events []kafka.Event

	// For tracking calls in tests
	PublishErr      error
	PublishCallback func(ctx context.Context, event kafka.Event) error
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{events: make([]kafka.Event, 0)}
}

// Publish records the event
func (m *MockPublisher) Publish(ctx context.Context, event kafka.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishCallback != nil {
		if err := m.PublishCallback(ctx, event); err != nil {
			return err
		}
	}
	if m.PublishErr != nil {
		return m.PublishErr
	}

	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of the recorded events
func (m *MockPublisher) Events() []kafka.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]kafka.Event(nil), m.events...)
}

// EventsOfType returns the recorded events with the given type
func (m *MockPublisher) EventsOfType(eventType string) []kafka.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []kafka.Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears recorded events and injected errors
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make([]kafka.Event, 0)
	m.PublishErr = nil
	m.PublishCallback = nil
}
