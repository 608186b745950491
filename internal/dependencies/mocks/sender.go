package mocks

import (
	"sync"

	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
)

// SentEvent records one Send call
type SentEvent struct {
	ConnID  model.ConnectionID
	Event   protocol.EventType
	Payload any
}

// MockSender records events instead of delivering them. It satisfies the
// sender interfaces of the presence coordinator and the latency prober.
type MockSender struct {
	mu     sync.Mutex
	events []SentEvent

	// FailFor maps connection ids to errors Send should return for them
	FailFor map[model.ConnectionID]error
}

// NewMockSender creates a new MockSender
func NewMockSender() *MockSender {
	return &MockSender{
		FailFor: make(map[model.ConnectionID]error),
	}
}

// Send records the event, returning a queued failure if one is set
func (s *MockSender) Send(connID model.ConnectionID, event protocol.EventType, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailFor[connID]; ok {
		return err
	}
	s.events = append(s.events, SentEvent{ConnID: connID, Event: event, Payload: payload})
	return nil
}

// Events returns all recorded events in send order
func (s *MockSender) Events() []SentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]SentEvent, len(s.events))
	copy(result, s.events)
	return result
}

// EventsFor returns the events sent to one connection, in send order
func (s *MockSender) EventsFor(connID model.ConnectionID) []SentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []SentEvent
	for _, e := range s.events {
		if e.ConnID == connID {
			result = append(result, e)
		}
	}
	return result
}

// Clear discards recorded events
func (s *MockSender) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
