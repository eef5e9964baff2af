package engine

import "studyhall/internal/model"

// The engine notifies interested parties (the ws layer, metrics) through an
// explicit typed event channel instead of UI data-binding: it emits, a
// presentation layer subscribes.

type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventStateChanged   EventType = "state_changed"
	EventMessage        EventType = "message"
	EventQuizStarted    EventType = "quiz_started"
	EventQuizResult     EventType = "quiz_result"
	EventSessionEnded   EventType = "session_ended"
)

// Event is one state-change notification from a session.
type Event struct {
	SessionID string             `json:"sessionId"`
	Type      EventType          `json:"type"`
	State     State              `json:"state,omitempty"`
	Message   *model.ChatMessage `json:"message,omitempty"`
	Payload   interface{}        `json:"payload,omitempty"`
}

// Listener receives session events. Implementations must not block.
type Listener interface {
	OnEvent(evt Event)
}

// Telemetry is the constructor-injected counter hook; it replaces any
// process-wide creation counters. All methods may be called concurrently.
type Telemetry interface {
	SessionStarted()
	MessageProcessed()
	GenerationFailed()
}

type nopListener struct{}

func (nopListener) OnEvent(Event) {}

type nopTelemetry struct{}

func (nopTelemetry) SessionStarted()   {}
func (nopTelemetry) MessageProcessed() {}
func (nopTelemetry) GenerationFailed() {}
