package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g. "snapshot.updated").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// SnapshotUpdatedEvent is published after a state transition changed
// the snapshot. Revision increases monotonically per session, so slow
// observers can detect that they skipped intermediate states.
type SnapshotUpdatedEvent struct {
	baseEvent
	Revision uint64 // Monotonic change counter
	Cause    string // Wire tag or action name that caused the change
}

// NewSnapshotUpdatedEvent creates a SnapshotUpdatedEvent.
func NewSnapshotUpdatedEvent(revision uint64, cause string) SnapshotUpdatedEvent {
	return SnapshotUpdatedEvent{
		baseEvent: newBaseEvent("snapshot.updated"),
		Revision:  revision,
		Cause:     cause,
	}
}

// EventRejectedEvent is published when an inbound envelope was dropped
// (unknown tag or missing required field). Observability only; no
// state changed.
type EventRejectedEvent struct {
	baseEvent
	Tag    string // Wire tag, when one could be parsed
	Reason string // Why the envelope was dropped
}

// NewEventRejectedEvent creates an EventRejectedEvent.
func NewEventRejectedEvent(tag, reason string) EventRejectedEvent {
	return EventRejectedEvent{
		baseEvent: newBaseEvent("event.rejected"),
		Tag:       tag,
		Reason:    reason,
	}
}

// OutboundSentEvent is published after a user intent was handed to the
// transport.
type OutboundSentEvent struct {
	baseEvent
	Tag string // Outbound tag (plan.decision, tool.decision, chat.message)
}

// NewOutboundSentEvent creates an OutboundSentEvent.
func NewOutboundSentEvent(tag string) OutboundSentEvent {
	return OutboundSentEvent{
		baseEvent: newBaseEvent("outbound.sent"),
		Tag:       tag,
	}
}

// ConnectionChangedEvent is published by the transport when the link
// to the backend goes up or down.
type ConnectionChangedEvent struct {
	baseEvent
	Connected bool
	Err       string // Last error when disconnected
}

// NewConnectionChangedEvent creates a ConnectionChangedEvent.
func NewConnectionChangedEvent(connected bool, errMsg string) ConnectionChangedEvent {
	return ConnectionChangedEvent{
		baseEvent: newBaseEvent("connection.changed"),
		Connected: connected,
		Err:       errMsg,
	}
}
