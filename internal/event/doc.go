// Package event provides a pub-sub event bus for decoupled
// inter-component communication in the sidecar panel.
//
// The session publishes a notification after every state transition;
// the TUI and the transport subscribe without depending on the session
// directly. Components can publish events without knowing who will
// receive them, and subscribe without knowing who will produce them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously and protected against panics - a panicking handler
// will not prevent other handlers from being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("snapshot.updated", func(e event.Event) {
//	    updated := e.(event.SnapshotUpdatedEvent)
//	    log.Printf("snapshot changed (rev %d) because of %s", updated.Revision, updated.Cause)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - snapshot.updated
//   - event.rejected
//   - outbound.sent
//   - connection.changed
package event
