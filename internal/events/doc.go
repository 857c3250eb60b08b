// Package events carries completed-session notifications from the engine to
// delivery-layer subscribers.
//
// The session manager publishes a SessionEvent after each successful
// finalization. Subscribers (chat bots, digests, exporters) register a
// Handler with a Publisher; handler failures are logged by the publisher and
// never affect the session that produced the event.
//
// The primary components are:
// - SessionEvent: a finalized session's summary plus event metadata
// - Handler: interface for components that consume session events
// - Publisher: interface for components that fan events out to handlers
package events
