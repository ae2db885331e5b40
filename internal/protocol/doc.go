// Package protocol defines the wire contract between the sidecar panel
// and the backend agent. Inbound traffic is a stream of tagged JSON
// envelopes, one event per frame; outbound traffic is the small set of
// user intents (approvals, chat turns, attachment changes) encoded the
// same way.
//
// Decoding is fail-closed: an envelope with an unknown tag or a missing
// required field is rejected with a typed error and produces no event.
// Rejected envelopes never mutate state; callers are expected to drop
// them and optionally report to the logging sink.
package protocol
