// Package state holds the reconciled client-side view of a backend
// agent run: pipeline step statuses, the ordered conversation log,
// pending approval gates, and attachments for the next outbound turn.
//
// The only way state changes is through pure transition functions:
// Apply for inbound wire events, and the exported helpers (Resolve*,
// Add/RemoveAttachment, AppendArtifact, ResetChat) for local actions.
// Every transition takes a Snapshot by value and returns a new one;
// nothing in this package retains or mutates a caller's Snapshot.
package state
