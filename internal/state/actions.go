package state

import (
	"time"

	"github.com/Iron-Ham/sidecar/internal/protocol"
)

// Local transitions: user actions that mutate the snapshot without a
// backend event. Like Apply, each takes a Snapshot by value and
// returns the successor.

// ResolvePlanApproval clears the pending plan approval after the user
// decided and the decision was sent. Only an explicit user action
// clears an approval gate; no inbound event does.
func ResolvePlanApproval(s Snapshot) Snapshot {
	out := s.clone()
	out.PendingPlanApproval = nil
	out.AgentStatus = StatusRunning
	return out
}

// ResolveToolApproval clears the pending tool approval after the user
// decided and the decision was sent.
func ResolveToolApproval(s Snapshot) Snapshot {
	out := s.clone()
	out.PendingToolApproval = nil
	out.AgentStatus = StatusRunning
	return out
}

// AddAttachment adds a context item for the next outbound turn.
// Attachments are a set keyed by (kind, path, content length); adding
// a duplicate is a no-op.
func AddAttachment(s Snapshot, a protocol.Attachment) Snapshot {
	key := a.Key()
	for _, existing := range s.Attachments {
		if existing.Key() == key {
			return s
		}
	}
	out := s.clone()
	out.Attachments = append(out.Attachments, a)
	return out
}

// RemoveAttachment removes the attachment with the given key, if
// present.
func RemoveAttachment(s Snapshot, key string) Snapshot {
	out := s.clone()
	kept := out.Attachments[:0]
	for _, a := range out.Attachments {
		if a.Key() != key {
			kept = append(kept, a)
		}
	}
	out.Attachments = kept
	return out
}

// ClearAttachments empties the attachment set. Called only after a
// confirmed send.
func ClearAttachments(s Snapshot) Snapshot {
	out := s.clone()
	out.Attachments = nil
	return out
}

// AppendUserMessage appends the user's chat turn to the log.
func AppendUserMessage(s Snapshot, text string, at time.Time) Snapshot {
	out := s.clone()
	out.appendMessage(Message{
		Role:      RoleUser,
		Kind:      KindText,
		Content:   text,
		Timestamp: at,
	})
	return out
}

// AppendArtifact appends a synthetic artifact message, used by the
// command aggregator when a terminal sub-event closes a buffer.
func AppendArtifact(s Snapshot, art Artifact, at time.Time) Snapshot {
	out := s.clone()
	out.appendMessage(Message{
		Role:      RoleAssistant,
		Kind:      KindArtifact,
		Timestamp: at,
		Artifact:  &art,
	})
	return out
}

// ResetChat clears the conversation log. Step progress, attachments,
// and pending approvals are untouched; the caller resets the dedup
// guard alongside.
func ResetChat(s Snapshot) Snapshot {
	out := s.clone()
	out.Messages = nil
	out.nextMessageID = 0
	return out
}
