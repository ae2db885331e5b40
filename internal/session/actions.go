package session

import (
	"strings"
	"time"

	"github.com/Iron-Ham/sidecar/internal/errors"
	"github.com/Iron-Ham/sidecar/internal/protocol"
	"github.com/Iron-Ham/sidecar/internal/state"
)

// User intents. Each encodes an outbound payload, sends it, and only
// then mutates local state, so a failed send leaves everything
// re-offerable to the user.

// ApprovePlan approves the pending plan approval. Returns a
// user-visible error when there is nothing pending, when the captured
// correlation id is missing (protocol.ErrNoCorrelationID), or when
// the send fails.
func (s *Session) ApprovePlan() error {
	return s.resolvePlan(true, "")
}

// RejectPlan rejects the pending plan approval with optional feedback
// for the backend.
func (s *Session) RejectPlan(feedback string) error {
	return s.resolvePlan(false, feedback)
}

func (s *Session) resolvePlan(approved bool, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.snap.PendingPlanApproval
	if pending == nil {
		return errors.NewApprovalError("plan", errors.ErrNoPendingApproval)
	}

	payload, err := protocol.EncodePlanDecision(pending.TaskID, pending.SessionID, approved, feedback)
	if err != nil {
		// Typically ErrNoCorrelationID: refused locally, never sent.
		return err
	}
	if err := s.send(protocol.TagPlanDecision, payload); err != nil {
		return err
	}
	s.log.WithSession(pending.SessionID).Info("plan decision sent", "approved", approved)

	s.transition(state.ResolvePlanApproval(s.snap), protocol.TagPlanDecision)
	return nil
}

// ResolveToolApproval resolves the pending tool approval. Like plan
// approvals, a missing correlation id refuses the action locally.
func (s *Session) ResolveToolApproval(approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.snap.PendingToolApproval
	if pending == nil {
		return errors.NewApprovalError("tool", errors.ErrNoPendingApproval)
	}

	payload, err := protocol.EncodeToolDecision(pending.SessionID, approved)
	if err != nil {
		return err
	}
	if err := s.send(protocol.TagToolDecision, payload); err != nil {
		return err
	}

	s.transition(state.ResolveToolApproval(s.snap), protocol.TagToolDecision)
	return nil
}

// SendMessage sends a chat turn carrying the currently attached
// context items. The attachment set is cleared only after the send is
// confirmed; a failed send keeps the attachments for retry.
func (s *Session) SendMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := protocol.EncodeChatMessage(text, s.snap.Attachments)
	if err != nil {
		return err
	}
	if err := s.send(protocol.TagChatMessage, payload); err != nil {
		return err
	}

	next := state.AppendUserMessage(s.snap, text, time.Now())
	next = state.ClearAttachments(next)
	s.transition(next, protocol.TagChatMessage)
	return nil
}

// AddAttachment attaches a context item to the next outbound turn.
// Duplicates (same kind, path, content length) are ignored. Selections
// carry their content inline; every other kind needs a path.
func (s *Session) AddAttachment(a protocol.Attachment) error {
	if a.Kind != protocol.AttachmentSelection && strings.TrimSpace(a.Path) == "" {
		return errors.NewValidationError("path", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(state.AddAttachment(s.snap, a), "attachment.added")
	return nil
}

// RemoveAttachment detaches the context item with the given key.
func (s *Session) RemoveAttachment(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, a := range s.snap.Attachments {
		if a.Key() == key {
			found = true
			break
		}
	}
	if !found {
		return errors.NewNotFoundError("attachment", key)
	}
	s.transition(state.RemoveAttachment(s.snap, key), "attachment.removed")
	return nil
}

// ClearAttachments detaches everything.
func (s *Session) ClearAttachments() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(state.ClearAttachments(s.snap), "attachment.cleared")
}

// ResetChat clears the conversation log, the dedup memory, and any
// in-flight command buffers.
func (s *Session) ResetChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard.Reset()
	s.agg.Reset()
	s.transition(state.ResetChat(s.snap), "chat.reset")
}
