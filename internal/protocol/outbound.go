package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoCorrelationID is returned when an approval decision cannot be
// correlated back to the backend. The action is refused locally and
// never sent; this is the one failure the panel must surface to the
// user instead of dropping.
var ErrNoCorrelationID = errors.New("approval decision has no correlation id")

// Outbound tags. The backend routes on these the same way the panel
// routes on inbound tags.
const (
	TagPlanDecision = "plan.decision"
	TagToolDecision = "tool.decision"
	TagChatMessage  = "chat.message"
)

// AttachmentKind classifies a context item attached to a chat turn.
type AttachmentKind string

const (
	AttachmentSelection   AttachmentKind = "selection"
	AttachmentCurrentFile AttachmentKind = "current-file"
	AttachmentPickedFile  AttachmentKind = "picked-file"
)

// Attachment is one context item the user has attached to the next
// outbound turn.
type Attachment struct {
	Kind    AttachmentKind `json:"kind"`
	Path    string         `json:"path"`
	Content string         `json:"content,omitempty"`
}

// Key returns the identity used for duplicate detection: two
// attachments with the same kind, path, and content length are the
// same item.
func (a Attachment) Key() string {
	return fmt.Sprintf("%s|%s|%d", a.Kind, a.Path, len(a.Content))
}

// planDecision is the wire shape of an approve/reject plan action.
type planDecision struct {
	Type      string `json:"type"`
	TaskID    string `json:"task_id"`
	SessionID string `json:"session_id,omitempty"`
	Approved  bool   `json:"approved"`
	Feedback  string `json:"feedback,omitempty"`
}

// toolDecision is the wire shape of a tool-approval resolution.
type toolDecision struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Approved  bool   `json:"approved"`
}

// chatMessage is the wire shape of a user chat turn.
type chatMessage struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// EncodePlanDecision encodes an approve/reject decision for a pending
// plan approval. The task id captured from the originating
// approval.required event is mandatory: without it the backend cannot
// correlate the decision, so the action is refused with
// ErrNoCorrelationID rather than sent incomplete.
func EncodePlanDecision(taskID, sessionID string, approved bool, feedback string) ([]byte, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: task id", ErrNoCorrelationID)
	}
	return json.Marshal(planDecision{
		Type:      TagPlanDecision,
		TaskID:    taskID,
		SessionID: sessionID,
		Approved:  approved,
		Feedback:  feedback,
	})
}

// EncodeToolDecision encodes the resolution of a pending tool
// approval. The session id from the originating tool.approval event
// is mandatory.
func EncodeToolDecision(sessionID string, approved bool) ([]byte, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id", ErrNoCorrelationID)
	}
	return json.Marshal(toolDecision{
		Type:      TagToolDecision,
		SessionID: sessionID,
		Approved:  approved,
	})
}

// EncodeChatMessage encodes a user chat turn with its attached context
// items. Empty turns are refused so the caller can keep the
// attachment set intact.
func EncodeChatMessage(text string, attachments []Attachment) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty chat message")
	}
	return json.Marshal(chatMessage{
		Type:        TagChatMessage,
		Text:        text,
		Attachments: attachments,
	})
}
