package state

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/Iron-Ham/sidecar/internal/protocol"
)

// AgentStatus summarizes what the backend agent is doing right now.
type AgentStatus string

const (
	StatusIdle             AgentStatus = "idle"
	StatusRunning          AgentStatus = "running"
	StatusAwaitingApproval AgentStatus = "awaiting_approval"
	StatusError            AgentStatus = "error"
)

// StepID identifies one stage of the backend pipeline.
type StepID string

const (
	StepScan     StepID = "scan"
	StepPlan     StepID = "plan"
	StepDiff     StepID = "diff"
	StepValidate StepID = "validate"
	StepApply    StepID = "apply"
	StepPR       StepID = "pr"
	StepCI       StepID = "ci"
	StepHeal     StepID = "heal"
)

// StepOrder is the canonical pipeline order, used for display and for
// seeding the step table. The step table always contains exactly
// these keys; step ids outside this set are ignored on intake.
var StepOrder = []StepID{
	StepScan, StepPlan, StepDiff, StepValidate,
	StepApply, StepPR, StepCI, StepHeal,
}

// StepStatus is the status of a single pipeline step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// MessageRole distinguishes who produced a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageKind classifies a conversation message.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindPlan     MessageKind = "plan"
	KindError    MessageKind = "error"
	KindArtifact MessageKind = "artifact"
)

// ArtifactKind classifies a backend-produced artifact payload.
type ArtifactKind string

const (
	ArtifactChangePlan ArtifactKind = "changePlan"
	ArtifactDiffs      ArtifactKind = "diffs"
	ArtifactValidation ArtifactKind = "validation"
	ArtifactApply      ArtifactKind = "apply"
	ArtifactPR         ArtifactKind = "pr"
	ArtifactCI         ArtifactKind = "ci"
	ArtifactCommand    ArtifactKind = "command"
	ArtifactContext    ArtifactKind = "context"
)

// Artifact is a structured backend payload displayed as part of the
// conversation. Data is kind-specific and passed through verbatim;
// the panel routes on Kind and never interprets Data beyond that.
type Artifact struct {
	Kind  ArtifactKind
	Title string
	Data  json.RawMessage
}

// Message is one entry in the conversation log. Messages are immutable
// once appended; an edit is a new message.
type Message struct {
	ID        string
	Role      MessageRole
	Kind      MessageKind
	Content   string
	Timestamp time.Time

	// Exactly one of the following is set for non-text kinds.
	Plan     json.RawMessage // KindPlan
	Error    string          // KindError
	Artifact *Artifact       // KindArtifact
}

// PlanApproval is a pending plan-approval gate. TaskID and SessionID
// are the correlation ids the resolution must echo back.
type PlanApproval struct {
	TaskID      string
	SessionID   string
	Plan        json.RawMessage
	RequestedAt time.Time
}

// ToolApproval is a pending tool-approval gate.
type ToolApproval struct {
	ToolRequest json.RawMessage
	SessionID   string
	RequestedAt time.Time
}

// Snapshot is the full reconciled client-side state at a point in
// time. Treat it as a value: transitions return new Snapshots and
// never mutate their input.
type Snapshot struct {
	AgentStatus AgentStatus
	Steps       map[StepID]StepStatus
	CurrentStep StepID // most recently activated step; display hint only
	Thinking    bool

	Messages    []Message
	Attachments []protocol.Attachment

	PendingPlanApproval *PlanApproval
	PendingToolApproval *ToolApproval

	// nextMessageID makes message id assignment deterministic for a
	// given (snapshot, event) pair.
	nextMessageID int
}

// NewSnapshot returns the initial snapshot: idle, every step pending,
// no messages, no attachments, no pending approvals.
func NewSnapshot() Snapshot {
	return Snapshot{
		AgentStatus: StatusIdle,
		Steps:       pendingSteps(),
	}
}

// pendingSteps returns a fresh step table with every canonical step
// pending.
func pendingSteps() map[StepID]StepStatus {
	steps := make(map[StepID]StepStatus, len(StepOrder))
	for _, id := range StepOrder {
		steps[id] = StepPending
	}
	return steps
}

// canonicalStep reports whether id is one of the eight pipeline steps.
func canonicalStep(id StepID) bool {
	_, ok := initialStepSet[id]
	return ok
}

var initialStepSet = func() map[StepID]struct{} {
	set := make(map[StepID]struct{}, len(StepOrder))
	for _, id := range StepOrder {
		set[id] = struct{}{}
	}
	return set
}()

// Clone returns a deep copy of the snapshot: mutating the copy's
// containers cannot affect the original. Message structs are immutable
// once appended, so sharing the backing payloads is safe.
func (s Snapshot) Clone() Snapshot {
	return s.clone()
}

// clone returns a deep copy of the snapshot. Message structs are
// immutable once appended, so sharing the backing payloads is safe;
// the containers themselves are copied.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Steps = make(map[StepID]StepStatus, len(s.Steps))
	for id, status := range s.Steps {
		out.Steps[id] = status
	}
	out.Messages = append([]Message(nil), s.Messages...)
	out.Attachments = append([]protocol.Attachment(nil), s.Attachments...)
	if s.PendingPlanApproval != nil {
		pa := *s.PendingPlanApproval
		out.PendingPlanApproval = &pa
	}
	if s.PendingToolApproval != nil {
		ta := *s.PendingToolApproval
		out.PendingToolApproval = &ta
	}
	return out
}

// appendMessage appends a message with a deterministic id, mutating
// the (already cloned) receiver.
func (s *Snapshot) appendMessage(m Message) {
	m.ID = messageID(s.nextMessageID)
	s.nextMessageID++
	s.Messages = append(s.Messages, m)
}

func messageID(seq int) string {
	return "m-" + strconv.Itoa(seq)
}
