package protocol

import (
	"encoding/json"
	"time"
)

// Event is the interface implemented by every inbound wire event.
// Convention for tags: "category.action" (e.g. "workflow.step",
// "command.output").
type Event interface {
	// EventType returns the wire tag for this event.
	EventType() string

	// Timestamp returns when the event was received.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
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

// Wire tags understood by the decoder. Anything else is rejected with
// ErrUnknownTag.
const (
	TagWorkflowStarted   = "workflow.started"
	TagWorkflowStep      = "workflow.step"
	TagWorkflowCompleted = "workflow.completed"
	TagWorkflowFailed    = "workflow.failed"

	TagApprovalRequired = "approval.required"
	TagToolApproval     = "tool.approval"

	TagAssistantMessage  = "assistant.message"
	TagAssistantPlan     = "assistant.plan"
	TagAssistantError    = "assistant.error"
	TagAssistantThinking = "assistant.thinking"

	TagChangePlanGenerated = "changePlan.generated"
	TagDiffsGenerated      = "diffs.generated"
	TagValidationResult    = "validation.result"
	TagChangesApplied      = "changes.applied"

	TagPRBranchCreated = "pr.branch.created"
	TagPRCommitCreated = "pr.commit.created"
	TagPRCreated       = "pr.created"
	TagPRCIUpdated     = "pr.ci.updated"
	TagPRCompleted     = "pr.completed"

	TagCommandStart  = "command.start"
	TagCommandOutput = "command.output"
	TagCommandError  = "command.error"
	TagCommandDone   = "command.done"

	TagReadonlyContext = "readonly.context"
)

// -----------------------------------------------------------------------------
// Workflow Events
// -----------------------------------------------------------------------------

// WorkflowStartedEvent signals that the backend has begun a new
// pipeline run.
type WorkflowStartedEvent struct {
	baseEvent
	TaskID string // Backend task identifier, if reported
}

// NewWorkflowStartedEvent creates a WorkflowStartedEvent.
func NewWorkflowStartedEvent(taskID string) WorkflowStartedEvent {
	return WorkflowStartedEvent{
		baseEvent: newBaseEvent(TagWorkflowStarted),
		TaskID:    taskID,
	}
}

// WorkflowStepEvent reports a status change for a single pipeline step.
type WorkflowStepEvent struct {
	baseEvent
	Step   string // Step identifier (scan, plan, diff, ...)
	Status string // One of "active", "completed", "failed"
}

// NewWorkflowStepEvent creates a WorkflowStepEvent.
func NewWorkflowStepEvent(step, status string) WorkflowStepEvent {
	return WorkflowStepEvent{
		baseEvent: newBaseEvent(TagWorkflowStep),
		Step:      step,
		Status:    status,
	}
}

// WorkflowCompletedEvent signals that the pipeline run finished.
type WorkflowCompletedEvent struct {
	baseEvent
}

// NewWorkflowCompletedEvent creates a WorkflowCompletedEvent.
func NewWorkflowCompletedEvent() WorkflowCompletedEvent {
	return WorkflowCompletedEvent{baseEvent: newBaseEvent(TagWorkflowCompleted)}
}

// WorkflowFailedEvent signals that the pipeline run failed.
type WorkflowFailedEvent struct {
	baseEvent
	Step   string // Step that failed; "unknown" when the backend omits it
	Reason string // Human-readable failure reason, if reported
}

// NewWorkflowFailedEvent creates a WorkflowFailedEvent.
func NewWorkflowFailedEvent(step, reason string) WorkflowFailedEvent {
	if step == "" {
		step = "unknown"
	}
	return WorkflowFailedEvent{
		baseEvent: newBaseEvent(TagWorkflowFailed),
		Step:      step,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Approval Events
// -----------------------------------------------------------------------------

// ApprovalRequiredEvent asks the user to approve or reject a proposed
// plan before the backend proceeds. TaskID and SessionID are the
// correlation ids that must be echoed back in the resolution.
type ApprovalRequiredEvent struct {
	baseEvent
	TaskID    string
	SessionID string
	Plan      json.RawMessage // Proposed plan payload, passed through verbatim
}

// NewApprovalRequiredEvent creates an ApprovalRequiredEvent.
func NewApprovalRequiredEvent(taskID, sessionID string, plan json.RawMessage) ApprovalRequiredEvent {
	return ApprovalRequiredEvent{
		baseEvent: newBaseEvent(TagApprovalRequired),
		TaskID:    taskID,
		SessionID: sessionID,
		Plan:      plan,
	}
}

// ToolApprovalEvent asks the user to approve a single tool invocation.
type ToolApprovalEvent struct {
	baseEvent
	ToolRequest json.RawMessage // Tool invocation payload, passed through verbatim
	SessionID   string
}

// NewToolApprovalEvent creates a ToolApprovalEvent.
func NewToolApprovalEvent(toolRequest json.RawMessage, sessionID string) ToolApprovalEvent {
	return ToolApprovalEvent{
		baseEvent:   newBaseEvent(TagToolApproval),
		ToolRequest: toolRequest,
		SessionID:   sessionID,
	}
}

// -----------------------------------------------------------------------------
// Assistant Events
// -----------------------------------------------------------------------------

// AssistantMessageEvent carries a plain assistant text message.
type AssistantMessageEvent struct {
	baseEvent
	Content string
}

// NewAssistantMessageEvent creates an AssistantMessageEvent.
func NewAssistantMessageEvent(content string) AssistantMessageEvent {
	return AssistantMessageEvent{
		baseEvent: newBaseEvent(TagAssistantMessage),
		Content:   content,
	}
}

// AssistantPlanEvent carries a structured plan produced by the
// assistant, outside the formal approval flow.
type AssistantPlanEvent struct {
	baseEvent
	Plan      json.RawMessage
	Reasoning string
	SessionID string
}

// NewAssistantPlanEvent creates an AssistantPlanEvent.
func NewAssistantPlanEvent(plan json.RawMessage, reasoning, sessionID string) AssistantPlanEvent {
	return AssistantPlanEvent{
		baseEvent: newBaseEvent(TagAssistantPlan),
		Plan:      plan,
		Reasoning: reasoning,
		SessionID: sessionID,
	}
}

// AssistantErrorEvent carries an error surfaced by the assistant.
type AssistantErrorEvent struct {
	baseEvent
	Content string
	Detail  string // Underlying error detail, if reported
}

// NewAssistantErrorEvent creates an AssistantErrorEvent.
func NewAssistantErrorEvent(content, detail string) AssistantErrorEvent {
	return AssistantErrorEvent{
		baseEvent: newBaseEvent(TagAssistantError),
		Content:   content,
		Detail:    detail,
	}
}

// AssistantThinkingEvent toggles the "assistant is thinking" indicator.
type AssistantThinkingEvent struct {
	baseEvent
	Thinking bool
}

// NewAssistantThinkingEvent creates an AssistantThinkingEvent.
func NewAssistantThinkingEvent(thinking bool) AssistantThinkingEvent {
	return AssistantThinkingEvent{
		baseEvent: newBaseEvent(TagAssistantThinking),
		Thinking:  thinking,
	}
}

// -----------------------------------------------------------------------------
// Artifact Events
// -----------------------------------------------------------------------------

// ChangePlanGeneratedEvent carries the generated change plan.
type ChangePlanGeneratedEvent struct {
	baseEvent
	Plan json.RawMessage
}

// NewChangePlanGeneratedEvent creates a ChangePlanGeneratedEvent.
func NewChangePlanGeneratedEvent(plan json.RawMessage) ChangePlanGeneratedEvent {
	return ChangePlanGeneratedEvent{
		baseEvent: newBaseEvent(TagChangePlanGenerated),
		Plan:      plan,
	}
}

// DiffsGeneratedEvent carries the generated diff set.
type DiffsGeneratedEvent struct {
	baseEvent
	Diffs json.RawMessage
}

// NewDiffsGeneratedEvent creates a DiffsGeneratedEvent.
func NewDiffsGeneratedEvent(diffs json.RawMessage) DiffsGeneratedEvent {
	return DiffsGeneratedEvent{
		baseEvent: newBaseEvent(TagDiffsGenerated),
		Diffs:     diffs,
	}
}

// ValidationResultEvent carries the validation outcome for generated
// diffs. Status and CanProceed are extracted from the payload so the
// step machine can decide between advance and fail without
// re-parsing; the full payload still travels verbatim in Result.
type ValidationResultEvent struct {
	baseEvent
	Result     json.RawMessage
	Status     string // e.g. "OK", "FAILED"; empty when absent
	CanProceed *bool  // nil when absent
}

// NewValidationResultEvent creates a ValidationResultEvent.
func NewValidationResultEvent(result json.RawMessage, status string, canProceed *bool) ValidationResultEvent {
	return ValidationResultEvent{
		baseEvent:  newBaseEvent(TagValidationResult),
		Result:     result,
		Status:     status,
		CanProceed: canProceed,
	}
}

// Failed reports whether this result blocks the pipeline. A FAILED
// status or an explicit canProceed=false overrides everything else.
func (e ValidationResultEvent) Failed() bool {
	if e.Status == "FAILED" {
		return true
	}
	return e.CanProceed != nil && !*e.CanProceed
}

// ChangesAppliedEvent carries the result of applying the diffs.
type ChangesAppliedEvent struct {
	baseEvent
	Payload json.RawMessage
}

// NewChangesAppliedEvent creates a ChangesAppliedEvent.
func NewChangesAppliedEvent(payload json.RawMessage) ChangesAppliedEvent {
	return ChangesAppliedEvent{
		baseEvent: newBaseEvent(TagChangesApplied),
		Payload:   payload,
	}
}

// -----------------------------------------------------------------------------
// PR / CI Events
// -----------------------------------------------------------------------------

// PREvent covers the three PR progress tags (branch created, commit
// created, PR created). Only pr.created advances the step machine;
// the other two are informational artifacts.
type PREvent struct {
	baseEvent
	Payload json.RawMessage
}

// NewPREvent creates a PREvent for one of the pr.* progress tags.
func NewPREvent(tag string, payload json.RawMessage) PREvent {
	return PREvent{
		baseEvent: newBaseEvent(tag),
		Payload:   payload,
	}
}

// PRCIEvent covers pr.ci.updated and pr.completed. Conclusion and
// State are extracted for step-machine routing; the payload travels
// verbatim.
type PRCIEvent struct {
	baseEvent
	Payload    json.RawMessage
	Conclusion string // e.g. "success", "failure"
	State      string // e.g. "completed", "failure"
}

// NewPRCIEvent creates a PRCIEvent for pr.ci.updated or pr.completed.
func NewPRCIEvent(tag string, payload json.RawMessage, conclusion, state string) PRCIEvent {
	return PRCIEvent{
		baseEvent:  newBaseEvent(tag),
		Payload:    payload,
		Conclusion: conclusion,
		State:      state,
	}
}

// Failed reports whether the CI update signals a failing run.
func (e PRCIEvent) Failed() bool {
	return e.Conclusion == "failure" || e.State == "failure"
}

// -----------------------------------------------------------------------------
// Command Stream Events
// -----------------------------------------------------------------------------

// CommandStartEvent opens a streamed shell command.
type CommandStartEvent struct {
	baseEvent
	CommandID string
	Command   string
	Cwd       string
	Meta      json.RawMessage // Backend-specific metadata, passed through verbatim
}

// NewCommandStartEvent creates a CommandStartEvent.
func NewCommandStartEvent(commandID, command, cwd string, meta json.RawMessage) CommandStartEvent {
	return CommandStartEvent{
		baseEvent: newBaseEvent(TagCommandStart),
		CommandID: commandID,
		Command:   command,
		Cwd:       cwd,
		Meta:      meta,
	}
}

// CommandOutputEvent appends a chunk of command output.
type CommandOutputEvent struct {
	baseEvent
	CommandID string
	Stream    string // "stdout" or "stderr"; anything else is treated as stdout
	Text      string
}

// NewCommandOutputEvent creates a CommandOutputEvent.
func NewCommandOutputEvent(commandID, stream, text string) CommandOutputEvent {
	return CommandOutputEvent{
		baseEvent: newBaseEvent(TagCommandOutput),
		CommandID: commandID,
		Stream:    stream,
		Text:      text,
	}
}

// CommandDoneEvent terminates a streamed command successfully.
type CommandDoneEvent struct {
	baseEvent
	CommandID string
	ExitCode  int
}

// NewCommandDoneEvent creates a CommandDoneEvent.
func NewCommandDoneEvent(commandID string, exitCode int) CommandDoneEvent {
	return CommandDoneEvent{
		baseEvent: newBaseEvent(TagCommandDone),
		CommandID: commandID,
		ExitCode:  exitCode,
	}
}

// CommandErrorEvent terminates a streamed command with an error.
type CommandErrorEvent struct {
	baseEvent
	CommandID string
	Error     string
	ExitCode  int
}

// NewCommandErrorEvent creates a CommandErrorEvent.
func NewCommandErrorEvent(commandID, errMsg string, exitCode int) CommandErrorEvent {
	return CommandErrorEvent{
		baseEvent: newBaseEvent(TagCommandError),
		CommandID: commandID,
		Error:     errMsg,
		ExitCode:  exitCode,
	}
}

// -----------------------------------------------------------------------------
// Read-Only Context Events
// -----------------------------------------------------------------------------

// ContextFile is one file reported by a read-only context response.
type ContextFile struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

// ReadonlyContextEvent carries a side-channel, non-pipeline response:
// the backend answered from existing context without running the
// pipeline.
type ReadonlyContextEvent struct {
	baseEvent
	Files   []ContextFile
	Summary string
}

// NewReadonlyContextEvent creates a ReadonlyContextEvent.
func NewReadonlyContextEvent(files []ContextFile, summary string) ReadonlyContextEvent {
	return ReadonlyContextEvent{
		baseEvent: newBaseEvent(TagReadonlyContext),
		Files:     files,
		Summary:   summary,
	}
}
