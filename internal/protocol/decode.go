package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors returned by Decode. Callers should treat both as
// "drop the envelope": neither produces a partial event.
var (
	ErrUnknownTag   = errors.New("unknown event tag")
	ErrMissingField = errors.New("missing required field")
)

// envelope is the common wire shape: a tag plus tag-specific fields.
// Fields for every tag are declared here; Decode validates per-tag
// which ones are required.
type envelope struct {
	Type string `json:"type"`

	// Workflow
	Step   string `json:"step,omitempty"`
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
	TaskID string `json:"task_id,omitempty"`

	// Assistant
	Content   string          `json:"content,omitempty"`
	Error     string          `json:"error,omitempty"`
	Thinking  *bool           `json:"thinking,omitempty"`
	Plan      json.RawMessage `json:"plan,omitempty"`
	Reasoning string          `json:"reasoning,omitempty"`
	SessionID string          `json:"session_id,omitempty"`

	// Artifacts
	Diffs      json.RawMessage `json:"diffs,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CanProceed *bool           `json:"canProceed,omitempty"`
	Conclusion string          `json:"conclusion,omitempty"`
	State      string          `json:"state,omitempty"`

	// Commands
	CommandID string          `json:"commandId,omitempty"`
	Command   string          `json:"command,omitempty"`
	Cwd       string          `json:"cwd,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	Stream    string          `json:"stream,omitempty"`
	Text      string          `json:"text,omitempty"`
	ExitCode  *int            `json:"exitCode,omitempty"`

	// Read-only context / approvals
	Files       []ContextFile   `json:"files,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	ToolRequest json.RawMessage `json:"tool_request,omitempty"`
}

// PeekTag returns the envelope's tag without decoding the event, or
// "" when the frame is not valid JSON. Useful for reporting which tag
// a rejected envelope carried.
func PeekTag(data []byte) string {
	var t struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return ""
	}
	return t.Type
}

// Decode parses one wire envelope into a typed event. It is
// fail-closed: a malformed envelope, an unknown tag, or a missing
// required field yields a nil event and a non-nil error, and never a
// partially-populated event.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	}

	switch env.Type {
	case TagWorkflowStarted:
		return NewWorkflowStartedEvent(env.TaskID), nil

	case TagWorkflowStep:
		if env.Step == "" {
			return nil, fmt.Errorf("%w: %s.step", ErrMissingField, env.Type)
		}
		switch env.Status {
		case "active", "completed", "failed":
		case "":
			return nil, fmt.Errorf("%w: %s.status", ErrMissingField, env.Type)
		default:
			return nil, fmt.Errorf("invalid status %q for %s", env.Status, env.Type)
		}
		return NewWorkflowStepEvent(env.Step, env.Status), nil

	case TagWorkflowCompleted:
		return NewWorkflowCompletedEvent(), nil

	case TagWorkflowFailed:
		return NewWorkflowFailedEvent(env.Step, env.Reason), nil

	case TagApprovalRequired:
		return NewApprovalRequiredEvent(env.TaskID, env.SessionID, env.Plan), nil

	case TagToolApproval:
		if len(env.ToolRequest) == 0 {
			return nil, fmt.Errorf("%w: %s.tool_request", ErrMissingField, env.Type)
		}
		if env.SessionID == "" {
			return nil, fmt.Errorf("%w: %s.session_id", ErrMissingField, env.Type)
		}
		return NewToolApprovalEvent(env.ToolRequest, env.SessionID), nil

	case TagAssistantMessage:
		if env.Content == "" {
			return nil, fmt.Errorf("%w: %s.content", ErrMissingField, env.Type)
		}
		return NewAssistantMessageEvent(env.Content), nil

	case TagAssistantPlan:
		if len(env.Plan) == 0 {
			return nil, fmt.Errorf("%w: %s.plan", ErrMissingField, env.Type)
		}
		return NewAssistantPlanEvent(env.Plan, env.Reasoning, env.SessionID), nil

	case TagAssistantError:
		if env.Content == "" {
			return nil, fmt.Errorf("%w: %s.content", ErrMissingField, env.Type)
		}
		return NewAssistantErrorEvent(env.Content, env.Error), nil

	case TagAssistantThinking:
		if env.Thinking == nil {
			return nil, fmt.Errorf("%w: %s.thinking", ErrMissingField, env.Type)
		}
		return NewAssistantThinkingEvent(*env.Thinking), nil

	case TagChangePlanGenerated:
		if len(env.Plan) == 0 {
			return nil, fmt.Errorf("%w: %s.plan", ErrMissingField, env.Type)
		}
		return NewChangePlanGeneratedEvent(env.Plan), nil

	case TagDiffsGenerated:
		payload := env.Diffs
		if len(payload) == 0 {
			// Some backend versions put the diff set directly in the
			// envelope body rather than under a "diffs" key.
			payload = stripType(data)
		}
		if len(payload) == 0 {
			return nil, fmt.Errorf("%w: %s.diffs", ErrMissingField, env.Type)
		}
		return NewDiffsGeneratedEvent(payload), nil

	case TagValidationResult:
		payload := env.Result
		if len(payload) == 0 {
			payload = stripType(data)
		}
		return NewValidationResultEvent(payload, env.Status, env.CanProceed), nil

	case TagChangesApplied:
		return NewChangesAppliedEvent(bodyOr(env.Payload, data)), nil

	case TagPRBranchCreated, TagPRCommitCreated, TagPRCreated:
		return NewPREvent(env.Type, bodyOr(env.Payload, data)), nil

	case TagPRCIUpdated, TagPRCompleted:
		return NewPRCIEvent(env.Type, bodyOr(env.Payload, data), env.Conclusion, env.State), nil

	case TagCommandStart:
		if env.CommandID == "" {
			return nil, fmt.Errorf("%w: %s.commandId", ErrMissingField, env.Type)
		}
		return NewCommandStartEvent(env.CommandID, env.Command, env.Cwd, env.Meta), nil

	case TagCommandOutput:
		if env.CommandID == "" {
			return nil, fmt.Errorf("%w: %s.commandId", ErrMissingField, env.Type)
		}
		return NewCommandOutputEvent(env.CommandID, env.Stream, env.Text), nil

	case TagCommandDone:
		if env.CommandID == "" {
			return nil, fmt.Errorf("%w: %s.commandId", ErrMissingField, env.Type)
		}
		return NewCommandDoneEvent(env.CommandID, exitCodeOrZero(env.ExitCode)), nil

	case TagCommandError:
		if env.CommandID == "" {
			return nil, fmt.Errorf("%w: %s.commandId", ErrMissingField, env.Type)
		}
		return NewCommandErrorEvent(env.CommandID, env.Error, exitCodeOrZero(env.ExitCode)), nil

	case TagReadonlyContext:
		if env.Files == nil {
			return nil, fmt.Errorf("%w: %s.files", ErrMissingField, env.Type)
		}
		return NewReadonlyContextEvent(env.Files, env.Summary), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, env.Type)
	}
}

// bodyOr returns the explicit payload when present, otherwise the
// envelope body minus its tag. Artifact payloads travel verbatim.
func bodyOr(payload json.RawMessage, data []byte) json.RawMessage {
	if len(payload) > 0 {
		return payload
	}
	return stripType(data)
}

// stripType re-marshals the envelope body without its "type" key, so
// artifact payloads embedded directly in the envelope can be passed
// through as-is.
func stripType(data []byte) json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	delete(m, "type")
	if len(m) == 0 {
		return nil
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return out
}

func exitCodeOrZero(code *int) int {
	if code == nil {
		return 0
	}
	return *code
}
