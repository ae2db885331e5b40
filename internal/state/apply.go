package state

import (
	"github.com/Iron-Ham/sidecar/internal/protocol"
)

// Apply is the state transition function: it folds one inbound wire
// event into the snapshot and returns the successor. It is pure,
// total, and deterministic: every event tag is handled, unrecognized
// or out-of-scope events (including the command.* stream, which is
// owned by the command aggregator) are a no-op, and it never panics.
//
// Deduplication of assistant text messages happens before Apply; by
// the time an AssistantMessageEvent reaches this function it has
// already passed the guard.
func Apply(s Snapshot, ev protocol.Event) Snapshot {
	switch e := ev.(type) {
	case protocol.WorkflowStartedEvent:
		return applyWorkflowStarted(s)

	case protocol.WorkflowStepEvent:
		return applyWorkflowStep(s, e)

	case protocol.WorkflowCompletedEvent:
		// Terminal reset back to the initial snapshot.
		return NewSnapshot()

	case protocol.WorkflowFailedEvent:
		return applyWorkflowFailed(s, e)

	case protocol.ApprovalRequiredEvent:
		out := s.clone()
		out.AgentStatus = StatusAwaitingApproval
		out.PendingPlanApproval = &PlanApproval{
			TaskID:      e.TaskID,
			SessionID:   e.SessionID,
			Plan:        e.Plan,
			RequestedAt: e.Timestamp(),
		}
		return out

	case protocol.ToolApprovalEvent:
		out := s.clone()
		out.AgentStatus = StatusAwaitingApproval
		out.PendingToolApproval = &ToolApproval{
			ToolRequest: e.ToolRequest,
			SessionID:   e.SessionID,
			RequestedAt: e.Timestamp(),
		}
		return out

	case protocol.AssistantMessageEvent:
		out := s.clone()
		out.appendMessage(Message{
			Role:      RoleAssistant,
			Kind:      KindText,
			Content:   e.Content,
			Timestamp: e.Timestamp(),
		})
		return out

	case protocol.AssistantPlanEvent:
		out := s.clone()
		out.Thinking = false
		out.appendMessage(Message{
			Role:      RoleAssistant,
			Kind:      KindPlan,
			Content:   e.Reasoning,
			Plan:      e.Plan,
			Timestamp: e.Timestamp(),
		})
		return out

	case protocol.AssistantErrorEvent:
		out := s.clone()
		out.Thinking = false
		out.appendMessage(Message{
			Role:      RoleAssistant,
			Kind:      KindError,
			Content:   e.Content,
			Error:     e.Detail,
			Timestamp: e.Timestamp(),
		})
		return out

	case protocol.AssistantThinkingEvent:
		out := s.clone()
		out.Thinking = e.Thinking
		return out

	case protocol.ChangePlanGeneratedEvent,
		protocol.DiffsGeneratedEvent,
		protocol.ValidationResultEvent,
		protocol.ChangesAppliedEvent,
		protocol.PREvent,
		protocol.PRCIEvent:
		return applyArtifact(s, ev)

	case protocol.ReadonlyContextEvent:
		return applyReadonlyContext(s, e)

	default:
		// Unrecognized events (and the command.* stream, which the
		// aggregator consumes) leave the snapshot untouched.
		return s
	}
}

func applyWorkflowStarted(s Snapshot) Snapshot {
	out := s.clone()
	out.AgentStatus = StatusRunning
	out.Steps = pendingSteps()
	out.Steps[StepScan] = StepActive
	out.CurrentStep = StepScan
	out.PendingPlanApproval = nil
	out.PendingToolApproval = nil
	return out
}

func applyWorkflowStep(s Snapshot, e protocol.WorkflowStepEvent) Snapshot {
	id := StepID(e.Step)
	if !canonicalStep(id) {
		return s
	}
	out := s.clone()
	switch e.Status {
	case "active":
		out.Steps[id] = StepActive
		out.CurrentStep = id
	case "completed":
		out.Steps[id] = StepCompleted
	case "failed":
		out.Steps[id] = StepFailed
		out.AgentStatus = StatusError
	default:
		return s
	}
	return out
}

func applyWorkflowFailed(s Snapshot, e protocol.WorkflowFailedEvent) Snapshot {
	out := s.clone()
	out.AgentStatus = StatusError
	// The failed step id defaults to "unknown", which is not in the
	// canonical set; the step table only changes for canonical ids.
	if id := StepID(e.Step); canonicalStep(id) {
		out.Steps[id] = StepFailed
	}
	return out
}

func applyReadonlyContext(s Snapshot, e protocol.ReadonlyContextEvent) Snapshot {
	out := s.clone()
	// A read-only answer is a side channel, not a pipeline run: any
	// previously displayed step progress is cleared.
	out.Steps = pendingSteps()
	out.CurrentStep = ""
	out.AgentStatus = StatusIdle
	if msg, ok := artifactMessage(e); ok {
		out.appendMessage(msg)
	}
	return out
}

// applyArtifact handles every artifact-producing event: each appends
// an artifact message carrying the payload verbatim, and advances the
// step machine. Message construction and step transitions are two
// independent pure functions composed here.
func applyArtifact(s Snapshot, ev protocol.Event) Snapshot {
	out := s.clone()
	if msg, ok := artifactMessage(ev); ok {
		out.appendMessage(msg)
	}
	advanceSteps(&out, ev)
	return out
}
