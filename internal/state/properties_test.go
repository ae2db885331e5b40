package state

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Iron-Ham/sidecar/internal/protocol"
)

// eventFromCode maps an arbitrary integer onto one inbound event,
// covering every tag the reconciler handles plus step ids and statuses
// outside the canonical sets.
func eventFromCode(code int) protocol.Event {
	stepIDs := []string{"scan", "plan", "diff", "validate", "apply", "pr", "ci", "heal", "deploy", "unknown", ""}
	statuses := []string{"active", "completed", "failed"}

	step := stepIDs[code%len(stepIDs)]
	status := statuses[code%len(statuses)]

	switch code % 14 {
	case 0:
		return protocol.NewWorkflowStartedEvent("task")
	case 1:
		return protocol.NewWorkflowStepEvent(step, status)
	case 2:
		return protocol.NewWorkflowCompletedEvent()
	case 3:
		return protocol.NewWorkflowFailedEvent(step, "reason")
	case 4:
		return protocol.NewApprovalRequiredEvent("t", "s", json.RawMessage(`{}`))
	case 5:
		return protocol.NewToolApprovalEvent(json.RawMessage(`{}`), "s")
	case 6:
		return protocol.NewAssistantMessageEvent("text")
	case 7:
		return protocol.NewAssistantThinkingEvent(code%2 == 0)
	case 8:
		return protocol.NewChangePlanGeneratedEvent(json.RawMessage(`{}`))
	case 9:
		return protocol.NewDiffsGeneratedEvent(json.RawMessage(`[]`))
	case 10:
		if code%2 == 0 {
			return protocol.NewValidationResultEvent(nil, "OK", nil)
		}
		return protocol.NewValidationResultEvent(nil, "FAILED", nil)
	case 11:
		return protocol.NewChangesAppliedEvent(nil)
	case 12:
		tags := []string{protocol.TagPRBranchCreated, protocol.TagPRCommitCreated, protocol.TagPRCreated}
		return protocol.NewPREvent(tags[code%len(tags)], nil)
	default:
		if code%2 == 0 {
			return protocol.NewPRCIEvent(protocol.TagPRCIUpdated, nil, "failure", "")
		}
		return protocol.NewPRCIEvent(protocol.TagPRCompleted, nil, "success", "completed")
	}
}

// genEventCodes generates a random event sequence as integer codes.
func genEventCodes() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 1000))
}

var validStepStatuses = map[StepStatus]bool{
	StepPending: true, StepActive: true, StepCompleted: true, StepFailed: true,
}

var validAgentStatuses = map[AgentStatus]bool{
	StatusIdle: true, StatusRunning: true, StatusAwaitingApproval: true, StatusError: true,
}

// TestStepTableClosure checks that the step table always contains
// exactly the eight canonical keys, no matter what event sequence is
// applied, and that every status stays in its domain.
func TestStepTableClosure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("step table keys and statuses stay canonical", prop.ForAll(
		func(codes []int) bool {
			s := NewSnapshot()
			for _, code := range codes {
				s = Apply(s, eventFromCode(code))

				if len(s.Steps) != len(StepOrder) {
					return false
				}
				for _, id := range StepOrder {
					status, ok := s.Steps[id]
					if !ok || !validStepStatuses[status] {
						return false
					}
				}
				if !validAgentStatuses[s.AgentStatus] {
					return false
				}
			}
			return true
		},
		genEventCodes(),
	))

	properties.TestingRun(t)
}

// TestApplyPurity checks that Apply never mutates its input snapshot.
func TestApplyPurity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("input snapshot is untouched by Apply", prop.ForAll(
		func(codes []int) bool {
			s := NewSnapshot()
			for _, code := range codes {
				ev := eventFromCode(code)

				stepsBefore := make(map[StepID]StepStatus, len(s.Steps))
				for id, status := range s.Steps {
					stepsBefore[id] = status
				}
				messagesBefore := len(s.Messages)
				statusBefore := s.AgentStatus

				next := Apply(s, ev)

				if len(s.Messages) != messagesBefore || s.AgentStatus != statusBefore {
					return false
				}
				for id, status := range stepsBefore {
					if s.Steps[id] != status {
						return false
					}
				}

				s = next
			}
			return true
		},
		genEventCodes(),
	))

	properties.TestingRun(t)
}

// TestMessageIDUniqueness checks that message ids stay unique through
// any event sequence.
func TestMessageIDUniqueness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("message ids never collide", prop.ForAll(
		func(codes []int) bool {
			s := NewSnapshot()
			for _, code := range codes {
				s = Apply(s, eventFromCode(code))
			}

			seen := make(map[string]bool, len(s.Messages))
			for _, m := range s.Messages {
				if m.ID == "" || seen[m.ID] {
					return false
				}
				seen[m.ID] = true
			}
			return true
		},
		genEventCodes(),
	))

	properties.TestingRun(t)
}
