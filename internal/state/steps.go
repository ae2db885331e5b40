package state

import (
	"github.com/Iron-Ham/sidecar/internal/protocol"
)

// advanceSteps applies the pipeline-stage transitions implied by an
// artifact-producing event. This is the core business rule of the
// panel: each artifact both completes the stage that produced it and
// activates the next one, with failure signals overriding completion.
//
// A late failure never rolls back earlier completed steps: a CI
// failure fails ci only, even though apply and pr stay completed.
func advanceSteps(s *Snapshot, ev protocol.Event) {
	switch e := ev.(type) {
	case protocol.ChangePlanGeneratedEvent:
		completeStep(s, StepScan)
		completeStep(s, StepPlan)
		activateStep(s, StepDiff)

	case protocol.DiffsGeneratedEvent:
		completeStep(s, StepDiff)
		activateStep(s, StepValidate)

	case protocol.ValidationResultEvent:
		if e.Failed() {
			failStep(s, StepValidate)
			return
		}
		completeStep(s, StepValidate)
		activateStep(s, StepApply)

	case protocol.ChangesAppliedEvent:
		completeStep(s, StepApply)
		activateStep(s, StepPR)

	case protocol.PREvent:
		switch e.EventType() {
		case protocol.TagPRCreated:
			completeStep(s, StepPR)
			activateStep(s, StepCI)
		default:
			// Branch/commit progress keeps the pr step visibly
			// underway without completing it.
			if s.Steps[StepPR] == StepPending {
				activateStep(s, StepPR)
			}
		}

	case protocol.PRCIEvent:
		if e.Failed() {
			failStep(s, StepCI)
			return
		}
		if e.EventType() == protocol.TagPRCompleted {
			completeStep(s, StepCI)
		}
	}
}

func completeStep(s *Snapshot, id StepID) {
	s.Steps[id] = StepCompleted
}

func activateStep(s *Snapshot, id StepID) {
	s.Steps[id] = StepActive
	s.CurrentStep = id
}

func failStep(s *Snapshot, id StepID) {
	s.Steps[id] = StepFailed
	s.AgentStatus = StatusError
}
