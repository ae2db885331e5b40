package state

import (
	"encoding/json"

	"github.com/Iron-Ham/sidecar/internal/protocol"
)

// artifactMessage builds the conversation message for an
// artifact-producing event. It is independent of the step machine so
// the two halves of artifact handling can be tested separately.
// Returns false when the event produces no message (a read-only
// context response with no files).
func artifactMessage(ev protocol.Event) (Message, bool) {
	var art Artifact
	switch e := ev.(type) {
	case protocol.ChangePlanGeneratedEvent:
		art = Artifact{Kind: ArtifactChangePlan, Title: "Change plan", Data: e.Plan}

	case protocol.DiffsGeneratedEvent:
		art = Artifact{Kind: ArtifactDiffs, Title: "Generated diffs", Data: e.Diffs}

	case protocol.ValidationResultEvent:
		title := "Validation passed"
		if e.Failed() {
			title = "Validation failed"
		}
		art = Artifact{Kind: ArtifactValidation, Title: title, Data: e.Result}

	case protocol.ChangesAppliedEvent:
		art = Artifact{Kind: ArtifactApply, Title: "Changes applied", Data: e.Payload}

	case protocol.PREvent:
		art = Artifact{Kind: ArtifactPR, Title: prTitle(e.EventType()), Data: e.Payload}

	case protocol.PRCIEvent:
		title := "CI update"
		if e.Failed() {
			title = "CI failed"
		} else if e.EventType() == protocol.TagPRCompleted {
			title = "CI passed"
		}
		art = Artifact{Kind: ArtifactCI, Title: title, Data: e.Payload}

	case protocol.ReadonlyContextEvent:
		if len(e.Files) == 0 {
			return Message{}, false
		}
		data, err := json.Marshal(struct {
			Files   []protocol.ContextFile `json:"files"`
			Summary string                 `json:"summary,omitempty"`
		}{Files: e.Files, Summary: e.Summary})
		if err != nil {
			return Message{}, false
		}
		art = Artifact{Kind: ArtifactContext, Title: "Context", Data: data}

	default:
		return Message{}, false
	}

	return Message{
		Role:      RoleAssistant,
		Kind:      KindArtifact,
		Timestamp: ev.Timestamp(),
		Artifact:  &art,
	}, true
}

func prTitle(tag string) string {
	switch tag {
	case protocol.TagPRBranchCreated:
		return "Branch created"
	case protocol.TagPRCommitCreated:
		return "Commit created"
	case protocol.TagPRCreated:
		return "Pull request opened"
	default:
		return "Pull request update"
	}
}
