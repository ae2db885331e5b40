package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/sidecar/internal/errors"
	"github.com/Iron-Ham/sidecar/internal/event"
	"github.com/Iron-Ham/sidecar/internal/logging"
	"github.com/Iron-Ham/sidecar/internal/protocol"
	"github.com/Iron-Ham/sidecar/internal/state"
)

// fakeSender records outbound payloads and can be told to fail.
type fakeSender struct {
	sent [][]byte
	err  error
}

func (f *fakeSender) Send(payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeSender) last(t *testing.T) map[string]any {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	var got map[string]any
	if err := json.Unmarshal(f.sent[len(f.sent)-1], &got); err != nil {
		t.Fatalf("sent payload is not valid JSON: %v", err)
	}
	return got
}

func newTestSession(opts Options) (*Session, *fakeSender) {
	sender := &fakeSender{}
	opts.Sender = sender
	return New(opts), sender
}

func TestSession_HandleFrame(t *testing.T) {
	t.Run("valid frame updates the snapshot", func(t *testing.T) {
		sess, _ := newTestSession(Options{})

		sess.HandleFrame([]byte(`{"type":"assistant.message","content":"hello"}`))

		snap := sess.Snapshot()
		if len(snap.Messages) != 1 || snap.Messages[0].Content != "hello" {
			t.Errorf("unexpected snapshot: %+v", snap.Messages)
		}
	})

	t.Run("rejected frame leaves the snapshot untouched", func(t *testing.T) {
		sess, _ := newTestSession(Options{})
		bus := sess.Bus()

		var rejected []event.EventRejectedEvent
		bus.Subscribe("event.rejected", func(ev event.Event) {
			rejected = append(rejected, ev.(event.EventRejectedEvent))
		})

		before := sess.Snapshot()
		sess.HandleFrame([]byte(`{"type":"telemetry.ping"}`))
		sess.HandleFrame([]byte(`not json`))
		sess.HandleFrame([]byte(`{"type":"workflow.step","status":"active"}`))

		after := sess.Snapshot()
		if len(after.Messages) != len(before.Messages) || after.AgentStatus != before.AgentStatus {
			t.Error("rejected frames must not change state")
		}
		if len(rejected) != 3 {
			t.Fatalf("expected 3 rejection notices, got %d", len(rejected))
		}
		if rejected[0].Tag != "telemetry.ping" {
			t.Errorf("rejection should carry the envelope tag, got %q", rejected[0].Tag)
		}
	})

	t.Run("snapshot updates publish monotonic revisions", func(t *testing.T) {
		sess, _ := newTestSession(Options{})

		var revisions []uint64
		sess.Bus().Subscribe("snapshot.updated", func(ev event.Event) {
			revisions = append(revisions, ev.(event.SnapshotUpdatedEvent).Revision)
		})

		sess.HandleFrame([]byte(`{"type":"assistant.message","content":"one"}`))
		sess.HandleFrame([]byte(`{"type":"assistant.message","content":"two"}`))
		sess.HandleFrame([]byte(`{"type":"workflow.started"}`))

		if len(revisions) != 3 {
			t.Fatalf("expected 3 updates, got %d", len(revisions))
		}
		for i := 1; i < len(revisions); i++ {
			if revisions[i] <= revisions[i-1] {
				t.Errorf("revisions not monotonic: %v", revisions)
			}
		}
	})
}

func TestSession_Run(t *testing.T) {
	t.Run("drains frames until the channel closes", func(t *testing.T) {
		sess, _ := newTestSession(Options{})
		frames := make(chan []byte, 2)
		frames <- []byte(`{"type":"assistant.message","content":"one"}`)
		frames <- []byte(`{"type":"assistant.message","content":"two"}`)
		close(frames)

		done := make(chan struct{})
		go func() {
			sess.Run(context.Background(), frames)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not return after channel close")
		}

		if got := len(sess.Snapshot().Messages); got != 2 {
			t.Errorf("expected 2 messages, got %d", got)
		}
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		sess, _ := newTestSession(Options{})
		ctx, cancel := context.WithCancel(context.Background())
		frames := make(chan []byte)

		done := make(chan struct{})
		go func() {
			sess.Run(ctx, frames)
			close(done)
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not return after cancellation")
		}
	})
}

func TestSession_CommandLifecycle(t *testing.T) {
	t.Run("terminal event yields a command artifact", func(t *testing.T) {
		sess, _ := newTestSession(Options{})

		sess.HandleEvent(protocol.NewCommandStartEvent("c1", "go vet ./...", "/repo", nil))
		sess.HandleEvent(protocol.NewCommandOutputEvent("c1", "stdout", "ok\n"))

		// Streaming sub-events do not touch the snapshot.
		if got := len(sess.Snapshot().Messages); got != 0 {
			t.Fatalf("expected no messages mid-stream, got %d", got)
		}

		sess.HandleEvent(protocol.NewCommandDoneEvent("c1", 0))

		snap := sess.Snapshot()
		if len(snap.Messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(snap.Messages))
		}
		m := snap.Messages[0]
		if m.Kind != state.KindArtifact || m.Artifact == nil || m.Artifact.Kind != state.ArtifactCommand {
			t.Fatalf("unexpected message: %+v", m)
		}
		if m.Artifact.Title != "go vet ./..." {
			t.Errorf("artifact title = %q", m.Artifact.Title)
		}

		var res map[string]any
		if err := json.Unmarshal(m.Artifact.Data, &res); err != nil {
			t.Fatalf("artifact data is not valid JSON: %v", err)
		}
		if res["stdout"] != "ok\n" || res["exitCode"] != float64(0) {
			t.Errorf("unexpected result: %v", res)
		}
	})

	t.Run("orphan terminal event still yields an artifact", func(t *testing.T) {
		sess, _ := newTestSession(Options{})

		sess.HandleEvent(protocol.NewCommandErrorEvent("ghost", "killed", 137))

		snap := sess.Snapshot()
		if len(snap.Messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(snap.Messages))
		}
		if snap.Messages[0].Artifact.Title != "Command ghost" {
			t.Errorf("title = %q", snap.Messages[0].Artifact.Title)
		}
	})

	t.Run("per-stream cap applies", func(t *testing.T) {
		sess, _ := newTestSession(Options{MaxCommandBytes: 5})

		sess.HandleEvent(protocol.NewCommandOutputEvent("c1", "stdout", "0123456789"))
		sess.HandleEvent(protocol.NewCommandDoneEvent("c1", 0))

		var res map[string]any
		snap := sess.Snapshot()
		if err := json.Unmarshal(snap.Messages[0].Artifact.Data, &res); err != nil {
			t.Fatal(err)
		}
		if res["stdout"] != "56789" {
			t.Errorf("stdout = %v, want capped tail", res["stdout"])
		}
	})
}

func TestSession_Dedup(t *testing.T) {
	sess, _ := newTestSession(Options{DedupWindow: 1500 * time.Millisecond})

	sess.HandleEvent(protocol.NewAssistantMessageEvent("analysis complete"))
	sess.HandleEvent(protocol.NewAssistantMessageEvent("analysis complete"))
	sess.HandleEvent(protocol.NewAssistantMessageEvent("   "))
	sess.HandleEvent(protocol.NewAssistantMessageEvent("next step"))

	snap := sess.Snapshot()
	if len(snap.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(snap.Messages))
	}
	if snap.Messages[0].Content != "analysis complete" || snap.Messages[1].Content != "next step" {
		t.Errorf("unexpected messages: %+v", snap.Messages)
	}
}

func TestSession_PlanApproval(t *testing.T) {
	t.Run("approve sends decision then clears the gate", func(t *testing.T) {
		sess, sender := newTestSession(Options{})
		sess.HandleFrame([]byte(`{"type":"approval.required","task_id":"t1","session_id":"s1","plan":{}}`))

		if err := sess.ApprovePlan(); err != nil {
			t.Fatalf("ApprovePlan failed: %v", err)
		}

		got := sender.last(t)
		if got["type"] != protocol.TagPlanDecision || got["task_id"] != "t1" || got["approved"] != true {
			t.Errorf("unexpected payload: %v", got)
		}

		snap := sess.Snapshot()
		if snap.PendingPlanApproval != nil {
			t.Error("gate must clear after a confirmed send")
		}
		if snap.AgentStatus != state.StatusRunning {
			t.Errorf("AgentStatus = %q, want running", snap.AgentStatus)
		}
	})

	t.Run("reject carries feedback", func(t *testing.T) {
		sess, sender := newTestSession(Options{})
		sess.HandleFrame([]byte(`{"type":"approval.required","task_id":"t1","plan":{}}`))

		if err := sess.RejectPlan("wrong direction"); err != nil {
			t.Fatalf("RejectPlan failed: %v", err)
		}

		got := sender.last(t)
		if got["approved"] != false || got["feedback"] != "wrong direction" {
			t.Errorf("unexpected payload: %v", got)
		}
	})

	t.Run("nothing pending", func(t *testing.T) {
		sess, sender := newTestSession(Options{})

		err := sess.ApprovePlan()
		if !errors.Is(err, errors.ErrNoPendingApproval) {
			t.Errorf("expected ErrNoPendingApproval, got %v", err)
		}
		if !errors.IsUserFacing(err) {
			t.Error("a refused decision must carry a user-facing message")
		}
		if len(sender.sent) != 0 {
			t.Error("nothing should be sent")
		}
	})

	t.Run("missing correlation id refuses and keeps the gate", func(t *testing.T) {
		sess, sender := newTestSession(Options{})
		sess.HandleFrame([]byte(`{"type":"approval.required","session_id":"s1","plan":{}}`))

		err := sess.ApprovePlan()
		if !errors.Is(err, protocol.ErrNoCorrelationID) {
			t.Fatalf("expected ErrNoCorrelationID, got %v", err)
		}
		if len(sender.sent) != 0 {
			t.Error("refused decision must never be sent")
		}
		if sess.Snapshot().PendingPlanApproval == nil {
			t.Error("gate must stay intact after a refused decision")
		}
	})

	t.Run("failed send keeps the gate", func(t *testing.T) {
		sess, sender := newTestSession(Options{})
		sender.err = errors.New("connection reset")
		sess.HandleFrame([]byte(`{"type":"approval.required","task_id":"t1","plan":{}}`))

		if err := sess.ApprovePlan(); err == nil {
			t.Fatal("expected send error")
		}
		if sess.Snapshot().PendingPlanApproval == nil {
			t.Error("gate must stay intact after a failed send")
		}
	})
}

func TestSession_ToolApproval(t *testing.T) {
	sess, sender := newTestSession(Options{})
	sess.HandleFrame([]byte(`{"type":"tool.approval","tool_request":{"tool":"bash"},"session_id":"s1"}`))

	if err := sess.ResolveToolApproval(false); err != nil {
		t.Fatalf("ResolveToolApproval failed: %v", err)
	}

	got := sender.last(t)
	if got["type"] != protocol.TagToolDecision || got["session_id"] != "s1" || got["approved"] != false {
		t.Errorf("unexpected payload: %v", got)
	}
	if sess.Snapshot().PendingToolApproval != nil {
		t.Error("tool gate must clear after a confirmed send")
	}
}

func TestSession_ToolApprovalNothingPending(t *testing.T) {
	sess, sender := newTestSession(Options{})

	if err := sess.ResolveToolApproval(true); !errors.Is(err, errors.ErrNoPendingApproval) {
		t.Errorf("expected ErrNoPendingApproval, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("nothing should be sent")
	}
}

func TestSession_AttachmentActions(t *testing.T) {
	t.Run("pathless file attachment refused", func(t *testing.T) {
		sess, _ := newTestSession(Options{})

		err := sess.AddAttachment(protocol.Attachment{Kind: protocol.AttachmentPickedFile, Path: "   "})
		if !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(sess.Snapshot().Attachments) != 0 {
			t.Error("refused attachment must not be stored")
		}
	})

	t.Run("removing an unknown key reports not found", func(t *testing.T) {
		sess, _ := newTestSession(Options{})

		var nfe *errors.NotFoundError
		if err := sess.RemoveAttachment("no-such-key"); !errors.As(err, &nfe) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})

	t.Run("remove detaches exactly the keyed item", func(t *testing.T) {
		sess, _ := newTestSession(Options{})
		a := protocol.Attachment{Kind: protocol.AttachmentPickedFile, Path: "a.go"}
		b := protocol.Attachment{Kind: protocol.AttachmentPickedFile, Path: "b.go"}
		if err := sess.AddAttachment(a); err != nil {
			t.Fatal(err)
		}
		if err := sess.AddAttachment(b); err != nil {
			t.Fatal(err)
		}

		if err := sess.RemoveAttachment(a.Key()); err != nil {
			t.Fatalf("RemoveAttachment failed: %v", err)
		}
		atts := sess.Snapshot().Attachments
		if len(atts) != 1 || atts[0].Path != "b.go" {
			t.Errorf("attachments = %+v", atts)
		}
	})
}

func TestSession_SendMessage(t *testing.T) {
	t.Run("sends attachments and clears them on success", func(t *testing.T) {
		sess, sender := newTestSession(Options{})
		sess.AddAttachment(protocol.Attachment{Kind: protocol.AttachmentCurrentFile, Path: "main.go"})

		if err := sess.SendMessage("please review"); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}

		got := sender.last(t)
		if got["text"] != "please review" {
			t.Errorf("text = %v", got["text"])
		}
		if atts, ok := got["attachments"].([]any); !ok || len(atts) != 1 {
			t.Errorf("attachments = %v", got["attachments"])
		}

		snap := sess.Snapshot()
		if len(snap.Attachments) != 0 {
			t.Error("attachments must clear after a confirmed send")
		}
		if len(snap.Messages) != 1 || snap.Messages[0].Role != state.RoleUser {
			t.Errorf("user turn not logged: %+v", snap.Messages)
		}
	})

	t.Run("empty text refused, attachments kept", func(t *testing.T) {
		sess, sender := newTestSession(Options{})
		sess.AddAttachment(protocol.Attachment{Kind: protocol.AttachmentSelection, Path: "a.go"})

		if err := sess.SendMessage("   "); !errors.Is(err, errors.ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage, got %v", err)
		}
		if len(sender.sent) != 0 {
			t.Error("nothing should be sent")
		}
		if len(sess.Snapshot().Attachments) != 1 {
			t.Error("attachments must survive a refused send")
		}
	})

	t.Run("failed send keeps attachments", func(t *testing.T) {
		sess, sender := newTestSession(Options{})
		sess.AddAttachment(protocol.Attachment{Kind: protocol.AttachmentSelection, Path: "a.go"})
		sender.err = errors.New("broken pipe")

		if err := sess.SendMessage("hello"); err == nil {
			t.Fatal("expected send error")
		}
		if len(sess.Snapshot().Attachments) != 1 {
			t.Error("attachments must survive a failed send")
		}
		if len(sess.Snapshot().Messages) != 0 {
			t.Error("user turn must not be logged after a failed send")
		}
	})
}

func TestSession_ContextFiltering(t *testing.T) {
	sess, _ := newTestSession(Options{IgnoreGlobs: []string{"**/*.lock", "node_modules/**"}})

	sess.HandleFrame([]byte(`{"type":"readonly.context","files":[` +
		`{"path":"src/main.go"},` +
		`{"path":"deps/yarn.lock"},` +
		`{"path":"node_modules/left-pad/index.js"}]}`))

	snap := sess.Snapshot()
	if len(snap.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(snap.Messages))
	}

	var data struct {
		Files []protocol.ContextFile `json:"files"`
	}
	if err := json.Unmarshal(snap.Messages[0].Artifact.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Files) != 1 || data.Files[0].Path != "src/main.go" {
		t.Errorf("filtered files = %+v", data.Files)
	}
}

func TestSession_ResetChat(t *testing.T) {
	sess, _ := newTestSession(Options{})

	sess.HandleEvent(protocol.NewAssistantMessageEvent("remembered"))
	sess.HandleEvent(protocol.NewCommandStartEvent("c1", "cmd", "", nil))

	sess.ResetChat()

	if len(sess.Snapshot().Messages) != 0 {
		t.Error("messages not cleared")
	}

	// Dedup memory is reset: the same text is admitted again.
	sess.HandleEvent(protocol.NewAssistantMessageEvent("remembered"))
	if len(sess.Snapshot().Messages) != 1 {
		t.Error("dedup guard should forget after reset")
	}

	// Command buffers are dropped: the old start is gone.
	sess.HandleEvent(protocol.NewCommandDoneEvent("c1", 0))
	snap := sess.Snapshot()
	last := snap.Messages[len(snap.Messages)-1]
	if last.Artifact == nil || last.Artifact.Title != "Command c1" {
		t.Errorf("expected orphan artifact after reset, got %+v", last)
	}
}

func TestSession_SnapshotIsolation(t *testing.T) {
	sess, _ := newTestSession(Options{})
	sess.HandleFrame([]byte(`{"type":"workflow.started"}`))
	sess.HandleFrame([]byte(`{"type":"approval.required","task_id":"t1","plan":{}}`))

	snap := sess.Snapshot()
	snap.Steps[state.StepScan] = state.StepFailed
	snap.PendingPlanApproval.TaskID = "tampered"
	snap.Messages = append(snap.Messages, state.Message{Role: state.RoleUser})

	fresh := sess.Snapshot()
	if got := fresh.Steps[state.StepScan]; got != state.StepActive {
		t.Errorf("step scan = %q after caller mutation, want %q", got, state.StepActive)
	}
	if fresh.PendingPlanApproval == nil || fresh.PendingPlanApproval.TaskID != "t1" {
		t.Errorf("pending approval tampered with: %+v", fresh.PendingPlanApproval)
	}
	if len(fresh.Messages) != len(snap.Messages)-1 {
		t.Errorf("message append leaked into session state")
	}
}

func TestSession_CommandLogging(t *testing.T) {
	dir := t.TempDir()
	log, err := logging.NewLogger(dir, logging.LevelDebug, logging.RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	sess, _ := newTestSession(Options{Logger: log})
	sess.HandleEvent(protocol.NewCommandStartEvent("c9", "go test ./...", "", nil))
	sess.HandleEvent(protocol.NewCommandDoneEvent("c9", 0))
	sess.HandleFrame([]byte(`{"type":"workflow.step","step":"validate","status":"active"}`))

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"command_id":"c9"`) {
		t.Errorf("command log entries should carry the command id; log:\n%s", data)
	}
	if !strings.Contains(string(data), `"step":"validate"`) {
		t.Errorf("step log entries should carry the step id; log:\n%s", data)
	}
}
