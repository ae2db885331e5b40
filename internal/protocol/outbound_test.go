package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodePlanDecision(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		data, err := EncodePlanDecision("task-1", "sess-1", true, "")
		if err != nil {
			t.Fatalf("EncodePlanDecision failed: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["type"] != TagPlanDecision {
			t.Errorf("type = %v, want %s", got["type"], TagPlanDecision)
		}
		if got["task_id"] != "task-1" || got["session_id"] != "sess-1" {
			t.Errorf("correlation ids = %v/%v", got["task_id"], got["session_id"])
		}
		if got["approved"] != true {
			t.Errorf("approved = %v, want true", got["approved"])
		}
		if _, ok := got["feedback"]; ok {
			t.Error("empty feedback should be omitted")
		}
	})

	t.Run("reject with feedback", func(t *testing.T) {
		data, err := EncodePlanDecision("task-1", "", false, "too risky")
		if err != nil {
			t.Fatalf("EncodePlanDecision failed: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["approved"] != false {
			t.Errorf("approved = %v, want false", got["approved"])
		}
		if got["feedback"] != "too risky" {
			t.Errorf("feedback = %v", got["feedback"])
		}
		if _, ok := got["session_id"]; ok {
			t.Error("empty session_id should be omitted")
		}
	})

	t.Run("refuses missing task id", func(t *testing.T) {
		data, err := EncodePlanDecision("", "sess-1", true, "")
		if !errors.Is(err, ErrNoCorrelationID) {
			t.Errorf("expected ErrNoCorrelationID, got %v", err)
		}
		if data != nil {
			t.Error("refused decision must not produce a payload")
		}
	})
}

func TestEncodeToolDecision(t *testing.T) {
	t.Run("deny", func(t *testing.T) {
		data, err := EncodeToolDecision("sess-1", false)
		if err != nil {
			t.Fatalf("EncodeToolDecision failed: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["type"] != TagToolDecision {
			t.Errorf("type = %v, want %s", got["type"], TagToolDecision)
		}
		if got["session_id"] != "sess-1" {
			t.Errorf("session_id = %v", got["session_id"])
		}
		if got["approved"] != false {
			t.Errorf("approved = %v, want false", got["approved"])
		}
	})

	t.Run("refuses missing session id", func(t *testing.T) {
		if _, err := EncodeToolDecision("", true); !errors.Is(err, ErrNoCorrelationID) {
			t.Errorf("expected ErrNoCorrelationID, got %v", err)
		}
	})
}

func TestEncodeChatMessage(t *testing.T) {
	t.Run("plain turn", func(t *testing.T) {
		data, err := EncodeChatMessage("why does the build fail?", nil)
		if err != nil {
			t.Fatalf("EncodeChatMessage failed: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["type"] != TagChatMessage {
			t.Errorf("type = %v, want %s", got["type"], TagChatMessage)
		}
		if got["text"] != "why does the build fail?" {
			t.Errorf("text = %v", got["text"])
		}
		if _, ok := got["attachments"]; ok {
			t.Error("nil attachments should be omitted")
		}
	})

	t.Run("with attachments", func(t *testing.T) {
		attachments := []Attachment{
			{Kind: AttachmentCurrentFile, Path: "main.go", Content: "package main"},
			{Kind: AttachmentSelection, Path: "util.go", Content: "func f() {}"},
		}

		data, err := EncodeChatMessage("look at these", attachments)
		if err != nil {
			t.Fatalf("EncodeChatMessage failed: %v", err)
		}

		var got chatMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Attachments) != 2 {
			t.Fatalf("expected 2 attachments, got %d", len(got.Attachments))
		}
		if got.Attachments[0].Kind != AttachmentCurrentFile || got.Attachments[0].Path != "main.go" {
			t.Errorf("attachment 0 = %+v", got.Attachments[0])
		}
	})

	t.Run("refuses empty and whitespace text", func(t *testing.T) {
		for _, text := range []string{"", "   ", "\n\t  \n"} {
			if _, err := EncodeChatMessage(text, nil); err == nil {
				t.Errorf("text %q: expected error", text)
			}
		}
	})
}

func TestAttachment_Key(t *testing.T) {
	a := Attachment{Kind: AttachmentPickedFile, Path: "a.go", Content: "xx"}
	b := Attachment{Kind: AttachmentPickedFile, Path: "a.go", Content: "yy"}
	c := Attachment{Kind: AttachmentSelection, Path: "a.go", Content: "xx"}
	d := Attachment{Kind: AttachmentPickedFile, Path: "a.go", Content: "xxx"}

	if a.Key() != b.Key() {
		t.Error("same kind, path, and content length should share a key")
	}
	if a.Key() == c.Key() {
		t.Error("different kinds must not share a key")
	}
	if a.Key() == d.Key() {
		t.Error("different content lengths must not share a key")
	}
}
