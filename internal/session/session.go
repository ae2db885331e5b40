// Package session hosts the event-to-state reconciliation engine for
// one conversation with the backend agent.
//
// A Session owns a state.Snapshot, a command aggregator, and a dedup
// guard, and is the only code that mutates them. Inbound envelopes are
// processed strictly one at a time; a transition never interleaves
// with another. External code reads snapshot copies and submits
// events or user actions, never mutating state directly.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/sidecar/internal/command"
	"github.com/Iron-Ham/sidecar/internal/dedup"
	"github.com/Iron-Ham/sidecar/internal/errors"
	"github.com/Iron-Ham/sidecar/internal/event"
	"github.com/Iron-Ham/sidecar/internal/logging"
	"github.com/Iron-Ham/sidecar/internal/protocol"
	"github.com/Iron-Ham/sidecar/internal/state"
)

// Sender delivers an encoded outbound payload to the backend.
// Implemented by the websocket transport; tests substitute a recorder.
type Sender interface {
	Send(payload []byte) error
}

// Options configures a Session. The zero value is usable: defaults
// are applied for every field left unset.
type Options struct {
	DedupWindow     time.Duration // Dedup window for assistant text; 0 means dedup.DefaultWindow
	MaxCommandBytes int           // Per-stream output cap per command; 0 means unbounded
	IgnoreGlobs     []string      // Context files matching any pattern are dropped
	Logger          *logging.Logger
	Bus             *event.Bus
	Sender          Sender
}

// Session reconciles the backend's event stream into a single
// consistent Snapshot and turns user intents into outbound payloads.
type Session struct {
	mu    sync.Mutex
	snap  state.Snapshot
	agg   *command.Aggregator
	guard *dedup.Guard

	ignore []glob.Glob
	log    *logging.Logger
	bus    *event.Bus
	sender Sender

	revision uint64
}

// New creates a Session with the initial snapshot.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}

	var patterns []glob.Glob
	for _, p := range opts.IgnoreGlobs {
		g, err := glob.Compile(p)
		if err != nil {
			opts.Logger.Warn("ignoring bad context glob", "pattern", p, "error", err)
			continue
		}
		patterns = append(patterns, g)
	}

	return &Session{
		snap:   state.NewSnapshot(),
		agg:    command.NewAggregator(opts.MaxCommandBytes),
		guard:  dedup.NewGuard(opts.DedupWindow),
		ignore: patterns,
		log:    opts.Logger,
		bus:    opts.Bus,
		sender: opts.Sender,
	}
}

// Bus returns the bus this session publishes change notifications to.
func (s *Session) Bus() *event.Bus {
	return s.bus
}

// Snapshot returns a deep copy of the current reconciled state. The
// returned value is independent of the session; callers may hold or
// mutate it as they like.
func (s *Session) Snapshot() state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Run consumes raw envelopes from frames until the channel closes or
// the context is cancelled. Each frame is decoded and applied before
// the next is read; this is the serialization point the rest of the
// design relies on.
func (s *Session) Run(ctx context.Context, frames <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			s.HandleFrame(frame)
		}
	}
}

// HandleFrame decodes and applies one raw envelope. Rejected
// envelopes (malformed, unknown tag, missing fields) are dropped with
// no state change and surfaced on the bus for observability.
func (s *Session) HandleFrame(data []byte) {
	ev, err := protocol.Decode(data)
	if err != nil {
		perr := errors.NewProtocolError("decode envelope", err).WithTag(protocol.PeekTag(data))
		s.log.Warn("dropped envelope",
			"tag", perr.Tag,
			"error", perr.Error(),
			"severity", errors.SeverityOf(perr).String())
		s.bus.Publish(event.NewEventRejectedEvent(perr.Tag, perr.Error()))
		return
	}
	s.HandleEvent(ev)
}

// HandleEvent routes one decoded event: command.* sub-events go to
// the aggregator, assistant text passes the dedup guard, everything
// else folds straight into the snapshot via state.Apply.
func (s *Session) HandleEvent(ev protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case protocol.CommandStartEvent:
		s.agg.Start(e)
		return // buffer mutation only; snapshot unchanged

	case protocol.CommandOutputEvent:
		s.agg.Output(e)
		return

	case protocol.CommandDoneEvent:
		s.finishCommand(s.agg.Done(e), e.Timestamp())
		return

	case protocol.CommandErrorEvent:
		s.finishCommand(s.agg.Fail(e), e.Timestamp())
		return

	case protocol.AssistantMessageEvent:
		if !s.guard.ShouldAppend(e.Content, e.Timestamp()) {
			s.log.Debug("suppressed duplicate assistant message")
			return
		}

	case protocol.WorkflowStepEvent:
		s.log.WithStep(e.Step).Debug("step status changed", "status", e.Status)

	case protocol.ReadonlyContextEvent:
		ev = protocol.NewReadonlyContextEvent(s.filterContextFiles(e.Files), e.Summary)
	}

	s.transition(state.Apply(s.snap, ev), ev.EventType())
}

// finishCommand turns a consumed command buffer into a synthetic
// artifact message. An orphaned terminal sub-event still produces a
// (partial) artifact with empty output.
func (s *Session) finishCommand(res command.Result, at time.Time) {
	log := s.log.WithCommand(res.CommandID)
	data, err := json.Marshal(res)
	if err != nil {
		log.Error("failed to encode command artifact", "error", err)
		return
	}
	title := res.Command
	if title == "" {
		title = "Command " + res.CommandID
	}
	log.Debug("command artifact appended", "title", title)
	art := state.Artifact{Kind: state.ArtifactCommand, Title: title, Data: data}
	s.transition(state.AppendArtifact(s.snap, art, at), "command.finished")
}

// filterContextFiles drops files matching a configured ignore glob.
func (s *Session) filterContextFiles(files []protocol.ContextFile) []protocol.ContextFile {
	if len(s.ignore) == 0 {
		return files
	}
	kept := make([]protocol.ContextFile, 0, len(files))
	for _, f := range files {
		if !s.ignored(f.Path) {
			kept = append(kept, f)
		}
	}
	return kept
}

func (s *Session) ignored(path string) bool {
	for _, g := range s.ignore {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// transition swaps in the successor snapshot and notifies observers.
// Caller holds the mutex.
func (s *Session) transition(next state.Snapshot, cause string) {
	s.snap = next
	s.revision++
	s.bus.Publish(event.NewSnapshotUpdatedEvent(s.revision, cause))
}

// send delivers an outbound payload through the configured Sender.
func (s *Session) send(tag string, payload []byte) error {
	if s.sender == nil {
		return errors.ErrNotConnected
	}
	if err := s.sender.Send(payload); err != nil {
		return errors.NewSessionError("send "+tag, err)
	}
	s.bus.Publish(event.NewOutboundSentEvent(tag))
	return nil
}
