// Package command reconciles the streamed sub-events of backend shell
// commands (start, output chunks, terminal done/error) into a single
// finished result per command id.
//
// Buffers are ephemeral: created on the first sub-event for an unseen
// id, appended to in arrival order, and consumed exactly once by the
// terminal sub-event. The aggregator tolerates lost sub-events — a
// terminal event with no buffer still yields a (partial) result with
// empty output.
package command

import (
	"encoding/json"

	"github.com/Iron-Ham/sidecar/internal/protocol"
)

// Result is the finished artifact for one streamed command.
type Result struct {
	CommandID string          `json:"commandId"`
	Command   string          `json:"command,omitempty"`
	Cwd       string          `json:"cwd,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	Stdout    string          `json:"stdout"`
	Stderr    string          `json:"stderr"`
	ExitCode  int             `json:"exitCode"`
	Error     string          `json:"error,omitempty"`
}

// buffer accumulates output for one in-flight command.
type buffer struct {
	command string
	cwd     string
	meta    json.RawMessage
	stdout  []byte
	stderr  []byte
}

// Aggregator owns the table of in-flight command buffers. It is not
// safe for concurrent use; the session processes events serially.
type Aggregator struct {
	buffers  map[string]*buffer
	maxBytes int // per-stream cap; 0 means unbounded
}

// NewAggregator creates an empty aggregator. maxBytes bounds each
// output stream per command; when exceeded, the oldest output is
// dropped and the tail kept.
func NewAggregator(maxBytes int) *Aggregator {
	return &Aggregator{
		buffers:  make(map[string]*buffer),
		maxBytes: maxBytes,
	}
}

// Start opens (or reopens) a buffer for the given command. A second
// start for the same id overwrites the metadata but keeps nothing of
// any earlier run's output.
func (a *Aggregator) Start(ev protocol.CommandStartEvent) {
	a.buffers[ev.CommandID] = &buffer{
		command: ev.Command,
		cwd:     ev.Cwd,
		meta:    ev.Meta,
	}
}

// Output appends a chunk to the stdout or stderr accumulation for the
// event's command id, preserving arrival order. A missing buffer is
// created on the fly: the start sub-event may have been lost.
func (a *Aggregator) Output(ev protocol.CommandOutputEvent) {
	buf, ok := a.buffers[ev.CommandID]
	if !ok {
		buf = &buffer{}
		a.buffers[ev.CommandID] = buf
	}
	if ev.Stream == "stderr" {
		buf.stderr = appendCapped(buf.stderr, ev.Text, a.maxBytes)
	} else {
		buf.stdout = appendCapped(buf.stdout, ev.Text, a.maxBytes)
	}
}

// Done consumes the buffer for a successfully finished command and
// returns its result. The buffer is deleted; replaying the terminal
// event yields a result with empty output rather than an error.
func (a *Aggregator) Done(ev protocol.CommandDoneEvent) Result {
	res := a.consume(ev.CommandID)
	res.ExitCode = ev.ExitCode
	return res
}

// Fail consumes the buffer for a command that ended in error.
func (a *Aggregator) Fail(ev protocol.CommandErrorEvent) Result {
	res := a.consume(ev.CommandID)
	res.ExitCode = ev.ExitCode
	res.Error = ev.Error
	return res
}

// consume reads and deletes the buffer for id, substituting empty
// fields when the buffer is missing or partial.
func (a *Aggregator) consume(id string) Result {
	res := Result{CommandID: id}
	if buf, ok := a.buffers[id]; ok {
		res.Command = buf.command
		res.Cwd = buf.cwd
		res.Meta = buf.meta
		res.Stdout = string(buf.stdout)
		res.Stderr = string(buf.stderr)
		delete(a.buffers, id)
	}
	return res
}

// Pending returns the number of in-flight buffers.
func (a *Aggregator) Pending() int {
	return len(a.buffers)
}

// Has reports whether a buffer exists for the given command id.
func (a *Aggregator) Has(id string) bool {
	_, ok := a.buffers[id]
	return ok
}

// Reset drops every in-flight buffer.
func (a *Aggregator) Reset() {
	a.buffers = make(map[string]*buffer)
}

// appendCapped appends text and, when a cap is set, trims from the
// front so at most max bytes of tail are kept.
func appendCapped(dst []byte, text string, max int) []byte {
	dst = append(dst, text...)
	if max > 0 && len(dst) > max {
		dst = dst[len(dst)-max:]
	}
	return dst
}
