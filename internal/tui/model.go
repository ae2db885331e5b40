package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/Iron-Ham/sidecar/internal/config"
	"github.com/Iron-Ham/sidecar/internal/session"
	"github.com/Iron-Ham/sidecar/internal/state"
)

// inputMode tracks what the chat input is currently collecting.
type inputMode int

const (
	inputIdle     inputMode = iota // input unfocused, keys are commands
	inputChat                      // composing a chat turn
	inputFeedback                  // composing plan rejection feedback
	inputAttach                    // entering a file path to attach
)

// Model holds the TUI application state
type Model struct {
	// Core components
	session *session.Session
	cfg     config.TUIConfig

	// Reconciled state, refreshed on every snapshot.updated
	snap     state.Snapshot
	revision uint64

	// Connection status from the transport
	connected bool
	connErr   string

	// UI state
	width        int
	height       int
	ready        bool
	quitting     bool
	showHelp     bool
	mode         inputMode
	errorMessage string
	infoMessage  string

	conversation viewport.Model
	input        textinput.Model
}

// NewModel creates a new TUI model
func NewModel(sess *session.Session, cfg config.TUIConfig) Model {
	input := textinput.New()
	input.Placeholder = "Message the agent..."
	input.CharLimit = 0

	return Model{
		session: sess,
		cfg:     cfg,
		snap:    sess.Snapshot(),
		input:   input,
	}
}

// railWidth returns the configured step rail width, clamped for small
// terminals.
func (m Model) railWidth() int {
	w := m.cfg.StepRailWidth
	if w <= 0 {
		w = 24
	}
	if m.width > 0 && w > m.width/3 {
		w = m.width / 3
	}
	return w
}

// awaitingPlan reports whether a plan-approval gate is open.
func (m Model) awaitingPlan() bool {
	return m.snap.PendingPlanApproval != nil
}

// awaitingTool reports whether a tool-approval gate is open.
func (m Model) awaitingTool() bool {
	return m.snap.PendingToolApproval != nil
}
