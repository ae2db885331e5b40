package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/sidecar/internal/errors"
	"github.com/Iron-Ham/sidecar/internal/protocol"
)

// friendlyError renders an action failure for the status line. Only
// messages marked user-facing are shown verbatim.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, errors.ErrNotConnected), errors.IsRetryable(err):
		return "backend unavailable, action not sent"
	case errors.IsUserFacing(err):
		return err.Error()
	default:
		return "action failed: " + err.Error()
	}
}

// handleKeypress processes keyboard input
func (m Model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Composing modes forward most keys to the text input.
	switch m.mode {
	case inputChat:
		return m.handleChatInput(msg)
	case inputFeedback:
		return m.handleFeedbackInput(msg)
	case inputAttach:
		return m.handleAttachInput(msg)
	}

	// Normal mode - clear transient messages on most actions
	m.infoMessage = ""

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "y":
		return m.approve()

	case "n":
		return m.reject()

	case "i", "enter":
		m.mode = inputChat
		m.input.Placeholder = "Message the agent..."
		return m, m.input.Focus()

	case "a":
		m.mode = inputAttach
		m.input.Placeholder = "File to attach... (enter to add, esc to cancel)"
		return m, m.input.Focus()

	case "X":
		if n := len(m.snap.Attachments); n > 0 {
			last := m.snap.Attachments[n-1]
			if err := m.session.RemoveAttachment(last.Key()); err != nil {
				m.errorMessage = friendlyError(err)
			} else {
				m.infoMessage = "Detached " + last.Path
			}
		}
		return m, nil

	case "x":
		if len(m.snap.Attachments) > 0 {
			m.session.ClearAttachments()
			m.infoMessage = "Attachments cleared"
		}
		return m, nil

	case "ctrl+l":
		m.session.ResetChat()
		m.infoMessage = "Conversation cleared"
		return m, nil

	case "g":
		m.conversation.GotoTop()
		return m, nil

	case "G":
		m.conversation.GotoBottom()
		return m, nil
	}

	// Remaining keys (j/k, pgup/pgdn, mouse wheel) scroll the
	// conversation viewport.
	var cmd tea.Cmd
	m.conversation, cmd = m.conversation.Update(msg)
	return m, cmd
}

// approve resolves whichever approval gate is open.
func (m Model) approve() (tea.Model, tea.Cmd) {
	switch {
	case m.awaitingPlan():
		if err := m.session.ApprovePlan(); err != nil {
			m.errorMessage = friendlyError(err)
		} else {
			m.infoMessage = "Plan approved"
		}
	case m.awaitingTool():
		if err := m.session.ResolveToolApproval(true); err != nil {
			m.errorMessage = friendlyError(err)
		} else {
			m.infoMessage = "Tool approved"
		}
	}
	return m, nil
}

// reject opens the feedback prompt for plans, or denies the pending
// tool request outright.
func (m Model) reject() (tea.Model, tea.Cmd) {
	switch {
	case m.awaitingPlan():
		m.mode = inputFeedback
		m.input.Placeholder = "Why reject? (enter to send, esc to cancel)"
		return m, m.input.Focus()
	case m.awaitingTool():
		if err := m.session.ResolveToolApproval(false); err != nil {
			m.errorMessage = friendlyError(err)
		} else {
			m.infoMessage = "Tool denied"
		}
	}
	return m, nil
}

// handleChatInput handles keystrokes while composing a chat turn.
func (m Model) handleChatInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputIdle
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		text := m.input.Value()
		if err := m.session.SendMessage(text); err != nil {
			m.errorMessage = friendlyError(err)
			return m, nil
		}
		m.input.Reset()
		m.mode = inputIdle
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleAttachInput handles keystrokes while entering a file path to
// attach to the next chat turn.
func (m Model) handleAttachInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputIdle
		m.input.Reset()
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		a := protocol.Attachment{
			Kind: protocol.AttachmentPickedFile,
			Path: strings.TrimSpace(m.input.Value()),
		}
		if err := m.session.AddAttachment(a); err != nil {
			m.errorMessage = friendlyError(err)
			return m, nil
		}
		m.infoMessage = "Attached " + a.Path
		m.input.Reset()
		m.mode = inputIdle
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleFeedbackInput handles keystrokes while composing plan
// rejection feedback.
func (m Model) handleFeedbackInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputIdle
		m.input.Reset()
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		if err := m.session.RejectPlan(m.input.Value()); err != nil {
			m.errorMessage = friendlyError(err)
			return m, nil
		}
		m.infoMessage = "Plan rejected"
		m.input.Reset()
		m.mode = inputIdle
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
