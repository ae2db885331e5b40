package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/sidecar/internal/state"
	"github.com/Iron-Ham/sidecar/internal/tui/styles"
	"github.com/Iron-Ham/sidecar/internal/util"
)

// Layout constants
const (
	headerHeight = 3 // title + border + spacing
	footerHeight = 4 // input box + status bar + help bar
)

// View renders the panel.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.quitting {
		return ""
	}

	s := styles.Current

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	rail := m.renderStepRail()
	convo := m.conversation.View()
	main := lipgloss.JoinHorizontal(lipgloss.Top, rail, " ", s.Conversation.Render(convo))
	b.WriteString(main)
	b.WriteString("\n")

	if m.awaitingPlan() || m.awaitingTool() {
		b.WriteString(m.renderApprovalPrompt())
		b.WriteString("\n")
	}

	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderHelp())
	}

	return b.String()
}

// layoutConversation resizes the viewport for the current terminal.
func (m *Model) layoutConversation() {
	width := m.width - m.railWidth() - 5
	if width < 20 {
		width = 20
	}
	height := m.height - headerHeight - footerHeight
	if m.awaitingPlan() || m.awaitingTool() {
		height -= 5
	}
	if height < 5 {
		height = 5
	}
	m.conversation.Width = width
	m.conversation.Height = height
	m.input.Width = m.width - 6
	m.refreshConversation()
}

// refreshConversation re-renders the message log into the viewport and
// keeps it pinned to the bottom.
func (m *Model) refreshConversation() {
	atBottom := m.conversation.AtBottom()
	m.conversation.SetContent(m.renderMessages())
	if atBottom {
		m.conversation.GotoBottom()
	}
}

func (m Model) renderHeader() string {
	s := styles.Current

	status := string(m.snap.AgentStatus)
	var statusStyle lipgloss.Style
	switch m.snap.AgentStatus {
	case state.StatusRunning:
		statusStyle = s.Secondary
	case state.StatusAwaitingApproval:
		statusStyle = s.Warning
	case state.StatusError:
		statusStyle = s.Error
	default:
		statusStyle = s.Muted
	}

	title := "sidecar"
	if m.snap.Thinking {
		title += "  " + s.Muted.Render("thinking...")
	}

	line := title + "  " + statusStyle.Render(status)
	return s.Header.Width(m.width - 2).Render(line)
}

// renderStepRail renders the pipeline step sidebar.
func (m Model) renderStepRail() string {
	s := styles.Current
	width := m.railWidth()

	var b strings.Builder
	b.WriteString(s.RailTitle.Render("Pipeline"))
	b.WriteString("\n")

	for _, id := range state.StepOrder {
		status := string(m.snap.Steps[id])
		icon := styles.StepIcon(status)
		color := styles.StepColor(status)

		line := lipgloss.NewStyle().Foreground(color).Render(icon) + " " + string(id)
		line = util.TruncateANSI(line, width-4)
		if id == m.snap.CurrentStep && m.snap.Steps[id] == state.StepActive {
			b.WriteString(s.RailStepActive.Render(line))
		} else {
			b.WriteString(s.RailStep.Render(line))
		}
		b.WriteString("\n")
	}

	height := m.height - headerHeight - footerHeight
	if height < 5 {
		height = 5
	}
	return s.Rail.Width(width - 2).Height(height - 2).Render(b.String())
}

// renderMessages renders the conversation log.
func (m Model) renderMessages() string {
	s := styles.Current

	if len(m.snap.Messages) == 0 {
		return s.Muted.Render("No messages yet.")
	}

	var b strings.Builder
	for i, msg := range m.snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg state.Message) string {
	s := styles.Current

	label := s.AgentLabel.Render("agent")
	if msg.Role == state.RoleUser {
		label = s.UserLabel.Render("you")
	}
	if m.cfg.ShowTimestamps {
		label += " " + s.Timestamp.Render(msg.Timestamp.Format("15:04:05"))
	}

	switch msg.Kind {
	case state.KindError:
		return label + "\n" + s.Error.Render(msg.Error)
	case state.KindPlan:
		body := msg.Content
		if body == "" {
			body = string(msg.Plan)
		}
		return label + "\n" + s.PlanBox.Render(body)
	case state.KindArtifact:
		return label + "\n" + m.renderArtifact(msg.Artifact)
	default:
		return label + "\n" + msg.Content
	}
}

// renderArtifact renders a backend artifact as a titled box. The
// payload is shown raw; the panel routes on kind but never interprets
// artifact internals.
func (m Model) renderArtifact(a *state.Artifact) string {
	s := styles.Current
	if a == nil {
		return ""
	}

	title := s.Primary.Render(a.Title)
	body := strings.TrimSpace(string(a.Data))
	if body == "" {
		return s.ArtifactBox.Render(title)
	}

	const maxArtifactLines = 20
	lines := strings.Split(body, "\n")
	if len(lines) > maxArtifactLines {
		lines = append(lines[:maxArtifactLines], fmt.Sprintf("... (%d more lines)", len(lines)-maxArtifactLines))
	}
	return s.ArtifactBox.Render(title + "\n" + strings.Join(lines, "\n"))
}

// renderApprovalPrompt renders the open approval gate.
func (m Model) renderApprovalPrompt() string {
	s := styles.Current

	var prompt string
	switch {
	case m.awaitingPlan():
		prompt = s.ApprovalText.Render("The agent proposed a plan. ") +
			s.ApprovalKey.Render("[y]") + s.ApprovalText.Render(" approve  ") +
			s.ApprovalKey.Render("[n]") + s.ApprovalText.Render(" reject with feedback")
	case m.awaitingTool():
		prompt = s.ApprovalText.Render("The agent wants to run a tool. ") +
			s.ApprovalKey.Render("[y]") + s.ApprovalText.Render(" allow  ") +
			s.ApprovalKey.Render("[n]") + s.ApprovalText.Render(" deny")
	}

	return s.ApprovalBox.Width(m.width - 4).Render(prompt)
}

// renderInput renders the chat input box with attachment chips.
func (m Model) renderInput() string {
	s := styles.Current

	var b strings.Builder
	if len(m.snap.Attachments) > 0 {
		for _, a := range m.snap.Attachments {
			chip := util.TruncateString(string(a.Kind)+":"+a.Path, 40)
			b.WriteString(s.AttachmentChip.Render(chip))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())

	return s.InputBox.Width(m.width - 2).Render(b.String())
}

func (m Model) renderStatusBar() string {
	s := styles.Current

	conn := s.Connected.Render("● connected")
	if !m.connected {
		conn = s.Disconnected.Render("○ disconnected")
		if m.connErr != "" {
			conn += " " + s.Muted.Render("("+m.connErr+")")
		}
	}

	var note string
	switch {
	case m.errorMessage != "":
		note = s.ErrorMsg.Render(m.errorMessage)
	case m.infoMessage != "":
		note = s.SuccessMsg.Render(m.infoMessage)
	}

	left := conn
	if note != "" {
		left += "  " + note
	}
	return s.StatusBar.Width(m.width - 2).Render(left)
}

func (m Model) renderHelp() string {
	s := styles.Current

	keys := []struct{ key, desc string }{
		{"i/enter", "compose message"},
		{"y/n", "resolve approval"},
		{"j/k", "scroll"},
		{"g/G", "top/bottom"},
		{"a", "attach file"},
		{"X/x", "detach last/all"},
		{"ctrl+l", "clear conversation"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, s.HelpKey.Render(k.key)+" "+k.desc)
	}
	return s.HelpBar.Render(strings.Join(parts, "  "))
}
