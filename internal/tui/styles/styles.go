// Package styles provides the color palettes and lipgloss styles used
// by the panel. Styles are regenerated from a palette when the theme
// changes, so panels render against Current rather than caching styles.
package styles

import "github.com/charmbracelet/lipgloss"

// ThemedStyles contains all the lipgloss styles built from a color palette.
type ThemedStyles struct {
	// Colors from the palette
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	WarningColor   lipgloss.Color
	ErrorColor     lipgloss.Color
	MutedColor     lipgloss.Color
	SurfaceColor   lipgloss.Color
	TextColor      lipgloss.Color
	BorderColor    lipgloss.Color

	// Step colors
	StepPending   lipgloss.Color
	StepActive    lipgloss.Color
	StepCompleted lipgloss.Color
	StepFailed    lipgloss.Color

	// Convenience styles for colors
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Text      lipgloss.Style

	// Header
	Header lipgloss.Style

	// Step rail sidebar
	Rail           lipgloss.Style
	RailTitle      lipgloss.Style
	RailStep       lipgloss.Style
	RailStepActive lipgloss.Style

	// Conversation area
	Conversation lipgloss.Style
	UserLabel    lipgloss.Style
	AgentLabel   lipgloss.Style
	Timestamp    lipgloss.Style
	ArtifactBox  lipgloss.Style
	PlanBox      lipgloss.Style

	// Approval prompt
	ApprovalBox  lipgloss.Style
	ApprovalKey  lipgloss.Style
	ApprovalText lipgloss.Style

	// Chat input
	InputBox       lipgloss.Style
	AttachmentChip lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	Connected    lipgloss.Style
	Disconnected lipgloss.Style

	// Help bar
	HelpBar lipgloss.Style
	HelpKey lipgloss.Style

	// Messages
	ErrorMsg   lipgloss.Style
	SuccessMsg lipgloss.Style
}

// NewStyles builds a ThemedStyles from a color palette.
func NewStyles(p *ColorPalette) *ThemedStyles {
	s := &ThemedStyles{
		PrimaryColor:   p.Primary,
		SecondaryColor: p.Secondary,
		WarningColor:   p.Warning,
		ErrorColor:     p.Error,
		MutedColor:     p.Muted,
		SurfaceColor:   p.Surface,
		TextColor:      p.Text,
		BorderColor:    p.Border,

		StepPending:   p.StepPending,
		StepActive:    p.StepActive,
		StepCompleted: p.StepCompleted,
		StepFailed:    p.StepFailed,
	}

	s.Primary = lipgloss.NewStyle().Foreground(p.Primary)
	s.Secondary = lipgloss.NewStyle().Foreground(p.Secondary)
	s.Warning = lipgloss.NewStyle().Foreground(p.Warning)
	s.Error = lipgloss.NewStyle().Foreground(p.Error)
	s.Muted = lipgloss.NewStyle().Foreground(p.Muted)
	s.Text = lipgloss.NewStyle().Foreground(p.Text)

	s.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Border).
		PaddingBottom(1)

	s.Rail = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(1, 1)

	s.RailTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		MarginBottom(1)

	s.RailStep = lipgloss.NewStyle().
		Padding(0, 1)

	s.RailStepActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Text).
		Padding(0, 1)

	s.Conversation = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	s.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Secondary)

	s.AgentLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary)

	s.Timestamp = lipgloss.NewStyle().
		Foreground(p.Muted)

	s.ArtifactBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Muted).
		Padding(0, 1).
		MarginLeft(2)

	s.PlanBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(0, 1).
		MarginLeft(2)

	s.ApprovalBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(p.Warning).
		Padding(1, 2)

	s.ApprovalKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Warning)

	s.ApprovalText = lipgloss.NewStyle().
		Foreground(p.Text)

	s.InputBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	s.AttachmentChip = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Surface).
		Padding(0, 1).
		MarginRight(1)

	s.StatusBar = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Surface).
		Padding(0, 1)

	s.Connected = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Secondary)

	s.Disconnected = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Error)

	s.HelpBar = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)

	s.HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Secondary)

	s.ErrorMsg = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)

	s.SuccessMsg = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)

	return s
}

// Current is the active themed style set. Panels read from it on every
// render so theme changes take effect immediately.
var Current = NewStyles(DefaultPalette())

// Apply switches the active theme by name. Unknown names fall back to
// the default palette.
func Apply(name string) {
	Current = NewStyles(GetPalette(ThemeName(name)))
}

// StepColor returns the color for a given step status.
func StepColor(status string) lipgloss.Color {
	switch status {
	case "active":
		return Current.StepActive
	case "completed":
		return Current.StepCompleted
	case "failed":
		return Current.StepFailed
	default:
		return Current.StepPending
	}
}

// StepIcon returns an icon for a given step status.
func StepIcon(status string) string {
	switch status {
	case "active":
		return "●"
	case "completed":
		return "✓"
	case "failed":
		return "✗"
	default:
		return "○"
	}
}
