package tui

import (
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/sidecar/internal/config"
	"github.com/Iron-Ham/sidecar/internal/event"
	"github.com/Iron-Ham/sidecar/internal/session"
	"github.com/Iron-Ham/sidecar/internal/tui/styles"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	session *session.Session
}

// New creates a new TUI application
func New(sess *session.Session, cfg config.TUIConfig) *App {
	styles.Apply(cfg.Theme)
	return &App{
		model:   NewModel(sess, cfg),
		session: sess,
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Forward session bus events into the program so the panel redraws
	// on state changes without polling.
	subID := a.session.Bus().SubscribeAll(func(ev event.Event) {
		if a.program == nil {
			return
		}
		switch ev := ev.(type) {
		case event.SnapshotUpdatedEvent:
			a.program.Send(snapshotMsg{revision: ev.Revision, cause: ev.Cause})
		case event.ConnectionChangedEvent:
			a.program.Send(connMsg{connected: ev.Connected, err: ev.Err})
		case event.EventRejectedEvent:
			a.program.Send(rejectedMsg{tag: ev.Tag, reason: ev.Reason})
		}
	})
	defer a.session.Bus().Unsubscribe(subID)

	// Graceful shutdown on SIGINT/SIGTERM so the terminal is restored.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		if a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	_, err := a.program.Run()

	signal.Stop(sigChan)

	return err
}

// Messages

type snapshotMsg struct {
	revision uint64
	cause    string
}

type connMsg struct {
	connected bool
	err       string
}

type rejectedMsg struct {
	tag    string
	reason string
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeypress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layoutConversation()
		return m, nil

	case snapshotMsg:
		// Skipped revisions are fine: the snapshot read below is always
		// the latest, not the one this notification described.
		m.snap = m.session.Snapshot()
		m.revision = msg.revision
		m.layoutConversation()
		return m, nil

	case connMsg:
		m.connected = msg.connected
		m.connErr = msg.err
		return m, nil

	case rejectedMsg:
		m.errorMessage = "dropped event " + msg.tag + ": " + msg.reason
		return m, nil
	}

	return m, nil
}
