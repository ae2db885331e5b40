package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/sidecar/internal/config"
	"github.com/Iron-Ham/sidecar/internal/event"
	"github.com/Iron-Ham/sidecar/internal/logging"
	"github.com/Iron-Ham/sidecar/internal/session"
	"github.com/Iron-Ham/sidecar/internal/transport"
	"github.com/Iron-Ham/sidecar/internal/tui"
	"github.com/Iron-Ham/sidecar/internal/tui/styles"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the agent and open the panel",
	Long: `Connect to the backend agent's event stream and open the panel.
The panel stays up across agent restarts; the link reconnects with
backoff and the agent re-reports its state on reconnect.`,
	RunE: runRun,
}

var runBackendURL string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runBackendURL, "backend", "b", "", "Backend websocket URL (overrides config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if runBackendURL != "" {
		cfg.Backend.URL = runBackendURL
	}

	stateDir := cfg.Paths.ResolveStateDir()
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(stateDir, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   cfg.Logging.Compress,
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		defer func() { _ = logger.Close() }()
	}

	lock, err := session.AcquireLock(stateDir, logger)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	bus := event.NewBus()

	client := transport.NewClient(transport.Options{
		URL:              cfg.Backend.URL,
		HandshakeTimeout: cfg.Backend.HandshakeTimeout(),
		ReconnectInitial: cfg.Backend.ReconnectInitial(),
		ReconnectMax:     cfg.Backend.ReconnectMax(),
		Logger:           logger,
		Bus:              bus,
	})

	sess := session.New(session.Options{
		DedupWindow:     cfg.Dedup.Window(),
		MaxCommandBytes: cfg.Command.MaxOutputBytes,
		IgnoreGlobs:     cfg.Context.Ignore,
		Logger:          logger,
		Bus:             bus,
		Sender:          client,
	})

	if _, loadErrs := styles.DiscoverCustomThemes(); len(loadErrs) > 0 {
		for _, lerr := range loadErrs {
			logger.Warn("skipped custom theme", "error", lerr.Error())
		}
	}

	// Hot-reload the theme when the config file changes. Everything else
	// (backend URL, dedup window) applies on next start.
	watcher, err := config.NewWatcher(config.ConfigFile(), func(next *config.Config) {
		styles.Apply(next.TUI.Theme)
	})
	if err == nil {
		watcher.Start()
		defer watcher.Stop()
	} else {
		logger.Warn("config watcher unavailable", "error", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go client.Run(ctx)
	go sess.Run(ctx, client.Frames())

	logger.Info("panel starting", "backend", cfg.Backend.URL, "state_dir", stateDir)

	app := tui.New(sess, cfg.TUI)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
