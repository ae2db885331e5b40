package cmd

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/sidecar/internal/config"
	"github.com/Iron-Ham/sidecar/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View panel logs",
	Long: `View and filter the panel's debug log.

Examples:
  # Show the last 50 entries
  sidecar logs

  # Show everything
  sidecar logs -n 0

  # Filter by minimum log level
  sidecar logs --level warn

  # Show entries from the last hour
  sidecar logs --since 1h

  # Entries about one streamed command
  sidecar logs --command cmd-42

  # Search for specific patterns
  sidecar logs --grep "reconnect|dropped"`,
	RunE: runLogs,
}

var (
	logsTail      int
	logsLevel     string
	logsSince     string
	logsCommandID string
	logsGrep      string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsCommandID, "command", "", "Filter by streamed command id")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter entries matching pattern (regex)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	entries, err := logging.ReadLogs(cfg.Paths.ResolveStateDir())
	if err != nil {
		return err
	}

	filter := logging.LogFilter{
		Level:     logsLevel,
		CommandID: logsCommandID,
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.StartTime = time.Now().Add(-d)
	}
	entries = logging.FilterLogs(entries, filter)

	if logsGrep != "" {
		re, err := regexp.Compile("(?i)" + logsGrep)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
		var matched []logging.LogEntry
		for _, e := range entries {
			if re.MatchString(e.Message) {
				matched = append(matched, e)
			}
		}
		entries = matched
	}

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if len(entries) == 0 {
		fmt.Println("No matching log entries.")
		return nil
	}

	for _, e := range entries {
		printLogEntry(e)
	}
	return nil
}

func printLogEntry(e logging.LogEntry) {
	var b strings.Builder
	b.WriteString(e.Timestamp.Format("15:04:05.000"))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%-5s", e.Level))
	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.SessionID != "" {
		b.WriteString(" session=" + e.SessionID)
	}
	if e.CommandID != "" {
		b.WriteString(" command=" + e.CommandID)
	}
	if e.Step != "" {
		b.WriteString(" step=" + e.Step)
	}
	for k, v := range e.Attrs {
		b.WriteString(fmt.Sprintf(" %s=%v", k, v))
	}

	fmt.Println(b.String())
}
