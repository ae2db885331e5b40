package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/sidecar/internal/config"
	"github.com/Iron-Ham/sidecar/internal/tui/styles"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify sidecar configuration",
	Long: `View or modify sidecar configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  sidecar config set backend.url ws://127.0.0.1:8347/events
  sidecar config set tui.theme dracula
  sidecar config set dedup.window_ms 1500

Valid keys:
  backend.url               - Backend websocket URL (ws:// or wss://)
  backend.handshake_timeout_ms - Dial handshake timeout in milliseconds
  backend.reconnect_initial_ms - First reconnect delay in milliseconds
  backend.reconnect_max_ms  - Reconnect backoff cap in milliseconds
  dedup.window_ms           - Assistant text dedup window in milliseconds
  command.max_output_bytes  - Per-stream command output cap in bytes
  tui.theme                 - Panel color theme
  tui.step_rail_width       - Pipeline rail width in columns
  tui.show_timestamps       - Show message timestamps (true/false)
  logging.enabled           - Write a debug log (true/false)
  logging.level             - Log level (debug/info/warn/error)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/sidecar/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Println("backend:")
	fmt.Printf("  url: %s\n", cfg.Backend.URL)
	fmt.Printf("  handshake_timeout_ms: %d\n", cfg.Backend.HandshakeTimeoutMs)
	fmt.Printf("  reconnect_initial_ms: %d\n", cfg.Backend.ReconnectInitialMs)
	fmt.Printf("  reconnect_max_ms: %d\n", cfg.Backend.ReconnectMaxMs)

	fmt.Println("dedup:")
	fmt.Printf("  window_ms: %d\n", cfg.Dedup.WindowMs)

	fmt.Println("command:")
	fmt.Printf("  max_output_bytes: %d\n", cfg.Command.MaxOutputBytes)

	fmt.Println("context:")
	if len(cfg.Context.Ignore) == 0 {
		fmt.Println("  ignore: []")
	} else {
		fmt.Println("  ignore:")
		for _, p := range cfg.Context.Ignore {
			fmt.Printf("    - %s\n", p)
		}
	}

	fmt.Println("tui:")
	fmt.Printf("  theme: %s\n", cfg.TUI.Theme)
	fmt.Printf("  step_rail_width: %d\n", cfg.TUI.StepRailWidth)
	fmt.Printf("  show_timestamps: %v\n", cfg.TUI.ShowTimestamps)

	fmt.Println("logging:")
	fmt.Printf("  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Printf("  level: %s\n", cfg.Logging.Level)

	fmt.Println("paths:")
	fmt.Printf("  state_dir: %s\n", cfg.Paths.ResolveStateDir())

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	validKeys := map[string]string{
		"backend.url":                  "string",
		"backend.handshake_timeout_ms": "int",
		"backend.reconnect_initial_ms": "int",
		"backend.reconnect_max_ms":     "int",
		"dedup.window_ms":              "int",
		"command.max_output_bytes":     "int",
		"tui.theme":                    "string",
		"tui.step_rail_width":          "int",
		"tui.show_timestamps":          "bool",
		"logging.enabled":              "bool",
		"logging.level":                "string",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'sidecar config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue interface{}
	switch keyType {
	case "string":
		if key == "tui.theme" {
			_, _ = styles.DiscoverCustomThemes()
			if !styles.IsValidTheme(value) {
				return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
					key, value, strings.Join(styles.ValidThemes(), ", "))
			}
		}
		if key == "logging.level" && !slices.Contains(config.ValidLogLevels(), value) {
			return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(config.ValidLogLevels(), ", "))
		}
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set the value in viper
	viper.Set(key, typedValue)

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Set %s = %v\n", key, typedValue)
	fmt.Printf("Config saved to %s\n", configFile)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'sidecar config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Generate a commented config file
	configContent := `# Sidecar Configuration

# Backend agent connection
backend:
  # Websocket endpoint the agent publishes events on
  url: ws://127.0.0.1:8347/events
  # Dial handshake timeout in milliseconds
  handshake_timeout_ms: 5000
  # Reconnect backoff: first delay and cap, in milliseconds
  reconnect_initial_ms: 500
  reconnect_max_ms: 30000

# Assistant text deduplication
dedup:
  # Identical assistant text arriving again within this window is
  # suppressed (milliseconds)
  window_ms: 1500

# Streamed command output
command:
  # Per-stream output cap per command, in bytes (oldest output is
  # dropped first)
  max_output_bytes: 262144

# Readonly context intake
context:
  # Context files matching any of these glob patterns are dropped
  ignore: []
  #   - "*.lock"
  #   - "vendor/**"

# Panel settings
tui:
  # Color theme: default, monokai, dracula, nord
  theme: default
  # Pipeline step rail width in columns
  step_rail_width: 24
  # Show a timestamp next to each message
  show_timestamps: false

# Debug logging
logging:
  enabled: true
  # Log level: debug, info, warn, error
  level: info
  # Rotation: size cap per file (MB) and number of rotated files kept
  max_size_mb: 10
  max_backups: 3
  compress: false
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Println(config.ConfigFile())
	return nil
}
