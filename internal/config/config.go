package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete sidecar configuration
type Config struct {
	Backend Backend       `mapstructure:"backend"`
	Dedup   DedupConfig   `mapstructure:"dedup"`
	Command CommandConfig `mapstructure:"command"`
	Context ContextConfig `mapstructure:"context"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Logging LoggingConfig `mapstructure:"logging"`
	Paths   PathsConfig   `mapstructure:"paths"`
}

// Backend controls the connection to the agent backend
type Backend struct {
	// URL is the websocket endpoint of the backend agent
	// (default: "ws://127.0.0.1:8347/events")
	URL string `mapstructure:"url"`
	// HandshakeTimeoutMs bounds the websocket dial handshake
	HandshakeTimeoutMs int `mapstructure:"handshake_timeout_ms"`
	// ReconnectInitialMs is the first reconnect delay after a dropped connection
	ReconnectInitialMs int `mapstructure:"reconnect_initial_ms"`
	// ReconnectMaxMs caps the exponential reconnect backoff
	ReconnectMaxMs int `mapstructure:"reconnect_max_ms"`
}

// HandshakeTimeout returns the handshake timeout as a time.Duration
func (b *Backend) HandshakeTimeout() time.Duration {
	return time.Duration(b.HandshakeTimeoutMs) * time.Millisecond
}

// ReconnectInitial returns the initial reconnect delay as a time.Duration
func (b *Backend) ReconnectInitial() time.Duration {
	return time.Duration(b.ReconnectInitialMs) * time.Millisecond
}

// ReconnectMax returns the reconnect backoff cap as a time.Duration
func (b *Backend) ReconnectMax() time.Duration {
	return time.Duration(b.ReconnectMaxMs) * time.Millisecond
}

// DedupConfig controls suppression of duplicate assistant messages
type DedupConfig struct {
	// WindowMs is the interval within which an identical assistant message
	// is treated as a backend retry and dropped (default: 1500)
	WindowMs int `mapstructure:"window_ms"`
}

// Window returns the dedup window as a time.Duration
func (d *DedupConfig) Window() time.Duration {
	return time.Duration(d.WindowMs) * time.Millisecond
}

// CommandConfig controls buffering of streamed shell-command output
type CommandConfig struct {
	// MaxOutputBytes caps each output stream per command; the oldest
	// output is dropped when exceeded. 0 = unbounded (default: 262144)
	MaxOutputBytes int `mapstructure:"max_output_bytes"`
}

// ContextConfig controls read-only context responses
type ContextConfig struct {
	// Ignore lists glob patterns; context files matching any pattern are
	// dropped before display (e.g. ["**/*.lock", "node_modules/**"])
	Ignore []string `mapstructure:"ignore"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// Theme is the color theme for the TUI (default: "default")
	// Options: "default", "monokai", "dracula", "nord"
	Theme string `mapstructure:"theme"`
	// StepRailWidth is the width of the pipeline step rail in columns
	// (default: 24, min: 16, max: 48)
	StepRailWidth int `mapstructure:"step_rail_width"`
	// ShowTimestamps renders a timestamp next to each message
	ShowTimestamps bool `mapstructure:"show_timestamps"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// PathsConfig controls where sidecar stores data
type PathsConfig struct {
	// StateDir is where logs and session state live.
	// If empty, defaults to the user state directory
	// (XDG_STATE_HOME/sidecar or ~/.local/state/sidecar).
	// Supports ~ for home directory expansion.
	StateDir string `mapstructure:"state_dir"`
}

// ResolveStateDir returns the resolved state directory path.
func (p *PathsConfig) ResolveStateDir() string {
	path := p.StateDir
	if path == "" {
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, "sidecar")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return ".sidecar"
		}
		return filepath.Join(home, ".local", "state", "sidecar")
	}

	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Backend: Backend{
			URL:                "ws://127.0.0.1:8347/events",
			HandshakeTimeoutMs: 5000,
			ReconnectInitialMs: 500,
			ReconnectMaxMs:     30000,
		},
		Dedup: DedupConfig{
			WindowMs: 1500,
		},
		Command: CommandConfig{
			MaxOutputBytes: 262144, // 256KB per stream
		},
		Context: ContextConfig{
			Ignore: []string{},
		},
		TUI: TUIConfig{
			Theme:          "default",
			StepRailWidth:  24,
			ShowTimestamps: false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		Paths: PathsConfig{
			StateDir: "", // Empty means use the user state directory
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Backend defaults
	viper.SetDefault("backend.url", defaults.Backend.URL)
	viper.SetDefault("backend.handshake_timeout_ms", defaults.Backend.HandshakeTimeoutMs)
	viper.SetDefault("backend.reconnect_initial_ms", defaults.Backend.ReconnectInitialMs)
	viper.SetDefault("backend.reconnect_max_ms", defaults.Backend.ReconnectMaxMs)

	// Dedup defaults
	viper.SetDefault("dedup.window_ms", defaults.Dedup.WindowMs)

	// Command defaults
	viper.SetDefault("command.max_output_bytes", defaults.Command.MaxOutputBytes)

	// Context defaults
	viper.SetDefault("context.ignore", defaults.Context.Ignore)

	// TUI defaults
	viper.SetDefault("tui.theme", defaults.TUI.Theme)
	viper.SetDefault("tui.step_rail_width", defaults.TUI.StepRailWidth)
	viper.SetDefault("tui.show_timestamps", defaults.TUI.ShowTimestamps)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Paths defaults
	viper.SetDefault("paths.state_dir", defaults.Paths.StateDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sidecar")
	}
	// Fall back to ~/.config/sidecar
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sidecar"
	}
	return filepath.Join(home, ".config", "sidecar")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
