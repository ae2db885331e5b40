package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "dedup.window_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidThemes returns the list of valid TUI themes
func ValidThemes() []string {
	return []string{"default", "monokai", "dracula", "nord"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateBackend()...)
	errors = append(errors, c.validateDedup()...)
	errors = append(errors, c.validateCommand()...)
	errors = append(errors, c.validateContext()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateBackend validates the Backend config
func (c *Config) validateBackend() []ValidationError {
	var errors []ValidationError

	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			errors = append(errors, ValidationError{
				Field:   "backend.url",
				Value:   c.Backend.URL,
				Message: "must be a ws:// or wss:// URL",
			})
		}
	}

	if c.Backend.HandshakeTimeoutMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "backend.handshake_timeout_ms",
			Value:   c.Backend.HandshakeTimeoutMs,
			Message: "must be non-negative",
		})
	}
	if c.Backend.ReconnectInitialMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "backend.reconnect_initial_ms",
			Value:   c.Backend.ReconnectInitialMs,
			Message: "must be non-negative",
		})
	}
	if c.Backend.ReconnectMaxMs != 0 && c.Backend.ReconnectMaxMs < c.Backend.ReconnectInitialMs {
		errors = append(errors, ValidationError{
			Field:   "backend.reconnect_max_ms",
			Value:   c.Backend.ReconnectMaxMs,
			Message: "must be at least reconnect_initial_ms",
		})
	}

	return errors
}

// validateDedup validates the DedupConfig
func (c *Config) validateDedup() []ValidationError {
	var errors []ValidationError

	if c.Dedup.WindowMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "dedup.window_ms",
			Value:   c.Dedup.WindowMs,
			Message: "must be non-negative",
		})
	}

	// Beyond a minute the guard starts eating legitimately repeated
	// answers, not retries.
	const maxWindowMs = 60000
	if c.Dedup.WindowMs > maxWindowMs {
		errors = append(errors, ValidationError{
			Field:   "dedup.window_ms",
			Value:   c.Dedup.WindowMs,
			Message: fmt.Sprintf("exceeds maximum of %d", maxWindowMs),
		})
	}

	return errors
}

// validateCommand validates the CommandConfig
func (c *Config) validateCommand() []ValidationError {
	var errors []ValidationError

	if c.Command.MaxOutputBytes < 0 {
		errors = append(errors, ValidationError{
			Field:   "command.max_output_bytes",
			Value:   c.Command.MaxOutputBytes,
			Message: "must be non-negative (0 disables the cap)",
		})
	}

	return errors
}

// validateContext validates the ContextConfig
func (c *Config) validateContext() []ValidationError {
	var errors []ValidationError

	for _, pattern := range c.Context.Ignore {
		if _, err := glob.Compile(pattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   "context.ignore",
				Value:   pattern,
				Message: fmt.Sprintf("invalid glob pattern: %v", err),
			})
		}
	}

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.Theme != "" && !slices.Contains(ValidThemes(), c.TUI.Theme) {
		errors = append(errors, ValidationError{
			Field:   "tui.theme",
			Value:   c.TUI.Theme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidThemes(), ", ")),
		})
	}

	// Step rail width validation (0 means use default, which is valid).
	const minStepRailWidth = 16
	const maxStepRailWidth = 48
	if c.TUI.StepRailWidth != 0 {
		if c.TUI.StepRailWidth < minStepRailWidth {
			errors = append(errors, ValidationError{
				Field:   "tui.step_rail_width",
				Value:   c.TUI.StepRailWidth,
				Message: fmt.Sprintf("must be at least %d columns", minStepRailWidth),
			})
		}
		if c.TUI.StepRailWidth > maxStepRailWidth {
			errors = append(errors, ValidationError{
				Field:   "tui.step_rail_width",
				Value:   c.TUI.StepRailWidth,
				Message: fmt.Sprintf("exceeds maximum of %d columns", maxStepRailWidth),
			})
		}
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
