// Package logging provides structured JSON logging for the sidecar
// panel, built on log/slog.
//
// A Logger writes JSON lines to {stateDir}/debug.log with size-based
// rotation, or to stderr when no state directory is configured. Child
// loggers created with WithSession, WithCommand, WithStep, or With
// carry persistent attributes into every entry, so one grep recovers
// everything about a session, a streamed command, or a pipeline step.
//
// The same package reads logs back: ReadLogs parses a state
// directory's debug.log and FilterLogs narrows the result by level,
// time range, session, command, step, or message substring. The
// `sidecar logs` command is built on these.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(stateDir, "DEBUG", logging.DefaultRotationConfig())
//	if err != nil { ... }
//	defer logger.Close()
//
//	sessionLog := logger.WithSession("s1")
//	sessionLog.Info("event applied", "tag", "workflow.started")
package logging
