// Package gatewaylog is the gateway's structured logger. The teacher defines
// a minimal Logger interface (pkg/orchestrator/types.go: Debug/Info/Warn/Error)
// but only ever wires it to a NoOpLogger, falling back to the bare stdlib
// `log` package in cmd/agent/main.go. fanonxr-Lexiq-AI — the pack's other
// voice-gateway — reaches for `github.com/rs/zerolog` for exactly this job
// (apps/voice-gateway/internal/observability/logger.go); this package
// generalizes that shape into a concrete logger satisfying the teacher's
// Logger interface everywhere it's declared (remoteconfig, session).
package gatewaylog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured sink. Every package in the gateway that needs
// logging declares this same four-method shape locally (matching the
// teacher's per-package Logger interfaces); *Logger satisfies all of them
// structurally.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger. pretty selects a human-readable console writer for
// local development; otherwise JSON lines go to stdout, suitable for a
// server process whose logs are collected by the host platform.
func New(pretty bool) *Logger {
	var z zerolog.Logger
	if pretty {
		z = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		z = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return &Logger{z: z}
}

// With returns a child Logger with callID attached to every subsequent
// line, so a call's whole lifecycle can be grepped by one field.
func (l *Logger) With(callID string) *Logger {
	return &Logger{z: l.z.With().Str("call_id", callID).Logger()}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.event(l.z.Debug(), msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.event(l.z.Info(), msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.event(l.z.Warn(), msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.event(l.z.Error(), msg, args) }

// event applies args as alternating key/value pairs, matching the teacher's
// Warn("...", "sessionID", id, "error", err) call convention.
func (l *Logger) event(e *zerolog.Event, msg string, args []interface{}) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}
