// Package obslog provides structured, leveled zerolog-based logging
// for the engine: a logger value is built
// once by the caller and threaded explicitly into the packages that
// want it, never reached through a package-level global. Nothing the
// engine returns depends on whether a logger is attached; logging here
// is strictly observational.
package obslog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger. The zero value is a safe no-op
// logger: powerflow.Input{} callers who never set Log get silent
// discard rather than a write to an unconfigured zerolog.Logger.
type Logger struct {
	z    zerolog.Logger
	live bool
}

// Nop returns a Logger that discards every event, for callers that
// don't want engine logging. Equivalent to the Logger zero value.
func Nop() Logger {
	return Logger{}
}

// New builds a Logger writing JSON lines to w at the given level. An
// empty level defaults to "info".
func New(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return Logger{z: zerolog.New(w).Level(lvl).With().Timestamp().Logger(), live: true}
}

// Event starts a structured event at the given level, e.g.:
//
//	log.Event("debug", "pv_to_pq_switch").Str("node_id", id).Send()
//
// On the zero-value Logger it returns a disabled *zerolog.Event whose
// Send()/Str()/... calls are all safe no-ops.
func (l Logger) Event(level, event string) *zerolog.Event {
	z := l.z
	if !l.live {
		z = nopLogger
	}
	var e *zerolog.Event
	switch level {
	case "debug":
		e = z.Debug()
	case "warn":
		e = z.Warn()
	case "error":
		e = z.Error()
	default:
		e = z.Info()
	}
	return e.Str("event", event)
}

var nopLogger = zerolog.Nop()
