// Package obslog adapts zerolog into the engine.Logger interface the
// load-testing core depends on, keeping the core package free of a
// concrete logging dependency.
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ryanbrace/loadforge/internal/engine"
)

// Logger wraps a zerolog.Logger to satisfy engine.Logger.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger writing to os.Stderr in the requested format
// ("json" or "console") at the requested level ("debug", "info", "warn",
// "error"). An unrecognized level falls back to info.
func New(level, format string) Logger {
	var out io.Writer = os.Stderr
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(out).With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return Logger{z: z.Level(lvl)}
}

// Wrap adapts an already-built zerolog.Logger.
func Wrap(z zerolog.Logger) Logger {
	return Logger{z: z}
}

func (l Logger) event(e *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}

func (l Logger) Debug(msg string, kv ...any) { l.event(l.z.Debug(), msg, kv) }
func (l Logger) Info(msg string, kv ...any)  { l.event(l.z.Info(), msg, kv) }
func (l Logger) Warn(msg string, kv ...any)  { l.event(l.z.Warn(), msg, kv) }
func (l Logger) Error(msg string, kv ...any) { l.event(l.z.Error(), msg, kv) }

// With returns a child logger carrying the given key/value pairs on every
// subsequent event, mirroring the teacher's logger.With().Str(...).Logger()
// chaining idiom.
func (l Logger) With(kv ...any) engine.Logger {
	ctx := l.z.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, kv[i+1])
	}
	return Logger{z: ctx.Logger()}
}

var _ engine.Logger = Logger{}
