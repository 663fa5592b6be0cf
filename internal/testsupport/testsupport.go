// Package testsupport provides small test doubles for packages built on
// the engine (internal/report's tests use it): a logger that records
// events instead of printing them, and an in-memory ConnectionPoolArgs
// builder that needs no real Postgres target. The internal/engine tests
// themselves do not import it, since it imports engine.
package testsupport

import (
	"context"
	"sync"

	"github.com/ryanbrace/loadforge/internal/engine"
)

// LogEvent is one recorded call to a RecordingLogger.
type LogEvent struct {
	Level string
	Msg   string
	KV    []any
}

// RecordingLogger implements engine.Logger by appending every call to an
// in-memory slice, so tests can assert on what the engine logged without
// capturing stderr.
type RecordingLogger struct {
	mu     *sync.Mutex
	events *[]LogEvent
	kv     []any
}

// NewRecordingLogger builds an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{mu: &sync.Mutex{}, events: &[]LogEvent{}}
}

func (l *RecordingLogger) record(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.events = append(*l.events, LogEvent{Level: level, Msg: msg, KV: append(append([]any{}, l.kv...), kv...)})
}

func (l *RecordingLogger) Debug(msg string, kv ...any) { l.record("debug", msg, kv) }
func (l *RecordingLogger) Info(msg string, kv ...any)  { l.record("info", msg, kv) }
func (l *RecordingLogger) Warn(msg string, kv ...any)  { l.record("warn", msg, kv) }
func (l *RecordingLogger) Error(msg string, kv ...any) { l.record("error", msg, kv) }

func (l *RecordingLogger) With(kv ...any) engine.Logger {
	return &RecordingLogger{mu: l.mu, events: l.events, kv: append(append([]any{}, l.kv...), kv...)}
}

// Events returns a snapshot of every event recorded so far.
func (l *RecordingLogger) Events() []LogEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEvent, len(*l.events))
	copy(out, *l.events)
	return out
}

var _ engine.Logger = (*RecordingLogger)(nil)

// MemoryPoolArgs returns ConnectionPoolArgs backed by count plain ints
// (the slot index itself is the "connection"), recording every open/close
// call in order for assertions about pool lifecycle.
func MemoryPoolArgs(name string, count int) (*engine.ConnectionPoolArgs, func() (opened, closed []int)) {
	var mu sync.Mutex
	var opened, closed []int

	return &engine.ConnectionPoolArgs{
			Name:  name,
			Count: count,
			Open: func(ctx context.Context, index int) (any, error) {
				mu.Lock()
				opened = append(opened, index)
				mu.Unlock()
				return index, nil
			},
			Close: func(ctx context.Context, conn any) error {
				mu.Lock()
				closed = append(closed, conn.(int))
				mu.Unlock()
				return nil
			},
		}, func() (o, c []int) {
			mu.Lock()
			defer mu.Unlock()
			return append([]int{}, opened...), append([]int{}, closed...)
		}
}
