// Package report broadcasts live StepStats snapshots from a running
// session to one or more sinks: a console printer, a WebSocket hub for
// remote dashboards, and an in-terminal Bubble Tea dashboard.
package report

import (
	"context"
	"time"

	"github.com/ryanbrace/loadforge/internal/engine"
)

// Source is anything that can be polled for the current state of a run.
// engine.SessionCoordinator implements it.
type Source interface {
	LiveSnapshot() engine.NodeStats
}

// Sink receives periodic snapshots until its context is cancelled.
type Sink interface {
	Run(ctx context.Context, source Source)
}

// PollInterval is how often sinks poll the Source for a fresh snapshot,
// mirroring the teacher's 500ms metrics broadcast cadence.
const PollInterval = 500 * time.Millisecond

// poll calls fn with a fresh snapshot every PollInterval until ctx is
// cancelled. Shared by every Sink implementation in this package.
func poll(ctx context.Context, source Source, fn func(engine.NodeStats)) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(source.LiveSnapshot())
		}
	}
}
