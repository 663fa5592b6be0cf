package report

import (
	"context"
	"fmt"
	"io"

	"github.com/ryanbrace/loadforge/internal/engine"
)

// ConsoleSink prints a compact table of per-step stats to w on every
// poll, the plain-text equivalent of the teacher's TUI for non-terminal
// contexts (CI logs, piped output).
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink builds a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Run(ctx context.Context, source Source) {
	poll(ctx, source, func(snap engine.NodeStats) {
		if len(snap.Steps) == 0 {
			return
		}
		fmt.Fprintf(s.w, "%-20s %-20s %8s %8s %10s %10s %10s %10s\n",
			"scenario", "step", "ok", "fail", "min_ms", "mean_ms", "max_ms", "rps")
		for _, st := range snap.Steps {
			fmt.Fprintf(s.w, "%-20s %-20s %8d %8d %10.2f %10.2f %10.2f %10.2f\n",
				st.ScenarioName, st.StepName, st.OKCount, st.FailCount, st.MinMS, st.MeanMS, st.MaxMS, st.RPS)
		}
	})
}

var _ Sink = (*ConsoleSink)(nil)
