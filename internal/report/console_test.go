package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ryanbrace/loadforge/internal/engine"
)

type fakeSource struct {
	snap engine.NodeStats
}

func (f fakeSource) LiveSnapshot() engine.NodeStats { return f.snap }

func TestConsoleSinkPrintsStepTable(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	source := fakeSource{snap: engine.NodeStats{Steps: []engine.StepStats{
		{ScenarioName: "checkout", StepName: "pay", OKCount: 10, FailCount: 1, MinMS: 5, MeanMS: 12.5, MaxMS: 30, RPS: 2.5},
	}}}

	ctx, cancel := context.WithTimeout(context.Background(), PollInterval+200*time.Millisecond)
	defer cancel()
	sink.Run(ctx, source)

	out := buf.String()
	if !strings.Contains(out, "checkout") || !strings.Contains(out, "pay") {
		t.Fatalf("want the scenario and step name printed, got %q", out)
	}
	if !strings.Contains(out, "scenario") {
		t.Fatalf("want a header row printed, got %q", out)
	}
}

func TestConsoleSinkSkipsEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	source := fakeSource{snap: engine.NodeStats{}}

	ctx, cancel := context.WithTimeout(context.Background(), PollInterval+200*time.Millisecond)
	defer cancel()
	sink.Run(ctx, source)

	if buf.Len() != 0 {
		t.Fatalf("want nothing printed for an empty snapshot, got %q", buf.String())
	}
}
