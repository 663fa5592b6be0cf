package engine

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestStepPipelineRunOnceTracksAndChains(t *testing.T) {
	var seenFeed []any
	step1 := NewStep("fetch", func(ctx *StepContext) Response {
		seenFeed = append(seenFeed, ctx.FeedItem)
		return ResponseOk("order-1")
	}).WithFeed(NewSliceFeed([]any{"a", "b"}))

	step2 := NewStep("charge", func(ctx *StepContext) Response {
		prev, ok := GetPreviousStepResponse[string](ctx)
		if !ok || prev != "order-1" {
			t.Errorf("want previous response 'order-1', got (%q, %v)", prev, ok)
		}
		return ResponseFail()
	})

	pause := NewPauseStep("wait", time.Millisecond).WithDoNotTrack()

	scn := NewScenario("checkout").WithSteps(step1, step2, pause).WithLoad(KeepConstant(1, time.Second))
	pipeline := NewStepPipeline(scn)

	stats := NewStatsAggregator("checkout")
	clock := NewManualClock(time.Unix(0, 0))
	correlation := NewCorrelationID("checkout", 0)

	stopped := pipeline.RunOnce(context.Background(), correlation, 0, 1, clock, NopLogger{}, stats, func(string) {})
	if stopped {
		t.Fatal("want RunOnce to return false when no step calls StopCurrentTest")
	}
	if seenFeed[0] != "a" {
		t.Fatalf("want the feed's first item 'a', got %v", seenFeed[0])
	}

	snap := stats.Snapshot(time.Second)
	names := map[string]StepStats{}
	for _, s := range snap {
		names[s.StepName] = s
	}
	if _, ok := names["wait"]; ok {
		t.Fatal("want a DoNotTrack step excluded from stats entirely")
	}
	if names["fetch"].OKCount != 1 {
		t.Fatalf("want fetch tracked as ok, got %+v", names["fetch"])
	}
	if names["charge"].FailCount != 1 {
		t.Fatalf("want charge tracked as fail, got %+v", names["charge"])
	}
}

func TestStepPipelineStopCurrentTestHaltsPass(t *testing.T) {
	var ranThird bool
	step1 := NewStep("one", func(ctx *StepContext) Response {
		ctx.StopCurrentTest("enough")
		return ResponseOk(nil)
	})
	step2 := NewStep("two", func(ctx *StepContext) Response {
		ranThird = true
		return ResponseOk(nil)
	})

	scn := NewScenario("checkout").WithSteps(step1, step2).WithLoad(KeepConstant(1, time.Second))
	pipeline := NewStepPipeline(scn)
	stats := NewStatsAggregator("checkout")
	clock := NewManualClock(time.Unix(0, 0))

	var stopReason string
	stopped := pipeline.RunOnce(context.Background(), NewCorrelationID("checkout", 0), 0, 1, clock, NopLogger{}, stats, func(r string) { stopReason = r })

	if !stopped {
		t.Fatal("want RunOnce to report stopped=true after StopCurrentTest")
	}
	if ranThird {
		t.Fatal("want the pipeline to stop before running the step after the one that called StopCurrentTest")
	}
	if stopReason != "enough" {
		t.Fatalf("want the stop reason propagated, got %q", stopReason)
	}
}

// warnCountingLogger only tracks how many times Warn was called; the
// other levels are discarded like NopLogger.
type warnCountingLogger struct {
	mu    sync.Mutex
	warns int
}

func (l *warnCountingLogger) Debug(string, ...any) {}
func (l *warnCountingLogger) Info(string, ...any)  {}
func (l *warnCountingLogger) Warn(string, ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns++
}
func (l *warnCountingLogger) Error(string, ...any)   {}
func (l *warnCountingLogger) With(...any) Logger     { return l }
func (l *warnCountingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warns
}

func TestStepPipelineSkipsOutOfRangeOrderIndices(t *testing.T) {
	var ran []string
	step1 := NewStep("one", func(ctx *StepContext) Response {
		ran = append(ran, "one")
		return ResponseOk(nil)
	})
	step2 := NewStep("two", func(ctx *StepContext) Response {
		ran = append(ran, "two")
		return ResponseOk(nil)
	})

	scn := NewScenario("checkout").
		WithSteps(step1, step2).
		WithLoad(KeepConstant(1, time.Second)).
		WithStepsOrderFn(func() []int { return []int{0, 99, -1, 1} })
	pipeline := NewStepPipeline(scn)
	stats := NewStatsAggregator("checkout")
	clock := NewManualClock(time.Unix(0, 0))
	log := &warnCountingLogger{}

	for i := 0; i < 3; i++ {
		stopped := pipeline.RunOnce(context.Background(), NewCorrelationID("checkout", 0), 0, i+1, clock, log, stats, func(string) {})
		if stopped {
			t.Fatal("want RunOnce to report stopped=false for a bad-index pass")
		}
	}

	if len(ran) != 6 || ran[0] != "one" || ran[1] != "two" {
		t.Fatalf("want both valid steps run on every pass despite the bad indices, got %v", ran)
	}
	if got := log.count(); got != 1 {
		t.Fatalf("want exactly one warning logged for copy 0 across all its invocations, got %d", got)
	}
}

func TestStepPipelineConnectionResolvedFromPool(t *testing.T) {
	args := ConnectionPoolArgs{
		Name:  "db",
		Count: 2,
		Open: func(ctx context.Context, index int) (any, error) { return index, nil },
	}
	pool := NewConnectionPool(EffectiveName("checkout", "db"), args)
	if err := pool.Init(context.Background(), NopLogger{}); err != nil {
		t.Fatal(err)
	}

	var gotConn any
	step := NewStep("query", func(ctx *StepContext) Response {
		gotConn = ctx.Connection
		return ResponseOk(nil)
	}).WithPool(&args)
	step.bindPool(pool)

	scn := NewScenario("checkout").WithSteps(step).WithLoad(KeepConstant(1, time.Second))
	pipeline := NewStepPipeline(scn)
	stats := NewStatsAggregator("checkout")
	clock := NewManualClock(time.Unix(0, 0))

	pipeline.RunOnce(context.Background(), NewCorrelationID("checkout", 1), 1, 1, clock, NopLogger{}, stats, func(string) {})
	if gotConn != 1 {
		t.Fatalf("want copy_number=1 to resolve to pool slot 1, got %v", gotConn)
	}
}
