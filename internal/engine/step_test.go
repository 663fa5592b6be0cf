package engine

import (
	"context"
	"testing"
	"time"
)

func TestGetPreviousStepResponseMissing(t *testing.T) {
	ctx := &StepContext{}
	v, ok := GetPreviousStepResponse[string](ctx)
	if ok || v != "" {
		t.Fatalf("want (zero, false) when there is no previous response, got (%q, %v)", v, ok)
	}
}

func TestGetPreviousStepResponseWrongType(t *testing.T) {
	ctx := &StepContext{previousResponse: 42, hasPrevious: true}
	v, ok := GetPreviousStepResponse[string](ctx)
	if ok || v != "" {
		t.Fatalf("want (zero, false) on a type mismatch, got (%q, %v)", v, ok)
	}
}

func TestGetPreviousStepResponseMatch(t *testing.T) {
	ctx := &StepContext{previousResponse: "token-123", hasPrevious: true}
	v, ok := GetPreviousStepResponse[string](ctx)
	if !ok || v != "token-123" {
		t.Fatalf("want (token-123, true), got (%q, %v)", v, ok)
	}
}

func TestStopCurrentTestInvokesHook(t *testing.T) {
	var reason string
	ctx := &StepContext{stopFn: func(r string) { reason = r }}
	ctx.StopCurrentTest("done")
	if reason != "done" {
		t.Fatalf("want stopFn called with 'done', got %q", reason)
	}
}

func TestNewPauseStepSleepsAndIsUntracked(t *testing.T) {
	step := NewPauseStep("think", 10*time.Millisecond)
	if !step.DoNotTrack {
		t.Fatal("want a pause step to be marked DoNotTrack")
	}
	ctx := &StepContext{Ctx: context.Background()}
	start := time.Now()
	resp := step.Execute(ctx)
	if !resp.OK {
		t.Fatal("want a pause step to always succeed")
	}
	if time.Since(start) < 9*time.Millisecond {
		t.Fatal("want the pause step to actually wait roughly its configured duration")
	}
}

func TestNewPauseStepRespectsCancellation(t *testing.T) {
	step := NewPauseStep("think", time.Hour)
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := &StepContext{Ctx: cctx}

	done := make(chan struct{})
	go func() {
		step.Execute(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("want a cancelled context to cut a pause step short")
	}
}
