package engine

import (
	"context"
	"sync"
)

// StepPipeline drives one full pass through a scenario's steps for a
// single virtual-user copy. One copy repeatedly calls RunOnce until its
// lifecycle ends.
type StepPipeline struct {
	scenario *Scenario

	warnedMu sync.Mutex
	warned   map[int]bool
}

// NewStepPipeline builds a pipeline bound to scenario. The scenario's
// steps must already have their pools resolved (see SessionCoordinator).
func NewStepPipeline(scenario *Scenario) *StepPipeline {
	return &StepPipeline{scenario: scenario, warned: make(map[int]bool)}
}

// warnOnceOutOfRange logs at most one out-of-range-index warning per copy,
// across all of that copy's invocations.
func (p *StepPipeline) warnOnceOutOfRange(copyNumber, idx int, log Logger) {
	p.warnedMu.Lock()
	defer p.warnedMu.Unlock()
	if p.warned[copyNumber] {
		return
	}
	p.warned[copyNumber] = true
	log.Warn("steps_order_fn returned an out-of-range index, skipping",
		"scenario", p.scenario.Name, "copy", copyNumber, "index", idx, "step_count", len(p.scenario.Steps))
}

// RunOnce executes one ordered pass through the scenario's steps for
// copyNumber, recording every tracked step's outcome into stats. It
// returns true if a step called StepContext.StopCurrentTest or returned a
// Response with ExitStopTest; both also invoke stopFn, signalling the
// caller (the scheduler) to begin session-wide shutdown.
func (p *StepPipeline) RunOnce(
	ctx context.Context,
	correlation CorrelationID,
	copyNumber int,
	invocationCount int,
	clock Clock,
	log Logger,
	stats *StatsAggregator,
	stopFn func(reason string),
) bool {
	order := p.scenario.orderFn()()

	var previousResponse any
	var hasPrevious bool
	stopRequested := false

	for _, idx := range order {
		select {
		case <-ctx.Done():
			return stopRequested
		default:
		}

		if idx < 0 || idx >= len(p.scenario.Steps) {
			p.warnOnceOutOfRange(copyNumber, idx, log)
			continue
		}
		step := p.scenario.Steps[idx]

		var connection any
		if step.pool != nil {
			connection = step.pool.Get(copyNumber)
		}
		var feedItem any
		if step.Feed != nil {
			feedItem, _ = step.Feed.Pull()
		}

		stepCtx := &StepContext{
			Correlation:      correlation,
			Ctx:              ctx,
			Connection:       connection,
			FeedItem:         feedItem,
			InvocationCount:  invocationCount,
			Logger:           log,
			previousResponse: previousResponse,
			hasPrevious:      hasPrevious,
			stopFn: func(reason string) {
				stopRequested = true
				if stopFn != nil {
					stopFn(reason)
				}
			},
		}

		start := clock.Now()
		resp := step.Execute(stepCtx)
		elapsedMS := float64(clock.Now().Sub(start).Microseconds()) / 1000

		latencyMS := elapsedMS
		if resp.LatencyMS != nil {
			latencyMS = *resp.LatencyMS
		}

		if !step.DoNotTrack {
			stats.Record(StepOutcome{
				StepName:  step.Name,
				OK:        resp.OK,
				LatencyMS: latencyMS,
				SizeBytes: resp.SizeBytes,
			})
		}

		previousResponse = resp.Payload
		hasPrevious = true

		if resp.ExitCode == ExitStopTest {
			stepCtx.stopFn("step " + step.Name + " returned ExitStopTest")
		}
		if stopRequested {
			return true
		}
	}

	return stopRequested
}
