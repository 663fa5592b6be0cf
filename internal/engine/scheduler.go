package engine

import (
	"context"
	"sync"
	"time"
)

// ClosedTickInterval is how often the closed-model scheduler re-evaluates
// its target concurrency.
const ClosedTickInterval = time.Second

// copyDrainGrace bounds how long runPhase waits for cancelled copies to
// notice and return after a phase ends. A copy still running past this is
// abandoned rather than blocking the scheduler indefinitely.
const copyDrainGrace = 5 * time.Second

// OpenModelTickInterval is how often the open-model scheduler re-evaluates
// its injection rate. Finer than the closed-model tick because an
// open-model rate has to be distributed across sub-second fractions of a
// copy (see injectCount).
var OpenModelTickInterval = 100 * time.Millisecond

// copyState tags where a closed-model virtual user sits in its lifecycle.
type copyState int

const (
	copySpawning copyState = iota
	copyRunning
	copyCancelling
	copyDone
)

// runningCopy is a scheduler-owned handle on one closed-model virtual
// user's goroutine.
type runningCopy struct {
	copyNumber int
	cancel     context.CancelFunc
	state      copyState
	done       chan struct{}
}

// ScenarioScheduler drives one scenario's warm-up and main phases: it
// walks the compiled Timeline tick by tick, spawning and cancelling
// virtual-user copies to track the target concurrency or injection rate.
type ScenarioScheduler struct {
	scenario *Scenario
	pipeline *StepPipeline
	stats    *StatsAggregator
	clock    Clock
	log      Logger

	closedTick time.Duration
	openTick   time.Duration

	mu          sync.Mutex
	copyCounter int
}

// NewScenarioScheduler builds a scheduler for scenario. The scenario must
// already be validated and have its Timeline compiled.
func NewScenarioScheduler(scenario *Scenario, stats *StatsAggregator, clock Clock, log Logger) *ScenarioScheduler {
	return &ScenarioScheduler{
		scenario:   scenario,
		pipeline:   NewStepPipeline(scenario),
		stats:      stats,
		clock:      clock,
		log:        log,
		closedTick: ClosedTickInterval,
		openTick:   OpenModelTickInterval,
	}
}

// WithTickIntervals overrides the closed- and open-model tick cadence.
// Intended for tests that need a full Run() to complete in milliseconds
// rather than real seconds.
func (sch *ScenarioScheduler) WithTickIntervals(closed, open time.Duration) *ScenarioScheduler {
	sch.closedTick = closed
	sch.openTick = open
	return sch
}

func (sch *ScenarioScheduler) nextCopyNumber() int {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	n := sch.copyCounter
	sch.copyCounter++
	return n
}

// Run executes warm-up (if configured) followed by the main phase. It
// returns the first StopCurrentTest-triggered or warm-up-validation error,
// or nil on a clean run to completion. sessionStop is invoked (at most
// once) the moment any copy calls StepContext.StopCurrentTest; the caller
// is expected to cancel every other scenario's context in response.
func (sch *ScenarioScheduler) Run(ctx context.Context, sessionStop func(reason string)) error {
	start := sch.clock.Now()

	if sch.scenario.WarmUpDuration > 0 {
		warmUp, err := CompileTimeline(sch.scenario.Name, []LoadSimulation{
			KeepConstant(1, sch.scenario.WarmUpDuration),
		})
		if err != nil {
			return err
		}

		stopped, reason := sch.runPhase(ctx, warmUp, start, sessionStop)
		if stopped {
			return NewStopTestRequestedError(reason)
		}
		if err := sch.stats.ValidateWarmUp(); err != nil {
			return err
		}

		sch.stats.Reset()
		sch.mu.Lock()
		sch.copyCounter = 0
		sch.mu.Unlock()
		start = sch.clock.Now()
	}

	if sch.scenario.Timeline == nil {
		return nil
	}

	stopped, reason := sch.runPhase(ctx, sch.scenario.Timeline, start, sessionStop)
	sch.scenario.ExecutedDuration = sch.clock.Now().Sub(start)
	if stopped {
		return NewStopTestRequestedError(reason)
	}
	return nil
}

// runPhase walks tl from phaseStart until tl.PlannedDuration has elapsed
// (by sch.clock) or ctx is cancelled, spawning/cancelling copies to track
// the timeline's target. It returns true if a copy requested StopTest or
// ctx was cancelled, along with the requesting copy's reason (empty when
// the phase ended through ctx).
func (sch *ScenarioScheduler) runPhase(ctx context.Context, tl *Timeline, phaseStart time.Time, sessionStop func(reason string)) (bool, string) {
	phaseCtx, cancelPhase := context.WithCancel(ctx)
	defer cancelPhase()

	stopped := false
	stopReason := ""
	var stopOnce sync.Once
	stopFn := func(reason string) {
		stopOnce.Do(func() {
			stopped = true
			stopReason = reason
			if sessionStop != nil {
				sessionStop(reason)
			}
			cancelPhase()
		})
	}

	var closed []*runningCopy
	var carry float64
	var wg sync.WaitGroup

	closedTicker := time.NewTicker(sch.closedTick)
	defer closedTicker.Stop()
	openTicker := time.NewTicker(sch.openTick)
	defer openTicker.Stop()

	// Drive one immediate tick on each path so a short-lived phase still
	// spawns/injects before its first ticker fires.
	sch.evaluateClosed(phaseCtx, tl, phaseStart, &closed, &wg, stopFn)
	sch.evaluateOpen(phaseCtx, tl, phaseStart, &carry, &wg, stopFn)

	for {
		elapsed := sch.clock.Now().Sub(phaseStart)
		if elapsed >= tl.PlannedDuration || stopped {
			break
		}

		select {
		case <-phaseCtx.Done():
			if ctx.Err() != nil {
				stopped = true
			}
			goto drain
		case <-closedTicker.C:
			sch.evaluateClosed(phaseCtx, tl, phaseStart, &closed, &wg, stopFn)
		case <-openTicker.C:
			sch.evaluateOpen(phaseCtx, tl, phaseStart, &carry, &wg, stopFn)
		}
	}

drain:
	cancelPhase()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(copyDrainGrace):
		sch.log.Warn("timed out waiting for copies to finish, abandoning them", "scenario", sch.scenario.Name)
	}
	return stopped, stopReason
}

// evaluateClosed reconciles running closed-model copies toward the
// timeline's target concurrency at the current offset: spawning more or
// cancelling the most recently spawned (LIFO). A no-op outside a closed
// interval.
func (sch *ScenarioScheduler) evaluateClosed(
	ctx context.Context,
	tl *Timeline,
	phaseStart time.Time,
	closed *[]*runningCopy,
	wg *sync.WaitGroup,
	stopFn func(reason string),
) {
	elapsed := sch.clock.Now().Sub(phaseStart)
	mode, target, _ := tl.TargetAt(elapsed)
	if mode != ModeClosed {
		return
	}
	sch.reconcileClosed(ctx, target, closed, wg, stopFn)
}

// evaluateOpen injects one tick's worth of the timeline's injection rate
// at the current offset. A no-op outside an open interval, so only the
// open ticker ever folds time into the fractional-carry accumulator.
func (sch *ScenarioScheduler) evaluateOpen(
	ctx context.Context,
	tl *Timeline,
	phaseStart time.Time,
	carry *float64,
	wg *sync.WaitGroup,
	stopFn func(reason string),
) {
	elapsed := sch.clock.Now().Sub(phaseStart)
	mode, _, rate := tl.TargetAt(elapsed)
	if mode != ModeOpen {
		return
	}
	sch.injectOpen(ctx, rate, carry, wg, stopFn)
}

func (sch *ScenarioScheduler) reconcileClosed(ctx context.Context, target int, closed *[]*runningCopy, wg *sync.WaitGroup, stopFn func(reason string)) {
	current := *closed
	for len(current) < target {
		copyNumber := sch.nextCopyNumber()
		copyCtx, cancel := context.WithCancel(ctx)
		rc := &runningCopy{copyNumber: copyNumber, cancel: cancel, state: copySpawning, done: make(chan struct{})}
		current = append(current, rc)
		wg.Add(1)
		go sch.runClosedCopy(copyCtx, rc, wg, stopFn)
	}
	for len(current) > target {
		last := current[len(current)-1]
		last.state = copyCancelling
		last.cancel()
		current = current[:len(current)-1]
	}
	*closed = current
}

func (sch *ScenarioScheduler) runClosedCopy(ctx context.Context, rc *runningCopy, wg *sync.WaitGroup, stopFn func(reason string)) {
	defer wg.Done()
	defer close(rc.done)
	rc.state = copyRunning
	correlation := NewCorrelationID(sch.scenario.Name, rc.copyNumber)
	invocation := 0
	for {
		select {
		case <-ctx.Done():
			rc.state = copyDone
			return
		default:
		}
		invocation++
		if sch.pipeline.RunOnce(ctx, correlation, rc.copyNumber, invocation, sch.clock, sch.log, sch.stats, stopFn) {
			rc.state = copyDone
			return
		}
	}
}

// injectCount folds one tick's worth of a fractional injection rate into
// carry and returns how many whole copies should be spawned this tick,
// leaving the remainder in carry for the next tick. Pulled out of
// injectOpen so the accumulation math is testable without a running
// scheduler.
func injectCount(rate float64, tick time.Duration, carry *float64) int {
	*carry += rate * tick.Seconds()
	n := int(*carry)
	*carry -= float64(n)
	return n
}

func (sch *ScenarioScheduler) injectOpen(ctx context.Context, rate float64, carry *float64, wg *sync.WaitGroup, stopFn func(reason string)) {
	n := injectCount(rate, sch.openTick, carry)

	for i := 0; i < n; i++ {
		copyNumber := sch.nextCopyNumber()
		wg.Add(1)
		go func() {
			defer wg.Done()
			correlation := NewCorrelationID(sch.scenario.Name, copyNumber)
			sch.pipeline.RunOnce(ctx, correlation, copyNumber, 1, sch.clock, sch.log, sch.stats, stopFn)
		}()
	}
}
