package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// NodeStats is a whole-session snapshot: one StepStats entry per
// (scenario, step), plus the error that ended the session, if any. It
// carries no per-scenario durations. Run returns the final one once every
// scenario has finished; LiveSnapshot returns in-progress ones.
type NodeStats struct {
	Steps []StepStats
	Err   *AppError
}

// EngineConfig is the caller-supplied override set applied to scenarios
// before a session runs: which scenarios to run and free-form settings
// passed through to each scenario's Init hook.
type EngineConfig struct {
	TargetScenarios []string
	CustomSettings  map[string]string
}

func asAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		return ae
	}
	return &AppError{Kind: KindInitFailed, Message: err.Error(), Cause: err}
}

// SessionCoordinator owns the whole-run lifecycle: validating scenarios,
// opening every distinct connection pool once, running every scenario's
// Init hook, launching the schedulers, and tearing everything back down.
type SessionCoordinator struct {
	scenarios []*Scenario
	clock     Clock
	log       Logger

	mu       sync.Mutex
	pools    map[string]*ConnectionPool
	active   []*Scenario
	runStart time.Time
}

// NewSessionCoordinator builds a coordinator for the given scenarios.
func NewSessionCoordinator(scenarios []*Scenario, clock Clock, log Logger) *SessionCoordinator {
	return &SessionCoordinator{
		scenarios: scenarios,
		clock:     clock,
		log:       log,
		pools:     make(map[string]*ConnectionPool),
	}
}

// Run validates, initializes, executes, and tears down every targeted
// scenario, returning the merged final NodeStats.
func (sc *SessionCoordinator) Run(ctx context.Context, cfg EngineConfig) NodeStats {
	scenarios, err := sc.selectScenarios(cfg)
	if err != nil {
		return NodeStats{Err: asAppError(err)}
	}

	for _, s := range scenarios {
		if err := s.validate(); err != nil {
			return NodeStats{Err: asAppError(err)}
		}
		tl, err := CompileTimeline(s.Name, s.LoadSimulations)
		if err != nil && len(s.Steps) > 0 {
			return NodeStats{Err: asAppError(err)}
		}
		if err == nil {
			s.Timeline = tl
			s.PlannedDuration = tl.PlannedDuration
		}
		if raw, ok := cfg.CustomSettings[s.Name]; ok {
			s.CustomSettings = raw
		}
	}

	if err := sc.openPools(ctx, scenarios); err != nil {
		return NodeStats{Err: asAppError(err)}
	}
	defer sc.disposePools(context.Background())

	if err := sc.runInits(ctx, scenarios); err != nil {
		sc.runCleans(context.Background(), scenarios)
		return NodeStats{Err: asAppError(err)}
	}

	sc.mu.Lock()
	sc.active = scenarios
	sc.runStart = sc.clock.Now()
	sc.mu.Unlock()

	runErr := sc.runSchedulers(ctx, scenarios)

	sc.runCleans(context.Background(), scenarios)

	return sc.collect(scenarios, runErr)
}

func (sc *SessionCoordinator) selectScenarios(cfg EngineConfig) ([]*Scenario, error) {
	counts := make(map[string]int)
	for _, s := range sc.scenarios {
		counts[s.Name]++
	}
	var duplicates []string
	for _, s := range sc.scenarios {
		if counts[s.Name] > 1 {
			duplicates = append(duplicates, s.Name)
			counts[s.Name] = 0
		}
	}
	if len(duplicates) > 0 {
		return nil, NewDuplicateScenarioNameError(duplicates)
	}

	if len(cfg.TargetScenarios) == 0 {
		return sc.scenarios, nil
	}
	want := make(map[string]bool, len(cfg.TargetScenarios))
	for _, n := range cfg.TargetScenarios {
		want[n] = true
	}
	var out []*Scenario
	for _, s := range sc.scenarios {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (sc *SessionCoordinator) openPools(ctx context.Context, scenarios []*Scenario) error {
	type entry struct {
		name string
		args *ConnectionPoolArgs
	}
	var order []entry
	seen := make(map[string]bool)

	for _, s := range scenarios {
		for _, step := range s.Steps {
			if step.PoolArgs == nil {
				continue
			}
			name := EffectiveName(s.Name, step.PoolArgs.Name)
			if seen[name] {
				continue
			}
			seen[name] = true
			order = append(order, entry{name: name, args: step.PoolArgs})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	opened := make(map[string]*ConnectionPool, len(order))

	for _, e := range order {
		e := e
		g.Go(func() error {
			pool := NewConnectionPool(e.name, *e.args)
			if err := pool.Init(gctx, sc.log); err != nil {
				return err
			}
			mu.Lock()
			opened[e.name] = pool
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, p := range opened {
			p.Dispose(context.Background(), sc.log)
		}
		return err
	}

	sc.pools = opened
	for _, s := range scenarios {
		for _, step := range s.Steps {
			if step.PoolArgs == nil {
				continue
			}
			step.bindPool(sc.pools[EffectiveName(s.Name, step.PoolArgs.Name)])
		}
	}
	return nil
}

func (sc *SessionCoordinator) disposePools(ctx context.Context) {
	for _, p := range sc.pools {
		p.Dispose(ctx, sc.log)
	}
}

func (sc *SessionCoordinator) runInits(ctx context.Context, scenarios []*Scenario) error {
	var g errgroup.Group
	for _, s := range scenarios {
		s := s
		if s.Init == nil {
			continue
		}
		g.Go(func() error {
			hookCtx := &ScenarioContext{ScenarioName: s.Name, CustomSettings: s.CustomSettings, Logger: sc.log}
			if err := s.Init(hookCtx); err != nil {
				return NewInitFailedError(s.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (sc *SessionCoordinator) runCleans(ctx context.Context, scenarios []*Scenario) {
	var wg sync.WaitGroup
	for _, s := range scenarios {
		if s.Clean == nil {
			continue
		}
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			hookCtx := &ScenarioContext{ScenarioName: s.Name, CustomSettings: s.CustomSettings, Logger: sc.log}
			if err := s.Clean(hookCtx); err != nil {
				sc.log.Warn("scenario clean failed", "scenario", s.Name, "error", err)
			}
		}()
	}
	wg.Wait()
}

func (sc *SessionCoordinator) runSchedulers(ctx context.Context, scenarios []*Scenario) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var once sync.Once
	stop := func(reason string) {
		once.Do(func() {
			sc.log.Info("stop test requested", "reason", reason)
			cancel()
		})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, s := range scenarios {
		s := s
		stats := NewStatsAggregator(s.Name)
		sc.mu.Lock()
		s.stats = stats
		sc.mu.Unlock()
		sched := NewScenarioScheduler(s, stats, sc.clock, sc.log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sched.Run(runCtx, stop); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// LiveSnapshot returns the in-progress stats for every scenario launched
// by the current or most recent Run call. Safe to call concurrently with
// Run; used by reporting sinks to poll progress during a run.
func (sc *SessionCoordinator) LiveSnapshot() NodeStats {
	sc.mu.Lock()
	scenarios := sc.active
	elapsed := sc.clock.Now().Sub(sc.runStart)
	sc.mu.Unlock()

	var steps []StepStats
	for _, s := range scenarios {
		sc.mu.Lock()
		stats := s.stats
		sc.mu.Unlock()
		if stats == nil {
			continue
		}
		steps = append(steps, stats.Snapshot(elapsed)...)
	}
	return NodeStats{Steps: steps}
}

func (sc *SessionCoordinator) collect(scenarios []*Scenario, runErr error) NodeStats {
	var steps []StepStats
	for _, s := range scenarios {
		if s.stats == nil {
			continue
		}
		steps = append(steps, s.stats.Snapshot(s.ExecutedDuration)...)
	}
	return NodeStats{Steps: steps, Err: asAppError(runErr)}
}
