package engine

import "time"

// ScenarioContext is passed to a scenario's Init and Clean hooks.
type ScenarioContext struct {
	ScenarioName   string
	CustomSettings string
	Logger         Logger
}

// HookFunc is an Init or Clean hook: an opaque asynchronous operation the
// engine invokes once per scenario.
type HookFunc func(ctx *ScenarioContext) error

// StepsOrderFunc returns a permutation of indices into Scenario.Steps,
// called once per pipeline invocation (one full pass through the
// scenario). The default orders steps in declaration order.
type StepsOrderFunc func() []int

// Scenario is a named pipeline: init/clean hooks, an ordered list of
// steps, a warm-up duration, and a declared load.
type Scenario struct {
	Name            string
	Init            HookFunc
	Clean           HookFunc
	Steps           []*Step
	WarmUpDuration  time.Duration
	LoadSimulations []LoadSimulation
	CustomSettings  string
	StepsOrderFn    StepsOrderFunc

	// Populated by CompileTimeline during session validation.
	Timeline *Timeline
	// PlannedDuration mirrors Timeline.PlannedDuration once compiled.
	PlannedDuration time.Duration
	// ExecutedDuration is populated after the scheduler finishes the main run.
	ExecutedDuration time.Duration

	// stats is the scenario's live counter set, created by
	// SessionCoordinator when the schedulers are launched.
	stats *StatsAggregator
}

// NewScenario builds a Scenario with the identity steps order.
func NewScenario(name string) *Scenario {
	return &Scenario{Name: name}
}

// WithSteps appends steps and returns the scenario for chaining.
func (s *Scenario) WithSteps(steps ...*Step) *Scenario {
	s.Steps = append(s.Steps, steps...)
	return s
}

// WithLoad sets the scenario's declared load simulations.
func (s *Scenario) WithLoad(sims ...LoadSimulation) *Scenario {
	s.LoadSimulations = sims
	return s
}

// WithWarmUp sets the warm-up duration.
func (s *Scenario) WithWarmUp(d time.Duration) *Scenario {
	s.WarmUpDuration = d
	return s
}

// WithInit sets the init hook.
func (s *Scenario) WithInit(fn HookFunc) *Scenario {
	s.Init = fn
	return s
}

// WithClean sets the clean hook.
func (s *Scenario) WithClean(fn HookFunc) *Scenario {
	s.Clean = fn
	return s
}

// WithCustomSettings sets the free-form settings string passed to Init.
func (s *Scenario) WithCustomSettings(raw string) *Scenario {
	s.CustomSettings = raw
	return s
}

// WithStepsOrderFn overrides the per-invocation step ordering function.
func (s *Scenario) WithStepsOrderFn(fn StepsOrderFunc) *Scenario {
	s.StepsOrderFn = fn
	return s
}

func (s *Scenario) orderFn() StepsOrderFunc {
	if s.StepsOrderFn != nil {
		return s.StepsOrderFn
	}
	return func() []int {
		order := make([]int, len(s.Steps))
		for i := range order {
			order[i] = i
		}
		return order
	}
}

// Validate checks the scenario-local invariants: it does not check
// cross-scenario uniqueness, which only SessionCoordinator.Run can see
// across the whole scenario set.
func (s *Scenario) Validate() error {
	return s.validate()
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return NewEmptyScenarioNameError()
	}
	if len(s.Steps) == 0 && s.Init == nil && s.Clean == nil {
		return NewEmptyStepsError(s.Name)
	}
	for _, step := range s.Steps {
		if step.Name == "" {
			return NewEmptyStepNameError(s.Name)
		}
	}

	seen := make(map[string]*ConnectionPoolArgs)
	for _, step := range s.Steps {
		if step.PoolArgs == nil {
			continue
		}
		if prev, ok := seen[step.PoolArgs.Name]; ok {
			if prev != step.PoolArgs {
				return NewDuplicateConnectionPoolError(s.Name, step.PoolArgs.Name)
			}
			continue
		}
		seen[step.PoolArgs.Name] = step.PoolArgs
	}

	if len(s.Steps) > 0 {
		if len(s.LoadSimulations) == 0 {
			return NewEmptyLoadSimulationsError(s.Name)
		}
		for _, sim := range s.LoadSimulations {
			if sim.During <= 0 {
				return NewInvalidDurationError(s.Name)
			}
		}
	}
	return nil
}
