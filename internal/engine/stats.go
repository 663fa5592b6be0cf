package engine

import (
	"sync"
	"time"
)

// StepOutcome is what StepPipeline reports to the aggregator after each
// tracked step invocation.
type StepOutcome struct {
	StepName  string
	OK        bool
	LatencyMS float64
	SizeBytes int64
}

// StepStats is the per (scenario, step) snapshot the spec defines in §3.
type StepStats struct {
	ScenarioName string
	StepName     string
	OKCount      int64
	FailCount    int64
	MinMS        float64
	MeanMS       float64
	MaxMS        float64
	RPS          float64
	DataKBMin    float64
	DataKBMean   float64
	DataKBMax    float64
	AllDataMB    float64
}

// stepCounters holds the mutable running totals for one step, guarded by
// its own mutex so steps don't contend with each other under concurrent
// virtual users — the "sharded counters" spec.md §5 calls for.
type stepCounters struct {
	mu        sync.Mutex
	okCount   int64
	failCount int64
	minMS     float64
	maxMS     float64
	sumMS     float64
	minKB     float64
	maxKB     float64
	sumKB     float64
	sumBytes  int64
}

func newStepCounters() *stepCounters {
	return &stepCounters{minMS: -1, minKB: -1}
}

func (c *stepCounters) record(ok bool, latencyMS float64, sizeBytes int64) {
	kb := float64(sizeBytes) / 1024

	c.mu.Lock()
	defer c.mu.Unlock()

	if ok {
		c.okCount++
	} else {
		c.failCount++
	}
	c.sumMS += latencyMS
	c.sumKB += kb
	c.sumBytes += sizeBytes

	if c.minMS < 0 || latencyMS < c.minMS {
		c.minMS = latencyMS
	}
	if latencyMS > c.maxMS {
		c.maxMS = latencyMS
	}
	if c.minKB < 0 || kb < c.minKB {
		c.minKB = kb
	}
	if kb > c.maxKB {
		c.maxKB = kb
	}
}

func (c *stepCounters) snapshot(scenario, step string, elapsed time.Duration) StepStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.okCount + c.failCount
	stats := StepStats{
		ScenarioName: scenario,
		StepName:     step,
		OKCount:      c.okCount,
		FailCount:    c.failCount,
		AllDataMB:    float64(c.sumBytes) / (1024 * 1024),
	}
	if c.minMS >= 0 {
		stats.MinMS = c.minMS
		stats.DataKBMin = c.minKB
	}
	stats.MaxMS = c.maxMS
	stats.DataKBMax = c.maxKB
	if total > 0 {
		stats.MeanMS = c.sumMS / float64(total)
		stats.DataKBMean = c.sumKB / float64(total)
	}

	secs := elapsed.Seconds()
	if secs < 1 {
		secs = 1
	}
	stats.RPS = float64(c.okCount) / secs
	return stats
}

// StatsAggregator is the concurrent per-step counter set for one scenario.
type StatsAggregator struct {
	scenarioName string

	mu       sync.Mutex
	order    []string
	counters map[string]*stepCounters
}

// NewStatsAggregator creates an empty aggregator for one scenario.
func NewStatsAggregator(scenarioName string) *StatsAggregator {
	return &StatsAggregator{scenarioName: scenarioName, counters: make(map[string]*stepCounters)}
}

func (a *StatsAggregator) counterFor(step string) *stepCounters {
	a.mu.Lock()
	c, ok := a.counters[step]
	if !ok {
		c = newStepCounters()
		a.counters[step] = c
		a.order = append(a.order, step)
	}
	a.mu.Unlock()
	return c
}

// Record folds one StepOutcome into the step's counters.
func (a *StatsAggregator) Record(outcome StepOutcome) {
	a.counterFor(outcome.StepName).record(outcome.OK, outcome.LatencyMS, outcome.SizeBytes)
}

// Reset clears every counter. Called exactly at the warm-up -> main
// boundary.
func (a *StatsAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.order = nil
	a.counters = make(map[string]*stepCounters)
}

// Snapshot returns a StepStats per step, in first-seen order, with RPS
// computed against elapsed.
func (a *StatsAggregator) Snapshot(elapsed time.Duration) []StepStats {
	a.mu.Lock()
	order := append([]string(nil), a.order...)
	counters := make(map[string]*stepCounters, len(a.counters))
	for k, v := range a.counters {
		counters[k] = v
	}
	a.mu.Unlock()

	out := make([]StepStats, 0, len(order))
	for _, step := range order {
		out = append(out, counters[step].snapshot(a.scenarioName, step, elapsed))
	}
	return out
}

// ValidateWarmUp folds across the current per-step stats and fails on the
// first step whose failures exceed its successes.
func (a *StatsAggregator) ValidateWarmUp() error {
	for _, s := range a.Snapshot(time.Second) {
		if s.FailCount > s.OKCount {
			return NewWarmUpManyFailedStepsError(int(s.OKCount), int(s.FailCount))
		}
	}
	return nil
}
