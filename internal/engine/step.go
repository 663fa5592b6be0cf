package engine

import (
	"context"
	"time"
)

// StepContext is handed to a step's Execute function. It carries the
// identity of the running virtual user, the resolved pool connection (if
// any), the next feed item (if any), the previous step's payload, and the
// cooperative-stop hook.
type StepContext struct {
	Correlation       CorrelationID
	Ctx               context.Context
	Connection        any
	FeedItem          any
	InvocationCount   int
	Logger            Logger

	previousResponse any
	hasPrevious      bool
	stopFn           func(reason string)
}

// GetPreviousStepResponse performs a typed read of the previous step's
// payload. A missing or wrong-typed value reports ok=false rather than
// panicking — that's a user-code-level Fail(), not an engine crash.
func GetPreviousStepResponse[T any](ctx *StepContext) (T, bool) {
	var zero T
	if !ctx.hasPrevious {
		return zero, false
	}
	v, ok := ctx.previousResponse.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// StopCurrentTest requests cooperative termination of the whole session.
// The step's own Response is still processed normally; termination happens
// at the next step boundary.
func (ctx *StepContext) StopCurrentTest(reason string) {
	if ctx.stopFn != nil {
		ctx.stopFn(reason)
	}
}

// ExecuteFunc is a step body: an opaque asynchronous user operation.
type ExecuteFunc func(ctx *StepContext) Response

// Step is one named operation within a scenario's pipeline.
type Step struct {
	Name       string
	PoolArgs   *ConnectionPoolArgs
	pool       *ConnectionPool
	Execute    ExecuteFunc
	Feed       *Feed
	DoNotTrack bool
}

// NewStep builds a Step with the given name and body.
func NewStep(name string, execute ExecuteFunc) *Step {
	return &Step{Name: name, Execute: execute}
}

// WithPool attaches declarative pool args; the runtime pool handle is
// resolved during session init.
func (s *Step) WithPool(args *ConnectionPoolArgs) *Step {
	s.PoolArgs = args
	return s
}

// WithFeed attaches a feed the step pulls one item from per invocation.
func (s *Step) WithFeed(f *Feed) *Step {
	s.Feed = f
	return s
}

// WithDoNotTrack suppresses stats recording for this step.
func (s *Step) WithDoNotTrack() *Step {
	s.DoNotTrack = true
	return s
}

// bindPool is called once per session during init, after pools are opened.
func (s *Step) bindPool(pool *ConnectionPool) {
	s.pool = pool
}

// NewPauseStep builds the built-in pause step: it sleeps for d and returns
// Response.Ok, with DoNotTrack always set so it never appears in stats.
func NewPauseStep(name string, d time.Duration) *Step {
	step := NewStep(name, func(ctx *StepContext) Response {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Ctx.Done():
		case <-timer.C:
		}
		return ResponseOk(nil)
	})
	step.DoNotTrack = true
	return step
}
