package engine

import "fmt"

// ErrorKind tags the taxonomy of errors the engine can produce, so callers
// can branch on AppError.Kind without string-matching messages.
type ErrorKind string

const (
	// Domain validation — caught at session start, abort before any run.
	KindEmptyScenarioName       ErrorKind = "empty_scenario_name"
	KindDuplicateScenarioName   ErrorKind = "duplicate_scenario_name"
	KindEmptySteps              ErrorKind = "empty_steps"
	KindEmptyStepName           ErrorKind = "empty_step_name"
	KindDuplicateConnectionPool ErrorKind = "duplicate_connection_pool_name"
	KindEmptyLoadSimulations    ErrorKind = "empty_load_simulations"
	KindInvalidDuration         ErrorKind = "invalid_duration"

	// Resource — caught at session init, abort run.
	KindPoolOpenFailed ErrorKind = "pool_open_failed"
	KindInitFailed     ErrorKind = "init_failed"

	// Runtime — observed during run, surfaced in results.
	KindWarmUpManyFailedSteps ErrorKind = "warm_up_error_with_many_failed_steps"
	KindStopTestRequested     ErrorKind = "stop_test_requested"

	// External.
	KindConfigParseFailed      ErrorKind = "config_parse_failed"
	KindUnsupportedConfigFormat ErrorKind = "unsupported_config_format"
)

// AppError is the single error envelope every tagged kind is returned as.
// Fields beyond Kind/Message are populated selectively depending on kind.
type AppError struct {
	Kind     ErrorKind
	Message  string
	Scenario string
	Pool     string
	Names    []string // DuplicateScenarioName: the full duplicate list
	Index    int      // PoolOpenFailed: connection index
	OK       int      // WarmUpManyFailedSteps
	Fail     int      // WarmUpManyFailedSteps
	Path     string   // ConfigParseFailed
	Ext      string   // UnsupportedConfigFormat
	Cause    error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// IsValidation reports whether the error was raised by the validation pass
// (no side effects have occurred yet when this is returned).
func (e *AppError) IsValidation() bool {
	switch e.Kind {
	case KindEmptyScenarioName, KindDuplicateScenarioName, KindEmptySteps,
		KindEmptyStepName, KindDuplicateConnectionPool, KindEmptyLoadSimulations,
		KindInvalidDuration:
		return true
	}
	return false
}

// IsResource reports whether the error happened while acquiring resources
// (pools, init hooks) and already-opened resources were rolled back.
func (e *AppError) IsResource() bool {
	return e.Kind == KindPoolOpenFailed || e.Kind == KindInitFailed
}

func NewEmptyScenarioNameError() *AppError {
	return &AppError{Kind: KindEmptyScenarioName, Message: "scenario name must not be empty"}
}

func NewDuplicateScenarioNameError(names []string) *AppError {
	return &AppError{
		Kind:    KindDuplicateScenarioName,
		Message: fmt.Sprintf("duplicate scenario names: %v", names),
		Names:   names,
	}
}

func NewEmptyStepsError(scenario string) *AppError {
	return &AppError{
		Kind:     KindEmptySteps,
		Message:  "scenario has no steps and no init/clean hook",
		Scenario: scenario,
	}
}

func NewEmptyStepNameError(scenario string) *AppError {
	return &AppError{
		Kind:     KindEmptyStepName,
		Message:  "step name must not be empty",
		Scenario: scenario,
	}
}

func NewDuplicateConnectionPoolError(scenario, pool string) *AppError {
	return &AppError{
		Kind:     KindDuplicateConnectionPool,
		Message:  "pool name reused with differing pool args in the same scenario",
		Scenario: scenario,
		Pool:     pool,
	}
}

func NewEmptyLoadSimulationsError(scenario string) *AppError {
	return &AppError{
		Kind:     KindEmptyLoadSimulations,
		Message:  "scenario has no load simulations",
		Scenario: scenario,
	}
}

func NewInvalidDurationError(scenario string) *AppError {
	return &AppError{
		Kind:     KindInvalidDuration,
		Message:  "load simulation duration must be greater than zero",
		Scenario: scenario,
	}
}

func NewPoolOpenFailedError(pool string, index int, cause error) *AppError {
	return &AppError{
		Kind:    KindPoolOpenFailed,
		Message: fmt.Sprintf("failed to open connection %d in pool %q", index, pool),
		Pool:    pool,
		Index:   index,
		Cause:   cause,
	}
}

func NewInitFailedError(scenario string, cause error) *AppError {
	return &AppError{
		Kind:     KindInitFailed,
		Message:  "scenario init failed",
		Scenario: scenario,
		Cause:    cause,
	}
}

func NewWarmUpManyFailedStepsError(ok, fail int) *AppError {
	return &AppError{
		Kind:    KindWarmUpManyFailedSteps,
		Message: fmt.Sprintf("warm-up saw more failures (%d) than successes (%d)", fail, ok),
		OK:      ok,
		Fail:    fail,
	}
}

// NewStopTestRequestedError wraps the user-supplied reason for a
// cooperative StopCurrentTest(); it is success-like. The stop request
// behind it cancels every scenario of the session, not only the one that
// made it.
func NewStopTestRequestedError(reason string) *AppError {
	return &AppError{Kind: KindStopTestRequested, Message: reason}
}

func NewConfigParseFailedError(path string, cause error) *AppError {
	return &AppError{Kind: KindConfigParseFailed, Message: "failed to parse config", Path: path, Cause: cause}
}

func NewUnsupportedConfigFormatError(ext string) *AppError {
	return &AppError{Kind: KindUnsupportedConfigFormat, Message: "unsupported config file extension", Ext: ext}
}
