package core

import "fmt"

// ToolInvocationError describes a failed tool call: bad arguments, an
// external-system failure or a timeout. It is recovered inside the loop by
// conversion to a Failure outcome, never surfaced as a run-fatal error.
type ToolInvocationError struct {
	Tool   string
	Reason string
}

// Error implements the error interface.
func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %q invocation failed: %s", e.Tool, e.Reason)
}

// PlanningError indicates that the model call behind a planning step failed
// or returned an unparseable decision. The engine treats it as an empty plan,
// forcing the implicit-terminal path instead of crashing the run.
type PlanningError struct {
	Err error
}

// Error implements the error interface.
func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *PlanningError) Unwrap() error { return e.Err }

// ResourceLimitExceeded signals that the recursion cap was reached. The
// engine terminates the run gracefully with a partial response; the type is
// carried on the aborted event for consumers that want to distinguish it.
type ResourceLimitExceeded struct {
	Limit int
}

// Error implements the error interface.
func (e *ResourceLimitExceeded) Error() string {
	return fmt.Sprintf("recursion limit of %d iterations exceeded", e.Limit)
}

// ConfigurationError reports a missing or invalid setting. It is surfaced
// before a run starts, never mid-loop.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %q: %s", e.Field, e.Message)
}
