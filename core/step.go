package core

import "time"

// Step is one planned unit of work: the tool to invoke, the natural-language
// intent behind the invocation and, when the planner supplies them,
// structured arguments for the tool.
type Step struct {
	Tool   string         `json:"tool"`
	Intent string         `json:"intent"`
	Args   map[string]any `json:"args,omitempty"`
}

// OutcomeStatus tags an Outcome as success or failure.
type OutcomeStatus string

const (
	// OutcomeSuccess marks an outcome carrying a result payload.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFailure marks an outcome carrying a failure reason.
	OutcomeFailure OutcomeStatus = "failure"
)

// Outcome is the tagged result of executing a step. A failure does not by
// itself terminate the run; it is recorded in the past-step log and fed back
// to the planner, which may pick a different tool or give up gracefully.
type Outcome struct {
	Status  OutcomeStatus `json:"status"`
	Payload any           `json:"payload,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// Success creates a success outcome wrapping the given payload.
func Success(payload any) Outcome {
	return Outcome{Status: OutcomeSuccess, Payload: payload}
}

// Failure creates a failure outcome carrying the given reason.
func Failure(reason string) Outcome {
	return Outcome{Status: OutcomeFailure, Reason: reason}
}

// IsFailure reports whether the outcome is a failure.
func (o Outcome) IsFailure() bool { return o.Status == OutcomeFailure }

// StepRecord is one entry of the append-only audit trail: the step that ran
// and what came of it. Records are never mutated after append.
type StepRecord struct {
	Step      Step      `json:"step"`
	Outcome   Outcome   `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}
