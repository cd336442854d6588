package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies the type of a run event.
type EventKind string

const (
	// EventRunStarted opens the stream for a run.
	EventRunStarted EventKind = "run-started"
	// EventPlanUpdated carries the full replacement plan after a replan.
	EventPlanUpdated EventKind = "plan-updated"
	// EventStepStarted announces that the executor picked up a step.
	EventStepStarted EventKind = "step-started"
	// EventStepCompleted carries the outcome of an executed step.
	EventStepCompleted EventKind = "step-completed"
	// EventTextDelta carries a partial model output fragment.
	EventTextDelta EventKind = "text-delta"
	// EventResponseReady carries the terminal answer. Terminal.
	EventResponseReady EventKind = "response-ready"
	// EventAborted carries the abort reason and best-effort partial response. Terminal.
	EventAborted EventKind = "aborted"
)

// Event is one entry of the ordered, finite stream a run produces. Exactly
// one terminal event (response-ready or aborted) closes every stream. After
// emission an event should be treated as immutable.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Kind-specific fields; unset fields are omitted from serialization.
	Step    *Step    `json:"step,omitempty"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Plan    []Step   `json:"plan,omitempty"`
	Text    string   `json:"text,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// NewID generates a unique identifier for runs, events and shared-data keys.
func NewID() string { return uuid.NewString() }

func newEvent(runID string, kind EventKind) Event {
	return Event{ID: NewID(), RunID: runID, Kind: kind, Timestamp: time.Now().UTC()}
}

// NewRunStartedEvent creates the stream-opening event for a run.
func NewRunStartedEvent(runID, input string) Event {
	e := newEvent(runID, EventRunStarted)
	e.Text = input
	return e
}

// NewPlanUpdatedEvent creates an event carrying the replacement plan.
func NewPlanUpdatedEvent(runID string, plan []Step) Event {
	e := newEvent(runID, EventPlanUpdated)
	e.Plan = make([]Step, len(plan))
	copy(e.Plan, plan)
	return e
}

// NewStepStartedEvent creates an event announcing step pickup.
func NewStepStartedEvent(runID string, step Step) Event {
	e := newEvent(runID, EventStepStarted)
	e.Step = &step
	return e
}

// NewStepCompletedEvent creates an event carrying a step outcome.
func NewStepCompletedEvent(runID string, step Step, outcome Outcome) Event {
	e := newEvent(runID, EventStepCompleted)
	e.Step = &step
	e.Outcome = &outcome
	return e
}

// NewTextDeltaEvent creates an event carrying a partial model output fragment.
func NewTextDeltaEvent(runID, text string) Event {
	e := newEvent(runID, EventTextDelta)
	e.Text = text
	return e
}

// NewResponseReadyEvent creates the terminal event carrying the final answer.
func NewResponseReadyEvent(runID, response string) Event {
	e := newEvent(runID, EventResponseReady)
	e.Text = response
	return e
}

// NewAbortedEvent creates the terminal event for an aborted run. The partial
// response, when available, rides in Text next to the abort reason.
func NewAbortedEvent(runID, reason, partial string) Event {
	e := newEvent(runID, EventAborted)
	e.Reason = reason
	e.Text = partial
	return e
}

// IsTerminal reports whether the event closes the stream.
func (e Event) IsTerminal() bool {
	return e.Kind == EventResponseReady || e.Kind == EventAborted
}
