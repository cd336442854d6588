package core

// Decision is the planner's answer for one planning step: either a terminal
// response to the user or an ordered plan of remaining steps. The fields are
// unexported so the two variants cannot be combined; callers rely on this
// shape for control flow even though the content of any particular decision
// is model-dependent.
type Decision struct {
	response *string
	steps    []Step
}

// Respond creates a terminal decision carrying the final answer.
func Respond(text string) Decision {
	return Decision{response: &text}
}

// ContinuePlan creates a decision carrying the ordered remaining plan. An
// empty plan is valid and is interpreted by the engine as an implicit
// terminal state requiring a best-effort response.
func ContinuePlan(steps ...Step) Decision {
	return Decision{steps: steps}
}

// IsRespond reports whether the decision is terminal.
func (d Decision) IsRespond() bool { return d.response != nil }

// Response returns the terminal answer. Only meaningful when IsRespond is true.
func (d Decision) Response() string {
	if d.response == nil {
		return ""
	}
	return *d.response
}

// Steps returns a copy of the planned steps.
func (d Decision) Steps() []Step {
	steps := make([]Step, len(d.steps))
	copy(steps, d.steps)
	return steps
}
