package core

import (
	"maps"
	"sync"
	"time"
)

// State is the unit of execution for one request: the original input, the
// pending plan, the append-only past-step log, the shared-data namespace and
// the optional terminal response. It is safe for concurrent access, though
// the engine's single-writer discipline means only one goroutine mutates it.
//
// Contract:
//   - Input is immutable after creation
//   - Plan is fully replaced on replan, and its head is consumed by Record
//   - PastSteps is append-only; records are never mutated after append
//   - SharedData keys are unique; later writes to a key overwrite
//     (last-writer-wins)
//   - Response is set at most once; once set, no further steps execute
type State struct {
	mu         sync.RWMutex
	input      string
	plan       []Step
	pastSteps  []StepRecord
	sharedData map[string]any
	response   *string
	iterations int
}

// Snapshot is an immutable copy of a State, handed to planners and response
// synthesis so they never observe a half-written state.
type Snapshot struct {
	Input      string
	Plan       []Step
	PastSteps  []StepRecord
	SharedData map[string]any
	Response   *string
	Iterations int
}

// NewState creates a fresh session state for the given user input.
func NewState(input string) *State {
	return &State{input: input, sharedData: map[string]any{}}
}

// Input returns the original user request text.
func (s *State) Input() string { return s.input }

// Plan returns a copy of the pending plan.
func (s *State) Plan() []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan := make([]Step, len(s.plan))
	copy(plan, s.plan)
	return plan
}

// SetPlan replaces the pending plan. Called by the engine on every replan.
func (s *State) SetPlan(steps []Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = make([]Step, len(steps))
	copy(s.plan, steps)
}

// NextStep returns the head of the pending plan, if any.
func (s *State) NextStep() (Step, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.plan) == 0 {
		return Step{}, false
	}
	return s.plan[0], true
}

// Record commits the outcome of one executed step: it appends to the
// past-step log, merges the shared delta (last-writer-wins), removes the
// consumed step from the head of the plan and increments the iteration
// counter. The four mutations are atomic with respect to readers.
func (s *State) Record(step Step, outcome Outcome, shared map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pastSteps = append(s.pastSteps, StepRecord{Step: step, Outcome: outcome, Timestamp: time.Now().UTC()})
	maps.Copy(s.sharedData, shared)
	if len(s.plan) > 0 {
		s.plan = s.plan[1:]
	}
	s.iterations++
}

// PastSteps returns a copy of the past-step log.
func (s *State) PastSteps() []StepRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]StepRecord, len(s.pastSteps))
	copy(records, s.pastSteps)
	return records
}

// SharedValue returns the payload stored under a shared-data key.
func (s *State) SharedValue(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sharedData[key]
	return v, ok
}

// SharedData returns a shallow copy of the shared-data namespace.
func (s *State) SharedData() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := make(map[string]any, len(s.sharedData))
	maps.Copy(data, s.sharedData)
	return data
}

// Iterations returns the number of completed planner/executor cycles.
func (s *State) Iterations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iterations
}

// SetResponse sets the terminal response. It reports whether the response
// was set by this call; a response can be set at most once.
func (s *State) SetResponse(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.response != nil {
		return false
	}
	s.response = &text
	return true
}

// Response returns the terminal response and whether one has been set.
func (s *State) Response() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.response == nil {
		return "", false
	}
	return *s.response, true
}

// Snapshot returns a consistent copy of the whole state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Input:      s.input,
		Plan:       make([]Step, len(s.plan)),
		PastSteps:  make([]StepRecord, len(s.pastSteps)),
		SharedData: make(map[string]any, len(s.sharedData)),
		Iterations: s.iterations,
	}
	copy(snap.Plan, s.plan)
	copy(snap.PastSteps, s.pastSteps)
	maps.Copy(snap.SharedData, s.sharedData)
	if s.response != nil {
		r := *s.response
		snap.Response = &r
	}
	return snap
}
