package core

import "testing"

func TestState_RecordAppendsAndConsumesPlan(t *testing.T) {
	st := NewState("list open tickets")
	st.SetPlan([]Step{{Tool: "ticket_search", Intent: "find tickets"}, {Tool: "summarise_content", Intent: "summarise"}})

	step, ok := st.NextStep()
	if !ok {
		t.Fatal("expected a pending step")
	}

	st.Record(step, Success("done"), map[string]any{"jira.PROJ-1": map[string]any{"key": "PROJ-1"}})

	if got := st.Iterations(); got != 1 {
		t.Fatalf("expected 1 iteration, got %d", got)
	}
	if got := len(st.PastSteps()); got != 1 {
		t.Fatalf("expected 1 past step, got %d", got)
	}
	if got := len(st.Plan()); got != 1 {
		t.Fatalf("expected 1 remaining planned step, got %d", got)
	}
	if _, ok := st.SharedValue("jira.PROJ-1"); !ok {
		t.Error("shared delta not merged")
	}
}

func TestState_SharedDataLastWriterWins(t *testing.T) {
	st := NewState("q")
	st.Record(Step{Tool: "a"}, Success(nil), map[string]any{"k": 1})
	st.Record(Step{Tool: "b"}, Success(nil), map[string]any{"k": 2})

	v, ok := st.SharedValue("k")
	if !ok || v.(int) != 2 {
		t.Fatalf("expected later write to win, got %v", v)
	}
}

func TestState_ResponseSetOnce(t *testing.T) {
	st := NewState("q")
	if !st.SetResponse("first") {
		t.Fatal("first SetResponse should succeed")
	}
	if st.SetResponse("second") {
		t.Fatal("second SetResponse should be rejected")
	}
	resp, ok := st.Response()
	if !ok || resp != "first" {
		t.Fatalf("expected first response to stick, got %q", resp)
	}
}

func TestState_SnapshotIsIsolated(t *testing.T) {
	st := NewState("q")
	st.Record(Step{Tool: "a"}, Success(nil), map[string]any{"k": 1})

	snap := st.Snapshot()
	snap.SharedData["k"] = 99
	snap.PastSteps[0].Outcome = Failure("mutated")

	if v, _ := st.SharedValue("k"); v.(int) != 1 {
		t.Error("snapshot mutation leaked into shared data")
	}
	if st.PastSteps()[0].Outcome.IsFailure() {
		t.Error("snapshot mutation leaked into past steps")
	}
}

func TestDecision_ShapeInvariant(t *testing.T) {
	r := Respond("answer")
	if !r.IsRespond() || r.Response() != "answer" {
		t.Fatalf("respond decision malformed: %+v", r)
	}
	if len(r.Steps()) != 0 {
		t.Error("respond decision should carry no steps")
	}

	c := ContinuePlan(Step{Tool: "x"})
	if c.IsRespond() {
		t.Fatal("continue decision must not be terminal")
	}
	if len(c.Steps()) != 1 {
		t.Fatalf("expected 1 step, got %d", len(c.Steps()))
	}

	// The steps accessor hands out copies.
	c.Steps()[0].Tool = "mutated"
	if c.Steps()[0].Tool != "x" {
		t.Error("decision steps should be copied on read")
	}
}
