package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/planner"
	"github.com/hupe1980/planmesh/session"
	"github.com/hupe1980/planmesh/tool"
)

// stubPlanner drives the loop with a scripted decision sequence.
type stubPlanner struct {
	decisions []core.Decision
	errs      []error
	calls     int
}

func (p *stubPlanner) Plan(_ context.Context, _ core.Snapshot, _ []core.Message) (core.Decision, error) {
	idx := p.calls
	p.calls++
	if idx < len(p.errs) && p.errs[idx] != nil {
		return core.Decision{}, p.errs[idx]
	}
	if idx >= len(p.decisions) {
		idx = len(p.decisions) - 1
	}
	if idx < 0 {
		return core.ContinuePlan(), nil
	}
	return p.decisions[idx], nil
}

func emptyParams() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func ticketSearchTool(t *testing.T) tool.Tool {
	t.Helper()
	return tool.NewFunctionTool("ticket_search", "Search tickets", map[string]any{
		"type":       "object",
		"properties": map[string]any{"jql": map[string]any{"type": "string"}},
		"required":   []string{"jql"},
	}, func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		return &tool.Result{
			Content: "Found 2 tickets, stored under jira.ENG-1 and jira.ENG-2",
			Shared: map[string]any{
				"jira.ENG-1": map[string]any{"summary": "login broken"},
				"jira.ENG-2": map[string]any{"summary": "search slow"},
			},
		}, nil
	})
}

func kindsOf(events []core.Event) []core.EventKind {
	kinds := make([]core.EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func TestRun_TicketSearchScenario(t *testing.T) {
	searchStep := core.Step{
		Tool:   "ticket_search",
		Intent: "find open tickets",
		Args:   map[string]any{"jql": "status = Open"},
	}
	p := &stubPlanner{decisions: []core.Decision{
		core.ContinuePlan(searchStep),
		core.Respond("Found 2 open tickets: ENG-1 (login broken) and ENG-2 (search slow)."),
	}}
	registry := tool.NewRegistry()
	registry.Register(ticketSearchTool(t))

	eng, err := New(p, registry)
	require.NoError(t, err)

	_, events, runErr := eng.RunSync(context.Background(), "s1", "find open tickets")
	require.NoError(t, runErr)

	assert.Equal(t, []core.EventKind{
		core.EventRunStarted,
		core.EventPlanUpdated,
		core.EventStepStarted,
		core.EventStepCompleted,
		core.EventTextDelta,
		core.EventResponseReady,
	}, kindsOf(events))

	var completed int
	for _, ev := range events {
		if ev.Kind == core.EventStepCompleted {
			completed++
			require.NotNil(t, ev.Outcome)
			assert.False(t, ev.Outcome.IsFailure())
		}
	}
	assert.Equal(t, 1, completed)

	final := events[len(events)-1]
	assert.True(t, final.IsTerminal())
	assert.Contains(t, final.Text, "ENG-1")
}

func TestRun_RecursionLimitAborts(t *testing.T) {
	step := core.Step{Tool: "noop", Intent: "spin", Args: map[string]any{}}
	p := &stubPlanner{decisions: []core.Decision{core.ContinuePlan(step)}}
	registry := tool.NewRegistry()
	registry.Register(tool.NewFunctionTool("noop", "", emptyParams(),
		func(_ context.Context, _ map[string]any) (*tool.Result, error) {
			return &tool.Result{Content: "ok"}, nil
		}))

	cfg := DefaultConfig
	cfg.RecursionLimit = 1
	eng, err := New(p, registry, WithConfig(cfg))
	require.NoError(t, err)

	_, events, runErr := eng.RunSync(context.Background(), "s1", "never finishes")
	require.NoError(t, runErr)

	require.NotEmpty(t, events)
	final := events[len(events)-1]
	assert.Equal(t, core.EventAborted, final.Kind)
	assert.Contains(t, final.Reason, "recursion limit")
	assert.NotEmpty(t, final.Text)

	// Exactly one step executed before the guard fired.
	var completed int
	for _, ev := range events {
		if ev.Kind == core.EventStepCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestRun_FailingToolVisibleToPlanner(t *testing.T) {
	var replanSnap core.Snapshot
	step := core.Step{Tool: "flaky", Intent: "query flaky system", Args: map[string]any{}}

	p := &recordingPlanner{
		inner: &stubPlanner{decisions: []core.Decision{
			core.ContinuePlan(step),
			core.Respond("The external system is unreachable."),
		}},
		onSecondCall: func(snap core.Snapshot) { replanSnap = snap },
	}

	registry := tool.NewRegistry()
	registry.Register(tool.NewFunctionTool("flaky", "", emptyParams(),
		func(_ context.Context, _ map[string]any) (*tool.Result, error) {
			return nil, errors.New("connection refused")
		}))

	eng, err := New(p, registry)
	require.NoError(t, err)

	_, events, runErr := eng.RunSync(context.Background(), "s1", "query the flaky system")
	require.NoError(t, runErr)

	final := events[len(events)-1]
	assert.Equal(t, core.EventResponseReady, final.Kind)

	require.Len(t, replanSnap.PastSteps, 1)
	assert.True(t, replanSnap.PastSteps[0].Outcome.IsFailure())
	assert.Contains(t, replanSnap.PastSteps[0].Outcome.Reason, "connection refused")
}

type recordingPlanner struct {
	inner        *stubPlanner
	onSecondCall func(core.Snapshot)
}

func (p *recordingPlanner) Plan(ctx context.Context, snap core.Snapshot, history []core.Message) (core.Decision, error) {
	if p.inner.calls == 1 && p.onSecondCall != nil {
		p.onSecondCall(snap)
	}
	return p.inner.Plan(ctx, snap, history)
}

func TestRun_PlannerErrorDegradesToBestEffort(t *testing.T) {
	p := &stubPlanner{errs: []error{&core.PlanningError{Err: errors.New("model down")}}}
	eng, err := New(p, tool.NewRegistry())
	require.NoError(t, err)

	_, events, runErr := eng.RunSync(context.Background(), "s1", "anything")
	require.NoError(t, runErr)

	final := events[len(events)-1]
	assert.Equal(t, core.EventResponseReady, final.Kind)
	assert.Contains(t, final.Text, "No steps were completed")
}

func TestRun_EmptyPlanIsImplicitTerminal(t *testing.T) {
	p := &stubPlanner{decisions: []core.Decision{core.ContinuePlan()}}
	eng, err := New(p, tool.NewRegistry())
	require.NoError(t, err)

	_, events, runErr := eng.RunSync(context.Background(), "s1", "anything")
	require.NoError(t, runErr)

	final := events[len(events)-1]
	assert.Equal(t, core.EventResponseReady, final.Kind)
}

func TestRun_CancellationStopsStream(t *testing.T) {
	p := &stubPlanner{decisions: []core.Decision{
		core.ContinuePlan(core.Step{Tool: "slow", Args: map[string]any{}}),
	}}
	registry := tool.NewRegistry()
	registry.Register(tool.NewFunctionTool("slow", "", emptyParams(),
		func(ctx context.Context, _ map[string]any) (*tool.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}))

	eng, err := New(p, registry)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, runErr := eng.RunSync(ctx, "s1", "anything")
	assert.ErrorIs(t, runErr, context.DeadlineExceeded)
}

func TestRun_SessionHistoryAccumulates(t *testing.T) {
	store := session.NewInMemoryStore()
	p := &stubPlanner{decisions: []core.Decision{core.Respond("Hi there.")}}
	eng, err := New(p, tool.NewRegistry(), WithSessionStore(store))
	require.NoError(t, err)

	_, _, runErr := eng.RunSync(context.Background(), "s1", "hello")
	require.NoError(t, runErr)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, core.RoleAssistant, history[1].Role)
}

func TestRun_IterationEqualsPastStepsViaCallbacks(t *testing.T) {
	step := core.Step{Tool: "noop", Intent: "spin", Args: map[string]any{}}
	p := &stubPlanner{decisions: []core.Decision{
		core.ContinuePlan(step),
		core.ContinuePlan(step),
		core.Respond("done"),
	}}
	registry := tool.NewRegistry()
	registry.Register(tool.NewFunctionTool("noop", "", emptyParams(),
		func(_ context.Context, _ map[string]any) (*tool.Result, error) {
			return &tool.Result{Content: "ok"}, nil
		}))

	cm := NewCallbackManager()
	cm.RegisterCallback(NewFunctionCallback(CallbackAfterTool,
		func(_ context.Context, cc *CallbackContext) error {
			assert.Equal(t, len(cc.Snapshot.PastSteps), cc.Snapshot.Iterations)
			return nil
		}))

	eng, err := New(p, registry, WithCallbacks(cm))
	require.NoError(t, err)

	_, _, runErr := eng.RunSync(context.Background(), "s1", "spin twice")
	require.NoError(t, runErr)
}

func TestNew_InvalidConfig(t *testing.T) {
	p := &stubPlanner{}
	cfg := DefaultConfig
	cfg.RecursionLimit = 0

	_, err := New(p, tool.NewRegistry(), WithConfig(cfg))
	require.Error(t, err)
	var cfgErr *core.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "RecursionLimit", cfgErr.Field)
}

func TestRun_WithModelPlannerEndToEnd(t *testing.T) {
	m := model.NewScriptedModel(
		model.ScriptedReply{Text: `{"action": {"type": "plan", "steps": [{"tool": "ticket_search", "intent": "find open tickets", "args": {"jql": "status = Open"}}]}}`},
		model.ScriptedReply{Text: `{"action": {"type": "respond", "response": "Two open tickets were found."}}`},
	)
	registry := tool.NewRegistry()
	registry.Register(ticketSearchTool(t))

	tools := make([]model.ToolDefinition, 0, registry.Len())
	for _, tl := range registry.Tools() {
		tools = append(tools, model.ToolDefinition{
			Name: tl.Name(), Description: tl.Description(), Parameters: tl.Parameters(),
		})
	}

	eng, err := New(planner.NewModelPlanner(m, tools), registry)
	require.NoError(t, err)

	_, events, runErr := eng.RunSync(context.Background(), "s1", "find open tickets")
	require.NoError(t, runErr)

	final := events[len(events)-1]
	assert.Equal(t, core.EventResponseReady, final.Kind)
	assert.Equal(t, "Two open tickets were found.", final.Text)
	assert.Equal(t, 2, m.Calls())
}

func TestSynthesizeResponse_TruncatesOnRuneBoundary(t *testing.T) {
	// A one-byte prefix shifts the rune grid so the cut point falls inside
	// a three-byte rune; the synthesized detail must stay valid UTF-8.
	snap := core.Snapshot{
		PastSteps: []core.StepRecord{{
			Step:    core.Step{Tool: "ticket_search", Intent: "gather tickets"},
			Outcome: core.Success("a" + strings.Repeat("界", 200)),
		}},
	}

	resp := synthesizeResponse(snap, false)

	assert.True(t, utf8.ValidString(resp))
	assert.Contains(t, resp, "gather tickets")
	assert.Contains(t, resp, "...")
}
