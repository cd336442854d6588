package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/tool"
)

func emptyParams() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func newRegistry(tools ...tool.Tool) *tool.Registry {
	reg := tool.NewRegistry()
	reg.RegisterAll(tools...)
	return reg
}

func TestExecute_SuccessRecordsStepAndShared(t *testing.T) {
	searchTool := tool.NewFunctionTool("ticket_search", "Search tickets", map[string]any{
		"type":       "object",
		"properties": map[string]any{"jql": map[string]any{"type": "string"}},
		"required":   []string{"jql"},
	}, func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		return &tool.Result{
			Content: "Found 2 tickets, stored under jira.ENG-1 and jira.ENG-2",
			Shared: map[string]any{
				"jira.ENG-1": map[string]any{"summary": "first"},
				"jira.ENG-2": map[string]any{"summary": "second"},
			},
		}, nil
	})

	state := core.NewState("find tickets")
	step := core.Step{Tool: "ticket_search", Intent: "find tickets", Args: map[string]any{"jql": "project = ENG"}}
	state.SetPlan([]core.Step{step})

	exec := New(newRegistry(searchTool))
	outcome := exec.Execute(context.Background(), state, step)

	assert.False(t, outcome.IsFailure())
	assert.Equal(t, 1, state.Iterations())
	require.Len(t, state.PastSteps(), 1)
	assert.Len(t, state.SharedData(), 2)
	assert.Empty(t, state.Plan())
}

func TestExecute_UnknownToolFails(t *testing.T) {
	state := core.NewState("x")
	step := core.Step{Tool: "missing", Args: map[string]any{}}

	outcome := New(newRegistry()).Execute(context.Background(), state, step)

	assert.True(t, outcome.IsFailure())
	assert.Contains(t, outcome.Reason, "not registered")
	require.Len(t, state.PastSteps(), 1)
	assert.Equal(t, 1, state.Iterations())
}

func TestExecute_InvalidArgumentsFail(t *testing.T) {
	strict := tool.NewFunctionTool("strict", "", map[string]any{
		"type":       "object",
		"properties": map[string]any{"n": map[string]any{"type": "integer"}},
		"required":   []string{"n"},
	}, func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		return &tool.Result{}, nil
	})

	state := core.NewState("x")
	step := core.Step{Tool: "strict", Args: map[string]any{"n": "not a number"}}

	outcome := New(newRegistry(strict)).Execute(context.Background(), state, step)

	assert.True(t, outcome.IsFailure())
	assert.Contains(t, outcome.Reason, "invalid arguments")
}

func TestExecute_SharedRefExpansion(t *testing.T) {
	var seen any
	echo := tool.NewFunctionTool("echo", "", map[string]any{
		"type":       "object",
		"properties": map[string]any{"content": map[string]any{}},
	}, func(_ context.Context, args map[string]any) (*tool.Result, error) {
		seen = args["content"]
		return &tool.Result{Content: "ok"}, nil
	})

	state := core.NewState("x")
	state.Record(core.Step{Tool: "seed"}, core.Success("seeded"), map[string]any{
		"jira.ENG-1": map[string]any{"summary": "first"},
	})

	step := core.Step{Tool: "echo", Args: map[string]any{"content": "shared:jira.ENG-1"}}
	outcome := New(newRegistry(echo)).Execute(context.Background(), state, step)

	assert.False(t, outcome.IsFailure())
	assert.Equal(t, map[string]any{"summary": "first"}, seen)
}

func TestExecute_SharedRefExpansionInLists(t *testing.T) {
	var seen any
	echo := tool.NewFunctionTool("echo", "", map[string]any{
		"type":       "object",
		"properties": map[string]any{"content": map[string]any{}},
	}, func(_ context.Context, args map[string]any) (*tool.Result, error) {
		seen = args["content"]
		return &tool.Result{Content: "ok"}, nil
	})

	state := core.NewState("x")
	state.Record(core.Step{Tool: "seed"}, core.Success("seeded"), map[string]any{
		"jira.ENG-1": map[string]any{"summary": "first"},
		"jira.ENG-2": map[string]any{"summary": "second"},
	})

	step := core.Step{Tool: "echo", Args: map[string]any{
		"content": []any{"shared:jira.ENG-1", "shared:jira.ENG-2"},
	}}
	outcome := New(newRegistry(echo)).Execute(context.Background(), state, step)

	assert.False(t, outcome.IsFailure())
	assert.Equal(t, []any{
		map[string]any{"summary": "first"},
		map[string]any{"summary": "second"},
	}, seen)
}

func TestExecute_UnknownSharedRefFails(t *testing.T) {
	echo := tool.NewFunctionTool("echo", "", emptyParams(), func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		return &tool.Result{}, nil
	})

	state := core.NewState("x")
	step := core.Step{Tool: "echo", Args: map[string]any{"content": "shared:absent"}}

	outcome := New(newRegistry(echo)).Execute(context.Background(), state, step)

	assert.True(t, outcome.IsFailure())
	assert.Contains(t, outcome.Reason, "unknown shared-data key")
}

func TestExecute_ToolErrorBecomesFailure(t *testing.T) {
	failing := tool.NewFunctionTool("failing", "", emptyParams(), func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		return nil, tool.NewToolError("failing", "connection refused", tool.CodeExecution)
	})

	state := core.NewState("x")
	step := core.Step{Tool: "failing", Args: map[string]any{}}

	outcome := New(newRegistry(failing)).Execute(context.Background(), state, step)

	assert.True(t, outcome.IsFailure())
	assert.Contains(t, outcome.Reason, "connection refused")
	require.Len(t, state.PastSteps(), 1)
	assert.True(t, state.PastSteps()[0].Outcome.IsFailure())
}

func TestExecute_PanicBecomesFailure(t *testing.T) {
	panicking := tool.NewFunctionTool("panicking", "", emptyParams(), func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		panic("boom")
	})

	state := core.NewState("x")
	step := core.Step{Tool: "panicking", Args: map[string]any{}}

	outcome := New(newRegistry(panicking)).Execute(context.Background(), state, step)

	assert.True(t, outcome.IsFailure())
	assert.Contains(t, outcome.Reason, "panic")
	assert.Equal(t, 1, state.Iterations())
}

func TestExecute_TimeoutBecomesFailure(t *testing.T) {
	slow := tool.NewFunctionTool("slow", "", emptyParams(), func(ctx context.Context, _ map[string]any) (*tool.Result, error) {
		select {
		case <-time.After(5 * time.Second):
			return &tool.Result{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	state := core.NewState("x")
	step := core.Step{Tool: "slow", Args: map[string]any{}}

	exec := New(newRegistry(slow), func(o *Options) { o.CallTimeout = 20 * time.Millisecond })
	outcome := exec.Execute(context.Background(), state, step)

	assert.True(t, outcome.IsFailure())
	assert.Contains(t, outcome.Reason, "timed out")
}
