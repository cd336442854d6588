package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/model"
)

func TestModelRouter_RoutesToSource(t *testing.T) {
	m := model.NewScriptedModel(model.ScriptedReply{
		Text: `{"toolset": "source", "confidence": 0.92, "reasoning": "asks about recent commits"}`,
	})
	r := NewModelRouter(m)

	decision, err := r.Route(context.Background(), "what changed in the repo last week?")
	require.NoError(t, err)
	assert.Equal(t, ToolsetSource, decision.Toolset)
	assert.InDelta(t, 0.92, decision.Confidence, 0.001)
	assert.NotEmpty(t, decision.Reasoning)
}

func TestModelRouter_UnparseableFallsBackToTickets(t *testing.T) {
	m := model.NewScriptedModel(model.ScriptedReply{Text: "no idea"})
	r := NewModelRouter(m)

	decision, err := r.Route(context.Background(), "summarize the open incidents")
	require.NoError(t, err)
	assert.Equal(t, ToolsetTickets, decision.Toolset)
	assert.Zero(t, decision.Confidence)
}

func TestParseRoute_Validation(t *testing.T) {
	_, err := parseRoute(`{"toolset": "kitchen", "confidence": 0.5}`)
	assert.Error(t, err)

	_, err = parseRoute(`{"toolset": "tickets", "confidence": 1.5}`)
	assert.Error(t, err)
}
