package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

type fakeTicket struct {
	Key     string
	Summary string
}

func (t fakeTicket) Document() string {
	return "Key: " + t.Key + "\nSummary: " + t.Summary + "\n"
}

func toolByName(t *testing.T, tk *Toolkit, name string) tool.Tool {
	t.Helper()
	for _, tl := range tk.Tools() {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %q not found", name)
	return nil
}

func TestDocuments(t *testing.T) {
	assert.Nil(t, Documents(nil))
	assert.Equal(t, []string{"plain text"}, Documents("plain text"))
	assert.Equal(t, []string{"Key: ENG-1\nSummary: login broken\n"},
		Documents(fakeTicket{Key: "ENG-1", Summary: "login broken"}))

	docs := Documents([]any{
		fakeTicket{Key: "ENG-1", Summary: "login broken"},
		map[string]any{"key": "ENG-2"},
	})
	require.Len(t, docs, 2)
	assert.Contains(t, docs[0], "ENG-1")
	assert.Contains(t, docs[1], `"key": "ENG-2"`)
}

func TestAnalyzeContent_SingleItemSkipsReduce(t *testing.T) {
	m := model.NewScriptedModel(
		model.ScriptedReply{Text: "Dimension: urgency\nScore: 8\nReasoning: login outage"},
	)
	tk := NewToolkit(m)

	result, err := toolByName(t, tk, "analyze_content").Call(context.Background(), map[string]any{
		"content":    fakeTicket{Key: "ENG-1", Summary: "login broken"},
		"dimensions": []any{"urgency"},
	})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "Score: 8")
	assert.Equal(t, 1, m.Calls())
}

func TestAnalyzeContent_MapReduceOverList(t *testing.T) {
	m := model.NewScriptedModel(
		model.ScriptedReply{Text: "analysis of ENG-1"},
		model.ScriptedReply{Text: "analysis of ENG-2"},
		model.ScriptedReply{Text: "aggregate: urgency averages 7"},
	)
	tk := NewToolkit(m)

	result, err := toolByName(t, tk, "analyze_content").Call(context.Background(), map[string]any{
		"content": []any{
			fakeTicket{Key: "ENG-1", Summary: "login broken"},
			fakeTicket{Key: "ENG-2", Summary: "search slow"},
		},
		"dimensions": []any{"urgency", "customer impact"},
	})
	require.NoError(t, err)
	assert.Equal(t, "aggregate: urgency averages 7", result.Content)
	assert.Equal(t, 3, m.Calls())
}

func TestAnalyzeContent_NoContentFails(t *testing.T) {
	tk := NewToolkit(model.NewScriptedModel())

	_, err := toolByName(t, tk, "analyze_content").Call(context.Background(), map[string]any{
		"content":    nil,
		"dimensions": []any{"urgency"},
	})
	require.Error(t, err)
	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidation, toolErr.Code)
}

func TestSummariseContent_PlainTextParsesDimensionMap(t *testing.T) {
	m := model.NewScriptedModel(
		model.ScriptedReply{Text: `{"themes": "auth reliability", "risks": "mobile users locked out"}`},
	)
	tk := NewToolkit(m)

	result, err := toolByName(t, tk, "summarise_content").Call(context.Background(), map[string]any{
		"content":    "Three tickets about login failures on mobile.",
		"dimensions": []any{"themes", "risks"},
	})
	require.NoError(t, err)
	text, ok := result.Content.(string)
	require.True(t, ok)
	assert.Contains(t, text, `"themes": "auth reliability"`)
}

func TestSummariseContent_NonJSONFallsBackToRawText(t *testing.T) {
	m := model.NewScriptedModel(
		model.ScriptedReply{Text: "The tickets describe login failures."},
	)
	tk := NewToolkit(m)

	result, err := toolByName(t, tk, "summarise_content").Call(context.Background(), map[string]any{
		"content":    "Three tickets about login failures.",
		"dimensions": []any{"themes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "The tickets describe login failures.", result.Content)
}

func TestSummariseContent_ListUsesMapReduce(t *testing.T) {
	m := model.NewScriptedModel(
		model.ScriptedReply{Text: "summary of ENG-1"},
		model.ScriptedReply{Text: "summary of ENG-2"},
		model.ScriptedReply{Text: "combined dimensional summary"},
	)
	tk := NewToolkit(m)

	result, err := toolByName(t, tk, "summarise_content").Call(context.Background(), map[string]any{
		"content": []any{
			fakeTicket{Key: "ENG-1", Summary: "login broken"},
			fakeTicket{Key: "ENG-2", Summary: "search slow"},
		},
		"dimensions": []any{"themes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "combined dimensional summary", result.Content)
	assert.Equal(t, 3, m.Calls())
}
