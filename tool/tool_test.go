package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/internal/util"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, util.ValidateParameters(map[string]any{"x": 5}, schema))

	err := util.ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	var vErr *util.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.Error(t, err)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ context.Context, args map[string]any) (*Result, error) {
		return &Result{Content: args["a"].(float64) + args["b"].(float64)}, nil
	})

	result, err := sumTool.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.Content)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ context.Context, _ map[string]any) (*Result, error) {
		return &Result{}, nil
	})

	_, err := tTool.Call(context.Background(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ context.Context, _ map[string]any) (*Result, error) {
		return nil, errors.New("boom")
	})

	_, err := execTool.Call(context.Background(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodeExecution, toolErr.Code)
}

func TestFunctionTool_CustomToolErrorPreserved(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	custom := NewToolError("custom", "nope", "RATE_LIMITED")
	customTool := NewFunctionTool("custom", "Custom", params, func(_ context.Context, _ map[string]any) (*Result, error) {
		return nil, custom
	})

	_, err := customTool.Call(context.Background(), map[string]any{})
	assert.Same(t, custom, err)
}

// -------------------- Registry Tests --------------------

func TestRegistry_ResolveAndNotFound(t *testing.T) {
	reg := NewRegistry()
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	reg.Register(NewFunctionTool("b_tool", "", params, func(_ context.Context, _ map[string]any) (*Result, error) {
		return &Result{}, nil
	}))
	reg.Register(NewFunctionTool("a_tool", "", params, func(_ context.Context, _ map[string]any) (*Result, error) {
		return &Result{}, nil
	}))

	_, ok := reg.Resolve("a_tool")
	assert.True(t, ok)

	_, ok = reg.Resolve("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a_tool", "b_tool"}, reg.Names())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_ReplaceByName(t *testing.T) {
	reg := NewRegistry()
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	first := NewFunctionTool("t", "first", params, nil)
	second := NewFunctionTool("t", "second", params, nil)
	reg.Register(first)
	reg.Register(second)

	resolved, ok := reg.Resolve("t")
	require.True(t, ok)
	assert.Equal(t, "second", resolved.Description())
}
