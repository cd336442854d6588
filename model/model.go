package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/planmesh/core"
)

// ToolDefinition declaratively exposes a callable capability to the model.
// Parameters is a JSON Schema object (minimal subset: type, properties,
// required).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the planner.
type Request struct {
	Instructions string           `json:"instructions"` // System-level instructions
	Messages     []core.Message   `json:"messages"`     // Trimmed conversation history
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"` // True for streaming deltas
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface the planner needs to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// GenerateText drains a Generate call into a single final string. It is the
// non-streaming convenience used by the planner and the analysis toolkit.
func GenerateText(ctx context.Context, m Model, req Request) (string, error) {
	req.Stream = false
	respCh, errCh := m.Generate(ctx, req)

	var text strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				select {
				case err, hasErr := <-errCh:
					if hasErr && err != nil {
						return "", err
					}
				default:
				}
				return text.String(), nil
			}
			if !resp.Partial {
				text.WriteString(resp.Text)
			}
		case err, ok := <-errCh:
			if ok && err != nil {
				return "", err
			}
		}
	}
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Replies are keyed on the text of the last message in the request.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits optional streaming char chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		inputText := req.Messages[len(req.Messages)-1].Content
		full := m.responses[inputText]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		respCh <- Response{Text: full, FinishReason: "stop"}
	}()
	return respCh, errCh
}

// Info implements the Model interface.
func (m *MockModel) Info() Info { return m.info }

// ScriptedModel returns a fixed sequence of replies (or errors), one per
// Generate call, regardless of input. Useful for driving the planner through
// multi-iteration runs in tests.
type ScriptedModel struct {
	mu      sync.Mutex
	replies []ScriptedReply
	calls   int
}

// ScriptedReply is one scripted turn: either Text or Err.
type ScriptedReply struct {
	Text string
	Err  error
}

// NewScriptedModel constructs a ScriptedModel from the given replies. Once
// the script is exhausted the last reply repeats.
func NewScriptedModel(replies ...ScriptedReply) *ScriptedModel {
	return &ScriptedModel{replies: replies}
}

// Calls reports how many times Generate has been invoked.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, _ Request) (<-chan Response, <-chan error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	var reply ScriptedReply
	if idx >= 0 {
		reply = m.replies[idx]
	}
	m.mu.Unlock()

	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		if reply.Err != nil {
			errCh <- reply.Err
			return
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Text: reply.Text, FinishReason: "stop"}:
		}
	}()
	return respCh, errCh
}

// Info implements the Model interface.
func (m *ScriptedModel) Info() Info { return Info{Name: "scripted", Provider: "mock"} }
