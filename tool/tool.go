// Package tool implements the capability subsystem that lets the planner
// select structured, schema-typed callables (external queries, computations)
// with validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"
)

// Tool defines the invocation contract every capability must present.
//
// Tools are pure functions of their input: they must not reach into session
// state. Structured payloads destined for the shared-data namespace ride in
// Result.Shared; only the executor merges them, preserving the single-writer
// discipline on session state.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions (snake_case names)
//   - Define proper JSON schema for parameters
//   - Perform read-only queries against external systems
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does, provided to the model to guide selection.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with already-validated arguments. The context
	// carries the per-call timeout; long-running tools should honor it.
	Call(ctx context.Context, args map[string]any) (*Result, error)
}

// Result is what a tool hands back on success.
type Result struct {
	// Content is the human/model-readable result recorded as the step
	// outcome payload. Prefer naming shared-data keys over inlining large
	// payloads here.
	Content any

	// Shared holds structured entries to merge into the session's
	// shared-data namespace, keyed by namespace key (a ticket ID, a
	// repository path). Later writes to a key overwrite earlier ones.
	Shared map[string]any
}

// Error codes attached to ToolError for uniform downstream handling.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeTimeout    = "TIMEOUT"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool %q failed [%s]: %s", e.Tool, e.Code, e.Message)
	}
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
