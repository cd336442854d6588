package engine

import (
	"context"

	"github.com/hupe1980/planmesh/core"
)

// CallbackType defines the lifecycle points where callbacks can run.
//
// Callbacks hook into the run loop without modifying core logic. They are
// executed synchronously; a callback returning an error terminates the run.
type CallbackType string

const (
	// CallbackBeforePlan is triggered before every planning step.
	CallbackBeforePlan CallbackType = "before_plan"

	// CallbackAfterPlan is triggered after a planning step produced a
	// decision.
	CallbackAfterPlan CallbackType = "after_plan"

	// CallbackBeforeTool is triggered before a plan step executes.
	CallbackBeforeTool CallbackType = "before_tool"

	// CallbackAfterTool is triggered after a plan step executed, success or
	// failure.
	CallbackAfterTool CallbackType = "after_tool"

	// CallbackOnAbort is triggered when the recursion guard terminates a run.
	CallbackOnAbort CallbackType = "on_abort"
)

// CallbackContext carries the run information available at a hook point.
type CallbackContext struct {
	// RunID identifies the run that triggered the callback.
	RunID string

	// SessionID identifies the owning session.
	SessionID string

	// Snapshot is the session state at the hook point.
	Snapshot core.Snapshot

	// Step is the plan step for tool hooks; nil otherwise.
	Step *core.Step

	// Outcome is the recorded outcome for after-tool hooks; nil otherwise.
	Outcome *core.Outcome

	// CallbackType indicates which hook fired, so shared implementations can
	// branch on the phase.
	CallbackType CallbackType
}

// Callback is a run-loop lifecycle hook. Implementations should be fast and
// must not panic; a returned error terminates the run.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a plain function as a callback implementation.
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a function-based callback for the given hook.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{callbackType: callbackType, fn: fn}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager routes hook points to the registered callbacks. Callbacks
// run in registration order; the first error stops the chain.
//
// Registration is not synchronized; register everything before starting runs.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{callbacks: make(map[CallbackType][]Callback)}
}

// RegisterCallback adds a callback for its declared type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks runs all callbacks registered for the type, stopping at
// the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	for _, callback := range cm.callbacks[callbackType] {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return err
		}
	}
	return nil
}
