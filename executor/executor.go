// Package executor runs one plan step at a time: it resolves the named tool,
// expands shared-data references in the arguments, validates them against the
// tool schema and invokes the tool under a timeout. Every failure mode is
// converted to a Failure outcome and recorded; a tool can never crash the
// run.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/tool"
)

// SharedRefPrefix marks a string argument as a reference into the shared-data
// namespace. The executor replaces "shared:<key>" with the payload stored
// under <key> before invoking the tool, keeping tools pure functions of their
// input.
const SharedRefPrefix = "shared:"

// DefaultCallTimeout bounds a single tool invocation.
const DefaultCallTimeout = 30 * time.Second

// Options configure an Executor.
type Options struct {
	CallTimeout time.Duration
	Logger      logging.Logger
}

// Executor is the single writer of session state. Execute commits exactly
// one past-step record per call, success or failure.
type Executor struct {
	registry *tool.Registry
	timeout  time.Duration
	logger   logging.Logger
}

// New constructs an Executor over the given registry.
func New(registry *tool.Registry, optFns ...func(o *Options)) *Executor {
	opts := Options{
		CallTimeout: DefaultCallTimeout,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{registry: registry, timeout: opts.CallTimeout, logger: opts.Logger}
}

// Execute runs the step against the session state and records the outcome.
// The returned outcome mirrors what was recorded.
func (e *Executor) Execute(ctx context.Context, state *core.State, step core.Step) core.Outcome {
	outcome, shared := e.run(ctx, state, step)
	state.Record(step, outcome, shared)
	return outcome
}

func (e *Executor) run(ctx context.Context, state *core.State, step core.Step) (core.Outcome, map[string]any) {
	t, ok := e.registry.Resolve(step.Tool)
	if !ok {
		e.logger.Warn("Tool not found", "tool_name", step.Tool)
		return core.Failure(fmt.Sprintf("tool %q is not registered", step.Tool)), nil
	}

	args, err := expandSharedRefs(state, step.Args)
	if err != nil {
		return core.Failure(err.Error()), nil
	}

	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		return core.Failure(fmt.Sprintf("invalid arguments for tool %q: %v", step.Tool, err)), nil
	}

	start := time.Now()
	result, err := e.invoke(ctx, t, args)
	if err != nil {
		e.logger.Error("Tool execution failed",
			"tool_name", step.Tool, "duration", time.Since(start), "error", err.Error())
		if toolErr, ok := err.(*tool.ToolError); ok && toolErr.Code == tool.CodeTimeout {
			return core.Failure(fmt.Sprintf("tool %q timed out after %s", step.Tool, e.timeout)), nil
		}
		return core.Failure(err.Error()), nil
	}
	e.logger.Info("Tool execution completed",
		"tool_name", step.Tool, "duration", time.Since(start))
	if result == nil {
		result = &tool.Result{}
	}
	return core.Success(result.Content), result.Shared
}

// invoke runs the tool call in its own goroutine so a non-cooperative tool
// cannot outlive the per-call deadline. Panics are classified as execution
// errors.
func (e *Executor) invoke(ctx context.Context, t tool.Tool, args map[string]any) (*tool.Result, error) {
	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type callResult struct {
		result *tool.Result
		err    error
	}
	done := make(chan callResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: tool.NewToolError(t.Name(), fmt.Sprintf("panic during execution: %v", r), tool.CodeExecution)}
			}
		}()
		result, err := t.Call(callCtx, args)
		done <- callResult{result: result, err: err}
	}()

	select {
	case <-callCtx.Done():
		return nil, tool.NewToolError(t.Name(), callCtx.Err().Error(), tool.CodeTimeout)
	case res := <-done:
		return res.result, res.err
	}
}

// expandSharedRefs replaces "shared:<key>" string arguments with the payload
// stored under that key. References are resolved at the top level and one
// level deep inside list arguments, so a step can pass several shared keys
// to a single tool. A reference to an absent key fails the step before the
// tool runs.
func expandSharedRefs(state *core.State, args map[string]any) (map[string]any, error) {
	expanded := make(map[string]any, len(args))
	for name, value := range args {
		switch v := value.(type) {
		case string:
			resolved, err := resolveRef(state, name, v)
			if err != nil {
				return nil, err
			}
			expanded[name] = resolved
		case []any:
			items := make([]any, len(v))
			for i, item := range v {
				s, ok := item.(string)
				if !ok {
					items[i] = item
					continue
				}
				resolved, err := resolveRef(state, name, s)
				if err != nil {
					return nil, err
				}
				items[i] = resolved
			}
			expanded[name] = items
		default:
			expanded[name] = value
		}
	}
	return expanded, nil
}

func resolveRef(state *core.State, name, value string) (any, error) {
	if !strings.HasPrefix(value, SharedRefPrefix) {
		return value, nil
	}
	key := strings.TrimPrefix(value, SharedRefPrefix)
	payload, found := state.SharedValue(key)
	if !found {
		return nil, fmt.Errorf("argument %q references unknown shared-data key %q", name, key)
	}
	return payload, nil
}
