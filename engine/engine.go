package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/executor"
	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/planner"
	"github.com/hupe1980/planmesh/session"
	"github.com/hupe1980/planmesh/tool"
)

// Config defines tuning parameters for the run loop.
//
// Example:
//
//	cfg := Config{
//	    RecursionLimit: 25,
//	    TokenBudget:    512,
//	    RatePerSecond:  2,
//	    RateBurst:      5,
//	}
type Config struct {
	// RecursionLimit caps the number of planner/executor cycles per run.
	// When reached, the run terminates gracefully with a partial response.
	RecursionLimit int

	// TokenBudget bounds the approximate token count of the conversation
	// history handed to the planner.
	TokenBudget int

	// RatePerSecond is the sustained outbound model call rate. Only used
	// when no CallLimiter is injected.
	RatePerSecond float64

	// RateBurst is the token bucket burst capacity. Only used when no
	// CallLimiter is injected.
	RateBurst int

	// CallTimeout bounds a single tool invocation.
	CallTimeout time.Duration

	// EventBufferSize sets the event channel buffer. Delivery is still
	// consumer-paced; the buffer only smooths short bursts.
	EventBufferSize int
}

// DefaultConfig provides the standard run parameters.
var DefaultConfig = Config{
	RecursionLimit:  50,
	TokenBudget:     core.DefaultTokenBudget,
	RatePerSecond:   core.DefaultCallRate,
	RateBurst:       core.DefaultCallBurst,
	CallTimeout:     executor.DefaultCallTimeout,
	EventBufferSize: 100,
}

// validate checks the config before any run starts.
func (c Config) validate() error {
	if c.RecursionLimit <= 0 {
		return &core.ConfigurationError{Field: "RecursionLimit", Message: "must be positive"}
	}
	if c.TokenBudget <= 0 {
		return &core.ConfigurationError{Field: "TokenBudget", Message: "must be positive"}
	}
	if c.RatePerSecond <= 0 {
		return &core.ConfigurationError{Field: "RatePerSecond", Message: "must be positive"}
	}
	if c.RateBurst <= 0 {
		return &core.ConfigurationError{Field: "RateBurst", Message: "must be positive"}
	}
	if c.CallTimeout <= 0 {
		return &core.ConfigurationError{Field: "CallTimeout", Message: "must be positive"}
	}
	if c.EventBufferSize < 0 {
		return &core.ConfigurationError{Field: "EventBufferSize", Message: "must not be negative"}
	}
	return nil
}

// Options configures an Engine instance using the functional options pattern.
//
// Example:
//
//	eng, err := New(myPlanner, registry,
//	    WithConfig(customConfig),
//	    WithSessionStore(mySessionStore),
//	    WithLogger(myLogger),
//	)
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// SessionStore manages conversation history across turns. Defaults to
	// the in-memory implementation.
	SessionStore core.SessionStore

	// Limiter gates outbound model calls. Defaults to the process-wide
	// shared limiter so concurrent engines share one budget.
	Limiter *core.CallLimiter

	// Logger provides structured logging. Defaults to no-op.
	Logger logging.Logger

	// Callbacks hooks into the run loop. Optional.
	Callbacks *CallbackManager
}

// WithConfig overrides the run parameters.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithSessionStore injects a session store.
func WithSessionStore(store core.SessionStore) func(o *Options) {
	return func(o *Options) { o.SessionStore = store }
}

// WithLimiter injects a call limiter shared with other engines.
func WithLimiter(limiter *core.CallLimiter) func(o *Options) {
	return func(o *Options) { o.Limiter = limiter }
}

// WithLogger injects a structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithCallbacks injects lifecycle hooks.
func WithCallbacks(cm *CallbackManager) func(o *Options) {
	return func(o *Options) { o.Callbacks = cm }
}

// Engine drives bounded plan-execute runs. It owns no model or tool state
// itself: planning is delegated to the Planner, step execution to the
// Executor over the tool registry.
//
// The Engine is immutable after construction and safe for concurrent runs.
type Engine struct {
	planner  planner.Planner
	registry *tool.Registry
	exec     *executor.Executor

	sessionStore core.SessionStore
	limiter      *core.CallLimiter
	logger       logging.Logger
	callbacks    *CallbackManager
	config       Config

	activeRuns map[string]context.CancelFunc
	runsMu     sync.Mutex
}

// New creates an Engine over the given planner and tool registry. The
// configuration is validated here; a run can never start with an invalid
// setup.
func New(p planner.Planner, registry *tool.Registry, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Config:       DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
		Callbacks:    NewCallbackManager(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if p == nil {
		return nil, &core.ConfigurationError{Field: "Planner", Message: "must not be nil"}
	}
	if registry == nil {
		return nil, &core.ConfigurationError{Field: "Registry", Message: "must not be nil"}
	}
	if err := opts.Config.validate(); err != nil {
		return nil, err
	}

	limiter := opts.Limiter
	if limiter == nil {
		if opts.Config.RatePerSecond == core.DefaultCallRate && opts.Config.RateBurst == core.DefaultCallBurst {
			limiter = core.SharedCallLimiter()
		} else {
			limiter = core.NewCallLimiter(opts.Config.RatePerSecond, opts.Config.RateBurst)
		}
	}

	return &Engine{
		planner:  p,
		registry: registry,
		exec: executor.New(registry, func(o *executor.Options) {
			o.CallTimeout = opts.Config.CallTimeout
			o.Logger = opts.Logger
		}),
		sessionStore: opts.SessionStore,
		limiter:      limiter,
		logger:       opts.Logger,
		callbacks:    opts.Callbacks,
		config:       opts.Config,
		activeRuns:   make(map[string]context.CancelFunc),
	}, nil
}

// Limiter returns the call limiter this engine hands to its collaborators.
func (e *Engine) Limiter() *core.CallLimiter { return e.limiter }

// Run starts a plan-execute run asynchronously and returns the run ID plus
// channels for event streaming and terminal errors.
//
// The event channel delivers the ordered, finite stream for the run and is
// closed after exactly one terminal event (response-ready or aborted). The
// error channel receives run-fatal errors only: context cancellation and
// session store failures. Tool and planner failures are absorbed into the
// loop and never appear here.
func (e *Engine) Run(ctx context.Context, sessionID, input string) (string, <-chan core.Event, <-chan error, error) {
	sess, err := e.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if err := e.sessionStore.AppendMessages(sessionID, core.UserMessage(input)); err != nil {
		return "", nil, nil, fmt.Errorf("failed to append user message: %w", err)
	}

	runID := core.NewID()
	eventsCh := make(chan core.Event, e.config.EventBufferSize)
	errorsCh := make(chan error, 1)

	runCtx, cancel := context.WithCancel(ctx)
	e.runsMu.Lock()
	e.activeRuns[runID] = cancel
	e.runsMu.Unlock()

	history := sess.History()

	go func() {
		defer func() {
			close(eventsCh)
			close(errorsCh)
			cancel()
			e.runsMu.Lock()
			delete(e.activeRuns, runID)
			e.runsMu.Unlock()
		}()
		if err := e.runLoop(runCtx, runID, sessionID, input, history, eventsCh); err != nil {
			select {
			case errorsCh <- err:
			default:
			}
		}
	}()

	return runID, eventsCh, errorsCh, nil
}

// RunSync executes a run synchronously and returns all generated events.
// Convenience wrapper for request-response callers that do not need
// real-time streaming.
func (e *Engine) RunSync(ctx context.Context, sessionID, input string) (string, []core.Event, error) {
	runID, eventsCh, errorsCh, err := e.Run(ctx, sessionID, input)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event
	for {
		select {
		case <-ctx.Done():
			return runID, events, ctx.Err()
		case event, ok := <-eventsCh:
			if !ok {
				select {
				case err := <-errorsCh:
					return runID, events, err
				default:
					return runID, events, nil
				}
			}
			events = append(events, event)
		case err := <-errorsCh:
			if err != nil {
				return runID, events, err
			}
		}
	}
}

// StopRun cancels a running run by its ID.
func (e *Engine) StopRun(runID string) error {
	e.runsMu.Lock()
	cancel, exists := e.activeRuns[runID]
	e.runsMu.Unlock()
	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}
	cancel()
	return nil
}

// runLoop is the state machine for one run. It returns an error only for
// run-fatal conditions; everything else terminates the stream gracefully.
func (e *Engine) runLoop(
	ctx context.Context,
	runID, sessionID, input string,
	history []core.Message,
	eventsCh chan<- core.Event,
) error {
	logger := e.logger
	start := time.Now()
	state := core.NewState(input)

	if !e.send(ctx, eventsCh, core.NewRunStartedEvent(runID, input)) {
		return ctx.Err()
	}

	for {
		if response, ok := state.Response(); ok {
			return e.respond(ctx, runID, sessionID, state, response, eventsCh, start)
		}

		// Recursion guard fires before every PLANNING/EXECUTING transition.
		if state.Iterations() >= e.config.RecursionLimit {
			return e.abort(ctx, runID, sessionID, state, eventsCh, start)
		}

		snap := state.Snapshot()
		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforePlan, &CallbackContext{
			RunID: runID, SessionID: sessionID, Snapshot: snap, CallbackType: CallbackBeforePlan,
		}); err != nil {
			return fmt.Errorf("before-plan callback: %w", err)
		}

		decision, err := e.planner.Plan(ctx, snap, history)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Planning failures degrade to an empty plan; the loop falls
			// through to the best-effort response below.
			logger.Warn("Planning failed, degrading to best-effort response", "error", err.Error())
			decision = core.ContinuePlan()
		}

		snap = state.Snapshot()
		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackAfterPlan, &CallbackContext{
			RunID: runID, SessionID: sessionID, Snapshot: snap, CallbackType: CallbackAfterPlan,
		}); err != nil {
			return fmt.Errorf("after-plan callback: %w", err)
		}

		if decision.IsRespond() {
			state.SetResponse(decision.Response())
			continue
		}

		steps := decision.Steps()
		if len(steps) == 0 {
			// Implicit terminal state: nothing left to do but no explicit
			// response. Synthesize one from what was gathered.
			state.SetResponse(synthesizeResponse(state.Snapshot(), false))
			continue
		}

		state.SetPlan(steps)
		if !e.send(ctx, eventsCh, core.NewPlanUpdatedEvent(runID, steps)) {
			return ctx.Err()
		}

		// Guard again before the EXECUTING transition.
		if state.Iterations() >= e.config.RecursionLimit {
			return e.abort(ctx, runID, sessionID, state, eventsCh, start)
		}

		step, ok := state.NextStep()
		if !ok {
			continue
		}

		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeTool, &CallbackContext{
			RunID: runID, SessionID: sessionID, Snapshot: state.Snapshot(),
			Step: &step, CallbackType: CallbackBeforeTool,
		}); err != nil {
			return fmt.Errorf("before-tool callback: %w", err)
		}

		if !e.send(ctx, eventsCh, core.NewStepStartedEvent(runID, step)) {
			return ctx.Err()
		}

		outcome := e.exec.Execute(ctx, state, step)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !e.send(ctx, eventsCh, core.NewStepCompletedEvent(runID, step, outcome)) {
			return ctx.Err()
		}

		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackAfterTool, &CallbackContext{
			RunID: runID, SessionID: sessionID, Snapshot: state.Snapshot(),
			Step: &step, Outcome: &outcome, CallbackType: CallbackAfterTool,
		}); err != nil {
			return fmt.Errorf("after-tool callback: %w", err)
		}
	}
}

// respond terminates the run with the final answer.
func (e *Engine) respond(
	ctx context.Context,
	runID, sessionID string,
	state *core.State,
	response string,
	eventsCh chan<- core.Event,
	start time.Time,
) error {
	if err := e.sessionStore.AppendMessages(sessionID, core.AssistantMessage(response)); err != nil {
		return fmt.Errorf("failed to append assistant message: %w", err)
	}
	if !e.send(ctx, eventsCh, core.NewTextDeltaEvent(runID, response)) {
		return ctx.Err()
	}
	if !e.send(ctx, eventsCh, core.NewResponseReadyEvent(runID, response)) {
		return ctx.Err()
	}
	e.logger.Info("Run completed",
		"run_id", runID, "session_id", sessionID,
		"iterations", state.Iterations(), "duration", time.Since(start))
	return nil
}

// abort terminates the run at the recursion cap with a partial response.
func (e *Engine) abort(
	ctx context.Context,
	runID, sessionID string,
	state *core.State,
	eventsCh chan<- core.Event,
	start time.Time,
) error {
	snap := state.Snapshot()
	limitErr := &core.ResourceLimitExceeded{Limit: e.config.RecursionLimit}
	partial := synthesizeResponse(snap, true)

	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackOnAbort, &CallbackContext{
		RunID: runID, SessionID: sessionID, Snapshot: snap, CallbackType: CallbackOnAbort,
	}); err != nil {
		return fmt.Errorf("on-abort callback: %w", err)
	}

	if err := e.sessionStore.AppendMessages(sessionID, core.AssistantMessage(partial)); err != nil {
		return fmt.Errorf("failed to append assistant message: %w", err)
	}
	if !e.send(ctx, eventsCh, core.NewAbortedEvent(runID, limitErr.Error(), partial)) {
		return ctx.Err()
	}
	e.logger.Warn("Run aborted at recursion limit",
		"run_id", runID, "session_id", sessionID,
		"iterations", snap.Iterations, "duration", time.Since(start))
	return nil
}

// send delivers an event, honoring cancellation. Reports whether the event
// was delivered.
func (e *Engine) send(ctx context.Context, eventsCh chan<- core.Event, ev core.Event) bool {
	select {
	case <-ctx.Done():
		return false
	case eventsCh <- ev:
		return true
	}
}

// synthesizeResponse builds a best-effort answer from the accumulated past
// steps and shared-data keys. Used for the implicit terminal state and for
// recursion-limit aborts.
func synthesizeResponse(snap core.Snapshot, aborted bool) string {
	var b strings.Builder
	if aborted {
		b.WriteString("The request could not be fully completed within the allowed number of steps. ")
	}
	if len(snap.PastSteps) == 0 {
		b.WriteString("No steps were completed for this request.")
		return b.String()
	}

	b.WriteString("Results gathered so far:\n")
	for i, rec := range snap.PastSteps {
		status := "done"
		detail := fmt.Sprintf("%v", rec.Outcome.Payload)
		if rec.Outcome.IsFailure() {
			status = "failed"
			detail = rec.Outcome.Reason
		}
		detail = util.Truncate(detail, 300)
		intent := rec.Step.Intent
		if intent == "" {
			intent = rec.Step.Tool
		}
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, intent, status, detail)
	}
	if len(snap.SharedData) > 0 {
		keys := make([]string, 0, len(snap.SharedData))
		for k := range snap.SharedData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, "Collected data keys: %s\n", strings.Join(keys, ", "))
	}
	return b.String()
}
