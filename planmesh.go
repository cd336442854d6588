// Package planmesh provides a high-level façade over the planning engine and
// its collaborators (planner, tool registry, sessions, rate limiting).
// Most applications interact with this package by:
//  1. Creating a Mesh via New() with the model that drives planning
//  2. Registering tools, either flat or grouped into routable toolsets
//  3. Starting runs asynchronously (Run) or synchronously (RunSync)
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. Defaults are safe for local development and testing;
// production deployments typically supply a durable session store and a
// structured logger.
package planmesh

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/planmesh/config"
	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/engine"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/planner"
	"github.com/hupe1980/planmesh/session"
	"github.com/hupe1980/planmesh/tool"
)

// Toolset identifiers accepted by RegisterToolset when routing is enabled.
const (
	ToolsetTickets = planner.ToolsetTickets
	ToolsetSource  = planner.ToolsetSource
)

// Options configure a Mesh instance.
type Options struct {
	// EngineConfig holds the run parameters (recursion limit, token budget,
	// rate limit, timeouts). Defaults to engine.DefaultConfig.
	EngineConfig engine.Config

	// SessionStore manages conversation history across turns. Defaults to
	// the in-memory implementation.
	SessionStore core.SessionStore

	// Logger provides structured logging. Defaults to no-op.
	Logger logging.Logger

	// Callbacks hooks into the run loop. Optional.
	Callbacks *engine.CallbackManager

	// EnableRouting classifies each query to a toolset before planning, so
	// the planner only sees the relevant tool catalog. Requires at least one
	// toolset registered via RegisterToolset.
	EnableRouting bool
}

// Mesh is the high-level façade aggregating the planner, tool registry and
// engine. Register all tools before the first run; engines are built lazily
// per toolset and reused afterwards.
type Mesh struct {
	opts    Options
	model   model.Model
	limiter *core.CallLimiter
	router  *planner.ModelRouter

	mu       sync.Mutex
	registry *tool.Registry
	toolsets map[string]*tool.Registry
	engines  map[string]*engine.Engine
}

// New creates a Mesh over the given model with optional overrides.
func New(m model.Model, optFns ...func(o *Options)) *Mesh {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
		Callbacks:    engine.NewCallbackManager(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var limiter *core.CallLimiter
	if opts.EngineConfig.RatePerSecond == core.DefaultCallRate && opts.EngineConfig.RateBurst == core.DefaultCallBurst {
		limiter = core.SharedCallLimiter()
	} else {
		limiter = core.NewCallLimiter(opts.EngineConfig.RatePerSecond, opts.EngineConfig.RateBurst)
	}

	mesh := &Mesh{
		opts:     opts,
		model:    m,
		limiter:  limiter,
		registry: tool.NewRegistry(),
		toolsets: make(map[string]*tool.Registry),
		engines:  make(map[string]*engine.Engine),
	}
	if opts.EnableRouting {
		mesh.router = planner.NewModelRouter(m, func(o *planner.RouterOptions) {
			o.Limiter = limiter
			o.Logger = opts.Logger
		})
	}
	return mesh
}

// ConfigFromSettings translates loaded configuration into engine parameters.
func ConfigFromSettings(s config.Settings) engine.Config {
	return engine.Config{
		RecursionLimit:  s.RecursionLimit,
		TokenBudget:     s.MaxMessageTokens,
		RatePerSecond:   s.RateRequestsPerSecond,
		RateBurst:       s.RateBurstCapacity,
		CallTimeout:     s.ToolCallTimeout,
		EventBufferSize: engine.DefaultConfig.EventBufferSize,
	}
}

// RegisterTools adds tools available to every run regardless of routing.
func (m *Mesh) RegisterTools(tools ...tool.Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry.RegisterAll(tools...)
}

// RegisterToolset adds tools under a routable toolset name. The tools also
// join the unscoped registry used when routing is disabled or inconclusive.
func (m *Mesh) RegisterToolset(name string, tools ...tool.Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scoped, ok := m.toolsets[name]
	if !ok {
		scoped = tool.NewRegistry()
		m.toolsets[name] = scoped
	}
	scoped.RegisterAll(tools...)
	m.registry.RegisterAll(tools...)
}

// Run starts an asynchronous run, returning the run ID plus event and error
// channels. With routing enabled the query is classified first and the
// planner sees only the selected toolset's catalog.
func (m *Mesh) Run(ctx context.Context, sessionID, input string) (string, <-chan core.Event, <-chan error, error) {
	eng, err := m.engineForQuery(ctx, input)
	if err != nil {
		return "", nil, nil, err
	}
	return eng.Run(ctx, sessionID, input)
}

// RunSync executes a run synchronously and returns all generated events.
func (m *Mesh) RunSync(ctx context.Context, sessionID, input string) (string, []core.Event, error) {
	eng, err := m.engineForQuery(ctx, input)
	if err != nil {
		return "", nil, err
	}
	return eng.RunSync(ctx, sessionID, input)
}

// StopRun cancels a running run by its ID.
func (m *Mesh) StopRun(runID string) error {
	m.mu.Lock()
	engines := make([]*engine.Engine, 0, len(m.engines))
	for _, eng := range m.engines {
		engines = append(engines, eng)
	}
	m.mu.Unlock()

	for _, eng := range engines {
		if err := eng.StopRun(runID); err == nil {
			return nil
		}
	}
	return fmt.Errorf("run %s not found", runID)
}

// engineForQuery picks the engine serving this query, routing to a toolset
// when enabled. Routing failures fall back to the full catalog.
func (m *Mesh) engineForQuery(ctx context.Context, input string) (*engine.Engine, error) {
	toolset := ""
	if m.router != nil {
		decision, err := m.router.Route(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.opts.Logger.Warn("Routing failed, using full tool catalog", "error", err.Error())
		} else {
			m.opts.Logger.Debug("Query routed",
				"toolset", decision.Toolset, "confidence", decision.Confidence)
			toolset = decision.Toolset
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	registry := m.registry
	if scoped, ok := m.toolsets[toolset]; ok && toolset != "" {
		registry = scoped
	} else {
		toolset = ""
	}

	if eng, ok := m.engines[toolset]; ok {
		return eng, nil
	}

	p := planner.NewModelPlanner(m.model, toolDefinitions(registry), func(o *planner.Options) {
		o.Trimmer = core.NewTrimmer(m.opts.EngineConfig.TokenBudget)
		o.Limiter = m.limiter
		o.Logger = m.opts.Logger
	})

	eng, err := engine.New(p, registry,
		engine.WithConfig(m.opts.EngineConfig),
		engine.WithSessionStore(m.opts.SessionStore),
		engine.WithLimiter(m.limiter),
		engine.WithLogger(m.opts.Logger),
		engine.WithCallbacks(m.opts.Callbacks),
	)
	if err != nil {
		return nil, err
	}
	m.engines[toolset] = eng
	return eng, nil
}

// toolDefinitions renders a registry as planner tool descriptors.
func toolDefinitions(registry *tool.Registry) []model.ToolDefinition {
	tools := registry.Tools()
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
