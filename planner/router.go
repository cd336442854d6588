package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/model"
)

// Toolset identifiers the router can select.
const (
	ToolsetTickets = "tickets"
	ToolsetSource  = "source"
)

// RouteDecision is the router's classification of a query.
type RouteDecision struct {
	Toolset    string  `json:"toolset"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// RouterOptions configure a ModelRouter.
type RouterOptions struct {
	Limiter *core.CallLimiter
	Logger  logging.Logger
}

// ModelRouter classifies queries to a toolset (issue tracker vs. source
// repository) so the façade can scope the tool catalog before planning.
type ModelRouter struct {
	model   model.Model
	limiter *core.CallLimiter
	logger  logging.Logger
}

// NewModelRouter constructs a router over the given model.
func NewModelRouter(m model.Model, optFns ...func(o *RouterOptions)) *ModelRouter {
	opts := RouterOptions{
		Limiter: core.SharedCallLimiter(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelRouter{model: m, limiter: opts.Limiter, logger: opts.Logger}
}

// Route classifies the query. Ambiguous or malformed model output falls back
// to the tickets toolset with zero confidence rather than failing the run.
func (r *ModelRouter) Route(ctx context.Context, query string) (RouteDecision, error) {
	if err := r.limiter.Acquire(ctx); err != nil {
		return RouteDecision{}, err
	}

	text, err := model.GenerateText(ctx, r.model, model.Request{
		Instructions: routerInstructions,
		Messages:     []core.Message{core.UserMessage(query)},
	})
	if err != nil {
		if ctx.Err() != nil {
			return RouteDecision{}, ctx.Err()
		}
		return RouteDecision{}, fmt.Errorf("router model call: %w", err)
	}

	decision, err := parseRoute(text)
	if err != nil {
		r.logger.Warn("Router output unparseable, defaulting to tickets", "error", err.Error())
		return RouteDecision{Toolset: ToolsetTickets, Reasoning: "default after unparseable routing output"}, nil
	}
	return decision, nil
}

func parseRoute(text string) (RouteDecision, error) {
	payload, err := extractJSON(text)
	if err != nil {
		return RouteDecision{}, err
	}
	var decision RouteDecision
	if err := json.Unmarshal([]byte(payload), &decision); err != nil {
		return RouteDecision{}, fmt.Errorf("malformed routing document: %w", err)
	}
	if decision.Toolset != ToolsetTickets && decision.Toolset != ToolsetSource {
		return RouteDecision{}, fmt.Errorf("unknown toolset %q", decision.Toolset)
	}
	if decision.Confidence < 0 || decision.Confidence > 1 {
		return RouteDecision{}, fmt.Errorf("confidence %v out of range", decision.Confidence)
	}
	return decision, nil
}
