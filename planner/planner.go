package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/model"
)

// Planner produces the next decision for a run. Implementations must be
// stateless across calls; everything they need arrives in the snapshot and
// the conversation history.
type Planner interface {
	Plan(ctx context.Context, snap core.Snapshot, history []core.Message) (core.Decision, error)
}

// Options configure a ModelPlanner.
type Options struct {
	Trimmer *core.Trimmer
	Limiter *core.CallLimiter
	Logger  logging.Logger
}

// ModelPlanner drives planning through a language model. The first call for
// a run produces the initial plan; subsequent calls replan against the
// executed steps and the shared-data summary.
type ModelPlanner struct {
	model   model.Model
	tools   []model.ToolDefinition
	trimmer *core.Trimmer
	limiter *core.CallLimiter
	logger  logging.Logger
}

// NewModelPlanner constructs a planner over the given model and tool
// descriptors. Defaults: the standard trimmer budget, the process-wide call
// limiter and a no-op logger.
func NewModelPlanner(m model.Model, tools []model.ToolDefinition, optFns ...func(o *Options)) *ModelPlanner {
	opts := Options{
		Trimmer: core.NewTrimmer(core.DefaultTokenBudget),
		Limiter: core.SharedCallLimiter(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelPlanner{
		model:   m,
		tools:   tools,
		trimmer: opts.Trimmer,
		limiter: opts.Limiter,
		logger:  opts.Logger,
	}
}

// Plan implements Planner. Model failures and malformed output are returned
// as *core.PlanningError; context cancellation propagates unchanged.
func (p *ModelPlanner) Plan(ctx context.Context, snap core.Snapshot, history []core.Message) (core.Decision, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return core.Decision{}, err
	}

	instructions := plannerInstructions
	if len(snap.PastSteps) > 0 {
		instructions = replannerInstructions
	}
	instructions += "\n\n" + p.toolCatalog()

	messages := p.trimmer.Trim(history)
	messages = append(messages, core.UserMessage(p.buildPrompt(snap)))

	start := time.Now()
	text, err := model.GenerateText(ctx, p.model, model.Request{
		Instructions: instructions,
		Messages:     messages,
		Tools:        p.tools,
	})
	if err != nil {
		if ctx.Err() != nil {
			return core.Decision{}, ctx.Err()
		}
		p.logger.Error("Planner model call failed", "error", err.Error())
		return core.Decision{}, &core.PlanningError{Err: err}
	}
	p.logger.Debug("Planner model call completed",
		"duration", time.Since(start), "iterations", snap.Iterations)

	decision, err := ParseDecision(text)
	if err != nil {
		return core.Decision{}, &core.PlanningError{Err: err}
	}
	return decision, nil
}

// buildPrompt renders the planning request: the plain objective on the first
// call, the full replanning context afterwards.
func (p *ModelPlanner) buildPrompt(snap core.Snapshot) string {
	if len(snap.PastSteps) == 0 {
		return snap.Input
	}

	var b strings.Builder
	b.WriteString("Your objective was this:\n")
	b.WriteString(snap.Input)
	b.WriteString("\n\nYour current plan is this:\n")
	if len(snap.Plan) == 0 {
		b.WriteString("(no remaining steps)\n")
	}
	for i, step := range snap.Plan {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, step.Intent, step.Tool)
	}
	b.WriteString("\nYou have currently done the following steps:\n")
	for i, rec := range snap.PastSteps {
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, rec.Step.Intent, rec.Step.Tool, outcomeSummary(rec.Outcome))
	}
	if summary := sharedSummary(snap.SharedData); summary != "" {
		b.WriteString("\nGathered data available under shared-data keys:\n")
		b.WriteString(summary)
	}
	return b.String()
}

// toolCatalog renders the registered tool descriptors for the instructions.
func (p *ModelPlanner) toolCatalog() string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, t := range p.tools {
		fmt.Fprintf(&b, "- %s: %s", t.Name, t.Description)
		if params, err := json.Marshal(t.Parameters); err == nil {
			fmt.Fprintf(&b, " (parameters: %s)", params)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// outcomeSummary renders one past-step outcome for the replan prompt.
func outcomeSummary(o core.Outcome) string {
	if o.IsFailure() {
		return "FAILED: " + o.Reason
	}
	return util.Truncate(fmt.Sprintf("%v", o.Payload), 500)
}

// sharedSummary projects the shared-data namespace as key, type and
// approximate size. Raw payloads never enter the prompt.
func sharedSummary(shared map[string]any) string {
	if len(shared) == 0 {
		return ""
	}
	keys := make([]string, 0, len(shared))
	for k := range shared {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		size := 0
		if data, err := json.Marshal(shared[k]); err == nil {
			size = len(data)
		}
		fmt.Fprintf(&b, "- %s (%T, ~%d bytes)\n", k, shared[k], size)
	}
	return b.String()
}

type wireStep struct {
	Tool   string         `json:"tool"`
	Intent string         `json:"intent"`
	Args   map[string]any `json:"args"`
}

type wireDecision struct {
	Action struct {
		Type     string     `json:"type"`
		Response string     `json:"response"`
		Steps    []wireStep `json:"steps"`
	} `json:"action"`
}

// ParseDecision turns raw model output into a Decision. The JSON document is
// extracted between the outermost braces so surrounding prose or code fences
// do not break parsing.
func ParseDecision(text string) (core.Decision, error) {
	payload, err := extractJSON(text)
	if err != nil {
		return core.Decision{}, err
	}

	var wire wireDecision
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return core.Decision{}, fmt.Errorf("malformed decision document: %w", err)
	}

	switch wire.Action.Type {
	case "respond":
		if strings.TrimSpace(wire.Action.Response) == "" {
			return core.Decision{}, fmt.Errorf("respond action carries no response text")
		}
		return core.Respond(wire.Action.Response), nil
	case "plan":
		steps := make([]core.Step, 0, len(wire.Action.Steps))
		for i, ws := range wire.Action.Steps {
			if strings.TrimSpace(ws.Tool) == "" {
				return core.Decision{}, fmt.Errorf("plan step %d names no tool", i+1)
			}
			args := ws.Args
			if args == nil {
				args = map[string]any{}
			}
			steps = append(steps, core.Step{Tool: ws.Tool, Intent: ws.Intent, Args: args})
		}
		return core.ContinuePlan(steps...), nil
	default:
		return core.Decision{}, fmt.Errorf("unknown action type %q", wire.Action.Type)
	}
}

// extractJSON returns the substring between the first '{' and the last '}'.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in model output")
	}
	return text[start : end+1], nil
}
