package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

// Options configure a Toolkit.
type Options struct {
	// Limiter gates the toolkit's model calls. Defaults to the process-wide
	// limiter shared with the planner.
	Limiter *core.CallLimiter

	Logger logging.Logger
}

// Toolkit bundles the model-backed analysis tools.
type Toolkit struct {
	model   model.Model
	limiter *core.CallLimiter
	logger  logging.Logger
}

// NewToolkit creates a Toolkit over the given model.
func NewToolkit(m model.Model, optFns ...func(o *Options)) *Toolkit {
	opts := Options{
		Limiter: core.SharedCallLimiter(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Toolkit{model: m, limiter: opts.Limiter, logger: opts.Logger}
}

// Tools returns the toolkit's tools for registry registration.
func (tk *Toolkit) Tools() []tool.Tool {
	return []tool.Tool{tk.analyzeContentTool(), tk.summariseContentTool()}
}

// contentProperty deliberately declares no type: the executor may substitute
// a structured shared-data payload for a "shared:<key>" string before
// validation runs.
func contentProperty() map[string]any {
	return map[string]any{
		"description": "Content to process: inline text, a shared:<key> reference, " +
			"or a list of shared:<key> references",
	}
}

func (tk *Toolkit) analyzeContentTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": contentProperty(),
			"dimensions": map[string]any{
				"type":        "array",
				"description": "Dimensions to analyze and score, e.g. [\"urgency\", \"customer impact\"]",
			},
		},
		"required": []string{"content", "dimensions"},
	}

	return tool.NewFunctionTool(
		"analyze_content",
		"Analyze and score content across the given dimensions. Each dimension "+
			"receives a score from 1 to 10 with reasoning; multi-item content is "+
			"processed per item and the analyses are combined.",
		params,
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			dimensions := strings.Join(util.StringSliceArg(args, "dimensions"), ", ")
			docs := Documents(args["content"])
			if len(docs) == 0 {
				return nil, tool.NewToolError("analyze_content", "no content to analyze", tool.CodeValidation)
			}

			result, err := tk.mapReduce(ctx, docs, dimensions, analyzeMapTemplate, analyzeReduceTemplate)
			if err != nil {
				return nil, err
			}
			return &tool.Result{Content: result}, nil
		},
	)
}

func (tk *Toolkit) summariseContentTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": contentProperty(),
			"dimensions": map[string]any{
				"type":        "array",
				"description": "Dimensions to summarize along, e.g. [\"themes\", \"risks\"]",
			},
		},
		"required": []string{"content", "dimensions"},
	}

	return tool.NewFunctionTool(
		"summarise_content",
		"Summarize content along the given dimensions. Multi-item content is "+
			"summarized per item and the summaries are combined; plain text gets "+
			"a single dimensional summary.",
		params,
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			dimensions := strings.Join(util.StringSliceArg(args, "dimensions"), ", ")

			// Plain text takes the direct path; everything structured goes
			// through map-reduce.
			if text, ok := args["content"].(string); ok {
				result, err := tk.summariseText(ctx, text, dimensions)
				if err != nil {
					return nil, err
				}
				return &tool.Result{Content: result}, nil
			}

			docs := Documents(args["content"])
			if len(docs) == 0 {
				return nil, tool.NewToolError("summarise_content", "no content to summarize", tool.CodeValidation)
			}
			result, err := tk.mapReduce(ctx, docs, dimensions, summariseMapTemplate, summariseReduceTemplate)
			if err != nil {
				return nil, err
			}
			return &tool.Result{Content: result}, nil
		},
	)
}

// mapReduce analyzes every document individually, then combines the per-item
// analyses. A single document skips the combine call.
func (tk *Toolkit) mapReduce(ctx context.Context, docs []string, dimensions, mapTemplate, reduceTemplate string) (string, error) {
	analyses := make([]string, 0, len(docs))
	for _, doc := range docs {
		analysis, err := tk.generate(ctx, renderPrompt(mapTemplate, dimensions, doc))
		if err != nil {
			return "", err
		}
		analyses = append(analyses, analysis)
	}
	if len(analyses) == 1 {
		return analyses[0], nil
	}
	return tk.generate(ctx, renderPrompt(reduceTemplate, dimensions, joinAnalyses(analyses)))
}

// summariseText runs the single-shot dimensional summary. The model is asked
// for a JSON dimension map; unparseable output is returned as-is so a
// non-conforming reply still produces a usable summary.
func (tk *Toolkit) summariseText(ctx context.Context, content, dimensions string) (string, error) {
	raw, err := tk.generate(ctx, renderPrompt(summariseTextTemplate, dimensions, content))
	if err != nil {
		return "", err
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw, nil
	}
	var byDimension map[string]string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &byDimension); err != nil {
		return raw, nil
	}
	pretty, err := json.MarshalIndent(byDimension, "", "  ")
	if err != nil {
		return raw, nil
	}
	return string(pretty), nil
}

func (tk *Toolkit) generate(ctx context.Context, prompt string) (string, error) {
	if err := tk.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	text, err := model.GenerateText(ctx, tk.model, model.Request{
		Messages: []core.Message{core.UserMessage(prompt)},
	})
	if err != nil {
		tk.logger.Error("Analysis model call failed", "error", err.Error())
		return "", err
	}
	return text, nil
}
