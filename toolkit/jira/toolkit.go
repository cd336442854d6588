package jira

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/tool"
)

// Toolkit bundles the ticket tracker tools over one Jira client.
type Toolkit struct {
	client *Client
}

// NewToolkit creates a Toolkit backed by the given client.
func NewToolkit(client *Client) *Toolkit {
	return &Toolkit{client: client}
}

// Tools returns the toolkit's tools for registry registration.
func (tk *Toolkit) Tools() []tool.Tool {
	return []tool.Tool{tk.ticketSearchTool()}
}

func (tk *Toolkit) ticketSearchTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"jql": map[string]any{
				"type":        "string",
				"description": "The JQL query string to execute",
			},
			"start": map[string]any{
				"type":        "integer",
				"description": "Starting index for pagination (0-based)",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of issues to return; fetch only as many as needed",
			},
		},
		"required": []string{"jql"},
	}

	return tool.NewFunctionTool(
		"ticket_search",
		"Execute a JQL (Jira Query Language) query to search for issues. "+
			"Stores every matching issue in shared data under jira.<KEY> and "+
			"returns the list of keys; pass those keys to analysis tools "+
			"instead of re-fetching.",
		params,
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			jql := util.StringArg(args, "jql", "")
			start := util.IntArg(args, "start", 0)
			limit := util.IntArg(args, "limit", 0)

			issues, err := tk.client.Search(ctx, jql, start, limit)
			if err != nil {
				return nil, err
			}
			if len(issues) == 0 {
				return &tool.Result{Content: "Found 0 issues"}, nil
			}

			shared := make(map[string]any, len(issues))
			keys := make([]string, 0, len(issues))
			for _, issue := range issues {
				shared[issue.SharedKey()] = issue
				keys = append(keys, issue.SharedKey())
			}

			content := fmt.Sprintf("Found %d issues, stored under shared keys: %s",
				len(issues), strings.Join(keys, ", "))
			return &tool.Result{Content: content, Shared: shared}, nil
		},
	)
}
