package github

import (
	"context"
	"fmt"

	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/tool"
)

// Toolkit bundles the source repository tools over one GitHub client.
type Toolkit struct {
	client *Client
}

// NewToolkit creates a Toolkit backed by the given client.
func NewToolkit(client *Client) *Toolkit {
	return &Toolkit{client: client}
}

// Tools returns the toolkit's tools for registry registration.
func (tk *Toolkit) Tools() []tool.Tool {
	return []tool.Tool{
		tk.repoCommitsTool(),
		tk.repoPullRequestsTool(),
		tk.commitDetailsTool(),
	}
}

func (tk *Toolkit) repoCommitsTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"repo": map[string]any{
				"type":        "string",
				"description": "Repository in owner/repo form",
			},
			"since": map[string]any{
				"type":        "string",
				"description": "ISO 8601 date to start from",
			},
			"until": map[string]any{
				"type":        "string",
				"description": "ISO 8601 date to end at",
			},
			"author": map[string]any{
				"type":        "string",
				"description": "Filter by author GitHub username",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Filter by file path",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of commits to return",
			},
		},
		"required": []string{"repo"},
	}

	return tool.NewFunctionTool(
		"repo_commits",
		"List commits from a GitHub repository, optionally filtered by date "+
			"range, author or path. Stores the result set in shared data under "+
			"github.<owner/repo>.commits and returns that key.",
		params,
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			repo := util.StringArg(args, "repo", "")
			commits, err := tk.client.ListCommits(ctx, repo, CommitFilter{
				Since:  util.StringArg(args, "since", ""),
				Until:  util.StringArg(args, "until", ""),
				Author: util.StringArg(args, "author", ""),
				Path:   util.StringArg(args, "path", ""),
				Limit:  util.IntArg(args, "limit", 0),
			})
			if err != nil {
				return nil, err
			}

			set := CommitSet{Repo: repo, Commits: commits}
			content := fmt.Sprintf("Found %d commits in %s, stored under shared key %s",
				len(commits), repo, set.SharedKey())
			return &tool.Result{
				Content: content,
				Shared:  map[string]any{set.SharedKey(): set},
			}, nil
		},
	)
}

func (tk *Toolkit) repoPullRequestsTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"repo": map[string]any{
				"type":        "string",
				"description": "Repository in owner/repo form",
			},
			"state": map[string]any{
				"type":        "string",
				"description": "Pull request state filter: open, closed or all",
			},
			"since": map[string]any{
				"type":        "string",
				"description": "ISO 8601 date; drop pull requests not updated after it",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of pull requests to return",
			},
		},
		"required": []string{"repo"},
	}

	return tool.NewFunctionTool(
		"repo_pull_requests",
		"List pull requests from a GitHub repository, most recently updated "+
			"first. Stores the result set in shared data under "+
			"github.<owner/repo>.pulls and returns that key.",
		params,
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			repo := util.StringArg(args, "repo", "")
			pulls, err := tk.client.ListPullRequests(ctx, repo,
				util.StringArg(args, "state", "all"),
				util.StringArg(args, "since", ""),
				util.IntArg(args, "limit", 0),
			)
			if err != nil {
				return nil, err
			}

			set := PullRequestSet{Repo: repo, Pulls: pulls}
			content := fmt.Sprintf("Found %d pull requests in %s, stored under shared key %s",
				len(pulls), repo, set.SharedKey())
			return &tool.Result{
				Content: content,
				Shared:  map[string]any{set.SharedKey(): set},
			}, nil
		},
	)
}

func (tk *Toolkit) commitDetailsTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"repo": map[string]any{
				"type":        "string",
				"description": "Repository in owner/repo form",
			},
			"sha": map[string]any{
				"type":        "string",
				"description": "Commit SHA hash",
			},
		},
		"required": []string{"repo", "sha"},
	}

	return tool.NewFunctionTool(
		"commit_details",
		"Fetch a single commit with per-file changes. Stores the commit in "+
			"shared data under github.<owner/repo>.commit.<sha> and returns "+
			"that key.",
		params,
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			repo := util.StringArg(args, "repo", "")
			sha := util.StringArg(args, "sha", "")

			commit, err := tk.client.GetCommit(ctx, repo, sha)
			if err != nil {
				return nil, err
			}

			key := fmt.Sprintf("github.%s.commit.%s", repo, shortSHA(commit.SHA))
			content := fmt.Sprintf("Commit %s touches %d files (+%d -%d), stored under shared key %s",
				shortSHA(commit.SHA), len(commit.Files), commit.Additions, commit.Deletions, key)
			return &tool.Result{
				Content: content,
				Shared:  map[string]any{key: commit},
			}, nil
		},
	)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
