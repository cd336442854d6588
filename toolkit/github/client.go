package github

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultAPIURL is the public GitHub REST endpoint. Override for GitHub
// Enterprise instances.
const DefaultAPIURL = "https://api.github.com"

// ClientOptions configure a Client.
type ClientOptions struct {
	// Token is a personal access token. Empty means unauthenticated access,
	// which GitHub rate limits aggressively.
	Token string

	// HTTPClient overrides the underlying resty client, mainly for tests.
	HTTPClient *resty.Client
}

// Client is a thin read-only wrapper over the GitHub commits and pulls APIs.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client for the given API base URL.
func NewClient(apiURL string, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = resty.New()
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient.SetBaseURL(apiURL)
	httpClient.SetHeader("Accept", "application/vnd.github+json")
	if opts.Token != "" {
		httpClient.SetAuthToken(opts.Token)
	}

	return &Client{http: httpClient}
}

// CommitFilter narrows a commit listing. Zero values mean no filtering.
type CommitFilter struct {
	Since  string // ISO 8601 lower bound on commit date
	Until  string // ISO 8601 upper bound on commit date
	Author string // GitHub username
	Path   string // restrict to commits touching this path
	Limit  int    // maximum commits to return; <= 0 uses the default of 30
}

// ListCommits fetches commits for a repository in "owner/repo" form.
func (c *Client) ListCommits(ctx context.Context, repo string, filter CommitFilter) ([]Commit, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 30
	}

	var result []wireCommit
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("per_page", strconv.Itoa(limit)).
		SetResult(&result)
	if filter.Since != "" {
		req.SetQueryParam("since", filter.Since)
	}
	if filter.Until != "" {
		req.SetQueryParam("until", filter.Until)
	}
	if filter.Author != "" {
		req.SetQueryParam("author", filter.Author)
	}
	if filter.Path != "" {
		req.SetQueryParam("path", filter.Path)
	}

	resp, err := req.Get("/repos/" + repo + "/commits")
	if err != nil {
		return nil, fmt.Errorf("github commits: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github commits: status %d: %s", resp.StatusCode(), resp.String())
	}

	commits := make([]Commit, 0, len(result))
	for _, wire := range result {
		commits = append(commits, wire.toCommit())
	}
	return commits, nil
}

// GetCommit fetches a single commit with per-file changes included.
func (c *Client) GetCommit(ctx context.Context, repo, sha string) (Commit, error) {
	var result wireCommit
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/repos/" + repo + "/commits/" + sha)
	if err != nil {
		return Commit{}, fmt.Errorf("github commit %s: %w", sha, err)
	}
	if resp.IsError() {
		return Commit{}, fmt.Errorf("github commit %s: status %d: %s", sha, resp.StatusCode(), resp.String())
	}
	return result.toCommit(), nil
}

// ListPullRequests fetches pull requests sorted by most recent update.
// The since argument, when set, drops pull requests not updated after the
// given ISO 8601 instant; GitHub's list endpoint has no server-side since
// filter so this is applied locally.
func (c *Client) ListPullRequests(ctx context.Context, repo, state, since string, limit int) ([]PullRequest, error) {
	if state == "" {
		state = "all"
	}
	if limit <= 0 {
		limit = 30
	}

	var result []wirePullRequest
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("state", state).
		SetQueryParam("sort", "updated").
		SetQueryParam("direction", "desc").
		SetQueryParam("per_page", strconv.Itoa(limit)).
		SetResult(&result).
		Get("/repos/" + repo + "/pulls")
	if err != nil {
		return nil, fmt.Errorf("github pulls: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github pulls: status %d: %s", resp.StatusCode(), resp.String())
	}

	var cutoff time.Time
	if since != "" {
		cutoff, err = time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, fmt.Errorf("github pulls: invalid since %q: %w", since, err)
		}
	}

	pulls := make([]PullRequest, 0, len(result))
	for _, wire := range result {
		pr := wire.toPullRequest()
		if !cutoff.IsZero() {
			updated, err := time.Parse(time.RFC3339, pr.UpdatedAt)
			if err != nil || updated.Before(cutoff) {
				continue
			}
		}
		pulls = append(pulls, pr)
	}
	return pulls, nil
}
