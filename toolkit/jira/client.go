package jira

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const searchPath = "/rest/api/2/search"

// ClientOptions configure a Client.
type ClientOptions struct {
	// Username for basic auth, typically the account email.
	Username string

	// APIToken for basic auth.
	APIToken string

	// HTTPClient overrides the underlying resty client, mainly for tests.
	HTTPClient *resty.Client
}

// Client is a thin read-only wrapper over the Jira search API.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client for the given Jira instance URL.
func NewClient(instanceURL string, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = resty.New()
	}
	httpClient.SetBaseURL(instanceURL)
	httpClient.SetHeader("Accept", "application/json")
	if opts.Username != "" || opts.APIToken != "" {
		httpClient.SetBasicAuth(opts.Username, opts.APIToken)
	}

	return &Client{http: httpClient}
}

// Search runs a JQL query and returns the parsed issues. The start and limit
// arguments map to Jira's pagination parameters; limit <= 0 uses the server
// default page size.
func (c *Client) Search(ctx context.Context, jql string, start, limit int) ([]Issue, error) {
	var result searchResponse

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("jql", jql).
		SetQueryParam("fields", "*all").
		SetResult(&result)
	if start > 0 {
		req.SetQueryParam("startAt", strconv.Itoa(start))
	}
	if limit > 0 {
		req.SetQueryParam("maxResults", strconv.Itoa(limit))
	}

	resp, err := req.Get(searchPath)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("jira search: status %d: %s", resp.StatusCode(), resp.String())
	}

	issues := make([]Issue, 0, len(result.Issues))
	for _, wire := range result.Issues {
		issues = append(issues, wire.toIssue())
	}
	return issues, nil
}
