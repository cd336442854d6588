package jira

import (
	"fmt"
	"strconv"
	"strings"
)

// Comment is one issue comment.
type Comment struct {
	Author  string `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

// Issue is the parsed, analysis-ready view of a Jira issue. Time fields keep
// Jira's ISO 8601 strings; estimates are rendered in hours.
type Issue struct {
	Key             string    `json:"key"`
	Summary         string    `json:"summary"`
	Status          string    `json:"status"`
	Priority        string    `json:"priority"`
	IssueType       string    `json:"issue_type"`
	Description     string    `json:"description"`
	Assignee        string    `json:"assignee"`
	Reporter        string    `json:"reporter"`
	Labels          []string  `json:"labels"`
	Components      []string  `json:"components"`
	AffectsVersions []string  `json:"affects_versions"`
	Flags           []string  `json:"flags"`
	Comments        []Comment `json:"comments"`
	Created         string    `json:"created"`
	Updated         string    `json:"updated"`

	// OriginalEstimate and RemainingEstimate are aggregate estimates
	// rendered as "Xh".
	OriginalEstimate  string `json:"original_estimate"`
	RemainingEstimate string `json:"remaining_estimate"`
	Progress          string `json:"progress"`
}

// SharedKey returns the shared-data namespace key this issue is stored under.
func (i Issue) SharedKey() string { return "jira." + i.Key }

// Document renders the issue as plain text for model consumption. Comments
// are included in full since they usually carry the engineering discussion
// analysis cares about.
func (i Issue) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Key: %s\n", i.Key)
	fmt.Fprintf(&b, "Summary: %s\n", orNA(i.Summary))
	fmt.Fprintf(&b, "Status: %s\n", orNA(i.Status))
	fmt.Fprintf(&b, "Priority: %s\n", orNA(i.Priority))
	if i.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", i.Description)
	}
	if len(i.Comments) > 0 {
		fmt.Fprintf(&b, "Comments (%d):\n", len(i.Comments))
		for _, c := range i.Comments {
			author := c.Author
			if author == "" {
				author = "Unknown"
			}
			fmt.Fprintf(&b, "  - %s: %s\n", author, c.Body)
		}
	}
	if len(i.Labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(i.Labels, ", "))
	}
	if len(i.Components) > 0 {
		fmt.Fprintf(&b, "Components: %s\n", strings.Join(i.Components, ", "))
	}
	if len(i.AffectsVersions) > 0 {
		fmt.Fprintf(&b, "Affects Versions: %s\n", strings.Join(i.AffectsVersions, ", "))
	}
	if len(i.Flags) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n", strings.Join(i.Flags, ", "))
	}
	if i.IssueType != "" {
		fmt.Fprintf(&b, "Issue Type: %s\n", i.IssueType)
	}
	if i.Updated != "" {
		fmt.Fprintf(&b, "Updated: %s\n", i.Updated)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Wire types mirror the relevant subset of Jira's search response.

type searchResponse struct {
	Total  int         `json:"total"`
	Issues []wireIssue `json:"issues"`
}

type wireIssue struct {
	Key    string     `json:"key"`
	Fields wireFields `json:"fields"`
}

type wireFields struct {
	Summary     string      `json:"summary"`
	Description string      `json:"description"`
	Status      wireNamed   `json:"status"`
	Priority    wireNamed   `json:"priority"`
	IssueType   wireNamed   `json:"issuetype"`
	Assignee    wireUser    `json:"assignee"`
	Reporter    wireUser    `json:"reporter"`
	Labels      []string    `json:"labels"`
	Components  []wireNamed `json:"components"`
	Versions    []wireNamed `json:"versions"`
	Created     string      `json:"created"`
	Updated     string      `json:"updated"`

	Comment struct {
		Comments []wireComment `json:"comments"`
	} `json:"comment"`

	// Flag values live in a custom field on the instances this was built
	// against.
	Flags []wireValued `json:"customfield_12310250"`

	OriginalEstimateSeconds  int64 `json:"aggregatetimeoriginalestimate"`
	RemainingEstimateSeconds int64 `json:"timeestimate"`
	Progress                 struct {
		Progress int64 `json:"progress"`
	} `json:"progress"`
}

type wireNamed struct {
	Name string `json:"name"`
}

type wireValued struct {
	Value string `json:"value"`
}

type wireUser struct {
	DisplayName string `json:"displayName"`
}

type wireComment struct {
	Author  wireUser `json:"author"`
	Body    string   `json:"body"`
	Created string   `json:"created"`
}

func (w wireIssue) toIssue() Issue {
	f := w.Fields

	comments := make([]Comment, 0, len(f.Comment.Comments))
	for _, c := range f.Comment.Comments {
		comments = append(comments, Comment{
			Author:  c.Author.DisplayName,
			Body:    c.Body,
			Created: c.Created,
		})
	}

	return Issue{
		Key:               w.Key,
		Summary:           f.Summary,
		Status:            f.Status.Name,
		Priority:          f.Priority.Name,
		IssueType:         f.IssueType.Name,
		Description:       f.Description,
		Assignee:          f.Assignee.DisplayName,
		Reporter:          f.Reporter.DisplayName,
		Labels:            f.Labels,
		Components:        names(f.Components),
		AffectsVersions:   names(f.Versions),
		Flags:             values(f.Flags),
		Comments:          comments,
		Created:           f.Created,
		Updated:           f.Updated,
		OriginalEstimate:  hours(f.OriginalEstimateSeconds),
		RemainingEstimate: hours(f.RemainingEstimateSeconds),
		Progress:          hours(f.Progress.Progress),
	}
}

func names(items []wireNamed) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func values(items []wireValued) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Value)
	}
	return out
}

// hours renders a seconds value as "Xh", trimming trailing zeros.
func hours(seconds int64) string {
	return strconv.FormatFloat(float64(seconds)/3600, 'f', -1, 64) + "h"
}
