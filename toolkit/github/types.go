package github

import (
	"fmt"
	"strings"
)

// Signature identifies the person behind a commit.
type Signature struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Login string `json:"login"`
}

// CommitFile is one changed file in a commit detail.
type CommitFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// Commit is the parsed, analysis-ready view of a commit. Files is populated
// only for single-commit fetches.
type Commit struct {
	SHA       string       `json:"sha"`
	Message   string       `json:"message"`
	Author    Signature    `json:"author"`
	Committer Signature    `json:"committer"`
	Date      string       `json:"date"`
	URL       string       `json:"url"`
	Additions int          `json:"additions"`
	Deletions int          `json:"deletions"`
	Files     []CommitFile `json:"files,omitempty"`
}

// Document renders the commit as plain text for model consumption. Patches
// are omitted; file-level stats carry the shape of the change.
func (c Commit) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Commit: %s\n", c.SHA)
	fmt.Fprintf(&b, "Author: %s <%s>", c.Author.Name, c.Author.Email)
	if c.Author.Login != "" {
		fmt.Fprintf(&b, " (%s)", c.Author.Login)
	}
	b.WriteString("\n")
	if c.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", c.Date)
	}
	fmt.Fprintf(&b, "Message: %s\n", c.Message)
	if c.Additions > 0 || c.Deletions > 0 {
		fmt.Fprintf(&b, "Changes: +%d -%d\n", c.Additions, c.Deletions)
	}
	if len(c.Files) > 0 {
		fmt.Fprintf(&b, "Files (%d):\n", len(c.Files))
		for _, f := range c.Files {
			fmt.Fprintf(&b, "  - %s (%s, +%d -%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
		}
	}
	return b.String()
}

// CommitSet is a listing result kept in shared data as one payload.
type CommitSet struct {
	Repo    string   `json:"repo"`
	Commits []Commit `json:"commits"`
}

// SharedKey returns the shared-data namespace key this set is stored under.
func (s CommitSet) SharedKey() string { return "github." + s.Repo + ".commits" }

// Document renders every commit in the set.
func (s CommitSet) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Commits for %s (%d):\n\n", s.Repo, len(s.Commits))
	for _, c := range s.Commits {
		b.WriteString(c.Document())
		b.WriteString("\n")
	}
	return b.String()
}

// PullRequest is the parsed, analysis-ready view of a pull request.
type PullRequest struct {
	Number             int      `json:"number"`
	Title              string   `json:"title"`
	Body               string   `json:"body"`
	State              string   `json:"state"`
	Merged             bool     `json:"merged"`
	Author             string   `json:"author"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
	MergedAt           string   `json:"merged_at,omitempty"`
	ClosedAt           string   `json:"closed_at,omitempty"`
	URL                string   `json:"url"`
	HeadRef            string   `json:"head_ref"`
	BaseRef            string   `json:"base_ref"`
	Labels             []string `json:"labels"`
	Assignees          []string `json:"assignees"`
	RequestedReviewers []string `json:"requested_reviewers"`
}

// Document renders the pull request as plain text for model consumption.
func (p PullRequest) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PR #%d: %s\n", p.Number, p.Title)
	fmt.Fprintf(&b, "State: %s", p.State)
	if p.Merged {
		b.WriteString(" (merged)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Author: %s\n", p.Author)
	fmt.Fprintf(&b, "Branch: %s -> %s\n", p.HeadRef, p.BaseRef)
	fmt.Fprintf(&b, "Created: %s, Updated: %s\n", p.CreatedAt, p.UpdatedAt)
	if len(p.Labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(p.Labels, ", "))
	}
	if p.Body != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Body)
	}
	return b.String()
}

// PullRequestSet is a listing result kept in shared data as one payload.
type PullRequestSet struct {
	Repo  string        `json:"repo"`
	Pulls []PullRequest `json:"pulls"`
}

// SharedKey returns the shared-data namespace key this set is stored under.
func (s PullRequestSet) SharedKey() string { return "github." + s.Repo + ".pulls" }

// Document renders every pull request in the set.
func (s PullRequestSet) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pull requests for %s (%d):\n\n", s.Repo, len(s.Pulls))
	for _, p := range s.Pulls {
		b.WriteString(p.Document())
		b.WriteString("\n")
	}
	return b.String()
}

// Wire types mirror the relevant subset of GitHub's REST responses.

type wireCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Date  string `json:"date"`
		} `json:"author"`
		Committer struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"committer"`
	} `json:"commit"`
	Author    *wireLogin `json:"author"`
	Committer *wireLogin `json:"committer"`
	Stats     struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
	Files []CommitFile `json:"files"`
}

type wireLogin struct {
	Login string `json:"login"`
}

func (w wireCommit) toCommit() Commit {
	commit := Commit{
		SHA:     w.SHA,
		Message: w.Commit.Message,
		Author: Signature{
			Name:  w.Commit.Author.Name,
			Email: w.Commit.Author.Email,
		},
		Committer: Signature{
			Name:  w.Commit.Committer.Name,
			Email: w.Commit.Committer.Email,
		},
		Date:      w.Commit.Author.Date,
		URL:       w.HTMLURL,
		Additions: w.Stats.Additions,
		Deletions: w.Stats.Deletions,
		Files:     w.Files,
	}
	if w.Author != nil {
		commit.Author.Login = w.Author.Login
	}
	if w.Committer != nil {
		commit.Committer.Login = w.Committer.Login
	}
	return commit
}

type wirePullRequest struct {
	Number             int         `json:"number"`
	Title              string      `json:"title"`
	Body               string      `json:"body"`
	State              string      `json:"state"`
	User               wireLogin   `json:"user"`
	CreatedAt          string      `json:"created_at"`
	UpdatedAt          string      `json:"updated_at"`
	MergedAt           string      `json:"merged_at"`
	ClosedAt           string      `json:"closed_at"`
	HTMLURL            string      `json:"html_url"`
	Head               wireRef     `json:"head"`
	Base               wireRef     `json:"base"`
	Labels             []wireName  `json:"labels"`
	Assignees          []wireLogin `json:"assignees"`
	RequestedReviewers []wireLogin `json:"requested_reviewers"`
}

type wireRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type wireName struct {
	Name string `json:"name"`
}

func (w wirePullRequest) toPullRequest() PullRequest {
	labels := make([]string, 0, len(w.Labels))
	for _, l := range w.Labels {
		labels = append(labels, l.Name)
	}
	return PullRequest{
		Number:             w.Number,
		Title:              w.Title,
		Body:               w.Body,
		State:              w.State,
		Merged:             w.MergedAt != "",
		Author:             w.User.Login,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
		MergedAt:           w.MergedAt,
		ClosedAt:           w.ClosedAt,
		URL:                w.HTMLURL,
		HeadRef:            w.Head.Ref,
		BaseRef:            w.Base.Ref,
		Labels:             labels,
		Assignees:          logins(w.Assignees),
		RequestedReviewers: logins(w.RequestedReviewers),
	}
}

func logins(items []wireLogin) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Login)
	}
	return out
}
