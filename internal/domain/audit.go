// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"strings"
	"time"
)

// Verdict is the final judgment derived from the bucket distribution.
type Verdict string

const (
	VerdictGood   Verdict = "good"
	VerdictTooBig Verdict = "too-big"
)

// Candidate is a search result that passed the pull-request and org filters
// but has not been size-classified yet.
type Candidate struct {
	Title      string
	URL        string
	Repository string // owner/name
	Number     int
	Labels     []string
	CreatedAt  time.Time
	MergedAt   *time.Time
}

// Owner returns the owner part of the candidate's repository.
func (c Candidate) Owner() string {
	owner, _ := splitRepository(c.Repository)
	return owner
}

// Name returns the name part of the candidate's repository.
func (c Candidate) Name() string {
	_, name := splitRepository(c.Repository)
	return name
}

func splitRepository(fullName string) (string, string) {
	owner, name, _ := strings.Cut(fullName, "/")
	return owner, name
}

// PullRequestDetail is the per-PR metadata carrying exact addition and deletion counts.
type PullRequestDetail struct {
	Title      string
	URL        string
	Repository string
	Additions  int
	Deletions  int
	CreatedAt  time.Time
	MergedAt   *time.Time
}

// LinesChanged is additions plus deletions.
func (d PullRequestDetail) LinesChanged() int {
	return d.Additions + d.Deletions
}

// PullRequestSummary is one audited pull request.
type PullRequestSummary struct {
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Repository   string     `json:"repository"`
	LinesChanged int        `json:"lines_changed"`
	CreatedAt    time.Time  `json:"created_at"`
	MergedAt     *time.Time `json:"merged_at"`
}

// AuditResult is the report produced by one audit. It is never mutated after construction.
type AuditResult struct {
	Username    string               `json:"username"`
	TotalPRs    int                  `json:"total_prs"`
	AverageSize int                  `json:"average_size"`
	MedianSize  int                  `json:"median_size"`
	Buckets     map[Bucket]int       `json:"buckets"`
	PRs         []PullRequestSummary `json:"prs"`
	Verdict     Verdict              `json:"verdict"`
	Reason      string               `json:"reason"`
	Scope       string               `json:"scope,omitempty"`
	Strategy    string               `json:"strategy"`
	Policy      string               `json:"policy"`
}
