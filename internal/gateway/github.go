// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
)

// Detail APIs supported by FetchPullRequestDetail.
const (
	DetailAPIREST    = "rest"
	DetailAPIGraphQL = "graphql"
)

// SearchQuery describes the single search request issued per audit.
type SearchQuery struct {
	Author string
	// Org restricts results to one organization when non-empty.
	Org     string
	PerPage int
}

// String builds the GitHub search qualifier string.
func (q SearchQuery) String() string {
	query := fmt.Sprintf("author:%s type:pr is:public is:merged", q.Author)
	if q.Org != "" {
		query += " org:" + q.Org
	}
	return query
}

// Searcher finds candidate pull requests for an author.
type Searcher interface {
	SearchPullRequests(ctx context.Context, q SearchQuery) ([]domain.Candidate, error)
}

// DetailFetcher fetches the exact size metadata of one pull request.
type DetailFetcher interface {
	FetchPullRequestDetail(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error)
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	Searcher
	DetailFetcher
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	detailAPI     string
	logger        *zap.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *zap.Logger) (*GitHubGateway, error) {
	httpClient, err := newHTTPClient(opts, logger)
	if err != nil {
		return nil, err
	}

	restClient := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", opts.BaseURL, err)
		}
		restClient.BaseURL = baseURL
	}

	// The GraphQL client only reports non-200 responses as plain text, so it gets
	// a transport that keeps the status code inspectable.
	graphqlHTTPClient := &http.Client{
		Transport: &statusTransport{base: httpClient.Transport},
		Timeout:   httpClient.Timeout,
	}
	var graphqlClient *githubv4.Client
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, graphqlHTTPClient)
	} else {
		graphqlClient = githubv4.NewClient(graphqlHTTPClient)
	}

	detailAPI := opts.DetailAPI
	if detailAPI == "" {
		detailAPI = DetailAPIREST
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		detailAPI:     detailAPI,
		logger:        logger,
	}, nil
}

// SearchPullRequests issues one search request and returns the candidates that
// are pull requests and, when org-scoped, live in that organization.
// Only the first page is read.
func (g *GitHubGateway) SearchPullRequests(ctx context.Context, q SearchQuery) ([]domain.Candidate, error) {
	query := q.String()
	g.logger.Debug("searching pull requests", zap.String("query", query), zap.Int("per_page", q.PerPage))

	opts := &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: q.PerPage},
	}
	result, _, err := g.restClient.Search.Issues(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search pull requests: %w", classify(err))
	}

	candidates := make([]domain.Candidate, 0, len(result.Issues))
	for _, item := range result.Issues {
		links := item.GetPullRequestLinks()
		if links.GetURL() == "" {
			continue // Not a pull request.
		}
		if q.Org != "" && !inOrg(item.GetRepositoryURL(), q.Org) {
			continue
		}

		labels := make([]string, 0, len(item.Labels))
		for _, label := range item.Labels {
			labels = append(labels, label.GetName())
		}

		candidates = append(candidates, domain.Candidate{
			Title:      item.GetTitle(),
			URL:        item.GetHTMLURL(),
			Repository: repoFromURL(item.GetRepositoryURL()),
			Number:     item.GetNumber(),
			Labels:     labels,
			CreatedAt:  item.GetCreatedAt().Time,
			MergedAt:   timePtr(links.MergedAt),
		})
	}

	g.logger.Debug("search complete",
		zap.Int("items", len(result.Issues)),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// FetchPullRequestDetail fetches additions, deletions and merge time of one PR
// through the configured detail API.
func (g *GitHubGateway) FetchPullRequestDetail(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
	if g.detailAPI == DetailAPIGraphQL {
		return g.fetchDetailGraphQL(ctx, c)
	}
	return g.fetchDetailREST(ctx, c)
}

func (g *GitHubGateway) fetchDetailREST(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
	pr, _, err := g.restClient.PullRequests.Get(ctx, c.Owner(), c.Name(), c.Number)
	if err != nil {
		return domain.PullRequestDetail{}, fmt.Errorf("failed to fetch %s#%d: %w", c.Repository, c.Number, classify(err))
	}

	repository := pr.GetBase().GetRepo().GetFullName()
	if repository == "" {
		repository = c.Repository
	}
	return domain.PullRequestDetail{
		Title:      pr.GetTitle(),
		URL:        pr.GetHTMLURL(),
		Repository: repository,
		Additions:  pr.GetAdditions(),
		Deletions:  pr.GetDeletions(),
		CreatedAt:  pr.GetCreatedAt().Time,
		MergedAt:   timePtr(pr.MergedAt),
	}, nil
}

// inOrg reports whether a repository API URL belongs to org. Org names are case-insensitive.
func inOrg(repositoryURL, org string) bool {
	return strings.Contains(strings.ToLower(repositoryURL), "/repos/"+strings.ToLower(org)+"/")
}

// repoFromURL turns "https://api.github.com/repos/owner/name" into "owner/name".
// Unparseable input is returned unchanged.
func repoFromURL(repositoryURL string) string {
	u, err := url.Parse(repositoryURL)
	if err != nil {
		return repositoryURL
	}
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "repos" {
			return parts[i+1] + "/" + parts[i+2]
		}
	}
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "/" + parts[len(parts)-1]
	}
	return repositoryURL
}

func timePtr(ts *github.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}
