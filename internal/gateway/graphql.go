package gateway

import (
	"context"
	"fmt"

	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/shurcooL/githubv4"
)

// pullRequestDetailQuery fetches the size metadata of a single pull request.
type pullRequestDetailQuery struct {
	Repository struct {
		PullRequest struct {
			Title          string
			URL            string `graphql:"url"`
			Additions      int
			Deletions      int
			CreatedAt      githubv4.DateTime
			MergedAt       *githubv4.DateTime
			BaseRepository struct {
				NameWithOwner string
			}
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

func (g *GitHubGateway) fetchDetailGraphQL(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
	variables := map[string]interface{}{
		"owner":  githubv4.String(c.Owner()),
		"name":   githubv4.String(c.Name()),
		"number": githubv4.Int(c.Number),
	}

	var q pullRequestDetailQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return domain.PullRequestDetail{}, fmt.Errorf("failed to fetch %s#%d with GraphQL: %w", c.Repository, c.Number, classify(err))
	}

	pr := q.Repository.PullRequest
	detail := domain.PullRequestDetail{
		Title:      pr.Title,
		URL:        pr.URL,
		Repository: pr.BaseRepository.NameWithOwner,
		Additions:  pr.Additions,
		Deletions:  pr.Deletions,
		CreatedAt:  pr.CreatedAt.Time,
	}
	if detail.Repository == "" {
		detail.Repository = c.Repository
	}
	if pr.MergedAt != nil && !pr.MergedAt.IsZero() {
		mergedAt := pr.MergedAt.Time
		detail.MergedAt = &mergedAt
	}
	return detail, nil
}
