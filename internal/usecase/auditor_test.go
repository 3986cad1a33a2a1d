package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/naka-gawa/pr-size-audit/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLabelAuditor(fetcher *mockFetcher, opts AuditorOptions) *Auditor {
	return NewAuditor(fetcher, NewLabelResolver(zap.NewNop()), opts, zap.NewNop())
}

// TestAuditor_RunErrors uses a table-driven approach to test the failure paths of an audit.
func TestAuditor_RunErrors(t *testing.T) {
	testCases := []struct {
		name           string
		username       string
		org            string
		candidates     []domain.Candidate
		searchErr      error
		expectSearch   bool
		expectedErr    error
		expectedErrMsg string
	}{
		{
			name:        "empty username",
			username:    "   ",
			expectedErr: domain.ErrEmptyUsername,
		},
		{
			name:        "username with inner whitespace",
			username:    "octo cat",
			expectedErr: domain.ErrInvalidUsername,
		},
		{
			name:           "no search results",
			username:       "octocat",
			candidates:     []domain.Candidate{},
			expectSearch:   true,
			expectedErr:    domain.ErrNoPullRequests,
			expectedErrMsg: "no public merged PRs found for octocat",
		},
		{
			name:           "no search results in org",
			username:       "octocat",
			org:            "MetaMask",
			candidates:     []domain.Candidate{},
			expectSearch:   true,
			expectedErr:    domain.ErrNoPullRequests,
			expectedErrMsg: "for octocat in MetaMask repositories",
		},
		{
			name:         "search rate limited",
			username:     "octocat",
			searchErr:    fmt.Errorf("failed to search pull requests: %w", domain.ErrRateLimited),
			expectSearch: true,
			expectedErr:  domain.ErrRateLimited,
		},
		{
			name:           "no size labels",
			username:       "octocat",
			candidates:     []domain.Candidate{candidate(1, "bug"), candidate(2)},
			expectSearch:   true,
			expectedErr:    domain.ErrNoSizeData,
			expectedErrMsg: "size labels",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := new(mockFetcher)
			if tc.expectSearch {
				var candidates interface{}
				if tc.candidates != nil {
					candidates = tc.candidates
				}
				fetcher.On("SearchPullRequests", mock.Anything, gateway.SearchQuery{Author: "octocat", Org: tc.org, PerPage: 100}).
					Return(candidates, tc.searchErr)
			}

			result, err := newLabelAuditor(fetcher, AuditorOptions{Org: tc.org}).Run(context.Background(), tc.username)

			assert.Nil(t, result)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)
			if tc.expectedErrMsg != "" {
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			}
			fetcher.AssertExpectations(t)
		})
	}
}

func TestAuditor_RunLabelStrategySingleMediumPR(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("SearchPullRequests", mock.Anything, gateway.SearchQuery{Author: "octocat", Org: "MetaMask", PerPage: 100}).
		Return([]domain.Candidate{candidate(1, "size-m")}, nil)

	result, err := newLabelAuditor(fetcher, AuditorOptions{Org: "MetaMask"}).Run(context.Background(), "  octocat ")
	require.NoError(t, err)

	assert.Equal(t, "octocat", result.Username)
	assert.Equal(t, 1, result.TotalPRs)
	assert.Equal(t, domain.Representative(domain.BucketMD), result.AverageSize)
	assert.Equal(t, domain.Representative(domain.BucketMD), result.PRs[0].LinesChanged)
	assert.Equal(t, map[domain.Bucket]int{
		domain.BucketXS: 0, domain.BucketSM: 0, domain.BucketMD: 1, domain.BucketLG: 0, domain.BucketXL: 0,
	}, result.Buckets)
	assert.Equal(t, domain.VerdictGood, result.Verdict)
	assert.Equal(t, Reason(domain.VerdictGood), result.Reason)
	assert.Equal(t, "MetaMask", result.Scope)
	assert.Equal(t, StrategyLabels, result.Strategy)
	assert.Equal(t, PolicyRatio, result.Policy)
	fetcher.AssertExpectations(t)
}

func TestAuditor_RunDirectStrategyUnmergedOnly(t *testing.T) {
	c := candidate(1)
	fetcher := new(mockFetcher)
	fetcher.On("SearchPullRequests", mock.Anything, mock.Anything).Return([]domain.Candidate{c}, nil)
	fetcher.On("FetchPullRequestDetail", mock.Anything, c).
		Return(domain.PullRequestDetail{Additions: 800, Deletions: 300}, nil)

	auditor := NewAuditor(fetcher, NewDetailResolver(fetcher, 8, zap.NewNop()), AuditorOptions{}, zap.NewNop())
	result, err := auditor.Run(context.Background(), "octocat")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNoSizeData)
	fetcher.AssertExpectations(t)
}

func TestAuditor_RunDirectStrategy(t *testing.T) {
	candidates := []domain.Candidate{candidate(1), candidate(2), candidate(3)}
	lines := []int{4, 1500, 90}

	fetcher := new(mockFetcher)
	fetcher.On("SearchPullRequests", mock.Anything, mock.Anything).Return(candidates, nil)
	for i, c := range candidates {
		fetcher.On("FetchPullRequestDetail", mock.Anything, c).Return(domain.PullRequestDetail{
			Title: c.Title, URL: c.URL, Repository: c.Repository,
			Additions: lines[i], CreatedAt: c.CreatedAt, MergedAt: merged(),
		}, nil)
	}

	auditor := NewAuditor(fetcher, NewDetailResolver(fetcher, 2, zap.NewNop()), AuditorOptions{
		Scheme: domain.SixBucketScheme,
		Policy: MajorityPolicy{},
	}, zap.NewNop())
	result, err := auditor.Run(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalPRs)
	assert.Equal(t, 531, result.AverageSize) // 1594 / 3 = 531.33
	assert.Equal(t, 90, result.MedianSize)
	assert.Equal(t, 1, result.Buckets[domain.BucketXS])
	assert.Equal(t, 1, result.Buckets[domain.BucketSM])
	assert.Equal(t, 1, result.Buckets[domain.BucketXL])
	assert.Equal(t, 0, result.Buckets[domain.BucketXXL])
	assert.Len(t, result.Buckets, 6)
	assert.Equal(t, domain.VerdictGood, result.Verdict)
	assert.Equal(t, StrategyDirect, result.Strategy)
	assert.Equal(t, PolicyMajority, result.Policy)
	assert.Empty(t, result.Scope)
	for i, pr := range result.PRs {
		assert.Equal(t, candidates[i].URL, pr.URL)
	}
}

func TestAuditor_RunInvariants(t *testing.T) {
	labels := []string{"size-xs", "size-s", "size-m", "size-l", "size-xl", "bug", "size-s", "size-xl", "size-m", "size-m"}
	candidates := make([]domain.Candidate, 0, len(labels))
	for i, label := range labels {
		candidates = append(candidates, candidate(i+1, label))
	}

	fetcher := new(mockFetcher)
	fetcher.On("SearchPullRequests", mock.Anything, mock.Anything).Return(candidates, nil)
	auditor := newLabelAuditor(fetcher, AuditorOptions{})

	result, err := auditor.Run(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, 9, result.TotalPRs)
	assert.Equal(t, result.TotalPRs, len(result.PRs))
	assert.Equal(t, result.TotalPRs, sum(result.Buckets))
	for _, count := range result.Buckets {
		assert.GreaterOrEqual(t, count, 0)
	}

	totalLines := 0
	for _, pr := range result.PRs {
		totalLines += pr.LinesChanged
	}
	assert.Equal(t, int(math.Round(float64(totalLines)/float64(result.TotalPRs))), result.AverageSize)

	// 2 xl out of 9 is over 15%.
	assert.Equal(t, domain.VerdictTooBig, result.Verdict)
	assert.Equal(t, Reason(domain.VerdictTooBig), result.Reason)

	// The same upstream data always yields the same report.
	again, err := auditor.Run(context.Background(), "octocat")
	require.NoError(t, err)
	first, err := json.Marshal(result)
	require.NoError(t, err)
	second, err := json.Marshal(again)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestAuditor_RunRatioPolicyBoundary(t *testing.T) {
	// 20 PRs, 3 of them xl: exactly 15%.
	candidates := make([]domain.Candidate, 0, 20)
	for n := 1; n <= 20; n++ {
		label := "size-xs"
		if n <= 3 {
			label = "size-xl"
		}
		candidates = append(candidates, candidate(n, label))
	}

	fetcher := new(mockFetcher)
	fetcher.On("SearchPullRequests", mock.Anything, mock.Anything).Return(candidates, nil)

	result, err := newLabelAuditor(fetcher, AuditorOptions{}).Run(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, 20, result.TotalPRs)
	assert.Equal(t, 3, result.Buckets[domain.BucketXL])
	assert.Equal(t, domain.VerdictTooBig, result.Verdict)
}
