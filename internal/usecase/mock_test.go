package usecase

import (
	"context"

	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/naka-gawa/pr-size-audit/internal/gateway"
	"github.com/stretchr/testify/mock"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) SearchPullRequests(ctx context.Context, q gateway.SearchQuery) ([]domain.Candidate, error) {
	args := m.Called(ctx, q)
	// The returned slice is nil when an error is simulated.
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *mockFetcher) FetchPullRequestDetail(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.PullRequestDetail), args.Error(1)
}

// detailFunc adapts a function to gateway.DetailFetcher.
type detailFunc func(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error)

func (f detailFunc) FetchPullRequestDetail(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
	return f(ctx, c)
}
