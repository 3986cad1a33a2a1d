package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func candidate(n int, labels ...string) domain.Candidate {
	return domain.Candidate{
		Title:      fmt.Sprintf("PR %d", n),
		URL:        fmt.Sprintf("https://github.com/acme/app/pull/%d", n),
		Repository: "acme/app",
		Number:     n,
		Labels:     labels,
		CreatedAt:  time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC),
	}
}

func merged() *time.Time {
	t := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestLabelResolver_Resolve(t *testing.T) {
	resolver := NewLabelResolver(zap.NewNop())

	summaries, err := resolver.Resolve(context.Background(), []domain.Candidate{
		candidate(1, "size-m"),
		candidate(2, "bug"),
		candidate(3, " Size-XS "),
		candidate(4),
		candidate(5, "size-xl"),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "PR 1", summaries[0].Title)
	assert.Equal(t, domain.Representative(domain.BucketMD), summaries[0].LinesChanged)
	assert.Equal(t, "PR 3", summaries[1].Title)
	assert.Equal(t, domain.Representative(domain.BucketXS), summaries[1].LinesChanged)
	assert.Equal(t, "PR 5", summaries[2].Title)
	assert.Equal(t, domain.Representative(domain.BucketXL), summaries[2].LinesChanged)
	assert.Equal(t, "acme/app", summaries[2].Repository)
}

func TestDetailResolver_PreservesOrderAndBoundsConcurrency(t *testing.T) {
	const workers = 3
	candidates := make([]domain.Candidate, 0, 12)
	for n := 1; n <= 12; n++ {
		candidates = append(candidates, candidate(n))
	}

	var inFlight, maxInFlight atomic.Int64
	fetcher := detailFunc(func(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			seen := maxInFlight.Load()
			if current <= seen || maxInFlight.CompareAndSwap(seen, current) {
				break
			}
		}
		// Earlier PRs finish last.
		time.Sleep(time.Duration(13-c.Number) * time.Millisecond)
		return domain.PullRequestDetail{
			Title:      c.Title,
			URL:        c.URL,
			Repository: c.Repository,
			Additions:  c.Number * 10,
			Deletions:  1,
			CreatedAt:  c.CreatedAt,
			MergedAt:   merged(),
		}, nil
	})

	resolver := NewDetailResolver(fetcher, workers, zap.NewNop())
	summaries, err := resolver.Resolve(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, summaries, len(candidates))

	for i, s := range summaries {
		assert.Equal(t, candidates[i].URL, s.URL)
		assert.Equal(t, (i+1)*10+1, s.LinesChanged)
	}
	assert.LessOrEqual(t, maxInFlight.Load(), int64(workers))
}

func TestDetailResolver_DropsUnmeasurable(t *testing.T) {
	fetcher := detailFunc(func(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
		switch c.Number {
		case 1:
			return domain.PullRequestDetail{Additions: 800, Deletions: 300}, nil // unmerged
		case 2:
			return domain.PullRequestDetail{MergedAt: merged()}, nil // no changes
		default:
			return domain.PullRequestDetail{Additions: 4, Deletions: 2, MergedAt: merged()}, nil
		}
	})

	summaries, err := NewDetailResolver(fetcher, 2, zap.NewNop()).Resolve(context.Background(), []domain.Candidate{
		candidate(1), candidate(2), candidate(3),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 6, summaries[0].LinesChanged)
	// Missing detail fields fall back to the search data.
	assert.Equal(t, "PR 3", summaries[0].Title)
	assert.Equal(t, "acme/app", summaries[0].Repository)
}

func TestDetailResolver_AbortsOnFirstFailure(t *testing.T) {
	fetchErr := fmt.Errorf("failed to fetch acme/app#2: %w", domain.ErrRateLimited)
	fetcher := detailFunc(func(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
		if c.Number == 2 {
			return domain.PullRequestDetail{}, fetchErr
		}
		return domain.PullRequestDetail{Additions: 1, MergedAt: merged()}, nil
	})

	summaries, err := NewDetailResolver(fetcher, 2, zap.NewNop()).Resolve(context.Background(), []domain.Candidate{
		candidate(1), candidate(2), candidate(3), candidate(4),
	})
	assert.Nil(t, summaries)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
}

func TestDetailResolver_NoCandidates(t *testing.T) {
	fetcher := detailFunc(func(ctx context.Context, c domain.Candidate) (domain.PullRequestDetail, error) {
		t.Fatal("no fetch expected")
		return domain.PullRequestDetail{}, nil
	})
	summaries, err := NewDetailResolver(fetcher, 0, zap.NewNop()).Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestNewSizeResolver(t *testing.T) {
	resolver, err := NewSizeResolver("", nil, 0, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, StrategyLabels, resolver.Name())

	resolver, err = NewSizeResolver("direct", new(mockFetcher), 4, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, resolver.Name())

	_, err = NewSizeResolver("guess", nil, 0, zap.NewNop())
	assert.Error(t, err)
}
