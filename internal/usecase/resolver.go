package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/naka-gawa/pr-size-audit/internal/gateway"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Size resolution strategies.
const (
	StrategyLabels = "labels"
	StrategyDirect = "direct"
)

// DefaultWorkers is the number of concurrent detail requests of the direct strategy.
const DefaultWorkers = 8

// SizeResolver turns candidates into summaries with a changed-line estimate.
// Candidates that cannot be sized are dropped, not reported as errors.
type SizeResolver interface {
	Resolve(ctx context.Context, candidates []domain.Candidate) ([]domain.PullRequestSummary, error)
	Name() string
}

// NewSizeResolver returns the resolver for the named strategy.
func NewSizeResolver(strategy string, fetcher gateway.DetailFetcher, workers int, logger *zap.Logger) (SizeResolver, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyLabels:
		return NewLabelResolver(logger), nil
	case StrategyDirect:
		return NewDetailResolver(fetcher, workers, logger), nil
	default:
		return nil, fmt.Errorf("unknown size strategy %q (want %s or %s)", strategy, StrategyLabels, StrategyDirect)
	}
}

// LabelResolver sizes PRs from their size labels alone and never makes a request.
type LabelResolver struct {
	logger *zap.Logger
}

// NewLabelResolver creates a LabelResolver.
func NewLabelResolver(logger *zap.Logger) *LabelResolver {
	return &LabelResolver{logger: logger}
}

func (r *LabelResolver) Name() string { return StrategyLabels }

// Resolve maps each candidate's size label to the bucket's representative line count.
func (r *LabelResolver) Resolve(_ context.Context, candidates []domain.Candidate) ([]domain.PullRequestSummary, error) {
	summaries := make([]domain.PullRequestSummary, 0, len(candidates))
	for _, c := range candidates {
		bucket, ok := domain.ClassifyByLabel(c.Labels)
		if !ok {
			r.logger.Debug("skipping PR without size label", zap.String("url", c.URL))
			continue
		}
		summaries = append(summaries, domain.PullRequestSummary{
			Title:        c.Title,
			URL:          c.URL,
			Repository:   c.Repository,
			LinesChanged: domain.Representative(bucket),
			CreatedAt:    c.CreatedAt,
			MergedAt:     c.MergedAt,
		})
	}
	return summaries, nil
}

// DetailResolver measures every candidate by fetching its additions and deletions.
type DetailResolver struct {
	fetcher gateway.DetailFetcher
	workers int
	logger  *zap.Logger
}

// NewDetailResolver creates a DetailResolver running at most workers requests at a time.
func NewDetailResolver(fetcher gateway.DetailFetcher, workers int, logger *zap.Logger) *DetailResolver {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &DetailResolver{fetcher: fetcher, workers: workers, logger: logger}
}

func (r *DetailResolver) Name() string { return StrategyDirect }

// Resolve fetches details with a fixed pool of workers. Workers claim the next
// index from a shared counter and store the result at that index, so the output
// keeps the candidates' order. The first failed fetch aborts the whole call.
// Unmerged PRs and PRs with zero changed lines are dropped.
func (r *DetailResolver) Resolve(ctx context.Context, candidates []domain.Candidate) ([]domain.PullRequestSummary, error) {
	details := make([]domain.PullRequestDetail, len(candidates))
	var next atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	for w := 0; w < min(r.workers, len(candidates)); w++ {
		eg.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= len(candidates) {
					return nil
				}
				if err := egCtx.Err(); err != nil {
					return err
				}
				detail, err := r.fetcher.FetchPullRequestDetail(egCtx, candidates[i])
				if err != nil {
					return err
				}
				details[i] = detail
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]domain.PullRequestSummary, 0, len(details))
	for i, d := range details {
		c := candidates[i]
		if d.MergedAt == nil {
			r.logger.Debug("skipping unmerged PR", zap.String("url", c.URL))
			continue
		}
		if d.LinesChanged() <= 0 {
			r.logger.Debug("skipping PR without changed lines", zap.String("url", c.URL))
			continue
		}
		summaries = append(summaries, domain.PullRequestSummary{
			Title:        firstNonEmpty(d.Title, c.Title),
			URL:          firstNonEmpty(d.URL, c.URL),
			Repository:   firstNonEmpty(d.Repository, c.Repository),
			LinesChanged: d.LinesChanged(),
			CreatedAt:    d.CreatedAt,
			MergedAt:     d.MergedAt,
		})
	}
	return summaries, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
