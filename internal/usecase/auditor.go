// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/naka-gawa/pr-size-audit/internal/gateway"
	"go.uber.org/zap"
)

// AuditorOptions holds the deployment choices of an Auditor.
type AuditorOptions struct {
	// Org restricts the audit to one organization when non-empty.
	Org     string
	PerPage int
	Scheme  domain.Scheme
	Policy  VerdictPolicy
}

// Auditor is the use case for auditing the size of a user's pull requests.
// It orchestrates search, size resolution, classification and the verdict.
type Auditor struct {
	searcher gateway.Searcher
	resolver SizeResolver
	opts     AuditorOptions
	logger   *zap.Logger
}

// NewAuditor creates a new Auditor instance.
func NewAuditor(searcher gateway.Searcher, resolver SizeResolver, opts AuditorOptions, logger *zap.Logger) *Auditor {
	if opts.PerPage <= 0 {
		opts.PerPage = 100
	}
	if len(opts.Scheme.Buckets()) == 0 {
		opts.Scheme = domain.FiveBucketScheme
	}
	if opts.Policy == nil {
		opts.Policy = DefaultRatioPolicy
	}
	return &Auditor{
		searcher: searcher,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
	}
}

// Run audits the PRs of the given user. It never returns a report with zero PRs:
// an empty search or an empty sized set is an error.
func (a *Auditor) Run(ctx context.Context, rawUsername string) (*domain.AuditResult, error) {
	username := strings.TrimSpace(rawUsername)
	if username == "" {
		return nil, domain.ErrEmptyUsername
	}
	if strings.ContainsFunc(username, unicode.IsSpace) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidUsername, username)
	}

	logger := a.logger.With(zap.String("username", username), zap.String("strategy", a.resolver.Name()))
	logger.Info("starting audit", zap.String("org", a.opts.Org))

	candidates, err := a.searcher.SearchPullRequests(ctx, gateway.SearchQuery{
		Author:  username,
		Org:     a.opts.Org,
		PerPage: a.opts.PerPage,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		if a.opts.Org != "" {
			return nil, fmt.Errorf("%w for %s in %s repositories", domain.ErrNoPullRequests, username, a.opts.Org)
		}
		return nil, fmt.Errorf("%w for %s", domain.ErrNoPullRequests, username)
	}
	logger.Debug("candidates found", zap.Int("count", len(candidates)))

	summaries, err := a.resolver.Resolve(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, a.noSizeDataError()
	}

	result, err := a.summarize(username, summaries)
	if err != nil {
		return nil, err
	}
	logger.Info("audit complete",
		zap.Int("total_prs", result.TotalPRs),
		zap.Int("average_size", result.AverageSize),
		zap.String("verdict", string(result.Verdict)))
	return result, nil
}

func (a *Auditor) noSizeDataError() error {
	if a.resolver.Name() == StrategyLabels {
		return fmt.Errorf("%w: recent PRs carry no size labels (size-XS..size-XL)", domain.ErrNoSizeData)
	}
	return fmt.Errorf("%w: no merged PRs with changed lines", domain.ErrNoSizeData)
}

// summarize folds summaries into bucket counts and size statistics.
func (a *Auditor) summarize(username string, summaries []domain.PullRequestSummary) (*domain.AuditResult, error) {
	buckets := make(map[domain.Bucket]int, len(a.opts.Scheme.Buckets()))
	for _, b := range a.opts.Scheme.Buckets() {
		buckets[b] = 0
	}

	sizes := make(stats.Float64Data, 0, len(summaries))
	for _, pr := range summaries {
		buckets[a.opts.Scheme.ClassifyBySize(pr.LinesChanged)]++
		sizes = append(sizes, float64(pr.LinesChanged))
	}

	average, err := roundedStat(sizes.Mean)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average size: %w", err)
	}
	median, err := roundedStat(sizes.Median)
	if err != nil {
		return nil, fmt.Errorf("failed to compute median size: %w", err)
	}

	total := len(summaries)
	verdict := a.opts.Policy.Decide(buckets, total)

	return &domain.AuditResult{
		Username:    username,
		TotalPRs:    total,
		AverageSize: average,
		MedianSize:  median,
		Buckets:     buckets,
		PRs:         summaries,
		Verdict:     verdict,
		Reason:      Reason(verdict),
		Scope:       a.opts.Org,
		Strategy:    a.resolver.Name(),
		Policy:      a.opts.Policy.Name(),
	}, nil
}

func roundedStat(compute func() (float64, error)) (int, error) {
	value, err := compute()
	if err != nil {
		return 0, err
	}
	rounded, err := stats.Round(value, 0)
	if err != nil {
		return 0, err
	}
	return int(rounded), nil
}
