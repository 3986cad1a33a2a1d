package usecase

import (
	"fmt"
	"strings"

	"github.com/naka-gawa/pr-size-audit/internal/domain"
)

// Verdict policies.
const (
	PolicyRatio    = "ratio"
	PolicyMajority = "majority"
)

const (
	reasonGood   = "Nice. Your PRs are compact, readable, and only mildly terrifying to reviewers."
	reasonTooBig = "Your PRs read like a jump-scare novel. Split them up before your reviewers file a missing-person report."
)

// Reason returns the fixed explanation shown for a verdict.
func Reason(v domain.Verdict) string {
	if v == domain.VerdictTooBig {
		return reasonTooBig
	}
	return reasonGood
}

// VerdictPolicy decides whether a bucket distribution is too big.
// total is always positive.
type VerdictPolicy interface {
	Decide(buckets map[domain.Bucket]int, total int) domain.Verdict
	Name() string
}

// NewVerdictPolicy returns the policy registered under name.
func NewVerdictPolicy(name string) (VerdictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyRatio:
		return DefaultRatioPolicy, nil
	case PolicyMajority:
		return MajorityPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown verdict policy %q (want %s or %s)", name, PolicyRatio, PolicyMajority)
	}
}

// tail counts PRs in xl and above.
func tail(buckets map[domain.Bucket]int) int {
	return buckets[domain.BucketXL] + buckets[domain.BucketXXL]
}

// RatioPolicy flags a distribution when the xl share or the lg-and-above share
// reaches its threshold. Thresholds are whole percentages and compared in
// integer arithmetic.
type RatioPolicy struct {
	XLPercent    int
	LargePercent int
}

// DefaultRatioPolicy is too big at 15% xl or 40% lg+xl.
var DefaultRatioPolicy = RatioPolicy{XLPercent: 15, LargePercent: 40}

func (p RatioPolicy) Name() string { return PolicyRatio }

func (p RatioPolicy) Decide(buckets map[domain.Bucket]int, total int) domain.Verdict {
	xl := tail(buckets)
	large := buckets[domain.BucketLG] + xl
	if xl*100 >= p.XLPercent*total || large*100 >= p.LargePercent*total {
		return domain.VerdictTooBig
	}
	return domain.VerdictGood
}

// MajorityPolicy flags a distribution when xl PRs strictly outnumber all others.
type MajorityPolicy struct{}

func (MajorityPolicy) Name() string { return PolicyMajority }

func (MajorityPolicy) Decide(buckets map[domain.Bucket]int, total int) domain.Verdict {
	xl := tail(buckets)
	if xl > total-xl {
		return domain.VerdictTooBig
	}
	return domain.VerdictGood
}
