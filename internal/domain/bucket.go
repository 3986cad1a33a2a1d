package domain

import (
	"fmt"
	"strings"
)

// Bucket is a named size class for a pull request.
type Bucket string

// The full ordered set of buckets. A Scheme decides which of them are in use.
const (
	BucketXS  Bucket = "xs"
	BucketSM  Bucket = "sm"
	BucketMD  Bucket = "md"
	BucketLG  Bucket = "lg"
	BucketXL  Bucket = "xl"
	BucketXXL Bucket = "xxl"
)

var bucketRank = map[Bucket]int{
	BucketXS:  0,
	BucketSM:  1,
	BucketMD:  2,
	BucketLG:  3,
	BucketXL:  4,
	BucketXXL: 5,
}

// Rank returns the position of the bucket in the xs < sm < md < lg < xl < xxl order,
// or -1 for an unknown bucket.
func (b Bucket) Rank() int {
	if rank, ok := bucketRank[b]; ok {
		return rank
	}
	return -1
}

// representativeLines is the fixed changed-line estimate used when a PR is sized by label.
var representativeLines = map[Bucket]int{
	BucketXS:  5,
	BucketSM:  55,
	BucketMD:  300,
	BucketLG:  750,
	BucketXL:  1250,
	BucketXXL: 2500,
}

// Representative returns the estimated changed lines for a PR known only by its bucket.
func Representative(b Bucket) int {
	return representativeLines[b]
}

// Scheme is an ordered set of buckets with inclusive upper bounds.
// The last bucket is open-ended.
type Scheme struct {
	Name    string
	buckets []Bucket
	// upper[i] is the inclusive upper bound of buckets[i]; len(upper) == len(buckets)-1.
	upper []int
}

// FiveBucketScheme is the default xs..xl scheme.
var FiveBucketScheme = Scheme{
	Name:    "5",
	buckets: []Bucket{BucketXS, BucketSM, BucketMD, BucketLG, BucketXL},
	upper:   []int{10, 100, 500, 1000},
}

// SixBucketScheme splits the open-ended tail into xl and xxl.
var SixBucketScheme = Scheme{
	Name:    "6",
	buckets: []Bucket{BucketXS, BucketSM, BucketMD, BucketLG, BucketXL, BucketXXL},
	upper:   []int{10, 100, 500, 1000, 2000},
}

// SchemeByName resolves a configured scheme name ("5" or "6").
func SchemeByName(name string) (Scheme, error) {
	switch strings.TrimSpace(name) {
	case "", FiveBucketScheme.Name:
		return FiveBucketScheme, nil
	case SixBucketScheme.Name:
		return SixBucketScheme, nil
	default:
		return Scheme{}, fmt.Errorf("unknown bucket scheme %q (want 5 or 6)", name)
	}
}

// Buckets returns the buckets of the scheme in ascending order.
func (s Scheme) Buckets() []Bucket {
	out := make([]Bucket, len(s.buckets))
	copy(out, s.buckets)
	return out
}

// Last returns the open-ended top bucket.
func (s Scheme) Last() Bucket {
	return s.buckets[len(s.buckets)-1]
}

// Contains reports whether b belongs to the scheme.
func (s Scheme) Contains(b Bucket) bool {
	for _, candidate := range s.buckets {
		if candidate == b {
			return true
		}
	}
	return false
}

// ClassifyBySize maps a changed-line count to exactly one bucket.
// Negative counts are treated as zero.
func (s Scheme) ClassifyBySize(linesChanged int) Bucket {
	for i, bound := range s.upper {
		if linesChanged <= bound {
			return s.buckets[i]
		}
	}
	return s.Last()
}

// Range returns the human readable line range of b, e.g. "11-100" or "1001+".
func (s Scheme) Range(b Bucket) string {
	lower := 0
	for i, candidate := range s.buckets {
		if candidate != b {
			if i < len(s.upper) {
				lower = s.upper[i] + 1
			}
			continue
		}
		if i == len(s.upper) {
			return fmt.Sprintf("%d+", lower)
		}
		return fmt.Sprintf("%d-%d", lower, s.upper[i])
	}
	return ""
}

// Label returns the display label of b, e.g. "sm: 11-100".
func (s Scheme) Label(b Bucket) string {
	return fmt.Sprintf("%s: %s", b, s.Range(b))
}

// sizeLabels is the controlled vocabulary of size labels, keyed by normalized name.
var sizeLabels = map[string]Bucket{
	"size-xs":  BucketXS,
	"size-s":   BucketSM,
	"size-m":   BucketMD,
	"size-l":   BucketLG,
	"size-xl":  BucketXL,
	"size-xxl": BucketXXL,
}

// normalizeLabel lower-cases and trims a label and rewrites "size/x" and "size: x"
// spellings to "size-x".
func normalizeLabel(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, prefix := range []string{"size/", "size:"} {
		if rest, ok := strings.CutPrefix(normalized, prefix); ok {
			return "size-" + strings.TrimSpace(rest)
		}
	}
	return normalized
}

// ClassifyByLabel returns the bucket of the first recognized size label.
// The second result is false when no label is recognized; callers must exclude
// such PRs instead of treating it as an error.
func ClassifyByLabel(labels []string) (Bucket, bool) {
	for _, name := range labels {
		if bucket, ok := sizeLabels[normalizeLabel(name)]; ok {
			return bucket, true
		}
	}
	return "", false
}
