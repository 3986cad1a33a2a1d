package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/naka-gawa/pr-size-audit/internal/domain"
)

// maxListedPRs caps the PR list of the text view.
const maxListedPRs = 20

func renderText(w io.Writer, result *domain.AuditResult, scheme domain.Scheme) error {
	heading := "Your PRs look reviewable"
	if result.Verdict == domain.VerdictTooBig {
		heading = "YOUR PRS ARE TOO BIG"
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n\n", heading)
	fmt.Fprintf(tw, "User:\t@%s\n", result.Username)
	if result.Scope != "" {
		fmt.Fprintf(tw, "Scope:\t%s\n", result.Scope)
	}
	fmt.Fprintf(tw, "PRs audited:\t%d\n", result.TotalPRs)
	fmt.Fprintf(tw, "Average changed lines:\t%d\n", result.AverageSize)
	fmt.Fprintf(tw, "Median changed lines:\t%d\n\n", result.MedianSize)
	for _, b := range scheme.Buckets() {
		fmt.Fprintf(tw, "  %s\t%d\n", scheme.Label(b), result.Buckets[b])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n\n", result.Reason)

	prs := result.PRs
	if len(prs) > maxListedPRs {
		prs = prs[:maxListedPRs]
	}
	for _, pr := range prs {
		fmt.Fprintf(w, "- %s\n  %s • %d lines • %s\n  %s\n",
			pr.Title, pr.Repository, pr.LinesChanged, pr.CreatedAt.Format("Jan 2, 2006"), pr.URL)
	}
	if len(result.PRs) > len(prs) {
		_, err := fmt.Fprintf(w, "... and %d more\n", len(result.PRs)-len(prs))
		return err
	}
	return nil
}
