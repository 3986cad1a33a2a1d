// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// v holds the layered configuration; flags below are bound into it.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "pr-size-audit",
	Short: "A CLI tool to check whether a GitHub user's pull requests are too big.",
	Long: `pr-size-audit fetches a user's recent public merged pull requests, estimates
their size in changed lines (from size labels or from exact additions and deletions),
buckets them into xs..xl and tells whether they are too big to review comfortably.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	// Add a persistent flag for verbose output, available to all commands.
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.String("config", "", "Path to a YAML configuration file")

	flags.StringP("org", "o", "", "Only audit PRs in this GitHub organization")
	flags.String("strategy", "", "Size strategy: labels (one request) or direct (one request per PR)")
	flags.String("verdict", "", "Verdict policy: ratio or majority")
	flags.String("buckets", "", "Bucket scheme: 5 (xs..xl) or 6 (xs..xxl)")
	flags.Int("page-size", 0, "Number of search results to audit (30 or 100)")
	flags.Int("workers", 0, "Concurrent detail requests for the direct strategy")
	flags.String("detail-api", "", "API for per-PR details: rest or graphql")

	bindings := map[string]string{
		"audit.org":         "org",
		"audit.strategy":    "strategy",
		"audit.verdict":     "verdict",
		"audit.buckets":     "buckets",
		"audit.page_size":   "page-size",
		"audit.workers":     "workers",
		"github.detail_api": "detail-api",
	}
	for key, name := range bindings {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(name)))
	}
}
