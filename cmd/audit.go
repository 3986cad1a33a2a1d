package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/naka-gawa/pr-size-audit/internal/logging"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <username>",
	Short: "Audits a GitHub user's pull request sizes",
	Long: `Audits the most recently updated public merged pull requests of a GitHub user
and prints the bucket distribution, average size and verdict as JSON or text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer logging.Sync(a.logger)

		result, err := a.auditor.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()
		switch format {
		case "text":
			return renderText(out, result, a.scheme)
		case "json":
			// Marshal the results into a pretty-printed JSON string.
			jsonData, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal results to JSON: %w", err)
			}
			_, err = fmt.Fprintln(out, string(jsonData))
			return err
		default:
			return fmt.Errorf("unknown output format %q (want json or text)", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringP("format", "f", "json", "Output format: json or text")
}
