package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/spf13/cobra"
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "Prints the size buckets and the line estimate used for each size label",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BUCKET\tLINES\tLABEL ESTIMATE")
		for _, b := range a.scheme.Buckets() {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", b, a.scheme.Range(b), domain.Representative(b))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(bucketsCmd)
}
