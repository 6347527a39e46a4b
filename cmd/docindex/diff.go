package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/apidiff"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old-blob> <new-blob>",
	Short: "Show how the API surface changed between two blobs",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	contextLines, _ := cmd.Flags().GetInt("context")
	summary, _ := cmd.Flags().GetBool("summary")

	_, old, err := loadSnapshot(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, cur, err := loadSnapshot(cmd.Context(), args[1])
	if err != nil {
		return err
	}
	rep, err := apidiff.Compare(old, cur, contextLines)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rep.Empty() {
		fmt.Fprintln(out, "API surface unchanged.")
		return nil
	}
	fmt.Fprintf(out, "%d added, %d removed, %d changed\n", len(rep.Added), len(rep.Removed), len(rep.Changed))
	if summary {
		for _, e := range rep.Added {
			fmt.Fprintf(out, "+ %s\n", e)
		}
		for _, e := range rep.Removed {
			fmt.Fprintf(out, "- %s\n", e)
		}
		for _, c := range rep.Changed {
			fmt.Fprintf(out, "~ %s\n    was %s\n", c.New, c.Old)
		}
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, rep.Unified)
	return nil
}

func init() {
	diffCmd.Flags().Int("context", 3, "lines of context in the unified diff")
	diffCmd.Flags().Bool("summary", false, "list added, removed and changed items instead of a unified diff")
	rootCmd.AddCommand(diffCmd)
}
