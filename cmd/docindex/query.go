package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
)

var queryCmd = &cobra.Command{
	Use:   "query <blob> <query...>",
	Short: "Run one search against a blob",
	Long: `Query ranks the items of a blob against a free-text query: a name, a
path such as "sbi::console", a kind filter such as "fn:parse", or a type
signature such as "fn(i32) -> i32".`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	engine, _, err := loadSnapshot(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	exec := executor.New(engine, cfg.Search, nil)
	res, err := exec.Execute(cmd.Context(), strings.Join(args[1:], " "), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Degraded {
		fmt.Fprintln(out, "(signature not understood, searched by name)")
	}
	if len(res.Results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	for i, r := range res.Results {
		fmt.Fprintf(out, "%3d  %-10s %-9s %s", i+1, r.ScoreTier, r.Kind, r.Path)
		if r.Signature != "" {
			fmt.Fprintf(out, "  %s", r.Signature)
		}
		fmt.Fprintln(out)
		if r.OneLineDescription != "" {
			fmt.Fprintf(out, "     %s\n", r.OneLineDescription)
		}
	}
	fmt.Fprintf(out, "\n%d of %d results (%s)\n", len(res.Results), res.Total, res.Took)
	return nil
}

func init() {
	queryCmd.Flags().Int("limit", 20, "maximum number of results")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}
