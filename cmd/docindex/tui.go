package main

import (
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui <blob>",
	Short: "Search a blob interactively as you type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		engine, _, err := loadSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return tui.Run(executor.New(engine, cfg.Search, nil), limit)
	},
}

func init() {
	tuiCmd.Flags().Int("limit", 50, "maximum number of results shown")
	rootCmd.AddCommand(tuiCmd)
}
