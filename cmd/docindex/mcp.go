package main

import (
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/watcher"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/mcp"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <blob>",
	Short: "Serve search_api and index_status to an MCP client over stdio",
	Long: `Mcp loads a blob and speaks the Model Context Protocol on stdin and
stdout. With --watch the blob is reloaded whenever it changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		engine, _, err := loadSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if watch {
			w, err := watcher.New(engine, config.IndexConfig{Path: args[0], Debounce: cfg.Index.Debounce})
			if err != nil {
				return err
			}
			go w.Run(cmd.Context())
		}
		srv := mcp.NewServer(cfg.MCP, executor.New(engine, cfg.Search, nil), engine)
		return srv.Serve(cmd.Context())
	},
}

func init() {
	mcpCmd.Flags().Bool("watch", false, "reload the blob when it changes")
	rootCmd.AddCommand(mcpCmd)
}
