// Package main is the docindex developer CLI: inspect, pack, query and diff
// search-index blobs, or browse one interactively (tui) or over MCP (mcp).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is resolved before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Inspect and search rustdoc search-index blobs",
	Long: `docindex works on rustdoc search-index blobs in any supported form: the
search-index.js file rustdoc emits, its raw JSON payload, or a packed
container produced by "docindex pack" or the ingestion service.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		level, _ := cmd.Flags().GetString("log-level")
		if path == "" {
			cfg = config.Default()
		} else {
			c, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg = c
		}
		if level == "" {
			level = cfg.Logging.Level
		}
		// stdout carries command output and the MCP protocol.
		logger.SetupWriter(cmd.ErrOrStderr(), level, "text")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: built-in settings with DS_* overrides)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
}

// loadSnapshot loads the blob at path into a fresh engine.
func loadSnapshot(ctx context.Context, path string) (*indexer.Engine, *index.Snapshot, error) {
	engine := indexer.NewEngine(config.IndexConfig{Path: path}, nil)
	snap, err := engine.LoadFile(ctx, path, "cli")
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return engine, snap, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "docindex:", err)
		os.Exit(1)
	}
}
