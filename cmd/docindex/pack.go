package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion/validator"
)

var packCmd = &cobra.Command{
	Use:   "pack <blob>",
	Short: "Validate a blob and write it as a versioned container",
	Long: `Pack validates a blob the way the ingestion service does and writes it
into the data directory as idx_<time>.sidx, which searchers configured with
that data directory load on their next reload.`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func runPack(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("out")
	if dir == "" {
		dir = cfg.Index.DataDir
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	v, err := validator.Validate(data, validator.DefaultMaxBytes)
	if err != nil {
		return err
	}
	path, err := segment.NewWriter(dir).Write(v.Blob.Payload, len(v.Index.Crates), len(v.Index.Items))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\nversion %s, %d crate(s), %s items, %s\n",
		path, v.Blob.Version, len(v.Index.Crates), humanize.Comma(int64(len(v.Index.Items))),
		humanize.Bytes(uint64(len(v.Blob.Payload))))
	return nil
}

func init() {
	packCmd.Flags().String("out", "", "data directory to write into (default: index.dataDir from config)")
	rootCmd.AddCommand(packCmd)
}
