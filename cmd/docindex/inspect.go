package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <blob>",
	Short: "Summarize a blob: crates, item kinds, signature warnings",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

type crateSummary struct {
	Name  string         `json:"name"`
	Doc   string         `json:"doc,omitempty"`
	Items int            `json:"items"`
	Kinds map[string]int `json:"kinds"`
}

type inspectReport struct {
	Version  string         `json:"version"`
	Format   string         `json:"format"`
	Size     int            `json:"size_bytes"`
	Paths    int            `json:"paths"`
	Signed   int            `json:"signed"`
	TypeKeys int            `json:"type_keys"`
	Crates   []crateSummary `json:"crates"`
	Warnings []string       `json:"warnings,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	blob, err := segment.ReadFile(args[0])
	if err != nil {
		return err
	}
	_, snap, err := loadSnapshot(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	idx := snap.Index
	stats := snap.Stats()
	rep := inspectReport{
		Version:  snap.Version,
		Format:   string(blob.Format),
		Size:     len(blob.Payload),
		Paths:    stats.Paths,
		Signed:   stats.Signed,
		TypeKeys: stats.TypeKeys,
	}
	for _, c := range idx.Crates {
		cs := crateSummary{Name: c.Name, Doc: c.Doc, Items: c.End - c.Start, Kinds: make(map[string]int)}
		for id := c.Start; id < c.End; id++ {
			cs.Kinds[idx.Items[id].Kind.String()]++
		}
		rep.Crates = append(rep.Crates, cs)
	}
	for _, w := range snap.Warnings {
		rep.Warnings = append(rep.Warnings, w.Error())
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(out, "version   %s (%s, %s payload)\n", rep.Version, rep.Format, humanize.Bytes(uint64(rep.Size)))
	fmt.Fprintf(out, "items     %s in %d crate(s), %s paths\n",
		humanize.Comma(int64(len(idx.Items))), len(rep.Crates), humanize.Comma(int64(rep.Paths)))
	fmt.Fprintf(out, "signed    %s items over %s type keys\n", humanize.Comma(int64(rep.Signed)), humanize.Comma(int64(rep.TypeKeys)))
	for _, c := range rep.Crates {
		fmt.Fprintf(out, "\n%s  %d items", c.Name, c.Items)
		if c.Doc != "" {
			fmt.Fprintf(out, "  %q", c.Doc)
		}
		fmt.Fprintln(out)
		kinds := make([]string, 0, len(c.Kinds))
		for k := range c.Kinds {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool {
			if c.Kinds[kinds[i]] != c.Kinds[kinds[j]] {
				return c.Kinds[kinds[i]] > c.Kinds[kinds[j]]
			}
			return kinds[i] < kinds[j]
		})
		parts := make([]string, len(kinds))
		for i, k := range kinds {
			parts[i] = fmt.Sprintf("%s=%d", k, c.Kinds[k])
		}
		fmt.Fprintf(out, "  %s\n", strings.Join(parts, " "))
	}
	if len(rep.Warnings) > 0 {
		fmt.Fprintf(out, "\n%d signature warning(s):\n", len(rep.Warnings))
		for _, w := range rep.Warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}
	return nil
}

func init() {
	inspectCmd.Flags().Bool("json", false, "output the summary as JSON")
	rootCmd.AddCommand(inspectCmd)
}
