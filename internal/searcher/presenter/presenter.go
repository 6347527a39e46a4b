// Package presenter turns ranked matches into display records.
package presenter

import (
	"html"
	"regexp"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
)

// DefaultMaxResults caps a result list when the caller gives no limit.
const DefaultMaxResults = 200

// Record is one search result as shown to a user.
type Record struct {
	Path               string `json:"path"`
	Kind               string `json:"kind"`
	OneLineDescription string `json:"description"`
	ScoreTier          string `json:"score_tier"`
	Signature          string `json:"signature,omitempty"`
	Href               string `json:"href"`
	Deprecated         bool   `json:"deprecated,omitempty"`
}

// Present renders matches best-first, truncated to maxResults. A
// non-positive maxResults means DefaultMaxResults.
func Present(matches []ranker.Match, snap *index.Snapshot, maxResults int) []Record {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	idx := snap.Index
	out := make([]Record, 0, len(matches))
	for _, m := range matches {
		item := &idx.Items[m.Item]
		rec := Record{
			Path:               idx.FullPath(m.Item),
			Kind:               item.Kind.String(),
			OneLineDescription: OneLine(item.Desc),
			ScoreTier:          m.Tier(),
			Href:               Href(idx, m.Item),
			Deprecated:         item.Deprecated,
		}
		if sig := snap.Sigs[m.Item]; sig != nil {
			rec.Signature = sig.Render(idx)
		}
		out = append(out, rec)
	}
	return out
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// OneLine reduces a description to its first line with markup removed.
func OneLine(desc string) string {
	if i := strings.IndexAny(desc, "\r\n"); i >= 0 {
		desc = desc[:i]
	}
	desc = tagPattern.ReplaceAllString(desc, "")
	return strings.Join(strings.Fields(html.UnescapeString(desc)), " ")
}

// Href returns the item's documentation URL relative to the doc root,
// in the layout rustdoc generates.
func Href(idx *descriptor.Index, id int) string {
	item := &idx.Items[id]
	if item.Parent != descriptor.NoPath {
		parent := idx.Paths[item.Parent]
		page := modulePrefix(idx.ModulePath(parent.Module)) + parent.Kind.String() + "." + parent.Name + ".html"
		return page + "#" + item.Kind.String() + "." + item.Name
	}
	prefix := modulePrefix(idx.ModulePath(item.Module))
	if item.Kind == descriptor.KindModule {
		return prefix + item.Name + "/index.html"
	}
	return prefix + item.Kind.String() + "." + item.Name + ".html"
}

func modulePrefix(module string) string {
	if module == "" {
		return ""
	}
	return strings.ReplaceAll(module, "::", "/") + "/"
}
