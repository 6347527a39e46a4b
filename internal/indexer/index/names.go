package index

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/typesig"
)

// NameEntry holds the lower-cased forms of one item's name used by the
// matcher.
type NameEntry struct {
	Name       string
	Full       string
	Tokens     []string
	Components []string
}

// NameTable precomputes NameEntry values for every item.
type NameTable struct {
	entries []NameEntry
	exact   map[string][]int
}

func BuildNames(idx *descriptor.Index) *NameTable {
	t := &NameTable{
		entries: make([]NameEntry, len(idx.Items)),
		exact:   make(map[string][]int, len(idx.Items)),
	}
	for i := range idx.Items {
		full := strings.ToLower(idx.FullPath(i))
		name := strings.ToLower(idx.Items[i].Name)
		components := strings.Split(full, "::")
		t.entries[i] = NameEntry{
			Name:       name,
			Full:       full,
			Tokens:     tokenizer.Terms(idx.Items[i].Name),
			Components: components[:len(components)-1],
		}
		t.exact[name] = append(t.exact[name], i)
	}
	return t
}

// Entry returns the precomputed names of an item.
func (t *NameTable) Entry(id int) *NameEntry {
	return &t.entries[id]
}

// Exact returns the items whose lower-cased name equals name.
func (t *NameTable) Exact(name string) []int {
	return t.exact[strings.ToLower(name)]
}

func (t *NameTable) Len() int {
	return len(t.entries)
}

// Vocab resolves type names written in queries to concrete keys.
type Vocab struct {
	idx    *descriptor.Index
	byName map[string][]descriptor.PathID
}

func BuildVocab(idx *descriptor.Index) *Vocab {
	v := &Vocab{idx: idx, byName: make(map[string][]descriptor.PathID)}
	for id, seg := range idx.Paths {
		if seg.Kind == descriptor.KindPrimitive {
			continue
		}
		name := strings.ToLower(seg.Name)
		v.byName[name] = append(v.byName[name], descriptor.PathID(id))
	}
	return v
}

// Resolve returns the keys a possibly qualified name may denote. Primitive
// names win over paths. Qualifiers must appear, in order, at the end of the
// path's module. An empty result means the name is unknown.
func (v *Vocab) Resolve(qualifiers []string, name string) []typesig.Key {
	lower := strings.ToLower(name)
	if len(qualifiers) == 0 {
		if p, ok := typesig.ParsePrimitive(lower); ok {
			return []typesig.Key{typesig.Prim(p).Key()}
		}
	}
	var keys []typesig.Key
	for _, id := range v.byName[lower] {
		if len(qualifiers) > 0 && !moduleEndsWith(v.idx.ModulePath(v.idx.Paths[id].Module), qualifiers) {
			continue
		}
		keys = append(keys, typesig.Named(id).Key())
	}
	return keys
}

func moduleEndsWith(module string, qualifiers []string) bool {
	parts := strings.Split(strings.ToLower(module), "::")
	if len(qualifiers) > len(parts) {
		return false
	}
	tail := parts[len(parts)-len(qualifiers):]
	for i, q := range qualifiers {
		if tail[i] != strings.ToLower(q) {
			return false
		}
	}
	return true
}
