package ranker

import "github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"

// NameTier grades how the query name matched an item. Lower tiers rank
// first; NameNone means the name did not match. NameFullPath is a
// qualified query spelling out the item's whole path.
type NameTier uint8

const (
	NameNone NameTier = iota
	NameFullPath
	NameExact
	NameSubstring
	NamePrefix
	NameFuzzy
)

func (t NameTier) String() string {
	switch t {
	case NameFullPath:
		return "path"
	case NameExact:
		return "exact"
	case NameSubstring:
		return "substring"
	case NamePrefix:
		return "prefix"
	case NameFuzzy:
		return "fuzzy"
	}
	return "none"
}

func (t NameTier) order() int {
	if t == NameNone {
		return 255
	}
	return int(t)
}

// TypeTier grades a signature match. Exact means every written type
// matched by identity; Unified means a wildcard, an unknown slot or a
// variable binding was needed.
type TypeTier uint8

const (
	TypeNone TypeTier = iota
	TypeExact
	TypeUnified
)

func (t TypeTier) String() string {
	switch t {
	case TypeExact:
		return "exact"
	case TypeUnified:
		return "unified"
	}
	return "none"
}

func (t TypeTier) order() int {
	if t == TypeNone {
		return 255
	}
	return int(t)
}

// Reason records which parts of the query an item matched.
type Reason uint8

const (
	ReasonName Reason = 1 << iota
	ReasonType
	ReasonBoth = ReasonName | ReasonType
)

func (r Reason) String() string {
	switch r {
	case ReasonName:
		return "name"
	case ReasonType:
		return "type"
	case ReasonBoth:
		return "both"
	}
	return "none"
}

// Match is one ranked item. Path and Kind are copied from the index so
// matches can be ordered without it.
type Match struct {
	Item     int
	Reason   Reason
	NameTier NameTier
	TypeTier TypeTier
	Distance int
	Path     string
	Kind     descriptor.ItemKind
}

// Tier renders the match grade, e.g. "substring" or "exact+type:unified".
func (m Match) Tier() string {
	switch m.Reason {
	case ReasonName:
		return m.NameTier.String()
	case ReasonType:
		return "type:" + m.TypeTier.String()
	case ReasonBoth:
		return m.NameTier.String() + "+type:" + m.TypeTier.String()
	}
	return "none"
}

// Less is the total result order: items matching both name and type
// first, then name tier, type tier, full-path length, edit distance, kind
// priority, full path and finally item ID.
func Less(a, b Match) bool {
	if x, y := reasonOrder(a.Reason), reasonOrder(b.Reason); x != y {
		return x < y
	}
	if x, y := a.NameTier.order(), b.NameTier.order(); x != y {
		return x < y
	}
	if x, y := a.TypeTier.order(), b.TypeTier.order(); x != y {
		return x < y
	}
	if len(a.Path) != len(b.Path) {
		return len(a.Path) < len(b.Path)
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if x, y := a.Kind.Priority(), b.Kind.Priority(); x != y {
		return x < y
	}
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	return a.Item < b.Item
}

func reasonOrder(r Reason) int {
	if r == ReasonBoth {
		return 0
	}
	return 1
}
