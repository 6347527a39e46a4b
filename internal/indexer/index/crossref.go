package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/typesig"
)

// CrossRef maps concrete type identities to the items whose signatures
// mention them. It is built once and never mutated, so reads need no
// locking.
type CrossRef struct {
	postings map[typesig.Key]PostingList
	signed   []int
	open     []int
	size     int
}

// BuildCrossRef posts every item with a signature under every concrete key
// it mentions, nested arguments included.
func BuildCrossRef(sigs []*typesig.Signature) *CrossRef {
	c := &CrossRef{postings: make(map[typesig.Key]PostingList)}
	for id, sig := range sigs {
		if sig == nil {
			continue
		}
		c.signed = append(c.signed, id)
		if sigOpen(sig) {
			c.open = append(c.open, id)
		}
		inputs, output, bounds := sig.Keys()
		c.add(id, RoleInput, inputs)
		c.add(id, RoleOutput, output)
		c.add(id, RoleBound, bounds)
	}
	// items are visited in ascending order and roles in ascending bit order,
	// so every list is already sorted
	return c
}

func (c *CrossRef) add(id int, role Role, keys []typesig.Key) {
	for _, k := range keys {
		c.postings[k] = append(c.postings[k], Posting{Item: id, Role: role})
		c.size++
	}
}

// Lookup returns the postings for a key, or nil.
func (c *CrossRef) Lookup(k typesig.Key) PostingList {
	return c.postings[k]
}

// Signed returns the IDs of all items that carry a signature.
func (c *CrossRef) Signed() []int {
	return c.signed
}

// Open returns the signed items that mention a generic or unknown slot.
// Such items can unify with a concrete type they are not posted under.
func (c *CrossRef) Open() []int {
	return c.open
}

func sigOpen(sig *typesig.Signature) bool {
	if sig.Output.Open() {
		return true
	}
	for _, in := range sig.Inputs {
		if in.Open() {
			return true
		}
	}
	return false
}

// Keys returns the number of distinct keys.
func (c *CrossRef) Keys() int {
	return len(c.postings)
}

// Size returns the total number of postings.
func (c *CrossRef) Size() int {
	return c.size
}

// Entries returns every key with its postings in a stable order.
func (c *CrossRef) Entries() []TermEntry {
	entries := make([]TermEntry, 0, len(c.postings))
	for k, pl := range c.postings {
		entries = append(entries, TermEntry{Key: k, Postings: pl})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Prim != b.Prim {
			return a.Prim < b.Prim
		}
		return a.Path < b.Path
	})
	return entries
}
