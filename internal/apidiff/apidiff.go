// Package apidiff compares the public API surface recorded in two search
// index snapshots.
package apidiff

import (
	"fmt"
	"slices"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
)

// Entry is one item of an API surface.
type Entry struct {
	Kind       string
	Path       string
	Signature  string
	Deprecated bool
}

func (e Entry) key() string {
	return e.Kind + " " + e.Path
}

// String renders e as one diffable line.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.key())
	if e.Signature != "" {
		b.WriteString(": ")
		b.WriteString(e.Signature)
	}
	if e.Deprecated {
		b.WriteString(" #[deprecated]")
	}
	return b.String()
}

// Surface lists every item of snap, sorted by path then kind.
func Surface(snap *index.Snapshot) []Entry {
	idx := snap.Index
	out := make([]Entry, 0, len(idx.Items))
	for id := range idx.Items {
		item := &idx.Items[id]
		e := Entry{
			Kind:       item.Kind.String(),
			Path:       idx.FullPath(id),
			Deprecated: item.Deprecated,
		}
		if sig := snap.Sigs[id]; sig != nil {
			e.Signature = sig.Render(idx)
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		if c := strings.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.Signature, b.Signature)
	})
	return out
}

// Report is the difference between two surfaces. Changed holds items whose
// path and kind survive but whose signature or deprecation changed.
type Report struct {
	OldVersion string
	NewVersion string
	Added      []Entry
	Removed    []Entry
	Changed    []Change
	Unified    string
}

type Change struct {
	Old Entry
	New Entry
}

// Empty reports whether the surfaces are identical.
func (r *Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Compare diffs the surfaces of old and cur. contextLines sizes the
// unified diff hunks; non-positive means 3.
func Compare(old, cur *index.Snapshot, contextLines int) (*Report, error) {
	if contextLines <= 0 {
		contextLines = 3
	}
	a, b := Surface(old), Surface(cur)
	r := &Report{OldVersion: old.Version, NewVersion: cur.Version}

	before := group(a)
	after := group(b)
	for _, e := range b {
		prev, ok := before[e.key()]
		switch {
		case !ok:
			r.Added = append(r.Added, e)
		case len(prev) == 1 && len(after[e.key()]) == 1 && prev[0] != e:
			r.Changed = append(r.Changed, Change{Old: prev[0], New: e})
		case len(prev) > 1 && !slices.Contains(prev, e):
			r.Added = append(r.Added, e)
		}
	}
	for _, e := range a {
		next, ok := after[e.key()]
		switch {
		case !ok:
			r.Removed = append(r.Removed, e)
		case len(next) > 1 && !slices.Contains(next, e):
			r.Removed = append(r.Removed, e)
		}
	}

	if r.Empty() {
		return r, nil
	}
	u := difflib.UnifiedDiff{
		A:        lines(a),
		B:        lines(b),
		FromFile: "api@" + old.Version,
		ToFile:   "api@" + cur.Version,
		Context:  contextLines,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return nil, fmt.Errorf("rendering unified diff: %w", err)
	}
	r.Unified = s
	return r, nil
}

func group(es []Entry) map[string][]Entry {
	m := make(map[string][]Entry, len(es))
	for _, e := range es {
		m[e.key()] = append(m[e.key()], e)
	}
	return m
}

func lines(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.String() + "\n"
	}
	return out
}
