// Package index holds the read-only structures built once per load: the
// type cross-reference, the name table and the type vocabulary, bundled in
// a Snapshot.
package index

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/typesig"
)

// Snapshot is an immutable, fully built index. Queries only ever read it.
type Snapshot struct {
	Version  string
	Index    *descriptor.Index
	Sigs     []*typesig.Signature
	Warnings []*typesig.NormalizeError
	XRef     *CrossRef
	Names    *NameTable
	Vocab    *Vocab
	BuiltAt  time.Time
}

// NewSnapshot assembles a snapshot from an already normalized index.
func NewSnapshot(version string, idx *descriptor.Index, norm *typesig.Result) *Snapshot {
	return &Snapshot{
		Version:  version,
		Index:    idx,
		Sigs:     norm.Sigs,
		Warnings: norm.Warnings,
		XRef:     BuildCrossRef(norm.Sigs),
		Names:    BuildNames(idx),
		Vocab:    BuildVocab(idx),
		BuiltAt:  time.Now(),
	}
}

// Build normalizes idx and assembles a snapshot.
func Build(version string, idx *descriptor.Index) *Snapshot {
	return NewSnapshot(version, idx, typesig.Normalize(idx))
}

// Stats summarizes a snapshot for status endpoints.
type Stats struct {
	Version  string    `json:"version"`
	Crates   []string  `json:"crates"`
	Items    int       `json:"items"`
	Paths    int       `json:"paths"`
	Signed   int       `json:"signed"`
	TypeKeys int       `json:"type_keys"`
	Postings int       `json:"postings"`
	Warnings int       `json:"warnings"`
	BuiltAt  time.Time `json:"built_at"`
}

func (s *Snapshot) Stats() Stats {
	crates := make([]string, len(s.Index.Crates))
	for i, c := range s.Index.Crates {
		crates[i] = c.Name
	}
	return Stats{
		Version:  s.Version,
		Crates:   crates,
		Items:    len(s.Index.Items),
		Paths:    len(s.Index.Paths),
		Signed:   len(s.XRef.Signed()),
		TypeKeys: s.XRef.Keys(),
		Postings: s.XRef.Size(),
		Warnings: len(s.Warnings),
		BuiltAt:  s.BuiltAt,
	}
}
