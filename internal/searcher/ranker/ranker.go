// Package ranker matches a parsed query against an index snapshot and
// orders the matches. Names are graded exact, substring, path-prefix or
// fuzzy; signature patterns are unified with item signatures. The order
// defined by Less is total, so ranking partitions separately and merging
// gives the same result as ranking everything at once.
package ranker

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/typesig"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
)

// Partition is a half-open range of item IDs.
type Partition struct {
	Start int
	End   int
}

// Plan is a query prepared against one snapshot. It is read-only once
// built and safe to score from several goroutines.
type Plan struct {
	query      *parser.Query
	snap       *index.Snapshot
	threshold  int
	fullPath   string
	pattern    *resolvedPattern
	unifier    unifier
	candidates []int
	scope      Partition
	empty      bool
}

// Prepare resolves the query's filters and signature pattern and selects
// type candidates.
func Prepare(q *parser.Query, snap *index.Snapshot, opts Options) *Plan {
	p := &Plan{
		query:     q,
		snap:      snap,
		threshold: opts.FuzzyThreshold(q.Name),
		unifier:   unifier{unify: opts.Unify},
		scope:     Partition{Start: 0, End: len(snap.Index.Items)},
	}
	if q.IsEmpty() {
		p.empty = true
		return p
	}
	if len(q.Qualifiers) > 0 {
		p.fullPath = strings.ToLower(strings.Join(q.Qualifiers, "::") + "::" + q.Name)
	}
	if q.Crate != "" {
		ci, ok := snap.Index.FindCrate(q.Crate)
		if !ok {
			p.empty = true
			return p
		}
		c := snap.Index.Crates[ci]
		p.scope = Partition{Start: c.Start, End: c.End}
	}
	if q.Sig != nil {
		p.pattern = resolvePattern(q.Sig, snap.Vocab)
		p.candidates = p.selectCandidates()
	}
	return p
}

// Partitions splits the plan's scope by crate.
func (p *Plan) Partitions() []Partition {
	if p.empty {
		return nil
	}
	var out []Partition
	for _, c := range p.snap.Index.Crates {
		start, end := max(c.Start, p.scope.Start), min(c.End, p.scope.End)
		if start < end {
			out = append(out, Partition{Start: start, End: end})
		}
	}
	return out
}

// Score returns the matches inside part, sorted by Less.
func (p *Plan) Score(part Partition) []Match {
	if p.empty {
		return nil
	}
	start, end := max(part.Start, p.scope.Start), min(part.End, p.scope.End)
	var out []Match
	if p.query.Name == "" {
		lo := sort.SearchInts(p.candidates, start)
		for _, id := range p.candidates[lo:] {
			if id >= end {
				break
			}
			if m, ok := p.score(id, true); ok {
				out = append(out, m)
			}
		}
	} else {
		cand := p.candidates
		cand = cand[sort.SearchInts(cand, start):]
		for id := start; id < end; id++ {
			isCand := false
			if len(cand) > 0 && cand[0] == id {
				isCand = true
				cand = cand[1:]
			}
			if m, ok := p.score(id, isCand); ok {
				out = append(out, m)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// All scores every item in the plan's scope.
func (p *Plan) All() []Match {
	return p.Score(p.scope)
}

// Query returns the parsed query the plan was built from.
func (p *Plan) Query() *parser.Query {
	return p.query
}

// Rank scores every item in scope.
func Rank(q *parser.Query, snap *index.Snapshot, opts Options) []Match {
	return Prepare(q, snap, opts).All()
}

func (p *Plan) score(id int, typeCandidate bool) (Match, bool) {
	idx := p.snap.Index
	item := &idx.Items[id]
	if !p.query.AllowsKind(item.Kind) {
		return Match{}, false
	}
	m := Match{Item: id}
	if p.query.Name != "" {
		if tier, dist := p.matchName(id); tier != NameNone {
			m.Reason |= ReasonName
			m.NameTier = tier
			m.Distance = dist
		}
	}
	if p.pattern != nil && typeCandidate {
		if sig := p.snap.Sigs[id]; sig != nil {
			if tier, ok := p.unifier.matchSig(p.pattern, sig); ok {
				m.Reason |= ReasonType
				m.TypeTier = tier
			}
		}
	}
	if m.Reason == 0 {
		return Match{}, false
	}
	m.Path = idx.FullPath(id)
	m.Kind = item.Kind
	return m, true
}

func (p *Plan) matchName(id int) (NameTier, int) {
	e := p.snap.Names.Entry(id)
	if !qualifiersMatch(e.Components, p.query.Qualifiers) {
		return NameNone, 0
	}
	pat := p.query.Name
	switch {
	case e.Name == pat && p.fullPath != "" && e.Full == p.fullPath:
		return NameFullPath, 0
	case e.Name == pat:
		return NameExact, 0
	case strings.Contains(e.Name, pat):
		return NameSubstring, 0
	}
	for _, c := range e.Components {
		if strings.HasPrefix(c, pat) {
			return NamePrefix, 0
		}
	}
	best := levenshtein(pat, e.Name)
	for _, tok := range e.Tokens {
		if d := levenshtein(pat, tok); d < best {
			best = d
		}
	}
	if best <= p.threshold && best < len([]rune(pat)) {
		return NameFuzzy, best
	}
	return NameNone, 0
}

// qualifiersMatch reports whether every qualifier prefixes a path
// component, in order.
func qualifiersMatch(components, qualifiers []string) bool {
	i := 0
	for _, q := range qualifiers {
		for i < len(components) && !strings.HasPrefix(components[i], q) {
			i++
		}
		if i == len(components) {
			return false
		}
		i++
	}
	return true
}

// selectCandidates returns the signed items that may match the pattern:
// the postings of the most selective concrete key, plus every item with
// an open slot, or all signed items when the pattern names no key.
func (p *Plan) selectCandidates() []int {
	var best []int
	found := false
	consider := func(q *qtype, role index.Role) {
		walkConcrete(q, func(n *qtype) {
			items := p.postings(n.keys, role)
			if !found || len(items) < len(best) {
				best, found = items, true
			}
		})
	}
	for i := range p.pattern.inputs {
		consider(&p.pattern.inputs[i], index.RoleInput)
	}
	if p.pattern.output != nil {
		consider(p.pattern.output, index.RoleOutput)
	}
	if !found {
		return p.snap.XRef.Signed()
	}
	return unionSorted(best, p.snap.XRef.Open())
}

func (p *Plan) postings(keys []typesig.Key, role index.Role) []int {
	var out []int
	for _, k := range keys {
		out = unionSorted(out, p.snap.XRef.Lookup(k).Items(role))
	}
	return out
}

func walkConcrete(q *qtype, fn func(*qtype)) {
	if !q.concrete() {
		return
	}
	fn(q)
	for i := range q.args {
		walkConcrete(&q.args[i], fn)
	}
}

func unionSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i == len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
