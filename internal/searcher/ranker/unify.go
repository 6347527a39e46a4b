package ranker

import (
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/typesig"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
)

// qtype is a query type resolved against the snapshot vocabulary. A
// concrete qtype may stand for several keys when its name is ambiguous.
// via lists the reference and pointer layers written around it, outermost
// first; the index usually records the pointee only.
type qtype struct {
	wild bool
	v    int
	keys []typesig.Key
	args []qtype
	via  []typesig.Key
	text string
}

func (q *qtype) concrete() bool {
	return !q.wild && q.v < 0
}

func (q *qtype) hasKey(k typesig.Key) bool {
	for _, want := range q.keys {
		if want == k {
			return true
		}
	}
	return false
}

type resolver struct {
	vocab *index.Vocab
	vars  map[string]int
}

func (r *resolver) resolve(e parser.TypeExpr) qtype {
	q := qtype{v: -1, text: e.String()}
	prim := func(p typesig.Primitive) {
		q.keys = []typesig.Key{typesig.Prim(p).Key()}
	}
	switch e.Kind {
	case parser.ExprWildcard:
		q.wild = true
		return q
	case parser.ExprVar:
		q.v = r.vars[e.Var]
		return q
	case parser.ExprUnit:
		prim(typesig.PrimUnit)
	case parser.ExprNever:
		prim(typesig.PrimNever)
	case parser.ExprTuple:
		prim(typesig.PrimTuple)
	case parser.ExprSlice:
		q.keys = []typesig.Key{typesig.Prim(typesig.PrimSlice).Key(), typesig.Prim(typesig.PrimArray).Key()}
	case parser.ExprRef, parser.ExprPtr:
		layer := typesig.Prim(typesig.PrimReference).Key()
		if e.Kind == parser.ExprPtr {
			layer = typesig.Prim(typesig.PrimPointer).Key()
		}
		if len(e.Args) == 0 {
			q.wild = true
			return q
		}
		inner := r.resolve(e.Args[0])
		inner.via = append([]typesig.Key{layer}, inner.via...)
		return inner
	default:
		q.keys = r.vocab.Resolve(e.Qualifiers(), e.Name())
		if len(q.keys) == 0 {
			// unknown names constrain nothing
			q.wild = true
			return q
		}
	}
	for _, a := range e.Args {
		q.args = append(q.args, r.resolve(a))
	}
	return q
}

// bindings holds the two substitution maps of one unification attempt:
// query variable to item type shape, and item generic to query type.
// loose records that something other than identity was needed.
type bindings struct {
	qv    []string
	ig    []string
	loose bool
}

func newBindings(vars, generics int) *bindings {
	return &bindings{qv: make([]string, vars), ig: make([]string, generics)}
}

func (b *bindings) clone() *bindings {
	return &bindings{
		qv:    append([]string(nil), b.qv...),
		ig:    append([]string(nil), b.ig...),
		loose: b.loose,
	}
}

func (b *bindings) bindGeneric(g int, to string) bool {
	if g < 0 || g >= len(b.ig) {
		return false
	}
	if cur := b.ig[g]; cur != "" {
		return cur == to
	}
	b.ig[g] = to
	return true
}

func (b *bindings) bindVar(v int, shape string) bool {
	if cur := b.qv[v]; cur != "" {
		return cur == shape
	}
	b.qv[v] = shape
	return true
}

type unifier struct {
	unify bool
}

// unifyType matches one query type against one item type, extending b.
// b is left in an unspecified state when it returns false.
func (u *unifier) unifyType(q qtype, t typesig.Type, b *bindings) bool {
	if len(q.via) > 0 {
		if t.Kind == typesig.KindPrimitive && t.Key() == q.via[0] && len(t.Args) == 1 {
			q.via = q.via[1:]
			return u.unifyType(q, t.Args[0], b)
		}
		// &T and *T match a bare T: the blob drops indirection
		q.via = nil
	}
	if q.wild || t.Kind == typesig.KindUnknown {
		b.loose = true
		return true
	}
	if q.v >= 0 {
		if t.Kind != typesig.KindGeneric && !u.unify {
			return false
		}
		if !b.bindVar(q.v, t.Shape()) {
			return false
		}
		if t.Kind == typesig.KindGeneric && !b.bindGeneric(t.Generic, "$"+q.text) {
			return false
		}
		b.loose = true
		return true
	}
	if t.Kind == typesig.KindGeneric {
		if !u.unify || !b.bindGeneric(t.Generic, q.text) {
			return false
		}
		b.loose = true
		return true
	}
	if !q.hasKey(t.Key()) {
		return false
	}
	if len(q.args) == 0 {
		return true
	}
	res := u.bag(q.args, t.Args, make([]bool, len(t.Args)), b, nil)
	if res == nil {
		return false
	}
	*b = *res
	return true
}

// bag assigns each query type to a distinct item type and then calls done,
// backtracking over assignments. An assignment that needs no loosening is
// preferred; otherwise the first successful one is returned. done may be
// nil.
func (u *unifier) bag(qs []qtype, ts []typesig.Type, used []bool, b *bindings, done func(*bindings) *bindings) *bindings {
	if len(qs) == 0 {
		if done == nil {
			return b
		}
		return done(b)
	}
	var fallback *bindings
	for j, t := range ts {
		if used[j] {
			continue
		}
		nb := b.clone()
		if !u.unifyType(qs[0], t, nb) {
			continue
		}
		used[j] = true
		res := u.bag(qs[1:], ts, used, nb, done)
		used[j] = false
		if res == nil {
			continue
		}
		if !res.loose {
			return res
		}
		if fallback == nil {
			fallback = res
		}
	}
	return fallback
}

// matchSig unifies a whole pattern with a signature.
func (u *unifier) matchSig(pat *resolvedPattern, sig *typesig.Signature) (TypeTier, bool) {
	b := newBindings(pat.vars, sig.Generics)

	output := func(b *bindings) *bindings {
		if pat.output == nil {
			return b
		}
		nb := b.clone()
		if !u.unifyType(*pat.output, sig.Output, nb) {
			return nil
		}
		return nb
	}

	var res *bindings
	switch {
	case !pat.hasInputs:
		res = output(b)
	case pat.ordered:
		if len(pat.inputs) != len(sig.Inputs) {
			return TypeNone, false
		}
		for i, in := range pat.inputs {
			if !u.unifyType(in, sig.Inputs[i], b) {
				return TypeNone, false
			}
		}
		res = output(b)
	default:
		if len(pat.inputs) > len(sig.Inputs) {
			return TypeNone, false
		}
		res = u.bag(pat.inputs, sig.Inputs, make([]bool, len(sig.Inputs)), b, output)
	}
	if res == nil {
		return TypeNone, false
	}
	if res.loose {
		return TypeUnified, true
	}
	return TypeExact, true
}

type resolvedPattern struct {
	inputs    []qtype
	output    *qtype
	ordered   bool
	hasInputs bool
	vars      int
}

func resolvePattern(p *parser.Pattern, vocab *index.Vocab) *resolvedPattern {
	vars := p.Vars()
	r := &resolver{vocab: vocab, vars: make(map[string]int, len(vars))}
	for i, v := range vars {
		r.vars[v] = i
	}
	rp := &resolvedPattern{ordered: p.Ordered, hasInputs: p.HasInputs, vars: len(vars)}
	for _, in := range p.Inputs {
		rp.inputs = append(rp.inputs, r.resolve(in))
	}
	if p.Output != nil {
		out := r.resolve(*p.Output)
		rp.output = &out
	}
	return rp
}
