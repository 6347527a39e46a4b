package typesig

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// NormalizeError reports an item whose types cannot be resolved. The item
// stays searchable by name but carries no signature.
type NormalizeError struct {
	Item   int
	Path   string
	Reason string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalizing item %d (%s): %s", e.Item, e.Path, e.Reason)
}

func (e *NormalizeError) Unwrap() error {
	return apperrors.ErrCorruptIndex
}

// Result holds one signature slot per item ID. Sigs[id] is nil for items
// without a signature and for items that failed to normalize.
type Result struct {
	Sigs     []*Signature
	Warnings []*NormalizeError
}

// Normalize canonicalizes every item's type codes. Failures are isolated to
// the offending item and recorded as warnings.
func Normalize(idx *descriptor.Index) *Result {
	logger := slog.Default().With("component", "typesig")
	res := &Result{Sigs: make([]*Signature, len(idx.Items))}
	for i := range idx.Items {
		item := &idx.Items[i]
		if item.Types == nil {
			continue
		}
		sig, err := NormalizeItem(idx, item)
		if err != nil {
			res.Warnings = append(res.Warnings, err)
			logger.Warn("dropping item signature",
				"item", item.ID,
				"path", err.Path,
				"reason", err.Reason,
			)
			continue
		}
		res.Sigs[i] = sig
	}
	return res
}

// NormalizeItem canonicalizes one item's type codes.
func NormalizeItem(idx *descriptor.Index, item *descriptor.Item) (*Signature, *NormalizeError) {
	tc := item.Types
	n := &normalizer{
		idx:      idx,
		generics: tc.Generics(),
		renumber: make(map[int]int, tc.Generics()),
	}
	fail := func(err error) *NormalizeError {
		return &NormalizeError{Item: item.ID, Path: idx.FullPath(item.ID), Reason: err.Error()}
	}

	inputs, err := n.list(tc.Inputs)
	if err != nil {
		return nil, fail(err)
	}
	outs, err := n.list(tc.Output)
	if err != nil {
		return nil, fail(err)
	}
	sig := &Signature{Inputs: inputs, Generics: n.generics}
	switch len(outs) {
	case 0:
		sig.Output = Unit()
	case 1:
		sig.Output = outs[0]
	default:
		sig.Output = Prim(PrimTuple, outs...)
	}
	if sig.Bounds, err = n.bounds(tc.Bounds); err != nil {
		return nil, fail(err)
	}
	return sig, nil
}

type normalizer struct {
	idx      *descriptor.Index
	generics int
	renumber map[int]int
	order    []int
}

func (n *normalizer) list(codes []descriptor.TypeCode) ([]Type, error) {
	out := make([]Type, 0, len(codes))
	for _, c := range codes {
		t, err := n.code(c)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (n *normalizer) code(c descriptor.TypeCode) (Type, error) {
	args, err := n.list(c.Args)
	if err != nil {
		return Type{}, err
	}
	switch {
	case c.Generic >= 0:
		if c.Generic >= n.generics {
			return Type{}, fmt.Errorf("generic slot %d out of scope (%d generics)", c.Generic, n.generics)
		}
		return Generic(n.slot(c.Generic), args...), nil
	case c.Path != descriptor.NoPath:
		if int(c.Path) >= len(n.idx.Paths) {
			return Type{}, fmt.Errorf("path %d out of range", c.Path)
		}
		seg := n.idx.Paths[c.Path]
		if seg.Kind != descriptor.KindPrimitive {
			return Named(c.Path, args...), nil
		}
		p, ok := ParsePrimitive(seg.Name)
		if !ok {
			return Type{}, fmt.Errorf("unknown primitive %q", seg.Name)
		}
		if p == PrimTuple && len(args) == 0 {
			return Unit(), nil
		}
		return Prim(p, args...), nil
	default:
		t := Unknown()
		t.Args = args
		return t, nil
	}
}

// slot maps an item-local generic slot to its canonical number.
func (n *normalizer) slot(g int) int {
	if c, ok := n.renumber[g]; ok {
		return c
	}
	c := len(n.order)
	n.renumber[g] = c
	n.order = append(n.order, g)
	return c
}

// bounds reorders bound lists into canonical slot order. Slots first seen
// inside a bound are numbered as they are reached; slots never mentioned
// come last in their original order.
func (n *normalizer) bounds(raw [][]descriptor.TypeCode) ([][]Type, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([][]Type, n.generics)
	done := 0
	drain := func() error {
		// n.order grows while bounds mention new slots
		for ; done < len(n.order); done++ {
			list, err := n.list(raw[n.order[done]])
			if err != nil {
				return err
			}
			out[done] = list
		}
		return nil
	}
	if err := drain(); err != nil {
		return nil, err
	}
	for g := range raw {
		if _, ok := n.renumber[g]; ok {
			continue
		}
		n.slot(g)
		if err := drain(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
