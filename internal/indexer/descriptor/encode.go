package descriptor

import (
	"encoding/json"
	"fmt"
)

type encodedCrate struct {
	Doc string   `json:"doc"`
	T   string   `json:"t"`
	N   []string `json:"n"`
	Q   [][]any  `json:"q"`
	D   []string `json:"d"`
	I   []int    `json:"i"`
	F   []any    `json:"f"`
	C   []int    `json:"c"`
	P   [][]any  `json:"p"`
}

// Encode produces the compact JSON form that Decode reads. Each crate gets
// its own path table holding only the paths its items reference.
func Encode(idx *Index) ([]byte, error) {
	out := make(map[string]*encodedCrate, len(idx.Crates))
	for i := range idx.Crates {
		enc, err := encodeCrate(idx, &idx.Crates[i])
		if err != nil {
			return nil, err
		}
		out[idx.Crates[i].Name] = enc
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling index: %w", err)
	}
	return data, nil
}

type crateEncoder struct {
	idx   *Index
	local map[PathID]int
	paths []PathID
}

func (e *crateEncoder) ref(id PathID) int {
	if n, ok := e.local[id]; ok {
		return n
	}
	e.paths = append(e.paths, id)
	e.local[id] = len(e.paths)
	return len(e.paths)
}

func encodeCrate(idx *Index, crate *Crate) (*encodedCrate, error) {
	count := crate.End - crate.Start
	enc := &encodedCrate{
		Doc: crate.Doc,
		N:   make([]string, 0, count),
		Q:   make([][]any, 0),
		D:   make([]string, 0, count),
		I:   make([]int, 0, count),
		F:   make([]any, 0, count),
		C:   make([]int, 0),
		P:   make([][]any, 0),
	}
	ce := &crateEncoder{idx: idx, local: make(map[PathID]int)}
	kinds := make([]byte, 0, count)
	moduleKey := make(map[ModuleID]int)
	prev := NoModule

	for pos := 0; pos < count; pos++ {
		item := &idx.Items[crate.Start+pos]
		kinds = append(kinds, item.Kind.Code())
		enc.N = append(enc.N, item.Name)
		enc.D = append(enc.D, item.Desc)
		if pos == 0 || item.Module != prev {
			if item.Module == NoModule {
				return nil, fmt.Errorf("encoding crate %q item %d: item has no module", crate.Name, pos)
			}
			enc.Q = append(enc.Q, []any{pos, idx.Modules[item.Module]})
			if _, ok := moduleKey[item.Module]; !ok {
				moduleKey[item.Module] = pos
			}
			prev = item.Module
		}
		parent := 0
		if item.Parent != NoPath {
			parent = ce.ref(item.Parent)
		}
		enc.I = append(enc.I, parent)
		if item.Types == nil {
			enc.F = append(enc.F, 0)
		} else {
			enc.F = append(enc.F, ce.signature(item.Types))
		}
		if item.Deprecated {
			enc.C = append(enc.C, pos)
		}
	}
	enc.T = string(kinds)

	extra := count
	for _, id := range ce.paths {
		seg := idx.Paths[id]
		entry := []any{int(seg.Kind), seg.Name}
		if seg.Module != NoModule {
			key, ok := moduleKey[seg.Module]
			if !ok {
				key = extra
				extra++
				moduleKey[seg.Module] = key
				enc.Q = append(enc.Q, []any{key, idx.Modules[seg.Module]})
			}
			entry = append(entry, key)
		} else if seg.Kind != KindPrimitive {
			return nil, fmt.Errorf("encoding crate %q: path %q has no module", crate.Name, seg.Name)
		}
		enc.P = append(enc.P, entry)
	}
	return enc, nil
}

func (e *crateEncoder) signature(tc *TypeCodes) []any {
	sig := []any{e.list(tc.Inputs)}
	if len(tc.Output) == 0 && len(tc.Bounds) == 0 {
		return sig
	}
	sig = append(sig, e.list(tc.Output))
	for _, bound := range tc.Bounds {
		sig = append(sig, e.elems(bound))
	}
	return sig
}

// list writes a lone argument-free type as a bare number.
func (e *crateEncoder) list(codes []TypeCode) any {
	if len(codes) == 1 && len(codes[0].Args) == 0 {
		return e.id(codes[0])
	}
	return e.elems(codes)
}

func (e *crateEncoder) elems(codes []TypeCode) []any {
	out := make([]any, 0, len(codes))
	for _, c := range codes {
		if len(c.Args) == 0 {
			out = append(out, e.id(c))
			continue
		}
		out = append(out, []any{e.id(c), e.elems(c.Args)})
	}
	return out
}

func (e *crateEncoder) id(c TypeCode) int {
	switch {
	case c.Path != NoPath:
		return e.ref(c.Path)
	case c.Generic >= 0:
		return -(c.Generic + 1)
	default:
		return 0
	}
}
