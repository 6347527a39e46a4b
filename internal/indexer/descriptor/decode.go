package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// rawCrate mirrors one crate entry of the blob.
type rawCrate struct {
	Doc string              `json:"doc"`
	T   string              `json:"t"`
	N   []string            `json:"n"`
	Q   [][]json.RawMessage `json:"q"`
	D   []string            `json:"d"`
	I   []int               `json:"i"`
	F   []json.RawMessage   `json:"f"`
	C   []int               `json:"c"`
	P   [][]json.RawMessage `json:"p"`
}

// Decode expands a JSON search-index object ({crate: {...}}) into an Index.
// It either returns a complete Index or a *DecodeError, never both.
func Decode(data []byte) (*Index, error) {
	var crates map[string]json.RawMessage
	if err := json.Unmarshal(data, &crates); err != nil {
		return nil, &DecodeError{Index: -1, Reason: fmt.Sprintf("parsing blob: %v", err)}
	}
	if len(crates) == 0 {
		return nil, &DecodeError{Index: -1, Reason: "blob contains no crates"}
	}
	names := make([]string, 0, len(crates))
	for name := range crates {
		names = append(names, name)
	}
	sort.Strings(names)

	idx := &Index{}
	in := newInterner(idx)
	for _, name := range names {
		var rc rawCrate
		if err := json.Unmarshal(crates[name], &rc); err != nil {
			return nil, decodeErr(name, "", -1, "parsing crate: %v", err)
		}
		if err := decodeCrate(idx, in, name, &rc); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func decodeCrate(idx *Index, in *interner, name string, rc *rawCrate) error {
	count := len(rc.T)
	columns := []struct {
		field string
		n     int
	}{
		{"n", len(rc.N)},
		{"d", len(rc.D)},
		{"i", len(rc.I)},
		{"f", len(rc.F)},
	}
	for _, col := range columns {
		if col.n != count {
			return decodeErr(name, col.field, -1, "has %d entries, kind column has %d", col.n, count)
		}
	}

	root := in.module(name)
	qKeys, itemModules, err := decodeModules(in, name, rc.Q, count, root)
	if err != nil {
		return err
	}
	paths, err := decodePaths(in, name, rc.P, qKeys, root)
	if err != nil {
		return err
	}

	deprecated := make(map[int]struct{}, len(rc.C))
	for k, pos := range rc.C {
		if pos < 0 || pos >= count {
			return decodeErr(name, "c", k, "deprecated item %d out of range [0,%d)", pos, count)
		}
		deprecated[pos] = struct{}{}
	}

	crateIdx := len(idx.Crates)
	start := len(idx.Items)
	items := make([]Item, 0, count)
	for pos := 0; pos < count; pos++ {
		kind, ok := KindFromCode(rc.T[pos])
		if !ok {
			return decodeErr(name, "t", pos, "unknown kind %q", rc.T[pos])
		}
		parent := NoPath
		if p := rc.I[pos]; p != 0 {
			if p < 0 || p > len(paths) {
				return decodeErr(name, "i", pos, "parent index %d out of range [1,%d]", p, len(paths))
			}
			parent = paths[p-1]
		}
		types, err := decodeTypes(rc.F[pos], paths)
		if err != nil {
			return decodeErr(name, "f", pos, "%v", err)
		}
		if types != nil && !kind.HasSignature() {
			return decodeErr(name, "f", pos, "kind %s cannot carry a signature", kind)
		}
		_, isDeprecated := deprecated[pos]
		items = append(items, Item{
			ID:         start + pos,
			Crate:      crateIdx,
			Kind:       kind,
			Name:       rc.N[pos],
			Module:     itemModules[pos],
			Parent:     parent,
			Desc:       rc.D[pos],
			Deprecated: isDeprecated,
			Types:      types,
		})
	}

	idx.Items = append(idx.Items, items...)
	idx.Crates = append(idx.Crates, Crate{
		Name:  name,
		Doc:   rc.Doc,
		Start: start,
		End:   start + count,
	})
	return nil
}

// decodeModules resolves the sparse q column. Keys below count carry
// forward over items; all keys may be referenced by the path table.
func decodeModules(in *interner, crate string, q [][]json.RawMessage, count int, root ModuleID) (map[int]ModuleID, []ModuleID, error) {
	keys := make(map[int]ModuleID, len(q))
	order := make([]int, 0, len(q))
	last := -1
	for k, entry := range q {
		if len(entry) != 2 {
			return nil, nil, decodeErr(crate, "q", k, "expected [index, path], got %d elements", len(entry))
		}
		var key int
		var path string
		if err := json.Unmarshal(entry[0], &key); err != nil {
			return nil, nil, decodeErr(crate, "q", k, "bad index: %v", err)
		}
		if err := json.Unmarshal(entry[1], &path); err != nil {
			return nil, nil, decodeErr(crate, "q", k, "bad path: %v", err)
		}
		if key <= last {
			return nil, nil, decodeErr(crate, "q", k, "index %d not increasing", key)
		}
		last = key
		keys[key] = in.module(path)
		order = append(order, key)
	}

	modules := make([]ModuleID, count)
	current := root
	next := 0
	for pos := 0; pos < count; pos++ {
		for next < len(order) && order[next] <= pos {
			current = keys[order[next]]
			next++
		}
		modules[pos] = current
	}
	return keys, modules, nil
}

func decodePaths(in *interner, crate string, p [][]json.RawMessage, qKeys map[int]ModuleID, root ModuleID) ([]PathID, error) {
	ids := make([]PathID, len(p))
	lastModule := root
	for k, entry := range p {
		if len(entry) < 2 || len(entry) > 3 {
			return nil, decodeErr(crate, "p", k, "expected [kind, name, module?], got %d elements", len(entry))
		}
		var kindNum int
		var name string
		if err := json.Unmarshal(entry[0], &kindNum); err != nil {
			return nil, decodeErr(crate, "p", k, "bad kind: %v", err)
		}
		if kindNum < 0 || !ItemKind(kindNum).Valid() {
			return nil, decodeErr(crate, "p", k, "unknown kind %d", kindNum)
		}
		if err := json.Unmarshal(entry[1], &name); err != nil {
			return nil, decodeErr(crate, "p", k, "bad name: %v", err)
		}
		kind := ItemKind(kindNum)
		module := NoModule
		switch {
		case len(entry) == 3:
			var key int
			if err := json.Unmarshal(entry[2], &key); err != nil {
				return nil, decodeErr(crate, "p", k, "bad module reference: %v", err)
			}
			m, ok := qKeys[key]
			if !ok {
				return nil, decodeErr(crate, "p", k, "module reference %d not present in q", key)
			}
			module = m
			lastModule = m
		case kind != KindPrimitive:
			module = lastModule
		}
		ids[k] = in.path(kind, module, name)
	}
	return ids, nil
}

var errShape = errors.New("invalid type code shape")

func decodeTypes(raw json.RawMessage, paths []PathID) (*TypeCodes, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parsing type codes: %w", err)
	}
	switch t := v.(type) {
	case float64:
		if t != 0 {
			return nil, fmt.Errorf("%w: expected 0 or a list, got %v", errShape, t)
		}
		return nil, nil
	case []any:
		if len(t) == 0 {
			return nil, fmt.Errorf("%w: empty signature", errShape)
		}
		inputs, err := decodeTypeList(t[0], paths)
		if err != nil {
			return nil, fmt.Errorf("inputs: %w", err)
		}
		tc := &TypeCodes{Inputs: inputs}
		if len(t) > 1 {
			if tc.Output, err = decodeTypeList(t[1], paths); err != nil {
				return nil, fmt.Errorf("output: %w", err)
			}
		}
		for g, bound := range t[min(len(t), 2):] {
			list, err := decodeTypeList(bound, paths)
			if err != nil {
				return nil, fmt.Errorf("bounds of generic %d: %w", g, err)
			}
			tc.Bounds = append(tc.Bounds, list)
		}
		return tc, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %T", errShape, v)
	}
}

// decodeTypeList accepts a bare number (one type) or a list of elements.
func decodeTypeList(v any, paths []PathID) ([]TypeCode, error) {
	switch t := v.(type) {
	case float64:
		code, err := decodeRef(t, nil, paths)
		if err != nil {
			return nil, err
		}
		return []TypeCode{code}, nil
	case []any:
		codes := make([]TypeCode, 0, len(t))
		for _, elem := range t {
			code, err := decodeTypeElem(elem, paths)
			if err != nil {
				return nil, err
			}
			codes = append(codes, code)
		}
		return codes, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %T in type list", errShape, v)
	}
}

// decodeTypeElem accepts a number or [id, [generic args]].
func decodeTypeElem(v any, paths []PathID) (TypeCode, error) {
	switch t := v.(type) {
	case float64:
		return decodeRef(t, nil, paths)
	case []any:
		if len(t) == 0 || len(t) > 2 {
			return TypeCode{}, fmt.Errorf("%w: type element has %d parts", errShape, len(t))
		}
		id, ok := t[0].(float64)
		if !ok {
			return TypeCode{}, fmt.Errorf("%w: type element id is %T", errShape, t[0])
		}
		var args []TypeCode
		if len(t) == 2 {
			var err error
			if args, err = decodeTypeList(t[1], paths); err != nil {
				return TypeCode{}, err
			}
		}
		return decodeRef(id, args, paths)
	default:
		return TypeCode{}, fmt.Errorf("%w: unexpected %T in type element", errShape, v)
	}
}

func decodeRef(n float64, args []TypeCode, paths []PathID) (TypeCode, error) {
	if n != math.Trunc(n) {
		return TypeCode{}, fmt.Errorf("%w: non-integer type id %v", errShape, n)
	}
	id := int(n)
	switch {
	case id > 0:
		if id > len(paths) {
			return TypeCode{}, fmt.Errorf("type path index %d out of range [1,%d]", id, len(paths))
		}
		return PathCode(paths[id-1], args...), nil
	case id < 0:
		return GenericCode(-id-1, args...), nil
	default:
		code := UnknownCode()
		code.Args = args
		return code, nil
	}
}
