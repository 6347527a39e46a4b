// Package descriptor expands the compact search-index blob into resolved,
// immutable item and path-segment collections.
package descriptor

import "strings"

// ModuleID addresses an interned module path string.
type ModuleID int32

// PathID addresses a deduplicated path segment.
type PathID int32

const (
	NoModule ModuleID = -1
	NoPath   PathID   = -1
)

// PathSegment is a named type or module location shared by reference.
type PathSegment struct {
	Crate  string
	Module ModuleID
	Name   string
	Kind   ItemKind
}

// TypeCode is an unresolved type reference: a path handle, a generic slot,
// or unknown when neither is set.
type TypeCode struct {
	Path    PathID
	Generic int
	Args    []TypeCode
}

// IsUnknown reports whether the code references neither a path nor a slot.
func (c TypeCode) IsUnknown() bool {
	return c.Path == NoPath && c.Generic < 0
}

// PathCode builds a code referencing a path segment.
func PathCode(id PathID, args ...TypeCode) TypeCode {
	return TypeCode{Path: id, Generic: -1, Args: args}
}

// GenericCode builds a code referencing generic slot n of the owning item.
func GenericCode(n int, args ...TypeCode) TypeCode {
	return TypeCode{Path: NoPath, Generic: n, Args: args}
}

// UnknownCode builds a code for a type the blob could not name.
func UnknownCode() TypeCode {
	return TypeCode{Path: NoPath, Generic: -1}
}

// TypeCodes is the raw signature payload of a function-like item. The
// number of generic parameters is len(Bounds).
type TypeCodes struct {
	Inputs []TypeCode
	Output []TypeCode
	Bounds [][]TypeCode
}

// Generics returns the number of generic parameters in scope.
func (t *TypeCodes) Generics() int {
	return len(t.Bounds)
}

// Item is one documented entity. Types is non-nil only for kinds that
// carry a signature.
type Item struct {
	ID         int
	Crate      int
	Kind       ItemKind
	Name       string
	Module     ModuleID
	Parent     PathID
	Desc       string
	Deprecated bool
	Types      *TypeCodes
}

// Crate is a contiguous range [Start, End) of item IDs.
type Crate struct {
	Name  string
	Doc   string
	Start int
	End   int
}

// Index is the decoded blob.
type Index struct {
	Crates  []Crate
	Items   []Item
	Paths   []PathSegment
	Modules []string
}

// ModulePath returns the module path string, or "" for NoModule.
func (x *Index) ModulePath(id ModuleID) string {
	if id < 0 || int(id) >= len(x.Modules) {
		return ""
	}
	return x.Modules[id]
}

// PathString renders a path segment as module::name.
func (x *Index) PathString(id PathID) string {
	if id < 0 || int(id) >= len(x.Paths) {
		return ""
	}
	seg := x.Paths[id]
	if mod := x.ModulePath(seg.Module); mod != "" {
		return mod + "::" + seg.Name
	}
	return seg.Name
}

// FullPath renders the item's module, parent and name joined by "::".
func (x *Index) FullPath(id int) string {
	item := &x.Items[id]
	parts := make([]string, 0, 3)
	if mod := x.ModulePath(item.Module); mod != "" {
		parts = append(parts, mod)
	}
	if item.Parent != NoPath {
		parts = append(parts, x.Paths[item.Parent].Name)
	}
	parts = append(parts, item.Name)
	return strings.Join(parts, "::")
}

// CrateOf returns the crate record an item belongs to.
func (x *Index) CrateOf(id int) *Crate {
	return &x.Crates[x.Items[id].Crate]
}

// FindCrate returns the crate index by name.
func (x *Index) FindCrate(name string) (int, bool) {
	for i := range x.Crates {
		if strings.EqualFold(x.Crates[i].Name, name) {
			return i, true
		}
	}
	return -1, false
}

// interner deduplicates module strings and path segments while building.
type interner struct {
	idx     *Index
	modules map[string]ModuleID
	paths   map[pathKey]PathID
}

type pathKey struct {
	module ModuleID
	name   string
	kind   ItemKind
}

func newInterner(idx *Index) *interner {
	return &interner{
		idx:     idx,
		modules: make(map[string]ModuleID),
		paths:   make(map[pathKey]PathID),
	}
}

func (in *interner) module(path string) ModuleID {
	if id, ok := in.modules[path]; ok {
		return id
	}
	id := ModuleID(len(in.idx.Modules))
	in.idx.Modules = append(in.idx.Modules, path)
	in.modules[path] = id
	return id
}

func (in *interner) path(kind ItemKind, module ModuleID, name string) PathID {
	key := pathKey{module: module, name: name, kind: kind}
	if id, ok := in.paths[key]; ok {
		return id
	}
	crate := in.idx.ModulePath(module)
	if i := strings.Index(crate, "::"); i >= 0 {
		crate = crate[:i]
	}
	id := PathID(len(in.idx.Paths))
	in.idx.Paths = append(in.idx.Paths, PathSegment{
		Crate:  crate,
		Module: module,
		Name:   name,
		Kind:   kind,
	})
	in.paths[key] = id
	return id
}
