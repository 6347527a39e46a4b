package descriptor

import (
	"errors"
	"fmt"
)

// ItemSpec describes an item added through a Builder.
type ItemSpec struct {
	Kind       ItemKind
	Name       string
	Desc       string
	Types      *TypeCodes
	Deprecated bool
}

// Fn builds a signature payload with the given number of unbounded generics.
func Fn(inputs []TypeCode, output []TypeCode, generics int) *TypeCodes {
	return &TypeCodes{
		Inputs: inputs,
		Output: output,
		Bounds: make([][]TypeCode, generics),
	}
}

// Builder assembles an Index in memory. It is used for synthetic indexes
// and by tools that re-pack a decoded index.
type Builder struct {
	idx    *Index
	in     *interner
	module ModuleID
	err    error
}

func NewBuilder() *Builder {
	idx := &Index{}
	return &Builder{
		idx:    idx,
		in:     newInterner(idx),
		module: NoModule,
	}
}

// Crate starts a new crate. Items added afterwards belong to it and default
// to the crate's root module. Crates must be added in name order.
func (b *Builder) Crate(name, doc string) *Builder {
	if n := len(b.idx.Crates); n > 0 && b.idx.Crates[n-1].Name >= name {
		b.fail(fmt.Errorf("crate %q added after %q", name, b.idx.Crates[n-1].Name))
	}
	start := len(b.idx.Items)
	b.idx.Crates = append(b.idx.Crates, Crate{Name: name, Doc: doc, Start: start, End: start})
	b.module = b.in.module(name)
	return b
}

// Module sets the module path for subsequently added items.
func (b *Builder) Module(path string) *Builder {
	b.module = b.in.module(path)
	return b
}

// Path interns a path segment. An empty module is only valid for primitives.
func (b *Builder) Path(kind ItemKind, module, name string) PathID {
	if module == "" {
		if kind != KindPrimitive {
			b.fail(fmt.Errorf("path %q of kind %s needs a module", name, kind))
		}
		return b.in.path(kind, NoModule, name)
	}
	return b.in.path(kind, b.in.module(module), name)
}

// Primitive interns a primitive type path.
func (b *Builder) Primitive(name string) PathID {
	return b.in.path(KindPrimitive, NoModule, name)
}

// Add appends an item to the current crate and returns its ID.
func (b *Builder) Add(spec ItemSpec) int {
	return b.AddChild(NoPath, spec)
}

// AddChild appends an item owned by the given parent path.
func (b *Builder) AddChild(parent PathID, spec ItemSpec) int {
	if len(b.idx.Crates) == 0 {
		b.fail(errors.New("item added before any crate"))
		return -1
	}
	if spec.Types != nil && !spec.Kind.HasSignature() {
		b.fail(fmt.Errorf("item %q: kind %s cannot carry a signature", spec.Name, spec.Kind))
	}
	crate := len(b.idx.Crates) - 1
	id := len(b.idx.Items)
	b.idx.Items = append(b.idx.Items, Item{
		ID:         id,
		Crate:      crate,
		Kind:       spec.Kind,
		Name:       spec.Name,
		Module:     b.module,
		Parent:     parent,
		Desc:       spec.Desc,
		Deprecated: spec.Deprecated,
		Types:      spec.Types,
	})
	b.idx.Crates[crate].End = id + 1
	return id
}

// Build returns the assembled index or the first error recorded.
func (b *Builder) Build() (*Index, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.idx.Crates) == 0 {
		return nil, errors.New("index has no crates")
	}
	return b.idx, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
