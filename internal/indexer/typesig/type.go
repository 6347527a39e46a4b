// Package typesig turns raw type codes into canonical signatures.
//
// Generic parameters are renumbered per item by order of first appearance
// (inputs, then output, then bounds), so two signatures that differ only in
// the naming of their generics have identical shapes.
package typesig

import (
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
)

// TypeKind tags the variant held by a Type.
type TypeKind uint8

const (
	// KindUnknown is a type the index could not name. It unifies with
	// anything and is never posted to the cross-reference index.
	KindUnknown TypeKind = iota
	KindPrimitive
	KindNamed
	KindGeneric
)

// Type is a canonical type tree.
type Type struct {
	Kind    TypeKind
	Prim    Primitive
	Path    descriptor.PathID
	Generic int
	Args    []Type
}

// Key is the identity of a concrete type, ignoring its arguments.
type Key struct {
	Kind TypeKind
	Prim Primitive
	Path descriptor.PathID
}

func Prim(p Primitive, args ...Type) Type {
	return Type{Kind: KindPrimitive, Prim: p, Path: descriptor.NoPath, Args: args}
}

func Named(id descriptor.PathID, args ...Type) Type {
	return Type{Kind: KindNamed, Path: id, Args: args}
}

func Generic(n int, args ...Type) Type {
	return Type{Kind: KindGeneric, Generic: n, Path: descriptor.NoPath, Args: args}
}

func Unknown() Type {
	return Type{Kind: KindUnknown, Path: descriptor.NoPath}
}

// Unit is the empty tuple, also used for an absent output.
func Unit() Type {
	return Prim(PrimUnit)
}

// Concrete reports whether the type has a Key.
func (t Type) Concrete() bool {
	return t.Kind == KindPrimitive || t.Kind == KindNamed
}

// Key returns the type's identity. Only meaningful when Concrete is true.
func (t Type) Key() Key {
	return Key{Kind: t.Kind, Prim: t.Prim, Path: t.Path}
}

// Walk calls fn for t and every nested argument, depth first.
func (t Type) Walk(fn func(Type)) {
	fn(t)
	for _, a := range t.Args {
		a.Walk(fn)
	}
}

// IsUnit reports whether t is unit or an argument-less tuple.
func (t Type) IsUnit() bool {
	if t.Kind != KindPrimitive {
		return false
	}
	return t.Prim == PrimUnit || (t.Prim == PrimTuple && len(t.Args) == 0)
}

// Shape renders t with generics as canonical slot numbers. Equal shapes
// mean equal types within one signature.
func (t Type) Shape() string {
	var b strings.Builder
	t.writeShape(&b)
	return b.String()
}

// Open reports whether t or any nested argument is a generic or unknown
// slot, so it may unify with a concrete query type.
func (t Type) Open() bool {
	open := false
	t.Walk(func(n Type) {
		if n.Kind == KindGeneric || n.Kind == KindUnknown {
			open = true
		}
	})
	return open
}

func (t Type) writeShape(b *strings.Builder) {
	switch t.Kind {
	case KindPrimitive:
		b.WriteString(t.Prim.String())
	case KindNamed:
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(int(t.Path)))
	case KindGeneric:
		b.WriteByte('G')
		b.WriteString(strconv.Itoa(t.Generic))
	default:
		b.WriteByte('?')
	}
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.writeShape(b)
		}
		b.WriteByte('>')
	}
}

// Signature is the canonical form of a function-like item's types.
// Generics counts the parameters in scope; Bounds[g] lists the bounds of
// canonical generic g.
type Signature struct {
	Inputs   []Type
	Output   Type
	Generics int
	Bounds   [][]Type
}

// Shape is a string identical for alpha-equivalent signatures and
// different otherwise.
func (s *Signature) Shape() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, in := range s.Inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		in.writeShape(&b)
	}
	b.WriteString(")->")
	s.Output.writeShape(&b)
	for g, bounds := range s.Bounds {
		if len(bounds) == 0 {
			continue
		}
		b.WriteString(" G")
		b.WriteString(strconv.Itoa(g))
		b.WriteByte(':')
		for i, bound := range bounds {
			if i > 0 {
				b.WriteByte('+')
			}
			bound.writeShape(&b)
		}
	}
	return b.String()
}

// Keys returns the distinct concrete keys mentioned anywhere in the
// signature grouped by the role of the enclosing position.
func (s *Signature) Keys() (inputs, output, bounds []Key) {
	collect := func(types []Type) []Key {
		seen := make(map[Key]struct{})
		var keys []Key
		for _, t := range types {
			t.Walk(func(n Type) {
				if !n.Concrete() {
					return
				}
				k := n.Key()
				if _, ok := seen[k]; ok {
					return
				}
				seen[k] = struct{}{}
				keys = append(keys, k)
			})
		}
		return keys
	}
	var flat []Type
	for _, b := range s.Bounds {
		flat = append(flat, b...)
	}
	return collect(s.Inputs), collect([]Type{s.Output}), collect(flat)
}
