package typesig

import (
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
)

var genericNames = []string{"T", "U", "V", "W", "X", "Y", "Z"}

// GenericName returns the display name of canonical generic n.
func GenericName(n int) string {
	if n >= 0 && n < len(genericNames) {
		return genericNames[n]
	}
	return "T" + strconv.Itoa(n)
}

// Render formats the signature for display, e.g. "fn(T, &str) -> Result<T>".
// A unit output is omitted.
func (s *Signature) Render(idx *descriptor.Index) string {
	var b strings.Builder
	b.WriteString("fn(")
	for i, in := range s.Inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		in.render(&b, idx)
	}
	b.WriteByte(')')
	if !s.Output.IsUnit() {
		b.WriteString(" -> ")
		s.Output.render(&b, idx)
	}
	first := true
	for g, bounds := range s.Bounds {
		if len(bounds) == 0 {
			continue
		}
		if first {
			b.WriteString(" where ")
			first = false
		} else {
			b.WriteString(", ")
		}
		b.WriteString(GenericName(g))
		b.WriteString(": ")
		for i, bound := range bounds {
			if i > 0 {
				b.WriteString(" + ")
			}
			bound.render(&b, idx)
		}
	}
	return b.String()
}

// Render formats a single type.
func (t Type) Render(idx *descriptor.Index) string {
	var b strings.Builder
	t.render(&b, idx)
	return b.String()
}

func (t Type) render(b *strings.Builder, idx *descriptor.Index) {
	switch t.Kind {
	case KindPrimitive:
		t.renderPrimitive(b, idx)
		return
	case KindNamed:
		if idx != nil && int(t.Path) < len(idx.Paths) {
			b.WriteString(idx.Paths[t.Path].Name)
		} else {
			b.WriteString("#" + strconv.Itoa(int(t.Path)))
		}
	case KindGeneric:
		b.WriteString(GenericName(t.Generic))
	default:
		b.WriteByte('_')
	}
	if len(t.Args) > 0 {
		b.WriteByte('<')
		renderList(b, idx, t.Args)
		b.WriteByte('>')
	}
}

func (t Type) renderPrimitive(b *strings.Builder, idx *descriptor.Index) {
	arg := func() {
		if len(t.Args) == 0 {
			b.WriteByte('_')
			return
		}
		t.Args[0].render(b, idx)
	}
	switch t.Prim {
	case PrimUnit:
		b.WriteString("()")
	case PrimNever:
		b.WriteByte('!')
	case PrimTuple:
		b.WriteByte('(')
		renderList(b, idx, t.Args)
		if len(t.Args) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case PrimSlice, PrimArray:
		b.WriteByte('[')
		arg()
		b.WriteByte(']')
	case PrimReference:
		b.WriteByte('&')
		arg()
	case PrimPointer:
		b.WriteString("*const ")
		arg()
	case PrimFn:
		b.WriteString("fn(")
		renderList(b, idx, t.Args)
		b.WriteByte(')')
	default:
		b.WriteString(t.Prim.String())
		if len(t.Args) > 0 {
			b.WriteByte('<')
			renderList(b, idx, t.Args)
			b.WriteByte('>')
		}
	}
}

func renderList(b *strings.Builder, idx *descriptor.Index, types []Type) {
	for i, a := range types {
		if i > 0 {
			b.WriteString(", ")
		}
		a.render(b, idx)
	}
}
