package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExprKind tags the variant held by a TypeExpr.
type ExprKind uint8

const (
	ExprWildcard ExprKind = iota
	ExprName
	ExprVar
	ExprUnit
	ExprNever
	ExprTuple
	ExprSlice
	ExprRef
	ExprPtr
)

// TypeExpr is one type as written in a query. Names are unresolved; the
// matcher maps them to index keys.
type TypeExpr struct {
	Kind ExprKind
	// Path holds the qualifiers and name of an ExprName, lower-cased.
	Path []string
	// Var names an ExprVar: "generic" or a single upper-case letter.
	Var  string
	Mut  bool
	Args []TypeExpr
}

// Name returns the last path component of an ExprName.
func (e TypeExpr) Name() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[len(e.Path)-1]
}

// Qualifiers returns the path components before the name.
func (e TypeExpr) Qualifiers() []string {
	if len(e.Path) < 2 {
		return nil
	}
	return e.Path[:len(e.Path)-1]
}

func (e TypeExpr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e TypeExpr) write(b *strings.Builder) {
	switch e.Kind {
	case ExprWildcard:
		b.WriteByte('_')
	case ExprVar:
		b.WriteString(e.Var)
	case ExprUnit:
		b.WriteString("()")
	case ExprNever:
		b.WriteByte('!')
	case ExprTuple:
		writeList(b, "(", ")", e.Args)
	case ExprSlice:
		b.WriteByte('[')
		e.Args[0].write(b)
		b.WriteByte(']')
	case ExprRef:
		b.WriteByte('&')
		if e.Mut {
			b.WriteString("mut ")
		}
		e.Args[0].write(b)
	case ExprPtr:
		if e.Mut {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}
		e.Args[0].write(b)
	default:
		b.WriteString(strings.Join(e.Path, "::"))
		if len(e.Args) > 0 {
			writeList(b, "<", ">", e.Args)
		}
	}
}

func writeList(b *strings.Builder, open, close string, list []TypeExpr) {
	b.WriteString(open)
	for i, a := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		a.write(b)
	}
	b.WriteString(close)
}

// Pattern is a signature query. Ordered patterns ("fn(a, b)") match inputs
// positionally and require equal arity; unordered ones ("(a, b)") only
// require each written input to find a distinct counterpart. A nil Output
// leaves the return type unconstrained.
type Pattern struct {
	Inputs    []TypeExpr
	Output    *TypeExpr
	Ordered   bool
	HasInputs bool
}

func (p *Pattern) String() string {
	var b strings.Builder
	if p.HasInputs {
		if p.Ordered {
			b.WriteString("fn")
		}
		writeList(&b, "(", ")", p.Inputs)
	}
	if p.Output != nil {
		if p.HasInputs {
			b.WriteByte(' ')
		}
		b.WriteString("-> ")
		p.Output.write(&b)
	}
	return b.String()
}

// Vars returns the distinct type variables the pattern mentions.
func (p *Pattern) Vars() []string {
	seen := make(map[string]struct{})
	var out []string
	var walk func(e TypeExpr)
	walk = func(e TypeExpr) {
		if e.Kind == ExprVar {
			if _, ok := seen[e.Var]; !ok {
				seen[e.Var] = struct{}{}
				out = append(out, e.Var)
			}
		}
		for _, a := range e.Args {
			walk(a)
		}
	}
	for _, in := range p.Inputs {
		walk(in)
	}
	if p.Output != nil {
		walk(*p.Output)
	}
	return out
}

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokPunct
	tokArrow
)

type token struct {
	kind tokKind
	text string
}

// lex splits signature text into identifiers (with "::" kept inside
// paths), "->" and single punctuation runes. ok is false on a rune that
// cannot appear in a signature.
func lex(s string) (toks []token, ok bool) {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case strings.HasPrefix(s[i:], "->"):
			toks = append(toks, token{tokArrow, "->"})
			i += 2
		case isIdentRune(r):
			j := i
			for j < len(s) {
				r, size := utf8.DecodeRuneInString(s[j:])
				if isIdentRune(r) {
					j += size
					continue
				}
				if strings.HasPrefix(s[j:], "::") {
					j += 2
					continue
				}
				break
			}
			toks = append(toks, token{tokIdent, s[i:j]})
			i = j
		case strings.ContainsRune("()[]<>,&!*;", r):
			toks = append(toks, token{tokPunct, string(r)})
			i += size
		default:
			return nil, false
		}
	}
	return append(toks, token{kind: tokEOF}), true
}

type sigParser struct {
	toks []token
	pos  int
	ok   bool
}

func (p *sigParser) peek() token { return p.toks[p.pos] }

func (p *sigParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *sigParser) accept(text string) bool {
	if t := p.peek(); t.kind != tokEOF && t.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *sigParser) expect(text string) {
	if !p.accept(text) {
		p.ok = false
	}
}

// parseSignature parses "fn(...) -> R", "(...) -> R", "(...)" or "-> R".
func parseSignature(s string) (*Pattern, bool) {
	toks, ok := lex(s)
	if !ok {
		return nil, false
	}
	p := &sigParser{toks: toks, ok: true}
	pat := &Pattern{}

	if p.peek().kind == tokIdent && p.peek().text == "fn" {
		p.next()
		pat.Ordered = true
	}
	if p.accept("(") {
		pat.HasInputs = true
		pat.Inputs = p.list(")")
	} else if pat.Ordered {
		return nil, false
	}
	if p.peek().kind == tokArrow {
		p.next()
		out := p.typ()
		pat.Output = &out
	}
	if !p.ok || p.peek().kind != tokEOF {
		return nil, false
	}
	if !pat.HasInputs && pat.Output == nil {
		return nil, false
	}
	return pat, true
}

// list parses comma separated types up to and including the closing text.
// A trailing comma is allowed.
func (p *sigParser) list(closing string) []TypeExpr {
	var out []TypeExpr
	for p.ok {
		if p.accept(closing) {
			return out
		}
		out = append(out, p.typ())
		if p.accept(",") {
			continue
		}
		p.expect(closing)
		return out
	}
	return out
}

func (p *sigParser) typ() TypeExpr {
	t := p.next()
	switch t.kind {
	case tokPunct:
		switch t.text {
		case "&":
			mut := p.peek().kind == tokIdent && p.peek().text == "mut"
			if mut {
				p.next()
			}
			return TypeExpr{Kind: ExprRef, Mut: mut, Args: []TypeExpr{p.typ()}}
		case "*":
			q := p.next()
			if q.kind != tokIdent || (q.text != "const" && q.text != "mut") {
				p.ok = false
			}
			return TypeExpr{Kind: ExprPtr, Mut: q.text == "mut", Args: []TypeExpr{p.typ()}}
		case "[":
			elem := p.typ()
			if p.accept(";") {
				// Array lengths are not indexed.
				if p.next().kind != tokIdent {
					p.ok = false
				}
			}
			p.expect("]")
			return TypeExpr{Kind: ExprSlice, Args: []TypeExpr{elem}}
		case "(":
			elems := p.list(")")
			switch len(elems) {
			case 0:
				return TypeExpr{Kind: ExprUnit}
			case 1:
				return elems[0]
			}
			return TypeExpr{Kind: ExprTuple, Args: elems}
		case "!":
			return TypeExpr{Kind: ExprNever}
		}
	case tokIdent:
		return p.named(t.text)
	}
	p.ok = false
	return TypeExpr{}
}

func (p *sigParser) named(text string) TypeExpr {
	if text == "dyn" || text == "impl" {
		t := p.next()
		if t.kind != tokIdent {
			p.ok = false
			return TypeExpr{}
		}
		text = t.text
	}
	if text == "_" {
		return TypeExpr{Kind: ExprWildcard}
	}
	if strings.EqualFold(text, "generic") {
		return TypeExpr{Kind: ExprVar, Var: "generic"}
	}
	if len(text) == 1 && text[0] >= 'A' && text[0] <= 'Z' {
		return TypeExpr{Kind: ExprVar, Var: text}
	}
	path := strings.Split(strings.ToLower(strings.Trim(text, ":")), "::")
	for _, c := range path {
		if c == "" {
			p.ok = false
		}
	}
	e := TypeExpr{Kind: ExprName, Path: path}
	if p.accept("<") {
		e.Args = p.list(">")
	}
	return e
}
