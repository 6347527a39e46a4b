// Package parser turns free search-box text into a Query: leading kind and
// crate filters, a name pattern, and an optional signature pattern such as
// "fn(usize) -> bool". Parsing never fails; malformed signatures degrade
// the query to a name-only search.
package parser

import (
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

// Query is the parsed form of one search input.
type Query struct {
	Raw        string
	Name       string
	Qualifiers []string
	Sig        *Pattern
	Kinds      []descriptor.ItemKind
	Crate      string
	Degraded   bool
}

// IsEmpty reports whether the query can match nothing useful.
func (q *Query) IsEmpty() bool {
	return q.Name == "" && q.Sig == nil
}

// AllowsKind reports whether the kind filter admits k.
func (q *Query) AllowsKind(k descriptor.ItemKind) bool {
	if len(q.Kinds) == 0 {
		return true
	}
	for _, want := range q.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Key is a canonical rendering used for cache keys: queries that parse
// identically share a key. A degraded query never shares one with a clean
// query of the same name.
func (q *Query) Key() string {
	var b strings.Builder
	for _, k := range q.Kinds {
		b.WriteString(k.String())
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(q.Crate)
	b.WriteByte('|')
	for _, qual := range q.Qualifiers {
		b.WriteString(qual)
		b.WriteString("::")
	}
	b.WriteString(q.Name)
	b.WriteByte('|')
	if q.Sig != nil {
		b.WriteString(q.Sig.String())
	}
	if q.Degraded {
		b.WriteString("|degraded")
	}
	return b.String()
}

// Parse never fails. Unparseable signature text sets Degraded and the
// query falls back to a name search on the last word of the input.
func Parse(raw string) *Query {
	q := &Query{Raw: raw}
	rest := parseFilters(q, strings.TrimSpace(raw))

	at := signatureStart(rest)
	if at < 0 {
		setName(q, rest)
		return q
	}
	setName(q, rest[:at])
	sig, ok := parseSignature(rest[at:])
	if !ok {
		degrade(q, rest)
		return q
	}
	q.Sig = sig
	return q
}

// parseFilters consumes leading "kind:", "crate:NAME" and "[kind]" tokens
// and returns the remaining text.
func parseFilters(q *Query, s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if strings.HasPrefix(s, "[") {
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return s
			}
			kinds, ok := descriptor.ParseKindFilter(strings.TrimSpace(s[1:end]))
			if !ok {
				return s
			}
			q.Kinds = append(q.Kinds, kinds...)
			s = s[end+1:]
			continue
		}
		colon := strings.IndexByte(s, ':')
		if colon <= 0 || (colon+1 < len(s) && s[colon+1] == ':') {
			return s
		}
		word := s[:colon]
		if !isIdent(word) {
			return s
		}
		if strings.EqualFold(word, "crate") {
			rest := strings.TrimLeftFunc(s[colon+1:], unicode.IsSpace)
			end := strings.IndexFunc(rest, unicode.IsSpace)
			if end < 0 {
				end = len(rest)
			}
			q.Crate = strings.ToLower(rest[:end])
			s = rest[end:]
			continue
		}
		kinds, ok := descriptor.ParseKindFilter(word)
		if !ok {
			return s
		}
		q.Kinds = append(q.Kinds, kinds...)
		s = s[colon+1:]
	}
}

// signatureStart finds the first "fn(", "(" or "->" in s, or -1.
func signatureStart(s string) int {
	best := -1
	consider := func(i int) {
		if i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	consider(strings.Index(s, "->"))
	consider(strings.IndexByte(s, '('))
	for i := strings.Index(s, "fn"); i >= 0; {
		if (i == 0 || !isIdentRune(rune(s[i-1]))) && strings.HasPrefix(strings.TrimLeftFunc(s[i+2:], unicode.IsSpace), "(") {
			consider(i)
			break
		}
		next := strings.Index(s[i+2:], "fn")
		if next < 0 {
			break
		}
		i += 2 + next
	}
	return best
}

func setName(q *Query, text string) {
	parts := tokenizer.SplitPath(text)
	if len(parts) == 0 {
		return
	}
	q.Name = parts[len(parts)-1]
	if len(parts) > 1 {
		q.Qualifiers = parts[:len(parts)-1]
	}
}

// degrade drops the signature and keeps the last identifier-like word of
// the text as the name.
func degrade(q *Query, text string) {
	q.Degraded = true
	q.Sig = nil
	q.Qualifiers = nil
	q.Name = ""
	cleaned := strings.Map(func(r rune) rune {
		if isIdentRune(r) || r == ':' {
			return r
		}
		return ' '
	}, text)
	parts := tokenizer.SplitPath(cleaned)
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "fn" {
			q.Name = parts[i]
			return
		}
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdent(s string) bool {
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}
	return s != ""
}
