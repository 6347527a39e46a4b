// Package tokenizer splits identifiers and path expressions into
// lower-cased search terms. It is shared by the name table and the query
// parser so both sides agree on term boundaries.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks an identifier or free text into lower-cased terms.
// snake_case, camelCase and digit boundaries all split: "HashMapIter2"
// gives hash, map, iter, 2.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, word := range words {
		for _, part := range splitCase(word) {
			tokens = append(tokens, Token{
				Term:     strings.ToLower(part),
				Position: pos,
			})
			pos++
		}
	}
	return tokens
}

// Terms returns only the term strings of Tokenize.
func Terms(text string) []string {
	tokens := Tokenize(text)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Term
	}
	return out
}

// splitCase splits a word at lower→upper, letter↔digit and acronym
// boundaries ("HTTPServer" gives HTTP, Server).
func splitCase(word string) []string {
	runes := []rune(word)
	if len(runes) < 2 {
		return []string{word}
	}
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		split := false
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			split = true
		case unicode.IsDigit(prev) != unicode.IsDigit(cur):
			split = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			split = true
		}
		if split {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}

// SplitPath splits a path expression on "::" and whitespace and
// lower-cases each component. Empty components are dropped.
func SplitPath(text string) []string {
	fields := strings.FieldsFunc(strings.ReplaceAll(text, "::", " "), unicode.IsSpace)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.Trim(f, ":")); f != "" {
			out = append(out, f)
		}
	}
	return out
}
