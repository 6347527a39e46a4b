package ranker

import (
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

// Options tunes matching. The fuzzy fields are maximum edit distances for
// patterns shorter than 4 runes, of 4 to 8 runes, and longer than 8 runes.
type Options struct {
	Unify       bool
	FuzzyShort  int
	FuzzyMedium int
	FuzzyLong   int
}

func DefaultOptions() Options {
	return Options{Unify: true, FuzzyShort: 1, FuzzyMedium: 2, FuzzyLong: 3}
}

// OptionsFromConfig reads ranking policy from the search config section.
func OptionsFromConfig(cfg config.SearchConfig) Options {
	return Options{
		Unify:       cfg.Unify,
		FuzzyShort:  cfg.FuzzyShort,
		FuzzyMedium: cfg.FuzzyMedium,
		FuzzyLong:   cfg.FuzzyLong,
	}
}

// FuzzyThreshold returns the largest edit distance accepted for pattern.
func (o Options) FuzzyThreshold(pattern string) int {
	switch n := utf8.RuneCountInString(pattern); {
	case n < 4:
		return o.FuzzyShort
	case n > 8:
		return o.FuzzyLong
	default:
		return o.FuzzyMedium
	}
}
