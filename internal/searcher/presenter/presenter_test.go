package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
)

func TestPresentConsoleScenario(t *testing.T) {
	snap := index.Build("s", indextest.Scenario())
	matches := ranker.Rank(parser.Parse("console"), snap, ranker.DefaultOptions())

	got := Present(matches, snap, 0)
	require.Len(t, got, 2)
	assert.Equal(t, Record{
		Path:               "os::sbi::console_getchar",
		Kind:               "fn",
		OneLineDescription: "use sbi call to getchar from console (qemu uart handler)",
		ScoreTier:          "substring",
		Signature:          "fn() -> usize",
		Href:               "os/sbi/fn.console_getchar.html",
	}, got[0])
	assert.Equal(t, "os::sbi::console_putchar", got[1].Path)
	assert.Equal(t, "fn(usize)", got[1].Signature)
}

func TestPresentTruncates(t *testing.T) {
	snap := index.Build("f", indextest.Fixture())
	matches := ranker.Rank(parser.Parse("o"), snap, ranker.DefaultOptions())
	require.Greater(t, len(matches), 3)

	got := Present(matches, snap, 3)
	require.Len(t, got, 3)
	for i := range got {
		assert.Equal(t, snap.Index.FullPath(matches[i].Item), got[i].Path, "order is kept")
	}
	assert.Len(t, Present(matches, snap, -1), min(len(matches), DefaultMaxResults))
	assert.Empty(t, Present(nil, snap, 10))
}

func TestPresentRecordDetails(t *testing.T) {
	snap := index.Build("s", indextest.Scenario())
	byPath := func(raw string) Record {
		t.Helper()
		recs := Present(ranker.Rank(parser.Parse(raw), snap, ranker.DefaultOptions()), snap, 1)
		require.Len(t, recs, 1)
		return recs[0]
	}

	counter := byPath("[struct] counter")
	assert.Equal(t, "A monotonic counter.", counter.OneLineDescription)
	assert.Equal(t, "os/num/struct.Counter.html", counter.Href)
	assert.Empty(t, counter.Signature)

	get := byPath("os::num::counter::get")
	assert.Equal(t, "os/num/struct.Counter.html#method.get", get.Href)
	assert.Equal(t, "method", get.Kind)
	assert.Equal(t, "fn(Counter) -> usize", get.Signature)

	maxCount := byPath("max_count")
	assert.True(t, maxCount.Deprecated)
	assert.Equal(t, "os/num/constant.MAX_COUNT.html", maxCount.Href)

	sbi := byPath("[mod] sbi")
	assert.Equal(t, "os/sbi/index.html", sbi.Href)

	identity := byPath("identity")
	assert.Equal(t, "fn(T) -> T", identity.Signature)
}

func TestOneLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"A <em>monotonic</em> counter.\nSecond line.", "A monotonic counter."},
		{"Calls <code>U::from(self)</code>.", "Calls U::from(self)."},
		{"a &amp; b &lt;c&gt;", "a & b <c>"},
		{"  spaced \t out  ", "spaced out"},
		{"", ""},
		{"first\r\nsecond", "first"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OneLine(tt.in), tt.in)
	}
}
