package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/typesig"
)

func TestCrossRefIdempotent(t *testing.T) {
	idx := indextest.Fixture()
	a := BuildCrossRef(typesig.Normalize(idx).Sigs)
	b := BuildCrossRef(typesig.Normalize(idx).Sigs)
	assert.Equal(t, a.Entries(), b.Entries())
	assert.Equal(t, a.Signed(), b.Signed())
	assert.Equal(t, a.Size(), b.Size())
}

func TestCrossRefCoversEveryMentionedKey(t *testing.T) {
	for name, snap := range map[string]*Snapshot{
		"scenario": Build("s", indextest.Scenario()),
		"fixture":  Build("f", indextest.Fixture()),
	} {
		t.Run(name, func(t *testing.T) {
			for id, sig := range snap.Sigs {
				if sig == nil {
					continue
				}
				inputs, output, bounds := sig.Keys()
				check := func(keys []typesig.Key, role Role) {
					for _, k := range keys {
						assert.Contains(t, snap.XRef.Lookup(k), Posting{Item: id, Role: role})
					}
				}
				check(inputs, RoleInput)
				check(output, RoleOutput)
				check(bounds, RoleBound)
			}
			for _, e := range snap.XRef.Entries() {
				for i := 1; i < len(e.Postings); i++ {
					prev, cur := e.Postings[i-1], e.Postings[i]
					assert.True(t, prev.Item < cur.Item || (prev.Item == cur.Item && prev.Role < cur.Role))
				}
			}
		})
	}
}

func TestCrossRefRoles(t *testing.T) {
	snap := Build("s", indextest.Scenario())
	usize := typesig.Prim(typesig.PrimUsize).Key()
	i32 := typesig.Prim(typesig.PrimI32).Key()

	pl := snap.XRef.Lookup(usize)
	getchar := snap.Names.Exact("console_getchar")[0]
	putchar := snap.Names.Exact("console_putchar")[0]
	assert.Contains(t, pl.Items(RoleOutput), getchar)
	assert.NotContains(t, pl.Items(RoleOutput), putchar)
	assert.Contains(t, pl.Items(RoleInput), putchar)

	square := snap.Names.Exact("square_i32")[0]
	assert.Equal(t, []Posting{{square, RoleInput}, {square, RoleOutput}}, snap.XRef.Lookup(i32)[:2])
	assert.Equal(t, 2, snap.XRef.Lookup(i32).Count(RoleOutput))
	assert.Nil(t, snap.XRef.Lookup(typesig.Prim(typesig.PrimF64).Key()))
}

func TestCrossRefOpenItems(t *testing.T) {
	snap := Build("s", indextest.Scenario())
	assert.Equal(t, []int{11}, snap.XRef.Open(), "only identity has a generic slot")
	assert.Equal(t, "G0", snap.Sigs[11].Output.Shape())
	assert.False(t, snap.Sigs[9].Output.Open())
}

func TestNameTable(t *testing.T) {
	snap := Build("s", indextest.Scenario())
	id := snap.Names.Exact("GET")[0]
	e := snap.Names.Entry(id)
	assert.Equal(t, "get", e.Name)
	assert.Equal(t, "os::num::counter::get", e.Full)
	assert.Equal(t, []string{"os", "num", "counter"}, e.Components)

	e = snap.Names.Entry(snap.Names.Exact("max_count")[0])
	assert.Equal(t, []string{"max", "count"}, e.Tokens)
	assert.Equal(t, len(snap.Index.Items), snap.Names.Len())
}

func TestVocabResolve(t *testing.T) {
	snap := Build("f", indextest.Fixture())

	keys := snap.Vocab.Resolve(nil, "usize")
	assert.Equal(t, []typesig.Key{typesig.Prim(typesig.PrimUsize).Key()}, keys)

	results := snap.Vocab.Resolve(nil, "result")
	assert.Len(t, results, 2, "core::result::Result and core::fmt::Result")

	fmtResult := snap.Vocab.Resolve([]string{"fmt"}, "Result")
	require.Len(t, fmtResult, 1)
	assert.Equal(t, "core::fmt::Result", snap.Index.PathString(fmtResult[0].Path))

	assert.Empty(t, snap.Vocab.Resolve(nil, "Widget"))
	assert.Empty(t, snap.Vocab.Resolve([]string{"io"}, "Result"))
}

func TestSnapshotStats(t *testing.T) {
	snap := Build("v1", indextest.Scenario())
	st := snap.Stats()
	assert.Equal(t, "v1", st.Version)
	assert.Equal(t, []string{"os"}, st.Crates)
	assert.Equal(t, 14, st.Items)
	assert.Equal(t, 9, st.Signed)
	assert.Zero(t, st.Warnings)
}

func BenchmarkBuildSnapshot(b *testing.B) {
	idx := indextest.Fixture()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Build("bench", idx)
	}
}
