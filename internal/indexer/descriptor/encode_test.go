package descriptor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
)

type itemView struct {
	path       string
	kind       descriptor.ItemKind
	sig        string
	desc       string
	deprecated bool
}

func view(idx *descriptor.Index) []itemView {
	out := make([]itemView, len(idx.Items))
	for i, item := range idx.Items {
		out[i] = itemView{
			path:       idx.FullPath(i),
			kind:       item.Kind,
			sig:        descriptor.RenderSig(idx, item.Types),
			desc:       item.Desc,
			deprecated: item.Deprecated,
		}
	}
	return out
}

func TestEncodeRoundTripScenario(t *testing.T) {
	src := indextest.Scenario()

	data, err := descriptor.Encode(src)
	require.NoError(t, err)
	got, err := descriptor.Decode(data)
	require.NoError(t, err)

	require.Len(t, got.Items, len(src.Items))
	assert.Equal(t, view(src), view(got))
	assert.Equal(t, "() -> (usize)", descriptor.RenderSig(got, got.Items[3].Types))
	assert.Equal(t, "(usize) -> ()", descriptor.RenderSig(got, got.Items[4].Types))
	assert.Equal(t, "(G0) -> (G0) where []", descriptor.RenderSig(got, got.Items[11].Types))
	assert.Equal(t, "os::num::Counter::get", got.FullPath(8))
	assert.True(t, got.Items[12].Deprecated)
}

func TestEncodeRoundTripFixture(t *testing.T) {
	src := indextest.Fixture()

	data, err := descriptor.Encode(src)
	require.NoError(t, err)
	got, err := descriptor.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, view(src), view(got))
	assert.Equal(t, src.Crates[0].Doc, got.Crates[0].Doc)
}

func TestEncodeMultipleCrates(t *testing.T) {
	b := indextest.ScenarioBuilder()
	b.Crate("util", "Helpers")
	b.Module("util::fmt")
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "pad",
		Types: descriptor.Fn([]descriptor.TypeCode{descriptor.PathCode(b.Primitive("str"))}, nil, 0),
	})
	src, err := b.Build()
	require.NoError(t, err)

	data, err := descriptor.Encode(src)
	require.NoError(t, err)
	got, err := descriptor.Decode(data)
	require.NoError(t, err)

	require.Len(t, got.Crates, 2)
	assert.Equal(t, view(src), view(got))
	assert.Equal(t, "util::fmt::pad", got.FullPath(got.Crates[1].Start))
}

func TestBuilderErrors(t *testing.T) {
	t.Run("crates out of order", func(t *testing.T) {
		_, err := descriptor.NewBuilder().Crate("b", "").Crate("a", "").Build()
		assert.Error(t, err)
	})
	t.Run("signature on struct", func(t *testing.T) {
		b := descriptor.NewBuilder().Crate("a", "")
		b.Add(descriptor.ItemSpec{Kind: descriptor.KindStruct, Name: "S", Types: descriptor.Fn(nil, nil, 0)})
		_, err := b.Build()
		assert.Error(t, err)
	})
	t.Run("no crate", func(t *testing.T) {
		_, err := descriptor.NewBuilder().Build()
		assert.Error(t, err)
	})
	t.Run("named path without module", func(t *testing.T) {
		b := descriptor.NewBuilder().Crate("a", "")
		b.Path(descriptor.KindStruct, "", "S")
		_, err := b.Build()
		assert.Error(t, err)
	})
}
