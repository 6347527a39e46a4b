package typesig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

func itemByPath(t *testing.T, idx *descriptor.Index, path string) int {
	t.Helper()
	for i := range idx.Items {
		if idx.FullPath(i) == path {
			return i
		}
	}
	t.Fatalf("no item %s", path)
	return -1
}

func TestNormalizeScenario(t *testing.T) {
	idx := indextest.Scenario()
	res := Normalize(idx)

	require.Len(t, res.Sigs, len(idx.Items))
	assert.Empty(t, res.Warnings)

	renders := map[string]string{
		"os::clear_bss":            "fn()",
		"os::sbi::console_getchar": "fn() -> usize",
		"os::sbi::console_putchar": "fn(usize)",
		"os::sbi::shutdown":        "fn() -> !",
		"os::num::Counter::new":    "fn() -> Counter",
		"os::num::Counter::get":    "fn(Counter) -> usize",
		"os::num::square_i32":      "fn(i32) -> i32",
		"os::num::parse_len":       "fn(str) -> i32",
		"os::num::identity":        "fn(T) -> T",
	}
	for path, want := range renders {
		sig := res.Sigs[itemByPath(t, idx, path)]
		require.NotNil(t, sig, path)
		assert.Equal(t, want, sig.Render(idx), path)
	}

	for _, path := range []string{"os::sbi", "os::num::Counter", "os::num::MAX_COUNT"} {
		assert.Nil(t, res.Sigs[itemByPath(t, idx, path)], path)
	}

	clearBSS := res.Sigs[itemByPath(t, idx, "os::clear_bss")]
	putchar := res.Sigs[itemByPath(t, idx, "os::sbi::console_putchar")]
	assert.True(t, clearBSS.Output.IsUnit(), "argument-less tuple is unit")
	assert.True(t, putchar.Output.IsUnit(), "absent output is unit")
}

func TestNormalizeFixture(t *testing.T) {
	idx := indextest.Fixture()
	res := Normalize(idx)
	assert.Empty(t, res.Warnings)

	tests := []struct {
		path string
		want string
	}{
		{"os::console::Stdout::borrow", "fn(T) -> U"},
		{"os::logging::SimpleLogger::try_from", "fn(T) -> Result<U>"},
		{"os::console::Stdout::write_str", "fn(Stdout, str) -> Result"},
		{"os::sbi::console_getchar", "fn() -> usize"},
	}
	for _, tt := range tests {
		sig := res.Sigs[itemByPath(t, idx, tt.path)]
		require.NotNil(t, sig, tt.path)
		assert.Equal(t, tt.want, sig.Render(idx), tt.path)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	idx := indextest.Fixture()
	a := Normalize(idx)
	b := Normalize(idx)
	assert.Equal(t, a, b)
}

func TestAlphaEquivalence(t *testing.T) {
	b := descriptor.NewBuilder().Crate("g", "")
	g0, g1 := descriptor.GenericCode(0), descriptor.GenericCode(1)
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "swapped",
		Types: descriptor.Fn([]descriptor.TypeCode{g1, g0}, []descriptor.TypeCode{g0}, 2)})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "plain",
		Types: descriptor.Fn([]descriptor.TypeCode{g0, g1}, []descriptor.TypeCode{g1}, 2)})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "first",
		Types: descriptor.Fn([]descriptor.TypeCode{g0, g1}, []descriptor.TypeCode{g0}, 2)})
	idx, err := b.Build()
	require.NoError(t, err)

	res := Normalize(idx)
	require.Empty(t, res.Warnings)
	assert.Equal(t, res.Sigs[0].Shape(), res.Sigs[1].Shape())
	assert.NotEqual(t, res.Sigs[1].Shape(), res.Sigs[2].Shape())
	assert.Equal(t, "fn(T, U) -> U", res.Sigs[0].Render(idx))
}

func TestBoundsFollowCanonicalOrder(t *testing.T) {
	b := descriptor.NewBuilder().Crate("g", "")
	display := descriptor.PathCode(b.Path(descriptor.KindTrait, "core::fmt", "Display"))
	debug := descriptor.PathCode(b.Path(descriptor.KindTrait, "core::fmt", "Debug"))
	types := &descriptor.TypeCodes{
		Inputs: []descriptor.TypeCode{descriptor.GenericCode(1)},
		Bounds: [][]descriptor.TypeCode{{display}, {debug}},
	}
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "show", Types: types})
	idx, err := b.Build()
	require.NoError(t, err)

	res := Normalize(idx)
	require.Empty(t, res.Warnings)
	sig := res.Sigs[0]
	assert.Equal(t, 2, sig.Generics)
	require.Len(t, sig.Bounds, 2)
	assert.Equal(t, "Debug", sig.Bounds[0][0].Render(idx))
	assert.Equal(t, "Display", sig.Bounds[1][0].Render(idx))
	assert.Equal(t, "fn(T) where T: Debug, U: Display", sig.Render(idx))
}

func TestNormalizeRecoversPerItem(t *testing.T) {
	b := descriptor.NewBuilder().Crate("bad", "")
	usize := descriptor.PathCode(b.Primitive("usize"))
	quux := descriptor.PathCode(b.Primitive("quux"))
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "ok",
		Types: descriptor.Fn(nil, []descriptor.TypeCode{usize}, 0)})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "slot",
		Types: descriptor.Fn([]descriptor.TypeCode{descriptor.GenericCode(2)}, nil, 1)})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "prim",
		Types: descriptor.Fn([]descriptor.TypeCode{quux}, nil, 0)})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "path",
		Types: descriptor.Fn([]descriptor.TypeCode{descriptor.PathCode(99)}, nil, 0)})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "after",
		Types: descriptor.Fn([]descriptor.TypeCode{usize}, nil, 0)})
	idx, err := b.Build()
	require.NoError(t, err)

	res := Normalize(idx)
	require.Len(t, res.Warnings, 3)
	assert.NotNil(t, res.Sigs[0])
	assert.Nil(t, res.Sigs[1])
	assert.Nil(t, res.Sigs[2])
	assert.Nil(t, res.Sigs[3])
	assert.NotNil(t, res.Sigs[4])

	assert.Equal(t, 1, res.Warnings[0].Item)
	assert.Equal(t, "bad::slot", res.Warnings[0].Path)
	assert.Contains(t, res.Warnings[1].Reason, "quux")
	assert.ErrorIs(t, res.Warnings[2], apperrors.ErrCorruptIndex)
}

func TestMultipleOutputsBecomeTuple(t *testing.T) {
	b := descriptor.NewBuilder().Crate("t", "")
	usize := descriptor.PathCode(b.Primitive("usize"))
	boolean := descriptor.PathCode(b.Primitive("bool"))
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "pair",
		Types: descriptor.Fn(nil, []descriptor.TypeCode{usize, boolean}, 0)})
	idx, err := b.Build()
	require.NoError(t, err)

	sig := Normalize(idx).Sigs[0]
	require.NotNil(t, sig)
	assert.Equal(t, PrimTuple, sig.Output.Prim)
	assert.Equal(t, "fn() -> (usize, bool)", sig.Render(idx))
}

func TestSignatureKeys(t *testing.T) {
	idx := indextest.Scenario()
	res := Normalize(idx)
	get := res.Sigs[itemByPath(t, idx, "os::num::Counter::get")]

	inputs, output, bounds := get.Keys()
	require.Len(t, inputs, 1)
	assert.Equal(t, KindNamed, inputs[0].Kind)
	assert.Equal(t, "Counter", idx.Paths[inputs[0].Path].Name)
	assert.Equal(t, []Key{Prim(PrimUsize).Key()}, output)
	assert.Empty(t, bounds)

	identity := res.Sigs[itemByPath(t, idx, "os::num::identity")]
	inputs, output, _ = identity.Keys()
	assert.Empty(t, inputs, "generic slots have no key")
	assert.Empty(t, output)
}

func TestParsePrimitive(t *testing.T) {
	for _, name := range []string{"bool", "char", "str", "i32", "u128", "usize", "f64", "never", "tuple", "reference"} {
		p, ok := ParsePrimitive(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, p.String())
	}
	p, ok := ParsePrimitive("!")
	assert.True(t, ok)
	assert.Equal(t, PrimNever, p)
	_, ok = ParsePrimitive("String")
	assert.False(t, ok)
	assert.True(t, PrimReference.Structural())
	assert.False(t, PrimI32.Structural())
}
