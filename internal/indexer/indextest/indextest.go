// Package indextest provides small indexes shared by tests across the
// indexer and searcher packages.
package indextest

import (
	_ "embed"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
)

//go:embed testdata/os.json
var fixtureJSON []byte

// FixtureBlob returns the raw JSON of a real kernel crate index (34 items).
func FixtureBlob() []byte {
	out := make([]byte, len(fixtureJSON))
	copy(out, fixtureJSON)
	return out
}

// Fixture decodes FixtureBlob and panics on failure.
func Fixture() *descriptor.Index {
	idx, err := descriptor.Decode(fixtureJSON)
	if err != nil {
		panic(fmt.Sprintf("decoding fixture: %v", err))
	}
	return idx
}

// Scenario builds a synthetic crate "os" with these items, in ID order:
//
//	0  os::sbi                      mod
//	1  os::num                      mod
//	2  os::clear_bss                fn() -> ()
//	3  os::sbi::console_getchar     fn() -> usize
//	4  os::sbi::console_putchar     fn(usize)
//	5  os::sbi::shutdown            fn() -> !
//	6  os::num::Counter             struct
//	7  os::num::Counter::new        fn() -> Counter
//	8  os::num::Counter::get        fn(Counter) -> usize
//	9  os::num::square_i32          fn(i32) -> i32
//	10 os::num::parse_len           fn(str) -> i32
//	11 os::num::identity            fn<T>(T) -> T
//	12 os::num::MAX_COUNT           const, deprecated
//	13 os::num::println             macro
func Scenario() *descriptor.Index {
	idx, err := ScenarioBuilder().Build()
	if err != nil {
		panic(fmt.Sprintf("building scenario: %v", err))
	}
	return idx
}

// ScenarioBuilder returns the builder behind Scenario so callers can append
// further crates before building.
func ScenarioBuilder() *descriptor.Builder {
	b := descriptor.NewBuilder().Crate("os", "The main module and entrypoint")

	tuple := descriptor.PathCode(b.Primitive("tuple"))
	usize := descriptor.PathCode(b.Primitive("usize"))
	never := descriptor.PathCode(b.Primitive("never"))
	i32 := descriptor.PathCode(b.Primitive("i32"))
	str := descriptor.PathCode(b.Primitive("str"))
	counterPath := b.Path(descriptor.KindStruct, "os::num", "Counter")
	counter := descriptor.PathCode(counterPath)
	t := descriptor.GenericCode(0)

	b.Add(descriptor.ItemSpec{Kind: descriptor.KindModule, Name: "sbi", Desc: "SBI call wrappers"})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindModule, Name: "num", Desc: "Numeric helpers"})
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "clear_bss",
		Desc:  "clear BSS segment",
		Types: descriptor.Fn(nil, []descriptor.TypeCode{tuple}, 0),
	})

	b.Module("os::sbi")
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "console_getchar",
		Desc:  "use sbi call to getchar from console (qemu uart handler)",
		Types: descriptor.Fn(nil, []descriptor.TypeCode{usize}, 0),
	})
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "console_putchar",
		Desc:  "use sbi call to putchar in console (qemu uart handler)",
		Types: descriptor.Fn([]descriptor.TypeCode{usize}, nil, 0),
	})
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "shutdown",
		Desc:  "use sbi call to shutdown the kernel",
		Types: descriptor.Fn(nil, []descriptor.TypeCode{never}, 0),
	})

	b.Module("os::num")
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindStruct, Name: "Counter", Desc: "A <em>monotonic</em> counter.\nSecond line."})
	b.AddChild(counterPath, descriptor.ItemSpec{
		Kind:  descriptor.KindMethod,
		Name:  "new",
		Desc:  "Creates a counter at zero",
		Types: descriptor.Fn(nil, []descriptor.TypeCode{counter}, 0),
	})
	b.AddChild(counterPath, descriptor.ItemSpec{
		Kind:  descriptor.KindMethod,
		Name:  "get",
		Desc:  "Returns the current value",
		Types: descriptor.Fn([]descriptor.TypeCode{counter}, []descriptor.TypeCode{usize}, 0),
	})
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "square_i32",
		Desc:  "Squares an i32",
		Types: descriptor.Fn([]descriptor.TypeCode{i32}, []descriptor.TypeCode{i32}, 0),
	})
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "parse_len",
		Desc:  "Parses a length from text",
		Types: descriptor.Fn([]descriptor.TypeCode{str}, []descriptor.TypeCode{i32}, 0),
	})
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "identity",
		Desc:  "Returns its argument",
		Types: descriptor.Fn([]descriptor.TypeCode{t}, []descriptor.TypeCode{t}, 1),
	})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindConstant, Name: "MAX_COUNT", Desc: "Largest counter value", Deprecated: true})
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindMacro, Name: "println", Desc: "Prints a line"})
	return b
}

// ScenarioBlob encodes Scenario.
func ScenarioBlob() []byte {
	data, err := descriptor.Encode(Scenario())
	if err != nil {
		panic(fmt.Sprintf("encoding scenario: %v", err))
	}
	return data
}
