package typesig

// Primitive is the closed set of built-in types. Named types never resolve
// to a Primitive.
type Primitive uint8

const (
	PrimNone Primitive = iota
	PrimBool
	PrimChar
	PrimStr
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimIsize
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimUsize
	PrimF32
	PrimF64
	PrimUnit
	PrimNever
	PrimTuple
	PrimSlice
	PrimArray
	PrimReference
	PrimPointer
	PrimFn

	numPrimitives
)

var primitiveNames = [numPrimitives]string{
	"",
	"bool",
	"char",
	"str",
	"i8",
	"i16",
	"i32",
	"i64",
	"i128",
	"isize",
	"u8",
	"u16",
	"u32",
	"u64",
	"u128",
	"usize",
	"f32",
	"f64",
	"unit",
	"never",
	"tuple",
	"slice",
	"array",
	"reference",
	"pointer",
	"fn",
}

var primitivesByName = func() map[string]Primitive {
	m := make(map[string]Primitive, numPrimitives)
	for p := PrimBool; p < numPrimitives; p++ {
		m[primitiveNames[p]] = p
	}
	m["!"] = PrimNever
	m["()"] = PrimUnit
	return m
}()

func (p Primitive) String() string {
	if p >= numPrimitives {
		return "invalid"
	}
	return primitiveNames[p]
}

// ParsePrimitive resolves a primitive by its index name. "!" and "()" are
// accepted as spellings of never and unit.
func ParsePrimitive(name string) (Primitive, bool) {
	p, ok := primitivesByName[name]
	return p, ok
}

// Structural reports whether the primitive is a type constructor whose
// arguments are part of its identity (tuples, slices, references...).
func (p Primitive) Structural() bool {
	switch p {
	case PrimTuple, PrimSlice, PrimArray, PrimReference, PrimPointer, PrimFn:
		return true
	}
	return false
}
