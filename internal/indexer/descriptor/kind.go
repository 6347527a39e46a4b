package descriptor

import "strings"

// ItemKind is the kind tag of an item or path segment. Values follow the
// rustdoc item-type numbering so the blob's kind characters map directly.
type ItemKind uint8

const (
	KindModule ItemKind = iota
	KindExternCrate
	KindImport
	KindStruct
	KindEnum
	KindFunction
	KindTypeAlias
	KindStatic
	KindTrait
	KindImpl
	KindTyMethod
	KindMethod
	KindStructField
	KindVariant
	KindMacro
	KindPrimitive
	KindAssocType
	KindConstant
	KindAssocConst
	KindUnion
	KindForeignType
	KindKeyword
	KindOpaqueTy
	KindProcAttribute
	KindProcDerive
	KindTraitAlias

	numKinds
)

var kindNames = [numKinds]string{
	"mod",
	"externcrate",
	"import",
	"struct",
	"enum",
	"fn",
	"type",
	"static",
	"trait",
	"impl",
	"tymethod",
	"method",
	"structfield",
	"variant",
	"macro",
	"primitive",
	"associatedtype",
	"constant",
	"associatedconstant",
	"union",
	"foreigntype",
	"keyword",
	"opaque",
	"attr",
	"derive",
	"traitalias",
}

func (k ItemKind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

func (k ItemKind) Valid() bool {
	return k < numKinds
}

// HasSignature reports whether items of this kind may carry type codes.
func (k ItemKind) HasSignature() bool {
	switch k {
	case KindFunction, KindMethod, KindTyMethod:
		return true
	}
	return false
}

// Code returns the blob character for the kind.
func (k ItemKind) Code() byte {
	return 'A' + byte(k)
}

// KindFromCode decodes a blob kind character.
func KindFromCode(c byte) (ItemKind, bool) {
	if c < 'A' {
		return 0, false
	}
	k := ItemKind(c - 'A')
	return k, k.Valid()
}

// Priority orders kinds for ranking ties. Lower is preferred.
func (k ItemKind) Priority() int {
	switch k {
	case KindFunction, KindMethod, KindTyMethod:
		return 0
	case KindStruct, KindEnum, KindTrait, KindUnion, KindTypeAlias, KindPrimitive, KindTraitAlias, KindForeignType:
		return 1
	case KindMacro, KindConstant, KindStatic, KindAssocConst, KindAssocType, KindVariant, KindStructField, KindProcAttribute, KindProcDerive:
		return 2
	case KindModule:
		return 4
	default:
		return 3
	}
}

// ParseKindFilter maps a query filter word to the kinds it selects.
func ParseKindFilter(word string) ([]ItemKind, bool) {
	switch strings.ToLower(word) {
	case "fn", "func", "function":
		return []ItemKind{KindFunction, KindMethod, KindTyMethod}, true
	case "method":
		return []ItemKind{KindMethod, KindTyMethod}, true
	case "mod", "module":
		return []ItemKind{KindModule}, true
	case "type", "typedef":
		return []ItemKind{KindTypeAlias, KindAssocType}, true
	case "const", "constant":
		return []ItemKind{KindConstant, KindAssocConst}, true
	case "macro":
		return []ItemKind{KindMacro, KindProcAttribute, KindProcDerive}, true
	case "field":
		return []ItemKind{KindStructField}, true
	}
	for k := ItemKind(0); k < numKinds; k++ {
		if kindNames[k] == strings.ToLower(word) {
			return []ItemKind{k}, true
		}
	}
	return nil, false
}
