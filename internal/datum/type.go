// Package datum implements the tagged value domain (spec.md §3 "Datum" /
// "DataType") shared by schemas, tuples, and B+Tree keys.
package datum

import "fmt"

// Family identifies the value domain of a DataType, independent of
// nullability.
type Family uint8

const (
	FamilyInt     Family = 0
	FamilyChar    Family = 1 // fixed-width char[W]
	FamilyVarChar Family = 2
	FamilyBool    Family = 3
	FamilyFloat   Family = 4
	FamilyDate    Family = 5
)

func (f Family) String() string {
	switch f {
	case FamilyInt:
		return "INT"
	case FamilyChar:
		return "CHAR"
	case FamilyVarChar:
		return "VARCHAR"
	case FamilyBool:
		return "BOOL"
	case FamilyFloat:
		return "FLOAT"
	case FamilyDate:
		return "DATE"
	default:
		return fmt.Sprintf("FAMILY(%d)", uint8(f))
	}
}

// DataType is the family plus a nullability flag and (for Char) a fixed
// width. It encodes to 1 byte for every family except Char, which is
// followed by a 4-byte little-endian width (spec.md §6).
type DataType struct {
	Family   Family
	Nullable bool
	CharLen  uint32 // only meaningful when Family == FamilyChar
}

func Int(nullable bool) DataType     { return DataType{Family: FamilyInt, Nullable: nullable} }
func VarChar(nullable bool) DataType { return DataType{Family: FamilyVarChar, Nullable: nullable} }
func Bool(nullable bool) DataType    { return DataType{Family: FamilyBool, Nullable: nullable} }
func Float(nullable bool) DataType   { return DataType{Family: FamilyFloat, Nullable: nullable} }
func Date(nullable bool) DataType    { return DataType{Family: FamilyDate, Nullable: nullable} }
func Char(width uint32, nullable bool) DataType {
	return DataType{Family: FamilyChar, Nullable: nullable, CharLen: width}
}

// IsInlined reports whether values of this type have a byte width fixed
// by the type alone (true for everything except VarChar).
func (t DataType) IsInlined() bool { return t.Family != FamilyVarChar }

// WidthOfValue returns the serialized byte width of a non-null value of
// this type, including the 1-byte present/null tag. It panics for
// VarChar, whose width is data-dependent (spec.md §3: "width_of_value is
// defined for inlined families and undefined for varchar").
func (t DataType) WidthOfValue() int {
	switch t.Family {
	case FamilyInt:
		return 1 + 4
	case FamilyChar:
		return 1 + int(t.CharLen)
	case FamilyBool:
		return 1 + 1
	case FamilyFloat:
		return 1 + 4
	case FamilyDate:
		return 1 + 4 + 1 + 1
	case FamilyVarChar:
		panic("datum: WidthOfValue is undefined for VARCHAR")
	default:
		panic(fmt.Sprintf("datum: unknown family %d", t.Family))
	}
}

// EncodeType serializes the DataType tag byte (low 7 bits family, high
// bit nullable), followed by the 4-byte width for Char.
func (t DataType) EncodeType() []byte {
	tag := byte(t.Family) & 0x7f
	if t.Nullable {
		tag |= 0x80
	}
	if t.Family == FamilyChar {
		out := make([]byte, 5)
		out[0] = tag
		le.PutUint32(out[1:], t.CharLen)
		return out
	}
	return []byte{tag}
}

// DecodeType parses a DataType tag byte (plus, for Char, the following 4
// width bytes) and returns the type and number of bytes consumed.
func DecodeType(b []byte) (DataType, int, error) {
	if len(b) < 1 {
		return DataType{}, 0, fmt.Errorf("datum: DecodeType: empty input")
	}
	tag := b[0]
	family := Family(tag & 0x7f)
	nullable := tag&0x80 != 0

	if family == FamilyChar {
		if len(b) < 5 {
			return DataType{}, 0, fmt.Errorf("datum: DecodeType: truncated CHAR width")
		}
		width := le.Uint32(b[1:5])
		return DataType{Family: FamilyChar, Nullable: nullable, CharLen: width}, 5, nil
	}
	switch family {
	case FamilyInt, FamilyVarChar, FamilyBool, FamilyFloat, FamilyDate:
		return DataType{Family: family, Nullable: nullable}, 1, nil
	default:
		return DataType{}, 0, fmt.Errorf("datum: DecodeType: unknown family %d", family)
	}
}
