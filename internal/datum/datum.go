package datum

import (
	"bytes"
	"fmt"
	"time"
)

// Datum is a single tagged value conforming to some DataType. Null=true
// represents SQL NULL; DataType.Nullable governs whether that is legal
// for a given column.
type Datum struct {
	Type  DataType
	Null  bool
	I     int32  // FamilyInt
	S     string // FamilyChar / FamilyVarChar
	B     bool   // FamilyBool
	F     float32
	Year  int32 // FamilyDate
	Month uint8 // FamilyDate
	Day   uint8 // FamilyDate
}

func NewInt(v int32) Datum      { return Datum{Type: Int(false), I: v} }
func NewVarChar(v string) Datum { return Datum{Type: VarChar(false), S: v} }
func NewBool(v bool) Datum      { return Datum{Type: Bool(false), B: v} }
func NewFloat(v float32) Datum  { return Datum{Type: Float(false), F: v} }
func NewNull(t DataType) Datum  { return Datum{Type: t, Null: true} }

func NewChar(width uint32, v string) (Datum, error) {
	if uint32(len(v)) > width {
		return Datum{}, fmt.Errorf("datum: CHAR(%d): value %q exceeds width", width, v)
	}
	return Datum{Type: Char(width, false), S: v}, nil
}

// DateFromTime decomposes t (UTC) into the year/month/day triple the
// wire format stores.
func DateFromTime(t time.Time) Datum {
	t = t.UTC()
	return Datum{Type: Date(false), Year: int32(t.Year()), Month: uint8(t.Month()), Day: uint8(t.Day())}
}

// Encode serializes the value per spec.md §6's per-family wire layout.
// Byte 0 of every encoding is a present/null tag (0 = null, 1 = present);
// VarChar additionally prefixes a 4-byte little-endian length.
func (d Datum) Encode() ([]byte, error) {
	if d.Null {
		if !d.Type.Nullable {
			return nil, fmt.Errorf("datum: encode: NULL value for non-nullable %s column", d.Type.Family)
		}
		if d.Type.Family == FamilyVarChar {
			return []byte{0}, nil
		}
		return make([]byte, d.Type.WidthOfValue()), nil
	}

	switch d.Type.Family {
	case FamilyInt:
		out := make([]byte, 5)
		out[0] = 1
		le.PutUint32(out[1:], uint32(d.I))
		return out, nil
	case FamilyChar:
		width := int(d.Type.CharLen)
		if len(d.S) > width {
			return nil, fmt.Errorf("datum: encode: CHAR(%d): value %q too long", width, d.S)
		}
		out := make([]byte, 1+width)
		out[0] = 1
		copy(out[1:], d.S)
		for i := 1 + len(d.S); i < len(out); i++ {
			out[i] = ' '
		}
		return out, nil
	case FamilyVarChar:
		out := make([]byte, 1+4+len(d.S))
		out[0] = 1
		le.PutUint32(out[1:5], uint32(len(d.S)))
		copy(out[5:], d.S)
		return out, nil
	case FamilyBool:
		v := byte(0)
		if d.B {
			v = 1
		}
		return []byte{1, v}, nil
	case FamilyFloat:
		out := make([]byte, 5)
		out[0] = 1
		le.PutUint32(out[1:], float32bits(d.F))
		return out, nil
	case FamilyDate:
		out := make([]byte, 7)
		out[0] = 1
		le.PutUint32(out[1:5], uint32(d.Year))
		out[5] = d.Month
		out[6] = d.Day
		return out, nil
	default:
		return nil, fmt.Errorf("datum: encode: unknown family %d", d.Type.Family)
	}
}

// Decode parses a Datum of the given type from b, returning the value
// and the number of bytes consumed.
func Decode(t DataType, b []byte) (Datum, int, error) {
	if len(b) < 1 {
		return Datum{}, 0, fmt.Errorf("datum: decode: empty input")
	}

	if t.Family == FamilyVarChar {
		if b[0] == 0 {
			return Datum{Type: t, Null: true}, 1, nil
		}
		if len(b) < 5 {
			return Datum{}, 0, fmt.Errorf("datum: decode: truncated VARCHAR length")
		}
		n := int(le.Uint32(b[1:5]))
		if len(b) < 5+n {
			return Datum{}, 0, fmt.Errorf("datum: decode: truncated VARCHAR payload")
		}
		return Datum{Type: t, S: string(b[5 : 5+n])}, 5 + n, nil
	}

	width := t.WidthOfValue()
	if len(b) < width {
		return Datum{}, 0, fmt.Errorf("datum: decode: need %d bytes, have %d", width, len(b))
	}
	if b[0] == 0 {
		return Datum{Type: t, Null: true}, width, nil
	}

	switch t.Family {
	case FamilyInt:
		return Datum{Type: t, I: int32(le.Uint32(b[1:5]))}, width, nil
	case FamilyChar:
		s := bytes.TrimRight(b[1:width], " ")
		return Datum{Type: t, S: string(s)}, width, nil
	case FamilyBool:
		return Datum{Type: t, B: b[1] != 0}, width, nil
	case FamilyFloat:
		return Datum{Type: t, F: float32frombits(le.Uint32(b[1:5]))}, width, nil
	case FamilyDate:
		return Datum{Type: t, Year: int32(le.Uint32(b[1:5])), Month: b[5], Day: b[6]}, width, nil
	default:
		return Datum{}, 0, fmt.Errorf("datum: decode: unknown family %d", t.Family)
	}
}

// Compare orders two datums of the same type, used by the B+Tree and by
// sorted scans. NULLs sort before every non-null value.
func Compare(a, b Datum) int {
	if a.Null || b.Null {
		switch {
		case a.Null && b.Null:
			return 0
		case a.Null:
			return -1
		default:
			return 1
		}
	}
	switch a.Type.Family {
	case FamilyInt:
		return cmp32(a.I, b.I)
	case FamilyChar, FamilyVarChar:
		return bytes.Compare([]byte(a.S), []byte(b.S))
	case FamilyBool:
		return cmp32(boolToInt(a.B), boolToInt(b.B))
	case FamilyFloat:
		return cmpFloat(a.F, b.F)
	case FamilyDate:
		if c := cmp32(a.Year, b.Year); c != 0 {
			return c
		}
		if c := cmp32(int32(a.Month), int32(b.Month)); c != 0 {
			return c
		}
		return cmp32(int32(a.Day), int32(b.Day))
	default:
		panic(fmt.Sprintf("datum: compare: unknown family %d", a.Type.Family))
	}
}

func cmp32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
