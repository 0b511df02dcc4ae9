package record

import (
	"fmt"

	"github.com/tuannm99/novadb/internal/datum"
)

// Tuple is a schema-bound row: one Datum per column, in schema order.
type Tuple struct {
	Values []datum.Datum
}

// NewTuple validates vals against s (count and family) and wraps them.
func NewTuple(s *Schema, vals []datum.Datum) (Tuple, error) {
	if len(vals) != len(s.Columns) {
		return Tuple{}, fmt.Errorf("record: tuple: expected %d values, got %d", len(s.Columns), len(vals))
	}
	for i, v := range vals {
		if v.Type.Family != s.Columns[i].Type.Family {
			return Tuple{}, fmt.Errorf("record: tuple: column %d (%s): value has family %s",
				i, s.Columns[i].Name, v.Type.Family)
		}
	}
	return Tuple{Values: vals}, nil
}

// Encode serializes the tuple's values back to back in schema order.
func (t Tuple) Encode() ([]byte, error) {
	var out []byte
	for i, v := range t.Values {
		b, err := v.Encode()
		if err != nil {
			return nil, fmt.Errorf("record: encode tuple: column %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// DecodeTuple parses a tuple out of b according to s.
func DecodeTuple(s *Schema, b []byte) (Tuple, error) {
	vals := make([]datum.Datum, len(s.Columns))
	off := 0
	for i, c := range s.Columns {
		d, n, err := datum.Decode(c.Type, b[off:])
		if err != nil {
			return Tuple{}, fmt.Errorf("record: decode tuple: column %d (%s): %w", i, c.Name, err)
		}
		vals[i] = d
		off += n
	}
	return Tuple{Values: vals}, nil
}

// Project extracts the values at the given column indices, in order —
// used to derive a B+Tree key from a tuple's indexed columns.
func (t Tuple) Project(idx []int) []datum.Datum {
	out := make([]datum.Datum, len(idx))
	for i, c := range idx {
		out[i] = t.Values[c]
	}
	return out
}
