package btree

import (
	"github.com/tuannm99/novadb/internal/datum"
	"github.com/tuannm99/novadb/internal/record"
)

// inlineLimit is the total key byte width at or under which a tree
// stores keys directly in its nodes (spec.md §4.7).
const inlineLimit = 256

// Key is a composite key: one Datum per key column, in key-schema order.
type Key []datum.Datum

// compareKeys orders two composite keys of the same schema
// column-by-column, the first non-equal column deciding the result.
func compareKeys(a, b Key) int {
	for i := range a {
		if c := datum.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// encodeKey serializes a composite key to its raw fixed-width bytes
// (the concatenation of each column's Encode()).
func encodeKey(keySchema *record.Schema, k Key) ([]byte, error) {
	tup, err := record.NewTuple(keySchema, k)
	if err != nil {
		return nil, err
	}
	return tup.Encode()
}

// decodeKey parses raw fixed-width key bytes back into a composite key.
func decodeKey(keySchema *record.Schema, b []byte) (Key, error) {
	tup, err := record.DecodeTuple(keySchema, b)
	if err != nil {
		return nil, err
	}
	return Key(tup.Values), nil
}
