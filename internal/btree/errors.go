// Package btree implements the B+Tree secondary index (spec.md §4.7):
// an ordered map from a composite key (a prefix of a tuple's datums) to
// a record id, with point lookup, insert with leaf/internal splitting,
// and range scan. Grounded on internal/btree/tree.go's page-per-node
// shape and leaf.go/internal.go's decode-to-struct style, generalized
// from the teacher's single int64 KeyType to an arbitrary composite key
// over internal/record.Schema, and from page-per-node-rebuild to
// explicit split-and-promote per spec.md §4.7's algorithm.
package btree

import "errors"

var (
	ErrKeyNotFound          = errors.New("btree: key not found")
	ErrDuplicateKey         = errors.New("btree: duplicate key")
	ErrNotLeafIndexNode     = errors.New("btree: expected a leaf node")
	ErrNotInternalIndexNode = errors.New("btree: expected an internal node")
)
