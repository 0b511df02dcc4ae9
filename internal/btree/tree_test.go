package btree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/buffer"
	"github.com/tuannm99/novadb/internal/datum"
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/storage"
)

func newTestPool(t *testing.T, capacity int) *buffer.Pool {
	t.Helper()
	dm, err := storage.NewDiskManager(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })
	return buffer.NewPool(dm, capacity)
}

func intKeySchema() *record.Schema {
	return &record.Schema{Columns: []record.Column{{Name: "k", Type: datum.Int(false)}}}
}

func intKey(v int32) Key { return Key{datum.NewInt(v)} }

// TestBTreePointLookupAndRangeScan mirrors spec.md §8 scenario 4.
func TestBTreePointLookupAndRangeScan(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := CreateIndex(pool, intKeySchema(), false)
	require.NoError(t, err)

	rids := map[int32]heap.RecordID{
		1: {PageID: 10, Slot: 0},
		2: {PageID: 10, Slot: 1},
		4: {PageID: 11, Slot: 0},
		8: {PageID: 12, Slot: 0},
	}
	for _, k := range []int32{1, 2, 4, 8} {
		require.NoError(t, tree.Insert(intKey(k), rids[k]))
	}

	_, err = tree.Lookup(intKey(5))
	require.ErrorIs(t, err, ErrKeyNotFound)

	got, err := tree.Lookup(intKey(4))
	require.NoError(t, err)
	require.Equal(t, rids[4], got)

	_, err = tree.Lookup(intKey(-5))
	require.ErrorIs(t, err, ErrKeyNotFound)

	entries, err := tree.RangeScan(intKey(2), intKey(8))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int32(2), entries[0].Key[0].I)
	require.Equal(t, int32(4), entries[1].Key[0].I)
}

func TestBTreeLookupReturnsLastInsertedOnDuplicate(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := CreateIndex(pool, intKeySchema(), false)
	require.NoError(t, err)

	require.NoError(t, tree.Insert(intKey(3), heap.RecordID{PageID: 1, Slot: 0}))
	require.NoError(t, tree.Insert(intKey(3), heap.RecordID{PageID: 1, Slot: 1}))

	got, err := tree.Lookup(intKey(3))
	require.NoError(t, err)
	require.Equal(t, heap.RecordID{PageID: 1, Slot: 1}, got)
}

func TestBTreeUniqueIndexRejectsDuplicate(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := CreateIndex(pool, intKeySchema(), true)
	require.NoError(t, err)

	require.NoError(t, tree.Insert(intKey(3), heap.RecordID{PageID: 1, Slot: 0}))
	err = tree.Insert(intKey(3), heap.RecordID{PageID: 1, Slot: 1})
	require.ErrorIs(t, err, ErrDuplicateKey)
}

// TestBTreeSplitsAndStaysOrdered inserts enough keys to force a leaf
// split and a new internal root, then confirms a full scan still recovers
// every key in ascending order — spec.md §8's in-order-walk property.
func TestBTreeSplitsAndStaysOrdered(t *testing.T) {
	pool := newTestPool(t, 32)
	tree, err := CreateIndex(pool, intKeySchema(), true)
	require.NoError(t, err)

	const n = 400
	for i := int32(0); i < n; i++ {
		require.NoError(t, tree.Insert(intKey(i), heap.RecordID{PageID: storage.PageID(i), Slot: 0}))
	}

	entries, err := tree.RangeScan(nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, n)
	for i, e := range entries {
		require.Equal(t, int32(i), e.Key[0].I)
	}

	mid, err := tree.Lookup(intKey(250))
	require.NoError(t, err)
	require.Equal(t, storage.PageID(250), mid.PageID)
}

func TestBTreeOpenIndexReattaches(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := CreateIndex(pool, intKeySchema(), false)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(intKey(1), heap.RecordID{PageID: 1, Slot: 0}))

	reopened, err := OpenIndex(pool, tree.MetaPageID(), false)
	require.NoError(t, err)
	got, err := reopened.Lookup(intKey(1))
	require.NoError(t, err)
	require.Equal(t, heap.RecordID{PageID: 1, Slot: 0}, got)
}
