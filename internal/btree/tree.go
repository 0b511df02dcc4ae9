package btree

import (
	"fmt"
	"log/slog"

	"github.com/tuannm99/novadb/internal/buffer"
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/storage"
)

// Tree is a B+Tree secondary index: an ordered map from a composite key
// to a record id (spec.md §4.7).
type Tree struct {
	pool   *buffer.Pool
	schema *record.Schema // key schema: the indexed columns, in key order
	unique bool

	metaPageID     storage.PageID
	keySize        int
	inlined        bool
	onPageKeyWidth int
	overflow       *overflowStore
}

// CreateIndex allocates a fresh meta page and an empty root leaf, and
// returns a Tree over keySchema. unique enforces DuplicateKey on insert
// (used for primary/unique indexes).
func CreateIndex(pool *buffer.Pool, keySchema *record.Schema, unique bool) (*Tree, error) {
	keySize, inlinable := keySchema.KeyWidth()
	if !inlinable {
		return nil, fmt.Errorf("btree: CreateIndex: key schema must use only inlined (fixed-width) column types")
	}

	rootFrame, err := pool.Alloc()
	if err != nil {
		return nil, err
	}
	rootPageID, _ := rootFrame.PageID()
	leaf := &leafNode{ParentPageID: storage.InvalidPageID}
	onPageKeyWidth := keySize
	if keySize > inlineLimit {
		onPageKeyWidth = 8
	}
	if err := leaf.encode(rootFrame.Buf, onPageKeyWidth); err != nil {
		_ = pool.Unpin(rootPageID)
		return nil, err
	}
	rootFrame.Dirty = true
	if err := pool.Unpin(rootPageID); err != nil {
		return nil, err
	}

	metaFrame, err := pool.Alloc()
	if err != nil {
		return nil, err
	}
	metaPageID, _ := metaFrame.PageID()
	if err := writeMeta(metaFrame.Buf, rootPageID, keySize, keySchema); err != nil {
		_ = pool.Unpin(metaPageID)
		return nil, err
	}
	metaFrame.Dirty = true
	if err := pool.Unpin(metaPageID); err != nil {
		return nil, err
	}

	t := &Tree{
		pool:           pool,
		schema:         keySchema,
		unique:         unique,
		metaPageID:     metaPageID,
		keySize:        keySize,
		inlined:        keySize <= inlineLimit,
		onPageKeyWidth: onPageKeyWidth,
	}
	if !t.inlined {
		t.overflow = newOverflowStore(pool)
	}
	slog.Debug("btree.CreateIndex", "metaPageID", metaPageID, "rootPageID", rootPageID, "keySize", keySize, "inlined", t.inlined)
	return t, nil
}

// OpenIndex reattaches to an index whose meta page already exists.
func OpenIndex(pool *buffer.Pool, metaPageID storage.PageID, unique bool) (*Tree, error) {
	f, err := pool.Fetch(metaPageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pool.Unpin(metaPageID) }()

	keySize := readMetaKeySize(f.Buf)
	schema, err := readMetaSchema(f.Buf)
	if err != nil {
		return nil, err
	}
	onPageKeyWidth := keySize
	if keySize > inlineLimit {
		onPageKeyWidth = 8
	}
	t := &Tree{
		pool:           pool,
		schema:         schema,
		unique:         unique,
		metaPageID:     metaPageID,
		keySize:        keySize,
		inlined:        keySize <= inlineLimit,
		onPageKeyWidth: onPageKeyWidth,
	}
	if !t.inlined {
		t.overflow = openOverflowStore(pool)
	}
	return t, nil
}

// MetaPageID returns the page id to record in a table/index catalog.
func (t *Tree) MetaPageID() storage.PageID { return t.metaPageID }

func (t *Tree) rootPageID() (storage.PageID, error) {
	f, err := t.pool.Fetch(t.metaPageID)
	if err != nil {
		return 0, err
	}
	defer func() { _ = t.pool.Unpin(t.metaPageID) }()
	return readMetaRootPageID(f.Buf), nil
}

func (t *Tree) setRootPageID(pageID storage.PageID) error {
	f, err := t.pool.Fetch(t.metaPageID)
	if err != nil {
		return err
	}
	defer func() { _ = t.pool.Unpin(t.metaPageID) }()
	writeMetaRootPageID(f.Buf, pageID)
	f.Dirty = true
	return nil
}

// rawKeyBytes serializes k into its on-page representation: raw bytes
// if inlined, or an (page_id, offset) overflow reference otherwise.
func (t *Tree) rawKeyBytes(k Key) ([]byte, error) {
	enc, err := encodeKey(t.schema, k)
	if err != nil {
		return nil, err
	}
	if t.inlined {
		return enc, nil
	}
	pageID, offset, err := t.overflow.Write(enc)
	if err != nil {
		return nil, err
	}
	ref := make([]byte, 8)
	le.PutUint32(ref[0:4], pageID)
	le.PutUint32(ref[4:8], offset)
	return ref, nil
}

// materializeKey resolves a node's on-page key bytes back to a
// composite Key, dereferencing through the overflow store when the
// index is non-inlined.
func (t *Tree) materializeKey(raw []byte) (Key, error) {
	if t.inlined {
		return decodeKey(t.schema, raw)
	}
	pageID := le.Uint32(raw[0:4])
	offset := le.Uint32(raw[4:8])
	enc, err := t.overflow.Read(pageID, offset, t.keySize)
	if err != nil {
		return nil, err
	}
	return decodeKey(t.schema, enc)
}

// childIndex finds i such that key[i-1] <= search < key[i] (spec.md
// §4.7 point-lookup descent rule), i.e. the count of node.Keys that are
// <= search.
func (t *Tree) childIndex(node *internalNode, search Key) (int, error) {
	idx := 0
	for _, kb := range node.Keys {
		k, err := t.materializeKey(kb)
		if err != nil {
			return 0, err
		}
		if compareKeys(k, search) <= 0 {
			idx++
		} else {
			break
		}
	}
	return idx, nil
}

// Lookup performs an exact-match point lookup, descending from the
// root, pinning the child before unpinning the parent.
func (t *Tree) Lookup(k Key) (heap.RecordID, error) {
	pageID, err := t.rootPageID()
	if err != nil {
		return heap.RecordID{}, err
	}
	frame, err := t.pool.Fetch(pageID)
	if err != nil {
		return heap.RecordID{}, err
	}

	for {
		leaf, err := isLeafPage(frame.Buf)
		if err != nil {
			_ = t.pool.Unpin(pageID)
			return heap.RecordID{}, err
		}
		if leaf {
			node, err := decodeLeaf(frame.Buf, t.onPageKeyWidth)
			_ = t.pool.Unpin(pageID)
			if err != nil {
				return heap.RecordID{}, err
			}
			rid, found, err := t.leafLookupLast(node, k)
			if err != nil {
				return heap.RecordID{}, err
			}
			if !found {
				return heap.RecordID{}, ErrKeyNotFound
			}
			return rid, nil
		}

		node, err := decodeInternal(frame.Buf, t.onPageKeyWidth)
		if err != nil {
			_ = t.pool.Unpin(pageID)
			return heap.RecordID{}, err
		}
		idx, err := t.childIndex(node, k)
		if err != nil {
			_ = t.pool.Unpin(pageID)
			return heap.RecordID{}, err
		}
		next := node.Children[idx]
		childFrame, err := t.pool.Fetch(next)
		if err != nil {
			_ = t.pool.Unpin(pageID)
			return heap.RecordID{}, err
		}
		_ = t.pool.Unpin(pageID)
		pageID, frame = next, childFrame
	}
}

// leafLookupLast binary-searches node for an exact match on k and, if
// the index allows duplicates, returns the last entry of the contiguous
// equal-key run (spec.md §8: "lookup(k) returns the last-inserted rid").
func (t *Tree) leafLookupLast(node *leafNode, k Key) (heap.RecordID, bool, error) {
	lo, hi := 0, len(node.Keys)
	for lo < hi {
		mid := (lo + hi) / 2
		mk, err := t.materializeKey(node.Keys[mid])
		if err != nil {
			return heap.RecordID{}, false, err
		}
		if compareKeys(mk, k) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo >= len(node.Keys) {
		return heap.RecordID{}, false, nil
	}
	first, err := t.materializeKey(node.Keys[lo])
	if err != nil {
		return heap.RecordID{}, false, err
	}
	if compareKeys(first, k) != 0 {
		return heap.RecordID{}, false, nil
	}
	last := lo
	for last+1 < len(node.Keys) {
		nk, err := t.materializeKey(node.Keys[last+1])
		if err != nil {
			return heap.RecordID{}, false, err
		}
		if compareKeys(nk, k) != 0 {
			break
		}
		last++
	}
	return node.Rids[last], true, nil
}
