package btree

import (
	"github.com/tuannm99/novadb/internal/buffer"
	"github.com/tuannm99/novadb/internal/storage"
)

// overflowStore appends raw key bytes to a chain of pages, used when a
// tree's composite key exceeds the inlining limit: node slots then carry
// an (page_id, offset) reference into this store instead of the raw key
// bytes (spec.md §4.7 "non-inlined").
type overflowStore struct {
	pool *buffer.Pool
	cur  storage.PageID
	off  int
}

func newOverflowStore(pool *buffer.Pool) *overflowStore {
	return &overflowStore{pool: pool, cur: storage.InvalidPageID}
}

// openOverflowStore returns the store used by a reopened tree. It does
// not resume the previous write cursor: the first write after reopening
// allocates a fresh overflow page, and the unused tail of the last page
// written before the reopen stays empty.
func openOverflowStore(pool *buffer.Pool) *overflowStore {
	return newOverflowStore(pool)
}

// Write appends data to the store, returning a (page_id, offset)
// reference to it. A new overflow page is allocated whenever the
// current one doesn't have room.
func (o *overflowStore) Write(data []byte) (storage.PageID, uint32, error) {
	if o.cur == storage.InvalidPageID || o.off+len(data) > storage.PageSize {
		f, err := o.pool.Alloc()
		if err != nil {
			return 0, 0, err
		}
		id, _ := f.PageID()
		if err := o.pool.Unpin(id); err != nil {
			return 0, 0, err
		}
		o.cur = id
		o.off = 0
	}

	f, err := o.pool.Fetch(o.cur)
	if err != nil {
		return 0, 0, err
	}
	copy(f.Buf[o.off:], data)
	f.Dirty = true
	pageID, offset := o.cur, uint32(o.off)
	o.off += len(data)
	if err := o.pool.Unpin(pageID); err != nil {
		return 0, 0, err
	}
	return pageID, offset, nil
}

// Read fetches length bytes starting at (pageID, offset).
func (o *overflowStore) Read(pageID storage.PageID, offset uint32, length int) ([]byte, error) {
	f, err := o.pool.Fetch(pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = o.pool.Unpin(pageID) }()
	out := make([]byte, length)
	copy(out, f.Buf[offset:int(offset)+length])
	return out, nil
}
