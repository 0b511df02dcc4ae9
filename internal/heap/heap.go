// Package heap implements the tuple slice and table abstractions
// (spec.md §4.6): a schema-bound chunk of tuples stored on one
// buffer-pool page, linked into a forward list whose head page id is
// recorded in the catalog. Grounded on internal/heap/table.go's
// linked-page-list shape and internal/heap/tid.go's record id, adapted
// from the teacher's own row codec to internal/record's Schema/Tuple and
// internal/slotted's directory instead of a line-pointer array.
package heap

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novadb/internal/buffer"
	"github.com/tuannm99/novadb/internal/datum"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/slotted"
	"github.com/tuannm99/novadb/internal/storage"
)

// ErrSliceOutOfSpace is returned by Insert when the serialized tuple
// does not fit on the slice's current page; the caller is expected to
// create a new slice and link it via next_page_id.
var ErrSliceOutOfSpace = errors.New("heap: slice out of space")

// metaSize is the slotted page's Meta width for a tuple slice: just the
// next slice's page id. Tuples are addressed by slot index, not a key,
// so keySize is 0.
const metaSize = 4

// RecordID identifies a tuple within a slice: (page_id, slot_index).
type RecordID struct {
	PageID storage.PageID
	Slot   int
}

// Slice wraps one buffer-pool page as a heap of tuples for a fixed
// schema, with a forward link to the next slice. It is lazy: no page is
// allocated until the first Insert or Attach.
type Slice struct {
	pool   *buffer.Pool
	schema *record.Schema

	pageID  storage.PageID
	hasPage bool
}

// NewSlice creates an empty, page-less slice bound to schema.
func NewSlice(pool *buffer.Pool, schema *record.Schema) *Slice {
	return &Slice{pool: pool, schema: schema, pageID: storage.InvalidPageID}
}

// Attach adopts an existing page id as this slice's backing page. Used
// by sequential scans walking an already-built table.
func (s *Slice) Attach(pageID storage.PageID) {
	s.pageID = pageID
	s.hasPage = true
}

// HasPage reports whether this slice has a backing page yet. A slice
// without a page id contains no tuples (spec.md §4.6 invariant).
func (s *Slice) HasPage() bool { return s.hasPage }

// PageID returns the slice's backing page id. Panics if HasPage is
// false.
func (s *Slice) PageID() storage.PageID {
	if !s.hasPage {
		panic("heap: Slice.PageID called on a page-less slice")
	}
	return s.pageID
}

func (s *Slice) ensurePage() (*storage.Frame, error) {
	if s.hasPage {
		return s.pool.Fetch(s.pageID)
	}
	f, err := s.pool.Alloc()
	if err != nil {
		return nil, err
	}
	id, _ := f.PageID()
	sp := slotted.NewPage(f.Buf, metaSize, 0)
	meta := make([]byte, metaSize)
	storage.PutU32(meta, 0, storage.InvalidPageID)
	sp.Reset(meta)
	f.Dirty = true
	s.pageID = id
	s.hasPage = true
	return f, nil
}

// GetNextPageID returns the linked next slice's page id, or
// InvalidPageID if none, reflecting whatever the last SetNextPageID
// stored (spec.md §4.6 invariant).
func (s *Slice) GetNextPageID() (storage.PageID, error) {
	f, err := s.ensurePage()
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.pool.Unpin(s.pageID) }()
	sp := slotted.NewPage(f.Buf, metaSize, 0)
	return storage.GetU32(sp.Meta(), 0), nil
}

// SetNextPageID updates the forward link.
func (s *Slice) SetNextPageID(next storage.PageID) error {
	f, err := s.ensurePage()
	if err != nil {
		return err
	}
	defer func() { _ = s.pool.Unpin(s.pageID) }()
	sp := slotted.NewPage(f.Buf, metaSize, 0)
	meta := make([]byte, metaSize)
	storage.PutU32(meta, 0, next)
	sp.SetMeta(meta)
	f.Dirty = true
	return nil
}

// Insert serializes tup per the slice's schema and stores it in the
// page's slotted directory. Returns ErrSliceOutOfSpace if it does not
// fit; the caller is expected to start a new slice and link it via
// SetNextPageID.
func (s *Slice) Insert(tup record.Tuple) (RecordID, error) {
	data, err := tup.Encode()
	if err != nil {
		return RecordID{}, fmt.Errorf("heap: insert: %w", err)
	}

	f, err := s.ensurePage()
	if err != nil {
		return RecordID{}, err
	}
	defer func() { _ = s.pool.Unpin(s.pageID) }()

	sp := slotted.NewPage(f.Buf, metaSize, 0)
	idx, err := sp.Insert(nil, data)
	if err != nil {
		return RecordID{}, ErrSliceOutOfSpace
	}
	f.Dirty = true
	return RecordID{PageID: s.pageID, Slot: idx}, nil
}

// TupleAt decodes the tuple stored at slot i.
func (s *Slice) TupleAt(i int) (record.Tuple, error) {
	f, err := s.pool.Fetch(s.pageID)
	if err != nil {
		return record.Tuple{}, err
	}
	defer func() { _ = s.pool.Unpin(s.pageID) }()

	sp := slotted.NewPage(f.Buf, metaSize, 0)
	if !sp.Live(i) {
		return record.Tuple{}, fmt.Errorf("heap: tuple_at: slot %d is not live", i)
	}
	return record.DecodeTuple(s.schema, sp.DataAt(i))
}

// RecordIDAt returns (page_id, i), the record id addressing slot i of
// this slice.
func (s *Slice) RecordIDAt(i int) RecordID {
	return RecordID{PageID: s.pageID, Slot: i}
}

// SlotIter returns the live slot indices on this slice's page.
func (s *Slice) SlotIter() ([]int, error) {
	f, err := s.pool.Fetch(s.pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.pool.Unpin(s.pageID) }()
	sp := slotted.NewPage(f.Buf, metaSize, 0)
	return sp.Iter(), nil
}

// TupleIter returns every tuple on this slice's page, in slot order.
func (s *Slice) TupleIter() ([]record.Tuple, error) {
	idxs, err := s.SlotIter()
	if err != nil {
		return nil, err
	}
	out := make([]record.Tuple, 0, len(idxs))
	for _, i := range idxs {
		t, err := s.TupleAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// messageSchema is the fixed one-column schema used by NewMessageSlice.
var messageSchema = &record.Schema{Columns: []record.Column{{Name: "message", Type: datum.VarChar(false)}}}

// NewMessageSlice builds a one-tuple slice holding a single VARCHAR
// value, used as an executor's acknowledgement payload (spec.md §4.6,
// "message slice").
func NewMessageSlice(pool *buffer.Pool, message string) (*Slice, error) {
	s := NewSlice(pool, messageSchema)
	tup, err := record.NewTuple(messageSchema, []datum.Datum{datum.NewVarChar(message)})
	if err != nil {
		return nil, err
	}
	if _, err := s.Insert(tup); err != nil {
		return nil, err
	}
	return s, nil
}
