package heap

import (
	"github.com/tuannm99/novadb/internal/buffer"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/storage"
)

// Table is the linked list of slices whose head page id is recorded in
// the catalog (spec.md §4.6).
type Table struct {
	pool   *buffer.Pool
	schema *record.Schema
	head   storage.PageID
}

// CreateTable starts a brand-new, empty table: the head slice is
// page-less until the first insert.
func CreateTable(pool *buffer.Pool, schema *record.Schema) *Table {
	return &Table{pool: pool, schema: schema, head: storage.InvalidPageID}
}

// OpenTable reattaches to a table whose head slice already lives at
// headPageID (as recorded by a table catalog).
func OpenTable(pool *buffer.Pool, schema *record.Schema, headPageID storage.PageID) *Table {
	return &Table{pool: pool, schema: schema, head: headPageID}
}

// HeadPageID returns the table's head slice page id, to be recorded in
// a table catalog. Valid only after at least one Insert.
func (t *Table) HeadPageID() storage.PageID { return t.head }

// Schema returns the table's row schema.
func (t *Table) Schema() *record.Schema { return t.schema }

// EnsureHead forces the head slice into existence (a no-op if Insert has
// already run) and returns its page id. Lets a caller record a stable
// head page id in a table catalog before any row is inserted.
func (t *Table) EnsureHead() (storage.PageID, error) {
	if t.head != storage.InvalidPageID {
		return t.head, nil
	}
	s := NewSlice(t.pool, t.schema)
	if _, err := s.ensurePage(); err != nil {
		return 0, err
	}
	if err := t.pool.Unpin(s.pageID); err != nil {
		return 0, err
	}
	t.head = s.pageID
	return t.head, nil
}

// Insert appends tup to the table: walk slices from the head, inserting
// into the first one with room; if none has room, append a new slice
// and link it.
func (t *Table) Insert(tup record.Tuple) (RecordID, error) {
	if t.head == storage.InvalidPageID {
		s := NewSlice(t.pool, t.schema)
		rid, err := s.Insert(tup)
		if err != nil {
			return RecordID{}, err
		}
		t.head = s.PageID()
		return rid, nil
	}

	cur := OpenSlice(t.pool, t.schema, t.head)
	for {
		rid, err := cur.Insert(tup)
		if err == nil {
			return rid, nil
		}
		if err != ErrSliceOutOfSpace {
			return RecordID{}, err
		}

		next, err := cur.GetNextPageID()
		if err != nil {
			return RecordID{}, err
		}
		if next != storage.InvalidPageID {
			cur = OpenSlice(t.pool, t.schema, next)
			continue
		}

		fresh := NewSlice(t.pool, t.schema)
		rid, err = fresh.Insert(tup)
		if err != nil {
			return RecordID{}, err
		}
		if err := cur.SetNextPageID(fresh.PageID()); err != nil {
			return RecordID{}, err
		}
		return rid, nil
	}
}

// OpenSlice attaches a Slice to an already-existing page id.
func OpenSlice(pool *buffer.Pool, schema *record.Schema, pageID storage.PageID) *Slice {
	s := NewSlice(pool, schema)
	s.Attach(pageID)
	return s
}

// TupleAt decodes the tuple at rid.
func (t *Table) TupleAt(rid RecordID) (record.Tuple, error) {
	s := OpenSlice(t.pool, t.schema, rid.PageID)
	return s.TupleAt(rid.Slot)
}

// Scan walks every slice in the table in order, yielding (rid, tuple)
// pairs via fn. Iteration stops early if fn returns an error.
func (t *Table) Scan(fn func(RecordID, record.Tuple) error) error {
	if t.head == storage.InvalidPageID {
		return nil
	}
	pageID := t.head
	for pageID != storage.InvalidPageID {
		s := OpenSlice(t.pool, t.schema, pageID)
		idxs, err := s.SlotIter()
		if err != nil {
			return err
		}
		for _, i := range idxs {
			tup, err := s.TupleAt(i)
			if err != nil {
				return err
			}
			if err := fn(s.RecordIDAt(i), tup); err != nil {
				return err
			}
		}
		pageID, err = s.GetNextPageID()
		if err != nil {
			return err
		}
	}
	return nil
}
