package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/buffer"
	"github.com/tuannm99/novadb/internal/datum"
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

func peopleSchema() *record.Schema {
	return &record.Schema{Columns: []record.Column{
		{Name: "id", Type: datum.Int(false)},
		{Name: "name", Type: datum.VarChar(false)},
	}}
}

func mustTuple(t *testing.T, s *record.Schema, id int32, name string) record.Tuple {
	t.Helper()
	tup, err := record.NewTuple(s, []datum.Datum{datum.NewInt(id), datum.NewVarChar(name)})
	require.NoError(t, err)
	return tup
}

func TestSliceInsertAndTupleAt(t *testing.T) {
	pool := newTestPool(t, 4)
	schema := peopleSchema()
	s := NewSlice(pool, schema)

	rid, err := s.Insert(mustTuple(t, schema, 1, "foo"))
	require.NoError(t, err)
	require.Equal(t, 0, rid.Slot)

	got, err := s.TupleAt(rid.Slot)
	require.NoError(t, err)
	require.Equal(t, int32(1), got.Values[0].I)
	require.Equal(t, "foo", got.Values[1].S)
}

func TestSliceNextPageIDDefaultsToInvalid(t *testing.T) {
	pool := newTestPool(t, 4)
	schema := peopleSchema()
	s := NewSlice(pool, schema)
	_, err := s.Insert(mustTuple(t, schema, 1, "foo"))
	require.NoError(t, err)

	next, err := s.GetNextPageID()
	require.NoError(t, err)
	require.Equal(t, storage.InvalidPageID, next)
}

// TestTableInsertScan mirrors spec.md §8 scenario 6's table-building
// half: insert several rows and confirm a full scan recovers them in
// insertion order.
func TestTableInsertScan(t *testing.T) {
	pool := newTestPool(t, 4)
	schema := peopleSchema()
	tbl := CreateTable(pool, schema)

	rows := []struct {
		id   int32
		name string
	}{
		{1, "foo"}, {2, "bar"}, {4, "hello"},
	}
	rids := make([]RecordID, len(rows))
	for i, r := range rows {
		rid, err := tbl.Insert(mustTuple(t, schema, r.id, r.name))
		require.NoError(t, err)
		rids[i] = rid
	}

	var seen []record.Tuple
	require.NoError(t, tbl.Scan(func(rid RecordID, tup record.Tuple) error {
		seen = append(seen, tup)
		return nil
	}))
	require.Len(t, seen, 3)
	require.Equal(t, int32(4), seen[2].Values[0].I)
	require.Equal(t, "hello", seen[2].Values[1].S)

	direct, err := tbl.TupleAt(rids[2])
	require.NoError(t, err)
	require.Equal(t, "hello", direct.Values[1].S)
}

func TestTableSpillsToNewSliceWhenFull(t *testing.T) {
	pool := newTestPool(t, 8)
	schema := peopleSchema()
	tbl := CreateTable(pool, schema)

	// A big enough varchar payload that only a handful fit per page,
	// forcing at least one slice spill.
	big := make([]byte, 1000)
	for i := range big {
		big[i] = 'x'
	}
	for i := 0; i < 10; i++ {
		_, err := tbl.Insert(mustTuple(t, schema, int32(i), string(big)))
		require.NoError(t, err)
	}

	count := 0
	require.NoError(t, tbl.Scan(func(RecordID, record.Tuple) error {
		count++
		return nil
	}))
	require.Equal(t, 10, count)

	head := OpenSlice(pool, schema, tbl.HeadPageID())
	next, err := head.GetNextPageID()
	require.NoError(t, err)
	require.NotEqual(t, storage.InvalidPageID, next, "expected the table to have spilled into a second slice")
}

func TestMessageSlice(t *testing.T) {
	pool := newTestPool(t, 2)
	s, err := NewMessageSlice(pool, "Ok")
	require.NoError(t, err)

	tup, err := s.TupleAt(0)
	require.NoError(t, err)
	require.Equal(t, "Ok", tup.Values[0].S)
}
