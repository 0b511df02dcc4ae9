package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/btree"
	"github.com/tuannm99/novadb/internal/datum"
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/record"
)

func peopleSchema() record.Schema {
	return record.Schema{
		Columns: []record.Column{
			{Name: "id", Type: datum.Int(false)},
			{Name: "name", Type: datum.VarChar(false)},
		},
		PrimaryIdx: []int{0},
	}
}

func mustTuple(t *testing.T, s *record.Schema, id int32, name string) record.Tuple {
	t.Helper()
	tup, err := record.NewTuple(s, []datum.Datum{datum.NewInt(id), datum.NewVarChar(name)})
	require.NoError(t, err)
	return tup
}

// TestDatabaseCreateTableInsertIndexLookup mirrors spec.md §8 scenario
// 6: create a table, insert rows, add a primary index, and point-look
// one up through it.
func TestDatabaseCreateTableInsertIndexLookup(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDatabase(dir, WithPoolCapacity(16))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema := peopleSchema()
	table, err := db.CreateTable("people", schema)
	require.NoError(t, err)

	rids := make(map[int32]heap.RecordID)
	for i, name := range []string{"ada", "grace", "alan"} {
		id := int32(i + 1)
		rid, err := table.Insert(mustTuple(t, &schema, id, name))
		require.NoError(t, err)
		rids[id] = rid
	}

	idx, err := db.CreateIndex("people", "people_pk", []int{0}, true)
	require.NoError(t, err)

	rid, err := idx.Lookup(btree.Key{datum.NewInt(2)})
	require.NoError(t, err)
	require.Equal(t, rids[2], rid)

	tup, err := table.TupleAt(rid)
	require.NoError(t, err)
	require.Equal(t, "grace", tup.Values[1].S)

	_, err = idx.Lookup(btree.Key{datum.NewInt(99)})
	require.ErrorIs(t, err, btree.ErrKeyNotFound)
}

func TestDatabaseCreateTableDuplicateNameRejected(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDatabase(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema := peopleSchema()
	_, err = db.CreateTable("people", schema)
	require.NoError(t, err)

	_, err = db.CreateTable("people", schema)
	require.ErrorIs(t, err, ErrTableExists)
}

func TestDatabaseOpenTableUnknownFails(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDatabase(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.OpenTable("ghost")
	require.ErrorIs(t, err, ErrTableNotFound)
}

// TestDatabaseReopenPersistsTablesAndIndexes closes and reopens the
// database over the same directory, confirming the table and its index
// both survive via the superblock and table-catalog page.
func TestDatabaseReopenPersistsTablesAndIndexes(t *testing.T) {
	dir := t.TempDir()

	db, err := OpenDatabase(dir)
	require.NoError(t, err)
	schema := peopleSchema()
	table, err := db.CreateTable("people", schema)
	require.NoError(t, err)
	rid, err := table.Insert(mustTuple(t, &schema, 7, "hopper"))
	require.NoError(t, err)
	_, err = db.CreateIndex("people", "people_pk", []int{0}, true)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := OpenDatabase(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	reTable, err := reopened.OpenTable("people")
	require.NoError(t, err)
	tup, err := reTable.TupleAt(rid)
	require.NoError(t, err)
	require.Equal(t, "hopper", tup.Values[1].S)

	reIdx, err := reopened.OpenIndex("people", "people_pk")
	require.NoError(t, err)
	got, err := reIdx.Lookup(btree.Key{datum.NewInt(7)})
	require.NoError(t, err)
	require.Equal(t, rid, got)
}

func TestOpenDatabaseStampsStableInstanceID(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDatabase(dir)
	require.NoError(t, err)
	first := db.InstanceID()
	require.NoError(t, db.Close())

	reopened, err := OpenDatabase(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	require.Equal(t, first, reopened.InstanceID())
}

func TestOpenDatabaseUsesDataDbFile(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDatabase(dir)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.FileExists(t, filepath.Join(dir, "data.db"))
}
