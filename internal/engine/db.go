// Package engine provides the thinnest external interface that drives
// the storage core without a SQL layer (spec.md §13, "Database
// facade"): open/create a data file, create or open tables, build
// indexes over them, and close cleanly. Grounded on the teacher's
// internal/engine/db.go Database type, replacing its per-table JSON
// meta file with an in-page table-catalog-and-meta-page design so the
// whole database lives in one file, matching spec.md §2's single
// page-file model.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tuannm99/novadb/internal/btree"
	"github.com/tuannm99/novadb/internal/buffer"
	"github.com/tuannm99/novadb/internal/catalog"
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/storage"
)

const (
	superblockPageID   storage.PageID = 0
	defaultPoolCapacity               = 64
)

// Option configures OpenDatabase. Library callers use plain functional
// options; only the cmd/novadb CLI layers viper config on top (spec.md
// §10 AMBIENT STACK: "viper is confined to the CLI entrypoint").
type Option func(*options)

type options struct {
	poolCapacity int
}

// WithPoolCapacity overrides the buffer pool's frame count.
func WithPoolCapacity(n int) Option {
	return func(o *options) { o.poolCapacity = n }
}

// Database is a single page file plus the buffer pool and catalog
// machinery needed to create and open tables and indexes over it.
type Database struct {
	dataDir string
	disk    *storage.DiskManager
	pool    *buffer.Pool

	instanceID         uuid.UUID
	tableCatalogPageID storage.PageID

	closed bool
}

// InstanceID returns the UUID stamped into this data file's superblock
// the first time it was created.
func (db *Database) InstanceID() uuid.UUID { return db.instanceID }

// Pool exposes the underlying buffer pool, e.g. for cmd/novadb stats.
func (db *Database) Pool() *buffer.Pool { return db.pool }

// OpenDatabase opens (or creates, if absent) the page file at
// <dataDir>/data.db. A freshly created file is bootstrapped with a new
// instance UUID (page 0) and an empty table catalog (page 1); an
// existing file has both read back from page 0.
func OpenDatabase(dataDir string, opts ...Option) (*Database, error) {
	o := options{poolCapacity: defaultPoolCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: open database: mkdir %q: %w", dataDir, err)
	}

	disk, err := storage.NewDiskManager(filepath.Join(dataDir, "data.db"))
	if err != nil {
		return nil, fmt.Errorf("engine: open database: %w", err)
	}
	pool := buffer.NewPool(disk, o.poolCapacity)

	numPages, err := disk.NumPages()
	if err != nil {
		return nil, fmt.Errorf("engine: open database: %w", err)
	}

	db := &Database{dataDir: dataDir, disk: disk, pool: pool}
	if numPages == 0 {
		if err := db.bootstrap(); err != nil {
			return nil, err
		}
	} else {
		if err := db.attach(); err != nil {
			return nil, err
		}
	}
	slog.Debug("engine.OpenDatabase", "dataDir", dataDir, "instanceID", db.instanceID, "poolCapacity", o.poolCapacity)
	return db, nil
}

// bootstrap creates a brand-new superblock page (must land on page 0,
// the very first Allocate call on an empty file) and table catalog page.
func (db *Database) bootstrap() error {
	sbFrame, err := db.pool.Alloc()
	if err != nil {
		return fmt.Errorf("engine: bootstrap: superblock: %w", err)
	}
	sbPageID, _ := sbFrame.PageID()
	if sbPageID != superblockPageID {
		return fmt.Errorf("engine: bootstrap: expected superblock at page %d, got %d", superblockPageID, sbPageID)
	}

	catFrame, err := db.pool.Alloc()
	if err != nil {
		_ = db.pool.Unpin(sbPageID)
		return fmt.Errorf("engine: bootstrap: table catalog: %w", err)
	}
	catalogPageID, _ := catFrame.PageID()
	catalog.NewPage(catFrame.Buf).Reset()
	catFrame.Dirty = true
	if err := db.pool.Unpin(catalogPageID); err != nil {
		return err
	}

	instanceID := uuid.New()
	if err := writeSuperblock(sbFrame.Buf, instanceID, catalogPageID); err != nil {
		_ = db.pool.Unpin(sbPageID)
		return err
	}
	sbFrame.Dirty = true
	if err := db.pool.Unpin(sbPageID); err != nil {
		return err
	}

	db.instanceID = instanceID
	db.tableCatalogPageID = catalogPageID
	return nil
}

// attach reads an existing data file's superblock.
func (db *Database) attach() error {
	f, err := db.pool.Fetch(superblockPageID)
	if err != nil {
		return fmt.Errorf("engine: attach: %w", err)
	}
	defer func() { _ = db.pool.Unpin(superblockPageID) }()

	instanceID, catalogPageID, err := readSuperblock(f.Buf)
	if err != nil {
		return fmt.Errorf("engine: attach: %w", err)
	}
	db.instanceID = instanceID
	db.tableCatalogPageID = catalogPageID
	return nil
}

// tableMetaPageID looks up name in the table catalog.
func (db *Database) tableMetaPageID(name string) (storage.PageID, bool, error) {
	f, err := db.pool.Fetch(db.tableCatalogPageID)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = db.pool.Unpin(db.tableCatalogPageID) }()
	id, ok := catalog.NewPage(f.Buf).Lookup(name)
	return storage.PageID(id), ok, nil
}

func (db *Database) readTableMeta(metaPageID storage.PageID) (*tableMeta, error) {
	f, err := db.pool.Fetch(metaPageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.pool.Unpin(metaPageID) }()
	return decodeTableMeta(f.Buf)
}

func (db *Database) writeTableMeta(metaPageID storage.PageID, tm *tableMeta) error {
	f, err := db.pool.Fetch(metaPageID)
	if err != nil {
		return err
	}
	defer func() { _ = db.pool.Unpin(metaPageID) }()
	enc := encodeTableMeta(tm)
	if len(enc) > len(f.Buf) {
		return fmt.Errorf("engine: table meta for page %d overflows one page (%d bytes)", metaPageID, len(enc))
	}
	for i := range f.Buf {
		f.Buf[i] = 0
	}
	copy(f.Buf, enc)
	f.Dirty = true
	return nil
}

// CreateTable registers a new, empty table named name with the given
// schema: allocates its head slice and a meta page recording
// (head page id, schema, no indexes yet), then adds name to the table
// catalog. Fails with ErrTableExists if name is already registered
// (spec.md §12's "the Database facade performs the duplicate check").
func (db *Database) CreateTable(name string, schema record.Schema) (*heap.Table, error) {
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	if _, ok, err := db.tableMetaPageID(name); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrTableExists
	}

	table := heap.CreateTable(db.pool, &schema)
	headPageID, err := table.EnsureHead()
	if err != nil {
		return nil, fmt.Errorf("engine: create table %q: %w", name, err)
	}

	metaFrame, err := db.pool.Alloc()
	if err != nil {
		return nil, fmt.Errorf("engine: create table %q: %w", name, err)
	}
	metaPageID, _ := metaFrame.PageID()
	if err := db.pool.Unpin(metaPageID); err != nil {
		return nil, err
	}
	if err := db.writeTableMeta(metaPageID, &tableMeta{HeadPageID: headPageID, Schema: &schema}); err != nil {
		return nil, err
	}

	catFrame, err := db.pool.Fetch(db.tableCatalogPageID)
	if err != nil {
		return nil, err
	}
	if err := catalog.NewPage(catFrame.Buf).Insert(uint32(metaPageID), name); err != nil {
		_ = db.pool.Unpin(db.tableCatalogPageID)
		return nil, fmt.Errorf("engine: create table %q: %w", name, err)
	}
	catFrame.Dirty = true
	if err := db.pool.Unpin(db.tableCatalogPageID); err != nil {
		return nil, err
	}

	slog.Debug("engine.Database.CreateTable", "name", name, "headPageID", headPageID, "metaPageID", metaPageID)
	return table, nil
}

// OpenTable reattaches to an already-registered table.
func (db *Database) OpenTable(name string) (*heap.Table, error) {
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	metaPageID, ok, err := db.tableMetaPageID(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTableNotFound
	}
	tm, err := db.readTableMeta(metaPageID)
	if err != nil {
		return nil, fmt.Errorf("engine: open table %q: %w", name, err)
	}
	return heap.OpenTable(db.pool, tm.Schema, tm.HeadPageID), nil
}

// CreateIndex builds a B+Tree index named name over table's keyCols
// (column indices into the table's schema), backfilling it from every
// row already in the table, then records the index's meta page id in
// the table's meta page (spec.md §13, mirroring the teacher's
// index_registry.go IndexMeta persisted alongside table meta).
func (db *Database) CreateIndex(table, name string, keyCols []int, unique bool) (*btree.Tree, error) {
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	metaPageID, ok, err := db.tableMetaPageID(table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTableNotFound
	}
	tm, err := db.readTableMeta(metaPageID)
	if err != nil {
		return nil, fmt.Errorf("engine: create index %q on %q: %w", name, table, err)
	}
	for _, im := range tm.Indexes {
		if im.Name == name {
			return nil, ErrIndexExists
		}
	}

	keySchema := projectSchema(tm.Schema, keyCols)
	tree, err := btree.CreateIndex(db.pool, keySchema, unique)
	if err != nil {
		return nil, fmt.Errorf("engine: create index %q on %q: %w", name, table, err)
	}

	heapTable := heap.OpenTable(db.pool, tm.Schema, tm.HeadPageID)
	if err := heapTable.Scan(func(rid heap.RecordID, tup record.Tuple) error {
		key := btree.Key(tup.Project(keyCols))
		return tree.Insert(key, rid)
	}); err != nil {
		return nil, fmt.Errorf("engine: create index %q on %q: backfill: %w", name, table, err)
	}

	tm.Indexes = append(tm.Indexes, indexMeta{
		Name:       name,
		Unique:     unique,
		MetaPageID: tree.MetaPageID(),
		KeyCols:    keyCols,
	})
	if err := db.writeTableMeta(metaPageID, tm); err != nil {
		return nil, fmt.Errorf("engine: create index %q on %q: %w", name, table, err)
	}

	slog.Debug("engine.Database.CreateIndex", "table", table, "index", name, "unique", unique, "keyCols", keyCols)
	return tree, nil
}

// OpenIndex reattaches to an already-registered index.
func (db *Database) OpenIndex(table, name string) (*btree.Tree, error) {
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	metaPageID, ok, err := db.tableMetaPageID(table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTableNotFound
	}
	tm, err := db.readTableMeta(metaPageID)
	if err != nil {
		return nil, fmt.Errorf("engine: open index %q on %q: %w", name, table, err)
	}
	for _, im := range tm.Indexes {
		if im.Name == name {
			return btree.OpenIndex(db.pool, im.MetaPageID, im.Unique)
		}
	}
	return nil, ErrIndexNotFound
}

// Close flushes every dirty frame and closes the underlying file.
func (db *Database) Close() error {
	if db.closed {
		return nil
	}
	if err := db.pool.FlushAll(); err != nil {
		return fmt.Errorf("engine: close: %w", err)
	}
	if err := db.disk.Close(); err != nil {
		return fmt.Errorf("engine: close: %w", err)
	}
	db.closed = true
	return nil
}

// projectSchema builds the key schema for a composite index over cols,
// dropping primary/unique/foreign-key metadata (an index key schema
// carries only the columns themselves).
func projectSchema(schema *record.Schema, cols []int) *record.Schema {
	out := &record.Schema{Columns: make([]record.Column, len(cols))}
	for i, c := range cols {
		out.Columns[i] = schema.Columns[c]
	}
	return out
}
