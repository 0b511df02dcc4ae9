// Command novadb is a small front end that exercises the storage core
// end to end (create a table, insert rows, scan, build an index, point
// and range lookup) without a SQL parser or executor, which stay
// out-of-scope collaborators (spec.md §10 AMBIENT STACK / §13).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tuannm99/novadb/internal/btree"
	"github.com/tuannm99/novadb/internal/engine"
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/record"
)

func main() {
	var cfgPath string
	var dataDir string
	var verbose bool
	flag.StringVar(&cfgPath, "config", "novadb.yaml", "path to novadb YAML config")
	flag.StringVar(&dataDir, "db", "", "data directory (overrides config storage.data_dir)")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.Parse()

	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fatal(err)
	}
	if dataDir == "" {
		dataDir = cfg.Storage.DataDir
	}
	if dataDir == "" {
		dataDir = "./novadb-data"
	}
	poolCapacity := cfg.Storage.PoolCapacity

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var opts []engine.Option
	if poolCapacity > 0 {
		opts = append(opts, engine.WithPoolCapacity(poolCapacity))
	}

	db, err := engine.OpenDatabase(dataDir, opts...)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = db.Close() }()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create-db":
		fmt.Printf("database ready at %s (instance %s)\n", dataDir, db.InstanceID())
	case "create-table":
		err = runCreateTable(db, rest)
	case "insert":
		err = runInsert(db, rest)
	case "scan":
		err = runScan(db, rest)
	case "add-index":
		err = runAddIndex(db, rest)
	case "lookup":
		err = runLookup(db, rest)
	case "range":
		err = runRange(db, rest)
	case "stats":
		err = runStats(db, rest)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `novadb: a storage-core poking tool

Usage:
  novadb [-config FILE] [-db DIR] [-v] <command> [args...]

Commands:
  create-db
  create-table <table> <col:TYPE[:pk]>...
  insert <table> <value>...
  scan <table>
  add-index <table> <index> <unique:true|false> <col>...
  lookup <table> <index> <col=value>...
  range <table> <index> [<col=value>...] -- [<col=value>...]
  stats`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "novadb:", err)
	os.Exit(1)
}

func runCreateTable(db *engine.Database, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("create-table: usage: create-table <table> <col:TYPE[:pk]>...")
	}
	schema, err := parseSchema(args[1:])
	if err != nil {
		return err
	}
	if _, err := db.CreateTable(args[0], schema); err != nil {
		return err
	}
	fmt.Printf("created table %q with %d columns\n", args[0], len(schema.Columns))
	return nil
}

func runInsert(db *engine.Database, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("insert: usage: insert <table> <value>...")
	}
	table, err := db.OpenTable(args[0])
	if err != nil {
		return err
	}
	vals, err := parseValues(table.Schema(), args[1:])
	if err != nil {
		return err
	}
	tup, err := record.NewTuple(table.Schema(), vals)
	if err != nil {
		return err
	}
	rid, err := table.Insert(tup)
	if err != nil {
		return err
	}
	fmt.Printf("inserted into %q at page %d slot %d\n", args[0], rid.PageID, rid.Slot)
	return nil
}

func runScan(db *engine.Database, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("scan: usage: scan <table>")
	}
	table, err := db.OpenTable(args[0])
	if err != nil {
		return err
	}
	return table.Scan(func(rid heap.RecordID, tup record.Tuple) error {
		fmt.Println(formatTuple(table.Schema(), tup))
		return nil
	})
}

func runAddIndex(db *engine.Database, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("add-index: usage: add-index <table> <index> <unique:true|false> <col>...")
	}
	table, err := db.OpenTable(args[0])
	if err != nil {
		return err
	}
	unique := strings.EqualFold(args[2], "true")
	cols := make([]int, 0, len(args[3:]))
	for _, name := range args[3:] {
		idx := table.Schema().IndexOf(name)
		if idx < 0 {
			return fmt.Errorf("add-index: no such column %q", name)
		}
		cols = append(cols, idx)
	}
	if _, err := db.CreateIndex(args[0], args[1], cols, unique); err != nil {
		return err
	}
	fmt.Printf("created index %q on %q (%s)\n", args[1], args[0], strings.Join(args[3:], ","))
	return nil
}

func runLookup(db *engine.Database, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("lookup: usage: lookup <table> <index> <col=value>...")
	}
	table, err := db.OpenTable(args[0])
	if err != nil {
		return err
	}
	idx, err := db.OpenIndex(args[0], args[1])
	if err != nil {
		return err
	}
	key, err := parseKeyAssignments(table.Schema(), args[2:])
	if err != nil {
		return err
	}
	rid, err := idx.Lookup(key)
	if err != nil {
		return err
	}
	tup, err := table.TupleAt(rid)
	if err != nil {
		return err
	}
	fmt.Println(formatTuple(table.Schema(), tup))
	return nil
}

func runRange(db *engine.Database, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("range: usage: range <table> <index> [<col=value>...] -- [<col=value>...]")
	}
	table, err := db.OpenTable(args[0])
	if err != nil {
		return err
	}
	idx, err := db.OpenIndex(args[0], args[1])
	if err != nil {
		return err
	}

	rest := args[2:]
	sep := -1
	for i, a := range rest {
		if a == "--" {
			sep = i
			break
		}
	}
	var beginArgs, endArgs []string
	if sep < 0 {
		beginArgs = rest
	} else {
		beginArgs, endArgs = rest[:sep], rest[sep+1:]
	}

	var begin, end btree.Key
	if len(beginArgs) > 0 {
		begin, err = parseKeyAssignments(table.Schema(), beginArgs)
		if err != nil {
			return err
		}
	}
	if len(endArgs) > 0 {
		end, err = parseKeyAssignments(table.Schema(), endArgs)
		if err != nil {
			return err
		}
	}

	entries, err := idx.RangeScan(begin, end)
	if err != nil {
		return err
	}
	for _, e := range entries {
		tup, err := table.TupleAt(e.Rid)
		if err != nil {
			return err
		}
		fmt.Println(formatTuple(table.Schema(), tup))
	}
	return nil
}

// parseKeyAssignments parses "col=value" pairs, in the order given
// (which must match the index's key-column order), into a btree.Key.
func parseKeyAssignments(schema *record.Schema, assignments []string) (btree.Key, error) {
	key := make(btree.Key, 0, len(assignments))
	for _, a := range assignments {
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad key assignment %q (want col=value)", a)
		}
		idx := schema.IndexOf(parts[0])
		if idx < 0 {
			return nil, fmt.Errorf("no such column %q", parts[0])
		}
		v, err := parseValue(schema.Columns[idx].Type, parts[1])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", parts[0], err)
		}
		key = append(key, v)
	}
	return key, nil
}

func formatTuple(schema *record.Schema, tup record.Tuple) string {
	parts := make([]string, len(tup.Values))
	for i, v := range tup.Values {
		parts[i] = fmt.Sprintf("%s=%s", schema.Columns[i].Name, formatDatum(v))
	}
	return strings.Join(parts, " ")
}
