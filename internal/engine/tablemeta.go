package engine

import (
	"fmt"

	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/storage"
)

// indexMeta is one secondary index registered against a table, grounded
// on the teacher's internal/index_registry.go IndexMeta persisted
// alongside table metadata.
type indexMeta struct {
	Name       string
	Unique     bool
	MetaPageID storage.PageID
	KeyCols    []int
}

// tableMeta is the per-table metadata record stored on its own page
// (spec.md §13): the head page id of the table's tuple-slice list, its
// schema, and the set of indexes built over it. Decoded into a Go
// struct and re-encoded whole on every mutation, the same discipline
// internal/btree/node.go uses for B+Tree nodes.
type tableMeta struct {
	HeadPageID storage.PageID
	Schema     *record.Schema
	Indexes    []indexMeta
}

func encodeTableMeta(tm *tableMeta) []byte {
	var buf []byte
	put32 := func(v uint32) { buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }
	put16 := func(v uint16) { buf = append(buf, byte(v), byte(v>>8)) }

	put32(uint32(tm.HeadPageID))

	schemaBytes := tm.Schema.Encode()
	put32(uint32(len(schemaBytes)))
	buf = append(buf, schemaBytes...)

	put16(uint16(len(tm.Indexes)))
	for _, im := range tm.Indexes {
		put16(uint16(len(im.Name)))
		buf = append(buf, []byte(im.Name)...)
		if im.Unique {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		put32(uint32(im.MetaPageID))
		put16(uint16(len(im.KeyCols)))
		for _, c := range im.KeyCols {
			put16(uint16(c))
		}
	}
	return buf
}

func decodeTableMeta(buf []byte) (*tableMeta, error) {
	r := &cursor{b: buf}

	headRaw, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("engine: decode table meta: %w", err)
	}
	schemaLen, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("engine: decode table meta: %w", err)
	}
	schemaBytes, err := r.bytesN(int(schemaLen))
	if err != nil {
		return nil, fmt.Errorf("engine: decode table meta: %w", err)
	}
	schema, err := record.DecodeSchema(schemaBytes)
	if err != nil {
		return nil, fmt.Errorf("engine: decode table meta: schema: %w", err)
	}

	numIdx, err := r.u16()
	if err != nil {
		return nil, fmt.Errorf("engine: decode table meta: %w", err)
	}
	indexes := make([]indexMeta, numIdx)
	for i := range indexes {
		nameLen, err := r.u16()
		if err != nil {
			return nil, err
		}
		name, err := r.bytesN(int(nameLen))
		if err != nil {
			return nil, err
		}
		uniqueByte, err := r.bytesN(1)
		if err != nil {
			return nil, err
		}
		metaPageID, err := r.u32()
		if err != nil {
			return nil, err
		}
		numCols, err := r.u16()
		if err != nil {
			return nil, err
		}
		cols := make([]int, numCols)
		for j := range cols {
			v, err := r.u16()
			if err != nil {
				return nil, err
			}
			cols[j] = int(v)
		}
		indexes[i] = indexMeta{
			Name:       string(name),
			Unique:     uniqueByte[0] != 0,
			MetaPageID: storage.PageID(metaPageID),
			KeyCols:    cols,
		}
	}

	return &tableMeta{
		HeadPageID: storage.PageID(headRaw),
		Schema:     schema,
		Indexes:    indexes,
	}, nil
}

// cursor is a tiny byte-slice reader shared by engine's own meta codecs.
type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) bytesN(n int) ([]byte, error) {
	if c.pos+n > len(c.b) {
		return nil, fmt.Errorf("engine: truncated meta")
	}
	out := c.b[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.bytesN(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytesN(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}
