// Package record implements the Schema (spec.md §3): an ordered sequence
// of typed, named columns plus primary/unique/foreign-key metadata, with
// a byte serialization so a schema can be stored inside an index root
// page. Grounded on internal/record/schema.go's Column/Schema shape,
// generalized from a fixed ColumnType enum to datum.DataType and
// extended with the constraint metadata spec.md requires.
package record

import (
	"fmt"

	"github.com/tuannm99/novadb/internal/datum"
)

// Column is one (DataType, name) pair in a Schema.
type Column struct {
	Name string
	Type datum.DataType
}

// ForeignKey links a set of local columns to the columns of another
// table's schema, identified by the referenced table's catalog page id
// (spec.md §3: "(ref_table_page_id, [(local_idx, ref_idx)])").
type ForeignKey struct {
	RefTablePageID uint32
	Links          [][2]int // (local column index, referenced column index)
}

// Schema is the ordered sequence of columns for a table or index key,
// plus constraint metadata. Supplemented per SPEC_FULL.md: foreign keys
// are stored and serialized but never enforced (no referential-integrity
// checks run on insert or delete).
type Schema struct {
	Columns     []Column
	PrimaryIdx  []int // indices of Columns marked primary; may be empty
	UniqueSets  [][]int
	ForeignKeys []ForeignKey
}

// NumCols returns the number of columns.
func (s *Schema) NumCols() int { return len(s.Columns) }

// IndexOf returns the column index for name, or -1 if absent.
func (s *Schema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Project returns a new Schema containing only the named columns, in the
// order requested. No constraint metadata (primary, unique, foreign
// keys) is carried over.
func (s *Schema) Project(names ...string) (*Schema, error) {
	out := &Schema{Columns: make([]Column, 0, len(names))}
	for _, n := range names {
		idx := s.IndexOf(n)
		if idx < 0 {
			return nil, fmt.Errorf("record: schema: no such column %q", n)
		}
		out.Columns = append(out.Columns, s.Columns[idx])
	}
	return out, nil
}

// IsPrimary reports whether column index i is part of the primary key.
func (s *Schema) IsPrimary(i int) bool {
	for _, p := range s.PrimaryIdx {
		if p == i {
			return true
		}
	}
	return false
}

// KeyWidth returns the total serialized byte width of the schema's
// columns if every column is of an inlined (fixed-width) family;
// inlinable is false (and width 0) if any column is VARCHAR.
func (s *Schema) KeyWidth() (width int, inlinable bool) {
	for _, c := range s.Columns {
		if !c.Type.IsInlined() {
			return 0, false
		}
		width += c.Type.WidthOfValue()
	}
	return width, true
}

// Encode serializes the schema to bytes for storage inside an index root
// page (spec.md §3, §6). Layout:
//
//	num_cols: u32
//	for each column: type-tag (1 or 5 bytes) | name_len: u32 | name bytes
//
// (this is the wire format, matched exactly); everything after the
// columns — primary/unique/foreign-key metadata — is a supplemental
// extension with its own u16-counted layout, since those constraints
// are not part of the documented schema-bytes format:
//
//	num_primary: u16 | primary idx[...]: u16 each
//	num_unique_sets: u16 | for each: len: u16 | idx[...]: u16 each
//	num_fks: u16 | for each: ref_table_page_id: u32 | num_links: u16 | (local:u16, ref:u16)...
func (s *Schema) Encode() []byte {
	var buf []byte
	put32 := func(v uint32) { buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }
	put16 := func(v uint16) { buf = append(buf, byte(v), byte(v>>8)) }

	put32(uint32(len(s.Columns)))
	for _, c := range s.Columns {
		buf = append(buf, c.Type.EncodeType()...)
		put32(uint32(len(c.Name)))
		buf = append(buf, []byte(c.Name)...)
	}

	put16(uint16(len(s.PrimaryIdx)))
	for _, idx := range s.PrimaryIdx {
		put16(uint16(idx))
	}

	put16(uint16(len(s.UniqueSets)))
	for _, set := range s.UniqueSets {
		put16(uint16(len(set)))
		for _, idx := range set {
			put16(uint16(idx))
		}
	}

	put16(uint16(len(s.ForeignKeys)))
	for _, fk := range s.ForeignKeys {
		put32(fk.RefTablePageID)
		put16(uint16(len(fk.Links)))
		for _, l := range fk.Links {
			put16(uint16(l[0]))
			put16(uint16(l[1]))
		}
	}
	return buf
}

// DecodeSchema parses bytes produced by Schema.Encode.
func DecodeSchema(b []byte) (*Schema, error) {
	r := &reader{b: b}
	numCols, err := r.u32()
	if err != nil {
		return nil, err
	}

	s := &Schema{Columns: make([]Column, numCols)}
	for i := range s.Columns {
		typ, n, err := datum.DecodeType(r.rest())
		if err != nil {
			return nil, fmt.Errorf("record: decode schema: column %d: %w", i, err)
		}
		r.advance(n)
		nameLen, err := r.u32()
		if err != nil {
			return nil, err
		}
		name, err := r.bytesN(int(nameLen))
		if err != nil {
			return nil, err
		}
		s.Columns[i] = Column{Name: string(name), Type: typ}
	}

	numPrimary, err := r.u16()
	if err != nil {
		return nil, err
	}
	s.PrimaryIdx = make([]int, numPrimary)
	for i := range s.PrimaryIdx {
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		s.PrimaryIdx[i] = int(v)
	}

	numUnique, err := r.u16()
	if err != nil {
		return nil, err
	}
	s.UniqueSets = make([][]int, numUnique)
	for i := range s.UniqueSets {
		setLen, err := r.u16()
		if err != nil {
			return nil, err
		}
		set := make([]int, setLen)
		for j := range set {
			v, err := r.u16()
			if err != nil {
				return nil, err
			}
			set[j] = int(v)
		}
		s.UniqueSets[i] = set
	}

	numFKs, err := r.u16()
	if err != nil {
		return nil, err
	}
	s.ForeignKeys = make([]ForeignKey, numFKs)
	for i := range s.ForeignKeys {
		refPage, err := r.u32()
		if err != nil {
			return nil, err
		}
		numLinks, err := r.u16()
		if err != nil {
			return nil, err
		}
		links := make([][2]int, numLinks)
		for j := range links {
			local, err := r.u16()
			if err != nil {
				return nil, err
			}
			ref, err := r.u16()
			if err != nil {
				return nil, err
			}
			links[j] = [2]int{int(local), int(ref)}
		}
		s.ForeignKeys[i] = ForeignKey{RefTablePageID: refPage, Links: links}
	}

	return s, nil
}

// reader is a small cursor over a byte slice shared by Schema decoding.
type reader struct {
	b   []byte
	pos int
}

func (r *reader) rest() []byte { return r.b[r.pos:] }
func (r *reader) advance(n int) { r.pos += n }

func (r *reader) bytesN(n int) ([]byte, error) {
	if r.pos+n > len(r.b) {
		return nil, fmt.Errorf("record: decode schema: truncated input")
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.bytesN(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytesN(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}
