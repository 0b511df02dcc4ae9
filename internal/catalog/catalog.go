// Package catalog implements the append-only directory page (spec.md
// §4.8, §6): a sequence of `u32 len | u32 page_id | utf8 name[len]`
// records on one page, terminated by a zero-length record. The engine
// uses one of these as its table catalog (table name -> table meta page
// id), whose own page id is kept in the page-0 superblock; there is no
// database-name catalog.
package catalog

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by Insert when appending the record would
// write past the end of the page.
var ErrOutOfRange = errors.New("catalog: out of range")

var le = binary.LittleEndian

// Entry is one decoded catalog record.
type Entry struct {
	PageID uint32
	Name   string
}

// Page is an in-place view over one buffer-pool page's bytes,
// interpreted as a catalog record stream.
type Page struct {
	buf []byte
}

// NewPage wraps buf (one page's worth of bytes) as a catalog page.
func NewPage(buf []byte) *Page { return &Page{buf: buf} }

// Reset zeroes the page, leaving a single terminating zero-length
// record at offset 0.
func (p *Page) Reset() {
	for i := range p.buf {
		p.buf[i] = 0
	}
}

// Insert scans to the first zero-length record and writes
// (len, page_id, name) there. Fails ErrOutOfRange if the write (record
// plus the zero-length terminator that must still fit after it) would
// cross the page boundary.
func (p *Page) Insert(pageID uint32, name string) error {
	off, err := p.endOffset()
	if err != nil {
		return err
	}
	nameLen := len(name)
	recordLen := 4 + 4 + nameLen
	if off+recordLen+4 > len(p.buf) {
		return ErrOutOfRange
	}

	le.PutUint32(p.buf[off:], uint32(nameLen))
	le.PutUint32(p.buf[off+4:], pageID)
	copy(p.buf[off+8:off+8+nameLen], name)

	term := off + recordLen
	le.PutUint32(p.buf[term:], 0)
	return nil
}

// endOffset scans records until it finds the zero-length terminator and
// returns its offset (where the next record would be written).
func (p *Page) endOffset() (int, error) {
	off := 0
	for {
		if off+4 > len(p.buf) {
			return 0, fmt.Errorf("catalog: corrupt page: no terminator found")
		}
		n := le.Uint32(p.buf[off:])
		if n == 0 {
			return off, nil
		}
		recordLen := 4 + 4 + int(n)
		if off+recordLen > len(p.buf) {
			return 0, fmt.Errorf("catalog: corrupt page: record overruns page")
		}
		off += recordLen
	}
}

// Entries decodes every record up to the zero-length terminator.
func (p *Page) Entries() ([]Entry, error) {
	var out []Entry
	off := 0
	for {
		if off+4 > len(p.buf) {
			return nil, fmt.Errorf("catalog: corrupt page: no terminator found")
		}
		n := le.Uint32(p.buf[off:])
		if n == 0 {
			return out, nil
		}
		if off+8+int(n) > len(p.buf) {
			return nil, fmt.Errorf("catalog: corrupt page: record overruns page")
		}
		pageID := le.Uint32(p.buf[off+4:])
		name := string(p.buf[off+8 : off+8+int(n)])
		out = append(out, Entry{PageID: pageID, Name: name})
		off += 8 + int(n)
	}
}

// Lookup returns the page id for name (first match; names are not
// uniquified at this layer per spec.md §3) and whether it was found.
func (p *Page) Lookup(name string) (uint32, bool) {
	entries, err := p.Entries()
	if err != nil {
		return 0, false
	}
	for _, e := range entries {
		if e.Name == name {
			return e.PageID, true
		}
	}
	return 0, false
}
