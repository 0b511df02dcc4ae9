package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/storage"
)

func newTestPage(t *testing.T) *Page {
	t.Helper()
	buf := make([]byte, storage.PageSize)
	p := NewPage(buf)
	p.Reset()
	return p
}

// TestCatalogInsertIterate mirrors spec.md §8 scenario 3.
func TestCatalogInsertIterate(t *testing.T) {
	p := newTestPage(t)

	require.NoError(t, p.Insert(0, "a"))
	require.NoError(t, p.Insert(1, "bb"))
	require.NoError(t, p.Insert(2, "ccc"))

	entries, err := p.Entries()
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{PageID: 0, Name: "a"},
		{PageID: 1, Name: "bb"},
		{PageID: 2, Name: "ccc"},
	}, entries)

	require.NoError(t, p.Insert(3, "dddd"))
	entries, err = p.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Equal(t, Entry{PageID: 3, Name: "dddd"}, entries[3])
}

func TestCatalogLookup(t *testing.T) {
	p := newTestPage(t)
	require.NoError(t, p.Insert(5, "users"))
	require.NoError(t, p.Insert(9, "orders"))

	id, ok := p.Lookup("orders")
	require.True(t, ok)
	require.Equal(t, uint32(9), id)

	_, ok = p.Lookup("missing")
	require.False(t, ok)
}

func TestCatalogNamesNotUniquified(t *testing.T) {
	p := newTestPage(t)
	require.NoError(t, p.Insert(1, "dup"))
	require.NoError(t, p.Insert(2, "dup"))

	id, ok := p.Lookup("dup")
	require.True(t, ok)
	require.Equal(t, uint32(1), id, "lookup returns the first match")

	entries, err := p.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestCatalogOutOfRange(t *testing.T) {
	buf := make([]byte, 16) // tiny page: room for one short record only
	p := NewPage(buf)
	p.Reset()
	require.NoError(t, p.Insert(1, "ab"))
	err := p.Insert(2, "more-than-fits")
	require.ErrorIs(t, err, ErrOutOfRange)
}
