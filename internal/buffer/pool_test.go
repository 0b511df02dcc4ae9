package buffer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/storage"
)

func newTestPool(t *testing.T, capacity int) *Pool {
	t.Helper()
	dm, err := storage.NewDiskManager(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })
	return NewPool(dm, capacity)
}

// TestPoolAllocExhaustionAndEviction mirrors spec.md §8 scenario 2: a
// 5-frame pool, alloc 5 pages pinned, a 6th alloc fails with
// ErrAllFramesPinned, then unpinning one frame lets alloc proceed and
// evicts it (writing back if dirty).
func TestPoolAllocExhaustionAndEviction(t *testing.T) {
	p := newTestPool(t, 5)

	ids := make([]storage.PageID, 5)
	frames := make([]*storage.Frame, 5)
	for i := range ids {
		f, err := p.Alloc()
		require.NoError(t, err)
		id, ok := f.PageID()
		require.True(t, ok)
		ids[i] = id
		frames[i] = f
	}

	_, err := p.Alloc()
	require.ErrorIs(t, err, ErrAllFramesPinned)

	// Mutate and mark page 2 dirty directly through its still-pinned
	// frame handle, then unpin it so it becomes eviction-eligible.
	frames[2].Buf[0] = 0xAB
	frames[2].Dirty = true
	require.NoError(t, p.Unpin(ids[2]))

	f6, err := p.Alloc()
	require.NoError(t, err)
	newID, _ := f6.PageID()
	require.NotContains(t, ids, newID)

	require.NoError(t, p.Unpin(newID))
	for _, id := range ids {
		if id == ids[2] {
			continue
		}
		require.NoError(t, p.Unpin(id))
	}

	// Page 2 should now be fetchable again with its dirty write-back
	// intact, proving eviction flushed it before reuse.
	f2Again, err := p.Fetch(ids[2])
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), f2Again.Buf[0])
	require.NoError(t, p.Unpin(ids[2]))
}

func TestPoolFetchPinUnpinRoundTrip(t *testing.T) {
	p := newTestPool(t, 2)

	f, err := p.Alloc()
	require.NoError(t, err)
	id, _ := f.PageID()
	copy(f.Buf, []byte("hello"))
	f.Dirty = true
	require.NoError(t, p.Unpin(id))

	f2, err := p.Fetch(id)
	require.NoError(t, err)
	require.Equal(t, "hello", string(f2.Buf[:5]))
	require.NoError(t, p.Unpin(id))
}

func TestPoolUnpinUnknownPageFails(t *testing.T) {
	p := newTestPool(t, 1)
	err := p.Unpin(42)
	require.Error(t, err)
}

func TestPoolUnpinUnderflowPanics(t *testing.T) {
	p := newTestPool(t, 1)
	f, err := p.Alloc()
	require.NoError(t, err)
	id, _ := f.PageID()
	require.NoError(t, p.Unpin(id))
	require.Panics(t, func() { _ = p.Unpin(id) })
}

func TestPoolFlushAllWritesDirtyFrames(t *testing.T) {
	p := newTestPool(t, 1)
	f, err := p.Alloc()
	require.NoError(t, err)
	id, _ := f.PageID()
	f.Buf[0] = 7
	f.Dirty = true
	require.NoError(t, p.Unpin(id))
	require.NoError(t, p.FlushAll())

	// Force eviction of the only frame by allocating another page; since
	// FlushAll already wrote it back, the prior content must still be
	// readable from disk.
	f2, err := p.Alloc()
	require.NoError(t, err)
	id2, _ := f2.PageID()
	require.NoError(t, p.Unpin(id2))

	reread, err := p.Fetch(id)
	require.NoError(t, err)
	require.Equal(t, byte(7), reread.Buf[0])
	require.NoError(t, p.Unpin(id))
}
