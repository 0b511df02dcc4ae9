package storage

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDiskManagerAllocateWriteRead mirrors the end-to-end scenario in
// spec.md §8.1: allocate three pages, write A, B, A^B into them, close,
// reopen, and verify page0 ^ page1 == page2.
func TestDiskManagerAllocateWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	dm, err := NewDiskManager(path)
	require.NoError(t, err)

	f1, f2, f3 := NewFrame(), NewFrame(), NewFrame()
	id1, err := dm.Allocate(f1)
	require.NoError(t, err)
	id2, err := dm.Allocate(f2)
	require.NoError(t, err)
	id3, err := dm.Allocate(f3)
	require.NoError(t, err)
	require.Equal(t, PageID(0), id1)
	require.Equal(t, PageID(1), id2)
	require.Equal(t, PageID(2), id3)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < PageSize; i++ {
		a := byte(rng.Intn(256))
		b := byte(rng.Intn(256))
		f1.Buf[i] = a
		f2.Buf[i] = b
		f3.Buf[i] = a ^ b
	}

	require.NoError(t, dm.Write(f1))
	require.NoError(t, dm.Write(f2))
	require.NoError(t, dm.Write(f3))
	require.NoError(t, dm.Close())

	dm2, err := NewDiskManager(path)
	require.NoError(t, err)
	defer dm2.Close()

	r1, r2, r3 := NewFrame(), NewFrame(), NewFrame()
	require.NoError(t, dm2.Read(id1, r1))
	require.NoError(t, dm2.Read(id2, r2))
	require.NoError(t, dm2.Read(id3, r3))

	for i := 0; i < PageSize; i++ {
		require.Equalf(t, r3.Buf[i], r1.Buf[i]^r2.Buf[i], "byte %d mismatch", i)
	}

	n, err := dm2.NumPages()
	require.NoError(t, err)
	require.Equal(t, uint32(3), n)
}

func TestDiskManagerReadBeyondEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	dm, err := NewDiskManager(path)
	require.NoError(t, err)
	defer dm.Close()

	f := NewFrame()
	err = dm.Read(0, f)
	require.Error(t, err)
}
