package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// DiskManager is a thin wrapper over a single host file whose length is
// always a multiple of PageSize. It is the only layer in novadb that
// issues file I/O directly; every layer above it borrows pages through
// the buffer pool instead (spec.md §2).
type DiskManager struct {
	mu   sync.Mutex
	file *os.File
}

// NewDiskManager opens (creating if necessary) the page file at path.
func NewDiskManager(path string) (*DiskManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o664)
	if err != nil {
		return nil, fmt.Errorf("storage: open page file %q: %w: %v", path, ErrIoError, err)
	}
	return &DiskManager{file: f}, nil
}

// Read seeks to page_id * PageSize and fills frame.Buf with exactly
// PageSize bytes. On success the frame's dirty flag is cleared and its
// page id is set to page_id.
func (d *DiskManager) Read(pageID PageID, frame *Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(pageID) * PageSize
	if _, err := io.ReadFull(io.NewSectionReader(d.file, offset, PageSize), frame.Buf); err != nil {
		return fmt.Errorf("storage: read page %d: %w: %v", pageID, ErrIoError, err)
	}
	frame.Dirty = false
	frame.SetPageID(pageID)
	slog.Debug("storage.DiskManager.Read", "pageID", pageID)
	return nil
}

// Write seeks to frame's page_id * PageSize and writes exactly PageSize
// bytes. The dirty flag is the caller's concern; Write does not clear it.
func (d *DiskManager) Write(frame *Frame) error {
	pageID, ok := frame.PageID()
	if !ok {
		return fmt.Errorf("storage: write: frame holds no page id")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(pageID) * PageSize
	n, err := d.file.WriteAt(frame.Buf, offset)
	if err != nil {
		return fmt.Errorf("storage: write page %d: %w: %v", pageID, ErrIoError, err)
	}
	if n != PageSize {
		return fmt.Errorf("storage: write page %d: %w: short write (%d bytes)", pageID, ErrIoError, n)
	}
	slog.Debug("storage.DiskManager.Write", "pageID", pageID)
	return nil
}

// Allocate extends the page file by one PageSize, assigns the new page id
// to frame, and reads the freshly-extended region back into frame.Buf so
// that a round trip through the OS page cache is always verified (the
// same discipline as original_source/src/storage/disk.rs::allocate).
func (d *DiskManager) Allocate(frame *Frame) (PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, err := d.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("storage: allocate: stat: %w: %v", ErrIoError, err)
	}
	length := info.Size()
	if length%PageSize != 0 {
		panic(fmt.Sprintf("storage: page file length %d is not a multiple of %d", length, PageSize))
	}

	newLen := length + PageSize
	if err := d.file.Truncate(newLen); err != nil {
		return 0, fmt.Errorf("storage: allocate: truncate: %w: %v", ErrIoError, err)
	}

	pageID := PageID(length / PageSize)

	if _, err := io.ReadFull(io.NewSectionReader(d.file, length, PageSize), frame.Buf); err != nil {
		return 0, fmt.Errorf("storage: allocate: read back page %d: %w: %v", pageID, ErrIoError, err)
	}
	frame.Dirty = false
	frame.SetPageID(pageID)

	slog.Debug("storage.DiskManager.Allocate", "pageID", pageID)
	return pageID, nil
}

// NumPages returns file_len / PageSize, panicking if the length is not a
// multiple of PageSize (an invariant violation, not a recoverable error).
func (d *DiskManager) NumPages() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, err := d.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("storage: num_pages: stat: %w: %v", ErrIoError, err)
	}
	length := info.Size()
	if length%PageSize != 0 {
		panic(fmt.Sprintf("storage: page file length %d is not a multiple of %d", length, PageSize))
	}
	return uint32(length / PageSize), nil
}

// Close closes the underlying file handle. It does not flush any
// in-memory state; callers are expected to flush the buffer pool first.
func (d *DiskManager) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.file.Close(); err != nil {
		return fmt.Errorf("storage: close: %w: %v", ErrIoError, err)
	}
	return nil
}
