package buffer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tuannm99/novadb/internal/storage"
)

// Pool is a fixed-size buffer pool manager sitting on top of a disk
// manager, replacing pages under the Clock policy (spec.md §4.4).
// Grounded on internal/bufferpool/pool.go's Pool, with fetch/alloc/unpin
// split into the explicit contract spec.md names instead of a single
// GetPage that hides allocation.
type Pool struct {
	mu sync.Mutex

	disk     *storage.DiskManager
	replacer *ClockReplacer

	frames    []*storage.Frame
	pageTable map[storage.PageID]int
}

// NewPool creates a buffer pool of the given capacity (number of frames)
// over the given disk manager.
func NewPool(disk *storage.DiskManager, capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	frames := make([]*storage.Frame, capacity)
	replacer := NewClockReplacer(capacity)
	for i := range frames {
		frames[i] = storage.NewFrame()
		// An empty frame holds no page and may be handed out by victim().
		replacer.Unpin(i)
	}
	return &Pool{
		disk:      disk,
		replacer:  replacer,
		frames:    frames,
		pageTable: make(map[storage.PageID]int),
	}
}

// Capacity returns the number of frames in the pool.
func (p *Pool) Capacity() int { return len(p.frames) }

// Fetch returns the frame holding page_id, pinning it. If the page is
// not resident, a victim frame is chosen (flushing it first if dirty)
// and the page is read from disk into it.
func (p *Pool) Fetch(pageID storage.PageID) (*storage.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx, ok := p.pageTable[pageID]; ok {
		f := p.frames[idx]
		if f.PinCount == 0 {
			p.replacer.Pin(idx)
		}
		f.PinCount++
		slog.Debug("buffer.Pool.Fetch.hit", "pageID", pageID, "frame", idx, "pin", f.PinCount)
		return f, nil
	}

	idx, err := p.victim()
	if err != nil {
		return nil, err
	}
	f := p.frames[idx]

	if err := p.disk.Read(pageID, f); err != nil {
		return nil, err
	}
	f.PinCount = 1
	p.pageTable[pageID] = idx
	slog.Debug("buffer.Pool.Fetch.miss", "pageID", pageID, "frame", idx)
	return f, nil
}

// Alloc asks the disk manager for a brand-new page, installs it into a
// victim frame, and returns it pinned with pin count 1. The returned
// frame's buffer is zeroed and marked not dirty.
func (p *Pool) Alloc() (*storage.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.victim()
	if err != nil {
		return nil, err
	}
	f := p.frames[idx]

	pageID, err := p.disk.Allocate(f)
	if err != nil {
		return nil, err
	}
	f.PinCount = 1
	f.Dirty = false
	p.pageTable[pageID] = idx
	slog.Debug("buffer.Pool.Alloc", "pageID", pageID, "frame", idx)
	return f, nil
}

// victim picks a frame to reuse for a new mapping: it asks the replacer
// for a candidate, flushes it if dirty, and removes its old page-table
// entry. The caller must hold p.mu.
func (p *Pool) victim() (int, error) {
	idx, err := p.replacer.Victim()
	if err != nil {
		return 0, fmt.Errorf("buffer: fetch: %w", err)
	}
	f := p.frames[idx]

	if oldID, ok := f.PageID(); ok {
		if f.Dirty {
			if err := p.disk.Write(f); err != nil {
				// Put the frame back up for eviction so a later retry can
				// still make progress.
				p.replacer.Unpin(idx)
				return 0, err
			}
			f.Dirty = false
		}
		delete(p.pageTable, oldID)
	}
	f.Clear()
	return idx, nil
}

// Unpin decrements the pin count for page_id. When the count reaches
// zero the frame becomes eligible for eviction. The pool never sets the
// dirty bit itself: a caller that mutated the frame's buffer must set
// its Dirty field directly before calling Unpin.
func (p *Pool) Unpin(pageID storage.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		return fmt.Errorf("buffer: unpin: page %d is not resident", pageID)
	}
	f := p.frames[idx]
	if f.PinCount <= 0 {
		panic(fmt.Sprintf("buffer: unpin: page %d pin count underflow", pageID))
	}
	f.PinCount--
	if f.PinCount == 0 {
		p.replacer.Unpin(idx)
	}
	slog.Debug("buffer.Pool.Unpin", "pageID", pageID, "pin", f.PinCount, "dirty", f.Dirty)
	return nil
}

// FlushAll writes every resident dirty frame back to disk. Used on
// shutdown (spec.md §4.4).
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for pageID, idx := range p.pageTable {
		f := p.frames[idx]
		if !f.Dirty {
			continue
		}
		if err := p.disk.Write(f); err != nil {
			return err
		}
		f.Dirty = false
		slog.Debug("buffer.Pool.FlushAll.wrote", "pageID", pageID)
	}
	return nil
}
