// Package buffer implements the buffer pool manager: a fixed-size pool of
// frames backed by a Clock replacer, sitting directly on top of
// internal/storage's disk manager (spec.md §4.3-4.4).
package buffer

import "errors"

// ErrAllFramesPinned is returned by Victim when every tracked frame is
// currently pinned, i.e. there is no candidate for eviction.
var ErrAllFramesPinned = errors.New("buffer: all frames pinned")

// ClockReplacer implements the second-chance (CLOCK) eviction policy over
// a fixed number of frame slots, grounded on pkg/clockx.Clock and
// internal/bufferpool/pool.go's pickVictimLocked sweep, adapted to the
// explicit pin/unpin/victim contract spec.md §4.3 describes (as opposed
// to the teacher's RecordAccess/SetEvictable split).
type ClockReplacer struct {
	ref     []bool
	pinned  []bool
	hand    int
	unpined int // count of frames with pinned == false
}

// NewClockReplacer creates a replacer tracking `size` frame slots, all
// initially pinned (matching a freshly constructed buffer pool where
// every frame starts empty and not yet eligible for eviction).
func NewClockReplacer(size int) *ClockReplacer {
	pinned := make([]bool, size)
	for i := range pinned {
		pinned[i] = true
	}
	return &ClockReplacer{
		ref:    make([]bool, size),
		pinned: pinned,
	}
}

// Pin marks frame i as pinned. Pinning an already-pinned frame is a no-op
// on the unpinned count (idempotent); only the pinned->pinned transition
// from unpinned decrements the count.
func (c *ClockReplacer) Pin(i int) {
	if !c.pinned[i] {
		c.pinned[i] = true
		c.unpined--
	}
}

// Unpin marks frame i as unpinned and gives it a second chance (sets its
// reference bit). Unpinning an already-unpinned frame panics: it is a
// pin-count bookkeeping bug in the caller.
func (c *ClockReplacer) Unpin(i int) {
	if !c.pinned[i] {
		panic("buffer: Unpin called on a frame that is not pinned")
	}
	c.pinned[i] = false
	c.ref[i] = true
	c.unpined++
}

// Victim selects a frame to evict under the second-chance policy: sweep
// the hand forward, skipping pinned frames; a frame with its reference
// bit set is given one more chance (bit cleared, hand advances); the
// first unpinned frame with a clear reference bit is the victim.
//
// Bounded to at most 2*len(frames) advances (spec.md §8's "bounded
// time" testable property), after which ErrAllFramesPinned is returned
// even though unpined > 0 would theoretically be impossible to reach that
// bound without finding a victim — the bound is a defensive backstop.
func (c *ClockReplacer) Victim() (int, error) {
	n := len(c.pinned)
	if n == 0 || c.unpined == 0 {
		return 0, ErrAllFramesPinned
	}

	for range 2 * n {
		i := c.hand
		c.hand = (c.hand + 1) % n

		if c.pinned[i] {
			continue
		}
		if c.ref[i] {
			c.ref[i] = false
			continue
		}

		c.pinned[i] = true
		c.unpined--
		return i, nil
	}
	return 0, ErrAllFramesPinned
}

// Size returns the number of tracked slots.
func (c *ClockReplacer) Size() int { return len(c.pinned) }
