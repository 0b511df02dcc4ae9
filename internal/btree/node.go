package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/storage"
)

var le = binary.LittleEndian

// internalNode is the decoded form of an internal index page (spec.md
// §3, §6): is_leaf=0 | num_child | parent_page_id | (child,key)* |
// child_last. For n children there are n-1 keys; Keys[i] is the lower
// bound of the subtree under Children[i+1]. Every child id is a real page
// id; 0 is not used as a "none" marker, since page 0 can itself be a node.
type internalNode struct {
	ParentPageID storage.PageID
	Children     []storage.PageID
	Keys         [][]byte // raw on-page key bytes, width onPageKeyWidth
}

// leafNode is the decoded form of a leaf index page: is_leaf=1 |
// num_record | parent_page_id | (key,rid)*, keys in non-decreasing order
// (a non-unique index keeps equal keys side by side).
type leafNode struct {
	ParentPageID storage.PageID
	Keys         [][]byte
	Rids         []heap.RecordID
}

func decodeInternal(buf []byte, onPageKeyWidth int) (*internalNode, error) {
	if buf[0] != 0 {
		return nil, ErrNotInternalIndexNode
	}
	numChild := int(le.Uint32(buf[1:5]))
	parent := le.Uint32(buf[5:9])
	off := 9

	n := &internalNode{ParentPageID: parent}
	n.Children = make([]storage.PageID, numChild)
	n.Keys = make([][]byte, 0, numChild-1)
	for i := 0; i < numChild-1; i++ {
		n.Children[i] = le.Uint32(buf[off:])
		off += 4
		key := append([]byte(nil), buf[off:off+onPageKeyWidth]...)
		n.Keys = append(n.Keys, key)
		off += onPageKeyWidth
	}
	if numChild > 0 {
		n.Children[numChild-1] = le.Uint32(buf[off:])
	}
	return n, nil
}

func (n *internalNode) encode(buf []byte, onPageKeyWidth int) error {
	need := 9 + (len(n.Children)-1+1)*4 + len(n.Keys)*onPageKeyWidth
	if need > len(buf) {
		return fmt.Errorf("btree: encode internal node: needs %d bytes, page has %d", need, len(buf))
	}
	buf[0] = 0
	le.PutUint32(buf[1:5], uint32(len(n.Children)))
	le.PutUint32(buf[5:9], n.ParentPageID)
	off := 9
	for i, key := range n.Keys {
		le.PutUint32(buf[off:], n.Children[i])
		off += 4
		copy(buf[off:off+onPageKeyWidth], key)
		off += onPageKeyWidth
	}
	if len(n.Children) > 0 {
		le.PutUint32(buf[off:], n.Children[len(n.Children)-1])
	}
	return nil
}

func decodeLeaf(buf []byte, onPageKeyWidth int) (*leafNode, error) {
	if buf[0] != 1 {
		return nil, ErrNotLeafIndexNode
	}
	numRecord := int(le.Uint32(buf[1:5]))
	parent := le.Uint32(buf[5:9])
	off := 9

	n := &leafNode{ParentPageID: parent}
	n.Keys = make([][]byte, numRecord)
	n.Rids = make([]heap.RecordID, numRecord)
	for i := 0; i < numRecord; i++ {
		key := append([]byte(nil), buf[off:off+onPageKeyWidth]...)
		off += onPageKeyWidth
		pageID := le.Uint32(buf[off:])
		off += 4
		slot := le.Uint32(buf[off:])
		off += 4
		n.Keys[i] = key
		n.Rids[i] = heap.RecordID{PageID: pageID, Slot: int(slot)}
	}
	return n, nil
}

func (n *leafNode) encode(buf []byte, onPageKeyWidth int) error {
	need := 9 + len(n.Keys)*(onPageKeyWidth+8)
	if need > len(buf) {
		return fmt.Errorf("btree: encode leaf node: needs %d bytes, page has %d", need, len(buf))
	}
	buf[0] = 1
	le.PutUint32(buf[1:5], uint32(len(n.Keys)))
	le.PutUint32(buf[5:9], n.ParentPageID)
	off := 9
	for i, key := range n.Keys {
		copy(buf[off:off+onPageKeyWidth], key)
		off += onPageKeyWidth
		le.PutUint32(buf[off:], n.Rids[i].PageID)
		off += 4
		le.PutUint32(buf[off:], uint32(n.Rids[i].Slot))
		off += 4
	}
	return nil
}

// internalNodeSize returns the byte width an internal node with
// numChildren children would need.
func internalNodeSize(numChildren, onPageKeyWidth int) int {
	if numChildren == 0 {
		return 9
	}
	return 9 + numChildren*4 + (numChildren-1)*onPageKeyWidth
}

// leafNodeSize returns the byte width a leaf node with numRecords
// entries would need.
func leafNodeSize(numRecords, onPageKeyWidth int) int {
	return 9 + numRecords*(onPageKeyWidth+8)
}

func isLeafPage(buf []byte) (bool, error) {
	switch buf[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("btree: page byte 0 is neither is_leaf=0 nor is_leaf=1: %d", buf[0])
	}
}
