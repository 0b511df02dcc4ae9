package btree

import (
	"log/slog"

	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/storage"
)

// Insert descends to the target leaf and writes (k, rid) there, shifting
// higher keys to keep order; if the leaf is full it splits and
// propagates a separator key up to the parent, recursively splitting
// internal nodes and growing a new root if necessary (spec.md §4.7).
func (t *Tree) Insert(k Key, rid heap.RecordID) error {
	leafPageID, err := t.descendToLeaf(k)
	if err != nil {
		return err
	}

	frame, err := t.pool.Fetch(leafPageID)
	if err != nil {
		return err
	}
	node, err := decodeLeaf(frame.Buf, t.onPageKeyWidth)
	if err != nil {
		_ = t.pool.Unpin(leafPageID)
		return err
	}

	rawKey, err := t.rawKeyBytes(k)
	if err != nil {
		_ = t.pool.Unpin(leafPageID)
		return err
	}

	pos, dup, err := t.leafInsertPosition(node, k)
	if err != nil {
		_ = t.pool.Unpin(leafPageID)
		return err
	}
	if dup && t.unique {
		_ = t.pool.Unpin(leafPageID)
		return ErrDuplicateKey
	}

	node.Keys = insertAt(node.Keys, pos, rawKey)
	node.Rids = insertRidAt(node.Rids, pos, rid)

	if leafNodeSize(len(node.Keys), t.onPageKeyWidth) <= storage.PageSize {
		if err := node.encode(frame.Buf, t.onPageKeyWidth); err != nil {
			_ = t.pool.Unpin(leafPageID)
			return err
		}
		frame.Dirty = true
		return t.pool.Unpin(leafPageID)
	}

	_ = t.pool.Unpin(leafPageID)
	return t.splitLeaf(leafPageID, node)
}

// leafInsertPosition finds the index at which to insert k: the end of
// the contiguous run of entries equal to k if duplicates already exist
// (so the most recent insert sorts last within its run), otherwise the
// first position where order is preserved.
func (t *Tree) leafInsertPosition(node *leafNode, k Key) (int, bool, error) {
	dup := false
	i := 0
	for ; i < len(node.Keys); i++ {
		ek, err := t.materializeKey(node.Keys[i])
		if err != nil {
			return 0, false, err
		}
		c := compareKeys(ek, k)
		if c == 0 {
			dup = true
		}
		if c > 0 {
			break
		}
	}
	return i, dup, nil
}

func insertAt(s [][]byte, i int, v []byte) [][]byte {
	s = append(s, nil)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertRidAt(s []heap.RecordID, i int, v heap.RecordID) []heap.RecordID {
	s = append(s, heap.RecordID{})
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// descendToLeaf walks from the root to the leaf that should contain k.
func (t *Tree) descendToLeaf(k Key) (storage.PageID, error) {
	pageID, err := t.rootPageID()
	if err != nil {
		return 0, err
	}
	for {
		frame, err := t.pool.Fetch(pageID)
		if err != nil {
			return 0, err
		}
		leaf, err := isLeafPage(frame.Buf)
		if err != nil {
			_ = t.pool.Unpin(pageID)
			return 0, err
		}
		if leaf {
			_ = t.pool.Unpin(pageID)
			return pageID, nil
		}
		node, err := decodeInternal(frame.Buf, t.onPageKeyWidth)
		if err != nil {
			_ = t.pool.Unpin(pageID)
			return 0, err
		}
		idx, err := t.childIndex(node, k)
		_ = t.pool.Unpin(pageID)
		if err != nil {
			return 0, err
		}
		pageID = node.Children[idx]
	}
}

// splitLeaf splits an overfull leaf at leafPageID into two leaves and
// promotes a separator key to the parent. node carries the new, oversized
// contents in memory only; the page still holds the pre-insert contents
// until the left half is encoded over it.
func (t *Tree) splitLeaf(leafPageID storage.PageID, node *leafNode) error {
	n := len(node.Keys)
	mid := n / 2 // left keeps floor(n/2); on equal split, smaller-key side is left.

	rightFrame, err := t.pool.Alloc()
	if err != nil {
		return err
	}
	rightPageID, _ := rightFrame.PageID()

	right := &leafNode{
		ParentPageID: node.ParentPageID,
		Keys:         append([][]byte(nil), node.Keys[mid:]...),
		Rids:         append([]heap.RecordID(nil), node.Rids[mid:]...),
	}
	left := &leafNode{
		ParentPageID: node.ParentPageID,
		Keys:         append([][]byte(nil), node.Keys[:mid]...),
		Rids:         append([]heap.RecordID(nil), node.Rids[:mid]...),
	}

	leftFrame, err := t.pool.Fetch(leafPageID)
	if err != nil {
		_ = t.pool.Unpin(rightPageID)
		return err
	}
	if err := left.encode(leftFrame.Buf, t.onPageKeyWidth); err != nil {
		_ = t.pool.Unpin(leafPageID)
		_ = t.pool.Unpin(rightPageID)
		return err
	}
	leftFrame.Dirty = true
	if err := right.encode(rightFrame.Buf, t.onPageKeyWidth); err != nil {
		_ = t.pool.Unpin(leafPageID)
		_ = t.pool.Unpin(rightPageID)
		return err
	}
	rightFrame.Dirty = true

	sepKey := append([]byte(nil), right.Keys[0]...)
	_ = t.pool.Unpin(leafPageID)
	_ = t.pool.Unpin(rightPageID)

	slog.Debug("btree.splitLeaf", "leftPageID", leafPageID, "rightPageID", rightPageID, "leftCount", mid, "rightCount", n-mid)
	return t.insertIntoParent(node.ParentPageID, leafPageID, rightPageID, sepKey)
}

// insertIntoParent attaches a newly split right sibling to parentPageID,
// inserting sepKey as the separator after leftPageID. If parentPageID is
// InvalidPageID, leftPageID was the tree root: a new internal root is
// created above both.
func (t *Tree) insertIntoParent(parentPageID, leftPageID, rightPageID storage.PageID, sepKey []byte) error {
	if parentPageID == storage.InvalidPageID {
		rootFrame, err := t.pool.Alloc()
		if err != nil {
			return err
		}
		newRootID, _ := rootFrame.PageID()
		newRoot := &internalNode{
			ParentPageID: storage.InvalidPageID,
			Children:     []storage.PageID{leftPageID, rightPageID},
			Keys:         [][]byte{sepKey},
		}
		if err := newRoot.encode(rootFrame.Buf, t.onPageKeyWidth); err != nil {
			_ = t.pool.Unpin(newRootID)
			return err
		}
		rootFrame.Dirty = true
		if err := t.pool.Unpin(newRootID); err != nil {
			return err
		}

		if err := t.setParentPageID(leftPageID, newRootID); err != nil {
			return err
		}
		if err := t.setParentPageID(rightPageID, newRootID); err != nil {
			return err
		}
		return t.setRootPageID(newRootID)
	}

	frame, err := t.pool.Fetch(parentPageID)
	if err != nil {
		return err
	}
	node, err := decodeInternal(frame.Buf, t.onPageKeyWidth)
	if err != nil {
		_ = t.pool.Unpin(parentPageID)
		return err
	}

	leftIdx := -1
	for i, c := range node.Children {
		if c == leftPageID {
			leftIdx = i
			break
		}
	}
	if leftIdx < 0 {
		_ = t.pool.Unpin(parentPageID)
		return ErrNotInternalIndexNode
	}

	node.Children = insertChildAt(node.Children, leftIdx+1, rightPageID)
	node.Keys = insertAt(node.Keys, leftIdx, sepKey)

	if err := t.setParentPageID(rightPageID, parentPageID); err != nil {
		_ = t.pool.Unpin(parentPageID)
		return err
	}

	if internalNodeSize(len(node.Children), t.onPageKeyWidth) <= storage.PageSize {
		if err := node.encode(frame.Buf, t.onPageKeyWidth); err != nil {
			_ = t.pool.Unpin(parentPageID)
			return err
		}
		frame.Dirty = true
		return t.pool.Unpin(parentPageID)
	}

	_ = t.pool.Unpin(parentPageID)
	return t.splitInternal(parentPageID, node)
}

func insertChildAt(s []storage.PageID, i int, v storage.PageID) []storage.PageID {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// splitInternal splits an overfull internal node: the middle key is
// promoted to the grandparent without being duplicated into either
// half, per the classic B+Tree internal-split rule.
func (t *Tree) splitInternal(pageID storage.PageID, node *internalNode) error {
	n := len(node.Children)
	leftCount := n / 2 // left keeps floor(n/2) children.

	midKey := append([]byte(nil), node.Keys[leftCount-1]...)

	left := &internalNode{
		ParentPageID: node.ParentPageID,
		Children:     append([]storage.PageID(nil), node.Children[:leftCount]...),
		Keys:         append([][]byte(nil), node.Keys[:leftCount-1]...),
	}
	right := &internalNode{
		ParentPageID: node.ParentPageID,
		Children:     append([]storage.PageID(nil), node.Children[leftCount:]...),
		Keys:         append([][]byte(nil), node.Keys[leftCount:]...),
	}

	rightFrame, err := t.pool.Alloc()
	if err != nil {
		return err
	}
	rightPageID, _ := rightFrame.PageID()
	if err := right.encode(rightFrame.Buf, t.onPageKeyWidth); err != nil {
		_ = t.pool.Unpin(rightPageID)
		return err
	}
	rightFrame.Dirty = true
	if err := t.pool.Unpin(rightPageID); err != nil {
		return err
	}

	leftFrame, err := t.pool.Fetch(pageID)
	if err != nil {
		return err
	}
	if err := left.encode(leftFrame.Buf, t.onPageKeyWidth); err != nil {
		_ = t.pool.Unpin(pageID)
		return err
	}
	leftFrame.Dirty = true
	if err := t.pool.Unpin(pageID); err != nil {
		return err
	}

	for _, c := range right.Children {
		if err := t.setParentPageID(c, rightPageID); err != nil {
			return err
		}
	}

	slog.Debug("btree.splitInternal", "leftPageID", pageID, "rightPageID", rightPageID)
	return t.insertIntoParent(node.ParentPageID, pageID, rightPageID, midKey)
}

// setParentPageID patches only the parent_page_id field, common to both
// node kinds at byte offset 5 (spec.md §6).
func (t *Tree) setParentPageID(pageID, parentID storage.PageID) error {
	f, err := t.pool.Fetch(pageID)
	if err != nil {
		return err
	}
	le.PutUint32(f.Buf[5:9], parentID)
	f.Dirty = true
	return t.pool.Unpin(pageID)
}
