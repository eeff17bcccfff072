package page

import "github.com/kayodb/pagestore/types"

// LeafPage is the B+-tree leaf node view over a page's raw bytes: an
// ordered (key, RID) array of length GetSize(), plus a next-leaf pointer
// forming the sequence-set linked list across all leaves.
type LeafPage struct {
	header
}

// AsLeafPage views buf as a leaf page. Call Init before using any other
// method on a freshly allocated page.
func AsLeafPage(buf *[types.PageSize]byte) *LeafPage {
	return &LeafPage{header{buf: buf}}
}

// Init sets up a brand-new, empty leaf page with no right sibling.
func (p *LeafPage) Init(pageID, parentID types.PageID) {
	p.setPageType(LeafPageType)
	p.SetSize(0)
	p.setPageID(pageID)
	p.SetParentPageID(parentID)
	p.setMaxSize(LeafPageMaxSize)
	p.SetNextPageID(types.InvalidPageID)
}

func (p *LeafPage) slotOffset(i int) int { return leafHeaderSize + i*leafSlotSize }

// GetNextPageID returns this leaf's right sibling, or types.InvalidPageID
// if it is the rightmost leaf.
func (p *LeafPage) GetNextPageID() types.PageID {
	return types.PageID(int32(readU32(p.buf, offsetNextPageID)))
}

// SetNextPageID sets this leaf's right sibling.
func (p *LeafPage) SetNextPageID(id types.PageID) {
	writeU32(p.buf, offsetNextPageID, uint32(int32(id)))
}

// KeyAt returns the key stored at index i.
func (p *LeafPage) KeyAt(i int) types.Key {
	return types.Key(readI64(p.buf, p.slotOffset(i)))
}

func (p *LeafPage) setKeyAt(i int, k types.Key) {
	writeI64(p.buf, p.slotOffset(i), int64(k))
}

// GetItem returns the (key, rid) pair stored at index i.
func (p *LeafPage) GetItem(i int) (types.Key, types.RID) {
	off := p.slotOffset(i)
	key := types.Key(readI64(p.buf, off))
	rid := types.RID{
		PageID:  types.PageID(int32(readU32(p.buf, off+keySize))),
		SlotNum: readU32(p.buf, off+keySize+4),
	}
	return key, rid
}

func (p *LeafPage) setItemAt(i int, key types.Key, rid types.RID) {
	off := p.slotOffset(i)
	writeI64(p.buf, off, int64(key))
	writeU32(p.buf, off+keySize, uint32(int32(rid.PageID)))
	writeU32(p.buf, off+keySize+4, rid.SlotNum)
}

// KeyIndex returns the first index whose key is >= the given key (the
// insertion point under cmp's ordering), or GetSize() if key is greater
// than everything present.
func (p *LeafPage) KeyIndex(key types.Key, cmp types.Comparator) int {
	size := p.GetSize()
	for i := 0; i < size; i++ {
		if cmp(p.KeyAt(i), key) >= 0 {
			return i
		}
	}
	return size
}

// Lookup returns the RID stored under key, if present.
func (p *LeafPage) Lookup(key types.Key, cmp types.Comparator) (types.RID, bool) {
	idx := p.KeyIndex(key, cmp)
	if idx >= p.GetSize() {
		return types.RID{}, false
	}
	if k := p.KeyAt(idx); cmp(k, key) != 0 {
		return types.RID{}, false
	}
	_, rid := p.GetItem(idx)
	return rid, true
}

// Insert places (key, value) in sorted order and returns the new size.
// Equal keys coexist: a new entry lands at the insertion point ahead of
// existing equals, deterministically. Callers must check the returned
// size against GetMaxSize() to decide whether a split is required.
func (p *LeafPage) Insert(key types.Key, value types.RID, cmp types.Comparator) int {
	idx := p.KeyIndex(key, cmp)
	size := p.GetSize()
	for i := size; i > idx; i-- {
		k, v := p.GetItem(i - 1)
		p.setItemAt(i, k, v)
	}
	p.setItemAt(idx, key, value)
	p.IncreaseSize(1)
	return p.GetSize()
}

// RemoveAndDeleteRecord deletes key if present and returns the new size.
func (p *LeafPage) RemoveAndDeleteRecord(key types.Key, cmp types.Comparator) int {
	idx := p.KeyIndex(key, cmp)
	size := p.GetSize()
	if idx >= size || cmp(p.KeyAt(idx), key) != 0 {
		return size
	}
	for i := idx; i < size-1; i++ {
		k, v := p.GetItem(i + 1)
		p.setItemAt(i, k, v)
	}
	p.IncreaseSize(-1)
	return p.GetSize()
}

// MoveHalfTo splits this overflowing leaf, copying the rightmost half of
// its entries into recipient (a freshly initialised leaf). Recipient
// inherits this leaf's next pointer; the caller is responsible for then
// pointing this leaf's next at the recipient.
func (p *LeafPage) MoveHalfTo(recipient *LeafPage, _ BufferPool) {
	size := p.GetSize()
	split := size / 2
	start := size - split

	for i := 0; i < split; i++ {
		k, v := p.GetItem(start + i)
		recipient.setItemAt(i, k, v)
	}
	recipient.IncreaseSize(split)
	p.IncreaseSize(-split)

	recipient.SetNextPageID(p.GetNextPageID())
}

// MoveAllTo appends this leaf's entries onto the end of recipient during a
// merge, and splices recipient into the sequence set in this leaf's place.
func (p *LeafPage) MoveAllTo(recipient *LeafPage, _ int, _ BufferPool) {
	start := recipient.GetSize()
	size := p.GetSize()
	for i := 0; i < size; i++ {
		k, v := p.GetItem(i)
		recipient.setItemAt(start+i, k, v)
	}
	recipient.IncreaseSize(size)
	recipient.SetNextPageID(p.GetNextPageID())
	p.SetSize(0)
}

// MoveFirstToEndOf hands this leaf's first entry to the end of recipient,
// used during right-redistribution, then rewrites the parent's separator
// for this page to its new first key.
func (p *LeafPage) MoveFirstToEndOf(recipient *LeafPage, bpm BufferPool) {
	key, val := p.GetItem(0)
	for i := 0; i < p.GetSize()-1; i++ {
		k, v := p.GetItem(i + 1)
		p.setItemAt(i, k, v)
	}
	p.IncreaseSize(-1)
	recipient.setItemAt(recipient.GetSize(), key, val)
	recipient.IncreaseSize(1)

	parentPage := bpm.FetchPage(p.GetParentPageID())
	if parentPage == nil {
		panic("MoveFirstToEndOf: parent page unavailable")
	}
	parent := AsInternalPage(parentPage.Data())
	idx := parent.ValueIndex(p.GetPageID())
	parent.SetKeyAt(idx, p.KeyAt(0))
	bpm.UnpinPage(p.GetParentPageID(), true)
}

// MoveLastToFrontOf hands this leaf's last entry to the front of
// recipient, used during left-redistribution. parentIndex identifies
// recipient's position in the shared parent, whose separator key must be
// updated to the entry being moved.
func (p *LeafPage) MoveLastToFrontOf(recipient *LeafPage, parentIndex int, bpm BufferPool) {
	key, val := p.GetItem(p.GetSize() - 1)
	p.IncreaseSize(-1)

	for i := recipient.GetSize(); i > 0; i-- {
		k, v := recipient.GetItem(i - 1)
		recipient.setItemAt(i, k, v)
	}
	recipient.setItemAt(0, key, val)
	recipient.IncreaseSize(1)

	parentPage := bpm.FetchPage(recipient.GetParentPageID())
	if parentPage == nil {
		panic("MoveLastToFrontOf: parent page unavailable")
	}
	parent := AsInternalPage(parentPage.Data())
	parent.SetKeyAt(parentIndex, key)
	bpm.UnpinPage(recipient.GetParentPageID(), true)
}
