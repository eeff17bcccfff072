package page

import "github.com/kayodb/pagestore/types"

// InternalPage is the B+-tree internal node view over a page's raw bytes:
// an ordered (key, child_page_id) array of length GetSize(). The key at
// index 0 is a sentinel — only array[1:size) carry meaningful keys — so
// that ValueAt(0) answers "everything less than array[1].key".
//
// No method here locks anything: the caller holds this page pinned, and
// for operations that touch siblings or the parent, is responsible for
// pinning those under the same discipline.
type InternalPage struct {
	header
}

// AsInternalPage views buf as an internal page. Call Init on a freshly
// allocated page before using any other method.
func AsInternalPage(buf *[types.PageSize]byte) *InternalPage {
	return &InternalPage{header{buf: buf}}
}

// Init sets up a brand-new internal page: size 1 (the invalid sentinel
// key), max size derived from the page's fixed layout.
func (p *InternalPage) Init(pageID, parentID types.PageID) {
	p.setPageType(InternalPageType)
	p.SetSize(1)
	p.setPageID(pageID)
	p.SetParentPageID(parentID)
	p.setMaxSize(InternalPageMaxSize)
}

func (p *InternalPage) slotOffset(i int) int { return commonHeaderSize + i*internalSlotSize }

// KeyAt returns the key stored at index i. i == 0 is the sentinel and
// carries no meaningful value.
func (p *InternalPage) KeyAt(i int) types.Key {
	return types.Key(readI64(p.buf, p.slotOffset(i)))
}

// SetKeyAt overwrites the key at index i.
func (p *InternalPage) SetKeyAt(i int, k types.Key) {
	writeI64(p.buf, p.slotOffset(i), int64(k))
}

// ValueAt returns the child page id stored at index i.
func (p *InternalPage) ValueAt(i int) types.PageID {
	return types.PageID(int32(readU32(p.buf, p.slotOffset(i)+keySize)))
}

// SetValueAt overwrites the child page id at index i.
func (p *InternalPage) SetValueAt(i int, v types.PageID) {
	writeU32(p.buf, p.slotOffset(i)+keySize, uint32(int32(v)))
}

// ValueIndex returns the first index holding child id v, or -1.
func (p *InternalPage) ValueIndex(v types.PageID) int {
	for i := 0; i < p.GetSize(); i++ {
		if p.ValueAt(i) == v {
			return i
		}
	}
	return -1
}

// Lookup returns the child page id that should be followed for key,
// scanning from index 1: the answer is the rightmost index b such that
// array[b].key <= key, defaulting to 0 (the sentinel, "less than
// everything").
func (p *InternalPage) Lookup(key types.Key, cmp types.Comparator) types.PageID {
	found := 0
	size := p.GetSize()
	for b := 1; b < size; b++ {
		if cmp(p.KeyAt(b), key) <= 0 {
			found = b
		}
	}
	return p.ValueAt(found)
}

// PopulateNewRoot turns a freshly initialised (size == 1) root page into a
// two-entry root: oldChild at the sentinel slot 0, (newKey, newChild) at
// slot 1.
func (p *InternalPage) PopulateNewRoot(oldChild types.PageID, newKey types.Key, newChild types.PageID) {
	p.SetValueAt(0, oldChild)
	p.SetKeyAt(1, newKey)
	p.SetValueAt(1, newChild)
	p.IncreaseSize(1)
}

// InsertNodeAfter inserts (newKey, newChild) immediately after the entry
// whose value is oldChild, shifting later entries right, and returns the
// new size.
func (p *InternalPage) InsertNodeAfter(oldChild types.PageID, newKey types.Key, newChild types.PageID) int {
	idx := p.ValueIndex(oldChild)
	if idx == -1 {
		panic("InsertNodeAfter: old child not found in this page")
	}
	for i := p.GetSize(); i > idx+1; i-- {
		p.SetKeyAt(i, p.KeyAt(i-1))
		p.SetValueAt(i, p.ValueAt(i-1))
	}
	p.SetKeyAt(idx+1, newKey)
	p.SetValueAt(idx+1, newChild)
	p.IncreaseSize(1)
	return p.GetSize()
}

// MoveHalfTo splits this overflowing page, copying the rightmost half of
// its entries into recipient (a freshly initialised page) and re-parenting
// every child that moved. split = (size+1)/2, so the recipient's new
// index-0 entry donates its value as the page's sentinel and its key as
// the separator the caller must push up to the parent — extract
// recipient.KeyAt(0) before calling anything that would overwrite it.
func (p *InternalPage) MoveHalfTo(recipient *InternalPage, bpm BufferPool) {
	size := p.GetSize()
	split := (size + 1) / 2
	start := size - split

	for i := 0; i < split; i++ {
		recipient.SetKeyAt(i, p.KeyAt(start+i))
		recipient.SetValueAt(i, p.ValueAt(start+i))
	}
	// The donated entry's key becomes the separator pushed up to the
	// parent, so size grows by split-1, not split.
	recipient.IncreaseSize(split - 1)

	for i := 0; i < split; i++ {
		child := bpm.FetchPage(recipient.ValueAt(i))
		if child == nil {
			panic("MoveHalfTo: child page unavailable while re-parenting")
		}
		header{buf: child.Data()}.SetParentPageID(recipient.GetPageID())
		bpm.UnpinPage(child.ID(), true)
	}
	p.IncreaseSize(-split)
}

// Remove deletes the entry at index i, shifting later entries left.
func (p *InternalPage) Remove(i int) {
	size := p.GetSize()
	for j := i; j < size-1; j++ {
		p.SetKeyAt(j, p.KeyAt(j+1))
		p.SetValueAt(j, p.ValueAt(j+1))
	}
	p.IncreaseSize(-1)
}

// RemoveAndReturnOnlyChild drops this page's last entry during a root
// collapse and returns the sentinel's child id. The page must hold two
// entries on entry, so that size becomes 1 (just the sentinel) afterwards;
// any other size panics.
func (p *InternalPage) RemoveAndReturnOnlyChild() types.PageID {
	p.IncreaseSize(-1)
	if p.GetSize() != 1 {
		panic("RemoveAndReturnOnlyChild: size invariant violated")
	}
	return p.ValueAt(0)
}

// MoveAllTo merges this page's entries onto the end of recipient during a
// merge. indexInParent is this page's position in the shared parent, used
// to recover the separator key that becomes this page's sentinel before
// the append.
func (p *InternalPage) MoveAllTo(recipient *InternalPage, indexInParent int, bpm BufferPool) {
	parentPage := bpm.FetchPage(p.GetParentPageID())
	if parentPage == nil {
		panic("MoveAllTo: parent page unavailable")
	}
	parent := AsInternalPage(parentPage.Data())
	p.SetKeyAt(0, parent.KeyAt(indexInParent))
	bpm.UnpinPage(p.GetParentPageID(), true)

	start := recipient.GetSize()
	size := p.GetSize()
	for i := 0; i < size; i++ {
		recipient.SetKeyAt(start+i, p.KeyAt(i))
		recipient.SetValueAt(start+i, p.ValueAt(i))
	}
	recipient.IncreaseSize(size)

	for i := 0; i < size; i++ {
		child := bpm.FetchPage(p.ValueAt(i))
		if child == nil {
			panic("MoveAllTo: child page unavailable while re-parenting")
		}
		header{buf: child.Data()}.SetParentPageID(recipient.GetPageID())
		bpm.UnpinPage(child.ID(), true)
	}
	p.SetSize(0)
}

// MoveFirstToEndOf hands this page's first meaningful entry to the end of
// recipient, used during right-redistribution. The displaced value
// becomes recipient's new last child.
func (p *InternalPage) MoveFirstToEndOf(recipient *InternalPage, bpm BufferPool) {
	pairKey := p.KeyAt(1)
	pairVal := p.ValueAt(0)
	p.SetValueAt(0, p.ValueAt(1))
	p.Remove(1)
	recipient.CopyLastFrom(pairKey, pairVal, bpm)

	child := bpm.FetchPage(recipient.ValueAt(recipient.GetSize() - 1))
	if child == nil {
		panic("MoveFirstToEndOf: child page unavailable while re-parenting")
	}
	header{buf: child.Data()}.SetParentPageID(recipient.GetPageID())
	bpm.UnpinPage(child.ID(), true)
}

// CopyLastFrom appends (key, childValue) to this page, pulling the
// separator key from the parent's slot just past this page's position and
// pushing pairKey up into that slot in exchange.
func (p *InternalPage) CopyLastFrom(pairKey types.Key, childValue types.PageID, bpm BufferPool) {
	parentPage := bpm.FetchPage(p.GetParentPageID())
	if parentPage == nil {
		panic("CopyLastFrom: parent page unavailable")
	}
	parent := AsInternalPage(parentPage.Data())
	idx := parent.ValueIndex(p.GetPageID())
	key := parent.KeyAt(idx + 1)

	p.SetKeyAt(p.GetSize(), key)
	p.SetValueAt(p.GetSize(), childValue)
	p.IncreaseSize(1)

	parent.SetKeyAt(idx+1, pairKey)
	bpm.UnpinPage(p.GetParentPageID(), true)
}

// MoveLastToFrontOf hands this page's last entry to the front of
// recipient, used during left-redistribution.
func (p *InternalPage) MoveLastToFrontOf(recipient *InternalPage, parentIndex int, bpm BufferPool) {
	lastKey := p.KeyAt(p.GetSize() - 1)
	lastVal := p.ValueAt(p.GetSize() - 1)
	recipient.CopyFirstFrom(lastKey, lastVal, parentIndex, bpm)

	child := bpm.FetchPage(lastVal)
	if child == nil {
		panic("MoveLastToFrontOf: child page unavailable while re-parenting")
	}
	header{buf: child.Data()}.SetParentPageID(recipient.GetPageID())
	bpm.UnpinPage(child.ID(), true)
	p.Remove(p.GetSize() - 1)
}

// CopyFirstFrom prepends (key, childValue) to this page's front, pulling
// the separator from the parent at parentIndex and pushing the incoming
// key up into that slot in exchange.
func (p *InternalPage) CopyFirstFrom(key types.Key, childValue types.PageID, parentIndex int, bpm BufferPool) {
	parentPage := bpm.FetchPage(p.GetParentPageID())
	if parentPage == nil {
		panic("CopyFirstFrom: parent page unavailable")
	}
	parent := AsInternalPage(parentPage.Data())
	separator := parent.KeyAt(parentIndex)
	parent.SetKeyAt(parentIndex, key)

	for i := p.GetSize(); i > 0; i-- {
		p.SetKeyAt(i, p.KeyAt(i-1))
		p.SetValueAt(i, p.ValueAt(i-1))
	}
	p.SetKeyAt(1, separator)
	p.SetValueAt(0, childValue)
	p.IncreaseSize(1)
	bpm.UnpinPage(p.GetParentPageID(), true)
}

// PushUpIndex moves array[1] into the slot-0 child and removes index 1,
// returning the displaced (key, value) pair. Used when the root collapses
// and its last separator must move up to become the new root's content.
func (p *InternalPage) PushUpIndex() (types.Key, types.PageID) {
	key, val := p.KeyAt(1), p.ValueAt(1)
	p.SetValueAt(0, val)
	p.Remove(1)
	return key, val
}
