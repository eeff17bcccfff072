package page

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kayodb/pagestore/types"
)

// fakeBufferPool is a minimal BufferPool backed by a plain map, enough to
// exercise re-parenting during split/merge/redistribute without a real
// buffer pool manager.
type fakeBufferPool struct {
	pages map[types.PageID]*Page
}

func newFakeBufferPool() *fakeBufferPool {
	return &fakeBufferPool{pages: make(map[types.PageID]*Page)}
}

func (f *fakeBufferPool) put(id types.PageID, p *Page) { f.pages[id] = p }

func (f *fakeBufferPool) FetchPage(id types.PageID) *Page {
	return f.pages[id]
}

func (f *fakeBufferPool) UnpinPage(id types.PageID, isDirty bool) bool {
	if p, ok := f.pages[id]; ok && isDirty {
		p.SetDirty(true)
	}
	return true
}

func newTestInternal(id, parent types.PageID) *InternalPage {
	buf := &[types.PageSize]byte{}
	ip := AsInternalPage(buf)
	ip.Init(id, parent)
	return ip
}

func newTestLeafChild(id types.PageID) *Page {
	p := NewPage()
	p.SetID(id)
	lp := AsLeafPage(p.Data())
	lp.Init(id, types.InvalidPageID)
	return p
}

func TestInternalPage_PopulateNewRootAndLookup(t *testing.T) {
	root := newTestInternal(1, types.InvalidPageID)
	cmp := types.DefaultComparator
	root.PopulateNewRoot(10, 5, 20)

	if got := root.GetSize(); got != 2 {
		t.Fatalf("GetSize() = %d, want 2", got)
	}
	if got := root.Lookup(0, cmp); got != 10 {
		t.Fatalf("Lookup(0) = %d, want 10", got)
	}
	if got := root.Lookup(5, cmp); got != 20 {
		t.Fatalf("Lookup(5) = %d, want 20", got)
	}
	if got := root.Lookup(100, cmp); got != 20 {
		t.Fatalf("Lookup(100) = %d, want 20", got)
	}
}

func TestInternalPage_InsertNodeAfter(t *testing.T) {
	root := newTestInternal(1, types.InvalidPageID)
	root.PopulateNewRoot(10, 5, 20)

	newSize := root.InsertNodeAfter(10, 3, 30)
	if newSize != 3 {
		t.Fatalf("InsertNodeAfter size = %d, want 3", newSize)
	}
	if got := root.KeyAt(1); got != 3 {
		t.Fatalf("KeyAt(1) = %d, want 3", got)
	}
	if got := root.ValueAt(1); got != 30 {
		t.Fatalf("ValueAt(1) = %d, want 30", got)
	}
	if got := root.KeyAt(2); got != 5 {
		t.Fatalf("KeyAt(2) = %d, want 5 (shifted)", got)
	}
}

// TestInternalPage_MoveHalfTo: an overflowing internal page splits and
// every moved child is re-parented to the recipient.
func TestInternalPage_MoveHalfTo(t *testing.T) {
	bpm := newFakeBufferPool()
	left := newTestInternal(1, types.InvalidPageID)

	children := []types.PageID{100, 101, 102, 103, 104}
	for i, cid := range children {
		bpm.put(cid, newTestLeafChild(cid))
		if i == 0 {
			left.SetValueAt(0, cid)
			left.SetSize(1)
			continue
		}
		left.SetKeyAt(i, types.Key(i*10))
		left.SetValueAt(i, cid)
		left.SetSize(i + 1)
	}

	right := newTestInternal(2, types.InvalidPageID)
	left.MoveHalfTo(right, bpm)

	// The separator key is pushed up, but its child stays as right's
	// sentinel, so the entry total is unchanged by the split.
	if left.GetSize()+right.GetSize() != len(children) {
		t.Fatalf("total size after split = %d, want %d", left.GetSize()+right.GetSize(), len(children))
	}
	if got := right.KeyAt(0); got != 20 {
		t.Fatalf("separator key = %d, want 20", got)
	}

	gotValues := make([]types.PageID, right.GetSize())
	for i := range gotValues {
		gotValues[i] = right.ValueAt(i)
	}
	if diff := cmp.Diff([]types.PageID{102, 103, 104}, gotValues); diff != "" {
		t.Fatalf("right child ids mismatch (-want +got):\n%s", diff)
	}

	for i := 0; i < right.GetSize(); i++ {
		childID := right.ValueAt(i)
		childPage := bpm.FetchPage(childID)
		parentID := AsLeafPage(childPage.Data()).GetParentPageID()
		if parentID != right.GetPageID() {
			t.Fatalf("child %d parent = %d, want %d", childID, parentID, right.GetPageID())
		}
	}
}

func newTestParentPage(bpm *fakeBufferPool, id types.PageID) *InternalPage {
	p := NewPage()
	p.SetID(id)
	ip := AsInternalPage(p.Data())
	ip.Init(id, types.InvalidPageID)
	bpm.put(id, p)
	return ip
}

// TestInternalPage_MoveAllTo merges a donor page into its left sibling:
// the parent's separator drops into the donor's sentinel slot before the
// append, and every moved child is re-parented.
func TestInternalPage_MoveAllTo(t *testing.T) {
	bpm := newFakeBufferPool()
	parent := newTestParentPage(bpm, 10)

	recipient := newTestInternal(100, 10)
	recipient.SetValueAt(0, 101)
	recipient.InsertNodeAfter(101, 20, 102)

	donor := newTestInternal(200, 10)
	donor.SetValueAt(0, 103)
	donor.InsertNodeAfter(103, 60, 104)

	parent.PopulateNewRoot(100, 50, 200)

	for _, cid := range []types.PageID{103, 104} {
		bpm.put(cid, newTestLeafChild(cid))
	}

	donor.MoveAllTo(recipient, 1, bpm)

	if got := donor.GetSize(); got != 0 {
		t.Fatalf("donor size after merge = %d, want 0", got)
	}
	wantKeys := []types.Key{20, 50, 60}
	for i, k := range wantKeys {
		if got := recipient.KeyAt(i + 1); got != k {
			t.Fatalf("recipient.KeyAt(%d) = %d, want %d", i+1, got, k)
		}
	}
	wantValues := []types.PageID{101, 102, 103, 104}
	for i, v := range wantValues {
		if got := recipient.ValueAt(i); got != v {
			t.Fatalf("recipient.ValueAt(%d) = %d, want %d", i, got, v)
		}
	}
	for _, cid := range []types.PageID{103, 104} {
		child := bpm.FetchPage(cid)
		if got := AsLeafPage(child.Data()).GetParentPageID(); got != 100 {
			t.Fatalf("child %d parent = %d, want 100", cid, got)
		}
	}
}

// TestInternalPage_MoveFirstToEndOf redistributes one entry from an
// underfull page's right sibling: the parent separator rotates down into
// the recipient and the donated first key rotates up in its place.
func TestInternalPage_MoveFirstToEndOf(t *testing.T) {
	bpm := newFakeBufferPool()
	parent := newTestParentPage(bpm, 10)

	recipient := newTestInternal(100, 10)
	recipient.SetValueAt(0, 101)
	recipient.InsertNodeAfter(101, 20, 102)

	donor := newTestInternal(200, 10)
	donor.SetValueAt(0, 103)
	donor.InsertNodeAfter(103, 60, 104)
	donor.InsertNodeAfter(104, 70, 105)

	parent.PopulateNewRoot(100, 50, 200)
	bpm.put(103, newTestLeafChild(103))

	donor.MoveFirstToEndOf(recipient, bpm)

	if got := recipient.GetSize(); got != 3 {
		t.Fatalf("recipient size = %d, want 3", got)
	}
	if got := recipient.KeyAt(2); got != 50 {
		t.Fatalf("recipient.KeyAt(2) = %d, want the old separator 50", got)
	}
	if got := recipient.ValueAt(2); got != 103 {
		t.Fatalf("recipient.ValueAt(2) = %d, want 103", got)
	}
	if got := parent.KeyAt(1); got != 60 {
		t.Fatalf("parent separator = %d, want the donated key 60", got)
	}
	if got := donor.ValueAt(0); got != 104 {
		t.Fatalf("donor sentinel child = %d, want 104", got)
	}
	if got := donor.GetSize(); got != 2 {
		t.Fatalf("donor size = %d, want 2", got)
	}
	moved := bpm.FetchPage(103)
	if got := AsLeafPage(moved.Data()).GetParentPageID(); got != 100 {
		t.Fatalf("moved child parent = %d, want 100", got)
	}
}

// TestInternalPage_MoveLastToFrontOf redistributes one entry from an
// underfull page's left sibling, rotating the parent separator down into
// the recipient's front.
func TestInternalPage_MoveLastToFrontOf(t *testing.T) {
	bpm := newFakeBufferPool()
	parent := newTestParentPage(bpm, 10)

	donor := newTestInternal(100, 10)
	donor.SetValueAt(0, 101)
	donor.InsertNodeAfter(101, 20, 102)
	donor.InsertNodeAfter(102, 30, 103)

	recipient := newTestInternal(200, 10)
	recipient.SetValueAt(0, 104)
	recipient.InsertNodeAfter(104, 60, 105)

	parent.PopulateNewRoot(100, 50, 200)
	bpm.put(103, newTestLeafChild(103))

	donor.MoveLastToFrontOf(recipient, 1, bpm)

	if got := donor.GetSize(); got != 2 {
		t.Fatalf("donor size = %d, want 2", got)
	}
	if got := recipient.GetSize(); got != 3 {
		t.Fatalf("recipient size = %d, want 3", got)
	}
	if got := recipient.ValueAt(0); got != 103 {
		t.Fatalf("recipient sentinel child = %d, want 103", got)
	}
	if got := recipient.KeyAt(1); got != 50 {
		t.Fatalf("recipient.KeyAt(1) = %d, want the old separator 50", got)
	}
	if got := parent.KeyAt(1); got != 30 {
		t.Fatalf("parent separator = %d, want the donated key 30", got)
	}
	moved := bpm.FetchPage(103)
	if got := AsLeafPage(moved.Data()).GetParentPageID(); got != 200 {
		t.Fatalf("moved child parent = %d, want 200", got)
	}
}

func TestInternalPage_RemoveAndReturnOnlyChild(t *testing.T) {
	root := newTestInternal(1, types.InvalidPageID)
	root.PopulateNewRoot(10, 5, 20)
	if got := root.RemoveAndReturnOnlyChild(); got != 10 {
		t.Fatalf("RemoveAndReturnOnlyChild() = %d, want 10", got)
	}
}

func TestInternalPage_PushUpIndex(t *testing.T) {
	root := newTestInternal(1, types.InvalidPageID)
	root.PopulateNewRoot(10, 5, 20)
	key, val := root.PushUpIndex()
	if key != 5 || val != 20 {
		t.Fatalf("PushUpIndex() = (%d, %d), want (5, 20)", key, val)
	}
	if got := root.GetSize(); got != 1 {
		t.Fatalf("GetSize() after PushUpIndex = %d, want 1", got)
	}
	if got := root.ValueAt(0); got != 20 {
		t.Fatalf("ValueAt(0) after PushUpIndex = %d, want 20", got)
	}
}
