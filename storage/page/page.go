// Package page implements the fixed-size page frame cached by the buffer
// pool manager (Page) and the B+-tree internal/leaf node views over a
// page's raw byte buffer.
package page

import "github.com/kayodb/pagestore/types"

// Page is one frame of the buffer pool: a fixed-size byte buffer plus the
// metadata the buffer pool manager needs to cache and evict it. Pin,
// dirty and free-list membership invariants are enforced by the buffer
// pool manager, not by Page itself — Page is a passive frame.
type Page struct {
	id       types.PageID
	pinCount int32
	isDirty  bool
	data     [types.PageSize]byte
}

// NewPage returns a frame initialised to the empty, unpinned, invalid
// state a freshly allocated slot starts in.
func NewPage() *Page {
	return &Page{id: types.InvalidPageID}
}

// ID returns the page id currently occupying this frame.
func (p *Page) ID() types.PageID { return p.id }

// SetID re-keys the frame. Only the buffer pool manager should call this.
func (p *Page) SetID(id types.PageID) { p.id = id }

// PinCount returns the current pin count.
func (p *Page) PinCount() int32 { return p.pinCount }

// IncPinCount increments the pin count by one.
func (p *Page) IncPinCount() { p.pinCount++ }

// DecPinCount decrements the pin count by one.
func (p *Page) DecPinCount() { p.pinCount-- }

// SetPinCount sets the pin count directly.
func (p *Page) SetPinCount(n int32) { p.pinCount = n }

// IsDirty reports whether the frame's contents differ from disk.
func (p *Page) IsDirty() bool { return p.isDirty }

// SetDirty ORs the dirty flag — once set within a page-residency epoch, it
// stays set until eviction or an explicit flush.
func (p *Page) SetDirty(dirty bool) {
	p.isDirty = p.isDirty || dirty
}

// ClearDirty resets the dirty flag. Only the buffer pool manager calls
// this: after writing a dirty frame back, when re-keying a frame, and when
// deleting a page.
func (p *Page) ClearDirty() { p.isDirty = false }

// Data returns the page's raw byte buffer for in-place reads and writes.
func (p *Page) Data() *[types.PageSize]byte { return &p.data }

// ResetMemory zeroes the page's data buffer.
func (p *Page) ResetMemory() {
	p.data = [types.PageSize]byte{}
}

// BufferPool is the subset of the buffer pool manager's contract that
// B+-tree page operations need in order to fetch/unpin sibling, child and
// parent pages during split, merge and redistribute. It is declared here,
// not imported from storage/buffer, to avoid a storage/page <-> storage/buffer
// import cycle: storage/buffer depends on storage/page for the Page type,
// so storage/page cannot depend back on storage/buffer. storage/buffer's
// *buffer.BufferPoolManager satisfies this interface structurally.
type BufferPool interface {
	FetchPage(id types.PageID) *Page
	UnpinPage(id types.PageID, isDirty bool) bool
}
