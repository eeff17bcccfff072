// Package buffer implements the buffer pool manager: a fixed set of page
// frames backed by a free list, an extendible hash table page table, and
// an LRU replacer for victim selection when the pool is full.
package buffer

import (
	"sync"

	"github.com/kayodb/pagestore/hash"
	"github.com/kayodb/pagestore/interfaces"
	"github.com/kayodb/pagestore/replacer"
	"github.com/kayodb/pagestore/storage/page"
	"github.com/kayodb/pagestore/types"
)

func hashPageID(id types.PageID) uint64 { return uint64(uint32(int32(id))) }

// BufferPoolManager owns poolSize page frames and mediates every access to
// disk through them. It satisfies storage/page.BufferPool.
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize int
	pages    []*page.Page
	disk     interfaces.DiskManager
	logMgr   interfaces.LogManager

	pageTable *hash.ExtendibleHashTable[types.PageID, int]
	replacer  *replacer.LRUReplacer[int]
	freeList  []int
}

// NewBufferPoolManager allocates poolSize empty frames, all initially on
// the free list.
func NewBufferPoolManager(poolSize int, disk interfaces.DiskManager, logMgr interfaces.LogManager) *BufferPoolManager {
	pages := make([]*page.Page, poolSize)
	freeList := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		pages[i] = page.NewPage()
		freeList[i] = i
	}
	return &BufferPoolManager{
		poolSize:  poolSize,
		pages:     pages,
		disk:      disk,
		logMgr:    logMgr,
		pageTable: hash.NewExtendibleHashTable[types.PageID, int](types.BucketSize, hashPageID),
		replacer:  replacer.NewLRUReplacer[int](),
		freeList:  freeList,
	}
}

// victim picks a frame to reuse: the free list first, the LRU replacer
// otherwise. Returns -1 if neither has anything to offer. Caller must
// hold mu.
func (b *BufferPoolManager) victim() int {
	if n := len(b.freeList); n > 0 {
		frameID := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		return frameID
	}
	frameID, ok := b.replacer.Victim()
	if !ok {
		return -1
	}
	if b.pages[frameID].PinCount() != 0 {
		panic("buffer pool: victim frame is still pinned")
	}
	return frameID
}

// flushFrame writes a dirty frame's contents back to disk. Caller must
// hold mu.
func (b *BufferPoolManager) flushFrame(frameID int) {
	p := b.pages[frameID]
	if p.ID() == types.InvalidPageID {
		return
	}
	if p.IsDirty() {
		b.disk.WritePage(p.ID(), (*p.Data())[:])
		p.ClearDirty()
	}
}

// FetchPage returns the requested page pinned in memory, fetching it from
// disk if it is not already cached. Returns nil if the pool is full of
// pinned pages and no frame can be evicted.
func (b *BufferPoolManager) FetchPage(id types.PageID) *page.Page {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frameID, ok := b.pageTable.Find(id); ok {
		p := b.pages[frameID]
		p.IncPinCount()
		b.replacer.Erase(frameID)
		return p
	}

	frameID := b.victim()
	if frameID < 0 {
		return nil
	}
	b.flushFrame(frameID)

	old := b.pages[frameID]
	if old.ID() != types.InvalidPageID {
		b.pageTable.Remove(old.ID())
	}

	p := b.pages[frameID]
	p.ResetMemory()
	p.SetID(id)
	p.SetPinCount(1)
	p.ClearDirty()
	buf := p.Data()
	b.disk.ReadPage(id, (*buf)[:])

	b.pageTable.Insert(id, frameID)
	return p
}

// NewPage allocates a fresh page id from disk and returns it pinned,
// zero-filled, in a cached frame. Returns nil if no frame is available.
func (b *BufferPoolManager) NewPage() *page.Page {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID := b.victim()
	if frameID < 0 {
		return nil
	}
	b.flushFrame(frameID)

	old := b.pages[frameID]
	if old.ID() != types.InvalidPageID {
		b.pageTable.Remove(old.ID())
	}

	id := b.disk.AllocatePage()
	p := b.pages[frameID]
	p.ResetMemory()
	p.SetID(id)
	p.SetPinCount(1)
	p.ClearDirty()

	b.pageTable.Insert(id, frameID)
	return p
}

// UnpinPage decrements id's pin count, marking it dirty if requested, and
// makes it eligible for eviction once the count reaches zero. Reports
// false if id is not currently cached.
func (b *BufferPoolManager) UnpinPage(id types.PageID, isDirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable.Find(id)
	if !ok {
		return false
	}
	p := b.pages[frameID]
	if p.PinCount() <= 0 {
		return false
	}
	p.SetDirty(isDirty)
	p.DecPinCount()
	if p.PinCount() == 0 {
		b.replacer.Insert(frameID)
	}
	return true
}

// FlushPage forces id's contents to disk regardless of its dirty bit,
// without affecting its pin count. Reports false if id is not cached.
func (b *BufferPoolManager) FlushPage(id types.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id == types.InvalidPageID {
		return false
	}
	frameID, ok := b.pageTable.Find(id)
	if !ok {
		return false
	}
	p := b.pages[frameID]
	b.disk.WritePage(id, (*p.Data())[:])
	return true
}

// DeletePage evicts id from the pool and releases its page id back to
// disk. Refuses and returns false while id is still pinned.
func (b *BufferPoolManager) DeletePage(id types.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id == types.InvalidPageID {
		return false
	}
	frameID, ok := b.pageTable.Find(id)
	if !ok {
		return false
	}
	p := b.pages[frameID]
	if p.PinCount() > 0 {
		return false
	}

	b.pageTable.Remove(id)
	b.replacer.Erase(frameID)
	b.disk.DeallocatePage(id)

	p.ResetMemory()
	p.SetID(types.InvalidPageID)
	p.SetPinCount(0)
	p.ClearDirty()
	b.freeList = append(b.freeList, frameID)
	return true
}

// FlushAllPages writes every dirty cached page back to disk.
func (b *BufferPoolManager) FlushAllPages() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for frameID := range b.pages {
		b.flushFrame(frameID)
	}
}
