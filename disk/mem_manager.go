package disk

import (
	"sync"
	"sync/atomic"

	"github.com/dsnet/golib/memfile"

	"github.com/kayodb/pagestore/types"
)

// MemManager is an interfaces.DiskManager over an in-memory file, for
// embedding this module without a backing disk file (e.g. short-lived
// process-local storage, or tests that want real ReadAt/WriteAt
// semantics without touching the filesystem).
type MemManager struct {
	mu       sync.Mutex
	file     *memfile.File
	nextPage int64
}

// NewMemManager returns an empty in-memory disk manager.
func NewMemManager() *MemManager {
	return &MemManager{file: memfile.New(nil)}
}

// AllocatePage hands out the next page id in allocation order.
func (m *MemManager) AllocatePage() types.PageID {
	id := atomic.AddInt64(&m.nextPage, 1) - 1
	return types.PageID(int32(id))
}

// DeallocatePage is a no-op: page ids are never reused.
func (m *MemManager) DeallocatePage(types.PageID) {}

// ReadPage reads exactly types.PageSize bytes for id into buf, returning
// a zero-filled page for one that was allocated but never written.
func (m *MemManager) ReadPage(id types.PageID, buf []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * types.PageSize
	n, _ := m.file.ReadAt(buf[:types.PageSize], offset)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// WritePage writes exactly types.PageSize bytes for id from buf.
func (m *MemManager) WritePage(id types.PageID, buf []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * types.PageSize
	if _, err := m.file.WriteAt(buf[:types.PageSize], offset); err != nil {
		panic(err)
	}
}
