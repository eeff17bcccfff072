package disk

import (
	"sync"

	"github.com/kayodb/pagestore/types"
)

// StubManager is a bare in-memory interfaces.DiskManager, backed by a
// plain map instead of a real file, that records every read and write so
// buffer pool manager tests can assert on exactly what reached "disk".
// It is a test double, not a production path.
type StubManager struct {
	mu       sync.Mutex
	nextID   int32
	pages    map[types.PageID][]byte
	Reads    []types.PageID
	Writes   []types.PageID
	NumAlloc int
}

// NewStubManager returns an empty stub disk manager.
func NewStubManager() *StubManager {
	return &StubManager{pages: make(map[types.PageID][]byte)}
}

// AllocatePage hands out sequential page ids starting at 0.
func (s *StubManager) AllocatePage() types.PageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.NumAlloc++
	return types.PageID(id)
}

// DeallocatePage drops the stored page. Its id is not handed out again.
func (s *StubManager) DeallocatePage(id types.PageID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, id)
}

// ReadPage copies id's stored bytes into buf, recording the read, and
// zero-fills buf if id was never written.
func (s *StubManager) ReadPage(id types.PageID, buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads = append(s.Reads, id)
	data, ok := s.pages[id]
	if !ok {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	copy(buf, data)
}

// WritePage stores a copy of buf under id and records the write.
func (s *StubManager) WritePage(id types.PageID, buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes = append(s.Writes, id)
	data := make([]byte, len(buf))
	copy(data, buf)
	s.pages[id] = data
}

// WriteCount reports how many times WritePage has been called for id.
func (s *StubManager) WriteCount(id types.PageID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.Writes {
		if w == id {
			n++
		}
	}
	return n
}
