// Package disk provides interfaces.DiskManager implementations: a
// production file-backed manager using aligned direct I/O, an in-memory
// manager for embedding without a backing file, and a stub manager for
// tests that need to observe every read and write.
package disk

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/ncw/directio"

	"github.com/kayodb/pagestore/types"
)

// FileManager is the production interfaces.DiskManager: a single backing
// file addressed by fixed-size, page-aligned blocks. It opens the file
// with O_DIRECT via github.com/ncw/directio when the platform supports
// it, falling back to a regular *os.File otherwise. Because O_DIRECT
// requires page-aligned buffers, every transfer is staged through one
// aligned block of types.PageSize bytes
// (types.PageSize == directio.BlockSize == 4096).
type FileManager struct {
	mu       sync.Mutex
	file     *os.File
	block    []byte // directio.AlignedBlock staging buffer for O_DIRECT transfers
	nextPage int64
}

// NewFileManager opens (creating if necessary) the file at path for
// direct-I/O page access.
func NewFileManager(path string) (*FileManager, error) {
	f, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, err
		}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileManager{
		file:     f,
		block:    directio.AlignedBlock(types.PageSize),
		nextPage: info.Size() / types.PageSize,
	}, nil
}

// Close releases the backing file.
func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}

// AllocatePage hands out the next page id in file order.
func (m *FileManager) AllocatePage() types.PageID {
	id := atomic.AddInt64(&m.nextPage, 1) - 1
	return types.PageID(int32(id))
}

// DeallocatePage is a no-op: this manager never reclaims file space.
func (m *FileManager) DeallocatePage(types.PageID) {}

// ReadPage reads exactly types.PageSize bytes for id into buf. The
// transfer is staged through the aligned block: O_DIRECT rejects
// unaligned user buffers, and the caller's page frames carry no alignment
// guarantee.
func (m *FileManager) ReadPage(id types.PageID, buf []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * types.PageSize
	n, _ := m.file.ReadAt(m.block, offset)
	copy(buf[:n], m.block[:n])
	// A short or empty read means the page was never written; the caller
	// expects the remainder zero-filled.
	for i := n; i < types.PageSize; i++ {
		buf[i] = 0
	}
}

// WritePage writes exactly types.PageSize bytes for id from buf,
// synchronously, staged through the aligned block as in ReadPage.
func (m *FileManager) WritePage(id types.PageID, buf []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.block, buf[:types.PageSize])
	offset := int64(id) * types.PageSize
	if _, err := m.file.WriteAt(m.block, offset); err != nil {
		panic(err)
	}
}
