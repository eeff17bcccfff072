// Package interfaces isolates this module's two external collaborators —
// the disk manager and the log manager — behind small contracts, so the
// buffer pool never depends on a concrete persistence or logging
// implementation.
package interfaces

import "github.com/kayodb/pagestore/types"

// DiskManager is the synchronous, reliable sink/source the buffer pool
// manager reads from and writes to. A fail-stop disk I/O error is out of
// scope for callers: implementations either complete or panic.
type DiskManager interface {
	// AllocatePage returns a fresh page id.
	AllocatePage() types.PageID
	// DeallocatePage releases a page id back to the disk manager.
	DeallocatePage(id types.PageID)
	// ReadPage fills buf (exactly types.PageSize bytes) with the page's
	// on-disk contents.
	ReadPage(id types.PageID, buf []byte)
	// WritePage writes buf (exactly types.PageSize bytes) to disk
	// synchronously.
	WritePage(id types.PageID, buf []byte)
}
