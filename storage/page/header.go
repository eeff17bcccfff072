package page

import (
	"encoding/binary"

	"github.com/kayodb/pagestore/types"
)

// PageType distinguishes an internal node from a leaf node so a caller
// holding a freshly fetched page's raw bytes knows which view to apply.
type PageType int32

const (
	InvalidPageType PageType = iota
	InternalPageType
	LeafPageType
)

// Header field byte offsets, common to internal and leaf pages. Every
// field is 4 bytes; next_page_id only exists on leaf pages and is
// appended after this common block.
const (
	offsetPageType     = 0
	offsetLSN          = 4
	offsetSize         = 8
	offsetMaxSize      = 12
	offsetParentPageID = 16
	offsetPageID       = 20
	commonHeaderSize   = 24

	offsetNextPageID = commonHeaderSize
	leafHeaderSize   = commonHeaderSize + 4
)

// keySize/internalValSize/leafValSize are the fixed widths of a
// Key (int64) and each page type's value (child page id for internal
// pages, RID for leaf pages).
const (
	keySize          = 8
	internalValSize  = 4
	leafValSize      = 8 // types.RID: PageID(4) + SlotNum(4)
	internalSlotSize = keySize + internalValSize
	leafSlotSize     = keySize + leafValSize
)

// InternalPageMaxSize is the number of (key, child) slots that fit after
// the common header.
const InternalPageMaxSize = (types.PageSize - commonHeaderSize) / internalSlotSize

// LeafPageMaxSize is the number of (key, rid) slots that fit after the
// leaf header.
const LeafPageMaxSize = (types.PageSize - leafHeaderSize) / leafSlotSize

func readU32(buf *[types.PageSize]byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset : offset+4])
}

func writeU32(buf *[types.PageSize]byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

func readI64(buf *[types.PageSize]byte, offset int) int64 {
	return int64(binary.LittleEndian.Uint64(buf[offset : offset+8]))
}

func writeI64(buf *[types.PageSize]byte, offset int, v int64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], uint64(v))
}

// header is embedded (by value, not type-embedding) in both InternalPage
// and LeafPage to share the common accessor logic over the raw buffer.
type header struct {
	buf *[types.PageSize]byte
}

func (h header) PageType() PageType {
	return PageType(int32(readU32(h.buf, offsetPageType)))
}

func (h header) setPageType(t PageType) {
	writeU32(h.buf, offsetPageType, uint32(t))
}

func (h header) GetSize() int {
	return int(int32(readU32(h.buf, offsetSize)))
}

func (h header) SetSize(n int) {
	writeU32(h.buf, offsetSize, uint32(int32(n)))
}

func (h header) IncreaseSize(delta int) {
	h.SetSize(h.GetSize() + delta)
}

func (h header) GetMaxSize() int {
	return int(int32(readU32(h.buf, offsetMaxSize)))
}

func (h header) setMaxSize(n int) {
	writeU32(h.buf, offsetMaxSize, uint32(int32(n)))
}

func (h header) GetParentPageID() types.PageID {
	return types.PageID(int32(readU32(h.buf, offsetParentPageID)))
}

func (h header) SetParentPageID(id types.PageID) {
	writeU32(h.buf, offsetParentPageID, uint32(int32(id)))
}

func (h header) GetPageID() types.PageID {
	return types.PageID(int32(readU32(h.buf, offsetPageID)))
}

func (h header) setPageID(id types.PageID) {
	writeU32(h.buf, offsetPageID, uint32(int32(id)))
}
