// Package hash implements the in-memory extendible hash table the buffer
// pool manager uses as its page table: a directory of shared bucket
// references, doubled on overflow, that maps keys to values without ever
// rehashing the whole table at once.
package hash

import (
	"hash/fnv"
	"sync"
)

// bucket holds the entries that share a directory prefix. id is the
// directory index at which the bucket was first installed; every
// directory slot pointing at this bucket by stride must agree that
// localDepth <= the table's global depth.
type bucket[K comparable, V any] struct {
	localDepth int
	id         int
	entries    map[K]V
}

func newBucket[K comparable, V any](localDepth, id int) *bucket[K, V] {
	return &bucket[K, V]{localDepth: localDepth, id: id, entries: make(map[K]V)}
}

// ExtendibleHashTable is a directory-doubling hash table with bucket-level
// local depth, sized so that a bucket only splits (and the directory only
// doubles) when it would otherwise overflow its fixed capacity.
//
// Every public operation is serialised under a single mutex held for the
// duration of the call.
type ExtendibleHashTable[K comparable, V any] struct {
	mu             sync.Mutex
	globalDepth    int
	bucketCapacity int
	numBuckets     int
	directory      []*bucket[K, V]
	hashKey        func(K) uint64
}

// NewExtendibleHashTable constructs a table with two buckets of local
// depth 1 and the given per-bucket capacity.
func NewExtendibleHashTable[K comparable, V any](bucketDataSize int, hashKey func(K) uint64) *ExtendibleHashTable[K, V] {
	t := &ExtendibleHashTable[K, V]{
		globalDepth:    1,
		bucketCapacity: bucketDataSize,
		numBuckets:     2,
		directory:      make([]*bucket[K, V], 2),
		hashKey:        hashKey,
	}
	t.directory[0] = newBucket[K, V](1, 0)
	t.directory[1] = newBucket[K, V](1, 1)
	return t
}

// HashKeyString hashes a string key to a uint64 using FNV-1a, a convenient
// default hash function for callers that don't need a custom one.
func HashKeyString(k string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k))
	return h.Sum64()
}

// dirCapacity returns 2^globalDepth. Caller must hold mu.
func (t *ExtendibleHashTable[K, V]) dirCapacity() int {
	return 1 << uint(t.globalDepth)
}

// bucketIndex computes hash(k) mod 2^globalDepth. Caller must hold mu.
func (t *ExtendibleHashTable[K, V]) bucketIndex(k K) int {
	return int(t.hashKey(k)) & (t.dirCapacity() - 1)
}

// HashKey exposes the configured hash function.
func (t *ExtendibleHashTable[K, V]) HashKey(k K) uint64 {
	return t.hashKey(k)
}

// GetGlobalDepth returns the directory's depth exponent.
func (t *ExtendibleHashTable[K, V]) GetGlobalDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.globalDepth
}

// GetLocalDepth returns bucketID's local depth, or -1 if bucketID is out of
// directory range or the slot holds no entries.
func (t *ExtendibleHashTable[K, V]) GetLocalDepth(bucketID int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if bucketID < 0 || bucketID >= t.dirCapacity() {
		return -1
	}
	b := t.directory[bucketID]
	if b == nil || len(b.entries) == 0 {
		return -1
	}
	return b.localDepth
}

// GetNumBuckets counts distinct, non-empty buckets: each is counted once,
// at the directory slot whose id matches the bucket's own id.
func (t *ExtendibleHashTable[K, V]) GetNumBuckets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for i, b := range t.directory {
		if b != nil && b.id == i && len(b.entries) > 0 {
			count++
		}
	}
	return count
}

// Find looks up k and reports whether it was present.
func (t *ExtendibleHashTable[K, V]) Find(k K) (v V, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.bucketIndex(k)
	v, ok = t.directory[idx].entries[k]
	return v, ok
}

// Remove deletes k and reports whether it was present.
func (t *ExtendibleHashTable[K, V]) Remove(k K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.bucketIndex(k)
	b := t.directory[idx]
	if _, ok := b.entries[k]; !ok {
		return false
	}
	delete(b.entries, k)
	return true
}

// Insert stores k -> v, splitting (iteratively, to cover the degenerate
// case where a split does not relieve the overflowing bucket) and, when
// necessary, doubling the directory first.
func (t *ExtendibleHashTable[K, V]) Insert(k K, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.bucketIndex(k)
	for len(t.directory[idx].entries) >= t.bucketCapacity {
		t.split(idx)
		idx = t.bucketIndex(k)
	}
	t.directory[idx].entries[k] = v
}

// split grows the bucket at idx by one level of local depth, doubling the
// directory first if the bucket's local depth has caught up with the
// global depth. Caller must hold mu.
func (t *ExtendibleHashTable[K, V]) split(idx int) {
	b := t.directory[idx]
	if b.localDepth == t.globalDepth {
		preSize := t.dirCapacity()
		grown := make([]*bucket[K, V], 2*preSize)
		copy(grown, t.directory)
		for i := preSize; i < len(grown); i++ {
			grown[i] = grown[i-preSize]
		}
		t.directory = grown
		t.globalDepth++
	}

	b.localDepth++
	newID := b.id + t.dirCapacity()/2
	splitID := b.id
	t.directory[newID] = newBucket[K, V](b.localDepth, newID)
	t.numBuckets++

	for k, v := range t.directory[splitID].entries {
		newIdx := t.bucketIndex(k)
		if newIdx == t.directory[splitID].id {
			continue
		}
		dest := t.directory[newIdx]
		if dest.id != newIdx {
			// This directory slot still mirrors an older, shallower
			// bucket; install a fresh one at the new depth before
			// moving entries into it.
			dest = newBucket[K, V](b.localDepth, newIdx)
			t.directory[newIdx] = dest
		}
		dest.entries[k] = v
		delete(t.directory[splitID].entries, k)
	}
}
