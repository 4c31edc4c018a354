// Package pool provides bucketed sync.Pool instances for the scratch
// buffers of a filter pass. Buffers are organized by size class (counted in
// elements) to minimize waste.
package pool

import "sync"

// Size classes for bucketed pools.
const (
	Size256  = 256
	Size1K   = 1024
	Size4K   = 4096
	Size16K  = 16384
	Size64K  = 65536
	Size256K = 262144
	Size1M   = 1048576
)

const numClasses = 7

var sizes = [numClasses]int{Size256, Size1K, Size4K, Size16K, Size64K, Size256K, Size1M}

// bucketIndex returns the pool index for a given size.
func bucketIndex(size int) int {
	switch {
	case size <= Size256:
		return 0
	case size <= Size1K:
		return 1
	case size <= Size4K:
		return 2
	case size <= Size16K:
		return 3
	case size <= Size64K:
		return 4
	case size <= Size256K:
		return 5
	default:
		return 6
	}
}

// Buckets is a set of size-classed pools for slices of T. The zero value
// is ready to use.
type Buckets[T any] struct {
	pools [numClasses]sync.Pool
}

// Get returns a slice of length n. Its contents are unspecified; callers
// initialize what they read. The caller must call Put when done.
func (b *Buckets[T]) Get(n int) []T {
	idx := bucketIndex(n)
	if v, ok := b.pools[idx].Get().(*[]T); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]T, n, max(n, sizes[idx]))
}

// Put returns a slice obtained from Get. Slices below the smallest class
// are dropped.
func (b *Buckets[T]) Put(s []T) {
	c := cap(s)
	if c < Size256 {
		return
	}
	s = s[:c]
	b.pools[bucketIndex(c)].Put(&s)
}

var (
	// Bytes pools strength map read buffers.
	Bytes Buckets[byte]

	// Uint16 pools filter windows, line buffers and search planes.
	Uint16 Buckets[uint16]

	// Bool pools per-superblock flag rows.
	Bool Buckets[bool]
)
