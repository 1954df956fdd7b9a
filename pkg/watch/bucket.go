package watch

import "github.com/kvrepo/notifycore/pkg/pattern"

// bucket is the set of watches sharing a compiled pattern. Membership is
// keyed by handle rather than by the Watch pointer's identity, per the
// registry's design: a stable integer handle stands in for the object
// identity the original implementation relied on.
type bucket struct {
	pattern pattern.PathPattern
	watches map[uint64]*Watch

	// intrusive doubly linked list linkage for the bucket map's
	// access-order LRU, threaded directly through the bucket node so no
	// separate list-node allocation is needed.
	prev, next *bucket
}

func newBucket(p pattern.PathPattern) *bucket {
	return &bucket{pattern: p, watches: make(map[uint64]*Watch)}
}

func (b *bucket) empty() bool { return len(b.watches) == 0 }

// bucketMap is a bounded, access-order map from PathPattern to bucket,
// implemented as a hash index plus an intrusive doubly linked list
// (head = least recently used, tail = most recently used). Eviction on
// insert removes the least-recently-used bucket that is currently empty,
// scanning past any non-empty ones; a non-empty bucket is never evicted,
// so the capacity is a soft cap on idle pattern entries, never on live
// watches.
type bucketMap struct {
	capacity int
	index    map[string]*bucket
	head     *bucket // least recently used
	tail     *bucket // most recently used
}

func newBucketMap(capacity int) *bucketMap {
	return &bucketMap{capacity: capacity, index: make(map[string]*bucket)}
}

func (m *bucketMap) len() int { return len(m.index) }

// getOrCreate returns the bucket for p, creating and inserting one at
// the tail if it doesn't exist yet, and moving an existing one to the
// tail (most-recently-used) either way. After an insert that pushes the
// map over capacity, it scans from the head and evicts the first empty
// bucket it finds — at most one eviction per insert. Unlike the single
// eldest-entry check of an access-order LRU map, a non-empty head does
// not stop the scan.
func (m *bucketMap) getOrCreate(p pattern.PathPattern) *bucket {
	key := p.Key()
	if b, ok := m.index[key]; ok {
		m.moveToTail(b)
		return b
	}

	b := newBucket(p)
	m.index[key] = b
	m.pushTail(b)

	if len(m.index) > m.capacity {
		m.evictOneEmpty()
	}
	return b
}

// get returns the bucket for p without creating one and without
// disturbing LRU order — used by unlink, which must not treat a lookup
// as an access.
func (m *bucketMap) get(p pattern.PathPattern) (*bucket, bool) {
	b, ok := m.index[p.Key()]
	return b, ok
}

// all iterates every bucket in arbitrary (current list) order, used by
// notify and close to scan the whole map without touching LRU order. fn
// is allowed to unlink b (notify and close both do, via removeIfEmpty),
// so the next pointer is captured before fn runs rather than read off b
// afterward, which would already be nilled out by an unlink.
func (m *bucketMap) all(fn func(*bucket)) {
	for b := m.head; b != nil; {
		next := b.next
		fn(b)
		b = next
	}
}

// removeIfEmpty unlinks b from the map entirely if it has no watches
// left. Called after notify/close drain a bucket, and is a no-op if the
// bucket still has watches.
func (m *bucketMap) removeIfEmpty(b *bucket) {
	if !b.empty() {
		return
	}
	delete(m.index, b.pattern.Key())
	m.unlink(b)
}

func (m *bucketMap) evictOneEmpty() {
	for b := m.head; b != nil; b = b.next {
		if b.empty() {
			delete(m.index, b.pattern.Key())
			m.unlink(b)
			return
		}
	}
}

func (m *bucketMap) pushTail(b *bucket) {
	b.prev, b.next = m.tail, nil
	if m.tail != nil {
		m.tail.next = b
	} else {
		m.head = b
	}
	m.tail = b
}

func (m *bucketMap) unlink(b *bucket) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		m.head = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		m.tail = b.prev
	}
	b.prev, b.next = nil, nil
}

func (m *bucketMap) moveToTail(b *bucket) {
	if m.tail == b {
		return
	}
	m.unlink(b)
	m.pushTail(b)
}
