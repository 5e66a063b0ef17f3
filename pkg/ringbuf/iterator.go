package ringbuf

// Iterator provides non-destructive traversal of every committed item
// currently resident in the producer ring, from head_page through
// tail_page, respecting each page's commit watermark. It never touches the
// reader page and never mutates any read cursor; repeated iteration over
// an unchanged ring always yields the same sequence.
//
// This is the optional traversal structure the design sketches but does
// not require; it exists for diagnostics and testing, not the hot path.
type Iterator struct {
	ring   *RingBuffer
	idx    int32
	offset uint32
}

// Iterate starts a new non-destructive traversal at head_page.
func (r *RingBuffer) Iterate() *Iterator {
	return &Iterator{ring: r, idx: r.headIdx}
}

// Next returns the next item in traversal order, or ok=false once every
// committed item in the producer ring has been visited.
func (it *Iterator) Next() (item *Item, ok bool) {
	ring := it.ring
	for {
		node := ring.nodes[it.idx]
		if it.offset >= node.page.Commit {
			if it.idx == ring.tailIdx {
				return nil, false
			}
			next := node.next()
			if next == ring.headIdx {
				// Wrapped around without meeting the tail: the tail is the
				// detached reader page, which this traversal does not visit.
				return nil, false
			}
			it.idx = next
			it.offset = 0
			continue
		}
		item = itemAt(node, it.offset)
		it.offset += item.occupiedLength()
		return item, true
	}
}
