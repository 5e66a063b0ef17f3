// Package ringbuf implements a page-based circular ring buffer for
// in-process record logging: a single producer deposits variable-length
// binary records ("items") and a single consumer drains them in FIFO
// order. Writes are O(1) and allocation-free on the hot path; the buffer
// is sized in fixed-size pages linked into a ring, and a dedicated reader
// page is swapped into and out of that ring to give the consumer a stable
// view without blocking the producer, the same "reader page swap"
// technique used by kernel-style ring buffers.
//
// RingBuffer is single-producer/single-consumer. Nothing here is safe for
// concurrent Reserve/Commit/Write calls from multiple goroutines, nor for
// concurrent Consume/Peek/AdvanceReader calls from multiple goroutines;
// callers must serialize each side themselves (a single producer
// goroutine, a single consumer goroutine) or provide external
// synchronization. The replaceHead compare-and-swap in node.go is real
// atomics, kept as a structural placeholder for a possible future
// multi-threaded variant, not a guarantee this package provides today.
package ringbuf

import "encoding/binary"

// Configuration constants, matching the reference design's defaults.
const (
	// PageSize is the total byte size of one page slab, header included.
	PageSize = 4096
	// StaticPages is the default capacity of a StaticPagePool.
	StaticPages = 3
)

// RingBuffer is the top-level owner of the page ring: the producer ring
// itself, the head/tail/reader cursors into it, and the running counters.
type RingBuffer struct {
	allocator    PageAllocator
	pageDataSize uint32

	// nodes is the fixed arena of nrPage+1 page nodes. At any time nrPage
	// of them form the producer ring and the one at readerIdx is the
	// detached reader page; every reader-page swap moves that role to
	// another index.
	nodes []*pageNode

	headIdx   int32
	tailIdx   int32
	readerIdx int32

	nrPage  uint64
	nrEntry uint64
	nrRead  uint64

	closed bool
}

// Alloc builds a ring with enough producer pages to hold at least size
// bytes, rounded up to whole pages, with a minimum of 2 producer pages
// (size == 0 yields exactly the minimum). A dedicated reader page is
// allocated alongside the producer ring and starts out detached from it.
func Alloc(size uint32, allocator PageAllocator) (*RingBuffer, error) {
	if allocator == nil {
		return nil, ErrNilAllocator
	}

	dataSize := allocator.PageDataSize()
	nrPages := uint32(2)
	if size > 0 {
		n := (size + dataSize - 1) / dataSize
		if n > nrPages {
			nrPages = n
		}
	}

	nodes := make([]*pageNode, nrPages+1)
	for i := uint32(0); i < nrPages; i++ {
		p, err := allocator.Alloc()
		if err != nil {
			return nil, err
		}
		nodes[i] = &pageNode{page: p}
	}
	readerIdx := int32(nrPages)
	readerPage, err := allocator.Alloc()
	if err != nil {
		return nil, err
	}
	nodes[readerIdx] = &pageNode{page: readerPage}

	for i := uint32(0); i < nrPages; i++ {
		next := int32((i + 1) % nrPages)
		prev := int32((i + nrPages - 1) % nrPages)
		nodes[i].prev = prev
		nodes[i].edge.Store(packEdge(next, edgeNormal))
	}

	r := &RingBuffer{
		allocator:    allocator,
		pageDataSize: dataSize,
		nodes:        nodes,
		headIdx:      0,
		tailIdx:      0,
		readerIdx:    readerIdx,
		nrPage:       uint64(nrPages),
	}

	// Activate the head: stamp HEAD onto the incoming edge of head_page,
	// i.e. on head_page.prev's outgoing edge.
	r.nodes[r.nodes[r.headIdx].prev].setEdgeToHead()

	return r, nil
}

// Close releases every page back to the allocator and then the allocator
// itself. The ring must not be used afterwards.
func (r *RingBuffer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	for _, n := range r.nodes {
		if n != nil && n.page != nil {
			if err := r.allocator.Free(n.page); err != nil {
				return err
			}
		}
	}
	return r.allocator.Close()
}

// NumPages returns the number of pages in the producer ring (excludes the
// detached reader page).
func (r *RingBuffer) NumPages() uint64 { return r.nrPage }

// NumEntries returns the total count of items ever committed.
func (r *RingBuffer) NumEntries() uint64 { return r.nrEntry }

// NumRead returns the total count of items ever consumed.
func (r *RingBuffer) NumRead() uint64 { return r.nrRead }

// Unread returns the count of committed items not yet consumed.
func (r *RingBuffer) Unread() uint64 { return r.nrEntry - r.nrRead }

// ReserveItem reserves room for a payload of length bytes on the tail page,
// rolling the tail over to the next page first if necessary, and returns a
// handle the caller writes payload bytes into via Item.Data. A length of 0
// reserves a 1-byte item (items are never zero-sized on disk).
//
// The returned Item must be passed to Commit before it becomes visible to
// the consumer; until then its bytes are reserved but not yet published.
func (r *RingBuffer) ReserveItem(length uint32) (*Item, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if length == 0 {
		length = 1
	}
	total := alignUp(length+itemHeaderSize, ArchAlignment)
	if total > r.pageDataSize {
		return nil, ErrTooLarge
	}

	tail := r.nodes[r.tailIdx]
	if total+tail.write > r.pageDataSize {
		if err := r.moveTail(total); err != nil {
			return nil, err
		}
		tail = r.nodes[r.tailIdx]
	}

	offset := tail.write
	tail.write += total
	tail.nrEntry++

	header := packHeader(0, total-itemHeaderSize)
	binary.LittleEndian.PutUint32(tail.page.Data[offset:offset+itemHeaderSize], uint32(header))

	return &Item{
		header: header,
		data:   tail.page.Data[offset+itemHeaderSize : offset+total],
	}, nil
}

// Commit publishes item and everything reserved before it on the tail page:
// it bumps the ring's total entry count and advances the tail page's commit
// watermark up to its current write cursor. This is the single publication
// point; no partial-record state is ever visible to the consumer.
func (r *RingBuffer) Commit(item *Item) {
	_ = item
	r.nrEntry++
	tail := r.nodes[r.tailIdx]
	tail.page.Commit = tail.write
}

// Write is the fused reserve-copy-commit form: it reserves room for data,
// copies it into the reserved item, and commits. data may be empty but
// must not be nil.
func (r *RingBuffer) Write(data []byte) error {
	if data == nil {
		return ErrEmptyWrite
	}
	item, err := r.ReserveItem(uint32(len(data)))
	if err != nil {
		return err
	}
	copy(item.data, data)
	r.Commit(item)
	return nil
}

// moveTail advances the tail to the next producer page, or reports
// ErrNoSpace if every page still holds data the reader has not caught up
// to. It never overwrites unread data: a full ring is reported back to the
// caller rather than reclaimed.
func (r *RingBuffer) moveTail(length uint32) error {
	tailIdx := r.tailIdx
	tail := r.nodes[tailIdx]

	nextIdx := tail.next()
	if tailIdx == r.readerIdx {
		// Only possible mid reader-page swap: the tail has caught up to
		// the page the reader currently holds, so the next producer page
		// is whatever head_page points to.
		nextIdx = r.headIdx
	}

	// Close the current tail: no further reservation can land on it,
	// regardless of any unread trailing bytes.
	tail.write = r.pageDataSize

	// A non-zero commit on next means it still holds items the reader has
	// not swapped out yet.
	next := r.nodes[nextIdx]
	if next.page.Commit != 0 || length+next.page.Commit > r.pageDataSize {
		next.write = r.pageDataSize
		return ErrNoSpace
	}

	next.page.Commit = 0
	r.tailIdx = nextIdx
	return nil
}

// getReaderPage returns the arena index of a page the consumer can safely
// read from, swapping the detached reader page for the current head_page
// first if the reader page has been fully drained. Returns ok=false only
// when the ring is genuinely empty.
func (r *RingBuffer) getReaderPage() (int32, bool) {
	reader := r.nodes[r.readerIdx]

	if reader.read < reader.page.Commit {
		return r.readerIdx, true
	}
	if reader.read > reader.page.Commit {
		panic("ringbuf: invariant violation: reader_page.read > commit")
	}

	if r.nrEntry-r.nrRead == 0 {
		return 0, false
	}

	oldReaderIdx := r.readerIdx
	oldReader := r.nodes[oldReaderIdx]

	// Reset the old reader page's cursors so it is ready for reuse as a
	// producer page.
	oldReader.write = 0
	oldReader.read = 0
	oldReader.nrEntry = 0
	oldReader.page.Commit = 0

	targetIdx := r.headIdx
	target := r.nodes[targetIdx]
	targetNext := target.next()
	targetPrev := target.prev

	// Splice the old reader page into the ring in place of target.
	oldReader.setNext(targetNext)
	oldReader.prev = targetPrev
	oldReader.setEdgeToHead() // designates targetNext as the new head

	if !r.replaceHead(targetIdx, oldReaderIdx) {
		panic("ringbuf: invariant violation: replaceHead CAS failed under SPSC discipline")
	}
	r.nodes[targetNext].prev = oldReaderIdx

	// Advance head_page past the newly-inserted old reader page.
	r.headIdx = targetNext

	// Install the former head_page as the new reader_page.
	r.readerIdx = targetIdx
	target.read = 0

	return targetIdx, true
}

func itemAt(node *pageNode, offset uint32) *Item {
	header := itemHeader(binary.LittleEndian.Uint32(node.page.Data[offset : offset+itemHeaderSize]))
	total := itemHeaderSize + header.lenField()
	return &Item{
		header: header,
		data:   node.page.Data[offset+itemHeaderSize : offset+total],
	}
}

// Peek returns the next unread item without consuming it. Returns
// ok=false when the ring is empty.
func (r *RingBuffer) Peek() (*Item, bool) {
	idx, ok := r.getReaderPage()
	if !ok {
		return nil, false
	}
	reader := r.nodes[idx]
	return itemAt(reader, reader.read), true
}

// AdvanceReader marks the current reader item consumed, advancing the
// reader page's read cursor past it and bumping the ring's read count. It
// panics if the ring is empty; callers are expected to check via Peek or
// use Consume, which pairs Peek and AdvanceReader atomically.
func (r *RingBuffer) AdvanceReader() {
	idx, ok := r.getReaderPage()
	if !ok {
		panic("ringbuf: invariant violation: AdvanceReader called on an empty ring")
	}
	reader := r.nodes[idx]
	item := itemAt(reader, reader.read)
	r.nrRead++
	reader.read += item.occupiedLength()
}

// Consume returns the next unread item and marks it consumed. Returns
// ok=false when the ring is empty.
func (r *RingBuffer) Consume() (*Item, bool) {
	item, ok := r.Peek()
	if !ok {
		return nil, false
	}
	r.AdvanceReader()
	return item, true
}
