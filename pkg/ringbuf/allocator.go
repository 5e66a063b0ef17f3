package ringbuf

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// pageHeaderSize is the metadata every Page carries ahead of its data area:
// just the commit watermark. Kept as its own constant (rather than
// unsafe.Sizeof on a flat mmap'd struct, which the source relies on) since
// a Page here is an ordinary Go value, not a cast over raw bytes.
const pageHeaderSize = 4

// Page is a fixed-size storage slab: a commit watermark plus a packed data
// area holding items back to back from offset 0 up to Commit.
type Page struct {
	// Commit is the count of bytes, measured from the start of Data,
	// known to hold fully published items. Bytes in [Commit, len(Data))
	// are undefined padding.
	Commit uint32
	Data   []byte
}

// PageAllocator is the allocation-strategy capability the ring takes as a
// collaborator (spec: "the core takes a page allocator capability"). It is
// asked for fixed-size Data slabs and never asked to resize one.
type PageAllocator interface {
	// Alloc returns a freshly zeroed page whose Data is PageDataSize() bytes.
	Alloc() (*Page, error)
	// Free releases a page obtained from Alloc. Implementations that never
	// reclaim individual pages (e.g. StaticPagePool) may no-op.
	Free(*Page) error
	// PageDataSize is the usable payload area per page (PageSize - header).
	PageDataSize() uint32
	// Close releases any resources backing the allocator itself.
	Close() error
}

// HeapPageAllocator allocates pages on the Go heap. Unbounded, and the
// simplest option for tests and short-lived processes.
//
// Mirrors MemoryRingStorage's role elsewhere in this codebase's lineage: a
// plain make([]byte, ...)-backed storage, suited to tests and short-lived
// inter-thread communication.
type HeapPageAllocator struct {
	pageSize uint64
}

// NewHeapPageAllocator creates a heap-backed allocator whose pages are
// pageSize bytes including the page header.
func NewHeapPageAllocator(pageSize uint64) *HeapPageAllocator {
	if pageSize == 0 {
		pageSize = PageSize
	}
	return &HeapPageAllocator{pageSize: pageSize}
}

func (a *HeapPageAllocator) Alloc() (*Page, error) {
	return &Page{Data: make([]byte, a.PageDataSize())}, nil
}

func (a *HeapPageAllocator) Free(*Page) error { return nil }

func (a *HeapPageAllocator) PageDataSize() uint32 {
	return uint32(a.pageSize) - pageHeaderSize
}

func (a *HeapPageAllocator) Close() error { return nil }

// MmapPageAllocator backs every page with its own anonymous mmap mapping.
// Useful when pages should be page-aligned, independently protectable, or
// madvise-able by the caller.
//
// Grounded on MmapRingStorage: there the mapping is backed by a
// perf_event_open file descriptor; here it is MAP_ANONYMOUS|MAP_PRIVATE,
// since a process-local record ring has no kernel perf subsystem to share
// memory with; the mmap mechanism is the part worth keeping, not the perf
// event underneath it.
type MmapPageAllocator struct {
	pageSize uint64
	mappings [][]byte
}

// NewMmapPageAllocator creates an allocator that mmaps each page on demand.
func NewMmapPageAllocator(pageSize uint64) *MmapPageAllocator {
	if pageSize == 0 {
		pageSize = uint64(PageSize)
	}
	return &MmapPageAllocator{pageSize: pageSize}
}

func (a *MmapPageAllocator) Alloc() (*Page, error) {
	data, err := unix.Mmap(-1, 0, int(a.pageSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("ringbuf: mmap page: %w", err)
	}
	a.mappings = append(a.mappings, data)
	runtime.KeepAlive(a)
	return &Page{Data: data[pageHeaderSize:]}, nil
}

func (a *MmapPageAllocator) Free(p *Page) error {
	// The backing mapping is released in bulk by Close; an individual page
	// cannot be safely munmap'd here because Data is a sub-slice offset by
	// pageHeaderSize from the mapping's base address.
	_ = p
	return nil
}

func (a *MmapPageAllocator) PageDataSize() uint32 {
	return uint32(a.pageSize) - pageHeaderSize
}

func (a *MmapPageAllocator) Close() error {
	var firstErr error
	for _, m := range a.mappings {
		if err := unix.Munmap(m); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.mappings = nil
	return firstErr
}

// StaticPagePool hands out pages from a fixed-capacity pool allocated up
// front, mirroring the reference design's ALLOC_DYNAMIC-off pool of
// g_bpage/g_page static arrays. Once the pool is exhausted, Alloc returns
// ErrPoolExhausted; there is no dynamic growth, by construction.
type StaticPagePool struct {
	pageSize uint64
	pages    []Page
	next     int
}

// NewStaticPagePool creates a pool with room for exactly capacity pages.
// capacity defaults to StaticPages (3) when 0, matching the reference
// design's RB_STATIC_PAGES default.
func NewStaticPagePool(capacity int, pageSize uint64) *StaticPagePool {
	if capacity <= 0 {
		capacity = StaticPages
	}
	if pageSize == 0 {
		pageSize = uint64(PageSize)
	}
	pool := &StaticPagePool{pageSize: pageSize, pages: make([]Page, capacity)}
	dataSize := pool.PageDataSize()
	for i := range pool.pages {
		pool.pages[i].Data = make([]byte, dataSize)
	}
	return pool
}

func (a *StaticPagePool) Alloc() (*Page, error) {
	if a.next >= len(a.pages) {
		return nil, ErrPoolExhausted
	}
	p := &a.pages[a.next]
	a.next++
	return p, nil
}

// Free is a no-op: pages in the static pool are never individually
// reclaimed, only reused in place by the ring's own move_tail/read cursors.
func (a *StaticPagePool) Free(*Page) error { return nil }

func (a *StaticPagePool) PageDataSize() uint32 {
	return uint32(a.pageSize) - pageHeaderSize
}

func (a *StaticPagePool) Close() error { return nil }
