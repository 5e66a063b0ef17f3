package ringbuf

import "errors"

var (
	// ErrNilAllocator is returned when Alloc is called without a PageAllocator.
	ErrNilAllocator = errors.New("ringbuf: allocator cannot be nil")
	// ErrNoSpace is returned by ReserveItem/Write when every producer page still
	// holds data the reader has not consumed yet; the reservation is refused
	// rather than silently overwriting unread items.
	ErrNoSpace = errors.New("ringbuf: no space left, reader has not caught up")
	// ErrEmptyWrite is returned when Write is called with a nil data slice.
	// A zero-length (non-nil) slice is accepted and stored as a 1-byte item.
	ErrEmptyWrite = errors.New("ringbuf: data cannot be nil")
	// ErrTooLarge is returned when a single item, once aligned, cannot
	// possibly fit inside one page regardless of its fill level.
	ErrTooLarge = errors.New("ringbuf: item too large for a single page")
	// ErrPoolExhausted is returned by StaticPagePool once its fixed capacity
	// has been handed out.
	ErrPoolExhausted = errors.New("ringbuf: static page pool exhausted")
	// ErrClosed is returned by ReserveItem and Write once the ring has been
	// closed.
	ErrClosed = errors.New("ringbuf: ring has been closed")
)
