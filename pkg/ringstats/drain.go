package ringstats

import (
	"time"

	ringbuffer "github.com/wangloo/ringbuffer/pkg/ringbuf"
)

// Drainer polls a RingBuffer and folds every consumed item into a Window,
// stamping wall-clock time at the moment of consumption.
type Drainer struct {
	ring   *ringbuffer.RingBuffer
	window *Window
	now    func() time.Time
}

// NewDrainer pairs ring and window. Consumed items are timestamped with
// time.Now.
func NewDrainer(ring *ringbuffer.RingBuffer, window *Window) *Drainer {
	return &Drainer{ring: ring, window: window, now: time.Now}
}

// DrainAll consumes every item currently available in ring, returning the
// count folded into the window.
func (d *Drainer) DrainAll() int {
	n := 0
	for {
		item, ok := d.ring.Consume()
		if !ok {
			return n
		}
		d.window.Record(uint64(d.now().UnixNano()), item.Type(), uint64(item.DataLength()))
		n++
	}
}
