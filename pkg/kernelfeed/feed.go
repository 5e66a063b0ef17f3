// Package kernelfeed bridges a real Linux BPF_MAP_TYPE_RINGBUF kernel ring
// buffer into a ringbuf.RingBuffer: it reads records off the kernel map with
// github.com/cilium/ebpf's ringbuf.Reader and forwards each record's raw
// bytes into the in-process ring with Write.
package kernelfeed

import (
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/ringbuf"

	ringbuffer "github.com/wangloo/ringbuffer/pkg/ringbuf"
)

// Feed reads records from a kernel BPF_MAP_TYPE_RINGBUF map and forwards
// them into an in-process RingBuffer. It owns the underlying ringbuf.Reader
// and closes it on Close.
type Feed struct {
	reader *ringbuf.Reader
	ring   *ringbuffer.RingBuffer
}

// New opens a kernel ringbuf reader against m and pairs it with dest. m must
// be a BPF_MAP_TYPE_RINGBUF map; dest receives the raw bytes of every record
// read from it.
func New(m *ebpf.Map, dest *ringbuffer.RingBuffer) (*Feed, error) {
	if m == nil {
		return nil, fmt.Errorf("kernelfeed: map cannot be nil")
	}
	if dest == nil {
		return nil, fmt.Errorf("kernelfeed: destination ring cannot be nil")
	}

	r, err := ringbuf.NewReader(m)
	if err != nil {
		return nil, fmt.Errorf("kernelfeed: opening ringbuf reader: %w", err)
	}

	return &Feed{reader: r, ring: dest}, nil
}

// Pump reads one record from the kernel map and forwards its raw sample
// bytes into the destination ring. It blocks until a record is available,
// the Feed is closed (returning ringbuf.ErrClosed from the kernel reader),
// or the read otherwise fails.
func (f *Feed) Pump() error {
	rec, err := f.reader.Read()
	if err != nil {
		if errors.Is(err, ringbuf.ErrClosed) {
			return err
		}
		return fmt.Errorf("kernelfeed: reading kernel record: %w", err)
	}
	return f.ring.Write(rec.RawSample)
}

// Run pumps records forward until the kernel reader is closed or Pump
// returns a non-ErrClosed error, which it surfaces to the caller.
func (f *Feed) Run() error {
	for {
		if err := f.Pump(); err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// Close stops the kernel reader. It does not close the destination ring,
// which the caller may still be draining.
func (f *Feed) Close() error {
	return f.reader.Close()
}
