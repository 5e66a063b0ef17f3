package ringstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ringbuffer "github.com/wangloo/ringbuffer/pkg/ringbuf"
)

func TestDrainerDrainAll(t *testing.T) {
	ring, err := ringbuffer.Alloc(0, ringbuffer.NewHeapPageAllocator(ringbuffer.PageSize))
	require.NoError(t, err)
	defer ring.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, ring.Write([]byte("event")))
	}

	w, err := NewWindow(Config{SlotLength: 1_000_000_000, WindowSize: 4})
	require.NoError(t, err)

	d := NewDrainer(ring, w)
	d.now = func() time.Time { return time.Unix(0, 1_500_000_000) }

	n := d.DrainAll()
	require.Equal(t, 5, n)
	require.EqualValues(t, 5, ring.NumRead())

	require.Equal(t, 0, d.DrainAll())
}
