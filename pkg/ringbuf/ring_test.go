package ringbuf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRing(t *testing.T, size uint32) *RingBuffer {
	t.Helper()
	r, err := Alloc(size, NewHeapPageAllocator(PageSize))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, r.Close()) })
	return r
}

func TestAllocMin(t *testing.T) {
	r := newTestRing(t, 0)
	require.EqualValues(t, 2, r.NumPages())
	require.EqualValues(t, 0, r.NumEntries())
	require.Equal(t, r.headIdx, r.tailIdx)
	require.Equal(t, edgeHead, r.isHeadEdge(r.headIdx))
}

func TestSingleWriteRead(t *testing.T) {
	r := newTestRing(t, 0)

	payload := []byte("ABCDEFG\x00")
	require.NoError(t, r.Write(payload))

	item, ok := r.Consume()
	require.True(t, ok)
	require.Equal(t, payload, item.Data())
	require.EqualValues(t, len(payload), item.DataLength())

	require.EqualValues(t, 1, r.NumEntries())
	require.EqualValues(t, 1, r.NumRead())

	_, ok = r.Consume()
	require.False(t, ok)
}

func TestConsumeOnEmptyIsIdempotent(t *testing.T) {
	r := newTestRing(t, 0)
	for i := 0; i < 3; i++ {
		_, ok := r.Consume()
		require.False(t, ok)
	}
}

func TestWriteZeroLength(t *testing.T) {
	r := newTestRing(t, 0)
	require.NoError(t, r.Write([]byte{}))

	item, ok := r.Consume()
	require.True(t, ok)
	// Stored as a 1-byte item; DataLength includes its alignment padding.
	require.EqualValues(t, alignUp(1+itemHeaderSize, ArchAlignment)-itemHeaderSize, item.DataLength())
}

func TestExactFitDoesNotRollTail(t *testing.T) {
	r := newTestRing(t, 0)
	startTail := r.tailIdx

	fill := r.pageDataSize - itemHeaderSize
	require.NoError(t, r.Write(make([]byte, fill)))
	require.Equal(t, startTail, r.tailIdx)
	require.EqualValues(t, r.pageDataSize, r.nodes[startTail].write)
}

func TestOneByteOverTriggersMoveTail(t *testing.T) {
	r := newTestRing(t, 0)
	startTail := r.tailIdx

	fill := r.pageDataSize - itemHeaderSize
	require.NoError(t, r.Write(make([]byte, fill)))
	require.NoError(t, r.Write([]byte{1}))

	require.NotEqual(t, startTail, r.tailIdx)
}

func TestPageRollover(t *testing.T) {
	r := newTestRing(t, 0)
	startHead := r.headIdx
	startTail := r.tailIdx

	payload := make([]byte, 100)
	for i := 0; ; i++ {
		if err := r.Write(payload); err != nil {
			t.Fatalf("unexpected error after %d writes: %v", i, err)
		}
		if r.tailIdx != startTail {
			break
		}
	}

	require.Equal(t, startHead, r.headIdx)
	require.NotEqual(t, startTail, r.tailIdx)
	require.EqualValues(t, r.pageDataSize, r.nodes[startTail].write)
}

func TestWrite256Read256(t *testing.T) {
	r := newTestRing(t, 0)

	const n = 256
	for i := 0; i < n; i++ {
		s := fmt.Sprintf("ringbufdata%d\n", i)
		require.NoError(t, r.Write(append([]byte(s), 0)))
	}

	for i := 0; i < n; i++ {
		want := fmt.Sprintf("ringbufdata%d\n", i)
		item, ok := r.Consume()
		require.True(t, ok, "consume %d", i)
		require.Equal(t, want, string(item.Data()[:len(want)]))
	}

	require.EqualValues(t, n, r.NumEntries())
	require.EqualValues(t, n, r.NumRead())
}

func TestReaderPageSwap(t *testing.T) {
	r := newTestRing(t, 0)

	payload := make([]byte, 100)
	total := alignUp(uint32(len(payload))+itemHeaderSize, ArchAlignment)
	itemsPerPage := r.pageDataSize / total

	// Fill the first page and roll into the second, plus one item.
	n := int(itemsPerPage) + 1
	for i := 0; i < n; i++ {
		require.NoError(t, r.Write(payload))
	}

	initialReader := r.readerIdx
	initialHead := r.headIdx

	for i := uint32(0); i < itemsPerPage; i++ {
		_, ok := r.Consume()
		require.True(t, ok)
	}

	// The reader page (former page 0) is now fully consumed; one more
	// consume must force the swap onto the current head page.
	_, ok := r.Consume()
	require.True(t, ok)

	require.NotEqual(t, initialReader, r.readerIdx)
	require.NotEqual(t, initialHead, r.headIdx)
	require.Equal(t, edgeHead, r.isHeadEdge(r.headIdx))
}

func TestCapacityExhaustionSurfacesAndDrainsFIFO(t *testing.T) {
	r, err := Alloc(0, NewStaticPagePool(StaticPages, PageSize))
	require.NoError(t, err)
	defer r.Close()

	payload := make([]byte, 100)
	written := 0
	for {
		if err := r.Write(payload); err != nil {
			require.ErrorIs(t, err, ErrNoSpace)
			break
		}
		written++
		if written > 10_000 {
			t.Fatal("ring never reported full")
		}
	}

	read := 0
	for {
		item, ok := r.Consume()
		if !ok {
			break
		}
		require.Equal(t, payload, item.Data())
		read++
	}

	require.Equal(t, written, read)
	require.EqualValues(t, written, r.NumEntries())
	require.EqualValues(t, read, r.NumRead())
}

func TestInvariantsUnderRandomSequence(t *testing.T) {
	r := newTestRing(t, 0)

	var written [][]byte
	var readIdx int

	step := func(write bool, n int) {
		if write {
			data := make([]byte, n)
			for i := range data {
				data[i] = byte(len(written) + i)
			}
			if err := r.Write(data); err == nil {
				written = append(written, data)
			}
		} else if readIdx < len(written) {
			item, ok := r.Consume()
			if ok {
				want := written[readIdx]
				require.Equal(t, want, item.Data()[:len(want)])
				readIdx++
			}
		}
	}

	sizes := []int{1, 4, 7, 16, 63, 128, 500}
	for i := 0; i < 2000; i++ {
		step(i%3 != 0, sizes[i%len(sizes)])

		require.GreaterOrEqual(t, r.NumEntries(), r.NumRead())
		for idx, n := range r.nodes {
			if n == nil {
				continue
			}
			require.LessOrEqualf(t, n.read, n.page.Commit, "node %d", idx)
			require.LessOrEqualf(t, n.page.Commit, n.write, "node %d", idx)
			require.LessOrEqualf(t, n.write, r.pageDataSize, "node %d", idx)
		}
	}
}

func TestShowStateDoesNotMutate(t *testing.T) {
	r := newTestRing(t, 0)
	require.NoError(t, r.Write([]byte("hello")))

	before := r.NumEntries()
	beforeRead := r.NumRead()

	var lines []string
	sink := sinkFunc(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	})
	r.ShowState(sink)

	require.Equal(t, before, r.NumEntries())
	require.Equal(t, beforeRead, r.NumRead())
	require.NotEmpty(t, lines)
}

type sinkFunc func(format string, args ...any)

func (f sinkFunc) Printf(format string, args ...any) { f(format, args...) }

func TestIteratorIsNonDestructive(t *testing.T) {
	r := newTestRing(t, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Write([]byte{byte(i)}))
	}

	collect := func() [][]byte {
		var out [][]byte
		it := r.Iterate()
		for {
			item, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, append([]byte(nil), item.Data()...))
		}
		return out
	}

	first := collect()
	second := collect()
	require.Equal(t, first, second)
	require.EqualValues(t, 5, r.NumEntries())
	require.EqualValues(t, 0, r.NumRead())
}
