package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapPageAllocator(t *testing.T) {
	a := NewHeapPageAllocator(PageSize)
	require.EqualValues(t, PageSize-pageHeaderSize, a.PageDataSize())

	p, err := a.Alloc()
	require.NoError(t, err)
	require.Len(t, p.Data, int(a.PageDataSize()))
	require.NoError(t, a.Free(p))
	require.NoError(t, a.Close())
}

func TestStaticPagePoolExhaustion(t *testing.T) {
	pool := NewStaticPagePool(2, PageSize)

	p1, err := pool.Alloc()
	require.NoError(t, err)
	require.NotNil(t, p1)

	p2, err := pool.Alloc()
	require.NoError(t, err)
	require.NotNil(t, p2)

	_, err = pool.Alloc()
	require.ErrorIs(t, err, ErrPoolExhausted)
}

func TestStaticPagePoolDefaultCapacity(t *testing.T) {
	pool := NewStaticPagePool(0, PageSize)
	for i := 0; i < StaticPages; i++ {
		_, err := pool.Alloc()
		require.NoError(t, err)
	}
	_, err := pool.Alloc()
	require.ErrorIs(t, err, ErrPoolExhausted)
}

func TestMmapPageAllocator(t *testing.T) {
	a := NewMmapPageAllocator(PageSize)
	p, err := a.Alloc()
	require.NoError(t, err)
	require.Len(t, p.Data, int(a.PageDataSize()))

	p.Data[0] = 0xAB
	require.Equal(t, byte(0xAB), p.Data[0])

	require.NoError(t, a.Close())
}

func TestAllocRejectsNilAllocator(t *testing.T) {
	_, err := Alloc(0, nil)
	require.ErrorIs(t, err, ErrNilAllocator)
}

func TestReserveItemTooLargeForPage(t *testing.T) {
	r := newTestRing(t, 0)
	_, err := r.ReserveItem(r.pageDataSize)
	require.ErrorIs(t, err, ErrTooLarge)
}
