package ringmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	ringbuffer "github.com/wangloo/ringbuffer/pkg/ringbuf"
)

func TestCollectorReportsCounters(t *testing.T) {
	ring, err := ringbuffer.Alloc(0, ringbuffer.NewHeapPageAllocator(ringbuffer.PageSize))
	require.NoError(t, err)
	defer ring.Close()

	require.NoError(t, ring.Write([]byte("a")))
	require.NoError(t, ring.Write([]byte("b")))
	_, ok := ring.Consume()
	require.True(t, ok)

	c := NewCollector(ring, "test")

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	metrics, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range metrics {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] = metricValue(m)
		}
	}

	require.Equal(t, float64(2), values["ringbuf_entries_total"])
	require.Equal(t, float64(1), values["ringbuf_read_total"])
	require.Equal(t, float64(1), values["ringbuf_unread"])
	require.Equal(t, float64(2), values["ringbuf_pages"])
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	default:
		return 0
	}
}
