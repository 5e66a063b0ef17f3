// Package ringmetrics exposes a ringbuf.RingBuffer's counters as Prometheus
// metrics. A Collector computes every value fresh on each scrape rather than
// caching it, so scraping never mutates the ring's own counters.
package ringmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	ringbuffer "github.com/wangloo/ringbuffer/pkg/ringbuf"
)

// Collector satisfies prometheus.Collector for one RingBuffer.
type Collector struct {
	ring *ringbuffer.RingBuffer

	entries *prometheus.Desc
	read    *prometheus.Desc
	unread  *prometheus.Desc
	pages   *prometheus.Desc
}

// NewCollector builds a Collector for ring. name is used as a label value so
// multiple rings can be registered under the same metric names.
func NewCollector(ring *ringbuffer.RingBuffer, name string) *Collector {
	labels := prometheus.Labels{"ring": name}
	return &Collector{
		ring: ring,
		entries: prometheus.NewDesc(
			"ringbuf_entries_total",
			"Total number of items ever committed to the ring.",
			nil, labels,
		),
		read: prometheus.NewDesc(
			"ringbuf_read_total",
			"Total number of items ever consumed from the ring.",
			nil, labels,
		),
		unread: prometheus.NewDesc(
			"ringbuf_unread",
			"Number of committed items not yet consumed.",
			nil, labels,
		),
		pages: prometheus.NewDesc(
			"ringbuf_pages",
			"Number of pages in the producer ring.",
			nil, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.read
	ch <- c.unread
	ch <- c.pages
}

// Collect implements prometheus.Collector, reading the ring's counters
// fresh on every call.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.CounterValue, float64(c.ring.NumEntries()))
	ch <- prometheus.MustNewConstMetric(c.read, prometheus.CounterValue, float64(c.ring.NumRead()))
	ch <- prometheus.MustNewConstMetric(c.unread, prometheus.GaugeValue, float64(c.ring.Unread()))
	ch <- prometheus.MustNewConstMetric(c.pages, prometheus.GaugeValue, float64(c.ring.NumPages()))
}
