// Command ringbufdemo exercises the ring buffer end to end: it writes a
// batch of demo records, drains them through a stats window, and prints a
// summary along with the ring's raw state.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wangloo/ringbuffer/pkg/ringbuf"
	"github.com/wangloo/ringbuffer/pkg/ringmetrics"
	"github.com/wangloo/ringbuffer/pkg/ringstats"
)

func main() {
	recordCount := flag.Int("records", 1000, "number of demo records to write")
	recordSize := flag.Int("record-size", 64, "size in bytes of each demo record")
	ringSize := flag.Uint("ring-size", 0, "minimum ring size in bytes (0 = two pages)")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address and block")
	flag.Parse()

	r, err := ringbuf.Alloc(uint32(*ringSize), ringbuf.NewHeapPageAllocator(ringbuf.PageSize))
	if err != nil {
		log.Fatalf("ringbufdemo: allocating ring: %v", err)
	}
	defer r.Close()

	payload := make([]byte, *recordSize)
	for i := 0; i < *recordCount; i++ {
		for j := range payload {
			payload[j] = byte(i + j)
		}
		if err := r.Write(payload); err != nil {
			log.Printf("ringbufdemo: write %d stopped early: %v", i, err)
			break
		}
	}

	r.ShowState(ringbuf.NewStdLogSink(log.Default()))

	window, err := ringstats.NewWindow(ringstats.Config{
		SlotLength: uint64(time.Second),
		WindowSize: 4,
	})
	if err != nil {
		log.Fatalf("ringbufdemo: building stats window: %v", err)
	}
	drainer := ringstats.NewDrainer(r, window)
	n := drainer.DrainAll()
	log.Printf("ringbufdemo: drained %d records", n)

	if *metricsAddr != "" {
		collector := ringmetrics.NewCollector(r, "ringbufdemo")
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector)

		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		log.Printf("ringbufdemo: serving metrics on %s", *metricsAddr)
		log.Fatal(http.ListenAndServe(*metricsAddr, nil))
	}
}
