package ringbuf

import "log"

// TraceSink is the diagnostic-output capability the ring takes as a
// collaborator (spec: "the core takes a trace sink capability"). ShowState
// writes a structured dump of ring counters and per-page cursors through it.
type TraceSink interface {
	Printf(format string, args ...any)
}

// StdLogSink adapts the standard library's *log.Logger to TraceSink. This
// is the default sink: nothing in this module's own command-line tooling
// reaches for a third-party logging library either, so a sink built on
// anything else would be introducing a dependency the corpus never shows.
type StdLogSink struct {
	logger *log.Logger
}

// NewStdLogSink wraps logger, or the standard logger if logger is nil.
func NewStdLogSink(logger *log.Logger) *StdLogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &StdLogSink{logger: logger}
}

func (s *StdLogSink) Printf(format string, args ...any) {
	s.logger.Printf(format, args...)
}

// ShowState emits a structured dump of the ring's counters and every
// producer page's (write, read) cursors. Pure observation: it never
// mutates nr_entry, nr_read, or any page cursor.
func (r *RingBuffer) ShowState(sink TraceSink) {
	sink.Printf("ringbuf: nr_page=%d nr_entry=%d nr_read=%d head=%d tail=%d reader=%d",
		r.nrPage, r.nrEntry, r.nrRead, r.headIdx, r.tailIdx, r.readerIdx)

	start := r.headIdx
	idx := start
	first := true
	for idx != start || first {
		first = false
		node := r.nodes[idx]
		sink.Printf("  page[%d]: write=%d read=%d commit=%d nr_entry=%d",
			idx, node.write, node.read, node.page.Commit, node.nrEntry)
		idx = node.next()
	}

	reader := r.nodes[r.readerIdx]
	sink.Printf("  reader_page[%d]: write=%d read=%d commit=%d nr_entry=%d",
		r.readerIdx, reader.write, reader.read, reader.page.Commit, reader.nrEntry)
}
