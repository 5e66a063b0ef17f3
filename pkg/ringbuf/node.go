package ringbuf

import "sync/atomic"

// Edge flags, stored on a node's outgoing edge to its successor. In the
// reference design these are the two low bits stolen from a raw `next`
// pointer; here, per this design's own recommendation for a safe systems
// language, each node's successor is an arena index, and the flag rides
// alongside it in the same atomically-updated word instead of inside it.
const (
	edgeNormal int32 = 0 // ordinary interior edge
	edgeHead   int32 = 1 // edge points at the current head page
	edgeUpdate int32 = 2 // edge mid-transition (reserved for CAS protocol)
	edgeMoved  int32 = 4 // sentinel returned by isHeadEdge, never stored
)

// pageNode is the per-page metadata the ring owns: cursors, entry count,
// and the page's place in the circular doubly-linked list. next/prev are
// indices into the ring's node arena rather than pointers, and the
// HEAD/NORMAL/UPDATE flag for the outgoing edge is packed into the same
// word as the successor index so replaceHead's compare-and-swap moves both
// atomically: the arena+index analogue of the source's tagged pointer.
type pageNode struct {
	page    *Page
	write   uint32
	read    uint32
	nrEntry uint32

	prev int32 // arena index of the predecessor, plain (no flag)
	edge atomic.Int64
}

func packEdge(next int32, flag int32) int64 {
	return int64(uint32(next))<<32 | int64(uint32(flag))
}

func unpackEdge(v int64) (next int32, flag int32) {
	return int32(v >> 32), int32(uint32(v))
}

func (n *pageNode) next() int32 {
	next, _ := unpackEdge(n.edge.Load())
	return next
}

func (n *pageNode) setNext(next int32) {
	_, flag := unpackEdge(n.edge.Load())
	n.edge.Store(packEdge(next, flag))
}

// setEdgeToHead stamps the HEAD flag onto this node's outgoing edge,
// preserving its successor index. Mirrors rb_set_list_to_head: OR in HEAD,
// AND out UPDATE; since those are the only two flag bits, the result is
// simply HEAD regardless of the prior flag.
func (n *pageNode) setEdgeToHead() {
	for {
		old := n.edge.Load()
		next, _ := unpackEdge(old)
		newVal := packEdge(next, edgeHead)
		if n.edge.CompareAndSwap(old, newVal) {
			return
		}
	}
}

// isHeadEdge probes whether idx's predecessor's outgoing edge still points
// at idx, returning the flag bits if so. If the predecessor's edge no
// longer targets idx, the topology shifted under us and edgeMoved is
// returned, mirroring rb_is_head_page's re-check after `list->next`.
func (r *RingBuffer) isHeadEdge(idx int32) int32 {
	pred := r.nodes[idx].prev
	next, flag := unpackEdge(r.nodes[pred].edge.Load())
	if next != idx {
		return edgeMoved
	}
	return flag
}

// replaceHead atomically retargets old's predecessor's outgoing edge from
// "old, flagged HEAD" to "new, unflagged", the sole point at which the HEAD
// flag migrates. Returns whether the expected value still held.
func (r *RingBuffer) replaceHead(oldIdx, newIdx int32) bool {
	pred := r.nodes[oldIdx].prev
	expected := packEdge(oldIdx, edgeHead)
	desired := packEdge(newIdx, edgeNormal)
	return r.nodes[pred].edge.CompareAndSwap(expected, desired)
}
