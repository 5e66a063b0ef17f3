// Package ringstats provides a sliding time-window aggregator over items
// drained from a ringbuf.RingBuffer, keyed by each item's type tag. It is an
// external, opt-in consumer: it stamps wall-clock time on each item as it is
// drawn, it never touches ring internals, and it does not contradict the
// ring's own no-timestamps design.
package ringstats

import "fmt"

// TypeStats holds the running count and byte volume observed for one item
// type tag within a single time slot.
type TypeStats struct {
	Type  uint8
	Count uint64
	Bytes uint64
}

// TimeSlot holds every TypeStats observed within one fixed-length window of
// wall-clock time, [StartTime, EndTime).
type TimeSlot struct {
	StartTime uint64 // nanoseconds
	EndTime   uint64 // nanoseconds
	Stats     map[uint8]*TypeStats
}

// Config controls the size and alignment of the sliding window.
type Config struct {
	SlotLength uint64 // nanoseconds
	WindowSize uint   // number of consecutive slots retained at once
	SlotOffset uint64 // nanoseconds, modulo SlotLength
}

// Window is a sliding window of TimeSlots. Recording an item at a timestamp
// past the current window's end retires the oldest slots and opens new ones,
// keeping exactly WindowSize consecutive slots live at all times.
type Window struct {
	config Config
	slots  []*TimeSlot
}

// NewWindow builds a Window from config.
func NewWindow(config Config) (*Window, error) {
	if config.SlotLength == 0 {
		return nil, fmt.Errorf("ringstats: slot length must be greater than 0")
	}
	if config.WindowSize == 0 {
		return nil, fmt.Errorf("ringstats: window size must be greater than 0")
	}
	if config.SlotOffset >= config.SlotLength {
		return nil, fmt.Errorf("ringstats: slot offset must be less than slot length")
	}
	return &Window{config: config, slots: make([]*TimeSlot, 0, config.WindowSize)}, nil
}

func (w *Window) slotStart(timestamp uint64) uint64 {
	adjusted := timestamp - w.config.SlotOffset
	start := (adjusted / w.config.SlotLength) * w.config.SlotLength
	return start + w.config.SlotOffset
}

func (w *Window) newSlot(start uint64) *TimeSlot {
	return &TimeSlot{
		StartTime: start,
		EndTime:   start + w.config.SlotLength,
		Stats:     make(map[uint8]*TypeStats),
	}
}

// Advance ensures the window covers timestamp, retiring and returning any
// slots that fall out the back of the window in the process. Maintains the
// invariant that exactly WindowSize consecutive slots are live afterward.
// A timestamp older than the oldest live slot leaves the window unchanged.
func (w *Window) Advance(timestamp uint64) []*TimeSlot {
	windowSize := w.config.WindowSize
	newEndSlotStart := w.slotStart(timestamp)

	var retired []*TimeSlot
	if len(w.slots) > 0 {
		oldestStart := w.slots[0].StartTime
		if int64(newEndSlotStart-oldestStart) < 0 {
			return nil
		}
		slotsWithoutRetirement := (newEndSlotStart-oldestStart)/w.config.SlotLength + 1

		var extra uint64
		if slotsWithoutRetirement > uint64(windowSize) {
			extra = slotsWithoutRetirement - uint64(windowSize)
		}
		toRetire := extra
		if toRetire > uint64(len(w.slots)) {
			toRetire = uint64(len(w.slots))
		}

		if toRetire > 0 {
			remaining := uint64(len(w.slots)) - toRetire
			retired = make([]*TimeSlot, toRetire)
			copy(retired, w.slots[:toRetire])
			copy(w.slots, w.slots[toRetire:])
			w.slots = w.slots[:remaining]
		}
	}

	existing := len(w.slots)
	w.slots = w.slots[:windowSize]
	for i := existing; i < int(windowSize); i++ {
		start := newEndSlotStart - uint64(int(windowSize)-1-i)*w.config.SlotLength
		w.slots[i] = w.newSlot(start)
	}

	return retired
}

// Record attributes one item of the given type tag and byte length to the
// slot containing timestamp, advancing the window first if necessary. Items
// are point events: unlike an interval measurement, a single item is never
// split across a slot boundary.
func (w *Window) Record(timestamp uint64, typ uint8, bytes uint64) {
	w.Advance(timestamp)

	start := w.slotStart(timestamp)
	for _, slot := range w.slots {
		if slot.StartTime != start {
			continue
		}
		stats, ok := slot.Stats[typ]
		if !ok {
			stats = &TypeStats{Type: typ}
			slot.Stats[typ] = stats
		}
		stats.Count++
		stats.Bytes += bytes
		return
	}
	// timestamp fell outside the just-advanced window (stale relative to a
	// later call); silently dropped, matching the window's "oldest slots
	// retire" contract.
}

// Reset returns and clears every slot currently held by the window.
func (w *Window) Reset() []*TimeSlot {
	slots := w.slots
	w.slots = make([]*TimeSlot, 0, w.config.WindowSize)
	return slots
}
