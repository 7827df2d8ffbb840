package lorasim

// eventqueue.go implements the per-channel time-sorted event lists
// (spec.md §2 "Event queue", §4.3, §9 Design Note 2). Each channel's
// pending transmissions are kept in a container/heap min-heap ordered by
// start time then insertion order, in the same idiom as the teacher's
// scheduler.go reqSrvHeap (a container/heap min-heap on a struct field).
// The top-level dispatch picks the smallest head across all non-empty
// channel heaps, tie-broken by channel identifier then insertion order
// (spec.md §5); channel counts in this engine are small and bounded
// (3 for EU868, 9 for US915), so that final cross-channel comparison is a
// direct scan rather than a second heap layer — see DESIGN.md.

import "container/heap"

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Start != h[j].Start {
		return h[i].Start < h[j].Start
	}
	return h[i].insOrder < h[j].insOrder
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(*Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// EventQueue holds one min-heap per channel.
type EventQueue struct {
	channels map[int]*eventHeap
	order    []int // channel ids in ascending order, for deterministic scanning
	nextSeq  int64

	// dispatched retains, per channel, events already popped off the
	// heap whose interval could still overlap an event not yet
	// dispatched. Without this, whichever of two overlapping
	// same-channel transmissions is dispatched second sees no
	// interferer at all once the first has already been popped,
	// breaking the mutual-destruction symmetry spec.md §8 requires.
	dispatched map[int][]*Event
}

// NewEventQueue builds an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{channels: make(map[int]*eventHeap), dispatched: make(map[int][]*Event)}
}

func (q *EventQueue) heapFor(channel int) *eventHeap {
	h, ok := q.channels[channel]
	if !ok {
		h = new(eventHeap)
		q.channels[channel] = h
		q.insertChannelOrder(channel)
	}
	return h
}

func (q *EventQueue) insertChannelOrder(channel int) {
	i := 0
	for ; i < len(q.order); i++ {
		if q.order[i] > channel {
			break
		}
	}
	q.order = append(q.order, 0)
	copy(q.order[i+1:], q.order[i:])
	q.order[i] = channel
}

// Push inserts an event into its channel's queue, per spec.md §3
// invariant: "Within any per-channel queue, events are ordered by sta
// ascending."
func (q *EventQueue) Push(ev *Event) {
	ev.insOrder = q.nextSeq
	q.nextSeq++
	h := q.heapFor(ev.Channel)
	heap.Push(h, ev)
}

// PopEarliest removes and returns the globally earliest pending event
// across all channels, tie-broken by channel identifier then insertion
// order (spec.md §4.3 steps 1-3, §5). ok is false when the queue is
// empty.
func (q *EventQueue) PopEarliest() (*Event, bool) {
	var bestChannel = -1
	var best *Event
	for _, ch := range q.order {
		h := q.channels[ch]
		if h.Len() == 0 {
			continue
		}
		head := (*h)[0]
		if best == nil || head.Start < best.Start ||
			(head.Start == best.Start && ch < bestChannel) {
			best = head
			bestChannel = ch
		}
	}
	if best == nil {
		return nil, false
	}
	h := q.channels[bestChannel]
	heap.Pop(h)
	return best, true
}

// PeekEarliest returns the start time of the globally earliest pending
// event without removing it, used by the horizon check in spec.md §4.3
// step 2.
func (q *EventQueue) PeekEarliest() (float64, bool) {
	var best float64
	found := false
	for _, ch := range q.order {
		h := q.channels[ch]
		if h.Len() == 0 {
			continue
		}
		head := (*h)[0]
		if !found || head.Start < best {
			best = head.Start
			found = true
		}
	}
	return best, found
}

// pendingOn returns a read-only snapshot of every event that could still
// interfere on a channel as of time asOf: events still queued, plus
// already-dispatched events on the same channel whose interval has not
// yet fully elapsed, for candidate-building by the collision engine.
func (q *EventQueue) pendingOn(channel int, asOf float64) []*Event {
	q.purgeDispatched(channel, asOf)

	var out []*Event
	if h, ok := q.channels[channel]; ok {
		out = make([]*Event, len(*h))
		copy(out, *h)
	}
	out = append(out, q.dispatched[channel]...)
	return out
}

// recordDispatched marks ev as dispatched so later candidate-building on
// its channel still sees it as an interferer while its interval could
// overlap a future event.
func (q *EventQueue) recordDispatched(ev *Event) {
	q.dispatched[ev.Channel] = append(q.dispatched[ev.Channel], ev)
}

// purgeDispatched drops recorded events on a channel that ended strictly
// before asOf. Per-channel dispatch order is non-decreasing in Start (the
// channel's own heap is popped in Start order), so an event that ended
// before the current Start can no longer overlap anything dispatched
// from here on.
func (q *EventQueue) purgeDispatched(channel int, asOf float64) {
	evs := q.dispatched[channel]
	kept := evs[:0]
	for _, ev := range evs {
		if ev.End >= asOf {
			kept = append(kept, ev)
		}
	}
	q.dispatched[channel] = kept
}

// Len returns the total number of pending events across all channels.
func (q *EventQueue) Len() int {
	n := 0
	for _, h := range q.channels {
		n += h.Len()
	}
	return n
}
