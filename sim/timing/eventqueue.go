package timing

import (
	"container/heap"
	"sync"
)

// EventQueue are a queue of events ordered by the time of events. Events of
// the same time leave the queue in the order that they entered it, except that
// secondary events always follow primary events.
type EventQueue interface {
	Push(h *EventHandle)
	Pop() *EventHandle
	Peek() *EventHandle
	Len() int
	Clear() []*EventHandle
}

// HeapEventQueue implements EventQueue with a binary heap.
type HeapEventQueue struct {
	sync.Mutex
	events eventHeap
}

// NewEventQueue creates and returns a newly created EventQueue
func NewEventQueue() *HeapEventQueue {
	q := new(HeapEventQueue)
	q.events = make([]*EventHandle, 0)
	heap.Init(&q.events)

	return q
}

// Push adds an event to the event queue
func (q *HeapEventQueue) Push(h *EventHandle) {
	q.Lock()
	heap.Push(&q.events, h)
	q.Unlock()
}

// Pop returns the next earliest event
func (q *HeapEventQueue) Pop() *EventHandle {
	q.Lock()
	h := heap.Pop(&q.events).(*EventHandle)
	q.Unlock()

	return h
}

// Len returns the number of event in the queue
func (q *HeapEventQueue) Len() int {
	q.Lock()
	l := q.events.Len()
	q.Unlock()

	return l
}

// Peek returns the event in front of the queue without removing it from the
// queue
func (q *HeapEventQueue) Peek() *EventHandle {
	q.Lock()
	h := q.events[0]
	q.Unlock()

	return h
}

// Clear removes all the events from the queue and returns them in firing
// order.
func (q *HeapEventQueue) Clear() []*EventHandle {
	q.Lock()
	defer q.Unlock()

	drained := make([]*EventHandle, 0, q.events.Len())
	for q.events.Len() > 0 {
		drained = append(drained, heap.Pop(&q.events).(*EventHandle))
	}

	return drained
}

type eventHeap []*EventHandle

// Len returns the length of the event queue
func (h eventHeap) Len() int {
	return len(h)
}

// Less determines the order between two events. Less returns true if the i-th
// event should fire before the j-th event.
func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]

	if a.evt.Time() != b.evt.Time() {
		return a.evt.Time() < b.evt.Time()
	}

	if a.evt.IsSecondary() != b.evt.IsSecondary() {
		return !a.evt.IsSecondary()
	}

	return a.seq < b.seq
}

// Swap changes the position of two events in the event queue
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Push adds an event into the event queue
func (h *eventHeap) Push(x any) {
	event := x.(*EventHandle)
	*h = append(*h, event)
}

// Pop removes and returns the next event to happen
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	event := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]

	return event
}
