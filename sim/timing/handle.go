package timing

type handleState int

const (
	handlePending handleState = iota
	handleFired
	handleCancelled
	handleDiscarded
)

// An EventHandle is returned when an event is scheduled. It can be used to
// cancel the event before it fires.
type EventHandle struct {
	seq   uint64
	evt   Event
	state handleState
}

// Event returns the scheduled event.
func (h *EventHandle) Event() Event {
	return h.evt
}

// Time returns the time at which the event is scheduled to fire.
func (h *EventHandle) Time() VTimeInSec {
	return h.evt.Time()
}

// Cancel prevents the event from firing. Cancelling an event that has already
// fired, or was already cancelled, does nothing.
func (h *EventHandle) Cancel() {
	if h.state != handlePending {
		return
	}

	h.state = handleCancelled
}

// Pending returns true if the event has neither fired nor been cancelled.
func (h *EventHandle) Pending() bool {
	return h.state == handlePending
}

// Fired returns true if the event has been handled.
func (h *EventHandle) Fired() bool {
	return h.state == handleFired
}

// Cancelled returns true if the event has been cancelled by the user.
func (h *EventHandle) Cancelled() bool {
	return h.state == handleCancelled
}

// Discarded returns true if the event was still pending when the run stopped.
func (h *EventHandle) Discarded() bool {
	return h.state == handleDiscarded
}
